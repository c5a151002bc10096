package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTranscript_AppendDoesNotMutate(t *testing.T) {
	orig := Transcript{{Role: RolePatient, Text: "Hello"}}
	next := orig.Append(ChatMessage{Role: RoleWorker, Text: "Hi"})

	assert.Len(t, orig, 1)
	assert.Len(t, next, 2)
	assert.Equal(t, RoleWorker, next[1].Role)
}

func TestTranscript_ReplaceLast(t *testing.T) {
	orig := Transcript{
		{Role: RolePatient, Text: "Hello"},
		{Role: RoleWorker, Text: "Hi"},
	}
	ev := &TurnEvaluation{Notes: "ok"}
	next := orig.ReplaceLast(ChatMessage{Role: RoleWorker, Text: "Hi", Evaluation: ev})

	assert.Nil(t, orig[1].Evaluation, "original must stay untouched")
	assert.Equal(t, ev, next[1].Evaluation)
	assert.Equal(t, len(orig), len(next))

	var empty Transcript
	assert.Empty(t, empty.ReplaceLast(ChatMessage{}))
}

func TestTranscript_CloneIsDeep(t *testing.T) {
	orig := Transcript{{Role: RoleWorker, Text: "Hi", Evaluation: &TurnEvaluation{MatchedItems: []string{"a"}}}}
	cp := orig.Clone()
	cp[0].Evaluation.MatchedItems[0] = "b"
	cp[0].Text = "changed"

	assert.Equal(t, "a", orig[0].Evaluation.MatchedItems[0])
	assert.Equal(t, "Hi", orig[0].Text)
}
