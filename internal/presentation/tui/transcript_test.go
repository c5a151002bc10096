package tui

import (
	"bytes"
	"strings"
	"testing"

	"github.com/muesli/termenv"
	"github.com/stretchr/testify/assert"
	"github.com/sushrusha/sushrusha/pkg/domain"
)

func snapshot(version uint64, msgs ...domain.ChatMessage) domain.Snapshot {
	return domain.Snapshot{
		Version:    version,
		Phase:      domain.PhaseActive,
		SessionID:  "s1",
		Scenario:   domain.ScenarioMeta{Title: "ANC Visit", Category: "Maternal Health", EstimatedMinutes: 5},
		Transcript: msgs,
	}
}

func TestPrinter_RendersIncrementally(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf, termenv.WithProfile(termenv.Ascii))

	patient := domain.ChatMessage{Role: domain.RolePatient, Text: "Namaste didi."}
	p.Render(snapshot(1, patient))
	assert.Contains(t, buf.String(), "ANC Visit")
	assert.Contains(t, buf.String(), "Maternal Health · ~5 min")
	assert.Contains(t, buf.String(), "Patient: Namaste didi.")

	buf.Reset()
	worker := domain.ChatMessage{Role: domain.RoleWorker, Text: "Any bleeding?"}
	p.Render(snapshot(2, patient, worker))
	assert.Equal(t, "You: Any bleeding?\n", buf.String())

	// Evaluation and the next patient line arrive together after a skipped snapshot.
	buf.Reset()
	evaluated := worker
	evaluated.Evaluation = &domain.TurnEvaluation{
		MatchedItems: []string{"Ask about bleeding"},
		MissedItems:  []string{"Check BP"},
		Notes:        "Some items missed, review protocol guidelines.",
	}
	next := snapshot(4, patient, evaluated, domain.ChatMessage{Role: domain.RolePatient, Text: "My feet are swollen."})
	next.Progress = domain.Progress{TurnIndex: 1, TotalTurnsEstimate: 4}
	p.Render(next)

	out := buf.String()
	assert.NotContains(t, out, "You:")
	assert.NotContains(t, out, "ANC Visit")
	assert.Less(t, strings.Index(out, "+ Ask about bleeding"), strings.Index(out, "Patient: My feet"))
	assert.Contains(t, out, "x Check BP")
	assert.Contains(t, out, "[turn 1 of ~4, 25%]")

	buf.Reset()
	p.Render(next)
	assert.Empty(t, buf.String())
}

func TestPrinter_NewSessionReprintsHeader(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf, termenv.WithProfile(termenv.Ascii))
	p.Render(snapshot(1, domain.ChatMessage{Role: domain.RolePatient, Text: "one"}))

	buf.Reset()
	other := snapshot(5, domain.ChatMessage{Role: domain.RolePatient, Text: "two"})
	other.SessionID = "s2"
	p.Render(other)
	assert.Contains(t, buf.String(), "ANC Visit")
	assert.Contains(t, buf.String(), "Patient: two")
}

func TestFormatEvaluation(t *testing.T) {
	lines := FormatEvaluation(domain.TurnEvaluation{
		MatchedItems:   []string{"Greet"},
		MissedItems:    []string{"Danger signs", "Follow-up"},
		CriticalMissed: []string{"Danger signs"},
		Notes:          "Critical protocol items missed: Danger signs",
	})
	assert.Equal(t, []string{
		"  + Greet",
		"  x Follow-up",
		"  ! Danger signs (critical)",
		"  > Critical protocol items missed: Danger signs",
	}, lines)
	assert.Empty(t, FormatEvaluation(domain.TurnEvaluation{}))
}

func TestFormatProgress(t *testing.T) {
	assert.Equal(t, "  [turn 2]", FormatProgress(domain.Progress{TurnIndex: 2}))
	assert.Equal(t, "  [turn 6 of ~4, 100%]", FormatProgress(domain.Progress{TurnIndex: 6, TotalTurnsEstimate: 4}))
}

func TestPrintBanner(t *testing.T) {
	var buf bytes.Buffer
	PrintBanner(&buf)
	assert.Contains(t, buf.String(), "Practice patient conversations")
}

func TestPlainRenderer(t *testing.T) {
	out, err := PlainRenderer("# Report")
	assert.NoError(t, err)
	assert.Equal(t, "# Report", out)
}
