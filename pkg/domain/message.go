package domain

// Role identifies the speaker of a transcript message.
type Role string

const (
	RolePatient Role = "patient"
	RoleWorker  Role = "worker"
)

// ChatMessage is one entry of the client-visible transcript.
// Only worker messages carry an Evaluation, and only once the turn round-trip
// has completed.
type ChatMessage struct {
	Role       Role            `json:"role"`
	Text       string          `json:"text"`
	Evaluation *TurnEvaluation `json:"evaluation,omitempty"`
}

// Clone returns a deep copy of the message.
func (m ChatMessage) Clone() ChatMessage {
	out := ChatMessage{Role: m.Role, Text: m.Text}
	if m.Evaluation != nil {
		ev := m.Evaluation.Clone()
		out.Evaluation = &ev
	}
	return out
}

// Transcript is the ordered, append-only sequence of messages of a session.
type Transcript []ChatMessage

// Append returns a new transcript with msg added at the end.
// The receiver is never modified.
func (t Transcript) Append(msg ChatMessage) Transcript {
	out := make(Transcript, len(t), len(t)+1)
	copy(out, t)
	return append(out, msg)
}

// ReplaceLast returns a new transcript whose last element is msg.
// It returns the receiver unchanged when it is empty.
func (t Transcript) ReplaceLast(msg ChatMessage) Transcript {
	if len(t) == 0 {
		return t
	}
	out := make(Transcript, len(t))
	copy(out, t)
	out[len(out)-1] = msg
	return out
}

// Last returns the final message and whether one exists.
func (t Transcript) Last() (ChatMessage, bool) {
	if len(t) == 0 {
		return ChatMessage{}, false
	}
	return t[len(t)-1], true
}

// Clone returns a deep copy of the transcript.
func (t Transcript) Clone() Transcript {
	if t == nil {
		return nil
	}
	out := make(Transcript, len(t))
	for i, m := range t {
		out[i] = m.Clone()
	}
	return out
}
