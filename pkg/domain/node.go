package domain

import "fmt"

// Language is a locale offered by the evaluator.
type Language struct {
	Code       string `json:"code"`
	Name       string `json:"name"`
	NativeName string `json:"native_name"`
}

// ScenarioMeta is the immutable reference data of a training scenario,
// localized for the language it was fetched with.
type ScenarioMeta struct {
	ID               string `json:"id"`
	Title            string `json:"title"`
	Category         string `json:"category"`
	Difficulty       string `json:"difficulty"`
	EstimatedMinutes int    `json:"estimated_minutes"`
	Description      string `json:"description"`
}

// DialogueNode is one turn of patient speech within a scenario graph.
// NodeKey is opaque to the client; the evaluator guarantees it exists.
type DialogueNode struct {
	NodeKey         string `json:"node_key"`
	PatientText     string `json:"patient_text"`
	PatientAudioURL string `json:"patient_audio_url,omitempty"`
	PatientMediaURL string `json:"patient_media_url,omitempty"`
}

// StartResult is the evaluator answer to a session start.
type StartResult struct {
	SessionID string       `json:"session_id"`
	Node      DialogueNode `json:"node"`
	Scenario  ScenarioMeta `json:"scenario"`
}

// TurnResult is the evaluator answer to a submitted turn.
// NextNode is nil exactly when IsComplete is true.
type TurnResult struct {
	NextNode   *DialogueNode  `json:"next_node"`
	Evaluation TurnEvaluation `json:"evaluation"`
	Progress   Progress       `json:"progress"`
	IsComplete bool           `json:"is_complete"`
}

// Validate checks the exchange contract of a turn result.
func (r *TurnResult) Validate() error {
	if r.IsComplete && r.NextNode != nil {
		return fmt.Errorf("%w: next node present on a completed session", ErrInvalidResponse)
	}
	if !r.IsComplete && r.NextNode == nil {
		return fmt.Errorf("%w: next node missing on an open session", ErrInvalidResponse)
	}
	if r.NextNode != nil && r.NextNode.NodeKey == "" {
		return fmt.Errorf("%w: next node has an empty key", ErrInvalidResponse)
	}
	return r.Evaluation.Validate()
}
