package domain

import "time"

// Phase is the client-observable state of a training session.
type Phase string

const (
	PhaseIdle       Phase = "idle"       // No active session
	PhaseStarting   Phase = "starting"   // Start exchange in flight
	PhaseActive     Phase = "active"     // Node displayed, awaiting input
	PhaseSubmitting Phase = "submitting" // Turn exchange in flight
	PhaseComplete   Phase = "complete"   // Evaluator signaled completion, report not requested
	PhaseFinalizing Phase = "finalizing" // Completion exchange in flight
	PhaseReported   Phase = "reported"   // Report received (terminal)
)

// AcceptsInput reports whether a worker response may be submitted.
func (p Phase) AcceptsInput() bool {
	return p == PhaseActive
}

// InFlight reports whether an exchange with the evaluator is pending.
func (p Phase) InFlight() bool {
	return p == PhaseStarting || p == PhaseSubmitting || p == PhaseFinalizing
}

// Session is the authoritative client-side state of one simulation.
// It is owned by the state machine; consumers only ever see Snapshots.
type Session struct {
	ID          string
	Scenario    ScenarioMeta
	Language    string
	NodeKey     string
	Transcript  Transcript
	Progress    Progress
	Complete    bool
	StartedAt   time.Time
	CompletedAt *time.Time
	Score       *float64
}

// Snapshot is an immutable view of the machine after a transition.
type Snapshot struct {
	Version   uint64       `json:"version"`
	Phase     Phase        `json:"phase"`
	SessionID string       `json:"session_id,omitempty"`
	Scenario  ScenarioMeta `json:"scenario"`
	Language  string       `json:"language,omitempty"`
	NodeKey   string       `json:"node_key,omitempty"`

	Transcript Transcript `json:"transcript"`
	Progress   Progress   `json:"progress"`
	Complete   bool       `json:"complete"`

	StartedAt   time.Time  `json:"started_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	Score       *float64   `json:"score,omitempty"`

	// Report is set once the phase reaches PhaseReported.
	Report *Report `json:"report,omitempty"`

	// LastError holds the message of the most recent failed operation, if any.
	LastError string `json:"last_error,omitempty"`
}

// NewSnapshot copies s into an immutable snapshot.
func NewSnapshot(version uint64, phase Phase, s *Session, report *Report, lastErr error) Snapshot {
	snap := Snapshot{
		Version: version,
		Phase:   phase,
	}
	if s != nil {
		snap.SessionID = s.ID
		snap.Scenario = s.Scenario
		snap.Language = s.Language
		snap.NodeKey = s.NodeKey
		snap.Transcript = s.Transcript.Clone()
		snap.Progress = s.Progress
		snap.Complete = s.Complete
		snap.StartedAt = s.StartedAt
		if s.CompletedAt != nil {
			t := *s.CompletedAt
			snap.CompletedAt = &t
		}
		if s.Score != nil {
			v := *s.Score
			snap.Score = &v
		}
	}
	snap.Report = report.Clone()
	if lastErr != nil {
		snap.LastError = lastErr.Error()
	}
	return snap
}
