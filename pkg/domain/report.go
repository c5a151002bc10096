package domain

import (
	"sort"
	"time"
)

// ChecklistStatus is the final outcome of a checklist item.
type ChecklistStatus string

const (
	ChecklistDone   ChecklistStatus = "done"
	ChecklistMissed ChecklistStatus = "missed"
)

// ChecklistResult is one aggregated checklist item of a report.
type ChecklistResult struct {
	Item       string          `json:"item"`
	Status     ChecklistStatus `json:"status"`
	IsCritical bool            `json:"is_critical"`
}

// TranscriptEntry is the evaluator re-projection of one turn.
type TranscriptEntry struct {
	Turn    int      `json:"turn"`
	Patient string   `json:"patient"`
	Worker  string   `json:"worker"`
	Matched []string `json:"matched"`
	Missed  []string `json:"missed"`
}

// Report is the final scored outcome of a session. It is produced once by
// the evaluator at completion time; the client never computes it.
type Report struct {
	Score            float64           `json:"score"`
	ChecklistResults []ChecklistResult `json:"checklist_results"`
	CriticalMisses   []string          `json:"critical_misses"`
	Suggestions      []string          `json:"suggestions"`
	Transcript       []TranscriptEntry `json:"transcript"`
}

// Clone returns a deep copy of the report.
func (r *Report) Clone() *Report {
	if r == nil {
		return nil
	}
	out := &Report{
		Score:          r.Score,
		CriticalMisses: cloneStrings(r.CriticalMisses),
		Suggestions:    cloneStrings(r.Suggestions),
	}
	if r.ChecklistResults != nil {
		out.ChecklistResults = append([]ChecklistResult(nil), r.ChecklistResults...)
	}
	if r.Transcript != nil {
		out.Transcript = make([]TranscriptEntry, len(r.Transcript))
		for i, e := range r.Transcript {
			e.Matched = cloneStrings(e.Matched)
			e.Missed = cloneStrings(e.Missed)
			out.Transcript[i] = e
		}
	}
	return out
}

// SessionSummary is one row of the history listing.
// CompletedAt and Score are nil for sessions still in progress.
type SessionSummary struct {
	SessionID     string     `json:"session_id"`
	ScenarioID    string     `json:"scenario_id"`
	ScenarioTitle string     `json:"scenario_title"`
	Language      string     `json:"language"`
	StartedAt     time.Time  `json:"started_at"`
	CompletedAt   *time.Time `json:"completed_at"`
	Score         *float64   `json:"score"`
}

// Completed reports whether the session has a final report.
func (s SessionSummary) Completed() bool {
	return s.CompletedAt != nil
}

// DisplayTitle falls back to the scenario id when no title is known.
func (s SessionSummary) DisplayTitle() string {
	if s.ScenarioTitle != "" {
		return s.ScenarioTitle
	}
	return s.ScenarioID
}

// SessionReport is a summary plus its report, which is nil when the session
// was never completed.
type SessionReport struct {
	SessionSummary
	Report *Report `json:"report"`
}

// SortHistory orders summaries newest first by start time.
// Ties keep their incoming order.
func SortHistory(sessions []SessionSummary) {
	sort.SliceStable(sessions, func(i, j int) bool {
		return sessions[i].StartedAt.After(sessions[j].StartedAt)
	})
}
