package domain

import "fmt"

// TurnEvaluation describes how one worker response was scored against the
// node checklist. CriticalMissed is always a subset of MissedItems.
type TurnEvaluation struct {
	MatchedItems   []string `json:"matched_items"`
	MissedItems    []string `json:"missed_items"`
	CriticalMissed []string `json:"critical_missed"`
	Notes          string   `json:"notes"`
}

// Validate enforces CriticalMissed ⊆ MissedItems, each critical item
// listed once.
func (e TurnEvaluation) Validate() error {
	missed := make(map[string]struct{}, len(e.MissedItems))
	for _, item := range e.MissedItems {
		missed[item] = struct{}{}
	}
	critical := make(map[string]struct{}, len(e.CriticalMissed))
	for _, item := range e.CriticalMissed {
		if _, ok := missed[item]; !ok {
			return fmt.Errorf("%w: critical item %q is not in missed items", ErrInvalidResponse, item)
		}
		if _, dup := critical[item]; dup {
			return fmt.Errorf("%w: critical item %q listed twice", ErrInvalidResponse, item)
		}
		critical[item] = struct{}{}
	}
	return nil
}

// Clone returns a deep copy so snapshots never share slices with live state.
func (e TurnEvaluation) Clone() TurnEvaluation {
	return TurnEvaluation{
		MatchedItems:   cloneStrings(e.MatchedItems),
		MissedItems:    cloneStrings(e.MissedItems),
		CriticalMissed: cloneStrings(e.CriticalMissed),
		Notes:          e.Notes,
	}
}

// Progress tracks how far a session has advanced.
// TotalTurnsEstimate is advisory; completion is signaled explicitly.
type Progress struct {
	TurnIndex          int `json:"turn_index"`
	TotalTurnsEstimate int `json:"total_turns_estimate"`
}

// Percent returns the advisory completion ratio in [0, 100].
func (p Progress) Percent() float64 {
	if p.TotalTurnsEstimate <= 0 {
		return 0
	}
	pct := float64(p.TurnIndex) / float64(p.TotalTurnsEstimate) * 100
	if pct > 100 {
		return 100
	}
	return pct
}

func cloneStrings(in []string) []string {
	if in == nil {
		return nil
	}
	out := make([]string, len(in))
	copy(out, in)
	return out
}
