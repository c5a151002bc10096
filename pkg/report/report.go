// Package report projects a completed session into a read-only view.
package report

import (
	"fmt"
	"strings"

	"github.com/sushrusha/sushrusha/pkg/domain"
)

// Band is the qualitative tone of a score. It is derived, never stored.
type Band string

const (
	BandExcellent     Band = "excellent"
	BandGood          Band = "good"
	BandNeedsPractice Band = "needs practice"
)

// BandFor maps a 0-100 score to its band.
func BandFor(score float64) Band {
	switch {
	case score >= 80:
		return BandExcellent
	case score >= 50:
		return BandGood
	default:
		return BandNeedsPractice
	}
}

// Label is the display form of the band.
func (b Band) Label() string {
	switch b {
	case BandExcellent:
		return "Excellent"
	case BandGood:
		return "Good"
	default:
		return "Needs practice"
	}
}

// State distinguishes the renderable states of a report view.
type State string

const (
	StateLoading  State = "loading"
	StateNotFound State = "not_found"
	StateReady    State = "ready"
)

// View is the projection of a SessionReport. Report and Band are set only
// when State is StateReady.
type View struct {
	State   State
	Summary domain.SessionSummary
	Report  *domain.Report
	Band    Band
}

// NewView derives the view of sr. A missing session or a session without a
// report is NotFound, which is distinct from Loading.
func NewView(sr *domain.SessionReport, loading bool) View {
	if loading {
		return View{State: StateLoading}
	}
	if sr == nil || sr.Report == nil {
		v := View{State: StateNotFound}
		if sr != nil {
			v.Summary = sr.SessionSummary
		}
		return v
	}
	return View{
		State:   StateReady,
		Summary: sr.SessionSummary,
		Report:  sr.Report.Clone(),
		Band:    BandFor(sr.Report.Score),
	}
}

// Markdown renders the view for a terminal Markdown renderer.
func (v View) Markdown() string {
	switch v.State {
	case StateLoading:
		return "_Loading report..._\n"
	case StateNotFound:
		return "## Report not found\n\nThis session has no report yet. Finish the scenario to get one.\n"
	}

	r := v.Report
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", v.Summary.DisplayTitle())
	fmt.Fprintf(&b, "**Score:** %.1f / 100 (%s)\n\n", r.Score, v.Band.Label())
	if v.Summary.CompletedAt != nil {
		fmt.Fprintf(&b, "_Completed %s_\n\n", v.Summary.CompletedAt.Local().Format("2 Jan 2006 15:04"))
	}

	if len(r.CriticalMisses) > 0 {
		b.WriteString("## Critical misses\n\n")
		for _, m := range r.CriticalMisses {
			fmt.Fprintf(&b, "- **%s**\n", m)
		}
		b.WriteString("\n")
	}

	if len(r.ChecklistResults) > 0 {
		b.WriteString("## Checklist\n\n| Item | Status | Critical |\n|---|---|---|\n")
		for _, c := range r.ChecklistResults {
			status := "done"
			if c.Status == domain.ChecklistMissed {
				status = "missed"
			}
			critical := ""
			if c.IsCritical {
				critical = "yes"
			}
			fmt.Fprintf(&b, "| %s | %s | %s |\n", escapeCell(c.Item), status, critical)
		}
		b.WriteString("\n")
	}

	if len(r.Suggestions) > 0 {
		b.WriteString("## Suggestions\n\n")
		for _, s := range r.Suggestions {
			fmt.Fprintf(&b, "- %s\n", s)
		}
		b.WriteString("\n")
	}

	if len(r.Transcript) > 0 {
		b.WriteString("## Transcript\n\n")
		for _, e := range r.Transcript {
			fmt.Fprintf(&b, "**Turn %d**\n\n", e.Turn)
			fmt.Fprintf(&b, "> Patient: %s\n>\n> You: %s\n\n", e.Patient, e.Worker)
			if len(e.Matched) > 0 {
				fmt.Fprintf(&b, "Matched: %s\n\n", strings.Join(e.Matched, ", "))
			}
			if len(e.Missed) > 0 {
				fmt.Fprintf(&b, "Missed: %s\n\n", strings.Join(e.Missed, ", "))
			}
		}
	}
	return b.String()
}

func escapeCell(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}
