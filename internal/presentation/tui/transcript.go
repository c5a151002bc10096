package tui

import (
	"fmt"
	"io"
	"strings"

	"github.com/muesli/termenv"
	"github.com/sushrusha/sushrusha/pkg/domain"
)

// Printer writes the incremental changes of session snapshots as a chat log.
// It is not safe for concurrent use.
type Printer struct {
	w    io.Writer
	out  *termenv.Output
	last *domain.Snapshot
}

// NewPrinter writes to w using the color profile detected for it.
// Pass termenv.WithProfile(termenv.Ascii) to disable colors.
func NewPrinter(w io.Writer, opts ...termenv.OutputOption) *Printer {
	return &Printer{w: w, out: termenv.NewOutput(w, opts...)}
}

// Render prints whatever changed since the previously rendered snapshot.
// Snapshots may be skipped; the transcript diff covers the gap.
func (p *Printer) Render(snap domain.Snapshot) {
	newSession := snap.SessionID != "" && (p.last == nil || p.last.SessionID != snap.SessionID)
	diff := domain.Diff(p.last, &snap)
	p.last = &snap
	if diff == nil {
		return
	}

	if newSession {
		p.header(snap.Scenario)
	}
	if diff.Annotated != nil && diff.Annotated.Evaluation != nil {
		p.evaluation(*diff.Annotated.Evaluation)
	}
	if diff.Progress != nil && diff.Progress.TurnIndex > 0 {
		p.progress(*diff.Progress)
	}
	for _, msg := range diff.Appended {
		p.message(msg)
		if msg.Evaluation != nil {
			p.evaluation(*msg.Evaluation)
		}
	}
}

func (p *Printer) header(s domain.ScenarioMeta) {
	title := p.out.String(s.Title).Bold()
	fmt.Fprintf(p.w, "\n%s\n", title)

	var meta []string
	for _, v := range []string{s.Category, s.Difficulty} {
		if v != "" {
			meta = append(meta, v)
		}
	}
	if s.EstimatedMinutes > 0 {
		meta = append(meta, fmt.Sprintf("~%d min", s.EstimatedMinutes))
	}
	if len(meta) > 0 {
		fmt.Fprintln(p.w, p.out.String(strings.Join(meta, " · ")).Faint())
	}
	if s.Description != "" {
		fmt.Fprintln(p.w, s.Description)
	}
	fmt.Fprintln(p.w)
}

func (p *Printer) message(msg domain.ChatMessage) {
	switch msg.Role {
	case domain.RolePatient:
		label := p.out.String("Patient:").Foreground(p.out.Color("#f472b6")).Bold()
		fmt.Fprintf(p.w, "%s %s\n", label, msg.Text)
	default:
		label := p.out.String("You:").Foreground(p.out.Color("#2dd4bf")).Bold()
		fmt.Fprintf(p.w, "%s %s\n", label, msg.Text)
	}
}

func (p *Printer) evaluation(ev domain.TurnEvaluation) {
	for _, line := range FormatEvaluation(ev) {
		color := "#4ade80"
		switch {
		case strings.HasPrefix(line, "  !"):
			color = "#ef4444"
		case strings.HasPrefix(line, "  x"):
			color = "#facc15"
		case strings.HasPrefix(line, "  >"):
			color = "#9ca3af"
		}
		fmt.Fprintln(p.w, p.out.String(line).Foreground(p.out.Color(color)))
	}
}

func (p *Printer) progress(pr domain.Progress) {
	fmt.Fprintln(p.w, p.out.String(FormatProgress(pr)).Faint())
}

// FormatEvaluation lists matched, missed and critical items one per line,
// followed by the evaluator note. Critical items are not repeated as missed.
func FormatEvaluation(ev domain.TurnEvaluation) []string {
	critical := make(map[string]bool, len(ev.CriticalMissed))
	for _, item := range ev.CriticalMissed {
		critical[item] = true
	}

	var lines []string
	for _, item := range ev.MatchedItems {
		lines = append(lines, "  + "+item)
	}
	for _, item := range ev.MissedItems {
		if !critical[item] {
			lines = append(lines, "  x "+item)
		}
	}
	for _, item := range ev.CriticalMissed {
		lines = append(lines, "  ! "+item+" (critical)")
	}
	if ev.Notes != "" {
		lines = append(lines, "  > "+ev.Notes)
	}
	return lines
}

// FormatProgress renders the advisory turn counter.
func FormatProgress(pr domain.Progress) string {
	if pr.TotalTurnsEstimate <= 0 {
		return fmt.Sprintf("  [turn %d]", pr.TurnIndex)
	}
	return fmt.Sprintf("  [turn %d of ~%d, %.0f%%]", pr.TurnIndex, pr.TotalTurnsEstimate, pr.Percent())
}
