package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"text/tabwriter"
	"time"

	"github.com/sushrusha/sushrusha/pkg/domain"
	"github.com/sushrusha/sushrusha/pkg/report"
)

// HistoryOptions filters the history listing.
type HistoryOptions struct {
	// Limit caps the number of sessions. Zero uses the configured default.
	Limit int
	// All lists sessions of every device instead of this one.
	All bool
}

// History prints past sessions, newest first.
func History(ctx context.Context, app *App, opts HistoryOptions) error {
	var deviceID string
	if !opts.All {
		id, err := app.DeviceID(ctx)
		if err != nil {
			return err
		}
		deviceID = id
	}

	limit := opts.Limit
	if limit <= 0 {
		limit = app.Config.HistoryLimit
	}

	sessions, err := app.Transport.ListHistory(ctx, deviceID, limit)
	if err != nil {
		return fmt.Errorf("failed to load history: %w", err)
	}
	domain.SortHistory(sessions)
	return PrintHistory(app.Out, sessions)
}

// PrintHistory writes one row per session. Sessions without a report are
// tagged as in progress.
func PrintHistory(w io.Writer, sessions []domain.SessionSummary) error {
	if len(sessions) == 0 {
		fmt.Fprintln(w, "No sessions yet. Start one with 'sushrusha play <scenario>'.")
		return nil
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "STARTED\tSCENARIO\tLANG\tSCORE\tSTATUS\tSESSION")
	for _, s := range sessions {
		score, status := "-", "in progress"
		if s.Completed() && s.Score != nil {
			score = fmt.Sprintf("%.1f", *s.Score)
			status = report.BandFor(*s.Score).Label()
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
			formatTime(s.StartedAt), s.DisplayTitle(), s.Language, score, status, s.SessionID)
	}
	return tw.Flush()
}

// Report prints the report of a past session.
func Report(ctx context.Context, app *App, sessionID string) error {
	sr, err := app.Transport.GetReport(ctx, sessionID)
	var te *domain.TransportError
	if errors.As(err, &te) && te.Status == http.StatusNotFound {
		sr, err = nil, nil
	}
	if err != nil {
		return fmt.Errorf("failed to load report: %w", err)
	}
	app.renderMarkdown(report.NewView(sr, false).Markdown())
	return nil
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format("2006-01-02 15:04")
}
