package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/muesli/termenv"
	"github.com/sushrusha/sushrusha/internal/presentation/tui"
	"github.com/sushrusha/sushrusha/pkg/domain"
	"github.com/sushrusha/sushrusha/pkg/report"
	"github.com/sushrusha/sushrusha/pkg/session"
)

// PlayOptions configures one interactive training session.
type PlayOptions struct {
	ScenarioID string
	Language   string
	In         io.Reader
}

// Play runs a scenario from start to report, reading worker responses
// line by line from opts.In. Typing exit or quit leaves the session open on
// the evaluator; it stays visible in the history.
func Play(ctx context.Context, app *App, opts PlayOptions) error {
	deviceID, err := app.DeviceID(ctx)
	if err != nil {
		return err
	}

	m := session.NewMachine(app.Transport,
		session.WithDeviceID(deviceID),
		session.WithLogger(app.Logger),
		session.WithLifecycleHooks(app.hooks()),
		session.WithPresentationDelay(app.Config.PresentationDelay),
	)
	defer m.Dispose()

	if addr := app.Config.MetricsAddr; addr != "" && app.Metrics != nil {
		stop := serveMetrics(ctx, app, addr)
		defer stop()
	}

	if app.Interactive {
		tui.PrintBanner(app.Out)
	}

	view := newPlayView(app.Out, app.Interactive)
	snaps, unsubscribe := m.Subscribe()
	followed := make(chan struct{})
	go func() {
		defer close(followed)
		view.follow(snaps)
	}()
	defer func() {
		unsubscribe()
		<-followed
	}()

	lines := readLines(ctx, opts.In)

	if err := m.Start(ctx, opts.ScenarioID, opts.Language); err != nil {
		return fmt.Errorf("failed to start scenario %q: %w", opts.ScenarioID, err)
	}

	for {
		snap := m.Snapshot()
		view.sync(ctx, snap.Version)
		if snap.Phase == domain.PhaseComplete {
			view.printf("\nScenario complete. Press Enter to see your report.\n")
		} else {
			view.printf("> ")
		}

		var line string
		var ok bool
		select {
		case <-ctx.Done():
			return ctx.Err()
		case line, ok = <-lines:
		}

		if !ok {
			if m.Phase() != domain.PhaseComplete {
				view.printf("\n")
				return nil
			}
			line = ""
		}

		switch strings.ToLower(strings.TrimSpace(line)) {
		case "exit", "quit":
			view.system("Session %s left open. Run 'sushrusha history' to find it.", snap.SessionID)
			return nil
		}

		if m.Phase() == domain.PhaseComplete {
			if err := showFinalReport(ctx, app, m, view); err != nil {
				if errors.Is(err, context.Canceled) {
					return err
				}
				view.system("Could not fetch the report: %v", err)
				if !ok {
					return err
				}
				continue
			}
			return nil
		}

		switch err := m.Submit(ctx, line); {
		case err == nil:
		case domain.IsValidation(err):
			var ve *domain.ValidationError
			if errors.As(err, &ve) {
				view.system("Response not sent: %s.", ve.Reason)
			}
		case errors.Is(err, context.Canceled), errors.Is(err, domain.ErrStaleResponse):
			return err
		default:
			view.system("Could not reach the evaluator: %v", err)
			view.system("Your message is kept. Type it again to retry.")
		}
	}
}

func showFinalReport(ctx context.Context, app *App, m *session.Machine, view *playView) error {
	view.printf("%s\n", "Preparing your report...")
	r, err := m.RequestReport(ctx)
	if err != nil {
		return err
	}

	snap := m.Snapshot()
	view.sync(ctx, snap.Version)
	sr := &domain.SessionReport{
		SessionSummary: domain.SessionSummary{
			SessionID:     snap.SessionID,
			ScenarioID:    snap.Scenario.ID,
			ScenarioTitle: snap.Scenario.Title,
			Language:      snap.Language,
			StartedAt:     snap.StartedAt,
			CompletedAt:   snap.CompletedAt,
			Score:         snap.Score,
		},
		Report: r,
	}

	view.mu.Lock()
	defer view.mu.Unlock()
	app.renderMarkdown(report.NewView(sr, false).Markdown())
	return nil
}

// readLines delivers input lines until EOF or cancellation. The reading
// goroutine may stay blocked on a terminal read after ctx ends.
func readLines(ctx context.Context, in io.Reader) <-chan string {
	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(NewInterruptibleReader(in, ctx.Done()))
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
	}()
	return lines
}

// playView serializes transcript output from the subscription goroutine
// with prompts written by the input loop.
type playView struct {
	mu      sync.Mutex
	w       io.Writer
	printer *tui.Printer
	version uint64
	updated chan struct{}
}

func newPlayView(w io.Writer, colors bool) *playView {
	var opts []termenv.OutputOption
	if !colors {
		opts = append(opts, termenv.WithProfile(termenv.Ascii))
	}
	return &playView{
		w:       w,
		printer: tui.NewPrinter(w, opts...),
		updated: make(chan struct{}, 1),
	}
}

func (v *playView) follow(snaps <-chan domain.Snapshot) {
	for snap := range snaps {
		v.mu.Lock()
		v.printer.Render(snap)
		v.version = snap.Version
		v.mu.Unlock()

		select {
		case v.updated <- struct{}{}:
		default:
		}
	}
}

// sync waits until the snapshot with the given version has been printed.
func (v *playView) sync(ctx context.Context, version uint64) {
	for {
		v.mu.Lock()
		seen := v.version
		v.mu.Unlock()
		if seen >= version {
			return
		}
		select {
		case <-v.updated:
		case <-ctx.Done():
			return
		}
	}
}

func (v *playView) printf(format string, args ...any) {
	v.mu.Lock()
	defer v.mu.Unlock()
	fmt.Fprintf(v.w, format, args...)
}

func (v *playView) system(format string, args ...any) {
	v.mu.Lock()
	defer v.mu.Unlock()
	printSystemMessage(v.w, format, args...)
}
