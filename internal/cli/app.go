package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/sushrusha/sushrusha/internal/config"
	"github.com/sushrusha/sushrusha/internal/metrics"
	"github.com/sushrusha/sushrusha/internal/presentation/tui"
	httpAdapter "github.com/sushrusha/sushrusha/pkg/adapters/http"
	"github.com/sushrusha/sushrusha/pkg/device"
	"github.com/sushrusha/sushrusha/pkg/domain"
	"github.com/sushrusha/sushrusha/pkg/ports"
	"golang.org/x/term"
)

// maxRenderWidth caps glamour word wrapping on wide terminals.
const maxRenderWidth = 100

// App bundles the collaborators shared by every command.
// Fields are exported so tests can assemble an App around fakes.
type App struct {
	Config    *config.Config
	Logger    *slog.Logger
	Metrics   *metrics.Metrics
	Transport ports.Transport
	Devices   ports.DeviceStore
	Out       io.Writer
	Render    tui.Renderer

	// Interactive enables the banner and colored output.
	Interactive bool
	Debug       bool

	deviceID string
	closers  []io.Closer
}

// NewApp wires the HTTP transport, device store, logger and metrics from cfg.
func NewApp(cfg *config.Config, debug bool) (*App, error) {
	logger, logCloser, err := createLogger(cfg.Log, debug)
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	devices, devCloser, err := OpenDeviceStore(cfg.Device)
	if err != nil {
		_ = logCloser.Close()
		return nil, err
	}

	m := metrics.New()
	client := httpAdapter.NewClient(cfg.APIURL,
		httpAdapter.WithTimeout(cfg.RequestTimeout),
		httpAdapter.WithLogger(logger),
		httpAdapter.WithObserver(m.ObserveRequest),
	)

	app := &App{
		Config:    cfg,
		Logger:    logger,
		Metrics:   m,
		Transport: client,
		Devices:   devices,
		Out:       os.Stdout,
		Render:    tui.PlainRenderer,
		Debug:     debug,
		closers:   []io.Closer{devCloser, logCloser},
	}

	fd := int(os.Stdout.Fd())
	if term.IsTerminal(fd) {
		app.Interactive = true
		width := 0
		if w, _, err := term.GetSize(fd); err == nil {
			width = min(w, maxRenderWidth)
		}
		app.Render = tui.NewRenderer(width)
	}
	return app, nil
}

// Close releases the device store and flushes the log file.
func (a *App) Close() error {
	var errs []error
	for _, c := range a.closers {
		if err := c.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// DeviceID resolves the persistent device identifier once per App.
func (a *App) DeviceID(ctx context.Context) (string, error) {
	if a.deviceID != "" {
		return a.deviceID, nil
	}
	id, err := device.Resolve(ctx, a.Devices)
	if err != nil {
		return "", fmt.Errorf("failed to resolve device id: %w", err)
	}
	a.deviceID = id
	return id, nil
}

// hooks returns the lifecycle hooks every machine is created with.
func (a *App) hooks() domain.LifecycleHooks {
	var hooks domain.LifecycleHooks
	if a.Metrics != nil {
		hooks = a.Metrics.Hooks()
	}
	if a.Debug {
		hooks = hooks.Merge(createDebugHooks(a.Logger))
	}
	return hooks
}

func (a *App) renderMarkdown(md string) {
	render := a.Render
	if render == nil {
		render = tui.PlainRenderer
	}
	out, err := render(md)
	if err != nil {
		a.Logger.Warn("markdown render failed", "err", err)
		out = md
	}
	fmt.Fprint(a.Out, out)
}
