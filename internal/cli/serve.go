package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/sushrusha/sushrusha/internal/adapters/evaluator"
	"github.com/sushrusha/sushrusha/internal/presentation/graph"
)

const shutdownTimeout = 5 * time.Second

// ServeOptions configures the local practice evaluator.
type ServeOptions struct {
	Addr string
	// ScenariosDir loads scenario YAML files from disk instead of the
	// built-in catalog.
	ScenariosDir string
	Logger       *slog.Logger
	// Ready, when set, receives the bound address once the server listens.
	Ready func(addr string)
}

// ServeEvaluator runs the evaluator HTTP API until ctx is cancelled, then
// shuts down gracefully.
func ServeEvaluator(ctx context.Context, opts ServeOptions) error {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	catalog, err := loadCatalog(opts.ScenariosDir)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              opts.Addr,
		Handler:           evaluator.NewHandler(catalog, evaluator.WithLogger(logger)),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return runServer(ctx, srv, logger, opts.Ready)
}

func loadCatalog(dir string) (*evaluator.Catalog, error) {
	if dir == "" {
		return evaluator.BuiltinCatalog()
	}
	catalog, err := evaluator.LoadCatalog(os.DirFS(dir))
	if err != nil {
		return nil, fmt.Errorf("failed to load scenarios from %s: %w", dir, err)
	}
	return catalog, nil
}

// serveMetrics exposes the Prometheus registry of app on addr in the
// background. The returned function stops the server.
func serveMetrics(ctx context.Context, app *App, addr string) func() {
	mux := http.NewServeMux()
	mux.Handle("/metrics", app.Metrics.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 10 * time.Second}

	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := runServer(ctx, srv, app.Logger, nil); err != nil {
			app.Logger.Warn("metrics server failed", "addr", addr, "err", err)
		}
	}()
	return func() {
		cancel()
		<-done
	}
}

func runServer(ctx context.Context, srv *http.Server, logger *slog.Logger, ready func(string)) error {
	ln, err := net.Listen("tcp", srv.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", srv.Addr, err)
	}
	logger.Info("server listening", "addr", ln.Addr().String())
	if ready != nil {
		ready(ln.Addr().String())
	}

	// Channel to listen for errors coming from the listener.
	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- srv.Serve(ln)
	}()

	select {
	case err := <-serverErrors:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err

	case <-ctx.Done():
		logger.Info("shutting down server", "addr", srv.Addr)

		// Give outstanding requests a deadline for completion.
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Warn("graceful shutdown did not complete", "timeout", shutdownTimeout, "err", err)
			return srv.Close()
		}
		return nil
	}
}

// PrintScenarioGraph writes the Mermaid flowchart of one scenario.
func PrintScenarioGraph(w io.Writer, scenariosDir, scenarioID string) error {
	catalog, err := loadCatalog(scenariosDir)
	if err != nil {
		return err
	}
	s, ok := catalog.Get(scenarioID)
	if !ok {
		return fmt.Errorf("scenario %q not found", scenarioID)
	}
	_, err = fmt.Fprint(w, graph.GenerateMermaid(s, nil))
	return err
}
