package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/sushrusha/sushrusha/internal/config"
	"github.com/sushrusha/sushrusha/internal/logging"
	"github.com/sushrusha/sushrusha/pkg/domain"
)

// SignalContext wraps a context and captures the signal that cancelled it.
type SignalContext struct {
	context.Context
	Cancel func()
	start  sync.Once
	stop   sync.Once
	sigCh  chan os.Signal
	sigVal os.Signal
	mu     sync.Mutex
}

// NewSignalContext creates a context that is cancelled on SIGINT or SIGTERM.
// It acts as a drop-in replacement for signal.NotifyContext but allows retrieving the signal.
func NewSignalContext(parent context.Context) *SignalContext {
	ctx, cancel := context.WithCancel(parent)
	sc := &SignalContext{
		Context: ctx,
		Cancel:  cancel,
		sigCh:   make(chan os.Signal, 1),
	}

	sc.start.Do(func() {
		signal.Notify(sc.sigCh, os.Interrupt, syscall.SIGTERM)
		go func() {
			select {
			case sig := <-sc.sigCh:
				sc.mu.Lock()
				sc.sigVal = sig
				sc.mu.Unlock()
				sc.Cancel()
			case <-sc.Context.Done():
				// Context cancelled elsewhere
			}
			sc.stop.Do(func() {
				signal.Stop(sc.sigCh)
			})
		}()
	})

	return sc
}

// Signal returns the signal that caused the context to be cancelled, or nil.
func (sc *SignalContext) Signal() os.Signal {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	return sc.sigVal
}

// createLogger configures the application logger.
// With a log file configured, records go to the rotating JSON file. Otherwise
// debug mode writes to Stderr (to separate from the Stdout chat) and normal
// mode stays silent.
func createLogger(cfg config.LogConfig, debug bool) (*slog.Logger, io.Closer, error) {
	level := logging.ParseLevel(cfg.Level)
	if debug {
		level = slog.LevelDebug
	}
	if cfg.File != "" {
		return logging.NewFile(logging.FileOptions{
			Path:       cfg.File,
			MaxSizeMB:  cfg.MaxSizeMB,
			MaxBackups: cfg.MaxBackups,
		}, level)
	}
	if debug {
		return logging.New(level), nopCloser{}, nil
	}
	return logging.NewNop(), nopCloser{}, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// printSystemMessage prints a standardized system message.
func printSystemMessage(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, ">>> %s\n", fmt.Sprintf(format, args...))
}

func createDebugHooks(logger *slog.Logger) domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnTransition: func(ctx context.Context, e *domain.TransitionEvent) {
			logger.Debug("Transition", "op", e.Op, "from", e.From, "to", e.To, "session_id", e.SessionID)
		},
		OnTurnEvaluated: func(ctx context.Context, e *domain.TurnEvent) {
			logger.Debug("Turn Evaluated",
				"node_key", e.NodeKey,
				"matched", len(e.Evaluation.MatchedItems),
				"missed", len(e.Evaluation.MissedItems),
				"critical", len(e.Evaluation.CriticalMissed),
				"complete", e.IsComplete,
			)
		},
		OnOperationError: func(ctx context.Context, e *domain.ErrorEvent) {
			logger.Debug("Operation Failed", "op", e.Op, "err", e.Err)
		},
	}
}

var errInterrupted = errors.New("interrupted")

// InterruptibleReader wraps an io.Reader (like os.Stdin) and checks for a cancellation signal.
type InterruptibleReader struct {
	base   io.Reader
	cancel <-chan struct{}
}

func NewInterruptibleReader(base io.Reader, cancel <-chan struct{}) *InterruptibleReader {
	return &InterruptibleReader{
		base:   base,
		cancel: cancel,
	}
}

func (r *InterruptibleReader) Read(p []byte) (n int, err error) {
	// Check before blocking
	select {
	case <-r.cancel:
		return 0, errInterrupted
	default:
	}

	// Read (This blocks!)
	n, err = r.base.Read(p)

	// Check after returning
	select {
	case <-r.cancel:
		return 0, errInterrupted
	default:
	}
	return n, err
}

func isInterrupted(err error) bool {
	return errors.Is(err, context.Canceled) ||
		errors.Is(err, errInterrupted) ||
		errors.Is(err, io.EOF)
}

// HandleExecutionError maps user interruptions to a clean exit.
func HandleExecutionError(err error) error {
	if err == nil || isInterrupted(err) {
		return nil
	}
	return err
}
