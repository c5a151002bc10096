package session

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/sushrusha/sushrusha/internal/logging"
	"github.com/sushrusha/sushrusha/pkg/domain"
	"github.com/sushrusha/sushrusha/pkg/ports"
)

// Operation names carried by transition and error events.
const (
	OpStart         = "start"
	OpSubmit        = "submit"
	OpRequestReport = "request_report"
)

// Machine is the client-side state machine of a training session.
// All methods are safe for concurrent use.
type Machine struct {
	transport ports.Transport
	deviceID  string
	logger    *slog.Logger
	hooks     domain.LifecycleHooks
	delay     time.Duration
	clock     func() time.Time
	maxInput  int

	mu      sync.Mutex
	phase   domain.Phase
	session *domain.Session
	report  *domain.Report
	lastErr error
	version uint64
	current domain.Snapshot

	// latched is set once a completion request was issued for the session.
	latched bool

	disposed bool
	done     chan struct{}
	subs     *broadcaster
}

// NewMachine creates an idle machine talking to the evaluator through transport.
func NewMachine(transport ports.Transport, opts ...Option) *Machine {
	m := &Machine{
		transport: transport,
		logger:    logging.NewNop(),
		delay:     DefaultPresentationDelay,
		clock:     time.Now,
		maxInput:  DefaultMaxInputSize,
		phase:     domain.PhaseIdle,
		done:      make(chan struct{}),
		subs:      newBroadcaster(),
	}
	for _, opt := range opts {
		opt(m)
	}
	m.current = domain.NewSnapshot(0, m.phase, nil, nil, nil)
	return m
}

// snapshotState is what a failed Start restores.
type snapshotState struct {
	phase   domain.Phase
	session *domain.Session
	report  *domain.Report
	latched bool
}

// Start opens a new session on scenarioID in lang. It is allowed from Idle,
// and from Complete or Reported to begin again. On failure the previous
// phase and session are restored.
func (m *Machine) Start(ctx context.Context, scenarioID, lang string) error {
	prev, deviceID, err := m.beginStart(ctx)
	if err != nil {
		return err
	}

	res, err := m.transport.StartSession(ctx, scenarioID, lang, deviceID)

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.disposed {
		return domain.ErrStaleResponse
	}
	if err == nil && (res == nil || res.SessionID == "" || res.Node.NodeKey == "") {
		err = &domain.TransportError{
			Op:  OpStart,
			Err: fmt.Errorf("%w: missing session id or start node", domain.ErrInvalidResponse),
		}
	}
	if err != nil {
		m.session, m.report, m.latched = prev.session, prev.report, prev.latched
		m.lastErr = err
		m.transition(ctx, OpStart, prev.phase)
		m.fail(ctx, OpStart, err)
		return err
	}

	estimate := res.Scenario.EstimatedMinutes
	if estimate <= 0 {
		estimate = 1
	}
	m.session = &domain.Session{
		ID:       res.SessionID,
		Scenario: res.Scenario,
		Language: lang,
		NodeKey:  res.Node.NodeKey,
		Transcript: domain.Transcript{}.Append(domain.ChatMessage{
			Role: domain.RolePatient,
			Text: res.Node.PatientText,
		}),
		Progress:  domain.Progress{TurnIndex: 0, TotalTurnsEstimate: estimate},
		StartedAt: m.clock().UTC(),
	}
	m.report = nil
	m.latched = false
	m.logger.Info("session started", "session_id", res.SessionID, "scenario", res.Scenario.ID, "lang", lang)
	m.transition(ctx, OpStart, domain.PhaseActive)
	return nil
}

func (m *Machine) beginStart(ctx context.Context) (snapshotState, string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.guard(OpStart, domain.PhaseIdle, domain.PhaseComplete, domain.PhaseReported); err != nil {
		return snapshotState{}, "", err
	}
	prev := snapshotState{phase: m.phase, session: m.session, report: m.report, latched: m.latched}
	m.lastErr = nil
	m.transition(ctx, OpStart, domain.PhaseStarting)
	return prev, m.deviceID, nil
}

// Submit sends a worker response for the current node. The response is
// shown optimistically; on success it gains its evaluation and, unless the
// scenario is complete, the next patient message follows after the
// presentation delay. A failed exchange keeps the message without
// evaluation and returns to Active.
func (m *Machine) Submit(ctx context.Context, text string) error {
	sess, nodeKey, clean, err := m.beginSubmit(ctx, text)
	if err != nil {
		return err
	}

	res, err := m.transport.SubmitTurn(ctx, sess.ID, nodeKey, clean)

	next, err := m.applyTurn(ctx, sess, nodeKey, res, err)
	if err != nil || next == nil {
		return err
	}

	if err := m.present(ctx); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.disposed || m.session != sess {
		return domain.ErrStaleResponse
	}
	sess.Transcript = sess.Transcript.Append(domain.ChatMessage{Role: domain.RolePatient, Text: next.PatientText})
	m.transition(ctx, OpSubmit, domain.PhaseActive)
	return nil
}

// beginSubmit shows the worker message and enters Submitting.
func (m *Machine) beginSubmit(ctx context.Context, text string) (*domain.Session, string, string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.guard(OpSubmit, domain.PhaseActive); err != nil {
		return nil, "", "", err
	}
	clean, err := SanitizeInput(text, m.maxInput)
	if err != nil {
		m.fail(ctx, OpSubmit, err)
		return nil, "", "", err
	}

	sess := m.session
	sess.Transcript = sess.Transcript.Append(domain.ChatMessage{Role: domain.RoleWorker, Text: clean})
	m.lastErr = nil
	m.transition(ctx, OpSubmit, domain.PhaseSubmitting)
	return sess, sess.NodeKey, clean, nil
}

// applyTurn records the outcome of a submit exchange. It returns the next
// node while the scenario continues and nil once it is complete.
func (m *Machine) applyTurn(ctx context.Context, sess *domain.Session, nodeKey string, res *domain.TurnResult, err error) (*domain.DialogueNode, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.disposed || m.session != sess {
		return nil, domain.ErrStaleResponse
	}
	if err == nil {
		if res == nil {
			err = &domain.TransportError{Op: OpSubmit, Err: fmt.Errorf("%w: empty turn result", domain.ErrInvalidResponse)}
		} else if verr := res.Validate(); verr != nil {
			err = &domain.TransportError{Op: OpSubmit, Err: verr}
		}
	}
	if err != nil {
		m.lastErr = err
		m.transition(ctx, OpSubmit, domain.PhaseActive)
		m.fail(ctx, OpSubmit, err)
		return nil, err
	}

	eval := res.Evaluation.Clone()
	last, _ := sess.Transcript.Last()
	last.Evaluation = &eval
	sess.Transcript = sess.Transcript.ReplaceLast(last)
	sess.Progress = res.Progress
	m.turnEvaluated(ctx, nodeKey, res)

	if res.IsComplete {
		sess.Complete = true
		m.transition(ctx, OpSubmit, domain.PhaseComplete)
		return nil, nil
	}

	next := *res.NextNode
	sess.NodeKey = next.NodeKey
	m.publish()
	return &next, nil
}

// present waits out the presentation delay.
func (m *Machine) present(ctx context.Context) error {
	if m.delay <= 0 {
		return nil
	}
	timer := time.NewTimer(m.delay)
	defer timer.Stop()

	select {
	case <-timer.C:
	case <-ctx.Done():
		// Skip the pause only; the patient message is still shown.
	case <-m.done:
		return domain.ErrStaleResponse
	}
	return nil
}

// RequestReport asks the evaluator to finalize a complete session. A session
// already Reported returns its cached report without a network call.
func (m *Machine) RequestReport(ctx context.Context) (*domain.Report, error) {
	sess, latched, cached, err := m.beginReport(ctx)
	if err != nil || cached != nil {
		return cached, err
	}

	report, err := m.finalize(ctx, sess.ID, latched)

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.disposed || m.session != sess {
		return nil, domain.ErrStaleResponse
	}
	if err != nil {
		m.lastErr = err
		m.transition(ctx, OpRequestReport, domain.PhaseComplete)
		m.fail(ctx, OpRequestReport, err)
		return nil, err
	}

	now := m.clock().UTC()
	score := report.Score
	sess.CompletedAt = &now
	sess.Score = &score
	m.report = report.Clone()
	m.logger.Info("session reported", "session_id", sess.ID, "score", score)
	m.transition(ctx, OpRequestReport, domain.PhaseReported)
	return report.Clone(), nil
}

// beginReport enters Finalizing and latches the completion request. A
// cached report is returned for a session already Reported.
func (m *Machine) beginReport(ctx context.Context) (*domain.Session, bool, *domain.Report, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.disposed && m.phase == domain.PhaseReported && m.report != nil {
		return nil, false, m.report.Clone(), nil
	}
	if err := m.guard(OpRequestReport, domain.PhaseComplete); err != nil {
		return nil, false, nil, err
	}
	latched := m.latched
	m.latched = true
	m.lastErr = nil
	m.transition(ctx, OpRequestReport, domain.PhaseFinalizing)
	return m.session, latched, nil, nil
}

// finalize completes the session. Once a completion request has been issued,
// a retry first asks for the stored report, since completion is not
// idempotent and the earlier request may have reached the evaluator.
func (m *Machine) finalize(ctx context.Context, sessionID string, latched bool) (*domain.Report, error) {
	if latched {
		existing, err := m.transport.GetReport(ctx, sessionID)
		if err != nil {
			return nil, err
		}
		if existing != nil && existing.Report != nil {
			m.logger.Debug("recovered report of an interrupted completion", "session_id", sessionID)
			return existing.Report, nil
		}
	}

	report, err := m.transport.CompleteSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if report == nil {
		return nil, &domain.TransportError{
			Op:  OpRequestReport,
			Err: fmt.Errorf("%w: completion returned no report", domain.ErrInvalidResponse),
		}
	}
	return report, nil
}

// Snapshot returns the latest published snapshot.
func (m *Machine) Snapshot() domain.Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current
}

// Phase returns the current phase.
func (m *Machine) Phase() domain.Phase {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.phase
}

// Subscribe returns a channel that receives the current snapshot and then
// every later one. A slow reader may miss intermediate snapshots but never
// the latest. The channel is closed by cancel or by Dispose.
func (m *Machine) Subscribe() (<-chan domain.Snapshot, func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.subs.subscribe(m.current)
}

// Dispose ends every subscription. Responses arriving afterwards are
// discarded and their operations return domain.ErrStaleResponse.
func (m *Machine) Dispose() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.disposed {
		return
	}
	m.disposed = true
	close(m.done)
	m.subs.close()
	m.logger.Debug("session machine disposed", "session_id", m.sessionID(), "phase", m.phase)
}

// guard checks op against the current phase. Callers hold m.mu.
func (m *Machine) guard(op string, allowed ...domain.Phase) error {
	if m.disposed {
		return domain.ErrStaleResponse
	}
	for _, p := range allowed {
		if m.phase == p {
			return nil
		}
	}
	if op == OpSubmit && m.phase == domain.PhaseSubmitting {
		return domain.ErrSubmitInFlight
	}
	return &domain.TransitionError{Op: op, Phase: m.phase}
}

// transition moves to phase `to` and publishes. Callers hold m.mu.
func (m *Machine) transition(ctx context.Context, op string, to domain.Phase) {
	from := m.phase
	m.phase = to
	m.publish()
	if from == to {
		return
	}

	m.logger.Debug("session transition", "op", op, "from", from, "to", to, "session_id", m.sessionID())
	if m.hooks.OnTransition != nil {
		m.hooks.OnTransition(ctx, &domain.TransitionEvent{
			EventBase: m.event(domain.EventTransition),
			Op:        op,
			From:      from,
			To:        to,
		})
	}
}

func (m *Machine) publish() {
	m.version++
	m.current = domain.NewSnapshot(m.version, m.phase, m.session, m.report, m.lastErr)
	m.subs.publish(m.current)
}

func (m *Machine) turnEvaluated(ctx context.Context, nodeKey string, res *domain.TurnResult) {
	if m.hooks.OnTurnEvaluated == nil {
		return
	}
	m.hooks.OnTurnEvaluated(ctx, &domain.TurnEvent{
		EventBase:  m.event(domain.EventTurnEvaluated),
		NodeKey:    nodeKey,
		Evaluation: res.Evaluation.Clone(),
		Progress:   res.Progress,
		IsComplete: res.IsComplete,
	})
}

func (m *Machine) fail(ctx context.Context, op string, err error) {
	if domain.IsValidation(err) {
		m.logger.Debug("input rejected", "op", op, "error", err)
	} else {
		m.logger.Warn("session operation failed", "op", op, "session_id", m.sessionID(), "error", err)
	}
	if m.hooks.OnOperationError != nil {
		m.hooks.OnOperationError(ctx, &domain.ErrorEvent{
			EventBase: m.event(domain.EventOperationError),
			Op:        op,
			Err:       err,
		})
	}
}

func (m *Machine) event(t domain.EventType) domain.EventBase {
	return domain.EventBase{Timestamp: m.clock(), Type: t, SessionID: m.sessionID()}
}

func (m *Machine) sessionID() string {
	if m.session == nil {
		return ""
	}
	return m.session.ID
}
