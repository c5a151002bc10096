package domain

import (
	"context"
	"time"
)

// EventType defines the category of the event.
type EventType string

const (
	EventTransition     EventType = "transition"
	EventTurnEvaluated  EventType = "turn_evaluated"
	EventOperationError EventType = "operation_error"
)

// EventBase contains common fields for all events.
type EventBase struct {
	Timestamp time.Time `json:"timestamp"`
	Type      EventType `json:"type"`
	SessionID string    `json:"session_id,omitempty"`
}

// TransitionEvent is emitted every time the machine changes phase.
type TransitionEvent struct {
	EventBase
	Op   string `json:"op"`
	From Phase  `json:"from"`
	To   Phase  `json:"to"`
}

// TurnEvent is emitted when an evaluation is attached to a worker message.
type TurnEvent struct {
	EventBase
	NodeKey    string         `json:"node_key"`
	Evaluation TurnEvaluation `json:"evaluation"`
	Progress   Progress       `json:"progress"`
	IsComplete bool           `json:"is_complete"`
}

// ErrorEvent is emitted when an operation fails (validation or transport).
type ErrorEvent struct {
	EventBase
	Op  string `json:"op"`
	Err error  `json:"-"`
}

// LifecycleHooks defines callbacks for session observability.
// Hooks run synchronously on the goroutine driving the machine and must not
// call back into it.
type LifecycleHooks struct {
	OnTransition     func(context.Context, *TransitionEvent)
	OnTurnEvaluated  func(context.Context, *TurnEvent)
	OnOperationError func(context.Context, *ErrorEvent)
}

// Merge returns hooks that call h first and then other.
func (h LifecycleHooks) Merge(other LifecycleHooks) LifecycleHooks {
	return LifecycleHooks{
		OnTransition:     chain(h.OnTransition, other.OnTransition),
		OnTurnEvaluated:  chain(h.OnTurnEvaluated, other.OnTurnEvaluated),
		OnOperationError: chain(h.OnOperationError, other.OnOperationError),
	}
}

func chain[E any](a, b func(context.Context, E)) func(context.Context, E) {
	switch {
	case a == nil:
		return b
	case b == nil:
		return a
	}
	return func(ctx context.Context, e E) {
		a(ctx, e)
		b(ctx, e)
	}
}
