package ports

import (
	"context"

	"github.com/sushrusha/sushrusha/pkg/domain"
)

// Transport turns session operations into request/response exchanges with a
// remote evaluator. Implementations own no retry policy: every call either
// succeeds or fails independently, and must not hang indefinitely.
type Transport interface {
	// ListLanguages returns the languages offered by the evaluator.
	ListLanguages(ctx context.Context) ([]domain.Language, error)

	// ListScenarios returns the scenarios available in lang, localized.
	ListScenarios(ctx context.Context, lang string) ([]domain.ScenarioMeta, error)

	// StartSession opens a session. deviceID may be empty, in which case the
	// evaluator cannot group the session into a device history.
	StartSession(ctx context.Context, scenarioID, lang, deviceID string) (*domain.StartResult, error)

	// SubmitTurn sends the worker response for the node identified by nodeKey.
	SubmitTurn(ctx context.Context, sessionID, nodeKey, userText string) (*domain.TurnResult, error)

	// CompleteSession asks the evaluator to produce the final report.
	// It is not guaranteed to be idempotent.
	CompleteSession(ctx context.Context, sessionID string) (*domain.Report, error)

	// GetReport fetches a session summary and its report, if any.
	GetReport(ctx context.Context, sessionID string) (*domain.SessionReport, error)

	// ListHistory returns at most limit sessions, newest first by start time.
	ListHistory(ctx context.Context, deviceID string, limit int) ([]domain.SessionSummary, error)
}
