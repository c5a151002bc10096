package testutils

import (
	"context"
	"fmt"
	"sync"

	"github.com/sushrusha/sushrusha/pkg/domain"
	"github.com/sushrusha/sushrusha/pkg/ports"
)

// FakeTransport is a scripted ports.Transport. Each method delegates to the
// matching func field when set and otherwise returns a small canned answer.
// Calls are counted per method.
type FakeTransport struct {
	ListLanguagesFunc   func(ctx context.Context) ([]domain.Language, error)
	ListScenariosFunc   func(ctx context.Context, lang string) ([]domain.ScenarioMeta, error)
	StartSessionFunc    func(ctx context.Context, scenarioID, lang, deviceID string) (*domain.StartResult, error)
	SubmitTurnFunc      func(ctx context.Context, sessionID, nodeKey, userText string) (*domain.TurnResult, error)
	CompleteSessionFunc func(ctx context.Context, sessionID string) (*domain.Report, error)
	GetReportFunc       func(ctx context.Context, sessionID string) (*domain.SessionReport, error)
	ListHistoryFunc     func(ctx context.Context, deviceID string, limit int) ([]domain.SessionSummary, error)

	mu    sync.Mutex
	calls map[string]int
}

var _ ports.Transport = (*FakeTransport)(nil)

// Calls returns how many times method was invoked.
func (f *FakeTransport) Calls(method string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[method]
}

func (f *FakeTransport) record(method string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.calls == nil {
		f.calls = make(map[string]int)
	}
	f.calls[method]++
}

func (f *FakeTransport) ListLanguages(ctx context.Context) ([]domain.Language, error) {
	f.record("ListLanguages")
	if f.ListLanguagesFunc != nil {
		return f.ListLanguagesFunc(ctx)
	}
	return []domain.Language{{Code: "en", Name: "English", NativeName: "English"}}, nil
}

func (f *FakeTransport) ListScenarios(ctx context.Context, lang string) ([]domain.ScenarioMeta, error) {
	f.record("ListScenarios")
	if f.ListScenariosFunc != nil {
		return f.ListScenariosFunc(ctx, lang)
	}
	return []domain.ScenarioMeta{Scenario("s1")}, nil
}

func (f *FakeTransport) StartSession(ctx context.Context, scenarioID, lang, deviceID string) (*domain.StartResult, error) {
	f.record("StartSession")
	if f.StartSessionFunc != nil {
		return f.StartSessionFunc(ctx, scenarioID, lang, deviceID)
	}
	return &domain.StartResult{
		SessionID: "sess-" + scenarioID,
		Node:      domain.DialogueNode{NodeKey: "start", PatientText: "Namaste didi."},
		Scenario:  Scenario(scenarioID),
	}, nil
}

func (f *FakeTransport) SubmitTurn(ctx context.Context, sessionID, nodeKey, userText string) (*domain.TurnResult, error) {
	f.record("SubmitTurn")
	if f.SubmitTurnFunc != nil {
		return f.SubmitTurnFunc(ctx, sessionID, nodeKey, userText)
	}
	return NextTurn(nodeKey+"-next", 1), nil
}

func (f *FakeTransport) CompleteSession(ctx context.Context, sessionID string) (*domain.Report, error) {
	f.record("CompleteSession")
	if f.CompleteSessionFunc != nil {
		return f.CompleteSessionFunc(ctx, sessionID)
	}
	return &domain.Report{Score: 80}, nil
}

func (f *FakeTransport) GetReport(ctx context.Context, sessionID string) (*domain.SessionReport, error) {
	f.record("GetReport")
	if f.GetReportFunc != nil {
		return f.GetReportFunc(ctx, sessionID)
	}
	return &domain.SessionReport{SessionSummary: domain.SessionSummary{SessionID: sessionID}}, nil
}

func (f *FakeTransport) ListHistory(ctx context.Context, deviceID string, limit int) ([]domain.SessionSummary, error) {
	f.record("ListHistory")
	if f.ListHistoryFunc != nil {
		return f.ListHistoryFunc(ctx, deviceID, limit)
	}
	return []domain.SessionSummary{}, nil
}

// Scenario builds scenario metadata with a five-minute estimate.
func Scenario(id string) domain.ScenarioMeta {
	return domain.ScenarioMeta{
		ID:               id,
		Title:            fmt.Sprintf("Scenario %s", id),
		Category:         "Maternal Health",
		Difficulty:       "beginner",
		EstimatedMinutes: 5,
	}
}

// NextTurn builds an open turn result pointing at nodeKey.
func NextTurn(nodeKey string, turnIndex int) *domain.TurnResult {
	return &domain.TurnResult{
		NextNode: &domain.DialogueNode{NodeKey: nodeKey, PatientText: "Patient says " + nodeKey},
		Evaluation: domain.TurnEvaluation{
			MatchedItems: []string{"Greet the patient"},
			MissedItems:  []string{},
			Notes:        "All checklist items addressed!",
		},
		Progress: domain.Progress{TurnIndex: turnIndex, TotalTurnsEstimate: 4},
	}
}

// FinalTurn builds a completing turn result.
func FinalTurn(turnIndex int) *domain.TurnResult {
	return &domain.TurnResult{
		IsComplete: true,
		Evaluation: domain.TurnEvaluation{
			MatchedItems:   []string{},
			MissedItems:    []string{"Ask about danger signs"},
			CriticalMissed: []string{"Ask about danger signs"},
		},
		Progress: domain.Progress{TurnIndex: turnIndex, TotalTurnsEstimate: 4},
	}
}
