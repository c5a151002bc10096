package cli

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/sushrusha/sushrusha/internal/adapters/evaluator"
	"github.com/sushrusha/sushrusha/internal/config"
	"github.com/sushrusha/sushrusha/internal/logging"
	"github.com/sushrusha/sushrusha/internal/metrics"
	"github.com/sushrusha/sushrusha/internal/testutils"
	httpAdapter "github.com/sushrusha/sushrusha/pkg/adapters/http"
	"github.com/sushrusha/sushrusha/pkg/adapters/memory"
	"github.com/sushrusha/sushrusha/pkg/domain"
	"github.com/sushrusha/sushrusha/pkg/ports"
)

func newTestApp(t *testing.T, transport ports.Transport) (*App, *bytes.Buffer) {
	t.Helper()
	cfg := config.Default()
	cfg.PresentationDelay = 0
	cfg.Device.Store = config.StoreMemory

	var out bytes.Buffer
	return &App{
		Config:    cfg,
		Logger:    logging.NewNop(),
		Metrics:   metrics.New(),
		Transport: transport,
		Devices:   memory.NewDeviceStore(),
		Out:       &out,
	}, &out
}

func TestPlay_EndToEnd(t *testing.T) {
	catalog, err := evaluator.BuiltinCatalog()
	require.NoError(t, err)
	srv := httptest.NewServer(evaluator.NewHandler(catalog))
	defer srv.Close()

	app, out := newTestApp(t, httpAdapter.NewClient(srv.URL))
	input := strings.Join([]string{
		"Is he very thirsty? Give ORS and zinc.",
		"Continue breastfeeding and food.",
		"",
	}, "\n") + "\n"

	err = Play(context.Background(), app, PlayOptions{
		ScenarioID: "child-diarrhea",
		Language:   "en",
		In:         strings.NewReader(input),
	})
	require.NoError(t, err)

	text := out.String()
	assert.Contains(t, text, "Child with Diarrhea")
	assert.Contains(t, text, "Patient: My son has had loose motions")
	assert.Contains(t, text, "You: Is he very thirsty?")
	assert.Contains(t, text, "+ Advise ORS and zinc")
	assert.Contains(t, text, "Patient: He is drinking a little.")
	assert.Contains(t, text, "Scenario complete. Press Enter")
	assert.Contains(t, text, "**Score:** 100.0 / 100 (Excellent)")

	// The finished session shows up in this device's history.
	out.Reset()
	require.NoError(t, History(context.Background(), app, HistoryOptions{}))
	assert.Contains(t, out.String(), "Child with Diarrhea")
	assert.Contains(t, out.String(), "100.0")
	assert.Contains(t, out.String(), "Excellent")
}

func TestPlay_RejectsBlankAndRetriesTransportFailure(t *testing.T) {
	fake := &testutils.FakeTransport{}
	attempts := 0
	fake.SubmitTurnFunc = func(ctx context.Context, sessionID, nodeKey, userText string) (*domain.TurnResult, error) {
		attempts++
		if attempts == 1 {
			return nil, &domain.TransportError{Op: "submit_turn", Err: errors.New("connection refused")}
		}
		return testutils.FinalTurn(1), nil
	}
	app, out := newTestApp(t, fake)

	err := Play(context.Background(), app, PlayOptions{
		ScenarioID: "s1",
		Language:   "en",
		In:         strings.NewReader("   \nhello\nhello again\n\n"),
	})
	require.NoError(t, err)

	text := out.String()
	assert.Contains(t, text, ">>> Response not sent: must not be empty.")
	assert.Contains(t, text, ">>> Could not reach the evaluator")
	assert.Contains(t, text, "Ask about danger signs (critical)")
	assert.Contains(t, text, "**Score:** 80.0 / 100 (Excellent)")
	assert.Equal(t, 2, fake.Calls("SubmitTurn"))
	assert.Equal(t, 1, fake.Calls("CompleteSession"))
}

func TestPlay_ExitLeavesSessionOpen(t *testing.T) {
	fake := &testutils.FakeTransport{}
	app, out := newTestApp(t, fake)

	err := Play(context.Background(), app, PlayOptions{
		ScenarioID: "s1",
		Language:   "en",
		In:         strings.NewReader("quit\n"),
	})
	require.NoError(t, err)
	assert.Contains(t, out.String(), ">>> Session sess-s1 left open")
	assert.Zero(t, fake.Calls("SubmitTurn"))
	assert.Zero(t, fake.Calls("CompleteSession"))
}

func TestPlay_EOFFinalizesCompletedSession(t *testing.T) {
	fake := &testutils.FakeTransport{
		SubmitTurnFunc: func(ctx context.Context, sessionID, nodeKey, userText string) (*domain.TurnResult, error) {
			return testutils.FinalTurn(1), nil
		},
	}
	app, out := newTestApp(t, fake)

	err := Play(context.Background(), app, PlayOptions{ScenarioID: "s1", Language: "en", In: strings.NewReader("done")})
	require.NoError(t, err)
	assert.Equal(t, 1, fake.Calls("CompleteSession"))
	assert.Contains(t, out.String(), "**Score:** 80.0")
}

func TestPlay_StartFailure(t *testing.T) {
	fake := &testutils.FakeTransport{
		StartSessionFunc: func(ctx context.Context, scenarioID, lang, deviceID string) (*domain.StartResult, error) {
			return nil, &domain.TransportError{Op: "start_session", Status: http.StatusNotFound, Body: "Scenario not found"}
		},
	}
	app, _ := newTestApp(t, fake)

	err := Play(context.Background(), app, PlayOptions{ScenarioID: "nope", Language: "en", In: strings.NewReader("")})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Scenario not found")
}

func TestPlay_SendsDeviceID(t *testing.T) {
	var gotDevice string
	fake := &testutils.FakeTransport{
		StartSessionFunc: func(ctx context.Context, scenarioID, lang, deviceID string) (*domain.StartResult, error) {
			gotDevice = deviceID
			return &domain.StartResult{SessionID: "s", Node: domain.DialogueNode{NodeKey: "start", PatientText: "hi"}}, nil
		},
	}
	app, _ := newTestApp(t, fake)
	id, err := app.Devices.SaveIfAbsent(context.Background(), "dev_fixed")
	require.NoError(t, err)

	require.NoError(t, Play(context.Background(), app, PlayOptions{ScenarioID: "s1", Language: "en", In: strings.NewReader("")}))
	assert.Equal(t, id, gotDevice)
}

func TestHistory(t *testing.T) {
	score := 42.0
	completed := time.Date(2024, 3, 1, 10, 5, 0, 0, time.UTC)
	var gotDevice string
	var gotLimit int
	fake := &testutils.FakeTransport{
		ListHistoryFunc: func(ctx context.Context, deviceID string, limit int) ([]domain.SessionSummary, error) {
			gotDevice, gotLimit = deviceID, limit
			return []domain.SessionSummary{
				{SessionID: "old", ScenarioID: "anc-visit", StartedAt: time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)},
				{SessionID: "new", ScenarioTitle: "Child with Diarrhea", StartedAt: time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC), CompletedAt: &completed, Score: &score},
			}, nil
		},
	}
	app, out := newTestApp(t, fake)

	require.NoError(t, History(context.Background(), app, HistoryOptions{}))
	assert.Equal(t, 10, gotLimit)
	assert.True(t, strings.HasPrefix(gotDevice, "dev_"))

	text := out.String()
	assert.Less(t, strings.Index(text, "new"), strings.Index(text, "old"))
	assert.Contains(t, text, "42.0")
	assert.Contains(t, text, "Needs practice")
	assert.Contains(t, text, "in progress")
	assert.Contains(t, text, "anc-visit")

	require.NoError(t, History(context.Background(), app, HistoryOptions{All: true, Limit: 3}))
	assert.Empty(t, gotDevice)
	assert.Equal(t, 3, gotLimit)
}

func TestPrintHistory_Empty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, PrintHistory(&buf, nil))
	assert.Contains(t, buf.String(), "No sessions yet")
}

func TestReport(t *testing.T) {
	fake := &testutils.FakeTransport{
		GetReportFunc: func(ctx context.Context, sessionID string) (*domain.SessionReport, error) {
			switch sessionID {
			case "missing":
				return nil, &domain.TransportError{Op: "get_report", Status: http.StatusNotFound, Body: "Session not found"}
			case "down":
				return nil, &domain.TransportError{Op: "get_report", Err: errors.New("connection refused")}
			}
			return &domain.SessionReport{
				SessionSummary: domain.SessionSummary{SessionID: sessionID, ScenarioTitle: "ANC Visit"},
				Report:         &domain.Report{Score: 55, Suggestions: []string{"Practice more"}},
			}, nil
		},
	}
	app, out := newTestApp(t, fake)
	ctx := context.Background()

	require.NoError(t, Report(ctx, app, "s1"))
	assert.Contains(t, out.String(), "# ANC Visit")
	assert.Contains(t, out.String(), "(Good)")
	assert.Contains(t, out.String(), "- Practice more")

	out.Reset()
	require.NoError(t, Report(ctx, app, "missing"))
	assert.Contains(t, out.String(), "Report not found")

	assert.Error(t, Report(ctx, app, "down"))
}

func TestCatalogListings(t *testing.T) {
	fake := &testutils.FakeTransport{}
	app, out := newTestApp(t, fake)
	ctx := context.Background()

	require.NoError(t, ListLanguages(ctx, app))
	assert.Contains(t, out.String(), "CODE")
	assert.Contains(t, out.String(), "English")

	out.Reset()
	require.NoError(t, ListScenarios(ctx, app, "en"))
	assert.Contains(t, out.String(), "Scenario s1")
	assert.Contains(t, out.String(), "Maternal Health")

	out.Reset()
	fake.ListScenariosFunc = func(ctx context.Context, lang string) ([]domain.ScenarioMeta, error) {
		return nil, nil
	}
	require.NoError(t, ListScenarios(ctx, app, "ta"))
	assert.Contains(t, out.String(), `No scenarios available in "ta"`)
}

func TestShowDevice(t *testing.T) {
	app, out := newTestApp(t, &testutils.FakeTransport{})

	require.NoError(t, ShowDevice(context.Background(), app))
	assert.Contains(t, out.String(), "Device ID: dev_")
	assert.Contains(t, out.String(), "memory")

	first := out.String()
	out.Reset()
	require.NoError(t, ShowDevice(context.Background(), app))
	assert.Equal(t, first, out.String())
}

func TestOpenDeviceStore(t *testing.T) {
	store, closer, err := OpenDeviceStore(config.DeviceConfig{Store: config.StoreFile, Path: t.TempDir() + "/device.json"})
	require.NoError(t, err)
	require.NotNil(t, store)
	assert.NoError(t, closer.Close())

	_, closer, err = OpenDeviceStore(config.DeviceConfig{Store: config.StoreMemory})
	require.NoError(t, err)
	assert.NoError(t, closer.Close())

	_, _, err = OpenDeviceStore(config.DeviceConfig{Store: "etcd"})
	assert.Error(t, err)
}

func TestServeEvaluator(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	ready := make(chan string, 1)
	done := make(chan error, 1)
	go func() {
		done <- ServeEvaluator(ctx, ServeOptions{
			Addr:   "127.0.0.1:0",
			Logger: logging.NewNop(),
			Ready:  func(addr string) { ready <- addr },
		})
	}()

	var addr string
	select {
	case addr = <-ready:
	case err := <-done:
		t.Fatalf("server exited early: %v", err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not start")
	}

	langs, err := httpAdapter.NewClient("http://" + addr).ListLanguages(context.Background())
	require.NoError(t, err)
	assert.Len(t, langs, 5)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}

func TestServeEvaluator_BadScenariosDir(t *testing.T) {
	err := ServeEvaluator(context.Background(), ServeOptions{Addr: "127.0.0.1:0", ScenariosDir: t.TempDir() + "/missing"})
	assert.Error(t, err)
}

func TestHandleExecutionError(t *testing.T) {
	assert.NoError(t, HandleExecutionError(nil))
	assert.NoError(t, HandleExecutionError(context.Canceled))
	assert.NoError(t, HandleExecutionError(errInterrupted))
	assert.Error(t, HandleExecutionError(errors.New("boom")))
}

func TestInterruptibleReader(t *testing.T) {
	cancel := make(chan struct{})
	r := NewInterruptibleReader(strings.NewReader("abc"), cancel)
	buf := make([]byte, 8)
	n, err := r.Read(buf)
	require.NoError(t, err)
	assert.Equal(t, "abc", string(buf[:n]))

	close(cancel)
	_, err = r.Read(buf)
	assert.ErrorIs(t, err, errInterrupted)
}

func TestPrintScenarioGraph(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, PrintScenarioGraph(&buf, "", "child-diarrhea"))
	assert.Contains(t, buf.String(), "graph TD")
	assert.Contains(t, buf.String(), "start --> feeding")

	assert.Error(t, PrintScenarioGraph(&buf, "", "nope"))
}
