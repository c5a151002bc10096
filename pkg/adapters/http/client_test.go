package http

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/sushrusha/sushrusha/internal/adapters/evaluator"
	"github.com/sushrusha/sushrusha/pkg/domain"
)

func newEvaluatorClient(t *testing.T, opts ...Option) *Client {
	t.Helper()
	catalog, err := evaluator.BuiltinCatalog()
	require.NoError(t, err)
	srv := httptest.NewServer(evaluator.NewHandler(catalog))
	t.Cleanup(srv.Close)
	return NewClient(srv.URL+"/", opts...)
}

func TestClient_EndToEnd(t *testing.T) {
	ctx := context.Background()

	var mu sync.Mutex
	var ops []string
	client := newEvaluatorClient(t, WithObserver(func(op string, _ time.Duration, err error) {
		mu.Lock()
		defer mu.Unlock()
		ops = append(ops, op)
	}))

	langs, err := client.ListLanguages(ctx)
	require.NoError(t, err)
	assert.Len(t, langs, 5)

	scenarios, err := client.ListScenarios(ctx, "en")
	require.NoError(t, err)
	require.NotEmpty(t, scenarios)

	started, err := client.StartSession(ctx, "anc-visit", "en", "dev_e2e")
	require.NoError(t, err)
	assert.Equal(t, "start", started.Node.NodeKey)
	assert.Equal(t, "Antenatal Care Home Visit", started.Scenario.Title)

	turn, err := client.SubmitTurn(ctx, started.SessionID, started.Node.NodeKey, "Namaste! Any bleeding or blurred vision?")
	require.NoError(t, err)
	require.NotNil(t, turn.NextNode)
	assert.Equal(t, "swelling", turn.NextNode.NodeKey)
	assert.Equal(t, 1, turn.Progress.TurnIndex)

	summary, err := client.GetReport(ctx, started.SessionID)
	require.NoError(t, err)
	assert.Nil(t, summary.Report)
	assert.False(t, summary.Completed())

	report, err := client.CompleteSession(ctx, started.SessionID)
	require.NoError(t, err)
	assert.Equal(t, 100.0, report.Score)

	summary, err = client.GetReport(ctx, started.SessionID)
	require.NoError(t, err)
	require.NotNil(t, summary.Report)
	assert.True(t, summary.Completed())
	assert.False(t, summary.StartedAt.IsZero())

	history, err := client.ListHistory(ctx, "dev_e2e", 0)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, started.SessionID, history[0].SessionID)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{
		OpListLanguages, OpListScenarios, OpStartSession, OpSubmitTurn,
		OpGetReport, OpCompleteSession, OpGetReport, OpListHistory,
	}, ops)
}

func TestClient_APIError(t *testing.T) {
	client := newEvaluatorClient(t)

	_, err := client.SubmitTurn(context.Background(), "missing", "start", "hello")
	require.Error(t, err)

	var te *domain.TransportError
	require.True(t, errors.As(err, &te))
	assert.Equal(t, http.StatusNotFound, te.Status)
	assert.Equal(t, "Session not found", te.Body)
	assert.Equal(t, OpSubmitTurn, te.Op)
	assert.Contains(t, err.Error(), "API error 404: Session not found")
}

func TestClient_ValidatesBeforeRequest(t *testing.T) {
	var hits int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
	}))
	defer srv.Close()
	client := NewClient(srv.URL)
	ctx := context.Background()

	_, err := client.StartSession(ctx, "", "en", "")
	assert.True(t, domain.IsValidation(err))
	_, err = client.ListScenarios(ctx, " ")
	assert.True(t, domain.IsValidation(err))
	_, err = client.SubmitTurn(ctx, "s1", "", "hi")
	assert.True(t, domain.IsValidation(err))
	_, err = client.CompleteSession(ctx, "")
	assert.True(t, domain.IsValidation(err))
	_, err = client.GetReport(ctx, "")
	assert.True(t, domain.IsValidation(err))

	assert.Zero(t, hits)
}

func TestClient_ProtocolViolation(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"next_node":{"node_key":"n2","patient_text":"hi"},"is_complete":true,
			"evaluation":{"matched_items":[],"missed_items":[],"critical_missed":[]},"progress":{"turn_index":1,"total_turns_estimate":3}}`))
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL).SubmitTurn(context.Background(), "s1", "n1", "hello")
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrInvalidResponse))
	assert.True(t, domain.IsTransport(err))
}

func TestClient_HistoryOrderingAndTimestamps(t *testing.T) {
	var gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"sessions":[
			{"session_id":"old","scenario_id":"a","started_at":"2024-01-01T10:00:00"},
			{"session_id":"new","scenario_id":"b","started_at":"2024-03-01T10:00:00.123456","completed_at":"2024-03-01T10:05:00","score":82.5},
			{"session_id":"mid","scenario_id":"c","started_at":"2024-02-01T10:00:00+05:30"}
		]}`))
	}))
	defer srv.Close()

	history, err := NewClient(srv.URL).ListHistory(context.Background(), "", 0)
	require.NoError(t, err)
	assert.Equal(t, "limit=10", gotQuery)

	require.Len(t, history, 3)
	assert.Equal(t, "new", history[0].SessionID)
	assert.Equal(t, "mid", history[1].SessionID)
	assert.Equal(t, "old", history[2].SessionID)

	assert.True(t, history[0].Completed())
	require.NotNil(t, history[0].Score)
	assert.Equal(t, 82.5, *history[0].Score)
	assert.Equal(t, time.Date(2024, 2, 1, 4, 30, 0, 0, time.UTC), history[1].StartedAt)
	assert.Equal(t, "a", history[2].DisplayTitle())
}

func TestClient_Timeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	_, err := NewClient(srv.URL, WithTimeout(50*time.Millisecond)).ListLanguages(context.Background())
	require.Error(t, err)

	var te *domain.TransportError
	require.True(t, errors.As(err, &te))
	assert.Zero(t, te.Status)
}

type countingTransport struct {
	mu    sync.Mutex
	calls int
}

func (c *countingTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	c.mu.Lock()
	c.calls++
	c.mu.Unlock()
	return http.DefaultTransport.RoundTrip(req)
}

func TestClient_TimeoutKeepsCustomHTTPClient(t *testing.T) {
	rt := &countingTransport{}
	custom := &http.Client{Transport: rt}
	c := newEvaluatorClient(t, WithHTTPClient(custom), WithTimeout(5*time.Second))

	_, err := c.ListLanguages(context.Background())
	require.NoError(t, err)

	rt.mu.Lock()
	assert.Equal(t, 1, rt.calls)
	rt.mu.Unlock()
	assert.Equal(t, 5*time.Second, c.httpClient.Timeout)
	assert.Zero(t, custom.Timeout)
}

func TestParseTimestamp(t *testing.T) {
	ts, err := ParseTimestamp("2024-05-06T07:08:09Z")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 5, 6, 7, 8, 9, 0, time.UTC), ts)

	ts, err = ParseTimestamp("2024-05-06 07:08:09")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 5, 6, 7, 8, 9, 0, time.UTC), ts)

	ts, err = ParseTimestamp("")
	require.NoError(t, err)
	assert.True(t, ts.IsZero())

	_, err = ParseTimestamp("yesterday")
	assert.Error(t, err)
}
