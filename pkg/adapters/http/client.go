package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/sushrusha/sushrusha/internal/logging"
	"github.com/sushrusha/sushrusha/pkg/domain"
	"github.com/sushrusha/sushrusha/pkg/ports"
)

const (
	// DefaultBaseURL is the evaluator address used when none is configured.
	DefaultBaseURL = "http://localhost:8000"
	// DefaultTimeout bounds every exchange so a stalled evaluator surfaces as a failure.
	DefaultTimeout = 15 * time.Second
	// DefaultHistoryLimit is used when ListHistory is called with a non-positive limit.
	DefaultHistoryLimit = 10

	maxErrorBody    = 4096
	maxResponseBody = 4 << 20
)

// Operation names reported to observers and carried by TransportError.Op.
const (
	OpListLanguages   = "list_languages"
	OpListScenarios   = "list_scenarios"
	OpStartSession    = "start_session"
	OpSubmitTurn      = "submit_turn"
	OpCompleteSession = "complete_session"
	OpGetReport       = "get_report"
	OpListHistory     = "list_history"
)

// Observer is notified after every exchange, successful or not.
type Observer func(op string, elapsed time.Duration, err error)

// Client implements ports.Transport against the evaluator JSON API.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
	observer   Observer
}

// Ensure Client implements ports.Transport
var _ ports.Transport = (*Client)(nil)

// Option configures the Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithTimeout sets the per-exchange timeout of the configured HTTP client.
// The client is copied, so a shared one passed to WithHTTPClient keeps its
// own timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d <= 0 {
			return
		}
		hc := http.Client{}
		if c.httpClient != nil {
			hc = *c.httpClient
		}
		hc.Timeout = d
		c.httpClient = &hc
	}
}

// WithLogger configures a logger for request tracing.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithObserver registers a callback invoked after every exchange.
func WithObserver(o Observer) Option {
	return func(c *Client) {
		c.observer = o
	}
}

// NewClient creates a transport for the evaluator at baseURL.
// An empty baseURL falls back to DefaultBaseURL.
func NewClient(baseURL string, opts ...Option) *Client {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	c := &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: DefaultTimeout},
		logger:     logging.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the evaluator address the client talks to.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// ListLanguages handles GET /languages.
func (c *Client) ListLanguages(ctx context.Context) ([]domain.Language, error) {
	var resp struct {
		Languages []domain.Language `json:"languages"`
	}
	if err := c.do(ctx, OpListLanguages, http.MethodGet, "/languages", nil, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Languages, nil
}

// ListScenarios handles GET /scenarios?lang=.
func (c *Client) ListScenarios(ctx context.Context, lang string) ([]domain.ScenarioMeta, error) {
	if err := required("lang", lang); err != nil {
		return nil, err
	}
	var resp struct {
		Scenarios []domain.ScenarioMeta `json:"scenarios"`
	}
	query := url.Values{"lang": {lang}}
	if err := c.do(ctx, OpListScenarios, http.MethodGet, "/scenarios", query, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Scenarios, nil
}

type startRequest struct {
	ScenarioID string `json:"scenario_id"`
	Lang       string `json:"lang"`
	DeviceID   string `json:"device_id,omitempty"`
}

// StartSession handles POST /sessions/start.
func (c *Client) StartSession(ctx context.Context, scenarioID, lang, deviceID string) (*domain.StartResult, error) {
	if err := required("scenario_id", scenarioID); err != nil {
		return nil, err
	}
	if err := required("lang", lang); err != nil {
		return nil, err
	}

	var resp domain.StartResult
	body := startRequest{ScenarioID: scenarioID, Lang: lang, DeviceID: deviceID}
	if err := c.do(ctx, OpStartSession, http.MethodPost, "/sessions/start", nil, body, &resp); err != nil {
		return nil, err
	}
	if resp.SessionID == "" || resp.Node.NodeKey == "" {
		return nil, &domain.TransportError{
			Op:  OpStartSession,
			Err: fmt.Errorf("%w: missing session id or start node", domain.ErrInvalidResponse),
		}
	}
	return &resp, nil
}

type turnRequest struct {
	NodeKey  string `json:"node_key"`
	UserText string `json:"user_text"`
}

// SubmitTurn handles POST /sessions/{id}/turn.
func (c *Client) SubmitTurn(ctx context.Context, sessionID, nodeKey, userText string) (*domain.TurnResult, error) {
	if err := required("session_id", sessionID); err != nil {
		return nil, err
	}
	if err := required("node_key", nodeKey); err != nil {
		return nil, err
	}

	var resp domain.TurnResult
	body := turnRequest{NodeKey: nodeKey, UserText: userText}
	if err := c.do(ctx, OpSubmitTurn, http.MethodPost, sessionPath(sessionID, "turn"), nil, body, &resp); err != nil {
		return nil, err
	}
	if err := resp.Validate(); err != nil {
		return nil, &domain.TransportError{Op: OpSubmitTurn, Err: err}
	}
	return &resp, nil
}

// CompleteSession handles POST /sessions/{id}/complete.
func (c *Client) CompleteSession(ctx context.Context, sessionID string) (*domain.Report, error) {
	if err := required("session_id", sessionID); err != nil {
		return nil, err
	}

	var resp struct {
		Report *domain.Report `json:"report"`
	}
	if err := c.do(ctx, OpCompleteSession, http.MethodPost, sessionPath(sessionID, "complete"), nil, nil, &resp); err != nil {
		return nil, err
	}
	if resp.Report == nil {
		return nil, &domain.TransportError{
			Op:  OpCompleteSession,
			Err: fmt.Errorf("%w: completion returned no report", domain.ErrInvalidResponse),
		}
	}
	return resp.Report, nil
}

// GetReport handles GET /sessions/{id}/report.
func (c *Client) GetReport(ctx context.Context, sessionID string) (*domain.SessionReport, error) {
	if err := required("session_id", sessionID); err != nil {
		return nil, err
	}

	var resp sessionReportWire
	if err := c.do(ctx, OpGetReport, http.MethodGet, sessionPath(sessionID, "report"), nil, nil, &resp); err != nil {
		return nil, err
	}
	summary, err := resp.summaryWire.toDomain()
	if err != nil {
		return nil, &domain.TransportError{Op: OpGetReport, Err: err}
	}
	return &domain.SessionReport{SessionSummary: summary, Report: resp.Report}, nil
}

// ListHistory handles GET /sessions/history. The result is sorted newest
// first whatever order the evaluator used.
func (c *Client) ListHistory(ctx context.Context, deviceID string, limit int) ([]domain.SessionSummary, error) {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	query := url.Values{"limit": {strconv.Itoa(limit)}}
	if deviceID != "" {
		query.Set("device_id", deviceID)
	}

	var resp struct {
		Sessions []summaryWire `json:"sessions"`
	}
	if err := c.do(ctx, OpListHistory, http.MethodGet, "/sessions/history", query, nil, &resp); err != nil {
		return nil, err
	}

	sessions := make([]domain.SessionSummary, 0, len(resp.Sessions))
	for _, w := range resp.Sessions {
		s, err := w.toDomain()
		if err != nil {
			return nil, &domain.TransportError{Op: OpListHistory, Err: err}
		}
		sessions = append(sessions, s)
	}
	domain.SortHistory(sessions)
	return sessions, nil
}

// do performs one JSON exchange. Non-2xx answers become a TransportError
// carrying the status code and the (plain-text) body.
func (c *Client) do(ctx context.Context, op, method, path string, query url.Values, body, out any) (err error) {
	start := time.Now()
	defer func() {
		elapsed := time.Since(start)
		if c.observer != nil {
			c.observer(op, elapsed, err)
		}
		if err != nil {
			c.logger.Debug("evaluator exchange failed", "op", op, "path", path, "elapsed", elapsed, "err", err)
		} else {
			c.logger.Debug("evaluator exchange", "op", op, "path", path, "elapsed", elapsed)
		}
	}()

	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		data, mErr := json.Marshal(body)
		if mErr != nil {
			return &domain.TransportError{Op: op, Err: fmt.Errorf("marshal request: %w", mErr)}
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return &domain.TransportError{Op: op, Err: fmt.Errorf("create request: %w", err)}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	res, err := c.httpClient.Do(req)
	if err != nil {
		return &domain.TransportError{Op: op, Err: err}
	}
	defer func() { _ = res.Body.Close() }()

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		buf, _ := io.ReadAll(io.LimitReader(res.Body, maxErrorBody))
		return &domain.TransportError{
			Op:     op,
			Status: res.StatusCode,
			Body:   strings.TrimSpace(string(buf)),
		}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(io.LimitReader(res.Body, maxResponseBody)).Decode(out); err != nil {
		return &domain.TransportError{Op: op, Err: fmt.Errorf("decode response: %w", err)}
	}
	return nil
}

func sessionPath(sessionID, action string) string {
	return "/sessions/" + url.PathEscape(sessionID) + "/" + action
}

func required(field, value string) error {
	if strings.TrimSpace(value) == "" {
		return &domain.ValidationError{Field: field, Reason: "required"}
	}
	return nil
}
