package evaluator

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/sushrusha/sushrusha/internal/logging"
	"github.com/sushrusha/sushrusha/pkg/domain"
)

const defaultHistoryLimit = 10

// Languages is the locale list served by GET /languages.
var Languages = []domain.Language{
	{Code: "en", Name: "English", NativeName: "English"},
	{Code: "hi", Name: "Hindi", NativeName: "हिन्दी"},
	{Code: "ta", Name: "Tamil", NativeName: "தமிழ்"},
	{Code: "bn", Name: "Bengali", NativeName: "বাংলা"},
	{Code: "te", Name: "Telugu", NativeName: "తెలుగు"},
}

// Server serves the practice evaluator API over a scenario catalog.
type Server struct {
	Catalog *Catalog
	Store   *Store
	logger  *slog.Logger
	clock   func() time.Time
}

// Option configures the Server.
type Option func(*Server)

// WithLogger configures a logger for request handling.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithClock overrides the time source used for session timestamps.
func WithClock(clock func() time.Time) Option {
	return func(s *Server) {
		s.clock = clock
	}
}

// WithStore shares a session store between handlers.
func WithStore(store *Store) Option {
	return func(s *Server) {
		s.Store = store
	}
}

// NewServer creates an evaluator over catalog.
func NewServer(catalog *Catalog, opts ...Option) *Server {
	s := &Server{
		Catalog: catalog,
		logger:  logging.NewNop(),
		clock:   time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.Store == nil {
		s.Store = NewStore(s.clock)
	}
	return s
}

// NewHandler creates the HTTP handler of the practice evaluator.
func NewHandler(catalog *Catalog, opts ...Option) http.Handler {
	return NewServer(catalog, opts...).Routes()
}

// Routes mounts every endpoint on a chi router.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/health", s.GetHealth)
	r.Get("/languages", s.ListLanguages)
	r.Get("/scenarios", s.ListScenarios)
	r.Route("/sessions", func(r chi.Router) {
		r.Post("/start", s.StartSession)
		r.Get("/history", s.ListHistory)
		r.Post("/{id}/turn", s.SubmitTurn)
		r.Post("/{id}/complete", s.CompleteSession)
		r.Get("/{id}/report", s.GetReport)
	})

	return enableCORS(r)
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// GetHealth handles GET /health.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, "health", map[string]string{"status": "ok"})
}

// ListLanguages handles GET /languages.
func (s *Server) ListLanguages(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, "languages", map[string]any{"languages": Languages})
}

// ListScenarios handles GET /scenarios?lang=.
func (s *Server) ListScenarios(w http.ResponseWriter, r *http.Request) {
	lang := r.URL.Query().Get("lang")
	if lang == "" {
		lang = "en"
	}
	s.writeJSON(w, "scenarios", map[string]any{"scenarios": s.Catalog.ForLanguage(lang)})
}

type startRequest struct {
	ScenarioID string `json:"scenario_id"`
	Lang       string `json:"lang"`
	DeviceID   string `json:"device_id"`
}

// StartSession handles POST /sessions/start.
func (s *Server) StartSession(w http.ResponseWriter, r *http.Request) {
	var body startRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		s.logger.Warn("StartSession: invalid request body", "error", err)
		return
	}
	if body.Lang == "" {
		body.Lang = "en"
	}

	scenario, ok := s.Catalog.Get(body.ScenarioID)
	if !ok {
		http.Error(w, "Scenario not found", http.StatusNotFound)
		return
	}

	sess := s.Store.create(scenario.ID, body.Lang, body.DeviceID)
	s.logger.Info("session started", "session_id", sess.ID, "scenario", scenario.ID, "lang", body.Lang)

	s.writeJSON(w, "start", domain.StartResult{
		SessionID: sess.ID,
		Node:      dialogueNode(scenario, StartNodeKey, body.Lang),
		Scenario:  scenario.Meta(body.Lang),
	})
}

type turnRequest struct {
	NodeKey  string `json:"node_key"`
	UserText string `json:"user_text"`
}

// SubmitTurn handles POST /sessions/{id}/turn.
func (s *Server) SubmitTurn(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "id")
	var body turnRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		s.logger.Warn("SubmitTurn: invalid request body", "error", err)
		return
	}

	sess, ok := s.Store.get(sessionID)
	if !ok {
		http.Error(w, "Session not found", http.StatusNotFound)
		return
	}
	if sess.CompletedAt != nil {
		http.Error(w, "Session already completed", http.StatusBadRequest)
		return
	}
	scenario, ok := s.Catalog.Get(sess.ScenarioID)
	if !ok {
		http.Error(w, "Scenario not found", http.StatusNotFound)
		return
	}
	node, ok := scenario.Nodes[body.NodeKey]
	if !ok {
		http.Error(w, fmt.Sprintf("Invalid node key: %s", body.NodeKey), http.StatusBadRequest)
		return
	}

	eval := EvaluateTurn(body.UserText, node.ExpectedChecklist)
	index, err := s.Store.recordTurn(sessionID, body.NodeKey, body.UserText, eval)
	if err != nil {
		s.storeError(w, err)
		return
	}

	resp := domain.TurnResult{
		Evaluation: eval,
		Progress: domain.Progress{
			TurnIndex:          index,
			TotalTurnsEstimate: scenario.TurnsEstimate(),
		},
	}
	next := scenario.NextNodeKey(body.NodeKey)
	if next == EndNodeKey {
		resp.IsComplete = true
	} else {
		n := dialogueNode(scenario, next, sess.Language)
		resp.NextNode = &n
	}

	s.logger.Debug("turn evaluated", "session_id", sessionID, "node", body.NodeKey, "missed", len(eval.MissedItems))
	s.writeJSON(w, "turn", resp)
}

// CompleteSession handles POST /sessions/{id}/complete.
func (s *Server) CompleteSession(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "id")
	sess, ok := s.Store.get(sessionID)
	if !ok {
		http.Error(w, "Session not found", http.StatusNotFound)
		return
	}
	scenario, ok := s.Catalog.Get(sess.ScenarioID)
	if !ok {
		http.Error(w, "Scenario not found", http.StatusNotFound)
		return
	}

	report := BuildReport(scenario, sess.Language, sess.Turns)
	if err := s.Store.complete(sessionID, report); err != nil {
		s.storeError(w, err)
		return
	}

	s.logger.Info("session completed", "session_id", sessionID, "score", report.Score)
	s.writeJSON(w, "complete", map[string]any{"report": report})
}

// GetReport handles GET /sessions/{id}/report.
func (s *Server) GetReport(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.Store.get(chi.URLParam(r, "id"))
	if !ok {
		http.Error(w, "Session not found", http.StatusNotFound)
		return
	}
	s.writeJSON(w, "report", domain.SessionReport{
		SessionSummary: sess.summary(s.title(sess)),
		Report:         sess.Report,
	})
}

// ListHistory handles GET /sessions/history?device_id=&limit=.
func (s *Server) ListHistory(w http.ResponseWriter, r *http.Request) {
	limit := defaultHistoryLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			http.Error(w, "Invalid limit", http.StatusBadRequest)
			return
		}
		limit = n
	}

	sessions := s.Store.history(r.URL.Query().Get("device_id"), limit)
	out := make([]domain.SessionSummary, 0, len(sessions))
	for i := range sessions {
		out = append(out, sessions[i].summary(s.title(sessions[i])))
	}
	s.writeJSON(w, "history", map[string]any{"sessions": out})
}

func (s *Server) title(sess session) string {
	if scenario, ok := s.Catalog.Get(sess.ScenarioID); ok {
		return scenario.Title.In(sess.Language)
	}
	return sess.ScenarioID
}

func (s *Server) storeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, errSessionNotFound):
		http.Error(w, "Session not found", http.StatusNotFound)
	case errors.Is(err, errSessionCompleted):
		http.Error(w, "Session already completed", http.StatusBadRequest)
	default:
		http.Error(w, err.Error(), http.StatusInternalServerError)
		s.logger.Error("store failure", "error", err)
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, op string, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("response encode failed", "op", op, "error", err)
	}
}

func dialogueNode(s *Scenario, key, lang string) domain.DialogueNode {
	return domain.DialogueNode{
		NodeKey:     key,
		PatientText: s.Nodes[key].PatientText.In(lang),
	}
}
