package evaluator

import (
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sushrusha/sushrusha/pkg/domain"
)

var (
	errSessionNotFound  = errors.New("session not found")
	errSessionCompleted = errors.New("session already completed")
)

// session is the evaluator-side record of one practice run.
type session struct {
	ID          string
	DeviceID    string
	ScenarioID  string
	Language    string
	StartedAt   time.Time
	CompletedAt *time.Time
	Score       *float64
	Report      *domain.Report
	Turns       []recordedTurn
}

func (s *session) summary(title string) domain.SessionSummary {
	return domain.SessionSummary{
		SessionID:     s.ID,
		ScenarioID:    s.ScenarioID,
		ScenarioTitle: title,
		Language:      s.Language,
		StartedAt:     s.StartedAt,
		CompletedAt:   s.CompletedAt,
		Score:         s.Score,
	}
}

// Store keeps practice sessions in memory. It is safe for concurrent use.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*session
	now      func() time.Time
}

// NewStore creates an empty store using clock for timestamps.
func NewStore(clock func() time.Time) *Store {
	if clock == nil {
		clock = time.Now
	}
	return &Store{
		sessions: make(map[string]*session),
		now:      clock,
	}
}

func (st *Store) create(scenarioID, lang, deviceID string) *session {
	st.mu.Lock()
	defer st.mu.Unlock()

	s := &session{
		ID:         uuid.NewString(),
		DeviceID:   deviceID,
		ScenarioID: scenarioID,
		Language:   lang,
		StartedAt:  st.now().UTC(),
	}
	st.sessions[s.ID] = s
	return s
}

// get returns a copy so callers never race on the stored record.
func (st *Store) get(id string) (session, bool) {
	st.mu.RLock()
	defer st.mu.RUnlock()
	s, ok := st.sessions[id]
	if !ok {
		return session{}, false
	}
	cp := *s
	cp.Turns = append([]recordedTurn(nil), s.Turns...)
	return cp, true
}

// recordTurn appends an evaluated turn and returns its 1-based index.
func (st *Store) recordTurn(id, nodeKey, userText string, eval domain.TurnEvaluation) (int, error) {
	st.mu.Lock()
	defer st.mu.Unlock()

	s, ok := st.sessions[id]
	if !ok {
		return 0, errSessionNotFound
	}
	if s.CompletedAt != nil {
		return 0, errSessionCompleted
	}
	index := len(s.Turns) + 1
	s.Turns = append(s.Turns, recordedTurn{
		Index:      index,
		NodeKey:    nodeKey,
		UserText:   userText,
		Evaluation: eval,
	})
	return index, nil
}

// complete stores the report and closes the session. Completing twice
// replaces the report, as the evaluator gives no idempotency guarantee.
func (st *Store) complete(id string, report domain.Report) error {
	st.mu.Lock()
	defer st.mu.Unlock()

	s, ok := st.sessions[id]
	if !ok {
		return errSessionNotFound
	}
	now := st.now().UTC()
	score := report.Score
	s.CompletedAt = &now
	s.Score = &score
	s.Report = &report
	return nil
}

// history lists sessions newest first, optionally filtered by device.
func (st *Store) history(deviceID string, limit int) []session {
	st.mu.RLock()
	defer st.mu.RUnlock()

	out := make([]session, 0, len(st.sessions))
	for _, s := range st.sessions {
		if deviceID != "" && s.DeviceID != deviceID {
			continue
		}
		out = append(out, *s)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].StartedAt.Equal(out[j].StartedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].StartedAt.After(out[j].StartedAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}
