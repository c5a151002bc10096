package http

import (
	"fmt"
	"time"

	"github.com/sushrusha/sushrusha/pkg/domain"
)

// summaryWire mirrors the history/report summary payload, whose timestamps
// are ISO-8601 strings that may or may not carry a zone offset.
type summaryWire struct {
	SessionID     string   `json:"session_id"`
	ScenarioID    string   `json:"scenario_id"`
	ScenarioTitle string   `json:"scenario_title"`
	Language      string   `json:"language"`
	StartedAt     string   `json:"started_at"`
	CompletedAt   *string  `json:"completed_at"`
	Score         *float64 `json:"score"`
}

type sessionReportWire struct {
	summaryWire
	Report *domain.Report `json:"report"`
}

func (w summaryWire) toDomain() (domain.SessionSummary, error) {
	s := domain.SessionSummary{
		SessionID:     w.SessionID,
		ScenarioID:    w.ScenarioID,
		ScenarioTitle: w.ScenarioTitle,
		Language:      w.Language,
		Score:         w.Score,
	}

	started, err := ParseTimestamp(w.StartedAt)
	if err != nil {
		return s, fmt.Errorf("%w: session %s started_at: %v", domain.ErrInvalidResponse, w.SessionID, err)
	}
	s.StartedAt = started

	if w.CompletedAt != nil && *w.CompletedAt != "" {
		completed, err := ParseTimestamp(*w.CompletedAt)
		if err != nil {
			return s, fmt.Errorf("%w: session %s completed_at: %v", domain.ErrInvalidResponse, w.SessionID, err)
		}
		s.CompletedAt = &completed
	}
	return s, nil
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999",
}

// ParseTimestamp parses an evaluator timestamp. Values without a zone offset
// are interpreted as UTC. An empty string yields the zero time.
func ParseTimestamp(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}
	var lastErr error
	for _, layout := range timestampLayouts {
		t, err := time.Parse(layout, value)
		if err == nil {
			return t.UTC(), nil
		}
		lastErr = err
	}
	return time.Time{}, lastErr
}
