package session

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/sushrusha/sushrusha/pkg/domain"
)

// DefaultMaxInputSize bounds a worker response in bytes.
const DefaultMaxInputSize = 4096

// SanitizeInput trims a worker response, enforces the size limit,
// validates UTF-8 and strips control characters other than newline, tab
// and carriage return. Every rejection is a *domain.ValidationError.
func SanitizeInput(input string, limit int) (string, error) {
	if limit <= 0 {
		limit = DefaultMaxInputSize
	}
	input = strings.TrimSpace(input)
	if input == "" {
		return "", &domain.ValidationError{Field: "text", Reason: "must not be empty"}
	}
	if len(input) > limit {
		// Rejected rather than truncated so the evaluator sees what was typed.
		return "", &domain.ValidationError{
			Field:  "text",
			Reason: fmt.Sprintf("exceeds maximum size (size=%d limit=%d)", len(input), limit),
		}
	}
	if !utf8.ValidString(input) {
		return "", &domain.ValidationError{Field: "text", Reason: "contains invalid UTF-8 sequences"}
	}

	// Fast path: nothing to strip.
	clean := true
	for _, r := range input {
		if unicode.IsControl(r) && !isSafeControl(r) {
			clean = false
			break
		}
	}
	if clean {
		return input, nil
	}

	var b strings.Builder
	b.Grow(len(input))
	for _, r := range input {
		if !unicode.IsControl(r) || isSafeControl(r) {
			b.WriteRune(r)
		}
	}
	out := strings.TrimSpace(b.String())
	if out == "" {
		return "", &domain.ValidationError{Field: "text", Reason: "must not be empty"}
	}
	return out, nil
}

func isSafeControl(r rune) bool {
	return r == '\n' || r == '\t' || r == '\r'
}
