package session

import (
	"log/slog"
	"time"

	"github.com/sushrusha/sushrusha/pkg/domain"
)

// DefaultPresentationDelay separates an evaluated worker turn from the next
// patient message. It is purely cosmetic.
const DefaultPresentationDelay = 600 * time.Millisecond

// Option configures the Machine.
type Option func(*Machine)

// WithDeviceID sets the device identifier sent with every session start.
func WithDeviceID(id string) Option {
	return func(m *Machine) {
		m.deviceID = id
	}
}

// WithLogger configures a logger for transitions and failures.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Machine) {
		m.logger = logger
	}
}

// WithLifecycleHooks registers observability callbacks. Multiple calls merge.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(m *Machine) {
		m.hooks = m.hooks.Merge(hooks)
	}
}

// WithPresentationDelay overrides the pause before the next patient message.
// Zero disables it.
func WithPresentationDelay(d time.Duration) Option {
	return func(m *Machine) {
		if d >= 0 {
			m.delay = d
		}
	}
}

// WithClock overrides the time source of session timestamps and events.
func WithClock(clock func() time.Time) Option {
	return func(m *Machine) {
		m.clock = clock
	}
}

// WithMaxInputSize bounds worker responses in bytes.
func WithMaxInputSize(n int) Option {
	return func(m *Machine) {
		m.maxInput = n
	}
}
