package ports

import "context"

// DeviceStore persists the device identifier used to group session history.
// The identifier is written once and never changes afterwards.
type DeviceStore interface {
	// Load returns the stored identifier.
	// Returns domain.ErrDeviceNotFound if none has been stored yet.
	Load(ctx context.Context) (string, error)

	// SaveIfAbsent stores id unless an identifier already exists, and returns
	// the identifier that is stored after the call (id, or the existing one).
	SaveIfAbsent(ctx context.Context, id string) (string, error)
}
