package memory

import (
	"context"
	"sync"

	"github.com/sushrusha/sushrusha/pkg/domain"
)

// DeviceStore implements ports.DeviceStore in memory.
// Safe for concurrent use. The identifier lives as long as the process.
type DeviceStore struct {
	mu sync.Mutex
	id string
}

// NewDeviceStore creates an empty in-memory device store.
func NewDeviceStore() *DeviceStore {
	return &DeviceStore{}
}

// Load returns the stored identifier.
func (s *DeviceStore) Load(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.id == "" {
		return "", domain.ErrDeviceNotFound
	}
	return s.id, nil
}

// SaveIfAbsent stores id unless one is already present.
func (s *DeviceStore) SaveIfAbsent(ctx context.Context, id string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.id == "" {
		s.id = id
	}
	return s.id, nil
}
