// Package device resolves the persistent identifier that groups a device's
// session history.
package device

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/sushrusha/sushrusha/pkg/domain"
	"github.com/sushrusha/sushrusha/pkg/ports"
)

// Prefix starts every generated identifier.
const Prefix = "dev_"

// NewID generates a fresh device identifier.
func NewID() string {
	return Prefix + strings.ReplaceAll(uuid.NewString(), "-", "")
}

// Resolve returns the identifier kept in store, generating and persisting
// one on first use. When several processes race, all of them return the
// identifier that was stored first.
func Resolve(ctx context.Context, store ports.DeviceStore) (string, error) {
	id, err := store.Load(ctx)
	if err == nil {
		return id, nil
	}
	if !errors.Is(err, domain.ErrDeviceNotFound) {
		return "", fmt.Errorf("failed to load device id: %w", err)
	}

	id, err = store.SaveIfAbsent(ctx, NewID())
	if err != nil {
		return "", fmt.Errorf("failed to save device id: %w", err)
	}
	return id, nil
}
