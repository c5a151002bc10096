package device_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/sushrusha/sushrusha/pkg/adapters/memory"
	"github.com/sushrusha/sushrusha/pkg/device"
)

type brokenStore struct{}

func (brokenStore) Load(ctx context.Context) (string, error) {
	return "", errors.New("disk on fire")
}

func (brokenStore) SaveIfAbsent(ctx context.Context, id string) (string, error) {
	return "", errors.New("unreachable")
}

func TestResolve(t *testing.T) {
	ctx := context.Background()
	store := memory.NewDeviceStore()

	first, err := device.Resolve(ctx, store)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(first, device.Prefix))
	assert.Len(t, first, len(device.Prefix)+32)

	second, err := device.Resolve(ctx, store)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestResolve_KeepsExisting(t *testing.T) {
	ctx := context.Background()
	store := memory.NewDeviceStore()
	_, err := store.SaveIfAbsent(ctx, "dev_legacy")
	require.NoError(t, err)

	id, err := device.Resolve(ctx, store)
	require.NoError(t, err)
	assert.Equal(t, "dev_legacy", id)
}

func TestResolve_LoadFailure(t *testing.T) {
	_, err := device.Resolve(context.Background(), brokenStore{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk on fire")
}

func TestNewID_Unique(t *testing.T) {
	assert.NotEqual(t, device.NewID(), device.NewID())
}
