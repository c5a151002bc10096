package file

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/sushrusha/sushrusha/pkg/ports"
)

func TestDeviceStore_Contract(t *testing.T) {
	ports.RunDeviceStoreContract(t, func(t *testing.T) ports.DeviceStore {
		return NewDeviceStore(filepath.Join(t.TempDir(), "nested", "device.json"))
	})
}

func TestDeviceStore_SurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "device.json")
	ctx := context.Background()

	_, err := NewDeviceStore(path).SaveIfAbsent(ctx, "dev_persisted")
	require.NoError(t, err)

	id, err := NewDeviceStore(path).Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, "dev_persisted", id)

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temporary files must be cleaned up")
}

func TestDeviceStore_CorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "device.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	_, err := NewDeviceStore(path).Load(context.Background())
	assert.Error(t, err)

	_, err = NewDeviceStore(path).SaveIfAbsent(context.Background(), "dev_x")
	assert.Error(t, err)
}

func TestNewDeviceStore_DefaultPath(t *testing.T) {
	assert.Equal(t, DefaultPath, NewDeviceStore("").Path)
}
