package memory_test

import (
	"testing"

	"github.com/sushrusha/sushrusha/pkg/adapters/memory"
	"github.com/sushrusha/sushrusha/pkg/ports"
)

func TestDeviceStore_Contract(t *testing.T) {
	ports.RunDeviceStoreContract(t, func(t *testing.T) ports.DeviceStore {
		return memory.NewDeviceStore()
	})
}
