package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/sushrusha/sushrusha/internal/adapters/file"
	"github.com/sushrusha/sushrusha/internal/adapters/redis"
	"github.com/sushrusha/sushrusha/internal/config"
	"github.com/sushrusha/sushrusha/pkg/adapters/memory"
	"github.com/sushrusha/sushrusha/pkg/ports"
)

// OpenDeviceStore builds the device store selected by cfg.Store.
// The returned closer must be called once the store is no longer used.
func OpenDeviceStore(cfg config.DeviceConfig) (ports.DeviceStore, io.Closer, error) {
	switch cfg.Store {
	case config.StoreFile, "":
		return file.NewDeviceStore(cfg.Path), nopCloser{}, nil
	case config.StoreRedis:
		store := redis.New(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, redis.WithPrefix(cfg.RedisPrefix))
		return store, store, nil
	case config.StoreMemory:
		return memory.NewDeviceStore(), nopCloser{}, nil
	default:
		return nil, nil, fmt.Errorf("unknown device store %q", cfg.Store)
	}
}

// ShowDevice prints the device identifier and where it is kept.
func ShowDevice(ctx context.Context, app *App) error {
	id, err := app.DeviceID(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(app.Out, "Device ID: %s\n", id)

	cfg := app.Config.Device
	switch cfg.Store {
	case config.StoreRedis:
		fmt.Fprintf(app.Out, "Store:     redis %s (prefix %q)\n", cfg.RedisAddr, cfg.RedisPrefix)
	case config.StoreMemory:
		fmt.Fprintln(app.Out, "Store:     memory (not persisted)")
	default:
		fmt.Fprintf(app.Out, "Store:     file %s\n", cfg.Path)
	}
	return nil
}
