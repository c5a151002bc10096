package file

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/sushrusha/sushrusha/pkg/domain"
)

// DefaultPath is used when no device file is configured.
var DefaultPath = filepath.Join(".sushrusha", "device.json")

type deviceRecord struct {
	DeviceID  string    `json:"device_id"`
	CreatedAt time.Time `json:"created_at"`
}

// DeviceStore implements ports.DeviceStore with a single JSON file.
// The file is created exactly once; concurrent processes agree on the winner.
type DeviceStore struct {
	Path string
}

// NewDeviceStore creates a store backed by path.
// If path is empty, it defaults to DefaultPath.
func NewDeviceStore(path string) *DeviceStore {
	if path == "" {
		path = DefaultPath
	}
	return &DeviceStore{Path: path}
}

// Load reads the identifier from the device file.
func (s *DeviceStore) Load(ctx context.Context) (string, error) {
	data, err := os.ReadFile(s.Path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", domain.ErrDeviceNotFound
		}
		return "", fmt.Errorf("failed to read device file: %w", err)
	}

	var rec deviceRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return "", fmt.Errorf("failed to unmarshal device file: %w", err)
	}
	if strings.TrimSpace(rec.DeviceID) == "" {
		return "", fmt.Errorf("device file %s holds an empty id", s.Path)
	}
	return rec.DeviceID, nil
}

// SaveIfAbsent writes id unless the device file already exists.
// The record is written to a temporary file, synced, and then hard-linked
// into place, which fails when the destination exists. Readers therefore
// never observe a partially written file.
func (s *DeviceStore) SaveIfAbsent(ctx context.Context, id string) (string, error) {
	if id == "" {
		return "", fmt.Errorf("device id cannot be empty")
	}
	if existing, err := s.Load(ctx); err == nil {
		return existing, nil
	} else if !errors.Is(err, domain.ErrDeviceNotFound) {
		return "", err
	}

	dir := filepath.Dir(s.Path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to ensure device directory: %w", err)
	}

	data, err := json.MarshalIndent(deviceRecord{DeviceID: id, CreatedAt: time.Now().UTC()}, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal device record: %w", err)
	}

	tmpFile, err := os.CreateTemp(dir, "tmp-device-*.json")
	if err != nil {
		return "", fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()
	defer func() {
		_ = tmpFile.Close()
		_ = os.Remove(tmpPath)
	}()

	if _, err := tmpFile.Write(data); err != nil {
		return "", fmt.Errorf("failed to write to temp file: %w", err)
	}
	if err := tmpFile.Sync(); err != nil {
		return "", fmt.Errorf("failed to fsync temp file: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		return "", fmt.Errorf("failed to close temp file: %w", err)
	}

	if err := os.Link(tmpPath, s.Path); err != nil {
		if errors.Is(err, fs.ErrExist) {
			// Another writer won the race.
			return s.Load(ctx)
		}
		return "", fmt.Errorf("failed to install device file: %w", err)
	}
	return id, nil
}
