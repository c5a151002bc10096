package redis

import (
	"context"
	"errors"
	"fmt"

	backend "github.com/redis/go-redis/v9"
	"github.com/sushrusha/sushrusha/pkg/domain"
)

// DefaultPrefix namespaces every key written by the store.
const DefaultPrefix = "sushrusha:"

// DeviceStore implements ports.DeviceStore using Redis. It lets several
// terminals of one training site share a single device identity.
type DeviceStore struct {
	client *backend.Client
	prefix string
}

type Option func(*DeviceStore)

// WithPrefix sets the key prefix.
func WithPrefix(prefix string) Option {
	return func(s *DeviceStore) {
		if prefix != "" {
			s.prefix = prefix
		}
	}
}

// New creates a new Redis device store with options.
func New(address, password string, db int, opts ...Option) *DeviceStore {
	rdb := backend.NewClient(&backend.Options{
		Addr:     address,
		Password: password,
		DB:       db,
	})
	return NewFromClient(rdb, opts...)
}

// NewFromClient creates a new Redis device store from an existing client.
func NewFromClient(client *backend.Client, opts ...Option) *DeviceStore {
	store := &DeviceStore{
		client: client,
		prefix: DefaultPrefix,
	}
	for _, opt := range opts {
		opt(store)
	}
	return store
}

func (s *DeviceStore) key() string {
	return s.prefix + "device"
}

// Load returns the stored identifier.
func (s *DeviceStore) Load(ctx context.Context) (string, error) {
	id, err := s.client.Get(ctx, s.key()).Result()
	if err != nil {
		if errors.Is(err, backend.Nil) {
			return "", domain.ErrDeviceNotFound
		}
		return "", fmt.Errorf("failed to get device id from redis: %w", err)
	}
	return id, nil
}

// SaveIfAbsent stores id with SETNX and returns whichever value is stored.
func (s *DeviceStore) SaveIfAbsent(ctx context.Context, id string) (string, error) {
	if id == "" {
		return "", fmt.Errorf("device id cannot be empty")
	}
	ok, err := s.client.SetNX(ctx, s.key(), id, 0).Result()
	if err != nil {
		return "", fmt.Errorf("failed to store device id in redis: %w", err)
	}
	if ok {
		return id, nil
	}
	return s.Load(ctx)
}

// Close releases the underlying client.
func (s *DeviceStore) Close() error {
	return s.client.Close()
}
