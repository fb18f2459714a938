// Package redis stores the state snapshot under a single Redis key.
package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"messenger/internal/domain"

	goredis "github.com/redis/go-redis/v9"
)

// DefaultKey is used when no key is configured.
const DefaultKey = "messenger:state"

// Repo keeps the snapshot as one string value.
type Repo struct {
	client *goredis.Client
	key    string
}

var _ domain.StateRepository = (*Repo)(nil)

// New connects to addr and pings it.
func New(addr, password string, db int, key string) (*Repo, error) {
	client := goredis.NewClient(&goredis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, err
	}
	return NewWithClient(client, key), nil
}

// NewWithClient wraps an existing client.
func NewWithClient(client *goredis.Client, key string) *Repo {
	if key == "" {
		key = DefaultKey
	}
	return &Repo{client: client, key: key}
}

// Close closes the client.
func (r *Repo) Close() error {
	return r.client.Close()
}

// Load reads the snapshot.
func (r *Repo) Load(ctx context.Context) (*domain.State, error) {
	val, err := r.client.Get(ctx, r.key).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, fmt.Errorf("redis %s: no snapshot: %w", r.key, domain.ErrStoreUnavailable)
	}
	if err != nil {
		return nil, fmt.Errorf("redis %s: %w", r.key, err)
	}
	return domain.DecodeState(val)
}

// Save replaces the snapshot. The key never expires.
func (r *Repo) Save(ctx context.Context, s *domain.State) error {
	data, err := domain.EncodeState(s)
	if err != nil {
		return err
	}
	if err := r.client.Set(ctx, r.key, data, 0).Err(); err != nil {
		return fmt.Errorf("redis %s: %v: %w", r.key, err, domain.ErrStoreUnavailable)
	}
	return nil
}
