package redis

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	goredis "github.com/redis/go-redis/v9"

	"bumdes/internal/mirror"
)

// Store keeps the mirrored document under a single Redis key.
type Store struct {
	client goredis.UniversalClient
	key    string
}

var _ mirror.Mirror = (*Store)(nil)

// Config holds connection settings.
type Config struct {
	Addr     string
	Password string
	DB       int
	Key      string
}

func New(cfg Config) *Store {
	rdb := goredis.NewClient(&goredis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	return NewWithClient(rdb, cfg.Key)
}

// NewWithClient wraps an existing client, e.g. a cluster client.
func NewWithClient(client goredis.UniversalClient, key string) *Store {
	if key == "" {
		key = mirror.DefaultKey
	}
	return &Store{client: client, key: key}
}

func (s *Store) Key() string {
	return s.key
}

// Ping checks connectivity.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("ping redis: %w", err)
	}
	return nil
}

func (s *Store) Load(ctx context.Context) ([]byte, error) {
	b, err := s.client.Get(ctx, s.key).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, mirror.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", s.key, err)
	}
	return b, nil
}

// Save overwrites the key with no expiry.
func (s *Store) Save(ctx context.Context, doc []byte) error {
	if err := s.client.Set(ctx, s.key, doc, 0).Err(); err != nil {
		return fmt.Errorf("set %s: %w", s.key, err)
	}
	slog.DebugContext(ctx, "Mirror saved to Redis", "key", s.key, "bytes", len(doc))
	return nil
}

func (s *Store) Close() error {
	return s.client.Close()
}
