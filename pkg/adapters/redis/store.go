package redis

import (
	"context"
	"fmt"
	"time"

	backend "github.com/redis/go-redis/v9"
)

// DefaultPrefix namespaces every key written by the shell.
const DefaultPrefix = "pdshell:"

// HistoryStore implements ports.HistoryStore with a Redis list, so replicas of the
// shell share one command history.
type HistoryStore struct {
	client *backend.Client
	prefix string
	ttl    time.Duration
}

type Option func(*HistoryStore)

// WithTTL sets an expiration for the history key.
func WithTTL(ttl time.Duration) Option {
	return func(s *HistoryStore) {
		s.ttl = ttl
	}
}

// WithPrefix sets the key prefix.
func WithPrefix(prefix string) Option {
	return func(s *HistoryStore) {
		s.prefix = prefix
	}
}

// New connects to the server described by a redis:// URL.
func New(url string, opts ...Option) (*HistoryStore, error) {
	options, err := backend.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}
	return NewFromClient(backend.NewClient(options), opts...), nil
}

// NewFromClient creates a store from an existing client.
func NewFromClient(client *backend.Client, opts ...Option) *HistoryStore {
	store := &HistoryStore{
		client: client,
		prefix: DefaultPrefix,
		ttl:    0, // No expiration by default
	}

	for _, opt := range opts {
		opt(store)
	}

	return store
}

// Client returns the underlying client, e.g. to build a Locker on the same connection.
func (s *HistoryStore) Client() *backend.Client {
	return s.client
}

func (s *HistoryStore) key() string {
	return s.prefix + "history"
}

// Save replaces the stored history. Entries keep their order, most recent first.
func (s *HistoryStore) Save(ctx context.Context, entries []string) error {
	pipe := s.client.TxPipeline()

	// 1. Drop the previous list
	pipe.Del(ctx, s.key())

	// 2. Write the new one
	if len(entries) > 0 {
		values := make([]any, len(entries))
		for i, e := range entries {
			values[i] = e
		}
		pipe.RPush(ctx, s.key(), values...)

		if s.ttl > 0 {
			pipe.Expire(ctx, s.key(), s.ttl)
		}
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to save history to redis: %w", err)
	}
	return nil
}

// Load returns the stored history. A missing key is an empty history.
func (s *HistoryStore) Load(ctx context.Context) ([]string, error) {
	entries, err := s.client.LRange(ctx, s.key(), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to load history from redis: %w", err)
	}
	return entries, nil
}

// Close closes the redis client.
func (s *HistoryStore) Close() error {
	return s.client.Close()
}
