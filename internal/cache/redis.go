package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"todo-planner/internal/model"
	"todo-planner/pkg/logger"
)

// Connect parses a redis:// URL and pings the server.
func Connect(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse REDIS_URL: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	logger.Info(ctx, "Redis client initialized", "addr", opts.Addr, "db", opts.DB)
	return client, nil
}

// kv is the part of the Redis client the Store uses.
type kv interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
	Ping(ctx context.Context) *redis.StatusCmd
}

// Store keeps JSON-encoded values in Redis. A Store without a client loads
// through on every call; concurrent loads of one key are collapsed either way.
type Store struct {
	client kv
	ttl    time.Duration
	group  singleflight.Group

	mu      sync.Mutex
	version map[string]uint64
}

func NewStore(client *redis.Client, ttl time.Duration) *Store {
	if client == nil {
		return newStore(nil, ttl)
	}
	return newStore(client, ttl)
}

func newStore(client kv, ttl time.Duration) *Store {
	return &Store{client: client, ttl: ttl, version: make(map[string]uint64)}
}

// Remember fills dest from the cached value under key, or from load on a miss.
// Redis failures degrade to load; only load errors are returned.
func (s *Store) Remember(ctx context.Context, key string, dest any, load func(context.Context) (any, error)) error {
	if s.client != nil {
		b, err := s.client.Get(ctx, key).Bytes()
		switch {
		case err == nil:
			if err := json.Unmarshal(b, dest); err == nil {
				return nil
			}
			logger.Debug(ctx, "Redis cached value unreadable", "key", key)
		case !errors.Is(err, redis.Nil):
			logger.Debug(ctx, "Redis get failed", "key", key, "error", err)
		}
	}

	v, err, _ := s.group.Do(key, func() (any, error) {
		seen := s.versionOf(key)
		value, err := load(ctx)
		if err != nil {
			return nil, err
		}
		b, err := json.Marshal(value)
		if err != nil {
			return nil, fmt.Errorf("encode %s: %w", key, err)
		}
		s.set(ctx, key, b, seen)
		return b, nil
	})
	if err != nil {
		return err
	}
	if err := json.Unmarshal(v.([]byte), dest); err != nil {
		return fmt.Errorf("decode %s: %w", key, err)
	}
	return nil
}

func (s *Store) versionOf(key string) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.version[key]
}

// set writes the loaded value unless the key was forgotten since the load
// started.
func (s *Store) set(ctx context.Context, key string, b []byte, seen uint64) {
	if s.client == nil {
		return
	}
	if s.versionOf(key) != seen {
		logger.Debug(ctx, "Redis set skipped, key forgotten during load", "key", key)
		return
	}
	if err := s.client.Set(ctx, key, b, s.ttl).Err(); err != nil {
		logger.Debug(ctx, "Redis set failed", "key", key, "error", err)
	}
}

// Forget deletes the keys so the next read goes to the loader. Loads already
// in flight for them are not written back.
func (s *Store) Forget(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	s.mu.Lock()
	for _, key := range keys {
		s.version[key]++
		s.group.Forget(key)
	}
	s.mu.Unlock()

	if s.client == nil {
		return nil
	}
	if err := s.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}

// Ping reports whether Redis answers; a Store without a client is always ready.
func (s *Store) Ping(ctx context.Context) error {
	if s.client == nil {
		return nil
	}
	return s.client.Ping(ctx).Err()
}

const ledgerTTL = 48 * time.Hour

// Ledger remembers sent notifications in Redis with SETNX.
type Ledger struct {
	client *redis.Client
}

func NewLedger(client *redis.Client) *Ledger {
	return &Ledger{client: client}
}

// Claim returns true the first time it sees (kind, day, todoID).
func (l *Ledger) Claim(ctx context.Context, kind model.NotificationKind, day string, todoID uint) (bool, error) {
	ok, err := l.client.SetNX(ctx, LedgerKey(kind, day, todoID), 1, ledgerTTL).Result()
	if err != nil {
		return false, fmt.Errorf("claim notification: %w", err)
	}
	return ok, nil
}

func (l *Ledger) Release(ctx context.Context, kind model.NotificationKind, day string, todoID uint) error {
	if err := l.client.Del(ctx, LedgerKey(kind, day, todoID)).Err(); err != nil {
		return fmt.Errorf("release notification: %w", err)
	}
	return nil
}

func LedgerKey(kind model.NotificationKind, day string, todoID uint) string {
	return fmt.Sprintf("notify:%s:%s:%d", kind, day, todoID)
}
