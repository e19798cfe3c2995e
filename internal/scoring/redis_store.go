package scoring

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore keeps sessions as JSON values under a key prefix so several
// server instances can share ring-side state
type RedisStore struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// RedisConfig holds connection settings for RedisStore
type RedisConfig struct {
	Address   string
	Password  string
	DB        int
	KeyPrefix string
	// TTL bounds how long an abandoned session survives in Redis. Zero keeps keys forever.
	TTL time.Duration
}

// NewRedisStore connects to Redis and verifies the connection
func NewRedisStore(ctx context.Context, cfg RedisConfig) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	prefix := cfg.KeyPrefix
	if prefix == "" {
		prefix = "myk9q:session:"
	}

	slog.Info("connected to redis session store", "address", cfg.Address, "prefix", prefix)

	return &RedisStore{client: client, prefix: prefix, ttl: cfg.TTL}, nil
}

func (r *RedisStore) key(id string) string {
	return r.prefix + id
}

func (r *RedisStore) Get(ctx context.Context, id string) (*Session, error) {
	data, err := r.client.Get(ctx, r.key(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}

	var s Session
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("failed to decode session %s: %w", id, err)
	}
	return &s, nil
}

func (r *RedisStore) Put(ctx context.Context, s *Session) error {
	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("failed to encode session: %w", err)
	}
	if err := r.client.Set(ctx, r.key(s.ID), data, r.ttl).Err(); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

func (r *RedisStore) Delete(ctx context.Context, id string) error {
	n, err := r.client.Del(ctx, r.key(id)).Result()
	if err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	if n == 0 {
		return ErrSessionNotFound
	}
	return nil
}

// IdleSince walks the key prefix with SCAN and decodes each session
func (r *RedisStore) IdleSince(ctx context.Context, cutoff time.Time) ([]string, error) {
	pattern := r.prefix + "*"
	var cursor uint64
	var ids []string

	for {
		keys, next, err := r.client.Scan(ctx, cursor, pattern, 100).Result()
		if err != nil {
			return nil, fmt.Errorf("failed to scan sessions: %w", err)
		}

		for _, key := range keys {
			id := strings.TrimPrefix(key, r.prefix)
			s, err := r.Get(ctx, id)
			if errors.Is(err, ErrSessionNotFound) {
				// expired between SCAN and GET
				continue
			}
			if err != nil {
				slog.Warn("skipping unreadable session", "key", key, "error", err)
				continue
			}
			if s.UpdatedAt.Before(cutoff) {
				ids = append(ids, id)
			}
		}

		cursor = next
		if cursor == 0 {
			break
		}
	}
	return ids, nil
}

// Ping verifies Redis connectivity
func (r *RedisStore) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

func (r *RedisStore) Close() error {
	return r.client.Close()
}
