package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/lira-ai/lira/pkg/memory"
)

// RedisStore keeps one JSON document per session under {prefix}{id}.
// Appends run in WATCH/MULTI transactions and retry on conflict.
type RedisStore struct {
	client redis.UniversalClient
	cfg    Config
	now    func() time.Time
}

// NewRedisStore creates a Redis-backed session store.
func NewRedisStore(client redis.UniversalClient, cfg Config) (*RedisStore, error) {
	if client == nil {
		return nil, fmt.Errorf("redis client cannot be nil")
	}
	return &RedisStore{client: client, cfg: cfg.withDefaults(), now: time.Now}, nil
}

// NewRedisClient creates a Redis client from the given options.
func NewRedisClient(opts *redis.Options) *redis.Client {
	return redis.NewClient(opts)
}

// PingRedis checks if the Redis connection is healthy.
func PingRedis(ctx context.Context, client redis.Cmdable) error {
	return client.Ping(ctx).Err()
}

func (s *RedisStore) key(sessionID string) string {
	return s.cfg.KeyPrefix + sessionID
}

// Get implements Store.
func (s *RedisStore) Get(ctx context.Context, sessionID string) (Document, error) {
	if err := validateID(sessionID); err != nil {
		return Document{}, err
	}
	data, err := s.client.Get(ctx, s.key(sessionID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return NewDocument(s.now()), nil
	}
	if err != nil {
		return Document{}, fmt.Errorf("session: get %s: %w", sessionID, err)
	}
	return decode(data)
}

// AppendChat implements Store.
func (s *RedisStore) AppendChat(ctx context.Context, sessionID string, messages ...ChatMessage) error {
	if len(messages) == 0 {
		return validateID(sessionID)
	}
	return s.update(ctx, sessionID, appendChat(messages))
}

// AppendRecall implements Store.
func (s *RedisStore) AppendRecall(ctx context.Context, sessionID string, entries ...RecallEntry) error {
	if len(entries) == 0 {
		return validateID(sessionID)
	}
	return s.update(ctx, sessionID, appendRecall(entries))
}

// update applies fn under WATCH and writes the document back with a fresh
// TTL. A corrupt document is replaced.
func (s *RedisStore) update(ctx context.Context, sessionID string, fn mutation) error {
	if err := validateID(sessionID); err != nil {
		return err
	}
	key := s.key(sessionID)

	txf := func(tx *redis.Tx) error {
		now := s.now()
		doc := NewDocument(now)
		data, err := tx.Get(ctx, key).Bytes()
		switch {
		case errors.Is(err, redis.Nil):
		case err != nil:
			return err
		default:
			if existing, derr := decode(data); derr == nil {
				doc = existing
			}
		}

		fn(&doc, now)
		doc.LastUpdated = memory.FormatTimestamp(now)
		out, err := json.Marshal(doc)
		if err != nil {
			return err
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, out, s.cfg.TTL)
			return nil
		})
		return err
	}

	for i := 0; i < s.cfg.MaxRetries; i++ {
		err := s.client.Watch(ctx, txf, key)
		if err == nil {
			return nil
		}
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		return fmt.Errorf("session: update %s: %w", sessionID, err)
	}
	return fmt.Errorf("session: update %s: %w", sessionID, ErrConflict)
}

// Clear implements Store.
func (s *RedisStore) Clear(ctx context.Context, sessionID string) error {
	if err := validateID(sessionID); err != nil {
		return err
	}
	if err := s.client.Del(ctx, s.key(sessionID)).Err(); err != nil {
		return fmt.Errorf("session: clear %s: %w", sessionID, err)
	}
	return nil
}

// Close implements Store. The client is owned by the caller.
func (s *RedisStore) Close() error {
	return nil
}
