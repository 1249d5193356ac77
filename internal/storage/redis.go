package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/zhouzirui/z-scheduler/backend/internal/model/chat"
)

// DefaultKeyPrefix namespaces session keys in a shared Redis.
const DefaultKeyPrefix = "scheduler:session:"

// RedisOptions configures the Redis connection.
type RedisOptions struct {
	Addr     string
	Password string
	DB       int
}

// ConnectRedis creates a client and verifies the connection.
func ConnectRedis(ctx context.Context, opts RedisOptions) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis %s unreachable: %w", opts.Addr, err)
	}

	log.Printf("[storage] connected to redis at %s", opts.Addr)
	return rdb, nil
}

// RedisSessionStore keeps sessions as JSON documents, one key per session.
type RedisSessionStore struct {
	client redis.Cmdable
	prefix string
	ttl    time.Duration
}

// NewRedisSessionStore wraps a client. ttl <= 0 keeps sessions without expiry.
func NewRedisSessionStore(client redis.Cmdable, prefix string, ttl time.Duration) *RedisSessionStore {
	if prefix == "" {
		prefix = DefaultKeyPrefix
	}
	if ttl < 0 {
		ttl = 0
	}
	return &RedisSessionStore{client: client, prefix: prefix, ttl: ttl}
}

// Get loads a session; a missing key reports ok=false.
func (s *RedisSessionStore) Get(ctx context.Context, id string) (chat.Session, bool, error) {
	raw, err := s.client.Get(ctx, s.key(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return chat.Session{}, false, nil
	}
	if err != nil {
		return chat.Session{}, false, fmt.Errorf("redis get session %s: %w", id, err)
	}

	var session chat.Session
	if err := json.Unmarshal(raw, &session); err != nil {
		return chat.Session{}, false, fmt.Errorf("decode session %s: %w", id, err)
	}
	return session.Clone(), true, nil
}

// Put writes the whole session document.
func (s *RedisSessionStore) Put(ctx context.Context, session chat.Session) error {
	raw, err := json.Marshal(session.Clone())
	if err != nil {
		return fmt.Errorf("encode session %s: %w", session.ID, err)
	}
	if err := s.client.Set(ctx, s.key(session.ID), raw, s.ttl).Err(); err != nil {
		return fmt.Errorf("redis set session %s: %w", session.ID, err)
	}
	return nil
}

func (s *RedisSessionStore) key(id string) string {
	return s.prefix + id
}
