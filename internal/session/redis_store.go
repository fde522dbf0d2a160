package session

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ellarises/ella-rises/internal/utils"
)

// RedisStore keeps sessions in Redis so they survive process restarts and
// are shared across replicas. Records live under "sess:<id>" and flashes
// under "sess:<id>:flash", both expiring with the session TTL.
type RedisStore struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewRedisStore returns a store writing to the given client with the given
// session lifetime.
func NewRedisStore(rdb *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{rdb: rdb, ttl: ttl}
}

func sessionKey(id string) string { return "sess:" + id }
func flashKey(id string) string   { return "sess:" + id + ":flash" }

// Create stores the record under a fresh 64-character id.
func (s *RedisStore) Create(ctx context.Context, rec Record) (string, error) {
	id, err := utils.RandomToken(32)
	if err != nil {
		return "", err
	}
	body, err := json.Marshal(rec)
	if err != nil {
		return "", err
	}
	if err := s.rdb.Set(ctx, sessionKey(id), body, s.ttl).Err(); err != nil {
		return "", err
	}
	return id, nil
}

// Get loads a live session record.
func (s *RedisStore) Get(ctx context.Context, id string) (*Record, error) {
	body, err := s.rdb.Get(ctx, sessionKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, err
	}
	var rec Record
	if err := json.Unmarshal(body, &rec); err != nil {
		return nil, err
	}
	return &rec, nil
}

// Delete removes the session and any pending flash.
func (s *RedisStore) Delete(ctx context.Context, id string) error {
	return s.rdb.Del(ctx, sessionKey(id), flashKey(id)).Err()
}

// SetFlash stores the one-shot notice with the session TTL.
func (s *RedisStore) SetFlash(ctx context.Context, id string, f Flash) error {
	body, err := json.Marshal(f)
	if err != nil {
		return err
	}
	return s.rdb.Set(ctx, flashKey(id), body, s.ttl).Err()
}

// PopFlash atomically reads and clears the notice via GETDEL.
func (s *RedisStore) PopFlash(ctx context.Context, id string) (*Flash, error) {
	body, err := s.rdb.GetDel(ctx, flashKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var f Flash
	if err := json.Unmarshal(body, &f); err != nil {
		return nil, err
	}
	return &f, nil
}
