package repository

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"supportdesk/internal/session/domain"
)

const (
	sessionKeyPrefix   = "sd:session:"
	principalKeyPrefix = "sd:principal_sessions:"
)

// RedisRepository stores sessions as TTL'd keys plus a per-principal set so
// principal-wide revocation stays a single round trip. Redis expires session
// keys natively, so DeleteExpired only has the index set to tidy.
type RedisRepository struct {
	client *redis.Client
}

// NewRedisRepository returns a session repository over the given client.
func NewRedisRepository(client *redis.Client) *RedisRepository {
	return &RedisRepository{client: client}
}

func sessionKey(id string) string          { return sessionKeyPrefix + id }
func principalKey(principal string) string { return principalKeyPrefix + principal }

// Insert stores the session under its id with the remaining TTL and records
// the id in the principal's session set.
func (r *RedisRepository) Insert(ctx context.Context, s *domain.Session) error {
	ttl := time.Until(s.ExpiresAt)
	if ttl <= 0 {
		return errors.New("session already expired")
	}
	raw, err := json.Marshal(s)
	if err != nil {
		return err
	}
	pipe := r.client.TxPipeline()
	pipe.Set(ctx, sessionKey(s.ID), raw, ttl)
	pipe.SAdd(ctx, principalKey(s.PrincipalID), s.ID)
	// The index set outlives each member slightly; stale members are skipped
	// on revocation and trimmed by DeleteExpired.
	pipe.Expire(ctx, principalKey(s.PrincipalID), ttl)
	_, err = pipe.Exec(ctx)
	return err
}

// Get returns the session for id, or nil if missing or natively expired.
func (r *RedisRepository) Get(ctx context.Context, id string) (*domain.Session, error) {
	raw, err := r.client.Get(ctx, sessionKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var s domain.Session
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

// Delete removes the session key and its index entry. Missing ids are a no-op.
func (r *RedisRepository) Delete(ctx context.Context, id string) error {
	s, err := r.Get(ctx, id)
	if err != nil {
		return err
	}
	pipe := r.client.TxPipeline()
	pipe.Del(ctx, sessionKey(id))
	if s != nil {
		pipe.SRem(ctx, principalKey(s.PrincipalID), id)
	}
	_, err = pipe.Exec(ctx)
	return err
}

// DeleteByPrincipal removes every live session recorded for the principal.
func (r *RedisRepository) DeleteByPrincipal(ctx context.Context, principalID string) (int, error) {
	ids, err := r.client.SMembers(ctx, principalKey(principalID)).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return 0, err
	}
	removed := 0
	for _, id := range ids {
		n, err := r.client.Del(ctx, sessionKey(id)).Result()
		if err != nil {
			return removed, err
		}
		removed += int(n)
	}
	if err := r.client.Del(ctx, principalKey(principalID)).Err(); err != nil {
		return removed, err
	}
	return removed, nil
}

// DeleteExpired trims stale ids from the principal index sets. The session
// keys themselves expire natively, so nothing else is swept.
func (r *RedisRepository) DeleteExpired(ctx context.Context, now time.Time) (int, error) {
	var cursor uint64
	for {
		keys, next, err := r.client.Scan(ctx, cursor, principalKeyPrefix+"*", 256).Result()
		if err != nil {
			return 0, err
		}
		for _, key := range keys {
			ids, err := r.client.SMembers(ctx, key).Result()
			if err != nil {
				return 0, err
			}
			for _, id := range ids {
				exists, err := r.client.Exists(ctx, sessionKey(id)).Result()
				if err != nil {
					return 0, err
				}
				if exists == 0 {
					if err := r.client.SRem(ctx, key, id).Err(); err != nil {
						return 0, err
					}
				}
			}
		}
		cursor = next
		if cursor == 0 {
			return 0, nil
		}
	}
}
