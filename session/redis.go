package session

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisRegistry keeps sessions as binary blobs with a per-operator index set
// and a jti lookup key. Records expire with the token.
type RedisRegistry struct {
	redis  redis.UniversalClient
	prefix string
	now    func() time.Time
}

func NewRedisRegistry(redisClient redis.UniversalClient, prefix string) *RedisRegistry {
	if prefix == "" {
		prefix = "sess"
	}
	return &RedisRegistry{
		redis:  redisClient,
		prefix: prefix,
		now:    time.Now,
	}
}

func (s *RedisRegistry) key(sessionID string) string {
	return s.prefix + ":s:" + sessionID
}

func (s *RedisRegistry) jtiKey(jti string) string {
	return s.prefix + ":jti:" + jti
}

func (s *RedisRegistry) operatorKey(operatorID int64) string {
	return s.prefix + ":op:" + strconv.FormatInt(operatorID, 10)
}

func (s *RedisRegistry) Create(ctx context.Context, operatorID int64, jti string, origin Origin, lifetime time.Duration) (*Record, error) {
	record, err := newRecord(operatorID, jti, origin, s.now(), lifetime)
	if err != nil {
		return nil, err
	}
	data, err := Encode(record)
	if err != nil {
		return nil, err
	}

	opKey := s.operatorKey(operatorID)
	_, err = s.redis.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, s.key(record.ID), data, lifetime)
		pipe.Set(ctx, s.jtiKey(jti), record.ID, lifetime)
		pipe.SAdd(ctx, opKey, record.ID)
		pipe.Expire(ctx, opKey, lifetime)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return record, nil
}

func (s *RedisRegistry) FindActiveByJTI(ctx context.Context, jti string) (*Record, error) {
	sessionID, err := s.redis.Get(ctx, s.jtiKey(jti)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	data, err := s.redis.Get(ctx, s.key(sessionID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	record, err := Decode(data)
	if err != nil {
		return nil, err
	}
	if record.TokenJTI != jti || !record.Active(s.now()) {
		return nil, ErrNotFound
	}
	return record, nil
}

// RevokeAll rewrites each live session with the revoked flag set, keeping its
// remaining TTL. Index entries whose blob already expired are pruned.
func (s *RedisRegistry) RevokeAll(ctx context.Context, operatorID int64) (int, error) {
	opKey := s.operatorKey(operatorID)

	sessionIDs, err := s.redis.SMembers(ctx, opKey).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, nil
		}
		return 0, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if len(sessionIDs) == 0 {
		return 0, nil
	}

	pipe := s.redis.Pipeline()
	getCmds := make([]*redis.StringCmd, len(sessionIDs))
	ttlCmds := make([]*redis.DurationCmd, len(sessionIDs))
	for i, id := range sessionIDs {
		getCmds[i] = pipe.Get(ctx, s.key(id))
		ttlCmds[i] = pipe.PTTL(ctx, s.key(id))
	}
	if _, err := pipe.Exec(ctx); err != nil && !errors.Is(err, redis.Nil) {
		return 0, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	now := s.now().UTC()
	type update struct {
		id   string
		data []byte
		ttl  time.Duration
	}
	var (
		updates []update
		stale   []interface{}
	)
	for i, id := range sessionIDs {
		data, err := getCmds[i].Bytes()
		if errors.Is(err, redis.Nil) {
			stale = append(stale, id)
			continue
		}
		if err != nil {
			return 0, fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
		record, err := Decode(data)
		if err != nil {
			stale = append(stale, id)
			continue
		}
		ttl := ttlCmds[i].Val()
		if record.Revoked || ttl <= 0 {
			continue
		}

		record.Revoked = true
		record.RevokedAt = &now
		encoded, err := Encode(record)
		if err != nil {
			return 0, err
		}
		updates = append(updates, update{id: id, data: encoded, ttl: ttl})
	}

	_, err = s.redis.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, u := range updates {
			pipe.Set(ctx, s.key(u.id), u.data, u.ttl)
		}
		if len(stale) > 0 {
			pipe.SRem(ctx, opKey, stale...)
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return len(updates), nil
}

// DeleteExpired prunes operator index entries whose session blob is gone.
// Blobs themselves expire through their TTL, so cutoff is not consulted.
func (s *RedisRegistry) DeleteExpired(ctx context.Context, _ time.Time) (int, error) {
	var (
		cursor uint64
		pruned int
	)
	for {
		keys, next, err := s.redis.Scan(ctx, cursor, s.prefix+":op:*", 100).Result()
		if err != nil {
			return pruned, fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
		for _, opKey := range keys {
			ids, err := s.redis.SMembers(ctx, opKey).Result()
			if err != nil {
				return pruned, fmt.Errorf("%w: %v", ErrUnavailable, err)
			}
			for _, id := range ids {
				n, err := s.redis.Exists(ctx, s.key(id)).Result()
				if err != nil {
					return pruned, fmt.Errorf("%w: %v", ErrUnavailable, err)
				}
				if n == 0 {
					if err := s.redis.SRem(ctx, opKey, id).Err(); err != nil {
						return pruned, fmt.Errorf("%w: %v", ErrUnavailable, err)
					}
					pruned++
				}
			}
		}
		cursor = next
		if cursor == 0 {
			return pruned, nil
		}
	}
}
