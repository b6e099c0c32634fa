package sessions

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisRepository implements Repository using Redis as the backing store.
// Keys (all with TTL = expiresAt - now):
//
//	<prefix><refreshToken>   session JSON
//	<prefix>id:<id>          refresh token
//	<prefix>user:<userID>    set of refresh tokens
type RedisRepository struct {
	client *redis.Client
	prefix string
}

// NewRedisRepository creates a Redis-based session repository. Prefix may be empty.
func NewRedisRepository(client *redis.Client, prefix string) *RedisRepository {
	if prefix == "" {
		prefix = "session:"
	}
	return &RedisRepository{client: client, prefix: prefix}
}

func (r *RedisRepository) key(refresh string) string { return r.prefix + refresh }
func (r *RedisRepository) idKey(id string) string    { return r.prefix + "id:" + id }
func (r *RedisRepository) userKey(uid string) string { return r.prefix + "user:" + uid }

func ttlOf(s *Session) time.Duration {
	exp := time.Until(s.ExpiresAt)
	if exp <= 0 {
		// ensure a minimal TTL so Redis won't store expired sessions
		exp = time.Second
	}
	return exp
}

func (r *RedisRepository) Create(ctx context.Context, s *Session) error {
	b, err := json.Marshal(storedSession{Session: *s, RefreshToken: s.RefreshToken})
	if err != nil {
		return err
	}
	exp := ttlOf(s)
	pipe := r.client.TxPipeline()
	pipe.Set(ctx, r.key(s.RefreshToken), b, exp)
	pipe.Set(ctx, r.idKey(s.ID), s.RefreshToken, exp)
	pipe.SAdd(ctx, r.userKey(s.UserID), s.RefreshToken)
	pipe.Expire(ctx, r.userKey(s.UserID), exp)
	_, err = pipe.Exec(ctx)
	return err
}

// storedSession keeps the refresh token in the stored JSON; Session hides it from API output.
type storedSession struct {
	Session
	RefreshToken string `json:"refreshToken"`
}

func (r *RedisRepository) GetByRefresh(ctx context.Context, refresh string) (*Session, error) {
	b, err := r.client.Get(ctx, r.key(refresh)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}
	var raw storedSession
	if err := json.Unmarshal(b, &raw); err != nil {
		return nil, err
	}
	s := raw.Session
	s.RefreshToken = raw.RefreshToken
	// If session expired from perspective of stored value, treat as missing
	if s.expired(time.Now().UTC()) {
		_ = r.DeleteByRefresh(ctx, refresh)
		return nil, nil
	}
	return &s, nil
}

func (r *RedisRepository) GetByID(ctx context.Context, id string) (*Session, error) {
	refresh, err := r.client.Get(ctx, r.idKey(id)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}
	return r.GetByRefresh(ctx, refresh)
}

func (r *RedisRepository) ListByUser(ctx context.Context, userID string) ([]*Session, error) {
	refreshes, err := r.client.SMembers(ctx, r.userKey(userID)).Result()
	if err != nil {
		return nil, err
	}
	out := []*Session{}
	for _, refresh := range refreshes {
		s, err := r.GetByRefresh(ctx, refresh)
		if err != nil {
			return nil, err
		}
		if s == nil {
			// expired entry left in the set
			_ = r.client.SRem(ctx, r.userKey(userID), refresh).Err()
			continue
		}
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].LastSeenAt.After(out[j].LastSeenAt) })
	return out, nil
}

func (r *RedisRepository) Update(ctx context.Context, s *Session) error {
	b, err := json.Marshal(storedSession{Session: *s, RefreshToken: s.RefreshToken})
	if err != nil {
		return err
	}
	return r.client.Set(ctx, r.key(s.RefreshToken), b, ttlOf(s)).Err()
}

func (r *RedisRepository) DeleteByRefresh(ctx context.Context, refresh string) error {
	b, err := r.client.Get(ctx, r.key(refresh)).Bytes()
	if err != nil && !errors.Is(err, redis.Nil) {
		return err
	}
	pipe := r.client.TxPipeline()
	pipe.Del(ctx, r.key(refresh))
	if err == nil {
		var s Session
		if json.Unmarshal(b, &s) == nil {
			pipe.Del(ctx, r.idKey(s.ID))
			pipe.SRem(ctx, r.userKey(s.UserID), refresh)
		}
	}
	_, err = pipe.Exec(ctx)
	return err
}
