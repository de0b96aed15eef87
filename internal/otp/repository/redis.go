package repository

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/go-redis/redis/v8"

	"agrovision-auth/internal/otp/domain"
)

const (
	keyPrefix = "otp:challenge:"

	// DefaultRetention keeps a challenge key alive past its expiry so a late verify reports expiry rather than absence.
	DefaultRetention = time.Hour
)

var deleteIfMatch = redis.NewScript(`
local v = redis.call('GET', KEYS[1])
if not v then return 0 end
local c = cjson.decode(v)
if c['code_hash'] == ARGV[1] then
	return redis.call('DEL', KEYS[1])
end
return 0
`)

// RedisRepository stores each challenge as a JSON value under otp:challenge:<phone>.
type RedisRepository struct {
	client    redis.UniversalClient
	retention time.Duration
	now       func() time.Time
}

// NewRedisRepository returns a Redis-backed challenge repository. retention <= 0 uses DefaultRetention.
func NewRedisRepository(client redis.UniversalClient, retention time.Duration) *RedisRepository {
	if retention <= 0 {
		retention = DefaultRetention
	}
	return &RedisRepository{client: client, retention: retention, now: time.Now}
}

func (r *RedisRepository) Put(ctx context.Context, c *domain.Challenge) error {
	b, err := json.Marshal(c)
	if err != nil {
		return err
	}
	ttl := c.ExpiresAt.Sub(r.now()) + r.retention
	if ttl <= 0 {
		ttl = r.retention
	}
	return r.client.Set(ctx, keyPrefix+c.Phone, b, ttl).Err()
}

func (r *RedisRepository) Get(ctx context.Context, phone string) (*domain.Challenge, error) {
	b, err := r.client.Get(ctx, keyPrefix+phone).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}
	var c domain.Challenge
	if err := json.Unmarshal(b, &c); err != nil {
		return nil, err
	}
	return &c, nil
}

// DeleteIfMatch compares and deletes inside one Lua script so the check and the delete are atomic.
func (r *RedisRepository) DeleteIfMatch(ctx context.Context, phone, codeHash string) (bool, error) {
	n, err := deleteIfMatch.Run(ctx, r.client, []string{keyPrefix + phone}, codeHash).Int()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}
