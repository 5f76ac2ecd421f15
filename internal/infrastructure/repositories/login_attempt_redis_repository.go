package repositories

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/you/cookbookauth/domain"
)

// ARGV: now (unix ms), max attempts, lock end (unix ms) to apply if this
// failure reaches the threshold.
const incrementAttemptScript = `
local key = KEYS[1]
local now = tonumber(ARGV[1])
local max_attempts = tonumber(ARGV[2])

local locked = tonumber(redis.call("HGET", key, "locked_until") or "0")
if locked > 0 and locked <= now then
  redis.call("DEL", key)
  locked = 0
end

local attempts = redis.call("HINCRBY", key, "attempts", 1)
redis.call("HSET", key, "last_attempt_at", ARGV[1])
if attempts >= max_attempts and locked == 0 then
  redis.call("HSET", key, "locked_until", ARGV[3])
  locked = tonumber(ARGV[3])
end
return {attempts, locked}
`

var incrementAttemptLua = redis.NewScript(incrementAttemptScript)

// LoginAttemptRedisRepository implements domain.LoginAttemptRepository as
// one Redis hash per email. Increment runs as a single Lua script.
type LoginAttemptRedisRepository struct {
	client redis.UniversalClient
	prefix string
}

// NewLoginAttemptRedisRepository creates a Redis-backed attempt repository
func NewLoginAttemptRedisRepository(client redis.UniversalClient) domain.LoginAttemptRepository {
	return &LoginAttemptRedisRepository{
		client: client,
		prefix: "login_attempts:",
	}
}

func (r *LoginAttemptRedisRepository) key(email string) string {
	return r.prefix + email
}

// Find implements domain.LoginAttemptRepository
func (r *LoginAttemptRedisRepository) Find(ctx context.Context, email string) (*domain.LoginAttempt, error) {
	fields, err := r.client.HGetAll(ctx, r.key(email)).Result()
	if err != nil {
		return nil, domain.StoreError("find login attempt", err)
	}
	if len(fields) == 0 {
		return nil, domain.ErrAttemptNotFound
	}

	attempts, err := strconv.Atoi(fields["attempts"])
	if err != nil {
		return nil, domain.StoreError("find login attempt", fmt.Errorf("corrupt attempts field: %w", err))
	}
	record := &domain.LoginAttempt{
		Email:         email,
		Attempts:      attempts,
		LastAttemptAt: parseMillis(fields["last_attempt_at"]),
	}
	if locked := parseMillis(fields["locked_until"]); !locked.IsZero() {
		record.LockedUntil = &locked
	}
	return record, nil
}

// Increment implements domain.LoginAttemptRepository
func (r *LoginAttemptRedisRepository) Increment(ctx context.Context, email string, now time.Time, maxAttempts int, lockFor time.Duration) (*domain.LoginAttempt, error) {
	res, err := incrementAttemptLua.Run(ctx, r.client, []string{r.key(email)},
		now.UnixMilli(), maxAttempts, now.Add(lockFor).UnixMilli()).Int64Slice()
	if err != nil {
		return nil, domain.StoreError("increment login attempts", err)
	}
	if len(res) != 2 {
		return nil, domain.StoreError("increment login attempts", fmt.Errorf("unexpected script result %v", res))
	}

	record := &domain.LoginAttempt{
		Email:         email,
		Attempts:      int(res[0]),
		LastAttemptAt: time.UnixMilli(now.UnixMilli()),
	}
	if res[1] > 0 {
		locked := time.UnixMilli(res[1])
		record.LockedUntil = &locked
	}
	return record, nil
}

// Delete implements domain.LoginAttemptRepository
func (r *LoginAttemptRedisRepository) Delete(ctx context.Context, email string) error {
	if err := r.client.Del(ctx, r.key(email)).Err(); err != nil {
		return domain.StoreError("delete login attempts", err)
	}
	return nil
}

func parseMillis(v string) time.Time {
	if v == "" {
		return time.Time{}
	}
	ms, err := strconv.ParseInt(v, 10, 64)
	if err != nil || ms <= 0 {
		return time.Time{}
	}
	return time.UnixMilli(ms)
}
