package otpstore

import (
	"context"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// Redis keeps one hash per phone number: the hashed code, the failed
// attempts and the expiry instant. The key TTL only garbage collects; the
// expiry is checked on every read.
type Redis struct {
	rdb         *redis.Client
	secret      string
	ttl         time.Duration
	maxAttempts int
	now         func() time.Time
}

func NewRedis(rdb *redis.Client, secret string, ttl time.Duration, maxAttempts int) *Redis {
	return &Redis{
		rdb:         rdb,
		secret:      secret,
		ttl:         ttl,
		maxAttempts: maxAttempts,
		now:         time.Now,
	}
}

func (s *Redis) key(phone string) string { return "otp:" + phone }

func (s *Redis) hash(phone, code string) string {
	sum := sha256.Sum256([]byte(phone + ":" + code + ":" + s.secret))
	return hex.EncodeToString(sum[:])
}

func (s *Redis) Issue(ctx context.Context, phone string) (string, error) {
	code, err := generateCode()
	if err != nil {
		return "", err
	}
	key := s.key(phone)
	pipe := s.rdb.TxPipeline()
	pipe.Del(ctx, key)
	pipe.HSet(ctx, key,
		"hash", s.hash(phone, code),
		"attempts", "0",
		"expires_at", strconv.FormatInt(s.now().Add(s.ttl).UnixMilli(), 10),
	)
	pipe.Expire(ctx, key, s.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return "", err
	}
	return code, nil
}

func (s *Redis) Verify(ctx context.Context, phone, code string) (bool, error) {
	key := s.key(phone)
	vals, err := s.rdb.HGetAll(ctx, key).Result()
	if err != nil {
		return false, err
	}
	if len(vals) == 0 {
		return false, nil
	}

	expiresAt, _ := strconv.ParseInt(vals["expires_at"], 10, 64)
	if s.now().UnixMilli() > expiresAt {
		_ = s.rdb.Del(ctx, key).Err()
		return false, nil
	}
	attempts, _ := strconv.Atoi(vals["attempts"])
	if attempts >= s.maxAttempts {
		return false, nil
	}

	want := vals["hash"]
	got := s.hash(phone, code)
	if want == "" || subtle.ConstantTimeCompare([]byte(want), []byte(got)) != 1 {
		_ = s.rdb.HIncrBy(ctx, key, "attempts", 1).Err()
		return false, nil
	}
	return true, nil
}

func (s *Redis) Invalidate(ctx context.Context, phone string) error {
	return s.rdb.Del(ctx, s.key(phone)).Err()
}
