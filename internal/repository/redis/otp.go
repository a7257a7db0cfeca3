// Package redis holds repositories backed by the TTL key-value store.
package redis

import (
	"context"
	"crypto/sha256"
	"crypto/subtle"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/velora-beauty/velora-server/internal/model"
)

const (
	otpKeyPrefix   = "otp"
	otpMaxAttempts = 5
)

var _ model.OTPStore = (*OTPRepository)(nil)

// OTPRepository stores password-reset one-time codes in Redis so they
// survive process restarts and are shared across server instances. Only a
// SHA-256 digest of the code is stored.
type OTPRepository struct {
	redis redis.UniversalClient
}

func NewOTPRepository(redisClient redis.UniversalClient) *OTPRepository {
	return &OTPRepository{redis: redisClient}
}

func otpKey(audience model.Audience, email string) string {
	return fmt.Sprintf("%s:%s:%s", otpKeyPrefix, audience, email)
}

func otpAttemptsKey(audience model.Audience, email string) string {
	return otpKey(audience, email) + ":attempts"
}

func hashCode(code string) []byte {
	sum := sha256.Sum256([]byte(code))
	return sum[:]
}

// Save stores the code digest under the audience+email key. Saving replaces
// any previous code and resets the attempt counter.
func (r *OTPRepository) Save(ctx context.Context, audience model.Audience, email, code string, ttl time.Duration) error {
	key := otpKey(audience, email)
	if err := r.redis.Set(ctx, key, hashCode(code), ttl).Err(); err != nil {
		return fmt.Errorf("failed to store otp: %w", err)
	}
	if err := r.redis.Del(ctx, otpAttemptsKey(audience, email)).Err(); err != nil {
		return fmt.Errorf("failed to reset otp attempts: %w", err)
	}
	return nil
}

// Consume verifies the code and deletes it on success. A missing, expired or
// mismatched code, or one probed too many times, all return ErrOTPInvalid.
func (r *OTPRepository) Consume(ctx context.Context, audience model.Audience, email, code string) error {
	key := otpKey(audience, email)
	attemptsKey := otpAttemptsKey(audience, email)

	stored, err := r.redis.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return model.ErrOTPInvalid
		}
		return fmt.Errorf("failed to read otp: %w", err)
	}

	attempts, err := r.redis.Incr(ctx, attemptsKey).Result()
	if err != nil {
		return fmt.Errorf("failed to count otp attempt: %w", err)
	}
	if attempts == 1 {
		// Attempts expire alongside the code they guard.
		if ttl, err := r.redis.TTL(ctx, key).Result(); err == nil && ttl > 0 {
			_ = r.redis.Expire(ctx, attemptsKey, ttl).Err()
		}
	}
	if attempts > otpMaxAttempts {
		_ = r.redis.Del(ctx, key, attemptsKey).Err()
		return model.ErrOTPInvalid
	}

	if subtle.ConstantTimeCompare(stored, hashCode(code)) != 1 {
		return model.ErrOTPInvalid
	}

	if err := r.redis.Del(ctx, key, attemptsKey).Err(); err != nil {
		return fmt.Errorf("failed to consume otp: %w", err)
	}
	return nil
}
