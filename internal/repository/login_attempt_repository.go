package repository

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// LoginAttemptRepository counts consecutive failed logins per email.
type LoginAttemptRepository interface {
	Failures(ctx context.Context, email string) (int64, error)
	// RecordFailure increments the counter and returns the new value. The
	// counter expires window after the first failure.
	RecordFailure(ctx context.Context, email string, window time.Duration) (int64, error)
	Reset(ctx context.Context, email string) error
}

const loginAttemptPrefix = "crm:login_attempts:"

type redisLoginAttemptRepository struct {
	client *redis.Client
}

// NewLoginAttemptRepository returns a Redis-backed counter. A nil client
// yields a repository that never throttles.
func NewLoginAttemptRepository(client *redis.Client) LoginAttemptRepository {
	if client == nil {
		return noopLoginAttempts{}
	}
	return &redisLoginAttemptRepository{client: client}
}

func (r *redisLoginAttemptRepository) Failures(ctx context.Context, email string) (int64, error) {
	count, err := r.client.Get(ctx, loginAttemptKey(email)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return count, err
}

func (r *redisLoginAttemptRepository) RecordFailure(ctx context.Context, email string, window time.Duration) (int64, error) {
	key := loginAttemptKey(email)
	var incr *redis.IntCmd
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		incr = pipe.Incr(ctx, key)
		pipe.ExpireNX(ctx, key, window)
		return nil
	})
	if err != nil {
		return 0, err
	}
	return incr.Val(), nil
}

func (r *redisLoginAttemptRepository) Reset(ctx context.Context, email string) error {
	return r.client.Del(ctx, loginAttemptKey(email)).Err()
}

func loginAttemptKey(email string) string {
	return loginAttemptPrefix + strings.ToLower(strings.TrimSpace(email))
}

type noopLoginAttempts struct{}

func (noopLoginAttempts) Failures(context.Context, string) (int64, error) { return 0, nil }

func (noopLoginAttempts) RecordFailure(context.Context, string, time.Duration) (int64, error) {
	return 0, nil
}

func (noopLoginAttempts) Reset(context.Context, string) error { return nil }
