// Package revocation tracks refresh-token ids that have already been spent.
package revocation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Ledger records spent refresh-token ids. MarkUsed reports whether this call
// was the first to spend the id.
type Ledger interface {
	MarkUsed(ctx context.Context, jti string, expiresAt time.Time) (bool, error)
}

// Noop never remembers anything: every refresh token stays usable until it
// expires.
type Noop struct{}

func (Noop) MarkUsed(context.Context, string, time.Time) (bool, error) { return true, nil }

const keyPrefix = "shelfy:refresh:used:"

type RedisLedger struct {
	Client *redis.Client
	now    func() time.Time
}

func NewRedisLedger(client *redis.Client) *RedisLedger {
	return &RedisLedger{Client: client, now: time.Now}
}

type RedisOptions struct {
	Addr     string
	Password string
	DB       int
}

// Dial connects and pings Redis.
func Dial(ctx context.Context, opts RedisOptions) (*RedisLedger, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return NewRedisLedger(client), nil
}

func (l *RedisLedger) MarkUsed(ctx context.Context, jti string, expiresAt time.Time) (bool, error) {
	if jti == "" {
		return false, errors.New("revocation: empty token id")
	}
	ttl := expiresAt.Sub(l.now())
	if ttl <= 0 {
		// already expired; token validation rejects it anyway
		return false, nil
	}
	ok, err := l.Client.SetNX(ctx, keyPrefix+jti, 1, ttl).Result()
	if err != nil {
		return false, fmt.Errorf("redis setnx: %w", err)
	}
	return ok, nil
}

func (l *RedisLedger) Ping(ctx context.Context) error {
	if l == nil || l.Client == nil {
		return errors.New("redis client not configured")
	}
	return l.Client.Ping(ctx).Err()
}

func (l *RedisLedger) Close() error {
	if l == nil || l.Client == nil {
		return nil
	}
	return l.Client.Close()
}
