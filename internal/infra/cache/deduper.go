package cache

//go:generate mockgen -source=$GOFILE -destination=../../../tests/mock/cache/deduper.go -package=cachemock

import (
	"context"
	"errors"
	"time"

	"mechanic-booking/internal/pkg/config"
	"mechanic-booking/internal/pkg/errs"
	"mechanic-booking/internal/usecase/commands"

	"github.com/go-redis/redis/v8"
)

const (
	markerInFlight = "processing"
	markerDone     = "done"
)

// Commander is the subset of redis.Cmdable the deduper uses.
type Commander interface {
	SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.BoolCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Get(ctx context.Context, key string) *redis.StringCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

// RedisDeduper records webhook event ids in two steps: a "processing" marker
// that lapses after lease, then a "done" marker kept for ttl. A crash or a
// failed Release between the two therefore blocks redelivery for at most lease.
type RedisDeduper struct {
	client Commander
	prefix string
	lease  time.Duration
	ttl    time.Duration
}

func NewRedisDeduper(client Commander, prefix string, lease, ttl time.Duration) *RedisDeduper {
	return &RedisDeduper{client: client, prefix: prefix, lease: lease, ttl: ttl}
}

func (d *RedisDeduper) Claim(ctx context.Context, eventID string) (commands.ClaimState, error) {
	key := d.prefix + eventID
	ok, err := d.client.SetNX(ctx, key, markerInFlight, d.lease).Result()
	if err != nil {
		return "", errs.Wrap(err, "redis: claim event")
	}
	if ok {
		return commands.ClaimAcquired, nil
	}

	marker, err := d.client.Get(ctx, key).Result()
	switch {
	case errors.Is(err, redis.Nil):
		// lease lapsed between the two calls; the gateway's next retry claims it
		return commands.ClaimInFlight, nil
	case err != nil:
		return "", errs.Wrap(err, "redis: read event marker")
	case marker == markerDone:
		return commands.ClaimDone, nil
	default:
		return commands.ClaimInFlight, nil
	}
}

func (d *RedisDeduper) Complete(ctx context.Context, eventID string) error {
	if err := d.client.Set(ctx, d.prefix+eventID, markerDone, d.ttl).Err(); err != nil {
		return errs.Wrap(err, "redis: complete event")
	}
	return nil
}

func (d *RedisDeduper) Release(ctx context.Context, eventID string) error {
	if err := d.client.Del(ctx, d.prefix+eventID).Err(); err != nil {
		return errs.Wrap(err, "redis: release event")
	}
	return nil
}

// NoopDeduper claims every event. Used when Redis is not configured; the
// ledger's idempotent transitions still make replays harmless.
type NoopDeduper struct{}

func (NoopDeduper) Claim(context.Context, string) (commands.ClaimState, error) {
	return commands.ClaimAcquired, nil
}
func (NoopDeduper) Complete(context.Context, string) error { return nil }
func (NoopDeduper) Release(context.Context, string) error  { return nil }

// NewClient returns nil when no address is configured.
func NewClient(cfg config.RedisConfig) *redis.Client {
	if cfg.Addr == "" {
		return nil
	}
	return redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
}
