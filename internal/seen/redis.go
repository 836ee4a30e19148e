package seen

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// RedisOptions configure a RedisTracker.
type RedisOptions struct {
	Addr     string
	Password string
	DB       int
	// KeyPrefix is joined with a per-run id so a restarted process starts empty.
	KeyPrefix string
	// TTL bounds the lifetime of the whole set if the process dies without cleanup.
	TTL time.Duration
}

// RedisTracker stores marks in a sorted set scored by mark time (unix millis).
type RedisTracker struct {
	client *redis.Client
	key    string
	ttl    time.Duration
}

// NewRedisTracker connects and pings the server.
func NewRedisTracker(ctx context.Context, opts RedisOptions) (*RedisTracker, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis %s: %w", opts.Addr, err)
	}
	return newRedisTracker(client, opts), nil
}

func newRedisTracker(client *redis.Client, opts RedisOptions) *RedisTracker {
	prefix := opts.KeyPrefix
	if prefix == "" {
		prefix = "stakewatch:seen"
	}
	return &RedisTracker{
		client: client,
		key:    runKey(prefix, uuid.NewString()),
		ttl:    opts.TTL,
	}
}

func runKey(prefix, runID string) string {
	return prefix + ":" + runID
}

// Key returns the sorted-set key used for this run.
func (r *RedisTracker) Key() string { return r.key }

func (r *RedisTracker) HasSeen(ctx context.Context, iid string) (bool, error) {
	_, err := r.client.ZScore(ctx, r.key, iid).Result()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("redis zscore: %w", err)
	}
	return true, nil
}

func (r *RedisTracker) MarkSeen(ctx context.Context, iid string, at time.Time) error {
	pipe := r.client.TxPipeline()
	pipe.ZAdd(ctx, r.key, redis.Z{Score: float64(at.UnixMilli()), Member: iid})
	if r.ttl > 0 {
		pipe.Expire(ctx, r.key, r.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis zadd: %w", err)
	}
	return nil
}

func (r *RedisTracker) EvictOlderThan(ctx context.Context, cutoff time.Time) error {
	// "(" makes the bound exclusive: entries marked exactly at cutoff survive.
	bound := "(" + strconv.FormatInt(cutoff.UnixMilli(), 10)
	if err := r.client.ZRemRangeByScore(ctx, r.key, "-inf", bound).Err(); err != nil {
		return fmt.Errorf("redis zremrangebyscore: %w", err)
	}
	return nil
}

func (r *RedisTracker) Len(ctx context.Context) (int, error) {
	n, err := r.client.ZCard(ctx, r.key).Result()
	if err != nil {
		return 0, fmt.Errorf("redis zcard: %w", err)
	}
	return int(n), nil
}

// Touch renews the key's TTL so a run of failed cycles cannot expire marks
// that the next successful cycle still needs.
func (r *RedisTracker) Touch(ctx context.Context) error {
	if r.ttl <= 0 {
		return nil
	}
	if err := r.client.Expire(ctx, r.key, r.ttl).Err(); err != nil {
		return fmt.Errorf("redis expire: %w", err)
	}
	return nil
}

// Close removes this run's key and closes the connection.
func (r *RedisTracker) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	delErr := r.client.Del(ctx, r.key).Err()
	if err := r.client.Close(); err != nil {
		return err
	}
	return delErr
}

var _ Tracker = (*RedisTracker)(nil)
