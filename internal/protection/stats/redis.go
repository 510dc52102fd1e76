package stats

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"edgeguard/pkg/requestcontext"
)

const (
	keyPrefix     = "edgeguard:stats:"
	totalField    = "total"
	defaultTTL    = 24 * time.Hour
	bucketSpan    = time.Minute
	summaryWindow = 60
)

// RedisRecorder counts verdicts in per-minute Redis hashes. Each bucket
// expires after ttl, so the footprint is bounded by ttl/minute hashes.
type RedisRecorder struct {
	client redis.Cmdable
	ttl    time.Duration
}

// NewRedisRecorder wraps client. A zero ttl keeps buckets for a day.
func NewRedisRecorder(client redis.Cmdable, ttl time.Duration) (*RedisRecorder, error) {
	if client == nil {
		return nil, errors.New("redis client is required")
	}
	if ttl <= 0 {
		ttl = defaultTTL
	}
	return &RedisRecorder{client: client, ttl: ttl}, nil
}

func (r *RedisRecorder) Record(ctx context.Context, e Event) error {
	key := BucketKey(e.At)
	pipe := r.client.TxPipeline()
	pipe.HIncrBy(ctx, key, string(e.Verdict), 1)
	pipe.HIncrBy(ctx, key, totalField, 1)
	pipe.Expire(ctx, key, r.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("record verdict: %w", err)
	}
	return nil
}

// SummarySince folds the last hour of buckets ending at now.
func (r *RedisRecorder) SummarySince(ctx context.Context, now time.Time) (*Summary, error) {
	pipe := r.client.Pipeline()
	cmds := make([]*redis.MapStringStringCmd, 0, summaryWindow)
	for i := range summaryWindow {
		cmds = append(cmds, pipe.HGetAll(ctx, BucketKey(now.Add(-time.Duration(i)*bucketSpan))))
	}
	if _, err := pipe.Exec(ctx); err != nil && !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("read verdict buckets: %w", err)
	}

	summary := &Summary{ByVerdict: make(map[string]int64)}
	for _, cmd := range cmds {
		for field, raw := range cmd.Val() {
			n, err := strconv.ParseInt(raw, 10, 64)
			if err != nil {
				continue
			}
			if field == totalField {
				summary.Total += n
				continue
			}
			summary.ByVerdict[field] += n
		}
	}
	return summary, nil
}

// Summary reports the hour ending at the request time.
func (r *RedisRecorder) Summary(ctx context.Context) (*Summary, error) {
	return r.SummarySince(ctx, requestcontext.Now(ctx))
}

// BucketKey names the hash holding counts for the minute containing t.
func BucketKey(t time.Time) string {
	return keyPrefix + strconv.FormatInt(t.UTC().Truncate(bucketSpan).Unix(), 10)
}
