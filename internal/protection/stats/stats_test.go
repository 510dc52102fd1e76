package stats

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"edgeguard/internal/protection/models"
	"edgeguard/pkg/testutil"
)

func TestMemoryRecorder(t *testing.T) {
	rec := NewMemoryRecorder()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := range 100 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			verdict := models.VerdictAdmit
			if i%4 == 0 {
				verdict = models.VerdictRateLimited
			}
			assert.NoError(t, rec.Record(ctx, Event{Client: "203.0.113.1", Verdict: verdict}))
		}()
	}
	wg.Wait()

	summary, err := rec.Summary(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(100), summary.Total)
	assert.Equal(t, int64(75), summary.ByVerdict["admit"])
	assert.Equal(t, int64(25), summary.ByVerdict["rate_limited"])
}

func TestMemoryRecorderSummaryIsACopy(t *testing.T) {
	rec := NewMemoryRecorder()
	require.NoError(t, rec.Record(context.Background(), Event{Verdict: models.VerdictBlocked}))

	summary, err := rec.Summary(context.Background())
	require.NoError(t, err)
	summary.ByVerdict["blocked"] = 99

	again, err := rec.Summary(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), again.ByVerdict["blocked"])
}

func TestNewRedisRecorderRequiresClient(t *testing.T) {
	_, err := NewRedisRecorder(nil, time.Hour)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "redis client is required")
}

func TestBucketKey(t *testing.T) {
	at := testutil.Epoch.Add(42 * time.Second)
	assert.Equal(t, BucketKey(testutil.Epoch), BucketKey(at), "same minute shares a bucket")
	assert.NotEqual(t, BucketKey(at), BucketKey(at.Add(time.Minute)))
	assert.Equal(t, "edgeguard:stats:1740830400", BucketKey(testutil.Epoch))
}
