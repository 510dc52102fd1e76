package window

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"edgeguard/internal/protection/models"
	"edgeguard/pkg/testutil"
)

// =============================================================================
// Window Store Test Suite
// =============================================================================
// Justification: The fixed window is the quota every client sees in the
// X-RateLimit headers. Counts must not drift under concurrency and a closed
// window must reopen at full capacity.

type WindowStoreSuite struct {
	suite.Suite
	clock *testutil.Clock
	store *InMemoryWindowStore
}

func TestWindowStoreSuite(t *testing.T) {
	suite.Run(t, new(WindowStoreSuite))
}

func (s *WindowStoreSuite) SetupTest() {
	s.clock = testutil.NewClock(time.Time{})
	s.store = New()
}

func (s *WindowStoreSuite) TestConsume() {
	const client = models.ClientKey("203.0.113.5")

	s.Run("capacity 3 admits three then refuses", func() {
		var remaining []int
		for range 3 {
			w, ok := s.store.Consume(s.clock.Context(), client.String(), client, 3, time.Minute, 1)
			s.True(ok)
			remaining = append(remaining, w.Remaining())
		}
		s.Equal([]int{2, 1, 0}, remaining)

		w, ok := s.store.Consume(s.clock.Context(), client.String(), client, 3, time.Minute, 1)
		s.False(ok)
		s.Equal(0, w.Remaining())
		s.Equal(1, w.Overflow)
		s.Equal(testutil.Epoch.Add(time.Minute), w.ResetAt)
	})

	s.Run("refusals keep the original reset time", func() {
		s.clock.Advance(20 * time.Second)
		w, ok := s.store.Consume(s.clock.Context(), client.String(), client, 3, time.Minute, 1)
		s.False(ok)
		s.Equal(testutil.Epoch.Add(time.Minute), w.ResetAt)
		s.Equal(5, w.Attempted())
	})

	s.Run("window reopens at full capacity after reset time", func() {
		s.clock.Advance(41 * time.Second)
		w, ok := s.store.Consume(s.clock.Context(), client.String(), client, 3, time.Minute, 1)
		s.True(ok)
		s.Equal(2, w.Remaining())
		s.Equal(0, w.Overflow)
		s.Equal(s.clock.Now().Add(time.Minute), w.ResetAt)
	})
}

func (s *WindowStoreSuite) TestMultiPointConsume() {
	const client = models.ClientKey("198.51.100.7")

	w, ok := s.store.Consume(s.clock.Context(), "k", client, 5, time.Minute, 4)
	s.True(ok)
	s.Equal(1, w.Remaining())

	w, ok = s.store.Consume(s.clock.Context(), "k", client, 5, time.Minute, 2)
	s.False(ok, "points that do not fit are refused whole")
	s.Equal(1, w.Remaining())
	s.Equal(2, w.Overflow)
}

func (s *WindowStoreSuite) TestReset() {
	const client = models.ClientKey("192.0.2.1")
	for range 3 {
		s.store.Consume(s.clock.Context(), "k", client, 3, time.Minute, 1)
	}

	s.True(s.store.Reset(s.clock.Context(), "k"))
	s.False(s.store.Reset(s.clock.Context(), "k"))

	_, ok := s.store.Get(s.clock.Context(), "k")
	s.False(ok)

	w, ok := s.store.Consume(s.clock.Context(), "k", client, 3, time.Minute, 1)
	s.True(ok)
	s.Equal(2, w.Remaining())
}

func (s *WindowStoreSuite) TestConcurrentConsumeNeverOveradmits() {
	const (
		client   = models.ClientKey("192.0.2.99")
		limit    = 50
		requests = 400
	)
	ctx := s.clock.Context()

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		allowed int
	)
	for range requests {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, ok := s.store.Consume(ctx, "k", client, limit, time.Minute, 1); ok {
				mu.Lock()
				allowed++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	s.Equal(limit, allowed)
	w, ok := s.store.Get(ctx, "k")
	s.Require().True(ok)
	s.Equal(limit, w.Consumed)
	s.Equal(requests-limit, w.Overflow)
}

func (s *WindowStoreSuite) TestSweepRemovesClosedWindows() {
	s.store.Consume(s.clock.Context(), "a", "a", 3, time.Second, 1)
	s.store.Consume(s.clock.Context(), "b", "b", 3, time.Hour, 1)
	s.clock.Advance(2 * time.Second)

	s.Equal(1, s.store.Sweep(s.clock.Context(), 0))
	s.Equal(1, s.store.Len())
}
