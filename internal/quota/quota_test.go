package quota

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestGovernor(cfg Config) (*MemoryGovernor, *time.Time) {
	g := NewMemory(cfg)
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	clock := &now
	g.now = func() time.Time { return *clock }
	return g, clock
}

func TestCheckAndReserve(t *testing.T) {
	t.Run("denies the excess request within the window", func(t *testing.T) {
		g, _ := newTestGovernor(Config{Window: time.Minute, MaxPerWindow: 3, DailyLimit: 50})

		for i := 0; i < 3; i++ {
			assert.True(t, g.CheckAndReserve("client-a").Allowed)
		}

		decision := g.CheckAndReserve("client-a")
		assert.False(t, decision.Allowed)
		assert.Equal(t, ReasonRateLimited, decision.Reason)
		assert.Equal(t, 60, decision.RetryAfterSeconds)
	})

	t.Run("admits again once the oldest timestamp exits the window", func(t *testing.T) {
		g, clock := newTestGovernor(Config{Window: time.Minute, MaxPerWindow: 2, DailyLimit: 50})

		assert.True(t, g.CheckAndReserve("client-a").Allowed)
		*clock = clock.Add(30 * time.Second)
		assert.True(t, g.CheckAndReserve("client-a").Allowed)

		denied := g.CheckAndReserve("client-a")
		require.False(t, denied.Allowed)
		assert.Equal(t, 30, denied.RetryAfterSeconds)

		// First timestamp leaves the window after 60s.
		*clock = clock.Add(31 * time.Second)
		assert.True(t, g.CheckAndReserve("client-a").Allowed)
	})

	t.Run("tracks clients independently", func(t *testing.T) {
		g, _ := newTestGovernor(Config{Window: time.Minute, MaxPerWindow: 1, DailyLimit: 50})

		assert.True(t, g.CheckAndReserve("client-a").Allowed)
		assert.False(t, g.CheckAndReserve("client-a").Allowed)
		assert.True(t, g.CheckAndReserve("client-b").Allowed)
	})
}

func TestDailyLimit(t *testing.T) {
	t.Run("denies once committed calls reach the daily maximum", func(t *testing.T) {
		g, _ := newTestGovernor(Config{Window: time.Minute, MaxPerWindow: 100, DailyLimit: 3})

		for i := 0; i < 3; i++ {
			require.True(t, g.CheckAndReserve("client-a").Allowed)
			g.Commit()
		}

		decision := g.CheckAndReserve("client-a")
		assert.False(t, decision.Allowed)
		assert.Equal(t, ReasonDailyLimit, decision.Reason)
	})

	t.Run("resets exactly once on date change", func(t *testing.T) {
		g, clock := newTestGovernor(Config{Window: time.Minute, MaxPerWindow: 100, DailyLimit: 2})

		for i := 0; i < 2; i++ {
			require.True(t, g.CheckAndReserve("client-a").Allowed)
			g.Commit()
		}
		assert.False(t, g.CheckAndReserve("client-a").Allowed)

		*clock = clock.Add(24 * time.Hour)
		assert.True(t, g.CheckAndReserve("client-a").Allowed)

		usage := g.Snapshot()
		assert.Equal(t, 0, usage.RequestsToday)
		assert.Equal(t, 2, usage.Remaining)
	})

	t.Run("released reservations do not consume quota", func(t *testing.T) {
		g, _ := newTestGovernor(Config{Window: time.Minute, MaxPerWindow: 100, DailyLimit: 1})

		require.True(t, g.CheckAndReserve("client-a").Allowed)
		// While the reservation is pending the last slot is held.
		assert.False(t, g.CheckAndReserve("client-b").Allowed)

		g.Release()
		assert.Equal(t, 0, g.Snapshot().RequestsToday)
		assert.True(t, g.CheckAndReserve("client-b").Allowed)
	})

	t.Run("commit moves the counter and snapshot reflects it", func(t *testing.T) {
		g, _ := newTestGovernor(Config{Window: time.Minute, MaxPerWindow: 100, DailyLimit: 50})

		require.True(t, g.CheckAndReserve("client-a").Allowed)
		assert.Equal(t, 0, g.Snapshot().RequestsToday, "reserve alone must not count")

		usage := g.Commit()
		assert.Equal(t, 1, usage.RequestsToday)
		assert.Equal(t, 50, usage.DailyLimit)
		assert.Equal(t, 49, usage.Remaining)
	})
}

func TestConcurrentAdmission(t *testing.T) {
	t.Run("same client never exceeds the window maximum", func(t *testing.T) {
		g := NewMemory(Config{Window: time.Minute, MaxPerWindow: 5, DailyLimit: 1000})

		var wg sync.WaitGroup
		var mu sync.Mutex
		admitted := 0
		for i := 0; i < 50; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				if g.CheckAndReserve("client-a").Allowed {
					mu.Lock()
					admitted++
					mu.Unlock()
				}
			}()
		}
		wg.Wait()

		assert.Equal(t, 5, admitted)
	})

	t.Run("daily budget never oversubscribes across clients", func(t *testing.T) {
		g := NewMemory(Config{Window: time.Minute, MaxPerWindow: 1, DailyLimit: 4})

		var wg sync.WaitGroup
		var mu sync.Mutex
		admitted := 0
		for i := 0; i < 40; i++ {
			wg.Add(1)
			go func(n int) {
				defer wg.Done()
				clientID := string(rune('a' + n%26))
				if g.CheckAndReserve(clientID).Allowed {
					mu.Lock()
					admitted++
					mu.Unlock()
					g.Commit()
				}
			}(i)
		}
		wg.Wait()

		assert.LessOrEqual(t, admitted, 4)
	})
}
