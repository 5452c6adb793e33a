package quota

import (
	"math"
	"sync"
	"time"

	"github.com/battlelens/battlelens/internal/models"
)

// Denial reasons reported in a Decision.
const (
	ReasonRateLimited = "rate_limited"
	ReasonDailyLimit  = "daily_limit"
)

// Decision is the outcome of an admission check.
type Decision struct {
	Allowed           bool
	Reason            string
	RetryAfterSeconds int
}

// Governor admits or rejects analysis requests before any upstream call.
// CheckAndReserve and Commit are split so the in-memory store can be swapped
// for a networked atomic counter without changing callers: admission reserves
// a daily slot, Commit makes it permanent after upstream success, Release
// hands it back on failure. Failed upstream calls therefore never consume
// daily quota, yet two concurrent requests can never both take the last slot.
type Governor interface {
	CheckAndReserve(clientID string) Decision
	Commit() models.UsageInfo
	Release()
	Snapshot() models.UsageInfo
}

// Config holds the quota policy constants.
type Config struct {
	Window       time.Duration // trailing per-client window
	MaxPerWindow int           // max requests per client inside the window
	DailyLimit   int           // global upstream calls per calendar day
}

// MemoryGovernor is the process-local Governor. Counters are best-effort:
// they reset on restart and are not shared across instances.
type MemoryGovernor struct {
	cfg Config

	mu           sync.Mutex
	clients      map[string][]time.Time
	dailyCount   int
	dailyPending int
	dailyDate    string

	now func() time.Time
}

// NewMemory creates a process-local governor.
func NewMemory(cfg Config) *MemoryGovernor {
	return &MemoryGovernor{
		cfg:     cfg,
		clients: make(map[string][]time.Time),
		now:     time.Now,
	}
}

// CheckAndReserve runs the per-client sliding-window check and the global
// daily check. On admission the client's timestamp is recorded immediately;
// the daily counter is left for Commit so failed upstream calls do not
// consume daily quota.
func (g *MemoryGovernor) CheckAndReserve(clientID string) Decision {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := g.now()
	recent := g.pruneLocked(clientID, now)

	if len(recent) >= g.cfg.MaxPerWindow {
		retry := recent[0].Add(g.cfg.Window).Sub(now)
		return Decision{
			Allowed:           false,
			Reason:            ReasonRateLimited,
			RetryAfterSeconds: int(math.Ceil(retry.Seconds())),
		}
	}

	g.rollDayLocked(now)
	if g.dailyCount+g.dailyPending >= g.cfg.DailyLimit {
		return Decision{Allowed: false, Reason: ReasonDailyLimit}
	}

	g.dailyPending++
	g.clients[clientID] = append(recent, now)
	return Decision{Allowed: true}
}

// Commit converts a reservation into a committed daily count after a
// successful upstream call and returns the resulting usage snapshot.
func (g *MemoryGovernor) Commit() models.UsageInfo {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.rollDayLocked(g.now())
	if g.dailyPending > 0 {
		g.dailyPending--
	}
	g.dailyCount++
	return g.usageLocked()
}

// Release hands a reserved daily slot back after a failed upstream call.
func (g *MemoryGovernor) Release() {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.dailyPending > 0 {
		g.dailyPending--
	}
}

// Snapshot returns the current usage counters without mutating them.
func (g *MemoryGovernor) Snapshot() models.UsageInfo {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.rollDayLocked(g.now())
	return g.usageLocked()
}

// pruneLocked drops timestamps that have left the trailing window. Caller
// must hold the mutex.
func (g *MemoryGovernor) pruneLocked(clientID string, now time.Time) []time.Time {
	cutoff := now.Add(-g.cfg.Window)
	recent := make([]time.Time, 0, len(g.clients[clientID]))
	for _, t := range g.clients[clientID] {
		if t.After(cutoff) {
			recent = append(recent, t)
		}
	}
	return recent
}

// rollDayLocked resets the daily counter when the calendar date changes.
// Caller must hold the mutex.
func (g *MemoryGovernor) rollDayLocked(now time.Time) {
	date := now.Format("2006-01-02")
	if date != g.dailyDate {
		g.dailyDate = date
		g.dailyCount = 0
	}
}

func (g *MemoryGovernor) usageLocked() models.UsageInfo {
	return models.UsageInfo{
		RequestsToday: g.dailyCount,
		DailyLimit:    g.cfg.DailyLimit,
		Remaining:     g.cfg.DailyLimit - g.dailyCount,
	}
}
