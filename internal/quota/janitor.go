package quota

import (
	"fmt"
	"sync"

	"github.com/robfig/cron/v3"

	"github.com/battlelens/battlelens/internal/logger"
)

// Janitor periodically evicts per-client buckets whose last request has left
// the window. Admission checks still prune lazily; the sweep only reclaims
// memory for clients that never come back, so it plays no part in
// admission decisions.
type Janitor struct {
	governor *MemoryGovernor
	cron     *cron.Cron
	running  bool
	mu       sync.Mutex
}

// NewJanitor creates a janitor for a memory governor.
func NewJanitor(governor *MemoryGovernor) *Janitor {
	return &Janitor{
		governor: governor,
		cron:     cron.New(),
	}
}

// Start schedules the sweep.
func (j *Janitor) Start() error {
	j.mu.Lock()
	defer j.mu.Unlock()

	if j.running {
		return fmt.Errorf("janitor already running")
	}

	if _, err := j.cron.AddFunc("@every 10m", j.sweep); err != nil {
		return fmt.Errorf("failed to add cron job: %w", err)
	}

	j.cron.Start()
	j.running = true

	logger.Info("Quota janitor started")
	return nil
}

// Stop stops the sweep.
func (j *Janitor) Stop() {
	j.mu.Lock()
	defer j.mu.Unlock()

	if !j.running {
		return
	}

	j.cron.Stop()
	j.running = false

	logger.Info("Quota janitor stopped")
}

func (j *Janitor) sweep() {
	g := j.governor

	g.mu.Lock()
	defer g.mu.Unlock()

	now := g.now()
	evicted := 0
	for clientID, stamps := range g.clients {
		if len(stamps) == 0 || !stamps[len(stamps)-1].After(now.Add(-g.cfg.Window)) {
			delete(g.clients, clientID)
			evicted++
		}
	}

	if evicted > 0 {
		logger.Debug("Evicted %d idle rate-limit buckets", evicted)
	}
}
