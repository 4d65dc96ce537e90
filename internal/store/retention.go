package store

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// Pruner is any store with an age-based sweep.
type Pruner interface {
	PruneAged(now time.Time) int
}

// Janitor runs the retention sweeps of its registered stores on a fixed
// interval, independent of request traffic. Stopping it never loses stored
// data; it only stops future sweeps.
type Janitor struct {
	interval time.Duration
	cron     *cron.Cron
	stores   map[string]Pruner
}

// NewJanitor creates a janitor sweeping at the given interval. A
// non-positive interval disables sweeping entirely.
func NewJanitor(interval time.Duration) *Janitor {
	return &Janitor{
		interval: interval,
		cron:     cron.New(),
		stores:   make(map[string]Pruner),
	}
}

// Register adds a named store to the sweep set. Must be called before
// Start.
func (j *Janitor) Register(name string, p Pruner) {
	j.stores[name] = p
}

// Start schedules the sweep entries and starts the ticker.
func (j *Janitor) Start() error {
	if j.interval <= 0 {
		return nil
	}
	spec := fmt.Sprintf("@every %s", j.interval)
	for name, p := range j.stores {
		name, p := name, p
		if _, err := j.cron.AddFunc(spec, func() {
			if removed := p.PruneAged(time.Now()); removed > 0 {
				slog.Info("retention sweep", "store", name, "removed", removed)
			}
		}); err != nil {
			return fmt.Errorf("schedule sweep for %s: %w", name, err)
		}
	}
	j.cron.Start()
	return nil
}

// Stop cancels future sweeps and waits for a running one to finish.
func (j *Janitor) Stop() {
	ctx := j.cron.Stop()
	<-ctx.Done()
}
