package notify

import (
	"context"
	"log"
	"time"

	"github.com/vishnu-krishna/pump-master/internal/model"
	"github.com/vishnu-krishna/pump-master/internal/store"
)

// PumpLister is the slice of the data-access facade the monitor needs.
type PumpLister interface {
	GetAll(ctx context.Context, opts store.ListOptions) ([]model.Pump, error)
}

// Monitor periodically sweeps pump statuses and dispatches an alert whenever
// a pump transitions into Warning or Error. The first sweep only records a
// baseline so a restart never replays alerts for pumps that were already
// degraded.
type Monitor struct {
	pumps    PumpLister
	pool     *WorkerPool
	interval time.Duration
	last     map[string]model.PumpStatus
}

// NewMonitor creates a monitor sweeping at the given interval.
func NewMonitor(pumps PumpLister, pool *WorkerPool, interval time.Duration) *Monitor {
	return &Monitor{
		pumps:    pumps,
		pool:     pool,
		interval: interval,
		last:     make(map[string]model.PumpStatus),
	}
}

// Run sweeps in a loop until ctx is cancelled.
func (m *Monitor) Run(ctx context.Context) {
	log.Println("Starting status monitor...")

	m.SweepOnce(ctx)

	timer := time.NewTimer(m.interval)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("Status monitor shutting down.")
			return
		case <-timer.C:
			m.SweepOnce(ctx)
			timer.Reset(m.interval)
		}
	}
}

// SweepOnce compares current statuses against the previous sweep and queues
// alerts for new degradations.
func (m *Monitor) SweepOnce(ctx context.Context) {
	pumps, err := m.pumps.GetAll(ctx, store.ListOptions{})
	if err != nil {
		log.Printf("monitor: fetching pumps: %v", err)
		return
	}

	baseline := len(m.last) == 0
	seen := make(map[string]model.PumpStatus, len(pumps))
	for _, p := range pumps {
		seen[p.ID] = p.Status
		prev, known := m.last[p.ID]
		if baseline || (known && prev == p.Status) {
			continue
		}
		if degraded(p.Status) {
			m.pool.Dispatch(Alert{
				PumpID:   p.ID,
				PumpName: p.Name,
				Status:   string(p.Status),
			})
		}
	}
	m.last = seen
}

func degraded(s model.PumpStatus) bool {
	return s == model.StatusWarning || s == model.StatusError
}
