// Package pump is the data access facade every handler goes through. It is
// pinned to one backing store at composition time — the local persistent
// store in mock mode, the remote API adapter otherwise — and callers cannot
// tell which one answered.
package pump

import (
	"context"
	"time"

	"github.com/vishnu-krishna/pump-master/internal/model"
	"github.com/vishnu-krishna/pump-master/internal/store"
)

// Delays is the artificial latency applied before delegating, emulating
// network round trips in mock mode so the UI's loading states stay honest.
// The zero value disables the emulation entirely.
type Delays struct {
	GetAll  time.Duration
	GetByID time.Duration
	Create  time.Duration
	Update  time.Duration
	History time.Duration
}

// MockDelays are the delays the dashboard has always used in mock mode.
var MockDelays = Delays{
	GetAll:  300 * time.Millisecond,
	GetByID: 200 * time.Millisecond,
	Create:  400 * time.Millisecond,
	Update:  500 * time.Millisecond,
	History: 300 * time.Millisecond,
}

// Service is the facade. Stateless beyond the one-time store selection.
type Service struct {
	store  store.Store
	delays Delays
}

// New creates a facade over the chosen backing store.
func New(s store.Store, delays Delays) *Service {
	return &Service{store: s, delays: delays}
}

// wait sleeps for the configured artificial delay, honoring cancellation.
func (s *Service) wait(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// GetAll returns a bare ordered sequence of pumps regardless of whether the
// backing store produced a paginated envelope.
func (s *Service) GetAll(ctx context.Context, opts store.ListOptions) ([]model.Pump, error) {
	if err := s.wait(ctx, s.delays.GetAll); err != nil {
		return nil, err
	}
	result, err := s.store.GetAll(ctx, opts)
	if err != nil {
		return nil, err
	}
	return result.Pumps, nil
}

// GetByID returns the record, or nil when no record matches.
func (s *Service) GetByID(ctx context.Context, id string) (*model.Pump, error) {
	if err := s.wait(ctx, s.delays.GetByID); err != nil {
		return nil, err
	}
	return s.store.GetByID(ctx, id)
}

// GetByArea lists the pumps of one area.
func (s *Service) GetByArea(ctx context.Context, area string) ([]model.Pump, error) {
	if err := s.wait(ctx, s.delays.GetAll); err != nil {
		return nil, err
	}
	return s.store.GetByArea(ctx, area)
}

// Create stores a new pump built from the form.
func (s *Service) Create(ctx context.Context, form model.PumpFormData) (*model.Pump, error) {
	if err := s.wait(ctx, s.delays.Create); err != nil {
		return nil, err
	}
	return s.store.Create(ctx, form)
}

// Update applies a partial edit; nil when no record matches.
func (s *Service) Update(ctx context.Context, id string, upd model.PumpUpdate) (*model.Pump, error) {
	if err := s.wait(ctx, s.delays.Update); err != nil {
		return nil, err
	}
	return s.store.Update(ctx, id, upd)
}

// SetStatus applies a manual status override; nil when no record matches.
func (s *Service) SetStatus(ctx context.Context, id string, status model.PumpStatus) (*model.Pump, error) {
	if err := s.wait(ctx, s.delays.Update); err != nil {
		return nil, err
	}
	return s.store.SetStatus(ctx, id, status)
}

// Delete removes a pump. No dashboard page calls this.
func (s *Service) Delete(ctx context.Context, id string) error {
	return s.store.Delete(ctx, id)
}

// Statistics returns the aggregate view of the collection.
func (s *Service) Statistics(ctx context.Context) (*model.Statistics, error) {
	if err := s.wait(ctx, s.delays.GetAll); err != nil {
		return nil, err
	}
	return s.store.Statistics(ctx)
}

// PressureHistory returns the pressure series for the trailing window,
// defaulting to 24 hours. The series is simulated in mock mode; callers
// must tolerate non-reproducible values.
func (s *Service) PressureHistory(ctx context.Context, id string, hours int) ([]model.PressureSample, error) {
	if hours <= 0 {
		hours = 24
	}
	if err := s.wait(ctx, s.delays.History); err != nil {
		return nil, err
	}
	return s.store.PressureHistory(ctx, id, hours)
}

// Export renders the collection as a downloadable document.
func (s *Service) Export(ctx context.Context, format store.ExportFormat) (*store.ExportResult, error) {
	return s.store.Export(ctx, format)
}

// ResetToDemo restores the seed dataset where the backing store supports it.
func (s *Service) ResetToDemo(ctx context.Context) error {
	return s.store.ResetToDemo(ctx)
}
