package store

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"math"
	"math/rand"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/vishnu-krishna/pump-master/internal/kv"
	"github.com/vishnu-krishna/pump-master/internal/model"
)

const (
	collectionKey = "pumps"
	versionKey    = "pumps_version"

	// schemaVersion marks the shape of the seed dataset. Bumping it forces
	// already-initialized storage to reseed on next use, which is the only
	// migration mechanism this store has.
	schemaVersion = "2.0"
)

// Local is the persistent backing store. All state lives under two keys of
// the injected kv.Storage as a JSON document, the whole collection is
// rewritten on every mutation, and a mutex serializes mutations so two
// racing creates can never mint the same id.
type Local struct {
	storage kv.Storage

	mu          sync.Mutex
	initialized bool

	// Test seams; NewLocal wires the real clock and a seeded source.
	now func() time.Time
	rng *rand.Rand
}

// NewLocal creates a Local store over the given storage.
func NewLocal(storage kv.Storage) *Local {
	return &Local{
		storage: storage,
		now:     func() time.Time { return time.Now().UTC() },
		rng:     rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Initialize seeds the collection when the schema-version marker is missing,
// stale, or the collection key is absent. Calling it again with no version
// change leaves the stored collection alone.
func (l *Local) Initialize() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.ensureInitialized()
}

// ensureInitialized runs the version check once per process plus whenever a
// caller reaches the store before Initialize. Caller holds l.mu.
func (l *Local) ensureInitialized() error {
	if l.initialized {
		return nil
	}

	version, _, err := l.storage.Get(versionKey)
	if err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	_, hasCollection, err := l.storage.Get(collectionKey)
	if err != nil {
		return fmt.Errorf("read pump collection: %w", err)
	}

	if version != schemaVersion || !hasCollection {
		if err := l.writePumps(DemoPumps(l.now())); err != nil {
			return err
		}
		if err := l.storage.Set(versionKey, schemaVersion); err != nil {
			return fmt.Errorf("write schema version: %w", err)
		}
		log.Printf("store: seeded %d demo pumps (schema %s)", len(demoSeeds), schemaVersion)
	}

	l.initialized = true
	return nil
}

// loadPumps parses the stored collection. A corrupt document is logged and
// treated as an empty collection rather than propagated.
func (l *Local) loadPumps() ([]model.Pump, error) {
	if err := l.ensureInitialized(); err != nil {
		return nil, err
	}

	raw, ok, err := l.storage.Get(collectionKey)
	if err != nil {
		return nil, fmt.Errorf("read pump collection: %w", err)
	}
	if !ok || raw == "" {
		return []model.Pump{}, nil
	}

	var pumps []model.Pump
	if err := json.Unmarshal([]byte(raw), &pumps); err != nil {
		log.Printf("store: pump collection is not valid JSON, treating as empty: %v", err)
		return []model.Pump{}, nil
	}
	return pumps, nil
}

func (l *Local) writePumps(pumps []model.Pump) error {
	data, err := json.Marshal(pumps)
	if err != nil {
		return fmt.Errorf("encode pump collection: %w", err)
	}
	if err := l.storage.Set(collectionKey, string(data)); err != nil {
		return fmt.Errorf("write pump collection: %w", err)
	}
	return nil
}

// GetAll returns the stored collection in storage order, narrowed by opts.
func (l *Local) GetAll(_ context.Context, opts ListOptions) (*ListResult, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	pumps, err := l.loadPumps()
	if err != nil {
		return nil, err
	}

	filtered := filterPumps(pumps, opts)
	result := &ListResult{
		Pumps:      filtered,
		TotalCount: len(filtered),
		Page:       1,
		PageSize:   len(filtered),
	}

	if opts.PageSize > 0 {
		page := opts.Page
		if page < 1 {
			page = 1
		}
		start := (page - 1) * opts.PageSize
		if start > len(filtered) {
			start = len(filtered)
		}
		end := start + opts.PageSize
		if end > len(filtered) {
			end = len(filtered)
		}
		result.Pumps = filtered[start:end]
		result.Page = page
		result.PageSize = opts.PageSize
	}
	return result, nil
}

func filterPumps(pumps []model.Pump, opts ListOptions) []model.Pump {
	out := make([]model.Pump, 0, len(pumps))
	for _, p := range pumps {
		if opts.Type != "" && string(p.Type) != opts.Type {
			continue
		}
		if opts.Status != "" && string(p.Status) != opts.Status {
			continue
		}
		if opts.Area != "" && p.Area != opts.Area {
			continue
		}
		if opts.Search != "" {
			needle := strings.ToLower(opts.Search)
			if !strings.Contains(strings.ToLower(p.Name), needle) &&
				!strings.Contains(strings.ToLower(p.Area), needle) {
				continue
			}
		}
		out = append(out, p)
	}
	return out
}

// GetByID returns the matching record, or nil when no record matches.
func (l *Local) GetByID(_ context.Context, id string) (*model.Pump, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	pumps, err := l.loadPumps()
	if err != nil {
		return nil, err
	}
	for i := range pumps {
		if pumps[i].ID == id {
			p := pumps[i]
			return &p, nil
		}
	}
	return nil, nil
}

// GetByArea returns every pump whose area label matches exactly.
func (l *Local) GetByArea(_ context.Context, area string) ([]model.Pump, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	pumps, err := l.loadPumps()
	if err != nil {
		return nil, err
	}
	return filterPumps(pumps, ListOptions{Area: area}), nil
}

// Create assigns the next id (one past the highest numeric id already in
// the collection), fills in the store-managed fields and persists the whole
// collection.
func (l *Local) Create(_ context.Context, form model.PumpFormData) (*model.Pump, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	pumps, err := l.loadPumps()
	if err != nil {
		return nil, err
	}

	maxID := 0
	for _, p := range pumps {
		if n, err := strconv.Atoi(p.ID); err == nil && n > maxID {
			maxID = n
		}
	}

	pump := model.Pump{
		ID:       strconv.Itoa(maxID + 1),
		Name:     form.Name,
		Type:     form.Type,
		Area:     form.Area,
		Location: model.Location{Latitude: form.Latitude, Longitude: form.Longitude},
		FlowRate: form.FlowRate,
		Offset:   form.Offset,
		Pressure: model.Pressure{
			Current: math.Floor(l.rng.Float64()*(form.MaxPressure-form.MinPressure) + form.MinPressure),
			Min:     form.MinPressure,
			Max:     form.MaxPressure,
		},
		Status:      model.StatusOperational,
		LastUpdated: l.now(),
	}

	pumps = append(pumps, pump)
	if err := l.writePumps(pumps); err != nil {
		return nil, err
	}
	return &pump, nil
}

// Update overwrites exactly the fields present in upd. When either pressure
// bound moves, Current is re-clamped into the new [Min, Max]. Returns nil
// when no record matches.
func (l *Local) Update(_ context.Context, id string, upd model.PumpUpdate) (*model.Pump, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	pumps, err := l.loadPumps()
	if err != nil {
		return nil, err
	}

	for i := range pumps {
		if pumps[i].ID != id {
			continue
		}
		p := &pumps[i]

		if upd.Name != nil {
			p.Name = *upd.Name
		}
		if upd.Type != nil {
			p.Type = *upd.Type
		}
		if upd.Area != nil {
			p.Area = *upd.Area
		}
		if upd.Latitude != nil {
			p.Location.Latitude = *upd.Latitude
		}
		if upd.Longitude != nil {
			p.Location.Longitude = *upd.Longitude
		}
		if upd.FlowRate != nil {
			p.FlowRate = *upd.FlowRate
		}
		if upd.Offset != nil {
			p.Offset = *upd.Offset
		}

		if upd.MinPressure != nil || upd.MaxPressure != nil {
			// Merge the edit with the stored half before checking
			// ordering; a single-bound edit can invalidate the pair.
			newMin := p.Pressure.Min
			newMax := p.Pressure.Max
			if upd.MinPressure != nil {
				newMin = *upd.MinPressure
			}
			if upd.MaxPressure != nil {
				newMax = *upd.MaxPressure
			}
			if newMin >= newMax {
				return nil, fmt.Errorf("%w: min %v, max %v", ErrInvalidBounds, newMin, newMax)
			}
			p.Pressure.Min = newMin
			p.Pressure.Max = newMax
			p.Pressure.Current = math.Max(p.Pressure.Min, math.Min(p.Pressure.Max, p.Pressure.Current))
		}

		p.LastUpdated = l.now()

		if err := l.writePumps(pumps); err != nil {
			return nil, err
		}
		out := *p
		return &out, nil
	}
	return nil, nil
}

// SetStatus is the manual status override; status is never derived from
// pressure by this system. Returns nil when no record matches.
func (l *Local) SetStatus(_ context.Context, id string, status model.PumpStatus) (*model.Pump, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	pumps, err := l.loadPumps()
	if err != nil {
		return nil, err
	}
	for i := range pumps {
		if pumps[i].ID != id {
			continue
		}
		pumps[i].Status = status
		pumps[i].LastUpdated = l.now()
		if err := l.writePumps(pumps); err != nil {
			return nil, err
		}
		out := pumps[i]
		return &out, nil
	}
	return nil, nil
}

// Delete removes the record. No dashboard page calls this; it exists because
// the store contract models it.
func (l *Local) Delete(_ context.Context, id string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	pumps, err := l.loadPumps()
	if err != nil {
		return err
	}
	for i := range pumps {
		if pumps[i].ID == id {
			pumps = append(pumps[:i], pumps[i+1:]...)
			return l.writePumps(pumps)
		}
	}
	return ErrNotFound
}

// Statistics aggregates the whole collection.
func (l *Local) Statistics(_ context.Context) (*model.Statistics, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	pumps, err := l.loadPumps()
	if err != nil {
		return nil, err
	}

	stats := &model.Statistics{TotalPumps: len(pumps)}
	var flowSum, pressureSum float64
	for _, p := range pumps {
		switch p.Status {
		case model.StatusOperational:
			stats.OperationalPumps++
		case model.StatusWarning:
			stats.WarningPumps++
		case model.StatusError:
			stats.ErrorPumps++
		case model.StatusMaintenance:
			stats.MaintenancePumps++
		}
		flowSum += p.FlowRate
		pressureSum += p.Pressure.Current
	}
	if len(pumps) > 0 {
		stats.AverageFlowRate = flowSum / float64(len(pumps))
		stats.AveragePressure = pressureSum / float64(len(pumps))
	}
	return stats, nil
}

// PressureHistory synthesizes a charting series for the requested window.
// The id only scopes the request; the series is simulated either way, which
// matches the dashboard's mock behavior.
func (l *Local) PressureHistory(_ context.Context, _ string, hours int) ([]model.PressureSample, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return GeneratePressureHistory(l.now(), hours, l.rng), nil
}

// ResetToDemo overwrites the collection with the seed dataset. The schema
// marker is left alone.
func (l *Local) ResetToDemo(_ context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.ensureInitialized(); err != nil {
		return err
	}
	return l.writePumps(DemoPumps(l.now()))
}
