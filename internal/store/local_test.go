package store

import (
	"context"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vishnu-krishna/pump-master/internal/kv"
	"github.com/vishnu-krishna/pump-master/internal/model"
)

// newTestStore returns a Local over in-memory storage with a deterministic
// clock that advances one second per reading.
func newTestStore(t *testing.T) (*Local, *kv.Memory) {
	t.Helper()
	storage := kv.NewMemory()
	l := NewLocal(storage)

	base := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	tick := 0
	l.now = func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Second)
	}
	l.rng = rand.New(rand.NewSource(1))
	return l, storage
}

func validForm() model.PumpFormData {
	return model.PumpFormData{
		Name:        "Pump X",
		Type:        model.TypeRotary,
		Area:        "Area Z",
		Latitude:    0,
		Longitude:   0,
		FlowRate:    500,
		Offset:      2,
		MinPressure: 50,
		MaxPressure: 150,
	}
}

func TestInitializeIsIdempotent(t *testing.T) {
	l, storage := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, l.Initialize())
	first, _, err := storage.Get(collectionKey)
	require.NoError(t, err)

	require.NoError(t, l.Initialize())
	second, _, err := storage.Get(collectionKey)
	require.NoError(t, err)
	assert.Equal(t, first, second)

	list, err := l.GetAll(ctx, ListOptions{})
	require.NoError(t, err)
	assert.Len(t, list.Pumps, 10)
}

func TestVersionBumpForcesReseed(t *testing.T) {
	l, storage := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, l.Initialize())

	// Simulate a session initialized under an older schema holding edits
	// that must be discarded.
	require.NoError(t, storage.Set(versionKey, "1.0"))
	require.NoError(t, storage.Set(collectionKey, `[{"id":"99","name":"stale"}]`))
	l.initialized = false

	list, err := l.GetAll(ctx, ListOptions{})
	require.NoError(t, err)
	require.Len(t, list.Pumps, 10)
	assert.Equal(t, "1", list.Pumps[0].ID)
	assert.Equal(t, "Pump 1", list.Pumps[0].Name)

	version, _, err := storage.Get(versionKey)
	require.NoError(t, err)
	assert.Equal(t, schemaVersion, version)
}

func TestGetAllReturnsSeedOrder(t *testing.T) {
	l, _ := newTestStore(t)

	list, err := l.GetAll(context.Background(), ListOptions{})
	require.NoError(t, err)
	require.Len(t, list.Pumps, 10)
	for i, p := range list.Pumps {
		assert.Equal(t, DemoPumps(time.Now())[i].Name, p.Name)
	}
	assert.Equal(t, 10, list.TotalCount)
}

func TestGetByIDMissIsNilNotError(t *testing.T) {
	l, _ := newTestStore(t)

	p, err := l.GetByID(context.Background(), "nope")
	require.NoError(t, err)
	assert.Nil(t, p)
}

func TestCreateAssignsFreshIDAndManagedFields(t *testing.T) {
	l, _ := newTestStore(t)
	ctx := context.Background()

	existing, err := l.GetAll(ctx, ListOptions{})
	require.NoError(t, err)
	seen := make(map[string]bool)
	for _, p := range existing.Pumps {
		seen[p.ID] = true
	}

	form := validForm()
	created, err := l.Create(ctx, form)
	require.NoError(t, err)
	require.NotNil(t, created)

	assert.False(t, seen[created.ID], "id %s already in use", created.ID)
	assert.Equal(t, model.StatusOperational, created.Status)
	assert.Less(t, created.Pressure.Min, created.Pressure.Max)
	assert.GreaterOrEqual(t, created.Pressure.Current, created.Pressure.Min)
	assert.LessOrEqual(t, created.Pressure.Current, created.Pressure.Max)
	assert.False(t, created.LastUpdated.IsZero())
}

func TestCreateEndToEnd(t *testing.T) {
	l, _ := newTestStore(t)
	ctx := context.Background()

	list, err := l.GetAll(ctx, ListOptions{})
	require.NoError(t, err)
	require.Len(t, list.Pumps, 10)

	created, err := l.Create(ctx, validForm())
	require.NoError(t, err)
	assert.Equal(t, "11", created.ID)

	list, err = l.GetAll(ctx, ListOptions{})
	require.NoError(t, err)
	require.Len(t, list.Pumps, 11)
	last := list.Pumps[10]
	assert.Equal(t, "Pump X", last.Name)
	assert.Equal(t, "11", last.ID)
}

func TestCreateSkipsNonNumericIDs(t *testing.T) {
	l, storage := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, storage.Set(versionKey, schemaVersion))
	require.NoError(t, storage.Set(collectionKey, `[{"id":"abc"},{"id":"7"}]`))

	created, err := l.Create(ctx, validForm())
	require.NoError(t, err)
	assert.Equal(t, "8", created.ID)
}

func TestUpdateClampsCurrentDown(t *testing.T) {
	l, _ := newTestStore(t)
	ctx := context.Background()

	// Pump 1 seeds with current=150, min=120, max=180.
	newMax := 140.0
	updated, err := l.Update(ctx, "1", model.PumpUpdate{MaxPressure: &newMax})
	require.NoError(t, err)
	require.NotNil(t, updated)

	assert.LessOrEqual(t, updated.Pressure.Current, 140.0)
	assert.GreaterOrEqual(t, updated.Pressure.Current, updated.Pressure.Min)
	assert.Equal(t, 140.0, updated.Pressure.Max)
}

func TestUpdateClampsCurrentUp(t *testing.T) {
	l, _ := newTestStore(t)
	ctx := context.Background()

	// Raising both bounds above the current reading pulls it up to min.
	newMin, newMax := 200.0, 250.0
	updated, err := l.Update(ctx, "3", model.PumpUpdate{MinPressure: &newMin, MaxPressure: &newMax})
	require.NoError(t, err)
	require.NotNil(t, updated)
	assert.Equal(t, 200.0, updated.Pressure.Current)
}

func TestUpdateRejectsMinRaisedPastStoredMax(t *testing.T) {
	l, _ := newTestStore(t)
	ctx := context.Background()

	// Pump 1 seeds with min=120, max=180; only min is edited.
	newMin := 300.0
	updated, err := l.Update(ctx, "1", model.PumpUpdate{MinPressure: &newMin})
	require.ErrorIs(t, err, ErrInvalidBounds)
	assert.Nil(t, updated)

	// The stored record is untouched.
	p, err := l.GetByID(ctx, "1")
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.Equal(t, 120.0, p.Pressure.Min)
	assert.Equal(t, 180.0, p.Pressure.Max)
	assert.Equal(t, 150.0, p.Pressure.Current)
}

func TestUpdateRejectsMaxLoweredPastStoredMin(t *testing.T) {
	l, _ := newTestStore(t)
	ctx := context.Background()

	newMax := 100.0
	updated, err := l.Update(ctx, "1", model.PumpUpdate{MaxPressure: &newMax})
	require.ErrorIs(t, err, ErrInvalidBounds)
	assert.Nil(t, updated)

	p, err := l.GetByID(ctx, "1")
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.Equal(t, 120.0, p.Pressure.Min)
	assert.Equal(t, 180.0, p.Pressure.Max)
}

func TestPartialUpdatePreservesUntouchedFields(t *testing.T) {
	l, _ := newTestStore(t)
	ctx := context.Background()

	before, err := l.GetByID(ctx, "2")
	require.NoError(t, err)
	require.NotNil(t, before)

	name := "Renamed"
	updated, err := l.Update(ctx, "2", model.PumpUpdate{Name: &name})
	require.NoError(t, err)
	require.NotNil(t, updated)

	assert.Equal(t, "Renamed", updated.Name)
	assert.Equal(t, before.Type, updated.Type)
	assert.Equal(t, before.Area, updated.Area)
	assert.Equal(t, before.Location, updated.Location)
	assert.Equal(t, before.FlowRate, updated.FlowRate)
	assert.Equal(t, before.Offset, updated.Offset)
	assert.Equal(t, before.Pressure, updated.Pressure)
	assert.Equal(t, before.Status, updated.Status)
	assert.True(t, updated.LastUpdated.After(before.LastUpdated))
}

func TestUpdateMissIsNilNotError(t *testing.T) {
	l, _ := newTestStore(t)

	name := "x"
	p, err := l.Update(context.Background(), "404", model.PumpUpdate{Name: &name})
	require.NoError(t, err)
	assert.Nil(t, p)
}

func TestLastUpdatedIncreasesOnEveryMutation(t *testing.T) {
	l, _ := newTestStore(t)
	ctx := context.Background()

	name := "first"
	a, err := l.Update(ctx, "5", model.PumpUpdate{Name: &name})
	require.NoError(t, err)
	name = "second"
	b, err := l.Update(ctx, "5", model.PumpUpdate{Name: &name})
	require.NoError(t, err)

	assert.True(t, b.LastUpdated.After(a.LastUpdated))
}

func TestSetStatusOverride(t *testing.T) {
	l, _ := newTestStore(t)
	ctx := context.Background()

	updated, err := l.SetStatus(ctx, "1", model.StatusMaintenance)
	require.NoError(t, err)
	require.NotNil(t, updated)
	assert.Equal(t, model.StatusMaintenance, updated.Status)

	missing, err := l.SetStatus(ctx, "404", model.StatusError)
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestDelete(t *testing.T) {
	l, _ := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, l.Delete(ctx, "4"))
	p, err := l.GetByID(ctx, "4")
	require.NoError(t, err)
	assert.Nil(t, p)

	assert.ErrorIs(t, l.Delete(ctx, "4"), ErrNotFound)
}

func TestCorruptCollectionTreatedAsEmpty(t *testing.T) {
	l, storage := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, storage.Set(versionKey, schemaVersion))
	require.NoError(t, storage.Set(collectionKey, "{definitely not an array"))

	list, err := l.GetAll(ctx, ListOptions{})
	require.NoError(t, err)
	assert.Empty(t, list.Pumps)

	// The store must stay usable: the next create starts the ids over.
	created, err := l.Create(ctx, validForm())
	require.NoError(t, err)
	assert.Equal(t, "1", created.ID)
}

func TestResetToDemoKeepsVersionMarker(t *testing.T) {
	l, storage := newTestStore(t)
	ctx := context.Background()

	_, err := l.Create(ctx, validForm())
	require.NoError(t, err)

	require.NoError(t, l.ResetToDemo(ctx))

	list, err := l.GetAll(ctx, ListOptions{})
	require.NoError(t, err)
	assert.Len(t, list.Pumps, 10)

	version, _, err := storage.Get(versionKey)
	require.NoError(t, err)
	assert.Equal(t, schemaVersion, version)
}

func TestGetByArea(t *testing.T) {
	l, _ := newTestStore(t)

	pumps, err := l.GetByArea(context.Background(), "Area C")
	require.NoError(t, err)
	require.Len(t, pumps, 1)
	assert.Equal(t, "Pump 3", pumps[0].Name)

	none, err := l.GetByArea(context.Background(), "Area Q")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestGetAllFilteringAndPagination(t *testing.T) {
	l, _ := newTestStore(t)
	ctx := context.Background()

	byType, err := l.GetAll(ctx, ListOptions{Type: "Centrifugal"})
	require.NoError(t, err)
	assert.Len(t, byType.Pumps, 2)

	byStatus, err := l.GetAll(ctx, ListOptions{Status: "Error"})
	require.NoError(t, err)
	require.Len(t, byStatus.Pumps, 1)
	assert.Equal(t, "Pump 8", byStatus.Pumps[0].Name)

	search, err := l.GetAll(ctx, ListOptions{Search: "pump 1"})
	require.NoError(t, err)
	// Matches "Pump 1" and "Pump 10".
	assert.Len(t, search.Pumps, 2)

	page2, err := l.GetAll(ctx, ListOptions{Page: 2, PageSize: 4})
	require.NoError(t, err)
	require.Len(t, page2.Pumps, 4)
	assert.Equal(t, "5", page2.Pumps[0].ID)
	assert.Equal(t, 10, page2.TotalCount)
	assert.Equal(t, 2, page2.Page)

	past, err := l.GetAll(ctx, ListOptions{Page: 9, PageSize: 4})
	require.NoError(t, err)
	assert.Empty(t, past.Pumps)
}

func TestStatistics(t *testing.T) {
	l, _ := newTestStore(t)

	stats, err := l.Statistics(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 10, stats.TotalPumps)
	assert.Equal(t, 7, stats.OperationalPumps)
	assert.Equal(t, 1, stats.WarningPumps)
	assert.Equal(t, 1, stats.ErrorPumps)
	assert.Equal(t, 1, stats.MaintenancePumps)
	assert.InDelta(t, 700.0, stats.AverageFlowRate, 0.001)
	assert.InDelta(t, 120.0, stats.AveragePressure, 0.001)
}

func TestPressureHistoryWindow(t *testing.T) {
	l, _ := newTestStore(t)

	samples, err := l.PressureHistory(context.Background(), "1", 24)
	require.NoError(t, err)
	require.Len(t, samples, 25)

	for i, s := range samples {
		assert.GreaterOrEqual(t, s.Pressure, 100.0)
		assert.LessOrEqual(t, s.Pressure, 200.0)
		if i > 0 {
			assert.Equal(t, time.Hour, s.Time.Sub(samples[i-1].Time))
		}
	}
}
