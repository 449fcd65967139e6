package pump

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vishnu-krishna/pump-master/internal/kv"
	"github.com/vishnu-krishna/pump-master/internal/model"
	"github.com/vishnu-krishna/pump-master/internal/store"
)

// envelopeStore simulates a backing store that answers with pagination
// metadata, the way the remote adapter does.
type envelopeStore struct {
	store.Store // panic on anything not overridden

	result       *store.ListResult
	historyID    string
	historyHours int
}

func (e *envelopeStore) GetAll(context.Context, store.ListOptions) (*store.ListResult, error) {
	return e.result, nil
}

func (e *envelopeStore) PressureHistory(_ context.Context, id string, hours int) ([]model.PressureSample, error) {
	e.historyID = id
	e.historyHours = hours
	return []model.PressureSample{}, nil
}

func TestGetAllUnwrapsEnvelope(t *testing.T) {
	pumps := []model.Pump{{ID: "1"}, {ID: "2"}}
	svc := New(&envelopeStore{result: &store.ListResult{
		Pumps:      pumps,
		TotalCount: 57,
		Page:       2,
		PageSize:   2,
	}}, Delays{})

	got, err := svc.GetAll(context.Background(), store.ListOptions{})
	require.NoError(t, err)
	assert.Equal(t, pumps, got)
}

func TestGetAllPassesBareCollectionUnchanged(t *testing.T) {
	pumps := []model.Pump{{ID: "1"}, {ID: "2"}, {ID: "3"}}
	svc := New(&envelopeStore{result: &store.ListResult{
		Pumps:      pumps,
		TotalCount: len(pumps),
	}}, Delays{})

	got, err := svc.GetAll(context.Background(), store.ListOptions{})
	require.NoError(t, err)
	assert.Equal(t, pumps, got)
}

func TestPressureHistoryDefaultsWindow(t *testing.T) {
	fake := &envelopeStore{}
	svc := New(fake, Delays{})

	_, err := svc.PressureHistory(context.Background(), "3", 0)
	require.NoError(t, err)
	assert.Equal(t, "3", fake.historyID)
	assert.Equal(t, 24, fake.historyHours)

	_, err = svc.PressureHistory(context.Background(), "3", 6)
	require.NoError(t, err)
	assert.Equal(t, 6, fake.historyHours)
}

func TestArtificialDelayHonorsCancellation(t *testing.T) {
	svc := New(&envelopeStore{result: &store.ListResult{}}, Delays{GetAll: time.Minute})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := svc.GetAll(ctx, store.ListOptions{})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestFacadeOverLocalStoreEndToEnd(t *testing.T) {
	// The facade over the local store is the whole mock-mode wiring.
	local := store.NewLocal(kv.NewMemory())
	svc := New(local, Delays{})
	ctx := context.Background()

	pumps, err := svc.GetAll(ctx, store.ListOptions{})
	require.NoError(t, err)
	assert.Len(t, pumps, 10)

	created, err := svc.Create(ctx, model.PumpFormData{
		Name: "X", Type: model.TypeRotary, Area: "Z",
		FlowRate: 500, Offset: 2, MinPressure: 50, MaxPressure: 150,
	})
	require.NoError(t, err)
	assert.Equal(t, "11", created.ID)

	pumps, err = svc.GetAll(ctx, store.ListOptions{})
	require.NoError(t, err)
	assert.Len(t, pumps, 11)

	require.NoError(t, svc.ResetToDemo(ctx))
	pumps, err = svc.GetAll(ctx, store.ListOptions{})
	require.NoError(t, err)
	assert.Len(t, pumps, 10)
}
