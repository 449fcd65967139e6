package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockSender is a mock implementation of the Sender interface.
type mockSender struct {
	SendFunc func(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error)
}

func (m *mockSender) Send(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error) {
	return m.SendFunc(payload, sub, options)
}

// memSubs is an in-memory SubscriptionStore for worker tests.
type memSubs struct {
	mu   sync.Mutex
	subs map[string]Subscription
	by   map[string][]string // pumpID -> endpoints
}

func newMemSubs() *memSubs {
	return &memSubs{subs: make(map[string]Subscription), by: make(map[string][]string)}
}

func (m *memSubs) Upsert(_ context.Context, endpoint, p256dh, auth string, pumpIDs []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.subs[endpoint] = Subscription{Endpoint: endpoint, P256DH: p256dh, Auth: auth}
	for _, id := range pumpIDs {
		m.by[id] = append(m.by[id], endpoint)
	}
	return nil
}

func (m *memSubs) Get(_ context.Context, endpoint string) ([]string, error) { return nil, nil }

func (m *memSubs) Delete(_ context.Context, endpoint string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.subs, endpoint)
	return nil
}

func (m *memSubs) ForPump(_ context.Context, pumpID string) ([]Subscription, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Subscription
	for _, ep := range m.by[pumpID] {
		if sub, ok := m.subs[ep]; ok {
			out = append(out, sub)
		}
	}
	return out, nil
}

func (m *memSubs) has(endpoint string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.subs[endpoint]
	return ok
}

func pushResponse(code int) *http.Response {
	return &http.Response{StatusCode: code, Body: io.NopCloser(bytes.NewReader(nil))}
}

func TestWorkerPool_Dispatch(t *testing.T) {
	wp := NewWorkerPool(1, newMemSubs(), &webpush.Options{})

	wp.Dispatch(Alert{PumpID: "7", PumpName: "Pump 7", Status: "Error"})

	select {
	case job := <-wp.jobs:
		assert.Equal(t, "7", job.PumpID)
		assert.Equal(t, "Error", job.Status)
	case <-time.After(1 * time.Second):
		t.Fatal("timed out waiting for job to be dispatched")
	}
}

func TestWorkerPool_DeliversToSubscribers(t *testing.T) {
	subs := newMemSubs()
	ctx := context.Background()
	require.NoError(t, subs.Upsert(ctx, "https://push.example/a", "k", "a", []string{"3"}))
	require.NoError(t, subs.Upsert(ctx, "https://push.example/b", "k", "a", []string{"3"}))
	require.NoError(t, subs.Upsert(ctx, "https://push.example/other", "k", "a", []string{"9"}))

	var mu sync.Mutex
	var sent []string
	var payloads [][]byte
	wp := NewWorkerPool(1, subs, &webpush.Options{})
	wp.sender = &mockSender{
		SendFunc: func(payload []byte, sub *webpush.Subscription, _ *webpush.Options) (*http.Response, error) {
			mu.Lock()
			defer mu.Unlock()
			sent = append(sent, sub.Endpoint)
			payloads = append(payloads, payload)
			return pushResponse(http.StatusCreated), nil
		},
	}

	wp.deliver(ctx, Alert{PumpID: "3", PumpName: "Pump 3", Status: "Warning"})

	assert.ElementsMatch(t, []string{"https://push.example/a", "https://push.example/b"}, sent)

	var alert Alert
	require.NoError(t, json.Unmarshal(payloads[0], &alert))
	assert.Equal(t, "Pump 3", alert.PumpName)
	assert.Equal(t, "Warning", alert.Status)
}

func TestWorkerPool_DeletesExpiredSubscription(t *testing.T) {
	subs := newMemSubs()
	ctx := context.Background()
	require.NoError(t, subs.Upsert(ctx, "https://push.example/gone", "k", "a", []string{"1"}))

	wp := NewWorkerPool(1, subs, &webpush.Options{})
	wp.sender = &mockSender{
		SendFunc: func(_ []byte, _ *webpush.Subscription, _ *webpush.Options) (*http.Response, error) {
			return pushResponse(http.StatusGone), nil
		},
	}

	wp.deliver(ctx, Alert{PumpID: "1", PumpName: "Pump 1", Status: "Error"})

	assert.False(t, subs.has("https://push.example/gone"))
}

func TestWorkerPool_WorkerDrainsQueue(t *testing.T) {
	subs := newMemSubs()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, subs.Upsert(ctx, "https://push.example/a", "k", "a", []string{"2"}))

	done := make(chan struct{})
	wp := NewWorkerPool(2, subs, &webpush.Options{})
	wp.sender = &mockSender{
		SendFunc: func(_ []byte, _ *webpush.Subscription, _ *webpush.Options) (*http.Response, error) {
			close(done)
			return pushResponse(http.StatusCreated), nil
		},
	}
	wp.Start(ctx)

	wp.Dispatch(Alert{PumpID: "2", PumpName: "Pump 2", Status: "Error"})

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for worker to deliver")
	}
}
