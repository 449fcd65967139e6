package notify

import (
	"context"
	"encoding/json"
	"log"
	"net/http"

	"github.com/SherClockHolmes/webpush-go"
)

// Alert is one status transition worth telling subscribers about.
type Alert struct {
	PumpID   string `json:"pumpId"`
	PumpName string `json:"pumpName"`
	Status   string `json:"status"`
}

// Sender abstracts the actual web-push delivery so tests can substitute it.
type Sender interface {
	Send(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error)
}

// webPushSender delivers through the webpush library.
type webPushSender struct{}

func (webPushSender) Send(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error) {
	return webpush.SendNotification(payload, sub, options)
}

// WorkerPool fans alert delivery out over a fixed set of workers.
type WorkerPool struct {
	size    int
	jobs    chan Alert
	store   SubscriptionStore
	webpush *webpush.Options
	sender  Sender
}

// NewWorkerPool creates a pool of the given size.
func NewWorkerPool(size int, store SubscriptionStore, options *webpush.Options) *WorkerPool {
	if size <= 0 {
		size = 1
	}
	return &WorkerPool{
		size:    size,
		jobs:    make(chan Alert, size),
		store:   store,
		webpush: options,
		sender:  webPushSender{},
	}
}

// Start launches the worker goroutines; they exit when ctx is cancelled.
func (wp *WorkerPool) Start(ctx context.Context) {
	for i := 0; i < wp.size; i++ {
		go wp.worker(ctx, i)
	}
}

// Dispatch queues one alert for delivery.
func (wp *WorkerPool) Dispatch(alert Alert) {
	wp.jobs <- alert
}

func (wp *WorkerPool) worker(ctx context.Context, id int) {
	for {
		select {
		case alert := <-wp.jobs:
			wp.deliver(ctx, alert)
		case <-ctx.Done():
			log.Printf("notify: worker %d shutting down", id)
			return
		}
	}
}

// deliver pushes one alert to every subscriber of the pump.
func (wp *WorkerPool) deliver(ctx context.Context, alert Alert) {
	subs, err := wp.store.ForPump(ctx, alert.PumpID)
	if err != nil {
		log.Printf("notify: fetching subscribers for pump %s: %v", alert.PumpID, err)
		return
	}
	if len(subs) == 0 {
		return
	}

	payload, err := json.Marshal(alert)
	if err != nil {
		log.Printf("notify: encoding alert for pump %s: %v", alert.PumpID, err)
		return
	}

	log.Printf("notify: pump %s entered %s, notifying %d subscribers", alert.PumpID, alert.Status, len(subs))
	for _, sub := range subs {
		wp.push(ctx, sub, payload)
	}
}

func (wp *WorkerPool) push(ctx context.Context, sub Subscription, payload []byte) {
	wpSub := &webpush.Subscription{
		Endpoint: sub.Endpoint,
		Keys: webpush.Keys{
			P256dh: sub.P256DH,
			Auth:   sub.Auth,
		},
	}

	resp, err := wp.sender.Send(payload, wpSub, wp.webpush)
	if err != nil {
		log.Printf("notify: sending to %s: %v", sub.Endpoint, err)
		return
	}
	defer resp.Body.Close()

	// The push service telling us the subscription is gone.
	if resp.StatusCode == http.StatusGone {
		log.Printf("notify: subscription %s expired, deleting", sub.Endpoint)
		if err := wp.store.Delete(ctx, sub.Endpoint); err != nil {
			log.Printf("notify: deleting expired subscription %s: %v", sub.Endpoint, err)
		}
	}
}
