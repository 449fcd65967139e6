// Package notify delivers web-push alerts when a pump enters a degraded
// status. Subscriptions are persisted in their own small database; alert
// delivery runs on a worker pool so status sweeps never block on push
// endpoints.
package notify

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"
)

// SubscriptionStore is the persistence contract for push subscriptions.
type SubscriptionStore interface {
	Upsert(ctx context.Context, endpoint, p256dh, auth string, pumpIDs []string) error
	Get(ctx context.Context, endpoint string) ([]string, error)
	Delete(ctx context.Context, endpoint string) error
	ForPump(ctx context.Context, pumpID string) ([]Subscription, error)
}

type gormStore struct {
	db *gorm.DB
}

// NewGormStore migrates the subscription schema and returns a gorm-backed
// store.
func NewGormStore(db *gorm.DB) (SubscriptionStore, error) {
	if err := db.AutoMigrate(&Subscription{}, &SubscriptionPump{}); err != nil {
		return nil, fmt.Errorf("migrate subscription schema: %w", err)
	}
	return &gormStore{db: db}, nil
}

// Upsert creates or replaces a subscription and its watched-pump set.
func (s *gormStore) Upsert(ctx context.Context, endpoint, p256dh, auth string, pumpIDs []string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		sub := Subscription{
			Endpoint:  endpoint,
			P256DH:    p256dh,
			Auth:      auth,
			CreatedAt: time.Now().UTC(),
		}
		if err := tx.Save(&sub).Error; err != nil {
			return fmt.Errorf("save subscription: %w", err)
		}

		if err := tx.Where("endpoint = ?", endpoint).Delete(&SubscriptionPump{}).Error; err != nil {
			return fmt.Errorf("clear watched pumps: %w", err)
		}
		for _, pumpID := range pumpIDs {
			mapping := SubscriptionPump{Endpoint: endpoint, PumpID: pumpID}
			if err := tx.Create(&mapping).Error; err != nil {
				return fmt.Errorf("watch pump %s: %w", pumpID, err)
			}
		}
		return nil
	})
}

// Get returns the watched pump ids, or gorm.ErrRecordNotFound when the
// endpoint has no subscription.
func (s *gormStore) Get(ctx context.Context, endpoint string) ([]string, error) {
	var sub Subscription
	if err := s.db.WithContext(ctx).Preload("Pumps").First(&sub, "endpoint = ?", endpoint).Error; err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(sub.Pumps))
	for _, m := range sub.Pumps {
		ids = append(ids, m.PumpID)
	}
	return ids, nil
}

// Delete removes a subscription and its mappings.
func (s *gormStore) Delete(ctx context.Context, endpoint string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("endpoint = ?", endpoint).Delete(&SubscriptionPump{}).Error; err != nil {
			return err
		}
		return tx.Delete(&Subscription{Endpoint: endpoint}).Error
	})
}

// ForPump returns every subscription watching the given pump.
func (s *gormStore) ForPump(ctx context.Context, pumpID string) ([]Subscription, error) {
	var subs []Subscription
	err := s.db.WithContext(ctx).
		Joins("JOIN subscription_pumps sp ON sp.endpoint = subscriptions.endpoint").
		Where("sp.pump_id = ?", pumpID).
		Find(&subs).Error
	if err != nil {
		return nil, fmt.Errorf("fetch subscriptions for pump %s: %w", pumpID, err)
	}
	return subs, nil
}
