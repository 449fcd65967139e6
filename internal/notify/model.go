package notify

import "time"

// Subscription holds one browser push subscription and the pumps it watches.
type Subscription struct {
	Endpoint  string    `gorm:"primaryKey"`
	P256DH    string    `gorm:"column:p256dh;not null"`
	Auth      string    `gorm:"not null"`
	CreatedAt time.Time `gorm:"not null"`

	Pumps []SubscriptionPump `gorm:"foreignKey:Endpoint;references:Endpoint;constraint:OnDelete:CASCADE"`
}

// SubscriptionPump maps a subscription to one watched pump id. Pump records
// themselves live in the pump store, not in this database, so the mapping
// carries the bare id.
type SubscriptionPump struct {
	ID       int64  `gorm:"autoIncrement;primaryKey"`
	Endpoint string `gorm:"index:idx_subscription_pump,unique;not null"`
	PumpID   string `gorm:"index:idx_subscription_pump,unique;index;not null"`
}
