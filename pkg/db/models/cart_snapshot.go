package models

import "time"

// CartSnapshot is a serialized buyer cart keyed by its storage key.
type CartSnapshot struct {
	Key       string    `gorm:"column:snapshot_key;primaryKey"`
	Payload   string    `gorm:"column:payload;not null"`
	UpdatedAt time.Time `gorm:"column:updated_at;not null"`
}

func (CartSnapshot) TableName() string { return "cart_snapshots" }
