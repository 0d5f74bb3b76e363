package models

import "time"

// CacheEntry stores transient values (provider result caches, counters) in the
// primary database so single-instance deployments need no external cache.
type CacheEntry struct {
	Key       string    `gorm:"primaryKey"`
	Value     []byte    `gorm:"type:blob"`
	ExpiresAt time.Time `gorm:"index"`
	CreatedAt time.Time
	UpdatedAt time.Time
}
