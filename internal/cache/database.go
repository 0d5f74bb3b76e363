package cache

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/localhq/localservices/internal/models"
)

// DatabaseStore persists cache entries in the application database so they
// survive restarts and are shared between processes.
type DatabaseStore struct {
	db  *gorm.DB
	now func() time.Time
}

// NewDatabaseStore returns a Store backed by the cache_entries table.
func NewDatabaseStore(db *gorm.DB) *DatabaseStore {
	return &DatabaseStore{db: db, now: time.Now}
}

func (s *DatabaseStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var entry models.CacheEntry
	err := s.db.WithContext(ctx).Take(&entry, "key = ?", key).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	if s.now().After(entry.ExpiresAt) {
		_ = s.db.WithContext(ctx).Delete(&models.CacheEntry{}, "key = ?", key).Error
		return nil, false, nil
	}

	return entry.Value, true, nil
}

func (s *DatabaseStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl <= 0 {
		return s.Delete(ctx, key)
	}

	entry := models.CacheEntry{
		Key:       key,
		Value:     value,
		ExpiresAt: s.now().Add(ttl),
	}

	return s.db.WithContext(ctx).
		Where("key = ?", key).
		Assign(map[string]any{
			"value":      value,
			"expires_at": entry.ExpiresAt,
		}).
		FirstOrCreate(&entry).Error
}

func (s *DatabaseStore) Delete(ctx context.Context, key string) error {
	return s.db.WithContext(ctx).Delete(&models.CacheEntry{}, "key = ?", key).Error
}

func (s *DatabaseStore) PurgeExpired(ctx context.Context) (int64, error) {
	result := s.db.WithContext(ctx).
		Where("expires_at < ?", s.now()).
		Delete(&models.CacheEntry{})
	return result.RowsAffected, result.Error
}
