package services

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/localhq/localservices/internal/models"
	"github.com/localhq/localservices/pkg/metrics"
)

// AnalyticsService records search and usage events and aggregates them into
// admin reports. Searches capture intent; usage events capture behavior.
type AnalyticsService struct {
	db  *gorm.DB
	now func() time.Time
}

// NewAnalyticsService returns an AnalyticsService.
func NewAnalyticsService(db *gorm.DB) *AnalyticsService {
	return &AnalyticsService{db: db, now: time.Now}
}

// RecordSearchInput captures one search event.
type RecordSearchInput struct {
	UserID     *string
	CategoryID *string
	QueryText  string
	City       string
	State      string
	PostalCode string
	Latitude   *float64
	Longitude  *float64
}

// RecordSearch stores a search event.
func (s *AnalyticsService) RecordSearch(ctx context.Context, input RecordSearchInput) error {
	event := models.SearchEvent{
		UserID:     input.UserID,
		CategoryID: input.CategoryID,
		QueryText:  input.QueryText,
		City:       input.City,
		State:      input.State,
		PostalCode: input.PostalCode,
		Latitude:   input.Latitude,
		Longitude:  input.Longitude,
	}
	return s.db.WithContext(ctx).Create(&event).Error
}

// RecordUsageInput captures one usage event against a provider.
type RecordUsageInput struct {
	UserID     *string
	CategoryID *string
	ProviderID *string
	Action     string `validate:"required,oneof=view contact click_website"`
	City       string
	State      string
	PostalCode string
	Latitude   *float64
	Longitude  *float64
}

// RecordUsage stores a usage event.
func (s *AnalyticsService) RecordUsage(ctx context.Context, input RecordUsageInput) error {
	event := models.UsageEvent{
		UserID:     input.UserID,
		CategoryID: input.CategoryID,
		ProviderID: input.ProviderID,
		Action:     input.Action,
		City:       input.City,
		State:      input.State,
		PostalCode: input.PostalCode,
		Latitude:   input.Latitude,
		Longitude:  input.Longitude,
	}
	if err := s.db.WithContext(ctx).Create(&event).Error; err != nil {
		return err
	}
	metrics.UsageEvents.WithLabelValues(input.Action).Inc()
	return nil
}

// CountRow is a label/count aggregation row.
type CountRow struct {
	Label string `json:"label"`
	Count int64  `json:"count"`
}

// Report is the admin analytics summary.
type Report struct {
	TotalSearches     int64 `json:"total_searches"`
	TotalUsageEvents  int64 `json:"total_usage_events"`
	UniqueUsersAll    int64 `json:"unique_users_all"`
	UniqueUsers30Days int64 `json:"unique_users_30_days"`

	TopRequestedCategories []CountRow `json:"top_requested_categories"`
	TopUsedCategories      []CountRow `json:"top_used_categories"`
	TopStates              []CountRow `json:"top_states"`
	TopCities              []CountRow `json:"top_cities"`
	TopPostalCodes         []CountRow `json:"top_postal_codes"`
}

// BuildReport aggregates events into the admin summary. Top lists are capped
// at limit rows each.
func (s *AnalyticsService) BuildReport(ctx context.Context, limit int) (*Report, error) {
	if limit <= 0 {
		limit = 10
	}

	report := &Report{}
	db := s.db.WithContext(ctx)

	if err := db.Model(&models.SearchEvent{}).Count(&report.TotalSearches).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&models.UsageEvent{}).Count(&report.TotalUsageEvents).Error; err != nil {
		return nil, err
	}

	if err := db.Model(&models.SearchEvent{}).
		Where("user_id IS NOT NULL").
		Distinct("user_id").
		Count(&report.UniqueUsersAll).Error; err != nil {
		return nil, err
	}

	cutoff := s.now().AddDate(0, 0, -30)
	if err := db.Model(&models.SearchEvent{}).
		Where("user_id IS NOT NULL AND created_at >= ?", cutoff).
		Distinct("user_id").
		Count(&report.UniqueUsers30Days).Error; err != nil {
		return nil, err
	}

	var err error
	if report.TopRequestedCategories, err = s.topCategories(ctx, &models.SearchEvent{}, limit); err != nil {
		return nil, err
	}
	if report.TopUsedCategories, err = s.topCategories(ctx, &models.UsageEvent{}, limit); err != nil {
		return nil, err
	}
	if report.TopStates, err = s.topColumn(ctx, "state", limit); err != nil {
		return nil, err
	}
	if report.TopCities, err = s.topColumn(ctx, "city", limit); err != nil {
		return nil, err
	}
	if report.TopPostalCodes, err = s.topColumn(ctx, "postal_code", limit); err != nil {
		return nil, err
	}

	return report, nil
}

func (s *AnalyticsService) topCategories(ctx context.Context, model any, limit int) ([]CountRow, error) {
	table := "search_events"
	if _, ok := model.(*models.UsageEvent); ok {
		table = "usage_events"
	}

	rows := []CountRow{}
	err := s.db.WithContext(ctx).
		Table(table).
		Select("service_categories.name AS label, COUNT(*) AS count").
		Joins("JOIN service_categories ON service_categories.id = " + table + ".category_id").
		Where(table + ".category_id IS NOT NULL").
		Group("service_categories.name").
		Order("count DESC").
		Limit(limit).
		Scan(&rows).Error
	return rows, err
}

func (s *AnalyticsService) topColumn(ctx context.Context, column string, limit int) ([]CountRow, error) {
	rows := []CountRow{}
	err := s.db.WithContext(ctx).
		Model(&models.SearchEvent{}).
		Select(column + " AS label, COUNT(*) AS count").
		Where(column + " <> ''").
		Group(column).
		Order("count DESC").
		Limit(limit).
		Scan(&rows).Error
	return rows, err
}

// PurgeEventsBefore removes analytics rows older than cutoff and returns the
// number removed. Used by the retention cleaner.
func (s *AnalyticsService) PurgeEventsBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	var total int64

	result := s.db.WithContext(ctx).
		Where("created_at < ?", cutoff).
		Delete(&models.SearchEvent{})
	if result.Error != nil {
		return total, result.Error
	}
	total += result.RowsAffected

	result = s.db.WithContext(ctx).
		Where("created_at < ?", cutoff).
		Delete(&models.UsageEvent{})
	if result.Error != nil {
		return total, result.Error
	}
	total += result.RowsAffected

	return total, nil
}
