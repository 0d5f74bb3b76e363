package services

import (
	"context"
	"strings"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/localhq/localservices/internal/cache"
	"github.com/localhq/localservices/internal/geo"
	"github.com/localhq/localservices/internal/models"
	"github.com/localhq/localservices/pkg/errors"
	"github.com/localhq/localservices/pkg/logger"
	"github.com/localhq/localservices/pkg/metrics"
)

const (
	maxSuggestedResults = 6
	maxLocalResults     = 30
	maxExternalResults  = 30
)

// categoryKeywords maps common search words to category slugs so free-text
// queries land on the right category.
var categoryKeywords = map[string]string{
	"plumber":      "plumbing",
	"plumbing":     "plumbing",
	"pipe":         "plumbing",
	"drain":        "plumbing",
	"electrician":  "electrical",
	"electrical":   "electrical",
	"wiring":       "electrical",
	"furnace":      "hvac",
	"heating":      "hvac",
	"cooling":      "hvac",
	"hvac":         "hvac",
	"ac":           "hvac",
	"roof":         "roofing",
	"roofer":       "roofing",
	"roofing":      "roofing",
	"shingles":     "roofing",
	"lawn":         "landscaping",
	"garden":       "landscaping",
	"landscaping":  "landscaping",
	"cleaner":      "cleaning",
	"cleaning":     "cleaning",
	"maid":         "cleaning",
	"mover":        "moving",
	"moving":       "moving",
	"painter":      "painting",
	"painting":     "painting",
	"handyman":     "handyman",
	"pest":         "pest-control",
	"exterminator": "pest-control",
	"snow":         "snow-removal",
	"plow":         "snow-removal",
	"locksmith":    "locksmith",
	"towing":       "towing",
	"tow":          "towing",
	"mechanic":     "auto-repair",
}

// DirectoryService answers public service searches, merging curated local
// providers with live results from the effective external backend.
type DirectoryService struct {
	db         *gorm.DB
	selector   *geo.Selector
	cache      cache.Store
	categories *CategoryService
	analytics  *AnalyticsService
	log        *zap.Logger
}

// NewDirectoryService wires a DirectoryService. When store is non-nil,
// external lookups are memoised through it.
func NewDirectoryService(db *gorm.DB, selector *geo.Selector, store cache.Store, categories *CategoryService, analytics *AnalyticsService) *DirectoryService {
	return &DirectoryService{
		db:         db,
		selector:   selector,
		cache:      store,
		categories: categories,
		analytics:  analytics,
		log:        logger.WithModule("services.directory"),
	}
}

// SearchInput is a public directory search.
type SearchInput struct {
	Query        string   `json:"query" validate:"omitempty,max=120"`
	CategorySlug string   `json:"category" validate:"omitempty,max=100"`
	City         string   `json:"city" validate:"omitempty,max=80"`
	State        string   `json:"state" validate:"omitempty,max=80"`
	PostalCode   string   `json:"postal_code" validate:"omitempty,max=20"`
	Latitude     *float64 `json:"latitude" validate:"omitempty,min=-90,max=90"`
	Longitude    *float64 `json:"longitude" validate:"omitempty,min=-180,max=180"`
	RadiusKm     int      `json:"radius_km" validate:"omitempty,min=1,max=100"`

	UserID *string `json:"-"`
}

// SearchResult is the combined answer for a directory search.
type SearchResult struct {
	Category  *models.ServiceCategory  `json:"category,omitempty"`
	Backend   string                   `json:"backend"`
	Suggested []models.ServiceProvider `json:"suggested"`
	Local     []models.ServiceProvider `json:"local"`
	External  []geo.Place              `json:"external"`

	// ExternalError carries a user-safe message when the external backend
	// failed but local results are still usable.
	ExternalError string `json:"external_error,omitempty"`
}

// Search resolves the category, queries curated providers and the external
// backend, and records the search for analytics. Local results survive an
// external backend failure.
func (s *DirectoryService) Search(ctx context.Context, input SearchInput) (*SearchResult, error) {
	category, err := s.resolveCategory(ctx, input)
	if err != nil {
		return nil, err
	}

	location := geo.Location{
		City:       strings.TrimSpace(input.City),
		State:      strings.TrimSpace(input.State),
		PostalCode: geo.NormalizeCAPostal(input.PostalCode),
		Country:    "CA",
		Latitude:   input.Latitude,
		Longitude:  input.Longitude,
	}

	result := &SearchResult{
		Category:  category,
		Suggested: []models.ServiceProvider{},
		Local:     []models.ServiceProvider{},
		External:  []geo.Place{},
	}

	if category != nil {
		suggested, local, err := s.localProviders(ctx, category.ID, location)
		if err != nil {
			return nil, err
		}
		result.Suggested = suggested
		result.Local = local
	}

	result.Backend = s.selector.EffectiveBackend(ctx)

	if category != nil && !location.IsZero() {
		external, err := s.externalPlaces(ctx, category, location, input.RadiusKm)
		switch {
		case err == nil:
			result.External = external
		default:
			appErr := errors.FromError(err)
			s.log.Warn("external search failed",
				zap.String("backend", result.Backend),
				zap.Error(err))
			result.ExternalError = appErr.Message
		}
	}

	metrics.Searches.WithLabelValues(strings.ToLower(result.Backend)).Inc()
	s.recordSearch(ctx, input, category, location)

	return result, nil
}

func (s *DirectoryService) resolveCategory(ctx context.Context, input SearchInput) (*models.ServiceCategory, error) {
	slug := strings.ToLower(strings.TrimSpace(input.CategorySlug))

	if slug == "" {
		slug = InferCategorySlug(input.Query)
	}
	if slug == "" {
		return nil, nil
	}

	category, err := s.categories.GetBySlug(ctx, slug)
	if err != nil {
		appErr := errors.FromError(err)
		if appErr.Code == errors.ErrNotFound.Code {
			return nil, nil
		}
		return nil, err
	}
	return category, nil
}

// InferCategorySlug guesses a category from free-text query words.
func InferCategorySlug(query string) string {
	for _, word := range strings.Fields(strings.ToLower(query)) {
		word = strings.Trim(word, ".,!?")
		if slug, ok := categoryKeywords[word]; ok {
			return slug
		}
	}
	return ""
}

// localProviders returns the curated providers for a category near the
// location: suggested entries rank-ordered, then regular entries.
func (s *DirectoryService) localProviders(ctx context.Context, categoryID string, loc geo.Location) (suggested, local []models.ServiceProvider, err error) {
	base := s.db.WithContext(ctx).
		Where("category_id = ? AND is_active = ?", categoryID, true)
	base = applyLocationFilter(base, loc)

	if err = base.Session(&gorm.Session{}).
		Where("is_suggested = ?", true).
		Order("suggested_rank asc, name asc").
		Limit(maxSuggestedResults).
		Find(&suggested).Error; err != nil {
		return nil, nil, err
	}

	if err = base.Session(&gorm.Session{}).
		Where("is_suggested = ?", false).
		Order("name asc").
		Limit(maxLocalResults).
		Find(&local).Error; err != nil {
		return nil, nil, err
	}

	return suggested, local, nil
}

// applyLocationFilter narrows a provider query to the searched area. Postal
// codes match exactly after normalisation; otherwise city (and state when
// present) match case-insensitively. Coordinate-only searches skip the
// filter since curated rows may lack coordinates.
func applyLocationFilter(tx *gorm.DB, loc geo.Location) *gorm.DB {
	if loc.PostalCode != "" {
		return tx.Where("UPPER(REPLACE(postal_code, ' ', '')) = ?",
			strings.ReplaceAll(loc.PostalCode, " ", ""))
	}
	if loc.City != "" {
		tx = tx.Where("LOWER(city) = LOWER(?)", strings.TrimSpace(loc.City))
		if loc.State != "" {
			tx = tx.Where("LOWER(state) = LOWER(?)", strings.TrimSpace(loc.State))
		}
		return tx
	}
	return tx
}

func (s *DirectoryService) externalPlaces(ctx context.Context, category *models.ServiceCategory, loc geo.Location, radiusKm int) ([]geo.Place, error) {
	backend, err := s.selector.Resolve(ctx)
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		backend = geo.WithCache(backend, s.cache)
	}

	return backend.SearchPlaces(ctx, geo.Query{
		CategorySlug: category.Slug,
		CategoryName: category.Name,
		Location:     loc,
		RadiusKm:     radiusKm,
		Limit:        maxExternalResults,
	})
}

func (s *DirectoryService) recordSearch(ctx context.Context, input SearchInput, category *models.ServiceCategory, loc geo.Location) {
	if s.analytics == nil {
		return
	}

	var categoryID *string
	if category != nil {
		categoryID = &category.ID
	}

	if err := s.analytics.RecordSearch(ctx, RecordSearchInput{
		UserID:     input.UserID,
		CategoryID: categoryID,
		QueryText:  strings.TrimSpace(input.Query),
		City:       loc.City,
		State:      loc.State,
		PostalCode: loc.PostalCode,
		Latitude:   loc.Latitude,
		Longitude:  loc.Longitude,
	}); err != nil {
		s.log.Warn("failed to record search event", zap.Error(err))
	}
}
