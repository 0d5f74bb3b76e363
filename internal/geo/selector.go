package geo

import (
	"context"
	stderrors "errors"
	"strings"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/localhq/localservices/internal/models"
	"github.com/localhq/localservices/pkg/errors"
	"github.com/localhq/localservices/pkg/logger"
)

// SelectorConfig carries the environment-level provider defaults.
type SelectorConfig struct {
	// DefaultBackend is the environment default (PROVIDER_BACKEND). Empty
	// means OSM.
	DefaultBackend string
	OSM            OSMConfig
	Google         GoogleConfig
}

// Selector resolves the effective provider backend for each call. Precedence
// is the admin-stored setting, then the environment default, then OSM, so an
// admin change takes effect without a restart.
type Selector struct {
	db  *gorm.DB
	cfg SelectorConfig
	log *zap.Logger

	osm *OSMBackend
}

// NewSelector builds a Selector. The OSM backend is constructed eagerly
// since it needs no credentials; Google backends are built per call with the
// effective API key.
func NewSelector(db *gorm.DB, cfg SelectorConfig) *Selector {
	return &Selector{
		db:  db,
		cfg: cfg,
		log: logger.WithModule("geo.selector"),
		osm: NewOSMBackend(cfg.OSM),
	}
}

// settings returns the admin-stored provider settings, or a zero value when
// the row does not exist yet.
func (s *Selector) settings(ctx context.Context) models.ProviderSettings {
	var row models.ProviderSettings
	if s.db == nil {
		return row
	}

	err := s.db.WithContext(ctx).First(&row, 1).Error
	if err != nil && !stderrors.Is(err, gorm.ErrRecordNotFound) {
		s.log.Warn("failed to load provider settings, using environment default", zap.Error(err))
	}
	return row
}

// EffectiveBackend returns the backend name that would serve a request right
// now: OSM or GOOGLE.
func (s *Selector) EffectiveBackend(ctx context.Context) string {
	row := s.settings(ctx)

	if name := normalizeBackendName(row.Backend); name != "" {
		return name
	}
	if name := normalizeBackendName(s.cfg.DefaultBackend); name != "" {
		return name
	}
	return models.ProviderBackendOSM
}

// Resolve returns the Backend to use for the current request. Selecting
// GOOGLE without an API key (admin-stored or environment) is a configuration
// error.
func (s *Selector) Resolve(ctx context.Context) (Backend, error) {
	row := s.settings(ctx)

	name := normalizeBackendName(row.Backend)
	if name == "" {
		name = normalizeBackendName(s.cfg.DefaultBackend)
	}
	if name == "" {
		name = models.ProviderBackendOSM
	}

	switch name {
	case models.ProviderBackendOSM:
		return s.osm, nil

	case models.ProviderBackendGoogle:
		apiKey := strings.TrimSpace(row.GoogleMapsAPIKey)
		if apiKey == "" {
			apiKey = strings.TrimSpace(s.cfg.Google.APIKey)
		}
		if apiKey == "" {
			return nil, errors.ErrProviderNotConfigured.WithInternal(
				stderrors.New("GOOGLE backend selected but no API key is set"))
		}

		region := strings.TrimSpace(row.GoogleRegion)
		if region == "" {
			region = s.cfg.Google.Region
		}

		google := s.cfg.Google
		google.APIKey = apiKey
		google.Region = region
		return NewGoogleBackend(google), nil

	default:
		return nil, errors.ErrProviderNotConfigured.WithInternal(
			stderrors.New("unknown provider backend " + name))
	}
}

func normalizeBackendName(name string) string {
	switch strings.ToUpper(strings.TrimSpace(name)) {
	case models.ProviderBackendOSM:
		return models.ProviderBackendOSM
	case models.ProviderBackendGoogle:
		return models.ProviderBackendGoogle
	case "":
		return ""
	default:
		return strings.ToUpper(strings.TrimSpace(name))
	}
}
