package models

import "time"

// Provider backend identifiers. The effective backend is resolved per call:
// admin-stored value, then PROVIDER_BACKEND from the environment, then OSM.
const (
	ProviderBackendOSM    = "OSM"
	ProviderBackendGoogle = "GOOGLE"
)

// ProviderSettings is a singleton row letting admins change the provider
// backend and API key without config or environment edits.
type ProviderSettings struct {
	ID uint `gorm:"primaryKey" json:"-"`

	Backend          string `gorm:"size:16;default:''" json:"backend"`
	GoogleMapsAPIKey string `gorm:"size:255" json:"-"`
	GoogleRegion     string `gorm:"size:2;default:CA" json:"google_region"`

	UpdatedAt time.Time `json:"updated_at"`
}
