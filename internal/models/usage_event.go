package models

import "gorm.io/datatypes"

// Usage actions users perform against a provider.
const (
	UsageActionView         = "view"
	UsageActionContact      = "contact"
	UsageActionClickWebsite = "click_website"
)

// UsageEvent records what users actually use or contact (behavior).
type UsageEvent struct {
	BaseModel

	UserID     *string `gorm:"type:uuid;index" json:"user_id"`
	CategoryID *string `gorm:"type:uuid" json:"category_id"`
	ProviderID *string `gorm:"type:uuid;index:idx_usage_events_provider" json:"provider_id"`

	Action string `gorm:"size:32;not null;index:idx_usage_events_provider" json:"action"`

	City       string   `gorm:"size:80" json:"city"`
	State      string   `gorm:"size:80" json:"state"`
	PostalCode string   `gorm:"size:20" json:"postal_code"`
	Latitude   *float64 `json:"latitude"`
	Longitude  *float64 `json:"longitude"`

	Metadata datatypes.JSON `json:"metadata,omitempty"`

	Category *ServiceCategory `gorm:"foreignKey:CategoryID" json:"category,omitempty"`
	Provider *ServiceProvider `gorm:"foreignKey:ProviderID" json:"provider,omitempty"`
}
