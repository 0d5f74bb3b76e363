package models

// UserProfile stores per-user location and search preferences used to
// pre-fill and bias directory searches.
type UserProfile struct {
	BaseModel

	UserID string `gorm:"type:uuid;uniqueIndex;not null" json:"user_id"`

	City       string `gorm:"size:80" json:"city"`
	State      string `gorm:"size:80" json:"state"`
	PostalCode string `gorm:"size:20" json:"postal_code"`
	Country    string `gorm:"size:80;default:CA" json:"country"`

	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`

	// DefaultRadiusKm applies when coordinates are available.
	DefaultRadiusKm  int  `gorm:"default:50" json:"default_radius_km"`
	AllowGeolocation bool `gorm:"default:true" json:"allow_geolocation"`
}
