package models

import (
	"time"

	"gorm.io/datatypes"
)

// Color schemes selectable by admins.
const (
	ColorSchemeMidnight = "midnight"
	ColorSchemeFrost    = "frost"
	ColorSchemeSunset   = "sunset"
	ColorSchemeForest   = "forest"
)

// ThemeSettings is a singleton row treated as the global site theme.
type ThemeSettings struct {
	ID uint `gorm:"primaryKey" json:"-"`

	ColorScheme         string `gorm:"size:32;default:midnight" json:"color_scheme"`
	DarkMode            bool   `gorm:"default:true" json:"dark_mode"`
	GlassEffect         bool   `gorm:"default:true" json:"glass_effect"`
	BackgroundGradients bool   `gorm:"default:true" json:"background_gradients"`
	CompactLayout       bool   `gorm:"default:false" json:"compact_layout"`
	SnowEffect          bool   `gorm:"default:false" json:"snow_effect"`

	// Extras carries seasonal/experimental toggles without schema churn.
	Extras datatypes.JSON `json:"extras,omitempty"`

	UpdatedAt time.Time `json:"updated_at"`
}
