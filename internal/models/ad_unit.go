package models

import "time"

// Ad placements rendered by the front-end.
const (
	AdPlacementHomeInline1      = "home_inline_1"
	AdPlacementDashboardInline1 = "dashboard_inline_1"
)

// AdUnit is a small sponsored unit rendered in a specific placement.
// Placements are intentionally gentle and never take over the page.
type AdUnit struct {
	BaseModel

	Placement string `gorm:"size:64;not null;index" json:"placement"`
	Headline  string `gorm:"size:80;not null" json:"headline"`
	Body      string `gorm:"size:140" json:"body"`
	TargetURL string `gorm:"size:200" json:"target_url"`

	IsEnabled bool `gorm:"default:true" json:"is_enabled"`
	// Lower priority is shown first.
	Priority int `gorm:"default:100" json:"priority"`

	StartsAt *time.Time `json:"starts_at"`
	EndsAt   *time.Time `json:"ends_at"`
}
