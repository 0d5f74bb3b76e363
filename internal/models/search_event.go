package models

// SearchEvent records what users are requesting (intent). The location
// columns snapshot what the user searched with, not where results were.
type SearchEvent struct {
	BaseModel

	UserID     *string `gorm:"type:uuid;index" json:"user_id"`
	CategoryID *string `gorm:"type:uuid;index:idx_search_events_category" json:"category_id"`
	QueryText  string  `gorm:"size:120" json:"query_text"`

	City       string   `gorm:"size:80" json:"city"`
	State      string   `gorm:"size:80" json:"state"`
	PostalCode string   `gorm:"size:20;index" json:"postal_code"`
	Latitude   *float64 `json:"latitude"`
	Longitude  *float64 `json:"longitude"`

	Category *ServiceCategory `gorm:"foreignKey:CategoryID" json:"category,omitempty"`
}
