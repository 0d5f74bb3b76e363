package models

// ServiceProvider is a local business that offers a service category.
type ServiceProvider struct {
	BaseModel

	CategoryID string          `gorm:"type:uuid;not null;index:idx_providers_category_postal;index:idx_providers_category_city" json:"category_id"`
	Category   ServiceCategory `gorm:"foreignKey:CategoryID" json:"category,omitempty"`

	Name        string `gorm:"size:120;not null" json:"name"`
	Description string `json:"description"`

	Phone   string `gorm:"size:30" json:"phone"`
	Email   string `gorm:"size:254" json:"email"`
	Website string `gorm:"size:200" json:"website"`

	AddressLine1 string `gorm:"size:120" json:"address_line1"`
	AddressLine2 string `gorm:"size:120" json:"address_line2"`
	City         string `gorm:"size:80;index:idx_providers_category_city" json:"city"`
	State        string `gorm:"size:80" json:"state"`
	PostalCode   string `gorm:"size:20;index:idx_providers_category_postal" json:"postal_code"`
	Country      string `gorm:"size:80;default:CA" json:"country"`

	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`

	// Suggested providers surface in a separate rank-ordered section; lower
	// ranks show higher.
	IsSuggested   bool `gorm:"default:false;index:idx_providers_suggested" json:"is_suggested"`
	SuggestedRank int  `gorm:"default:100;index:idx_providers_suggested" json:"suggested_rank"`
	IsActive      bool `gorm:"default:true;index" json:"is_active"`
}
