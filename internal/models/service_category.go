package models

import (
	"strings"

	"gorm.io/gorm"
)

// ServiceCategory is a type of service users search for (plumber, mechanic, etc.).
type ServiceCategory struct {
	BaseModel

	Name      string `gorm:"size:80;uniqueIndex;not null" json:"name"`
	Slug      string `gorm:"size:100;uniqueIndex" json:"slug"`
	IsActive  bool   `gorm:"default:true;index" json:"is_active"`
	SortOrder int    `gorm:"default:100" json:"sort_order"`

	Providers []ServiceProvider `gorm:"foreignKey:CategoryID" json:"providers,omitempty"`
}

// BeforeSave derives the slug from the name when absent.
func (c *ServiceCategory) BeforeSave(tx *gorm.DB) error {
	if strings.TrimSpace(c.Slug) == "" {
		c.Slug = Slugify(c.Name)
	}
	return nil
}

// Slugify lowercases a name and collapses non-alphanumeric runs into hyphens.
func Slugify(name string) string {
	var b strings.Builder
	lastHyphen := true
	for _, r := range strings.ToLower(strings.TrimSpace(name)) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastHyphen = false
		default:
			if !lastHyphen {
				b.WriteByte('-')
				lastHyphen = true
			}
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}
