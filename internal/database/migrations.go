package database

import (
	"gorm.io/gorm"

	"github.com/localhq/localservices/internal/models"
)

// AutoMigrate creates or updates the database schema for all models. Running
// it repeatedly is a no-op once the schema is current.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.UserProfile{},
		&models.ServiceCategory{},
		&models.ServiceProvider{},
		&models.ProviderSettings{},
		&models.ThemeSettings{},
		&models.AdUnit{},
		&models.SearchEvent{},
		&models.UsageEvent{},
		&models.SupportThread{},
		&models.SupportMessage{},
		&models.SystemSetting{},
		&models.CacheEntry{},
	)
}

// EnsureDefaults creates the singleton settings rows when missing so admin
// screens always have a record to edit.
func EnsureDefaults(db *gorm.DB) error {
	providerDefaults := models.ProviderSettings{ID: 1, GoogleRegion: "CA"}
	if err := db.Where(models.ProviderSettings{ID: 1}).
		Attrs(providerDefaults).
		FirstOrCreate(&models.ProviderSettings{}).Error; err != nil {
		return err
	}

	themeDefaults := models.ThemeSettings{
		ID:                  1,
		ColorScheme:         models.ColorSchemeMidnight,
		DarkMode:            true,
		GlassEffect:         true,
		BackgroundGradients: true,
	}
	if err := db.Where(models.ThemeSettings{ID: 1}).
		Attrs(themeDefaults).
		FirstOrCreate(&models.ThemeSettings{}).Error; err != nil {
		return err
	}

	return nil
}
