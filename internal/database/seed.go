package database

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/localhq/localservices/internal/models"
	"github.com/localhq/localservices/pkg/crypto"
	"github.com/localhq/localservices/pkg/logger"
)

// SeedOptions controls the demo data created by SeedDemoData.
type SeedOptions struct {
	AdminUsername string
	AdminPassword string
}

type seedCategory struct {
	Name      string
	SortOrder int
}

var demoCategories = []seedCategory{
	{Name: "Plumbing", SortOrder: 10},
	{Name: "Electrical", SortOrder: 20},
	{Name: "HVAC", SortOrder: 30},
	{Name: "Roofing", SortOrder: 40},
	{Name: "Landscaping", SortOrder: 50},
	{Name: "Cleaning", SortOrder: 60},
	{Name: "Moving", SortOrder: 70},
	{Name: "Painting", SortOrder: 80},
	{Name: "Handyman", SortOrder: 90},
	{Name: "Pest Control", SortOrder: 100},
	{Name: "Snow Removal", SortOrder: 110},
}

type seedProvider struct {
	Category    string
	Name        string
	Phone       string
	City        string
	State       string
	PostalCode  string
	IsSuggested bool
	Rank        int
}

var demoProviders = []seedProvider{
	{Category: "Plumbing", Name: "Maple Leaf Plumbing", Phone: "416-555-0101", City: "Toronto", State: "ON", PostalCode: "M5V 2T6", IsSuggested: true, Rank: 10},
	{Category: "Plumbing", Name: "Northern Pipe Works", Phone: "604-555-0102", City: "Vancouver", State: "BC", PostalCode: "V6B 1A1"},
	{Category: "Electrical", Name: "Bright Spark Electric", Phone: "514-555-0103", City: "Montreal", State: "QC", PostalCode: "H2Y 1C6", IsSuggested: true, Rank: 10},
	{Category: "HVAC", Name: "True North Heating", Phone: "403-555-0104", City: "Calgary", State: "AB", PostalCode: "T2P 1J9"},
	{Category: "Cleaning", Name: "Fresh Start Cleaners", Phone: "613-555-0105", City: "Ottawa", State: "ON", PostalCode: "K1P 5G3", IsSuggested: true, Rank: 20},
	{Category: "Landscaping", Name: "Prairie Green Landscapes", Phone: "204-555-0106", City: "Winnipeg", State: "MB", PostalCode: "R3C 0V8"},
}

// SeedDemoData populates the database with a demo administrator, a starter
// category set, a handful of providers and two placeholder ad units. Each
// record is get-or-create so repeated runs never duplicate rows.
func SeedDemoData(db *gorm.DB, opts SeedOptions) error {
	log := logger.WithModule("database.seed")

	if opts.AdminUsername == "" {
		opts.AdminUsername = "admin"
	}
	if opts.AdminPassword == "" {
		opts.AdminPassword = "secret"
	}

	hash, err := crypto.HashPassword(opts.AdminPassword)
	if err != nil {
		return fmt.Errorf("seed: hash admin password: %w", err)
	}

	admin := models.User{
		Username:     opts.AdminUsername,
		PasswordHash: hash,
		IsAdmin:      true,
		IsActive:     true,
	}
	if err := db.Where(models.User{Username: opts.AdminUsername}).
		Attrs(admin).
		FirstOrCreate(&models.User{}).Error; err != nil {
		return fmt.Errorf("seed: admin user: %w", err)
	}

	categoryIDs := make(map[string]string, len(demoCategories))
	for _, c := range demoCategories {
		record := models.ServiceCategory{}
		attrs := models.ServiceCategory{
			Name:      c.Name,
			Slug:      models.Slugify(c.Name),
			IsActive:  true,
			SortOrder: c.SortOrder,
		}
		if err := db.Where(models.ServiceCategory{Slug: attrs.Slug}).
			Attrs(attrs).
			FirstOrCreate(&record).Error; err != nil {
			return fmt.Errorf("seed: category %q: %w", c.Name, err)
		}
		categoryIDs[c.Name] = record.ID
	}

	for _, p := range demoProviders {
		categoryID, ok := categoryIDs[p.Category]
		if !ok {
			continue
		}

		rank := p.Rank
		if rank == 0 {
			rank = 100
		}

		attrs := models.ServiceProvider{
			CategoryID:    categoryID,
			Name:          p.Name,
			Phone:         p.Phone,
			City:          p.City,
			State:         p.State,
			PostalCode:    p.PostalCode,
			Country:       "CA",
			IsSuggested:   p.IsSuggested,
			SuggestedRank: rank,
			IsActive:      true,
		}
		if err := db.Where(models.ServiceProvider{CategoryID: categoryID, Name: p.Name}).
			Attrs(attrs).
			FirstOrCreate(&models.ServiceProvider{}).Error; err != nil {
			return fmt.Errorf("seed: provider %q: %w", p.Name, err)
		}
	}

	adUnits := []models.AdUnit{
		{
			Placement: models.AdPlacementHomeInline1,
			Headline:  "Grow your local business",
			Body:      "Reach nearby customers searching for services like yours.",
			TargetURL: "https://example.com/advertise",
			IsEnabled: false,
			Priority:  100,
		},
		{
			Placement: models.AdPlacementDashboardInline1,
			Headline:  "Need more leads?",
			Body:      "Feature your listing at the top of search results.",
			TargetURL: "https://example.com/featured",
			IsEnabled: false,
			Priority:  100,
		},
	}
	for _, unit := range adUnits {
		if err := db.Where(models.AdUnit{Placement: unit.Placement, Headline: unit.Headline}).
			Attrs(unit).
			FirstOrCreate(&models.AdUnit{}).Error; err != nil {
			return fmt.Errorf("seed: ad unit %q: %w", unit.Placement, err)
		}
	}

	log.Info("demo data seeded")
	return nil
}
