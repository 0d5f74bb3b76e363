// Package geo integrates the external place providers. Two backends are
// supported: OpenStreetMap (Nominatim geocoding plus Overpass place search)
// and Google Places. The active backend is resolved per request from the
// admin-stored setting, then the environment default, then OSM.
package geo

import (
	"context"
	"fmt"
	"strings"
)

// Source labels attached to results so callers can tell where a place came from.
const (
	SourceOSM    = "osm"
	SourceGoogle = "google"
)

// Location is the caller-supplied search area. Either a postal code, a
// city/state pair, or explicit coordinates must be present.
type Location struct {
	City       string
	State      string
	PostalCode string
	Country    string
	Latitude   *float64
	Longitude  *float64
}

// HasCoordinates reports whether the location carries an explicit point.
func (l Location) HasCoordinates() bool {
	return l.Latitude != nil && l.Longitude != nil
}

// IsZero reports whether no usable location information is present.
func (l Location) IsZero() bool {
	return !l.HasCoordinates() &&
		strings.TrimSpace(l.PostalCode) == "" &&
		strings.TrimSpace(l.City) == ""
}

// Query describes a place search against a backend.
type Query struct {
	CategorySlug string
	CategoryName string
	Location     Location
	RadiusKm     int
	Limit        int
}

// Point is a geocoded coordinate with the locality details the geocoder
// reported for it.
type Point struct {
	Latitude   float64 `json:"latitude"`
	Longitude  float64 `json:"longitude"`
	City       string  `json:"city,omitempty"`
	State      string  `json:"state,omitempty"`
	PostalCode string  `json:"postal_code,omitempty"`
	Country    string  `json:"country,omitempty"`
}

// Place is a single result returned by a backend.
type Place struct {
	Name       string   `json:"name"`
	Address    string   `json:"address,omitempty"`
	Phone      string   `json:"phone,omitempty"`
	Website    string   `json:"website,omitempty"`
	Latitude   *float64 `json:"latitude,omitempty"`
	Longitude  *float64 `json:"longitude,omitempty"`
	DistanceKm *float64 `json:"distance_km,omitempty"`
	Rating     *float64 `json:"rating,omitempty"`
	Source     string   `json:"source"`
}

// Backend is a place provider. Implementations must be safe for concurrent use.
type Backend interface {
	// Name returns the backend identifier (OSM or GOOGLE).
	Name() string

	// Geocode resolves a location to a coordinate, or nil when the
	// location cannot be resolved.
	Geocode(ctx context.Context, loc Location) (*Point, error)

	// SearchPlaces returns places matching the query, nearest first when
	// distances are known.
	SearchPlaces(ctx context.Context, q Query) ([]Place, error)
}

func cacheKey(parts ...string) string {
	return fmt.Sprintf("geo:%s", strings.Join(parts, ":"))
}
