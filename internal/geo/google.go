package geo

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/paulmach/orb"
	orbgeo "github.com/paulmach/orb/geo"
	"go.uber.org/zap"

	"github.com/localhq/localservices/pkg/errors"
	"github.com/localhq/localservices/pkg/logger"
	"github.com/localhq/localservices/pkg/metrics"
)

const (
	defaultPlacesTextSearchURL = "https://maps.googleapis.com/maps/api/place/textsearch/json"
	defaultGeocodeURL          = "https://maps.googleapis.com/maps/api/geocode/json"
)

// Place types that are never useful in a services directory.
var excludedGooglePlaceTypes = map[string]struct{}{
	"locality":                    {},
	"political":                   {},
	"postal_code":                 {},
	"route":                       {},
	"administrative_area_level_1": {},
	"administrative_area_level_2": {},
}

// GoogleConfig parameterises the Google Places backend.
type GoogleConfig struct {
	APIKey        string
	Region        string
	TextSearchURL string
	GeocodeURL    string
	HTTPClient    *http.Client
}

// GoogleBackend searches places with the Places Text Search API.
type GoogleBackend struct {
	apiKey        string
	region        string
	textSearchURL string
	geocodeURL    string
	client        *http.Client
	log           *zap.Logger
}

// NewGoogleBackend builds a Google backend. The API key must be validated by
// the caller before use.
func NewGoogleBackend(cfg GoogleConfig) *GoogleBackend {
	b := &GoogleBackend{
		apiKey:        cfg.APIKey,
		region:        strings.ToLower(cfg.Region),
		textSearchURL: cfg.TextSearchURL,
		geocodeURL:    cfg.GeocodeURL,
		client:        cfg.HTTPClient,
		log:           logger.WithModule("geo.google"),
	}

	if b.region == "" {
		b.region = "ca"
	}
	if b.textSearchURL == "" {
		b.textSearchURL = defaultPlacesTextSearchURL
	}
	if b.geocodeURL == "" {
		b.geocodeURL = defaultGeocodeURL
	}
	if b.client == nil {
		b.client = &http.Client{Timeout: 15 * time.Second}
	}

	return b
}

func (b *GoogleBackend) Name() string { return "GOOGLE" }

type googleGeocodeResponse struct {
	Status       string `json:"status"`
	ErrorMessage string `json:"error_message"`
	Results      []struct {
		Geometry struct {
			Location struct {
				Lat float64 `json:"lat"`
				Lng float64 `json:"lng"`
			} `json:"location"`
		} `json:"geometry"`
		AddressComponents []struct {
			LongName  string   `json:"long_name"`
			ShortName string   `json:"short_name"`
			Types     []string `json:"types"`
		} `json:"address_components"`
	} `json:"results"`
}

// Geocode resolves a location with the Geocoding API.
func (b *GoogleBackend) Geocode(ctx context.Context, loc Location) (*Point, error) {
	if loc.HasCoordinates() {
		return &Point{
			Latitude:   *loc.Latitude,
			Longitude:  *loc.Longitude,
			City:       loc.City,
			State:      loc.State,
			PostalCode: loc.PostalCode,
			Country:    loc.Country,
		}, nil
	}
	if loc.IsZero() {
		return nil, nil
	}

	address := locationQueryText(loc)

	params := url.Values{}
	params.Set("address", address)
	params.Set("region", b.region)
	params.Set("key", b.apiKey)

	var resp googleGeocodeResponse
	if err := b.getJSON(ctx, b.geocodeURL+"?"+params.Encode(), &resp); err != nil {
		return nil, err
	}

	switch resp.Status {
	case "OK":
	case "ZERO_RESULTS":
		return nil, nil
	default:
		return nil, googleStatusError(resp.Status, resp.ErrorMessage)
	}
	if len(resp.Results) == 0 {
		return nil, nil
	}

	first := resp.Results[0]
	point := &Point{
		Latitude:  first.Geometry.Location.Lat,
		Longitude: first.Geometry.Location.Lng,
		Country:   strings.ToUpper(loc.Country),
	}
	for _, component := range first.AddressComponents {
		for _, t := range component.Types {
			switch t {
			case "locality":
				point.City = component.LongName
			case "administrative_area_level_1":
				point.State = component.ShortName
			case "postal_code":
				point.PostalCode = component.LongName
			case "country":
				point.Country = component.ShortName
			}
		}
	}
	return point, nil
}

type googlePlacesResponse struct {
	Status       string `json:"status"`
	ErrorMessage string `json:"error_message"`
	Results      []struct {
		Name             string   `json:"name"`
		FormattedAddress string   `json:"formatted_address"`
		BusinessStatus   string   `json:"business_status"`
		Rating           *float64 `json:"rating"`
		Types            []string `json:"types"`
		Geometry         struct {
			Location struct {
				Lat float64 `json:"lat"`
				Lng float64 `json:"lng"`
			} `json:"location"`
		} `json:"geometry"`
	} `json:"results"`
}

// SearchPlaces runs a Places Text Search for the category near the location.
// Closed businesses and purely administrative results are filtered out.
func (b *GoogleBackend) SearchPlaces(ctx context.Context, q Query) ([]Place, error) {
	queryText := strings.TrimSpace(q.CategoryName)
	if queryText == "" {
		queryText = strings.ReplaceAll(q.CategorySlug, "-", " ")
	}
	if queryText == "" {
		return nil, nil
	}

	if near := locationQueryText(q.Location); near != "" {
		queryText = queryText + " near " + near
	}

	params := url.Values{}
	params.Set("query", queryText)
	params.Set("region", b.region)
	params.Set("key", b.apiKey)

	var origin *orb.Point
	if q.Location.HasCoordinates() {
		origin = &orb.Point{*q.Location.Longitude, *q.Location.Latitude}
		radiusKm := q.RadiusKm
		if radiusKm <= 0 {
			radiusKm = defaultRadiusKm
		}
		params.Set("location", fmt.Sprintf("%f,%f", *q.Location.Latitude, *q.Location.Longitude))
		params.Set("radius", fmt.Sprintf("%d", radiusKm*1000))
	}

	var resp googlePlacesResponse
	if err := b.getJSON(ctx, b.textSearchURL+"?"+params.Encode(), &resp); err != nil {
		metrics.ProviderRequests.WithLabelValues("GOOGLE", "error").Inc()
		return nil, err
	}

	switch resp.Status {
	case "OK":
	case "ZERO_RESULTS":
		metrics.ProviderRequests.WithLabelValues("GOOGLE", "ok").Inc()
		return nil, nil
	default:
		metrics.ProviderRequests.WithLabelValues("GOOGLE", "error").Inc()
		return nil, googleStatusError(resp.Status, resp.ErrorMessage)
	}
	metrics.ProviderRequests.WithLabelValues("GOOGLE", "ok").Inc()

	places := make([]Place, 0, len(resp.Results))
	for _, result := range resp.Results {
		if result.BusinessStatus != "" && result.BusinessStatus != "OPERATIONAL" {
			continue
		}
		if isExcludedGoogleType(result.Types) {
			continue
		}

		lat := result.Geometry.Location.Lat
		lng := result.Geometry.Location.Lng

		place := Place{
			Name:      result.Name,
			Address:   result.FormattedAddress,
			Latitude:  &lat,
			Longitude: &lng,
			Rating:    result.Rating,
			Source:    SourceGoogle,
		}
		if origin != nil {
			dist := orbgeo.Distance(*origin, orb.Point{lng, lat}) / 1000
			place.DistanceKm = &dist
		}
		places = append(places, place)
	}

	if origin != nil {
		sort.SliceStable(places, func(i, j int) bool {
			return *places[i].DistanceKm < *places[j].DistanceKm
		})
	}

	if q.Limit > 0 && len(places) > q.Limit {
		places = places[:q.Limit]
	}
	return places, nil
}

func isExcludedGoogleType(types []string) bool {
	if len(types) == 0 {
		return false
	}
	for _, t := range types {
		if _, excluded := excludedGooglePlaceTypes[t]; !excluded {
			return false
		}
	}
	return true
}

func locationQueryText(loc Location) string {
	parts := make([]string, 0, 3)
	if postal := NormalizeCAPostal(loc.PostalCode); postal != "" {
		parts = append(parts, postal)
	} else {
		if loc.City != "" {
			parts = append(parts, loc.City)
		}
		if loc.State != "" {
			parts = append(parts, loc.State)
		}
	}
	if loc.Country != "" {
		parts = append(parts, strings.ToUpper(loc.Country))
	}
	return strings.Join(parts, ", ")
}

func googleStatusError(status, message string) error {
	detail := status
	if message != "" {
		detail = fmt.Sprintf("%s: %s", status, message)
	}

	if status == "REQUEST_DENIED" || status == "INVALID_REQUEST" {
		return errors.ErrProviderNotConfigured.WithInternal(fmt.Errorf("google places: %s", detail))
	}
	return errors.ErrProviderUnavailable.WithInternal(fmt.Errorf("google places: %s", detail))
}

func (b *GoogleBackend) getJSON(ctx context.Context, rawURL string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return errors.ErrProviderUnavailable.WithInternal(err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := b.client.Do(req)
	if err != nil {
		return errors.ErrProviderUnavailable.WithInternal(err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
	if err != nil {
		return errors.ErrProviderUnavailable.WithInternal(err)
	}
	if resp.StatusCode != http.StatusOK {
		return errors.ErrProviderUnavailable.WithInternal(
			fmt.Errorf("upstream status %d from google places", resp.StatusCode))
	}

	if err := json.Unmarshal(data, out); err != nil {
		return errors.ErrProviderUnavailable.WithInternal(fmt.Errorf("decode upstream response: %w", err))
	}
	return nil
}
