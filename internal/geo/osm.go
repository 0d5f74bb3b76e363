package geo

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"sort"
	"strconv"
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
	defaultNominatimURL = "https://nominatim.openstreetmap.org/search"
	defaultReverseURL   = "https://nominatim.openstreetmap.org/reverse"
	defaultOverpassURL  = "https://overpass-api.de/api/interpreter"
	defaultOSMUserAgent = "localservices/1.0"
	defaultRadiusKm     = 15
	maxRadiusKm         = 100
)

// OSMConfig parameterises the OpenStreetMap backend.
type OSMConfig struct {
	NominatimURL    string
	ReverseURL      string
	OverpassURL     string
	UserAgent       string
	ContactEmail    string
	DefaultRadiusKm int
	HTTPClient      *http.Client
}

// OSMBackend searches places with Nominatim geocoding and Overpass queries.
type OSMBackend struct {
	nominatimURL string
	reverseURL   string
	overpassURL  string
	userAgent    string
	contactEmail string
	radiusKm     int
	client       *http.Client
	log          *zap.Logger
}

// NewOSMBackend builds an OSM backend, applying defaults for unset options.
func NewOSMBackend(cfg OSMConfig) *OSMBackend {
	b := &OSMBackend{
		nominatimURL: cfg.NominatimURL,
		reverseURL:   cfg.ReverseURL,
		overpassURL:  cfg.OverpassURL,
		userAgent:    cfg.UserAgent,
		contactEmail: cfg.ContactEmail,
		radiusKm:     cfg.DefaultRadiusKm,
		client:       cfg.HTTPClient,
		log:          logger.WithModule("geo.osm"),
	}

	if b.nominatimURL == "" {
		b.nominatimURL = defaultNominatimURL
	}
	if b.reverseURL == "" {
		b.reverseURL = defaultReverseURL
	}
	if b.overpassURL == "" {
		b.overpassURL = defaultOverpassURL
	}
	if b.userAgent == "" {
		b.userAgent = defaultOSMUserAgent
	}
	if b.radiusKm <= 0 {
		b.radiusKm = defaultRadiusKm
	}
	if b.client == nil {
		b.client = &http.Client{Timeout: 15 * time.Second}
	}

	return b
}

func (b *OSMBackend) Name() string { return "OSM" }

var caPostalPattern = regexp.MustCompile(`^[A-Z]\d[A-Z]\s?\d[A-Z]\d$`)

// NormalizeCAPostal canonicalises Canadian postal codes to the spaced
// uppercase form ("a1a1a1" becomes "A1A 1A1"). Inputs that do not look like
// Canadian postal codes are returned trimmed and uppercased.
func NormalizeCAPostal(postal string) string {
	cleaned := strings.ToUpper(strings.Join(strings.Fields(postal), ""))
	if len(cleaned) == 6 && caPostalPattern.MatchString(cleaned[:3]+" "+cleaned[3:]) {
		return cleaned[:3] + " " + cleaned[3:]
	}
	if caPostalPattern.MatchString(cleaned) {
		return cleaned
	}
	return strings.ToUpper(strings.TrimSpace(postal))
}

// provinceFromPostal infers a Canadian province from the postal code's
// forward sortation area letter.
var provinceByPostalLetter = map[byte]string{
	'A': "NL",
	'B': "NS",
	'C': "PE",
	'E': "NB",
	'G': "QC",
	'H': "QC",
	'J': "QC",
	'K': "ON",
	'L': "ON",
	'M': "ON",
	'N': "ON",
	'P': "ON",
	'R': "MB",
	'S': "SK",
	'T': "AB",
	'V': "BC",
	'X': "NT",
	'Y': "YT",
}

func provinceFromPostal(postal string) string {
	postal = strings.ToUpper(strings.TrimSpace(postal))
	if postal == "" {
		return ""
	}
	return provinceByPostalLetter[postal[0]]
}

type nominatimResult struct {
	Lat     string `json:"lat"`
	Lon     string `json:"lon"`
	Address struct {
		City        string `json:"city"`
		Town        string `json:"town"`
		Village     string `json:"village"`
		State       string `json:"state"`
		Postcode    string `json:"postcode"`
		Country     string `json:"country"`
		CountryCode string `json:"country_code"`
	} `json:"address"`
}

// Geocode resolves a location with Nominatim, biased to Canada. The best
// result is the first one matching the requested country and, when known,
// the requested or inferred province.
func (b *OSMBackend) Geocode(ctx context.Context, loc Location) (*Point, error) {
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

	country := strings.ToUpper(strings.TrimSpace(loc.Country))
	if country == "" {
		country = "CA"
	}

	params := url.Values{}
	params.Set("format", "jsonv2")
	params.Set("addressdetails", "1")
	params.Set("limit", "5")
	params.Set("countrycodes", strings.ToLower(country))
	if b.contactEmail != "" {
		params.Set("email", b.contactEmail)
	}

	wantState := strings.TrimSpace(loc.State)
	postal := NormalizeCAPostal(loc.PostalCode)
	if postal != "" {
		params.Set("postalcode", postal)
		params.Set("country", country)
		if wantState == "" {
			wantState = provinceFromPostal(postal)
		}
	} else {
		params.Set("city", loc.City)
		params.Set("country", country)
		if wantState != "" {
			params.Set("state", wantState)
		}
	}

	var results []nominatimResult
	if err := b.getJSON(ctx, b.nominatimURL+"?"+params.Encode(), &results); err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return nil, nil
	}

	best := pickBestNominatim(results, country, wantState)

	lat, err := strconv.ParseFloat(best.Lat, 64)
	if err != nil {
		return nil, fmt.Errorf("geocode: parse latitude %q: %w", best.Lat, err)
	}
	lng, err := strconv.ParseFloat(best.Lon, 64)
	if err != nil {
		return nil, fmt.Errorf("geocode: parse longitude %q: %w", best.Lon, err)
	}

	point := &Point{
		Latitude:   lat,
		Longitude:  lng,
		City:       firstNonEmpty(best.Address.City, best.Address.Town, best.Address.Village, loc.City),
		State:      firstNonEmpty(best.Address.State, wantState),
		PostalCode: firstNonEmpty(best.Address.Postcode, postal),
		Country:    firstNonEmpty(strings.ToUpper(best.Address.CountryCode), country),
	}
	return point, nil
}

func pickBestNominatim(results []nominatimResult, country, state string) nominatimResult {
	country = strings.ToLower(country)
	state = strings.ToLower(state)

	bestScore := -1
	best := results[0]
	for _, r := range results {
		score := 0
		if strings.ToLower(r.Address.CountryCode) == country {
			score += 2
		}
		if state != "" && strings.Contains(strings.ToLower(r.Address.State), state) {
			score++
		}
		if score > bestScore {
			bestScore = score
			best = r
		}
	}
	return best
}

// ReverseGeocode resolves a coordinate to locality details.
func (b *OSMBackend) ReverseGeocode(ctx context.Context, lat, lng float64) (*Point, error) {
	params := url.Values{}
	params.Set("format", "jsonv2")
	params.Set("addressdetails", "1")
	params.Set("lat", strconv.FormatFloat(lat, 'f', -1, 64))
	params.Set("lon", strconv.FormatFloat(lng, 'f', -1, 64))
	if b.contactEmail != "" {
		params.Set("email", b.contactEmail)
	}

	var result nominatimResult
	if err := b.getJSON(ctx, b.reverseURL+"?"+params.Encode(), &result); err != nil {
		return nil, err
	}

	return &Point{
		Latitude:   lat,
		Longitude:  lng,
		City:       firstNonEmpty(result.Address.City, result.Address.Town, result.Address.Village),
		State:      result.Address.State,
		PostalCode: result.Address.Postcode,
		Country:    strings.ToUpper(result.Address.CountryCode),
	}, nil
}

// tagGroup is a set of OSM key/value selectors that together describe one
// service category.
type tagGroup struct {
	Key   string
	Value string
}

var categoryTagGroups = map[string][]tagGroup{
	"plumbing":     {{"craft", "plumber"}, {"shop", "plumbing"}},
	"electrical":   {{"craft", "electrician"}, {"shop", "electrical"}},
	"hvac":         {{"craft", "hvac"}, {"shop", "hvac"}},
	"roofing":      {{"craft", "roofer"}},
	"landscaping":  {{"craft", "gardener"}, {"shop", "garden_centre"}},
	"cleaning":     {{"shop", "laundry"}, {"craft", "cleaning"}},
	"moving":       {{"office", "moving_company"}},
	"painting":     {{"craft", "painter"}},
	"handyman":     {{"craft", "handicraft"}, {"office", "handyman"}},
	"pest-control": {{"shop", "pest_control"}, {"craft", "pest_control"}},
	"snow-removal": {{"service", "snow_removal"}},
	"locksmith":    {{"craft", "locksmith"}, {"shop", "locksmith"}},
	"towing":       {{"service", "vehicle:towing"}},
	"auto-repair":  {{"shop", "car_repair"}},
}

func tagGroupsFor(q Query) []tagGroup {
	if groups, ok := categoryTagGroups[strings.ToLower(strings.TrimSpace(q.CategorySlug))]; ok {
		return groups
	}
	// Fall back to a name match so unmapped categories still return data.
	name := strings.ToLower(strings.TrimSpace(q.CategoryName))
	if name == "" {
		name = strings.ReplaceAll(strings.ToLower(q.CategorySlug), "-", " ")
	}
	if name == "" {
		return nil
	}
	return []tagGroup{{"craft", name}, {"shop", name}}
}

type overpassResponse struct {
	Elements []struct {
		Type   string  `json:"type"`
		Lat    float64 `json:"lat"`
		Lon    float64 `json:"lon"`
		Center *struct {
			Lat float64 `json:"lat"`
			Lon float64 `json:"lon"`
		} `json:"center"`
		Tags map[string]string `json:"tags"`
	} `json:"elements"`
}

// SearchPlaces geocodes the query location and runs an around-radius
// Overpass query for the category's tag groups. Results are sorted nearest
// first.
func (b *OSMBackend) SearchPlaces(ctx context.Context, q Query) ([]Place, error) {
	groups := tagGroupsFor(q)
	if len(groups) == 0 {
		return nil, nil
	}

	point, err := b.Geocode(ctx, q.Location)
	if err != nil {
		return nil, err
	}
	if point == nil {
		return nil, nil
	}

	radiusKm := q.RadiusKm
	if radiusKm <= 0 {
		radiusKm = b.radiusKm
	}
	if radiusKm > maxRadiusKm {
		radiusKm = maxRadiusKm
	}
	radiusM := radiusKm * 1000

	var sb strings.Builder
	sb.WriteString("[out:json][timeout:25];(")
	for _, g := range groups {
		for _, elem := range []string{"node", "way"} {
			fmt.Fprintf(&sb, `%s["%s"="%s"](around:%d,%f,%f);`,
				elem, g.Key, g.Value, radiusM, point.Latitude, point.Longitude)
		}
	}
	sb.WriteString(");out center tags;")

	var resp overpassResponse
	if err := b.postForm(ctx, b.overpassURL, url.Values{"data": {sb.String()}}, &resp); err != nil {
		metrics.ProviderRequests.WithLabelValues("OSM", "error").Inc()
		return nil, err
	}
	metrics.ProviderRequests.WithLabelValues("OSM", "ok").Inc()

	origin := orb.Point{point.Longitude, point.Latitude}
	places := make([]Place, 0, len(resp.Elements))
	seen := make(map[string]struct{})

	for _, elem := range resp.Elements {
		name := elem.Tags["name"]
		if name == "" {
			continue
		}

		lat, lng := elem.Lat, elem.Lon
		if elem.Center != nil {
			lat, lng = elem.Center.Lat, elem.Center.Lon
		}
		if lat == 0 && lng == 0 {
			continue
		}

		dedupeKey := fmt.Sprintf("%s|%.5f|%.5f", strings.ToLower(name), lat, lng)
		if _, ok := seen[dedupeKey]; ok {
			continue
		}
		seen[dedupeKey] = struct{}{}

		distKm := orbgeo.Distance(origin, orb.Point{lng, lat}) / 1000
		latCopy, lngCopy := lat, lng

		places = append(places, Place{
			Name:       name,
			Address:    osmAddress(elem.Tags),
			Phone:      firstNonEmpty(elem.Tags["phone"], elem.Tags["contact:phone"]),
			Website:    firstNonEmpty(elem.Tags["website"], elem.Tags["contact:website"]),
			Latitude:   &latCopy,
			Longitude:  &lngCopy,
			DistanceKm: &distKm,
			Source:     SourceOSM,
		})
	}

	sort.SliceStable(places, func(i, j int) bool {
		return *places[i].DistanceKm < *places[j].DistanceKm
	})

	if q.Limit > 0 && len(places) > q.Limit {
		places = places[:q.Limit]
	}
	return places, nil
}

func osmAddress(tags map[string]string) string {
	parts := make([]string, 0, 4)
	if num, street := tags["addr:housenumber"], tags["addr:street"]; street != "" {
		if num != "" {
			parts = append(parts, num+" "+street)
		} else {
			parts = append(parts, street)
		}
	}
	if city := tags["addr:city"]; city != "" {
		parts = append(parts, city)
	}
	if state := tags["addr:province"]; state != "" {
		parts = append(parts, state)
	}
	if postal := tags["addr:postcode"]; postal != "" {
		parts = append(parts, postal)
	}
	return strings.Join(parts, ", ")
}

func (b *OSMBackend) getJSON(ctx context.Context, rawURL string, out any) error {
	return b.doJSON(ctx, http.MethodGet, rawURL, "", nil, out)
}

func (b *OSMBackend) postForm(ctx context.Context, rawURL string, form url.Values, out any) error {
	body := form.Encode()
	return b.doJSON(ctx, http.MethodPost, rawURL, "application/x-www-form-urlencoded", strings.NewReader(body), out)
}

// doJSON issues the request, retrying once when the upstream signals
// transient overload.
func (b *OSMBackend) doJSON(ctx context.Context, method, rawURL, contentType string, body io.Reader, out any) error {
	var payload []byte
	if body != nil {
		data, err := io.ReadAll(body)
		if err != nil {
			return err
		}
		payload = data
	}

	attempt := func() (int, []byte, error) {
		var reader io.Reader
		if payload != nil {
			reader = strings.NewReader(string(payload))
		}

		req, err := http.NewRequestWithContext(ctx, method, rawURL, reader)
		if err != nil {
			return 0, nil, err
		}
		req.Header.Set("User-Agent", b.userAgent)
		req.Header.Set("Accept", "application/json")
		if contentType != "" {
			req.Header.Set("Content-Type", contentType)
		}

		resp, err := b.client.Do(req)
		if err != nil {
			return 0, nil, err
		}
		defer resp.Body.Close()

		data, err := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
		if err != nil {
			return resp.StatusCode, nil, err
		}
		return resp.StatusCode, data, nil
	}

	status, data, err := attempt()
	if err == nil && isRetryableStatus(status) {
		b.log.Warn("upstream returned retryable status, retrying once",
			zap.Int("status", status),
			zap.String("url", rawURL))
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(500 * time.Millisecond):
		}
		status, data, err = attempt()
	}
	if err != nil {
		return errors.ErrProviderUnavailable.WithInternal(err)
	}
	if status != http.StatusOK {
		return errors.ErrProviderUnavailable.WithInternal(
			fmt.Errorf("upstream status %d from %s", status, rawURL))
	}

	if err := json.Unmarshal(data, out); err != nil {
		return errors.ErrProviderUnavailable.WithInternal(fmt.Errorf("decode upstream response: %w", err))
	}
	return nil
}

func isRetryableStatus(status int) bool {
	switch status {
	case http.StatusTooManyRequests,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	}
	return false
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
