package geo

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeCAPostal(t *testing.T) {
	cases := map[string]string{
		"a1a1a1":   "A1A 1A1",
		"A1A 1A1":  "A1A 1A1",
		"m5v2t6":   "M5V 2T6",
		" k1p5g3 ": "K1P 5G3",
		"90210":    "90210",
		"":         "",
	}

	for input, want := range cases {
		assert.Equal(t, want, NormalizeCAPostal(input), "input %q", input)
	}
}

func TestProvinceFromPostal(t *testing.T) {
	assert.Equal(t, "ON", provinceFromPostal("M5V 2T6"))
	assert.Equal(t, "BC", provinceFromPostal("V6B 1A1"))
	assert.Equal(t, "QC", provinceFromPostal("H2Y 1C6"))
	assert.Equal(t, "AB", provinceFromPostal("t2p 1j9"))
	assert.Empty(t, provinceFromPostal(""))
}

func TestOSMGeocodePrefersMatchingProvince(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "ca", r.URL.Query().Get("countrycodes"))
		assert.Equal(t, "M5V 2T6", r.URL.Query().Get("postalcode"))
		assert.Equal(t, "geo@example.com", r.URL.Query().Get("email"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[
			{"lat":"40.0","lon":"-75.0","address":{"state":"Pennsylvania","country_code":"us"}},
			{"lat":"43.645","lon":"-79.395","address":{"city":"Toronto","state":"Ontario","postcode":"M5V 2T6","country_code":"ca"}}
		]`))
	}))
	defer server.Close()

	backend := NewOSMBackend(OSMConfig{
		NominatimURL: server.URL,
		ContactEmail: "geo@example.com",
	})

	point, err := backend.Geocode(context.Background(), Location{PostalCode: "m5v2t6"})
	require.NoError(t, err)
	require.NotNil(t, point)

	assert.InDelta(t, 43.645, point.Latitude, 0.001)
	assert.Equal(t, "Toronto", point.City)
	assert.Equal(t, "Ontario", point.State)
	assert.Equal(t, "CA", point.Country)
}

func TestOSMGeocodeNoResults(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[]`))
	}))
	defer server.Close()

	backend := NewOSMBackend(OSMConfig{NominatimURL: server.URL})

	point, err := backend.Geocode(context.Background(), Location{City: "Nowhereville", State: "ON"})
	require.NoError(t, err)
	assert.Nil(t, point)
}

func TestOSMGeocodeSkipsUpstreamForCoordinates(t *testing.T) {
	backend := NewOSMBackend(OSMConfig{NominatimURL: "http://127.0.0.1:1"})

	lat, lng := 45.42, -75.69
	point, err := backend.Geocode(context.Background(), Location{Latitude: &lat, Longitude: &lng})
	require.NoError(t, err)
	require.NotNil(t, point)
	assert.Equal(t, lat, point.Latitude)
}

func TestOSMSearchPlacesSortsByDistance(t *testing.T) {
	nominatim := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"lat":"43.6500","lon":"-79.3800","address":{"city":"Toronto","state":"Ontario","country_code":"ca"}}]`))
	}))
	defer nominatim.Close()

	overpass := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		query := r.PostForm.Get("data")
		assert.Contains(t, query, `"craft"="plumber"`)
		assert.Contains(t, query, "around:15000")

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"elements":[
			{"type":"node","lat":43.90,"lon":-79.38,"tags":{"name":"Far Plumbing","phone":"416-555-0199"}},
			{"type":"node","lat":43.66,"lon":-79.38,"tags":{"name":"Near Plumbing","website":"https://near.example"}},
			{"type":"way","center":{"lat":43.70,"lon":-79.40},"tags":{"name":"Mid Plumbing","addr:street":"Main St","addr:housenumber":"12","addr:city":"Toronto"}},
			{"type":"node","lat":43.60,"lon":-79.30,"tags":{}}
		]}`))
	}))
	defer overpass.Close()

	backend := NewOSMBackend(OSMConfig{
		NominatimURL: nominatim.URL,
		OverpassURL:  overpass.URL,
	})

	places, err := backend.SearchPlaces(context.Background(), Query{
		CategorySlug: "plumbing",
		Location:     Location{City: "Toronto", State: "ON"},
	})
	require.NoError(t, err)
	require.Len(t, places, 3)

	assert.Equal(t, "Near Plumbing", places[0].Name)
	assert.Equal(t, "Mid Plumbing", places[1].Name)
	assert.Equal(t, "Far Plumbing", places[2].Name)

	assert.Equal(t, "12 Main St, Toronto", places[1].Address)
	assert.Equal(t, SourceOSM, places[0].Source)
	require.NotNil(t, places[0].DistanceKm)
	assert.Less(t, *places[0].DistanceKm, *places[2].DistanceKm)
}

func TestOSMRetriesOnceOnOverload(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"lat":"43.65","lon":"-79.38","address":{"country_code":"ca"}}]`))
	}))
	defer server.Close()

	backend := NewOSMBackend(OSMConfig{NominatimURL: server.URL})

	point, err := backend.Geocode(context.Background(), Location{City: "Toronto"})
	require.NoError(t, err)
	require.NotNil(t, point)
	assert.EqualValues(t, 2, atomic.LoadInt32(&calls))
}

func TestOSMPersistentFailureIsProviderUnavailable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	backend := NewOSMBackend(OSMConfig{NominatimURL: server.URL})

	_, err := backend.Geocode(context.Background(), Location{City: "Toronto"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "temporarily unavailable")
}

func TestTagGroupsFallBackToCategoryName(t *testing.T) {
	groups := tagGroupsFor(Query{CategorySlug: "plumbing"})
	require.NotEmpty(t, groups)
	assert.Equal(t, "plumber", groups[0].Value)

	groups = tagGroupsFor(Query{CategorySlug: "welding", CategoryName: "Welding"})
	require.Len(t, groups, 2)
	assert.Equal(t, "welding", groups[0].Value)

	assert.Empty(t, tagGroupsFor(Query{}))
}
