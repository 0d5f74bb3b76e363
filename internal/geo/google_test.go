package geo

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/localhq/localservices/pkg/errors"
)

func TestGoogleSearchPlacesFiltersClosedAndAdministrative(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "test-key", r.URL.Query().Get("key"))
		assert.Equal(t, "ca", r.URL.Query().Get("region"))
		assert.Contains(t, r.URL.Query().Get("query"), "Plumbing")

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"OK","results":[
			{"name":"Open Plumbing","formatted_address":"1 King St, Toronto","business_status":"OPERATIONAL",
			 "rating":4.5,"types":["plumber"],"geometry":{"location":{"lat":43.65,"lng":-79.38}}},
			{"name":"Closed Plumbing","business_status":"CLOSED_PERMANENTLY",
			 "types":["plumber"],"geometry":{"location":{"lat":43.66,"lng":-79.39}}},
			{"name":"Toronto","types":["locality","political"],
			 "geometry":{"location":{"lat":43.70,"lng":-79.42}}}
		]}`))
	}))
	defer server.Close()

	backend := NewGoogleBackend(GoogleConfig{
		APIKey:        "test-key",
		Region:        "CA",
		TextSearchURL: server.URL,
	})

	places, err := backend.SearchPlaces(context.Background(), Query{
		CategoryName: "Plumbing",
		Location:     Location{City: "Toronto", State: "ON", Country: "CA"},
	})
	require.NoError(t, err)
	require.Len(t, places, 1)

	assert.Equal(t, "Open Plumbing", places[0].Name)
	assert.Equal(t, SourceGoogle, places[0].Source)
	require.NotNil(t, places[0].Rating)
	assert.Equal(t, 4.5, *places[0].Rating)
}

func TestGoogleSearchPlacesZeroResults(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ZERO_RESULTS","results":[]}`))
	}))
	defer server.Close()

	backend := NewGoogleBackend(GoogleConfig{APIKey: "k", TextSearchURL: server.URL})

	places, err := backend.SearchPlaces(context.Background(), Query{CategoryName: "Plumbing"})
	require.NoError(t, err)
	assert.Empty(t, places)
}

func TestGoogleSearchPlacesSurfacesUpstreamError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"REQUEST_DENIED","error_message":"The provided API key is invalid."}`))
	}))
	defer server.Close()

	backend := NewGoogleBackend(GoogleConfig{APIKey: "bad", TextSearchURL: server.URL})

	_, err := backend.SearchPlaces(context.Background(), Query{CategoryName: "Plumbing"})
	require.Error(t, err)

	appErr := errors.FromError(err)
	assert.Equal(t, errors.ErrProviderNotConfigured.Code, appErr.Code)
	assert.Contains(t, appErr.Internal.Error(), "API key is invalid")
}

func TestGoogleSearchPlacesSortsByDistanceWithCoordinates(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.NotEmpty(t, r.URL.Query().Get("location"))
		assert.Equal(t, "20000", r.URL.Query().Get("radius"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"OK","results":[
			{"name":"Far","business_status":"OPERATIONAL","types":["plumber"],
			 "geometry":{"location":{"lat":43.90,"lng":-79.38}}},
			{"name":"Near","business_status":"OPERATIONAL","types":["plumber"],
			 "geometry":{"location":{"lat":43.66,"lng":-79.38}}}
		]}`))
	}))
	defer server.Close()

	backend := NewGoogleBackend(GoogleConfig{APIKey: "k", TextSearchURL: server.URL})

	lat, lng := 43.65, -79.38
	places, err := backend.SearchPlaces(context.Background(), Query{
		CategoryName: "Plumbing",
		Location:     Location{Latitude: &lat, Longitude: &lng},
		RadiusKm:     20,
	})
	require.NoError(t, err)
	require.Len(t, places, 2)
	assert.Equal(t, "Near", places[0].Name)
	assert.Equal(t, "Far", places[1].Name)
}

func TestGoogleGeocode(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "ca", r.URL.Query().Get("region"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"OK","results":[{
			"geometry":{"location":{"lat":45.42,"lng":-75.69}},
			"address_components":[
				{"long_name":"Ottawa","short_name":"Ottawa","types":["locality","political"]},
				{"long_name":"Ontario","short_name":"ON","types":["administrative_area_level_1","political"]},
				{"long_name":"K1P 5G3","short_name":"K1P 5G3","types":["postal_code"]},
				{"long_name":"Canada","short_name":"CA","types":["country","political"]}
			]}]}`))
	}))
	defer server.Close()

	backend := NewGoogleBackend(GoogleConfig{APIKey: "k", GeocodeURL: server.URL})

	point, err := backend.Geocode(context.Background(), Location{City: "Ottawa", State: "ON", Country: "CA"})
	require.NoError(t, err)
	require.NotNil(t, point)

	assert.InDelta(t, 45.42, point.Latitude, 0.001)
	assert.Equal(t, "Ottawa", point.City)
	assert.Equal(t, "ON", point.State)
	assert.Equal(t, "K1P 5G3", point.PostalCode)
	assert.Equal(t, "CA", point.Country)
}
