package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/localhq/localservices/internal/app"
	"github.com/localhq/localservices/internal/auth"
	"github.com/localhq/localservices/internal/database/testutil"
	"github.com/localhq/localservices/internal/middleware"
)

func newTestRouter(t *testing.T) (*gorm.DB, http.Handler, *auth.JWTService) {
	t.Helper()

	db := testutil.MustOpenTestDB(t, testutil.WithSeedData())

	// Stub upstream so searches never leave the process.
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if r.Method == http.MethodPost {
			_, _ = w.Write([]byte(`{"elements":[]}`))
			return
		}
		_, _ = w.Write([]byte(`[]`))
	}))
	t.Cleanup(upstream.Close)

	cfg := &app.Config{}
	cfg.Server.Debug = true
	cfg.Server.AllowedHosts = []string{"*"}
	cfg.Monitoring.Health.Enabled = true
	cfg.Providers.OSM.NominatimURL = upstream.URL
	cfg.Providers.OSM.ReverseURL = upstream.URL
	cfg.Providers.OSM.OverpassURL = upstream.URL

	jwtService, err := auth.NewJWTService("router-test-secret", "localservices", time.Hour)
	require.NoError(t, err)

	return db, NewRouter(cfg, db, jwtService), jwtService
}

func doJSON(t *testing.T, handler http.Handler, method, path string, body any, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	for key, value := range headers {
		req.Header.Set(key, value)
	}

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func csrfHeaders(t *testing.T, handler http.Handler) map[string]string {
	t.Helper()

	rec := doJSON(t, handler, http.MethodGet, "/api/theme", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	for _, cookie := range rec.Result().Cookies() {
		if cookie.Name == middleware.CSRFCookieName {
			return map[string]string{
				"Cookie":                  cookie.Name + "=" + cookie.Value,
				middleware.CSRFHeaderName: cookie.Value,
			}
		}
	}
	t.Fatal("csrf cookie not issued")
	return nil
}

func loginAsAdmin(t *testing.T, handler http.Handler) string {
	t.Helper()

	headers := csrfHeaders(t, handler)
	rec := doJSON(t, handler, http.MethodPost, "/api/auth/login", map[string]string{
		"username": "admin",
		"password": "secret",
	}, headers)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var payload struct {
		Data struct {
			Token string `json:"token"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	require.NotEmpty(t, payload.Data.Token)
	return payload.Data.Token
}

func TestHealthEndpoints(t *testing.T) {
	_, handler, _ := newTestRouter(t)

	rec := doJSON(t, handler, http.MethodGet, "/healthz", nil, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, handler, http.MethodGet, "/readyz", nil, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"database":"up"`)
}

func TestPublicSearchReturnsSeededProviders(t *testing.T) {
	_, handler, _ := newTestRouter(t)

	rec := doJSON(t, handler, http.MethodGet, "/api/search?category=plumbing&city=Toronto&state=ON", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var payload struct {
		Success bool `json:"success"`
		Data    struct {
			Backend   string `json:"backend"`
			Suggested []struct {
				Name string `json:"name"`
			} `json:"suggested"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))

	assert.True(t, payload.Success)
	assert.Equal(t, "OSM", payload.Data.Backend)
	require.NotEmpty(t, payload.Data.Suggested)
	assert.Equal(t, "Maple Leaf Plumbing", payload.Data.Suggested[0].Name)
}

func TestPublicSearchRejectsOutOfRangeParameters(t *testing.T) {
	_, handler, _ := newTestRouter(t)

	rec := doJSON(t, handler, http.MethodGet, "/api/search?category=plumbing&lat=200&lng=0", nil, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())

	rec = doJSON(t, handler, http.MethodGet, "/api/search?category=plumbing&radius_km=1000", nil, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
}

func TestListCategories(t *testing.T) {
	_, handler, _ := newTestRouter(t)

	rec := doJSON(t, handler, http.MethodGet, "/api/categories", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "plumbing")
	assert.Contains(t, rec.Body.String(), "snow-removal")
}

func TestAdminEndpointsRequireAdminToken(t *testing.T) {
	_, handler, _ := newTestRouter(t)

	rec := doJSON(t, handler, http.MethodGet, "/api/admin/settings/provider", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	token := loginAsAdmin(t, handler)
	rec = doJSON(t, handler, http.MethodGet, "/api/admin/settings/provider", nil, map[string]string{
		"Authorization": "Bearer " + token,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), `"has_api_key":false`)
}

func TestAdminProviderBackendSwitchFlow(t *testing.T) {
	_, handler, _ := newTestRouter(t)
	token := loginAsAdmin(t, handler)

	headers := csrfHeaders(t, handler)
	headers["Authorization"] = "Bearer " + token

	// GOOGLE without a key anywhere is rejected.
	rec := doJSON(t, handler, http.MethodPut, "/api/admin/settings/provider", map[string]any{
		"backend": "GOOGLE",
	}, headers)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code, rec.Body.String())

	// With a stored key the switch succeeds and the key itself never leaks.
	rec = doJSON(t, handler, http.MethodPut, "/api/admin/settings/provider", map[string]any{
		"backend":             "GOOGLE",
		"google_maps_api_key": "secret-key",
	}, headers)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), `"backend":"GOOGLE"`)
	assert.Contains(t, rec.Body.String(), `"has_api_key":true`)
	assert.NotContains(t, rec.Body.String(), "secret-key")

	// Searches now report the GOOGLE backend.
	rec = doJSON(t, handler, http.MethodGet, "/api/search?category=plumbing&city=Toronto", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"backend":"GOOGLE"`)
}

func TestUnsafeRequestsNeedCSRFToken(t *testing.T) {
	_, handler, _ := newTestRouter(t)

	rec := doJSON(t, handler, http.MethodPost, "/api/auth/login", map[string]string{
		"username": "admin",
		"password": "secret",
	}, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestThemeEndpointIsPublic(t *testing.T) {
	_, handler, _ := newTestRouter(t)

	rec := doJSON(t, handler, http.MethodGet, "/api/theme", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"color_scheme":"midnight"`)
}

func TestAdPlacementReturnsNullWhenNothingEligible(t *testing.T) {
	_, handler, _ := newTestRouter(t)

	// Seeded units are disabled by default.
	rec := doJSON(t, handler, http.MethodGet, "/api/ads/home_inline_1", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var payload struct {
		Success bool            `json:"success"`
		Data    json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	assert.True(t, payload.Success)
}
