package app

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := LoadConfig(t.TempDir())
	require.NoError(t, err)

	require.Equal(t, 8000, cfg.Server.Port)
	require.False(t, cfg.Server.Debug)
	require.Equal(t, []string{"127.0.0.1", "localhost"}, cfg.Server.AllowedHosts)
	require.Equal(t, "sqlite", cfg.Database.Driver)
	require.Equal(t, "OSM", cfg.Providers.Backend)
	require.Equal(t, 15, cfg.Providers.OSM.DefaultRadiusKm)
	require.True(t, cfg.Startup.AutoMigrate)
	require.False(t, cfg.Startup.AutoSeedDemo)
}

func TestLoadConfig_DocumentedEnvironmentVariables(t *testing.T) {
	t.Setenv("SECRET_KEY", "s3cret")
	t.Setenv("DEBUG", "true")
	t.Setenv("ALLOWED_HOSTS", "example.com,www.example.com")
	t.Setenv("CSRF_TRUSTED_ORIGINS", "https://example.com")
	t.Setenv("SQLITE_PATH", "/var/data/db.sqlite3")
	t.Setenv("PROVIDER_BACKEND", "GOOGLE")
	t.Setenv("GOOGLE_MAPS_API_KEY", "key-123")
	t.Setenv("OSM_USER_AGENT", "local-services-prod")
	t.Setenv("OSM_CONTACT_EMAIL", "ops@example.com")
	t.Setenv("AUTO_MIGRATE_ON_STARTUP", "false")
	t.Setenv("AUTO_SEED_DEMO_ON_STARTUP", "true")

	cfg, err := LoadConfig(t.TempDir())
	require.NoError(t, err)

	require.Equal(t, "s3cret", cfg.Auth.SecretKey)
	require.True(t, cfg.Server.Debug)
	require.Equal(t, []string{"example.com", "www.example.com"}, cfg.Server.AllowedHosts)
	require.Equal(t, []string{"https://example.com"}, cfg.Server.CSRFTrustedOrigins)
	require.Equal(t, "/var/data/db.sqlite3", cfg.Database.Path)
	require.Equal(t, "GOOGLE", cfg.Providers.Backend)
	require.Equal(t, "key-123", cfg.Providers.Google.APIKey)
	require.Equal(t, "local-services-prod", cfg.Providers.OSM.UserAgent)
	require.Equal(t, "ops@example.com", cfg.Providers.OSM.ContactEmail)
	require.False(t, cfg.Startup.AutoMigrate)
	require.True(t, cfg.Startup.AutoSeedDemo)
}

func TestValidate_RequiresSecretKeyInProduction(t *testing.T) {
	cfg := &Config{}
	cfg.Server.Debug = false

	err := cfg.Validate()
	require.Error(t, err)
	require.Contains(t, err.Error(), "SECRET_KEY")

	cfg.Auth.SecretKey = "anything"
	require.NoError(t, cfg.Validate())
}

func TestValidate_AllowsMissingSecretInDebug(t *testing.T) {
	cfg := &Config{}
	cfg.Server.Debug = true
	require.NoError(t, cfg.Validate())
}

func TestValidate_RejectsUnknownBackend(t *testing.T) {
	cfg := &Config{}
	cfg.Server.Debug = true
	cfg.Providers.Backend = "BING"
	require.Error(t, cfg.Validate())
}

func TestEffectiveAllowedHosts_AppendsExternalHostname(t *testing.T) {
	cfg := &Config{}
	cfg.Server.AllowedHosts = []string{"localhost"}
	cfg.Server.ExternalHostname = "demo.onrender.com"

	hosts := cfg.EffectiveAllowedHosts()
	require.Equal(t, []string{"localhost", "demo.onrender.com"}, hosts)

	origins := cfg.EffectiveTrustedOrigins()
	require.Contains(t, origins, "https://demo.onrender.com")
}
