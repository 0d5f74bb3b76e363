package app

import (
	"errors"
	"fmt"
	"strings"
	"time"

	mapstructure "github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"
)

// Config represents the runtime configuration for the local services backend.
type Config struct {
	Server      ServerConfig      `mapstructure:"server"`
	Database    DatabaseConfig    `mapstructure:"database"`
	Auth        AuthConfig        `mapstructure:"auth"`
	Providers   ProvidersConfig   `mapstructure:"providers"`
	Startup     StartupConfig     `mapstructure:"startup"`
	Backup      BackupConfig      `mapstructure:"backup"`
	Maintenance MaintenanceConfig `mapstructure:"maintenance"`
	Monitoring  MonitoringConfig  `mapstructure:"monitoring"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Port     int    `mapstructure:"port"`
	Debug    bool   `mapstructure:"debug"`
	LogLevel string `mapstructure:"log_level"`

	// AllowedHosts is the host allow-list: requests whose Host is not
	// listed are rejected before reaching any handler.
	AllowedHosts []string `mapstructure:"allowed_hosts"`

	// ExternalHostname is appended to the host allow-list and the trusted
	// origins when set (Render populates RENDER_EXTERNAL_HOSTNAME).
	ExternalHostname string `mapstructure:"external_hostname"`

	CSRFTrustedOrigins []string `mapstructure:"csrf_trusted_origins"`
}

// DatabaseConfig describes connection options for the supported databases.
type DatabaseConfig struct {
	Driver   string       `mapstructure:"driver"`
	Path     string       `mapstructure:"path"`
	DSN      string       `mapstructure:"dsn"`
	Postgres DBAuthConfig `mapstructure:"postgres"`
	MySQL    DBAuthConfig `mapstructure:"mysql"`
}

// DBAuthConfig represents host based database parameters.
type DBAuthConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Database string `mapstructure:"database"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
}

// AuthConfig captures signing and session settings for the admin surface.
type AuthConfig struct {
	// SecretKey signs access tokens. Required when server.debug is false.
	SecretKey      string        `mapstructure:"secret_key"`
	Issuer         string        `mapstructure:"issuer"`
	AccessTokenTTL time.Duration `mapstructure:"access_token_ttl"`
}

// ProvidersConfig selects and parameterises the external places backends.
type ProvidersConfig struct {
	// Backend is the environment-level default; an admin-stored setting
	// takes precedence at call time.
	Backend string       `mapstructure:"backend"`
	OSM     OSMConfig    `mapstructure:"osm"`
	Google  GoogleConfig `mapstructure:"google"`
}

// OSMConfig parameterises the Nominatim/Overpass backend.
type OSMConfig struct {
	UserAgent       string `mapstructure:"user_agent"`
	ContactEmail    string `mapstructure:"contact_email"`
	NominatimURL    string `mapstructure:"nominatim_url"`
	ReverseURL      string `mapstructure:"reverse_url"`
	OverpassURL     string `mapstructure:"overpass_url"`
	DefaultRadiusKm int    `mapstructure:"default_radius_km"`
}

// GoogleConfig parameterises the Google Places backend.
type GoogleConfig struct {
	APIKey string `mapstructure:"api_key"`
	Region string `mapstructure:"region"`
}

// StartupConfig controls optional startup side effects. Both toggles are
// demo-safe conveniences and safe to run repeatedly.
type StartupConfig struct {
	AutoMigrate  bool `mapstructure:"auto_migrate"`
	AutoSeedDemo bool `mapstructure:"auto_seed_demo"`

	DemoAdminUsername string `mapstructure:"demo_admin_username"`
	DemoAdminPassword string `mapstructure:"demo_admin_password"`
}

// BackupConfig controls the archive routine and its optional schedule/upload.
type BackupConfig struct {
	// Schedule is a cron spec; empty disables in-process scheduled backups.
	Schedule  string   `mapstructure:"schedule"`
	SourceDir string   `mapstructure:"source_dir"`
	S3        S3Config `mapstructure:"s3"`
}

// S3Config describes an optional S3-compatible destination for archives.
type S3Config struct {
	Enabled   bool   `mapstructure:"enabled"`
	Endpoint  string `mapstructure:"endpoint"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	Bucket    string `mapstructure:"bucket"`
	UseSSL    bool   `mapstructure:"use_ssl"`
}

// MaintenanceConfig tunes background cleanup jobs.
type MaintenanceConfig struct {
	AnalyticsRetentionDays int    `mapstructure:"analytics_retention_days"`
	CleanupSchedule        string `mapstructure:"cleanup_schedule"`
}

// MonitoringConfig enables health checks and metrics.
type MonitoringConfig struct {
	Prometheus PrometheusConfig `mapstructure:"prometheus"`
	Health     HealthConfig     `mapstructure:"health_check"`
}

// PrometheusConfig toggles metrics endpoints.
type PrometheusConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Endpoint string `mapstructure:"endpoint"`
}

// HealthConfig toggles health endpoints.
type HealthConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

// LoadConfig initialises application configuration using Viper with sensible
// defaults, an optional config.yaml, and the documented environment variables.
func LoadConfig(paths ...string) (*Config, error) {
	v := viper.NewWithOptions(viper.ExperimentalBindStruct())
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	v.AddConfigPath("./config")
	for _, path := range paths {
		v.AddConfigPath(path)
	}

	setDefaults(v)
	bindEnvironment(v)

	v.SetEnvPrefix("LOCALSERVICES")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var cfgErr viper.ConfigFileNotFoundError
		if !errors.As(err, &cfgErr) {
			return nil, fmt.Errorf("config: read file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config, decodeHook()); err != nil {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}

	return &config, nil
}

// Validate fails fast on configuration the process cannot safely run with.
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("config is nil")
	}

	if !c.Server.Debug && strings.TrimSpace(c.Auth.SecretKey) == "" {
		return errors.New("config: SECRET_KEY must be set when DEBUG is false")
	}

	switch strings.ToUpper(strings.TrimSpace(c.Providers.Backend)) {
	case "", "OSM", "GOOGLE":
	default:
		return fmt.Errorf("config: unknown PROVIDER_BACKEND %q", c.Providers.Backend)
	}

	return nil
}

// EffectiveAllowedHosts merges the configured allow-list with the external
// hostname supplied by the hosting platform.
func (c *Config) EffectiveAllowedHosts() []string {
	hosts := make([]string, 0, len(c.Server.AllowedHosts)+1)
	for _, h := range c.Server.AllowedHosts {
		h = strings.TrimSpace(h)
		if h != "" {
			hosts = append(hosts, h)
		}
	}

	external := strings.TrimSpace(c.Server.ExternalHostname)
	if external != "" && !containsFold(hosts, external) {
		hosts = append(hosts, external)
	}

	return hosts
}

// EffectiveTrustedOrigins merges CSRF_TRUSTED_ORIGINS with the https origin
// derived from the external hostname.
func (c *Config) EffectiveTrustedOrigins() []string {
	origins := make([]string, 0, len(c.Server.CSRFTrustedOrigins)+1)
	for _, o := range c.Server.CSRFTrustedOrigins {
		o = strings.TrimSpace(o)
		if o != "" {
			origins = append(origins, o)
		}
	}

	external := strings.TrimSpace(c.Server.ExternalHostname)
	if external != "" {
		origin := "https://" + external
		if !containsFold(origins, origin) {
			origins = append(origins, origin)
		}
	}

	return origins
}

func containsFold(values []string, target string) bool {
	for _, v := range values {
		if strings.EqualFold(v, target) {
			return true
		}
	}
	return false
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8000)
	v.SetDefault("server.debug", false)
	v.SetDefault("server.log_level", "info")
	v.SetDefault("server.allowed_hosts", []string{"127.0.0.1", "localhost"})
	v.SetDefault("server.external_hostname", "")
	v.SetDefault("server.csrf_trusted_origins", []string{})

	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.path", "./data/localservices.sqlite")

	v.SetDefault("auth.issuer", "localservices")
	v.SetDefault("auth.access_token_ttl", "15m")

	v.SetDefault("providers.backend", "OSM")
	v.SetDefault("providers.osm.user_agent", "local-services-local-dev")
	v.SetDefault("providers.osm.contact_email", "")
	v.SetDefault("providers.osm.nominatim_url", "https://nominatim.openstreetmap.org/search")
	v.SetDefault("providers.osm.reverse_url", "https://nominatim.openstreetmap.org/reverse")
	v.SetDefault("providers.osm.overpass_url", "https://overpass-api.de/api/interpreter")
	v.SetDefault("providers.osm.default_radius_km", 15)
	v.SetDefault("providers.google.api_key", "")
	v.SetDefault("providers.google.region", "CA")

	v.SetDefault("startup.auto_migrate", true)
	v.SetDefault("startup.auto_seed_demo", false)
	v.SetDefault("startup.demo_admin_username", "admin")
	v.SetDefault("startup.demo_admin_password", "secret")

	v.SetDefault("backup.schedule", "")
	v.SetDefault("backup.source_dir", ".")
	v.SetDefault("backup.s3.enabled", false)
	v.SetDefault("backup.s3.use_ssl", true)

	v.SetDefault("maintenance.analytics_retention_days", 365)
	v.SetDefault("maintenance.cleanup_schedule", "@daily")

	v.SetDefault("monitoring.prometheus.enabled", true)
	v.SetDefault("monitoring.prometheus.endpoint", "/metrics")
	v.SetDefault("monitoring.health_check.enabled", true)
}

// bindEnvironment maps the documented deployment variables onto config keys.
// These names form the process boundary contract and must keep working.
func bindEnvironment(v *viper.Viper) {
	bindings := map[string]string{
		"auth.secret_key":                 "SECRET_KEY",
		"server.debug":                    "DEBUG",
		"server.port":                     "PORT",
		"server.allowed_hosts":            "ALLOWED_HOSTS",
		"server.external_hostname":        "RENDER_EXTERNAL_HOSTNAME",
		"server.csrf_trusted_origins":     "CSRF_TRUSTED_ORIGINS",
		"database.path":                   "SQLITE_PATH",
		"providers.backend":               "PROVIDER_BACKEND",
		"providers.google.api_key":        "GOOGLE_MAPS_API_KEY",
		"providers.google.region":         "GOOGLE_REGION",
		"providers.osm.user_agent":        "OSM_USER_AGENT",
		"providers.osm.contact_email":     "OSM_CONTACT_EMAIL",
		"providers.osm.nominatim_url":     "OSM_NOMINATIM_URL",
		"providers.osm.reverse_url":       "OSM_NOMINATIM_REVERSE_URL",
		"providers.osm.overpass_url":      "OSM_OVERPASS_URL",
		"providers.osm.default_radius_km": "OSM_DEFAULT_RADIUS_KM",
		"startup.auto_migrate":            "AUTO_MIGRATE_ON_STARTUP",
		"startup.auto_seed_demo":          "AUTO_SEED_DEMO_ON_STARTUP",
		"backup.schedule":                 "BACKUP_SCHEDULE",
		"backup.s3.enabled":               "BACKUP_S3_ENABLED",
		"backup.s3.endpoint":              "BACKUP_S3_ENDPOINT",
		"backup.s3.access_key":            "BACKUP_S3_ACCESS_KEY",
		"backup.s3.secret_key":            "BACKUP_S3_SECRET_KEY",
		"backup.s3.bucket":                "BACKUP_S3_BUCKET",
	}

	for key, env := range bindings {
		// BindEnv only errors on an empty key.
		_ = v.BindEnv(key, env)
	}
}

func decodeHook() viper.DecoderConfigOption {
	return func(dc *mapstructure.DecoderConfig) {
		dc.TagName = "mapstructure"
		dc.DecodeHook = mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		)
	}
}
