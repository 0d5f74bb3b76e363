// Package api assembles the HTTP surface: public search and directory
// endpoints, account endpoints, and the admin management API.
package api

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"

	"github.com/localhq/localservices/internal/app"
	"github.com/localhq/localservices/internal/auth"
	"github.com/localhq/localservices/internal/cache"
	"github.com/localhq/localservices/internal/geo"
	"github.com/localhq/localservices/internal/handlers"
	"github.com/localhq/localservices/internal/middleware"
	"github.com/localhq/localservices/internal/services"
)

// Version is stamped at build time.
var Version = "dev"

// NewRouter wires middleware, services, and routes.
func NewRouter(cfg *app.Config, db *gorm.DB, jwtService *auth.JWTService) *gin.Engine {
	if cfg.Server.Debug {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	selector := geo.NewSelector(db, geo.SelectorConfig{
		DefaultBackend: cfg.Providers.Backend,
		OSM: geo.OSMConfig{
			NominatimURL:    cfg.Providers.OSM.NominatimURL,
			ReverseURL:      cfg.Providers.OSM.ReverseURL,
			OverpassURL:     cfg.Providers.OSM.OverpassURL,
			UserAgent:       cfg.Providers.OSM.UserAgent,
			ContactEmail:    cfg.Providers.OSM.ContactEmail,
			DefaultRadiusKm: cfg.Providers.OSM.DefaultRadiusKm,
		},
		Google: geo.GoogleConfig{
			APIKey: cfg.Providers.Google.APIKey,
			Region: cfg.Providers.Google.Region,
		},
	})

	resultCache := cache.NewDatabaseStore(db)

	categoryService := services.NewCategoryService(db)
	analyticsService := services.NewAnalyticsService(db)
	providerService := services.NewProviderService(db, analyticsService)
	directoryService := services.NewDirectoryService(db, selector, resultCache, categoryService, analyticsService)
	settingsService := services.NewSettingsService(db)
	adsService := services.NewAdsService(db)
	userService := services.NewUserService(db)
	supportService := services.NewSupportService(db)

	authHandler := handlers.NewAuthHandler(userService, jwtService)
	searchHandler := handlers.NewSearchHandler(directoryService)
	directoryHandler := handlers.NewDirectoryHandler(categoryService, providerService)
	settingsHandler := handlers.NewSettingsHandler(settingsService, cfg.Providers.Google.APIKey)
	adsHandler := handlers.NewAdsHandler(adsService)
	reportsHandler := handlers.NewReportsHandler(analyticsService)
	supportHandler := handlers.NewSupportHandler(supportService)
	healthHandler := handlers.NewHealthHandler(db, Version)

	router := gin.New()
	router.Use(
		middleware.Recovery(),
		middleware.Logger(),
		middleware.Metrics(),
		middleware.SecurityHeaders(),
		middleware.AllowedHosts(cfg.EffectiveAllowedHosts()),
	)

	if cfg.Monitoring.Health.Enabled {
		router.GET("/healthz", healthHandler.Live)
		router.GET("/readyz", healthHandler.Ready)
	}
	if cfg.Monitoring.Prometheus.Enabled {
		endpoint := cfg.Monitoring.Prometheus.Endpoint
		if endpoint == "" {
			endpoint = "/metrics"
		}
		router.GET(endpoint, gin.WrapH(promhttp.Handler()))
	}

	searchLimiter := middleware.NewRateLimiter(60, time.Minute)
	loginLimiter := middleware.NewRateLimiter(10, time.Minute)
	csrf := middleware.CSRF(cfg.EffectiveTrustedOrigins(), !cfg.Server.Debug)

	api := router.Group("/api")
	api.Use(csrf)

	// Public directory.
	public := api.Group("")
	public.Use(middleware.OptionalAuth(jwtService))
	{
		public.GET("/search", searchLimiter.Middleware(), searchHandler.Search)
		public.POST("/consent", searchHandler.SetAnalyticsConsent)
		public.GET("/categories", directoryHandler.ListCategories)
		public.GET("/categories/:slug/providers", directoryHandler.ListCategoryProviders)
		public.GET("/providers/:id", directoryHandler.GetProvider)
		public.POST("/providers/:id/track", directoryHandler.TrackProviderUsage)
		public.GET("/theme", settingsHandler.GetTheme)
		public.GET("/ads/:placement", adsHandler.GetPlacement)
	}

	// Accounts.
	api.POST("/auth/login", loginLimiter.Middleware(), authHandler.Login)
	api.POST("/auth/register", loginLimiter.Middleware(), authHandler.Register)

	account := api.Group("")
	account.Use(middleware.RequireAuth(jwtService))
	{
		account.GET("/auth/me", authHandler.Me)
		account.GET("/profile", authHandler.GetProfile)
		account.PUT("/profile", authHandler.UpdateProfile)

		account.POST("/support/threads", supportHandler.CreateThread)
		account.GET("/support/threads", supportHandler.ListThreads)
		account.GET("/support/threads/:id", supportHandler.GetThread)
		account.POST("/support/threads/:id/messages", supportHandler.AddMessage)
	}

	// Admin management.
	admin := api.Group("/admin")
	admin.Use(middleware.RequireAdmin(jwtService))
	{
		admin.GET("/settings/provider", settingsHandler.GetProviderSettings)
		admin.PUT("/settings/provider", settingsHandler.UpdateProviderSettings)
		admin.PUT("/settings/theme", settingsHandler.UpdateTheme)

		admin.GET("/categories", directoryHandler.ListAllCategories)
		admin.POST("/categories", directoryHandler.CreateCategory)
		admin.PUT("/categories/:id", directoryHandler.UpdateCategory)

		admin.POST("/providers", directoryHandler.CreateProvider)
		admin.PUT("/providers/:id", directoryHandler.UpdateProvider)
		admin.DELETE("/providers/:id", directoryHandler.DeactivateProvider)

		admin.GET("/ads", adsHandler.ListUnits)
		admin.POST("/ads", adsHandler.CreateUnit)
		admin.PUT("/ads/:id", adsHandler.UpdateUnit)
		admin.DELETE("/ads/:id", adsHandler.DeleteUnit)

		admin.GET("/reports/summary", reportsHandler.Summary)

		admin.POST("/support/threads/:id/close", supportHandler.CloseThread)
	}

	return router
}
