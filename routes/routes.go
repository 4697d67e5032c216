package routes

import (
	"github.com/city-guide/api-go/config"
	"github.com/city-guide/api-go/controllers"
	"github.com/city-guide/api-go/maps"
	"github.com/city-guide/api-go/metrics"
	"github.com/city-guide/api-go/middleware"
	"github.com/city-guide/api-go/search"
	"github.com/city-guide/api-go/store"
	"github.com/gin-gonic/gin"
)

// Dependencies are built once in main and shared by every controller.
type Dependencies struct {
	Config    *config.Config
	Store     *store.Store
	Locations *store.CachedLocations
	// Index is nil when Elasticsearch is not configured.
	Index   search.Index
	Maps    *maps.Client
	Poller  controllers.ScrapePoller
	Metrics *metrics.Metrics
}

func SetupRoutes(r *gin.Engine, deps Dependencies) {
	cfg := deps.Config
	st := deps.Store

	authController := controllers.NewAuthController(st.Profiles, cfg.Google, cfg.Auth)
	locationController := controllers.NewLocationController(deps.Locations, st.PlaceInfos, deps.Index)
	adminLocationController := controllers.NewAdminLocationController(deps.Locations, st.PlaceInfos, deps.Index)
	favoriteController := controllers.NewFavoriteController(st.Favorites)
	uploadController := controllers.NewUploadController(deps.Locations, cfg.R2)
	mapsController := controllers.NewMapsController(deps.Maps, deps.Locations, deps.Index)
	scrapeController := controllers.NewScrapeController(deps.Poller, st.ScrapeRuns)
	webhookController := controllers.NewWebhookController()
	userController := controllers.NewUserController(st.Profiles, st.Favorites)

	var ingestObserver controllers.IngestObserver
	if deps.Metrics != nil {
		ingestObserver = deps.Metrics
		r.GET("/metrics", gin.WrapH(deps.Metrics.Handler()))
	}
	ingestController := controllers.NewIngestController(deps.Locations, deps.Index, ingestObserver)

	// every request gets a resolved session snapshot; guards below reject
	r.Use(middleware.Session(cfg.Auth.JWTSecret, st.Profiles))

	// Public routes
	public := r.Group("/api")
	{
		public.POST("/register", authController.Register)
		public.POST("/login", authController.Login)
		public.POST("/google-login", authController.GoogleLogin)
		public.POST("/refresh-token", authController.RefreshToken)
		public.GET("/validation/email/:email", userController.ValidateEmail)

		SetupLocationRoutes(public, locationController)
		SetupIngestRoutes(public, ingestController, cfg.Ingest.APIKey)
	}

	// Protected routes
	protected := r.Group("/api")
	protected.Use(middleware.RequireSession())
	{
		protected.POST("/logout", authController.Logout)
		protected.GET("/session", authController.Session)
		protected.GET("/profile", authController.GetProfile)
		protected.PUT("/profile", authController.UpdateProfile)
		if cfg.Auth.AllowSelfAdminToggle {
			protected.POST("/profile/admin-toggle", authController.ToggleAdmin)
		}

		SetupFavoriteRoutes(protected, favoriteController)
	}

	admin := r.Group("/api/admin")
	admin.Use(middleware.RequireAdmin())
	{
		SetupAdminLocationRoutes(admin, adminLocationController)
		SetupUploadRoutes(admin, uploadController)
		SetupMapsRoutes(admin, mapsController)
		SetupScrapeRoutes(admin, scrapeController)
		SetupUserRoutes(admin, userController)
		admin.POST("/webhooks/test", webhookController.TestWebhook)
	}
}
