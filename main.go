package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/city-guide/api-go/cache"
	"github.com/city-guide/api-go/config"
	"github.com/city-guide/api-go/logging"
	"github.com/city-guide/api-go/maps"
	"github.com/city-guide/api-go/metrics"
	"github.com/city-guide/api-go/models"
	"github.com/city-guide/api-go/routes"
	"github.com/city-guide/api-go/scraper"
	"github.com/city-guide/api-go/search"
	"github.com/city-guide/api-go/store"
	"github.com/city-guide/api-go/types"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

func main() {
	cfg := config.Load()
	logging.Init(cfg.Logging.Level, cfg.Logging.Pretty)
	logger := logging.NewPackageLogger("main")

	if !cfg.Server.IsDevelopment() {
		gin.SetMode(gin.ReleaseMode)
	}
	if cfg.Auth.JWTSecret == "" {
		logger.Fatal().Msg("JWT_SECRET is required")
	}

	// Initialize database
	db, err := config.InitDB(cfg.Database)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize database")
	}
	st := store.New(db)
	m := metrics.New(true)
	locations := store.NewCachedLocations(st.Locations, cfg.Cache.ListTTL, cfg.Cache.ItemTTL, cache.WithObserver(m))

	var index search.Index
	if cfg.Search.Enabled() {
		if es, err := setupSearch(cfg.Search, st.Locations); err != nil {
			logger.Error().Err(err).Msg("search index unavailable, using database search")
		} else {
			index = es
		}
	}

	poller := scraper.NewPoller(scraper.NewClient(cfg.Scraper.BaseURL), locations, scraper.Options{
		PollInterval:   cfg.Scraper.PollInterval,
		MaxAttempts:    cfg.Scraper.MaxAttempts,
		DefaultActorID: cfg.Scraper.DefaultActorID,
		DefaultInput: types.ScrapeSearchParams{
			Queries:          cfg.Scraper.DefaultQueries,
			Language:         cfg.Scraper.DefaultLanguage,
			MaxCrawledPlaces: cfg.Scraper.DefaultMaxPlaces,
		},
		Runs:     st.ScrapeRuns,
		Observer: m,
		OnImported: func(ctx context.Context, loc *models.Location) {
			if index == nil {
				return
			}
			if err := index.IndexLocation(ctx, loc); err != nil {
				logger.Warn().Err(err).Uint(logging.LOCATION, loc.ID).Msg("failed to index imported location")
			}
		},
	})

	r := gin.New()
	r.Use(gin.LoggerWithWriter(os.Stdout), gin.Recovery(), corsMiddleware(cfg.Server))

	routes.SetupRoutes(r, routes.Dependencies{
		Config:    cfg,
		Store:     st,
		Locations: locations,
		Index:     index,
		Maps:      maps.NewClient(cfg.Maps.APIKey, cfg.Maps.BaseURL),
		Poller:    poller,
		Metrics:   m,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		logger.Info().Str("port", cfg.Server.Port).Str("env", cfg.Server.Env).Msg("starting server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	<-ctx.Done()
	logger.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("server shutdown")
	}
	poller.Stop()
}

// setupSearch connects to Elasticsearch, creates the index if needed and
// loads every listing into it.
func setupSearch(cfg config.SearchConfig, locations *store.Locations) (*search.ElasticIndex, error) {
	es, err := search.NewElasticIndex(cfg.ElasticsearchURL, cfg.Index)
	if err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := es.EnsureIndex(ctx); err != nil {
		return nil, err
	}
	all, err := locations.List(ctx)
	if err != nil {
		return nil, err
	}
	if _, err := es.Reindex(ctx, all); err != nil {
		return nil, err
	}
	return es, nil
}

func corsMiddleware(server config.ServerConfig) gin.HandlerFunc {
	c := cors.Config{
		AllowMethods:  []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Authorization", "X-Ingest-Key"},
		ExposeHeaders: []string{"Content-Length"},
		MaxAge:        12 * time.Hour,
	}
	if server.IsDevelopment() || len(server.AllowedOrigins) == 0 {
		c.AllowAllOrigins = true
	} else {
		c.AllowOrigins = server.AllowedOrigins
		c.AllowCredentials = true
	}
	return cors.New(c)
}
