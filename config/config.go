package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Auth     AuthConfig
	Google   *GoogleConfig
	Maps     MapsConfig
	Scraper  ScraperConfig
	Cache    CacheConfig
	R2       *R2Config
	Search   SearchConfig
	Ingest   IngestConfig
	Logging  LoggingConfig
}

type ServerConfig struct {
	Port           string
	Env            string
	AllowedOrigins []string
}

func (s ServerConfig) IsDevelopment() bool {
	return s.Env == "development" || s.Env == "debug"
}

type AuthConfig struct {
	JWTSecret            string
	AccessTokenTTL       time.Duration
	RefreshTokenTTL      time.Duration
	AllowSelfAdminToggle bool
}

type MapsConfig struct {
	APIKey  string
	BaseURL string
}

type ScraperConfig struct {
	BaseURL          string
	DefaultActorID   string
	PollInterval     time.Duration
	MaxAttempts      int
	DefaultQueries   string
	DefaultLanguage  string
	DefaultMaxPlaces int
}

type CacheConfig struct {
	ListTTL time.Duration
	ItemTTL time.Duration
}

type SearchConfig struct {
	ElasticsearchURL string
	Index            string
}

func (s SearchConfig) Enabled() bool {
	return s.ElasticsearchURL != ""
}

type IngestConfig struct {
	APIKey string
}

type LoggingConfig struct {
	Level  string
	Pretty bool
}

// Load reads .env (if present) and the process environment.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Warn().Msg("no .env file found, using environment variables")
	}

	return &Config{
		Server: ServerConfig{
			Port:           getEnv("PORT", "8080"),
			Env:            getEnv("APP_ENV", "production"),
			AllowedOrigins: splitList(os.Getenv("CORS_ALLOWED_ORIGINS")),
		},
		Database: DatabaseConfig{
			URL:      os.Getenv("DATABASE_URL"),
			Host:     getEnv("DB_HOST", "localhost"),
			User:     os.Getenv("DB_USER"),
			Password: os.Getenv("DB_PASSWORD"),
			Name:     os.Getenv("DB_NAME"),
			Port:     getEnv("DB_PORT", "5432"),
		},
		Auth: AuthConfig{
			JWTSecret:            os.Getenv("JWT_SECRET"),
			AccessTokenTTL:       getDuration("ACCESS_TOKEN_TTL", 7*24*time.Hour),
			RefreshTokenTTL:      getDuration("REFRESH_TOKEN_TTL", 30*24*time.Hour),
			AllowSelfAdminToggle: getBool("ALLOW_SELF_ADMIN_TOGGLE", false),
		},
		Google: NewGoogleConfig(),
		Maps: MapsConfig{
			APIKey:  os.Getenv("GOOGLE_MAPS_API_KEY"),
			BaseURL: getEnv("GOOGLE_MAPS_BASE_URL", "https://maps.googleapis.com/maps/api"),
		},
		Scraper: ScraperConfig{
			BaseURL:          getEnv("APIFY_BASE_URL", "https://api.apify.com/v2"),
			DefaultActorID:   getEnv("APIFY_DEFAULT_ACTOR", "apify/google-places-scraper"),
			PollInterval:     getDuration("SCRAPE_POLL_INTERVAL", 10*time.Second),
			MaxAttempts:      getInt("SCRAPE_MAX_ATTEMPTS", 30),
			DefaultQueries:   getEnv("SCRAPE_DEFAULT_QUERIES", "restaurants in Cluj-Napoca"),
			DefaultLanguage:  getEnv("SCRAPE_DEFAULT_LANGUAGE", "en"),
			DefaultMaxPlaces: getInt("SCRAPE_DEFAULT_MAX_PLACES", 10),
		},
		Cache: CacheConfig{
			ListTTL: getDuration("CACHE_LIST_TTL", 10*time.Minute),
			ItemTTL: getDuration("CACHE_ITEM_TTL", 5*time.Minute),
		},
		R2: GetR2Config(),
		Search: SearchConfig{
			ElasticsearchURL: os.Getenv("ELASTICSEARCH_URL"),
			Index:            getEnv("ELASTICSEARCH_INDEX", "locations"),
		},
		Ingest: IngestConfig{
			APIKey: os.Getenv("INGEST_API_KEY"),
		},
		Logging: LoggingConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Pretty: getBool("LOG_PRETTY", false),
		},
	}
}

func getEnv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) int {
	v, err := strconv.Atoi(os.Getenv(key))
	if err != nil || v <= 0 {
		return fallback
	}
	return v
}

func getBool(key string, fallback bool) bool {
	v, err := strconv.ParseBool(os.Getenv(key))
	if err != nil {
		return fallback
	}
	return v
}

// getDuration accepts Go durations ("10s") or a bare number of seconds.
func getDuration(key string, fallback time.Duration) time.Duration {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}
	if d, err := time.ParseDuration(raw); err == nil && d > 0 {
		return d
	}
	if secs, err := strconv.Atoi(raw); err == nil && secs > 0 {
		return time.Duration(secs) * time.Second
	}
	log.Warn().Str("key", key).Str("value", raw).Msg("invalid duration, using default")
	return fallback
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
