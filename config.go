package portfolio

import (
	"crypto/rand"
	"encoding/hex"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// SiteConfig holds all configuration for the portfolio API.
type SiteConfig struct {
	Name        string // Site name (default "Portfolio")
	URL         string // Canonical URL (default "http://localhost:3000")
	Description string // Site description for RSS
	Author      string

	Addr        string // Listen address (default ":3000")
	DatabaseURL string // SQLite path or postgres:// URL (default "data/portfolio.db")

	AdminPassword string // Protects write routes when set
	SessionSecret string // Session and token signing secret
	CookieSecure  bool   // Set true for HTTPS

	CORSOrigins   []string      // Allowed browser origins for the API
	PostCacheTTL  time.Duration // Post cache TTL (default 5min)
	MaxUploadSize int64         // Upload cap in bytes (default 10MB)
	LogLevel      string        // debug, info, warn, error (default "info")
}

func (c *SiteConfig) setDefaults() {
	if c.Name == "" {
		c.Name = "Portfolio"
	}
	if c.URL == "" {
		c.URL = "http://localhost:3000"
	}
	c.URL = strings.TrimSuffix(c.URL, "/")
	if c.Addr == "" {
		c.Addr = ":3000"
	}
	if c.DatabaseURL == "" {
		c.DatabaseURL = "data/portfolio.db"
	}
	if c.SessionSecret == "" {
		c.SessionSecret = randomSecret()
	}
	if len(c.CORSOrigins) == 0 {
		c.CORSOrigins = []string{"*"}
	}
	if c.PostCacheTTL == 0 {
		c.PostCacheTTL = 5 * time.Minute
	}
	if c.MaxUploadSize <= 0 {
		c.MaxUploadSize = 10 << 20
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
}

// LoadConfig builds a SiteConfig from a .env file (if present) and the
// process environment.
func LoadConfig() SiteConfig {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("portfolio: reading .env: %v", err)
	}

	cfg := SiteConfig{
		Name:          os.Getenv("SITE_NAME"),
		URL:           os.Getenv("SITE_URL"),
		Description:   os.Getenv("SITE_DESCRIPTION"),
		Author:        os.Getenv("SITE_AUTHOR"),
		Addr:          os.Getenv("ADDR"),
		DatabaseURL:   os.Getenv("DATABASE_URL"),
		AdminPassword: os.Getenv("ADMIN_PASSWORD"),
		SessionSecret: os.Getenv("ADMIN_SESSION_SECRET"),
		CookieSecure:  strings.EqualFold(os.Getenv("COOKIE_SECURE"), "true"),
		CORSOrigins:   splitList(os.Getenv("CORS_ORIGINS")),
		LogLevel:      os.Getenv("LOG_LEVEL"),
	}
	if cfg.Addr == "" {
		if port := os.Getenv("PORT"); port != "" {
			cfg.Addr = ":" + port
		}
	}
	if v := os.Getenv("POST_CACHE_TTL"); v != "" {
		ttl, err := time.ParseDuration(v)
		if err != nil {
			log.Fatalf("portfolio: invalid POST_CACHE_TTL %q: %v", v, err)
		}
		cfg.PostCacheTTL = ttl
	}
	if v := os.Getenv("MAX_UPLOAD_MB"); v != "" {
		mb, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			log.Fatalf("portfolio: invalid MAX_UPLOAD_MB %q: %v", v, err)
		}
		cfg.MaxUploadSize = mb << 20
	}
	return cfg
}

// Option configures additional App behavior.
type Option func(*App)

// WithCustomRoutes registers additional routes on the Echo instance.
// The callback runs after the built-in routes are registered.
func WithCustomRoutes(fn func(*App)) Option {
	return func(a *App) {
		a.customRoutes = append(a.customRoutes, fn)
	}
}

// WithStore makes the App use an already opened store instead of opening
// Config.DatabaseURL.
func WithStore(s *Store) Option {
	return func(a *App) {
		a.Store = s
	}
}

func randomSecret() string {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		panic(err)
	}
	return hex.EncodeToString(b)
}
