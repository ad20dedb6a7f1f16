// Package portfolio is the content API behind a personal portfolio site.
// It stores blog posts under unique slugs and uploaded images as immutable
// blobs, and serves both over a small JSON/HTTP surface built on Echo.
//
// Posts and images live in SQLite by default or in Postgres when the
// database URL is a postgres:// DSN.
package portfolio

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

// App is the central application. It wires together the store, cache,
// handlers and middleware.
type App struct {
	Config SiteConfig
	Echo   *echo.Echo
	Store  *Store
	Cache  *PostCache

	loginLimiter *LoginLimiter
	customRoutes []func(*App)
	ownsStore    bool
	initialized  bool
}

// New creates a new App with the given configuration.
func New(cfg SiteConfig, opts ...Option) *App {
	cfg.setDefaults()

	a := &App{
		Config: cfg,
		Echo:   echo.New(),
	}
	a.Echo.HideBanner = true

	for _, opt := range opts {
		opt(a)
	}

	return a
}

// Init opens the store and registers middleware and routes. Start calls it;
// tests call it directly and drive a.Echo with httptest.
func (a *App) Init() error {
	if a.initialized {
		return nil
	}

	if a.Store == nil {
		store, err := NewStore(a.Config.DatabaseURL)
		if err != nil {
			return fmt.Errorf("portfolio: init store: %w", err)
		}
		a.Store = store
		a.ownsStore = true
	}

	a.Cache = NewPostCache(a.Store, a.Config.PostCacheTTL)
	a.loginLimiter = NewLoginLimiter(5, time.Minute)

	a.setupLogger()
	a.setupMiddleware()
	a.setupRoutes()

	for _, fn := range a.customRoutes {
		fn(a)
	}

	if a.Config.AdminPassword == "" {
		a.Echo.Logger.Warn("ADMIN_PASSWORD is not set; write routes are open")
	}
	a.initialized = true
	return nil
}

// Start initializes the app and serves HTTP until the server is shut down.
func (a *App) Start() error {
	if err := a.Init(); err != nil {
		return err
	}
	a.Echo.Logger.Infof("listening on %s (%s store)", a.Config.Addr, a.Store.dialect)
	if err := a.Echo.Start(a.Config.Addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops accepting requests, waits for in-flight ones and releases
// resources.
func (a *App) Shutdown(ctx context.Context) error {
	err := a.Echo.Shutdown(ctx)
	if cerr := a.Close(); err == nil {
		err = cerr
	}
	return err
}

func (a *App) setupRoutes() {
	e := a.Echo

	e.GET("/health", a.handleHealth)
	e.GET("/robots.txt", a.handleRobots)
	e.GET("/sitemap.xml", a.handleSitemap)
	e.GET("/feed.xml", a.handleFeed)

	// Blog content API
	e.GET("/posts", a.handleListPosts)
	e.POST("/posts", a.handleCreatePost, a.requireAdmin)
	e.DELETE("/posts/:id", a.handleDeletePost, a.requireAdmin)
	e.GET("/blog/:slug", a.handleBlogPage)

	// Image blobs
	e.GET("/images/:id", a.handleImage)
	e.GET("/images", a.handleImageList, a.requireAdmin)
	e.POST("/images", a.handleImageUpload, a.requireAdmin)
	e.DELETE("/images/:id", a.handleImageDelete, a.requireAdmin)

	// Admin session
	e.POST("/admin/login", a.handleAdminLogin)
	e.POST("/admin/logout", handleAdminLogout)
}

// Close cleans up resources. Call this when the app is shutting down.
func (a *App) Close() error {
	if a.loginLimiter != nil {
		a.loginLimiter.Stop()
	}
	if a.Store != nil && a.ownsStore {
		return a.Store.Close()
	}
	return nil
}
