package app

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"

	"github.com/mkozlowski/homehub/internal/config"
	"github.com/mkozlowski/homehub/internal/db"
	"github.com/mkozlowski/homehub/internal/expiry"
	"github.com/mkozlowski/homehub/internal/files"
	"github.com/mkozlowski/homehub/internal/handler"
	"github.com/mkozlowski/homehub/internal/middleware"
	"github.com/mkozlowski/homehub/internal/network"
	"github.com/mkozlowski/homehub/internal/pathguard"
	"github.com/mkozlowski/homehub/internal/share"
)

// App represents the application
type App struct {
	server  *echo.Echo
	sweeper *expiry.Sweeper
	config  *config.Config
	db      *db.DB
}

// New creates a new application instance
func New() (*App, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, err
	}
	return NewWithConfig(cfg)
}

// NewWithConfig wires the application from an already loaded config.
func NewWithConfig(cfg *config.Config) (*App, error) {
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("jwt_secret must be configured")
	}

	guard, err := pathguard.New(cfg.ShareRoot)
	if err != nil {
		return nil, err
	}
	log.Printf("Shared root: %s", guard.Root())

	database, err := db.NewDB(cfg)
	if err != nil {
		return nil, err
	}

	registry := share.NewRegistry(database, time.Duration(cfg.LinkValidityDays)*24*time.Hour)
	fileService := files.NewService(guard, database, registry, cfg.MaxNameAttempts)

	neighbors := network.ARPSource{}
	deviceService := network.NewService(database, neighbors,
		cfg.DeviceCacheSize, time.Duration(cfg.DeviceCacheTTLs)*time.Second)
	collector := network.NewCollector(cfg.ProbeAddress, cfg.ExternalIPURL, neighbors)

	sweeper := expiry.NewSweeper(database,
		time.Duration(cfg.SweepIntervalMin)*time.Minute, cfg.SweepEnabled)

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Server.ReadTimeout = 10 * time.Minute
	e.Server.WriteTimeout = 10 * time.Minute
	e.Server.IdleTimeout = 15 * time.Minute
	e.Server.ReadHeaderTimeout = 30 * time.Second

	app := &App{
		server:  e,
		sweeper: sweeper,
		config:  cfg,
		db:      database,
	}

	e.Use(echomiddleware.Logger())
	e.Use(echomiddleware.Recover())
	e.Use(middleware.SecurityHeaders())

	h := handler.NewHandler(cfg, fileService, registry, deviceService, collector, database)
	registerRoutes(e, cfg, h)
	return app, nil
}

// Start starts the application
func (a *App) Start() {
	a.sweeper.Start()

	serverAddr := fmt.Sprintf(":%d", a.config.Port)

	go func() {
		if err := a.server.Start(serverAddr); err != nil {
			log.Printf("Server stopped: %v", err)
		}
	}()

	log.Printf("Server started on %s", serverAddr)
}

// Stop stops all application services
func (a *App) Stop() {
	a.sweeper.Stop()
	a.db.Close()
}

// Shutdown gracefully shuts down the server
func (a *App) Shutdown(ctx context.Context) error {
	return a.server.Shutdown(ctx)
}

// registerRoutes registers all HTTP routes
func registerRoutes(e *echo.Echo, cfg *config.Config, h *handler.Handler) {
	e.Use(echomiddleware.BodyLimit(
		fmt.Sprintf("%dM", int(cfg.MaxSize)),
	))

	// Public share resolution, the token is the capability.
	e.GET("/s/:token", h.HandleShareAccess)

	auth := middleware.JWTAuth([]byte(cfg.JWTSecret))

	filesGroup := e.Group("/api/files", auth)
	filesGroup.GET("/list", h.HandleListFiles)
	filesGroup.POST("/upload", h.HandleUpload)
	filesGroup.POST("/create-folder", h.HandleCreateFolder)
	filesGroup.POST("/delete", h.HandleDelete)
	filesGroup.GET("/download", h.HandleDownload)
	filesGroup.POST("/generate-share-link", h.HandleGenerateShareLink)

	networkGroup := e.Group("/network/api", auth)
	networkGroup.GET("/network", h.HandleNetworkStatus)
	networkGroup.GET("/devices", h.HandleDevices)
}
