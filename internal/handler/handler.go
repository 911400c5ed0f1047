package handler

import (
	"github.com/mkozlowski/homehub/internal/config"
	"github.com/mkozlowski/homehub/internal/db"
	"github.com/mkozlowski/homehub/internal/files"
	"github.com/mkozlowski/homehub/internal/network"
	"github.com/mkozlowski/homehub/internal/share"
)

// Handler handles HTTP requests
type Handler struct {
	cfg       *config.Config
	files     *files.Service
	registry  *share.Registry
	devices   *network.Service
	collector *network.Collector
	db        *db.DB
}

// NewHandler creates a new handler
func NewHandler(cfg *config.Config, fileService *files.Service, registry *share.Registry,
	devices *network.Service, collector *network.Collector, database *db.DB,
) *Handler {
	return &Handler{
		cfg:       cfg,
		files:     fileService,
		registry:  registry,
		devices:   devices,
		collector: collector,
		db:        database,
	}
}
