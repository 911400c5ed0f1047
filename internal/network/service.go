package network

import (
	"context"
	"log"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/mkozlowski/homehub/internal/db"
	"github.com/mkozlowski/homehub/internal/model"
)

const knownDevicesKey = "known-devices"

// Service runs device discovery scans: it reads the neighbor table,
// loads the known-device identity table (through a small expiring
// cache so repeated dashboard polls don't hammer the store), and
// reconciles the two.
type Service struct {
	db     *db.DB
	source NeighborSource
	cache  *expirable.LRU[string, []model.KnownDevice]
}

// NewService creates a device discovery service. cacheSize and cacheTTL
// size the known-device cache; a zero size disables caching.
func NewService(database *db.DB, source NeighborSource, cacheSize int, cacheTTL time.Duration) *Service {
	var cache *expirable.LRU[string, []model.KnownDevice]
	if cacheSize > 0 && cacheTTL > 0 {
		cache = expirable.NewLRU[string, []model.KnownDevice](cacheSize, nil, cacheTTL)
	}

	return &Service{
		db:     database,
		source: source,
		cache:  cache,
	}
}

// Devices scans the network and returns the reconciled device list.
// A failed scan yields an empty list, not an error; the dashboard
// treats "nothing discovered" and "scan unavailable" the same way.
func (s *Service) Devices(ctx context.Context) ([]model.Device, error) {
	raw, err := s.source.Neighbors(ctx)
	if err != nil {
		log.Printf("Warning: Neighbor scan failed: %v", err)
		return []model.Device{}, nil
	}

	known, err := s.knownDevices(ctx)
	if err != nil {
		return nil, err
	}

	devices := Reconcile(raw, known)
	log.Printf("Device scan complete: %d devices discovered", len(devices))
	return devices, nil
}

func (s *Service) knownDevices(ctx context.Context) ([]model.KnownDevice, error) {
	if s.cache != nil {
		if cached, ok := s.cache.Get(knownDevicesKey); ok {
			return cached, nil
		}
	}

	known, err := s.db.ListKnownDevices(ctx)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		s.cache.Add(knownDevicesKey, known)
	}
	return known, nil
}
