// Package expiry purges expired share-link records in the background.
// Expired links are rejected at resolution time regardless, so the
// sweeper only keeps the table from accumulating dead rows.
package expiry

import (
	"context"
	"log"
	"time"

	"github.com/mkozlowski/homehub/internal/db"
)

// Sweeper periodically removes share-link rows past their expiration.
type Sweeper struct {
	db       *db.DB
	interval time.Duration
	enabled  bool
	stopChan chan struct{}
}

// NewSweeper creates a sweeper running every interval.
func NewSweeper(database *db.DB, interval time.Duration, enabled bool) *Sweeper {
	return &Sweeper{
		db:       database,
		interval: interval,
		enabled:  enabled,
		stopChan: make(chan struct{}),
	}
}

// Start begins the sweeping process
func (s *Sweeper) Start() {
	if !s.enabled {
		return
	}

	go func() {
		s.Sweep()

		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				s.Sweep()
			case <-s.stopChan:
				log.Println("Link expiry sweeper stopped")
				return
			}
		}
	}()
	log.Printf("Link expiry sweeper started, checking every %v", s.interval)
}

// Stop halts the sweeping process
func (s *Sweeper) Stop() {
	close(s.stopChan)
}

// Sweep runs a single purge pass.
func (s *Sweeper) Sweep() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	removed, err := s.db.DeleteExpiredLinks(ctx, time.Now())
	if err != nil {
		log.Printf("Error: Failed to purge expired share links: %v", err)
		return
	}
	if removed > 0 {
		log.Printf("Purged %d expired share links", removed)
	}
}
