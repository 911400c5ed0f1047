// Package share issues and resolves expiring share links.
package share

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/mkozlowski/homehub/internal/db"
	"github.com/mkozlowski/homehub/internal/model"
)

// TokenLength is the length of an issued token in hex characters.
// 32 characters carry 128 bits of entropy.
const TokenLength = 32

// maxTokenAttempts bounds the retry loop on a storage-level token
// collision. With 128-bit tokens a single retry is already unheard of.
const maxTokenAttempts = 5

var (
	// ErrLinkNotFound is returned when no record carries the token.
	ErrLinkNotFound = errors.New("share link not found")
	// ErrLinkExpired is returned when the link's validity window has passed.
	ErrLinkExpired = errors.New("share link expired")
)

// Registry creates and validates share links backed by the record store.
type Registry struct {
	db       *db.DB
	validity time.Duration
}

// NewRegistry creates a registry issuing links valid for the given window.
func NewRegistry(database *db.DB, validity time.Duration) *Registry {
	return &Registry{
		db:       database,
		validity: validity,
	}
}

// Issue generates a fresh token for the given path and persists it with
// expiration = now + validity. A UNIQUE-constraint collision on insert
// is retried with a newly generated token.
func (r *Registry) Issue(ctx context.Context, ownerID int64, path, name string) (string, time.Time, error) {
	expiration := time.Now().Add(r.validity)

	for attempt := 0; attempt < maxTokenAttempts; attempt++ {
		token, err := generateToken()
		if err != nil {
			return "", time.Time{}, err
		}

		entry := model.SharedEntry{
			UserID:         ownerID,
			FilePath:       path,
			Filename:       name,
			SharedLink:     &token,
			LinkExpiration: &expiration,
		}

		err = r.db.InsertEntry(ctx, &entry)
		if err == nil {
			return token, expiration, nil
		}
		if errors.Is(err, db.ErrDuplicateToken) {
			continue
		}
		return "", time.Time{}, err
	}

	return "", time.Time{}, fmt.Errorf("could not issue a unique token after %d attempts", maxTokenAttempts)
}

// Resolve returns the entry behind the token. Dead links are rejected
// here regardless of whether the sweeper has purged them yet.
func (r *Registry) Resolve(ctx context.Context, token string) (model.SharedEntry, error) {
	entry, err := r.db.GetEntryByToken(ctx, token)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return model.SharedEntry{}, ErrLinkNotFound
		}
		return model.SharedEntry{}, err
	}

	if entry.LinkExpiration != nil && time.Now().After(*entry.LinkExpiration) {
		return model.SharedEntry{}, ErrLinkExpired
	}

	return entry, nil
}

func generateToken() (string, error) {
	bytes := make([]byte, TokenLength/2)
	if _, err := rand.Read(bytes); err != nil {
		return "", fmt.Errorf("failed to generate random bytes: %w", err)
	}
	return hex.EncodeToString(bytes), nil
}
