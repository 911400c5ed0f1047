// Package files implements the guarded file operations beneath the
// shared root. Every path argument passes through the path guard before
// any filesystem or metadata access.
package files

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"

	"github.com/mkozlowski/homehub/internal/db"
	"github.com/mkozlowski/homehub/internal/model"
	"github.com/mkozlowski/homehub/internal/pathguard"
	"github.com/mkozlowski/homehub/internal/share"
	"github.com/mkozlowski/homehub/internal/utils"
)

var (
	// ErrNoFile is returned when an upload carries no file or an
	// unusable filename.
	ErrNoFile = errors.New("no file provided")
	// ErrMissingName is returned when folder creation has no usable name.
	ErrMissingName = errors.New("folder name is required")
	// ErrNotFound is returned when the target does not exist.
	ErrNotFound = errors.New("file not found")
)

// Service performs CRUD operations on entries beneath the shared root,
// mirroring each into the metadata store.
type Service struct {
	guard       *pathguard.Guard
	db          *db.DB
	registry    *share.Registry
	maxAttempts int
}

// NewService creates a file service. maxAttempts bounds the
// name-collision retry loops.
func NewService(guard *pathguard.Guard, database *db.DB, registry *share.Registry, maxAttempts int) *Service {
	return &Service{
		guard:       guard,
		db:          database,
		registry:    registry,
		maxAttempts: maxAttempts,
	}
}

// List returns the entries of the given directory, directories first,
// then case-sensitive lexical order. Children that cannot be stat'ed
// are skipped, not failed. An empty path lists the shared root.
func (s *Service) List(rawPath string) ([]model.EntryInfo, error) {
	dir, err := s.guard.Resolve(rawPath)
	if err != nil {
		return nil, err
	}

	children, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("list directory: %w", err)
	}

	entries := make([]model.EntryInfo, 0, len(children))
	for _, child := range children {
		info, err := child.Info()
		if err != nil {
			// Entries the process cannot stat are omitted.
			continue
		}

		var size int64
		if !child.IsDir() {
			size = info.Size()
		}

		entries = append(entries, model.EntryInfo{
			Name:     child.Name(),
			IsDir:    child.IsDir(),
			Size:     size,
			Path:     filepath.Join(dir, child.Name()),
			Modified: info.ModTime(),
		})
	}

	sort.Slice(entries, func(i, j int) bool {
		if entries[i].IsDir != entries[j].IsDir {
			return entries[i].IsDir
		}
		return entries[i].Name < entries[j].Name
	})

	return entries, nil
}

// Upload writes content to the shared root under a sanitized version of
// originalName, suffixing _1, _2, ... on collisions. The exclusive
// create is the arbiter between concurrent uploads of the same name.
func (s *Service) Upload(ctx context.Context, ownerID int64, originalName string, content io.Reader) (string, error) {
	if content == nil {
		return "", ErrNoFile
	}

	sanitized := sanitizeFilename(originalName)
	if sanitized == "" {
		return "", ErrNoFile
	}

	ext := filepath.Ext(sanitized)
	stem := strings.TrimSuffix(sanitized, ext)

	for attempt := 0; attempt < s.maxAttempts; attempt++ {
		name := sanitized
		if attempt > 0 {
			name = fmt.Sprintf("%s_%d%s", stem, attempt, ext)
		}

		destination, err := s.guard.Resolve(filepath.Join(s.guard.Root(), name))
		if err != nil {
			return "", err
		}

		dst, err := os.OpenFile(destination, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
		if err != nil {
			if os.IsExist(err) {
				continue
			}
			return "", fmt.Errorf("create file: %w", err)
		}

		size, err := io.Copy(dst, content)
		dst.Close()
		if err != nil {
			os.Remove(destination)
			return "", fmt.Errorf("save file: %w", err)
		}

		entry := model.SharedEntry{
			UserID:   ownerID,
			FilePath: destination,
			Filename: name,
			FileSize: size,
		}
		if err := s.db.InsertEntry(ctx, &entry); err != nil {
			// Do not leave a file behind without its metadata record.
			if rmErr := os.Remove(destination); rmErr != nil {
				log.Printf("Warning: Failed to clean up file after metadata error: %v", rmErr)
			}
			return "", err
		}

		log.Printf("File uploaded: %s (%s) by user %d", name, utils.FormatFileSize(size), ownerID)
		return name, nil
	}

	return "", fmt.Errorf("no free filename for %q after %d attempts", sanitized, s.maxAttempts)
}

// CreateFolder creates a directory under parentPath, suffixing _1, _2,
// ... to the whole name on collisions. The exclusive mkdir arbitrates
// races between concurrent callers picking the same candidate.
func (s *Service) CreateFolder(ctx context.Context, ownerID int64, requestedName, parentPath string) (string, error) {
	parent, err := s.guard.Resolve(parentPath)
	if err != nil {
		return "", err
	}

	sanitized := sanitizeFilename(requestedName)
	if sanitized == "" {
		return "", ErrMissingName
	}

	for attempt := 0; attempt < s.maxAttempts; attempt++ {
		name := sanitized
		if attempt > 0 {
			name = fmt.Sprintf("%s_%d", sanitized, attempt)
		}

		destination, err := s.guard.Resolve(filepath.Join(parent, name))
		if err != nil {
			return "", err
		}

		if err := os.Mkdir(destination, 0o755); err != nil {
			if os.IsExist(err) {
				continue
			}
			return "", fmt.Errorf("create folder: %w", err)
		}

		entry := model.SharedEntry{
			UserID:      ownerID,
			FilePath:    destination,
			Filename:    name,
			IsDirectory: true,
		}
		if err := s.db.InsertEntry(ctx, &entry); err != nil {
			if rmErr := os.Remove(destination); rmErr != nil {
				log.Printf("Warning: Failed to clean up folder after metadata error: %v", rmErr)
			}
			return "", err
		}

		log.Printf("Folder created: %s by user %d", name, ownerID)
		return name, nil
	}

	return "", fmt.Errorf("no free folder name for %q after %d attempts", sanitized, s.maxAttempts)
}

// Delete removes the file or directory at path along with its metadata
// record. Directories are removed recursively. Irreversible.
func (s *Service) Delete(ctx context.Context, rawPath string) error {
	target, err := s.guard.Resolve(rawPath)
	if err != nil {
		return err
	}
	if target == s.guard.Root() {
		return fmt.Errorf("refusing to delete the shared root")
	}

	info, err := os.Stat(target)
	if err != nil {
		if os.IsNotExist(err) {
			return ErrNotFound
		}
		return fmt.Errorf("delete: %w", err)
	}

	if info.IsDir() {
		err = os.RemoveAll(target)
	} else {
		err = os.Remove(target)
	}
	if err != nil {
		return fmt.Errorf("delete: %w", err)
	}

	if err := s.db.DeleteEntriesByPath(ctx, target); err != nil {
		log.Printf("Warning: Failed to delete metadata for %s: %v", target, err)
	}

	log.Printf("Deleted: %s", target)
	return nil
}

// Download describes an entry ready to be streamed to the client.
type Download struct {
	Path        string
	Name        string
	Size        int64
	ModTime     time.Time
	ContentType string
}

// Download validates the path and returns what the transport layer
// needs to stream the file with an attachment disposition.
func (s *Service) Download(rawPath string) (Download, error) {
	target, err := s.guard.Resolve(rawPath)
	if err != nil {
		return Download{}, err
	}

	info, err := os.Stat(target)
	if err != nil {
		if os.IsNotExist(err) {
			return Download{}, ErrNotFound
		}
		return Download{}, fmt.Errorf("download: %w", err)
	}
	if info.IsDir() {
		return Download{}, ErrNotFound
	}

	contentType := "application/octet-stream"
	if mtype, err := mimetype.DetectFile(target); err == nil {
		contentType = mtype.String()
	}

	return Download{
		Path:        target,
		Name:        filepath.Base(target),
		Size:        info.Size(),
		ModTime:     info.ModTime(),
		ContentType: contentType,
	}, nil
}

// GenerateShareLink validates the path and issues an expiring public
// token for it through the registry.
func (s *Service) GenerateShareLink(ctx context.Context, ownerID int64, rawPath string) (string, time.Time, error) {
	target, err := s.guard.Resolve(rawPath)
	if err != nil {
		return "", time.Time{}, err
	}

	if _, err := os.Stat(target); err != nil {
		if os.IsNotExist(err) {
			return "", time.Time{}, ErrNotFound
		}
		return "", time.Time{}, fmt.Errorf("share link: %w", err)
	}

	token, expiration, err := s.registry.Issue(ctx, ownerID, target, filepath.Base(target))
	if err != nil {
		return "", time.Time{}, err
	}

	log.Printf("Share link issued for %s by user %d, valid until %v", target, ownerID, expiration)
	return token, expiration, nil
}

var unsafeFilenameChars = regexp.MustCompile(`[^A-Za-z0-9_.-]`)

// sanitizeFilename strips directory components and disallowed
// characters. Returns "" when nothing usable remains.
func sanitizeFilename(name string) string {
	name = strings.ReplaceAll(name, "\\", "/")
	name = path.Base(name)
	name = strings.ReplaceAll(name, " ", "_")
	name = unsafeFilenameChars.ReplaceAllString(name, "")
	return strings.Trim(name, "._")
}
