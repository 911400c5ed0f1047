package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	sqlite3 "github.com/mattn/go-sqlite3"

	"github.com/mkozlowski/homehub/internal/config"
	"github.com/mkozlowski/homehub/internal/model"
)

// ErrNotFound is returned when a lookup matches no record.
var ErrNotFound = errors.New("record not found")

// ErrDuplicateToken is returned when a share-link insert hits the
// UNIQUE constraint on shared_link.
var ErrDuplicateToken = errors.New("share token already exists")

type DB struct {
	*sqlx.DB
}

const schema = `
CREATE TABLE IF NOT EXISTS shared_files (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	user_id INTEGER NOT NULL,
	file_path TEXT NOT NULL,
	filename TEXT NOT NULL,
	file_size INTEGER NOT NULL DEFAULT 0,
	is_directory BOOLEAN NOT NULL DEFAULT 0,
	shared_link TEXT UNIQUE,
	link_expiration DATETIME,
	created_at DATETIME NOT NULL,
	last_accessed DATETIME,
	access_count INTEGER NOT NULL DEFAULT 0
);
CREATE INDEX IF NOT EXISTS idx_shared_files_path ON shared_files(file_path);

CREATE TABLE IF NOT EXISTS devices (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	mac_address TEXT NOT NULL UNIQUE,
	name TEXT NOT NULL,
	device_type TEXT NOT NULL DEFAULT 'unknown'
);
`

// NewDB opens the SQLite database and ensures the schema exists.
func NewDB(cfg *config.Config) (*DB, error) {
	conn, err := sqlx.Open("sqlite3", cfg.SQLitePath)
	if err != nil {
		return nil, err
	}

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, err
	}

	if _, err := conn.Exec(schema); err != nil {
		conn.Close()
		return nil, err
	}

	return &DB{conn}, nil
}

// Close closes the database connection
func (db *DB) Close() error {
	return db.DB.Close()
}

// InsertEntry stores a SharedEntry and fills in its generated id.
func (db *DB) InsertEntry(ctx context.Context, entry *model.SharedEntry) error {
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now()
	}

	res, err := db.NamedExecContext(ctx, `
		INSERT INTO shared_files
			(user_id, file_path, filename, file_size, is_directory,
			 shared_link, link_expiration, created_at, access_count)
		VALUES
			(:user_id, :file_path, :filename, :file_size, :is_directory,
			 :shared_link, :link_expiration, :created_at, 0)
	`, entry)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateToken
		}
		return fmt.Errorf("insert shared entry: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	entry.ID = id
	return nil
}

// GetEntryByToken returns the record carrying the given share link.
func (db *DB) GetEntryByToken(ctx context.Context, token string) (model.SharedEntry, error) {
	var entry model.SharedEntry
	err := db.GetContext(ctx, &entry,
		`SELECT * FROM shared_files WHERE shared_link = ?`, token)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return entry, ErrNotFound
		}
		return entry, err
	}
	return entry, nil
}

// DeleteEntriesByPath removes every metadata record for the given path.
func (db *DB) DeleteEntriesByPath(ctx context.Context, path string) error {
	_, err := db.ExecContext(ctx,
		`DELETE FROM shared_files WHERE file_path = ?`, path)
	return err
}

// TouchEntry records a successful access on a shared entry.
func (db *DB) TouchEntry(ctx context.Context, id int64, when time.Time) error {
	_, err := db.ExecContext(ctx, `
		UPDATE shared_files
		SET last_accessed = ?, access_count = access_count + 1
		WHERE id = ?
	`, when, id)
	return err
}

// DeleteExpiredLinks removes share-link rows whose expiration has
// passed. Returns the number of rows removed.
func (db *DB) DeleteExpiredLinks(ctx context.Context, now time.Time) (int64, error) {
	res, err := db.ExecContext(ctx, `
		DELETE FROM shared_files
		WHERE shared_link IS NOT NULL AND link_expiration < ?
	`, now)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// ListKnownDevices returns the persisted device identity table.
func (db *DB) ListKnownDevices(ctx context.Context) ([]model.KnownDevice, error) {
	var devices []model.KnownDevice
	err := db.SelectContext(ctx, &devices,
		`SELECT id, mac_address, name, device_type FROM devices ORDER BY id`)
	if err != nil {
		return nil, err
	}
	return devices, nil
}

// InsertKnownDevice stores a device identity record.
func (db *DB) InsertKnownDevice(ctx context.Context, device *model.KnownDevice) error {
	res, err := db.NamedExecContext(ctx, `
		INSERT INTO devices (mac_address, name, device_type)
		VALUES (:mac_address, :name, :device_type)
	`, device)
	if err != nil {
		return fmt.Errorf("insert known device: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	device.ID = id
	return nil
}

func isUniqueViolation(err error) bool {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique
	}
	return false
}
