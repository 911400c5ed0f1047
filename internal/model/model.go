package model

import "time"

// SharedEntry is the metadata record kept for every file or folder
// beneath the shared root. Rows carrying a share link also fill
// SharedLink and LinkExpiration; for ordinary entries both are nil.
type SharedEntry struct {
	ID             int64      `db:"id" json:"id"`
	UserID         int64      `db:"user_id" json:"user_id"`
	FilePath       string     `db:"file_path" json:"file_path"`
	Filename       string     `db:"filename" json:"filename"`
	FileSize       int64      `db:"file_size" json:"file_size"`
	IsDirectory    bool       `db:"is_directory" json:"is_directory"`
	SharedLink     *string    `db:"shared_link" json:"shared_link,omitempty"`
	LinkExpiration *time.Time `db:"link_expiration" json:"link_expiration,omitempty"`
	CreatedAt      time.Time  `db:"created_at" json:"created_at"`
	LastAccessed   *time.Time `db:"last_accessed" json:"last_accessed,omitempty"`
	AccessCount    int64      `db:"access_count" json:"access_count"`
}

// EntryInfo describes one directory entry as returned by a listing.
type EntryInfo struct {
	Name     string    `json:"name"`
	IsDir    bool      `json:"is_dir"`
	Size     int64     `json:"size"`
	Path     string    `json:"path"`
	Modified time.Time `json:"modified"`
}

// KnownDevice is a persisted device identity, keyed by MAC address.
type KnownDevice struct {
	ID         int64  `db:"id" json:"id"`
	MACAddress string `db:"mac_address" json:"mac_address"`
	Name       string `db:"name" json:"name"`
	DeviceType string `db:"device_type" json:"device_type"`
}

// Device is a reconciled scan result. Not persisted.
type Device struct {
	ID         int64  `json:"id"`
	Name       string `json:"name"`
	MACAddress string `json:"mac_address"`
	IPAddress  string `json:"ip_address"`
	DeviceType string `json:"device_type"`
	Status     string `json:"status"`
}

// Identity is the verified caller identity supplied by the auth middleware.
type Identity struct {
	UserID   int64  `json:"user_id"`
	Username string `json:"username"`
	Role     string `json:"role"`
}
