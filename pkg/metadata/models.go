package metadata

import "time"

// User is a registered account. id=1 is always the primary admin: it
// cannot be deleted and its IsAdmin flag cannot be cleared.
type User struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	Username  string    `gorm:"uniqueIndex;size:32;not null" json:"username"`
	Verifier  string    `gorm:"size:64;not null" json:"-"`
	IsAdmin   bool      `gorm:"not null;default:false" json:"is_admin"`
	IsActive  bool      `gorm:"not null;default:true" json:"is_active"`
	CreatedAt time.Time `gorm:"not null" json:"created_at"`
}

// File is a row of the VFS tree: either a directory (IsDirectory=true,
// BlobRef empty) or a file (IsDirectory=false, BlobRef the opaque id of
// its body in the blob store). ParentID=0 denotes the conceptual root,
// which is never itself stored as a row.
type File struct {
	ID          int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	ParentID    int64     `gorm:"index;not null" json:"parent_id"`
	Name        string    `gorm:"size:255;not null" json:"name"`
	BlobRef     string    `gorm:"size:64" json:"-"`
	OwnerID     int64     `gorm:"index;not null" json:"owner_id"`
	Size        int64     `gorm:"not null;default:0" json:"size"`
	IsDirectory bool      `gorm:"not null" json:"is_directory"`
	Permissions uint16    `gorm:"not null" json:"permissions"`
	CreatedAt   time.Time `gorm:"not null" json:"created_at"`
}

// ActivityLogEntry is one append-only row of the activity log. It is
// never read back by the protocol layer itself.
type ActivityLogEntry struct {
	ID          int64     `gorm:"primaryKey;autoIncrement"`
	UserID      int64     `gorm:"index;not null"`
	Action      string    `gorm:"size:64;not null"`
	Description string    `gorm:"size:1024"`
	CreatedAt   time.Time `gorm:"not null"`
}

// Default permission bits for newly created records (spec.md §9: "not
// configurable").
const (
	DefaultDirPermissions  uint16 = 0o755
	DefaultFilePermissions uint16 = 0o644
)

// RootDirectoryID is the conceptual root. It is never stored as a File
// row but behaves like a directory everyone can read/write/execute.
const RootDirectoryID int64 = 0

// PrimaryAdminID is the non-deletable, perpetually-admin user created at
// schema bootstrap.
const PrimaryAdminID int64 = 1
