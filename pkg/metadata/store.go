// Package metadata implements the VFS tree and user store (C3): a
// persistent tree of file/directory records and user records, with a
// process-wide exclusive-access discipline enforced by every
// implementation regardless of the underlying relational engine.
package metadata

import "context"

// SearchResult augments a File with its reconstructed absolute path,
// which only the search operation needs to surface.
type SearchResult struct {
	File
	Path string
}

// Store is the full contract for the metadata layer. Every
// implementation must behave as if a single exclusive lock guards every
// call, including reads: correctness over throughput, since handlers
// are expected to be short (spec.md §4.3).
type Store interface {
	// Users

	CreateUser(ctx context.Context, username, verifier string, isAdmin bool) (int64, error)
	VerifyUser(ctx context.Context, username, verifier string) (int64, error)
	GetUser(ctx context.Context, id int64) (*User, error)
	IsAdmin(ctx context.Context, id int64) (bool, error)
	ListUsers(ctx context.Context) ([]User, error)
	UpdateUser(ctx context.Context, id int64, isAdmin, isActive bool) error
	DeleteUser(ctx context.Context, id int64) error

	// Files

	CreateFile(ctx context.Context, parentID int64, name, blobRef string, ownerID, size int64, isDirectory bool, permissions uint16) (int64, error)
	GetFile(ctx context.Context, id int64) (*File, error)
	ListDirectory(ctx context.Context, parentID int64) ([]File, error)
	DeleteFile(ctx context.Context, id int64) error
	SetPermissions(ctx context.Context, id int64, permissions uint16) error
	Rename(ctx context.Context, id int64, newName string) error
	Move(ctx context.Context, id int64, newParentID int64) error
	Copy(ctx context.Context, sourceID, destParentID int64, newName string, ownerID int64) (int64, error)

	// Search and paths

	Search(ctx context.Context, baseDir int64, pattern string, recursive bool, limit int) ([]SearchResult, error)
	Path(ctx context.Context, id int64) (string, error)

	// Activity log

	LogActivity(ctx context.Context, userID int64, action, description string) error

	// Close releases resources held by the store (the database handle).
	Close() error
}
