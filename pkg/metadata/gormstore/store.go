// Package gormstore holds the metadata.Store implementation shared by
// the sqlitestore and postgresstore backends. Both backends differ only
// in which GORM dialector they open; every operation, including the
// in-process mutex that enforces the spec's "process-wide
// exclusive-access discipline... even if the underlying engine supports
// concurrent readers" requirement (spec.md §4.3), lives here.
package gormstore

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"gorm.io/gorm"

	"github.com/fileshare/fileshared/pkg/metadata"
)

// Store is a GORM-backed metadata.Store, generic over the dialector
// used to open db.
type Store struct {
	mu sync.Mutex
	db *gorm.DB
}

// New wraps an already-opened *gorm.DB whose schema has already been
// brought up to date by pkg/metadata/migrations, returning a Store that
// serializes every operation behind one mutex.
func New(db *gorm.DB) (*Store, error) {
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (s *Store) lock() func() {
	s.mu.Lock()
	return s.mu.Unlock
}

func (s *Store) CreateUser(ctx context.Context, username, verifier string, isAdmin bool) (int64, error) {
	defer s.lock()()

	var count int64
	if err := s.db.WithContext(ctx).Model(&metadata.User{}).Where("username = ?", username).Count(&count).Error; err != nil {
		return 0, metadata.NewIOError("count users: %v", err)
	}
	if count > 0 {
		return 0, metadata.NewExistsError("username %q already exists", username)
	}

	user := metadata.User{
		Username:  username,
		Verifier:  verifier,
		IsAdmin:   isAdmin,
		IsActive:  true,
		CreatedAt: time.Now(),
	}
	if err := s.db.WithContext(ctx).Create(&user).Error; err != nil {
		return 0, metadata.NewIOError("create user: %v", err)
	}
	return user.ID, nil
}

func (s *Store) VerifyUser(ctx context.Context, username, verifier string) (int64, error) {
	defer s.lock()()

	var user metadata.User
	err := s.db.WithContext(ctx).Where("username = ? AND is_active = ?", username, true).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, metadata.NewAuthFailError("invalid credentials")
	}
	if err != nil {
		return 0, metadata.NewIOError("lookup user: %v", err)
	}
	if !constantTimeEqual(user.Verifier, verifier) {
		return 0, metadata.NewAuthFailError("invalid credentials")
	}
	return user.ID, nil
}

func (s *Store) GetUser(ctx context.Context, id int64) (*metadata.User, error) {
	defer s.lock()()
	return s.getUserLocked(ctx, id)
}

func (s *Store) getUserLocked(ctx context.Context, id int64) (*metadata.User, error) {
	var user metadata.User
	err := s.db.WithContext(ctx).First(&user, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, metadata.NewNotFoundError("user %d not found", id)
	}
	if err != nil {
		return nil, metadata.NewIOError("get user: %v", err)
	}
	return &user, nil
}

func (s *Store) IsAdmin(ctx context.Context, id int64) (bool, error) {
	defer s.lock()()
	user, err := s.getUserLocked(ctx, id)
	if err != nil {
		return false, err
	}
	return user.IsAdmin, nil
}

func (s *Store) ListUsers(ctx context.Context) ([]metadata.User, error) {
	defer s.lock()()

	var users []metadata.User
	if err := s.db.WithContext(ctx).Order("id ASC").Find(&users).Error; err != nil {
		return nil, metadata.NewIOError("list users: %v", err)
	}
	return users, nil
}

func (s *Store) UpdateUser(ctx context.Context, id int64, isAdmin, isActive bool) error {
	defer s.lock()()

	if id == metadata.PrimaryAdminID && !isAdmin {
		return metadata.NewForbiddenError("primary admin cannot have is_admin cleared")
	}

	res := s.db.WithContext(ctx).Model(&metadata.User{}).Where("id = ?", id).
		Updates(map[string]any{"is_admin": isAdmin, "is_active": isActive})
	if res.Error != nil {
		return metadata.NewIOError("update user: %v", res.Error)
	}
	if res.RowsAffected == 0 {
		return metadata.NewNotFoundError("user %d not found", id)
	}
	return nil
}

func (s *Store) DeleteUser(ctx context.Context, id int64) error {
	defer s.lock()()

	if id == metadata.PrimaryAdminID {
		return metadata.NewForbiddenError("primary admin cannot be deleted")
	}

	res := s.db.WithContext(ctx).Delete(&metadata.User{}, id)
	if res.Error != nil {
		return metadata.NewIOError("delete user: %v", res.Error)
	}
	if res.RowsAffected == 0 {
		return metadata.NewNotFoundError("user %d not found", id)
	}
	return nil
}

func (s *Store) CreateFile(ctx context.Context, parentID int64, name, blobRef string, ownerID, size int64, isDirectory bool, permissions uint16) (int64, error) {
	defer s.lock()()

	file := metadata.File{
		ParentID:    parentID,
		Name:        name,
		BlobRef:     blobRef,
		OwnerID:     ownerID,
		Size:        size,
		IsDirectory: isDirectory,
		Permissions: permissions,
		CreatedAt:   time.Now(),
	}
	if err := s.db.WithContext(ctx).Create(&file).Error; err != nil {
		return 0, metadata.NewIOError("create file: %v", err)
	}
	return file.ID, nil
}

func (s *Store) getFileLocked(ctx context.Context, id int64) (*metadata.File, error) {
	var file metadata.File
	err := s.db.WithContext(ctx).First(&file, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, metadata.NewNotFoundError("file %d not found", id)
	}
	if err != nil {
		return nil, metadata.NewIOError("get file: %v", err)
	}
	return &file, nil
}

func (s *Store) GetFile(ctx context.Context, id int64) (*metadata.File, error) {
	defer s.lock()()
	return s.getFileLocked(ctx, id)
}

func (s *Store) ListDirectory(ctx context.Context, parentID int64) ([]metadata.File, error) {
	defer s.lock()()

	var files []metadata.File
	err := s.db.WithContext(ctx).Where("parent_id = ?", parentID).
		Order("is_directory DESC, name ASC").Find(&files).Error
	if err != nil {
		return nil, metadata.NewIOError("list directory: %v", err)
	}
	return files, nil
}

func (s *Store) DeleteFile(ctx context.Context, id int64) error {
	defer s.lock()()

	res := s.db.WithContext(ctx).Delete(&metadata.File{}, id)
	if res.Error != nil {
		return metadata.NewIOError("delete file: %v", res.Error)
	}
	if res.RowsAffected == 0 {
		return metadata.NewNotFoundError("file %d not found", id)
	}
	return nil
}

func (s *Store) SetPermissions(ctx context.Context, id int64, permissions uint16) error {
	defer s.lock()()

	res := s.db.WithContext(ctx).Model(&metadata.File{}).Where("id = ?", id).Update("permissions", permissions)
	if res.Error != nil {
		return metadata.NewIOError("set permissions: %v", res.Error)
	}
	if res.RowsAffected == 0 {
		return metadata.NewNotFoundError("file %d not found", id)
	}
	return nil
}

func (s *Store) Rename(ctx context.Context, id int64, newName string) error {
	defer s.lock()()

	res := s.db.WithContext(ctx).Model(&metadata.File{}).Where("id = ?", id).Update("name", newName)
	if res.Error != nil {
		return metadata.NewIOError("rename: %v", res.Error)
	}
	if res.RowsAffected == 0 {
		return metadata.NewNotFoundError("file %d not found", id)
	}
	return nil
}

func (s *Store) Move(ctx context.Context, id int64, newParentID int64) error {
	defer s.lock()()

	res := s.db.WithContext(ctx).Model(&metadata.File{}).Where("id = ?", id).Update("parent_id", newParentID)
	if res.Error != nil {
		return metadata.NewIOError("move: %v", res.Error)
	}
	if res.RowsAffected == 0 {
		return metadata.NewNotFoundError("file %d not found", id)
	}
	return nil
}

// Copy creates a new metadata row referencing a synthesized blob
// reference that is never written to the blob store — preserving the
// spec's documented open question verbatim (a download of the copy
// will fail with io_error).
func (s *Store) Copy(ctx context.Context, sourceID, destParentID int64, newName string, ownerID int64) (int64, error) {
	defer s.lock()()

	src, err := s.getFileLocked(ctx, sourceID)
	if err != nil {
		return 0, err
	}

	name := newName
	if name == "" {
		name = src.Name
	}

	var blobRef string
	if !src.IsDirectory {
		blobRef = fmt.Sprintf("copy_%d_%s", sourceID, src.BlobRef)
	}

	copyFile := metadata.File{
		ParentID:    destParentID,
		Name:        name,
		BlobRef:     blobRef,
		OwnerID:     ownerID,
		Size:        src.Size,
		IsDirectory: src.IsDirectory,
		Permissions: src.Permissions,
		CreatedAt:   time.Now(),
	}
	if err := s.db.WithContext(ctx).Create(&copyFile).Error; err != nil {
		return 0, metadata.NewIOError("copy file: %v", err)
	}
	return copyFile.ID, nil
}

func (s *Store) Search(ctx context.Context, baseDir int64, pattern string, recursive bool, limit int) ([]metadata.SearchResult, error) {
	defer s.lock()()

	like, ok := metadata.TranslatePattern(pattern)
	if !ok {
		return nil, metadata.NewBadRequestError("pattern %q is not a valid search pattern", pattern)
	}
	limit = metadata.ClampSearchLimit(limit)

	var matches []metadata.File
	if recursive {
		dirs, err := s.subtreeDirsLocked(ctx, baseDir)
		if err != nil {
			return nil, err
		}
		err = s.db.WithContext(ctx).
			Where("parent_id IN ? AND LOWER(name) LIKE LOWER(?) ESCAPE '\\'", dirs, like).
			Order("is_directory DESC, name ASC").
			Limit(limit).
			Find(&matches).Error
		if err != nil {
			return nil, metadata.NewIOError("search: %v", err)
		}
	} else {
		err := s.db.WithContext(ctx).
			Where("parent_id = ? AND LOWER(name) LIKE LOWER(?) ESCAPE '\\'", baseDir, like).
			Order("is_directory DESC, name ASC").
			Limit(limit).
			Find(&matches).Error
		if err != nil {
			return nil, metadata.NewIOError("search: %v", err)
		}
	}

	results := make([]metadata.SearchResult, 0, len(matches))
	for _, f := range matches {
		path, err := s.pathLocked(ctx, f.ID)
		if err != nil {
			return nil, err
		}
		results = append(results, metadata.SearchResult{File: f, Path: path})
	}
	return results, nil
}

// subtreeDirsLocked returns baseDir plus every directory id reachable
// from it, breadth-by-level, capped at metadata.MaxSearchDepth levels.
func (s *Store) subtreeDirsLocked(ctx context.Context, baseDir int64) ([]int64, error) {
	dirs := []int64{baseDir}
	frontier := []int64{baseDir}

	for depth := 0; depth < metadata.MaxSearchDepth && len(frontier) > 0; depth++ {
		var children []metadata.File
		err := s.db.WithContext(ctx).
			Where("parent_id IN ? AND is_directory = ?", frontier, true).
			Find(&children).Error
		if err != nil {
			return nil, metadata.NewIOError("search subtree: %v", err)
		}
		if len(children) == 0 {
			break
		}
		frontier = frontier[:0]
		for _, c := range children {
			dirs = append(dirs, c.ID)
			frontier = append(frontier, c.ID)
		}
	}
	return dirs, nil
}

func (s *Store) Path(ctx context.Context, id int64) (string, error) {
	defer s.lock()()
	return s.pathLocked(ctx, id)
}

func (s *Store) pathLocked(ctx context.Context, id int64) (string, error) {
	if id == metadata.RootDirectoryID {
		return "/", nil
	}

	var segments []string
	current := id
	for depth := 0; depth < metadata.MaxPathDepth; depth++ {
		if current == metadata.RootDirectoryID {
			break
		}
		file, err := s.getFileLocked(ctx, current)
		if err != nil {
			return "", err
		}
		name := file.Name
		if name == "/" {
			name = ""
		}
		segments = append([]string{name}, segments...)
		current = file.ParentID
	}

	return "/" + strings.Join(segments, "/"), nil
}

func (s *Store) LogActivity(ctx context.Context, userID int64, action, description string) error {
	defer s.lock()()

	entry := metadata.ActivityLogEntry{
		UserID:      userID,
		Action:      action,
		Description: description,
		CreatedAt:   time.Now(),
	}
	if err := s.db.WithContext(ctx).Create(&entry).Error; err != nil {
		return metadata.NewIOError("log activity: %v", err)
	}
	return nil
}

// constantTimeEqual compares two hex digests without leaking timing
// information about where they first differ.
func constantTimeEqual(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	var diff byte
	for i := 0; i < len(a); i++ {
		diff |= a[i] ^ b[i]
	}
	return diff == 0
}

var _ metadata.Store = (*Store)(nil)
