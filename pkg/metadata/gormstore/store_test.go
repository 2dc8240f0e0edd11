package gormstore_test

import (
	"fmt"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fileshare/fileshared/pkg/metadata"
	"github.com/fileshare/fileshared/pkg/metadata/sqlitestore"
)

func openTestStore(t *testing.T) metadata.Store {
	t.Helper()
	store, err := sqlitestore.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

// TestPrimaryAdminProtection covers testable property 3: the primary
// admin cannot be deleted or demoted regardless of caller.
func TestPrimaryAdminProtection(t *testing.T) {
	ctx := t.Context()
	store := openTestStore(t)

	adminID, err := store.CreateUser(ctx, "admin", "verifier", true)
	require.NoError(t, err)
	require.Equal(t, metadata.PrimaryAdminID, adminID)

	err = store.DeleteUser(ctx, adminID)
	require.Error(t, err)
	assert.True(t, metadata.IsKind(err, metadata.ErrForbidden))

	err = store.UpdateUser(ctx, adminID, false, true)
	require.Error(t, err)
	assert.True(t, metadata.IsKind(err, metadata.ErrForbidden))

	user, err := store.GetUser(ctx, adminID)
	require.NoError(t, err)
	assert.True(t, user.IsAdmin)
}

func TestCreateUserDuplicateUsernameIsExists(t *testing.T) {
	ctx := t.Context()
	store := openTestStore(t)

	_, err := store.CreateUser(ctx, "dupe", "v1", false)
	require.NoError(t, err)

	_, err = store.CreateUser(ctx, "dupe", "v2", false)
	require.Error(t, err)
	assert.True(t, metadata.IsKind(err, metadata.ErrExists))
}

func TestVerifyUserWrongPasswordIsAuthFail(t *testing.T) {
	ctx := t.Context()
	store := openTestStore(t)

	_, err := store.CreateUser(ctx, "dan", "correcthash", false)
	require.NoError(t, err)

	_, err = store.VerifyUser(ctx, "dan", "wronghash")
	require.Error(t, err)
	assert.True(t, metadata.IsKind(err, metadata.ErrAuthFail))
}

// TestPathReconstruction walks nested directories and confirms Path
// matches the upward parent walk the spec describes.
func TestPathReconstruction(t *testing.T) {
	ctx := t.Context()
	store := openTestStore(t)

	userID, err := store.CreateUser(ctx, "walker", "v", false)
	require.NoError(t, err)

	docsID, err := store.CreateFile(ctx, metadata.RootDirectoryID, "docs", "", userID, 0, true, metadata.DefaultDirPermissions)
	require.NoError(t, err)
	draftsID, err := store.CreateFile(ctx, docsID, "drafts", "", userID, 0, true, metadata.DefaultDirPermissions)
	require.NoError(t, err)
	fileID, err := store.CreateFile(ctx, draftsID, "notes.txt", "blob-x", userID, 3, false, metadata.DefaultFilePermissions)
	require.NoError(t, err)

	path, err := store.Path(ctx, fileID)
	require.NoError(t, err)
	assert.Equal(t, "/docs/drafts/notes.txt", path)
}

// TestCopyDoesNotDuplicateBlobBytes documents the open-question
// behavior preserved from spec.md §9: a copy synthesizes a new blob
// reference without writing new bytes, so downloading a copy is
// expected to fail at the blob layer, not at the metadata layer.
func TestCopyDoesNotDuplicateBlobBytes(t *testing.T) {
	ctx := t.Context()
	store := openTestStore(t)

	userID, err := store.CreateUser(ctx, "copier", "v", false)
	require.NoError(t, err)

	srcID, err := store.CreateFile(ctx, metadata.RootDirectoryID, "a.txt", "blob-orig", userID, 5, false, metadata.DefaultFilePermissions)
	require.NoError(t, err)

	copyID, err := store.Copy(ctx, srcID, metadata.RootDirectoryID, "b.txt", userID)
	require.NoError(t, err)
	assert.NotEqual(t, srcID, copyID)

	copyFile, err := store.GetFile(ctx, copyID)
	require.NoError(t, err)
	assert.Equal(t, "b.txt", copyFile.Name)
	assert.Equal(t, int64(5), copyFile.Size)
	assert.NotEqual(t, "blob-orig", copyFile.BlobRef)
	assert.Equal(t, fmt.Sprintf("copy_%d_blob-orig", srcID), copyFile.BlobRef)
}

func TestSearchRejectsBareWildcard(t *testing.T) {
	ctx := t.Context()
	store := openTestStore(t)

	_, err := store.Search(ctx, metadata.RootDirectoryID, "*", false, 10)
	require.Error(t, err)
	assert.True(t, metadata.IsKind(err, metadata.ErrBadRequest))
}

func TestSearchNonRecursiveStaysInDirectory(t *testing.T) {
	ctx := t.Context()
	store := openTestStore(t)

	userID, err := store.CreateUser(ctx, "searcher", "v", false)
	require.NoError(t, err)

	subID, err := store.CreateFile(ctx, metadata.RootDirectoryID, "sub", "", userID, 0, true, metadata.DefaultDirPermissions)
	require.NoError(t, err)
	_, err = store.CreateFile(ctx, subID, "deep.txt", "blob-1", userID, 1, false, metadata.DefaultFilePermissions)
	require.NoError(t, err)
	_, err = store.CreateFile(ctx, metadata.RootDirectoryID, "top.txt", "blob-2", userID, 1, false, metadata.DefaultFilePermissions)
	require.NoError(t, err)

	results, err := store.Search(ctx, metadata.RootDirectoryID, "*.txt", false, 10)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "top.txt", results[0].Name)

	recursive, err := store.Search(ctx, metadata.RootDirectoryID, "*.txt", true, 10)
	require.NoError(t, err)
	assert.Len(t, recursive, 2)
}

func TestMkdirConcurrencyAllowsDuplicateNames(t *testing.T) {
	ctx := t.Context()
	store := openTestStore(t)

	userID, err := store.CreateUser(ctx, "dup", "v", false)
	require.NoError(t, err)

	id1, err := store.CreateFile(ctx, metadata.RootDirectoryID, "same", "", userID, 0, true, metadata.DefaultDirPermissions)
	require.NoError(t, err)
	id2, err := store.CreateFile(ctx, metadata.RootDirectoryID, "same", "", userID, 0, true, metadata.DefaultDirPermissions)
	require.NoError(t, err)
	assert.NotEqual(t, id1, id2)

	files, err := store.ListDirectory(ctx, metadata.RootDirectoryID)
	require.NoError(t, err)
	assert.Len(t, files, 2)
}
