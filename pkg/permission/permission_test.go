package permission_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fileshare/fileshared/pkg/metadata"
	"github.com/fileshare/fileshared/pkg/metadata/sqlitestore"
	"github.com/fileshare/fileshared/pkg/permission"
)

func newTestStore(t *testing.T) metadata.Store {
	t.Helper()
	store, err := sqlitestore.Open(t.TempDir() + "/test.db")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestMayRootAlwaysAccessible(t *testing.T) {
	store := newTestStore(t)
	ok, err := permission.May(context.Background(), store, 42, metadata.RootDirectoryID, permission.Read)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestMayOwnerVsOtherSplit(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	ownerID, err := store.CreateUser(ctx, "alice", "verifier-a", false)
	require.NoError(t, err)
	otherID, err := store.CreateUser(ctx, "bob", "verifier-b", false)
	require.NoError(t, err)

	fileID, err := store.CreateFile(ctx, metadata.RootDirectoryID, "secret.txt", "blob-1", ownerID, 5, false, 0o600)
	require.NoError(t, err)

	ok, err := permission.May(ctx, store, ownerID, fileID, permission.Read)
	require.NoError(t, err)
	assert.True(t, ok, "owner should be able to read 0600 file")

	ok, err = permission.May(ctx, store, otherID, fileID, permission.Read)
	require.NoError(t, err)
	assert.False(t, ok, "non-owner should not be able to read 0600 file")

	require.NoError(t, store.SetPermissions(ctx, fileID, 0o604))

	ok, err = permission.May(ctx, store, otherID, fileID, permission.Read)
	require.NoError(t, err)
	assert.True(t, ok, "non-owner should read 0604 file")
}

func TestFormatPermissions(t *testing.T) {
	assert.Equal(t, "rwxr-xr-x", permission.FormatPermissions(0o755))
	assert.Equal(t, "rw----r--", permission.FormatPermissions(0o604))
}

func TestParsePermissions(t *testing.T) {
	v, err := permission.ParsePermissions("644")
	require.NoError(t, err)
	assert.Equal(t, uint16(0o644), v)

	_, err = permission.ParsePermissions("999")
	assert.Error(t, err)
}
