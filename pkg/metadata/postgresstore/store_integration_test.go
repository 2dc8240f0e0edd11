//go:build integration

package postgresstore_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/fileshare/fileshared/pkg/metadata"
	"github.com/fileshare/fileshared/pkg/metadata/postgresstore"
)

// TestPostgresStoreCRUD exercises the same contract sqlitestore's unit
// tests exercise, against a real Postgres instance, confirming the
// gormstore implementation shared by both backends behaves identically
// regardless of dialect. Grounded on the teacher's
// pkg/metadata/store/postgres testcontainers usage, trimmed to this
// spec's plain users/files schema.
func TestPostgresStoreCRUD(t *testing.T) {
	ctx := t.Context()

	container, err := tcpostgres.Run(ctx, "postgres:16-alpine",
		tcpostgres.WithDatabase("fileshare_test"),
		tcpostgres.WithUsername("fileshare_test"),
		tcpostgres.WithPassword("fileshare_test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").WithOccurrence(2),
		),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(ctx) })

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	store, err := postgresstore.Open(dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	userID, err := store.CreateUser(ctx, "alice", "verifierhash", false)
	require.NoError(t, err)
	assert.Greater(t, userID, int64(0))

	verified, err := store.VerifyUser(ctx, "alice", "verifierhash")
	require.NoError(t, err)
	assert.Equal(t, userID, verified)

	fileID, err := store.CreateFile(ctx, metadata.RootDirectoryID, "report.txt", "blob-1", userID, 4, false, metadata.DefaultFilePermissions)
	require.NoError(t, err)

	file, err := store.GetFile(ctx, fileID)
	require.NoError(t, err)
	assert.Equal(t, "report.txt", file.Name)
	assert.Equal(t, userID, file.OwnerID)

	results, err := store.Search(ctx, metadata.RootDirectoryID, "rep*", false, 10)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "/report.txt", results[0].Path)
}
