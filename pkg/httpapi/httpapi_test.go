package httpapi_test

import (
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/fileshare/fileshared/pkg/blob/fsstore"
	"github.com/fileshare/fileshared/pkg/httpapi"
	"github.com/fileshare/fileshared/pkg/metadata/sqlitestore"
	"github.com/fileshare/fileshared/pkg/metrics"
	"github.com/fileshare/fileshared/pkg/server"
)

func TestHealthzReportsAddr(t *testing.T) {
	dir := t.TempDir()
	meta, err := sqlitestore.Open(filepath.Join(dir, "fileshare.db"))
	require.NoError(t, err)
	defer meta.Close()

	blobs, err := fsstore.Open(filepath.Join(dir, "storage"))
	require.NoError(t, err)
	defer blobs.Close()

	engine := server.NewEngine(meta, blobs)
	dispatcher := server.NewDispatcher(engine)
	acceptor, err := server.NewAcceptor("127.0.0.1:0", dispatcher)
	require.NoError(t, err)
	defer acceptor.Shutdown(t.Context())

	router := httpapi.NewRouter(acceptor, time.Now())
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), acceptor.Addr().String())
}

func TestMetricsRouteAbsentWhenDisabled(t *testing.T) {
	dir := t.TempDir()
	meta, err := sqlitestore.Open(filepath.Join(dir, "fileshare.db"))
	require.NoError(t, err)
	defer meta.Close()

	blobs, err := fsstore.Open(filepath.Join(dir, "storage"))
	require.NoError(t, err)
	defer blobs.Close()

	engine := server.NewEngine(meta, blobs)
	dispatcher := server.NewDispatcher(engine)
	acceptor, err := server.NewAcceptor("127.0.0.1:0", dispatcher)
	require.NoError(t, err)
	defer acceptor.Shutdown(t.Context())

	require.False(t, metrics.IsEnabled())

	router := httpapi.NewRouter(acceptor, time.Now())
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusNotFound, rec.Code)
}
