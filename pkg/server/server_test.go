package server_test

import (
	"encoding/json"
	"net"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fileshare/fileshared/pkg/blob/fsstore"
	"github.com/fileshare/fileshared/pkg/metadata/sqlitestore"
	"github.com/fileshare/fileshared/pkg/server"
	"github.com/fileshare/fileshared/pkg/wire"
)

// testServer boots a real Engine/Acceptor pair against a temp-dir
// sqlite metadata store and fs blob store, listening on an
// OS-assigned loopback port, and returns a dial function plus a
// shutdown func.
func testServer(t *testing.T) (dial func() net.Conn, shutdown func()) {
	t.Helper()

	dir := t.TempDir()
	meta, err := sqlitestore.Open(filepath.Join(dir, "fileshare.db"))
	require.NoError(t, err)

	blobs, err := fsstore.Open(filepath.Join(dir, "storage"))
	require.NoError(t, err)

	engine := server.NewEngine(meta, blobs)
	require.NoError(t, engine.Bootstrap(t.Context()))

	dispatcher := server.NewDispatcher(engine)
	acceptor, err := server.NewAcceptor("127.0.0.1:0", dispatcher)
	require.NoError(t, err)

	go func() { _ = acceptor.Serve() }()

	addr := acceptor.Addr().String()
	dial = func() net.Conn {
		conn, err := net.Dial("tcp", addr)
		require.NoError(t, err)
		return conn
	}
	shutdown = func() {
		_ = acceptor.Shutdown(t.Context())
		_ = meta.Close()
		_ = blobs.Close()
	}
	return dial, shutdown
}

func send(t *testing.T, conn net.Conn, cmd wire.Command, v any) {
	t.Helper()
	var payload []byte
	if v != nil {
		b, err := json.Marshal(v)
		require.NoError(t, err)
		payload = b
	}
	require.NoError(t, wire.Encode(conn, cmd, payload))
}

func recv(t *testing.T, conn net.Conn) (wire.Command, []byte) {
	t.Helper()
	cmd, payload, err := wire.Decode(conn)
	require.NoError(t, err)
	return cmd, payload
}

func recvJSON(t *testing.T, conn net.Conn, v any) wire.Command {
	t.Helper()
	cmd, payload := recv(t, conn)
	require.NoError(t, json.Unmarshal(payload, v))
	return cmd
}

// TestAuthGate covers testable property 2 with list-dir: sent before
// authentication it is rejected, and after login it succeeds.
func TestAuthGate(t *testing.T) {
	dial, shutdown := testServer(t)
	defer shutdown()

	conn := dial()
	defer conn.Close()

	send(t, conn, wire.CmdListDir, map[string]any{})
	cmd, _ := recv(t, conn)
	assert.Equal(t, wire.CmdError, cmd)

	send(t, conn, wire.CmdLoginRequest, map[string]any{"username": "admin", "password": "admin"})
	var resp map[string]any
	cmd = recvJSON(t, conn, &resp)
	assert.Equal(t, wire.CmdLoginResponse, cmd)
	assert.EqualValues(t, 1, resp["user_id"])

	send(t, conn, wire.CmdListDir, map[string]any{})
	cmd, _ = recv(t, conn)
	assert.Equal(t, wire.CmdSuccess, cmd)
}

func login(t *testing.T, conn net.Conn, username, password string) map[string]any {
	t.Helper()
	send(t, conn, wire.CmdLoginRequest, map[string]any{"username": username, "password": password})
	var resp map[string]any
	cmd := recvJSON(t, conn, &resp)
	require.Equal(t, wire.CmdLoginResponse, cmd)
	return resp
}

// TestEndToEndScenarios drives the literal E1-E6 scenarios from
// spec.md §8 against one running server instance.
func TestEndToEndScenarios(t *testing.T) {
	dial, shutdown := testServer(t)
	defer shutdown()

	// E1
	admin := dial()
	defer admin.Close()
	resp := login(t, admin, "admin", "admin")
	assert.EqualValues(t, 1, resp["user_id"])
	assert.EqualValues(t, 1, resp["is_admin"])

	// E2
	send(t, admin, wire.CmdMkdir, map[string]any{"name": "docs"})
	var mkdirResp map[string]any
	cmd := recvJSON(t, admin, &mkdirResp)
	require.Equal(t, wire.CmdSuccess, cmd)
	dirID := int64(mkdirResp["directory_id"].(float64))
	require.Greater(t, dirID, int64(0))

	send(t, admin, wire.CmdListDir, map[string]any{})
	var listResp struct {
		Status string `json:"status"`
		Files  []struct {
			ID          int64  `json:"id"`
			Name        string `json:"name"`
			IsDirectory bool   `json:"is_directory"`
			Owner       string `json:"owner"`
		} `json:"files"`
	}
	cmd = recvJSON(t, admin, &listResp)
	require.Equal(t, wire.CmdSuccess, cmd)
	require.Len(t, listResp.Files, 1)
	assert.Equal(t, "docs", listResp.Files[0].Name)
	assert.True(t, listResp.Files[0].IsDirectory)
	assert.Equal(t, "admin", listResp.Files[0].Owner)

	// E3
	send(t, admin, wire.CmdChangeDir, map[string]any{"directory_id": dirID})
	cmd, _ = recv(t, admin)
	require.Equal(t, wire.CmdSuccess, cmd)

	send(t, admin, wire.CmdUploadRequest, map[string]any{"name": "a.txt", "size": 5})
	var uploadResp map[string]any
	cmd = recvJSON(t, admin, &uploadResp)
	require.Equal(t, wire.CmdSuccess, cmd)
	fileID := int64(uploadResp["file_id"].(float64))
	require.NotEmpty(t, uploadResp["uuid"])

	require.NoError(t, wire.Encode(admin, wire.CmdUploadData, []byte("hello")))
	var okResp map[string]any
	cmd = recvJSON(t, admin, &okResp)
	require.Equal(t, wire.CmdSuccess, cmd)
	assert.Equal(t, "OK", okResp["status"])

	send(t, admin, wire.CmdDownloadRequest, map[string]any{"file_id": fileID})
	cmd, body := recv(t, admin)
	require.Equal(t, wire.CmdDownloadResponse, cmd)
	assert.Equal(t, "hello", string(body))

	// E4
	send(t, admin, wire.CmdAdminCreateUser, map[string]any{"username": "bob", "password": "pw", "is_admin": 0})
	var createResp map[string]any
	cmd = recvJSON(t, admin, &createResp)
	require.Equal(t, wire.CmdSuccess, cmd)

	bob := dial()
	defer bob.Close()
	login(t, bob, "bob", "pw")

	send(t, bob, wire.CmdDownloadRequest, map[string]any{"file_id": fileID})
	cmd, body = recv(t, bob)
	require.Equal(t, wire.CmdDownloadResponse, cmd)
	assert.Equal(t, "hello", string(body))

	send(t, bob, wire.CmdChmod, map[string]any{"file_id": fileID, "permissions": "600"})
	cmd, _ = recv(t, bob)
	assert.Equal(t, wire.CmdError, cmd)

	send(t, bob, wire.CmdDelete, map[string]any{"file_id": fileID})
	cmd, _ = recv(t, bob)
	assert.Equal(t, wire.CmdError, cmd)

	// E5
	send(t, admin, wire.CmdSearchReq, map[string]any{"pattern": "a*", "directory_id": dirID, "recursive": false, "limit": 100})
	var searchResp struct {
		Status  string `json:"status"`
		Count   int    `json:"count"`
		Results []struct {
			Name string `json:"name"`
			Path string `json:"path"`
		} `json:"results"`
	}
	cmd = recvJSON(t, admin, &searchResp)
	require.Equal(t, wire.CmdSearchRes, cmd)
	require.Equal(t, 1, searchResp.Count)
	assert.Equal(t, "a.txt", searchResp.Results[0].Name)
	assert.Equal(t, "/docs/a.txt", searchResp.Results[0].Path)

	// E6
	send(t, admin, wire.CmdAdminDeleteUser, map[string]any{"user_id": 1})
	cmd, _ = recv(t, admin)
	assert.Equal(t, wire.CmdError, cmd)

	again := dial()
	defer again.Close()
	resp = login(t, again, "admin", "admin")
	assert.EqualValues(t, 1, resp["user_id"])
}

// TestUploadSizeMismatch covers testable property 6.
func TestUploadSizeMismatch(t *testing.T) {
	dial, shutdown := testServer(t)
	defer shutdown()

	conn := dial()
	defer conn.Close()
	login(t, conn, "admin", "admin")

	send(t, conn, wire.CmdUploadRequest, map[string]any{"name": "b.txt", "size": 5})
	var uploadResp map[string]any
	cmd := recvJSON(t, conn, &uploadResp)
	require.Equal(t, wire.CmdSuccess, cmd)

	require.NoError(t, wire.Encode(conn, wire.CmdUploadData, []byte("abc")))
	cmd, _ = recv(t, conn)
	assert.Equal(t, wire.CmdError, cmd)

	// Session must have returned to authenticated, not stuck transferring.
	send(t, conn, wire.CmdListDir, map[string]any{})
	cmd, _ = recv(t, conn)
	assert.Equal(t, wire.CmdSuccess, cmd)
}

// TestPermissionOwnerOtherSplit covers testable property 4.
func TestPermissionOwnerOtherSplit(t *testing.T) {
	dial, shutdown := testServer(t)
	defer shutdown()

	admin := dial()
	defer admin.Close()
	login(t, admin, "admin", "admin")

	send(t, admin, wire.CmdUploadRequest, map[string]any{"name": "secret.txt", "size": 4})
	var uploadResp map[string]any
	recvJSON(t, admin, &uploadResp)
	fileID := int64(uploadResp["file_id"].(float64))
	require.NoError(t, wire.Encode(admin, wire.CmdUploadData, []byte("data")))
	recv(t, admin)

	send(t, admin, wire.CmdChmod, map[string]any{"file_id": fileID, "permissions": "600"})
	cmd, _ := recv(t, admin)
	require.Equal(t, wire.CmdSuccess, cmd)

	send(t, admin, wire.CmdAdminCreateUser, map[string]any{"username": "carol", "password": "pw"})
	recv(t, admin)

	carol := dial()
	defer carol.Close()
	login(t, carol, "carol", "pw")

	send(t, carol, wire.CmdDownloadRequest, map[string]any{"file_id": fileID})
	cmd, _ = recv(t, carol)
	assert.Equal(t, wire.CmdError, cmd)

	send(t, admin, wire.CmdChmod, map[string]any{"file_id": fileID, "permissions": "604"})
	cmd, _ = recv(t, admin)
	require.Equal(t, wire.CmdSuccess, cmd)

	send(t, carol, wire.CmdDownloadRequest, map[string]any{"file_id": fileID})
	cmd, body := recv(t, carol)
	require.Equal(t, wire.CmdDownloadResponse, cmd)
	assert.Equal(t, "data", string(body))
}

// TestRootAlwaysAccessible covers testable property 5.
func TestRootAlwaysAccessible(t *testing.T) {
	dial, shutdown := testServer(t)
	defer shutdown()

	conn := dial()
	defer conn.Close()
	login(t, conn, "admin", "admin")

	send(t, conn, wire.CmdListDir, map[string]any{"directory_id": 0})
	cmd, _ := recv(t, conn)
	assert.Equal(t, wire.CmdSuccess, cmd)
}

// TestGracefulShutdown covers testable property 10: after shutdown the
// listener stops accepting and live connections observe EOF.
func TestGracefulShutdown(t *testing.T) {
	dial, shutdown := testServer(t)

	conn := dial()
	defer conn.Close()
	login(t, conn, "admin", "admin")

	shutdown()

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	buf := make([]byte, 1)
	_, err := conn.Read(buf)
	assert.Error(t, err)
}
