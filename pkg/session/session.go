// Package session implements the per-connection session state machine
// (C5), grounded on original_source/src/server/thread_pool.h's
// ClientState enum and ClientSession struct.
package session

import (
	"net"
	"sync"

	"github.com/fileshare/fileshared/pkg/metadata"
)

// State is one of the four states a session may be in.
type State int

const (
	StateConnected State = iota
	StateAuthenticated
	StateTransferring
	StateDisconnected
)

func (s State) String() string {
	switch s {
	case StateConnected:
		return "connected"
	case StateAuthenticated:
		return "authenticated"
	case StateTransferring:
		return "transferring"
	case StateDisconnected:
		return "disconnected"
	default:
		return "unknown"
	}
}

// PendingUpload is the (blob id, declared size) pair a session
// remembers between an upload-request and its upload-data.
type PendingUpload struct {
	BlobID       string
	FileID       int64
	DeclaredSize int64
}

// Session holds everything owned exclusively by one connection: its
// socket, authenticated identity, current-directory cursor, and any
// pending upload descriptor.
type Session struct {
	mu sync.Mutex

	ID     int64
	Conn   net.Conn
	state  State

	UserID     int64 // -1 before login
	CurrentDir int64 // 0 (root) at login

	pending *PendingUpload
}

// New creates a session in the connected (pre-auth) state.
func New(id int64, conn net.Conn) *Session {
	return &Session{
		ID:         id,
		Conn:       conn,
		state:      StateConnected,
		UserID:     -1,
		CurrentDir: metadata.RootDirectoryID,
	}
}

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Authenticate transitions connected -> authenticated, recording the
// logged-in user and resetting the current directory to root.
func (s *Session) Authenticate(userID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = StateAuthenticated
	s.UserID = userID
	s.CurrentDir = metadata.RootDirectoryID
}

// BeginTransfer transitions authenticated -> transferring, remembering
// the pending upload descriptor.
func (s *Session) BeginTransfer(p PendingUpload) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = StateTransferring
	s.pending = &p
}

// EndTransfer transitions transferring -> authenticated and clears the
// pending descriptor, regardless of whether the transfer succeeded.
func (s *Session) EndTransfer() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = StateAuthenticated
	s.pending = nil
}

// Pending returns the current pending upload descriptor, or nil if
// none is outstanding.
func (s *Session) Pending() *PendingUpload {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pending
}

// SetCurrentDir updates the session's current-directory cursor.
func (s *Session) SetCurrentDir(dirID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.CurrentDir = dirID
}

func (s *Session) GetCurrentDir() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.CurrentDir
}

func (s *Session) GetUserID() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.UserID
}

// Disconnect transitions to disconnected from any state. It performs a
// bidirectional shutdown of the underlying socket so that any pending
// blocking read in the worker goroutine returns with an error.
func (s *Session) Disconnect() {
	s.mu.Lock()
	s.state = StateDisconnected
	s.mu.Unlock()

	if tcp, ok := s.Conn.(*net.TCPConn); ok {
		_ = tcp.CloseRead()
		_ = tcp.CloseWrite()
	}
	_ = s.Conn.Close()
}

func (s *Session) IsAuthenticated() bool {
	return s.State() != StateConnected && s.State() != StateDisconnected
}
