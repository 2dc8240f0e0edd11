package server

import (
	"context"
	"errors"
	"net"
	"sync"
	"time"

	"github.com/fileshare/fileshared/internal/logger"
	"github.com/fileshare/fileshared/pkg/session"
	"github.com/fileshare/fileshared/pkg/wire"
)

// MaxConnections is the worker-pool cap from spec.md §4.6: accepts
// beyond this are rejected by closing the socket.
const MaxConnections = 100

// connDeadline bounds a single read or write on a client socket
// (spec.md §5: "5 minutes each").
const connDeadline = 5 * time.Minute

// drainTimeout is how long Shutdown waits for in-flight workers to exit
// before returning; workers still running after it are not waited for
// (spec.md §4.6: "~5 seconds").
const drainTimeout = 5 * time.Second

// Acceptor owns the listening socket and the registry of live sessions,
// grounded on original_source/src/server/thread_pool.h's ClientSession
// array and server.h's accept loop, adapted to a goroutine-per-connection
// model instead of a fixed native thread pool.
type Acceptor struct {
	listener   net.Listener
	dispatcher *Dispatcher

	mu       sync.Mutex
	sessions map[int64]*session.Session
	nextID   int64

	wg sync.WaitGroup
}

// NewAcceptor binds addr and returns a ready Acceptor.
func NewAcceptor(addr string, dispatcher *Dispatcher) (*Acceptor, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}
	return &Acceptor{
		listener:   ln,
		dispatcher: dispatcher,
		sessions:   make(map[int64]*session.Session),
	}, nil
}

// Addr returns the bound local address, useful when addr was ":0".
func (a *Acceptor) Addr() net.Addr {
	return a.listener.Addr()
}

// Serve runs the accept loop until the listener is closed (by Shutdown
// or an external Close). It returns nil on a clean shutdown.
func (a *Acceptor) Serve() error {
	for {
		conn, err := a.listener.Accept()
		if err != nil {
			if isClosedErr(err) {
				return nil
			}
			return err
		}

		a.mu.Lock()
		count := len(a.sessions)
		a.mu.Unlock()
		if count >= MaxConnections {
			logger.Warn("rejecting connection: worker pool at capacity", "remote", conn.RemoteAddr(), "cap", MaxConnections)
			_ = conn.Close()
			continue
		}

		sess := a.register(conn)
		a.wg.Add(1)
		go a.serveConn(sess)
	}
}

func (a *Acceptor) register(conn net.Conn) *session.Session {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.nextID++
	sess := session.New(a.nextID, conn)
	a.sessions[sess.ID] = sess
	return sess
}

func (a *Acceptor) unregister(sess *session.Session) {
	a.mu.Lock()
	defer a.mu.Unlock()
	delete(a.sessions, sess.ID)
}

// serveConn is the per-connection worker loop: read a frame, dispatch
// it, write the response, repeat until a fatal framing error or a
// decode-level peer close.
func (a *Acceptor) serveConn(sess *session.Session) {
	defer a.wg.Done()
	defer a.unregister(sess)
	defer sess.Disconnect()
	defer a.dispatcher.Engine.Metrics.ConnectionClosed()

	ctx := context.Background()
	a.dispatcher.Engine.Metrics.ConnectionOpened()
	logger.Info("client connected", "session_id", sess.ID, "remote", sess.Conn.RemoteAddr())

	for {
		_ = sess.Conn.SetReadDeadline(time.Now().Add(connDeadline))
		cmd, payload, err := wire.Decode(sess.Conn)
		if err != nil {
			if !wire.IsPeerClosed(err) {
				logger.Warn("framing error, closing connection", "session_id", sess.ID, "error", err)
			}
			return
		}

		respCmd, respPayload := a.dispatcher.Dispatch(ctx, sess, cmd, payload)

		_ = sess.Conn.SetWriteDeadline(time.Now().Add(connDeadline))
		if err := wire.Encode(sess.Conn, respCmd, respPayload); err != nil {
			logger.Warn("write error, closing connection", "session_id", sess.ID, "error", err)
			return
		}
	}
}

// Shutdown closes the listener and every live session's socket, then
// waits up to drainTimeout for workers to notice and exit before
// returning. Surviving workers are left to finish on their own; their
// sockets are already closed so the next read fails immediately.
func (a *Acceptor) Shutdown(ctx context.Context) error {
	_ = a.listener.Close()

	a.mu.Lock()
	for _, sess := range a.sessions {
		sess.Disconnect()
	}
	a.mu.Unlock()

	done := make(chan struct{})
	go func() {
		a.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-time.After(drainTimeout):
		logger.Warn("shutdown drain window elapsed with workers still running")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func isClosedErr(err error) bool {
	return errors.Is(err, net.ErrClosed)
}
