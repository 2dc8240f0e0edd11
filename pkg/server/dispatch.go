package server

import (
	"context"

	"github.com/fileshare/fileshared/pkg/session"
	"github.com/fileshare/fileshared/pkg/wire"
)

// Dispatcher routes one decoded frame to its handler. It holds no
// per-connection state of its own; everything connection-scoped lives
// on the session.Session passed into Dispatch.
type Dispatcher struct {
	Engine *Engine
}

func NewDispatcher(engine *Engine) *Dispatcher {
	return &Dispatcher{Engine: engine}
}

// Dispatch is a pure function from (session, request) to (response
// command, response payload): it never blocks on anything but the
// store/blob calls the handler itself makes, and it never returns an
// error of its own — every failure path already produced a well-formed
// error response (SPEC_FULL.md §4.7).
func (d *Dispatcher) Dispatch(ctx context.Context, sess *session.Session, cmd wire.Command, payload []byte) (wire.Command, []byte) {
	respCmd, respPayload := d.dispatch(ctx, sess, cmd, payload)

	outcome := "ok"
	if respCmd == wire.CmdError {
		outcome = "error"
	}
	d.Engine.Metrics.CommandHandled(cmd.String(), outcome)
	return respCmd, respPayload
}

func (d *Dispatcher) dispatch(ctx context.Context, sess *session.Session, cmd wire.Command, payload []byte) (wire.Command, []byte) {
	state := sess.State()

	if cmd == wire.CmdUploadData {
		if state != session.StateTransferring {
			return errorResponse("upload-data requires an outstanding upload-request")
		}
		return d.handleUploadData(ctx, sess, payload)
	}

	if cmd == wire.CmdLoginRequest {
		if state != session.StateConnected {
			return errorResponse("already authenticated")
		}
		return d.handleLogin(ctx, sess, payload)
	}

	if state != session.StateAuthenticated {
		return errorResponse("not authenticated")
	}

	switch cmd {
	case wire.CmdListDir:
		return d.handleListDir(ctx, sess, payload)
	case wire.CmdChangeDir:
		return d.handleChangeDir(ctx, sess, payload)
	case wire.CmdMkdir:
		return d.handleMkdir(ctx, sess, payload)
	case wire.CmdUploadRequest:
		return d.handleUploadRequest(ctx, sess, payload)
	case wire.CmdDownloadRequest:
		return d.handleDownloadRequest(ctx, sess, payload)
	case wire.CmdChmod:
		return d.handleChmod(ctx, sess, payload)
	case wire.CmdDelete:
		return d.handleDelete(ctx, sess, payload)
	case wire.CmdFileInfo:
		return d.handleFileInfo(ctx, sess, payload)
	case wire.CmdSearchReq:
		return d.handleSearch(ctx, sess, payload)
	case wire.CmdRename:
		return d.handleRename(ctx, sess, payload)
	case wire.CmdCopy:
		return d.handleCopy(ctx, sess, payload)
	case wire.CmdMove:
		return d.handleMove(ctx, sess, payload)
	case wire.CmdAdminListUsers:
		return d.handleAdminListUsers(ctx, sess, payload)
	case wire.CmdAdminCreateUser:
		return d.handleAdminCreateUser(ctx, sess, payload)
	case wire.CmdAdminDeleteUser:
		return d.handleAdminDeleteUser(ctx, sess, payload)
	case wire.CmdAdminUpdateUser:
		return d.handleAdminUpdateUser(ctx, sess, payload)
	default:
		return errorResponse("unknown command")
	}
}
