// Package wire implements the framed binary protocol spoken between
// fileshared and its clients: a fixed 2-byte magic, a 1-byte command,
// a 4-byte big-endian length, and a payload.
package wire

import (
	"encoding/binary"
	"errors"
	"io"
)

// Command identifies the operation carried by a packet.
type Command byte

const (
	CmdLoginRequest  Command = 0x01
	CmdLoginResponse Command = 0x02

	CmdListDir   Command = 0x10
	CmdChangeDir Command = 0x11
	CmdMkdir     Command = 0x12

	CmdUploadRequest Command = 0x20
	CmdUploadData    Command = 0x21

	CmdDownloadRequest  Command = 0x30
	CmdDownloadResponse Command = 0x31

	CmdDelete       Command = 0x40
	CmdChmod        Command = 0x41
	CmdFileInfo     Command = 0x42
	CmdSearchReq    Command = 0x43
	CmdSearchRes    Command = 0x44
	CmdRename       Command = 0x45
	CmdCopy         Command = 0x46
	CmdMove         Command = 0x47

	CmdAdminListUsers  Command = 0x50
	CmdAdminCreateUser Command = 0x51
	CmdAdminDeleteUser Command = 0x52
	CmdAdminUpdateUser Command = 0x53

	CmdSuccess Command = 0xFE
	CmdError   Command = 0xFF
)

// String renders a Command as its wire-table name, for logging and
// metrics labels.
func (c Command) String() string {
	switch c {
	case CmdLoginRequest:
		return "login-request"
	case CmdLoginResponse:
		return "login-response"
	case CmdListDir:
		return "list-dir"
	case CmdChangeDir:
		return "change-dir"
	case CmdMkdir:
		return "mkdir"
	case CmdUploadRequest:
		return "upload-request"
	case CmdUploadData:
		return "upload-data"
	case CmdDownloadRequest:
		return "download-request"
	case CmdDownloadResponse:
		return "download-response"
	case CmdDelete:
		return "delete"
	case CmdChmod:
		return "chmod"
	case CmdFileInfo:
		return "file-info"
	case CmdSearchReq:
		return "search-request"
	case CmdSearchRes:
		return "search-response"
	case CmdRename:
		return "rename"
	case CmdCopy:
		return "copy"
	case CmdMove:
		return "move"
	case CmdAdminListUsers:
		return "admin-list-users"
	case CmdAdminCreateUser:
		return "admin-create-user"
	case CmdAdminDeleteUser:
		return "admin-delete-user"
	case CmdAdminUpdateUser:
		return "admin-update-user"
	case CmdSuccess:
		return "success"
	case CmdError:
		return "error"
	default:
		return "unknown"
	}
}

// MagicByte1 and MagicByte2 form the fixed 2-byte packet prefix.
const (
	MagicByte1 byte = 0xFA
	MagicByte2 byte = 0xCE

	// HeaderSize is magic(2) + command(1) + length(4).
	HeaderSize = 7

	// MaxPayloadSize bounds a single packet's payload.
	MaxPayloadSize = 16 * 1024 * 1024
)

// Kind classifies a framing failure so callers can decide whether the
// connection must be torn down.
type Kind int

const (
	KindBadMagic Kind = iota
	KindShortRead
	KindPayloadTooLarge
	KindPeerClosed
)

// FrameError is returned by Decode for any framing-level failure.
// Every kind except KindPeerClosed is fatal to the connection.
type FrameError struct {
	Kind Kind
	Err  error
}

func (e *FrameError) Error() string {
	switch e.Kind {
	case KindBadMagic:
		return "wire: bad magic"
	case KindShortRead:
		return "wire: short read"
	case KindPayloadTooLarge:
		return "wire: payload too large"
	case KindPeerClosed:
		return "wire: peer closed"
	default:
		return "wire: frame error"
	}
}

func (e *FrameError) Unwrap() error { return e.Err }

// IsPeerClosed reports whether err denotes a clean end-of-session,
// which is not itself an error condition.
func IsPeerClosed(err error) bool {
	var fe *FrameError
	return errors.As(err, &fe) && fe.Kind == KindPeerClosed
}

// Encode writes one packet to w: magic, command, big-endian length,
// then payload verbatim.
func Encode(w io.Writer, cmd Command, payload []byte) error {
	if len(payload) > MaxPayloadSize {
		return &FrameError{Kind: KindPayloadTooLarge}
	}

	header := make([]byte, HeaderSize)
	header[0] = MagicByte1
	header[1] = MagicByte2
	header[2] = byte(cmd)
	binary.BigEndian.PutUint32(header[3:], uint32(len(payload)))

	if _, err := w.Write(header); err != nil {
		return err
	}
	if len(payload) == 0 {
		return nil
	}
	_, err := w.Write(payload)
	return err
}

// Decode reads exactly one packet from r. A clean EOF before any byte
// of a new packet is reported as KindPeerClosed, not a Go error in the
// usual sense; callers should treat it as normal session termination.
func Decode(r io.Reader) (Command, []byte, error) {
	header := make([]byte, HeaderSize)
	n, err := io.ReadFull(r, header)
	if err != nil {
		if n == 0 && errors.Is(err, io.EOF) {
			return 0, nil, &FrameError{Kind: KindPeerClosed, Err: err}
		}
		return 0, nil, &FrameError{Kind: KindShortRead, Err: err}
	}

	if header[0] != MagicByte1 || header[1] != MagicByte2 {
		return 0, nil, &FrameError{Kind: KindBadMagic}
	}

	cmd := Command(header[2])
	length := binary.BigEndian.Uint32(header[3:])
	if length > MaxPayloadSize {
		return 0, nil, &FrameError{Kind: KindPayloadTooLarge}
	}
	if length == 0 {
		return cmd, nil, nil
	}

	payload := make([]byte, length)
	if _, err := io.ReadFull(r, payload); err != nil {
		return 0, nil, &FrameError{Kind: KindShortRead, Err: err}
	}

	return cmd, payload, nil
}
