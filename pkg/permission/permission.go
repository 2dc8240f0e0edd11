// Package permission implements the owner/other 9-bit permission check
// (C4), grounded bit-for-bit on original_source/src/server/permissions.c:
// PERM_OWNER_SHIFT/PERM_OTHER_SHIFT and the read=4/write=2/execute=1
// bit mapping.
package permission

import (
	"context"
	"fmt"

	"github.com/fileshare/fileshared/pkg/metadata"
)

// Access is a requested access kind.
type Access int

const (
	Read Access = iota
	Write
	Execute
)

func (a Access) bit() uint16 {
	switch a {
	case Read:
		return 0o4
	case Write:
		return 0o2
	case Execute:
		return 0o1
	default:
		return 0
	}
}

const (
	ownerShift = 6
	groupShift = 3
	otherShift = 0
)

// May reports whether userID may perform access on fileID. The
// conceptual root (id=0) is always readable/writable/executable to any
// authenticated user. For any other file, the owner triplet applies if
// userID owns the record, otherwise the other triplet applies. A
// missing record is a deny, not an error surfaced to the caller as
// not_found — the handler layer decides how to report that.
func May(ctx context.Context, store metadata.Store, userID, fileID int64, access Access) (bool, error) {
	if fileID == metadata.RootDirectoryID {
		return true, nil
	}

	file, err := store.GetFile(ctx, fileID)
	if err != nil {
		if metadata.IsKind(err, metadata.ErrNotFound) {
			return false, nil
		}
		return false, err
	}

	var shift uint16
	if file.OwnerID == userID {
		shift = ownerShift
	} else {
		shift = otherShift
	}

	bits := (file.Permissions >> shift) & 0o7
	return bits&access.bit() != 0, nil
}

// FormatPermissions renders permission bits in the standard
// "rwxr-xr-x" style (owner, group, other). The group triplet is
// preserved in the stored bits and formatted like the other two even
// though the permission engine never consults it — this system has no
// group concept, so chmod callers conventionally leave it zero.
func FormatPermissions(bits uint16) string {
	triplet := func(shift uint16) string {
		b := (bits >> shift) & 0o7
		r, w, x := byte('-'), byte('-'), byte('-')
		if b&0o4 != 0 {
			r = 'r'
		}
		if b&0o2 != 0 {
			w = 'w'
		}
		if b&0o1 != 0 {
			x = 'x'
		}
		return string([]byte{r, w, x})
	}
	return triplet(ownerShift) + triplet(groupShift) + triplet(otherShift)
}

// ParsePermissions accepts either a 3-octal-digit string (e.g. "644")
// or falls back to decimal if it does not parse as octal, and validates
// the result fits in 9 bits.
func ParsePermissions(s string) (uint16, error) {
	var v uint16
	if len(s) == 3 {
		if _, err := fmt.Sscanf(s, "%o", &v); err == nil && v <= 0o777 {
			return v, nil
		}
	}
	if _, err := fmt.Sscanf(s, "%d", &v); err == nil && v <= 0o777 {
		return v, nil
	}
	return 0, fmt.Errorf("permission: %q is not a valid 3-digit octal permission string", s)
}
