package server

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/fileshare/fileshared/pkg/metadata"
	"github.com/fileshare/fileshared/pkg/permission"
	"github.com/fileshare/fileshared/pkg/session"
	"github.com/fileshare/fileshared/pkg/wire"
)

func decodePayload(payload []byte, v any) error {
	if len(payload) == 0 {
		return nil
	}
	return json.Unmarshal(payload, v)
}

// handleLogin verifies the credentials, transitions the session to
// authenticated, and resets the current directory to root.
func (d *Dispatcher) handleLogin(ctx context.Context, sess *session.Session, payload []byte) (wire.Command, []byte) {
	var req loginRequest
	if err := decodePayload(payload, &req); err != nil {
		return errorResponse("malformed login request")
	}

	userID, err := d.Engine.Metadata.VerifyUser(ctx, req.Username, hashPassword(req.Password))
	if err != nil {
		return errorResponse("invalid username or password")
	}

	sess.Authenticate(userID)
	_ = d.Engine.Metadata.LogActivity(ctx, userID, "login", fmt.Sprintf("user %s logged in", req.Username))

	isAdmin, err := d.Engine.Metadata.IsAdmin(ctx, userID)
	if err != nil {
		isAdmin = false
	}
	return wire.CmdLoginResponse, mustMarshal(loginResponse{Status: "OK", UserID: userID, IsAdmin: boolToInt(isAdmin)})
}

func (d *Dispatcher) handleListDir(ctx context.Context, sess *session.Session, payload []byte) (wire.Command, []byte) {
	var req listDirRequest
	if err := decodePayload(payload, &req); err != nil {
		return errorResponse("malformed list-dir request")
	}

	dirID := sess.GetCurrentDir()
	if req.DirectoryID != nil {
		dirID = *req.DirectoryID
	}

	userID := sess.GetUserID()
	may, err := d.Engine.mayAccess(ctx, userID, dirID, permission.Read)
	if err != nil {
		return errToResponse(err)
	}
	if !may {
		return errorResponse("forbidden")
	}

	files, err := d.Engine.Metadata.ListDirectory(ctx, dirID)
	if err != nil {
		return errToResponse(err)
	}

	entries := make([]fileEntry, 0, len(files))
	for _, f := range files {
		entries = append(entries, fileEntry{
			ID:          f.ID,
			Name:        f.Name,
			IsDirectory: f.IsDirectory,
			Size:        f.Size,
			Permissions: f.Permissions,
			OwnerID:     f.OwnerID,
			Owner:       d.Engine.resolveOwnerName(ctx, f.OwnerID),
		})
	}
	return wire.CmdSuccess, mustMarshal(listDirResponse{Status: "OK", Files: entries})
}

func (d *Dispatcher) handleChangeDir(ctx context.Context, sess *session.Session, payload []byte) (wire.Command, []byte) {
	var req changeDirRequest
	if err := decodePayload(payload, &req); err != nil {
		return errorResponse("malformed change-dir request")
	}

	userID := sess.GetUserID()
	may, err := d.Engine.mayAccess(ctx, userID, req.DirectoryID, permission.Execute)
	if err != nil {
		return errToResponse(err)
	}
	if !may {
		return errorResponse("forbidden")
	}

	name := "/"
	if req.DirectoryID != metadata.RootDirectoryID {
		file, err := d.Engine.Metadata.GetFile(ctx, req.DirectoryID)
		if err != nil {
			return errToResponse(err)
		}
		if !file.IsDirectory {
			return errorResponse("not a directory")
		}
		name = file.Name
	}

	sess.SetCurrentDir(req.DirectoryID)
	return wire.CmdSuccess, mustMarshal(changeDirResponse{Status: "OK", DirectoryID: req.DirectoryID, Name: name})
}

func (d *Dispatcher) handleMkdir(ctx context.Context, sess *session.Session, payload []byte) (wire.Command, []byte) {
	var req mkdirRequest
	if err := decodePayload(payload, &req); err != nil {
		return errorResponse("malformed mkdir request")
	}
	if req.Name == "" || len(req.Name) > 255 {
		return errorResponse("name must be 1-255 bytes")
	}

	parentID := sess.GetCurrentDir()
	if req.ParentID != nil {
		parentID = *req.ParentID
	}

	userID := sess.GetUserID()
	may, err := d.Engine.mayAccess(ctx, userID, parentID, permission.Write)
	if err != nil {
		return errToResponse(err)
	}
	if !may {
		return errorResponse("forbidden")
	}

	id, err := d.Engine.Metadata.CreateFile(ctx, parentID, req.Name, "", userID, 0, true, metadata.DefaultDirPermissions)
	if err != nil {
		return errToResponse(err)
	}
	return wire.CmdSuccess, mustMarshal(mkdirResponse{Status: "OK", DirectoryID: id, Name: req.Name})
}

func (d *Dispatcher) handleUploadRequest(ctx context.Context, sess *session.Session, payload []byte) (wire.Command, []byte) {
	var req uploadRequestPayload
	if err := decodePayload(payload, &req); err != nil {
		return errorResponse("malformed upload-request")
	}
	if req.Name == "" || len(req.Name) > 255 {
		return errorResponse("name must be 1-255 bytes")
	}
	if req.Size < 0 || req.Size > wire.MaxPayloadSize {
		return errorResponse("size out of range")
	}

	parentID := sess.GetCurrentDir()
	if req.ParentID != nil {
		parentID = *req.ParentID
	}

	userID := sess.GetUserID()
	may, err := d.Engine.mayAccess(ctx, userID, parentID, permission.Write)
	if err != nil {
		return errToResponse(err)
	}
	if !may {
		return errorResponse("forbidden")
	}

	blobID := newBlobID()
	fileID, err := d.Engine.Metadata.CreateFile(ctx, parentID, req.Name, blobID, userID, req.Size, false, metadata.DefaultFilePermissions)
	if err != nil {
		return errToResponse(err)
	}

	sess.BeginTransfer(session.PendingUpload{BlobID: blobID, FileID: fileID, DeclaredSize: req.Size})
	return wire.CmdSuccess, mustMarshal(uploadReadyResponse{Status: "READY", FileID: fileID, UUID: blobID})
}

// handleUploadData clears the pending descriptor regardless of outcome
// (spec.md §4.7). A size mismatch or blob write failure leaves the
// metadata row created by upload-request in place - a known limitation
// documented in SPEC_FULL.md §9.
func (d *Dispatcher) handleUploadData(ctx context.Context, sess *session.Session, payload []byte) (wire.Command, []byte) {
	pending := sess.Pending()
	sess.EndTransfer()

	if pending == nil {
		return errorResponse("no pending upload")
	}
	if int64(len(payload)) != pending.DeclaredSize {
		return errorResponse("uploaded size does not match the declared size")
	}

	if err := d.Engine.Blob.Write(ctx, pending.BlobID, payload); err != nil {
		return errorResponse("failed to store upload")
	}
	d.Engine.Metrics.BlobBytes(d.Engine.BlobBackendName, "write", int64(len(payload)))
	return wire.CmdSuccess, mustMarshal(statusResponse{Status: "OK"})
}

func (d *Dispatcher) handleDownloadRequest(ctx context.Context, sess *session.Session, payload []byte) (wire.Command, []byte) {
	var req downloadRequestPayload
	if err := decodePayload(payload, &req); err != nil {
		return errorResponse("malformed download-request")
	}

	userID := sess.GetUserID()
	may, err := d.Engine.mayAccess(ctx, userID, req.FileID, permission.Read)
	if err != nil {
		return errToResponse(err)
	}
	if !may {
		return errorResponse("forbidden")
	}

	file, err := d.Engine.Metadata.GetFile(ctx, req.FileID)
	if err != nil {
		return errToResponse(err)
	}
	if file.IsDirectory {
		return errorResponse("cannot download a directory")
	}

	data, err := d.Engine.Blob.Read(ctx, file.BlobRef)
	if err != nil {
		return errorResponse("failed to read file body")
	}
	d.Engine.Metrics.BlobBytes(d.Engine.BlobBackendName, "read", int64(len(data)))
	return wire.CmdDownloadResponse, data
}

func parsePermissionsField(v any) (uint16, error) {
	switch t := v.(type) {
	case string:
		return permission.ParsePermissions(t)
	case float64:
		if t < 0 || t > 0o777 {
			return 0, fmt.Errorf("permissions out of range")
		}
		return uint16(t), nil
	default:
		return 0, fmt.Errorf("permissions must be a string or integer")
	}
}

func (d *Dispatcher) handleChmod(ctx context.Context, sess *session.Session, payload []byte) (wire.Command, []byte) {
	var req chmodRequest
	if err := decodePayload(payload, &req); err != nil {
		return errorResponse("malformed chmod request")
	}

	bits, err := parsePermissionsField(req.Permissions)
	if err != nil {
		return errorResponse(err.Error())
	}

	file, err := d.Engine.Metadata.GetFile(ctx, req.FileID)
	if err != nil {
		return errToResponse(err)
	}
	if file.OwnerID != sess.GetUserID() {
		return errorResponse("forbidden")
	}

	if err := d.Engine.Metadata.SetPermissions(ctx, req.FileID, bits); err != nil {
		return errToResponse(err)
	}
	return wire.CmdSuccess, mustMarshal(chmodResponse{Status: "OK", Permissions: bits, PermissionsStr: permission.FormatPermissions(bits)})
}

func (d *Dispatcher) handleDelete(ctx context.Context, sess *session.Session, payload []byte) (wire.Command, []byte) {
	var req deleteRequest
	if err := decodePayload(payload, &req); err != nil {
		return errorResponse("malformed delete request")
	}

	file, err := d.Engine.Metadata.GetFile(ctx, req.FileID)
	if err != nil {
		return errToResponse(err)
	}
	if file.OwnerID != sess.GetUserID() {
		return errorResponse("forbidden")
	}

	if err := d.Engine.Metadata.DeleteFile(ctx, req.FileID); err != nil {
		return errToResponse(err)
	}
	if !file.IsDirectory && file.BlobRef != "" {
		_ = d.Engine.Blob.Delete(ctx, file.BlobRef)
	}
	return wire.CmdSuccess, mustMarshal(statusResponse{Status: "OK"})
}

func (d *Dispatcher) handleFileInfo(ctx context.Context, sess *session.Session, payload []byte) (wire.Command, []byte) {
	var req fileInfoRequest
	if err := decodePayload(payload, &req); err != nil {
		return errorResponse("malformed file-info request")
	}

	userID := sess.GetUserID()
	may, err := d.Engine.mayAccess(ctx, userID, req.FileID, permission.Read)
	if err != nil {
		return errToResponse(err)
	}
	if !may {
		return errorResponse("forbidden")
	}

	file, err := d.Engine.Metadata.GetFile(ctx, req.FileID)
	if err != nil {
		return errToResponse(err)
	}

	return wire.CmdSuccess, mustMarshal(fileInfoResponse{
		Status:         "OK",
		ID:             file.ID,
		Name:           file.Name,
		ParentID:       file.ParentID,
		IsDirectory:    file.IsDirectory,
		Size:           file.Size,
		Permissions:    file.Permissions,
		PermissionsStr: permission.FormatPermissions(file.Permissions),
		OwnerID:        file.OwnerID,
		Owner:          d.Engine.resolveOwnerName(ctx, file.OwnerID),
		CreatedAt:      file.CreatedAt.Format(time.RFC3339),
	})
}

func (d *Dispatcher) handleSearch(ctx context.Context, sess *session.Session, payload []byte) (wire.Command, []byte) {
	var req searchRequestPayload
	if err := decodePayload(payload, &req); err != nil {
		return errorResponse("malformed search-request")
	}

	results, err := d.Engine.Metadata.Search(ctx, req.DirectoryID, req.Pattern, req.Recursive, req.Limit)
	if err != nil {
		return errToResponse(err)
	}

	entries := make([]searchResultEntry, 0, len(results))
	for _, r := range results {
		entries = append(entries, searchResultEntry{
			ID:          r.ID,
			Name:        r.Name,
			ParentID:    r.ParentID,
			Path:        r.Path,
			Size:        r.Size,
			IsDirectory: r.IsDirectory,
			Permissions: r.Permissions,
			OwnerID:     r.OwnerID,
			Owner:       d.Engine.resolveOwnerName(ctx, r.OwnerID),
			CreatedAt:   r.CreatedAt.Format(time.RFC3339),
		})
	}
	return wire.CmdSearchRes, mustMarshal(searchResponse{Status: "OK", Count: len(entries), Results: entries})
}

func (d *Dispatcher) handleRename(ctx context.Context, sess *session.Session, payload []byte) (wire.Command, []byte) {
	var req renameRequest
	if err := decodePayload(payload, &req); err != nil {
		return errorResponse("malformed rename request")
	}
	if len(req.NewName) == 0 || len(req.NewName) > 255 {
		return errorResponse("new_name must be 1-255 bytes")
	}

	// No ownership/permission check in the current design (spec.md §9).
	if err := d.Engine.Metadata.Rename(ctx, req.FileID, req.NewName); err != nil {
		return errToResponse(err)
	}
	return wire.CmdSuccess, mustMarshal(statusResponse{Status: "OK"})
}

func (d *Dispatcher) handleCopy(ctx context.Context, sess *session.Session, payload []byte) (wire.Command, []byte) {
	var req copyRequest
	if err := decodePayload(payload, &req); err != nil {
		return errorResponse("malformed copy request")
	}

	userID := sess.GetUserID()
	id, err := d.Engine.Metadata.Copy(ctx, req.SourceID, req.DestParentID, req.NewName, userID)
	if err != nil {
		return errToResponse(err)
	}
	return wire.CmdSuccess, mustMarshal(copyResponse{Status: "OK", FileID: id})
}

func (d *Dispatcher) handleMove(ctx context.Context, sess *session.Session, payload []byte) (wire.Command, []byte) {
	var req moveRequest
	if err := decodePayload(payload, &req); err != nil {
		return errorResponse("malformed move request")
	}

	// No ownership/permission check in the current design (spec.md §9).
	if err := d.Engine.Metadata.Move(ctx, req.FileID, req.NewParentID); err != nil {
		return errToResponse(err)
	}
	return wire.CmdSuccess, mustMarshal(statusResponse{Status: "OK"})
}

func (d *Dispatcher) requireAdmin(ctx context.Context, sess *session.Session) error {
	isAdmin, err := d.Engine.Metadata.IsAdmin(ctx, sess.GetUserID())
	if err != nil {
		return err
	}
	if !isAdmin {
		return metadata.NewForbiddenError("admin privileges required")
	}
	return nil
}

func (d *Dispatcher) handleAdminListUsers(ctx context.Context, sess *session.Session, payload []byte) (wire.Command, []byte) {
	if err := d.requireAdmin(ctx, sess); err != nil {
		return errToResponse(err)
	}

	users, err := d.Engine.Metadata.ListUsers(ctx)
	if err != nil {
		return errToResponse(err)
	}

	out := make([]adminUser, 0, len(users))
	for _, u := range users {
		out = append(out, adminUser{ID: u.ID, Username: u.Username, IsAdmin: boolToInt(u.IsAdmin), IsActive: boolToInt(u.IsActive)})
	}
	return wire.CmdSuccess, mustMarshal(adminListUsersResponse{Status: "OK", Users: out})
}

func (d *Dispatcher) handleAdminCreateUser(ctx context.Context, sess *session.Session, payload []byte) (wire.Command, []byte) {
	if err := d.requireAdmin(ctx, sess); err != nil {
		return errToResponse(err)
	}

	var req adminCreateUserRequest
	if err := decodePayload(payload, &req); err != nil {
		return errorResponse("malformed admin-create-user request")
	}
	if req.Username == "" {
		return errorResponse("username is required")
	}

	id, err := d.Engine.Metadata.CreateUser(ctx, req.Username, hashPassword(req.Password), intToBool(req.IsAdmin))
	if err != nil {
		return errToResponse(err)
	}
	return wire.CmdSuccess, mustMarshal(adminCreateUserResponse{Status: "OK", UserID: id})
}

// handleAdminDeleteUser rejects self-deletion and honors the store's
// own protection of the primary admin (spec.md §8 property 3).
func (d *Dispatcher) handleAdminDeleteUser(ctx context.Context, sess *session.Session, payload []byte) (wire.Command, []byte) {
	if err := d.requireAdmin(ctx, sess); err != nil {
		return errToResponse(err)
	}

	var req adminDeleteUserRequest
	if err := decodePayload(payload, &req); err != nil {
		return errorResponse("malformed admin-delete-user request")
	}
	if req.UserID == sess.GetUserID() {
		return errorResponse("cannot delete your own account")
	}
	if req.UserID == metadata.PrimaryAdminID {
		return errorResponse("forbidden")
	}

	if err := d.Engine.Metadata.DeleteUser(ctx, req.UserID); err != nil {
		return errToResponse(err)
	}
	return wire.CmdSuccess, mustMarshal(statusResponse{Status: "OK"})
}

func (d *Dispatcher) handleAdminUpdateUser(ctx context.Context, sess *session.Session, payload []byte) (wire.Command, []byte) {
	if err := d.requireAdmin(ctx, sess); err != nil {
		return errToResponse(err)
	}

	var req adminUpdateUserRequest
	if err := decodePayload(payload, &req); err != nil {
		return errorResponse("malformed admin-update-user request")
	}
	if req.UserID == metadata.PrimaryAdminID && !intToBool(req.IsAdmin) {
		return errorResponse("forbidden")
	}

	if err := d.Engine.Metadata.UpdateUser(ctx, req.UserID, intToBool(req.IsAdmin), intToBool(req.IsActive)); err != nil {
		return errToResponse(err)
	}
	return wire.CmdSuccess, mustMarshal(statusResponse{Status: "OK"})
}
