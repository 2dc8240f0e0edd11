package server

// This file holds the concrete JSON request/response shapes for every
// handler named in SPEC_FULL.md §4.7, replacing the opaque map[string]any
// payloads the original C implementation passed around with typed
// structs the Go compiler can check.

// statusResponse is the minimal {status, message} shape used by every
// error response and by several bare-success responses.
type statusResponse struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

func errorPayload(message string) statusResponse {
	return statusResponse{Status: "ERROR", Message: message}
}

// boolToInt and intToBool translate the is_admin/is_active flags
// between Go bool and the 0/1 integers the wire protocol actually
// carries (the original's cJSON_AddNumberToObject/valueint convention,
// spec.md §6/§8).
func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func intToBool(i int) bool {
	return i != 0
}

// --- login ---

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	Status  string `json:"status"`
	UserID  int64  `json:"user_id"`
	IsAdmin int    `json:"is_admin"`
}

// --- list-dir ---

type listDirRequest struct {
	DirectoryID *int64 `json:"directory_id,omitempty"`
}

type fileEntry struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	IsDirectory bool   `json:"is_directory"`
	Size        int64  `json:"size"`
	Permissions uint16 `json:"permissions"`
	OwnerID     int64  `json:"owner_id"`
	Owner       string `json:"owner"`
}

type listDirResponse struct {
	Status string      `json:"status"`
	Files  []fileEntry `json:"files"`
}

// --- change-dir ---

type changeDirRequest struct {
	DirectoryID int64 `json:"directory_id"`
}

type changeDirResponse struct {
	Status      string `json:"status"`
	DirectoryID int64  `json:"directory_id"`
	Name        string `json:"name"`
}

// --- mkdir ---

type mkdirRequest struct {
	Name     string `json:"name"`
	ParentID *int64 `json:"parent_id,omitempty"`
}

type mkdirResponse struct {
	Status      string `json:"status"`
	DirectoryID int64  `json:"directory_id"`
	Name        string `json:"name"`
}

// --- upload-request / upload-data ---

type uploadRequestPayload struct {
	Name     string `json:"name"`
	Size     int64  `json:"size"`
	ParentID *int64 `json:"parent_id,omitempty"`
}

type uploadReadyResponse struct {
	Status string `json:"status"`
	FileID int64  `json:"file_id"`
	UUID   string `json:"uuid"`
}

// --- download-request ---

type downloadRequestPayload struct {
	FileID int64 `json:"file_id"`
}

// --- chmod ---

type chmodRequest struct {
	FileID      int64       `json:"file_id"`
	Permissions interface{} `json:"permissions"`
}

type chmodResponse struct {
	Status         string `json:"status"`
	Permissions    uint16 `json:"permissions"`
	PermissionsStr string `json:"permissions_str"`
}

// --- delete ---

type deleteRequest struct {
	FileID int64 `json:"file_id"`
}

// --- file-info ---

type fileInfoRequest struct {
	FileID int64 `json:"file_id"`
}

type fileInfoResponse struct {
	Status         string `json:"status"`
	ID             int64  `json:"id"`
	Name           string `json:"name"`
	ParentID       int64  `json:"parent_id"`
	IsDirectory    bool   `json:"is_directory"`
	Size           int64  `json:"size"`
	Permissions    uint16 `json:"permissions"`
	PermissionsStr string `json:"permissions_str"`
	OwnerID        int64  `json:"owner_id"`
	Owner          string `json:"owner"`
	CreatedAt      string `json:"created_at"`
}

// --- search-request ---

type searchRequestPayload struct {
	Pattern     string `json:"pattern"`
	DirectoryID int64  `json:"directory_id"`
	Recursive   bool   `json:"recursive,omitempty"`
	Limit       int    `json:"limit,omitempty"`
}

type searchResultEntry struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	ParentID    int64  `json:"parent_id"`
	Path        string `json:"path"`
	Size        int64  `json:"size"`
	IsDirectory bool   `json:"is_directory"`
	Permissions uint16 `json:"permissions"`
	OwnerID     int64  `json:"owner_id"`
	Owner       string `json:"owner"`
	CreatedAt   string `json:"created_at"`
}

type searchResponse struct {
	Status  string              `json:"status"`
	Count   int                 `json:"count"`
	Results []searchResultEntry `json:"results"`
}

// --- rename / copy / move ---

type renameRequest struct {
	FileID  int64  `json:"file_id"`
	NewName string `json:"new_name"`
}

type copyRequest struct {
	SourceID     int64  `json:"source_id"`
	DestParentID int64  `json:"dest_parent_id"`
	NewName      string `json:"new_name,omitempty"`
}

type copyResponse struct {
	Status string `json:"status"`
	FileID int64  `json:"file_id"`
}

type moveRequest struct {
	FileID      int64 `json:"file_id"`
	NewParentID int64 `json:"new_parent_id"`
}

// --- admin ---

type adminUser struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	IsAdmin  int    `json:"is_admin"`
	IsActive int    `json:"is_active"`
}

type adminListUsersResponse struct {
	Status string      `json:"status"`
	Users  []adminUser `json:"users"`
}

type adminCreateUserRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	IsAdmin  int    `json:"is_admin,omitempty"`
}

type adminCreateUserResponse struct {
	Status string `json:"status"`
	UserID int64  `json:"user_id"`
}

type adminDeleteUserRequest struct {
	UserID int64 `json:"user_id"`
}

type adminUpdateUserRequest struct {
	UserID   int64 `json:"user_id"`
	IsAdmin  int   `json:"is_admin"`
	IsActive int   `json:"is_active"`
}
