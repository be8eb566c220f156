package models

import "time"

// Role describes the coarse permission tier attached to a user.
type Role string

const (
	RoleViewer  Role = "viewer"
	RoleCreator Role = "creator"
	RoleAdmin   Role = "admin"
)

// ParseRole normalises a role received over the wire, defaulting to viewer
// for anything unrecognised.
func ParseRole(s string) Role {
	switch Role(s) {
	case RoleCreator:
		return RoleCreator
	case RoleAdmin:
		return RoleAdmin
	default:
		return RoleViewer
	}
}

// User is a resolved identity within the Streamloft platform.
type User struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Role     Role   `json:"role"`
}

// Registration carries the fields required to create a new account.
type Registration struct {
	Username             string `json:"username"`
	Email                string `json:"email"`
	Password             string `json:"password"`
	PasswordConfirmation string `json:"password_confirmation"`
}

// Video is the catalog projection of an uploaded video.
type Video struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Status    string    `json:"processing_status"`
	Playlist  string    `json:"video_path"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// PartURL is a presigned destination for one part of a multipart upload.
type PartURL struct {
	PartNumber int32  `json:"part_number"`
	URL        string `json:"url"`
}

// UploadSession pairs the identifiers issued when a multipart upload is
// initialised with the presigned URL for each part. The caller owns the
// session between initialisation and completion; the gateway keeps no copy.
type UploadSession struct {
	UploadID string    `json:"upload_id"`
	VideoID  string    `json:"video_id"`
	Key      string    `json:"key"`
	PartURLs []PartURL `json:"part_urls"`
}

// StartUpload describes a requested multipart upload.
type StartUpload struct {
	Title    string `json:"title,omitempty"`
	FileName string `json:"key"`
	FileType string `json:"content_type"`
	Parts    int32  `json:"parts"`
}

// CompletedPart reports one part the caller finished uploading to storage.
type CompletedPart struct {
	PartNumber int32  `json:"number"`
	ETag       string `json:"etag"`
}

// CompleteUpload asks for final assembly of a multipart upload. It must
// reference the identifiers returned by the matching StartUpload.
type CompleteUpload struct {
	UploadID       string          `json:"upload_id"`
	VideoID        string          `json:"video_id"`
	Key            string          `json:"key"`
	CompletedParts []CompletedPart `json:"completed_parts"`
}
