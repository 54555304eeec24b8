package domain

import "context"

// UploadOptions describes where and how an uploaded file is stored.
type UploadOptions struct {
	Folder      string
	Filename    string
	ContentType string
}

// UploadResult is the outcome of a successful upload.
type UploadResult struct {
	Key string
	URL string
}

// ImageUploader stores binary files with an external hosting service.
// Implementations must honour ctx cancellation.
type ImageUploader interface {
	Upload(ctx context.Context, data []byte, opts UploadOptions) (UploadResult, error)
}

// PreparedImage is an upload that was decoded, checked and, if needed, resized.
type PreparedImage struct {
	Data        []byte
	Filename    string
	ContentType string
	Width       int
	Height      int
}

// ImageProcessor checks that an upload is an image and prepares it for storage.
type ImageProcessor interface {
	Prepare(filename string, data []byte) (*PreparedImage, error)
}
