package service

import (
	"context"
	"io"
	"strings"

	"github.com/chitralai/chitralai/internal/storage"
)

// ObjectWriter stores uploaded files.
type ObjectWriter interface {
	Put(ctx context.Context, key string, body io.Reader, contentType string) (string, error)
}

// UploadFile is one file of a multipart request. Open is called at most once.
type UploadFile struct {
	Filename    string
	ContentType string
	Size        int64
	Open        func() (io.ReadCloser, error)
}

// maxUploadSize is the largest image the comparison service accepts by
// S3 reference.
const maxUploadSize = 15 * 1024 * 1024

// validateImageUpload returns a reason when f cannot be stored as a photo.
func validateImageUpload(f UploadFile) string {
	switch {
	case f.Size <= 0:
		return "empty file"
	case f.Size > maxUploadSize:
		return "file larger than 15MB"
	case !storage.IsImageKey(f.Filename):
		return "only jpg, jpeg and png files are supported"
	case f.ContentType != "" && !strings.HasPrefix(f.ContentType, "image/") &&
		f.ContentType != "application/octet-stream":
		return "content type " + f.ContentType + " is not an image"
	}
	return ""
}

func putUpload(ctx context.Context, objects ObjectWriter, key string, f UploadFile) (string, error) {
	body, err := f.Open()
	if err != nil {
		return "", err
	}
	defer body.Close()

	contentType := f.ContentType
	if contentType == "" || contentType == "application/octet-stream" {
		contentType = contentTypeFor(f.Filename)
	}
	return objects.Put(ctx, key, body, contentType)
}

func contentTypeFor(name string) string {
	if strings.HasSuffix(strings.ToLower(name), ".png") {
		return "image/png"
	}
	return "image/jpeg"
}
