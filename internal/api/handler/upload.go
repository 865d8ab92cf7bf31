package handler

import (
	"errors"
	"io"
	"mime/multipart"

	"github.com/gofiber/fiber/v2"

	"github.com/chitralai/chitralai/internal/domain"
	"github.com/chitralai/chitralai/internal/service"
)

// maxFilesPerRequest caps a single multipart upload.
const maxFilesPerRequest = 100

func toUploadFile(fh *multipart.FileHeader) service.UploadFile {
	return service.UploadFile{
		Filename:    fh.Filename,
		ContentType: fh.Header.Get(fiber.HeaderContentType),
		Size:        fh.Size,
		Open: func() (io.ReadCloser, error) {
			return fh.Open()
		},
	}
}

// formFiles returns every file sent under field.
func formFiles(c *fiber.Ctx, field string) ([]service.UploadFile, error) {
	form, err := c.MultipartForm()
	if err != nil {
		return nil, domain.ErrValidationFailed.WithError(err)
	}
	headers := form.File[field]
	if len(headers) == 0 {
		return nil, domain.ErrValidationFailed.WithError(errors.New(field + " is required"))
	}
	if len(headers) > maxFilesPerRequest {
		return nil, domain.ErrValidationFailed.WithError(errors.New("too many files in one request"))
	}

	files := make([]service.UploadFile, 0, len(headers))
	for _, fh := range headers {
		files = append(files, toUploadFile(fh))
	}
	return files, nil
}

// optionalFormFile returns the file under field, or nil when the request
// has none.
func optionalFormFile(c *fiber.Ctx, field string) *service.UploadFile {
	fh, err := c.FormFile(field)
	if err != nil {
		return nil
	}
	f := toUploadFile(fh)
	return &f
}
