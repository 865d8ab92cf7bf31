package domain

import (
	"fmt"
)

type AppError struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	StatusCode int    `json:"-"`
	Err        error  `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Is matches any AppError carrying the same code, so wrapped copies made
// by WithError still satisfy errors.Is against the sentinel.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

func (e *AppError) WithError(err error) *AppError {
	return &AppError{
		Code:       e.Code,
		Message:    e.Message,
		StatusCode: e.StatusCode,
		Err:        err,
	}
}

// Pre-defined errors
var (
	ErrInternal = &AppError{
		Code:       "INTERNAL_ERROR",
		Message:    "An unexpected error occurred",
		StatusCode: 500,
	}

	ErrBadRequest = &AppError{
		Code:       "BAD_REQUEST",
		Message:    "Invalid request",
		StatusCode: 400,
	}

	ErrUnauthorized = &AppError{
		Code:       "UNAUTHORIZED",
		Message:    "Missing or invalid user identity",
		StatusCode: 401,
	}

	ErrForbidden = &AppError{
		Code:       "FORBIDDEN",
		Message:    "Access denied",
		StatusCode: 403,
	}

	ErrNotFound = &AppError{
		Code:       "NOT_FOUND",
		Message:    "Resource not found",
		StatusCode: 404,
	}

	ErrInvalidImage = &AppError{
		Code:       "INVALID_IMAGE",
		Message:    "Invalid image format or corrupted file",
		StatusCode: 422,
	}

	ErrRateLimitExceeded = &AppError{
		Code:       "RATE_LIMIT_EXCEEDED",
		Message:    "Rate limit exceeded, please try again later",
		StatusCode: 429,
	}

	ErrValidationFailed = &AppError{
		Code:       "VALIDATION_FAILED",
		Message:    "Request validation failed",
		StatusCode: 422,
	}

	// Event errors
	ErrEventNotFound = &AppError{
		Code:       "EVENT_NOT_FOUND",
		Message:    "Event not found, check the event code and try again",
		StatusCode: 404,
	}

	ErrNoImagesInEvent = &AppError{
		Code:       "NO_IMAGES_IN_EVENT",
		Message:    "This event has no photos yet",
		StatusCode: 422,
	}

	ErrEventCodeConflict = &AppError{
		Code:       "EVENT_CODE_CONFLICT",
		Message:    "Could not allocate an event code, please retry",
		StatusCode: 409,
	}

	ErrUploadFailed = &AppError{
		Code:       "UPLOAD_FAILED",
		Message:    "Failed to store uploaded files",
		StatusCode: 502,
	}

	// Matching errors
	ErrNoMatchesFound = &AppError{
		Code:       "NO_MATCHES_FOUND",
		Message:    "No matching faces found in this event",
		StatusCode: 404,
	}

	ErrMatchNotCached = &AppError{
		Code:       "MATCH_NOT_CACHED",
		Message:    "No saved matches for this event, run a match first",
		StatusCode: 404,
	}

	ErrMatchingUnavailable = &AppError{
		Code:       "MATCHING_UNAVAILABLE",
		Message:    "Face comparison is temporarily unavailable, please retry",
		StatusCode: 503,
	}

	ErrSelfieRequired = &AppError{
		Code:       "SELFIE_REQUIRED",
		Message:    "Upload a selfie before searching for your photos",
		StatusCode: 422,
	}
)
