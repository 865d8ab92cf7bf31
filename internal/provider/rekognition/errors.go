package rekognition

import "errors"

var (
	// ErrCollectionNotFound indicates that the specified collection does not exist
	ErrCollectionNotFound = errors.New("rekognition collection not found")

	// ErrCollectionAlreadyExists indicates that a collection with the same name already exists
	ErrCollectionAlreadyExists = errors.New("rekognition collection already exists")

	// ErrInvalidCredentials indicates that AWS credentials are invalid or missing
	ErrInvalidCredentials = errors.New("invalid or missing AWS credentials")

	// ErrNoFaceDetected indicates that no face was found in the provided image
	ErrNoFaceDetected = errors.New("no face detected in image")

	// ErrImageNotFound indicates the referenced S3 object could not be read
	ErrImageNotFound = errors.New("image object not found")

	// ErrThrottled indicates the request was rejected for exceeding throughput
	ErrThrottled = errors.New("rekognition request throttled")
)
