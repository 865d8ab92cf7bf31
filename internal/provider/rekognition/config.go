package rekognition

import "fmt"

// Config holds configuration for AWS Rekognition provider
type Config struct {
	// Region is the AWS region where Rekognition service will be used (e.g., "us-east-1")
	Region string

	// Bucket holds both the selfies and the event images referenced by key.
	Bucket string

	// CollectionPrefix is prepended to the event id to form the collection id.
	CollectionPrefix string
}

// DefaultConfig returns a Config with default values
func DefaultConfig() Config {
	return Config{
		Region: "us-east-1",
	}
}

// CollectionName generates the collection name for a given event ID
// Format: {CollectionPrefix}{eventID}
func (c Config) CollectionName(eventID string) string {
	return fmt.Sprintf("%s%s", c.CollectionPrefix, eventID)
}
