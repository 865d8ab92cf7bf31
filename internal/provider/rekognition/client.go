package rekognition

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/rekognition"
	"github.com/aws/smithy-go"
)

const (
	errCodeAccessDenied     = "AccessDeniedException"
	errCodeResourceNotFound = "ResourceNotFoundException"
	errCodeResourceExists   = "ResourceAlreadyExistsException"
	errCodeInvalidParameter = "InvalidParameterException"
	errCodeInvalidS3Object  = "InvalidS3ObjectException"
	errCodeThroughput       = "ProvisionedThroughputExceededException"
	errCodeThrottling       = "ThrottlingException"
)

// API is the subset of the Rekognition client used here.
type API interface {
	CompareFaces(ctx context.Context, params *rekognition.CompareFacesInput, optFns ...func(*rekognition.Options)) (*rekognition.CompareFacesOutput, error)
	IndexFaces(ctx context.Context, params *rekognition.IndexFacesInput, optFns ...func(*rekognition.Options)) (*rekognition.IndexFacesOutput, error)
	SearchFaces(ctx context.Context, params *rekognition.SearchFacesInput, optFns ...func(*rekognition.Options)) (*rekognition.SearchFacesOutput, error)
	CreateCollection(ctx context.Context, params *rekognition.CreateCollectionInput, optFns ...func(*rekognition.Options)) (*rekognition.CreateCollectionOutput, error)
	DeleteCollection(ctx context.Context, params *rekognition.DeleteCollectionInput, optFns ...func(*rekognition.Options)) (*rekognition.DeleteCollectionOutput, error)
	DescribeCollection(ctx context.Context, params *rekognition.DescribeCollectionInput, optFns ...func(*rekognition.Options)) (*rekognition.DescribeCollectionOutput, error)
}

var _ API = (*rekognition.Client)(nil)

// Client wraps the AWS Rekognition client and provides collection management operations
type Client struct {
	rekognition API
	config      Config
}

// NewClient creates a new Rekognition client with the provided configuration
// It uses the AWS default credential chain to authenticate
func NewClient(ctx context.Context, cfg Config) (*Client, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.Region),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	return NewClientWithAPI(rekognition.NewFromConfig(awsCfg), cfg), nil
}

// NewClientWithAPI wraps an existing API implementation.
func NewClientWithAPI(api API, cfg Config) *Client {
	return &Client{
		rekognition: api,
		config:      cfg,
	}
}

// CreateCollection creates the collection for the specified event
// Returns ErrCollectionAlreadyExists if a collection with the same name already exists
func (c *Client) CreateCollection(ctx context.Context, eventID string) error {
	input := &rekognition.CreateCollectionInput{
		CollectionId: aws.String(c.config.CollectionName(eventID)),
	}

	if _, err := c.rekognition.CreateCollection(ctx, input); err != nil {
		var apiErr smithy.APIError
		if errors.As(err, &apiErr) {
			switch apiErr.ErrorCode() {
			case errCodeResourceExists:
				return fmt.Errorf("event %s: %w", eventID, ErrCollectionAlreadyExists)
			case errCodeInvalidParameter:
				return fmt.Errorf("event %s: invalid collection parameters: %w", eventID, err)
			case errCodeAccessDenied:
				return fmt.Errorf("event %s: %w", eventID, ErrInvalidCredentials)
			}
		}
		return fmt.Errorf("failed to create collection for event %s: %w", eventID, err)
	}

	return nil
}

// DeleteCollection deletes the collection for the specified event
// Returns ErrCollectionNotFound if the collection does not exist
func (c *Client) DeleteCollection(ctx context.Context, eventID string) error {
	input := &rekognition.DeleteCollectionInput{
		CollectionId: aws.String(c.config.CollectionName(eventID)),
	}

	if _, err := c.rekognition.DeleteCollection(ctx, input); err != nil {
		var apiErr smithy.APIError
		if errors.As(err, &apiErr) {
			switch apiErr.ErrorCode() {
			case errCodeResourceNotFound:
				return fmt.Errorf("event %s: %w", eventID, ErrCollectionNotFound)
			case errCodeAccessDenied:
				return fmt.Errorf("event %s: %w", eventID, ErrInvalidCredentials)
			}
		}
		return fmt.Errorf("failed to delete collection for event %s: %w", eventID, err)
	}

	return nil
}

// CollectionExists checks if a collection exists for the specified event
func (c *Client) CollectionExists(ctx context.Context, eventID string) (bool, error) {
	input := &rekognition.DescribeCollectionInput{
		CollectionId: aws.String(c.config.CollectionName(eventID)),
	}

	if _, err := c.rekognition.DescribeCollection(ctx, input); err != nil {
		var apiErr smithy.APIError
		if errors.As(err, &apiErr) {
			switch apiErr.ErrorCode() {
			case errCodeResourceNotFound:
				return false, nil
			case errCodeAccessDenied:
				return false, fmt.Errorf("event %s: %w", eventID, ErrInvalidCredentials)
			}
		}
		return false, fmt.Errorf("failed to check collection for event %s: %w", eventID, err)
	}

	return true, nil
}

// EnsureCollection creates a collection if it doesn't exist, or does nothing if it already exists
func (c *Client) EnsureCollection(ctx context.Context, eventID string) error {
	exists, err := c.CollectionExists(ctx, eventID)
	if err != nil {
		return fmt.Errorf("failed to check collection existence: %w", err)
	}

	if exists {
		return nil
	}

	if err := c.CreateCollection(ctx, eventID); err != nil {
		// Created concurrently by another request
		if errors.Is(err, ErrCollectionAlreadyExists) {
			return nil
		}
		return err
	}

	return nil
}

// parseCallError maps service error codes onto package sentinels.
func parseCallError(err error) error {
	if err == nil {
		return nil
	}

	var apiErr smithy.APIError
	if !errors.As(err, &apiErr) {
		return err
	}

	switch apiErr.ErrorCode() {
	case errCodeInvalidParameter:
		// Raised when the reference image has no detectable face
		if msg := apiErr.ErrorMessage(); msg != "" {
			return fmt.Errorf("%w: %s", ErrNoFaceDetected, msg)
		}
		return ErrNoFaceDetected
	case errCodeInvalidS3Object:
		return fmt.Errorf("%w: %s", ErrImageNotFound, apiErr.ErrorMessage())
	case errCodeResourceNotFound:
		return ErrCollectionNotFound
	case errCodeThroughput, errCodeThrottling:
		return fmt.Errorf("%w: %v", ErrThrottled, err)
	case errCodeAccessDenied:
		return ErrInvalidCredentials
	}

	return err
}
