package face

import (
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsrekognition "github.com/aws/aws-sdk-go-v2/service/rekognition"

	"github.com/chitralai/chitralai/internal/audit"
	"github.com/chitralai/chitralai/internal/config"
	"github.com/chitralai/chitralai/internal/provider"
	"github.com/chitralai/chitralai/internal/provider/mock"
	"github.com/chitralai/chitralai/internal/provider/rekognition"
)

// NewFaceGateway creates the face gateway selected by PROVIDER_TYPE.
//
//   - rekognition: AWS Rekognition over the shared bucket (production)
//   - mock: in-memory deterministic gateway for local development
func NewFaceGateway(cfg *config.Config, awsCfg aws.Config, auditLogger audit.Logger) (provider.FaceGateway, error) {
	switch cfg.ProviderType {
	case config.ProviderRekognition:
		client := rekognition.NewClientWithAPI(awsrekognition.NewFromConfig(awsCfg), rekognition.Config{
			Region:           cfg.AWSRegion,
			Bucket:           cfg.BucketName,
			CollectionPrefix: cfg.CollectionPrefix,
		})
		return rekognition.NewProvider(client, rekognition.WithAuditLogger(auditLogger)), nil

	case config.ProviderMock:
		return mock.New(), nil

	default:
		return nil, fmt.Errorf("unknown provider type: %s (supported: %s, %s)",
			cfg.ProviderType, config.ProviderRekognition, config.ProviderMock)
	}
}
