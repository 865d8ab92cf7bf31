package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	ProviderRekognition = "rekognition"
	ProviderMock        = "mock"

	SelfiePolicyRetain     = "retain"
	SelfiePolicyInvalidate = "invalidate"

	ClusterFirstMatch = "first-match"
	ClusterConnected  = "connected"
)

type Config struct {
	// Server
	Port        int    `envconfig:"PORT" default:"3000"`
	Environment string `envconfig:"ENV" default:"development"`

	// AWS
	AWSRegion    string `envconfig:"AWS_REGION" default:"us-east-1"`
	BucketName   string `envconfig:"S3_BUCKET_NAME" required:"true"`
	EventsTable  string `envconfig:"EVENTS_TABLE" default:"Events"`
	UsersTable   string `envconfig:"USERS_TABLE" default:"Users"`
	MatchesTable string `envconfig:"MATCHES_TABLE" default:"Attendee-imgs"`

	// Provider
	ProviderType     string `envconfig:"PROVIDER_TYPE" default:"rekognition"`
	CollectionPrefix string `envconfig:"COLLECTION_PREFIX" default:""`

	// Matching
	MatchBatchSize int           `envconfig:"MATCH_BATCH_SIZE" default:"70"`
	CompareTimeout time.Duration `envconfig:"COMPARE_TIMEOUT" default:"30s"`
	NoMatchTTL     time.Duration `envconfig:"NO_MATCH_TTL" default:"1h"`
	SelfiePolicy   string        `envconfig:"SELFIE_POLICY" default:"retain"`

	// Clustering
	ClusterStrategy    string `envconfig:"CLUSTER_STRATEGY" default:"first-match"`
	ClusterConcurrency int    `envconfig:"CLUSTER_CONCURRENCY" default:"32"`

	// Uploads
	UploadConcurrency int `envconfig:"UPLOAD_CONCURRENCY" default:"10"`

	// Rate limiting
	RateLimitMax    int           `envconfig:"RATE_LIMIT_MAX" default:"120"`
	RateLimitWindow time.Duration `envconfig:"RATE_LIMIT_WINDOW" default:"1m"`
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return &cfg, nil
}

// Validate rejects values envconfig cannot check on its own.
func (c *Config) Validate() error {
	switch c.ProviderType {
	case ProviderRekognition, ProviderMock:
	default:
		return fmt.Errorf("unknown PROVIDER_TYPE %q", c.ProviderType)
	}
	switch c.SelfiePolicy {
	case SelfiePolicyRetain, SelfiePolicyInvalidate:
	default:
		return fmt.Errorf("unknown SELFIE_POLICY %q", c.SelfiePolicy)
	}
	switch c.ClusterStrategy {
	case ClusterFirstMatch, ClusterConnected:
	default:
		return fmt.Errorf("unknown CLUSTER_STRATEGY %q", c.ClusterStrategy)
	}
	if c.MatchBatchSize < 1 {
		return fmt.Errorf("MATCH_BATCH_SIZE must be positive, got %d", c.MatchBatchSize)
	}
	if c.CompareTimeout <= 0 {
		return fmt.Errorf("COMPARE_TIMEOUT must be positive, got %s", c.CompareTimeout)
	}
	return nil
}

func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}
