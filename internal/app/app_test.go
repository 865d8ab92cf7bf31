package app

import (
	"io"
	"log/slog"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chitralai/chitralai/internal/config"
	"github.com/chitralai/chitralai/internal/provider/mock"
)

func testConfig() *config.Config {
	return &config.Config{
		AWSRegion:          "ap-south-1",
		BucketName:         "chitral-photos",
		EventsTable:        "Events",
		UsersTable:         "Users",
		MatchesTable:       "Attendee-imgs",
		ProviderType:       config.ProviderMock,
		MatchBatchSize:     70,
		SelfiePolicy:       config.SelfiePolicyRetain,
		ClusterStrategy:    config.ClusterConnected,
		ClusterConcurrency: 4,
		UploadConcurrency:  4,
		RateLimitMax:       120,
	}
}

func TestNewWithAWS(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	a, err := NewWithAWS(testConfig(), aws.Config{Region: "ap-south-1"}, logger)

	require.NoError(t, err)
	assert.IsType(t, &mock.Provider{}, a.Gateway)
	assert.Equal(t, "chitral-photos", a.Store.Bucket())
	assert.NotNil(t, a.Attendees)
	assert.NotNil(t, a.EventSvc)
	assert.NotNil(t, a.SelfieSvc)
	assert.NotNil(t, a.Photos)

	checks := a.ReadinessChecks()
	require.Len(t, checks, 4)
	assert.Equal(t, "table:Events", checks[0].Name)
	assert.Equal(t, "bucket:chitral-photos", checks[3].Name)

	deps := a.APIDependencies()
	assert.Same(t, a.EventSvc, deps.Events)
	assert.Equal(t, 120, deps.RateLimit.Max)
}

func TestNewWithAWS_UnknownProvider(t *testing.T) {
	cfg := testConfig()
	cfg.ProviderType = "deepface"

	_, err := NewWithAWS(cfg, aws.Config{}, slog.New(slog.NewTextHandler(io.Discard, nil)))

	assert.Error(t, err)
}
