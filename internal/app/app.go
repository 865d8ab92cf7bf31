// Package app builds the object graph shared by the server and the CLI.
package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/chitralai/chitralai/internal/api"
	"github.com/chitralai/chitralai/internal/api/handler"
	"github.com/chitralai/chitralai/internal/api/middleware"
	"github.com/chitralai/chitralai/internal/audit"
	"github.com/chitralai/chitralai/internal/config"
	"github.com/chitralai/chitralai/internal/face"
	"github.com/chitralai/chitralai/internal/provider"
	"github.com/chitralai/chitralai/internal/repository"
	"github.com/chitralai/chitralai/internal/service"
	"github.com/chitralai/chitralai/internal/storage"
)

type App struct {
	Config *config.Config
	Logger *slog.Logger

	AWS    aws.Config
	Dynamo *dynamodb.Client
	S3     *s3.Client

	Store   *storage.Store
	Events  *repository.EventRepository
	Users   *repository.UserRepository
	Matches *repository.MatchRepository
	Gateway provider.FaceGateway

	Resolver  *service.EventResolver
	Matcher   *service.MatchEngine
	Clusters  *service.ClusterEngine
	EventSvc  *service.EventService
	SelfieSvc *service.SelfieService
	Attendees *service.AttendeeService
	Photos    *service.PhotoDownloader
}

// New loads AWS credentials from the default chain and wires every
// component. It does not contact AWS.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.AWSRegion))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return NewWithAWS(cfg, awsCfg, logger)
}

func NewWithAWS(cfg *config.Config, awsCfg aws.Config, logger *slog.Logger) (*App, error) {
	auditLogger := audit.NewSlogLogger(logger)

	gateway, err := face.NewFaceGateway(cfg, awsCfg, auditLogger)
	if err != nil {
		return nil, err
	}

	a := &App{
		Config:  cfg,
		Logger:  logger,
		AWS:     awsCfg,
		Dynamo:  dynamodb.NewFromConfig(awsCfg),
		S3:      s3.NewFromConfig(awsCfg),
		Gateway: gateway,
	}

	a.Store = storage.NewStore(a.S3, cfg.BucketName)
	a.Events = repository.NewEventRepository(a.Dynamo, cfg.EventsTable)
	a.Users = repository.NewUserRepository(a.Dynamo, cfg.UsersTable)
	a.Matches = repository.NewMatchRepository(a.Dynamo, cfg.MatchesTable)

	a.Resolver = service.NewEventResolver(a.Events, logger)
	a.Matcher = service.NewMatchEngine(a.Store, a.Matches, gateway, service.MatchConfig{
		BatchSize:      cfg.MatchBatchSize,
		CompareTimeout: cfg.CompareTimeout,
		NoMatchTTL:     cfg.NoMatchTTL,
	}, auditLogger, logger)
	a.Clusters = service.NewClusterEngine(a.Store, gateway, service.ClusterConfig{
		Strategy:    service.ClusterStrategy(cfg.ClusterStrategy),
		Concurrency: cfg.ClusterConcurrency,
	}, auditLogger, logger)
	a.EventSvc = service.NewEventService(a.Events, a.Users, a.Store, a.Clusters, cfg.UploadConcurrency, logger)
	a.SelfieSvc = service.NewSelfieService(a.Store, a.Users, a.Matches, service.SelfiePolicy(cfg.SelfiePolicy), logger)
	a.Attendees = service.NewAttendeeService(a.Resolver, a.SelfieSvc, a.Matcher, a.Matches)
	a.Photos = service.NewPhotoDownloader(a.Store, cfg.UploadConcurrency, logger)

	return a, nil
}

// ReadinessChecks cover the three tables and the photo bucket.
func (a *App) ReadinessChecks() []handler.ReadinessCheck {
	checks := make([]handler.ReadinessCheck, 0, 4)
	for _, table := range []string{a.Config.EventsTable, a.Config.UsersTable, a.Config.MatchesTable} {
		checks = append(checks, handler.ReadinessCheck{
			Name: "table:" + table,
			Check: func(ctx context.Context) error {
				_, err := a.Dynamo.DescribeTable(ctx, &dynamodb.DescribeTableInput{TableName: aws.String(table)})
				return err
			},
		})
	}
	bucket := a.Store.Bucket()
	checks = append(checks, handler.ReadinessCheck{
		Name: "bucket:" + bucket,
		Check: func(ctx context.Context) error {
			_, err := a.S3.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(bucket)})
			return err
		},
	})
	return checks
}

// APIDependencies exposes the services to the HTTP router.
func (a *App) APIDependencies() *api.Dependencies {
	rateLimit := middleware.DefaultRateLimiterConfig()
	if a.Config.RateLimitMax > 0 {
		rateLimit.Max = a.Config.RateLimitMax
	}
	if a.Config.RateLimitWindow > 0 {
		rateLimit.Window = a.Config.RateLimitWindow
	}
	return &api.Dependencies{
		Events:          a.EventSvc,
		Attendees:       a.Attendees,
		Groups:          a.EventSvc,
		Selfies:         a.SelfieSvc,
		ReadinessChecks: a.ReadinessChecks(),
		RateLimit:       rateLimit,
	}
}
