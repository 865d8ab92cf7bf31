package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/joho/godotenv"

	"github.com/chitralai/chitralai/internal/config"
	"github.com/chitralai/chitralai/internal/repository"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	action := flag.String("action", "up", "Migration action: up, down, status")
	flag.Parse()

	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	logger := config.NewLogger(cfg.Environment)

	ctx := context.Background()
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.AWSRegion))
	if err != nil {
		return fmt.Errorf("failed to load aws config: %w", err)
	}

	migrator := repository.NewMigrator(
		dynamodb.NewFromConfig(awsCfg),
		repository.Tables(cfg.EventsTable, cfg.UsersTable, cfg.MatchesTable),
		logger,
	)

	switch *action {
	case "up":
		log.Println("Creating tables...")
		if err := migrator.Up(ctx); err != nil {
			return fmt.Errorf("migration up failed: %w", err)
		}
		log.Println("✓ Tables ready")

	case "down":
		if cfg.IsProduction() {
			return fmt.Errorf("refusing to delete tables in production")
		}
		log.Println("Deleting tables...")
		if err := migrator.Down(ctx); err != nil {
			return fmt.Errorf("migration down failed: %w", err)
		}
		log.Println("✓ Tables deleted")

	case "status":
		statuses, err := migrator.Status(ctx)
		if err != nil {
			return fmt.Errorf("failed to get status: %w", err)
		}
		for _, st := range statuses {
			if !st.Exists {
				log.Printf("%-20s missing\n", st.Name)
				continue
			}
			log.Printf("%-20s %s ttl=%s\n", st.Name, st.Status, st.TTL)
		}

	default:
		return fmt.Errorf("invalid action: %s (use: up, down, status)", *action)
	}

	return nil
}
