package repository

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

const tableActiveTimeout = 2 * time.Minute

// SchemaAPI is the subset of the DynamoDB client the migrator needs.
type SchemaAPI interface {
	dynamodb.DescribeTableAPIClient
	CreateTable(ctx context.Context, params *dynamodb.CreateTableInput, optFns ...func(*dynamodb.Options)) (*dynamodb.CreateTableOutput, error)
	DeleteTable(ctx context.Context, params *dynamodb.DeleteTableInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteTableOutput, error)
	DescribeTimeToLive(ctx context.Context, params *dynamodb.DescribeTimeToLiveInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DescribeTimeToLiveOutput, error)
	UpdateTimeToLive(ctx context.Context, params *dynamodb.UpdateTimeToLiveInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateTimeToLiveOutput, error)
}

var _ SchemaAPI = (*dynamodb.Client)(nil)

// TableSpec describes one table the service expects.
type TableSpec struct {
	Name         string
	PartitionKey string
	SortKey      string
	TTLAttribute string
}

// Tables lists the events, users and attendee match tables.
func Tables(eventsTable, usersTable, matchesTable string) []TableSpec {
	return []TableSpec{
		{Name: eventsTable, PartitionKey: "eventId"},
		{Name: usersTable, PartitionKey: "userId"},
		{Name: matchesTable, PartitionKey: "userId", SortKey: "eventId", TTLAttribute: "expiresAt"},
	}
}

// TableStatus is the state of one table as reported by Status.
type TableStatus struct {
	Name   string
	Exists bool
	Status string
	TTL    string
}

// Migrator creates the DynamoDB tables. Up is idempotent.
type Migrator struct {
	db     SchemaAPI
	tables []TableSpec
	logger *slog.Logger
	wait   func(ctx context.Context, table string) error
}

func NewMigrator(db SchemaAPI, tables []TableSpec, logger *slog.Logger) *Migrator {
	m := &Migrator{
		db:     db,
		tables: tables,
		logger: logger.With("component", "migrator"),
	}
	m.wait = func(ctx context.Context, table string) error {
		waiter := dynamodb.NewTableExistsWaiter(db)
		return waiter.Wait(ctx, &dynamodb.DescribeTableInput{TableName: aws.String(table)}, tableActiveTimeout)
	}
	return m
}

// Up creates missing tables and enables TTL where configured.
func (m *Migrator) Up(ctx context.Context) error {
	for _, tbl := range m.tables {
		exists, err := m.exists(ctx, tbl.Name)
		if err != nil {
			return err
		}
		if !exists {
			if err := m.create(ctx, tbl); err != nil {
				return err
			}
		} else {
			m.logger.Info("table exists", slog.String("table", tbl.Name))
		}

		if tbl.TTLAttribute != "" {
			if err := m.enableTTL(ctx, tbl); err != nil {
				return err
			}
		}
	}
	return nil
}

// Down deletes every table (DEV ONLY)
func (m *Migrator) Down(ctx context.Context) error {
	for _, tbl := range m.tables {
		_, err := m.db.DeleteTable(ctx, &dynamodb.DeleteTableInput{TableName: aws.String(tbl.Name)})
		if isResourceNotFound(err) {
			continue
		}
		if err != nil {
			return fmt.Errorf("delete table %s: %w", tbl.Name, err)
		}
		m.logger.Info("table deleted", slog.String("table", tbl.Name))
	}
	return nil
}

func (m *Migrator) Status(ctx context.Context) ([]TableStatus, error) {
	statuses := make([]TableStatus, 0, len(m.tables))
	for _, tbl := range m.tables {
		st := TableStatus{Name: tbl.Name}
		out, err := m.db.DescribeTable(ctx, &dynamodb.DescribeTableInput{TableName: aws.String(tbl.Name)})
		switch {
		case isResourceNotFound(err):
			statuses = append(statuses, st)
			continue
		case err != nil:
			return nil, fmt.Errorf("describe table %s: %w", tbl.Name, err)
		}
		st.Exists = true
		st.Status = string(out.Table.TableStatus)

		if tbl.TTLAttribute != "" {
			ttl, err := m.db.DescribeTimeToLive(ctx, &dynamodb.DescribeTimeToLiveInput{TableName: aws.String(tbl.Name)})
			if err != nil {
				return nil, fmt.Errorf("describe ttl %s: %w", tbl.Name, err)
			}
			if ttl.TimeToLiveDescription != nil {
				st.TTL = string(ttl.TimeToLiveDescription.TimeToLiveStatus)
			}
		}
		statuses = append(statuses, st)
	}
	return statuses, nil
}

func (m *Migrator) exists(ctx context.Context, table string) (bool, error) {
	_, err := m.db.DescribeTable(ctx, &dynamodb.DescribeTableInput{TableName: aws.String(table)})
	if isResourceNotFound(err) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("describe table %s: %w", table, err)
	}
	return true, nil
}

func (m *Migrator) create(ctx context.Context, tbl TableSpec) error {
	input := &dynamodb.CreateTableInput{
		TableName:   aws.String(tbl.Name),
		BillingMode: types.BillingModePayPerRequest,
		AttributeDefinitions: []types.AttributeDefinition{
			{AttributeName: aws.String(tbl.PartitionKey), AttributeType: types.ScalarAttributeTypeS},
		},
		KeySchema: []types.KeySchemaElement{
			{AttributeName: aws.String(tbl.PartitionKey), KeyType: types.KeyTypeHash},
		},
	}
	if tbl.SortKey != "" {
		input.AttributeDefinitions = append(input.AttributeDefinitions,
			types.AttributeDefinition{AttributeName: aws.String(tbl.SortKey), AttributeType: types.ScalarAttributeTypeS})
		input.KeySchema = append(input.KeySchema,
			types.KeySchemaElement{AttributeName: aws.String(tbl.SortKey), KeyType: types.KeyTypeRange})
	}

	_, err := m.db.CreateTable(ctx, input)
	var inUse *types.ResourceInUseException
	if errors.As(err, &inUse) {
		// created concurrently
		return m.wait(ctx, tbl.Name)
	}
	if err != nil {
		return fmt.Errorf("create table %s: %w", tbl.Name, err)
	}

	m.logger.Info("table created", slog.String("table", tbl.Name))
	if err := m.wait(ctx, tbl.Name); err != nil {
		return fmt.Errorf("wait for table %s: %w", tbl.Name, err)
	}
	return nil
}

func (m *Migrator) enableTTL(ctx context.Context, tbl TableSpec) error {
	out, err := m.db.DescribeTimeToLive(ctx, &dynamodb.DescribeTimeToLiveInput{TableName: aws.String(tbl.Name)})
	if err != nil {
		return fmt.Errorf("describe ttl %s: %w", tbl.Name, err)
	}
	if d := out.TimeToLiveDescription; d != nil {
		switch d.TimeToLiveStatus {
		case types.TimeToLiveStatusEnabled, types.TimeToLiveStatusEnabling:
			return nil
		}
	}

	_, err = m.db.UpdateTimeToLive(ctx, &dynamodb.UpdateTimeToLiveInput{
		TableName: aws.String(tbl.Name),
		TimeToLiveSpecification: &types.TimeToLiveSpecification{
			AttributeName: aws.String(tbl.TTLAttribute),
			Enabled:       aws.Bool(true),
		},
	})
	if err != nil {
		return fmt.Errorf("enable ttl %s: %w", tbl.Name, err)
	}
	m.logger.Info("ttl enabled", slog.String("table", tbl.Name), slog.String("attribute", tbl.TTLAttribute))
	return nil
}

func isResourceNotFound(err error) bool {
	var nf *types.ResourceNotFoundException
	return errors.As(err, &nf)
}
