package repository

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/chitralai/chitralai/internal/domain"
)

// MatchRepository stores AttendeeMatchRecords keyed by (userId, eventId).
type MatchRepository struct {
	db    DynamoAPI
	table string
}

func NewMatchRepository(db DynamoAPI, table string) *MatchRepository {
	return &MatchRepository{db: db, table: table}
}

func (r *MatchRepository) key(userID, eventID string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"userId":  stringValue(userID),
		"eventId": stringValue(eventID),
	}
}

// Get returns domain.ErrNotFound when the pair has never been matched.
func (r *MatchRepository) Get(ctx context.Context, userID, eventID string) (*domain.AttendeeMatchRecord, error) {
	out, err := r.db.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.table),
		Key:       r.key(userID, eventID),
	})
	if err != nil {
		return nil, fmt.Errorf("get matches %s/%s: %w", userID, eventID, err)
	}
	if out.Item == nil {
		return nil, domain.ErrNotFound
	}

	var rec domain.AttendeeMatchRecord
	if err := attributevalue.UnmarshalMap(out.Item, &rec); err != nil {
		return nil, fmt.Errorf("unmarshal matches %s/%s: %w", userID, eventID, err)
	}
	return &rec, nil
}

func (r *MatchRepository) Put(ctx context.Context, record *domain.AttendeeMatchRecord) error {
	item, err := attributevalue.MarshalMap(record)
	if err != nil {
		return fmt.Errorf("marshal matches: %w", err)
	}

	if _, err := r.db.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.table),
		Item:      item,
	}); err != nil {
		return fmt.Errorf("put matches %s/%s: %w", record.UserID, record.EventID, err)
	}
	return nil
}

func (r *MatchRepository) ListByUser(ctx context.Context, userID string) ([]domain.AttendeeMatchRecord, error) {
	paginator := dynamodb.NewQueryPaginator(r.db, &dynamodb.QueryInput{
		TableName:              aws.String(r.table),
		KeyConditionExpression: aws.String("userId = :u"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":u": stringValue(userID),
		},
	})

	var records []domain.AttendeeMatchRecord
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("list matches for %s: %w", userID, err)
		}
		var batch []domain.AttendeeMatchRecord
		if err := attributevalue.UnmarshalListOfMaps(page.Items, &batch); err != nil {
			return nil, fmt.Errorf("unmarshal matches: %w", err)
		}
		records = append(records, batch...)
	}
	return records, nil
}

// UpdateSelfieURL rewrites selfieURL on every record of the user and returns
// how many were touched. Matched images are left as they are.
func (r *MatchRepository) UpdateSelfieURL(ctx context.Context, userID, selfieURL string) (int, error) {
	records, err := r.ListByUser(ctx, userID)
	if err != nil {
		return 0, err
	}

	for i, rec := range records {
		_, err := r.db.UpdateItem(ctx, &dynamodb.UpdateItemInput{
			TableName:        aws.String(r.table),
			Key:              r.key(userID, rec.EventID),
			UpdateExpression: aws.String("SET selfieURL = :s"),
			ExpressionAttributeValues: map[string]types.AttributeValue{
				":s": stringValue(selfieURL),
			},
		})
		if err != nil {
			return i, fmt.Errorf("update selfie for %s/%s: %w", userID, rec.EventID, err)
		}
	}
	return len(records), nil
}

func (r *MatchRepository) Delete(ctx context.Context, userID, eventID string) error {
	if _, err := r.db.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(r.table),
		Key:       r.key(userID, eventID),
	}); err != nil {
		return fmt.Errorf("delete matches %s/%s: %w", userID, eventID, err)
	}
	return nil
}

// DeleteByUser drops every cached result of the user.
func (r *MatchRepository) DeleteByUser(ctx context.Context, userID string) (int, error) {
	records, err := r.ListByUser(ctx, userID)
	if err != nil {
		return 0, err
	}
	for i, rec := range records {
		if err := r.Delete(ctx, userID, rec.EventID); err != nil {
			return i, err
		}
	}
	return len(records), nil
}
