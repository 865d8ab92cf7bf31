package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/chitralai/chitralai/internal/domain"
)

type UserRepository struct {
	db    DynamoAPI
	table string
	now   func() time.Time
}

func NewUserRepository(db DynamoAPI, table string) *UserRepository {
	return &UserRepository{db: db, table: table, now: time.Now}
}

func (r *UserRepository) GetByID(ctx context.Context, userID string) (*domain.User, error) {
	out, err := r.db.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.table),
		Key:       map[string]types.AttributeValue{"userId": stringValue(userID)},
	})
	if err != nil {
		return nil, fmt.Errorf("get user %s: %w", userID, err)
	}
	if out.Item == nil {
		return nil, domain.ErrNotFound
	}

	var user domain.User
	if err := attributevalue.UnmarshalMap(out.Item, &user); err != nil {
		return nil, fmt.Errorf("unmarshal user %s: %w", userID, err)
	}
	return &user, nil
}

func (r *UserRepository) Put(ctx context.Context, user *domain.User) error {
	now := r.now().UTC()
	if user.CreatedAt.IsZero() {
		user.CreatedAt = now
	}
	user.UpdatedAt = now

	item, err := attributevalue.MarshalMap(user)
	if err != nil {
		return fmt.Errorf("marshal user: %w", err)
	}

	if _, err := r.db.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.table),
		Item:      item,
	}); err != nil {
		return fmt.Errorf("put user %s: %w", user.UserID, err)
	}
	return nil
}

// AddCreatedEvent appends eventID to the user's createdEvents, creating the
// user record if needed. Appending an id that is already present is a no-op.
func (r *UserRepository) AddCreatedEvent(ctx context.Context, userID, eventID string) error {
	_, err := r.db.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:           aws.String(r.table),
		Key:                 map[string]types.AttributeValue{"userId": stringValue(userID)},
		UpdateExpression:    aws.String("SET createdEvents = list_append(if_not_exists(createdEvents, :empty), :ids), updatedAt = :now"),
		ConditionExpression: aws.String("NOT contains(createdEvents, :id)"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":empty": &types.AttributeValueMemberL{Value: []types.AttributeValue{}},
			":ids":   &types.AttributeValueMemberL{Value: []types.AttributeValue{stringValue(eventID)}},
			":id":    stringValue(eventID),
			":now":   stringValue(r.now().UTC().Format(time.RFC3339Nano)),
		},
	})
	if isConditionalCheckFailed(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("add created event %s to %s: %w", eventID, userID, err)
	}
	return nil
}

// SetSelfieURL records the user's profile selfie, creating the user record
// if needed, and returns the URL it replaced.
func (r *UserRepository) SetSelfieURL(ctx context.Context, userID, selfieURL string) (string, error) {
	out, err := r.db.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:        aws.String(r.table),
		Key:              map[string]types.AttributeValue{"userId": stringValue(userID)},
		UpdateExpression: aws.String("SET selfieURL = :url, email = if_not_exists(email, :email), updatedAt = :now"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":url":   stringValue(selfieURL),
			":email": stringValue(userID),
			":now":   stringValue(r.now().UTC().Format(time.RFC3339Nano)),
		},
		ReturnValues: types.ReturnValueUpdatedOld,
	})
	if err != nil {
		return "", fmt.Errorf("set selfie for %s: %w", userID, err)
	}

	var previous string
	if v, ok := out.Attributes["selfieURL"].(*types.AttributeValueMemberS); ok {
		previous = v.Value
	}
	return previous, nil
}
