package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chitralai/chitralai/internal/domain"
)

func eventItem(t *testing.T, e domain.Event) map[string]types.AttributeValue {
	t.Helper()
	item, err := attributevalue.MarshalMap(e)
	require.NoError(t, err)
	return item
}

func TestEventRepository_GetByID(t *testing.T) {
	tests := []struct {
		name    string
		output  *dynamodb.GetItemOutput
		err     error
		wantErr error
		wantID  string
	}{
		{
			name:   "found",
			output: &dynamodb.GetItemOutput{Item: eventItem(t, domain.Event{EventID: "000123", Name: "Wedding"})},
			wantID: "000123",
		},
		{
			name:    "missing",
			output:  &dynamodb.GetItemOutput{},
			wantErr: domain.ErrEventNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db := &mockDynamoAPI{
				getItemFunc: func(_ context.Context, in *dynamodb.GetItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
					assert.Equal(t, "Events", aws.ToString(in.TableName))
					assert.Equal(t, &types.AttributeValueMemberS{Value: "000123"}, in.Key["eventId"])
					return tt.output, tt.err
				},
			}
			repo := NewEventRepository(db, "Events")

			event, err := repo.GetByID(context.Background(), "000123")

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantID, event.EventID)
		})
	}
}

func TestEventRepository_GetByIDTransportError(t *testing.T) {
	db := &mockDynamoAPI{
		getItemFunc: func(context.Context, *dynamodb.GetItemInput, ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
			return nil, errors.New("connection reset")
		},
	}

	_, err := NewEventRepository(db, "Events").GetByID(context.Background(), "1")

	require.Error(t, err)
	assert.NotErrorIs(t, err, domain.ErrEventNotFound)
}

func TestEventRepository_ScanByIDPaginates(t *testing.T) {
	pages := 0
	db := &mockDynamoAPI{
		scanFunc: func(_ context.Context, in *dynamodb.ScanInput, _ ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error) {
			pages++
			assert.Equal(t, "eventId = :id OR #id = :id", aws.ToString(in.FilterExpression))
			if in.ExclusiveStartKey == nil {
				return &dynamodb.ScanOutput{
					LastEvaluatedKey: map[string]types.AttributeValue{"eventId": stringValue("x")},
				}, nil
			}
			return &dynamodb.ScanOutput{
				Items: []map[string]types.AttributeValue{eventItem(t, domain.Event{ID: "42", Name: "Legacy"})},
			}, nil
		},
	}

	event, err := NewEventRepository(db, "Events").ScanByID(context.Background(), "42")

	require.NoError(t, err)
	assert.Equal(t, "Legacy", event.Name)
	assert.Equal(t, 2, pages)
}

func TestEventRepository_ScanByIDMissing(t *testing.T) {
	_, err := NewEventRepository(&mockDynamoAPI{}, "Events").ScanByID(context.Background(), "42")
	assert.ErrorIs(t, err, domain.ErrEventNotFound)
}

func TestEventRepository_CreateConflict(t *testing.T) {
	db := &mockDynamoAPI{
		putItemFunc: func(_ context.Context, in *dynamodb.PutItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
			assert.Equal(t, "attribute_not_exists(eventId)", aws.ToString(in.ConditionExpression))
			return nil, &types.ConditionalCheckFailedException{}
		},
	}

	err := NewEventRepository(db, "Events").Create(context.Background(), &domain.Event{EventID: "482913"})

	assert.ErrorIs(t, err, ErrAlreadyExists)
}

func TestEventRepository_IncrementPhotoCount(t *testing.T) {
	var update *dynamodb.UpdateItemInput
	db := &mockDynamoAPI{
		getItemFunc: func(context.Context, *dynamodb.GetItemInput, ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
			return &dynamodb.GetItemOutput{Item: eventItem(t, domain.Event{EventID: "482913", PhotoCount: 10})}, nil
		},
		updateItemFunc: func(_ context.Context, in *dynamodb.UpdateItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error) {
			update = in
			return &dynamodb.UpdateItemOutput{}, nil
		},
	}
	repo := NewEventRepository(db, "Events")
	repo.now = func() time.Time { return time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC) }

	count, err := repo.IncrementPhotoCount(context.Background(), "482913", 3)

	require.NoError(t, err)
	assert.Equal(t, 13, count)
	require.NotNil(t, update)
	assert.Equal(t, &types.AttributeValueMemberN{Value: "13"}, update.ExpressionAttributeValues[":count"])
	assert.Equal(t, stringValue("2025-01-02T03:04:05Z"), update.ExpressionAttributeValues[":now"])
}

func TestEventRepository_IncrementPhotoCountMissingEvent(t *testing.T) {
	_, err := NewEventRepository(&mockDynamoAPI{}, "Events").IncrementPhotoCount(context.Background(), "1", 1)
	assert.ErrorIs(t, err, domain.ErrEventNotFound)
}

func TestEventRepository_ListByOwner(t *testing.T) {
	db := &mockDynamoAPI{
		scanFunc: func(_ context.Context, in *dynamodb.ScanInput, _ ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error) {
			assert.Equal(t, stringValue("owner@example.com"), in.ExpressionAttributeValues[":e"])
			return &dynamodb.ScanOutput{
				Items: []map[string]types.AttributeValue{
					eventItem(t, domain.Event{EventID: "111111", OwnerEmail: "owner@example.com"}),
					eventItem(t, domain.Event{EventID: "222222", OrganizerID: "owner@example.com"}),
				},
			}, nil
		},
	}

	events, err := NewEventRepository(db, "Events").ListByOwner(context.Background(), "owner@example.com")

	require.NoError(t, err)
	assert.Len(t, events, 2)
}

func TestEventRepository_DeleteMissing(t *testing.T) {
	db := &mockDynamoAPI{
		deleteItemFunc: func(context.Context, *dynamodb.DeleteItemInput, ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error) {
			return nil, &types.ConditionalCheckFailedException{}
		},
	}

	err := NewEventRepository(db, "Events").Delete(context.Background(), "1")
	assert.ErrorIs(t, err, domain.ErrEventNotFound)
}
