package repository

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/chitralai/chitralai/internal/domain"
)

type EventRepository struct {
	db    DynamoAPI
	table string
	now   func() time.Time
}

func NewEventRepository(db DynamoAPI, table string) *EventRepository {
	return &EventRepository{db: db, table: table, now: time.Now}
}

func (r *EventRepository) key(id string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{"eventId": stringValue(id)}
}

// GetByID is a point lookup on the partition key.
func (r *EventRepository) GetByID(ctx context.Context, id string) (*domain.Event, error) {
	out, err := r.db.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.table),
		Key:       r.key(id),
	})
	if err != nil {
		return nil, fmt.Errorf("get event %s: %w", id, err)
	}
	if out.Item == nil {
		return nil, domain.ErrEventNotFound
	}

	var event domain.Event
	if err := attributevalue.UnmarshalMap(out.Item, &event); err != nil {
		return nil, fmt.Errorf("unmarshal event %s: %w", id, err)
	}
	return &event, nil
}

// ScanByID walks the whole table looking for a record whose eventId or id
// equals id. It exists for records written without the partition key
// layout and for when the point lookup path fails.
func (r *EventRepository) ScanByID(ctx context.Context, id string) (*domain.Event, error) {
	paginator := dynamodb.NewScanPaginator(r.db, &dynamodb.ScanInput{
		TableName:        aws.String(r.table),
		FilterExpression: aws.String("eventId = :id OR #id = :id"),
		ExpressionAttributeNames: map[string]string{
			"#id": "id",
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":id": stringValue(id),
		},
	})

	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("scan events for %s: %w", id, err)
		}
		if len(page.Items) == 0 {
			continue
		}
		var event domain.Event
		if err := attributevalue.UnmarshalMap(page.Items[0], &event); err != nil {
			return nil, fmt.Errorf("unmarshal event %s: %w", id, err)
		}
		return &event, nil
	}

	return nil, domain.ErrEventNotFound
}

func (r *EventRepository) Exists(ctx context.Context, id string) (bool, error) {
	out, err := r.db.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:            aws.String(r.table),
		Key:                  r.key(id),
		ProjectionExpression: aws.String("eventId"),
	})
	if err != nil {
		return false, fmt.Errorf("check event %s: %w", id, err)
	}
	return out.Item != nil, nil
}

// Create stores a new event. It fails with ErrAlreadyExists when the id is taken.
func (r *EventRepository) Create(ctx context.Context, event *domain.Event) error {
	item, err := attributevalue.MarshalMap(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	_, err = r.db.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(r.table),
		Item:                item,
		ConditionExpression: aws.String("attribute_not_exists(eventId)"),
	})
	if isConditionalCheckFailed(err) {
		return fmt.Errorf("create event %s: %w", event.EventID, ErrAlreadyExists)
	}
	if err != nil {
		return fmt.Errorf("create event %s: %w", event.EventID, err)
	}
	return nil
}

func (r *EventRepository) Update(ctx context.Context, event *domain.Event) error {
	event.UpdatedAt = r.now().UTC()

	item, err := attributevalue.MarshalMap(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	if _, err := r.db.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.table),
		Item:      item,
	}); err != nil {
		return fmt.Errorf("update event %s: %w", event.EventID, err)
	}
	return nil
}

func (r *EventRepository) Delete(ctx context.Context, id string) error {
	_, err := r.db.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName:           aws.String(r.table),
		Key:                 r.key(id),
		ConditionExpression: aws.String("attribute_exists(eventId)"),
	})
	if isConditionalCheckFailed(err) {
		return domain.ErrEventNotFound
	}
	if err != nil {
		return fmt.Errorf("delete event %s: %w", id, err)
	}
	return nil
}

// ListByOwner returns events created by email under any of the owner fields.
func (r *EventRepository) ListByOwner(ctx context.Context, email string) ([]domain.Event, error) {
	paginator := dynamodb.NewScanPaginator(r.db, &dynamodb.ScanInput{
		TableName:        aws.String(r.table),
		FilterExpression: aws.String("userEmail = :e OR organizerId = :e OR userId = :e"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":e": stringValue(email),
		},
	})

	var events []domain.Event
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("list events for %s: %w", email, err)
		}
		var batch []domain.Event
		if err := attributevalue.UnmarshalListOfMaps(page.Items, &batch); err != nil {
			return nil, fmt.Errorf("unmarshal events: %w", err)
		}
		events = append(events, batch...)
	}
	return events, nil
}

// IncrementPhotoCount adds delta to the stored photoCount.
//
// The update is a read followed by a write of the computed value, so two
// concurrent increments can lose one of them. The counter is advisory.
func (r *EventRepository) IncrementPhotoCount(ctx context.Context, id string, delta int) (int, error) {
	event, err := r.GetByID(ctx, id)
	if err != nil {
		return 0, err
	}

	count := event.PhotoCount + delta
	_, err = r.db.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:        aws.String(r.table),
		Key:              r.key(id),
		UpdateExpression: aws.String("SET photoCount = :count, updatedAt = :now"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":count": &types.AttributeValueMemberN{Value: strconv.Itoa(count)},
			":now":   stringValue(r.now().UTC().Format(time.RFC3339Nano)),
		},
	})
	if err != nil {
		return 0, fmt.Errorf("update photo count for %s: %w", id, err)
	}
	return count, nil
}
