package rekognition

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/rekognition"
	"github.com/aws/aws-sdk-go-v2/service/rekognition/types"

	"github.com/chitralai/chitralai/internal/audit"
	"github.com/chitralai/chitralai/internal/domain"
	"github.com/chitralai/chitralai/internal/provider"
)

const providerName = "rekognition"

// Provider implements provider.FaceGateway using AWS Rekognition.
// Images are always passed by S3 reference, never as bytes.
type Provider struct {
	client      *Client
	auditLogger audit.Logger
}

// ProviderOption defines optional configuration for Provider
type ProviderOption func(*Provider)

// WithAuditLogger sets the audit logger for the provider
func WithAuditLogger(logger audit.Logger) ProviderOption {
	return func(p *Provider) {
		p.auditLogger = logger
	}
}

var _ provider.FaceGateway = (*Provider)(nil)

// NewProvider creates a gateway over client.
func NewProvider(client *Client, opts ...ProviderOption) *Provider {
	p := &Provider{client: client}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// logAudit logs an audit event if an audit logger is configured
// Audit failure does not affect the operation (fire-and-forget)
func (p *Provider) logAudit(ctx context.Context, event audit.Event, err error) {
	if p.auditLogger == nil {
		return
	}

	event.Provider = providerName
	event.Success = err == nil
	if err != nil {
		event.Error = err.Error()
	}

	_ = p.auditLogger.Log(ctx, event)
}

func (p *Provider) s3Image(key string) *types.Image {
	return &types.Image{
		S3Object: &types.S3Object{
			Bucket: aws.String(p.client.config.Bucket),
			Name:   aws.String(key),
		},
	}
}

// CompareFaces compares the largest face of sourceKey with every face in targetKey.
func (p *Provider) CompareFaces(ctx context.Context, sourceKey, targetKey string, threshold float64) ([]provider.CompareMatch, error) {
	input := &rekognition.CompareFacesInput{
		SourceImage:         p.s3Image(sourceKey),
		TargetImage:         p.s3Image(targetKey),
		SimilarityThreshold: aws.Float32(float32(threshold)),
		QualityFilter:       types.QualityFilterHigh,
	}

	output, err := p.client.rekognition.CompareFaces(ctx, input)
	if err != nil {
		err = parseCallError(err)
		p.logAudit(ctx, audit.Event{EventType: audit.EventFaceCompared, ImageKey: targetKey}, err)
		return nil, fmt.Errorf("compare %s: %w", targetKey, err)
	}

	matches := make([]provider.CompareMatch, 0, len(output.FaceMatches))
	for _, m := range output.FaceMatches {
		if m.Similarity == nil {
			continue
		}
		match := provider.CompareMatch{Similarity: float64(*m.Similarity)}
		if m.Face != nil {
			match.BoundingBox = convertBoundingBox(m.Face.BoundingBox)
		}
		matches = append(matches, match)
	}

	p.logAudit(ctx, audit.Event{
		EventType: audit.EventFaceCompared,
		ImageKey:  targetKey,
		Metadata:  map[string]string{"matches": strconv.Itoa(len(matches))},
	}, nil)

	return matches, nil
}

// ResetCollection drops the event's collection and creates it again.
// IndexFaces mints new face ids on every call, so faces from an earlier run
// would otherwise crowd the search results with copies of the same photo.
func (p *Provider) ResetCollection(ctx context.Context, eventID string) error {
	err := p.deleteCollection(ctx, eventID)
	if err == nil {
		err = p.client.EnsureCollection(ctx, eventID)
	}
	p.logAudit(ctx, audit.Event{EventType: audit.EventCollectionReset, EventID: eventID}, err)
	return err
}

// DeleteCollection removes the event's collection if it exists.
func (p *Provider) DeleteCollection(ctx context.Context, eventID string) error {
	err := p.deleteCollection(ctx, eventID)
	p.logAudit(ctx, audit.Event{EventType: audit.EventCollectionDeleted, EventID: eventID}, err)
	return err
}

func (p *Provider) deleteCollection(ctx context.Context, eventID string) error {
	err := p.client.DeleteCollection(ctx, eventID)
	if errors.Is(err, ErrCollectionNotFound) {
		return nil
	}
	return err
}

// IndexFaces adds every detectable face of imageKey to the event collection.
// Faces the service declines to index are skipped.
func (p *Provider) IndexFaces(ctx context.Context, eventID, imageKey string) ([]provider.IndexedFace, error) {
	input := &rekognition.IndexFacesInput{
		CollectionId:        aws.String(p.client.config.CollectionName(eventID)),
		Image:               p.s3Image(imageKey),
		ExternalImageId:     aws.String(externalImageID(imageKey)),
		DetectionAttributes: []types.Attribute{types.AttributeDefault},
	}

	output, err := p.client.rekognition.IndexFaces(ctx, input)
	if err != nil {
		err = parseCallError(err)
		p.logAudit(ctx, audit.Event{EventType: audit.EventFacesIndexed, EventID: eventID, ImageKey: imageKey}, err)
		return nil, fmt.Errorf("index %s: %w", imageKey, err)
	}

	faces := make([]provider.IndexedFace, 0, len(output.FaceRecords))
	for _, rec := range output.FaceRecords {
		if rec.Face == nil || rec.Face.FaceId == nil {
			continue
		}
		face := provider.IndexedFace{
			FaceID:      *rec.Face.FaceId,
			BoundingBox: convertBoundingBox(rec.Face.BoundingBox),
		}
		if rec.Face.Confidence != nil {
			face.Confidence = float64(*rec.Face.Confidence)
		}
		faces = append(faces, face)
	}

	p.logAudit(ctx, audit.Event{
		EventType: audit.EventFacesIndexed,
		EventID:   eventID,
		ImageKey:  imageKey,
		Metadata: map[string]string{
			"indexed":   strconv.Itoa(len(faces)),
			"unindexed": strconv.Itoa(len(output.UnindexedFaces)),
		},
	}, nil)

	return faces, nil
}

// SearchFaces finds faces in the event collection similar to faceID.
func (p *Provider) SearchFaces(ctx context.Context, eventID, faceID string, maxFaces int, threshold float64) ([]provider.FaceMatch, error) {
	input := &rekognition.SearchFacesInput{
		CollectionId:       aws.String(p.client.config.CollectionName(eventID)),
		FaceId:             aws.String(faceID),
		MaxFaces:           aws.Int32(int32(maxFaces)),
		FaceMatchThreshold: aws.Float32(float32(threshold)),
	}

	output, err := p.client.rekognition.SearchFaces(ctx, input)
	if err != nil {
		err = parseCallError(err)
		p.logAudit(ctx, audit.Event{EventType: audit.EventFaceSearched, EventID: eventID, FaceID: faceID}, err)
		return nil, fmt.Errorf("search face %s: %w", faceID, err)
	}

	matches := make([]provider.FaceMatch, 0, len(output.FaceMatches))
	for _, m := range output.FaceMatches {
		if m.Face == nil || m.Face.FaceId == nil || *m.Face.FaceId == faceID {
			continue
		}
		match := provider.FaceMatch{FaceID: *m.Face.FaceId}
		if m.Similarity != nil {
			match.Similarity = float64(*m.Similarity)
		}
		matches = append(matches, match)
	}

	p.logAudit(ctx, audit.Event{
		EventType: audit.EventFaceSearched,
		EventID:   eventID,
		FaceID:    faceID,
		Metadata:  map[string]string{"matches": strconv.Itoa(len(matches))},
	}, nil)

	return matches, nil
}

func convertBoundingBox(bb *types.BoundingBox) domain.BoundingBox {
	if bb == nil {
		return domain.BoundingBox{}
	}
	return domain.BoundingBox{
		Left:   float64(aws.ToFloat32(bb.Left)),
		Top:    float64(aws.ToFloat32(bb.Top)),
		Width:  float64(aws.ToFloat32(bb.Width)),
		Height: float64(aws.ToFloat32(bb.Height)),
	}
}

// externalImageID turns an object key into a value accepted by
// ExternalImageId ([a-zA-Z0-9_.\-:]+, at most 255 chars).
func externalImageID(key string) string {
	out := make([]byte, 0, len(key))
	for i := 0; i < len(key); i++ {
		ch := key[i]
		switch {
		case ch >= 'a' && ch <= 'z', ch >= 'A' && ch <= 'Z', ch >= '0' && ch <= '9',
			ch == '_', ch == '.', ch == '-', ch == ':':
			out = append(out, ch)
		default:
			out = append(out, ':')
		}
	}
	if len(out) > 255 {
		out = out[len(out)-255:]
	}
	return string(out)
}
