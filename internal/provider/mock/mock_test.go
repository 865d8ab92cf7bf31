package mock

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProvider_CompareFacesScripted(t *testing.T) {
	p := New()
	p.SetScores("a.jpg", 95, 75)
	p.SetScores("b.jpg")

	matches, err := p.CompareFaces(context.Background(), "selfie.jpg", "a.jpg", 80)
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, 95.0, matches[0].Similarity)

	matches, err = p.CompareFaces(context.Background(), "selfie.jpg", "b.jpg", 80)
	require.NoError(t, err)
	assert.Empty(t, matches)

	assert.Equal(t, 2, p.CompareCalls())
}

func TestProvider_CompareFacesDeterministic(t *testing.T) {
	p := New()

	first, err := p.CompareFaces(context.Background(), "s.jpg", "x.jpg", 0)
	require.NoError(t, err)
	second, err := p.CompareFaces(context.Background(), "s.jpg", "x.jpg", 0)
	require.NoError(t, err)

	require.Len(t, first, 1)
	assert.Equal(t, first, second)
	assert.GreaterOrEqual(t, first[0].Similarity, 0.0)
	assert.Less(t, first[0].Similarity, 100.0)
}

func TestProvider_CompareFacesFaults(t *testing.T) {
	p := New()
	boom := errors.New("boom")
	p.SetCompareError("bad.jpg", boom)
	p.SetDelay("slow.jpg", time.Hour)

	_, err := p.CompareFaces(context.Background(), "s.jpg", "bad.jpg", 80)
	assert.ErrorIs(t, err, boom)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err = p.CompareFaces(ctx, "s.jpg", "slow.jpg", 80)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestProvider_IndexAndSearch(t *testing.T) {
	ctx := context.Background()
	p := New()
	p.SetFaces("a.jpg", "alice", "bob")
	p.SetFaces("b.jpg", "alice")

	require.NoError(t, p.ResetCollection(ctx, "482913"))

	facesA, err := p.IndexFaces(ctx, "482913", "a.jpg")
	require.NoError(t, err)
	require.Len(t, facesA, 2)
	facesB, err := p.IndexFaces(ctx, "482913", "b.jpg")
	require.NoError(t, err)
	require.Len(t, facesB, 1)

	matches, err := p.SearchFaces(ctx, "482913", facesA[0].FaceID, 5, 99)
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, facesB[0].FaceID, matches[0].FaceID)

	matches, err = p.SearchFaces(ctx, "482913", facesA[1].FaceID, 5, 99)
	require.NoError(t, err)
	assert.Empty(t, matches)

}

func TestProvider_ReindexDuplicatesCrowdSearch(t *testing.T) {
	ctx := context.Background()
	p := New()
	p.SetFaces("a.jpg", "alice")
	p.SetFaces("b.jpg", "alice")
	require.NoError(t, p.ResetCollection(ctx, "482913"))

	first, err := p.IndexFaces(ctx, "482913", "a.jpg")
	require.NoError(t, err)
	_, err = p.IndexFaces(ctx, "482913", "b.jpg")
	require.NoError(t, err)
	again, err := p.IndexFaces(ctx, "482913", "a.jpg")
	require.NoError(t, err)

	assert.NotEqual(t, first[0].FaceID, again[0].FaceID, "every index call mints new ids")
	assert.Equal(t, 3, p.CollectionSize("482913"))

	matches, err := p.SearchFaces(ctx, "482913", first[0].FaceID, 1, 99)
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, again[0].FaceID, matches[0].FaceID, "same-image copy ranks first")

	require.NoError(t, p.ResetCollection(ctx, "482913"))
	assert.Zero(t, p.CollectionSize("482913"))
}

func TestProvider_DeleteCollection(t *testing.T) {
	ctx := context.Background()
	p := New()
	require.NoError(t, p.ResetCollection(ctx, "482913"))
	require.NoError(t, p.DeleteCollection(ctx, "482913"))
	require.NoError(t, p.DeleteCollection(ctx, "482913"))

	_, err := p.IndexFaces(ctx, "482913", "a.jpg")
	assert.Error(t, err)
}

func TestProvider_IndexRequiresCollection(t *testing.T) {
	_, err := New().IndexFaces(context.Background(), "missing", "a.jpg")
	assert.Error(t, err)
}
