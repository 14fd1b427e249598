package services

import (
	"context"
	"errors"
	"github.com/maxaizer/cv-extractor/internal/entities"
	"github.com/maxaizer/cv-extractor/internal/repositories"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"testing"
)

func Test_ExtractionCache_ShouldExtract(t *testing.T) {

	dbCtx := newTestDbContext(t)
	cache := NewExtractionCache(repositories.NewExtractionsRepository(dbCtx.DB))
	ctx := context.Background()

	assert.True(t, cache.ShouldExtract(ctx, "p1", "abc123", 1), "no record yet")

	_, err := cache.Put(ctx, "p1", &entities.CVSchema{}, "abc123", 2)
	require.NoError(t, err)

	assert.False(t, cache.ShouldExtract(ctx, "p1", "abc123", 2), "same file, same version")
	assert.False(t, cache.ShouldExtract(ctx, "p1", "abc123", 1), "stored version is newer")
	assert.True(t, cache.ShouldExtract(ctx, "p1", "def456", 2), "different file")
	assert.True(t, cache.ShouldExtract(ctx, "p1", "abc123", 3), "schema upgraded")
	assert.True(t, cache.ShouldExtract(ctx, "p2", "abc123", 2), "other profile")
}

func Test_ExtractionCache_ShouldExtract_WhenStoreFails_ShouldFailOpen(t *testing.T) {

	repo := &mockExtractionRepo{}
	repo.On("GetByProfile", mock.Anything, "p1").Return(nil, errors.New("connection refused"))

	cache := NewExtractionCache(repo)

	assert.True(t, cache.ShouldExtract(context.Background(), "p1", "abc123", 1))
	repo.AssertExpectations(t)
}

func Test_ExtractionCache_Put_SameProfileTwice_ShouldKeepOneRecordWithLatestData(t *testing.T) {

	dbCtx := newTestDbContext(t)
	records := repositories.NewExtractionsRepository(dbCtx.DB)
	cache := NewExtractionCache(records)
	ctx := context.Background()

	_, err := cache.Put(ctx, "p1", &entities.CVSchema{Department: ptr("Sales")}, "h1", 1)
	require.NoError(t, err)
	record, err := cache.Put(ctx, "p1", &entities.CVSchema{Department: ptr("Engineering")}, "h2", 2)
	require.NoError(t, err)

	count, err := records.Count(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
	assert.Equal(t, "h2", record.FileHash)
	assert.Equal(t, 2, record.SchemaVersion)

	cv, err := cache.Get(ctx, "p1")
	require.NoError(t, err)
	require.NotNil(t, cv.Department)
	assert.Equal(t, "Engineering", *cv.Department)
}

func Test_ExtractionCache_Get_ShouldPreserveAbsentAndEmptyCollections(t *testing.T) {

	dbCtx := newTestDbContext(t)
	cache := NewExtractionCache(repositories.NewExtractionsRepository(dbCtx.DB))
	ctx := context.Background()

	missing, err := cache.Get(ctx, "p1")
	require.NoError(t, err)
	assert.Nil(t, missing)

	_, err = cache.Put(ctx, "p1", &entities.CVSchema{Skills: []entities.CVSkill{}}, "h1", 1)
	require.NoError(t, err)

	cv, err := cache.Get(ctx, "p1")
	require.NoError(t, err)
	assert.NotNil(t, cv.Skills)
	assert.Empty(t, cv.Skills)
	assert.Nil(t, cv.Languages)
	assert.Nil(t, cv.Description)
}
