package services

import (
	"context"
	"encoding/json"
	"github.com/maxaizer/cv-extractor/internal/entities"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"os"
	"path/filepath"
	"testing"
)

func writePDF(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "cv.pdf")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func Test_RequestExtraction_ShouldEnqueueOnlyNewFiles(t *testing.T) {

	f := newPipelineFixture(t)
	service := NewExtractionService(f.queue, f.cache, &mockPopulator{})
	ctx := context.Background()
	path := writePDF(t, "%PDF-1.4 first version")

	job, err := service.RequestExtraction(ctx, "p1", path, false)
	require.NoError(t, err)
	require.NotNil(t, job)

	var payload entities.ExtractionPayload
	require.NoError(t, json.Unmarshal(job.Payload, &payload))
	assert.Equal(t, entities.ExtractionPayload{ProfileID: "p1", PDFPath: path, FileHash: HashContent([]byte("%PDF-1.4 first version"))}, payload)

	_, err = f.cache.Put(ctx, "p1", extractedCV, payload.FileHash, entities.CVSchemaVersion)
	require.NoError(t, err)

	job, err = service.RequestExtraction(ctx, "p1", path, false)
	require.NoError(t, err)
	assert.Nil(t, job, "same file was already extracted")

	job, err = service.RequestExtraction(ctx, "p1", path, true)
	require.NoError(t, err)
	assert.NotNil(t, job, "forced extraction")

	require.NoError(t, os.WriteFile(path, []byte("%PDF-1.4 second version"), 0644))
	job, err = service.RequestExtraction(ctx, "p1", path, false)
	require.NoError(t, err)
	assert.NotNil(t, job, "file changed")
}

func Test_RepopulateFromCache_ShouldNotRenderOrExtract(t *testing.T) {

	f := newPipelineFixture(t)
	ctx := context.Background()

	_, err := f.cache.Put(ctx, "p1", extractedCV, "abc123", entities.CVSchemaVersion)
	require.NoError(t, err)

	languages := &stubLanguages{known: map[string]entities.Language{"en": entities.NewLanguage("en", "English")}}
	service := NewExtractionService(f.queue, f.cache, NewProfilePopulator(f.profiles, languages))

	require.NoError(t, service.RepopulateFromCache(ctx, "p1"))

	profile, err := f.profiles.GetByID(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, "Backend developer", profile.Description)
	require.Len(t, profile.Languages, 1)

	f.renderer.AssertNotCalled(t, "Render")
	f.extractor.AssertNotCalled(t, "ExtractCV")
}

func Test_RepopulateFromCache_WhenNothingCached_ShouldReturnError(t *testing.T) {

	f := newPipelineFixture(t)
	service := NewExtractionService(f.queue, f.cache, &mockPopulator{})

	err := service.RepopulateFromCache(context.Background(), "p1")

	assert.ErrorIs(t, err, ErrNoCachedExtraction)
}

type stubLanguages struct {
	known map[string]entities.Language
}

func (s *stubLanguages) GetByCode(ctx context.Context, value string) (*entities.Language, error) {
	if language, ok := s.known[entities.NormalizeLanguageKey(value)]; ok {
		return &language, nil
	}
	return nil, nil
}
