package services

import (
	"context"
	"github.com/maxaizer/cv-extractor/internal/config"
	"github.com/maxaizer/cv-extractor/internal/entities"
	"github.com/maxaizer/cv-extractor/internal/renderer"
	"github.com/maxaizer/cv-extractor/internal/repositories"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"path/filepath"
	"sync"
	"testing"
	"time"
)

func newTestDbContext(t *testing.T) *repositories.DbContext {
	t.Helper()

	dbCtx, err := repositories.NewDbContext(config.DBConfig{
		Driver:           config.DriverSqlite,
		ConnectionString: filepath.Join(t.TempDir(), "test.db") + "?_pragma=busy_timeout(5000)",
	})
	require.NoError(t, err)
	require.NoError(t, dbCtx.Migrate())

	t.Cleanup(func() { _ = dbCtx.Close() })
	return dbCtx
}

func addProfile(t *testing.T, profiles *repositories.Profiles, ID string) {
	t.Helper()
	require.NoError(t, profiles.Add(context.Background(), entities.CandidateProfile{
		ID:        ID,
		FirstName: "Ada",
		LastName:  "Lovelace",
		Email:     "ada@example.com",
		Phone:     "+44 20 0000 0000",
		Available: true,
	}))
}

func fixedClock(now time.Time) func() time.Time {
	return func() time.Time { return now }
}

func ptr[T any](v T) *T {
	return &v
}

type mockRenderer struct {
	mock.Mock
}

func (m *mockRenderer) Render(ctx context.Context, pdfPath string, pages renderer.PageRange) ([]string, error) {
	args := m.Called(ctx, pdfPath, pages)
	images, _ := args.Get(0).([]string)
	return images, args.Error(1)
}

type mockExtractor struct {
	mock.Mock
}

func (m *mockExtractor) ExtractCV(ctx context.Context, images []string) (*entities.CVSchema, error) {
	args := m.Called(ctx, images)
	cv, _ := args.Get(0).(*entities.CVSchema)
	return cv, args.Error(1)
}

type mockExtractionRepo struct {
	mock.Mock
}

func (m *mockExtractionRepo) GetByProfile(ctx context.Context, profileID string) (*entities.ExtractionRecord, error) {
	args := m.Called(ctx, profileID)
	record, _ := args.Get(0).(*entities.ExtractionRecord)
	return record, args.Error(1)
}

func (m *mockExtractionRepo) Upsert(ctx context.Context, record entities.ExtractionRecord) (*entities.ExtractionRecord, error) {
	args := m.Called(ctx, record)
	stored, _ := args.Get(0).(*entities.ExtractionRecord)
	return stored, args.Error(1)
}

type mockPopulator struct {
	mock.Mock
}

func (m *mockPopulator) Populate(ctx context.Context, profileID string, cv *entities.CVSchema) error {
	return m.Called(ctx, profileID, cv).Error(0)
}

type notification struct {
	success   bool
	jobID     string
	profileID string
	err       string
}

type recordingNotifier struct {
	mu            sync.Mutex
	notifications []notification
}

func (n *recordingNotifier) NotifyCompleted(jobID, profileID string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.notifications = append(n.notifications, notification{success: true, jobID: jobID, profileID: profileID})
}

func (n *recordingNotifier) NotifyFailed(jobID, profileID string, err error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.notifications = append(n.notifications, notification{jobID: jobID, profileID: profileID, err: err.Error()})
}

func (n *recordingNotifier) all() []notification {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]notification(nil), n.notifications...)
}
