package repositories

import (
	"github.com/maxaizer/cv-extractor/internal/config"
	"github.com/stretchr/testify/require"
	"path/filepath"
	"testing"
)

func newTestDbContext(t *testing.T) *DbContext {
	t.Helper()

	dbCtx, err := NewDbContext(config.DBConfig{
		Driver:           config.DriverSqlite,
		ConnectionString: filepath.Join(t.TempDir(), "test.db") + "?_pragma=busy_timeout(5000)",
	})
	require.NoError(t, err)
	require.NoError(t, dbCtx.Migrate())

	t.Cleanup(func() { _ = dbCtx.Close() })
	return dbCtx
}
