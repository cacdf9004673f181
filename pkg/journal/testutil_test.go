package journal

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// openTestDB opens a database for tests.
// When TEST_DATABASE_URL is set it connects to PostgreSQL; otherwise it
// opens a fresh in-memory SQLite instance on a single connection.
func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn != "" {
		db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
			Logger: logger.Default.LogMode(logger.Silent),
		})
		require.NoError(t, err, "open postgres test db")
		require.NoError(t, ConfigurePool(db, PoolConfig{MaxOpenConns: 2, MaxIdleConns: 1}))

		// Clean before AND after to ensure test isolation.
		db.Exec("DELETE FROM invocations")
		t.Cleanup(func() {
			db.Exec("DELETE FROM invocations")
			if sqlDB, err := db.DB(); err == nil {
				_ = sqlDB.Close()
			}
		})
		return db
	}
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err, "open in-memory sqlite")
	require.NoError(t, ConfigurePool(db, PoolFor(":memory:")))
	return db
}

func newTestJournal(t *testing.T) *GormJournal {
	t.Helper()
	j := New(openTestDB(t))
	require.NoError(t, j.Migrate(context.Background()))
	return j
}
