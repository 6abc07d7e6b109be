package database

import (
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func openMemory(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	// every new connection would get its own empty memory database
	sqlDB.SetMaxOpenConns(1)
	return db
}

func TestMigrate_CreatesFeedbackTable(t *testing.T) {
	db := openMemory(t)

	require.NoError(t, Migrate(db))
	require.True(t, db.Migrator().HasTable("feedback"))
	for _, column := range []string{"id", "question", "answer", "latency", "rating", "created_at"} {
		require.True(t, db.Migrator().HasColumn(&feedbackV1{}, column), column)
	}

	// rerunning is a no-op
	require.NoError(t, Migrate(db))
}

func TestMigrate_Rollback(t *testing.T) {
	db := openMemory(t)

	migrator := GetMigrator(db)
	require.NoError(t, migrator.Migrate())
	require.NoError(t, migrator.RollbackLast())
	require.False(t, db.Migrator().HasTable("feedback"))
}
