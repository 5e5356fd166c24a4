// Package testutil provides shared helpers for package-level tests.
package testutil

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/bidwatch/bid-api/internal/domain"
)

// SetupTestDB opens an isolated in-memory SQLite database with the full
// schema migrated. Each call returns a fresh database.
func SetupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:?cache=private"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	})
	require.NoError(t, err, "failed to open in-memory database")

	err = db.AutoMigrate(
		&domain.Bid{},
		&domain.StageInterval{},
		&domain.HistoryRecord{},
		&domain.User{},
		&domain.Document{},
		&domain.Notification{},
	)
	require.NoError(t, err, "failed to migrate test schema")

	return db
}

// CreateTestBid inserts a bid with sensible defaults and returns it.
func CreateTestBid(t *testing.T, db *gorm.DB, title string) *domain.Bid {
	t.Helper()

	bid := &domain.Bid{
		Title:      title,
		Status:     domain.BidStatusOpen,
		Stage:      domain.InitialStage(),
		DueDate:    time.Now().UTC().AddDate(0, 1, 0),
		AssignedTo: "alice",
		CreatedBy:  "alice",
		CreatedAt:  time.Now().UTC(),
		ClientName: "Acme Corp",
	}
	require.NoError(t, db.Create(bid).Error)
	return bid
}

// CreateTestUser inserts a user with the given username and role.
func CreateTestUser(t *testing.T, db *gorm.DB, username string, role domain.UserRole) *domain.User {
	t.Helper()

	user := &domain.User{
		Username: username,
		Role:     role,
	}
	require.NoError(t, db.Create(user).Error)
	return user
}
