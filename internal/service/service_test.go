package service

import (
	"testing"

	"bitwise74/gallery-bot/internal/model"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	err = db.AutoMigrate(
		&model.Media{},
		&model.UserStats{},
		&model.WeeklyStats{},
		&model.ServerStats{},
		&model.Watermark{},
		&model.CommandPost{},
	)
	require.NoError(t, err)

	return db
}

// newTestAggregator wires the recomputer synchronously so assertions
// don't race a debounce timer
func newTestAggregator(t *testing.T, db *gorm.DB) *Aggregator {
	t.Helper()

	a := &Aggregator{DB: db}
	a.Recompute = NewSyncRecomputer(func() {
		if _, err := a.RecomputeServerStats(t.Context()); err != nil {
			t.Errorf("recompute failed: %v", err)
		}
	})

	return a
}

func testMedia(author string, size int64, contentType string) *model.Media {
	return &model.Media{
		Filename:       author + "-file.png",
		Size:           size,
		ContentType:    contentType,
		AuthorID:       author,
		AuthorUsername: author,
		Source:         model.SourceAttachment,
		Tags:           model.StringSlice{},
		CreatedAt:      1700000000000,
	}
}
