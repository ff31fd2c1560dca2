package service

import (
	"testing"
	"time"

	"bitwise74/gallery-bot/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAggregatorUpload(t *testing.T) {
	db := newTestDB(t)
	a := newTestAggregator(t, db)

	for _, size := range []int64{100, 200, 300} {
		a.OnUpload(testMedia("u1", size, "image/png"))
	}

	s, err := a.GetUserStats(t.Context(), "u1")
	require.NoError(t, err)

	assert.EqualValues(t, 3, s.UploadCount)
	assert.EqualValues(t, 600, s.TotalSize)
	assert.EqualValues(t, 200, s.AvgSize)
	assert.EqualValues(t, 3, s.ContentTypes["image/png"])
	assert.NotZero(t, s.FirstUpload)
	assert.NotZero(t, s.LastUpload)

	server, err := a.GetServerStats(t.Context())
	require.NoError(t, err)

	assert.EqualValues(t, 1, server.TotalUsers)
	assert.EqualValues(t, 3, server.TotalImages)
	assert.EqualValues(t, 3, server.AvgImagesPerUser)
	assert.EqualValues(t, 3, server.MedianUploads)
	assert.EqualValues(t, 3, server.ContentTypes["image/png"])
}

func TestAggregatorAvgSizeFloors(t *testing.T) {
	db := newTestDB(t)
	a := newTestAggregator(t, db)

	a.OnUpload(testMedia("u1", 100, "image/png"))
	a.OnUpload(testMedia("u1", 101, "image/png"))

	s, err := a.GetUserStats(t.Context(), "u1")
	require.NoError(t, err)

	// 201 / 2 floors to 100
	assert.EqualValues(t, 100, s.AvgSize)
}

func TestAggregatorDelete(t *testing.T) {
	db := newTestDB(t)
	a := newTestAggregator(t, db)

	for _, size := range []int64{100, 200, 300} {
		a.OnUpload(testMedia("u1", size, "image/png"))
	}

	a.OnDelete(testMedia("u1", 200, "image/png"))

	s, err := a.GetUserStats(t.Context(), "u1")
	require.NoError(t, err)

	assert.EqualValues(t, 2, s.UploadCount)
	assert.EqualValues(t, 400, s.TotalSize)
	assert.EqualValues(t, 200, s.AvgSize)
	assert.EqualValues(t, 2, s.ContentTypes["image/png"])
}

func TestAggregatorRoundTripToZero(t *testing.T) {
	db := newTestDB(t)
	a := newTestAggregator(t, db)

	m := testMedia("u1", 500, "image/gif")
	a.OnUpload(m)
	a.OnDelete(m)

	s, err := a.GetUserStats(t.Context(), "u1")
	require.NoError(t, err)

	assert.EqualValues(t, 0, s.UploadCount)
	assert.EqualValues(t, 0, s.TotalSize)
	assert.EqualValues(t, 0, s.AvgSize)

	// The histogram bucket disappears entirely, it is not zeroed
	_, ok := s.ContentTypes["image/gif"]
	assert.False(t, ok)

	w, err := a.GetWeeklyStats(t.Context(), WeekID(time.Now()))
	require.NoError(t, err)

	assert.NotContains(t, w.PerUser, "u1")
	assert.EqualValues(t, 0, w.TotalUploads)
	assert.EqualValues(t, 0, w.TotalUsers)
}

func TestAggregatorDeleteClamps(t *testing.T) {
	db := newTestDB(t)
	a := newTestAggregator(t, db)

	// Deleting for a user without a stats row must not create one
	a.OnDelete(testMedia("ghost", 100, "image/png"))

	_, err := a.GetUserStats(t.Context(), "ghost")
	assert.ErrorIs(t, err, ErrNotFound)

	// A delete bigger than what was counted clamps at zero
	a.OnUpload(testMedia("u1", 100, "image/png"))
	a.OnDelete(testMedia("u1", 100, "image/png"))
	a.OnDelete(testMedia("u1", 100, "image/png"))

	s, err := a.GetUserStats(t.Context(), "u1")
	require.NoError(t, err)

	assert.EqualValues(t, 0, s.UploadCount)
	assert.EqualValues(t, 0, s.TotalSize)
}

func TestWeeklyStats(t *testing.T) {
	db := newTestDB(t)
	a := newTestAggregator(t, db)

	a.OnUpload(testMedia("u1", 100, "image/png"))
	a.OnUpload(testMedia("u1", 200, "image/png"))
	a.OnUpload(testMedia("u2", 300, "image/png"))

	w, err := a.GetWeeklyStats(t.Context(), WeekID(time.Now()))
	require.NoError(t, err)

	assert.EqualValues(t, 3, w.TotalUploads)
	assert.EqualValues(t, 2, w.TotalUsers)
	assert.EqualValues(t, 2, w.PerUser["u1"].UploadCount)
	assert.EqualValues(t, 300, w.PerUser["u1"].TotalSize)
	assert.EqualValues(t, 1, w.PerUser["u2"].UploadCount)

	_, err = a.GetWeeklyStats(t.Context(), "2020-W01")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestServerStatsMedian(t *testing.T) {
	db := newTestDB(t)
	a := newTestAggregator(t, db)

	// Upload counts 1, 2 and 5, the median picks the middle element
	a.OnUpload(testMedia("u1", 10, "image/png"))

	for range 2 {
		a.OnUpload(testMedia("u2", 10, "image/png"))
	}

	for range 5 {
		a.OnUpload(testMedia("u3", 10, "image/png"))
	}

	server, err := a.GetServerStats(t.Context())
	require.NoError(t, err)

	assert.EqualValues(t, 3, server.TotalUsers)
	assert.EqualValues(t, 8, server.TotalImages)
	assert.EqualValues(t, 2, server.MedianUploads)
	// 8 / 3 rounds to 3
	assert.EqualValues(t, 3, server.AvgImagesPerUser)
}

func TestRecomputeKeepsMigratedMarker(t *testing.T) {
	db := newTestDB(t)
	a := newTestAggregator(t, db)

	a.OnUpload(testMedia("u1", 100, "image/png"))

	err := db.Model(model.ServerStats{}).
		Where("id = ?", model.ServerStatsID).
		Update("migrated_from_existing", true).
		Error
	require.NoError(t, err)

	s, err := a.RecomputeServerStats(t.Context())
	require.NoError(t, err)

	assert.True(t, s.Migrated)
}

func TestContentTypeLabel(t *testing.T) {
	assert.Equal(t, "image/png", ContentTypeLabel(&model.Media{ContentType: "image/png"}))
	assert.Equal(t, TenorLabel, ContentTypeLabel(&model.Media{Locator: "https://tenor.com/view/cat-1"}))
	assert.Equal(t, TenorLabel, ContentTypeLabel(&model.Media{Filename: "tenor-cat-1"}))
	assert.Equal(t, "unknown", ContentTypeLabel(&model.Media{Filename: "mystery.bin"}))
}
