package service

import (
	"context"
	"errors"
	"math"
	"sort"
	"strings"
	"time"

	"bitwise74/gallery-bot/internal/model"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// TenorLabel is the histogram bucket used for Tenor shares, which
// carry no content type of their own.
const TenorLabel = "Tenor Gif"

// Aggregator owns the userStats, weeklyStats and serverStats rows.
// OnUpload and OnDelete are fire-and-forget, a stats failure is logged
// and never surfaces into the ingest or delete path.
type Aggregator struct {
	DB        *gorm.DB
	Recompute *Recomputer
}

func NewAggregator(db *gorm.DB, recomputeDelay time.Duration) *Aggregator {
	a := &Aggregator{DB: db}

	a.Recompute = NewRecomputer(recomputeDelay, func() {
		if _, err := a.RecomputeServerStats(context.Background()); err != nil {
			zap.L().Error("Background server stats recompute failed", zap.Error(err))
		}
	})

	return a
}

// OnUpload applies the per-user delta for a freshly archived record,
// updates the current weekly bucket and schedules a debounced server
// stats recompute.
func (a *Aggregator) OnUpload(m *model.Media) {
	if err := a.applyUserUpload(m); err != nil {
		zap.L().Error("Failed to update user stats on upload",
			zap.String("userID", m.AuthorID), zap.Error(err))
		return
	}

	// Weekly and server rollups are best-effort, the user counters
	// above are the source of truth
	if err := a.applyWeeklyUpload(m); err != nil {
		zap.L().Error("Failed to update weekly stats on upload",
			zap.String("userID", m.AuthorID), zap.Error(err))
	}

	a.Recompute.Trigger()
}

// OnDelete mirrors OnUpload with clamped-at-zero decrements
func (a *Aggregator) OnDelete(m *model.Media) {
	if err := a.applyUserDelete(m); err != nil {
		zap.L().Error("Failed to update user stats on delete",
			zap.String("userID", m.AuthorID), zap.Error(err))
		return
	}

	if err := a.applyWeeklyDelete(m); err != nil {
		zap.L().Error("Failed to update weekly stats on delete",
			zap.String("userID", m.AuthorID), zap.Error(err))
	}

	a.Recompute.Trigger()
}

func (a *Aggregator) applyUserUpload(m *model.Media) error {
	label := ContentTypeLabel(m)

	return a.DB.Transaction(func(tx *gorm.DB) error {
		now := time.Now().UnixMilli()

		var s model.UserStats

		err := tx.Where("user_id = ?", m.AuthorID).First(&s).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return tx.Create(&model.UserStats{
				UserID:       m.AuthorID,
				Username:     m.AuthorUsername,
				DisplayName:  m.AuthorDisplayName,
				UploadCount:  1,
				TotalSize:    m.Size,
				AvgSize:      m.Size,
				FirstUpload:  m.CreatedAt,
				LastUpload:   m.CreatedAt,
				ContentTypes: model.CountMap{label: 1},
				LastUpdated:  now,
			}).Error
		}
		if err != nil {
			return err
		}

		// Names can change between uploads, keep the latest
		s.Username = m.AuthorUsername
		s.DisplayName = m.AuthorDisplayName

		s.UploadCount++
		s.TotalSize += m.Size
		s.AvgSize = s.TotalSize / s.UploadCount
		s.LastUpload = m.CreatedAt

		if s.FirstUpload == 0 || m.CreatedAt < s.FirstUpload {
			s.FirstUpload = m.CreatedAt
		}

		if s.ContentTypes == nil {
			s.ContentTypes = model.CountMap{}
		}
		s.ContentTypes[label]++

		s.LastUpdated = now

		return tx.Save(&s).Error
	})
}

func (a *Aggregator) applyUserDelete(m *model.Media) error {
	label := ContentTypeLabel(m)

	return a.DB.Transaction(func(tx *gorm.DB) error {
		var s model.UserStats

		err := tx.Where("user_id = ?", m.AuthorID).First(&s).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// Nothing to decrement
			return nil
		}
		if err != nil {
			return err
		}

		s.UploadCount = max(0, s.UploadCount-1)
		s.TotalSize = max(0, s.TotalSize-m.Size)

		if s.UploadCount > 0 {
			s.AvgSize = s.TotalSize / s.UploadCount
		} else {
			s.AvgSize = 0
		}

		if s.ContentTypes != nil {
			if s.ContentTypes[label] <= 1 {
				// Never keep empty buckets around
				delete(s.ContentTypes, label)
			} else {
				s.ContentTypes[label]--
			}
		}

		s.LastUpdated = time.Now().UnixMilli()

		return tx.Save(&s).Error
	})
}

func (a *Aggregator) applyWeeklyUpload(m *model.Media) error {
	weekID := WeekID(time.Now())

	return a.DB.Transaction(func(tx *gorm.DB) error {
		now := time.Now().UnixMilli()

		var w model.WeeklyStats

		err := tx.Where("week_id = ?", weekID).First(&w).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return tx.Create(&model.WeeklyStats{
				WeekID: weekID,
				PerUser: model.WeeklyUserMap{
					m.AuthorID: {UploadCount: 1, TotalSize: m.Size, LastUpdated: now},
				},
				TotalUploads: 1,
				TotalUsers:   1,
				LastUpdated:  now,
			}).Error
		}
		if err != nil {
			return err
		}

		if w.PerUser == nil {
			w.PerUser = model.WeeklyUserMap{}
		}

		entry := w.PerUser[m.AuthorID]
		if entry == nil {
			entry = &model.WeeklyUserEntry{}
			w.PerUser[m.AuthorID] = entry
		}

		entry.UploadCount++
		entry.TotalSize += m.Size
		entry.LastUpdated = now

		w.TotalUploads++
		w.TotalUsers = int64(len(w.PerUser))
		w.LastUpdated = now

		return tx.Save(&w).Error
	})
}

func (a *Aggregator) applyWeeklyDelete(m *model.Media) error {
	weekID := WeekID(time.Now())

	return a.DB.Transaction(func(tx *gorm.DB) error {
		var w model.WeeklyStats

		err := tx.Where("week_id = ?", weekID).First(&w).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		if err != nil {
			return err
		}

		entry := w.PerUser[m.AuthorID]
		if entry == nil {
			return nil
		}

		entry.UploadCount--
		entry.TotalSize = max(0, entry.TotalSize-m.Size)
		entry.LastUpdated = time.Now().UnixMilli()

		if entry.UploadCount <= 0 {
			// Gone entirely, not zeroed
			delete(w.PerUser, m.AuthorID)
		}

		w.TotalUploads = max(0, w.TotalUploads-1)
		w.TotalUsers = int64(len(w.PerUser))
		w.LastUpdated = time.Now().UnixMilli()

		return tx.Save(&w).Error
	})
}

// GetWeeklyStats returns the bucket for the given week id, or
// ErrNotFound if nothing was uploaded that week.
func (a *Aggregator) GetWeeklyStats(ctx context.Context, weekID string) (*model.WeeklyStats, error) {
	var w model.WeeklyStats

	err := a.DB.WithContext(ctx).Where("week_id = ?", weekID).First(&w).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	return &w, nil
}

// GetUserStats returns the lifetime counters for a user, or
// ErrNotFound if they never uploaded anything.
func (a *Aggregator) GetUserStats(ctx context.Context, userID string) (*model.UserStats, error) {
	var s model.UserStats

	err := a.DB.WithContext(ctx).Where("user_id = ?", userID).First(&s).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	return &s, nil
}

// GetServerStats returns the cached global rollup, computing it on the
// spot when no cached row exists yet.
func (a *Aggregator) GetServerStats(ctx context.Context) (*model.ServerStats, error) {
	var s model.ServerStats

	err := a.DB.WithContext(ctx).Where("id = ?", model.ServerStatsID).First(&s).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		zap.L().Info("No cached server stats found, calculating")
		return a.RecomputeServerStats(ctx)
	}
	if err != nil {
		return nil, err
	}

	return &s, nil
}

// RecomputeServerStats rebuilds the global rollup with a full scan of
// user stats. O(total users), not O(total media), and kept off the hot
// path by the debounced scheduler. The median comes from a full sort,
// which is fine at this scan size.
func (a *Aggregator) RecomputeServerStats(ctx context.Context) (*model.ServerStats, error) {
	var users []model.UserStats

	if err := a.DB.WithContext(ctx).Find(&users).Error; err != nil {
		return nil, err
	}

	var totalImages int64
	counts := make([]int64, 0, len(users))
	contentTypes := model.CountMap{}

	for _, u := range users {
		totalImages += u.UploadCount
		counts = append(counts, u.UploadCount)

		for label, n := range u.ContentTypes {
			contentTypes[label] += n
		}
	}

	sort.Slice(counts, func(i, j int) bool { return counts[i] < counts[j] })

	var median int64
	if len(counts) > 0 {
		median = counts[len(counts)/2]
	}

	var avg int64
	if len(users) > 0 {
		avg = int64(math.Round(float64(totalImages) / float64(len(users))))
	}

	s := &model.ServerStats{
		ID:               model.ServerStatsID,
		TotalUsers:       int64(len(users)),
		TotalImages:      totalImages,
		AvgImagesPerUser: avg,
		MedianUploads:    median,
		ContentTypes:     contentTypes,
		LastUpdated:      time.Now().UnixMilli(),
	}

	// A refresh must not wipe the migration marker, it's the only
	// thing keeping the backfill from rerunning
	var prev model.ServerStats
	if err := a.DB.WithContext(ctx).Where("id = ?", model.ServerStatsID).First(&prev).Error; err == nil {
		s.Migrated = prev.Migrated
	}

	err := a.DB.WithContext(ctx).
		Clauses(clause.OnConflict{UpdateAll: true}).
		Create(s).
		Error
	if err != nil {
		return nil, err
	}

	return s, nil
}

// ContentTypeLabel resolves the histogram bucket for a record. Falls
// back through the explicit content type, the Tenor label and finally
// "unknown".
func ContentTypeLabel(m *model.Media) string {
	if ct := strings.TrimSpace(m.ContentType); ct != "" {
		return ct
	}

	if strings.Contains(m.Locator, "tenor") || strings.Contains(m.Filename, "tenor") {
		return TenorLabel
	}

	return "unknown"
}
