package service

import (
	"context"
	"errors"
	"time"

	"bitwise74/gallery-bot/internal/model"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// migrationBatchSize matches the store's batch write limit
const migrationBatchSize = 500

// Migrator backfills user stats from media records that existed before
// the stats subsystem did. It runs once, the migration marker on the
// written rows is the only thing guarding against a rerun.
type Migrator struct {
	DB    *gorm.DB
	Stats *Aggregator
}

type MigrationStatus struct {
	HasRun            bool  `json:"has_run"`
	MigratedUserCount int64 `json:"migrated_user_count"`
	ServerStatsExists bool  `json:"server_stats_exists"`
}

// Status reports whether the backfill has completed. It has iff at
// least one user stats row and the server stats row carry the marker.
func (mg *Migrator) Status(ctx context.Context) (*MigrationStatus, error) {
	var migratedUsers int64

	err := mg.DB.WithContext(ctx).
		Model(model.UserStats{}).
		Where("migrated_from_existing = ?", true).
		Count(&migratedUsers).
		Error
	if err != nil {
		return nil, err
	}

	var server model.ServerStats
	serverExists := true
	serverMigrated := false

	err = mg.DB.WithContext(ctx).Where("id = ?", model.ServerStatsID).First(&server).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		serverExists = false
	} else if err != nil {
		return nil, err
	} else {
		serverMigrated = server.Migrated
	}

	return &MigrationStatus{
		HasRun:            migratedUsers > 0 && serverMigrated,
		MigratedUserCount: migratedUsers,
		ServerStatsExists: serverExists,
	}, nil
}

// RunSafely runs the backfill unless it already completed. A run that
// died halfway can be retried, writes are keyed by user id so already
// committed batches are overwritten, not duplicated.
func (mg *Migrator) RunSafely(ctx context.Context) error {
	status, err := mg.Status(ctx)
	if err != nil {
		return err
	}

	if status.HasRun {
		zap.L().Info("Stats migration has already been completed",
			zap.Int64("migratedUsers", status.MigratedUserCount))
		return nil
	}

	zap.L().Info("Starting stats migration from existing media records")
	return mg.run(ctx)
}

func (mg *Migrator) run(ctx context.Context) error {
	var media []model.Media

	if err := mg.DB.WithContext(ctx).Find(&media).Error; err != nil {
		return err
	}

	if len(media) == 0 {
		zap.L().Info("No existing media records found, nothing to migrate")
		return nil
	}

	zap.L().Info("Scanning media records", zap.Int("count", len(media)))

	now := time.Now().UnixMilli()
	byUser := map[string]*model.UserStats{}

	for i := range media {
		m := &media[i]

		// Some very old records predate author tracking
		if m.AuthorID == "" {
			zap.L().Warn("Skipping media record without author info",
				zap.String("filename", m.Filename))
			continue
		}

		s := byUser[m.AuthorID]
		if s == nil {
			s = &model.UserStats{
				UserID:       m.AuthorID,
				Username:     m.AuthorUsername,
				DisplayName:  m.AuthorDisplayName,
				FirstUpload:  m.CreatedAt,
				LastUpload:   m.CreatedAt,
				ContentTypes: model.CountMap{},
				Migrated:     true,
				LastUpdated:  now,
			}
			byUser[m.AuthorID] = s
		}

		s.UploadCount++
		s.TotalSize += m.Size
		s.ContentTypes[ContentTypeLabel(m)]++

		if m.CreatedAt != 0 && (s.FirstUpload == 0 || m.CreatedAt < s.FirstUpload) {
			s.FirstUpload = m.CreatedAt
		}
		if m.CreatedAt > s.LastUpload {
			s.LastUpload = m.CreatedAt
		}
	}

	stats := make([]model.UserStats, 0, len(byUser))
	for _, s := range byUser {
		if s.UploadCount > 0 {
			s.AvgSize = s.TotalSize / s.UploadCount
		}
		stats = append(stats, *s)
	}

	zap.L().Info("Writing migrated user stats", zap.Int("users", len(stats)))

	err := mg.DB.WithContext(ctx).
		Clauses(clause.OnConflict{UpdateAll: true}).
		CreateInBatches(stats, migrationBatchSize).
		Error
	if err != nil {
		return err
	}

	// Rebuild the global rollup from the rows we just wrote and mark
	// it so Status flips to done
	if _, err := mg.Stats.RecomputeServerStats(ctx); err != nil {
		return err
	}

	err = mg.DB.WithContext(ctx).
		Model(model.ServerStats{}).
		Where("id = ?", model.ServerStatsID).
		Update("migrated_from_existing", true).
		Error
	if err != nil {
		return err
	}

	zap.L().Info("Stats migration completed", zap.Int("users", len(stats)))
	return nil
}
