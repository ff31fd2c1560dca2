package service

import (
	"context"
	"errors"

	"bitwise74/gallery-bot/internal/model"

	"gorm.io/gorm"
)

// Read side of the media collection, used by the command handlers

// reactTagClause matches records whose tag set contains the react tag.
// Tags are stored comma-joined, wrapping both sides avoids partial
// matches like "reacted"
const reactTagClause = "(',' || tags || ',') LIKE '%,react,%'"

func applyTypeFilter(q *gorm.DB, typeFilter string) *gorm.DB {
	switch typeFilter {
	case "gif":
		// Legacy rows predate the source column, locator pattern is
		// the fallback
		return q.Where("source = ? OR locator LIKE ?", model.SourceTenor, "%tenor%")
	case "img":
		return q.Where("source != ? AND locator NOT LIKE ?", model.SourceTenor, "%tenor%")
	default:
		return q
	}
}

func CountMedia(ctx context.Context, db *gorm.DB) (int64, error) {
	var n int64
	err := db.WithContext(ctx).Model(model.Media{}).Count(&n).Error
	return n, err
}

// RandomMedia picks one random record, optionally narrowed to "img" or
// "gif". ErrNotFound when the pool is empty.
func RandomMedia(ctx context.Context, db *gorm.DB, typeFilter string) (*model.Media, error) {
	var m model.Media

	q := applyTypeFilter(db.WithContext(ctx), typeFilter)

	err := q.Order("RANDOM()").Limit(1).Take(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	return &m, nil
}

// RandomReactMedia picks a random record out of the react tag pool
func RandomReactMedia(ctx context.Context, db *gorm.DB, typeFilter string) (*model.Media, error) {
	var m model.Media

	q := applyTypeFilter(db.WithContext(ctx).Where(reactTagClause), typeFilter)

	err := q.Order("RANDOM()").Limit(1).Take(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	return &m, nil
}

// UserImages returns a user's static images. GIFs and Tenor shares
// don't composite well and are excluded from collages.
func UserImages(ctx context.Context, db *gorm.DB, userID string) ([]model.Media, error) {
	var media []model.Media

	err := db.WithContext(ctx).
		Where("author_id = ?", userID).
		Where("source != ?", model.SourceTenor).
		Where("locator NOT LIKE ?", "%tenor%").
		Where("content_type NOT LIKE ?", "%gif%").
		Where("filename NOT LIKE ?", "%.gif").
		Find(&media).
		Error
	if err != nil {
		return nil, err
	}

	return media, nil
}

// FindByMessageID resolves a record by the message that posted it
func FindByMessageID(ctx context.Context, db *gorm.DB, messageID string) (*model.Media, error) {
	var m model.Media

	err := db.WithContext(ctx).Where("message_id = ?", messageID).First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	return &m, nil
}
