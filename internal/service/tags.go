package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"bitwise74/gallery-bot/internal/model"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Tagger maintains the reaction-driven tag lifecycle. Only the zap
// emoji drives it, every other emoji is ignored.
type Tagger struct {
	DB    *gorm.DB
	Emoji string
}

func NewTagger(db *gorm.DB, emoji string) *Tagger {
	return &Tagger{DB: db, Emoji: emoji}
}

func (t *Tagger) watched(emoji string) bool {
	return emoji == t.Emoji || emoji == "zap"
}

// OnReactionAdd puts the react tag on the record behind messageID. The
// fallback filename is tried when no record carries the message id,
// which happens for media archived before provenance was recorded.
// Adding is idempotent, a second reaction changes nothing.
func (t *Tagger) OnReactionAdd(ctx context.Context, emoji, messageID, fallbackFilename string) error {
	if !t.watched(emoji) {
		return nil
	}

	m, err := t.findTarget(ctx, messageID, fallbackFilename)
	if err != nil {
		return err
	}

	if m.Tags.Has(model.ReactTag) {
		return nil
	}

	m.Tags = append(m.Tags, model.ReactTag)

	err = t.DB.WithContext(ctx).
		Model(model.Media{}).
		Where("id = ?", m.ID).
		Update("tags", m.Tags).
		Error
	if err != nil {
		return fmt.Errorf("failed to update tags, %w", err)
	}

	zap.L().Debug("Added react tag", zap.String("messageID", messageID))
	return nil
}

// OnReactionRemove strips the react tag, but only once zero reactions
// of the watched emoji remain on the target. Several users may have
// reacted and one of them backing out must not untag the record for
// the rest.
func (t *Tagger) OnReactionRemove(ctx context.Context, emoji, messageID, fallbackFilename string, remaining int) error {
	if !t.watched(emoji) {
		return nil
	}

	if remaining > 0 {
		return nil
	}

	m, err := t.findTarget(ctx, messageID, fallbackFilename)
	if err != nil {
		return err
	}

	if !m.Tags.Has(model.ReactTag) {
		return nil
	}

	err = t.DB.WithContext(ctx).
		Model(model.Media{}).
		Where("id = ?", m.ID).
		Update("tags", m.Tags.Without(model.ReactTag)).
		Error
	if err != nil {
		return fmt.Errorf("failed to update tags, %w", err)
	}

	zap.L().Debug("Removed react tag", zap.String("messageID", messageID))
	return nil
}

// TrackPost records which command posted a bot message and which media
// record it showed. Untag resolves through this later.
func (t *Tagger) TrackPost(ctx context.Context, messageID, command string, mediaID uint, tag string) error {
	return t.DB.WithContext(ctx).Create(&model.CommandPost{
		MessageID: messageID,
		Command:   command,
		MediaID:   mediaID,
		Tag:       tag,
		CreatedAt: time.Now().UnixMilli(),
	}).Error
}

// Untag removes the tag a bot post was selected by. The tag name comes
// from the tracked command invocation, not from the user.
func (t *Tagger) Untag(ctx context.Context, botMessageID string) (string, error) {
	var post model.CommandPost

	err := t.DB.WithContext(ctx).Where("message_id = ?", botMessageID).First(&post).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", ErrNoProvenance
	}
	if err != nil {
		return "", err
	}

	if post.Tag == "" {
		return "", ErrNoProvenance
	}

	var m model.Media
	err = t.DB.WithContext(ctx).First(&m, post.MediaID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", err
	}

	if !m.Tags.Has(post.Tag) {
		return "", ErrNotTagged
	}

	err = t.DB.WithContext(ctx).
		Model(model.Media{}).
		Where("id = ?", m.ID).
		Update("tags", m.Tags.Without(post.Tag)).
		Error
	if err != nil {
		return "", fmt.Errorf("failed to update tags, %w", err)
	}

	return post.Tag, nil
}

func (t *Tagger) findTarget(ctx context.Context, messageID, fallbackFilename string) (*model.Media, error) {
	var m model.Media

	err := t.DB.WithContext(ctx).Where("message_id = ?", messageID).First(&m).Error
	if err == nil {
		return &m, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	if fallbackFilename != "" {
		err = t.DB.WithContext(ctx).Where("filename = ?", fallbackFilename).First(&m).Error
		if err == nil {
			return &m, nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
	}

	return nil, ErrNotFound
}
