package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/url"
	"path"
	"regexp"
	"strings"
	"time"

	"bitwise74/gallery-bot/internal/model"
	"bitwise74/gallery-bot/internal/storage"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// imageURLRegex matches direct image links and Tenor share links
// embedded in message text
var imageURLRegex = regexp.MustCompile(`https?://[^\s<>]+?\.(?:jpg|jpeg|gif|png|webp)(?:\?[^\s<>]*)?|https?://tenor\.com/view/[A-Za-z0-9-]+`)

// ExtractImageURLs pulls every archivable link out of a message body
func ExtractImageURLs(content string) []string {
	return imageURLRegex.FindAllString(content, -1)
}

// IsTenorURL reports whether u points at a Tenor share page
func IsTenorURL(u string) bool {
	return strings.Contains(u, "tenor.com/view/")
}

// Ingestor archives inbound media. It classifies the source, downloads
// what can be downloaded, writes the media record, advances the
// ingestion watermark and kicks the stats hooks.
type Ingestor struct {
	DB         *gorm.DB
	Store      storage.Backend
	Stats      *Aggregator
	Downloader *Downloader
}

// IngestInput is one attachment or link from an inbound message
type IngestInput struct {
	URL         string
	Filename    string // set for attachments, derived otherwise
	Size        int64
	Width       int
	Height      int
	ContentType string
	Attachment  bool

	AuthorID          string
	AuthorUsername    string
	AuthorDisplayName string
	MessageID         string
	MessageLink       string
}

// Classify decides the source kind for an input. The kind drives the
// dedup check and the delete strategy later on.
func Classify(in IngestInput) model.SourceKind {
	switch {
	case in.Attachment:
		return model.SourceAttachment
	case IsTenorURL(in.URL):
		return model.SourceTenor
	default:
		return model.SourceURL
	}
}

// Ingest archives a single item. Tenor shares are stored by reference
// and deduped by derived filename, everything else is downloaded with
// retries and falls back to the remote URL when the download fails for
// good. A stats failure never fails the ingest.
func (ing *Ingestor) Ingest(ctx context.Context, in IngestInput) (*model.Media, error) {
	rec := &model.Media{
		Filename:          in.Filename,
		Size:              in.Size,
		ContentType:       in.ContentType,
		Width:             in.Width,
		Height:            in.Height,
		AuthorID:          in.AuthorID,
		AuthorUsername:    in.AuthorUsername,
		AuthorDisplayName: in.AuthorDisplayName,
		MessageID:         in.MessageID,
		MessageLink:       in.MessageLink,
		Source:            Classify(in),
		Tags:              model.StringSlice{},
		CreatedAt:         time.Now().UnixMilli(),
	}

	switch rec.Source {
	case model.SourceTenor:
		rec.Filename = "tenor-" + path.Base(strings.TrimSuffix(in.URL, "/"))
		rec.Locator = in.URL

		// Tenor is the only class that forbids duplicates. Downloaded
		// files get renamed on collision instead
		var n int64
		err := ing.DB.WithContext(ctx).
			Model(model.Media{}).
			Where("filename = ? AND source = ?", rec.Filename, model.SourceTenor).
			Count(&n).
			Error
		if err != nil {
			return nil, fmt.Errorf("failed to check for duplicates, %w", err)
		}

		if n > 0 {
			return nil, ErrDuplicate
		}

	default:
		if rec.Filename == "" {
			rec.Filename = basenameOf(in.URL)
		}

		if err := ing.fetchAndStore(ctx, in.URL, rec); err != nil {
			return nil, err
		}
	}

	err := ing.DB.WithContext(ctx).Create(rec).Error
	if err != nil {
		return nil, fmt.Errorf("failed to save media record, %w", err)
	}

	if err := ing.advanceWatermark(ctx, rec.CreatedAt); err != nil {
		zap.L().Error("Failed to advance ingestion watermark", zap.Error(err))
	}

	ing.Stats.OnUpload(rec)

	return rec, nil
}

// fetchAndStore downloads the content and writes it into the storage
// backend. When the download fails for good the original remote URL is
// kept as the locator so the record still exists, just without a local
// copy.
func (ing *Ingestor) fetchAndStore(ctx context.Context, srcURL string, rec *model.Media) error {
	body, ct, err := ing.Downloader.Fetch(ctx, srcURL)
	if err != nil {
		var dlErr *DownloadError
		if errors.As(err, &dlErr) {
			zap.L().Warn("Download failed, archiving by reference instead",
				zap.String("url", srcURL),
				zap.Int("status", dlErr.Status),
				zap.Int("attempts", dlErr.Attempts))

			rec.Locator = srcURL
			return nil
		}

		return err
	}

	if rec.ContentType == "" {
		rec.ContentType = ct
	}
	rec.Size = int64(len(body))

	name, err := storage.UniqueName(ctx, ing.Store, rec.Filename)
	if err != nil {
		return err
	}

	locator, err := ing.Store.Save(ctx, name, bytes.NewReader(body), rec.Size, rec.ContentType)
	if err != nil {
		return fmt.Errorf("failed to store downloaded file, %w", err)
	}

	rec.Filename = name
	rec.Locator = locator

	return nil
}

// DeleteByFilename removes archived media and fires the delete stats
// hook per removed record. For Tenor records the filename can match
// several rows because historical data predates the dedup check, all
// of them go. For downloaded records the filename is unique and the
// backing file is removed best-effort.
func (ing *Ingestor) DeleteByFilename(ctx context.Context, filename string, isTenor bool) ([]model.Media, error) {
	var matches []model.Media

	q := ing.DB.WithContext(ctx).Where("filename = ?", filename)
	if isTenor {
		q = q.Where("source = ?", model.SourceTenor)
	} else {
		q = q.Where("source != ?", model.SourceTenor)
	}

	if err := q.Find(&matches).Error; err != nil {
		return nil, fmt.Errorf("failed to look up media records, %w", err)
	}

	if len(matches) == 0 {
		return nil, ErrNotFound
	}

	for _, m := range matches {
		if !m.Remote() {
			if err := ing.Store.Remove(ctx, m.Locator); err != nil {
				zap.L().Warn("Failed to remove backing file",
					zap.String("locator", m.Locator), zap.Error(err))
			}
		}

		err := ing.DB.WithContext(ctx).Delete(model.Media{}, m.ID).Error
		if err != nil {
			return nil, fmt.Errorf("failed to delete media record, %w", err)
		}

		ing.Stats.OnDelete(&m)
	}

	return matches, nil
}

// Watermark returns the timestamp of the most recently ingested item,
// or 0 when nothing was ever processed.
func (ing *Ingestor) Watermark(ctx context.Context) (int64, error) {
	var w model.Watermark

	err := ing.DB.WithContext(ctx).Where("name = ?", model.WatermarkID).First(&w).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}

	return w.Timestamp, nil
}

// advanceWatermark moves the last-processed timestamp forward. It
// never goes backwards, concurrent ingests racing each other keep the
// highest value.
func (ing *Ingestor) advanceWatermark(ctx context.Context, ts int64) error {
	return ing.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var w model.Watermark

		err := tx.Where("name = ?", model.WatermarkID).First(&w).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return tx.Create(&model.Watermark{Name: model.WatermarkID, Timestamp: ts}).Error
		}
		if err != nil {
			return err
		}

		if ts <= w.Timestamp {
			return nil
		}

		w.Timestamp = ts
		return tx.Save(&w).Error
	})
}

func basenameOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return path.Base(rawURL)
	}

	return path.Base(u.Path)
}
