package model

// WatermarkID is the key of the single ingestion watermark row.
const WatermarkID = "last_processed"

// Watermark stores the timestamp of the most recently ingested item.
// Only ever moves forward, a resumed backfill uses it to skip what was
// already processed.
type Watermark struct {
	Name      string `gorm:"primaryKey"`
	Timestamp int64  // Unix millisecond timestamp
}
