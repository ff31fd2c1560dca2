package model

// UserStats is the per-user lifetime counter document. Owned by the
// stats aggregator, nothing else writes to it.
type UserStats struct {
	UserID      string `gorm:"primaryKey" json:"user_id"`
	Username    string `json:"username"`
	DisplayName string `json:"display_name"`

	UploadCount int64 `gorm:"index" json:"upload_count"`
	TotalSize   int64 `gorm:"index" json:"total_size"`
	AvgSize     int64 `json:"avg_size"` // totalSize/uploadCount, floored

	FirstUpload int64 `json:"first_upload"` // Unix millisecond timestamps
	LastUpload  int64 `json:"last_upload"`

	// ContentTypes maps a content type label to the number of uploads
	// carrying it. Buckets are removed once they drop to zero, never
	// left behind at 0
	ContentTypes CountMap `gorm:"type:text" json:"content_types"`

	Migrated    bool  `gorm:"column:migrated_from_existing" json:"-"`
	LastUpdated int64 `json:"last_updated"`
}

// ServerStatsID is the key of the single global stats row.
const ServerStatsID = "global"

// ServerStats is the server-wide rollup. Refreshed by the debounced
// recompute from user_stats, never maintained incrementally.
type ServerStats struct {
	ID               string   `gorm:"primaryKey" json:"-"`
	TotalUsers       int64    `json:"total_users"`
	TotalImages      int64    `json:"total_images"`
	AvgImagesPerUser int64    `json:"avg_images_per_user"`
	MedianUploads    int64    `json:"median_uploads"`
	ContentTypes     CountMap `gorm:"type:text" json:"content_types"`
	Migrated         bool     `gorm:"column:migrated_from_existing" json:"-"`
	LastUpdated      int64    `json:"last_updated"`
}
