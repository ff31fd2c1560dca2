package model

// WeeklyUserEntry is one user's slice of a weekly bucket. Entries are
// deleted entirely when their uploadCount returns to zero.
type WeeklyUserEntry struct {
	UploadCount int64 `json:"upload_count"`
	TotalSize   int64 `json:"total_size"`
	LastUpdated int64 `json:"last_updated"`
}

// WeeklyStats is one ISO week bucket, keyed "YYYY-Www". Week
// boundaries (UTC Monday 00:00:00) are recomputable from the key and
// not stored.
type WeeklyStats struct {
	WeekID  string        `gorm:"primaryKey" json:"week_id"`
	PerUser WeeklyUserMap `gorm:"type:text" json:"per_user"`

	TotalUploads int64 `json:"total_uploads"`

	// TotalUsers always equals len(PerUser). It is recomputed from the
	// map on every mutation rather than trusted incrementally, the
	// delete path makes incremental counts drift
	TotalUsers  int64 `json:"total_users"`
	LastUpdated int64 `json:"last_updated"`
}
