// Package model defines database models
package model

// SourceKind tells us where a media record came from. It decides the
// delete strategy and whether the filename dedup check applies.
type SourceKind string

const (
	// SourceAttachment is a file uploaded directly to the platform
	// and downloaded into our own storage.
	SourceAttachment SourceKind = "attachment"

	// SourceURL is a plain image link pasted into the channel,
	// downloaded into our own storage like an attachment.
	SourceURL SourceKind = "url"

	// SourceTenor is a Tenor share. The content stays on Tenor and we
	// only keep the remote URL, so these never hit local storage.
	SourceTenor SourceKind = "tenor"
)

// ReactTag is the only tag with an automated lifecycle. It's added and
// removed by zap reaction events, every other tag is removed only by
// an explicit user command.
const ReactTag = "react"

type Media struct {
	ID uint `gorm:"primaryKey;autoIncrement" json:"id"`

	// Locator is either a storage key/path (downloaded content) or the
	// original remote URL (Tenor, or downloads that failed and fell
	// back to the source link)
	Locator  string `json:"locator"`
	Filename string `gorm:"index" json:"filename"`

	Size        int64  `json:"size"`
	ContentType string `json:"content_type"`
	Width       int    `json:"width"`
	Height      int    `json:"height"`

	AuthorID          string `gorm:"index" json:"-"`
	AuthorUsername    string `json:"author_username"`
	AuthorDisplayName string `json:"author_display_name"`

	// Provenance pointers back into the chat platform. MessageID is
	// what reaction events correlate on
	MessageID   string `gorm:"index" json:"message_id"`
	MessageLink string `json:"message_link"`

	Source SourceKind  `gorm:"index" json:"source"`
	Tags   StringSlice `json:"tags"`

	CreatedAt int64 `gorm:"not null" json:"created_at"` // Unix millisecond timestamp
}

// Remote reports whether the record's content lives outside our own
// storage, meaning there is no backing file to delete.
func (m *Media) Remote() bool {
	return m.Source == SourceTenor || hasURLScheme(m.Locator)
}

func hasURLScheme(s string) bool {
	return len(s) > 8 && (s[:7] == "http://" || s[:8] == "https://")
}
