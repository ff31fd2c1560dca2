package model

// CommandPost links a bot-authored message back to the command that
// posted it. The untag command needs this to figure out which tag a
// reply target was selected by.
type CommandPost struct {
	MessageID string `gorm:"primaryKey"`
	Command   string
	MediaID   uint `gorm:"index"`
	Tag       string
	CreatedAt int64 `gorm:"not null"` // Unix millisecond timestamp
}
