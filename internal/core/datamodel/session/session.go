package session

import "time"

// Entry is one persisted key of a browser session.
type Entry struct {
	SessionID string    `gorm:"column:session_id;primaryKey;size:64"`
	Key       string    `gorm:"column:key;primaryKey;size:32"`
	Value     string    `gorm:"column:value;not null"`
	ExpiresAt time.Time `gorm:"column:expires_at;not null;index"`
	CreatedAt time.Time `gorm:"column:created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at"`
}

func (Entry) TableName() string {
	return "session_entries"
}
