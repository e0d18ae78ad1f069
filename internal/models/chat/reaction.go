package chat

import "time"

// Reaction - не более одной реакции на пару (message, user), upsert-семантика.
type Reaction struct {
	ID        string `gorm:"primaryKey;type:uuid;default:gen_random_uuid()"`
	MessageID string `gorm:"index:idx_message_user,unique;not null"`
	UserID    string `gorm:"index:idx_message_user,unique;not null"`
	Emoji     string `gorm:"type:varchar(16);not null"`
	CreatedAt time.Time
}

func (Reaction) TableName() string {
	return "chat.reactions"
}
