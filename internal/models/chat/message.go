package chat

import "time"

type MessageType string

const (
	MessageTypeText     MessageType = "text"
	MessageTypeSystem   MessageType = "system"
	MessageTypeSafety   MessageType = "safety_alert"
	MessageTypeLocation MessageType = "location"
)

// Message неизменяемо после создания, кроме маркера soft-delete.
// Физически строки не удаляются никогда.
type Message struct {
	ID        string      `gorm:"primaryKey;type:uuid;default:gen_random_uuid()"`
	RoomID    string      `gorm:"index;index:idx_room_client_key,unique;not null"`
	SenderID  string      `gorm:"index;not null"`
	Type      MessageType `gorm:"type:varchar(20);default:'text'"`
	Content   string      `gorm:"type:text"`
	ClientKey *string     `gorm:"index:idx_room_client_key,unique"` // идемпотентный resend
	DeletedAt *time.Time
	CreatedAt time.Time `gorm:"index"`

	Reactions   []Reaction   `gorm:"foreignKey:MessageID"`
	Attachments []Attachment `gorm:"foreignKey:MessageID"`
}

func (Message) TableName() string {
	return "chat.messages"
}

func (m *Message) IsDeleted() bool {
	return m.DeletedAt != nil
}
