package chat

import (
	"time"

	"gorm.io/datatypes"
)

type RoomKind string

const (
	RoomKindDirect RoomKind = "direct"
	RoomKindGroup  RoomKind = "group"
)

type Room struct {
	ID        string   `gorm:"primaryKey;type:uuid;default:gen_random_uuid()"`
	Kind      RoomKind `gorm:"type:varchar(20);default:'group'"`
	Name      string
	ImageURL  *string
	Settings  datatypes.JSONMap `gorm:"type:jsonb"`
	IsActive  bool              `gorm:"default:true"`
	CreatedAt time.Time
	UpdatedAt time.Time

	Participants []Participant `gorm:"foreignKey:RoomID"`
}

func (Room) TableName() string {
	return "chat.rooms"
}

// AllowsAttachments читает feature-флаг из настроек комнаты.
// Отсутствие флага трактуется как "разрешено".
func (r *Room) AllowsAttachments() bool {
	if r.Settings == nil {
		return true
	}
	v, ok := r.Settings["attachments_allowed"]
	if !ok {
		return true
	}
	allowed, ok := v.(bool)
	return !ok || allowed
}
