package chat

import "time"

type ParticipantRole string

const (
	ParticipantRoleMember ParticipantRole = "member"
	ParticipantRoleAdmin  ParticipantRole = "admin"
)

// Participant - членство пользователя в комнате.
// LastReadAt - единственное поле, которое мутирует ядро (монотонно).
type Participant struct {
	ID         string          `gorm:"primaryKey;type:uuid;default:gen_random_uuid()"`
	RoomID     string          `gorm:"index:idx_room_user,unique;not null"`
	UserID     string          `gorm:"index:idx_room_user,unique;not null"`
	Role       ParticipantRole `gorm:"type:varchar(20);default:'member'"`
	LastReadAt time.Time
	IsArchived bool `gorm:"default:false"`
	JoinedAt   time.Time
}

func (Participant) TableName() string {
	return "chat.participants"
}

func (p *Participant) IsAdmin() bool {
	return p.Role == ParticipantRoleAdmin
}
