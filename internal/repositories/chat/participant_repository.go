package chat

import (
	"context"
	"time"

	"circle_backend/internal/models/chat"

	"gorm.io/gorm"
)

type ParticipantRepository struct {
	DB *gorm.DB
}

func NewParticipantRepository(db *gorm.DB) *ParticipantRepository {
	return &ParticipantRepository{DB: db}
}

// Get возвращает запись членства по паре (room, user)
func (r *ParticipantRepository) Get(ctx context.Context, roomID, userID string) (*chat.Participant, error) {
	var p chat.Participant
	err := r.DB.WithContext(ctx).
		Where("room_id = ? AND user_id = ?", roomID, userID).
		First(&p).Error
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// IsUserInRoom проверяет, состоит ли пользователь в комнате
func (r *ParticipantRepository) IsUserInRoom(ctx context.Context, roomID, userID string) (bool, error) {
	var count int64
	err := r.DB.WithContext(ctx).Model(&chat.Participant{}).
		Where("room_id = ? AND user_id = ?", roomID, userID).
		Count(&count).Error
	return count > 0, err
}

// GetParticipants возвращает всех участников комнаты
func (r *ParticipantRepository) GetParticipants(ctx context.Context, roomID string) ([]chat.Participant, error) {
	var participants []chat.Participant
	err := r.DB.WithContext(ctx).Where("room_id = ?", roomID).Find(&participants).Error
	return participants, err
}

// GetRoomIDs возвращает ID всех комнат, где состоит пользователь
// (архивированные членства не считаются живыми)
func (r *ParticipantRepository) GetRoomIDs(ctx context.Context, userID string) ([]string, error) {
	var roomIDs []string
	err := r.DB.WithContext(ctx).Model(&chat.Participant{}).
		Where("user_id = ? AND is_archived = false", userID).
		Pluck("room_id", &roomIDs).Error
	return roomIDs, err
}

// GetByUser возвращает все живые членства пользователя
func (r *ParticipantRepository) GetByUser(ctx context.Context, userID string) ([]chat.Participant, error) {
	var participants []chat.Participant
	err := r.DB.WithContext(ctx).
		Where("user_id = ? AND is_archived = false", userID).
		Find(&participants).Error
	return participants, err
}

// UpdateLastRead монотонно двигает маркер прочтения вперед.
// Запись с более ранним timestamp - no-op: условие last_read_at < ? делает
// read-modify-write атомарным на стороне БД при гонке нескольких устройств.
func (r *ParticipantRepository) UpdateLastRead(ctx context.Context, roomID, userID string, t time.Time) error {
	return r.DB.WithContext(ctx).Model(&chat.Participant{}).
		Where("room_id = ? AND user_id = ? AND last_read_at < ?", roomID, userID, t).
		Update("last_read_at", t).Error
}
