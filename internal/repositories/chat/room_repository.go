package chat

import (
	"context"
	"errors"

	"circle_backend/internal/models/chat"

	"gorm.io/gorm"
)

type RoomRepository struct {
	DB *gorm.DB
}

func NewRoomRepository(db *gorm.DB) *RoomRepository {
	return &RoomRepository{DB: db}
}

// GetByID возвращает комнату по ID
func (r *RoomRepository) GetByID(ctx context.Context, id string) (*chat.Room, error) {
	var room chat.Room
	err := r.DB.WithContext(ctx).First(&room, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &room, nil
}

// Exists проверяет, существует ли активная комната
func (r *RoomRepository) Exists(ctx context.Context, id string) (bool, error) {
	var count int64
	err := r.DB.WithContext(ctx).Model(&chat.Room{}).
		Where("id = ? AND is_active = true", id).
		Count(&count).Error
	return count > 0, err
}

// IsNotFound сообщает, что запись не найдена
func IsNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
