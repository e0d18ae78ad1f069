package chat

import (
	"context"
	"time"

	"circle_backend/internal/models/chat"

	"gorm.io/gorm"
)

type MessageRepository struct {
	DB *gorm.DB
}

func NewMessageRepository(db *gorm.DB) *MessageRepository {
	return &MessageRepository{DB: db}
}

// Create сохраняет новое сообщение
func (r *MessageRepository) Create(ctx context.Context, message *chat.Message) error {
	return r.DB.WithContext(ctx).Create(message).Error
}

// GetByID возвращает одно сообщение по ID
func (r *MessageRepository) GetByID(ctx context.Context, id string) (*chat.Message, error) {
	var msg chat.Message
	err := r.DB.WithContext(ctx).
		Preload("Reactions").Preload("Attachments").
		First(&msg, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &msg, nil
}

// GetByClientKey возвращает сообщение по идемпотентному ключу клиента
func (r *MessageRepository) GetByClientKey(ctx context.Context, roomID, clientKey string) (*chat.Message, error) {
	var msg chat.Message
	err := r.DB.WithContext(ctx).
		Where("room_id = ? AND client_key = ?", roomID, clientKey).
		First(&msg).Error
	if err != nil {
		return nil, err
	}
	return &msg, nil
}

// GetByRoom возвращает страницу истории комнаты (новые первыми).
// before == zero time означает "с самого свежего".
func (r *MessageRepository) GetByRoom(ctx context.Context, roomID string, before time.Time, limit int) ([]chat.Message, error) {
	query := r.DB.WithContext(ctx).
		Where("room_id = ? AND deleted_at IS NULL", roomID).
		Order("created_at DESC").
		Limit(limit).
		Preload("Reactions").Preload("Attachments")

	if !before.IsZero() {
		query = query.Where("created_at < ?", before)
	}

	var messages []chat.Message
	err := query.Find(&messages).Error
	return messages, err
}

// Search выполняет регистронезависимый substring-поиск по неудаленным
// сообщениям комнаты, новые первыми
func (r *MessageRepository) Search(ctx context.Context, roomID, queryText string, limit int) ([]chat.Message, error) {
	var messages []chat.Message
	err := r.DB.WithContext(ctx).
		Where("room_id = ? AND deleted_at IS NULL AND content ILIKE ?", roomID, "%"+queryText+"%").
		Order("created_at DESC").
		Limit(limit).
		Find(&messages).Error
	return messages, err
}

// SoftDelete проставляет маркер удаления, строка остается
func (r *MessageRepository) SoftDelete(ctx context.Context, id string, at time.Time) error {
	return r.DB.WithContext(ctx).Model(&chat.Message{}).
		Where("id = ? AND deleted_at IS NULL", id).
		Update("deleted_at", at).Error
}

// CountUnread считает сообщения новее маркера, чужие и неудаленные
func (r *MessageRepository) CountUnread(ctx context.Context, roomID, userID string, lastReadAt time.Time) (int64, error) {
	var count int64
	err := r.DB.WithContext(ctx).Model(&chat.Message{}).
		Where("room_id = ? AND created_at > ? AND sender_id != ? AND deleted_at IS NULL",
			roomID, lastReadAt, userID).
		Count(&count).Error
	return count, err
}

// RoomStats - статистика комнаты для request/response поверхности
type RoomStats struct {
	MessageCount  int64      `json:"message_count"`
	LastMessageAt *time.Time `json:"last_message_at"`
}

// GetRoomStats возвращает количество сообщений и время последнего
func (r *MessageRepository) GetRoomStats(ctx context.Context, roomID string) (*RoomStats, error) {
	var stats RoomStats
	err := r.DB.WithContext(ctx).Model(&chat.Message{}).
		Where("room_id = ? AND deleted_at IS NULL", roomID).
		Count(&stats.MessageCount).Error
	if err != nil {
		return nil, err
	}

	if stats.MessageCount > 0 {
		var last chat.Message
		err = r.DB.WithContext(ctx).
			Where("room_id = ? AND deleted_at IS NULL", roomID).
			Order("created_at DESC").Limit(1).
			First(&last).Error
		if err != nil && !IsNotFound(err) {
			return nil, err
		}
		if err == nil {
			stats.LastMessageAt = &last.CreatedAt
		}
	}

	return &stats, nil
}
