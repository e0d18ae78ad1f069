package chat

import (
	"context"

	"circle_backend/internal/models/chat"

	"gorm.io/gorm"
)

type AttachmentRepository struct {
	DB *gorm.DB
}

func NewAttachmentRepository(db *gorm.DB) *AttachmentRepository {
	return &AttachmentRepository{DB: db}
}

// Create сохраняет строку метаданных вложения
func (r *AttachmentRepository) Create(ctx context.Context, attachment *chat.Attachment) error {
	return r.DB.WithContext(ctx).Create(attachment).Error
}

// GetByID получает одно вложение по ID
func (r *AttachmentRepository) GetByID(ctx context.Context, id string) (*chat.Attachment, error) {
	var attachment chat.Attachment
	err := r.DB.WithContext(ctx).First(&attachment, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &attachment, nil
}

// GetByMessageID возвращает вложения по сообщению
func (r *AttachmentRepository) GetByMessageID(ctx context.Context, messageID string) ([]chat.Attachment, error) {
	var attachments []chat.Attachment
	err := r.DB.WithContext(ctx).Where("message_id = ?", messageID).Find(&attachments).Error
	return attachments, err
}

// DeleteByID удаляет строку метаданных. Вызывается только после того,
// как blob уже удален (или подтверждено его отсутствие).
func (r *AttachmentRepository) DeleteByID(ctx context.Context, id string) error {
	return r.DB.WithContext(ctx).Where("id = ?", id).Delete(&chat.Attachment{}).Error
}
