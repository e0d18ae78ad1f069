package chat

import (
	"context"

	"circle_backend/internal/models/chat"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ReactionRepository struct {
	DB *gorm.DB
}

func NewReactionRepository(db *gorm.DB) *ReactionRepository {
	return &ReactionRepository{DB: db}
}

// Upsert ставит реакцию; повторная реакция того же пользователя
// на то же сообщение заменяет emoji (не более одной на пару message+user)
func (r *ReactionRepository) Upsert(ctx context.Context, reaction *chat.Reaction) error {
	return r.DB.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "message_id"}, {Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"emoji", "created_at"}),
	}).Create(reaction).Error
}

// Remove удаляет реакцию пользователя на сообщение
func (r *ReactionRepository) Remove(ctx context.Context, messageID, userID string) error {
	return r.DB.WithContext(ctx).
		Where("message_id = ? AND user_id = ?", messageID, userID).
		Delete(&chat.Reaction{}).Error
}

// GetByMessageID возвращает все реакции на сообщение
func (r *ReactionRepository) GetByMessageID(ctx context.Context, messageID string) ([]chat.Reaction, error) {
	var reactions []chat.Reaction
	err := r.DB.WithContext(ctx).Where("message_id = ?", messageID).Find(&reactions).Error
	return reactions, err
}
