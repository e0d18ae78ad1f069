package database

import (
	"fmt"

	"circle_backend/internal/logger"
	"circle_backend/internal/models"
	chatmodels "circle_backend/internal/models/chat"

	"gorm.io/gorm"
)

// AutoMigrate создает схему chat и выполняет миграцию всех моделей.
// Уникальные индексы (idx_room_client_key, idx_message_user, idx_room_user)
// накатываются отсюда же - на них опираются идемпотентный resend и
// upsert реакций.
func AutoMigrate(db *gorm.DB) error {
	// gen_random_uuid() из pgcrypto; на PG 13+ расширение уже встроено,
	// но IF NOT EXISTS делает вызов безопасным в обоих случаях
	if err := db.Exec("CREATE EXTENSION IF NOT EXISTS pgcrypto").Error; err != nil {
		return fmt.Errorf("failed to create pgcrypto extension: %w", err)
	}

	if err := db.Exec("CREATE SCHEMA IF NOT EXISTS chat").Error; err != nil {
		return fmt.Errorf("failed to create chat schema: %w", err)
	}

	err := db.AutoMigrate(
		&models.User{},
		// chat модуль
		&chatmodels.Room{},
		&chatmodels.Participant{},
		&chatmodels.Message{},
		&chatmodels.Attachment{},
		&chatmodels.Reaction{},
	)
	if err != nil {
		return fmt.Errorf("auto migrate failed: %w", err)
	}

	logger.Info("AutoMigrate completed")
	return nil
}
