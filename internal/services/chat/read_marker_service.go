package chat

import (
	"context"
	"time"

	"circle_backend/internal/appErrors"
	repoChat "circle_backend/internal/repositories/chat"
)

// ReadMarkerStore - запись маркера прочтения.
// Реализация обязана быть монотонной и атомарной (UPDATE ... WHERE last_read_at < ?).
type ReadMarkerStore interface {
	IsUserInRoom(ctx context.Context, roomID, userID string) (bool, error)
	UpdateLastRead(ctx context.Context, roomID, userID string, t time.Time) error
}

type ReadMarkerService struct {
	Participants ReadMarkerStore
	Messages     MessageStore
}

func NewReadMarkerService(participants ReadMarkerStore, messages MessageStore) *ReadMarkerService {
	return &ReadMarkerService{
		Participants: participants,
		Messages:     messages,
	}
}

// MarkRead двигает маркер прочтения к указанному времени.
// Вызов с более ранним временем - no-op (монотонность держит хранилище).
func (s *ReadMarkerService) MarkRead(ctx context.Context, roomID, userID string, at time.Time) error {
	isMember, err := s.Participants.IsUserInRoom(ctx, roomID, userID)
	if err != nil {
		return err
	}
	if !isMember {
		return appErrors.ErrAccessDenied
	}

	if at.IsZero() {
		at = time.Now().UTC()
	}

	return s.Participants.UpdateLastRead(ctx, roomID, userID, at)
}

// MarkReadAtMessage резолвит "прочитано до сообщения" в его created_at
func (s *ReadMarkerService) MarkReadAtMessage(ctx context.Context, roomID, userID, messageID string) error {
	msg, err := s.Messages.GetByID(ctx, messageID)
	if err != nil {
		if repoChat.IsNotFound(err) {
			return appErrors.ErrMessageNotFound
		}
		return err
	}
	if msg.RoomID != roomID {
		return appErrors.ErrMessageNotFound
	}

	return s.MarkRead(ctx, roomID, userID, msg.CreatedAt)
}
