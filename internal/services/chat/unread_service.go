package chat

import (
	"context"
	"time"

	"circle_backend/internal/appErrors"
	modelChat "circle_backend/internal/models/chat"
	repoChat "circle_backend/internal/repositories/chat"
)

// UnreadMessageStore - счетчик непрочитанного поверх хранилища сообщений
type UnreadMessageStore interface {
	CountUnread(ctx context.Context, roomID, userID string, lastReadAt time.Time) (int64, error)
}

// UnreadParticipantStore - чтение маркеров прочтения
type UnreadParticipantStore interface {
	Get(ctx context.Context, roomID, userID string) (*modelChat.Participant, error)
	GetByUser(ctx context.Context, userID string) ([]modelChat.Participant, error)
}

// UnreadService - чистая производная от хранилища: никакого собственного
// состояния, пересчет на каждый запрос, никакого кэширования
type UnreadService struct {
	Participants UnreadParticipantStore
	Messages     UnreadMessageStore
}

func NewUnreadService(participants UnreadParticipantStore, messages UnreadMessageStore) *UnreadService {
	return &UnreadService{
		Participants: participants,
		Messages:     messages,
	}
}

// Count возвращает число сообщений новее маркера прочтения,
// не считая собственных и удаленных
func (s *UnreadService) Count(ctx context.Context, roomID, userID string) (int64, error) {
	participant, err := s.Participants.Get(ctx, roomID, userID)
	if err != nil {
		if repoChat.IsNotFound(err) {
			return 0, appErrors.ErrParticipantNotFound
		}
		return 0, err
	}

	return s.Messages.CountUnread(ctx, roomID, userID, participant.LastReadAt)
}

// Summary агрегирует счетчики по всем комнатам пользователя
// (для бейджей/нотификаций)
func (s *UnreadService) Summary(ctx context.Context, userID string) (map[string]int64, error) {
	participants, err := s.Participants.GetByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	summary := make(map[string]int64, len(participants))
	for _, p := range participants {
		count, err := s.Messages.CountUnread(ctx, p.RoomID, userID, p.LastReadAt)
		if err != nil {
			return nil, err
		}
		summary[p.RoomID] = count
	}

	return summary, nil
}
