package chat

import (
	"context"
	"time"

	"circle_backend/internal/appErrors"
	modelChat "circle_backend/internal/models/chat"
	repoChat "circle_backend/internal/repositories/chat"

	"github.com/google/uuid"
)

// ReactionStore - хранилище реакций с upsert-семантикой
type ReactionStore interface {
	Upsert(ctx context.Context, reaction *modelChat.Reaction) error
	Remove(ctx context.Context, messageID, userID string) error
	GetByMessageID(ctx context.Context, messageID string) ([]modelChat.Reaction, error)
}

type ReactionService struct {
	Participants ParticipantStore
	Messages     MessageStore
	Reactions    ReactionStore
}

func NewReactionService(participants ParticipantStore, messages MessageStore, reactions ReactionStore) *ReactionService {
	return &ReactionService{
		Participants: participants,
		Messages:     messages,
		Reactions:    reactions,
	}
}

// React ставит реакцию (не более одной на пару message+user, повторная
// заменяет emoji). Возвращает сообщение вместе с реакцией, чтобы
// вызывающий знал, в какую комнату ее транслировать.
func (s *ReactionService) React(ctx context.Context, messageID, userID, emoji string) (*modelChat.Reaction, *modelChat.Message, error) {
	msg, err := s.Messages.GetByID(ctx, messageID)
	if err != nil {
		if repoChat.IsNotFound(err) {
			return nil, nil, appErrors.ErrMessageNotFound
		}
		return nil, nil, err
	}
	if msg.IsDeleted() {
		return nil, nil, appErrors.ErrMessageNotFound
	}

	isMember, err := s.Participants.IsUserInRoom(ctx, msg.RoomID, userID)
	if err != nil {
		return nil, nil, err
	}
	if !isMember {
		return nil, nil, appErrors.ErrAccessDenied
	}

	reaction := &modelChat.Reaction{
		ID:        uuid.New().String(),
		MessageID: messageID,
		UserID:    userID,
		Emoji:     emoji,
		CreatedAt: time.Now().UTC(),
	}

	if err := s.Reactions.Upsert(ctx, reaction); err != nil {
		return nil, nil, err
	}

	return reaction, msg, nil
}

// Unreact снимает реакцию пользователя с сообщения
func (s *ReactionService) Unreact(ctx context.Context, messageID, userID string) error {
	msg, err := s.Messages.GetByID(ctx, messageID)
	if err != nil {
		if repoChat.IsNotFound(err) {
			return appErrors.ErrMessageNotFound
		}
		return err
	}

	isMember, err := s.Participants.IsUserInRoom(ctx, msg.RoomID, userID)
	if err != nil {
		return err
	}
	if !isMember {
		return appErrors.ErrAccessDenied
	}

	return s.Reactions.Remove(ctx, messageID, userID)
}

// List возвращает реакции на сообщение
func (s *ReactionService) List(ctx context.Context, messageID, callerID string) ([]modelChat.Reaction, error) {
	msg, err := s.Messages.GetByID(ctx, messageID)
	if err != nil {
		if repoChat.IsNotFound(err) {
			return nil, appErrors.ErrMessageNotFound
		}
		return nil, err
	}

	isMember, err := s.Participants.IsUserInRoom(ctx, msg.RoomID, callerID)
	if err != nil {
		return nil, err
	}
	if !isMember {
		return nil, appErrors.ErrAccessDenied
	}

	return s.Reactions.GetByMessageID(ctx, msg.ID)
}
