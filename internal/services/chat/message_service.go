package chat

import (
	"context"
	"time"

	"circle_backend/internal/appErrors"
	modelChat "circle_backend/internal/models/chat"
	repoChat "circle_backend/internal/repositories/chat"

	"github.com/google/uuid"
)

const defaultSearchLimit = 50

// RoomStore - доступ ядра к комнатам (только чтение)
type RoomStore interface {
	GetByID(ctx context.Context, id string) (*modelChat.Room, error)
	Exists(ctx context.Context, id string) (bool, error)
}

// ParticipantStore - доступ к членствам
type ParticipantStore interface {
	Get(ctx context.Context, roomID, userID string) (*modelChat.Participant, error)
	IsUserInRoom(ctx context.Context, roomID, userID string) (bool, error)
}

// MessageStore - durable-хранилище сообщений
type MessageStore interface {
	Create(ctx context.Context, message *modelChat.Message) error
	GetByID(ctx context.Context, id string) (*modelChat.Message, error)
	GetByClientKey(ctx context.Context, roomID, clientKey string) (*modelChat.Message, error)
	GetByRoom(ctx context.Context, roomID string, before time.Time, limit int) ([]modelChat.Message, error)
	Search(ctx context.Context, roomID, queryText string, limit int) ([]modelChat.Message, error)
	SoftDelete(ctx context.Context, id string, at time.Time) error
	GetRoomStats(ctx context.Context, roomID string) (*repoChat.RoomStats, error)
}

type MessageService struct {
	Rooms        RoomStore
	Participants ParticipantStore
	Messages     MessageStore
}

func NewMessageService(rooms RoomStore, participants ParticipantStore, messages MessageStore) *MessageService {
	return &MessageService{
		Rooms:        rooms,
		Participants: participants,
		Messages:     messages,
	}
}

type SendMessageInput struct {
	RoomID    string                `json:"room_id"`
	SenderID  string                `json:"-"`
	Content   string                `json:"content"`
	Type      modelChat.MessageType `json:"type"`
	ClientKey *string               `json:"client_key,omitempty"`
}

// Send персистит сообщение. Вещание по комнате - отдельный шаг вызывающего:
// если здесь вернулась ошибка, подписчики не должны увидеть ничего.
func (s *MessageService) Send(ctx context.Context, input SendMessageInput) (*modelChat.Message, error) {
	exists, err := s.Rooms.Exists(ctx, input.RoomID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, appErrors.ErrRoomNotFound
	}

	isMember, err := s.Participants.IsUserInRoom(ctx, input.RoomID, input.SenderID)
	if err != nil {
		return nil, err
	}
	if !isMember {
		return nil, appErrors.ErrSenderNotParticipant
	}

	msgType := input.Type
	if msgType == "" {
		msgType = modelChat.MessageTypeText
	}

	// Идемпотентный resend: тот же client_key возвращает уже сохраненную строку
	if input.ClientKey != nil && *input.ClientKey != "" {
		existing, err := s.Messages.GetByClientKey(ctx, input.RoomID, *input.ClientKey)
		if err == nil {
			return existing, nil
		}
		if !repoChat.IsNotFound(err) {
			return nil, err
		}
	}

	message := &modelChat.Message{
		ID:        uuid.New().String(),
		RoomID:    input.RoomID,
		SenderID:  input.SenderID,
		Type:      msgType,
		Content:   input.Content,
		ClientKey: input.ClientKey,
		CreatedAt: time.Now().UTC(),
	}

	if err := s.Messages.Create(ctx, message); err != nil {
		return nil, err
	}

	return message, nil
}

// History возвращает страницу истории комнаты, новые первыми
func (s *MessageService) History(ctx context.Context, roomID, callerID string, before time.Time, limit int) ([]modelChat.Message, error) {
	if err := s.requireMembership(ctx, roomID, callerID); err != nil {
		return nil, err
	}

	if limit <= 0 || limit > defaultSearchLimit {
		limit = defaultSearchLimit
	}

	return s.Messages.GetByRoom(ctx, roomID, before, limit)
}

// Search ищет по подстроке в неудаленных сообщениях комнаты
func (s *MessageService) Search(ctx context.Context, roomID, queryText, callerID string, limit int) ([]modelChat.Message, error) {
	if err := s.requireMembership(ctx, roomID, callerID); err != nil {
		return nil, err
	}

	if limit <= 0 || limit > defaultSearchLimit {
		limit = defaultSearchLimit
	}

	return s.Messages.Search(ctx, roomID, queryText, limit)
}

// Delete проставляет soft-delete маркер. Разрешено отправителю и админу комнаты.
func (s *MessageService) Delete(ctx context.Context, messageID, callerID string) error {
	msg, err := s.Messages.GetByID(ctx, messageID)
	if err != nil {
		if repoChat.IsNotFound(err) {
			return appErrors.ErrMessageNotFound
		}
		return err
	}
	if msg.IsDeleted() {
		return appErrors.ErrMessageNotFound
	}

	if msg.SenderID != callerID {
		participant, err := s.Participants.Get(ctx, msg.RoomID, callerID)
		if err != nil {
			if repoChat.IsNotFound(err) {
				return appErrors.ErrAccessDenied
			}
			return err
		}
		if !participant.IsAdmin() {
			return appErrors.ErrAccessDenied
		}
	}

	return s.Messages.SoftDelete(ctx, messageID, time.Now().UTC())
}

// Get возвращает сообщение с проверкой членства вызывающего
func (s *MessageService) Get(ctx context.Context, messageID, callerID string) (*modelChat.Message, error) {
	msg, err := s.Messages.GetByID(ctx, messageID)
	if err != nil {
		if repoChat.IsNotFound(err) {
			return nil, appErrors.ErrMessageNotFound
		}
		return nil, err
	}

	if err := s.requireMembership(ctx, msg.RoomID, callerID); err != nil {
		return nil, err
	}

	return msg, nil
}

// Stats возвращает статистику комнаты (количество, время последнего)
func (s *MessageService) Stats(ctx context.Context, roomID, callerID string) (*repoChat.RoomStats, error) {
	if err := s.requireMembership(ctx, roomID, callerID); err != nil {
		return nil, err
	}
	return s.Messages.GetRoomStats(ctx, roomID)
}

func (s *MessageService) requireMembership(ctx context.Context, roomID, userID string) error {
	isMember, err := s.Participants.IsUserInRoom(ctx, roomID, userID)
	if err != nil {
		return err
	}
	if !isMember {
		return appErrors.ErrAccessDenied
	}
	return nil
}
