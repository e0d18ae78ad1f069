package chat

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"circle_backend/internal/appErrors"
	"circle_backend/internal/logger"
	modelChat "circle_backend/internal/models/chat"
	repoChat "circle_backend/internal/repositories/chat"
	"circle_backend/internal/storage"

	"github.com/google/uuid"
)

// AttachmentStore - строки метаданных вложений
type AttachmentStore interface {
	Create(ctx context.Context, attachment *modelChat.Attachment) error
	GetByID(ctx context.Context, id string) (*modelChat.Attachment, error)
	GetByMessageID(ctx context.Context, messageID string) ([]modelChat.Attachment, error)
	DeleteByID(ctx context.Context, id string) error
}

// AttachmentService оркестрирует blob-хранилище и строки метаданных.
// Инвариант: строка метаданных никогда не указывает на удаленный blob,
// поэтому порядок всегда blob-сначала при удалении и blob-сначала с
// компенсацией при загрузке.
type AttachmentService struct {
	Rooms        RoomStore
	Participants ParticipantStore
	Messages     MessageStore
	Attachments  AttachmentStore
	Blobs        storage.Storage
	MaxSize      int64
	AllowedTypes []string // пустой список - любой MIME-тип
}

func NewAttachmentService(
	rooms RoomStore,
	participants ParticipantStore,
	messages MessageStore,
	attachments AttachmentStore,
	blobs storage.Storage,
	maxSize int64,
	allowedTypes []string,
) *AttachmentService {
	return &AttachmentService{
		Rooms:        rooms,
		Participants: participants,
		Messages:     messages,
		Attachments:  attachments,
		Blobs:        blobs,
		MaxSize:      maxSize,
		AllowedTypes: allowedTypes,
	}
}

type UploadInput struct {
	MessageID string
	CallerID  string
	Reader    io.Reader
	Size      int64
	FileName  string
	MimeType  string
}

// Upload сохраняет blob и затем строку метаданных.
// Проверка размера идет до какой-либо записи: слишком большой файл
// не оставляет следов ни в blob-хранилище, ни в БД.
func (s *AttachmentService) Upload(ctx context.Context, input UploadInput) (*modelChat.Attachment, error) {
	if input.Size > s.MaxSize {
		return nil, appErrors.ErrPayloadTooLarge.WithDetails(map[string]int64{
			"size":     input.Size,
			"max_size": s.MaxSize,
		})
	}

	if !s.mimeAllowed(input.MimeType) {
		return nil, appErrors.ErrUnsupportedMedia.WithDetails(map[string]any{
			"mime_type": input.MimeType,
			"allowed":   s.AllowedTypes,
		})
	}

	msg, err := s.Messages.GetByID(ctx, input.MessageID)
	if err != nil {
		if repoChat.IsNotFound(err) {
			return nil, appErrors.ErrMessageNotFound
		}
		return nil, err
	}

	isMember, err := s.Participants.IsUserInRoom(ctx, msg.RoomID, input.CallerID)
	if err != nil {
		return nil, err
	}
	if !isMember {
		return nil, appErrors.ErrAccessDenied
	}

	room, err := s.Rooms.GetByID(ctx, msg.RoomID)
	if err != nil {
		if repoChat.IsNotFound(err) {
			return nil, appErrors.ErrRoomNotFound
		}
		return nil, err
	}
	if !room.AllowsAttachments() {
		return nil, appErrors.ErrAttachmentsDisabled
	}

	id := uuid.New().String()
	key := fmt.Sprintf("attachments/%s/%s", msg.RoomID, id)

	if err := s.Blobs.Save(ctx, key, input.Reader, input.MimeType); err != nil {
		return nil, appErrors.ExternalServiceError(err)
	}

	url, err := s.Blobs.GetURL(ctx, key)
	if err != nil {
		s.compensateBlob(key)
		return nil, appErrors.ExternalServiceError(err)
	}

	attachment := &modelChat.Attachment{
		ID:         id,
		MessageID:  input.MessageID,
		UploaderID: input.CallerID,
		FileName:   input.FileName,
		URL:        url,
		StorageKey: key,
		Category:   modelChat.DetectCategory(input.MimeType),
		MimeType:   input.MimeType,
		Size:       input.Size,
		CreatedAt:  time.Now().UTC(),
	}

	if err := s.Attachments.Create(ctx, attachment); err != nil {
		// Метаданные не записались - blob осиротел, убираем его
		s.compensateBlob(key)
		return nil, err
	}

	return attachment, nil
}

// Get возвращает вложение с проверкой членства вызывающего
func (s *AttachmentService) Get(ctx context.Context, attachmentID, callerID string) (*modelChat.Attachment, error) {
	attachment, err := s.Attachments.GetByID(ctx, attachmentID)
	if err != nil {
		if repoChat.IsNotFound(err) {
			return nil, appErrors.ErrAttachmentNotFound
		}
		return nil, err
	}

	msg, err := s.Messages.GetByID(ctx, attachment.MessageID)
	if err != nil {
		return nil, err
	}

	isMember, err := s.Participants.IsUserInRoom(ctx, msg.RoomID, callerID)
	if err != nil {
		return nil, err
	}
	if !isMember {
		return nil, appErrors.ErrAccessDenied
	}

	return attachment, nil
}

// Delete удаляет blob, затем строку метаданных. Отсутствующий blob
// не мешает удалению строки; любая другая ошибка blob-хранилища
// оставляет строку на месте и всплывает наружу.
func (s *AttachmentService) Delete(ctx context.Context, attachmentID, callerID string) error {
	attachment, err := s.Attachments.GetByID(ctx, attachmentID)
	if err != nil {
		if repoChat.IsNotFound(err) {
			return appErrors.ErrAttachmentNotFound
		}
		return err
	}

	if attachment.UploaderID != callerID {
		msg, err := s.Messages.GetByID(ctx, attachment.MessageID)
		if err != nil {
			return err
		}
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

	if err := s.Blobs.Delete(ctx, attachment.StorageKey); err != nil && !appErrors.Is(err, storage.ErrNotFound) {
		return appErrors.ExternalServiceError(err)
	}

	if err := s.Attachments.DeleteByID(ctx, attachmentID); err != nil {
		// Blob уже удален, а строка осталась - рассинхрон для
		// внеполосной выверки, автоматических ретраев нет
		logger.Warn("attachment metadata delete failed after blob delete",
			"attachment_id", attachmentID,
			"storage_key", attachment.StorageKey,
			"error", err.Error(),
		)
		return err
	}

	return nil
}

// mimeAllowed сверяет MIME-тип со списком из конфига.
// Запись вида "image/*" разрешает все подтипы.
func (s *AttachmentService) mimeAllowed(mimeType string) bool {
	if len(s.AllowedTypes) == 0 {
		return true
	}
	for _, allowed := range s.AllowedTypes {
		if allowed == mimeType {
			return true
		}
		if strings.HasSuffix(allowed, "/*") &&
			strings.HasPrefix(mimeType, strings.TrimSuffix(allowed, "*")) {
			return true
		}
	}
	return false
}

// compensateBlob - best-effort удаление blob-а после неудачной записи
// метаданных. Отдельный короткий контекст: исходный мог уже истечь.
func (s *AttachmentService) compensateBlob(key string) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := s.Blobs.Delete(ctx, key); err != nil && !appErrors.Is(err, storage.ErrNotFound) {
		logger.Warn("attachment blob compensation failed, orphaned blob remains",
			"storage_key", key,
			"error", err.Error(),
		)
	}
}
