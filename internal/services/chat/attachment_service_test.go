package chat_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"circle_backend/internal/appErrors"
	modelChat "circle_backend/internal/models/chat"
	serviceChat "circle_backend/internal/services/chat"
	"circle_backend/internal/storage"

	"github.com/stretchr/testify/assert"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// stubBlobStorage - blob-хранилище в памяти с записью порядка операций
// и инъекцией ошибок
type stubBlobStorage struct {
	mu        sync.Mutex
	blobs     map[string][]byte
	ops       []string
	saveErr   error
	deleteErr error
	urlErr    error
}

func newStubBlobStorage() *stubBlobStorage {
	return &stubBlobStorage{blobs: map[string][]byte{}}
}

func (s *stubBlobStorage) record(op string) {
	s.ops = append(s.ops, op)
}

func (s *stubBlobStorage) Save(_ context.Context, key string, reader io.Reader, _ string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.record("save")
	if s.saveErr != nil {
		return s.saveErr
	}
	data, err := io.ReadAll(reader)
	if err != nil {
		return err
	}
	s.blobs[key] = data
	return nil
}

func (s *stubBlobStorage) Get(_ context.Context, key string) (io.ReadCloser, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.blobs[key]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (s *stubBlobStorage) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.record("delete")
	if s.deleteErr != nil {
		return s.deleteErr
	}
	if _, ok := s.blobs[key]; !ok {
		return storage.ErrNotFound
	}
	delete(s.blobs, key)
	return nil
}

func (s *stubBlobStorage) Exists(_ context.Context, key string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.blobs[key]
	return ok, nil
}

func (s *stubBlobStorage) GetURL(_ context.Context, key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.urlErr != nil {
		return "", s.urlErr
	}
	return "https://files.example.test/" + key, nil
}

func (s *stubBlobStorage) blobCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.blobs)
}

// stubAttachmentStore - строки метаданных в памяти
type stubAttachmentStore struct {
	rows      map[string]*modelChat.Attachment
	ops       *stubBlobStorage // общий журнал операций для проверки порядка
	createErr error
	deleteErr error
}

func (s *stubAttachmentStore) Create(_ context.Context, attachment *modelChat.Attachment) error {
	if s.ops != nil {
		s.ops.mu.Lock()
		s.ops.record("meta-create")
		s.ops.mu.Unlock()
	}
	if s.createErr != nil {
		return s.createErr
	}
	s.rows[attachment.ID] = attachment
	return nil
}

func (s *stubAttachmentStore) GetByID(_ context.Context, id string) (*modelChat.Attachment, error) {
	row, ok := s.rows[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return row, nil
}

func (s *stubAttachmentStore) GetByMessageID(_ context.Context, messageID string) ([]modelChat.Attachment, error) {
	var out []modelChat.Attachment
	for _, row := range s.rows {
		if row.MessageID == messageID {
			out = append(out, *row)
		}
	}
	return out, nil
}

func (s *stubAttachmentStore) DeleteByID(_ context.Context, id string) error {
	if s.ops != nil {
		s.ops.mu.Lock()
		s.ops.record("meta-delete")
		s.ops.mu.Unlock()
	}
	if s.deleteErr != nil {
		return s.deleteErr
	}
	if _, ok := s.rows[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(s.rows, id)
	return nil
}

const testMaxUpload = 1024

func newAttachmentFixture() (*stubBlobStorage, *stubAttachmentStore, *stubMessageStore, *serviceChat.AttachmentService) {
	rooms := &stubRoomStore{rooms: map[string]*modelChat.Room{
		"room-1": {ID: "room-1", IsActive: true},
	}}
	participants := &stubParticipantStore{participants: map[string]*modelChat.Participant{
		participantKey("room-1", "alice"): {RoomID: "room-1", UserID: "alice", Role: modelChat.ParticipantRoleMember},
		participantKey("room-1", "bob"):   {RoomID: "room-1", UserID: "bob", Role: modelChat.ParticipantRoleMember},
		participantKey("room-1", "carol"): {RoomID: "room-1", UserID: "carol", Role: modelChat.ParticipantRoleAdmin},
	}}
	messages := &stubMessageStore{messages: []*modelChat.Message{
		{ID: "msg-1", RoomID: "room-1", SenderID: "alice", CreatedAt: time.Now().UTC()},
	}}
	blobs := newStubBlobStorage()
	attachments := &stubAttachmentStore{rows: map[string]*modelChat.Attachment{}, ops: blobs}

	svc := serviceChat.NewAttachmentService(rooms, participants, messages, attachments, blobs, testMaxUpload, nil)
	return blobs, attachments, messages, svc
}

func uploadInput(size int64) serviceChat.UploadInput {
	return serviceChat.UploadInput{
		MessageID: "msg-1",
		CallerID:  "alice",
		Reader:    bytes.NewReader(bytes.Repeat([]byte("a"), int(size))),
		Size:      size,
		FileName:  "photo.jpg",
		MimeType:  "image/jpeg",
	}
}

func TestAttachmentService_Upload(t *testing.T) {
	blobs, attachments, _, svc := newAttachmentFixture()

	attachment, err := svc.Upload(context.Background(), uploadInput(128))
	assert.NoError(t, err)
	assert.Equal(t, modelChat.MediaCategoryImage, attachment.Category)
	assert.NotEmpty(t, attachment.URL)
	assert.Equal(t, 1, blobs.blobCount())
	assert.Len(t, attachments.rows, 1)
	assert.Equal(t, []string{"save", "meta-create"}, blobs.ops, "blob пишется до метаданных")
}

func TestAttachmentService_UploadTooLargeLeavesNoTrace(t *testing.T) {
	blobs, attachments, _, svc := newAttachmentFixture()

	_, err := svc.Upload(context.Background(), uploadInput(testMaxUpload+1))

	assert.ErrorIs(t, err, appErrors.ErrPayloadTooLarge)
	assert.Empty(t, blobs.ops, "проверка размера идет до любой записи")
	assert.Equal(t, 0, blobs.blobCount())
	assert.Empty(t, attachments.rows)
}

func TestAttachmentService_UploadUnknownMessage(t *testing.T) {
	_, _, _, svc := newAttachmentFixture()

	input := uploadInput(64)
	input.MessageID = "no-such-message"

	_, err := svc.Upload(context.Background(), input)
	assert.ErrorIs(t, err, appErrors.ErrMessageNotFound)
}

func TestAttachmentService_UploadNonParticipantDenied(t *testing.T) {
	blobs, _, _, svc := newAttachmentFixture()

	input := uploadInput(64)
	input.CallerID = "mallory"

	_, err := svc.Upload(context.Background(), input)
	assert.ErrorIs(t, err, appErrors.ErrAccessDenied)
	assert.Empty(t, blobs.ops)
}

func TestAttachmentService_UploadRoomDisallowsAttachments(t *testing.T) {
	rooms := &stubRoomStore{rooms: map[string]*modelChat.Room{
		"room-1": {ID: "room-1", IsActive: true, Settings: datatypes.JSONMap{"attachments_allowed": false}},
	}}
	participants := &stubParticipantStore{participants: map[string]*modelChat.Participant{
		participantKey("room-1", "alice"): {RoomID: "room-1", UserID: "alice"},
	}}
	messages := &stubMessageStore{messages: []*modelChat.Message{
		{ID: "msg-1", RoomID: "room-1", SenderID: "alice", CreatedAt: time.Now().UTC()},
	}}
	blobs := newStubBlobStorage()
	attachments := &stubAttachmentStore{rows: map[string]*modelChat.Attachment{}, ops: blobs}
	svc := serviceChat.NewAttachmentService(rooms, participants, messages, attachments, blobs, testMaxUpload, nil)

	_, err := svc.Upload(context.Background(), uploadInput(64))
	assert.ErrorIs(t, err, appErrors.ErrAttachmentsDisabled)
	assert.Empty(t, blobs.ops)
}

func TestAttachmentService_UploadDisallowedMimeType(t *testing.T) {
	blobs, attachments, messages, _ := newAttachmentFixture()
	rooms := &stubRoomStore{rooms: map[string]*modelChat.Room{
		"room-1": {ID: "room-1", IsActive: true},
	}}
	participants := &stubParticipantStore{participants: map[string]*modelChat.Participant{
		participantKey("room-1", "alice"): {RoomID: "room-1", UserID: "alice"},
	}}
	svc := serviceChat.NewAttachmentService(rooms, participants, messages, attachments, blobs, testMaxUpload,
		[]string{"image/*", "application/pdf"})

	allowed := uploadInput(64) // image/jpeg покрывается "image/*"
	_, err := svc.Upload(context.Background(), allowed)
	assert.NoError(t, err)

	blocked := uploadInput(64)
	blocked.FileName = "payload.exe"
	blocked.MimeType = "application/x-msdownload"

	_, err = svc.Upload(context.Background(), blocked)
	assert.ErrorIs(t, err, appErrors.ErrUnsupportedMedia)
	assert.Equal(t, 1, blobs.blobCount(), "запрещенный тип не оставляет следов в blob-хранилище")
	assert.Len(t, attachments.rows, 1)
}

func TestAttachmentService_UploadMetadataFailureCompensatesBlob(t *testing.T) {
	blobs, attachments, _, svc := newAttachmentFixture()
	attachments.createErr = gorm.ErrInvalidTransaction

	_, err := svc.Upload(context.Background(), uploadInput(64))

	assert.Error(t, err)
	assert.Equal(t, 0, blobs.blobCount(), "осиротевший blob компенсируется")
	assert.Empty(t, attachments.rows)
	assert.Equal(t, []string{"save", "meta-create", "delete"}, blobs.ops)
}

func TestAttachmentService_DeleteBlobFirst(t *testing.T) {
	blobs, attachments, _, svc := newAttachmentFixture()

	attachment, err := svc.Upload(context.Background(), uploadInput(64))
	assert.NoError(t, err)
	blobs.ops = nil

	assert.NoError(t, svc.Delete(context.Background(), attachment.ID, "alice"))
	assert.Equal(t, []string{"delete", "meta-delete"}, blobs.ops, "blob удаляется до строки метаданных")
	assert.Equal(t, 0, blobs.blobCount())
	assert.Empty(t, attachments.rows)

	// после удаления вложение недоступно
	_, err = svc.Get(context.Background(), attachment.ID, "bob")
	assert.ErrorIs(t, err, appErrors.ErrAttachmentNotFound)
}

func TestAttachmentService_DeleteToleratesMissingBlob(t *testing.T) {
	blobs, attachments, _, svc := newAttachmentFixture()

	attachment, err := svc.Upload(context.Background(), uploadInput(64))
	assert.NoError(t, err)

	// blob пропал из хранилища извне
	blobs.mu.Lock()
	delete(blobs.blobs, attachment.StorageKey)
	blobs.mu.Unlock()

	assert.NoError(t, svc.Delete(context.Background(), attachment.ID, "alice"))
	assert.Empty(t, attachments.rows)
}

func TestAttachmentService_DeleteBlobFailureKeepsRow(t *testing.T) {
	blobs, attachments, _, svc := newAttachmentFixture()

	attachment, err := svc.Upload(context.Background(), uploadInput(64))
	assert.NoError(t, err)
	blobs.deleteErr = errors.New("r2: internal error")

	err = svc.Delete(context.Background(), attachment.ID, "alice")

	assert.Error(t, err)
	assert.Len(t, attachments.rows, 1, "строка остается, пока blob не удален")

	// после восстановления хранилища удаление проходит
	blobs.deleteErr = nil
	assert.NoError(t, svc.Delete(context.Background(), attachment.ID, "alice"))
	assert.Empty(t, attachments.rows)
}

func TestAttachmentService_DeletePermissions(t *testing.T) {
	_, _, _, svc := newAttachmentFixture()

	attachment, err := svc.Upload(context.Background(), uploadInput(64))
	assert.NoError(t, err)

	// другой участник без прав админа
	err = svc.Delete(context.Background(), attachment.ID, "bob")
	assert.ErrorIs(t, err, appErrors.ErrAccessDenied)

	// админ комнаты может
	assert.NoError(t, svc.Delete(context.Background(), attachment.ID, "carol"))
}

func TestAttachmentService_GetRequiresMembership(t *testing.T) {
	_, _, _, svc := newAttachmentFixture()

	attachment, err := svc.Upload(context.Background(), uploadInput(64))
	assert.NoError(t, err)

	got, err := svc.Get(context.Background(), attachment.ID, "bob")
	assert.NoError(t, err)
	assert.Equal(t, attachment.ID, got.ID)

	_, err = svc.Get(context.Background(), attachment.ID, "mallory")
	assert.ErrorIs(t, err, appErrors.ErrAccessDenied)
}
