package appErrors

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"net/http"
)

// ErrorCode - тип для кодов ошибок
type ErrorCode string

// AppError - основная структура ошибки приложения
type AppError struct {
	Code     ErrorCode   `json:"code"`
	Message  string      `json:"message"`
	Details  interface{} `json:"details,omitempty"`
	Err      error       `json:"-"`
	HTTPCode int         `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Is сопоставляет ошибки по коду: клоны из WithDetails/WithError
// остаются равны своим предопределенным значениям для errors.Is
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// Конструктор
func New(code ErrorCode, message string, httpCode int) *AppError {
	return &AppError{
		Code:     code,
		Message:  message,
		HTTPCode: httpCode,
	}
}

// С цепочкой ошибок
func Wrap(err error, code ErrorCode, message string, httpCode int) *AppError {
	return &AppError{
		Code:     code,
		Message:  message,
		Err:      err,
		HTTPCode: httpCode,
	}
}

// Вспомогательные методы
func (e *AppError) WithDetails(details interface{}) *AppError {
	clone := *e
	clone.Details = details
	return &clone
}

func (e *AppError) WithError(err error) *AppError {
	clone := *e
	clone.Err = err
	return &clone
}

// Для маршалинга в JSON
func (e *AppError) MarshalJSON() ([]byte, error) {
	type alias struct {
		Code    ErrorCode   `json:"code"`
		Message string      `json:"message"`
		Details interface{} `json:"details,omitempty"`
	}
	return json.Marshal(&alias{
		Code:    e.Code,
		Message: e.Message,
		Details: e.Details,
	})
}

// Is - обертка над стандартной функцией errors.Is
func Is(err, target error) bool {
	return stderrors.Is(err, target)
}

// As - обертка над стандартной функцией errors.As
func As(err error, target interface{}) bool {
	return stderrors.As(err, target)
}

// Предопределенные ошибки
var (
	// Аутентификация соединения (фатальны для подключения)
	ErrUnauthenticated   = New(CodeUnauthenticated, "Credential missing", http.StatusUnauthorized)
	ErrInvalidCredential = New(CodeInvalidCredential, "Invalid or expired credential", http.StatusUnauthorized)
	ErrAccountInactive   = New(CodeAccountInactive, "Account is disabled", http.StatusForbidden)

	// Доступ
	ErrAccessDenied = New(CodeAccessDenied, "Access denied", http.StatusForbidden)

	// Ресурсы
	ErrRoomNotFound        = New(CodeRoomNotFound, "Room not found", http.StatusNotFound)
	ErrMessageNotFound     = New(CodeMessageNotFound, "Message not found", http.StatusNotFound)
	ErrParticipantNotFound = New(CodeParticipantNotFound, "Participant not found", http.StatusNotFound)
	ErrAttachmentNotFound  = New(CodeAttachmentNotFound, "Attachment not found", http.StatusNotFound)
	ErrUserNotFound        = New(CodeUserNotFound, "User not found", http.StatusNotFound)

	// Сообщения и вложения
	ErrSenderNotParticipant = New(CodeSenderNotParticipant, "Sender is not a participant of the room", http.StatusForbidden)
	ErrPayloadTooLarge      = New(CodePayloadTooLarge, "Payload too large", http.StatusRequestEntityTooLarge)
	ErrInvalidMessageType   = New(CodeInvalidMessageType, "Invalid message type", http.StatusBadRequest)
	ErrAttachmentsDisabled  = New(CodeAttachmentsDisabled, "Attachments are disabled for this room", http.StatusForbidden)
	ErrUnsupportedMedia     = New(CodeUnsupportedMedia, "File type is not allowed", http.StatusUnsupportedMediaType)

	// Валидация
	ErrValidationFailed = New(CodeValidationFailed, "Validation failed", http.StatusBadRequest)

	// Системные
	ErrTimeout = New(CodeTimeout, "Operation timed out", http.StatusGatewayTimeout)
)

// Функции-помощники для создания ошибок с деталями
func ValidationError(details interface{}) *AppError {
	return ErrValidationFailed.WithDetails(details)
}

func InternalError(err error) *AppError {
	return Wrap(err, CodeInternalError, "Internal server error", http.StatusInternalServerError)
}

func DatabaseError(err error) *AppError {
	return Wrap(err, CodeDatabaseError, "Database operation failed", http.StatusInternalServerError)
}

func ExternalServiceError(err error) *AppError {
	return Wrap(err, CodeExternalServiceError, "External service call failed", http.StatusBadGateway)
}

func TimeoutError(err error) *AppError {
	return Wrap(err, CodeTimeout, "Operation timed out", http.StatusGatewayTimeout)
}
