package appErrors

// Коды ошибок сгруппированные по доменам
const (
	// Аутентификация соединения
	CodeUnauthenticated   ErrorCode = "UNAUTHENTICATED"
	CodeInvalidCredential ErrorCode = "INVALID_CREDENTIAL"
	CodeAccountInactive   ErrorCode = "ACCOUNT_INACTIVE"

	// Авторизация
	CodeAccessDenied ErrorCode = "ACCESS_DENIED"

	// Валидация
	CodeValidationFailed ErrorCode = "VALIDATION_FAILED"

	// Ресурсы
	CodeRoomNotFound        ErrorCode = "ROOM_NOT_FOUND"
	CodeMessageNotFound     ErrorCode = "MESSAGE_NOT_FOUND"
	CodeParticipantNotFound ErrorCode = "PARTICIPANT_NOT_FOUND"
	CodeAttachmentNotFound  ErrorCode = "ATTACHMENT_NOT_FOUND"
	CodeUserNotFound        ErrorCode = "USER_NOT_FOUND"

	// Бизнес-логика чата
	CodeSenderNotParticipant ErrorCode = "SENDER_NOT_PARTICIPANT"
	CodePayloadTooLarge      ErrorCode = "PAYLOAD_TOO_LARGE"
	CodeInvalidMessageType   ErrorCode = "INVALID_MESSAGE_TYPE"
	CodeAttachmentsDisabled  ErrorCode = "ATTACHMENTS_DISABLED"
	CodeUnsupportedMedia     ErrorCode = "UNSUPPORTED_MEDIA_TYPE"

	// Системные ошибки
	CodeTimeout              ErrorCode = "TIMEOUT"
	CodeInternalError        ErrorCode = "INTERNAL_ERROR"
	CodeDatabaseError        ErrorCode = "DATABASE_ERROR"
	CodeExternalServiceError ErrorCode = "EXTERNAL_SERVICE_ERROR"
)
