package ws

import (
	"encoding/json"
	"time"
)

// Словарь событий соединения. Имена и формы payload - протокольный контракт.
const (
	EventChatMessage    = "chat:message"
	EventChatTyping     = "chat:typing"
	EventChatRead       = "chat:read"
	EventChatReaction   = "chat:reaction"
	EventUserOnline     = "user:online"
	EventUserOffline    = "user:offline"
	EventSafetyAlert    = "safety:alert"
	EventLocationUpdate = "location:update"
	EventError          = "error"
)

// IncomingEvent - входящий фрейм от клиента
type IncomingEvent struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// OutEvent - исходящее событие для подписчиков комнаты
type OutEvent struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

// PresencePayload - тело user:online / user:offline
type PresencePayload struct {
	UserID    string    `json:"user_id"`
	Timestamp time.Time `json:"timestamp"`
}

// TypingPayload - тело chat:typing, чистый relay без персистентности
type TypingPayload struct {
	RoomID   string `json:"room_id"`
	UserID   string `json:"user_id"`
	IsTyping bool   `json:"is_typing"`
}

type readPayload struct {
	RoomID    string     `json:"room_id"`
	MessageID string     `json:"message_id"`
	Timestamp *time.Time `json:"timestamp"`
}

type reactionPayload struct {
	MessageID string `json:"message_id"`
	Emoji     string `json:"emoji"`
}

// relayPayload - safety:alert / location:update: произвольное тело,
// привязанное к комнате
type relayPayload struct {
	RoomID string          `json:"room_id"`
	Body   json.RawMessage `json:"body"`
}

// relayBroadcast - исходящая форма relay-события с отправителем
type relayBroadcast struct {
	UserID string          `json:"user_id"`
	RoomID string          `json:"room_id"`
	Body   json.RawMessage `json:"body"`
}
