package ws

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"circle_backend/internal/appErrors"
	"circle_backend/internal/logger"
	modelChat "circle_backend/internal/models/chat"
	chatsvc "circle_backend/internal/services/chat"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// socket - операции соединения, которыми пользуется Client.
// *websocket.Conn реализует его целиком; тесты подставляют заглушку.
type socket interface {
	ReadMessage() (int, []byte, error)
	WriteJSON(v interface{}) error
	WriteMessage(messageType int, data []byte) error
	WriteControl(messageType int, data []byte, deadline time.Time) error
	SetReadLimit(limit int64)
	SetReadDeadline(t time.Time) error
	SetPongHandler(h func(string) error)
	Close() error
}

// Client - одно живое соединение одного пользователя.
// Пара goroutine readPump/writePump на соединение; весь ввод-вывод
// по сокету идет только через них.
type Client struct {
	ID      string
	UserID  string
	RoomIDs []string

	conn socket
	send chan OutEvent

	hub      *RoomHub
	presence *PresenceTracker

	messages    *chatsvc.MessageService
	readMarkers *chatsvc.ReadMarkerService
	reactions   *chatsvc.ReactionService

	pongWait     time.Duration
	storeTimeout time.Duration
	maxFrameSize int64

	closeOnce sync.Once
	closed    chan struct{}
}

func newClient(
	conn socket,
	userID string,
	roomIDs []string,
	hub *RoomHub,
	presence *PresenceTracker,
	messages *chatsvc.MessageService,
	readMarkers *chatsvc.ReadMarkerService,
	reactions *chatsvc.ReactionService,
	sendBuffer int,
	pongWait time.Duration,
	storeTimeout time.Duration,
	maxFrameSize int64,
) *Client {
	return &Client{
		ID:           uuid.New().String(),
		UserID:       userID,
		RoomIDs:      roomIDs,
		conn:         conn,
		send:         make(chan OutEvent, sendBuffer),
		hub:          hub,
		presence:     presence,
		messages:     messages,
		readMarkers:  readMarkers,
		reactions:    reactions,
		pongWait:     pongWait,
		storeTimeout: storeTimeout,
		maxFrameSize: maxFrameSize,
		closed:       make(chan struct{}),
	}
}

// SubscriberID идентифицирует соединение (не пользователя) в хабе
func (c *Client) SubscriberID() string {
	return c.ID
}

// Enqueue кладет событие в исходящий буфер без блокировки
func (c *Client) Enqueue(event OutEvent) bool {
	select {
	case <-c.closed:
		return false
	default:
	}

	select {
	case c.send <- event:
		return true
	default:
		return false
	}
}

// attach подключает клиента к хабу и presence всех его комнат.
// user:online уходит остальным подписчикам только на переходе 0 -> 1.
func (c *Client) attach() {
	now := time.Now().UTC()
	for _, roomID := range c.RoomIDs {
		c.hub.Subscribe(roomID, c)
		if c.presence.Join(roomID, c.UserID) {
			c.hub.Publish(roomID, OutEvent{
				Type:    EventUserOnline,
				Payload: PresencePayload{UserID: c.UserID, Timestamp: now},
			}, c)
		}
	}
}

// detach симметрично отцепляет клиента; идемпотентен.
func (c *Client) detach() {
	c.closeOnce.Do(func() {
		close(c.closed)

		now := time.Now().UTC()
		for _, roomID := range c.RoomIDs {
			c.hub.Unsubscribe(roomID, c)
			if c.presence.Leave(roomID, c.UserID) {
				c.hub.Publish(roomID, OutEvent{
					Type:    EventUserOffline,
					Payload: PresencePayload{UserID: c.UserID, Timestamp: now},
				}, c)
			}
		}

		// send намеренно не закрывается: конкурентный Publish мог бы
		// писать в закрытый канал; writePump выходит по closed
		c.conn.Close()
	})
}

// readPump читает входящие фреймы. Соединение, молчащее дольше pongWait
// (ни трафика, ни pong-ов), считается мертвым и зачищается.
func (c *Client) readPump() {
	defer c.detach()

	c.conn.SetReadLimit(c.maxFrameSize)
	c.conn.SetReadDeadline(time.Now().Add(c.pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(c.pongWait))
		return nil
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logger.WSLog(c.UserID, "read", err)
			}
			return
		}
		// любой входящий трафик продлевает жизнь соединению
		c.conn.SetReadDeadline(time.Now().Add(c.pongWait))

		var event IncomingEvent
		if err := json.Unmarshal(raw, &event); err != nil {
			logger.WSLog(c.UserID, "parse", err)
			continue
		}

		c.handleEvent(event)
	}
}

// writePump пишет исходящие события и пинги
func (c *Client) writePump() {
	ticker := time.NewTicker(c.pongWait * 9 / 10)
	defer func() {
		ticker.Stop()
		c.detach()
	}()

	for {
		select {
		case <-c.closed:
			c.conn.WriteMessage(websocket.CloseMessage, []byte{})
			return
		case event := <-c.send:
			if err := c.conn.WriteJSON(event); err != nil {
				logger.WSLog(c.UserID, "write", err)
				return
			}
		case <-ticker.C:
			deadline := time.Now().Add(10 * time.Second)
			if err := c.conn.WriteControl(websocket.PingMessage, nil, deadline); err != nil {
				return
			}
		}
	}
}

// handleEvent - центральный диспетчер входящих событий
func (c *Client) handleEvent(event IncomingEvent) {
	switch event.Type {

	case EventChatMessage:
		var input chatsvc.SendMessageInput
		if err := json.Unmarshal(event.Data, &input); err != nil {
			c.sendError(appErrors.ValidationError(err.Error()))
			return
		}
		c.handleChatMessage(input)

	case EventChatTyping:
		var payload TypingPayload
		if err := json.Unmarshal(event.Data, &payload); err != nil {
			c.sendError(appErrors.ValidationError(err.Error()))
			return
		}
		// не персистится: чистый relay через брокер
		payload.UserID = c.UserID
		if !c.inRoom(payload.RoomID) {
			c.sendError(appErrors.ErrAccessDenied)
			return
		}
		c.hub.Publish(payload.RoomID, OutEvent{Type: EventChatTyping, Payload: payload}, c)

	case EventChatRead:
		var payload readPayload
		if err := json.Unmarshal(event.Data, &payload); err != nil {
			c.sendError(appErrors.ValidationError(err.Error()))
			return
		}
		c.handleMarkRead(payload)

	case EventChatReaction:
		var payload reactionPayload
		if err := json.Unmarshal(event.Data, &payload); err != nil {
			c.sendError(appErrors.ValidationError(err.Error()))
			return
		}
		c.handleReaction(payload)

	case EventSafetyAlert, EventLocationUpdate:
		var payload relayPayload
		if err := json.Unmarshal(event.Data, &payload); err != nil {
			c.sendError(appErrors.ValidationError(err.Error()))
			return
		}
		c.handleRelay(event.Type, payload)

	default:
		logger.WSLog(c.UserID, "unhandled:"+event.Type, nil)
	}
}

// handleChatMessage: персист синхронно для отправителя, вещание после
// подтверждения хранилища. Ошибка персиста отменяет вещание целиком -
// фантомных сообщений, которых нет в истории, не бывает.
func (c *Client) handleChatMessage(input chatsvc.SendMessageInput) {
	input.SenderID = c.UserID

	ctx, cancel := c.storeContext()
	defer cancel()

	msg, err := c.messages.Send(ctx, input)
	if err != nil {
		c.sendError(err)
		return
	}

	out := OutEvent{Type: EventChatMessage, Payload: msg}
	// подтверждение отправителю с сохраненным сообщением
	c.Enqueue(out)
	// fire-and-forget остальным участникам комнаты
	c.hub.Publish(msg.RoomID, out, c)
}

func (c *Client) handleMarkRead(payload readPayload) {
	ctx, cancel := c.storeContext()
	defer cancel()

	var err error
	if payload.MessageID != "" {
		err = c.readMarkers.MarkReadAtMessage(ctx, payload.RoomID, c.UserID, payload.MessageID)
	} else {
		at := time.Now().UTC()
		if payload.Timestamp != nil {
			at = *payload.Timestamp
		}
		err = c.readMarkers.MarkRead(ctx, payload.RoomID, c.UserID, at)
	}
	if err != nil {
		c.sendError(err)
	}
}

func (c *Client) handleReaction(payload reactionPayload) {
	ctx, cancel := c.storeContext()
	defer cancel()

	reaction, msg, err := c.reactions.React(ctx, payload.MessageID, c.UserID, payload.Emoji)
	if err != nil {
		c.sendError(err)
		return
	}

	c.hub.Publish(msg.RoomID, OutEvent{Type: EventChatReaction, Payload: reaction}, c)
}

// handleRelay: safety:alert и location:update персистятся как системные
// сообщения, но вещание не зависит от исхода персиста - попытка записи,
// затем broadcast в любом случае.
func (c *Client) handleRelay(eventType string, payload relayPayload) {
	if !c.inRoom(payload.RoomID) {
		c.sendError(appErrors.ErrAccessDenied)
		return
	}

	msgType := modelChat.MessageTypeSafety
	if eventType == EventLocationUpdate {
		msgType = modelChat.MessageTypeLocation
	}

	ctx, cancel := c.storeContext()
	_, err := c.messages.Send(ctx, chatsvc.SendMessageInput{
		RoomID:   payload.RoomID,
		SenderID: c.UserID,
		Content:  string(payload.Body),
		Type:     msgType,
	})
	cancel()
	if err != nil {
		logger.WSLog(c.UserID, eventType+":persist", err)
	}

	c.hub.Publish(payload.RoomID, OutEvent{
		Type: eventType,
		Payload: relayBroadcast{
			UserID: c.UserID,
			RoomID: payload.RoomID,
			Body:   payload.Body,
		},
	}, c)
}

func (c *Client) sendError(err error) {
	c.Enqueue(OutEvent{Type: EventError, Payload: appErrors.From(err)})
}

func (c *Client) storeContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), c.storeTimeout)
}

func (c *Client) inRoom(roomID string) bool {
	for _, id := range c.RoomIDs {
		if id == roomID {
			return true
		}
	}
	return false
}
