package ws

import (
	"context"
	"net/http"
	"strings"

	"circle_backend/internal/appErrors"
	"circle_backend/internal/config"
	"circle_backend/internal/logger"
	chatsvc "circle_backend/internal/services/chat"
	"circle_backend/internal/services/identity"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // продакшн: проверка origin
	},
}

// WebSocketHandler принимает соединения и собирает для каждого Client
type WebSocketHandler struct {
	Hub      *RoomHub
	Presence *PresenceTracker

	resolver    *identity.Resolver
	messages    *chatsvc.MessageService
	readMarkers *chatsvc.ReadMarkerService
	reactions   *chatsvc.ReactionService
	cfg         *config.Config
}

func NewWebSocketHandler(
	hub *RoomHub,
	presence *PresenceTracker,
	resolver *identity.Resolver,
	messages *chatsvc.MessageService,
	readMarkers *chatsvc.ReadMarkerService,
	reactions *chatsvc.ReactionService,
	cfg *config.Config,
) *WebSocketHandler {
	h := &WebSocketHandler{
		Hub:         hub,
		Presence:    presence,
		resolver:    resolver,
		messages:    messages,
		readMarkers: readMarkers,
		reactions:   reactions,
		cfg:         cfg,
	}

	// медленный подписчик отцепляется от всех комнат, не только от той,
	// где переполнился буфер
	hub.SetDropHandler(func(roomID string, sub Subscriber) {
		if client, ok := sub.(*Client); ok {
			client.detach()
		}
	})

	return h
}

// ServeWS - единственная точка входа живых соединений.
// Credential проверяется ровно один раз, до upgrade; ошибка фатальна
// для попытки подключения, ретраев ядро не делает.
func (h *WebSocketHandler) ServeWS(c *gin.Context) {
	credential := extractCredential(c)

	ctx, cancel := context.WithTimeout(c.Request.Context(), h.cfg.StoreTimeout())
	session, err := h.resolver.Resolve(ctx, credential)
	cancel()
	if err != nil {
		appErrors.HandleError(c, err)
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logger.Error("websocket upgrade failed", "error", err)
		return
	}

	client := newClient(
		conn,
		session.UserID,
		session.RoomIDs,
		h.Hub,
		h.Presence,
		h.messages,
		h.readMarkers,
		h.reactions,
		h.cfg.SendBuffer(),
		h.cfg.PongWait(),
		h.cfg.StoreTimeout(),
		h.cfg.MaxFrameSize(),
	)

	client.attach()
	logger.Info("websocket client connected",
		"user_id", client.UserID,
		"connection_id", client.ID,
		"rooms", len(client.RoomIDs),
	)

	go client.writePump()
	go client.readPump()
}

func extractCredential(c *gin.Context) string {
	if token := c.Query("token"); token != "" {
		return token
	}
	authHeader := c.GetHeader("Authorization")
	return strings.TrimPrefix(authHeader, "Bearer ")
}
