package handlers

import (
	"net/http"
	"strconv"
	"time"

	"circle_backend/internal/appErrors"
	chatsvc "circle_backend/internal/services/chat"

	"github.com/gin-gonic/gin"
)

// ChatHandler - request/response поверхность чата: история, поиск,
// маркеры прочтения, счетчики, статистика, реакции.
// Живые события идут через ws, не отсюда.
type ChatHandler struct {
	messages    *chatsvc.MessageService
	unread      *chatsvc.UnreadService
	readMarkers *chatsvc.ReadMarkerService
	reactions   *chatsvc.ReactionService
}

func NewChatHandler(
	messages *chatsvc.MessageService,
	unread *chatsvc.UnreadService,
	readMarkers *chatsvc.ReadMarkerService,
	reactions *chatsvc.ReactionService,
) *ChatHandler {
	return &ChatHandler{
		messages:    messages,
		unread:      unread,
		readMarkers: readMarkers,
		reactions:   reactions,
	}
}

// RegisterRoutes регистрирует все маршруты чата
func (h *ChatHandler) RegisterRoutes(api *gin.RouterGroup) {
	api.GET("/rooms/:roomID/messages", h.GetMessages)
	api.GET("/rooms/:roomID/search", h.SearchMessages)
	api.GET("/rooms/:roomID/stats", h.GetRoomStats)
	api.GET("/rooms/:roomID/unread-count", h.GetUnreadCount)
	api.POST("/rooms/:roomID/read", h.MarkRead)
	api.GET("/unread-summary", h.GetUnreadSummary)

	api.DELETE("/messages/:messageID", h.DeleteMessage)
	api.GET("/messages/:messageID", h.GetMessage)

	api.POST("/messages/:messageID/reactions", h.AddReaction)
	api.DELETE("/messages/:messageID/reactions", h.RemoveReaction)
	api.GET("/messages/:messageID/reactions", h.GetReactions)
}

// GetMessages - страница истории комнаты (before + limit, новые первыми)
func (h *ChatHandler) GetMessages(c *gin.Context) {
	userID := getUserID(c)
	roomID := c.Param("roomID")

	before, err := parseTime(c.Query("before"))
	if err != nil {
		appErrors.HandleValidationError(c, err)
		return
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))

	ctx, cancel := storeContext(c)
	defer cancel()

	messages, err := h.messages.History(ctx, roomID, userID, before, limit)
	if err != nil {
		appErrors.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"messages": messages})
}

// SearchMessages - регистронезависимый substring-поиск
func (h *ChatHandler) SearchMessages(c *gin.Context) {
	userID := getUserID(c)
	roomID := c.Param("roomID")

	query := c.Query("q")
	if query == "" {
		appErrors.HandleError(c, appErrors.ErrValidationFailed.WithDetails("query parameter 'q' is required"))
		return
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))

	ctx, cancel := storeContext(c)
	defer cancel()

	messages, err := h.messages.Search(ctx, roomID, query, userID, limit)
	if err != nil {
		appErrors.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"messages": messages})
}

// GetMessage возвращает одно сообщение
func (h *ChatHandler) GetMessage(c *gin.Context) {
	userID := getUserID(c)

	ctx, cancel := storeContext(c)
	defer cancel()

	msg, err := h.messages.Get(ctx, c.Param("messageID"), userID)
	if err != nil {
		appErrors.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, msg)
}

// DeleteMessage - soft delete (отправитель или админ комнаты)
func (h *ChatHandler) DeleteMessage(c *gin.Context) {
	userID := getUserID(c)

	ctx, cancel := storeContext(c)
	defer cancel()

	if err := h.messages.Delete(ctx, c.Param("messageID"), userID); err != nil {
		appErrors.HandleError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

type markReadRequest struct {
	MessageID string     `json:"message_id"`
	Timestamp *time.Time `json:"timestamp"`
}

// MarkRead двигает маркер прочтения (по timestamp или до сообщения)
func (h *ChatHandler) MarkRead(c *gin.Context) {
	userID := getUserID(c)
	roomID := c.Param("roomID")

	var req markReadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		appErrors.HandleValidationError(c, err)
		return
	}

	ctx, cancel := storeContext(c)
	defer cancel()

	var err error
	if req.MessageID != "" {
		err = h.readMarkers.MarkReadAtMessage(ctx, roomID, userID, req.MessageID)
	} else {
		at := time.Now().UTC()
		if req.Timestamp != nil {
			at = *req.Timestamp
		}
		err = h.readMarkers.MarkRead(ctx, roomID, userID, at)
	}
	if err != nil {
		appErrors.HandleError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// GetUnreadCount - счетчик непрочитанного одной комнаты
func (h *ChatHandler) GetUnreadCount(c *gin.Context) {
	userID := getUserID(c)
	roomID := c.Param("roomID")

	ctx, cancel := storeContext(c)
	defer cancel()

	count, err := h.unread.Count(ctx, roomID, userID)
	if err != nil {
		appErrors.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"room_id": roomID, "unread_count": count})
}

// GetUnreadSummary - счетчики по всем комнатам пользователя
func (h *ChatHandler) GetUnreadSummary(c *gin.Context) {
	userID := getUserID(c)

	ctx, cancel := storeContext(c)
	defer cancel()

	summary, err := h.unread.Summary(ctx, userID)
	if err != nil {
		appErrors.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"unread": summary})
}

// GetRoomStats - количество сообщений и время последнего
func (h *ChatHandler) GetRoomStats(c *gin.Context) {
	userID := getUserID(c)
	roomID := c.Param("roomID")

	ctx, cancel := storeContext(c)
	defer cancel()

	stats, err := h.messages.Stats(ctx, roomID, userID)
	if err != nil {
		appErrors.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, stats)
}

type addReactionRequest struct {
	Emoji string `json:"emoji" binding:"required,emoji"`
}

// AddReaction ставит реакцию (upsert)
func (h *ChatHandler) AddReaction(c *gin.Context) {
	userID := getUserID(c)

	var req addReactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		appErrors.HandleValidationError(c, err)
		return
	}

	ctx, cancel := storeContext(c)
	defer cancel()

	reaction, _, err := h.reactions.React(ctx, c.Param("messageID"), userID, req.Emoji)
	if err != nil {
		appErrors.HandleError(c, err)
		return
	}

	c.JSON(http.StatusCreated, reaction)
}

// RemoveReaction снимает реакцию вызывающего
func (h *ChatHandler) RemoveReaction(c *gin.Context) {
	userID := getUserID(c)

	ctx, cancel := storeContext(c)
	defer cancel()

	if err := h.reactions.Unreact(ctx, c.Param("messageID"), userID); err != nil {
		appErrors.HandleError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// GetReactions возвращает реакции на сообщение
func (h *ChatHandler) GetReactions(c *gin.Context) {
	userID := getUserID(c)

	ctx, cancel := storeContext(c)
	defer cancel()

	reactions, err := h.reactions.List(ctx, c.Param("messageID"), userID)
	if err != nil {
		appErrors.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"reactions": reactions})
}
