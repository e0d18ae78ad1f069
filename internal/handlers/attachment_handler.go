package handlers

import (
	"context"
	"net/http"

	"circle_backend/internal/appErrors"
	"circle_backend/internal/config"
	chatsvc "circle_backend/internal/services/chat"

	"github.com/gin-gonic/gin"
)

type AttachmentHandler struct {
	attachments *chatsvc.AttachmentService
}

func NewAttachmentHandler(attachments *chatsvc.AttachmentService) *AttachmentHandler {
	return &AttachmentHandler{attachments: attachments}
}

// RegisterRoutes регистрирует маршруты вложений
func (h *AttachmentHandler) RegisterRoutes(api *gin.RouterGroup) {
	api.POST("/messages/:messageID/attachments", h.Upload)
	api.GET("/attachments/:attachmentID", h.Get)
	api.DELETE("/attachments/:attachmentID", h.Delete)
}

// Upload принимает multipart-файл и отдает его AttachmentService.
// Проверка лимита размера происходит в сервисе до записи blob-а.
func (h *AttachmentHandler) Upload(c *gin.Context) {
	userID := getUserID(c)
	messageID := c.Param("messageID")

	fileHeader, err := c.FormFile("file")
	if err != nil {
		appErrors.HandleValidationError(c, err)
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		appErrors.HandleError(c, appErrors.InternalError(err))
		return
	}
	defer file.Close()

	mimeType := fileHeader.Header.Get("Content-Type")
	if mimeType == "" {
		mimeType = "application/octet-stream"
	}

	// blob-вызовы ходят во внешнее хранилище, у них свой бюджет времени
	ctx, cancel := context.WithTimeout(c.Request.Context(), config.GetConfig().BlobTimeout())
	defer cancel()

	attachment, err := h.attachments.Upload(ctx, chatsvc.UploadInput{
		MessageID: messageID,
		CallerID:  userID,
		Reader:    file,
		Size:      fileHeader.Size,
		FileName:  fileHeader.Filename,
		MimeType:  mimeType,
	})
	if err != nil {
		appErrors.HandleError(c, err)
		return
	}

	c.JSON(http.StatusCreated, attachment)
}

// Get возвращает метаданные вложения по ID
func (h *AttachmentHandler) Get(c *gin.Context) {
	userID := getUserID(c)

	ctx, cancel := storeContext(c)
	defer cancel()

	attachment, err := h.attachments.Get(ctx, c.Param("attachmentID"), userID)
	if err != nil {
		appErrors.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, attachment)
}

// Delete удаляет blob, затем строку метаданных
func (h *AttachmentHandler) Delete(c *gin.Context) {
	userID := getUserID(c)

	ctx, cancel := context.WithTimeout(c.Request.Context(), config.GetConfig().BlobTimeout())
	defer cancel()

	if err := h.attachments.Delete(ctx, c.Param("attachmentID"), userID); err != nil {
		appErrors.HandleError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}
