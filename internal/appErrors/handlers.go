package appErrors

import (
	"context"
	"net/http"

	"circle_backend/internal/logger"

	"github.com/gin-gonic/gin"
)

// ErrorResponse - стандартный ответ об ошибке
type ErrorResponse struct {
	Error *AppError `json:"error"`
}

// From приводит произвольную ошибку к *AppError.
// context.DeadlineExceeded превращается в Timeout, всё прочее - в internal error.
func From(err error) *AppError {
	var appErr *AppError
	if As(err, &appErr) {
		return appErr
	}
	if Is(err, context.DeadlineExceeded) {
		return TimeoutError(err)
	}
	return InternalError(err)
}

// HandleError - обработка ошибок для Gin контекста
func HandleError(c *gin.Context, err error) {
	appErr := From(err)

	if appErr.HTTPCode >= http.StatusInternalServerError {
		logger.CtxError(c.Request.Context(), "server error", "error", appErr.Error(), "path", c.FullPath())
	}

	c.JSON(appErr.HTTPCode, ErrorResponse{Error: appErr})
}

// HandleValidationError - специальный обработчик для ошибок binding/валидации
func HandleValidationError(c *gin.Context, err error) {
	HandleError(c, ValidationError(gin.H{"details": err.Error()}))
}
