package handlers

import (
	"context"
	"time"

	"circle_backend/internal/config"

	"github.com/gin-gonic/gin"
)

// getUserID достает ID пользователя, положенный auth-middleware
func getUserID(c *gin.Context) string {
	if v, exists := c.Get("userID"); exists {
		if userID, ok := v.(string); ok {
			return userID
		}
	}
	return ""
}

// storeContext ограничивает вызов хранилища бюджетом из конфига
func storeContext(c *gin.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request.Context(), config.GetConfig().StoreTimeout())
}

// parseTime разбирает RFC3339 timestamp из query-параметра,
// пустая строка дает zero time
func parseTime(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}
	return time.Parse(time.RFC3339, value)
}
