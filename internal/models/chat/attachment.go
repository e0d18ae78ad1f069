package chat

import (
	"strings"
	"time"
)

type MediaCategory string

const (
	MediaCategoryImage    MediaCategory = "image"
	MediaCategoryVideo    MediaCategory = "video"
	MediaCategoryAudio    MediaCategory = "audio"
	MediaCategoryDocument MediaCategory = "document"
	MediaCategoryOther    MediaCategory = "other"
)

type Attachment struct {
	ID         string        `gorm:"primaryKey;type:uuid;default:gen_random_uuid()"`
	MessageID  string        `gorm:"index;not null"`
	UploaderID string        `gorm:"index;not null"`
	FileName   string
	URL        string
	StorageKey string        `gorm:"index"` // ключ blob-а, нужен для удаления
	Category   MediaCategory `gorm:"type:varchar(20);default:'other'"`
	MimeType   string
	Size       int64
	CreatedAt  time.Time
}

func (Attachment) TableName() string {
	return "chat.attachments"
}

// DetectCategory определяет категорию медиа по MIME-типу.
func DetectCategory(mimeType string) MediaCategory {
	switch {
	case strings.HasPrefix(mimeType, "image/"):
		return MediaCategoryImage
	case strings.HasPrefix(mimeType, "video/"):
		return MediaCategoryVideo
	case strings.HasPrefix(mimeType, "audio/"):
		return MediaCategoryAudio
	case mimeType == "application/pdf",
		strings.HasPrefix(mimeType, "text/"),
		strings.HasPrefix(mimeType, "application/vnd"),
		mimeType == "application/msword":
		return MediaCategoryDocument
	default:
		return MediaCategoryOther
	}
}
