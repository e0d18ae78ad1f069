package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v2"
)

type Config struct {
	Server struct {
		Host string `yaml:"host"`
		Port int    `yaml:"port"`
		Env  string `yaml:"env"`
	} `yaml:"server"`

	Database struct {
		DSN string `yaml:"url"`
	} `yaml:"database"`

	JWT struct {
		Secret string `yaml:"secret"`
		TTL    int    `yaml:"ttl"` // минуты
	} `yaml:"jwt"`

	Storage struct {
		Type       string `yaml:"type"`        // local, s3, cloudflare_r2
		BasePath   string `yaml:"base_path"`   // For local storage
		BaseURL    string `yaml:"base_url"`    // Public URL base
		Bucket     string `yaml:"bucket"`      // For S3/R2
		Region     string `yaml:"region"`      // For S3
		AccessKey  string `yaml:"access_key"`  // For S3/R2
		SecretKey  string `yaml:"secret_key"`  // For S3/R2
		Endpoint   string `yaml:"endpoint"`    // For R2 or custom S3
		UseSSL     bool   `yaml:"use_ssl"`     // For S3/R2
		PublicRead bool   `yaml:"public_read"` // Make files public
	} `yaml:"storage"`

	Upload struct {
		MaxSize      int64    `yaml:"max_size"`      // Max attachment size in bytes
		AllowedTypes []string `yaml:"allowed_types"` // Allowed MIME types, empty = any
	} `yaml:"upload"`

	WS struct {
		PongWaitSec   int `yaml:"pong_wait_sec"`  // окно молчания, после которого соединение мертво
		SendBuffer    int `yaml:"send_buffer"`    // размер буфера исходящих событий
		MaxMessageLen int `yaml:"max_message_len"` // лимит входящего фрейма, байт
	} `yaml:"ws"`

	Timeouts struct {
		StoreSec int `yaml:"store_sec"` // бюджет на вызов БД
		BlobSec  int `yaml:"blob_sec"`  // бюджет на вызов blob-хранилища
	} `yaml:"timeouts"`
}

var AppConfig *Config

// PongWait возвращает окно keep-alive для websocket-соединений.
func (c *Config) PongWait() time.Duration {
	if c.WS.PongWaitSec <= 0 {
		return 60 * time.Second
	}
	return time.Duration(c.WS.PongWaitSec) * time.Second
}

// StoreTimeout возвращает бюджет времени на один вызов хранилища.
func (c *Config) StoreTimeout() time.Duration {
	if c.Timeouts.StoreSec <= 0 {
		return 5 * time.Second
	}
	return time.Duration(c.Timeouts.StoreSec) * time.Second
}

// BlobTimeout возвращает бюджет времени на один вызов blob-хранилища.
func (c *Config) BlobTimeout() time.Duration {
	if c.Timeouts.BlobSec <= 0 {
		return 15 * time.Second
	}
	return time.Duration(c.Timeouts.BlobSec) * time.Second
}

// MaxUploadSize возвращает лимит размера вложения.
func (c *Config) MaxUploadSize() int64 {
	if c.Upload.MaxSize <= 0 {
		return 50 * 1024 * 1024 // 50MB
	}
	return c.Upload.MaxSize
}

// MaxFrameSize возвращает лимит входящего websocket-фрейма.
func (c *Config) MaxFrameSize() int64 {
	if c.WS.MaxMessageLen <= 0 {
		return 64 * 1024
	}
	return int64(c.WS.MaxMessageLen)
}

// SendBuffer возвращает размер буфера исходящего канала клиента.
func (c *Config) SendBuffer() int {
	if c.WS.SendBuffer <= 0 {
		return 256
	}
	return c.WS.SendBuffer
}

func LoadConfig() {
	var cfg Config

	dbURL := os.Getenv("DATABASE_URL")

	if dbURL == "" {
		// Загрузка из config.yaml
		configPath := os.Getenv("CONFIG_PATH")
		if configPath == "" {
			configPath = "config/config.yaml"
		}

		f, err := os.Open(configPath)
		if err != nil {
			log.Fatalf("Failed to open config file at %s: %v", configPath, err)
		}
		defer f.Close()

		decoder := yaml.NewDecoder(f)
		if err := decoder.Decode(&cfg); err != nil {
			log.Fatalf("Failed to parse config file at %s: %v", configPath, err)
		}

		AppConfig = &cfg
		return
	}

	// Загрузка конфигурации из переменных окружения (режим теста/контейнера)
	cfg.Database.DSN = dbURL
	cfg.Server.Env = os.Getenv("SERVER_ENV")
	cfg.Server.Port, _ = strconv.Atoi(os.Getenv("SERVER_PORT"))
	cfg.JWT.Secret = os.Getenv("JWT_SECRET")
	cfg.JWT.TTL = 60

	cfg.Storage.Type = "local"
	cfg.Storage.BasePath = "./uploads"
	cfg.Storage.BaseURL = "/api/v1/files"

	cfg.Upload.MaxSize = 50 * 1024 * 1024 // 50MB

	AppConfig = &cfg
}

// GetConfig возвращает загруженную конфигурацию.
func GetConfig() *Config {
	if AppConfig == nil {
		LoadConfig()
	}
	return AppConfig
}
