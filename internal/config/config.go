package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	App         AppConfig
	Database    DatabaseConfig
	Telegram    TelegramConfig
	Ai          AIConfig
	Sky         SkyConfig
	SMTP        SMTPConfig
	Session     SessionConfig
	Recognition RecognitionConfig
	TradePoints TradePoints
}

type AppConfig struct {
	Port           string
	Environment    string
	LogFilePath    string
	NatsURL        string
	RedisURL       string
	SessionBackend string // "memory" or "redis"
}

type DatabaseConfig struct {
	Connection string
}

type TelegramConfig struct {
	BotToken      string
	BotUsername   string
	APIBaseURL    string
	DebugChatID   int64
	WebhookURL    string
	WebhookSecret string
}

type AIConfig struct {
	LLMProvider   string // "gemini" or "ollama"
	LLMModel      string
	GeminiAPIKey  string
	GeminiBaseURL string
	OllamaBaseURL string
}

type SkyConfig struct {
	BaseURL    string
	Token      string
	DeviceUUID string
	Timezone   int // offset sent on every call, same sign convention as the service
}

type SMTPConfig struct {
	Host          string
	Port          int
	Email         string
	Password      string
	SenderName    string
	OperatorEmail string
}

type SessionConfig struct {
	TTL      time.Duration
	LockWait time.Duration
}

type RecognitionConfig struct {
	CaptionTrigger string
	EnhanceImage   bool
	MaxPhotoBytes  int64
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found, usage system environment")
	}

	tradePoints, err := LoadTradePoints(getEnv("TRADE_POINTS_FILE", "trade_points.yaml"))
	if err != nil {
		log.Printf("[WARN] Trade points not loaded: %v", err)
		tradePoints = TradePoints{}
	}

	return &Config{
		App: AppConfig{
			Port:           getEnv("APP_PORT", "3000"),
			Environment:    getEnv("GO_ENV", "development"),
			LogFilePath:    getEnv("LOG_FILE_PATH", "logs/app.log"),
			NatsURL:        getEnv("NATS_URL", "nats://localhost:4222"),
			RedisURL:       getEnv("REDIS_URL", "redis://localhost:6379"),
			SessionBackend: getEnv("SESSION_BACKEND", "memory"),
		},
		Database: DatabaseConfig{
			Connection: getEnv("DB_CONNECTION_STRING", ""),
		},
		Telegram: TelegramConfig{
			BotToken:      getEnv("TELEGRAM_BOT_TOKEN", ""),
			BotUsername:   getEnv("TELEGRAM_BOT_USERNAME", ""),
			APIBaseURL:    getEnv("TELEGRAM_API_BASE_URL", "https://api.telegram.org"),
			DebugChatID:   getEnvAsInt64("TELEGRAM_DEBUG_CHAT_ID", 0),
			WebhookURL:    getEnv("TELEGRAM_WEBHOOK_URL", ""),
			WebhookSecret: getEnv("TELEGRAM_WEBHOOK_SECRET", ""),
		},
		Ai: AIConfig{
			LLMProvider:   getEnv("LLM_PROVIDER", "gemini"),
			LLMModel:      getEnv("LLM_MODEL", "gemini-1.5-flash"),
			GeminiAPIKey:  getEnv("GOOGLE_GEMINI_API_KEY", ""),
			GeminiBaseURL: getEnv("GEMINI_BASE_URL", "https://generativelanguage.googleapis.com/v1beta"),
			OllamaBaseURL: getEnv("OLLAMA_BASE_URL", "http://localhost:11434"),
		},
		Sky: SkyConfig{
			BaseURL:    getEnv("SKY_API_URL", "https://xn-l3h.api.skyservice.online/"),
			Token:      getEnv("SKY_TOKEN", ""),
			DeviceUUID: getEnv("SKY_DEVICE_UUID", ""),
			Timezone:   getEnvAsInt("SKY_TIMEZONE", -3),
		},
		SMTP: SMTPConfig{
			Host:          getEnv("SMTP_HOST", ""),
			Port:          getEnvAsInt("SMTP_PORT", 587),
			Email:         getEnv("SMTP_EMAIL", ""),
			Password:      getEnv("SMTP_PASSWORD", ""),
			SenderName:    getEnv("SMTP_SENDER_NAME", "Invoice Bot"),
			OperatorEmail: getEnv("OPERATOR_EMAIL", ""),
		},
		Session: SessionConfig{
			TTL:      getEnvAsDuration("SESSION_TTL", 6*time.Hour),
			LockWait: getEnvAsDuration("WEBHOOK_LOCK_WAIT", 30*time.Second),
		},
		Recognition: RecognitionConfig{
			CaptionTrigger: getEnv("INVOICE_CAPTION_TRIGGER", "накладна"),
			EnhanceImage:   getEnvAsBool("RECOGNITION_ENHANCE_IMAGE", false),
			MaxPhotoBytes:  getEnvAsInt64("RECOGNITION_MAX_PHOTO_BYTES", 3*1024*1024),
		},
		TradePoints: tradePoints,
	}
}

func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	strValue := getEnv(key, "")
	if value, err := strconv.Atoi(strValue); err == nil {
		return value
	}
	return fallback
}

func getEnvAsInt64(key string, fallback int64) int64 {
	strValue := getEnv(key, "")
	if value, err := strconv.ParseInt(strValue, 10, 64); err == nil {
		return value
	}
	return fallback
}

func getEnvAsBool(key string, fallback bool) bool {
	strValue := getEnv(key, "")
	if value, err := strconv.ParseBool(strValue); err == nil {
		return value
	}
	return fallback
}

func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	strValue := getEnv(key, "")
	if value, err := time.ParseDuration(strValue); err == nil {
		return value
	}
	return fallback
}
