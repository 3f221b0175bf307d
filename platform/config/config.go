// Package config provides application configuration loading.
// This is part of the platform layer and contains no business logic.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// =============================================================================
// Module-Specific Config Interfaces (Principle of Least Privilege)
// =============================================================================

// DatabaseConfig provides database connection settings.
type DatabaseConfig interface {
	GetDatabaseURL() string
}

// HTTPConfig provides settings for the HTTP server.
type HTTPConfig interface {
	GetHTTPAddr() string
	GetCORSAllowAll() bool
	GetCORSOrigins() []string
	GetCORSAllowCreds() bool
}

// SchedulerConfig provides settings for the asynq scheduler and worker.
type SchedulerConfig interface {
	GetRedisURL() string
	GetRedisTLSInsecure() bool
	GetAsynqQueueName() string
	GetAsynqConcurrency() int
	GetMorningDigestHour() int
	GetEveningDigestHour() int
	GetReminderLookahead() time.Duration
}

// TimeConfig provides the local zone used for all deadline math.
type TimeConfig interface {
	GetLocation() *time.Location
}

// MessagingConfig provides settings for the rich-messaging channel.
type MessagingConfig interface {
	GetMessagingAPIURL() string
	GetMessagingToken() string
	IsMessagingEnabled() bool
}

// PushConfig provides settings for the browser-push (Web Push) channel.
type PushConfig interface {
	GetVAPIDPublicKey() string
	GetVAPIDPrivateKey() string
	GetVAPIDSubscriber() string
	IsPushEnabled() bool
}

// SMSConfig provides settings for the SMS gateway channel.
type SMSConfig interface {
	GetSMSAPIURL() string
	GetSMSAPIKey() string
	GetSMSSenderID() string
	IsSMSEnabled() bool
}

// ApprovalConfig provides settings for the human approval gate.
type ApprovalConfig interface {
	GetTelegramBotToken() string
	GetTelegramApproverChatID() int64
	IsTelegramEnabled() bool
	GetCallbackSigningSecret() string
	GetCallbackBaseURL() string
	GetApproverEmail() string
}

// EmailConfig provides SMTP settings for the approver email mirror.
type EmailConfig interface {
	GetSMTPHost() string
	GetSMTPPort() int
	GetSMTPUsername() string
	GetSMTPPassword() string
	GetEmailFromName() string
	GetEmailFromAddress() string
	IsEmailEnabled() bool
}

// AIConfig provides settings for the rationale text-generation backend.
type AIConfig interface {
	GetGeminiAPIKey() string
	GetRationaleModel() string
	GetRationaleTimeout() time.Duration
	IsRationaleAIEnabled() bool
}

// =============================================================================
// Main Config Struct
// =============================================================================

// Config holds all application configuration values.
type Config struct {
	Env               string
	HTTPAddr          string
	DatabaseURL       string
	CORSAllowAll      bool
	CORSOrigins       []string
	CORSAllowCreds    bool
	RedisURL          string
	RedisTLSInsecure  bool
	AsynqQueueName    string
	AsynqConcurrency  int
	MorningDigestHour int
	EveningDigestHour int
	ReminderLookahead time.Duration
	TimeZone          string
	location          *time.Location
	MessagingAPIURL   string
	MessagingToken    string
	VAPIDPublicKey    string
	VAPIDPrivateKey   string
	VAPIDSubscriber   string
	SMSAPIURL         string
	SMSAPIKey         string
	SMSSenderID       string
	TelegramBotToken  string
	TelegramChatID    int64
	CallbackSecret    string
	CallbackBaseURL   string
	ApproverEmail     string
	SMTPHost          string
	SMTPPort          int
	SMTPUsername      string
	SMTPPassword      string
	EmailFromName     string
	EmailFromAddress  string
	GeminiAPIKey      string
	RationaleModel    string
	RationaleTimeout  time.Duration
}

// DatabaseConfig implementation
func (c *Config) GetDatabaseURL() string { return c.DatabaseURL }

// HTTPConfig implementation
func (c *Config) GetHTTPAddr() string      { return c.HTTPAddr }
func (c *Config) GetCORSAllowAll() bool    { return c.CORSAllowAll }
func (c *Config) GetCORSOrigins() []string { return c.CORSOrigins }
func (c *Config) GetCORSAllowCreds() bool  { return c.CORSAllowCreds }

// SchedulerConfig implementation
func (c *Config) GetRedisURL() string                { return c.RedisURL }
func (c *Config) GetRedisTLSInsecure() bool          { return c.RedisTLSInsecure }
func (c *Config) GetAsynqQueueName() string          { return c.AsynqQueueName }
func (c *Config) GetAsynqConcurrency() int           { return c.AsynqConcurrency }
func (c *Config) GetMorningDigestHour() int          { return c.MorningDigestHour }
func (c *Config) GetEveningDigestHour() int          { return c.EveningDigestHour }
func (c *Config) GetReminderLookahead() time.Duration { return c.ReminderLookahead }

// TimeConfig implementation
func (c *Config) GetLocation() *time.Location { return c.location }

// MessagingConfig implementation
func (c *Config) GetMessagingAPIURL() string { return c.MessagingAPIURL }
func (c *Config) GetMessagingToken() string  { return c.MessagingToken }
func (c *Config) IsMessagingEnabled() bool   { return c.MessagingAPIURL != "" }

// PushConfig implementation
func (c *Config) GetVAPIDPublicKey() string  { return c.VAPIDPublicKey }
func (c *Config) GetVAPIDPrivateKey() string { return c.VAPIDPrivateKey }
func (c *Config) GetVAPIDSubscriber() string { return c.VAPIDSubscriber }
func (c *Config) IsPushEnabled() bool {
	return c.VAPIDPublicKey != "" && c.VAPIDPrivateKey != ""
}

// SMSConfig implementation
func (c *Config) GetSMSAPIURL() string   { return c.SMSAPIURL }
func (c *Config) GetSMSAPIKey() string   { return c.SMSAPIKey }
func (c *Config) GetSMSSenderID() string { return c.SMSSenderID }
func (c *Config) IsSMSEnabled() bool     { return c.SMSAPIURL != "" }

// ApprovalConfig implementation
func (c *Config) GetTelegramBotToken() string       { return c.TelegramBotToken }
func (c *Config) GetTelegramApproverChatID() int64  { return c.TelegramChatID }
func (c *Config) IsTelegramEnabled() bool           { return c.TelegramBotToken != "" && c.TelegramChatID != 0 }
func (c *Config) GetCallbackSigningSecret() string  { return c.CallbackSecret }
func (c *Config) GetCallbackBaseURL() string        { return c.CallbackBaseURL }
func (c *Config) GetApproverEmail() string          { return c.ApproverEmail }

// EmailConfig implementation
func (c *Config) GetSMTPHost() string         { return c.SMTPHost }
func (c *Config) GetSMTPPort() int            { return c.SMTPPort }
func (c *Config) GetSMTPUsername() string     { return c.SMTPUsername }
func (c *Config) GetSMTPPassword() string     { return c.SMTPPassword }
func (c *Config) GetEmailFromName() string    { return c.EmailFromName }
func (c *Config) GetEmailFromAddress() string { return c.EmailFromAddress }
func (c *Config) IsEmailEnabled() bool        { return c.SMTPHost != "" && c.EmailFromAddress != "" }

// AIConfig implementation
func (c *Config) GetGeminiAPIKey() string          { return c.GeminiAPIKey }
func (c *Config) GetRationaleModel() string        { return c.RationaleModel }
func (c *Config) GetRationaleTimeout() time.Duration { return c.RationaleTimeout }
func (c *Config) IsRationaleAIEnabled() bool       { return c.GeminiAPIKey != "" }

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	_ = godotenv.Load()

	corsOrigins := splitCSV(getEnv("CORS_ORIGINS", "http://localhost:4200"))
	corsAllowAll := strings.EqualFold(getEnv("CORS_ALLOW_ALL", "false"), "true")
	if containsWildcard(corsOrigins) {
		corsAllowAll = true
	}

	cfg := &Config{
		Env:               getEnv("APP_ENV", "development"),
		HTTPAddr:          getEnv("HTTP_ADDR", ":8080"),
		DatabaseURL:       getEnv("DATABASE_URL", ""),
		CORSAllowAll:      corsAllowAll,
		CORSOrigins:       corsOrigins,
		CORSAllowCreds:    strings.EqualFold(getEnv("CORS_ALLOW_CREDENTIALS", "true"), "true"),
		RedisURL:          getEnv("REDIS_URL", ""),
		RedisTLSInsecure:  strings.EqualFold(getEnv("REDIS_TLS_INSECURE", "false"), "true"),
		AsynqQueueName:    getEnv("ASYNQ_QUEUE", "default"),
		AsynqConcurrency:  mustInt(getEnv("ASYNQ_CONCURRENCY", "10")),
		MorningDigestHour: mustInt(getEnv("DIGEST_MORNING_HOUR", "8")),
		EveningDigestHour: mustInt(getEnv("DIGEST_EVENING_HOUR", "19")),
		ReminderLookahead: mustDuration(getEnv("REMINDER_LOOKAHEAD", "15m")),
		TimeZone:          getEnv("APP_TIMEZONE", "Asia/Tokyo"),
		MessagingAPIURL:   getEnv("MESSAGING_API_URL", ""),
		MessagingToken:    getEnv("MESSAGING_CHANNEL_TOKEN", ""),
		VAPIDPublicKey:    getEnv("VAPID_PUBLIC_KEY", ""),
		VAPIDPrivateKey:   getEnv("VAPID_PRIVATE_KEY", ""),
		VAPIDSubscriber:   getEnv("VAPID_SUBSCRIBER", "mailto:ops@leadhub.local"),
		SMSAPIURL:         getEnv("SMS_API_URL", ""),
		SMSAPIKey:         getEnv("SMS_API_KEY", ""),
		SMSSenderID:       getEnv("SMS_SENDER_ID", "LeadHub"),
		TelegramBotToken:  getEnv("TELEGRAM_BOT_TOKEN", ""),
		TelegramChatID:    mustInt64(getEnv("TELEGRAM_APPROVER_CHAT_ID", "0")),
		CallbackSecret:    getEnv("APPROVAL_CALLBACK_SECRET", ""),
		CallbackBaseURL:   getEnv("APPROVAL_CALLBACK_URL", "http://localhost:8080"),
		ApproverEmail:     getEnv("APPROVER_EMAIL", ""),
		SMTPHost:          getEnv("SMTP_HOST", ""),
		SMTPPort:          mustInt(getEnv("SMTP_PORT", "587")),
		SMTPUsername:      getEnv("SMTP_USERNAME", ""),
		SMTPPassword:      getEnv("SMTP_PASSWORD", ""),
		EmailFromName:     getEnv("EMAIL_FROM_NAME", "LeadHub"),
		EmailFromAddress:  getEnv("EMAIL_FROM_ADDRESS", ""),
		GeminiAPIKey:      getEnv("GEMINI_API_KEY", ""),
		RationaleModel:    getEnv("RATIONALE_MODEL", "gemini-2.0-flash"),
		RationaleTimeout:  mustDuration(getEnv("RATIONALE_TIMEOUT", "5s")),
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	if cfg.CallbackSecret == "" {
		return nil, fmt.Errorf("APPROVAL_CALLBACK_SECRET is required")
	}
	if cfg.CORSAllowAll && cfg.CORSAllowCreds {
		return nil, fmt.Errorf("CORS_ALLOW_CREDENTIALS cannot be true when CORS_ALLOW_ALL is true")
	}

	loc, err := time.LoadLocation(cfg.TimeZone)
	if err != nil {
		return nil, fmt.Errorf("invalid APP_TIMEZONE %q: %w", cfg.TimeZone, err)
	}
	cfg.location = loc

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return fallback
}

func mustDuration(value string) time.Duration {
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0
	}
	return d
}

func mustInt(value string) int {
	result, err := strconv.Atoi(value)
	if err != nil {
		return 0
	}
	return result
}

func mustInt64(value string) int64 {
	result, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return 0
	}
	return result
}

func splitCSV(value string) []string {
	parts := strings.Split(value, ",")
	results := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			results = append(results, trimmed)
		}
	}
	return results
}

func containsWildcard(values []string) bool {
	for _, value := range values {
		if value == "*" {
			return true
		}
	}
	return false
}
