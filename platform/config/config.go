// Package config provides application configuration loading.
// This is part of the platform layer and contains no business logic.
package config

import (
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

// JWTConfig provides JWT validation settings for middleware.
type JWTConfig interface {
	GetJWTAccessSecret() string
}

// HTTPConfig provides settings for the HTTP server.
type HTTPConfig interface {
	GetHTTPAddr() string
	GetCORSAllowAll() bool
	GetCORSOrigins() []string
	GetCORSAllowCreds() bool
}

// SchedulerConfig provides settings for the asynq scheduler client and worker.
type SchedulerConfig interface {
	GetRedisURL() string
	GetRedisTLSInsecure() bool
	GetAsynqQueueName() string
	GetAsynqConcurrency() int
}

// CRMConfig provides settings for the ShopMonkey CRM client.
type CRMConfig interface {
	GetShopMonkeyAPIKey() string
	GetShopMonkeyBaseURL() string
	GetDemoMode() bool
}

// EmailConfig provides settings for SMTP email sending.
type EmailConfig interface {
	GetEmailEnabled() bool
	GetSMTPHost() string
	GetSMTPPort() int
	GetSMTPUsername() string
	GetSMTPPassword() string
	GetEmailFromName() string
	GetEmailFromAddress() string
}

// SMSConfig provides settings for the Twilio SMS client.
type SMSConfig interface {
	GetTwilioAccountSID() string
	GetTwilioAuthToken() string
	GetTwilioFromNumber() string
	IsSMSEnabled() bool
}

// MessagingConfig provides outreach policy settings. Channel credentials
// stay on EmailConfig and SMSConfig; the delivery service itself only needs
// the chat link base and the whitelist.
type MessagingConfig interface {
	GetChatBaseURL() string
	GetEmailWhitelist() []string
}

// IngestionConfig provides settings for the lead polling loop.
type IngestionConfig interface {
	GetPollInterval() time.Duration
}

// ProcessorConfig provides settings for the touch-point processing loop.
type ProcessorConfig interface {
	GetTouchPointInterval() time.Duration
	GetTouchPointBatchSize() int
}

// WebhookConfig provides settings for inbound CRM webhooks.
type WebhookConfig interface {
	GetWebhookSharedSecret() string
}

// =============================================================================
// Main Config Struct
// =============================================================================

// Config holds all application configuration values.
type Config struct {
	Env                 string
	HTTPAddr            string
	DatabaseURL         string
	JWTAccessSecret     string
	CORSAllowAll        bool
	CORSOrigins         []string
	CORSAllowCreds      bool
	RedisURL            string
	RedisTLSInsecure    bool
	AsynqQueueName      string
	AsynqConcurrency    int
	ShopMonkeyAPIKey    string
	ShopMonkeyBaseURL   string
	DemoMode            bool
	WebhookSharedSecret string
	EmailEnabled        bool
	SMTPHost            string
	SMTPPort            int
	SMTPUsername        string
	SMTPPassword        string
	EmailFromName       string
	EmailFromAddress    string
	TwilioAccountSID    string
	TwilioAuthToken     string
	TwilioFromNumber    string
	ChatBaseURL         string
	EmailWhitelist      []string
	PollInterval        time.Duration
	TouchPointInterval  time.Duration
	TouchPointBatchSize int
}

// =============================================================================
// Interface Implementations
// =============================================================================

// DatabaseConfig implementation
func (c *Config) GetDatabaseURL() string { return c.DatabaseURL }

// JWTConfig implementation
func (c *Config) GetJWTAccessSecret() string { return c.JWTAccessSecret }

// HTTPConfig implementation
func (c *Config) GetHTTPAddr() string      { return c.HTTPAddr }
func (c *Config) GetCORSAllowAll() bool    { return c.CORSAllowAll }
func (c *Config) GetCORSOrigins() []string { return c.CORSOrigins }
func (c *Config) GetCORSAllowCreds() bool  { return c.CORSAllowCreds }

// SchedulerConfig implementation
func (c *Config) GetRedisURL() string       { return c.RedisURL }
func (c *Config) GetRedisTLSInsecure() bool { return c.RedisTLSInsecure }
func (c *Config) GetAsynqQueueName() string { return c.AsynqQueueName }
func (c *Config) GetAsynqConcurrency() int  { return c.AsynqConcurrency }

// CRMConfig implementation
func (c *Config) GetShopMonkeyAPIKey() string  { return c.ShopMonkeyAPIKey }
func (c *Config) GetShopMonkeyBaseURL() string { return c.ShopMonkeyBaseURL }
func (c *Config) GetDemoMode() bool            { return c.DemoMode }

// EmailConfig implementation
func (c *Config) GetEmailEnabled() bool       { return c.EmailEnabled }
func (c *Config) GetSMTPHost() string         { return c.SMTPHost }
func (c *Config) GetSMTPPort() int            { return c.SMTPPort }
func (c *Config) GetSMTPUsername() string     { return c.SMTPUsername }
func (c *Config) GetSMTPPassword() string     { return c.SMTPPassword }
func (c *Config) GetEmailFromName() string    { return c.EmailFromName }
func (c *Config) GetEmailFromAddress() string { return c.EmailFromAddress }

// SMSConfig implementation
func (c *Config) GetTwilioAccountSID() string { return c.TwilioAccountSID }
func (c *Config) GetTwilioAuthToken() string  { return c.TwilioAuthToken }
func (c *Config) GetTwilioFromNumber() string { return c.TwilioFromNumber }
func (c *Config) IsSMSEnabled() bool {
	return c.TwilioAccountSID != "" && c.TwilioAuthToken != "" && c.TwilioFromNumber != ""
}

// MessagingConfig implementation
func (c *Config) GetChatBaseURL() string      { return c.ChatBaseURL }
func (c *Config) GetEmailWhitelist() []string { return c.EmailWhitelist }

// IngestionConfig implementation
func (c *Config) GetPollInterval() time.Duration { return c.PollInterval }

// ProcessorConfig implementation
func (c *Config) GetTouchPointInterval() time.Duration { return c.TouchPointInterval }
func (c *Config) GetTouchPointBatchSize() int          { return c.TouchPointBatchSize }

// WebhookConfig implementation
func (c *Config) GetWebhookSharedSecret() string { return c.WebhookSharedSecret }

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	_ = godotenv.Load()

	corsOrigins := splitCSV(getEnv("CORS_ORIGINS", "http://localhost:4200"))
	corsAllowAll := strings.EqualFold(getEnv("CORS_ALLOW_ALL", "false"), "true")
	if containsWildcard(corsOrigins) {
		corsAllowAll = true
	}

	smtpHost := getEnv("SMTP_HOST", "")
	emailEnabled := strings.EqualFold(getEnv("EMAIL_ENABLED", "true"), "true")

	cfg := &Config{
		Env:                 getEnv("APP_ENV", "development"),
		HTTPAddr:            getEnv("HTTP_ADDR", ":8080"),
		DatabaseURL:         getEnv("DATABASE_URL", ""),
		JWTAccessSecret:     getEnv("JWT_ACCESS_SECRET", ""),
		CORSAllowAll:        corsAllowAll,
		CORSOrigins:         corsOrigins,
		CORSAllowCreds:      strings.EqualFold(getEnv("CORS_ALLOW_CREDENTIALS", "true"), "true"),
		RedisURL:            getEnv("REDIS_URL", ""),
		RedisTLSInsecure:    strings.EqualFold(getEnv("REDIS_TLS_INSECURE", "false"), "true"),
		AsynqQueueName:      getEnv("ASYNQ_QUEUE", "default"),
		AsynqConcurrency:    envInt("ASYNQ_CONCURRENCY", "10"),
		ShopMonkeyAPIKey:    getEnv("SHOPMONKEY_API_KEY", ""),
		ShopMonkeyBaseURL:   getEnv("SHOPMONKEY_BASE_URL", "https://api.shopmonkey.cloud/v3"),
		DemoMode:            !strings.EqualFold(getEnv("DEMO_MODE", "true"), "false"),
		WebhookSharedSecret: getEnv("WEBHOOK_SHARED_SECRET", ""),
		EmailEnabled:        emailEnabled && smtpHost != "",
		SMTPHost:            smtpHost,
		SMTPPort:            envInt("SMTP_PORT", "587"),
		SMTPUsername:        getEnv("SMTP_USERNAME", ""),
		SMTPPassword:        getEnv("SMTP_PASSWORD", ""),
		EmailFromName:       getEnv("EMAIL_FROM_NAME", "Tint World"),
		EmailFromAddress:    getEnv("EMAIL_FROM_ADDRESS", ""),
		TwilioAccountSID:    getEnv("TWILIO_ACCOUNT_SID", ""),
		TwilioAuthToken:     getEnv("TWILIO_AUTH_TOKEN", ""),
		TwilioFromNumber:    getEnv("TWILIO_PHONE_NUMBER", ""),
		ChatBaseURL:         getEnv("CHAT_BASE_URL", "https://chat.tintworld.com"),
		EmailWhitelist:      lowercaseAll(splitCSV(getEnv("LEAD_EMAIL_WHITELIST", ""))),
		PollInterval:        envDuration("POLL_INTERVAL", "30s"),
		TouchPointInterval:  envDuration("TOUCH_POINT_INTERVAL", "10s"),
		TouchPointBatchSize: envInt("TOUCH_POINT_BATCH_SIZE", "50"),
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && strings.TrimSpace(value) != "" {
		return value
	}
	return fallback
}

// envDuration reads a duration variable, falling back to the default when
// the value is missing or malformed. A zero interval would panic the ticker
// loops, so a bad value must never parse to zero.
func envDuration(key, fallback string) time.Duration {
	if parsed, err := time.ParseDuration(getEnv(key, fallback)); err == nil {
		return parsed
	}
	parsed, _ := time.ParseDuration(fallback)
	return parsed
}

// envInt reads an integer variable, falling back to the default when the
// value is missing or malformed.
func envInt(key, fallback string) int {
	if parsed, err := strconv.Atoi(getEnv(key, fallback)); err == nil {
		return parsed
	}
	parsed, _ := strconv.Atoi(fallback)
	return parsed
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

func lowercaseAll(values []string) []string {
	results := make([]string, 0, len(values))
	for _, value := range values {
		results = append(results, strings.ToLower(value))
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
