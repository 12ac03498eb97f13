package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration loaded from environment.
type Config struct {
	Kafka struct {
		Broker  string
		Topic   string
		GroupID string
	}
	DB struct {
		DSN string
	}
	Logging struct {
		Dir   string
		Level string
	}
	API struct {
		Port     string
		BasePath string
	}
	Notification struct {
		QueueSize  int
		MaxWorkers int
	}
	Orchestration struct {
		Budget          time.Duration
		RefreshInterval time.Duration
	}
	Escalation struct {
		Condition string
		Priority  string
	}
	Telegram struct {
		BotToken  string
		ChatID    int64
		RateLimit int
	}
	Email struct {
		SMTPServer string
		SMTPPort   int
		Username   string
		Password   string
		To         string
	}
	SMS struct {
		AccountSID string
		AuthToken  string
		FromNumber string
		To         string
	}
}

// Load reads environment variables, applies defaults, and returns a Config.
func Load() (Config, error) {
	// Load .env if present
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return Config{}, fmt.Errorf("failed to load .env file: %w", err)
	}
	return FromEnv(os.Getenv)
}

// FromEnv builds a Config from a lookup function.
func FromEnv(getenv func(string) string) (Config, error) {
	var cfg Config

	// Kafka settings
	cfg.Kafka.Broker = getenv("KAFKA_BROKER")
	cfg.Kafka.Topic = getenv("KAFKA_TOPIC")
	cfg.Kafka.GroupID = getenv("KAFKA_GROUP_ID")

	// Database DSN, empty selects the in-memory store
	cfg.DB.DSN = getenv("DB_DSN")

	cfg.Logging.Dir = getenv("LOG_DIR")
	cfg.Logging.Level = getenv("LOG_LEVEL")

	// API settings
	cfg.API.Port = getenv("API_PORT")
	cfg.API.BasePath = getenv("API_BASE_PATH")

	// Worker settings
	if qs, err := strconv.Atoi(getenv("QUEUE_SIZE")); err == nil {
		cfg.Notification.QueueSize = qs
	}
	if mw, err := strconv.Atoi(getenv("MAX_WORKERS")); err == nil {
		cfg.Notification.MaxWorkers = mw
	}

	var invalid []string
	if v := getenv("ORCHESTRATION_BUDGET"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d <= 0 {
			invalid = append(invalid, "ORCHESTRATION_BUDGET")
		}
		cfg.Orchestration.Budget = d
	}
	if v := getenv("REFRESH_INTERVAL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d <= 0 {
			invalid = append(invalid, "REFRESH_INTERVAL")
		}
		cfg.Orchestration.RefreshInterval = d
	}

	cfg.Escalation.Condition = getenv("ESCALATION_CONDITION")
	cfg.Escalation.Priority = getenv("ESCALATION_PRIORITY")

	// Telegram settings
	cfg.Telegram.BotToken = getenv("TELEGRAM_BOT_TOKEN")
	if v := getenv("TELEGRAM_CHAT_ID"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			invalid = append(invalid, "TELEGRAM_CHAT_ID")
		}
		cfg.Telegram.ChatID = id
	}
	if rl, err := strconv.Atoi(getenv("TELEGRAM_RATE_LIMIT")); err == nil {
		cfg.Telegram.RateLimit = rl
	}

	// Email settings
	cfg.Email.SMTPServer = getenv("EMAIL_SMTP_SERVER")
	if p, err := strconv.Atoi(getenv("EMAIL_SMTP_PORT")); err == nil {
		cfg.Email.SMTPPort = p
	}
	cfg.Email.Username = getenv("EMAIL_USERNAME")
	cfg.Email.Password = getenv("EMAIL_PASSWORD")
	cfg.Email.To = getenv("ESCALATION_EMAIL_TO")

	// SMS settings (Twilio)
	cfg.SMS.AccountSID = getenv("SMS_ACCOUNT_SID")
	cfg.SMS.AuthToken = getenv("SMS_AUTH_TOKEN")
	cfg.SMS.FromNumber = getenv("SMS_FROM_NUMBER")
	cfg.SMS.To = getenv("ESCALATION_SMS_TO")

	// Validate settings
	if cfg.Kafka.Broker != "" && cfg.Kafka.Topic == "" {
		invalid = append(invalid, "KAFKA_TOPIC")
	}
	switch cfg.Escalation.Condition {
	case "", "EQ", "NEQ", "GT", "GTE", "LT", "LTE":
	default:
		invalid = append(invalid, "ESCALATION_CONDITION")
	}
	if len(invalid) > 0 {
		return Config{}, fmt.Errorf("missing or invalid configurations: %v", invalid)
	}

	// Apply defaults
	if cfg.Kafka.GroupID == "" {
		cfg.Kafka.GroupID = "notification-orchestrator"
	}
	if cfg.Logging.Dir == "" {
		cfg.Logging.Dir = "logs"
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.API.Port == "" {
		cfg.API.Port = ":8080"
	}
	if cfg.API.BasePath == "" {
		cfg.API.BasePath = "/api/v0"
	}
	if cfg.Notification.QueueSize == 0 {
		cfg.Notification.QueueSize = 500
	}
	if cfg.Notification.MaxWorkers == 0 {
		cfg.Notification.MaxWorkers = 4
	}
	if cfg.Orchestration.Budget == 0 {
		cfg.Orchestration.Budget = 250 * time.Millisecond
	}
	if cfg.Orchestration.RefreshInterval == 0 {
		cfg.Orchestration.RefreshInterval = 30 * time.Second
	}
	if cfg.Escalation.Condition == "" {
		cfg.Escalation.Condition = "GTE"
	}
	if cfg.Escalation.Priority == "" {
		cfg.Escalation.Priority = "high"
	}
	if cfg.Telegram.RateLimit == 0 {
		cfg.Telegram.RateLimit = 1
	}

	return cfg, nil
}
