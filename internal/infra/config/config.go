package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// AppConfig holds all configuration for the notification engine.
type AppConfig struct {
	DatabaseURL string
	LogLevel    string
	Environment string
	Timezone    string // IANA name for the scheduler, e.g. "America/Sao_Paulo"

	// Connection pool limits.
	DBMaxOpenConns    int
	DBMaxIdleConns    int
	DBConnMaxLifetime time.Duration
	DBConnMaxIdleTime time.Duration

	// Cron specs, one per dispatch concern.
	CronOverdue       string
	CronDueToday      string
	CronMaturing      string
	CronGoalProgress  string
	CronMonthlyReport string
	CronAchievements  string
	CronAlertCheck    string

	// Dispatch tuning.
	SendDelay              time.Duration // fixed gap between consecutive sends in a cycle
	ProviderTimeout        time.Duration // per provider network call
	RecurrenceEndExclusive bool          // when true, next == end date rejects the successor
	MaturityWindowDays     int
	GoalProgressStep       int // minimum percent before a progress nudge

	// Email providers (transactional API first, SMTP fallback).
	EmailAPIURL  string
	EmailAPIKey  string
	EmailFrom    string
	SMTPHost     string
	SMTPPort     string
	SMTPUsername string
	SMTPPassword string

	// SMS carriers (primary, then secondary).
	SMSFrom             string
	SMSPrimaryURL       string
	SMSPrimaryAccount   string
	SMSPrimaryToken     string
	SMSSecondaryURL     string
	SMSSecondaryAccount string
	SMSSecondaryToken   string

	// Operator Telegram channel (optional).
	TelegramToken string
	OpsChatID     int64
}

// Load reads configuration from environment variables and .env file (if present).
func Load() (*AppConfig, error) {
	// godotenv.Load will not override existing env variables.
	_ = godotenv.Load()

	cfg := &AppConfig{}

	cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is not set")
	}

	cfg.LogLevel = strings.ToLower(getEnv("LOG_LEVEL", "info"))
	cfg.Environment = strings.ToLower(getEnv("ENVIRONMENT", "development"))
	cfg.Timezone = getEnv("TIMEZONE", "Local")

	var err error
	if cfg.DBMaxOpenConns, err = getEnvInt("DB_MAX_OPEN_CONNS", 25); err != nil {
		return nil, err
	}
	if cfg.DBMaxIdleConns, err = getEnvInt("DB_MAX_IDLE_CONNS", 25); err != nil {
		return nil, err
	}
	if cfg.DBConnMaxLifetime, err = getEnvDuration("DB_CONN_MAX_LIFETIME", 5*time.Minute); err != nil {
		return nil, err
	}
	if cfg.DBConnMaxIdleTime, err = getEnvDuration("DB_CONN_MAX_IDLE_TIME", time.Minute); err != nil {
		return nil, err
	}

	cfg.CronOverdue = getEnv("CRON_OVERDUE", "0 8 * * *")              // 8:00 daily
	cfg.CronDueToday = getEnv("CRON_DUE_TODAY", "0 9 * * *")           // 9:00 daily
	cfg.CronMaturing = getEnv("CRON_MATURING", "30 9 * * *")           // 9:30 daily
	cfg.CronGoalProgress = getEnv("CRON_GOAL_PROGRESS", "0 10 * * 1")  // Mondays 10:00
	cfg.CronMonthlyReport = getEnv("CRON_MONTHLY_REPORT", "0 7 1 * *") // 1st of month 7:00
	cfg.CronAchievements = getEnv("CRON_ACHIEVEMENTS", "0 18 * * *")   // 18:00 daily
	cfg.CronAlertCheck = getEnv("CRON_ALERT_CHECK", "*/30 * * * *")    // every 30 minutes

	if cfg.SendDelay, err = getEnvDuration("SEND_DELAY", time.Second); err != nil {
		return nil, err
	}
	if cfg.ProviderTimeout, err = getEnvDuration("PROVIDER_TIMEOUT", 10*time.Second); err != nil {
		return nil, err
	}
	cfg.RecurrenceEndExclusive = getEnv("RECURRENCE_END_EXCLUSIVE", "false") == "true"
	if cfg.MaturityWindowDays, err = getEnvInt("MATURITY_WINDOW_DAYS", 7); err != nil {
		return nil, err
	}
	if cfg.GoalProgressStep, err = getEnvInt("GOAL_PROGRESS_STEP", 75); err != nil {
		return nil, err
	}

	cfg.EmailAPIURL = os.Getenv("EMAIL_API_URL")
	cfg.EmailAPIKey = os.Getenv("EMAIL_API_KEY")
	cfg.EmailFrom = getEnv("EMAIL_FROM", "no-reply@fintrack.local")
	cfg.SMTPHost = os.Getenv("SMTP_HOST")
	cfg.SMTPPort = getEnv("SMTP_PORT", "587")
	cfg.SMTPUsername = os.Getenv("SMTP_USERNAME")
	cfg.SMTPPassword = os.Getenv("SMTP_PASSWORD")

	cfg.SMSFrom = os.Getenv("SMS_FROM")
	cfg.SMSPrimaryURL = os.Getenv("SMS_PRIMARY_URL")
	cfg.SMSPrimaryAccount = os.Getenv("SMS_PRIMARY_ACCOUNT")
	cfg.SMSPrimaryToken = os.Getenv("SMS_PRIMARY_TOKEN")
	cfg.SMSSecondaryURL = os.Getenv("SMS_SECONDARY_URL")
	cfg.SMSSecondaryAccount = os.Getenv("SMS_SECONDARY_ACCOUNT")
	cfg.SMSSecondaryToken = os.Getenv("SMS_SECONDARY_TOKEN")

	cfg.TelegramToken = os.Getenv("TELEGRAM_TOKEN")
	opsChatStr := os.Getenv("OPS_CHAT_ID")
	if opsChatStr != "" {
		cfg.OpsChatID, err = strconv.ParseInt(opsChatStr, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid OPS_CHAT_ID: %w", err)
		}
	}

	return cfg, nil
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}

func getEnvDuration(key string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}
