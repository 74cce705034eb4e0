package config

import (
	"os"
	"strconv"
)

// Config holds the whole application configuration, populated from
// environment variables (optionally via a .env file loaded in main).
type Config struct {
	App      AppConfig      `json:"app"`
	Database DatabaseConfig `json:"database"`
	Backup   BackupConfig   `json:"backup"`
	Redis    RedisConfig    `json:"redis"`
	JWT      JWTConfig      `json:"jwt"`
	Telegram TelegramConfig `json:"telegram"`
	Report   ReportConfig   `json:"report"`
}

type AppConfig struct {
	Port         string `json:"port"`
	ProfilesPath string `json:"profiles_path"`
	Debug        bool   `json:"debug"`
}

type DatabaseConfig struct {
	Path string `json:"path"`
}

type BackupConfig struct {
	Dir            string `json:"dir"`
	RetentionCount int    `json:"retention_count"`
	// Cron spec for the nightly automatic backup. Empty disables scheduling.
	Schedule string `json:"schedule"`
}

type RedisConfig struct {
	Addr     string `json:"addr"`
	Password string `json:"password"`
	DB       int    `json:"db"`
}

type JWTConfig struct {
	Secret       string `json:"secret"`
	ExpiresHours int    `json:"expires_hours"`
}

type TelegramConfig struct {
	BotToken string `json:"bot_token"`
	ChatID   int64  `json:"chat_id"`
	// Devices due within this many days are included in reminders.
	ReminderHorizonDays int `json:"reminder_horizon_days"`
}

type ReportConfig struct {
	LogoPath string `json:"logo_path"`
	OutDir   string `json:"out_dir"`
}

// Load reads the configuration from the environment.
func Load() *Config {
	return &Config{
		App: AppConfig{
			Port:         getEnv("SERVER_PORT", "8080"),
			ProfilesPath: getEnv("PROFILES_PATH", "profiles.json"),
			Debug:        getEnvBool("APP_DEBUG", false),
		},
		Database: DatabaseConfig{
			Path: getEnv("DB_PATH", "verifiche.db"),
		},
		Backup: BackupConfig{
			Dir:            getEnv("BACKUP_DIR", "backups"),
			RetentionCount: getEnvInt("BACKUP_RETENTION_COUNT", 10),
			Schedule:       getEnv("BACKUP_SCHEDULE", "0 3 * * *"),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", ""),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
		},
		JWT: JWTConfig{
			Secret:       getEnv("JWT_SECRET", "stm-dev-secret"),
			ExpiresHours: getEnvInt("JWT_EXPIRES_HOURS", 12),
		},
		Telegram: TelegramConfig{
			BotToken:            getEnv("TELEGRAM_BOT_TOKEN", ""),
			ChatID:              getEnvInt64("TELEGRAM_CHAT_ID", 0),
			ReminderHorizonDays: getEnvInt("REMINDER_HORIZON_DAYS", 30),
		},
		Report: ReportConfig{
			LogoPath: getEnv("REPORT_LOGO_PATH", ""),
			OutDir:   getEnv("REPORT_OUT_DIR", "reports"),
		},
	}
}

// getEnv returns the environment variable or a default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func getEnvInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.ParseInt(value, 10, 64); err == nil {
			return n
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}
