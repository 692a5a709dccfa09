package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

type DBConfig struct {
	Host            string
	Port            int
	User            string
	Password        string
	Name            string
	SSLMode         string
	TimeZone        string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifeTime int // минут
}

func LoadDBConfig() (*DBConfig, error) {
	cfg := &DBConfig{
		Host:            getEnv("DB_HOST", "postgres"),
		User:            getEnv("DB_USER", "healthcare"),
		Password:        getEnv("DB_PASSWORD", "healthcare"),
		Name:            getEnv("DB_NAME", "healthcare_db"),
		SSLMode:         getEnv("DB_SSLMODE", "disable"),
		TimeZone:        getEnv("DB_TIMEZONE", "UTC"),
		Port:            getEnvInt("DB_PORT", 5432),
		MaxOpenConns:    getEnvInt("DB_MAX_OPEN_CONNS", 10),
		MaxIdleConns:    getEnvInt("DB_MAX_IDLE_CONNS", 5),
		ConnMaxLifeTime: getEnvInt("DB_CONN_MAX_LIFETIME_MIN", 30),
	}

	// минимальная валидация
	if cfg.Host == "" || cfg.User == "" || cfg.Name == "" {
		return nil, fmt.Errorf("invalid DB config: host/user/name must not be empty")
	}

	return cfg, nil
}

// AppConfig — конфигурация HTTP-слоя, токенов и фоновых задач.
type AppConfig struct {
	HTTPAddr    string
	JWTSecret   string
	TokenTTL    time.Duration
	RateLimit   float64 // запросов в секунду на клиента
	ClosedDay   time.Weekday
	OpenHour    int
	CloseHour   int

	ReminderHour  int
	PurgeWeekday  time.Weekday
	PurgeHour     int
	RetentionDays int

	SMTPHost     string
	SMTPPort     int
	SMTPFrom     string
	SMTPPassword string
}

func LoadAppConfig() (*AppConfig, error) {
	cfg := &AppConfig{
		HTTPAddr:      getEnv("HTTP_ADDR", ":8080"),
		JWTSecret:     getEnv("JWT_SECRET", ""),
		TokenTTL:      time.Duration(getEnvInt("TOKEN_TTL_MIN", 60)) * time.Minute,
		RateLimit:     float64(getEnvInt("RATE_LIMIT_RPS", 20)),
		ClosedDay:     time.Weekday(getEnvInt("CLINIC_CLOSED_WEEKDAY", int(time.Friday))),
		OpenHour:      getEnvInt("CLINIC_OPEN_HOUR", 9),
		CloseHour:     getEnvInt("CLINIC_CLOSE_HOUR", 18),
		ReminderHour:  getEnvInt("REMINDER_HOUR_UTC", 9),
		PurgeWeekday:  time.Weekday(getEnvInt("PURGE_WEEKDAY", int(time.Sunday))),
		PurgeHour:     getEnvInt("PURGE_HOUR_UTC", 2),
		RetentionDays: getEnvInt("CANCELLED_RETENTION_DAYS", 30),
		SMTPHost:      getEnv("SMTP_SERVER", "smtp.gmail.com"),
		SMTPPort:      getEnvInt("SMTP_PORT", 587),
		SMTPFrom:      getEnv("SENDER_EMAIL", ""),
		SMTPPassword:  getEnv("SENDER_PASSWORD", ""),
	}

	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("invalid app config: JWT_SECRET must be set")
	}
	if cfg.OpenHour < 0 || cfg.CloseHour > 24 || cfg.OpenHour >= cfg.CloseHour {
		return nil, fmt.Errorf("invalid app config: bad business hours %d-%d", cfg.OpenHour, cfg.CloseHour)
	}

	return cfg, nil
}

func getEnv(key, def string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) int {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		i, err := strconv.Atoi(v)
		if err == nil {
			return i
		}
	}
	return def
}
