package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	TelegramToken string `mapstructure:"TELEGRAM_TOKEN"`
	DBDSN         string `mapstructure:"DB_DSN"`
	Environment   string `mapstructure:"ENV"`
	Timezone      string `mapstructure:"TIMEZONE"`
	MigrationsDir string `mapstructure:"MIGRATIONS_DIR"`

	// Очередь уведомлений; пустой адрес - отправка напрямую в Telegram
	RedisAddr     string `mapstructure:"REDIS_ADDR"`
	RedisPassword string `mapstructure:"REDIS_PASSWORD"`
	RedisDB       int    `mapstructure:"REDIS_DB"`

	NotifyRatePerSec float64       `mapstructure:"NOTIFY_RATE_PER_SEC"`
	AuditInterval    time.Duration `mapstructure:"AUDIT_INTERVAL"`
}

func Load() (*Config, error) {
	// Пытаемся загрузить .env файл (игнорируем ошибку, если файла нет)
	if err := godotenv.Load(".env"); err != nil {
		log.Println("⚠️  No .env file found, using environment variables")
	} else {
		log.Println("✅ Loaded configuration from .env file")
	}

	return FromEnv()
}

// FromEnv читает конфигурацию из переменных окружения
func FromEnv() (*Config, error) {
	cfg := &Config{
		DBDSN:            os.Getenv("DB_DSN"),
		TelegramToken:    os.Getenv("TELEGRAM_TOKEN"),
		Environment:      getEnv("ENV", "development"),
		Timezone:         getEnv("TIMEZONE", "Europe/Moscow"),
		MigrationsDir:    getEnv("MIGRATIONS_DIR", "migrations"),
		RedisAddr:        os.Getenv("REDIS_ADDR"),
		RedisPassword:    os.Getenv("REDIS_PASSWORD"),
		NotifyRatePerSec: 25,
		AuditInterval:    24 * time.Hour,
	}

	// Проверяем обязательные поля
	if cfg.DBDSN == "" {
		return nil, fmt.Errorf("DB_DSN is required but not set")
	}

	if v := os.Getenv("REDIS_DB"); v != "" {
		db, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("parse REDIS_DB: %w", err)
		}
		cfg.RedisDB = db
	}

	if v := os.Getenv("NOTIFY_RATE_PER_SEC"); v != "" {
		r, err := strconv.ParseFloat(v, 64)
		if err != nil || r <= 0 {
			return nil, fmt.Errorf("NOTIFY_RATE_PER_SEC must be a positive number, got %q", v)
		}
		cfg.NotifyRatePerSec = r
	}

	if v := os.Getenv("AUDIT_INTERVAL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d <= 0 {
			return nil, fmt.Errorf("AUDIT_INTERVAL must be a positive duration, got %q", v)
		}
		cfg.AuditInterval = d
	}

	if _, err := cfg.Location(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) GetDBDSN() string {
	return c.DBDSN
}

// Location часовой пояс, в котором считаются календарные дни расписания
func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// QueueEnabled уведомления идут через asynq
func (c *Config) QueueEnabled() bool {
	return c.RedisAddr != ""
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
