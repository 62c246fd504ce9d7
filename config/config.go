package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"aoi-workspace/internal/domain/entity"
)

type Config struct {
	TelegramToken  string
	InspectionURL  string
	ConsoleAddr    string
	LogLevel       string
	RequestTimeout time.Duration
	CORSOrigins    []string

	// Значения формы для новой сессии
	DefaultPSM       string
	DefaultAdaptive  bool
	DefaultWhitelist string
}

// Load читает .env, переменные окружения и, если указан, файл конфигурации.
func Load(path string) (*Config, error) {
	// Загружаем .env файл (игнорируем ошибку если файла нет)
	_ = godotenv.Load()

	v := viper.New()
	v.SetDefault("INSPECTION_URL", "http://localhost:8000")
	v.SetDefault("CONSOLE_ADDR", ":8080")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("REQUEST_TIMEOUT", "60s")
	v.SetDefault("CORS_ORIGINS", "*")
	v.SetDefault("DEFAULT_PSM", "6")
	v.SetDefault("DEFAULT_ADAPTIVE", true)
	v.SetDefault("DEFAULT_WHITELIST", entity.DefaultWhitelist)
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	timeout, err := time.ParseDuration(v.GetString("REQUEST_TIMEOUT"))
	if err != nil {
		return nil, fmt.Errorf("invalid REQUEST_TIMEOUT: %w", err)
	}

	cfg := &Config{
		TelegramToken:    v.GetString("TELEGRAM_TOKEN"),
		InspectionURL:    strings.TrimSpace(v.GetString("INSPECTION_URL")),
		ConsoleAddr:      v.GetString("CONSOLE_ADDR"),
		LogLevel:         v.GetString("LOG_LEVEL"),
		RequestTimeout:   timeout,
		CORSOrigins:      splitList(v.GetString("CORS_ORIGINS")),
		DefaultPSM:       strings.TrimSpace(v.GetString("DEFAULT_PSM")),
		DefaultAdaptive:  v.GetBool("DEFAULT_ADAPTIVE"),
		DefaultWhitelist: v.GetString("DEFAULT_WHITELIST"),
	}

	if err := entity.ValidatePSM(cfg.DefaultPSM); err != nil {
		return nil, fmt.Errorf("DEFAULT_PSM: %w", err)
	}

	return cfg, nil
}

// Defaults возвращает параметры формы для новой сессии без выбранной детали.
func (c *Config) Defaults() entity.InspectionParameters {
	return entity.InspectionParameters{
		PSM:       c.DefaultPSM,
		Adaptive:  c.DefaultAdaptive,
		Whitelist: c.DefaultWhitelist,
	}
}

func splitList(s string) []string {
	var out []string
	for _, item := range strings.Split(s, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
