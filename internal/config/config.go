package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Имена поддерживаемых источников данных.
const (
	SourcePostgres = "postgres"
	SourceFixture  = "fixture"
)

// DatabaseConfig описывает подключение к PostgreSQL.
type DatabaseConfig struct {
	Driver   string `yaml:"driver"`
	Host     string `yaml:"host"`
	Port     string `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Name     string `yaml:"name"`
}

// Config описывает настройки одного запуска: домен по умолчанию,
// источник снимка данных и параметры вывода.
type Config struct {
	DefaultDomain string         `yaml:"default_domain"`
	Source        string         `yaml:"source"`
	FixturePath   string         `yaml:"fixture_path"`
	Output        string         `yaml:"output"`
	LogLevel      string         `yaml:"log_level"`
	Database      DatabaseConfig `yaml:"database"`
}

// LoadConfig читает конфигурацию: значения по умолчанию, затем YAML-файл
// (если указан путь), затем переменные окружения поверх.
func LoadConfig(path string) (Config, error) {
	// .env необязателен: переменные окружения могут прийти извне
	_ = godotenv.Load()

	cfg := Config{
		DefaultDomain: "example.com",
		Source:        SourcePostgres,
		LogLevel:      "info",
		Database: DatabaseConfig{
			Driver:   "pgx",
			Host:     "localhost",
			Port:     "5432",
			User:     "postgres",
			Password: "password",
			Name:     "mailrouting",
		},
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	cfg.DefaultDomain = getEnv("MAIL_DEFAULT_DOMAIN", cfg.DefaultDomain)
	cfg.Source = getEnv("MAIL_SOURCE", cfg.Source)
	cfg.Database.Host = getEnv("DB_HOST", cfg.Database.Host)
	cfg.Database.Port = getEnv("DB_PORT", cfg.Database.Port)
	cfg.Database.User = getEnv("DB_USER", cfg.Database.User)
	cfg.Database.Password = getEnv("DB_PASSWORD", cfg.Database.Password)
	cfg.Database.Name = getEnv("DB_NAME", cfg.Database.Name)

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate проверяет согласованность настроек.
func (c Config) Validate() error {
	if c.DefaultDomain == "" {
		return fmt.Errorf("default_domain is required")
	}
	switch c.Source {
	case SourcePostgres, SourceFixture:
	default:
		return fmt.Errorf("unknown source %q, expected %q or %q", c.Source, SourcePostgres, SourceFixture)
	}
	if c.Source == SourceFixture && c.FixturePath == "" {
		return fmt.Errorf("fixture_path is required for source %q", SourceFixture)
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
