// Package config загружает конфигурацию слоями: дефолты из структуры,
// затем опциональный YAML файл, затем переменные окружения.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths - пути поиска конфиг-файла в порядке приоритета.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/ristopoint/config.yaml",
}

// ServerConfig - привязка HTTP сервера.
type ServerConfig struct {
	Host string `koanf:"host"`
	Port int    `koanf:"port"`
}

// Addr возвращает адрес для http.Server.
func (c ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// PathsConfig - размещение файлов на диске. Пустые пути выводятся
// из DataDir.
type PathsConfig struct {
	DataDir    string `koanf:"data_dir"`    // каталог данных
	DataFile   string `koanf:"data_file"`   // документ сайта
	AuthFile   string `koanf:"auth_file"`   // учетные данные администратора
	UploadsDir string `koanf:"uploads_dir"` // загруженные медиа
	WebDir     string `koanf:"web_dir"`     // статика фронтенда
}

// AdminConfig - переопределения учетных данных из окружения.
type AdminConfig struct {
	Login        string `koanf:"login"`         // логин (опционально)
	PasswordSalt string `koanf:"password_salt"` // соль
	PasswordHash string `koanf:"password_hash"` // hex-хеш scrypt
	Password     string `koanf:"password"`      // устаревший плейнтекст, игнорируется
}

// SessionConfig - параметры сессий.
type SessionConfig struct {
	TTL           time.Duration `koanf:"ttl"`
	SweepInterval time.Duration `koanf:"sweep_interval"`
}

// RateLimitConfig - параметры ограничения попыток входа.
type RateLimitConfig struct {
	Window      time.Duration `koanf:"window"`
	MaxAttempts int           `koanf:"max_attempts"`
	Lockout     time.Duration `koanf:"lockout"`
}

// UploadConfig - ограничения загрузки медиа.
type UploadConfig struct {
	MaxBytes int64 `koanf:"max_bytes"`
}

// LogConfig - формат и уровень логирования.
type LogConfig struct {
	Level  string `koanf:"level"`  // debug|info|warn|error
	Format string `koanf:"format"` // text|json
}

// BotConfig - настройки Telegram бота (компаньон, не часть ядра).
type BotConfig struct {
	Token           string        `koanf:"token"`
	Username        string        `koanf:"username"`          // без @
	WebAppURL       string        `koanf:"webapp_url"`        // публичный HTTPS URL mini app
	Mode            string        `koanf:"mode"`              // polling|webhook
	PollTimeout     time.Duration `koanf:"poll_timeout"`      // long-poll таймаут
	RetryDelay      time.Duration `koanf:"retry_delay"`       // пауза после ошибки polling
	AllowedUserIDs  string        `koanf:"allowed_user_ids"`  // id через запятую, пусто = без ограничений
	WebhookBaseURL  string        `koanf:"webhook_base_url"`  // публичная база webhook URL
	WebhookPath     string        `koanf:"webhook_path"`      // путь webhook (выводится из токена если пуст)
	WebhookSecret   string        `koanf:"webhook_secret"`    // secret_token для Telegram
	WebhookBindHost string        `koanf:"webhook_bind_host"` // локальная привязка
	WebhookBindPort int           `koanf:"webhook_bind_port"`
}

// Config - вся конфигурация процесса.
type Config struct {
	Server    ServerConfig    `koanf:"server"`
	Paths     PathsConfig     `koanf:"paths"`
	Admin     AdminConfig     `koanf:"admin"`
	Session   SessionConfig   `koanf:"session"`
	RateLimit RateLimitConfig `koanf:"rate_limit"`
	Upload    UploadConfig    `koanf:"upload"`
	Log       LogConfig       `koanf:"log"`
	Bot       BotConfig       `koanf:"bot"`
}

// defaultConfig возвращает конфигурацию со всеми дефолтами.
func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 3000,
		},
		Paths: PathsConfig{
			DataDir: "data",
			WebDir:  "web",
		},
		Session: SessionConfig{
			TTL:           12 * time.Hour,
			SweepInterval: 5 * time.Minute,
		},
		RateLimit: RateLimitConfig{
			Window:      15 * time.Minute,
			MaxAttempts: 7,
			Lockout:     20 * time.Minute,
		},
		Upload: UploadConfig{
			MaxBytes: 8 * 1024 * 1024,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Bot: BotConfig{
			Mode:            "polling",
			PollTimeout:     30 * time.Second,
			RetryDelay:      1800 * time.Millisecond,
			WebhookBindHost: "127.0.0.1",
			WebhookBindPort: 3099,
		},
	}
}

// envMappings задает явное соответствие переменных окружения путям
// конфигурации. Неизвестные переменные игнорируются.
var envMappings = map[string]string{
	"RISTO_HOST":                  "server.host",
	"RISTO_PORT":                  "server.port",
	"RISTO_DATA_DIR":              "paths.data_dir",
	"RISTO_WEB_DIR":               "paths.web_dir",
	"RISTO_ADMIN_LOGIN":           "admin.login",
	"RISTO_ADMIN_PASSWORD_SALT":   "admin.password_salt",
	"RISTO_ADMIN_PASSWORD_HASH":   "admin.password_hash",
	"RISTO_ADMIN_PASSWORD":        "admin.password",
	"RISTO_LOG_LEVEL":             "log.level",
	"RISTO_LOG_FORMAT":            "log.format",
	"RISTO_BOT_TOKEN":             "bot.token",
	"RISTO_BOT_USERNAME":          "bot.username",
	"RISTO_WEBAPP_URL":            "bot.webapp_url",
	"RISTO_BOT_MODE":              "bot.mode",
	"RISTO_BOT_POLL_TIMEOUT":      "bot.poll_timeout",
	"RISTO_BOT_RETRY_DELAY":       "bot.retry_delay",
	"RISTO_BOT_ALLOWED_USER_IDS":  "bot.allowed_user_ids",
	"RISTO_BOT_WEBHOOK_BASE_URL":  "bot.webhook_base_url",
	"RISTO_BOT_WEBHOOK_PATH":      "bot.webhook_path",
	"RISTO_BOT_WEBHOOK_SECRET":    "bot.webhook_secret",
	"RISTO_BOT_WEBHOOK_BIND_HOST": "bot.webhook_bind_host",
	"RISTO_BOT_WEBHOOK_PORT":      "bot.webhook_bind_port",
}

// Load собирает конфигурацию: дефолты -> YAML файл (опционально) ->
// окружение. configPath="" включает поиск по DefaultConfigPaths.
func Load(configPath string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if configPath == "" {
		configPath = findConfigFile()
	}
	if configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	envProvider := env.Provider("RISTO_", ".", func(name string) string {
		return envMappings[name]
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	cfg.applyPathDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyPathDefaults выводит файловые пути из DataDir, если они
// не заданы явно.
func (c *Config) applyPathDefaults() {
	if c.Paths.DataFile == "" {
		c.Paths.DataFile = filepath.Join(c.Paths.DataDir, "site-data.json")
	}
	if c.Paths.AuthFile == "" {
		c.Paths.AuthFile = filepath.Join(c.Paths.DataDir, "admin-auth.json")
	}
	if c.Paths.UploadsDir == "" {
		c.Paths.UploadsDir = filepath.Join(c.Paths.DataDir, "uploads")
	}
}

// Validate проверяет согласованность значений.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	if c.Session.TTL <= 0 {
		return fmt.Errorf("session ttl must be positive, got %s", c.Session.TTL)
	}
	if c.RateLimit.MaxAttempts < 1 {
		return fmt.Errorf("rate limit max attempts must be at least 1, got %d", c.RateLimit.MaxAttempts)
	}
	if c.Upload.MaxBytes <= 0 {
		return fmt.Errorf("upload max bytes must be positive, got %d", c.Upload.MaxBytes)
	}
	switch c.Bot.Mode {
	case "polling", "webhook":
	default:
		return fmt.Errorf("bot mode must be polling or webhook, got %q", c.Bot.Mode)
	}
	return nil
}

// findConfigFile возвращает первый существующий путь из
// DefaultConfigPaths или пустую строку.
func findConfigFile() string {
	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}
