package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

// Config содержит все конфигурационные параметры шлюза
type Config struct {
	ElevenLabs    ElevenLabsConfig
	Transcription TranscriptionConfig
	AI            AIConfig
	Database      DatabaseConfig
	Cache         CacheConfig
	HTTP          HTTPConfig
	App           AppConfig
}

// ElevenLabsConfig содержит настройки провайдера синтеза речи
type ElevenLabsConfig struct {
	APIKey          string
	BaseURL         string
	ModelID         string
	DefaultVoiceID  string
	OutputFormat    string
	Stability       float64
	SimilarityBoost float64
	Style           float64
}

// TranscriptionConfig содержит настройки распознавания речи
type TranscriptionConfig struct {
	Provider      string // placeholder, whisper
	WhisperAPIURL string
}

// AIConfig содержит настройки диалогового бэкенда
type AIConfig struct {
	Provider     string // placeholder, openai, deepseek, openrouter
	Model        string
	APIKey       string
	BaseURL      string
	MaxTokens    int
	Temperature  float64
	SystemPrompt string
}

// DatabaseConfig настройки журнала использования. Пустой Host отключает журнал.
type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Name     string
	SSLMode  string
}

// CacheConfig настройки кеша синтезированного аудио. Пустой Addr отключает кеш.
type CacheConfig struct {
	Addr     string
	Username string
	Password string
	DB       int
	TTL      time.Duration
}

// HTTPConfig содержит настройки HTTP сервера
type HTTPConfig struct {
	AllowedOrigins  []string
	RateLimit       int // запросов в минуту с одного IP, 0 отключает
	MaxUploadBytes  int64
	ProviderTimeout time.Duration
}

type AppConfig struct {
	Env            string
	LogLevel       string
	Port           int
	UsageRetention time.Duration
}

// Load загружает конфигурацию из переменных окружения и .env
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}

	// ElevenLabs
	cfg.ElevenLabs.APIKey = os.Getenv("ELEVENLABS_API_KEY")
	cfg.ElevenLabs.BaseURL = getEnvDefault("ELEVENLABS_BASE_URL", "https://api.elevenlabs.io")
	cfg.ElevenLabs.ModelID = getEnvDefault("ELEVENLABS_MODEL_ID", "eleven_multilingual_v2")
	cfg.ElevenLabs.DefaultVoiceID = getEnvDefault("ELEVENLABS_VOICE_ID", "pNInz6obpgDQGcFmaJgB")
	cfg.ElevenLabs.OutputFormat = getEnvDefault("ELEVENLABS_OUTPUT_FORMAT", "mp3_44100_128")
	cfg.ElevenLabs.Stability = getEnvFloatDefault("ELEVENLABS_STABILITY", 0.1)
	cfg.ElevenLabs.SimilarityBoost = getEnvFloatDefault("ELEVENLABS_SIMILARITY_BOOST", 0.3)
	cfg.ElevenLabs.Style = getEnvFloatDefault("ELEVENLABS_STYLE", 0.2)

	// Распознавание речи
	cfg.Transcription.Provider = getEnvDefault("TRANSCRIBER", "placeholder")
	cfg.Transcription.WhisperAPIURL = getEnvDefault("WHISPER_API_URL", "http://whisper:9000")

	// AI
	cfg.AI.Provider = getEnvDefault("AI_PROVIDER", "placeholder")
	cfg.AI.Model = getEnvDefault("AI_MODEL", defaultModel(cfg.AI.Provider))
	cfg.AI.APIKey = os.Getenv("AI_API_KEY")
	cfg.AI.BaseURL = getEnvDefault("AI_BASE_URL", defaultBaseURL(cfg.AI.Provider))
	cfg.AI.MaxTokens = getEnvIntDefault("AI_MAX_TOKENS", 300)
	cfg.AI.Temperature = getEnvFloatDefault("AI_TEMPERATURE", 0.7)
	cfg.AI.SystemPrompt = os.Getenv("AI_SYSTEM_PROMPT")

	// Database
	cfg.Database.Host = os.Getenv("DB_HOST")
	cfg.Database.Port = getEnvIntDefault("DB_PORT", 5432)
	cfg.Database.User = os.Getenv("DB_USER")
	cfg.Database.Password = os.Getenv("DB_PASSWORD")
	cfg.Database.Name = os.Getenv("DB_NAME")
	cfg.Database.SSLMode = getEnvDefault("DB_SSL_MODE", "disable")

	// Cache
	cfg.Cache.Addr = os.Getenv("CACHE_ADDR")
	cfg.Cache.Username = os.Getenv("CACHE_USERNAME")
	cfg.Cache.Password = os.Getenv("CACHE_PASSWORD")
	cfg.Cache.DB = getEnvIntDefault("CACHE_DB", 0)
	cfg.Cache.TTL = getEnvDurationDefault("CACHE_TTL", 24*time.Hour)

	// HTTP
	cfg.HTTP.AllowedOrigins = getEnvListDefault("CORS_ALLOWED_ORIGINS", []string{"*"})
	cfg.HTTP.RateLimit = getEnvIntDefault("RATE_LIMIT_PER_MINUTE", 60)
	cfg.HTTP.MaxUploadBytes = int64(getEnvIntDefault("MAX_UPLOAD_BYTES", 20<<20))
	cfg.HTTP.ProviderTimeout = getEnvDurationDefault("PROVIDER_TIMEOUT", 30*time.Second)

	// App
	cfg.App.Env = getEnvDefault("APP_ENV", "development")
	cfg.App.LogLevel = getEnvDefault("LOG_LEVEL", "info")
	cfg.App.Port = getEnvIntDefault("APP_PORT", 8080)
	cfg.App.UsageRetention = getEnvDurationDefault("USAGE_RETENTION", 30*24*time.Hour)

	if err := validateConfig(cfg); err != nil {
		return nil, fmt.Errorf("ошибка валидации конфигурации: %w", err)
	}

	return cfg, nil
}

func defaultModel(provider string) string {
	switch provider {
	case "deepseek":
		return "deepseek-chat"
	case "openrouter":
		return "deepseek/deepseek-r1-0528:free"
	case "openai":
		return "gpt-4o-mini"
	default:
		return ""
	}
}

func defaultBaseURL(provider string) string {
	switch provider {
	case "deepseek":
		return "https://api.deepseek.com/v1"
	case "openrouter":
		return "https://openrouter.ai/api/v1"
	default:
		return ""
	}
}

func getEnvDefault(key, def string) string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	return v
}

func getEnvIntDefault(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return i
}

func getEnvFloatDefault(key string, def float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return def
	}
	return f
}

func getEnvBoolDefault(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

func getEnvDurationDefault(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def
	}
	return d
}

func getEnvListDefault(key string, def []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	var out []string
	for _, item := range strings.Split(v, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	if len(out) == 0 {
		return def
	}
	return out
}

// validateConfig проверяет корректность конфигурации
func validateConfig(config *Config) error {
	if config.ElevenLabs.APIKey == "" {
		return fmt.Errorf("ELEVENLABS_API_KEY не установлен")
	}
	switch config.Transcription.Provider {
	case "placeholder":
	case "whisper":
		if config.Transcription.WhisperAPIURL == "" {
			return fmt.Errorf("WHISPER_API_URL не установлен")
		}
	default:
		return fmt.Errorf("поддерживаются только TRANSCRIBER: placeholder, whisper")
	}
	switch config.AI.Provider {
	case "placeholder":
	case "openai", "deepseek", "openrouter":
		if config.AI.APIKey == "" {
			return fmt.Errorf("AI_API_KEY не установлен")
		}
	default:
		return fmt.Errorf("поддерживаются только AI_PROVIDER: placeholder, openai, deepseek, openrouter")
	}
	if config.Database.Enabled() {
		if config.Database.User == "" {
			return fmt.Errorf("DB_USER не установлен")
		}
		if config.Database.Name == "" {
			return fmt.Errorf("DB_NAME не установлен")
		}
	}
	if config.HTTP.ProviderTimeout <= 0 {
		return fmt.Errorf("PROVIDER_TIMEOUT должен быть положительным")
	}

	return nil
}

// Enabled сообщает, настроен ли журнал использования
func (c *DatabaseConfig) Enabled() bool {
	return c.Host != ""
}

// GetDSN возвращает строку подключения к базе данных
func (c *DatabaseConfig) GetDSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode)
}

// GetURL возвращает DSN в URL-форме для database/sql
func (c *DatabaseConfig) GetURL() string {
	return fmt.Sprintf("postgresql://%s:%s@%s:%d/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.Name, c.SSLMode)
}

// Enabled сообщает, настроен ли кеш аудио
func (c *CacheConfig) Enabled() bool {
	return c.Addr != ""
}

// IsDevelopment проверяет, запущено ли приложение в режиме разработки
func (c *AppConfig) IsDevelopment() bool {
	return c.Env == "development"
}

// IsProduction проверяет, запущено ли приложение в продакшн режиме
func (c *AppConfig) IsProduction() bool {
	return c.Env == "production"
}

// GetLogLevel возвращает уровень логирования в формате zap
func (c *AppConfig) GetLogLevel() zap.AtomicLevel {
	switch c.LogLevel {
	case "debug":
		return zap.NewAtomicLevelAt(zap.DebugLevel)
	case "info":
		return zap.NewAtomicLevelAt(zap.InfoLevel)
	case "warn":
		return zap.NewAtomicLevelAt(zap.WarnLevel)
	case "error":
		return zap.NewAtomicLevelAt(zap.ErrorLevel)
	default:
		return zap.NewAtomicLevelAt(zap.InfoLevel)
	}
}
