package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	App      AppConfig
	Database DatabaseConfig
	Ai       AIConfig
	Quota    QuotaConfig
	Nats     NatsConfig
	Redis    RedisConfig
	Tracing  TracingConfig
}

type AppConfig struct {
	Port               string
	Environment        string
	LogFilePath        string
	JWTSecret          string
	CorsAllowedOrigins string
	MessageRateLimit   int // Message sends per user per minute, 0 disables the limiter
}

type DatabaseConfig struct {
	Connection string
}

type AIConfig struct {
	Provider    string // "ollama", "openai", "anthropic"
	Model       string
	BaseURL     string
	APIKey      string
	Timeout     time.Duration
	MemoryLimit int
	MaxTokens   int
	Temperature float64
}

type QuotaConfig struct {
	FreePlanSlug  string
	FreePlanLimit int
}

type NatsConfig struct {
	URL string // Empty disables the external event log
}

type RedisConfig struct {
	Addr     string // Empty disables cross-instance fan-out
	Password string
}

type TracingConfig struct {
	Enabled  bool
	Endpoint string
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found, using system environment")
	}

	return &Config{
		App: AppConfig{
			Port:               getEnv("APP_PORT", "3000"),
			Environment:        getEnv("GO_ENV", "development"),
			LogFilePath:        getEnv("LOG_FILE_PATH", "logs/assistant.log"),
			JWTSecret:          getEnv("JWT_SECRET", ""),
			CorsAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:5173"),
			MessageRateLimit:   getEnvAsInt("MESSAGE_RATE_LIMIT", 20),
		},
		Database: DatabaseConfig{
			Connection: getEnv("DB_CONNECTION_STRING", ""),
		},
		Ai: AIConfig{
			Provider:    strings.ToLower(getEnv("LLM_PROVIDER", "ollama")),
			Model:       getEnv("LLM_MODEL", "llama3.1"),
			BaseURL:     getEnv("LLM_BASE_URL", ""),
			APIKey:      getEnv("LLM_API_KEY", ""),
			Timeout:     getEnvAsDuration("LLM_TIMEOUT", 45*time.Second),
			MemoryLimit: getEnvAsInt("ASSISTANT_MEMORY_LIMIT", 8),
			MaxTokens:   getEnvAsInt("LLM_MAX_TOKENS", 1024),
			Temperature: getEnvAsFloat("LLM_TEMPERATURE", 0.2),
		},
		Quota: QuotaConfig{
			FreePlanSlug:  getEnv("FREE_PLAN_SLUG", "free"),
			FreePlanLimit: getEnvAsInt("FREE_PLAN_MONTHLY_LIMIT", 50),
		},
		Nats: NatsConfig{
			URL: getEnv("NATS_URL", ""),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", ""),
			Password: getEnv("REDIS_PASSWORD", ""),
		},
		Tracing: TracingConfig{
			Enabled:  getEnv("OTEL_ENABLED", "false") == "true",
			Endpoint: getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4318"),
		},
	}
}

func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	strValue := getEnv(key, "")
	if value, err := strconv.Atoi(strValue); err == nil {
		return value
	}
	return fallback
}

func getEnvAsFloat(key string, fallback float64) float64 {
	strValue := getEnv(key, "")
	if value, err := strconv.ParseFloat(strValue, 64); err == nil {
		return value
	}
	return fallback
}

// getEnvAsDuration accepts Go duration strings ("30s") or plain seconds ("30").
func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	strValue := getEnv(key, "")
	if strValue == "" {
		return fallback
	}
	if d, err := time.ParseDuration(strValue); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(strValue); err == nil {
		return time.Duration(secs) * time.Second
	}
	return fallback
}
