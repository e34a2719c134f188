package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
type Config struct {
	// Server configuration
	ServerPort string
	ServerHost string

	// Database configuration
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string

	// Redis configuration
	RedisHost     string
	RedisPort     string
	RedisPassword string
	RedisDB       int
	RedisURL      string

	// JWT configuration
	JWTSecret string
	JWTTTL    time.Duration

	// Telegram
	TelegramToken      string
	TelegramWebhookURL string
	// TelegramWebhookSecret is checked against X-Telegram-Bot-Api-Secret-Token
	TelegramWebhookSecret string
	AdminID               int64

	// GigaChat
	GigaChatAPIKey       string
	GigaChatScope        string
	GigaChatAPIURL       string
	GigaChatOAuthURL     string
	GigaChatModel        string
	GigaChatVisionModel  string
	GigaChatInsecureTLS  bool
	GigaChatRetries      int
	GigaChatRetryDelay   time.Duration
	GigaChatHTTPTimeout  time.Duration
	SaluteSpeechAPIKey   string
	SaluteSpeechScope    string
	SaluteSpeechURL      string
	SaluteSpeechOAuthURL string

	// S3-compatible storage for meal photos
	S3Bucket    string
	S3Region    string
	S3Endpoint  string
	S3AccessKey string
	S3SecretKey string

	// Timezone used to cut days for statistics
	Timezone string

	// Per-user AI limits, requests per hour
	RecognitionLimit    int
	RecommendationLimit int
	// Web API calls per user per minute
	APIRateLimit int

	CORSOrigins []string
}

// LoadConfig creates a new Config instance with values from environment variables or secrets
func LoadConfig() (*Config, error) {
	env := GetEnvironment()
	cfg := &Config{}

	switch env {
	case Development, Test:
		// .env is optional outside production
		_ = godotenv.Load()
	case CI, Production:
	default:
		return nil, fmt.Errorf("unknown environment: %s", env)
	}

	if err := load(cfg); err != nil {
		return nil, fmt.Errorf("failed to load %s configuration: %w", env, err)
	}

	if err := ValidateConfig(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

func load(cfg *Config) error {
	cfg.ServerPort = value("SERVER_PORT", "8080")
	cfg.ServerHost = value("SERVER_HOST", "0.0.0.0")

	cfg.DBHost = value("DB_HOST", "localhost")
	cfg.DBPort = value("DB_PORT", "5432")
	cfg.DBUser = value("DB_USER", "postgres")
	cfg.DBPassword = value("DB_PASSWORD", "")
	cfg.DBName = value("DB_NAME", "topfit")
	cfg.DBSSLMode = value("DB_SSL_MODE", "disable")

	cfg.RedisHost = value("REDIS_HOST", "localhost")
	cfg.RedisPort = value("REDIS_PORT", "6379")
	cfg.RedisPassword = value("REDIS_PASSWORD", "")
	cfg.RedisURL = value("REDIS_URL", "")

	cfg.JWTSecret = value("JWT_SECRET", "")
	cfg.TelegramToken = value("TELEGRAM_BOT_TOKEN", "")
	cfg.TelegramWebhookURL = value("TELEGRAM_WEBHOOK_URL", "")
	cfg.TelegramWebhookSecret = value("TELEGRAM_WEBHOOK_SECRET", "")

	cfg.GigaChatAPIKey = value("GIGACHAT_API_KEY", "")
	cfg.GigaChatScope = value("GIGACHAT_SCOPE", "GIGACHAT_API_PERS")
	cfg.GigaChatAPIURL = value("GIGACHAT_API_URL", "https://gigachat.devices.sberbank.ru/api/v1")
	cfg.GigaChatOAuthURL = value("GIGACHAT_OAUTH_URL", "https://ngw.devices.sberbank.ru:9443/api/v2/oauth")
	cfg.GigaChatModel = value("GIGACHAT_MODEL", "GigaChat")
	cfg.GigaChatVisionModel = value("GIGACHAT_VISION_MODEL", "GigaChat-Max")

	cfg.SaluteSpeechAPIKey = value("SALUTE_SPEECH_API_KEY", "")
	cfg.SaluteSpeechScope = value("SALUTE_SPEECH_SCOPE", "SALUTE_SPEECH_PERS")
	cfg.SaluteSpeechURL = value("SALUTE_SPEECH_URL", "https://smartspeech.sber.ru/rest/v1")
	cfg.SaluteSpeechOAuthURL = value("SALUTE_SPEECH_OAUTH_URL", cfg.GigaChatOAuthURL)

	cfg.S3Bucket = value("S3_BUCKET_NAME", "")
	cfg.S3Region = value("AWS_REGION", "ru-central1")
	cfg.S3Endpoint = value("S3_ENDPOINT", "")
	cfg.S3AccessKey = value("S3_ACCESS_KEY", "")
	cfg.S3SecretKey = value("S3_SECRET_KEY", "")

	cfg.Timezone = value("TIMEZONE", "Europe/Moscow")

	if origins := value("CORS_ORIGINS", ""); origins != "" {
		for _, o := range strings.Split(origins, ",") {
			if o = strings.TrimSpace(o); o != "" {
				cfg.CORSOrigins = append(cfg.CORSOrigins, o)
			}
		}
	}

	var err error
	if cfg.RedisDB, err = intValue("REDIS_DB", 0); err != nil {
		return err
	}
	if cfg.AdminID, err = int64Value("ADMIN_ID", 0); err != nil {
		return err
	}
	if cfg.GigaChatRetries, err = intValue("GIGACHAT_RETRIES", 3); err != nil {
		return err
	}
	if cfg.RecognitionLimit, err = intValue("RECOGNITION_LIMIT", 30); err != nil {
		return err
	}
	if cfg.RecommendationLimit, err = intValue("RECOMMENDATION_LIMIT", 10); err != nil {
		return err
	}
	if cfg.APIRateLimit, err = intValue("API_RATE_LIMIT", 60); err != nil {
		return err
	}
	if cfg.GigaChatRetryDelay, err = durationValue("GIGACHAT_RETRY_DELAY", 2*time.Second); err != nil {
		return err
	}
	if cfg.GigaChatHTTPTimeout, err = durationValue("GIGACHAT_HTTP_TIMEOUT", 60*time.Second); err != nil {
		return err
	}
	if cfg.JWTTTL, err = durationValue("JWT_TTL", 24*time.Hour); err != nil {
		return err
	}
	cfg.GigaChatInsecureTLS, err = strconv.ParseBool(value("GIGACHAT_INSECURE_TLS", "false"))
	if err != nil {
		return fmt.Errorf("GIGACHAT_INSECURE_TLS: %w", err)
	}

	return nil
}

// DSN returns the PostgreSQL connection string
func (c *Config) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.DBHost, c.DBPort, c.DBUser, c.DBPassword, c.DBName, c.DBSSLMode,
	)
}

// Location resolves the configured timezone
func (c *Config) Location() (*time.Location, error) {
	if c.Timezone == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("failed to load timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// value looks up an environment variable, then a Docker secret named after
// the lowercased key, then falls back to def
func value(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	if v := readSecret(strings.ToLower(key)); v != "" {
		return v
	}
	return def
}

func intValue(key string, def int) (int, error) {
	raw := value(key, "")
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return n, nil
}

func int64Value(key string, def int64) (int64, error) {
	raw := value(key, "")
	if raw == "" {
		return def, nil
	}
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return n, nil
}

func durationValue(key string, def time.Duration) (time.Duration, error) {
	raw := value(key, "")
	if raw == "" {
		return def, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return d, nil
}

// readSecret reads a Docker secret from the secrets directory
func readSecret(name string) string {
	secretsDir := os.Getenv("SECRETS_DIR")
	if secretsDir == "" {
		secretsDir = "/run/secrets"
	}
	secretPath := filepath.Join(secretsDir, name)
	if data, err := os.ReadFile(secretPath); err == nil {
		return strings.TrimSpace(string(data))
	}
	return ""
}
