package config

import (
	"fmt"
	"strings"
)

// ValidationError represents a configuration validation error
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationErrors collects every missing or malformed value in one pass
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	lines := make([]string, 0, len(e))
	for _, v := range e {
		lines = append(lines, v.Error())
	}
	return strings.Join(lines, "\n")
}

type requirement struct {
	field string
	value func(*Config) string
}

var (
	baseRequirements = []requirement{
		{"TELEGRAM_BOT_TOKEN", func(c *Config) string { return c.TelegramToken }},
		{"GIGACHAT_API_KEY", func(c *Config) string { return c.GigaChatAPIKey }},
		{"DB_HOST", func(c *Config) string { return c.DBHost }},
		{"DB_NAME", func(c *Config) string { return c.DBName }},
	}

	// Environment-specific requirements on top of the base set
	requirements = map[Environment][]requirement{
		Development: nil,
		Test:        nil,
		CI: {
			{"DB_PASSWORD", func(c *Config) string { return c.DBPassword }},
		},
		Production: {
			{"DB_PASSWORD", func(c *Config) string { return c.DBPassword }},
			{"JWT_SECRET", func(c *Config) string { return c.JWTSecret }},
			{"REDIS_PASSWORD", func(c *Config) string { return c.RedisPassword }},
		},
	}
)

// ValidateConfig checks if the configuration meets the requirements for the current environment
func ValidateConfig(cfg *Config) error {
	env := GetEnvironment()

	var errs ValidationErrors
	for _, req := range append(append([]requirement{}, baseRequirements...), requirements[env]...) {
		if strings.TrimSpace(req.value(cfg)) == "" {
			errs = append(errs, ValidationError{Field: req.field, Message: "is required"})
		}
	}

	if cfg.GigaChatRetries < 1 {
		errs = append(errs, ValidationError{Field: "GIGACHAT_RETRIES", Message: "must be at least 1"})
	}
	if cfg.RecognitionLimit < 0 || cfg.RecommendationLimit < 0 || cfg.APIRateLimit < 0 {
		errs = append(errs, ValidationError{Field: "RATE_LIMIT", Message: "must not be negative"})
	}
	if cfg.S3Bucket != "" && cfg.S3Endpoint != "" && (cfg.S3AccessKey == "" || cfg.S3SecretKey == "") {
		errs = append(errs, ValidationError{Field: "S3_ACCESS_KEY", Message: "static credentials are required with a custom endpoint"})
	}
	if _, err := cfg.Location(); err != nil {
		errs = append(errs, ValidationError{Field: "TIMEZONE", Message: err.Error()})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}
