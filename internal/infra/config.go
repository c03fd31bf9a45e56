package infra

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config represents application configuration loaded from environment variables.
type Config struct {
	AppEnv           string
	Port             string
	TokenSecret      string
	TokenTTL         time.Duration
	FreeQuota        int
	SubscriptionDays int
	AllowedOrigins   []string
	RelayProvider    string
	OpenAIAPIKey     string
	OpenAIModel      string
	OpenAIBaseURL    string
	OpenAIOrg        string
	GeminiAPIKey     string
	GeminiModel      string
	GeminiBaseURL    string
	BoldAPIKey       string
	BoldBaseURL      string
	PaymentMode      string
	HTTPReadTimeout  time.Duration
	HTTPWriteTimeout time.Duration
	HTTPIdleTimeout  time.Duration
	RateLimitPerMin  int
}

// LoadConfig loads configuration from environment variables and applies
// defaults where needed. Missing secrets are a startup failure: the process
// must not serve traffic without them.
func LoadConfig() (*Config, error) {
	cfg := &Config{
		AppEnv:           getEnv("APP_ENV", "development"),
		Port:             getEnv("PORT", "8080"),
		TokenSecret:      os.Getenv("TOKEN_SECRET"),
		TokenTTL:         time.Hour * time.Duration(getEnvInt("TOKEN_TTL_HOURS", 24)),
		FreeQuota:        getEnvInt("FREE_QUOTA", 5),
		SubscriptionDays: getEnvInt("SUBSCRIPTION_DAYS", 30),
		AllowedOrigins:   splitCSV(getEnv("ALLOWED_ORIGINS", "http://localhost:3000")),
		RelayProvider:    getEnv("RELAY_PROVIDER", "openai"),
		OpenAIAPIKey:     os.Getenv("OPENAI_API_KEY"),
		OpenAIModel:      getEnv("OPENAI_MODEL", "gpt-4o-mini"),
		OpenAIBaseURL:    getEnv("OPENAI_BASE_URL", "https://api.openai.com/v1"),
		OpenAIOrg:        os.Getenv("OPENAI_ORG"),
		GeminiAPIKey:     os.Getenv("GEMINI_API_KEY"),
		GeminiModel:      getEnv("GEMINI_MODEL", "gemini-1.5-flash"),
		GeminiBaseURL:    getEnv("GEMINI_BASE_URL", "https://generativelanguage.googleapis.com/v1beta"),
		BoldAPIKey:       os.Getenv("BOLD_API_KEY"),
		BoldBaseURL:      getEnv("BOLD_BASE_URL", "https://integrations.api.bold.co"),
		PaymentMode:      getEnv("PAYMENT_MODE", "sandbox"),
		HTTPReadTimeout:  time.Second * time.Duration(getEnvInt("HTTP_READ_TIMEOUT_SECONDS", 15)),
		HTTPWriteTimeout: time.Second * time.Duration(getEnvInt("HTTP_WRITE_TIMEOUT_SECONDS", 60)),
		HTTPIdleTimeout:  time.Second * time.Duration(getEnvInt("HTTP_IDLE_TIMEOUT_SECONDS", 60)),
		RateLimitPerMin:  getEnvInt("RATE_LIMIT_PER_MINUTE", 30),
	}

	if cfg.TokenSecret == "" {
		return nil, fmt.Errorf("TOKEN_SECRET is required")
	}

	switch cfg.RelayProvider {
	case "openai":
		if cfg.OpenAIAPIKey == "" {
			return nil, fmt.Errorf("OPENAI_API_KEY is required when RELAY_PROVIDER=openai")
		}
	case "gemini":
		if cfg.GeminiAPIKey == "" {
			return nil, fmt.Errorf("GEMINI_API_KEY is required when RELAY_PROVIDER=gemini")
		}
	case "static":
		// development fallback, no key needed
	default:
		return nil, fmt.Errorf("unknown RELAY_PROVIDER %q", cfg.RelayProvider)
	}

	if cfg.PaymentMode != "sandbox" && cfg.PaymentMode != "live" {
		return nil, fmt.Errorf("unknown PAYMENT_MODE %q", cfg.PaymentMode)
	}
	if cfg.PaymentMode == "live" && cfg.BoldAPIKey == "" {
		return nil, fmt.Errorf("BOLD_API_KEY is required when PAYMENT_MODE=live")
	}

	if cfg.FreeQuota < 0 {
		return nil, fmt.Errorf("FREE_QUOTA must not be negative")
	}

	return cfg, nil
}

// ModelName returns the active model identifier for the configured provider.
func (c *Config) ModelName() string {
	switch c.RelayProvider {
	case "gemini":
		return c.GeminiModel
	case "openai":
		return c.OpenAIModel
	default:
		return c.RelayProvider
	}
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func splitCSV(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
