// Package config loads process configuration from the environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	Port      string
	BaseURL   string
	DBPath    string
	WebDir    string
	UploadDir string
	LogLevel  string
	LogFormat string

	// TrustProxyHeaders honors CF-Connecting-IP and X-Forwarded-For.
	TrustProxyHeaders bool

	SessionSecret      string
	GoogleClientID     string
	GoogleClientSecret string

	CashfreeClientID     string
	CashfreeClientSecret string
	CashfreeEnv          string

	StripeSecretKey     string
	StripeWebhookSecret string
	StripeProPriceID    string

	PostmarkToken string
	FromEmail     string

	S3Endpoint  string
	S3Bucket    string
	S3Region    string
	S3AccessKey string
	S3SecretKey string

	GeminiAPIKey string
	GeminiModel  string
}

// Load reads an optional .env file and then the environment. BASE_URL is
// required.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}
	return FromEnv(os.Getenv)
}

// FromEnv builds a Config from a lookup function.
func FromEnv(getenv func(string) string) (*Config, error) {
	get := func(key, def string) string {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			return v
		}
		return def
	}

	cfg := &Config{
		Port:      get("PORT", "8080"),
		BaseURL:   strings.TrimRight(get("BASE_URL", ""), "/"),
		DBPath:    get("DB_PATH", "jobhunter.db"),
		WebDir:    get("WEB_DIR", "web/dist"),
		UploadDir: get("UPLOAD_DIR", "uploads"),
		LogLevel:  get("LOG_LEVEL", "info"),
		LogFormat: get("LOG_FORMAT", "text"),

		SessionSecret:      get("SESSION_SECRET", ""),
		GoogleClientID:     get("GOOGLE_CLIENT_ID", ""),
		GoogleClientSecret: get("GOOGLE_CLIENT_SECRET", ""),

		CashfreeClientID:     get("CASHFREE_CLIENT_ID", ""),
		CashfreeClientSecret: get("CASHFREE_CLIENT_SECRET", ""),
		CashfreeEnv:          strings.ToLower(get("CASHFREE_ENV", "sandbox")),

		StripeSecretKey:     get("STRIPE_SECRET_KEY", ""),
		StripeWebhookSecret: get("STRIPE_WEBHOOK_SECRET", ""),
		StripeProPriceID:    get("STRIPE_PRO_PRICE_ID", ""),

		PostmarkToken: get("POSTMARK_TOKEN", ""),
		FromEmail:     get("FROM_EMAIL", ""),

		S3Endpoint:  get("S3_ENDPOINT", ""),
		S3Bucket:    get("S3_BUCKET", ""),
		S3Region:    get("S3_REGION", "us-east-1"),
		S3AccessKey: get("S3_ACCESS_KEY", ""),
		S3SecretKey: get("S3_SECRET_KEY", ""),

		GeminiAPIKey: get("GEMINI_API_KEY", ""),
		GeminiModel:  get("GEMINI_MODEL", ""),
	}

	if cfg.BaseURL == "" {
		return nil, errors.New("BASE_URL is required")
	}
	u, err := url.Parse(cfg.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("BASE_URL %q must be an absolute http(s) URL", cfg.BaseURL)
	}
	trust := get("TRUST_PROXY_HEADERS", "false")
	if cfg.TrustProxyHeaders, err = strconv.ParseBool(trust); err != nil {
		return nil, fmt.Errorf("TRUST_PROXY_HEADERS %q must be a boolean", trust)
	}
	if cfg.StripeSecretKey != "" && (cfg.StripeWebhookSecret == "" || cfg.StripeProPriceID == "") {
		return nil, errors.New("STRIPE_SECRET_KEY requires STRIPE_WEBHOOK_SECRET and STRIPE_PRO_PRICE_ID")
	}
	if cfg.CashfreeEnv != "sandbox" && cfg.CashfreeEnv != "production" {
		return nil, fmt.Errorf("CASHFREE_ENV must be sandbox or production, got %q", cfg.CashfreeEnv)
	}
	return cfg, nil
}

func (c *Config) GoogleEnabled() bool {
	return c.GoogleClientID != "" && c.GoogleClientSecret != ""
}

func (c *Config) CashfreeEnabled() bool {
	return c.CashfreeClientID != "" && c.CashfreeClientSecret != ""
}

func (c *Config) StripeEnabled() bool {
	return c.StripeSecretKey != "" && c.StripeWebhookSecret != "" && c.StripeProPriceID != ""
}

func (c *Config) S3Enabled() bool {
	return c.S3Bucket != "" && c.S3AccessKey != "" && c.S3SecretKey != ""
}

func (c *Config) GeminiEnabled() bool {
	return c.GeminiAPIKey != ""
}

// Secure reports whether cookies should carry the Secure flag.
func (c *Config) Secure() bool {
	return strings.HasPrefix(c.BaseURL, "https://")
}
