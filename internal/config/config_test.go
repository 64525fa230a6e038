package config

import (
	"strings"
	"testing"
)

func envMap(m map[string]string) func(string) string {
	return func(k string) string { return m[k] }
}

func TestFromEnvDefaults(t *testing.T) {
	cfg, err := FromEnv(envMap(map[string]string{"BASE_URL": "https://jobs.example.com/"}))
	if err != nil {
		t.Fatalf("FromEnv: %v", err)
	}
	if cfg.BaseURL != "https://jobs.example.com" {
		t.Errorf("BaseURL = %q, want trailing slash trimmed", cfg.BaseURL)
	}
	if cfg.Port != "8080" || cfg.DBPath != "jobhunter.db" || cfg.WebDir != "web/dist" || cfg.UploadDir != "uploads" {
		t.Errorf("defaults = %+v", cfg)
	}
	if cfg.TrustProxyHeaders {
		t.Error("TrustProxyHeaders = true by default")
	}
	if cfg.CashfreeEnv != "sandbox" {
		t.Errorf("CashfreeEnv = %q, want sandbox", cfg.CashfreeEnv)
	}
	if !cfg.Secure() {
		t.Error("Secure() = false for https base URL")
	}
	if cfg.GoogleEnabled() || cfg.CashfreeEnabled() || cfg.StripeEnabled() || cfg.S3Enabled() || cfg.GeminiEnabled() {
		t.Error("integrations enabled without keys")
	}
}

func TestFromEnvRequiresBaseURL(t *testing.T) {
	tests := []struct {
		name    string
		baseURL string
		want    string
	}{
		{"missing", "", "BASE_URL is required"},
		{"relative", "/app", "absolute"},
		{"bad scheme", "ftp://example.com", "absolute"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := FromEnv(envMap(map[string]string{"BASE_URL": tt.baseURL}))
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("err = %v, want it to contain %q", err, tt.want)
			}
		})
	}
}

func TestFromEnvIntegrations(t *testing.T) {
	cfg, err := FromEnv(envMap(map[string]string{
		"BASE_URL":               "http://localhost:8080",
		"GOOGLE_CLIENT_ID":       "id",
		"GOOGLE_CLIENT_SECRET":   "secret",
		"CASHFREE_CLIENT_ID":     "cf",
		"CASHFREE_CLIENT_SECRET": "cfs",
		"CASHFREE_ENV":           "PRODUCTION",
		"STRIPE_SECRET_KEY":      "sk_test",
		"STRIPE_WEBHOOK_SECRET":  "whsec_test",
		"STRIPE_PRO_PRICE_ID":    "price_1",
		"TRUST_PROXY_HEADERS":    "true",
		"GEMINI_API_KEY":         "key",
	}))
	if err != nil {
		t.Fatalf("FromEnv: %v", err)
	}
	if !cfg.GoogleEnabled() || !cfg.CashfreeEnabled() || !cfg.StripeEnabled() || !cfg.GeminiEnabled() {
		t.Errorf("integrations not enabled: %+v", cfg)
	}
	if !cfg.TrustProxyHeaders {
		t.Error("TrustProxyHeaders = false, want true")
	}
	if cfg.CashfreeEnv != "production" {
		t.Errorf("CashfreeEnv = %q, want production", cfg.CashfreeEnv)
	}
	if cfg.Secure() {
		t.Error("Secure() = true for http base URL")
	}
}

func TestFromEnvStripeRequiresWebhookSecret(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"no webhook secret", map[string]string{"STRIPE_SECRET_KEY": "sk_test", "STRIPE_PRO_PRICE_ID": "price_1"}},
		{"no price", map[string]string{"STRIPE_SECRET_KEY": "sk_test", "STRIPE_WEBHOOK_SECRET": "whsec_test"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.env["BASE_URL"] = "http://localhost"
			_, err := FromEnv(envMap(tt.env))
			if err == nil || !strings.Contains(err.Error(), "STRIPE_WEBHOOK_SECRET") {
				t.Errorf("err = %v, want stripe configuration error", err)
			}
		})
	}
}

func TestFromEnvRejectsBadTrustProxyHeaders(t *testing.T) {
	_, err := FromEnv(envMap(map[string]string{"BASE_URL": "http://localhost", "TRUST_PROXY_HEADERS": "maybe"}))
	if err == nil || !strings.Contains(err.Error(), "TRUST_PROXY_HEADERS") {
		t.Errorf("err = %v, want TRUST_PROXY_HEADERS error", err)
	}
}

func TestFromEnvRejectsUnknownCashfreeEnv(t *testing.T) {
	_, err := FromEnv(envMap(map[string]string{"BASE_URL": "http://localhost", "CASHFREE_ENV": "staging"}))
	if err == nil {
		t.Fatal("expected error for unknown CASHFREE_ENV")
	}
}

func TestLoadWithoutDotEnv(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("BASE_URL", "http://localhost:9000")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.BaseURL != "http://localhost:9000" {
		t.Errorf("BaseURL = %q", cfg.BaseURL)
	}
}
