package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aijobhunter/jobhunter/internal/auth"
	"github.com/aijobhunter/jobhunter/internal/config"
	"github.com/aijobhunter/jobhunter/internal/database"
	"github.com/aijobhunter/jobhunter/internal/email"
	"github.com/aijobhunter/jobhunter/internal/geo"
	"github.com/aijobhunter/jobhunter/internal/llm"
	"github.com/aijobhunter/jobhunter/internal/logging"
	"github.com/aijobhunter/jobhunter/internal/payment/cashfree"
	paystripe "github.com/aijobhunter/jobhunter/internal/payment/stripe"
	"github.com/aijobhunter/jobhunter/internal/server"
	"github.com/aijobhunter/jobhunter/internal/storage"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("load config", "error", err)
		os.Exit(1)
	}
	logger := logging.Setup(cfg.LogLevel, cfg.LogFormat)

	db, err := database.Open(cfg.DBPath)
	if err != nil {
		slog.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	srvCfg := server.Config{
		BaseURL:           cfg.BaseURL,
		WebDir:            cfg.WebDir,
		SessionSecret:     cfg.SessionSecret,
		TrustProxyHeaders: cfg.TrustProxyHeaders,
		Mailer:            email.NewClient(cfg.PostmarkToken, cfg.FromEmail, cfg.BaseURL),
		Geo:               geo.NewService(logger),
	}

	if srvCfg.SessionSecret == "" {
		srvCfg.SessionSecret = randomSecret()
		slog.Warn("SESSION_SECRET not set, using an ephemeral secret")
	}

	if cfg.GoogleEnabled() {
		srvCfg.Google = auth.NewGoogleProvider(cfg.GoogleClientID, cfg.GoogleClientSecret, cfg.BaseURL+"/api/auth/google/callback")
	} else {
		slog.Warn("google sign-in disabled")
	}

	if cfg.CashfreeEnabled() {
		srvCfg.Cashfree = cashfree.NewClient(cfg.CashfreeClientID, cfg.CashfreeClientSecret, cfg.CashfreeEnv, logger)
		slog.Info("cashfree enabled", "env", cfg.CashfreeEnv)
	}

	if cfg.StripeEnabled() {
		srvCfg.Stripe = paystripe.NewClient(paystripe.Config{
			SecretKey:     cfg.StripeSecretKey,
			WebhookSecret: cfg.StripeWebhookSecret,
			ProPriceID:    cfg.StripeProPriceID,
			SuccessURL:    cfg.BaseURL + "/payment/status?session_id={CHECKOUT_SESSION_ID}",
			CancelURL:     cfg.BaseURL + "/pricing",
		})
		slog.Info("stripe enabled")
	}

	if cfg.S3Enabled() {
		srvCfg.Blobs = storage.NewS3(storage.S3Config{
			Endpoint:  cfg.S3Endpoint,
			Bucket:    cfg.S3Bucket,
			Region:    cfg.S3Region,
			AccessKey: cfg.S3AccessKey,
			SecretKey: cfg.S3SecretKey,
		})
		slog.Info("resume storage", "backend", "s3", "bucket", cfg.S3Bucket)
	} else {
		local, err := storage.NewLocal(cfg.UploadDir)
		if err != nil {
			slog.Error("failed to open upload dir", "dir", cfg.UploadDir, "error", err)
			os.Exit(1)
		}
		srvCfg.Blobs = local
		slog.Info("resume storage", "backend", "local", "dir", cfg.UploadDir)
	}

	if cfg.GeminiEnabled() {
		gen, err := llm.NewGemini(context.Background(), cfg.GeminiAPIKey, cfg.GeminiModel, logger)
		if err != nil {
			slog.Error("gemini disabled", "error", err)
		} else {
			srvCfg.LLM = gen
		}
	}

	srv := server.New(db, srvCfg, logger)

	httpServer := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           srv.Router(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	// Background cleanup goroutine
	cleanupCtx, cleanupCancel := context.WithCancel(context.Background())
	defer cleanupCancel()
	go func() {
		ticker := time.NewTicker(1 * time.Hour)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if n, err := srv.SessionStore().DeleteExpired(); err != nil {
					slog.Error("cleanup expired sessions", "error", err)
				} else if n > 0 {
					slog.Info("cleaned up expired sessions", "count", n)
				}
				srv.RateLimiter().Cleanup()
			case <-cleanupCtx.Done():
				return
			}
		}
	}()

	go func() {
		slog.Info("jobhunter starting", "addr", ":"+cfg.Port, "base_url", cfg.BaseURL)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down")
	cleanupCancel()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		slog.Error("shutdown error", "error", err)
		os.Exit(1)
	}
}

func randomSecret() string {
	b := make([]byte, 32)
	rand.Read(b)
	return hex.EncodeToString(b)
}
