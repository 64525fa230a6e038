package server

import (
	"database/sql"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/aijobhunter/jobhunter/internal/auth"
	"github.com/aijobhunter/jobhunter/internal/email"
	"github.com/aijobhunter/jobhunter/internal/events"
	"github.com/aijobhunter/jobhunter/internal/geo"
	"github.com/aijobhunter/jobhunter/internal/handler"
	"github.com/aijobhunter/jobhunter/internal/llm"
	"github.com/aijobhunter/jobhunter/internal/middleware"
	"github.com/aijobhunter/jobhunter/internal/payment/cashfree"
	paystripe "github.com/aijobhunter/jobhunter/internal/payment/stripe"
	"github.com/aijobhunter/jobhunter/internal/resume"
	"github.com/aijobhunter/jobhunter/internal/storage"
	"github.com/aijobhunter/jobhunter/internal/store"
	"github.com/aijobhunter/jobhunter/internal/subscription"
)

// Config carries the optional integrations. A nil client disables the
// routes that depend on it. Blobs is required.
type Config struct {
	BaseURL       string
	WebDir        string
	SessionSecret string
	Google        *auth.GoogleProvider
	Cashfree      *cashfree.Client
	Stripe        *paystripe.Client
	Mailer        *email.Client
	Blobs         storage.Blob
	LLM           *llm.Generator
	Geo           *geo.Service

	// TrustProxyHeaders takes the client address from CF-Connecting-IP or
	// X-Forwarded-For instead of the TCP peer.
	TrustProxyHeaders bool
}

type Server struct {
	db           *sql.DB
	cfg          Config
	hub          *events.Hub
	sessionStore *store.SessionStore
	authSvc      *auth.Service
	rateLimiter  *middleware.RateLimiter
	authH        *handler.AuthHandler
	resumeH      *handler.ResumeHandler
	jobsH        *handler.JobsHandler
	emailsH      *handler.EmailsHandler
	paymentH     *handler.PaymentHandler
	webhookH     *handler.WebhookHandler
	locationH    *handler.LocationHandler
	logger       *slog.Logger
}

func New(db *sql.DB, cfg Config, logger *slog.Logger) *Server {
	hub := events.NewHub(logger.With("component", "events"))

	userStore := store.NewUserStore(db)
	sessionStore := store.NewSessionStore(db)
	orderStore := store.NewOrderStore(db)
	resumeStore := store.NewResumeStore(db)
	jobStore := store.NewJobStore(db)
	appStore := store.NewApplicationStore(db)

	// Unset clients must reach their consumers as nil interfaces.
	var mailer subscription.Mailer
	if cfg.Mailer != nil {
		mailer = cfg.Mailer
	}
	if cfg.Geo == nil {
		cfg.Geo = geo.NewService(logger)
	}

	authSvc := auth.NewService(userStore, sessionStore, logger)
	subs := subscription.NewService(orderStore, userStore, hub, mailer, logger)
	ingest := resume.NewService(resumeStore, cfg.Blobs, nil, hub, logger)
	limiter := middleware.NewRateLimiter()

	var provider handler.OAuthProvider
	if cfg.Google != nil {
		provider = cfg.Google
	}
	var cf handler.OrderGateway
	if cfg.Cashfree != nil {
		cf = cfg.Cashfree
	}
	var checkout handler.CheckoutGateway
	var webhookH *handler.WebhookHandler
	if cfg.Stripe != nil {
		checkout = cfg.Stripe
		webhookH = handler.NewWebhookHandler(cfg.Stripe, subs, logger.With("component", "stripe_webhook"))
	}
	var drafter handler.Drafter
	if cfg.LLM != nil {
		drafter = cfg.LLM
	}

	return &Server{
		db:           db,
		cfg:          cfg,
		hub:          hub,
		sessionStore: sessionStore,
		authSvc:      authSvc,
		rateLimiter:  limiter,
		authH:        handler.NewAuthHandler(authSvc, provider, auth.NewStateSigner(cfg.SessionSecret), cfg.BaseURL, logger.With("component", "auth_handler")),
		resumeH:      handler.NewResumeHandler(ingest, resumeStore, logger.With("component", "resume_handler")),
		jobsH:        handler.NewJobsHandler(jobStore, appStore, logger.With("component", "jobs")),
		emailsH:      handler.NewEmailsHandler(drafter, jobStore, resumeStore, limiter, logger.With("component", "emails")),
		paymentH:     handler.NewPaymentHandler(cf, checkout, orderStore, subs, cfg.BaseURL, logger.With("component", "payment")),
		webhookH:     webhookH,
		locationH:    handler.NewLocationHandler(cfg.Geo),
		logger:       logger,
	}
}

// SessionStore returns the session store for cleanup tasks.
func (s *Server) SessionStore() *store.SessionStore {
	return s.sessionStore
}

// RateLimiter returns the rate limiter for cleanup tasks.
func (s *Server) RateLimiter() *middleware.RateLimiter {
	return s.rateLimiter
}

// Hub returns the realtime event hub.
func (s *Server) Hub() *events.Hub {
	return s.hub
}

func (s *Server) Router() http.Handler {
	mux := http.NewServeMux()
	authMw := middleware.RequireAuth(s.authSvc)
	authLimit := middleware.RateLimit(s.rateLimiter, middleware.ByIP("auth"), 20, time.Minute)
	publicLimit := middleware.RateLimit(s.rateLimiter, middleware.ByIP("public"), 60, time.Minute)
	uploadLimit := middleware.RateLimit(s.rateLimiter, middleware.ByUser("upload"), 10, time.Minute)

	protected := func(h http.HandlerFunc) http.Handler {
		return authMw(h)
	}

	mux.HandleFunc("GET /health", s.healthCheck)

	// Auth (public, rate-limited)
	mux.Handle("GET /api/auth/google", authLimit(http.HandlerFunc(s.authH.BeginGoogle)))
	mux.Handle("POST /api/auth/google", authLimit(http.HandlerFunc(s.authH.BeginGoogle)))
	mux.Handle("GET /api/auth/google/callback", authLimit(http.HandlerFunc(s.authH.GoogleCallback)))
	mux.Handle("POST /api/auth/logout", authLimit(http.HandlerFunc(s.authH.Logout)))
	mux.Handle("GET /api/auth/user", protected(s.authH.CurrentUser))

	// Resume
	mux.Handle("POST /api/resume/upload", authMw(uploadLimit(http.HandlerFunc(s.resumeH.Upload))))
	mux.Handle("GET /api/resume", protected(s.resumeH.Get))
	mux.Handle("GET /api/resume/formats", publicLimit(http.HandlerFunc(s.resumeH.Formats)))

	// Jobs and applications
	mux.Handle("GET /api/jobs", protected(s.jobsH.List))
	mux.Handle("GET /api/jobs/{id}", protected(s.jobsH.Get))
	mux.Handle("GET /api/email-applications", protected(s.jobsH.Applications))
	mux.Handle("GET /api/analytics/stats", protected(s.jobsH.Stats))
	mux.Handle("POST /api/emails/generate", protected(s.emailsH.Generate))

	// Payments
	mux.Handle("POST /api/payments/checkout", protected(s.paymentH.Checkout))
	mux.Handle("POST /api/create-subscription", protected(s.paymentH.CreateSubscription))
	mux.Handle("POST /api/payment/activate-subscription", s.paymentH.ActivateSubscription(authMw))
	if s.webhookH != nil {
		mux.HandleFunc("POST /webhooks/stripe", s.webhookH.HandleStripeWebhook)
	}

	mux.Handle("GET /api/user-location", publicLimit(http.HandlerFunc(s.locationH.UserLocation)))
	mux.Handle("GET /api/events", protected(s.hub.HandleWebSocket(s.cfg.BaseURL)))

	mux.HandleFunc("/api/", apiNotFound)
	mux.Handle("/", spaHandler(s.cfg.WebDir))

	h := middleware.RequestLogger(s.logger)(mux)
	if s.cfg.TrustProxyHeaders {
		h = middleware.ProxyHeaders(h)
	}
	return h
}

func (s *Server) healthCheck(w http.ResponseWriter, r *http.Request) {
	status := "ok"
	code := http.StatusOK
	if err := s.db.PingContext(r.Context()); err != nil {
		s.logger.Error("health check", "error", err)
		status = "degraded"
		code = http.StatusServiceUnavailable
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"status": status})
}
