package handler

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/aijobhunter/jobhunter/internal/apperr"
	"github.com/aijobhunter/jobhunter/internal/auth"
)

// OAuthProvider is the external identity provider behind the login flow.
type OAuthProvider interface {
	AuthCodeURL(state string) string
	Exchange(ctx context.Context, code string) (*auth.Identity, error)
}

type AuthHandler struct {
	svc      *auth.Service
	provider OAuthProvider
	states   *auth.StateSigner
	baseURL  string
	secure   bool
	logger   *slog.Logger
}

// NewAuthHandler builds the auth endpoints. provider may be nil when Google
// sign-in is not configured; the OAuth routes then answer 503.
func NewAuthHandler(svc *auth.Service, provider OAuthProvider, states *auth.StateSigner, baseURL string, logger *slog.Logger) *AuthHandler {
	u, _ := url.Parse(baseURL)
	return &AuthHandler{
		svc:      svc,
		provider: provider,
		states:   states,
		baseURL:  baseURL,
		secure:   u != nil && u.Scheme == "https",
		logger:   logger,
	}
}

// BeginGoogle issues a signed state and redirects to the consent screen.
func (h *AuthHandler) BeginGoogle(w http.ResponseWriter, r *http.Request) {
	if h.provider == nil {
		apperr.Write(w, h.logger, apperr.Unavailable("google sign-in is not configured"))
		return
	}

	state, err := h.states.Issue()
	if err != nil {
		apperr.Write(w, h.logger, apperr.Internal(err))
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     auth.StateCookieName,
		Value:    state,
		Path:     "/api/auth",
		MaxAge:   int(auth.StateTTL.Seconds()),
		HttpOnly: true,
		Secure:   h.secure,
		SameSite: http.SameSiteLaxMode,
	})
	http.Redirect(w, r, h.provider.AuthCodeURL(state), http.StatusFound)
}

// GoogleCallback completes the login and starts a session.
func (h *AuthHandler) GoogleCallback(w http.ResponseWriter, r *http.Request) {
	if h.provider == nil {
		apperr.Write(w, h.logger, apperr.Unavailable("google sign-in is not configured"))
		return
	}
	h.clearStateCookie(w)

	q := r.URL.Query()
	if e := q.Get("error"); e != "" {
		h.logger.Info("oauth denied", "error", e)
		h.failLogin(w, r, "access_denied")
		return
	}

	state := q.Get("state")
	c, err := r.Cookie(auth.StateCookieName)
	if err != nil || state == "" || c.Value != state {
		h.failLogin(w, r, "invalid_state")
		return
	}
	if err := h.states.Verify(state); err != nil {
		h.logger.Warn("oauth state rejected", "error", err)
		h.failLogin(w, r, "invalid_state")
		return
	}

	code := q.Get("code")
	if code == "" {
		h.failLogin(w, r, "missing_code")
		return
	}

	id, err := h.provider.Exchange(r.Context(), code)
	if err != nil {
		if apperr.IsKind(err, apperr.KindValidation) {
			h.logger.Warn("oauth identity rejected", "error", err)
			h.failLogin(w, r, "unverified_email")
			return
		}
		h.logger.Error("oauth exchange", "error", err)
		h.failLogin(w, r, "exchange_failed")
		return
	}

	u, err := h.svc.CompleteExternalLogin(id.ID, id.Email, id.Profile)
	if err != nil {
		h.logger.Error("complete login", "error", err)
		h.failLogin(w, r, "login_failed")
		return
	}

	sess, err := h.svc.StartSession(u.ID)
	if err != nil {
		h.logger.Error("start session", "user_id", u.ID, "error", err)
		h.failLogin(w, r, "login_failed")
		return
	}

	auth.SetSessionCookie(w, sess.Token, sess.ExpiresAt, h.secure)
	http.Redirect(w, r, h.baseURL+"/dashboard", http.StatusSeeOther)
}

// Logout always succeeds unless the session store fails.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Logout(auth.SessionToken(r)); err != nil {
		apperr.Write(w, h.logger, err)
		return
	}
	auth.ClearSessionCookie(w, h.secure)
	writeJSON(w, http.StatusOK, map[string]string{"status": "logged_out"})
}

// CurrentUser returns the authenticated user.
func (h *AuthHandler) CurrentUser(w http.ResponseWriter, r *http.Request) {
	u := auth.UserFromContext(r.Context())
	if u == nil {
		apperr.Write(w, h.logger, apperr.Unauthenticated("not authenticated"))
		return
	}
	writeJSON(w, http.StatusOK, u)
}

func (h *AuthHandler) failLogin(w http.ResponseWriter, r *http.Request, reason string) {
	http.Redirect(w, r, h.baseURL+"/auth?error="+url.QueryEscape(reason), http.StatusSeeOther)
}

func (h *AuthHandler) clearStateCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     auth.StateCookieName,
		Value:    "",
		Path:     "/api/auth",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.secure,
		SameSite: http.SameSiteLaxMode,
	})
}
