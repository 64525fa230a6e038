package handler

import (
	"database/sql"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/aijobhunter/jobhunter/internal/auth"
	"github.com/aijobhunter/jobhunter/internal/database"
	"github.com/aijobhunter/jobhunter/internal/middleware"
	"github.com/aijobhunter/jobhunter/internal/model"
	"github.com/aijobhunter/jobhunter/internal/store"
	"github.com/aijobhunter/jobhunter/internal/subscription"
)

type testEnv struct {
	db       *sql.DB
	users    *store.UserStore
	sessions *store.SessionStore
	orders   *store.OrderStore
	jobs     *store.JobStore
	apps     *store.ApplicationStore
	resumes  *store.ResumeStore
	auth     *auth.Service
	subs     *subscription.Service
	logger   *slog.Logger
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	e := &testEnv{
		db:       db,
		users:    store.NewUserStore(db),
		sessions: store.NewSessionStore(db),
		orders:   store.NewOrderStore(db),
		jobs:     store.NewJobStore(db),
		apps:     store.NewApplicationStore(db),
		resumes:  store.NewResumeStore(db),
		logger:   logger,
	}
	e.auth = auth.NewService(e.users, e.sessions, logger)
	e.subs = subscription.NewService(e.orders, e.users, nil, nil, logger)
	return e
}

// login creates a user with a live session and returns its cookie.
func (e *testEnv) login(t *testing.T, googleID, email string) (*model.User, *http.Cookie) {
	t.Helper()
	u, err := e.users.Upsert(googleID, email, model.Profile{DisplayName: "Test User"})
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	sess, err := e.sessions.Create(u.ID)
	if err != nil {
		t.Fatalf("create session: %v", err)
	}
	return u, &http.Cookie{Name: auth.SessionCookieName, Value: sess.Token}
}

func (e *testEnv) authed(h http.HandlerFunc) http.Handler {
	return middleware.RequireAuth(e.auth)(h)
}

func serve(h http.Handler, r *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, r)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.NewDecoder(rec.Body).Decode(v); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
}

func errorMessage(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body map[string]string
	decodeBody(t, rec, &body)
	return body["error"]
}

func (e *testEnv) authMiddleware() func(http.Handler) http.Handler {
	return middleware.RequireAuth(e.auth)
}
