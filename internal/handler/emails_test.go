package handler

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/aijobhunter/jobhunter/internal/llm"
	"github.com/aijobhunter/jobhunter/internal/middleware"
	"github.com/aijobhunter/jobhunter/internal/model"
)

type fakeDrafter struct {
	calls int
	err   error
}

func (d *fakeDrafter) DraftApplication(_ context.Context, applicant *model.User, resumeText string, job *model.Job) (*llm.Draft, error) {
	d.calls++
	if d.err != nil {
		return nil, d.err
	}
	return &llm.Draft{
		Subject: "Application for " + job.Title,
		Body:    fmt.Sprintf("Dear %s, %s", job.CompanyName, resumeText),
	}, nil
}

func saveResumeText(t *testing.T, e *testEnv, userID int64, text string) {
	t.Helper()
	if _, err := e.resumes.Upsert(&model.Resume{
		UserID:           userID,
		OriginalFilename: "cv.txt",
		MimeType:         "text/plain",
		SizeBytes:        int64(len(text)),
		ExtractedText:    &text,
	}); err != nil {
		t.Fatalf("upsert resume: %v", err)
	}
}

func generateRequestFor(cookie *http.Cookie, jobID int64) *http.Request {
	r := httptest.NewRequest(http.MethodPost, "/api/emails/generate", strings.NewReader(fmt.Sprintf(`{"job_id":%d}`, jobID)))
	r.Header.Set("Content-Type", "application/json")
	r.AddCookie(cookie)
	return r
}

func TestGenerateEmail(t *testing.T) {
	e := newTestEnv(t)
	d := &fakeDrafter{}
	h := NewEmailsHandler(d, e.jobs, e.resumes, middleware.NewRateLimiter(), e.logger)
	u, cookie := e.login(t, "g-1", "a@example.com")
	job := seedJobs(t, e, u.ID, 1)[0]
	saveResumeText(t, e, u.ID, "Go, SQL, Kubernetes")

	rec := serve(e.authed(h.Generate), generateRequestFor(cookie, job.ID))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d: %s", rec.Code, http.StatusOK, rec.Body.String())
	}
	var got struct {
		Subject   string `json:"subject"`
		Body      string `json:"body"`
		Remaining int    `json:"remaining"`
	}
	decodeBody(t, rec, &got)
	if got.Subject != "Application for "+job.Title {
		t.Errorf("subject = %q", got.Subject)
	}
	if got.Remaining != FreeDraftsPerDay-1 {
		t.Errorf("remaining = %d, want %d", got.Remaining, FreeDraftsPerDay-1)
	}
}

func TestGenerateEmailRequiresResumeText(t *testing.T) {
	e := newTestEnv(t)
	d := &fakeDrafter{}
	h := NewEmailsHandler(d, e.jobs, e.resumes, middleware.NewRateLimiter(), e.logger)
	u, cookie := e.login(t, "g-1", "a@example.com")
	job := seedJobs(t, e, u.ID, 1)[0]

	rec := serve(e.authed(h.Generate), generateRequestFor(cookie, job.ID))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
	if d.calls != 0 {
		t.Errorf("drafter calls = %d, want 0", d.calls)
	}
}

func TestGenerateEmailValidation(t *testing.T) {
	e := newTestEnv(t)
	h := NewEmailsHandler(&fakeDrafter{}, e.jobs, e.resumes, middleware.NewRateLimiter(), e.logger)
	_, cookie := e.login(t, "g-1", "a@example.com")

	r := httptest.NewRequest(http.MethodPost, "/api/emails/generate", strings.NewReader(`{}`))
	r.AddCookie(cookie)
	rec := serve(e.authed(h.Generate), r)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
	if msg := errorMessage(t, rec); msg != "job_id is required" {
		t.Errorf("error = %q, want %q", msg, "job_id is required")
	}

	rec = serve(e.authed(h.Generate), generateRequestFor(cookie, 999))
	if rec.Code != http.StatusNotFound {
		t.Errorf("unknown job status = %d, want %d", rec.Code, http.StatusNotFound)
	}
}

func TestGenerateEmailDailyQuota(t *testing.T) {
	e := newTestEnv(t)
	h := NewEmailsHandler(&fakeDrafter{}, e.jobs, e.resumes, middleware.NewRateLimiter(), e.logger)
	u, cookie := e.login(t, "g-1", "a@example.com")
	job := seedJobs(t, e, u.ID, 1)[0]
	saveResumeText(t, e, u.ID, "resume")

	for i := 0; i < FreeDraftsPerDay; i++ {
		if rec := serve(e.authed(h.Generate), generateRequestFor(cookie, job.ID)); rec.Code != http.StatusOK {
			t.Fatalf("request %d status = %d, want %d", i, rec.Code, http.StatusOK)
		}
	}
	rec := serve(e.authed(h.Generate), generateRequestFor(cookie, job.ID))
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("over quota status = %d, want %d", rec.Code, http.StatusTooManyRequests)
	}

	// pro users get the larger allowance
	if _, err := e.db.Exec(`UPDATE users SET tier = 'pro' WHERE id = ?`, u.ID); err != nil {
		t.Fatalf("promote: %v", err)
	}
	rec = serve(e.authed(h.Generate), generateRequestFor(cookie, job.ID))
	if rec.Code != http.StatusOK {
		t.Errorf("pro status = %d, want %d", rec.Code, http.StatusOK)
	}
}

func TestGenerateEmailNotConfigured(t *testing.T) {
	e := newTestEnv(t)
	h := NewEmailsHandler(nil, e.jobs, e.resumes, middleware.NewRateLimiter(), e.logger)
	_, cookie := e.login(t, "g-1", "a@example.com")

	rec := serve(e.authed(h.Generate), generateRequestFor(cookie, 1))
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusServiceUnavailable)
	}
}

func TestGenerateEmailModelFailure(t *testing.T) {
	e := newTestEnv(t)
	h := NewEmailsHandler(&fakeDrafter{err: errors.New("quota exhausted")}, e.jobs, e.resumes, middleware.NewRateLimiter(), e.logger)
	u, cookie := e.login(t, "g-1", "a@example.com")
	job := seedJobs(t, e, u.ID, 1)[0]
	saveResumeText(t, e, u.ID, "resume")

	rec := serve(e.authed(h.Generate), generateRequestFor(cookie, job.ID))
	if rec.Code != http.StatusBadGateway {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusBadGateway)
	}
}
