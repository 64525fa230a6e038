package handler

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/aijobhunter/jobhunter/internal/model"
)

func seedJobs(t *testing.T, e *testEnv, userID int64, n int) []*model.Job {
	t.Helper()
	var jobs []*model.Job
	for i := 0; i < n; i++ {
		j, err := e.jobs.Save(&model.Job{
			UserID:       userID,
			Title:        fmt.Sprintf("Engineer %d", i),
			CompanyName:  fmt.Sprintf("Acme %d", i),
			CompanyEmail: fmt.Sprintf("jobs%d@acme.test", i),
			JobURL:       fmt.Sprintf("https://acme.test/jobs/%d", i),
		})
		if err != nil {
			t.Fatalf("save job: %v", err)
		}
		jobs = append(jobs, j)
	}
	return jobs
}

func TestJobsList(t *testing.T) {
	e := newTestEnv(t)
	h := NewJobsHandler(e.jobs, e.apps, e.logger)
	u, cookie := e.login(t, "g-1", "a@example.com")
	seedJobs(t, e, u.ID, 3)

	tests := []struct {
		query      string
		wantStatus int
		wantCount  int
	}{
		{"", http.StatusOK, 3},
		{"?limit=2", http.StatusOK, 2},
		{"?limit=2&offset=2", http.StatusOK, 1},
		{"?limit=500", http.StatusOK, 3},
		{"?limit=0", http.StatusBadRequest, 0},
		{"?offset=-1", http.StatusBadRequest, 0},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/api/jobs"+tt.query, nil)
			r.AddCookie(cookie)
			rec := serve(e.authed(h.List), r)
			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if tt.wantStatus != http.StatusOK {
				return
			}
			var got struct {
				Jobs  []model.Job `json:"jobs"`
				Limit int         `json:"limit"`
			}
			decodeBody(t, rec, &got)
			if len(got.Jobs) != tt.wantCount {
				t.Errorf("jobs = %d, want %d", len(got.Jobs), tt.wantCount)
			}
			if got.Limit > maxPageSize {
				t.Errorf("limit = %d, want <= %d", got.Limit, maxPageSize)
			}
		})
	}
}

func TestJobsGetOwnerOnly(t *testing.T) {
	e := newTestEnv(t)
	h := NewJobsHandler(e.jobs, e.apps, e.logger)
	owner, ownerCookie := e.login(t, "g-1", "a@example.com")
	_, otherCookie := e.login(t, "g-2", "b@example.com")
	job := seedJobs(t, e, owner.ID, 1)[0]

	mux := http.NewServeMux()
	mux.Handle("GET /api/jobs/{id}", e.authed(h.Get))

	get := func(c *http.Cookie, id string) int {
		r := httptest.NewRequest(http.MethodGet, "/api/jobs/"+id, nil)
		r.AddCookie(c)
		return serve(mux, r).Code
	}

	id := fmt.Sprint(job.ID)
	if got := get(ownerCookie, id); got != http.StatusOK {
		t.Errorf("owner status = %d, want %d", got, http.StatusOK)
	}
	if got := get(otherCookie, id); got != http.StatusNotFound {
		t.Errorf("other status = %d, want %d", got, http.StatusNotFound)
	}
	if got := get(ownerCookie, "abc"); got != http.StatusBadRequest {
		t.Errorf("bad id status = %d, want %d", got, http.StatusBadRequest)
	}
}

func TestApplicationsEmptyList(t *testing.T) {
	e := newTestEnv(t)
	h := NewJobsHandler(e.jobs, e.apps, e.logger)
	_, cookie := e.login(t, "g-1", "a@example.com")

	r := httptest.NewRequest(http.MethodGet, "/api/email-applications", nil)
	r.AddCookie(cookie)
	rec := serve(e.authed(h.Applications), r)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	if got := rec.Body.String(); got != "[]\n" {
		t.Errorf("body = %q, want []", got)
	}
}

func TestAnalyticsStats(t *testing.T) {
	e := newTestEnv(t)
	h := NewJobsHandler(e.jobs, e.apps, e.logger)
	u, cookie := e.login(t, "g-1", "a@example.com")
	seedJobs(t, e, u.ID, 4)

	now := time.Now()
	for _, a := range []model.EmailApplication{
		{UserID: u.ID, JobTitle: "A", CompanyName: "Acme", CompanyEmail: "hr@acme.test", SentAt: now.Add(-time.Hour)},
		{UserID: u.ID, JobTitle: "B", CompanyName: "Acme", CompanyEmail: "HR@acme.test", SentAt: now.Add(-48 * time.Hour)},
		{UserID: u.ID, JobTitle: "C", CompanyName: "Globex", SentAt: now.Add(-30 * 24 * time.Hour)},
	} {
		if _, err := e.apps.Create(&a); err != nil {
			t.Fatalf("create application: %v", err)
		}
	}

	r := httptest.NewRequest(http.MethodGet, "/api/analytics/stats", nil)
	r.AddCookie(cookie)
	rec := serve(e.authed(h.Stats), r)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}

	var got model.Stats
	decodeBody(t, rec, &got)
	want := model.Stats{TotalApplications: 3, ApplicationsThisWeek: 2, CompaniesContacted: 2, JobsFound: 4, Tier: model.TierFree}
	if got != want {
		t.Errorf("stats = %+v, want %+v", got, want)
	}
}
