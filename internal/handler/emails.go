package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/aijobhunter/jobhunter/internal/apperr"
	"github.com/aijobhunter/jobhunter/internal/auth"
	"github.com/aijobhunter/jobhunter/internal/llm"
	"github.com/aijobhunter/jobhunter/internal/middleware"
	"github.com/aijobhunter/jobhunter/internal/model"
)

// Daily draft quotas per tier.
const (
	FreeDraftsPerDay = 5
	ProDraftsPerDay  = 100
	quotaWindow      = 24 * time.Hour
)

type Drafter interface {
	DraftApplication(ctx context.Context, applicant *model.User, resumeText string, job *model.Job) (*llm.Draft, error)
}

type JobLookup interface {
	GetForUser(userID, id int64) (*model.Job, error)
}

type EmailsHandler struct {
	drafter Drafter
	jobs    JobLookup
	resumes ResumeReader
	limiter *middleware.RateLimiter
	logger  *slog.Logger
}

// NewEmailsHandler wires draft generation. drafter may be nil when no model is
// configured.
func NewEmailsHandler(drafter Drafter, jobs JobLookup, resumes ResumeReader, limiter *middleware.RateLimiter, logger *slog.Logger) *EmailsHandler {
	return &EmailsHandler{drafter: drafter, jobs: jobs, resumes: resumes, limiter: limiter, logger: logger}
}

type generateRequest struct {
	JobID int64 `json:"job_id" validate:"required,gt=0"`
}

func (h *EmailsHandler) Generate(w http.ResponseWriter, r *http.Request) {
	if h.drafter == nil {
		apperr.Write(w, h.logger, apperr.Unavailable("email generation is not configured"))
		return
	}
	u := auth.UserFromContext(r.Context())

	var req generateRequest
	if err := decodeJSON(w, r, &req); err != nil {
		apperr.Write(w, h.logger, err)
		return
	}

	job, err := h.jobs.GetForUser(u.ID, req.JobID)
	if err != nil {
		apperr.Write(w, h.logger, apperr.Internal(err))
		return
	}
	if job == nil {
		apperr.Write(w, h.logger, apperr.NotFound("job not found"))
		return
	}

	res, err := h.resumes.GetByUserID(u.ID)
	if err != nil {
		apperr.Write(w, h.logger, apperr.Internal(err))
		return
	}
	if res == nil || res.ExtractedText == nil || *res.ExtractedText == "" {
		apperr.Write(w, h.logger, apperr.Validation("upload a resume with readable text first"))
		return
	}

	limit := FreeDraftsPerDay
	if u.Tier == model.TierPro {
		limit = ProDraftsPerDay
	}
	key := "drafts:user:" + strconv.FormatInt(u.ID, 10)
	if !h.limiter.Allow(key, limit, quotaWindow) {
		apperr.Write(w, h.logger, apperr.RateLimited("daily email generation limit reached"))
		return
	}

	draft, err := h.drafter.DraftApplication(r.Context(), u, *res.ExtractedText, job)
	if err != nil {
		h.logger.Error("draft application", "user_id", u.ID, "job_id", job.ID, "error", err)
		apperr.Write(w, h.logger, apperr.Gateway("could not generate email", 0, err))
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"subject":   draft.Subject,
		"body":      draft.Body,
		"remaining": h.limiter.Remaining(key, limit),
	})
}
