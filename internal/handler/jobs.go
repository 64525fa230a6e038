package handler

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/aijobhunter/jobhunter/internal/apperr"
	"github.com/aijobhunter/jobhunter/internal/auth"
	"github.com/aijobhunter/jobhunter/internal/model"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
	statsWindow     = 7 * 24 * time.Hour
)

type JobReader interface {
	GetForUser(userID, id int64) (*model.Job, error)
	ListByUserID(userID int64, limit, offset int) ([]model.Job, error)
	CountByUserID(userID int64) (int, error)
}

type ApplicationReader interface {
	ListByUserID(userID int64) ([]model.EmailApplication, error)
	Stats(userID int64, since time.Time) (total, recent, companies int, err error)
}

type JobsHandler struct {
	jobs   JobReader
	apps   ApplicationReader
	logger *slog.Logger
	now    func() time.Time
}

func NewJobsHandler(jobs JobReader, apps ApplicationReader, logger *slog.Logger) *JobsHandler {
	return &JobsHandler{jobs: jobs, apps: apps, logger: logger, now: time.Now}
}

func (h *JobsHandler) List(w http.ResponseWriter, r *http.Request) {
	limit, offset, err := pageParams(r)
	if err != nil {
		apperr.Write(w, h.logger, err)
		return
	}

	jobs, err := h.jobs.ListByUserID(auth.UserID(r.Context()), limit, offset)
	if err != nil {
		apperr.Write(w, h.logger, apperr.Internal(err))
		return
	}
	if jobs == nil {
		jobs = []model.Job{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"jobs":   jobs,
		"limit":  limit,
		"offset": offset,
	})
}

func (h *JobsHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		apperr.Write(w, h.logger, apperr.Validation("invalid id"))
		return
	}

	job, err := h.jobs.GetForUser(auth.UserID(r.Context()), id)
	if err != nil {
		apperr.Write(w, h.logger, apperr.Internal(err))
		return
	}
	if job == nil {
		apperr.Write(w, h.logger, apperr.NotFound("job not found"))
		return
	}
	writeJSON(w, http.StatusOK, job)
}

func (h *JobsHandler) Applications(w http.ResponseWriter, r *http.Request) {
	apps, err := h.apps.ListByUserID(auth.UserID(r.Context()))
	if err != nil {
		apperr.Write(w, h.logger, apperr.Internal(err))
		return
	}
	if apps == nil {
		apps = []model.EmailApplication{}
	}
	writeJSON(w, http.StatusOK, apps)
}

func (h *JobsHandler) Stats(w http.ResponseWriter, r *http.Request) {
	u := auth.UserFromContext(r.Context())

	total, recent, companies, err := h.apps.Stats(u.ID, h.now().Add(-statsWindow))
	if err != nil {
		apperr.Write(w, h.logger, apperr.Internal(err))
		return
	}
	found, err := h.jobs.CountByUserID(u.ID)
	if err != nil {
		apperr.Write(w, h.logger, apperr.Internal(err))
		return
	}

	writeJSON(w, http.StatusOK, model.Stats{
		TotalApplications:    total,
		ApplicationsThisWeek: recent,
		CompaniesContacted:   companies,
		JobsFound:            found,
		Tier:                 u.Tier,
	})
}

func pageParams(r *http.Request) (limit, offset int, err error) {
	limit = defaultPageSize
	q := r.URL.Query()
	if v := q.Get("limit"); v != "" {
		n, convErr := strconv.Atoi(v)
		if convErr != nil || n < 1 {
			return 0, 0, apperr.Validation("limit must be a positive integer")
		}
		limit = min(n, maxPageSize)
	}
	if v := q.Get("offset"); v != "" {
		n, convErr := strconv.Atoi(v)
		if convErr != nil || n < 0 {
			return 0, 0, apperr.Validation("offset must be a non-negative integer")
		}
		offset = n
	}
	return limit, offset, nil
}
