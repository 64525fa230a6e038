package handler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/aijobhunter/jobhunter/internal/apperr"
	"github.com/aijobhunter/jobhunter/internal/auth"
	"github.com/aijobhunter/jobhunter/internal/model"
	"github.com/aijobhunter/jobhunter/internal/resume"
)

// multipart framing on top of the file itself
const uploadSlack = 1 << 20

type ResumeIngester interface {
	Ingest(ctx context.Context, userID int64, up resume.Upload) (*model.Resume, resume.Outcome, error)
}

type ResumeReader interface {
	GetByUserID(userID int64) (*model.Resume, error)
}

type ResumeHandler struct {
	ingester ResumeIngester
	resumes  ResumeReader
	logger   *slog.Logger
}

func NewResumeHandler(ingester ResumeIngester, resumes ResumeReader, logger *slog.Logger) *ResumeHandler {
	return &ResumeHandler{ingester: ingester, resumes: resumes, logger: logger}
}

type uploadResponse struct {
	Resume  *model.Resume  `json:"resume"`
	Outcome resume.Outcome `json:"outcome"`
}

// Upload accepts a multipart form with the file in the "resume" field.
func (h *ResumeHandler) Upload(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())

	r.Body = http.MaxBytesReader(w, r.Body, resume.MaxUploadSize+uploadSlack)
	file, header, err := r.FormFile("resume")
	if err != nil {
		var tooLarge *http.MaxBytesError
		switch {
		case errors.As(err, &tooLarge):
			apperr.Write(w, h.logger, apperr.Validation("file exceeds the 10 MB limit"))
		case errors.Is(err, http.ErrMissingFile):
			apperr.Write(w, h.logger, apperr.Validation("resume file is required"))
		default:
			apperr.Write(w, h.logger, apperr.Validation("invalid multipart form"))
		}
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, resume.MaxUploadSize+1))
	if err != nil {
		apperr.Write(w, h.logger, apperr.Validation("could not read upload"))
		return
	}

	saved, outcome, err := h.ingester.Ingest(r.Context(), userID, resume.Upload{
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Data:        data,
	})
	if err != nil {
		apperr.Write(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, uploadResponse{Resume: saved, Outcome: outcome})
}

func (h *ResumeHandler) Get(w http.ResponseWriter, r *http.Request) {
	res, err := h.resumes.GetByUserID(auth.UserID(r.Context()))
	if err != nil {
		apperr.Write(w, h.logger, apperr.Internal(err))
		return
	}
	if res == nil {
		apperr.Write(w, h.logger, apperr.NotFound("no resume uploaded"))
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// Formats publishes the accepted upload types.
func (h *ResumeHandler) Formats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"formats":  resume.Formats,
		"max_size": resume.MaxUploadSize,
	})
}
