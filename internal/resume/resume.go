// Package resume accepts resume uploads, stores the original file and keeps the
// extracted text on the user's single resume record.
package resume

import (
	"context"
	"fmt"
	"log/slog"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/aijobhunter/jobhunter/internal/apperr"
	"github.com/aijobhunter/jobhunter/internal/events"
	"github.com/aijobhunter/jobhunter/internal/model"
	"github.com/aijobhunter/jobhunter/internal/storage"
)

// MaxUploadSize is the largest accepted resume file.
const MaxUploadSize = 10 << 20

type Store interface {
	Upsert(r *model.Resume) (*model.Resume, error)
	GetByUserID(userID int64) (*model.Resume, error)
}

type Publisher interface {
	Publish(userID int64, msg events.Message)
}

type Upload struct {
	Filename    string
	ContentType string
	Data        []byte
}

// Outcome describes how well extraction went. A low-confidence result is still
// saved.
type Outcome struct {
	LowConfidence bool   `json:"low_confidence"`
	Message       string `json:"message,omitempty"`
}

type Service struct {
	store     Store
	blobs     storage.Blob
	ocr       OCR
	publisher Publisher
	logger    *slog.Logger
}

// NewService wires ingestion. ocr and publisher may be nil.
func NewService(store Store, blobs storage.Blob, ocr OCR, publisher Publisher, logger *slog.Logger) *Service {
	if ocr == nil {
		ocr = NoOCR{}
	}
	return &Service{
		store:     store,
		blobs:     blobs,
		ocr:       ocr,
		publisher: publisher,
		logger:    logger.With("component", "resume"),
	}
}

// Ingest validates, stores and extracts an uploaded resume, replacing the
// user's previous one.
func (s *Service) Ingest(ctx context.Context, userID int64, up Upload) (*model.Resume, Outcome, error) {
	if len(up.Data) == 0 {
		return nil, Outcome{}, apperr.Validation("resume file is empty")
	}
	if len(up.Data) > MaxUploadSize {
		return nil, Outcome{}, apperr.Validation("resume file exceeds 10 MB")
	}

	mimeType := DetectMIME(up.ContentType, up.Data)
	format, ok := Lookup(mimeType)
	if !ok {
		return nil, Outcome{}, apperr.UnsupportedType(mimeType)
	}
	filename := sanitizeFilename(up.Filename)

	previous, err := s.store.GetByUserID(userID)
	if err != nil {
		return nil, Outcome{}, apperr.Internal(err)
	}

	var key string
	if format.storesBlob {
		key = blobKey(userID, filename, format)
		if err := s.blobs.Put(ctx, key, up.Data, mimeType); err != nil {
			return nil, Outcome{}, apperr.Internal(err)
		}
	}

	var outcome Outcome
	var text *string
	raw, err := format.extract(ctx, s.ocr, mimeType, up.Data)
	if err != nil {
		s.logger.Warn("text extraction failed", "user_id", userID, "mime_type", mimeType, "error", err)
		outcome = Outcome{LowConfidence: true, Message: "We could not read text from this file. Try uploading a PDF or plain text version."}
	} else {
		cleaned := cleanText(raw)
		text = &cleaned
		if cleaned == "" {
			outcome = Outcome{LowConfidence: true, Message: "No text was found in this file. Scanned documents and images may need a text version."}
		}
	}

	saved, err := s.store.Upsert(&model.Resume{
		UserID:           userID,
		OriginalFilename: filename,
		MimeType:         mimeType,
		SizeBytes:        int64(len(up.Data)),
		ExtractedText:    text,
		StorageKey:       key,
	})
	if err != nil {
		if key != "" {
			s.deleteBlob(ctx, key)
		}
		return nil, Outcome{}, apperr.Internal(err)
	}

	if previous != nil && previous.StorageKey != "" && previous.StorageKey != key {
		s.deleteBlob(ctx, previous.StorageKey)
	}

	s.logger.Info("resume ingested", "user_id", userID, "mime_type", mimeType, "size", len(up.Data), "low_confidence", outcome.LowConfidence)
	if s.publisher != nil {
		s.publisher.Publish(userID, events.NewMessage("resume", "ingested", fmt.Sprint(saved.ID), map[string]any{
			"low_confidence": outcome.LowConfidence,
		}))
	}
	return saved, outcome, nil
}

func (s *Service) deleteBlob(ctx context.Context, key string) {
	if err := s.blobs.Delete(ctx, key); err != nil {
		s.logger.Warn("delete resume blob", "key", key, "error", err)
	}
}

func sanitizeFilename(name string) string {
	name = filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	name = strings.TrimSpace(name)
	if name == "" || name == "." || name == "/" {
		return "resume"
	}
	return name
}

func blobKey(userID int64, filename string, f Format) string {
	ext := strings.ToLower(path.Ext(filename))
	valid := false
	for _, e := range f.Extensions {
		if e == ext {
			valid = true
			break
		}
	}
	if !valid {
		ext = f.Extensions[0]
	}
	return fmt.Sprintf("resumes/%d/%s%s", userID, uuid.NewString(), ext)
}
