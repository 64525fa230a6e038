package store

import (
	"database/sql"
	"fmt"

	"github.com/aijobhunter/jobhunter/internal/model"
)

type ResumeStore struct {
	db *sql.DB
}

func NewResumeStore(db *sql.DB) *ResumeStore {
	return &ResumeStore{db: db}
}

func scanResume(scanner interface{ Scan(...any) error }) (*model.Resume, error) {
	var r model.Resume
	var text sql.NullString
	err := scanner.Scan(
		&r.ID, &r.UserID, &r.OriginalFilename, &r.MimeType, &r.SizeBytes,
		&text, &r.StorageKey, &r.CreatedAt, &r.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if text.Valid {
		r.ExtractedText = &text.String
	}
	return &r, nil
}

const resumeCols = `id, user_id, original_filename, mime_type, size_bytes, extracted_text, storage_key, created_at, updated_at`

// Upsert writes the user's single resume record, replacing any previous one.
func (s *ResumeStore) Upsert(r *model.Resume) (*model.Resume, error) {
	var text sql.NullString
	if r.ExtractedText != nil {
		text = sql.NullString{String: *r.ExtractedText, Valid: true}
	}
	_, err := s.db.Exec(
		`INSERT INTO resumes (user_id, original_filename, mime_type, size_bytes, extracted_text, storage_key)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT (user_id) DO UPDATE SET
		     original_filename = excluded.original_filename,
		     mime_type = excluded.mime_type,
		     size_bytes = excluded.size_bytes,
		     extracted_text = excluded.extracted_text,
		     storage_key = excluded.storage_key,
		     updated_at = CURRENT_TIMESTAMP`,
		r.UserID, r.OriginalFilename, r.MimeType, r.SizeBytes, text, r.StorageKey,
	)
	if err != nil {
		return nil, fmt.Errorf("upsert resume: %w", err)
	}
	return s.GetByUserID(r.UserID)
}

func (s *ResumeStore) GetByUserID(userID int64) (*model.Resume, error) {
	row := s.db.QueryRow(`SELECT `+resumeCols+` FROM resumes WHERE user_id = ?`, userID)
	r, err := scanResume(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get resume: %w", err)
	}
	return r, nil
}

func (s *ResumeStore) DeleteByUserID(userID int64) error {
	_, err := s.db.Exec(`DELETE FROM resumes WHERE user_id = ?`, userID)
	if err != nil {
		return fmt.Errorf("delete resume: %w", err)
	}
	return nil
}
