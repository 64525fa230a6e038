package store

import (
	"database/sql"
	"fmt"

	"github.com/aijobhunter/jobhunter/internal/model"
)

type JobStore struct {
	db *sql.DB
}

func NewJobStore(db *sql.DB) *JobStore {
	return &JobStore{db: db}
}

func scanJob(scanner interface{ Scan(...any) error }) (*model.Job, error) {
	var j model.Job
	var postedAt sql.NullTime
	err := scanner.Scan(
		&j.ID, &j.UserID, &j.Title, &j.CompanyName, &j.CompanyEmail,
		&j.Location, &j.Description, &j.JobURL, &postedAt, &j.ScrapedAt,
	)
	if err != nil {
		return nil, err
	}
	if postedAt.Valid {
		j.PostedAt = &postedAt.Time
	}
	return &j, nil
}

const jobCols = `id, user_id, title, company_name, company_email, location, description, job_url, posted_at, scraped_at`

// Save records a scraped job. A job URL already saved for the user updates the
// existing row.
func (s *JobStore) Save(j *model.Job) (*model.Job, error) {
	var postedAt sql.NullTime
	if j.PostedAt != nil {
		postedAt = sql.NullTime{Time: j.PostedAt.UTC(), Valid: true}
	}
	_, err := s.db.Exec(
		`INSERT INTO jobs (user_id, title, company_name, company_email, location, description, job_url, posted_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (user_id, job_url) DO UPDATE SET
		     title = excluded.title,
		     company_name = excluded.company_name,
		     company_email = excluded.company_email,
		     location = excluded.location,
		     description = excluded.description,
		     posted_at = excluded.posted_at`,
		j.UserID, j.Title, j.CompanyName, j.CompanyEmail, j.Location, j.Description, j.JobURL, postedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("save job: %w", err)
	}
	row := s.db.QueryRow(`SELECT `+jobCols+` FROM jobs WHERE user_id = ? AND job_url = ?`, j.UserID, j.JobURL)
	return scanJob(row)
}

// GetForUser returns the job only if it belongs to userID.
func (s *JobStore) GetForUser(userID, id int64) (*model.Job, error) {
	row := s.db.QueryRow(`SELECT `+jobCols+` FROM jobs WHERE id = ? AND user_id = ?`, id, userID)
	j, err := scanJob(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get job: %w", err)
	}
	return j, nil
}

func (s *JobStore) ListByUserID(userID int64, limit, offset int) ([]model.Job, error) {
	rows, err := s.db.Query(
		`SELECT `+jobCols+` FROM jobs WHERE user_id = ? ORDER BY scraped_at DESC, id DESC LIMIT ? OFFSET ?`,
		userID, limit, offset,
	)
	if err != nil {
		return nil, fmt.Errorf("list jobs: %w", err)
	}
	defer rows.Close()

	jobs := []model.Job{}
	for rows.Next() {
		j, err := scanJob(rows)
		if err != nil {
			return nil, fmt.Errorf("scan job: %w", err)
		}
		jobs = append(jobs, *j)
	}
	return jobs, rows.Err()
}

func (s *JobStore) CountByUserID(userID int64) (int, error) {
	var n int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM jobs WHERE user_id = ?`, userID).Scan(&n); err != nil {
		return 0, fmt.Errorf("count jobs: %w", err)
	}
	return n, nil
}
