package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/aijobhunter/jobhunter/internal/model"
)

type ApplicationStore struct {
	db *sql.DB
}

func NewApplicationStore(db *sql.DB) *ApplicationStore {
	return &ApplicationStore{db: db}
}

func scanApplication(scanner interface{ Scan(...any) error }) (*model.EmailApplication, error) {
	var a model.EmailApplication
	err := scanner.Scan(
		&a.ID, &a.UserID, &a.JobTitle, &a.CompanyName, &a.CompanyEmail,
		&a.JobURL, &a.Subject, &a.SentAt,
	)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

const applicationCols = `id, user_id, job_title, company_name, company_email, job_url, subject, sent_at`

// Create records a sent application. A zero SentAt means now.
func (s *ApplicationStore) Create(a *model.EmailApplication) (*model.EmailApplication, error) {
	sentAt := a.SentAt
	if sentAt.IsZero() {
		sentAt = time.Now()
	}
	result, err := s.db.Exec(
		`INSERT INTO email_applications (user_id, job_title, company_name, company_email, job_url, subject, sent_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		a.UserID, a.JobTitle, a.CompanyName, a.CompanyEmail, a.JobURL, a.Subject, sentAt.UTC(),
	)
	if err != nil {
		return nil, fmt.Errorf("insert application: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	row := s.db.QueryRow(`SELECT `+applicationCols+` FROM email_applications WHERE id = ?`, id)
	return scanApplication(row)
}

func (s *ApplicationStore) ListByUserID(userID int64) ([]model.EmailApplication, error) {
	rows, err := s.db.Query(
		`SELECT `+applicationCols+` FROM email_applications WHERE user_id = ? ORDER BY sent_at DESC, id DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("list applications: %w", err)
	}
	defer rows.Close()

	apps := []model.EmailApplication{}
	for rows.Next() {
		a, err := scanApplication(rows)
		if err != nil {
			return nil, fmt.Errorf("scan application: %w", err)
		}
		apps = append(apps, *a)
	}
	return apps, rows.Err()
}

// Stats counts the user's applications. since bounds the "this week" window.
func (s *ApplicationStore) Stats(userID int64, since time.Time) (total, recent, companies int, err error) {
	err = s.db.QueryRow(
		`SELECT
		     COUNT(*),
		     COALESCE(SUM(CASE WHEN sent_at >= ? THEN 1 ELSE 0 END), 0),
		     COUNT(DISTINCT CASE WHEN company_email != '' THEN lower(company_email) ELSE lower(company_name) END)
		 FROM email_applications WHERE user_id = ?`,
		since.UTC(), userID,
	).Scan(&total, &recent, &companies)
	if err != nil {
		return 0, 0, 0, fmt.Errorf("application stats: %w", err)
	}
	return total, recent, companies, nil
}
