package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/aijobhunter/jobhunter/internal/model"
)

type UserStore struct {
	db *sql.DB
}

func NewUserStore(db *sql.DB) *UserStore {
	return &UserStore{db: db}
}

func scanUser(scanner interface{ Scan(...any) error }) (*model.User, error) {
	var u model.User
	var activatedAt sql.NullTime
	err := scanner.Scan(
		&u.ID, &u.GoogleID, &u.Email, &u.FirstName, &u.LastName, &u.DisplayName,
		&u.ProfileImageURL, &u.Tier, &activatedAt, &u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if activatedAt.Valid {
		u.SubscriptionActivatedAt = &activatedAt.Time
	}
	return &u, nil
}

const userCols = `id, google_id, email, first_name, last_name, display_name, profile_image_url, tier, subscription_activated_at, created_at, updated_at`

// Upsert inserts the user for googleID or refreshes the identity fields of the
// existing row. Tier and activation time are never touched here.
func (s *UserStore) Upsert(googleID, email string, p model.Profile) (*model.User, error) {
	_, err := s.db.Exec(
		`INSERT INTO users (google_id, email, first_name, last_name, display_name, profile_image_url)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT (google_id) DO UPDATE SET
		     email = excluded.email,
		     first_name = excluded.first_name,
		     last_name = excluded.last_name,
		     display_name = excluded.display_name,
		     profile_image_url = excluded.profile_image_url,
		     updated_at = CURRENT_TIMESTAMP`,
		googleID, email, p.FirstName, p.LastName, p.DisplayName, p.ProfileImageURL,
	)
	if err != nil {
		return nil, fmt.Errorf("upsert user: %w", err)
	}
	return s.GetByGoogleID(googleID)
}

func (s *UserStore) GetByID(id int64) (*model.User, error) {
	row := s.db.QueryRow(`SELECT `+userCols+` FROM users WHERE id = ?`, id)
	u, err := scanUser(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	return u, nil
}

func (s *UserStore) GetByGoogleID(googleID string) (*model.User, error) {
	row := s.db.QueryRow(`SELECT `+userCols+` FROM users WHERE google_id = ?`, googleID)
	u, err := scanUser(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get user by google id: %w", err)
	}
	return u, nil
}

func (s *UserStore) GetByEmail(email string) (*model.User, error) {
	row := s.db.QueryRow(`SELECT `+userCols+` FROM users WHERE email = ?`, email)
	u, err := scanUser(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get user by email: %w", err)
	}
	return u, nil
}

// promoteTier sets the tier inside an existing transaction.
func promoteTier(tx *sql.Tx, userID int64, tier model.Tier, at time.Time) error {
	_, err := tx.Exec(
		`UPDATE users SET tier = ?, subscription_activated_at = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		string(tier), at.UTC(), userID,
	)
	if err != nil {
		return fmt.Errorf("promote tier: %w", err)
	}
	return nil
}

func (s *UserStore) Delete(id int64) error {
	_, err := s.db.Exec(`DELETE FROM users WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	return nil
}
