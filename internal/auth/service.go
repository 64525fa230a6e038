package auth

import (
	"log/slog"
	"strings"

	"github.com/aijobhunter/jobhunter/internal/apperr"
	"github.com/aijobhunter/jobhunter/internal/model"
)

type UserStore interface {
	Upsert(googleID, email string, p model.Profile) (*model.User, error)
	GetByID(id int64) (*model.User, error)
}

type SessionStore interface {
	Create(userID int64) (*model.Session, error)
	GetByToken(token string) (*model.Session, error)
	DeleteByToken(token string) error
}

// Service owns user identity and session lifecycle.
type Service struct {
	users    UserStore
	sessions SessionStore
	logger   *slog.Logger
}

func NewService(users UserStore, sessions SessionStore, logger *slog.Logger) *Service {
	return &Service{
		users:    users,
		sessions: sessions,
		logger:   logger.With("component", "auth"),
	}
}

// CompleteExternalLogin creates or refreshes the user for an external identity.
// The same identity id always resolves to the same user.
func (s *Service) CompleteExternalLogin(identityID, email string, p model.Profile) (*model.User, error) {
	identityID = strings.TrimSpace(identityID)
	email = strings.ToLower(strings.TrimSpace(email))
	if identityID == "" {
		return nil, apperr.Validation("identity id is required")
	}
	if email == "" {
		return nil, apperr.Validation("email is required")
	}

	u, err := s.users.Upsert(identityID, email, p)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	s.logger.Info("login completed", "user_id", u.ID)
	return u, nil
}

// StartSession issues a new session for the user.
func (s *Service) StartSession(userID int64) (*model.Session, error) {
	sess, err := s.sessions.Create(userID)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return sess, nil
}

// RequireSession resolves a session token to its user. A session whose user no
// longer exists is destroyed.
func (s *Service) RequireSession(token string) (*model.User, *model.Session, error) {
	if token == "" {
		return nil, nil, apperr.Unauthenticated("not authenticated")
	}
	sess, err := s.sessions.GetByToken(token)
	if err != nil {
		return nil, nil, apperr.Internal(err)
	}
	if sess == nil {
		return nil, nil, apperr.Unauthenticated("not authenticated")
	}

	u, err := s.users.GetByID(sess.UserID)
	if err != nil {
		return nil, nil, apperr.Internal(err)
	}
	if u == nil {
		if err := s.sessions.DeleteByToken(token); err != nil {
			s.logger.Error("destroy orphaned session", "session_id", sess.ID, "error", err)
		}
		return nil, nil, apperr.Unauthenticated("not authenticated")
	}
	return u, sess, nil
}

// Logout destroys the session. Unknown or expired tokens are not an error.
func (s *Service) Logout(token string) error {
	if token == "" {
		return nil
	}
	if err := s.sessions.DeleteByToken(token); err != nil {
		return apperr.Internal(err)
	}
	return nil
}
