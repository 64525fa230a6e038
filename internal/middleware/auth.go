package middleware

import (
	"net/http"

	"github.com/aijobhunter/jobhunter/internal/apperr"
	"github.com/aijobhunter/jobhunter/internal/auth"
)

// RequireAuth validates the session cookie and populates AuthContext.
// Requests without a valid session get a 401 JSON error and reach nothing else.
func RequireAuth(svc *auth.Service) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			u, sess, err := svc.RequireSession(auth.SessionToken(r))
			if err != nil {
				apperr.Write(w, nil, err)
				return
			}

			ctx := auth.WithAuth(r.Context(), auth.AuthContext{User: u, SessionID: sess.ID})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
