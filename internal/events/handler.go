package events

import (
	"net/http"
	"net/url"

	ws "github.com/coder/websocket"

	"github.com/aijobhunter/jobhunter/internal/apperr"
	"github.com/aijobhunter/jobhunter/internal/auth"
)

// HandleWebSocket upgrades an authenticated request and runs it as a hub client.
// Only the host of allowedOrigin may open connections cross-origin.
func (h *Hub) HandleWebSocket(allowedOrigin string) http.HandlerFunc {
	var patterns []string
	if u, err := url.Parse(allowedOrigin); err == nil && u.Host != "" {
		patterns = []string{u.Host}
	}

	return func(w http.ResponseWriter, r *http.Request) {
		userID := auth.UserID(r.Context())
		if userID == 0 {
			apperr.Write(w, nil, apperr.Unauthenticated("authentication required"))
			return
		}

		conn, err := ws.Accept(w, r, &ws.AcceptOptions{OriginPatterns: patterns})
		if err != nil {
			h.logger.Warn("websocket accept", "user_id", userID, "error", err)
			return
		}

		NewClient(h, conn, userID).Run(r.Context())
	}
}
