package handler

import (
	"context"
	"net/http"

	"github.com/aijobhunter/jobhunter/internal/geo"
	"github.com/aijobhunter/jobhunter/internal/middleware"
)

type Locator interface {
	Locate(ctx context.Context, ip string) geo.Location
}

type LocationHandler struct {
	locator Locator
}

func NewLocationHandler(locator Locator) *LocationHandler {
	return &LocationHandler{locator: locator}
}

// UserLocation returns the caller's country and the plan price offered there.
func (h *LocationHandler) UserLocation(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.locator.Locate(r.Context(), middleware.RealIP(r)))
}
