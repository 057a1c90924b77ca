package handlers

import (
	"net/http"
	"time"

	"github.com/dvloznov/mf-dashboard/internal/api/cache"
	"github.com/dvloznov/mf-dashboard/internal/api/middleware"
	"github.com/dvloznov/mf-dashboard/internal/logger"
	"github.com/dvloznov/mf-dashboard/internal/revalidate"
)

// RevalidateHandler lets the crawler invalidate cached responses.
type RevalidateHandler struct {
	token string
	cache *cache.ResponseCache
	now   func() time.Time
}

// NewRevalidateHandler creates a revalidate handler. An empty token rejects every request.
func NewRevalidateHandler(token string, c *cache.ResponseCache) *RevalidateHandler {
	return &RevalidateHandler{token: token, cache: c, now: time.Now}
}

// Revalidate handles POST /api/revalidate
func (h *RevalidateHandler) Revalidate(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContext(r.Context())

	if h.token == "" {
		log.Error().Msg("Revalidation requested but REVALIDATION_TOKEN is not configured")
		middleware.WriteError(w, http.StatusInternalServerError, "REVALIDATION_TOKEN is not configured")
		return
	}

	got := r.Header.Get(revalidate.HeaderToken)
	if got == "" || !middleware.TokensEqual(got, h.token) {
		log.Warn().Msg("Revalidation rejected")
		middleware.WriteError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	h.cache.Invalidate()
	log.Info().Msg("Response cache invalidated")

	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"revalidated": true,
		"timestamp":   h.now().UTC().Format(time.RFC3339Nano),
	})
}
