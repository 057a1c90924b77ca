package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/dvloznov/mf-dashboard/internal/api/cache"
	"github.com/dvloznov/mf-dashboard/internal/api/middleware"
	"github.com/dvloznov/mf-dashboard/internal/logger"
	"github.com/dvloznov/mf-dashboard/internal/store"
)

// HeaderCache reports whether a response came from the cache.
const HeaderCache = "X-Cache"

// GroupReader is the read side of the repository the dashboard API needs.
type GroupReader interface {
	ListGroups(ctx context.Context) ([]store.GroupRow, error)
	AssetHistory(ctx context.Context, groupID string) ([]store.AssetHistoryRow, error)
}

// GroupsHandler serves group data from the response cache.
type GroupsHandler struct {
	repo  GroupReader
	cache *cache.ResponseCache
}

// NewGroupsHandler creates a groups handler.
func NewGroupsHandler(repo GroupReader, c *cache.ResponseCache) *GroupsHandler {
	return &GroupsHandler{repo: repo, cache: c}
}

type groupResponse struct {
	ID            string     `json:"id"`
	Name          string     `json:"name"`
	IsCurrent     bool       `json:"is_current"`
	LastScrapedAt *time.Time `json:"last_scraped_at"`
}

type historyPointResponse struct {
	Date        string `json:"date"`
	TotalAssets int64  `json:"total_assets"`
	Change      int64  `json:"change"`
}

// ListGroups handles GET /api/groups
func (h *GroupsHandler) ListGroups(w http.ResponseWriter, r *http.Request) {
	h.serveCached(w, r, "groups", "Failed to list groups", func(ctx context.Context) (interface{}, error) {
		rows, err := h.repo.ListGroups(ctx)
		if err != nil {
			return nil, err
		}
		groups := make([]groupResponse, 0, len(rows))
		for _, g := range rows {
			groups = append(groups, groupResponse{ID: g.ID, Name: g.Name, IsCurrent: g.IsCurrent, LastScrapedAt: g.LastScrapedAt})
		}
		return map[string]interface{}{
			"groups": groups,
			"count":  len(groups),
		}, nil
	})
}

// AssetHistory handles GET /api/groups/{id}/asset-history
func (h *GroupsHandler) AssetHistory(w http.ResponseWriter, r *http.Request, groupID string) {
	h.serveCached(w, r, "asset-history:"+groupID, "Failed to load asset history", func(ctx context.Context) (interface{}, error) {
		rows, err := h.repo.AssetHistory(ctx, groupID)
		if err != nil {
			return nil, err
		}
		points := make([]historyPointResponse, 0, len(rows))
		for _, p := range rows {
			points = append(points, historyPointResponse{Date: p.Date, TotalAssets: p.TotalAssets, Change: p.Change})
		}
		return map[string]interface{}{
			"group_id": groupID,
			"points":   points,
		}, nil
	})
}

func (h *GroupsHandler) serveCached(w http.ResponseWriter, r *http.Request, key, failure string, render func(context.Context) (interface{}, error)) {
	if body, ok := h.cache.Get(key); ok {
		w.Header().Set(HeaderCache, "HIT")
		middleware.WriteRawJSON(w, http.StatusOK, body)
		return
	}

	log := logger.FromContext(r.Context())
	gen := h.cache.Generation()

	data, err := render(r.Context())
	if err != nil {
		log.Error().Err(err).Str("cache_key", key).Msg(failure)
		middleware.WriteError(w, http.StatusInternalServerError, failure)
		return
	}
	body, err := json.Marshal(data)
	if err != nil {
		log.Error().Err(err).Str("cache_key", key).Msg("Failed to encode response")
		middleware.WriteError(w, http.StatusInternalServerError, failure)
		return
	}

	h.cache.Set(key, body, gen)
	w.Header().Set(HeaderCache, "MISS")
	middleware.WriteRawJSON(w, http.StatusOK, body)
}
