// Package api wires the dashboard HTTP endpoints.
package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/dvloznov/mf-dashboard/internal/api/cache"
	"github.com/dvloznov/mf-dashboard/internal/api/handlers"
	"github.com/dvloznov/mf-dashboard/internal/api/middleware"
	"github.com/dvloznov/mf-dashboard/internal/jobs"
)

// Config holds what the router needs.
type Config struct {
	RevalidationToken string
	APIToken          string

	Groups    handlers.GroupReader
	Cache     *cache.ResponseCache
	Publisher jobs.Publisher
	JobStore  jobs.JobStore

	Log zerolog.Logger
}

// NewRouter builds the server handler with its middleware chain.
func NewRouter(cfg Config) http.Handler {
	revalidateHandler := handlers.NewRevalidateHandler(cfg.RevalidationToken, cfg.Cache)
	groupsHandler := handlers.NewGroupsHandler(cfg.Groups, cfg.Cache)
	crawlHandler := handlers.NewCrawlHandler(cfg.Publisher)
	jobsHandler := handlers.NewJobsHandler(cfg.JobStore)
	protect := middleware.BearerAuth(cfg.APIToken)

	mux := http.NewServeMux()

	mux.HandleFunc("/api/revalidate", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			revalidateHandler.Revalidate(w, r)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	mux.HandleFunc("/api/groups", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			groupsHandler.ListGroups(w, r)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	mux.HandleFunc("/api/groups/", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
			return
		}
		groupID, ok := strings.CutSuffix(strings.TrimPrefix(r.URL.Path, "/api/groups/"), "/asset-history")
		if !ok || groupID == "" || strings.Contains(groupID, "/") {
			middleware.WriteError(w, http.StatusNotFound, "Not found")
			return
		}
		groupsHandler.AssetHistory(w, r, groupID)
	})

	mux.Handle("/api/crawl", protect(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			crawlHandler.EnqueueCrawl(w, r)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})))

	mux.Handle("/api/jobs", protect(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			jobsHandler.ListJobs(w, r)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})))

	mux.Handle("/api/jobs/", protect(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
			return
		}
		jobID := strings.TrimPrefix(r.URL.Path, "/api/jobs/")
		if jobID == "" {
			middleware.WriteError(w, http.StatusBadRequest, "Job ID is required")
			return
		}
		jobsHandler.GetJob(w, r, jobID)
	})))

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		middleware.WriteJSON(w, http.StatusOK, map[string]string{
			"status": "healthy",
			"time":   time.Now().Format(time.RFC3339),
		})
	})

	return middleware.RequestID(cfg.Log)(
		middleware.Logger(
			middleware.Recovery(
				middleware.CORS(mux),
			),
		),
	)
}
