package api_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dvloznov/mf-dashboard/internal/api"
	"github.com/dvloznov/mf-dashboard/internal/api/cache"
	"github.com/dvloznov/mf-dashboard/internal/api/handlers"
	"github.com/dvloznov/mf-dashboard/internal/jobs"
	"github.com/dvloznov/mf-dashboard/internal/jobs/inmemory"
	"github.com/dvloznov/mf-dashboard/internal/logger"
	"github.com/dvloznov/mf-dashboard/internal/revalidate"
	"github.com/dvloznov/mf-dashboard/internal/store"
)

type fakeGroups struct {
	groups     []store.GroupRow
	history    map[string][]store.AssetHistoryRow
	err        error
	listCalls  int
	historyFor []string
}

func (f *fakeGroups) ListGroups(ctx context.Context) ([]store.GroupRow, error) {
	f.listCalls++
	return f.groups, f.err
}

func (f *fakeGroups) AssetHistory(ctx context.Context, groupID string) ([]store.AssetHistoryRow, error) {
	f.historyFor = append(f.historyFor, groupID)
	return f.history[groupID], f.err
}

type server struct {
	handler http.Handler
	groups  *fakeGroups
	jobs    *inmemory.Store
}

func newServer(t *testing.T, revalidationToken, apiToken string) *server {
	t.Helper()
	scraped := time.Date(2024, 1, 20, 7, 30, 0, 0, time.UTC)
	groups := &fakeGroups{
		groups: []store.GroupRow{
			{ID: "g-family", Name: "家族", IsCurrent: true, LastScrapedAt: &scraped},
			{ID: "0", Name: "グループ選択なし"},
		},
		history: map[string][]store.AssetHistoryRow{
			"g-family": {{GroupID: "g-family", Date: "2024-01-19", TotalAssets: 1200000, Change: 3000}},
		},
	}
	jobStore := inmemory.NewStore()
	queue := inmemory.NewQueue(10, jobStore)
	t.Cleanup(func() { queue.Close() })

	return &server{
		handler: api.NewRouter(api.Config{
			RevalidationToken: revalidationToken,
			APIToken:          apiToken,
			Groups:            groups,
			Cache:             cache.New(time.Minute),
			Publisher:         queue,
			JobStore:          jobStore,
			Log:               logger.Nop(),
		}),
		groups: groups,
		jobs:   jobStore,
	}
}

func (s *server) do(method, path, body string, headers map[string]string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func TestRevalidate(t *testing.T) {
	tests := []struct {
		name     string
		token    string
		header   string
		method   string
		wantCode int
		wantBody string
	}{
		{"unconfigured", "", "anything", http.MethodPost, http.StatusInternalServerError, `{"error":"REVALIDATION_TOKEN is not configured"}`},
		{"missing header", "s3cret", "", http.MethodPost, http.StatusUnauthorized, `{"error":"Unauthorized"}`},
		{"wrong token", "s3cret", "guess", http.MethodPost, http.StatusUnauthorized, `{"error":"Unauthorized"}`},
		{"wrong method", "s3cret", "s3cret", http.MethodGet, http.StatusMethodNotAllowed, `{"error":"Method not allowed"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newServer(t, tt.token, "")
			headers := map[string]string{}
			if tt.header != "" {
				headers[revalidate.HeaderToken] = tt.header
			}
			rec := s.do(tt.method, "/api/revalidate", "", headers)
			assert.Equal(t, tt.wantCode, rec.Code)
			assert.JSONEq(t, tt.wantBody, rec.Body.String())
		})
	}
}

func TestRevalidate_InvalidatesCache(t *testing.T) {
	s := newServer(t, "s3cret", "")

	first := s.do(http.MethodGet, "/api/groups", "", nil)
	require.Equal(t, http.StatusOK, first.Code)
	assert.Equal(t, "MISS", first.Header().Get(handlers.HeaderCache))

	second := s.do(http.MethodGet, "/api/groups", "", nil)
	assert.Equal(t, "HIT", second.Header().Get(handlers.HeaderCache))
	assert.Equal(t, first.Body.String(), second.Body.String())
	assert.Equal(t, 1, s.groups.listCalls)

	before := time.Now().UTC().Truncate(time.Second)
	rec := s.do(http.MethodPost, "/api/revalidate", "", map[string]string{revalidate.HeaderToken: "s3cret"})
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, true, body["revalidated"])
	stamp, ok := body["timestamp"].(string)
	require.True(t, ok, "timestamp is an ISO-8601 string")
	at, err := time.Parse(time.RFC3339Nano, stamp)
	require.NoError(t, err)
	assert.False(t, at.Before(before))
	assert.Equal(t, time.UTC, at.Location())

	third := s.do(http.MethodGet, "/api/groups", "", nil)
	assert.Equal(t, "MISS", third.Header().Get(handlers.HeaderCache))
	assert.Equal(t, 2, s.groups.listCalls)
}

func TestListGroups(t *testing.T) {
	s := newServer(t, "", "")
	rec := s.do(http.MethodGet, "/api/groups", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{
		"count": 2,
		"groups": [
			{"id":"g-family","name":"家族","is_current":true,"last_scraped_at":"2024-01-20T07:30:00Z"},
			{"id":"0","name":"グループ選択なし","is_current":false,"last_scraped_at":null}
		]
	}`, rec.Body.String())
}

func TestListGroups_ErrorIsNotCached(t *testing.T) {
	s := newServer(t, "", "")
	s.groups.err = errors.New("connection refused")

	rec := s.do(http.MethodGet, "/api/groups", "", nil)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"error":"Failed to list groups"}`, rec.Body.String())

	s.groups.err = nil
	rec = s.do(http.MethodGet, "/api/groups", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "MISS", rec.Header().Get(handlers.HeaderCache))
}

func TestAssetHistory(t *testing.T) {
	s := newServer(t, "", "")

	rec := s.do(http.MethodGet, "/api/groups/g-family/asset-history", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"group_id":"g-family","points":[{"date":"2024-01-19","total_assets":1200000,"change":3000}]}`, rec.Body.String())

	rec = s.do(http.MethodGet, "/api/groups/g-invest/asset-history", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"group_id":"g-invest","points":[]}`, rec.Body.String())

	for _, path := range []string{"/api/groups/g-family", "/api/groups/a/b/asset-history"} {
		assert.Equal(t, http.StatusNotFound, s.do(http.MethodGet, path, "", nil).Code, path)
	}
	assert.Equal(t, []string{"g-family", "g-invest"}, s.groups.historyFor)
}

func TestCrawlAndJobs(t *testing.T) {
	s := newServer(t, "", "")

	rec := s.do(http.MethodPost, "/api/crawl", `{"mode":"group-only","skip_refresh":true}`, nil)
	require.Equal(t, http.StatusAccepted, rec.Code)
	created := decode(t, rec)
	jobID, _ := created["job_id"].(string)
	require.NotEmpty(t, jobID)
	assert.Equal(t, "group-only", created["mode"])
	assert.Equal(t, true, created["skip_refresh"])
	assert.Equal(t, "pending", created["status"])

	rec = s.do(http.MethodGet, "/api/jobs/"+jobID, "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, jobID, decode(t, rec)["job_id"])

	rec = s.do(http.MethodGet, "/api/jobs?status=pending", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(1), decode(t, rec)["count"])

	stored, err := s.jobs.GetJob(context.Background(), jobID)
	require.NoError(t, err)
	assert.Equal(t, jobs.JobStatusPending, stored.Status)
}

func TestCrawl_EmptyBodyDefaultsToFull(t *testing.T) {
	s := newServer(t, "", "")
	rec := s.do(http.MethodPost, "/api/crawl", "", nil)
	require.Equal(t, http.StatusAccepted, rec.Code)
	assert.Equal(t, "full", decode(t, rec)["mode"])
}

func TestCrawl_BadRequests(t *testing.T) {
	s := newServer(t, "", "")
	assert.Equal(t, http.StatusBadRequest, s.do(http.MethodPost, "/api/crawl", `{"mode":"partial"}`, nil).Code)
	assert.Equal(t, http.StatusBadRequest, s.do(http.MethodPost, "/api/crawl", `{not json`, nil).Code)
	assert.Equal(t, http.StatusMethodNotAllowed, s.do(http.MethodGet, "/api/crawl", "", nil).Code)
	assert.Equal(t, http.StatusNotFound, s.do(http.MethodGet, "/api/jobs/nope", "", nil).Code)
}

func TestCrawl_RequiresAPIToken(t *testing.T) {
	s := newServer(t, "", "api-secret")

	assert.Equal(t, http.StatusUnauthorized, s.do(http.MethodPost, "/api/crawl", "", nil).Code)
	assert.Equal(t, http.StatusUnauthorized, s.do(http.MethodGet, "/api/jobs", "", nil).Code)

	auth := map[string]string{"Authorization": "Bearer api-secret"}
	assert.Equal(t, http.StatusAccepted, s.do(http.MethodPost, "/api/crawl", "", auth).Code)
	assert.Equal(t, http.StatusOK, s.do(http.MethodGet, "/api/jobs", "", auth).Code)

	// dashboard reads stay public
	assert.Equal(t, http.StatusOK, s.do(http.MethodGet, "/api/groups", "", nil).Code)
}

func TestHealth(t *testing.T) {
	s := newServer(t, "", "")
	rec := s.do(http.MethodGet, "/health", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "healthy", decode(t, rec)["status"])
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}
