// Package config reads crawler and server settings from the environment.
package config

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

// ErrDatabaseNotConfigured is returned when neither DATABASE_URL nor the POSTGRES_* triple is set.
var ErrDatabaseNotConfigured = errors.New(
	"Database connection not configured. Set DATABASE_URL or POSTGRES_USER/POSTGRES_PASSWORD/POSTGRES_DB.")

const (
	DefaultBaseURL           = "https://moneyforward.com"
	DefaultNavigationTimeout = 30 * time.Second
	DefaultRefreshTimeout    = 5 * time.Minute
	DefaultBigQueryDataset   = "mf_dashboard"
	DefaultPort              = "8080"
	DefaultCacheTTL          = 5 * time.Minute
)

// Crawler holds the settings of one crawl run.
type Crawler struct {
	BaseURL           string
	AuthStatePath     string
	ScreenshotDir     string // local directory or gs://bucket/prefix
	Headless          bool
	NavigationTimeout time.Duration
	RefreshTimeout    time.Duration

	BigQueryProject string // empty disables the warehouse export
	BigQueryDataset string

	RevalidationURL   string
	RevalidationToken string
}

// LoadCrawler reads crawler settings from the environment.
// Unset values fall back to defaults; malformed values are reported with the variable name.
func LoadCrawler() (*Crawler, error) {
	cfg := &Crawler{
		BaseURL:           strings.TrimRight(getenv("MF_BASE_URL", DefaultBaseURL), "/"),
		AuthStatePath:     getenv("AUTH_STATE_PATH", defaultAuthStatePath()),
		ScreenshotDir:     getenv("SCREENSHOT_DIR", "screenshots"),
		Headless:          true,
		NavigationTimeout: DefaultNavigationTimeout,
		RefreshTimeout:    DefaultRefreshTimeout,
		BigQueryProject:   os.Getenv("BIGQUERY_PROJECT"),
		BigQueryDataset:   getenv("BIGQUERY_DATASET", DefaultBigQueryDataset),
		RevalidationURL:   os.Getenv("REVALIDATION_URL"),
		RevalidationToken: os.Getenv("REVALIDATION_TOKEN"),
	}

	if v := os.Getenv("HEADLESS"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return nil, fmt.Errorf("HEADLESS: %w", err)
		}
		cfg.Headless = b
	}

	var err error
	if cfg.NavigationTimeout, err = durationEnv("NAVIGATION_TIMEOUT", DefaultNavigationTimeout); err != nil {
		return nil, err
	}
	if cfg.RefreshTimeout, err = durationEnv("REFRESH_TIMEOUT", DefaultRefreshTimeout); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Server holds the settings of the HTTP server.
type Server struct {
	Port string
	// RevalidationToken guards POST /api/revalidate. Empty rejects every call.
	RevalidationToken string
	// APIToken guards the crawl endpoints. Empty leaves them open.
	APIToken string
	CacheTTL time.Duration
}

// LoadServer reads server settings from the environment.
func LoadServer() (*Server, error) {
	cfg := &Server{
		Port:              getenv("PORT", DefaultPort),
		RevalidationToken: os.Getenv("REVALIDATION_TOKEN"),
		APIToken:          os.Getenv("API_TOKEN"),
	}
	var err error
	if cfg.CacheTTL, err = durationEnv("CACHE_TTL", DefaultCacheTTL); err != nil {
		return nil, err
	}
	return cfg, nil
}

// DatabaseURL returns the Postgres connection string.
// DATABASE_URL wins; otherwise it is assembled from POSTGRES_* variables.
func DatabaseURL() (string, error) {
	if dsn := os.Getenv("DATABASE_URL"); dsn != "" {
		return dsn, nil
	}

	user := os.Getenv("POSTGRES_USER")
	password := os.Getenv("POSTGRES_PASSWORD")
	db := os.Getenv("POSTGRES_DB")
	if user == "" || password == "" || db == "" {
		return "", ErrDatabaseNotConfigured
	}

	host := getenv("POSTGRES_HOST", "localhost")
	port := getenv("POSTGRES_PORT", "5432")

	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(user, password),
		Host:   net.JoinHostPort(host, port),
		Path:   "/" + db,
	}
	return u.String(), nil
}

func defaultAuthStatePath() string {
	return os.TempDir() + string(os.PathSeparator) + "mf-dashboard-auth.json"
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func durationEnv(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("%s: must be positive, got %s", key, v)
	}
	return d, nil
}
