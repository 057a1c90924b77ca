package pipeline

import (
	"errors"

	"github.com/dvloznov/mf-dashboard/internal/auth"
	"github.com/dvloznov/mf-dashboard/internal/browser"
	"github.com/dvloznov/mf-dashboard/internal/config"
	"github.com/dvloznov/mf-dashboard/internal/scraper"
	"github.com/dvloznov/mf-dashboard/internal/store"
)

// Error kinds of a crawl, matched with errors.Is.
var (
	ErrConfig      = errors.New("configuration error")
	ErrAuth        = browser.ErrAuth
	ErrExtraction  = scraper.ErrExtraction
	ErrPersistence = store.ErrPersistence
)

// IsConfigError reports whether err stems from missing or malformed settings.
func IsConfigError(err error) bool {
	return errors.Is(err, ErrConfig) ||
		errors.Is(err, auth.ErrMissingCredentials) ||
		errors.Is(err, auth.ErrMissingTOTPSecret) ||
		errors.Is(err, config.ErrDatabaseNotConfigured)
}

// Exit codes of cmd/crawler.
const (
	ExitOK          = 0
	ExitFailure     = 1
	ExitConfig      = 2
	ExitAuth        = 3
	ExitPersistence = 4
)

// ExitCode maps a crawl error to the process exit status.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return ExitOK
	case IsConfigError(err):
		return ExitConfig
	case errors.Is(err, ErrAuth):
		return ExitAuth
	case errors.Is(err, ErrPersistence):
		return ExitPersistence
	default:
		return ExitFailure
	}
}
