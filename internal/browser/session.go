// Package browser owns the single authenticated Chrome session a crawl runs in.
package browser

import (
	"context"
	"fmt"
	"time"

	"github.com/chromedp/chromedp"

	"github.com/dvloznov/mf-dashboard/internal/auth"
	"github.com/dvloznov/mf-dashboard/internal/diagnostics"
	"github.com/dvloznov/mf-dashboard/internal/logger"
)

// Config configures the browser and where session state lives.
type Config struct {
	BaseURL           string
	AuthStatePath     string
	Headless          bool
	NavigationTimeout time.Duration
	Screenshots       diagnostics.Sink

	// LoadLogin supplies credentials; defaults to auth.LoadLogin.
	LoadLogin func() (*auth.Login, error)
}

// Options are per-run session choices.
type Options struct {
	UseStoredAuth bool
}

// Session is one authenticated browser context. Pages opened through
// WithPage share its cookies.
type Session struct {
	cfg           Config
	browser       context.Context
	cancelBrowser context.CancelFunc
	cancelAlloc   context.CancelFunc
}

// Open launches Chrome and authenticates it.
// Credentials are validated before the browser starts.
func Open(ctx context.Context, cfg Config, opts Options) (*Session, error) {
	if cfg.NavigationTimeout <= 0 {
		cfg.NavigationTimeout = 30 * time.Second
	}
	loadLogin := cfg.LoadLogin
	if loadLogin == nil {
		loadLogin = auth.LoadLogin
	}
	login, err := loadLogin()
	if err != nil {
		return nil, err
	}

	allocOpts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", cfg.Headless),
		chromedp.WindowSize(1280, 2000),
	)
	// the browser outlives the caller's deadline and is torn down by Close
	base := context.WithoutCancel(ctx)
	allocCtx, cancelAlloc := chromedp.NewExecAllocator(base, allocOpts...)
	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx)

	s := &Session{
		cfg:           cfg,
		browser:       browserCtx,
		cancelBrowser: cancelBrowser,
		cancelAlloc:   cancelAlloc,
	}

	if err := chromedp.Run(browserCtx); err != nil {
		s.Close()
		return nil, fmt.Errorf("Open: start browser: %w", err)
	}

	err = s.WithPage(ctx, func(ctx context.Context, p Page) error {
		return s.WithErrorScreenshot(ctx, p, "login", func() error {
			return authenticate(ctx, p.(cookiePage), cfg, opts, login)
		})
	})
	if err != nil {
		s.Close()
		return nil, fmt.Errorf("Open: %w", err)
	}

	return s, nil
}

// WithPage opens a tab, runs fn with it and closes the tab on every exit path.
func (s *Session) WithPage(ctx context.Context, fn func(context.Context, Page) error) error {
	tab, cancelTab := chromedp.NewContext(s.browser)
	defer func() {
		if err := chromedp.Cancel(tab); err != nil {
			log := logger.FromContext(ctx)
			log.Debug().Err(err).Msg("Closing page")
		}
		cancelTab()
	}()

	return fn(ctx, &cdpPage{tab: tab, timeout: s.cfg.NavigationTimeout})
}

// WithErrorScreenshot runs fn and captures a screenshot of page if it fails.
func (s *Session) WithErrorScreenshot(ctx context.Context, page Page, label string, fn func() error) error {
	return WithErrorScreenshot(ctx, page, s.cfg.Screenshots, label, fn)
}

// Close shuts the browser down. It is safe to call more than once.
func (s *Session) Close() error {
	if s.cancelBrowser != nil {
		s.cancelBrowser()
		s.cancelBrowser = nil
	}
	if s.cancelAlloc != nil {
		s.cancelAlloc()
		s.cancelAlloc = nil
	}
	return nil
}
