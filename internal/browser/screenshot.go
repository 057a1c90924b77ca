package browser

import (
	"context"
	"time"

	"github.com/dvloznov/mf-dashboard/internal/diagnostics"
	"github.com/dvloznov/mf-dashboard/internal/logger"
)

const screenshotTimeout = 10 * time.Second

// WithErrorScreenshot runs fn. When fn fails it saves a screenshot of page
// to sink and returns fn's error unchanged. Capture problems are only logged.
func WithErrorScreenshot(ctx context.Context, page Page, sink diagnostics.Sink, label string, fn func() error) error {
	err := fn()
	if err == nil || sink == nil {
		return err
	}

	log := logger.FromContext(ctx)

	// ctx may be the one that just expired
	shotCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), screenshotTimeout)
	defer cancel()

	png, shotErr := page.Screenshot(shotCtx)
	if shotErr != nil {
		log.Warn().Err(shotErr).Str("label", label).Msg("Failed to capture error screenshot")
		return err
	}

	where, saveErr := sink.Save(shotCtx, label, png)
	if saveErr != nil {
		log.Warn().Err(saveErr).Str("label", label).Msg("Failed to save error screenshot")
		return err
	}

	log.Error().Err(err).Str("label", label).Str("screenshot", where).Msg("Captured error screenshot")
	return err
}
