package browser

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dvloznov/mf-dashboard/internal/auth"
	"github.com/dvloznov/mf-dashboard/internal/logger"
)

// ErrAuth marks a rejected or incomplete sign-in. It is fatal to a run.
var ErrAuth = errors.New("authentication failed")

// Sign-in form selectors.
const (
	emailInputSelector    = `input[name="mfid_user[email]"]`
	passwordInputSelector = `input[name="mfid_user[password]"]`
	otpInputSelector      = `input[name="otp_attempt"]`
	submitSelector        = `#submitto`
)

// Any of these in the current location means the session is not signed in.
var signInMarkers = []string{"/sign_in", "id.moneyforward.com", "/two_factor_auth"}

// AuthState is the cookie jar saved between runs.
type AuthState struct {
	SavedAt time.Time `json:"savedAt"`
	Cookies []Cookie  `json:"cookies"`
}

func loadAuthState(path string) (*AuthState, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var state AuthState
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("decode auth state %s: %w", path, err)
	}
	if len(state.Cookies) == 0 {
		return nil, fmt.Errorf("auth state %s has no cookies", path)
	}
	return &state, nil
}

func saveAuthState(path string, state *AuthState) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("create auth state dir: %w", err)
	}
	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return fmt.Errorf("encode auth state: %w", err)
	}
	// the file holds session cookies
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("write auth state %s: %w", path, err)
	}
	return nil
}

func isSignInLocation(loc string) bool {
	for _, m := range signInMarkers {
		if strings.Contains(loc, m) {
			return true
		}
	}
	return false
}

// signedIn loads the home page and reports whether the site kept us there.
func signedIn(ctx context.Context, page Page, baseURL string) (bool, error) {
	if err := page.Navigate(ctx, baseURL+"/"); err != nil {
		return false, err
	}
	loc, err := page.Location(ctx)
	if err != nil {
		return false, err
	}
	return !isSignInLocation(loc), nil
}

// authenticate restores the stored session when allowed and still valid,
// otherwise signs in interactively and stores the fresh cookie jar.
func authenticate(ctx context.Context, page cookiePage, cfg Config, opts Options, login *auth.Login) error {
	log := logger.FromContext(ctx)

	if opts.UseStoredAuth {
		state, err := loadAuthState(cfg.AuthStatePath)
		switch {
		case err == nil:
			if err := page.SetCookies(ctx, state.Cookies); err != nil {
				return err
			}
			ok, err := signedIn(ctx, page, cfg.BaseURL)
			if err != nil {
				return err
			}
			if ok {
				log.Info().Time("saved_at", state.SavedAt).Msg("Reusing stored authentication state")
				return nil
			}
			log.Info().Msg("Stored authentication state expired, signing in")
		case errors.Is(err, os.ErrNotExist):
			log.Info().Str("path", cfg.AuthStatePath).Msg("No stored authentication state, signing in")
		default:
			log.Warn().Err(err).Msg("Ignoring unreadable authentication state")
		}
	}

	if err := signIn(ctx, page, cfg.BaseURL, login); err != nil {
		return err
	}

	cookies, err := page.Cookies(ctx)
	if err != nil {
		return err
	}
	if err := saveAuthState(cfg.AuthStatePath, &AuthState{SavedAt: time.Now().UTC(), Cookies: cookies}); err != nil {
		// a run can proceed without persisting the session
		log.Warn().Err(err).Msg("Failed to save authentication state")
	}
	return nil
}

// signIn walks the email, password and one-time code forms.
func signIn(ctx context.Context, page Page, baseURL string, login *auth.Login) error {
	log := logger.FromContext(ctx)

	fail := func(step string, err error) error {
		return fmt.Errorf("%w: %s: %v", ErrAuth, step, err)
	}

	if err := page.Navigate(ctx, baseURL+"/sign_in"); err != nil {
		return fail("open sign-in page", err)
	}

	if err := fillAndSubmit(ctx, page, emailInputSelector, login.Username); err != nil {
		return fail("email", err)
	}
	if err := fillAndSubmit(ctx, page, passwordInputSelector, login.Password); err != nil {
		return fail("password", err)
	}

	// generated right before typing so the code is fresh
	code, err := login.OTP()
	if err != nil {
		return err
	}
	if err := fillAndSubmit(ctx, page, otpInputSelector, code); err != nil {
		return fail("one-time code", err)
	}

	ok, err := signedIn(ctx, page, baseURL)
	if err != nil {
		return fail("verify session", err)
	}
	if !ok {
		return fmt.Errorf("%w: credentials or one-time code rejected", ErrAuth)
	}

	log.Info().Msg("Signed in")
	return nil
}

func fillAndSubmit(ctx context.Context, page Page, selector, value string) error {
	if err := page.WaitVisible(ctx, selector); err != nil {
		return err
	}
	if err := page.SetValue(ctx, selector, value); err != nil {
		return err
	}
	return page.Click(ctx, submitSelector)
}
