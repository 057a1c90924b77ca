package auth

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"
)

var (
	// ErrMissingCredentials is returned when the login email or password is unset.
	ErrMissingCredentials = errors.New("MF_USERNAME and MF_PASSWORD are required")
	// ErrMissingTOTPSecret is returned when no TOTP shared secret is configured.
	ErrMissingTOTPSecret = errors.New("MF_TOTP_SECRET is required")
)

// Credentials are the login email and password for the aggregation site.
type Credentials struct {
	Username string
	Password string
}

// GetCredentials reads MF_USERNAME and MF_PASSWORD from the environment.
func GetCredentials() (Credentials, error) {
	username := os.Getenv("MF_USERNAME")
	password := os.Getenv("MF_PASSWORD")
	if username == "" || password == "" {
		return Credentials{}, ErrMissingCredentials
	}
	return Credentials{Username: username, Password: password}, nil
}

// GetOTP generates the current one-time code from MF_TOTP_SECRET.
func GetOTP() (string, error) {
	return GenerateOTP(os.Getenv("MF_TOTP_SECRET"), time.Now())
}

// GenerateOTP derives a 6 digit, 30 second, SHA-1 TOTP code for t.
func GenerateOTP(secret string, t time.Time) (string, error) {
	if secret == "" {
		return "", ErrMissingTOTPSecret
	}
	code, err := totp.GenerateCodeCustom(secret, t, totp.ValidateOpts{
		Period:    30,
		Digits:    otp.DigitsSix,
		Algorithm: otp.AlgorithmSHA1,
	})
	if err != nil {
		return "", fmt.Errorf("GenerateOTP: %w", err)
	}
	return code, nil
}

// Login bundles everything an interactive sign-in needs.
type Login struct {
	Credentials
	OTP func() (string, error)
}

// LoadLogin validates the full credential set up front so that a missing
// variable surfaces before the browser touches the network.
func LoadLogin() (*Login, error) {
	creds, err := GetCredentials()
	if err != nil {
		return nil, err
	}
	if os.Getenv("MF_TOTP_SECRET") == "" {
		return nil, ErrMissingTOTPSecret
	}
	return &Login{Credentials: creds, OTP: GetOTP}, nil
}
