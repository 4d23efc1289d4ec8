// Package totp wraps RFC 6238 one-time passwords with the parameters the
// confirmation flow uses: 30 second step, 6 digits, SHA1.
package totp

import (
	"fmt"
	"strings"
	"time"

	"github.com/pquerna/otp"
	pqtotp "github.com/pquerna/otp/totp"
)

const (
	Period = 30
	Digits = otp.DigitsSix
)

var opts = pqtotp.ValidateOpts{
	Period:    Period,
	Skew:      0,
	Digits:    Digits,
	Algorithm: otp.AlgorithmSHA1,
}

// GenerateSecret returns a fresh base32 secret and its otpauth:// URL for
// enrolling an authenticator app.
func GenerateSecret(issuer, account string) (secret, url string, err error) {
	key, err := pqtotp.Generate(pqtotp.GenerateOpts{
		Issuer:      issuer,
		AccountName: account,
		Period:      Period,
		Digits:      Digits,
		Algorithm:   otp.AlgorithmSHA1,
	})
	if err != nil {
		return "", "", fmt.Errorf("generate totp secret: %w", err)
	}
	return key.Secret(), key.URL(), nil
}

// CurrentCode returns the code for t. An empty secret yields an empty code.
func CurrentCode(secret string, t time.Time) (string, error) {
	if secret == "" {
		return "", nil
	}
	code, err := pqtotp.GenerateCodeCustom(secret, t, opts)
	if err != nil {
		return "", fmt.Errorf("generate totp code: %w", err)
	}
	return code, nil
}

// Verify reports whether code is valid for secret at t.
func Verify(code, secret string, t time.Time) bool {
	if secret == "" {
		return false
	}
	ok, err := pqtotp.ValidateCustom(strings.TrimSpace(code), secret, t, opts)
	return err == nil && ok
}
