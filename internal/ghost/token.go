// ABOUTME: Short-lived Admin API token signing for Ghost.
// ABOUTME: Builds HS256 JWTs from an id:hex-secret admin key.
package ghost

import (
	"encoding/hex"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/2389-research/ghostpost/internal/apperr"
)

// Audience is the JWT audience Ghost expects on Admin API tokens.
const Audience = "/v3/admin/"

// TokenTTL bounds how long a signed token is accepted.
const TokenTTL = 5 * time.Minute

// SplitAdminKey separates an admin key into its id and decoded secret bytes.
func SplitAdminKey(adminKey string) (id string, secret []byte, err error) {
	id, hexSecret, ok := strings.Cut(strings.TrimSpace(adminKey), ":")
	if !ok || id == "" || hexSecret == "" {
		return "", nil, apperr.Config("admin key must have the form <id>:<secret>")
	}
	secret, err = hex.DecodeString(hexSecret)
	if err != nil {
		return "", nil, apperr.Config("admin key secret is not hex: %v", err)
	}
	return id, secret, nil
}

// SignToken signs an Admin API token issued at now and valid for TokenTTL.
func SignToken(adminKey string, now time.Time) (string, error) {
	id, secret, err := SplitAdminKey(adminKey)
	if err != nil {
		return "", err
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"iat": now.Unix(),
		"exp": now.Add(TokenTTL).Unix(),
		"aud": Audience,
	})
	token.Header["kid"] = id

	signed, err := token.SignedString(secret)
	if err != nil {
		return "", apperr.Config("failed to sign admin token: %v", err)
	}
	return signed, nil
}
