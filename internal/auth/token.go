// Package auth implements the POST /auth/token bearer boundary: password
// verification against the thin user table and JWT issuance/validation.
// Grounded on services/auth-svc/internal/token/jwt.go's Manager wrapping
// pkg/passhash.JWTManager, and on services/auth-svc/internal/service/auth.go's
// Login for the credential-check order.
package auth

import (
	"time"

	"logistics/pkg/config"
	"logistics/pkg/passhash"
)

// tokenManager wraps passhash.JWTManager the way auth-svc's token.Manager
// does, isolating the rest of this package from the passhash wire format.
type tokenManager struct {
	jwt *passhash.JWTManager
}

func newTokenManager(cfg config.JWTConfig) *tokenManager {
	expiry := cfg.AccessTokenExpiry
	if expiry == 0 {
		expiry = 24 * time.Hour
	}
	return &tokenManager{jwt: passhash.NewJWTManager(&passhash.JWTConfig{
		SecretKey:          cfg.SecretKey,
		AccessTokenExpiry:  expiry,
		RefreshTokenExpiry: cfg.RefreshTokenExpiry,
		Issuer:             cfg.Issuer,
	})}
}

func (m *tokenManager) issue(userID, username, role string) (token string, expiresIn int64, err error) {
	token, err = m.jwt.GenerateAccessToken(userID, username, role)
	if err != nil {
		return "", 0, err
	}
	return token, m.jwt.GetAccessTokenExpiry(), nil
}

func (m *tokenManager) validate(token string) (*passhash.Claims, error) {
	return m.jwt.ValidateToken(token)
}
