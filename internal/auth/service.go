package auth

import (
	"context"
	"errors"

	"logistics/internal/domain"
	"logistics/internal/repository"
	"logistics/pkg/apperror"
	"logistics/pkg/config"
	"logistics/pkg/passhash"
	"logistics/pkg/telemetry"
)

// Service issues and validates the bearer tokens POST /auth/token hands out.
type Service struct {
	users  repository.UserRepository
	tokens *tokenManager
}

// New builds a Service.
func New(users repository.UserRepository, cfg config.JWTConfig) *Service {
	return &Service{
		users:  users,
		tokens: newTokenManager(cfg),
	}
}

// IssueToken implements §6 POST /auth/token: fetch the user, verify the
// password, and mint an access token. Errors returned carry the exact
// apperror code the handler maps to a status (401 bad credentials, 403
// disabled user) — password verification runs before the active check so a
// wrong-password guess never discloses whether an account is disabled.
func (s *Service) IssueToken(ctx context.Context, username, password string) (token string, expiresIn int64, err error) {
	ctx, span := telemetry.StartSpan(ctx, "auth.Service.IssueToken")
	defer span.End()

	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, apperror.ErrUserNotFound) {
			return "", 0, apperror.New(apperror.CodeUnauthenticated, "invalid username or password")
		}
		return "", 0, err
	}

	valid, err := passhash.VerifyPassword(password, user.PasswordHash)
	if err != nil {
		return "", 0, apperror.Wrap(err, apperror.CodeInternal, "failed to verify password")
	}
	if !valid {
		return "", 0, apperror.New(apperror.CodeUnauthenticated, "invalid username or password")
	}

	if !user.Active {
		return "", 0, apperror.New(apperror.CodePermissionDenied, "user account is disabled")
	}

	role := "user"
	if user.IsSuperuser {
		role = "admin"
	}

	return s.tokens.issue(user.ID.String(), user.Username, role)
}

// ValidateToken validates a bearer token and returns the claims it carries,
// for internal/middleware to attach to the request context.
func (s *Service) ValidateToken(token string) (*passhash.Claims, error) {
	claims, err := s.tokens.validate(token)
	if err != nil {
		return nil, apperror.New(apperror.CodeUnauthenticated, "invalid or expired token")
	}
	return claims, nil
}

// CreateUser hashes password and persists a new, active account. No HTTP
// route exposes it; internal/crud has no user endpoints.
func (s *Service) CreateUser(ctx context.Context, username, password string, isSuperuser bool) (*domain.User, error) {
	hash, err := passhash.HashPassword(password)
	if err != nil {
		return nil, apperror.Wrap(err, apperror.CodeInternal, "failed to hash password")
	}

	u := &domain.User{
		Username:     username,
		PasswordHash: hash,
		Active:       true,
		IsSuperuser:  isSuperuser,
	}
	if err := s.users.Create(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}
