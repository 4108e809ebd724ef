package auth

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"logistics/internal/domain"
	"logistics/pkg/apperror"
	"logistics/pkg/config"
)

type fakeUserRepo struct {
	byUsername map[string]*domain.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{byUsername: map[string]*domain.User{}}
}

func (r *fakeUserRepo) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	u, ok := r.byUsername[username]
	if !ok {
		return nil, apperror.ErrUserNotFound
	}
	return u, nil
}

func (r *fakeUserRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	for _, u := range r.byUsername {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, apperror.ErrUserNotFound
}

func (r *fakeUserRepo) Create(ctx context.Context, u *domain.User) error {
	u.ID = uuid.New()
	r.byUsername[u.Username] = u
	return nil
}

func testJWTConfig() config.JWTConfig {
	return config.JWTConfig{SecretKey: "test-secret", Issuer: "routing-svc"}
}

func TestIssueToken_Success(t *testing.T) {
	repo := newFakeUserRepo()
	svc := New(repo, testJWTConfig())

	_, err := svc.CreateUser(context.Background(), "dispatcher", "correcthorsebattery", false)
	require.NoError(t, err)

	token, expiresIn, err := svc.IssueToken(context.Background(), "dispatcher", "correcthorsebattery")

	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.Greater(t, expiresIn, int64(0))

	claims, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "dispatcher", claims.Username)
	assert.Equal(t, "user", claims.Role)
}

func TestIssueToken_UnknownUser(t *testing.T) {
	svc := New(newFakeUserRepo(), testJWTConfig())

	_, _, err := svc.IssueToken(context.Background(), "nobody", "whatever")

	require.Error(t, err)
	var appErr *apperror.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, apperror.CodeUnauthenticated, appErr.Code)
}

func TestIssueToken_WrongPassword(t *testing.T) {
	repo := newFakeUserRepo()
	svc := New(repo, testJWTConfig())
	_, err := svc.CreateUser(context.Background(), "dispatcher", "correcthorsebattery", false)
	require.NoError(t, err)

	_, _, err = svc.IssueToken(context.Background(), "dispatcher", "wrong")

	require.Error(t, err)
	var appErr *apperror.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, apperror.CodeUnauthenticated, appErr.Code)
}

func TestIssueToken_DisabledUser(t *testing.T) {
	repo := newFakeUserRepo()
	svc := New(repo, testJWTConfig())
	u, err := svc.CreateUser(context.Background(), "dispatcher", "correcthorsebattery", false)
	require.NoError(t, err)
	u.Active = false

	_, _, err = svc.IssueToken(context.Background(), "dispatcher", "correcthorsebattery")

	require.Error(t, err)
	var appErr *apperror.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, apperror.CodePermissionDenied, appErr.Code)
}

func TestIssueToken_AdminRole(t *testing.T) {
	repo := newFakeUserRepo()
	svc := New(repo, testJWTConfig())
	_, err := svc.CreateUser(context.Background(), "root", "correcthorsebattery", true)
	require.NoError(t, err)

	token, _, err := svc.IssueToken(context.Background(), "root", "correcthorsebattery")
	require.NoError(t, err)

	claims, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "admin", claims.Role)
}

func TestValidateToken_Malformed(t *testing.T) {
	svc := New(newFakeUserRepo(), testJWTConfig())

	_, err := svc.ValidateToken("not-a-jwt")

	require.Error(t, err)
	var appErr *apperror.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, apperror.CodeUnauthenticated, appErr.Code)
}
