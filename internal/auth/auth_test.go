package auth

import (
	"context"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/spec-kit/solicitudes-service/internal/domain"
	apperrors "github.com/spec-kit/solicitudes-service/pkg/util/errorutil"
)

type stubAdmins map[string]*domain.Admin

func (s stubAdmins) GetByID(_ context.Context, id string) (*domain.Admin, error) {
	if a, ok := s[id]; ok {
		return a, nil
	}
	return nil, pgx.ErrNoRows
}

func TestPasswordRoundTrip(t *testing.T) {
	hash, err := HashPassword("s3creto", bcrypt.MinCost)
	require.NoError(t, err)
	assert.NoError(t, ComparePassword(hash, "s3creto"))
	assert.ErrorIs(t, ComparePassword(hash, "otro"), ErrInvalidCredentials)
}

func TestTokenRoundTrip(t *testing.T) {
	tm := NewTokenManager("secret", 5)
	admin := &domain.Admin{ID: "a-1", Role: domain.AdminRoleProcess, Process: "Almacén"}

	signed, meta, err := tm.GenerateToken(admin)
	require.NoError(t, err)
	assert.True(t, meta.ExpiresAt.After(meta.IssuedAt))

	claims, err := tm.ParseToken(signed)
	require.NoError(t, err)
	assert.Equal(t, "a-1", claims.Subject)
	assert.Equal(t, domain.AdminRoleProcess, claims.Role)
	assert.Equal(t, "Almacén", claims.Process)

	_, err = NewTokenManager("other", 5).ParseToken(signed)
	assert.Error(t, err)
}

func newProtectedApp(admins stubAdmins, tm *TokenManager, roles ...domain.AdminRole) *fiber.App {
	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			de := apperrors.ToDomainError(err)
			return c.Status(de.HTTPStatus).SendString(de.Code)
		},
	})
	mw := NewAuthMiddleware(tm, admins)
	app.Get("/admin", mw.Handle, RequireRole(roles...), func(c *fiber.Ctx) error {
		admin, _ := AdminFromContext(c)
		return c.SendString(admin.Username)
	})
	return app
}

func TestAuthMiddleware(t *testing.T) {
	tm := NewTokenManager("secret", 5)
	active := &domain.Admin{ID: "a-1", Username: "almacen", Role: domain.AdminRoleProcess, Process: "Almacén", Active: true}
	disabled := &domain.Admin{ID: "a-2", Username: "old", Role: domain.AdminRoleProcess, Active: false}
	admins := stubAdmins{"a-1": active, "a-2": disabled}

	okToken, _, err := tm.GenerateToken(active)
	require.NoError(t, err)
	disabledToken, _, err := tm.GenerateToken(disabled)
	require.NoError(t, err)
	ghostToken, _, err := tm.GenerateToken(&domain.Admin{ID: "ghost"})
	require.NoError(t, err)

	cases := []struct {
		name   string
		header string
		roles  []domain.AdminRole
		status int
	}{
		{"missing header", "", nil, fiber.StatusUnauthorized},
		{"wrong scheme", "Basic abc", nil, fiber.StatusUnauthorized},
		{"garbage token", "Bearer abc", nil, fiber.StatusUnauthorized},
		{"unknown admin", "Bearer " + ghostToken, nil, fiber.StatusUnauthorized},
		{"disabled admin", "Bearer " + disabledToken, nil, fiber.StatusUnauthorized},
		{"ok", "Bearer " + okToken, nil, fiber.StatusOK},
		{"role mismatch", "Bearer " + okToken, []domain.AdminRole{domain.AdminRoleSupervisor}, fiber.StatusForbidden},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			app := newProtectedApp(admins, tm, tc.roles...)
			req := httptest.NewRequest(fiber.MethodGet, "/admin", nil)
			if tc.header != "" {
				req.Header.Set(fiber.HeaderAuthorization, tc.header)
			}
			resp, err := app.Test(req)
			require.NoError(t, err)
			assert.Equal(t, tc.status, resp.StatusCode)
		})
	}
}
