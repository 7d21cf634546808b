package service

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/solicitudes-service/internal/auth"
	"github.com/spec-kit/solicitudes-service/internal/config"
	"github.com/spec-kit/solicitudes-service/internal/domain"
	"github.com/spec-kit/solicitudes-service/internal/repository"
	apperrors "github.com/spec-kit/solicitudes-service/pkg/util/errorutil"
)

// AuthService handles administrator login and provisioning.
type AuthService struct {
	admins     repository.AdminRepository
	tokenMgr   *auth.TokenManager
	bcryptCost int
	logger     *zap.Logger
}

// NewAuthService builds the service.
func NewAuthService(cfg config.AuthConfig, admins repository.AdminRepository, tokens *auth.TokenManager, logger *zap.Logger) *AuthService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthService{
		admins:     admins,
		tokenMgr:   tokens,
		bcryptCost: cfg.BcryptCost,
		logger:     logger,
	}
}

// AdminInput describes an administrator to provision.
type AdminInput struct {
	Username string
	Name     string
	Email    string
	Password string
	Role     domain.AdminRole
	Process  string
}

// Login verifies credentials and issues a token.
func (s *AuthService) Login(ctx context.Context, username, password string) (*domain.Admin, string, domain.Token, error) {
	admin, err := s.admins.GetByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, "", domain.Token{}, apperrors.NewUnauthorized("invalid credentials")
		}
		return nil, "", domain.Token{}, err
	}
	if !admin.Active {
		return nil, "", domain.Token{}, apperrors.NewUnauthorized("invalid credentials")
	}
	if err := auth.ComparePassword(admin.PasswordHash, password); err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			return nil, "", domain.Token{}, apperrors.NewUnauthorized("invalid credentials")
		}
		return nil, "", domain.Token{}, err
	}

	token, meta, err := s.tokenMgr.GenerateToken(admin)
	if err != nil {
		return nil, "", domain.Token{}, err
	}
	s.logger.Info("admin logged in", zap.String("username", admin.Username), zap.String("role", string(admin.Role)))
	return admin, token, meta, nil
}

// EnsureAdmin creates the admin unless the username is already taken.
func (s *AuthService) EnsureAdmin(ctx context.Context, input AdminInput) (*domain.Admin, error) {
	username := strings.TrimSpace(input.Username)
	if username == "" || input.Password == "" {
		return nil, apperrors.NewValidationError("username and password required", nil)
	}
	if input.Role == domain.AdminRoleProcess && strings.TrimSpace(input.Process) == "" {
		return nil, apperrors.NewValidationError("process admins need a process", nil)
	}

	existing, err := s.admins.GetByUsername(ctx, username)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, err
	}

	hash, err := auth.HashPassword(input.Password, s.bcryptCost)
	if err != nil {
		return nil, err
	}
	admin := &domain.Admin{
		Username:     username,
		Name:         strings.TrimSpace(input.Name),
		Email:        strings.ToLower(strings.TrimSpace(input.Email)),
		PasswordHash: hash,
		Role:         input.Role,
		Process:      strings.TrimSpace(input.Process),
		Active:       true,
	}
	if admin.Name == "" {
		admin.Name = username
	}
	if err := s.admins.Create(ctx, admin); err != nil {
		return nil, err
	}
	s.logger.Info("admin provisioned", zap.String("username", username), zap.String("role", string(admin.Role)))
	return admin, nil
}
