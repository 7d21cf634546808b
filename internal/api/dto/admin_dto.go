package dto

import (
	"time"

	"github.com/spec-kit/solicitudes-service/internal/domain"
)

// AdminLoginRequest payload.
type AdminLoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// AuthResponse carries an issued token.
type AuthResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// AdminResponse describes the logged in admin.
type AdminResponse struct {
	ID       string           `json:"id"`
	Username string           `json:"username"`
	Name     string           `json:"name"`
	Email    string           `json:"email"`
	Role     domain.AdminRole `json:"role"`
	Process  string           `json:"process,omitempty"`
}
