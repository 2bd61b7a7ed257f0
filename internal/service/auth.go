// Package service holds the use cases of the BFF: the wizard sessions, the
// category and dashboard facades and the authentication flows.
package service

import (
	"github.com/boddenberg/budget-planner-bff/internal/port"

	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
)

var authTracer = otel.Tracer("service/auth")

// AuthService validates credentials locally and forwards them to the backend.
type AuthService struct {
	backend   port.AuthBackend
	jwtSecret []byte
	logger    *zap.Logger
}

// NewAuthService creates a new auth service.
func NewAuthService(backend port.AuthBackend, jwtSecret string, logger *zap.Logger) *AuthService {
	return &AuthService{
		backend:   backend,
		jwtSecret: []byte(jwtSecret),
		logger:    logger,
	}
}
