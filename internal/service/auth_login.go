package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/boddenberg/budget-planner-bff/internal/domain"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// ============================================================
// Login: POST /api/auth/login
// ============================================================

func (s *AuthService) Login(ctx context.Context, req *domain.LoginRequest) (*domain.LoginResult, error) {
	ctx, span := authTracer.Start(ctx, "AuthService.Login")
	defer span.End()

	email, err := normalizeEmail(req.Email)
	if err != nil {
		return nil, err
	}
	if req.Password == "" {
		return nil, &domain.ErrValidation{Field: "password", Message: "Password is required"}
	}

	token, err := s.backend.Login(ctx, &domain.LoginRequest{Email: email, Password: req.Password})
	var unauthorized *domain.ErrUnauthorized
	switch {
	case errors.As(err, &unauthorized):
		s.logger.Warn("login rejected", zap.String("email", email))
		return nil, &domain.ErrUnauthorized{Message: "Invalid email or password"}
	case err != nil:
		return nil, fmt.Errorf("login: %w", err)
	}

	claims, err := s.ValidateAccessToken(token)
	if err != nil {
		s.logger.Error("backend issued a token that does not validate", zap.Error(err))
		return nil, &domain.ErrExternalService{Service: "auth", Err: err}
	}
	span.SetAttributes(attribute.String("user.id", claims.Subject))

	result := &domain.LoginResult{AccessToken: token, UserID: claims.Subject}
	if claims.ExpiresAt != nil {
		result.ExpiresAt = claims.ExpiresAt.Time
	}
	s.logger.Info("user logged in", zap.String("user_id", claims.Subject))
	return result, nil
}
