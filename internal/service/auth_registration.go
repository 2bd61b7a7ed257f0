package service

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"

	"github.com/boddenberg/budget-planner-bff/internal/domain"

	"go.uber.org/zap"
)

// ============================================================
// Register: POST /api/auth/register
// ============================================================

func (s *AuthService) Register(ctx context.Context, req *domain.RegisterRequest) error {
	ctx, span := authTracer.Start(ctx, "AuthService.Register")
	defer span.End()

	email, err := normalizeEmail(req.Email)
	if err != nil {
		return err
	}
	if strength := PasswordStrength(req.Password); strength.Passed < strength.Total {
		return &domain.ErrValidation{Field: "password", Message: firstFailedRule(strength)}
	}
	if req.ConfirmPassword != "" && req.ConfirmPassword != req.Password {
		return &domain.ErrValidation{Field: "confirmPassword", Message: "Passwords do not match"}
	}

	err = s.backend.Register(ctx, &domain.RegisterRequest{Email: email, Password: req.Password})
	var conflict *domain.ErrConflict
	switch {
	case errors.As(err, &conflict):
		return &domain.ErrConflict{Message: "Email already in use"}
	case err != nil:
		return fmt.Errorf("register: %w", err)
	}

	s.logger.Info("user registered", zap.String("email", email))
	return nil
}

// normalizeEmail trims and lowercases an address and checks that it parses
// as a bare address.
func normalizeEmail(raw string) (string, error) {
	email := strings.ToLower(strings.TrimSpace(raw))
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return "", &domain.ErrValidation{Field: "email", Message: "Invalid email address"}
	}
	return email, nil
}
