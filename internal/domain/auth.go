package domain

import (
	"context"
	"time"
)

// ============================================================
// Auth: Request / Response types
// ============================================================

// RegisterRequest is the body for POST /api/auth/register.
type RegisterRequest struct {
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirmPassword,omitempty"`
}

// LoginRequest is the body for POST /api/auth/login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResult carries the token issued by the backend.
type LoginResult struct {
	AccessToken string
	UserID      string
	ExpiresAt   time.Time
}

// LoginResponse is returned to the browser; the token itself travels in the cookie.
type LoginResponse struct {
	UserID    string    `json:"userId"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// PasswordRule is one line of the password strength checklist.
type PasswordRule struct {
	Label  string `json:"label"`
	Passed bool   `json:"passed"`
}

// PasswordStrength is returned by POST /api/auth/password-strength.
type PasswordStrength struct {
	Rules  []PasswordRule `json:"rules"`
	Passed int            `json:"passed"`
	Total  int            `json:"total"`
}

// ============================================================
// Authenticated session carried through the request context
// ============================================================

// Session identifies the authenticated user of a request.
type Session struct {
	UserID      string
	AccessToken string
}

type sessionKey struct{}

// WithSession stores s in ctx.
func WithSession(ctx context.Context, s Session) context.Context {
	return context.WithValue(ctx, sessionKey{}, s)
}

// SessionFromContext returns the session stored by WithSession.
func SessionFromContext(ctx context.Context) (Session, bool) {
	s, ok := ctx.Value(sessionKey{}).(Session)
	return s, ok
}
