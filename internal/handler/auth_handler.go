package handler

import (
	"net/http"
	"time"

	"github.com/boddenberg/budget-planner-bff/internal/domain"
	"github.com/boddenberg/budget-planner-bff/internal/infra/client"
	"github.com/boddenberg/budget-planner-bff/internal/service"

	"go.uber.org/zap"
)

// ============================================================
// Authentication: /api/auth
// ============================================================

func authRegisterHandler(authSvc *service.AuthService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /api/auth/register")
		defer span.End()

		var req domain.RegisterRequest
		if !decodeBody(w, r, &req, false) {
			return
		}

		if err := authSvc.Register(ctx, &req); err != nil {
			handleServiceError(w, err, logger)
			return
		}

		writeJSON(w, http.StatusCreated, map[string]string{"status": "registered"})
	}
}

func authLoginHandler(authSvc *service.AuthService, cookieSecure bool, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /api/auth/login")
		defer span.End()

		var req domain.LoginRequest
		if !decodeBody(w, r, &req, false) {
			return
		}

		res, err := authSvc.Login(ctx, &req)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		cookie := &http.Cookie{
			Name:     client.AccessTokenCookie,
			Value:    res.AccessToken,
			Path:     "/",
			HttpOnly: true,
			Secure:   cookieSecure,
			SameSite: http.SameSiteLaxMode,
		}
		if !res.ExpiresAt.IsZero() {
			cookie.Expires = res.ExpiresAt
		}
		http.SetCookie(w, cookie)

		writeJSON(w, http.StatusOK, domain.LoginResponse{UserID: res.UserID, ExpiresAt: res.ExpiresAt})
	}
}

func authLogoutHandler(cookieSecure bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		http.SetCookie(w, &http.Cookie{
			Name:     client.AccessTokenCookie,
			Value:    "",
			Path:     "/",
			HttpOnly: true,
			Secure:   cookieSecure,
			SameSite: http.SameSiteLaxMode,
			MaxAge:   -1,
			Expires:  time.Unix(0, 0),
		})
		w.WriteHeader(http.StatusNoContent)
	}
}

type passwordStrengthRequest struct {
	Password string `json:"password"`
}

func passwordStrengthHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req passwordStrengthRequest
		if !decodeBody(w, r, &req, false) {
			return
		}
		writeJSON(w, http.StatusOK, service.PasswordStrength(req.Password))
	}
}
