package handler

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/boddenberg/budget-planner-bff/internal/domain"
	"github.com/boddenberg/budget-planner-bff/internal/infra/client"
	"github.com/boddenberg/budget-planner-bff/internal/infra/observability"
	"github.com/boddenberg/budget-planner-bff/internal/service"

	"go.uber.org/zap"
)

var publicPaths = map[string]bool{
	"/login":          true,
	"/register":       true,
	"/reset-password": true,
}

const publicPrefix = "/api/auth"

func isPublic(path string) bool {
	return publicPaths[path] || path == publicPrefix || strings.HasPrefix(path, publicPrefix+"/")
}

// tokenFromRequest reads the access token from the cookie, then from a
// Bearer header.
func tokenFromRequest(r *http.Request) string {
	if ck, err := r.Cookie(client.AccessTokenCookie); err == nil && ck.Value != "" {
		return ck.Value
	}
	parts := strings.SplitN(r.Header.Get("Authorization"), " ", 2)
	if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
		return strings.TrimSpace(parts[1])
	}
	return ""
}

// AuthGuard validates the access token and injects the session into the
// context. Unauthenticated API calls get a 401, pages are redirected to the
// login page with the original path in next.
func AuthGuard(authSvc *service.AuthService, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if isPublic(r.URL.Path) {
				next.ServeHTTP(w, r)
				return
			}

			token := tokenFromRequest(r)
			if token == "" {
				deny(w, r, "authentication required")
				return
			}

			claims, err := authSvc.ValidateAccessToken(token)
			if err != nil {
				logger.Warn("auth: invalid or expired token",
					zap.String("path", r.URL.Path),
					zap.String("remote_addr", r.RemoteAddr),
					zap.Error(err),
				)
				deny(w, r, err.Error())
				return
			}

			observability.NoteUser(r.Context(), claims.Subject)
			ctx := domain.WithSession(r.Context(), domain.Session{UserID: claims.Subject, AccessToken: token})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func deny(w http.ResponseWriter, r *http.Request, msg string) {
	if r.URL.Path == "/api" || strings.HasPrefix(r.URL.Path, "/api/") {
		writeError(w, http.StatusUnauthorized, msg)
		return
	}
	http.Redirect(w, r, "/login?next="+url.QueryEscape(r.URL.Path), http.StatusFound)
}
