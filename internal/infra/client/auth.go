package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/boddenberg/budget-planner-bff/internal/domain"
)

var errNoToken = errors.New("login response carried no access token")

// Login forwards credentials and returns the issued access token. The token
// is read from the access_token cookie, or from an accessToken JSON field.
func (c *BackendClient) Login(ctx context.Context, req *domain.LoginRequest) (string, error) {
	var token string
	err := c.do(ctx, call{
		op:     "Login",
		method: http.MethodPost,
		path:   "/api/auth/login",
		body:   domain.LoginRequest{Email: req.Email, Password: req.Password},
		cfg:    c.cfg.WithoutRetries(),
		onSuccess: func(resp *http.Response, body []byte) error {
			for _, ck := range resp.Cookies() {
				if ck.Name == AccessTokenCookie && ck.Value != "" {
					token = ck.Value
					return nil
				}
			}
			var payload struct {
				AccessToken string `json:"accessToken"`
			}
			if err := json.Unmarshal(body, &payload); err == nil && payload.AccessToken != "" {
				token = payload.AccessToken
				return nil
			}
			return errNoToken
		},
	})
	if err != nil {
		return "", err
	}
	return token, nil
}

// Register creates an account. The confirmation field is not forwarded.
func (c *BackendClient) Register(ctx context.Context, req *domain.RegisterRequest) error {
	return c.do(ctx, call{
		op:     "Register",
		method: http.MethodPost,
		path:   "/api/auth/register",
		body:   domain.RegisterRequest{Email: req.Email, Password: req.Password},
		cfg:    c.cfg.WithoutRetries(),
	})
}
