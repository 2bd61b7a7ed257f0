// Package client talks to the remote budgeting backend. Every call goes
// through a bulkhead, the circuit breaker and retry with backoff, and
// forwards the caller's access token.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/boddenberg/budget-planner-bff/internal/domain"
	"github.com/boddenberg/budget-planner-bff/internal/infra/observability"
	"github.com/boddenberg/budget-planner-bff/internal/infra/resilience"

	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

var tracer = otel.Tracer("client")

// AccessTokenCookie is the cookie carrying the user's JWT.
const AccessTokenCookie = "access_token"

const (
	serviceName     = "backend"
	maxResponseBody = 1 << 20
)

// BackendClient is the REST client of the budgeting backend.
type BackendClient struct {
	httpClient *http.Client
	baseURL    string
	cb         *gobreaker.CircuitBreaker
	cfg        resilience.Config
	bulkhead   *resilience.Bulkhead
	metrics    *observability.Metrics
	logger     *zap.Logger
}

// NewBackendClient creates a new BackendClient.
func NewBackendClient(
	httpClient *http.Client,
	baseURL string,
	cb *gobreaker.CircuitBreaker,
	cfg resilience.Config,
	metrics *observability.Metrics,
	logger *zap.Logger,
) *BackendClient {
	return &BackendClient{
		httpClient: httpClient,
		baseURL:    strings.TrimRight(baseURL, "/"),
		cb:         cb,
		cfg:        cfg,
		bulkhead:   resilience.NewBulkhead(cfg.MaxConcurrency),
		metrics:    metrics,
		logger:     logger,
	}
}

// call describes one backend request.
type call struct {
	op     string
	method string
	path   string
	body   any
	out    any
	cfg    resilience.Config
	// rawMessage uses the response text as the error message when the body
	// carries no JSON message.
	rawMessage bool
	// onSuccess sees the raw response of a 2xx answer.
	onSuccess func(resp *http.Response, body []byte) error
}

// statusError is a non-2xx answer, mapped to a domain error once the
// resilience layers are done with it.
type statusError struct {
	code    int
	message string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("backend returned %d: %s", e.code, e.message)
}

func (c *BackendClient) do(ctx context.Context, cl call) error {
	ctx, span := tracer.Start(ctx, "BackendClient."+cl.op)
	defer span.End()
	span.SetAttributes(
		attribute.String("http.method", cl.method),
		attribute.String("http.path", cl.path),
	)

	var payload []byte
	if cl.body != nil {
		var err error
		if payload, err = json.Marshal(cl.body); err != nil {
			return fmt.Errorf("encode %s body: %w", cl.op, err)
		}
	}

	if err := c.bulkhead.Acquire(ctx); err != nil {
		return &domain.ErrTimeout{Operation: cl.op}
	}
	defer c.bulkhead.Release()

	_, err := c.cb.Execute(func() (any, error) {
		return nil, resilience.RetryWithBackoff(ctx, cl.cfg, func() error {
			return c.roundTrip(ctx, cl, payload)
		})
	})
	if err != nil {
		span.RecordError(err)
		return c.mapError(cl.op, err)
	}
	return nil
}

func (c *BackendClient) roundTrip(ctx context.Context, cl call, payload []byte) error {
	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, cl.method, c.baseURL+cl.path, reader)
	if err != nil {
		return resilience.Permanent(err)
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if s, ok := domain.SessionFromContext(ctx); ok && s.AccessToken != "" {
		req.Header.Set("Authorization", "Bearer "+s.AccessToken)
		req.AddCookie(&http.Cookie{Name: AccessTokenCookie, Value: s.AccessToken})
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		return err
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		se := &statusError{code: resp.StatusCode, message: errorMessage(resp.StatusCode, body, cl.rawMessage)}
		if resp.StatusCode < 500 {
			return resilience.Permanent(se)
		}
		return se
	}

	if cl.onSuccess != nil {
		if err := cl.onSuccess(resp, body); err != nil {
			return resilience.Permanent(err)
		}
	}
	if cl.out != nil && len(bytes.TrimSpace(body)) > 0 {
		if err := json.Unmarshal(body, cl.out); err != nil {
			return resilience.Permanent(fmt.Errorf("decode %s response: %w", cl.op, err))
		}
	}
	return nil
}

// errorMessage picks the user-facing message of a failed response: the JSON
// "message" field, then the raw text when raw is set, then the status text.
func errorMessage(code int, body []byte, raw bool) string {
	var envelope struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &envelope); err == nil && strings.TrimSpace(envelope.Message) != "" {
		return envelope.Message
	}
	if raw {
		if text := strings.TrimSpace(string(body)); text != "" {
			return text
		}
	}
	if text := http.StatusText(code); text != "" {
		return text
	}
	return "Unknown error"
}

func (c *BackendClient) mapError(op string, err error) error {
	var se *statusError
	switch {
	case errors.As(err, &se):
		if se.code >= 500 {
			c.recordExternalError(op, err)
		}
		return statusToDomain(se)
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		c.recordExternalError(op, err)
		return &domain.ErrCircuitOpen{Service: serviceName}
	case errors.Is(err, context.DeadlineExceeded):
		c.recordExternalError(op, err)
		return &domain.ErrTimeout{Operation: op}
	case errors.Is(err, context.Canceled):
		return err
	}
	c.recordExternalError(op, err)
	return &domain.ErrExternalService{Service: serviceName, Err: err}
}

func (c *BackendClient) recordExternalError(op string, err error) {
	if c.metrics != nil {
		c.metrics.IncrExternalError(serviceName)
	}
	c.logger.Warn("backend call failed", zap.String("operation", op), zap.Error(err))
}

func statusToDomain(se *statusError) error {
	switch se.code {
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return &domain.ErrValidation{Message: se.message}
	case http.StatusUnauthorized:
		return &domain.ErrUnauthorized{Message: se.message}
	case http.StatusForbidden:
		return &domain.ErrForbidden{Action: se.message}
	case http.StatusNotFound:
		return &domain.ErrNotFound{Resource: "resource", ID: se.message}
	case http.StatusConflict:
		return &domain.ErrConflict{Message: se.message}
	}
	return &domain.ErrBackendRejected{StatusCode: se.code, Message: se.message}
}
