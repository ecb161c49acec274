// Package client implements the typed REST client for the Memoria
// backend. Every operation attaches a bearer token, speaks the
// {success,data} envelope, and maps failures onto the application error
// taxonomy. There are no retries and no caching; resilience is a
// circuit breaker on the transport and nothing else.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"memoria-client/internal/auth"
	"memoria-client/internal/config"
	"memoria-client/internal/observability"
	appErrors "memoria-client/pkg/errors"
)

// Client is the typed REST client. Construct with New; the zero value is
// not usable.
type Client struct {
	baseURL string
	http    *http.Client
	tokens  auth.TokenProvider
	logger  *zap.Logger
	metrics *observability.Collector
	tracer  trace.Tracer
	breaker *gobreaker.CircuitBreaker
}

// New creates a client against cfg.API.BaseURL. The token provider is
// required; calls fail fast locally when it cannot supply a token.
func New(cfg config.Config, tokens auth.TokenProvider, logger *zap.Logger, metrics *observability.Collector) (*Client, error) {
	if tokens == nil {
		return nil, appErrors.NewInternal("token provider is required", nil)
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	c := &Client{
		baseURL: strings.TrimRight(cfg.API.BaseURL, "/"),
		http:    &http.Client{Timeout: cfg.API.RequestTimeout},
		tokens:  tokens,
		logger:  logger.With(zap.String("component", "client")),
		metrics: metrics,
		tracer:  otel.Tracer("memoria-client"),
	}

	c.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "memoria-api",
		MaxRequests: cfg.Breaker.MaxRequests,
		Interval:    cfg.Breaker.Interval,
		Timeout:     cfg.Breaker.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			// Only trip once there are enough requests to judge
			if counts.Requests < cfg.Breaker.MinRequests {
				return false
			}
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return failureRatio >= cfg.Breaker.FailureThreshold
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			c.logger.Warn("circuit breaker state changed",
				zap.String("name", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
			if c.metrics != nil {
				c.metrics.BreakerTransitions.WithLabelValues(from.String(), to.String()).Inc()
			}
		},
	})

	return c, nil
}

// do performs one API call: bearer header, JSON body, envelope decode.
// out, when non-nil, receives the envelope's data payload.
func (c *Client) do(ctx context.Context, op, method, path string, query url.Values, body any, out any) error {
	var reqBody io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return appErrors.NewInternal("failed to encode request body", err)
		}
		reqBody = bytes.NewReader(encoded)
	}
	return c.roundTrip(ctx, op, method, path, query, reqBody, "application/json", out)
}

// roundTrip is shared by do and the multipart upload path.
func (c *Client) roundTrip(ctx context.Context, op, method, path string, query url.Values, body io.Reader, contentType string, out any) error {
	token, err := c.tokens.Token(ctx)
	if err != nil {
		// Fail fast: never let an unauthenticated call out.
		return err
	}

	ctx, span := c.tracer.Start(ctx, op, trace.WithAttributes(
		attribute.String("http.method", method),
		attribute.String("http.route", path),
	))
	defer span.End()

	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return appErrors.NewInternal("failed to build request", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	if body != nil {
		req.Header.Set("Content-Type", contentType)
	}

	start := time.Now()
	result, err := c.breaker.Execute(func() (any, error) {
		resp, err := c.http.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()

		raw, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, err
		}
		// 5xx responses count against the breaker
		if resp.StatusCode >= 500 {
			return &apiResult{status: resp.StatusCode, body: raw}, errServerStatus
		}
		return &apiResult{status: resp.StatusCode, body: raw}, nil
	})
	elapsed := time.Since(start)

	res, _ := result.(*apiResult)
	if err != nil && res == nil {
		c.observe(op, "transport_error", elapsed)
		c.logger.Warn("api call failed", zap.String("operation", op), zap.Error(err))
		if err == gobreaker.ErrOpenState || err == gobreaker.ErrTooManyRequests {
			return appErrors.NewUnavailable("backend temporarily unavailable", err)
		}
		return appErrors.NewUnavailable("request failed", err)
	}

	if appErr := c.decode(res, out); appErr != nil {
		c.observe(op, "error", elapsed)
		return appErr
	}

	c.observe(op, "ok", elapsed)
	return nil
}

// errServerStatus marks 5xx responses as breaker failures without losing
// the response body.
var errServerStatus = fmt.Errorf("server error status")

type apiResult struct {
	status int
	body   []byte
}

// decode unpacks the response envelope and maps failures onto the error
// taxonomy.
func (c *Client) decode(res *apiResult, out any) error {
	var env envelope
	if err := json.Unmarshal(res.body, &env); err != nil {
		if res.status >= 200 && res.status < 300 {
			return appErrors.NewInternal("malformed response body", err)
		}
		return c.mapError(res.status, "")
	}

	if res.status >= 200 && res.status < 300 && env.Success {
		if out != nil && len(env.Data) > 0 {
			if err := json.Unmarshal(env.Data, out); err != nil {
				return appErrors.NewInternal("malformed response data", err)
			}
		}
		return nil
	}

	msg := env.Error
	if msg == "" {
		msg = env.Message
	}
	return c.mapError(res.status, msg)
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data,omitempty"`
	Error   string          `json:"error,omitempty"`
	Message string          `json:"message,omitempty"`
}

// mapError translates a failed response into an AppError. The backend's
// message is surfaced verbatim; a generic string covers absent messages.
func (c *Client) mapError(status int, message string) error {
	if message == "" {
		message = "request failed"
	}
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return appErrors.NewUnauthorized(message)
	case status == http.StatusNotFound:
		return appErrors.NewNotFound(message)
	case status == http.StatusConflict || isAlreadyLinked(message):
		return appErrors.NewConflict(message)
	case status == http.StatusBadRequest:
		return appErrors.NewValidation(message)
	default:
		return appErrors.NewInternal(message, nil)
	}
}

// isAlreadyLinked recognizes the backend's duplicate-link rejection
// regardless of status code.
func isAlreadyLinked(message string) bool {
	return strings.Contains(strings.ToLower(message), "already linked")
}

func (c *Client) observe(op, outcome string, elapsed time.Duration) {
	if c.metrics != nil {
		c.metrics.ObserveAPICall(op, outcome, elapsed)
	}
}
