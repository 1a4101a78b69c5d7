// Package inference talks to the tabular and signal model services and to the
// chat assistant.
//
// Every call that is attempted leaves this package either as a value or as
// exactly one apperr kind: NetworkUnreachable, ServiceRejected or DecodeFailed.
package inference

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/AhmedHarera/HeartFailure/internal/apperr"
	"github.com/AhmedHarera/HeartFailure/internal/config"
	"github.com/AhmedHarera/HeartFailure/internal/metrics"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// maxBodyBytes caps how much of a response body is read.
const maxBodyBytes = 8 << 20

// client is the HTTP plumbing shared by every service.
type client struct {
	service    string
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	log        *zap.Logger
}

func newClient(service, baseURL string, cfg config.InferenceConfig, log *zap.Logger) client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	limit := rate.Inf
	if cfg.RequestsPerSecond > 0 {
		limit = rate.Limit(cfg.RequestsPerSecond)
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = 1
	}
	return client{
		service:    service,
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		limiter:    rate.NewLimiter(limit, burst),
		log:        log.Named(service),
	}
}

// do sends req and returns the status and body. Only transport failures are errors.
func (c *client) do(req *http.Request) (int, []byte, error) {
	if err := c.limiter.Wait(req.Context()); err != nil {
		return 0, nil, apperr.Unreachable(c.service, err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.log.Warn("Inference service unreachable", zap.String("url", req.URL.String()), zap.Error(err))
		return 0, nil, apperr.Unreachable(c.service, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return 0, nil, apperr.Unreachable(c.service, err)
	}
	return resp.StatusCode, body, nil
}

// observe records the final classification of one call.
func (c *client) observe(err error, start time.Time) {
	outcome := "ok"
	if err != nil {
		outcome = apperr.Code(err)
	}
	metrics.ObserveInference(c.service, outcome, time.Since(start))
}

// newRequest builds a request against the service. A request that cannot be
// built never leaves the process, so it is reported as unreachable.
func (c *client) newRequest(ctx context.Context, method, path string, body io.Reader, contentType string) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		c.log.Error("Failed to build inference request", zap.String("base_url", c.baseURL), zap.Error(err))
		return nil, apperr.Unreachable(c.service, err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	return req, nil
}

func (c *client) postJSON(ctx context.Context, path string, payload any) (int, []byte, error) {
	b, err := json.Marshal(payload)
	if err != nil {
		return 0, nil, apperr.Unreachable(c.service, fmt.Errorf("encode request: %w", err))
	}
	req, err := c.newRequest(ctx, http.MethodPost, path, bytes.NewReader(b), "application/json")
	if err != nil {
		return 0, nil, err
	}
	return c.do(req)
}

// errorBody is the shape both services use for refusals.
type errorBody struct {
	Error *string `json:"error"`
}

// rejection builds a ServiceRejected error from a refusal body. The message is the
// JSON "error" field when present, otherwise the raw body text.
func rejection(status int, body []byte) *apperr.Error {
	var eb errorBody
	if json.Unmarshal(body, &eb) == nil && eb.Error != nil {
		return apperr.Rejected(status, *eb.Error)
	}
	msg := strings.TrimSpace(string(body))
	if msg == "" {
		msg = http.StatusText(status)
	}
	return apperr.Rejected(status, msg)
}

func isSuccess(status int) bool {
	return status >= 200 && status < 300
}
