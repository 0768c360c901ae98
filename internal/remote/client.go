package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/kirinyoku/courtbook/internal/domain"
)

const (
	pathCampuses          = "/get_campus"
	pathCampusSports      = "/get_campus_complejo"
	pathAvailability      = "/get_reservas_disponibles"
	pathSubmitReservation = "/post_reserva"
	pathOwnerReservations = "/get_reservas_usuario"
	pathCancelReservation = "/actualizar_reserva"

	maxBodyBytes = 4 << 20
)

type Config struct {
	BaseURL    string
	Timeout    time.Duration
	RatePerSec float64
	Burst      int
}

// Client talks to the campus reservation service. It implements the catalog,
// availability and reservation gateways used by the workflows.
type Client struct {
	baseURL string
	http    *http.Client
	limiter *rate.Limiter
	logger  *zap.Logger
}

func New(cfg Config, httpClient *http.Client, logger *zap.Logger) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 20 * time.Second
	}

	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}

	if logger == nil {
		logger = zap.NewNop()
	}

	limiter := rate.NewLimiter(rate.Inf, 0)
	if cfg.RatePerSec > 0 {
		burst := cfg.Burst
		if burst <= 0 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(cfg.RatePerSec), burst)
	}

	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		http:    httpClient,
		limiter: limiter,
		logger:  logger.Named("remote"),
	}
}

// call performs a JSON request and returns the raw status and body. Only
// transport-level failures are returned as errors; status handling is left to
// the caller.
func (c *Client) call(ctx context.Context, op, method, path string, in any) (int, []byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return 0, nil, &domain.TransientError{Op: op, Err: err}
	}

	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return 0, nil, &domain.ValidationError{Op: op, Reason: err.Error()}
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return 0, nil, &domain.ValidationError{Op: op, Reason: err.Error()}
	}

	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Debug("remote call failed",
			zap.String("op", op),
			zap.Duration("latency", time.Since(start)),
			zap.Error(err))
		return 0, nil, &domain.TransientError{Op: op, Err: err}
	}

	defer resp.Body.Close()

	b, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return resp.StatusCode, nil, &domain.TransientError{Op: op, StatusCode: resp.StatusCode, Err: err}
	}

	c.logger.Debug("remote call",
		zap.String("op", op),
		zap.Int("status", resp.StatusCode),
		zap.Duration("latency", time.Since(start)),
		zap.Int("bytes_in", len(b)))

	return resp.StatusCode, b, nil
}

// statusError classifies a non-success status. Server-side and throttling
// statuses are retryable; everything else is a rejected request.
func statusError(op string, status int, body []byte) error {
	reason := messageOf(body)
	if reason == "" {
		reason = http.StatusText(status)
	}

	switch {
	case status >= 500, status == http.StatusTooManyRequests, status == http.StatusRequestTimeout:
		return &domain.TransientError{Op: op, StatusCode: status, Err: errors.New(reason)}
	default:
		return &domain.ValidationError{Op: op, StatusCode: status, Reason: reason}
	}
}

func isSuccess(status int) bool {
	return status >= 200 && status < 300
}

// envelope is the {status, data} wrapper most endpoints answer with.
type envelope struct {
	Status int             `json:"status"`
	Data   json.RawMessage `json:"data"`
}

// checkEnvelope decodes the wrapper and reports a failing embedded status the
// same way as a failing HTTP status.
func checkEnvelope(op string, body []byte) (envelope, error) {
	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return env, &domain.ValidationError{Op: op, StatusCode: http.StatusOK, Reason: fmt.Sprintf("malformed response: %v", err)}
	}

	if env.Status != 0 && !isSuccess(env.Status) {
		return env, statusError(op, env.Status, body)
	}

	return env, nil
}

// messageOf extracts a human readable message from a response body: either a
// string `data`, a `message`/`error` field, or nothing.
func messageOf(body []byte) string {
	var probe struct {
		Data    json.RawMessage `json:"data"`
		Message string          `json:"message"`
		Error   string          `json:"error"`
	}
	if err := json.Unmarshal(body, &probe); err != nil {
		return ""
	}

	if len(probe.Data) > 0 {
		var s string
		if err := json.Unmarshal(probe.Data, &s); err == nil {
			return strings.TrimSpace(s)
		}
	}

	if probe.Message != "" {
		return probe.Message
	}

	return probe.Error
}
