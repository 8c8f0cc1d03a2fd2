package rover

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/teslashibe/go-rover/internal/httpc"
	"github.com/teslashibe/go-rover/internal/log"
)

// API paths, relative to the base URL.
const (
	PathSessionStart = "/api/session/start"
	PathStatus       = "/api/rover/status"
	PathSensorData   = "/api/rover/sensor-data"
	PathMove         = "/api/rover/move"
	PathStop         = "/api/rover/stop"
	PathCharge       = "/api/rover/charge"
)

// maxBodySize bounds how much of a response is read.
const maxBodySize = 1 << 20

// maxErrorBody bounds how much of an error body ends up in APIError.
const maxErrorBody = 256

// HTTPClient implements Client against the rover HTTP API.
type HTTPClient struct {
	BaseURL string

	http   *http.Client
	logger *slog.Logger
}

// Option configures an HTTPClient.
type Option func(*HTTPClient)

// WithHTTPClient replaces the shared httpc client.
func WithHTTPClient(c *http.Client) Option {
	return func(h *HTTPClient) { h.http = c }
}

// WithLogger sets the logger used for request tracing.
func WithLogger(l *slog.Logger) Option {
	return func(h *HTTPClient) { h.logger = l }
}

// NewHTTPClient creates a client for the API rooted at baseURL.
func NewHTTPClient(baseURL string, opts ...Option) *HTTPClient {
	c := &HTTPClient{
		BaseURL: strings.TrimRight(baseURL, "/"),
		http:    httpc.Client,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = log.With("component", "rover")
	}
	return c
}

// StartSession asks the server for a new session.
// A response without session_id yields an empty SessionID and no error.
func (c *HTTPClient) StartSession(ctx context.Context) (SessionID, error) {
	var resp struct {
		SessionID string `json:"session_id"`
	}
	if err := c.do(ctx, http.MethodPost, PathSessionStart, nil, &resp); err != nil {
		return "", err
	}
	return SessionID(resp.SessionID), nil
}

// Status returns the rover position and battery.
// Missing coordinates default to (0, 0) and a missing battery to 100.
func (c *HTTPClient) Status(ctx context.Context, session SessionID) (Status, error) {
	var resp struct {
		Coordinates []float64 `json:"coordinates"`
		Battery     *float64  `json:"battery"`
	}
	if err := c.do(ctx, http.MethodGet, PathStatus, sessionQuery(session), &resp); err != nil {
		return Status{}, err
	}
	return decodeStatus(resp.Coordinates, resp.Battery)
}

func decodeStatus(coords []float64, battery *float64) (Status, error) {
	st := Status{Battery: DefaultBattery}
	if coords != nil {
		if len(coords) != 2 {
			return Status{}, fmt.Errorf("%w: got %d values", ErrMalformedStatus, len(coords))
		}
		st.Position = Position{X: coords[0], Y: coords[1]}
	}
	if battery != nil {
		st.Battery = *battery
	}
	return st, nil
}

// SensorData returns the sensor payload unmodified.
func (c *HTTPClient) SensorData(ctx context.Context, session SessionID) (SensorReading, error) {
	var reading SensorReading
	if err := c.do(ctx, http.MethodGet, PathSensorData, sessionQuery(session), &reading); err != nil {
		return nil, err
	}
	if reading == nil {
		reading = SensorReading{}
	}
	return reading, nil
}

// Move sends one directional move. The reply is ignored.
func (c *HTTPClient) Move(ctx context.Context, session SessionID, dir Direction) error {
	if !dir.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidDirection, dir)
	}
	q := sessionQuery(session)
	q.Set("direction", string(dir))
	return c.send(ctx, PathMove, q)
}

// Stop halts the rover. The reply is ignored.
func (c *HTTPClient) Stop(ctx context.Context, session SessionID) error {
	return c.send(ctx, PathStop, sessionQuery(session))
}

// Charge starts charging. The reply is ignored.
func (c *HTTPClient) Charge(ctx context.Context, session SessionID) error {
	return c.send(ctx, PathCharge, sessionQuery(session))
}

func sessionQuery(session SessionID) url.Values {
	return url.Values{"session_id": []string{string(session)}}
}

// roundTrip performs one request and returns the status and the
// (bounded) body. Only transport, context and read failures are errors.
func (c *HTTPClient) roundTrip(ctx context.Context, method, path string, query url.Values) (int, []byte, error) {
	target := c.BaseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, target, nil)
	if err != nil {
		return 0, nil, fmt.Errorf("build %s request: %w", path, err)
	}
	reqID := uuid.NewString()
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", reqID)

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("%s %s request failed: %w", method, path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return 0, nil, fmt.Errorf("read %s response: %w", path, err)
	}

	c.logger.Debug("rover api call",
		"method", method,
		"path", path,
		"status", resp.StatusCode,
		"request_id", reqID,
		"elapsed", time.Since(start))
	return resp.StatusCode, body, nil
}

// do performs a read request and decodes the JSON body into out.
// Non-2xx replies become *APIError.
func (c *HTTPClient) do(ctx context.Context, method, path string, query url.Values, out any) error {
	status, body, err := c.roundTrip(ctx, method, path, query)
	if err != nil {
		return err
	}

	if status < 200 || status > 299 {
		msg := string(bytes.TrimSpace(body))
		if len(msg) > maxErrorBody {
			msg = msg[:maxErrorBody]
		}
		return &APIError{Endpoint: path, StatusCode: status, Body: msg}
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode %s response: %w", path, err)
	}
	return nil
}

// send POSTs a command. The reply status and body are not interpreted;
// a non-2xx reply is only logged.
func (c *HTTPClient) send(ctx context.Context, path string, query url.Values) error {
	status, _, err := c.roundTrip(ctx, http.MethodPost, path, query)
	if err != nil {
		return err
	}
	if status < 200 || status > 299 {
		c.logger.Warn("rover command rejected", "path", path, "status", status)
	}
	return nil
}
