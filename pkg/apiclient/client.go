// Package apiclient provides a typed client for the calibration portal REST API.
// It is meant to be embedded by frontends and CLIs; pkg/composer drives its
// wizard Session through it.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/ekaya-inc/calibration-portal/pkg/models"
	"github.com/ekaya-inc/calibration-portal/pkg/retry"
)

// DefaultTimeout is the maximum time to wait for a single API response.
const DefaultTimeout = 30 * time.Second

// Error is a non-2xx response from the API. Message and Details carry the
// server's {"error", "details"} body.
type Error struct {
	StatusCode int
	Message    string
	Details    string
}

func (e *Error) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("api returned status %d: %s: %s", e.StatusCode, e.Message, e.Details)
	}
	return fmt.Sprintf("api returned status %d: %s", e.StatusCode, e.Message)
}

// IsRetryable reports whether the server failed in a way worth retrying.
func (e *Error) IsRetryable() bool {
	switch e.StatusCode {
	case http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return true
	}
	return false
}

// IsNotFound reports whether err is a 404 response.
func IsNotFound(err error) bool {
	var apiErr *Error
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound
}

// Client provides access to the calibration portal API.
type Client struct {
	baseURL    string
	httpClient *http.Client
	retry      *retry.Config
	logger     *zap.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithRetry sets the backoff used for GET requests. A nil config disables retries.
func WithRetry(cfg *retry.Config) Option {
	return func(c *Client) { c.retry = cfg }
}

// NewClient creates a client for the API rooted at baseURL,
// e.g. http://localhost:5000/api.
func NewClient(baseURL string, logger *zap.Logger, opts ...Option) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base URL: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid base URL %q: scheme and host are required", baseURL)
	}

	c := &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
		retry:  retry.DefaultConfig(),
		logger: logger.Named("apiclient"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Health calls GET /health.
func (c *Client) Health(ctx context.Context) error {
	return c.get(ctx, nil, "health")
}

// ListPersonnel calls GET /personnel.
func (c *Client) ListPersonnel(ctx context.Context) ([]*models.Personnel, error) {
	var out []*models.Personnel
	if err := c.get(ctx, &out, "personnel"); err != nil {
		return nil, err
	}
	return out, nil
}

// GetPersonnel calls GET /personnel/{id}.
func (c *Client) GetPersonnel(ctx context.Context, id int64) (*models.Personnel, error) {
	var out models.Personnel
	if err := c.get(ctx, &out, "personnel", idSegment(id)); err != nil {
		return nil, err
	}
	return &out, nil
}

// CreatePersonnel calls POST /personnel.
func (c *Client) CreatePersonnel(ctx context.Context, p *models.Personnel) (*models.Personnel, error) {
	var out models.Personnel
	if err := c.send(ctx, http.MethodPost, p, &out, "personnel"); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdatePersonnel calls PUT /personnel/{id}.
func (c *Client) UpdatePersonnel(ctx context.Context, id int64, p *models.Personnel) (*models.Personnel, error) {
	var out models.Personnel
	if err := c.send(ctx, http.MethodPut, p, &out, "personnel", idSegment(id)); err != nil {
		return nil, err
	}
	return &out, nil
}

// DeletePersonnel calls DELETE /personnel/{id}.
func (c *Client) DeletePersonnel(ctx context.Context, id int64) error {
	return c.send(ctx, http.MethodDelete, nil, nil, "personnel", idSegment(id))
}

// ListSensors calls GET /sensors.
func (c *Client) ListSensors(ctx context.Context) ([]*models.Sensor, error) {
	var out []*models.Sensor
	if err := c.get(ctx, &out, "sensors"); err != nil {
		return nil, err
	}
	return out, nil
}

// GetSensor calls GET /sensors/{id}.
func (c *Client) GetSensor(ctx context.Context, id int64) (*models.Sensor, error) {
	var out models.Sensor
	if err := c.get(ctx, &out, "sensors", idSegment(id)); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetSensorBySerial calls GET /sensors/serial/{serialNumber}.
func (c *Client) GetSensorBySerial(ctx context.Context, serial string) (*models.Sensor, error) {
	var out models.Sensor
	if err := c.get(ctx, &out, "sensors", "serial", serial); err != nil {
		return nil, err
	}
	return &out, nil
}

// LastCalibration calls GET /sensors/{id}/last-calibration.
func (c *Client) LastCalibration(ctx context.Context, sensorID int64) (*models.LastCalibration, error) {
	var out models.LastCalibration
	if err := c.get(ctx, &out, "sensors", idSegment(sensorID), "last-calibration"); err != nil {
		return nil, err
	}
	return &out, nil
}

// CreateSensor calls POST /sensors.
func (c *Client) CreateSensor(ctx context.Context, s *models.Sensor) (*models.Sensor, error) {
	var out models.Sensor
	if err := c.send(ctx, http.MethodPost, s, &out, "sensors"); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateSensor calls PUT /sensors/{id}.
func (c *Client) UpdateSensor(ctx context.Context, id int64, s *models.Sensor) (*models.Sensor, error) {
	var out models.Sensor
	if err := c.send(ctx, http.MethodPut, s, &out, "sensors", idSegment(id)); err != nil {
		return nil, err
	}
	return &out, nil
}

// DeleteSensor calls DELETE /sensors/{id}.
func (c *Client) DeleteSensor(ctx context.Context, id int64) error {
	return c.send(ctx, http.MethodDelete, nil, nil, "sensors", idSegment(id))
}

// ListEquipment calls GET /equipment.
func (c *Client) ListEquipment(ctx context.Context) ([]*models.Equipment, error) {
	var out []*models.Equipment
	if err := c.get(ctx, &out, "equipment"); err != nil {
		return nil, err
	}
	return out, nil
}

// GetEquipment calls GET /equipment/{id}.
func (c *Client) GetEquipment(ctx context.Context, id int64) (*models.Equipment, error) {
	var out models.Equipment
	if err := c.get(ctx, &out, "equipment", idSegment(id)); err != nil {
		return nil, err
	}
	return &out, nil
}

// BatchEquipment calls POST /equipment/batch. The server answers in ids order.
func (c *Client) BatchEquipment(ctx context.Context, ids []int64) ([]*models.Equipment, error) {
	if ids == nil {
		ids = []int64{}
	}
	var out []*models.Equipment
	if err := c.send(ctx, http.MethodPost, models.EquipmentBatchRequest{IDs: ids}, &out, "equipment", "batch"); err != nil {
		return nil, err
	}
	return out, nil
}

// CreateEquipment calls POST /equipment.
func (c *Client) CreateEquipment(ctx context.Context, e *models.Equipment) (*models.Equipment, error) {
	var out models.Equipment
	if err := c.send(ctx, http.MethodPost, e, &out, "equipment"); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateEquipment calls PUT /equipment/{id}.
func (c *Client) UpdateEquipment(ctx context.Context, id int64, e *models.Equipment) (*models.Equipment, error) {
	var out models.Equipment
	if err := c.send(ctx, http.MethodPut, e, &out, "equipment", idSegment(id)); err != nil {
		return nil, err
	}
	return &out, nil
}

// DeleteEquipment calls DELETE /equipment/{id}.
func (c *Client) DeleteEquipment(ctx context.Context, id int64) error {
	return c.send(ctx, http.MethodDelete, nil, nil, "equipment", idSegment(id))
}

// ListReports calls GET /reports.
func (c *Client) ListReports(ctx context.Context) ([]*models.ReportSummary, error) {
	var out []*models.ReportSummary
	if err := c.get(ctx, &out, "reports"); err != nil {
		return nil, err
	}
	return out, nil
}

// GetReport calls GET /reports/{id}.
func (c *Client) GetReport(ctx context.Context, id int64) (*models.Report, error) {
	var out models.Report
	if err := c.get(ctx, &out, "reports", idSegment(id)); err != nil {
		return nil, err
	}
	return &out, nil
}

// CreateReport calls POST /reports with the whole aggregate.
func (c *Client) CreateReport(ctx context.Context, r *models.Report) (*models.Report, error) {
	var out models.Report
	if err := c.send(ctx, http.MethodPost, r, &out, "reports"); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateReport calls PUT /reports/{id}, replacing the stored aggregate.
func (c *Client) UpdateReport(ctx context.Context, id int64, r *models.Report) (*models.Report, error) {
	var out models.Report
	if err := c.send(ctx, http.MethodPut, r, &out, "reports", idSegment(id)); err != nil {
		return nil, err
	}
	return &out, nil
}

// DeleteReport calls DELETE /reports/{id}.
func (c *Client) DeleteReport(ctx context.Context, id int64) error {
	return c.send(ctx, http.MethodDelete, nil, nil, "reports", idSegment(id))
}

// get issues an idempotent GET, retrying transient failures.
func (c *Client) get(ctx context.Context, out any, segments ...string) error {
	if c.retry == nil {
		return c.do(ctx, http.MethodGet, nil, out, segments...)
	}
	return retry.DoIfRetryable(ctx, c.retry, func() error {
		return c.do(ctx, http.MethodGet, nil, out, segments...)
	})
}

// send issues a mutating request exactly once.
func (c *Client) send(ctx context.Context, method string, body, out any, segments ...string) error {
	return c.do(ctx, method, body, out, segments...)
}

func (c *Client) do(ctx context.Context, method string, body, out any, segments ...string) error {
	endpoint, err := buildURL(c.baseURL, segments...)
	if err != nil {
		return fmt.Errorf("failed to build URL: %w", err)
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	c.logger.Debug("Calling API", zap.String("method", method), zap.String("url", endpoint))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to call API: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &Error{StatusCode: resp.StatusCode}
		var errBody struct {
			Error   string `json:"error"`
			Details string `json:"details"`
		}
		if json.Unmarshal(respBody, &errBody) == nil && errBody.Error != "" {
			apiErr.Message = errBody.Error
			apiErr.Details = errBody.Details
		} else {
			apiErr.Message = http.StatusText(resp.StatusCode)
		}
		if resp.StatusCode >= http.StatusInternalServerError {
			c.logger.Error("API returned error",
				zap.String("method", method),
				zap.String("url", endpoint),
				zap.Int("status", resp.StatusCode),
				zap.String("error", apiErr.Message))
		}
		return apiErr
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	return nil
}

func idSegment(id int64) string {
	return strconv.FormatInt(id, 10)
}

// buildURL constructs a URL by parsing the base and joining path segments.
// Segments are escaped individually so a serial number may contain any character.
func buildURL(baseURL string, pathSegments ...string) (string, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return "", fmt.Errorf("invalid base URL: %w", err)
	}

	escaped := make([]string, 0, len(pathSegments)+1)
	escaped = append(escaped, u.EscapedPath())
	for _, s := range pathSegments {
		escaped = append(escaped, url.PathEscape(s))
	}
	joined := path.Join(escaped...)

	unescaped, err := url.PathUnescape(joined)
	if err != nil {
		return "", fmt.Errorf("invalid path: %w", err)
	}
	u.Path = unescaped
	u.RawPath = joined

	return u.String(), nil
}
