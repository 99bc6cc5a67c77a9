// Package device is the HTTP gateway to the ESP32 heating controller.
package device

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"terracurve/internal/codec"
	"terracurve/internal/metrics"
	"terracurve/internal/models"
)

// NetworkError reports a failed or non-successful controller call.
type NetworkError struct {
	Op     string
	URL    string
	Status int
	Body   string
	Err    error
}

func (e *NetworkError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s: device returned status %d: %s", e.Op, e.Status, e.Body)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// IsNotImplemented reports whether err means the firmware lacks the
// operation, either by route table or by answering 501.
func IsNotImplemented(err error) bool {
	var netErr *NetworkError
	if errors.As(err, &netErr) && netErr.Status == http.StatusNotImplemented {
		return true
	}
	return errors.Is(err, errors.ErrUnsupported)
}

// Client talks to one controller.
type Client struct {
	baseURL string
	routes  Routes
	client  *http.Client
	log     *zap.Logger
}

// NewClient creates a gateway for the controller at baseURL.
func NewClient(baseURL string, routes Routes, timeout time.Duration, log *zap.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		routes:  routes,
		client:  &http.Client{Timeout: timeout},
		log:     log,
	}
}

type dayPayload struct {
	Day   int     `json:"day"`
	Temps []int16 `json:"temps"`
}

type curvePayload struct {
	TempCurve []int16 `json:"tempCurve"`
}

type monthPayload struct {
	Month int `json:"month"`
}

type yearlyPayload struct {
	YearlyData [][]int16 `json:"yearlyData"`
}

type renamePayload struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// GetCurrentConfig fetches the active configuration.
func (c *Client) GetCurrentConfig(ctx context.Context) (*models.DeviceConfig, error) {
	body, err := c.do(ctx, "get_config", http.MethodGet, c.routes.Config, nil, "", nil)
	if err != nil {
		return nil, err
	}
	return models.ParseDeviceConfig(body, c.routes.ConfigScale)
}

// GetYearly returns the raw seasonal blob of profile, or of the active
// profile when profile is empty or the firmware cannot serve named blobs.
func (c *Client) GetYearly(ctx context.Context, profile string) ([]byte, error) {
	if profile != "" && c.routes.DownloadSeasonal != "" {
		return c.do(ctx, "get_yearly", http.MethodGet, c.routes.DownloadSeasonal, url.Values{"name": {profile}}, "", nil)
	}
	return c.do(ctx, "get_yearly", http.MethodGet, c.routes.Yearly, nil, "", nil)
}

// NamedDownload reports whether GetYearly can fetch an inactive profile.
func (c *Client) NamedDownload() bool {
	return c.routes.DownloadSeasonal != ""
}

// GetDay fetches a single day from the active profile.
func (c *Client) GetDay(ctx context.Context, day int) (models.DayCurve, error) {
	body, err := c.do(ctx, "get_day", http.MethodGet, c.routes.DayGet, url.Values{"day": {strconv.Itoa(day)}}, "", nil)
	if err != nil {
		return models.DayCurve{}, err
	}
	var tenths []int16
	if err := json.Unmarshal(body, &tenths); err != nil {
		return models.DayCurve{}, fmt.Errorf("failed to decode day %d: %w", day, err)
	}
	return codec.DecodeDay(tenths)
}

// SaveDay writes one day of the active profile.
func (c *Client) SaveDay(ctx context.Context, day int, curve models.DayCurve) error {
	temps, clamped := codec.EncodeDay(curve)
	metrics.RecordClamped(clamped)
	return c.postJSON(ctx, "save_day", c.routes.DaySave, nil, dayPayload{Day: day, Temps: temps})
}

// ApplyYearlyCurve asks the controller to copy curve onto every day.
func (c *Client) ApplyYearlyCurve(ctx context.Context, curve models.DayCurve) error {
	temps, clamped := codec.EncodeDay(curve)
	metrics.RecordClamped(clamped)
	return c.postJSON(ctx, "apply_yearly_curve", c.routes.ApplyYearlyCurve, nil, curvePayload{TempCurve: temps})
}

// SmoothMonth asks the controller to smooth month (0..11).
func (c *Client) SmoothMonth(ctx context.Context, month int) error {
	return c.postJSON(ctx, "smooth_month", c.routes.SmoothMonth, nil, monthPayload{Month: month})
}

// SaveYearly overwrites the active profile's seasonal data from JSON.
func (c *Client) SaveYearly(ctx context.Context, m models.Matrix) error {
	data := make([][]int16, len(m))
	total := 0
	for i, day := range m {
		var clamped int
		data[i], clamped = codec.EncodeDay(day)
		total += clamped
	}
	metrics.RecordClamped(total)
	return c.postJSON(ctx, "save_yearly", c.routes.SaveYearly, nil, yearlyPayload{YearlyData: data})
}

// UploadYearly stores an encoded seasonal blob for profile. Firmware without
// a binary upload receives the same data through SaveYearly.
func (c *Client) UploadYearly(ctx context.Context, profile string, blob []byte) error {
	if c.routes.UploadYearly == "" {
		m, err := codec.Decode(blob)
		if err != nil {
			return err
		}
		return c.SaveYearly(ctx, m)
	}
	_, err := c.do(ctx, "upload_yearly", http.MethodPost, c.routes.UploadYearly,
		url.Values{"name": {profile}}, "application/octet-stream", bytes.NewReader(blob))
	return err
}

// ListProfiles returns the stored profile names.
func (c *Client) ListProfiles(ctx context.Context) ([]string, error) {
	body, err := c.do(ctx, "list_profiles", http.MethodGet, c.routes.Profiles, nil, "", nil)
	if err != nil {
		return nil, err
	}
	var names []string
	if err := json.Unmarshal(body, &names); err != nil {
		return nil, fmt.Errorf("failed to decode profile list: %w", err)
	}
	return names, nil
}

// LoadProfile fetches a stored profile's configuration.
func (c *Client) LoadProfile(ctx context.Context, name string) (*models.DeviceConfig, error) {
	body, err := c.do(ctx, "load_profile", http.MethodGet, c.routes.LoadProfile, url.Values{"name": {name}}, "", nil)
	if err != nil {
		return nil, err
	}
	return models.ParseDeviceConfig(body, c.routes.ConfigScale)
}

// SaveProfile stores cfg under cfg.Name.
func (c *Client) SaveProfile(ctx context.Context, cfg *models.DeviceConfig) error {
	data, err := cfg.Encode(c.routes.ConfigScale)
	if err != nil {
		return fmt.Errorf("save_profile: failed to encode request: %w", err)
	}
	_, err = c.do(ctx, "save_profile", http.MethodPost, c.routes.SaveProfile, nil, "application/json", bytes.NewReader(data))
	return err
}

// DeleteProfile removes a stored profile.
func (c *Client) DeleteProfile(ctx context.Context, name string) error {
	_, err := c.do(ctx, "delete_profile", http.MethodPost, c.routes.DeleteProfile, url.Values{"name": {name}}, "", nil)
	return err
}

// ActivateProfile makes a stored profile the running one.
func (c *Client) ActivateProfile(ctx context.Context, name string) error {
	_, err := c.do(ctx, "activate_profile", http.MethodPost, c.routes.ActivateProfile, url.Values{"name": {name}}, "", nil)
	return err
}

// RenameProfile renames a stored profile.
func (c *Client) RenameProfile(ctx context.Context, from, to string) error {
	return c.postJSON(ctx, "rename_profile", c.routes.RenameProfile, nil, renamePayload{From: from, To: to})
}

func (c *Client) postJSON(ctx context.Context, op, path string, query url.Values, payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("%s: failed to encode request: %w", op, err)
	}
	_, err = c.do(ctx, op, http.MethodPost, path, query, "application/json", bytes.NewReader(data))
	return err
}

func (c *Client) do(ctx context.Context, op, method, path string, query url.Values, contentType string, body io.Reader) ([]byte, error) {
	if path == "" {
		return nil, fmt.Errorf("%s: %w", op, errors.ErrUnsupported)
	}
	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	start := time.Now()
	data, err := c.roundTrip(ctx, op, method, target, contentType, body)
	metrics.RecordDeviceRequest(op, time.Since(start), err)
	if err != nil {
		c.log.Warn("device request failed",
			zap.String("op", op),
			zap.String("url", target),
			zap.Error(err))
		return nil, err
	}
	c.log.Debug("device request",
		zap.String("op", op),
		zap.Int("bytes", len(data)),
		zap.Duration("took", time.Since(start)))
	return data, nil
}

func (c *Client) roundTrip(ctx context.Context, op, method, target, contentType string, body io.Reader) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, &NetworkError{Op: op, URL: target, Err: err}
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, &NetworkError{Op: op, URL: target, Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &NetworkError{Op: op, URL: target, Err: err}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &NetworkError{Op: op, URL: target, Status: resp.StatusCode, Body: strings.TrimSpace(string(data))}
	}
	return data, nil
}
