// Package profile moves whole profiles between the controller and the
// panel's seasonal store. Loads are staged and committed only when every
// step succeeded; saves report a half-written profile explicitly.
package profile

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"sync"
	"sync/atomic"
	"time"

	"terracurve/internal/api"
	"terracurve/internal/codec"
	"terracurve/internal/events"
	"terracurve/internal/metrics"
	"terracurve/internal/models"
	"terracurve/internal/seasonal"

	"go.uber.org/zap"
)

var (
	// ErrBusy is returned while another load or save is in flight.
	ErrBusy = errors.New("profile operation in progress")
	// ErrInvalidName rejects names the controller's file system cannot store.
	ErrInvalidName = errors.New("invalid profile name")
	// ErrConfirmationRequired guards destructive whole-year operations.
	ErrConfirmationRequired = errors.New("confirmation required")
	// ErrUnsavedChanges refuses to drop an edited working curve silently.
	ErrUnsavedChanges = errors.New("selected day has uncommitted changes; commit or pass discard=true")
)

var namePattern = regexp.MustCompile(`^[\w\d _-]+$`)

// ValidateName checks a profile name.
func ValidateName(name string) error {
	if len(name) > 64 || !namePattern.MatchString(name) {
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return nil
}

// PartialSaveError means the configuration reached the controller but the
// seasonal data did not.
type PartialSaveError struct {
	Profile string
	Err     error
}

func (e *PartialSaveError) Error() string {
	return fmt.Sprintf("profile %s partially saved: configuration stored, seasonal data failed: %v", e.Profile, e.Err)
}

func (e *PartialSaveError) Unwrap() error {
	return e.Err
}

// Gateway is the controller surface the coordinator drives.
type Gateway interface {
	GetCurrentConfig(ctx context.Context) (*models.DeviceConfig, error)
	LoadProfile(ctx context.Context, name string) (*models.DeviceConfig, error)
	ActivateProfile(ctx context.Context, name string) error
	GetYearly(ctx context.Context, profile string) ([]byte, error)
	// NamedDownload reports whether GetYearly can fetch a profile that is
	// not the active one.
	NamedDownload() bool
	SaveProfile(ctx context.Context, cfg *models.DeviceConfig) error
	UploadYearly(ctx context.Context, profile string, blob []byte) error
	SaveDay(ctx context.Context, day int, curve models.DayCurve) error
	ApplyYearlyCurve(ctx context.Context, curve models.DayCurve) error
	SmoothMonth(ctx context.Context, month int) error
	ListProfiles(ctx context.Context) ([]string, error)
	DeleteProfile(ctx context.Context, name string) error
	RenameProfile(ctx context.Context, from, to string) error
}

// Archive stores a copy of every fully saved profile.
type Archive interface {
	SaveSnapshot(ctx context.Context, s *models.Snapshot) error
}

// WeatherSource supplies today's hourly forecast.
type WeatherSource interface {
	TodayHourly(ctx context.Context, lat, long float64) (*models.Forecast, error)
}

// Options wires a Coordinator. Archive, Weather and Years are optional.
type Options struct {
	Gateway   Gateway
	Store     *seasonal.Store
	Events    events.Publisher
	Archive   Archive
	Weather   WeatherSource
	Years     api.YearSource
	Latitude  float64
	Longitude float64
	Log       *zap.Logger
}

// Coordinator owns the panel session: the seasonal store, the loaded
// profile's configuration and the in-flight operation guard.
type Coordinator struct {
	gw      Gateway
	store   *seasonal.Store
	events  events.Publisher
	archive Archive
	weather WeatherSource
	years   api.YearSource
	lat     float64
	long    float64
	log     *zap.Logger

	op      sync.Mutex
	pending atomic.Bool

	mu      sync.Mutex
	current string
	config  models.DeviceConfig
}

func NewCoordinator(opts Options) *Coordinator {
	pub := opts.Events
	if pub == nil {
		pub = events.Nop{}
	}
	log := opts.Log
	if log == nil {
		log = zap.NewNop()
	}
	return &Coordinator{
		gw:      opts.Gateway,
		store:   opts.Store,
		events:  pub,
		archive: opts.Archive,
		weather: opts.Weather,
		years:   opts.Years,
		lat:     opts.Latitude,
		long:    opts.Longitude,
		log:     log,
		config:  models.DefaultDeviceConfig(),
	}
}

// Busy reports whether a load or save is in flight. Editing is refused
// meanwhile.
func (c *Coordinator) Busy() bool {
	return c.pending.Load()
}

// Exclusive runs fn with the session locked, refusing while busy.
func (c *Coordinator) Exclusive(fn func(*seasonal.Store) error) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.pending.Load() {
		return ErrBusy
	}
	return fn(c.store)
}

// Read runs fn with the session locked. Reads are allowed while busy.
func (c *Coordinator) Read(fn func(*seasonal.Store)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fn(c.store)
}

// Current returns the loaded profile name and a copy of its configuration.
func (c *Coordinator) Current() (string, models.DeviceConfig) {
	c.mu.Lock()
	defer c.mu.Unlock()
	cfg := c.config
	cfg.TempCurve = append([]int16(nil), c.config.TempCurve...)
	return c.current, cfg
}

func (c *Coordinator) begin() (func(), error) {
	if !c.op.TryLock() {
		return nil, ErrBusy
	}
	c.pending.Store(true)
	return func() {
		c.pending.Store(false)
		c.op.Unlock()
	}, nil
}

func (c *Coordinator) publish(ctx context.Context, eventType, profile string, day *int, message string) {
	if err := c.events.Publish(ctx, events.New(eventType, profile, day, message)); err != nil {
		c.log.Warn("event publish failed", zap.String("type", eventType), zap.Error(err))
	}
}

// LoadResult summarises a committed load.
type LoadResult struct {
	Name   string `json:"name"`
	Days   int    `json:"days"`
	Padded int    `json:"padded"`
}

// LoadProfile fetches the profile's configuration, downloads and decodes
// its seasonal data, activates it, and only then replaces the session state.
// Firmware that only serves the active profile's data is switched before
// the download. On any failure the session is left as it was.
func (c *Coordinator) LoadProfile(ctx context.Context, name string) (res LoadResult, err error) {
	defer func() { metrics.RecordProfileOperation("load", err) }()

	if err := ValidateName(name); err != nil {
		return res, err
	}
	done, err := c.begin()
	if err != nil {
		return res, err
	}
	defer done()

	cfg, err := c.gw.LoadProfile(ctx, name)
	if err != nil {
		return res, fmt.Errorf("load profile %s: %w", name, err)
	}
	named := c.gw.NamedDownload()
	if !named {
		if err := c.gw.ActivateProfile(ctx, name); err != nil {
			return res, fmt.Errorf("activate profile %s: %w", name, err)
		}
	}
	blob, err := c.gw.GetYearly(ctx, name)
	if err != nil {
		return res, fmt.Errorf("download seasonal data of %s: %w", name, err)
	}
	m, err := codec.Decode(blob)
	if err != nil {
		return res, fmt.Errorf("decode seasonal data of %s: %w", name, err)
	}
	if named {
		if err := c.gw.ActivateProfile(ctx, name); err != nil {
			return res, fmt.Errorf("activate profile %s: %w", name, err)
		}
	}
	if err := ctx.Err(); err != nil {
		return res, err
	}

	c.mu.Lock()
	// Already validated by ParseDeviceConfig.
	if err := c.store.Bounds().Set(cfg.GlobalMinTempSet, cfg.GlobalMaxTempSet); err != nil {
		c.mu.Unlock()
		return res, err
	}
	padded := c.store.Load(m)
	c.store.SelectDay(0)
	c.current = name
	c.config = *cfg
	c.mu.Unlock()

	res = LoadResult{Name: name, Days: len(m), Padded: padded}
	c.log.Info("profile loaded",
		zap.String("profile", name),
		zap.Int("days", res.Days),
		zap.Int("padded", padded))
	c.publish(ctx, models.EventProfileLoaded, name, nil, "")
	return res, nil
}

// SaveResult summarises a save.
type SaveResult struct {
	Name    string `json:"name"`
	Clamped int    `json:"clamped"`
	// Uncommitted is set when the selected day had edits that were not
	// committed and therefore not saved.
	Uncommitted bool `json:"uncommitted"`
}

// SaveProfile stores the session under name: configuration first, then the
// binary seasonal data. A binary failure after the configuration was stored
// is returned as *PartialSaveError.
func (c *Coordinator) SaveProfile(ctx context.Context, name string) (res SaveResult, err error) {
	defer func() { metrics.RecordProfileOperation("save", err) }()

	if err := ValidateName(name); err != nil {
		return res, err
	}
	done, err := c.begin()
	if err != nil {
		return res, err
	}
	defer done()

	c.mu.Lock()
	cfg := c.config
	cfg.Name = name
	cfg.GlobalMinTempSet, cfg.GlobalMaxTempSet = c.store.Bounds().Range()
	cfg.LastSaveTime = time.Now().Unix()
	matrix := c.store.Matrix()
	res.Uncommitted = c.store.Dirty()
	c.mu.Unlock()

	blob, clamped := codec.Encode(matrix)
	metrics.RecordClamped(clamped)
	res.Name, res.Clamped = name, clamped
	if clamped > 0 {
		c.log.Warn("seasonal values clamped to int16 range", zap.String("profile", name), zap.Int("count", clamped))
	}

	if err := c.gw.SaveProfile(ctx, &cfg); err != nil {
		return res, fmt.Errorf("save configuration of %s: %w", name, err)
	}
	if err := c.gw.UploadYearly(ctx, name, blob); err != nil {
		c.log.Error("profile partially saved", zap.String("profile", name), zap.Error(err))
		return res, &PartialSaveError{Profile: name, Err: err}
	}

	c.mu.Lock()
	c.current = name
	c.config = cfg
	c.mu.Unlock()

	c.archiveSnapshot(ctx, &cfg, blob)
	c.log.Info("profile saved", zap.String("profile", name), zap.Int("clamped", clamped))
	c.publish(ctx, models.EventProfileSaved, name, nil, "")
	return res, nil
}

func (c *Coordinator) archiveSnapshot(ctx context.Context, cfg *models.DeviceConfig, blob []byte) {
	if c.archive == nil {
		return
	}
	data, err := json.Marshal(cfg)
	if err != nil {
		c.log.Warn("snapshot encode failed", zap.Error(err))
		return
	}
	if err := c.archive.SaveSnapshot(ctx, &models.Snapshot{Name: cfg.Name, Config: data, Seasonal: blob}); err != nil {
		c.log.Warn("snapshot archive failed", zap.String("profile", cfg.Name), zap.Error(err))
	}
}
