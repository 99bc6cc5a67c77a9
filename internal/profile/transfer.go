package profile

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"terracurve/internal/codec"
	"terracurve/internal/curve"
	"terracurve/internal/metrics"
	"terracurve/internal/models"
)

// File is the local profile document. It carries the controller
// configuration plus the curves in degrees, so an exported file can be
// imported again as is.
type File struct {
	models.DeviceConfig
	Temperatures []float64   `json:"temperatures"`
	SeasonalData [][]float64 `json:"seasonalData,omitempty"`
}

// ImportResult summarises an import.
type ImportResult struct {
	Name string `json:"name"`
	Days int    `json:"days"`
}

// Import reads a profile document into the session. Nothing changes unless
// the whole document is valid. The controller is not contacted; saving is a
// separate step.
func (c *Coordinator) Import(ctx context.Context, r io.Reader) (res ImportResult, err error) {
	defer func() { metrics.RecordProfileOperation("import", err) }()

	var f File
	if err := json.NewDecoder(io.LimitReader(r, 4<<20)).Decode(&f); err != nil {
		return res, fmt.Errorf("%w: %v", models.ErrInvalidDeviceConfig, err)
	}
	if err := ValidateName(f.Name); err != nil {
		return res, err
	}
	if len(f.Temperatures) != models.HoursPerDay {
		return res, fmt.Errorf("temperatures: %w: got %d", curve.ErrInvalidCurveLength, len(f.Temperatures))
	}
	var matrix models.Matrix
	if f.SeasonalData != nil {
		if len(f.SeasonalData) > models.DaysPerYear {
			return res, fmt.Errorf("%w: seasonalData has %d days, at most %d allowed", models.ErrInvalidDeviceConfig, len(f.SeasonalData), models.DaysPerYear)
		}
		matrix = make(models.Matrix, len(f.SeasonalData))
		for d, hours := range f.SeasonalData {
			if len(hours) != models.HoursPerDay {
				return res, fmt.Errorf("seasonalData day %d: %w: got %d", d, curve.ErrInvalidCurveLength, len(hours))
			}
			copy(matrix[d][:], hours)
		}
	}

	cfg := f.DeviceConfig
	var daily models.DayCurve
	copy(daily[:], f.Temperatures)
	tenths, clamped := codec.EncodeDay(daily)
	metrics.RecordClamped(clamped)
	cfg.TempCurve = tenths

	done, err := c.begin()
	if err != nil {
		return res, err
	}
	defer done()

	c.mu.Lock()
	if cfg.GlobalMinTempSet == 0 && cfg.GlobalMaxTempSet == 0 {
		cfg.GlobalMinTempSet, cfg.GlobalMaxTempSet = c.store.Bounds().Range()
	}
	if err := cfg.Validate(); err != nil {
		c.mu.Unlock()
		return res, err
	}
	if err := c.store.Bounds().Set(cfg.GlobalMinTempSet, cfg.GlobalMaxTempSet); err != nil {
		c.mu.Unlock()
		return res, err
	}
	if matrix != nil {
		c.store.Load(matrix)
		c.store.SelectDay(0)
	} else if w := c.store.Working(); w != nil {
		w.ReapplyBounds()
	}
	c.current = f.Name
	c.config = cfg
	c.mu.Unlock()

	res = ImportResult{Name: f.Name, Days: len(matrix)}
	c.publish(ctx, models.EventSeasonalLoaded, f.Name, nil, "imported")
	return res, nil
}

// Export is a downloadable pair of profile files.
type Export struct {
	ConfigName   string
	Config       []byte
	SeasonalName string
	Seasonal     []byte
}

// Export renders the session as <name>.json and <name>.bin. The JSON is a
// File; the binary is the controller's seasonal encoding.
func (c *Coordinator) Export(name string) (*Export, error) {
	if err := ValidateName(name); err != nil {
		return nil, err
	}

	c.mu.Lock()
	f := File{DeviceConfig: c.config}
	f.Name = name
	f.GlobalMinTempSet, f.GlobalMaxTempSet = c.store.Bounds().Range()
	matrix := c.store.Matrix()
	c.mu.Unlock()

	f.Temperatures = make([]float64, models.HoursPerDay)
	daily := f.DeviceConfig.Curve()
	copy(f.Temperatures, daily[:])
	f.SeasonalData = make([][]float64, len(matrix))
	for d := range matrix {
		f.SeasonalData[d] = append([]float64(nil), matrix[d][:]...)
	}

	data, err := json.MarshalIndent(f, "", "  ")
	if err != nil {
		return nil, err
	}
	blob, clamped := codec.Encode(matrix)
	metrics.RecordClamped(clamped)

	return &Export{
		ConfigName:   name + ".json",
		Config:       data,
		SeasonalName: name + ".bin",
		Seasonal:     blob,
	}, nil
}
