package profile

import (
	"context"
	"errors"
	"fmt"

	"terracurve/internal/api"
	"terracurve/internal/metrics"
	"terracurve/internal/models"
	"terracurve/internal/seasonal"

	"go.uber.org/zap"
)

// ErrNoWeatherSource is returned when no weather API is configured.
var ErrNoWeatherSource = errors.New("weather source not configured")

func (c *Coordinator) location() (float64, float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.config.Latitude != 0 || c.config.Longitude != 0 {
		return c.config.Latitude, c.config.Longitude
	}
	return c.lat, c.long
}

// WeatherCurve replaces the selected day's working curve with today's
// forecast at the profile location. The result is clamped and not committed.
func (c *Coordinator) WeatherCurve(ctx context.Context) (clamped int, err error) {
	defer func() { metrics.RecordProfileOperation("weather_curve", err) }()
	if c.weather == nil {
		return 0, ErrNoWeatherSource
	}

	lat, long := c.location()
	f, err := c.weather.TodayHourly(ctx, lat, long)
	if err != nil {
		return 0, fmt.Errorf("fetch forecast: %w", err)
	}
	values, err := api.DayCurve(f)
	if err != nil {
		return 0, err
	}

	err = c.Exclusive(func(s *seasonal.Store) error {
		w := s.Working()
		if w == nil {
			return seasonal.ErrNoDaySelected
		}
		clamped, err = w.ReplaceAll(values)
		return err
	})
	if err != nil {
		return 0, err
	}
	metrics.RecordCurveEdit("weather", clamped > 0)
	return clamped, nil
}

// GenerateResult summarises a generated seasonal matrix.
type GenerateResult struct {
	FromYear int `json:"from_year"`
	ToYear   int `json:"to_year"`
	Readings int `json:"readings"`
}

// Generate averages archived hourly temperatures for [from, to] at lat/long
// into a seasonal matrix.
func Generate(ctx context.Context, years api.YearSource, lat, long float64, from, to int) (models.Matrix, int, error) {
	forecasts, err := api.FetchYears(ctx, years, lat, long, from, to)
	if err != nil {
		return nil, 0, err
	}
	var acc seasonal.Accumulator
	readings := 0
	for _, f := range forecasts {
		if err := acc.Add(f.Hourly.Time, f.Hourly.Temperature2m); err != nil {
			return nil, 0, err
		}
		readings += len(f.Hourly.Time)
	}
	return acc.Matrix(), readings, nil
}

// GenerateSeasonal replaces the session matrix with climate averages at the
// profile location. The controller is updated on the next save.
func (c *Coordinator) GenerateSeasonal(ctx context.Context, from, to int) (res GenerateResult, err error) {
	defer func() { metrics.RecordProfileOperation("generate_seasonal", err) }()
	if c.years == nil {
		return res, ErrNoWeatherSource
	}
	done, err := c.begin()
	if err != nil {
		return res, err
	}
	defer done()

	lat, long := c.location()
	m, readings, err := Generate(ctx, c.years, lat, long, from, to)
	if err != nil {
		return res, fmt.Errorf("generate seasonal data: %w", err)
	}

	c.mu.Lock()
	c.store.Load(m)
	c.store.SelectDay(0)
	name := c.current
	c.mu.Unlock()

	res = GenerateResult{FromYear: from, ToYear: to, Readings: readings}
	c.log.Info("seasonal data generated",
		zap.Float64("latitude", lat),
		zap.Float64("longitude", long),
		zap.Int("readings", readings))
	c.publish(ctx, models.EventSeasonalLoaded, name, nil, fmt.Sprintf("climate %d-%d", from, to))
	return res, nil
}
