package api

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"strings"
	"time"

	"terracurve/internal/models"
)

const (
	forecastURL = "https://api.open-meteo.com/v1/forecast"
	archiveURL  = "https://archive-api.open-meteo.com/v1/archive"
)

// OpenMeteoClient is a client for the Open-Meteo forecast and archive APIs
type OpenMeteoClient struct {
	client       *http.Client
	forecastBase string
	archiveBase  string
}

type ForecastParams struct {
	Latitude        float64
	Longitude       float64
	HourlyFields    []string
	Timezone        string
	TemperatureUnit string
	PastDays        int // how many days in the past to include
	ForecastDays    int // how many days ahead to forecast
}

type ArchiveParams struct {
	Latitude     float64
	Longitude    float64
	StartDate    string // YYYY-MM-DD
	EndDate      string // YYYY-MM-DD
	HourlyFields []string
	Timezone     string
}

// NewOpenMeteoClient creates a new Open-Meteo API client
func NewOpenMeteoClient() *OpenMeteoClient {
	return &OpenMeteoClient{
		client:       &http.Client{Timeout: 60 * time.Second},
		forecastBase: forecastURL,
		archiveBase:  archiveURL,
	}
}

// Builds the forecast request URL
func (c *OpenMeteoClient) BuildURL(p ForecastParams) string {
	if p.Timezone == "" {
		p.Timezone = "auto"
	}

	if p.TemperatureUnit == "" {
		p.TemperatureUnit = "celsius"
	}

	url := fmt.Sprintf("%s?latitude=%.4f&longitude=%.4f&timezone=%s&temperature_unit=%s",
		c.forecastBase, p.Latitude, p.Longitude, p.Timezone, p.TemperatureUnit)

	if p.PastDays > 0 {
		url += fmt.Sprintf("&past_days=%d", p.PastDays)
	}

	if p.ForecastDays >= 0 {
		url += fmt.Sprintf("&forecast_days=%d", p.ForecastDays)
	}

	if len(p.HourlyFields) > 0 {
		url += "&hourly=" + strings.Join(p.HourlyFields, ",")
	}

	return url
}

// Builds the historical archive request URL
func (c *OpenMeteoClient) BuildArchiveURL(p ArchiveParams) string {
	if p.Timezone == "" {
		p.Timezone = "auto"
	}

	url := fmt.Sprintf("%s?latitude=%.4f&longitude=%.4f&start_date=%s&end_date=%s&timezone=%s",
		c.archiveBase, p.Latitude, p.Longitude, p.StartDate, p.EndDate, p.Timezone)

	if len(p.HourlyFields) > 0 {
		url += "&hourly=" + strings.Join(p.HourlyFields, ",")
	}

	return url
}

// GetForecast fetches forecast data for the given coordinates
func (c *OpenMeteoClient) GetForecast(ctx context.Context, p ForecastParams) (*models.Forecast, error) {
	return c.fetch(ctx, c.BuildURL(p))
}

// GetArchive fetches recorded hourly data for a date range
func (c *OpenMeteoClient) GetArchive(ctx context.Context, p ArchiveParams) (*models.Forecast, error) {
	if len(p.HourlyFields) == 0 {
		return nil, fmt.Errorf("GetArchive: no weather fields provided")
	}
	return c.fetch(ctx, c.BuildArchiveURL(p))
}

// TodayHourly returns today's hourly 2m temperatures
func (c *OpenMeteoClient) TodayHourly(ctx context.Context, lat, long float64) (*models.Forecast, error) {
	return c.GetForecast(ctx, ForecastParams{
		Latitude:     lat,
		Longitude:    long,
		HourlyFields: []string{"temperature_2m"},
		ForecastDays: 1,
	})
}

// YearHourly returns a calendar year of recorded hourly 2m temperatures
func (c *OpenMeteoClient) YearHourly(ctx context.Context, lat, long float64, year int) (*models.Forecast, error) {
	return c.GetArchive(ctx, ArchiveParams{
		Latitude:     lat,
		Longitude:    long,
		StartDate:    fmt.Sprintf("%d-01-01", year),
		EndDate:      fmt.Sprintf("%d-12-31", year),
		HourlyFields: []string{"temperature_2m"},
	})
}

func (c *OpenMeteoClient) fetch(ctx context.Context, url string) (*models.Forecast, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch weather data: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("API error: status %d, body: %s", resp.StatusCode, string(body))
	}

	var forecast models.Forecast
	if err := json.NewDecoder(resp.Body).Decode(&forecast); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	return &forecast, nil
}

// DayCurve turns the first 24 hourly readings into a day curve rounded to a
// tenth. Missing readings repeat the previous hour; leading gaps take the
// first reading.
func DayCurve(f *models.Forecast) ([]float64, error) {
	temps := f.Hourly.Temperature2m
	if len(temps) < models.HoursPerDay {
		return nil, fmt.Errorf("DayCurve: need %d hourly readings, got %d", models.HoursPerDay, len(temps))
	}

	first := -1
	for i := 0; i < models.HoursPerDay; i++ {
		if temps[i] != nil {
			first = i
			break
		}
	}
	if first < 0 {
		return nil, fmt.Errorf("DayCurve: no readings for today")
	}

	out := make([]float64, models.HoursPerDay)
	last := *temps[first]
	for i := range out {
		if temps[i] != nil {
			last = *temps[i]
		}
		out[i] = math.Round(last*10) / 10
	}
	return out, nil
}
