package models

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
)

// ErrInvalidDeviceConfig wraps every validation failure of a device config.
var ErrInvalidDeviceConfig = errors.New("invalid device config")

// TempScale is the unit of Setpoint and the global bounds in a config
// document. TempCurve is always tenths.
type TempScale int

const (
	Degrees TempScale = iota
	Tenths
)

// DeviceConfig is the controller configuration. In memory Setpoint and the
// global bounds are degrees; TempCurve carries tenths.
type DeviceConfig struct {
	Name               string  `json:"name,omitempty"`
	Timestamp          string  `json:"timestamp,omitempty"`
	Version            string  `json:"version,omitempty"`
	ProfileType        string  `json:"profileType,omitempty"`
	CurrentProfileName string  `json:"currentProfileName,omitempty"`
	UsePWM             bool    `json:"usePWM"`
	WeatherModeEnabled bool    `json:"weatherModeEnabled"`
	SeasonalMode       bool    `json:"seasonalModeEnabled"`
	CameraEnabled      bool    `json:"cameraEnabled"`
	CameraResolution   string  `json:"cameraResolution,omitempty"`
	UseTempCurve       bool    `json:"useTempCurve"`
	UseLimitTemp       bool    `json:"useLimitTemp"`
	Hysteresis         float64 `json:"hysteresis"`
	Kp                 float64 `json:"Kp"`
	Ki                 float64 `json:"Ki"`
	Kd                 float64 `json:"Kd"`
	Setpoint           float64 `json:"setpoint"`
	GlobalMinTempSet   float64 `json:"globalMinTempSet"`
	GlobalMaxTempSet   float64 `json:"globalMaxTempSet"`
	TempCurve          []int16 `json:"tempCurve"`
	Latitude           float64 `json:"latitude"`
	Longitude          float64 `json:"longitude"`
	DSTOffset          int     `json:"DST_offset"`
	LedState           bool    `json:"ledState"`
	LedBrightness      int     `json:"ledBrightness"`
	LedRed             int     `json:"ledRed"`
	LedGreen           int     `json:"ledGreen"`
	LedBlue            int     `json:"ledBlue"`
	LogLevel           int     `json:"logLevel"`
	LastSaveTime       int64   `json:"lastSaveTime,omitempty"`
}

// DefaultDeviceConfig mirrors the firmware's factory profile.
func DefaultDeviceConfig() DeviceConfig {
	curve := make([]int16, HoursPerDay)
	for i := range curve {
		curve[i] = 230
	}
	return DeviceConfig{
		Name:             "default",
		CameraResolution: "qvga",
		UseLimitTemp:     true,
		Hysteresis:       0.3,
		Kp:               2.0,
		Ki:               5.0,
		Kd:               1.0,
		Setpoint:         23.0,
		GlobalMinTempSet: 15.0,
		GlobalMaxTempSet: 35.0,
		TempCurve:        curve,
		Latitude:         48.85,
		Longitude:        2.35,
		DSTOffset:        2,
		LedBrightness:    255,
		LedRed:           255,
		LedGreen:         255,
		LedBlue:          255,
		LogLevel:         3,
	}
}

// ParseDeviceConfig decodes and validates a config document whose scalar
// temperatures are in scale. Unknown fields are rejected.
func ParseDeviceConfig(data []byte, scale TempScale) (*DeviceConfig, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()

	var cfg DeviceConfig
	if err := dec.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDeviceConfig, err)
	}
	if scale == Tenths {
		cfg.Setpoint /= 10
		cfg.GlobalMinTempSet /= 10
		cfg.GlobalMaxTempSet /= 10
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Encode renders the config with its scalar temperatures in scale.
func (c DeviceConfig) Encode(scale TempScale) ([]byte, error) {
	if scale == Tenths {
		c.Setpoint = math.Round(c.Setpoint * 10)
		c.GlobalMinTempSet = math.Round(c.GlobalMinTempSet * 10)
		c.GlobalMaxTempSet = math.Round(c.GlobalMaxTempSet * 10)
	}
	return json.Marshal(c)
}

// Validate checks the structural invariants of the config.
func (c *DeviceConfig) Validate() error {
	if len(c.TempCurve) != HoursPerDay {
		return fmt.Errorf("%w: tempCurve has %d points, want %d", ErrInvalidDeviceConfig, len(c.TempCurve), HoursPerDay)
	}
	if c.GlobalMinTempSet > c.GlobalMaxTempSet {
		return fmt.Errorf("%w: globalMinTempSet %.1f > globalMaxTempSet %.1f",
			ErrInvalidDeviceConfig, c.GlobalMinTempSet, c.GlobalMaxTempSet)
	}
	return nil
}

// Bounds returns the safety range declared by the config.
func (c *DeviceConfig) Bounds() (*SafetyBounds, error) {
	return NewSafetyBounds(c.GlobalMinTempSet, c.GlobalMaxTempSet)
}

// Curve converts TempCurve from tenths to degrees. Validate must pass first.
func (c *DeviceConfig) Curve() DayCurve {
	var out DayCurve
	for i := 0; i < HoursPerDay && i < len(c.TempCurve); i++ {
		out[i] = float64(c.TempCurve[i]) / 10.0
	}
	return out
}
