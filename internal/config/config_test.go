package config

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
)

func writeTempConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "terracurve.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	return path
}

func resetConfig() {
	instance = nil
	once = *new(sync.Once)
}

func TestLoad(t *testing.T) {
	path := writeTempConfig(t, `server:
  addr: ":9000"
device:
  base_url: "http://192.168.1.50"
  api: legacy
safety:
  min_temp: 18
  max_temp: 32
weather:
  latitude: 43.6
  longitude: 1.44
redis:
  addr: "localhost:6379"
  stream: "panel_events"
`)
	resetConfig()

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.Addr != ":9000" {
		t.Errorf("Server.Addr = %q, want %q", cfg.Server.Addr, ":9000")
	}
	if cfg.Device.API != DeviceAPILegacy {
		t.Errorf("Device.API = %q, want %q", cfg.Device.API, DeviceAPILegacy)
	}
	if cfg.Safety.MinTemp != 18 || cfg.Safety.MaxTemp != 32 {
		t.Errorf("Safety = %+v, want 18..32", cfg.Safety)
	}
	if cfg.Weather.Latitude != 43.6 {
		t.Errorf("Weather.Latitude = %v, want 43.6", cfg.Weather.Latitude)
	}
	if got := cfg.RedisSettings().Stream; got != "panel_events" {
		t.Errorf("RedisSettings().Stream = %q, want %q", got, "panel_events")
	}
}

func TestLoad_Defaults(t *testing.T) {
	path := writeTempConfig(t, "device:\n  base_url: \"http://terrarium.local\"\n")
	resetConfig()

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	tests := []struct {
		name string
		got  interface{}
		want interface{}
	}{
		{"server addr", cfg.Server.Addr, ":8080"},
		{"canvas width", cfg.Server.CanvasWidth, 800.0},
		{"device api", cfg.Device.API, DeviceAPIModern},
		{"device timeout", cfg.Device.TimeoutSeconds, 10},
		{"safety min", cfg.Safety.MinTemp, 15.0},
		{"safety max", cfg.Safety.MaxTemp, 35.0},
		{"default temperature", cfg.Seasonal.DefaultTemperature, 22.0},
		{"start year", cfg.Weather.StartYear, 2020},
		{"end year", cfg.Weather.EndYear, 2024},
		{"log level", cfg.Logging.Level, "info"},
	}
	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("%s = %v, want %v", tt.name, tt.got, tt.want)
		}
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := writeTempConfig(t, "invalid: [yaml: content")
	resetConfig()

	if _, err := Load(path); err == nil {
		t.Error("Expected error for invalid YAML, got nil")
	}
}

func TestLoad_MissingFile(t *testing.T) {
	resetConfig()

	if _, err := Load("/nonexistent/path/config.yaml"); err == nil {
		t.Error("Expected error for missing file, got nil")
	}
}

func TestGet(t *testing.T) {
	path := writeTempConfig(t, "device:\n  base_url: \"http://terrarium.local\"\n")
	resetConfig()

	if _, err := Load(path); err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	cfg := Get()
	if cfg == nil {
		t.Fatal("Get() returned nil")
	}
	if cfg.Device.BaseURL != "http://terrarium.local" {
		t.Errorf("Device.BaseURL = %q, want %q", cfg.Device.BaseURL, "http://terrarium.local")
	}
}

func TestGet_Panic(t *testing.T) {
	resetConfig()

	defer func() {
		if r := recover(); r == nil {
			t.Error("Expected Get() to panic when config not loaded")
		}
	}()

	Get()
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		c := &Config{Device: DeviceConfig{BaseURL: "http://terrarium.local"}}
		c.applyDefaults()
		return c
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{"valid config", func(c *Config) {}, false},
		{"missing device url", func(c *Config) { c.Device.BaseURL = "" }, true},
		{"unknown device api", func(c *Config) { c.Device.API = "v3" }, true},
		{"inverted safety range", func(c *Config) { c.Safety.MinTemp = 40 }, true},
		{"inverted weather years", func(c *Config) { c.Weather.StartYear = 2030 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid()
			tt.mutate(c)
			err := c.validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
