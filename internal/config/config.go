package config

import (
	"fmt"
	"os"
	"sync"

	"gopkg.in/yaml.v3"
)

var (
	instance *Config
	once     sync.Once
)

// Device API flavours understood by the gateway.
const (
	DeviceAPIModern = "modern"
	DeviceAPILegacy = "legacy"
)

type ServerConfig struct {
	Addr        string  `yaml:"addr"`
	CanvasWidth float64 `yaml:"canvas_width"`
	Plot        struct {
		Left   float64 `yaml:"left"`
		Top    float64 `yaml:"top"`
		Right  float64 `yaml:"right"`
		Bottom float64 `yaml:"bottom"`
	} `yaml:"plot"`
}

type DeviceConfig struct {
	BaseURL        string `yaml:"base_url"`
	API            string `yaml:"api"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

type SafetyConfig struct {
	MinTemp float64 `yaml:"min_temp"`
	MaxTemp float64 `yaml:"max_temp"`
}

type SeasonalConfig struct {
	DefaultTemperature float64 `yaml:"default_temperature"`
}

type WeatherConfig struct {
	Latitude      float64 `yaml:"latitude"`
	Longitude     float64 `yaml:"longitude"`
	StartYear     int     `yaml:"start_year"`
	EndYear       int     `yaml:"end_year"`
	CacheTTLHours int     `yaml:"cache_ttl_hours"`
}

// ArchiveConfig enables the MySQL snapshot and event archive. The DSN comes
// from DatabaseDSN.
type ArchiveConfig struct {
	Enabled bool `yaml:"enabled"`
}

type LoggingConfig struct {
	Level       string `yaml:"level"`
	Development bool   `yaml:"development"`
}

// Config is the panel configuration file.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Device   DeviceConfig   `yaml:"device"`
	Safety   SafetyConfig   `yaml:"safety"`
	Seasonal SeasonalConfig `yaml:"seasonal"`
	Weather  WeatherConfig  `yaml:"weather"`
	Redis    RedisConfig    `yaml:"redis"`
	Archive  ArchiveConfig  `yaml:"archive"`
	Logging  LoggingConfig  `yaml:"logging"`
}

func Load(configPath string) (*Config, error) {
	var err error
	once.Do(func() {
		instance = &Config{}

		data, readErr := os.ReadFile(configPath)
		if readErr != nil {
			err = fmt.Errorf("failed to read config file %s: %w", configPath, readErr)
			return
		}

		if parseErr := yaml.Unmarshal(data, instance); parseErr != nil {
			err = fmt.Errorf("failed to parse config: %w", parseErr)
			return
		}

		instance.applyDefaults()
		if validateErr := instance.validate(); validateErr != nil {
			err = validateErr
			return
		}
	})

	return instance, err
}

func Get() *Config {
	if instance == nil {
		panic("config not loaded - call config.Load() first")
	}
	return instance
}

// RedisSettings prefers the file's redis section and falls back to the
// REDIS_* environment.
func (c *Config) RedisSettings() RedisConfig {
	if c.Redis.Addr != "" {
		r := c.Redis
		if r.Stream == "" {
			r.Stream = defaultStream
		}
		return r
	}
	return RedisFromEnv()
}

func (c *Config) applyDefaults() {
	if c.Server.Addr == "" {
		c.Server.Addr = ":8080"
	}
	if c.Server.CanvasWidth == 0 {
		c.Server.CanvasWidth = 800
	}
	if c.Server.Plot.Right == 0 && c.Server.Plot.Bottom == 0 {
		c.Server.Plot.Left, c.Server.Plot.Top = 40, 10
		c.Server.Plot.Right, c.Server.Plot.Bottom = 760, 310
	}
	if c.Device.API == "" {
		c.Device.API = DeviceAPIModern
	}
	if c.Device.TimeoutSeconds == 0 {
		c.Device.TimeoutSeconds = 10
	}
	if c.Safety.MinTemp == 0 && c.Safety.MaxTemp == 0 {
		c.Safety.MinTemp, c.Safety.MaxTemp = 15, 35
	}
	if c.Seasonal.DefaultTemperature == 0 {
		c.Seasonal.DefaultTemperature = 22
	}
	if c.Weather.StartYear == 0 {
		c.Weather.StartYear = 2020
	}
	if c.Weather.EndYear == 0 {
		c.Weather.EndYear = 2024
	}
	if c.Weather.CacheTTLHours == 0 {
		c.Weather.CacheTTLHours = 24 * 30
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
}

func (c *Config) validate() error {
	if c.Device.BaseURL == "" {
		return fmt.Errorf("device.base_url cannot be empty")
	}
	if c.Device.API != DeviceAPIModern && c.Device.API != DeviceAPILegacy {
		return fmt.Errorf("device.api must be %q or %q, got %q", DeviceAPIModern, DeviceAPILegacy, c.Device.API)
	}
	if c.Safety.MinTemp > c.Safety.MaxTemp {
		return fmt.Errorf("safety.min_temp %.1f exceeds safety.max_temp %.1f", c.Safety.MinTemp, c.Safety.MaxTemp)
	}
	if c.Weather.StartYear > c.Weather.EndYear {
		return fmt.Errorf("weather.start_year %d is after weather.end_year %d", c.Weather.StartYear, c.Weather.EndYear)
	}
	return nil
}
