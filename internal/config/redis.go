package config

import (
	"os"
	"strconv"

	"github.com/go-redis/redis/v8"
)

const (
	defaultRedisAddr = "localhost:6379"
	defaultStream    = "terracurve_events"
)

// RedisConfig locates the Redis instance shared by the event stream and the
// weather year cache.
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	Stream   string `yaml:"stream"`
}

// ClientOptions converts the settings for redis.NewClient.
func (r RedisConfig) ClientOptions() *redis.Options {
	return &redis.Options{
		Addr:     r.Addr,
		Password: r.Password,
		DB:       r.DB,
	}
}

// RedisFromEnv reads REDIS_ADDR, REDIS_PASSWORD, REDIS_DB and REDIS_STREAM.
// An unparsable REDIS_DB selects database 0.
func RedisFromEnv() RedisConfig {
	return RedisConfig{
		Addr:     envOr("REDIS_ADDR", defaultRedisAddr),
		Password: os.Getenv("REDIS_PASSWORD"),
		DB:       envInt("REDIS_DB", 0),
		Stream:   envOr("REDIS_STREAM", defaultStream),
	}
}

func envOr(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	n, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return fallback
	}
	return n
}
