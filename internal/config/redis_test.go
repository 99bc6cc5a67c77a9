package config

import "testing"

func TestRedisFromEnv(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		want RedisConfig
	}{
		{
			name: "panel overrides",
			env: map[string]string{
				"REDIS_ADDR": "cache.lan:6380", "REDIS_PASSWORD": "gecko",
				"REDIS_DB": "3", "REDIS_STREAM": "vivarium",
			},
			want: RedisConfig{Addr: "cache.lan:6380", Password: "gecko", DB: 3, Stream: "vivarium"},
		},
		{
			name: "defaults",
			env:  map[string]string{},
			want: RedisConfig{Addr: "localhost:6379", Stream: "terracurve_events"},
		},
		{
			name: "unparsable db index",
			env:  map[string]string{"REDIS_DB": "two"},
			want: RedisConfig{Addr: "localhost:6379", Stream: "terracurve_events"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, key := range []string{"REDIS_ADDR", "REDIS_PASSWORD", "REDIS_DB", "REDIS_STREAM"} {
				t.Setenv(key, tt.env[key])
			}
			if got := RedisFromEnv(); got != tt.want {
				t.Errorf("RedisFromEnv() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestClientOptions(t *testing.T) {
	opts := RedisConfig{Addr: "cache.lan:6380", Password: "gecko", DB: 2, Stream: "ignored"}.ClientOptions()
	if opts.Addr != "cache.lan:6380" || opts.Password != "gecko" || opts.DB != 2 {
		t.Errorf("ClientOptions() = %+v", opts)
	}
}

func TestRedisSettings(t *testing.T) {
	t.Setenv("REDIS_ADDR", "envhost:6379")
	t.Setenv("REDIS_STREAM", "")

	fromEnv := (&Config{}).RedisSettings()
	if fromEnv.Addr != "envhost:6379" {
		t.Errorf("RedisSettings().Addr = %v, want env value", fromEnv.Addr)
	}

	fromFile := (&Config{Redis: RedisConfig{Addr: "filehost:6379"}}).RedisSettings()
	if fromFile.Addr != "filehost:6379" {
		t.Errorf("RedisSettings().Addr = %v, want file value", fromFile.Addr)
	}
	if fromFile.Stream != "terracurve_events" {
		t.Errorf("RedisSettings().Stream = %v, want default stream", fromFile.Stream)
	}
}
