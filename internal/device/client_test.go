package device

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"terracurve/internal/codec"
	"terracurve/internal/models"
)

// configJSON is shaped like the modern firmware's handleLoadProfile body:
// setpoint and global bounds in tenths.
const configJSON = `{"currentProfileName":"gecko","setpoint":250,"globalMinTempSet":180,"globalMaxTempSet":320,
	"tempCurve":[220,220,220,220,220,220,240,260,280,290,290,290,290,290,290,280,270,260,250,240,230,220,220,220]}`

func newTestClient(t *testing.T, routes Routes, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL+"/", routes, 2*time.Second, zap.NewNop())
}

func TestGetCurrentConfig(t *testing.T) {
	c := newTestClient(t, ModernRoutes, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/config", r.URL.Path)
		w.Write([]byte(configJSON))
	})

	cfg, err := c.GetCurrentConfig(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "gecko", cfg.CurrentProfileName)
	assert.Equal(t, 29.0, cfg.Curve()[9])
}

func TestGetYearly(t *testing.T) {
	blob, _ := codec.Encode(models.NewMatrix(models.DaysPerYear, models.FlatCurve(21)))

	tests := []struct {
		name      string
		routes    Routes
		profile   string
		wantPath  string
		wantQuery string
	}{
		{"named profile on modern firmware", ModernRoutes, "gecko", "/download/seasonal", "name=gecko"},
		{"active profile", ModernRoutes, "", "/api/seasonal/yearly", ""},
		{"legacy firmware", LegacyRoutes, "gecko", "/getYearlyTemperatures", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, tt.routes, func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, tt.wantPath, r.URL.Path)
				assert.Equal(t, tt.wantQuery, r.URL.RawQuery)
				w.Write(blob)
			})
			got, err := c.GetYearly(context.Background(), tt.profile)
			require.NoError(t, err)
			assert.Len(t, got, codec.BufferSize)
		})
	}
}

func TestSaveDaySendsTenths(t *testing.T) {
	c := newTestClient(t, LegacyRoutes, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/saveDayData", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var p dayPayload
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&p))
		assert.Equal(t, 12, p.Day)
		assert.Len(t, p.Temps, 24)
		assert.Equal(t, int16(255), p.Temps[3])
		w.Write([]byte("OK"))
	})

	curve := models.FlatCurve(20)
	curve[3] = 25.5
	require.NoError(t, c.SaveDay(context.Background(), 12, curve))
}

func TestUploadYearly(t *testing.T) {
	blob, _ := codec.Encode(models.NewMatrix(models.DaysPerYear, models.FlatCurve(19.5)))

	t.Run("binary upload", func(t *testing.T) {
		c := newTestClient(t, ModernRoutes, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/api/seasonal/yearly", r.URL.Path)
			assert.Equal(t, "gecko", r.URL.Query().Get("name"))
			assert.Equal(t, "application/octet-stream", r.Header.Get("Content-Type"))
			body, _ := io.ReadAll(r.Body)
			assert.Equal(t, blob, body)
		})
		require.NoError(t, c.UploadYearly(context.Background(), "gecko", blob))
	})

	t.Run("json fallback", func(t *testing.T) {
		c := newTestClient(t, LegacyRoutes, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/saveYearlyTemperatures", r.URL.Path)
			var p yearlyPayload
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&p))
			assert.Len(t, p.YearlyData, models.DaysPerYear)
			assert.Equal(t, int16(195), p.YearlyData[365][23])
		})
		require.NoError(t, c.UploadYearly(context.Background(), "gecko", blob))
	})
}

func TestNonSuccessStatusIsNetworkError(t *testing.T) {
	c := newTestClient(t, ModernRoutes, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "Not Implemented", http.StatusNotImplemented)
	})

	err := c.SmoothMonth(context.Background(), 2)
	var netErr *NetworkError
	require.True(t, errors.As(err, &netErr))
	assert.Equal(t, http.StatusNotImplemented, netErr.Status)
	assert.Equal(t, "smooth_month", netErr.Op)
	assert.Contains(t, netErr.Error(), "Not Implemented")
}

func TestTransportFailureIsNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close()
	c := NewClient(srv.URL, ModernRoutes, time.Second, zap.NewNop())

	_, err := c.ListProfiles(context.Background())
	var netErr *NetworkError
	require.True(t, errors.As(err, &netErr))
	assert.Zero(t, netErr.Status)
	assert.NotNil(t, netErr.Unwrap())
}

func TestUnsupportedRoute(t *testing.T) {
	c := newTestClient(t, LegacyRoutes, func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request expected")
	})
	_, err := c.GetDay(context.Background(), 4)
	assert.ErrorIs(t, err, errors.ErrUnsupported)
}

func TestProfileCalls(t *testing.T) {
	var seen []string
	c := newTestClient(t, ModernRoutes, func(w http.ResponseWriter, r *http.Request) {
		seen = append(seen, r.Method+" "+r.URL.Path+"?"+r.URL.RawQuery)
		switch r.URL.Path {
		case "/api/profiles":
			w.Write([]byte(`["default","gecko"]`))
		case "/api/profiles/load":
			w.Write([]byte(configJSON))
		}
	})
	ctx := context.Background()

	names, err := c.ListProfiles(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"default", "gecko"}, names)

	cfg, err := c.LoadProfile(ctx, "gecko")
	require.NoError(t, err)
	assert.Equal(t, 18.0, cfg.GlobalMinTempSet)

	require.NoError(t, c.ActivateProfile(ctx, "gecko"))
	require.NoError(t, c.DeleteProfile(ctx, "old one"))
	require.NoError(t, c.RenameProfile(ctx, "gecko", "leopard gecko"))

	assert.Equal(t, []string{
		"GET /api/profiles?",
		"GET /api/profiles/load?name=gecko",
		"POST /api/profiles/activate?name=gecko",
		"POST /api/profiles/delete?name=old+one",
		"POST /api/profiles/rename?",
	}, seen)
}

func TestProfileTemperatureScale(t *testing.T) {
	legacyJSON := `{"name":"gecko","setpoint":25,"globalMinTempSet":18,"globalMaxTempSet":32,
	"tempCurve":[220,220,220,220,220,220,240,260,280,290,290,290,290,290,290,280,270,260,250,240,230,220,220,220]}`

	tests := []struct {
		name    string
		routes  Routes
		body    string
		wantMin float64
	}{
		{"modern firmware sends tenths", ModernRoutes, configJSON, 180},
		{"legacy firmware sends degrees", LegacyRoutes, legacyJSON, 18},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var saved map[string]interface{}
			c := newTestClient(t, tt.routes, func(w http.ResponseWriter, r *http.Request) {
				if r.Method == http.MethodPost {
					assert.NoError(t, json.NewDecoder(r.Body).Decode(&saved))
					return
				}
				w.Write([]byte(tt.body))
			})
			ctx := context.Background()

			cfg, err := c.LoadProfile(ctx, "gecko")
			require.NoError(t, err)
			assert.Equal(t, 18.0, cfg.GlobalMinTempSet)
			assert.Equal(t, 32.0, cfg.GlobalMaxTempSet)
			assert.Equal(t, 25.0, cfg.Setpoint)

			b, err := cfg.Bounds()
			require.NoError(t, err)
			assert.Equal(t, 25.0, b.Clamp(25))

			require.NoError(t, c.SaveProfile(ctx, cfg))
			assert.Equal(t, tt.wantMin, saved["globalMinTempSet"])
		})
	}
}

func TestRoutesFor(t *testing.T) {
	r, err := RoutesFor("legacy")
	require.NoError(t, err)
	assert.Equal(t, "/getCurrentConfig", r.Config)

	_, err = RoutesFor("v9")
	assert.Error(t, err)
}
