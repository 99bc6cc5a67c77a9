package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtendedDerivation(t *testing.T) {
	var c DayCurve
	for i := range c {
		c[i] = float64(i)
	}
	e := c.Extended()

	assert.Equal(t, c[23], e[0])
	assert.Equal(t, c[0], e[25])
	for i := 0; i < HoursPerDay; i++ {
		assert.Equal(t, c[i], e[i+1])
	}
}

func TestExtendedToHour(t *testing.T) {
	tests := []struct {
		index  int
		want   int
		wantOK bool
	}{
		{0, 23, true},
		{1, 0, true},
		{12, 11, true},
		{24, 23, true},
		{25, 0, true},
		{-1, 0, false},
		{26, 0, false},
	}

	for _, tt := range tests {
		got, ok := ExtendedToHour(tt.index)
		assert.Equal(t, tt.wantOK, ok, "index %d", tt.index)
		assert.Equal(t, tt.want, got, "index %d", tt.index)
	}
}

func TestDayCurveAggregates(t *testing.T) {
	c := FlatCurve(20)
	c[3] = 14
	c[15] = 32

	lo, hi := c.MinMax()
	assert.Equal(t, 14.0, lo)
	assert.Equal(t, 32.0, hi)
	assert.InDelta(t, 20.25, c.Average(), 1e-9)
}

func TestSafetyBounds(t *testing.T) {
	b, err := NewSafetyBounds(15, 35)
	require.NoError(t, err)

	assert.Equal(t, 15.0, b.Clamp(3))
	assert.Equal(t, 35.0, b.Clamp(40))
	assert.Equal(t, 22.5, b.Clamp(22.5))

	assert.ErrorIs(t, b.Set(30, 20), ErrInvalidBounds)
	lo, hi := b.Range()
	assert.Equal(t, 15.0, lo)
	assert.Equal(t, 35.0, hi)

	_, err = NewSafetyBounds(10, 5)
	assert.ErrorIs(t, err, ErrInvalidBounds)
}

func TestParseDeviceConfig(t *testing.T) {
	valid := `{"currentProfileName":"gecko","globalMinTempSet":18,"globalMaxTempSet":32,
		"tempCurve":[220,220,220,220,220,220,240,260,280,290,290,290,290,290,290,280,270,260,250,240,230,220,220,220],
		"Kp":2,"Ki":5,"Kd":1,"logLevel":3}`

	cfg, err := ParseDeviceConfig([]byte(valid), Degrees)
	require.NoError(t, err)
	assert.Equal(t, "gecko", cfg.CurrentProfileName)
	assert.Equal(t, 29.0, cfg.Curve()[9])

	b, err := cfg.Bounds()
	require.NoError(t, err)
	assert.Equal(t, 18.0, b.Clamp(0))

	tests := []struct {
		name string
		data string
	}{
		{"unknown field", `{"tempCurve":[],"bogus":1}`},
		{"short curve", `{"tempCurve":[1,2,3]}`},
		{"inverted bounds", `{"globalMinTempSet":40,"globalMaxTempSet":10,"tempCurve":[0,0,0,0,0,0,0,0,0,0,0,0,0,0,0,0,0,0,0,0,0,0,0,0]}`},
		{"not json", `nope`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseDeviceConfig([]byte(tt.data), Degrees)
			assert.ErrorIs(t, err, ErrInvalidDeviceConfig)
		})
	}
}

func TestParseDeviceConfig_Tenths(t *testing.T) {
	firmware := `{"usePWM":false,"setpoint":230,"globalMinTempSet":150,"globalMaxTempSet":350,
		"tempCurve":[230,230,230,230,230,230,230,230,230,230,230,230,230,230,230,230,230,230,230,230,230,230,230,230]}`

	cfg, err := ParseDeviceConfig([]byte(firmware), Tenths)
	require.NoError(t, err)
	assert.Equal(t, 23.0, cfg.Setpoint)
	assert.Equal(t, 15.0, cfg.GlobalMinTempSet)
	assert.Equal(t, 35.0, cfg.GlobalMaxTempSet)
	assert.Equal(t, 23.0, cfg.Curve()[0])

	b, err := cfg.Bounds()
	require.NoError(t, err)
	assert.Equal(t, 25.0, b.Clamp(25))

	data, err := cfg.Encode(Tenths)
	require.NoError(t, err)
	var wire map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &wire))
	assert.Equal(t, 150.0, wire["globalMinTempSet"])
	assert.Equal(t, 350.0, wire["globalMaxTempSet"])
	assert.Equal(t, 230.0, wire["setpoint"])
	assert.Equal(t, 15.0, cfg.GlobalMinTempSet, "Encode must not modify the receiver")

	again, err := ParseDeviceConfig(data, Tenths)
	require.NoError(t, err)
	assert.Equal(t, cfg.GlobalMaxTempSet, again.GlobalMaxTempSet)
}

func TestReferenceCalendar(t *testing.T) {
	assert.Equal(t, "29 Feb", DayLabel(59))
	assert.Equal(t, "31 Dec", DayLabel(365))
	assert.Equal(t, 59, DayIndex(1, 29))
	assert.Equal(t, 29, DaysInMonth(1))
	assert.Equal(t, 31, DaysInMonth(11))

	first, last, err := MonthRange(11)
	require.NoError(t, err)
	assert.Equal(t, 335, first)
	assert.Equal(t, 365, last)

	_, _, err = MonthRange(12)
	assert.Error(t, err)
}
