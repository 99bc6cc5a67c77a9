package codec

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"terracurve/internal/models"
)

func TestToTenths(t *testing.T) {
	tests := []struct {
		name        string
		celsius     float64
		want        int16
		wantClamped bool
	}{
		{"whole degree", 25, 250, false},
		{"one decimal", 22.7, 227, false},
		{"half rounds up", 22.25, 223, false},
		{"negative half rounds away from zero", -0.05, -1, false},
		{"upper saturation", 5000, 32767, true},
		{"lower saturation", -5000, -32768, true},
		{"upper edge", 3276.7, 32767, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, clamped := ToTenths(tt.celsius)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.wantClamped, clamped)
		})
	}
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	m := make(models.Matrix, models.DaysPerYear)
	for d := range m {
		for h := range m[d] {
			m[d][h] = float64((d*7+h*3)%400)/10.0 - 5.0
		}
	}

	buf, clamped := Encode(m)
	require.Len(t, buf, BufferSize)
	assert.Zero(t, clamped)

	got, err := Decode(buf)
	require.NoError(t, err)
	require.Len(t, got, models.DaysPerYear)
	for d := range m {
		for h := range m[d] {
			assert.InDelta(t, m[d][h], got[d][h], 0.05, "day %d hour %d", d, h)
		}
	}
}

func TestEncodeLayout(t *testing.T) {
	m := models.NewMatrix(models.DaysPerYear, models.FlatCurve(0))
	m[2][5] = 21.5
	m[365][23] = -1.2

	buf, _ := Encode(m)
	assert.Equal(t, int16(215), int16(binary.LittleEndian.Uint16(buf[(2*24+5)*2:])))
	assert.Equal(t, int16(-12), int16(binary.LittleEndian.Uint16(buf[BufferSize-2:])))
}

func TestEncodeClampsOutOfRange(t *testing.T) {
	m := models.NewMatrix(1, models.FlatCurve(20))
	m[0][0] = 4000
	m[0][1] = -4000

	buf, clamped := Encode(m)
	assert.Equal(t, 2, clamped)
	require.Len(t, buf, BufferSize)

	got, err := Decode(buf)
	require.NoError(t, err)
	assert.Equal(t, 3276.7, got[0][0])
	assert.Equal(t, -3276.8, got[0][1])
	// days past the input are written as zero
	assert.Equal(t, 0.0, got[1][0])
}

func TestDecodePartial(t *testing.T) {
	full, _ := Encode(models.NewMatrix(models.DaysPerYear, models.FlatCurve(18.5)))

	got, err := Decode(full[:100*DayBytes])
	require.NoError(t, err)
	assert.Len(t, got, 100)
	assert.Equal(t, 18.5, got[99][23])

	// a trailing partial day is dropped
	got, err = Decode(full[:3*DayBytes+10])
	require.NoError(t, err)
	assert.Len(t, got, 3)

	got, err = Decode(full[:20])
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestDecodeMalformed(t *testing.T) {
	tests := []struct {
		name string
		buf  []byte
	}{
		{"empty", []byte{}},
		{"odd length", make([]byte, 17567)},
		{"single byte", []byte{1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(tt.buf)
			assert.ErrorIs(t, err, ErrMalformedBuffer)
		})
	}
}

func TestDayHelpers(t *testing.T) {
	c := models.FlatCurve(23)
	c[12] = 28.4

	tenths, clamped := EncodeDay(c)
	assert.Zero(t, clamped)
	assert.Equal(t, int16(284), tenths[12])

	back, err := DecodeDay(tenths)
	require.NoError(t, err)
	assert.Equal(t, c, back)

	_, err = DecodeDay(tenths[:23])
	assert.Error(t, err)

	c[0], c[1] = 4000, -4000
	tenths, clamped = EncodeDay(c)
	assert.Equal(t, 2, clamped)
	assert.Equal(t, int16(math.MaxInt16), tenths[0])
	assert.Equal(t, int16(math.MinInt16), tenths[1])
}
