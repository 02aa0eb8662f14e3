package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestModeValues(t *testing.T) {
	// Numeric values are part of the host boundary contract.
	assert.Equal(t, Mode(0), ModeGrayscale)
	assert.Equal(t, Mode(1), ModeEdgeDetect)
	assert.Equal(t, Mode(2), ModeBlur)
	assert.Equal(t, Mode(3), ModePassthrough)
	assert.Equal(t, ModeGrayscale, DefaultMode)
	assert.Len(t, Modes(), 4)
}

func TestModeFromInt(t *testing.T) {
	for i := 0; i <= 3; i++ {
		m, err := ModeFromInt(i)
		require.NoError(t, err)
		assert.True(t, m.Valid())
	}

	for _, v := range []int{-1, 4, 100} {
		_, err := ModeFromInt(v)
		assert.Error(t, err, "value %d", v)
	}
}

func TestParseMode(t *testing.T) {
	tests := []struct {
		in   string
		want Mode
	}{
		{"grayscale", ModeGrayscale},
		{"Gray", ModeGrayscale},
		{"edge", ModeEdgeDetect},
		{"canny", ModeEdgeDetect},
		{"blur", ModeBlur},
		{" passthrough ", ModePassthrough},
		{"original", ModePassthrough},
		{"2", ModeBlur},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseMode(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	for _, bad := range []string{"", "sepia", "7", "-1", "1x"} {
		_, err := ParseMode(bad)
		assert.Error(t, err, "input %q", bad)
	}
}

func TestModeString(t *testing.T) {
	assert.Equal(t, "edge", ModeEdgeDetect.String())
	assert.Equal(t, "mode(9)", Mode(9).String())
	assert.False(t, Mode(9).Valid())
}
