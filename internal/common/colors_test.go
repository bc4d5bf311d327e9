package common

import (
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseHexColor(t *testing.T) {
	tests := []struct {
		in       string
		expected color.RGBA
	}{
		{"#FFD700", color.RGBA{255, 215, 0, 255}},
		{"#8b5a2b", color.RGBA{139, 90, 43, 255}},
		{"#0f0", color.RGBA{0, 255, 0, 255}},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			c, err := ParseHexColor(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, c)
		})
	}
}

func TestParseHexColorRejects(t *testing.T) {
	for _, bad := range []string{"", "FFD700", "#FFD7", "#GGGGGG", "#1234567"} {
		_, err := ParseHexColor(bad)
		assert.Error(t, err, bad)
	}
}
