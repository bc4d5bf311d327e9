package common

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsValidCoordinate(t *testing.T) {
	tests := []struct {
		name          string
		x, y          int
		width, height int
		expected      bool
	}{
		{"origin", 0, 0, 20, 20, true},
		{"last cell", 19, 19, 20, 20, true},
		{"x out of range", 20, 0, 20, 20, false},
		{"negative y", 0, -1, 20, 20, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, IsValidCoordinate(tt.x, tt.y, tt.width, tt.height))
		})
	}
}

func TestNotBlank(t *testing.T) {
	assert.True(t, NotBlank("Олена"))
	assert.False(t, NotBlank("   "))
	assert.False(t, NotBlank(""))
}
