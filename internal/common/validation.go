package common

import "strings"

// IsValidCoordinate checks if the given coordinates are within the bounds of a map
func IsValidCoordinate(x, y, width, height int) bool {
	return x >= 0 && x < width && y >= 0 && y < height
}

// NotBlank reports whether s has any non-space content
func NotBlank(s string) bool {
	return strings.TrimSpace(s) != ""
}
