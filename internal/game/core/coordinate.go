package core

import (
	"fmt"
	"strconv"
)

// Coordinate is a position on a player grid or on the world map
type Coordinate struct {
	X int `json:"x" bson:"x"`
	Y int `json:"y" bson:"y"`
}

// NewCoordinate creates a new coordinate with the given x and y values
func NewCoordinate(x, y int) Coordinate {
	return Coordinate{X: x, Y: y}
}

// FromIndex creates a coordinate from a row-major index
func FromIndex(idx, width int) Coordinate {
	return Coordinate{
		X: idx % width,
		Y: idx / width,
	}
}

// IsValid checks if the coordinate is within the given bounds
func (c Coordinate) IsValid(width, height int) bool {
	return c.X >= 0 && c.X < width && c.Y >= 0 && c.Y < height
}

// ToIndex converts the coordinate to a row-major index
func (c Coordinate) ToIndex(width int) int {
	return c.Y*width + c.X
}

// Key returns the world-map document key, e.g. "4_7"
func (c Coordinate) Key() string {
	return strconv.Itoa(c.X) + "_" + strconv.Itoa(c.Y)
}

// String returns a string representation of the coordinate
func (c Coordinate) String() string {
	return fmt.Sprintf("(%d,%d)", c.X, c.Y)
}
