package core

import (
	"fmt"
	"time"

	"github.com/eduland/eduland-server/internal/game/states"
)

// CellIndex addresses a cell of a player grid in row-major order
type CellIndex int

// Cell is one square of the mine map. Deposit is the resource hidden
// underneath; it is only exposed to clients through Resource once revealed.
type Cell struct {
	Index          CellIndex         `json:"index" bson:"index"`
	Deposit        ResourceKind      `json:"-" bson:"deposit"`
	Status         states.CellStatus `json:"status" bson:"status"`
	Resource       ResourceKind      `json:"resource,omitempty" bson:"resource,omitempty"`
	ResearchEndsAt *time.Time        `json:"researchEndsAt,omitempty" bson:"research_ends_at,omitempty"`
	MineLevel      int               `json:"mineLevel,omitempty" bson:"mine_level,omitempty"`
	LastCollected  time.Time         `json:"lastCollected,omitempty" bson:"last_collected,omitempty"`
	BuildingID     string            `json:"buildingId,omitempty" bson:"building_id,omitempty"`
}

// IsMine reports whether the cell carries a built mine
func (c *Cell) IsMine() bool {
	return c.Status == states.CellMine && c.MineLevel > 0
}

// Grid is a fixed-size mine map owned by one player
type Grid struct {
	Width  int    `json:"width" bson:"width"`
	Height int    `json:"height" bson:"height"`
	Cells  []Cell `json:"cells" bson:"cells"`
}

// NewGrid creates a grid with every cell hidden
func NewGrid(width, height int) Grid {
	cells := make([]Cell, width*height)
	for i := range cells {
		cells[i] = Cell{Index: CellIndex(i), Status: states.CellHidden}
	}
	return Grid{Width: width, Height: height, Cells: cells}
}

// Contains reports whether idx addresses a cell of this grid
func (g *Grid) Contains(idx CellIndex) bool {
	return idx >= 0 && int(idx) < len(g.Cells)
}

// Cell returns a pointer into the grid for idx
func (g *Grid) Cell(idx CellIndex) (*Cell, error) {
	if !g.Contains(idx) {
		return nil, fmt.Errorf("%w: %d", ErrInvalidCell, idx)
	}
	return &g.Cells[idx], nil
}

// Coordinate converts idx to a grid position
func (g *Grid) Coordinate(idx CellIndex) Coordinate {
	return FromIndex(int(idx), g.Width)
}

// IndexOf converts a position to a cell index
func (g *Grid) IndexOf(c Coordinate) (CellIndex, error) {
	if !c.IsValid(g.Width, g.Height) {
		return 0, fmt.Errorf("%w: %s", ErrInvalidCell, c)
	}
	return CellIndex(c.ToIndex(g.Width)), nil
}

// BuildingCell returns the cell holding buildingID, if any
func (g *Grid) BuildingCell(buildingID string) (CellIndex, bool) {
	for i := range g.Cells {
		if g.Cells[i].BuildingID == buildingID {
			return g.Cells[i].Index, true
		}
	}
	return 0, false
}

// CountStatus counts cells in the given status
func (g *Grid) CountStatus(status states.CellStatus) int {
	n := 0
	for i := range g.Cells {
		if g.Cells[i].Status == status {
			n++
		}
	}
	return n
}

// Clone returns a deep copy
func (g Grid) Clone() Grid {
	cells := make([]Cell, len(g.Cells))
	copy(cells, g.Cells)
	for i := range cells {
		if cells[i].ResearchEndsAt != nil {
			t := *cells[i].ResearchEndsAt
			cells[i].ResearchEndsAt = &t
		}
	}
	g.Cells = cells
	return g
}
