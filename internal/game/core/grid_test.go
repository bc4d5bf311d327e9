package core

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eduland/eduland-server/internal/game/states"
)

func TestNewGrid(t *testing.T) {
	g := NewGrid(6, 6)
	require.Len(t, g.Cells, 36)
	for i, c := range g.Cells {
		assert.Equal(t, CellIndex(i), c.Index)
		assert.Equal(t, states.CellHidden, c.Status)
	}
	assert.Equal(t, 36, g.CountStatus(states.CellHidden))
}

func TestGrid_CellBounds(t *testing.T) {
	g := NewGrid(3, 2)

	_, err := g.Cell(6)
	assert.ErrorIs(t, err, ErrInvalidCell)
	_, err = g.Cell(-1)
	assert.ErrorIs(t, err, ErrInvalidCell)

	c, err := g.Cell(5)
	require.NoError(t, err)
	c.BuildingID = "server"
	assert.Equal(t, "server", g.Cells[5].BuildingID, "Cell must point into the grid")

	idx, ok := g.BuildingCell("server")
	assert.True(t, ok)
	assert.Equal(t, CellIndex(5), idx)
	assert.Equal(t, Coordinate{X: 2, Y: 1}, g.Coordinate(idx))
}

func TestGrid_IndexOf(t *testing.T) {
	g := NewGrid(6, 6)
	idx, err := g.IndexOf(Coordinate{X: 1, Y: 2})
	require.NoError(t, err)
	assert.Equal(t, CellIndex(13), idx)

	_, err = g.IndexOf(Coordinate{X: 6, Y: 0})
	assert.ErrorIs(t, err, ErrInvalidCell)
}

func TestGrid_CloneIsDeep(t *testing.T) {
	g := NewGrid(2, 2)
	ends := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	g.Cells[0].ResearchEndsAt = &ends

	c := g.Clone()
	c.Cells[0].Status = states.CellRevealed
	*c.Cells[0].ResearchEndsAt = ends.Add(time.Hour)

	assert.Equal(t, states.CellHidden, g.Cells[0].Status)
	assert.Equal(t, ends, *g.Cells[0].ResearchEndsAt)
}
