package mapgen

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eduland/eduland-server/internal/game/catalog"
	"github.com/eduland/eduland-server/internal/game/core"
	"github.com/eduland/eduland-server/internal/game/states"
)

// newTestRNG provides a random number generator with a fixed seed for deterministic tests.
func newTestRNG() *rand.Rand {
	return rand.New(rand.NewSource(12345))
}

func TestDefaultGridConfig(t *testing.T) {
	mines := &catalog.MustDefault().Mines
	config := DefaultGridConfig(6, 5, mines)

	assert.Equal(t, 6, config.Width)
	assert.Equal(t, 5, config.Height)
	assert.Equal(t, mines.Deposits, config.Deposits)
}

func TestGenerateGrid(t *testing.T) {
	config := DefaultGridConfig(6, 6, &catalog.MustDefault().Mines)
	grid := NewGenerator(config, newTestRNG()).GenerateGrid()

	require.Len(t, grid.Cells, 36)
	allowed := make(map[core.ResourceKind]bool)
	for _, d := range config.Deposits {
		allowed[d.Resource] = true
	}
	for i, cell := range grid.Cells {
		assert.Equal(t, core.CellIndex(i), cell.Index)
		assert.Equal(t, states.CellHidden, cell.Status)
		assert.Empty(t, cell.Resource, "deposits stay hidden until researched")
		assert.True(t, allowed[cell.Deposit], "unexpected deposit %q", cell.Deposit)
	}
}

func TestGenerateGridDeterministic(t *testing.T) {
	config := DefaultGridConfig(8, 8, &catalog.MustDefault().Mines)

	a := ForPlayer(config, "player-1").GenerateGrid()
	b := ForPlayer(config, "player-1").GenerateGrid()
	c := ForPlayer(config, "player-2").GenerateGrid()

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
}

func TestPickDepositWeights(t *testing.T) {
	config := GridConfig{
		Width:  10,
		Height: 10,
		Deposits: []catalog.DepositWeight{
			{Resource: core.Gold, Weight: 0},
			{Resource: core.Crystals, Weight: 1},
		},
	}
	grid := NewGenerator(config, newTestRNG()).GenerateGrid()
	for _, cell := range grid.Cells {
		assert.Equal(t, core.Crystals, cell.Deposit)
	}

	empty := NewGenerator(GridConfig{Width: 2, Height: 2}, newTestRNG()).GenerateGrid()
	for _, cell := range empty.Cells {
		assert.Equal(t, core.Stone, cell.Deposit)
	}
}
