package mapgen

import (
	"hash/fnv"
	"math/rand"

	"github.com/eduland/eduland-server/internal/game/catalog"
	"github.com/eduland/eduland-server/internal/game/core"
)

// GridConfig holds configuration for mine map generation
type GridConfig struct {
	Width    int
	Height   int
	Deposits []catalog.DepositWeight
}

// DefaultGridConfig returns a grid of the given size using the catalog's
// deposit weights
func DefaultGridConfig(w, h int, mines *catalog.MineConfig) GridConfig {
	return GridConfig{
		Width:    w,
		Height:   h,
		Deposits: mines.Deposits,
	}
}

// Generator handles grid generation with deterministic RNG
type Generator struct {
	config GridConfig
	rng    *rand.Rand
	total  int
}

// NewGenerator creates a new grid generator
func NewGenerator(config GridConfig, rng *rand.Rand) *Generator {
	total := 0
	for _, d := range config.Deposits {
		if d.Weight > 0 {
			total += d.Weight
		}
	}
	return &Generator{
		config: config,
		rng:    rng,
		total:  total,
	}
}

// SeedFor derives a stable RNG seed from a player id so that a player's
// hidden deposits can be regenerated
func SeedFor(playerID string) int64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(playerID))
	return int64(h.Sum64() & 0x7fffffffffffffff)
}

// ForPlayer creates a generator seeded from playerID
func ForPlayer(config GridConfig, playerID string) *Generator {
	return NewGenerator(config, rand.New(rand.NewSource(SeedFor(playerID))))
}

// GenerateGrid creates a hidden grid with a deposit under every cell
func (g *Generator) GenerateGrid() core.Grid {
	grid := core.NewGrid(g.config.Width, g.config.Height)
	for i := range grid.Cells {
		grid.Cells[i].Deposit = g.pickDeposit()
	}
	return grid
}

// pickDeposit draws one resource according to the configured weights.
// Without weights every cell holds stone.
func (g *Generator) pickDeposit() core.ResourceKind {
	if g.total <= 0 {
		return core.Stone
	}
	roll := g.rng.Intn(g.total)
	for _, d := range g.config.Deposits {
		if d.Weight <= 0 {
			continue
		}
		if roll < d.Weight {
			return d.Resource
		}
		roll -= d.Weight
	}
	return g.config.Deposits[len(g.config.Deposits)-1].Resource
}
