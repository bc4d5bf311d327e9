package production

import (
	"math"
	"time"

	"github.com/eduland/eduland-server/internal/game/catalog"
	"github.com/eduland/eduland-server/internal/game/core"
	"github.com/eduland/eduland-server/internal/game/effects"
)

// MineAccumulated returns the yield waiting in a mine cell, capped by the
// capacity of its level. Cells that are not mines hold nothing.
func MineAccumulated(cell *core.Cell, mines *catalog.MineConfig, bag *effects.Bag, now time.Time) int {
	if cell == nil || !cell.IsMine() {
		return 0
	}
	level, ok := mines.Level(cell.MineLevel)
	if !ok {
		return 0
	}
	hours := math.Max(0, now.Sub(cell.LastCollected).Hours())
	bonus := 0.0
	if bag != nil {
		bonus = bag.Float(effects.MineProduction)
	}
	amount := floor(hours * level.RatePerHour * (1 + bonus))
	if amount > level.Capacity {
		return level.Capacity
	}
	return amount
}

// MineUpgradeCost returns what reaching the next level costs, or false when
// the mine is already at the top tier
func MineUpgradeCost(cell *core.Cell, mines *catalog.MineConfig, bag *effects.Bag) (core.Resources, bool) {
	next, ok := mines.Level(cell.MineLevel + 1)
	if !ok {
		return nil, false
	}
	factor := 1.0
	if bag != nil {
		factor = bag.Float(effects.UpgradeCostFactor)
	}
	return next.Cost.Scale(factor), true
}
