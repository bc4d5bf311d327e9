// Package production computes what buildings, mines and outer domains
// yield over elapsed wall-clock time. The calculators are pure functions;
// Manager applies them to a player inside the caller's transaction.
package production

import (
	"math"
	"sort"
	"time"

	"github.com/eduland/eduland-server/internal/common"
	"github.com/eduland/eduland-server/internal/game"
	"github.com/eduland/eduland-server/internal/game/catalog"
	"github.com/eduland/eduland-server/internal/game/core"
	"github.com/eduland/eduland-server/internal/game/effects"
)

// floorEpsilon absorbs float error so that 43.2+15 floors to 58 and not 57
const floorEpsilon = 1e-9

// Policy bounds offline accrual
type Policy struct {
	MaxHours float64
	MinHours float64
}

// DefaultPolicy caps accrual at one day and skips anything under six minutes
func DefaultPolicy() Policy {
	return Policy{MaxHours: 24, MinHours: 0.1}
}

// Accrual is the outcome of one offline production computation
type Accrual struct {
	Produced     core.Resources `json:"produced"`
	ElapsedHours float64        `json:"elapsedHours"`
	Skipped      bool           `json:"skipped"`
	CalculatedAt time.Time      `json:"calculatedAt"`
}

// ElapsedHours returns (now-last) in hours clamped to [0, maxHours]
func ElapsedHours(last, now time.Time, maxHours float64) float64 {
	return common.ClampFloat(now.Sub(last).Hours(), 0, maxHours)
}

// WorkerMultiplier scales base production by assigned workers. An idle
// building still runs at half rate; every worker past the first adds 20%.
func WorkerMultiplier(workers int) float64 {
	if workers <= 0 {
		return 0.5
	}
	return 1 + 0.2*float64(workers-1)
}

// ComputeAccrual returns the resources produced by buildings between last
// and now. Buildings or levels missing from the catalog produce nothing.
func ComputeAccrual(buildings map[string]game.BuildingState, cat *catalog.Catalog, bag *effects.Bag, last, now time.Time, policy Policy) Accrual {
	hours := ElapsedHours(last, now, policy.MaxHours)
	if hours < policy.MinHours {
		return Accrual{Produced: core.Resources{}, ElapsedHours: hours, Skipped: true}
	}

	globalBonus := 0.0
	if bag != nil {
		globalBonus = bag.Float(effects.BuildingProduction)
	}

	ids := make([]string, 0, len(buildings))
	for id := range buildings {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	totals := make(map[core.ResourceKind]float64)
	for _, id := range ids {
		state := buildings[id]
		if state.Level < 1 {
			continue
		}
		cfg, ok := cat.Building(id)
		if !ok {
			continue
		}
		level, ok := cfg.Level(state.Level)
		if !ok {
			continue
		}

		mult := WorkerMultiplier(state.Workers)
		for kind, rate := range level.Production {
			totals[kind] += float64(rate) * hours * mult * (1 + globalBonus)
		}
		if cfg.Synergy != nil && state.Workers >= cfg.Synergy.MinWorkers {
			for kind, bonus := range cfg.Synergy.Bonus {
				totals[kind] += float64(bonus) * hours
			}
		}
	}

	return Accrual{
		Produced:     floorAll(totals),
		ElapsedHours: hours,
		CalculatedAt: now,
	}
}

func floorAll(totals map[core.ResourceKind]float64) core.Resources {
	out := make(core.Resources, len(totals))
	for kind, v := range totals {
		if n := floor(v); n > 0 {
			out[kind] = n
		}
	}
	return out
}

func floor(v float64) int {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return common.FloorInt(v + floorEpsilon)
}
