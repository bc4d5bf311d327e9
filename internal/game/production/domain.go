package production

import (
	"hash/fnv"
	"math"
	"time"

	"github.com/eduland/eduland-server/internal/game"
	"github.com/eduland/eduland-server/internal/game/catalog"
	"github.com/eduland/eduland-server/internal/game/core"
	"github.com/eduland/eduland-server/internal/game/effects"
)

// DomainAccumulated returns the yield waiting on an outer domain. Elapsed
// time is capped at maxHours so an abandoned-but-owned tile stops growing.
func DomainAccumulated(d *game.OuterDomain, bag *effects.Bag, now time.Time, maxHours float64) int {
	if d == nil || d.OwnerID == "" {
		return 0
	}
	hours := ElapsedHours(d.LastCollected, now, maxHours)
	bonus := 0.0
	if bag != nil {
		bonus = bag.Float(effects.DomainProduction)
	}
	return floor(hours * d.RatePerHour * (1 + bonus))
}

// DomainTraits derives the resource and hourly rate of the tile at c. The
// result depends only on the coordinate so every server agrees on it.
func DomainTraits(c core.Coordinate, cfg *catalog.DomainConfig) (core.ResourceKind, float64) {
	if len(cfg.Resources) == 0 {
		return "", 0
	}
	h := fnv.New64a()
	_, _ = h.Write([]byte(c.Key()))
	sum := h.Sum64()

	kind := cfg.Resources[sum%uint64(len(cfg.Resources))]
	span := cfg.MaxRate - cfg.MinRate
	if span <= 0 {
		return kind, cfg.MinRate
	}
	// upper 32 bits pick the rate; two decimals are plenty for display
	frac := float64(sum>>32) / float64(math.MaxUint32)
	rate := math.Round((cfg.MinRate+frac*span)*100) / 100
	return kind, rate
}
