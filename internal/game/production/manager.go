package production

import (
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/eduland/eduland-server/internal/game"
	"github.com/eduland/eduland-server/internal/game/catalog"
	"github.com/eduland/eduland-server/internal/game/core"
	"github.com/eduland/eduland-server/internal/game/effects"
	"github.com/eduland/eduland-server/internal/game/events"
)

// Manager credits offline building production to players
type Manager struct {
	logger zerolog.Logger

	mu      sync.RWMutex
	catalog *catalog.Catalog
	policy  Policy
}

// NewManager creates a new production manager
func NewManager(cat *catalog.Catalog, policy Policy, logger zerolog.Logger) *Manager {
	return &Manager{
		catalog: cat,
		policy:  policy,
		logger:  logger.With().Str("component", "ProductionManager").Logger(),
	}
}

// Policy returns the accrual bounds in effect
func (m *Manager) Policy() Policy {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.policy
}

// SetPolicy swaps the accrual bounds, e.g. after a config reload
func (m *Manager) SetPolicy(p Policy) {
	m.mu.Lock()
	m.policy = p
	m.mu.Unlock()
	m.logger.Info().
		Float64("max_hours", p.MaxHours).
		Float64("min_hours", p.MinHours).
		Msg("Accrual policy updated")
}

// SetCatalog swaps the catalog used for building rates
func (m *Manager) SetCatalog(cat *catalog.Catalog) {
	m.mu.Lock()
	m.catalog = cat
	m.mu.Unlock()
}

func (m *Manager) state() (*catalog.Catalog, Policy) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.catalog, m.policy
}

// Collect applies offline production to p. It must run inside the same
// transaction that persists p: LastCalculated only moves when resources were
// credited, so a failed write leaves the next attempt to recompute the same
// period.
func (m *Manager) Collect(p *game.Player, bag *effects.Bag, now time.Time) Accrual {
	cat, policy := m.state()
	acc := ComputeAccrual(p.Buildings, cat, bag, p.LastCalculated, now, policy)
	if acc.Skipped {
		m.logger.Debug().
			Str("player_id", p.ID).
			Float64("elapsed_hours", acc.ElapsedHours).
			Msg("Accrual skipped below threshold")
		return acc
	}

	if p.Resources == nil {
		p.Resources = core.Resources{}
	}
	p.Resources.Add(acc.Produced)
	p.LastCalculated = now

	m.logger.Debug().
		Str("player_id", p.ID).
		Float64("elapsed_hours", acc.ElapsedHours).
		Stringer("produced", acc.Produced).
		Msg("Offline production collected")
	return acc
}

// PublishCollected announces a committed collection. Skipped and empty
// accruals are not published.
func (m *Manager) PublishCollected(pub events.Publisher, playerID string, acc Accrual) {
	if acc.Skipped || acc.Produced.IsEmpty() {
		return
	}
	pub.Publish(events.NewProductionCollectedEvent(playerID, acc.Produced, acc.ElapsedHours))
}
