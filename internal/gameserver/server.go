// Package gameserver holds the application services behind the HTTP API.
// Each service owns one concern; all of them share one store, catalog,
// clock and event bus. Every mutation runs in a single store transaction
// and its events are published after commit.
package gameserver

import (
	"github.com/rs/zerolog"

	"github.com/eduland/eduland-server/internal/game/catalog"
	"github.com/eduland/eduland-server/internal/game/events"
	"github.com/eduland/eduland-server/internal/game/production"
	"github.com/eduland/eduland-server/internal/store"
)

// Deps are the collaborators of a Server
type Deps struct {
	Store    store.Store
	Catalog  *catalog.Catalog
	Bus      events.Publisher
	Clock    Clock
	Settings Settings
	Logger   zerolog.Logger
}

// Server bundles the game services
type Server struct {
	City      *CityService
	Mines     *MineService
	Domains   *DomainService
	Science   *ScienceService
	Castle    *CastleService
	Missions  *MissionService
	Trades    *TradeService
	Classroom *ClassroomService

	Idempotency *IdempotencyManager

	env    *env
	logger zerolog.Logger
}

// NewServer wires the services
func NewServer(deps Deps) *Server {
	if deps.Clock == nil {
		deps.Clock = SystemClock{}
	}
	if deps.Bus == nil {
		deps.Bus = events.NopPublisher{}
	}
	logger := deps.Logger.With().Str("component", "gameserver").Logger()

	e := &env{
		store:      deps.Store,
		bus:        deps.Bus,
		clock:      deps.Clock,
		production: production.NewManager(deps.Catalog, deps.Settings.Accrual, deps.Logger),
	}
	e.catalog.Store(deps.Catalog)
	settings := deps.Settings
	e.settings.Store(&settings)

	missions := &MissionService{env: e, logger: logger.With().Str("service", "missions").Logger()}
	s := &Server{
		Missions:    missions,
		City:        &CityService{env: e, missions: missions, logger: logger.With().Str("service", "city").Logger()},
		Mines:       &MineService{env: e, missions: missions, logger: logger.With().Str("service", "mines").Logger()},
		Domains:     &DomainService{env: e, missions: missions, logger: logger.With().Str("service", "domains").Logger()},
		Science:     &ScienceService{env: e, missions: missions, logger: logger.With().Str("service", "science").Logger()},
		Castle:      &CastleService{env: e, missions: missions, logger: logger.With().Str("service", "castle").Logger()},
		Trades:      &TradeService{env: e, missions: missions, logger: logger.With().Str("service", "trades").Logger()},
		Classroom:   &ClassroomService{env: e, missions: missions, logger: logger.With().Str("service", "classroom").Logger()},
		Idempotency: NewIdempotencyManager(settings.IdempotencyTTL),
		env:         e,
		logger:      logger,
	}
	return s
}

// Catalog returns the catalog in use
func (s *Server) Catalog() *catalog.Catalog {
	return s.env.cat()
}

// Settings returns the tunables in use
func (s *Server) Settings() Settings {
	return s.env.cfg()
}

// ApplySettings swaps the tunables, e.g. after a config reload
func (s *Server) ApplySettings(settings Settings) {
	s.env.settings.Store(&settings)
	s.env.production.SetPolicy(settings.Accrual)
	s.Idempotency.SetTTL(settings.IdempotencyTTL)
	s.logger.Info().Msg("Game settings reloaded")
}

// ApplyCatalog swaps the catalog, e.g. after the catalog file changed
func (s *Server) ApplyCatalog(cat *catalog.Catalog) {
	s.env.catalog.Store(cat)
	s.env.production.SetCatalog(cat)
	s.logger.Info().
		Int("buildings", len(cat.Buildings)).
		Int("sciences", len(cat.Sciences)).
		Msg("Catalog reloaded")
}
