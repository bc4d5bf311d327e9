package gameserver

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/eduland/eduland-server/internal/common"
	"github.com/eduland/eduland-server/internal/game"
	"github.com/eduland/eduland-server/internal/game/catalog"
	"github.com/eduland/eduland-server/internal/game/core"
	"github.com/eduland/eduland-server/internal/game/effects"
	"github.com/eduland/eduland-server/internal/game/events"
	"github.com/eduland/eduland-server/internal/game/mapgen"
	"github.com/eduland/eduland-server/internal/game/production"
	"github.com/eduland/eduland-server/internal/game/states"
	"github.com/eduland/eduland-server/internal/store"
)

// CityService manages players, their buildings and workers
type CityService struct {
	*env
	missions *MissionService
	logger   zerolog.Logger
}

// NewPlayer describes a player to create
type NewPlayer struct {
	Name      string `json:"name" validate:"required,max=64"`
	Group     string `json:"group" validate:"max=32"`
	HeroClass string `json:"heroClass" validate:"required"`
}

// CreatePlayer creates a player with the catalog's starting state, a fresh
// mine map and the first missions
func (s *CityService) CreatePlayer(ctx context.Context, req NewPlayer) (*game.Player, error) {
	cat := s.cat()
	cfg := s.cfg()
	if !common.NotBlank(req.Name) {
		return nil, fmt.Errorf("name: %w", core.ErrInvalidInput)
	}
	if !cat.Hero.HasClass(req.HeroClass) {
		return nil, fmt.Errorf("hero class %q: %w", req.HeroClass, core.ErrInvalidInput)
	}

	now := s.now()
	id := uuid.NewString()
	p := &game.Player{
		ID:        id,
		Name:      req.Name,
		Group:     req.Group,
		Hero:      game.Hero{Class: req.HeroClass, Level: 1},
		Resources: cat.Start.Resources.Clone(),
		Buildings: make(map[string]game.BuildingState, len(cat.Buildings)),
		Sciences:  make(map[string]game.ScienceState),
		Castle:    game.Castle{Level: 1, Skin: cat.Start.Skin},
		Grid: mapgen.ForPlayer(
			mapgen.DefaultGridConfig(cfg.GridWidth, cfg.GridHeight, &cat.Mines), id,
		).GenerateGrid(),
		Season:         game.SeasonProgress{ID: cat.Season.ID},
		LastCalculated: now,
		LastActive:     now,
		CreatedAt:      now,
	}
	for _, b := range cat.Buildings {
		p.Buildings[b.ID] = game.BuildingState{Level: cat.Start.Buildings[b.ID]}
	}
	p.Workers.Total = cfg.StartWorkers
	if cl, ok := cat.CastleLevel(1); ok {
		p.Workers.Total += cl.Workers
	}

	err := s.run(ctx, func(tx store.Tx, out *outbox) error {
		p.Version = 0
		if err := savePlayer(tx, out, p); err != nil {
			return err
		}
		out.add(events.NewPlayerCreatedEvent(p.ID, p.Name, p.Group))
		return s.missions.assignInitial(tx, p.ID, now)
	})
	if err != nil {
		s.logger.Error().Err(err).Str("name", req.Name).Msg("Failed to create player")
		return nil, err
	}
	s.logger.Info().Str("player_id", p.ID).Str("group", p.Group).Msg("Player created")
	return p, nil
}

// GetPlayer returns a player
func (s *CityService) GetPlayer(ctx context.Context, playerID string) (*game.Player, error) {
	return store.View(ctx, s.store, func(tx store.Tx) (*game.Player, error) {
		return tx.Player(playerID)
	})
}

// ListPlayers returns the players of group, or all players
func (s *CityService) ListPlayers(ctx context.Context, group string) ([]*game.Player, error) {
	return store.View(ctx, s.store, func(tx store.Tx) ([]*game.Player, error) {
		return tx.Players(group)
	})
}

// CollectProduction credits offline building production
func (s *CityService) CollectProduction(ctx context.Context, playerID string) (*game.Player, production.Accrual, error) {
	var acc production.Accrual
	p, err := s.updatePlayer(ctx, playerID, func(tx store.Tx, p *game.Player, out *outbox) error {
		now := s.now()
		acc = s.settle(p, s.effects(p), now, out)
		if acc.Skipped || acc.Produced.IsEmpty() {
			return nil
		}
		_, err := s.missions.advance(tx, out, playerID, catalog.ActionReport{Action: catalog.ActionCollectProduction}, now)
		return err
	})
	if err != nil {
		logRejected(s.logger, "collect_production", playerID, err)
	}
	return p, acc, err
}

// Touch marks the player active and collects offline production
func (s *CityService) Touch(ctx context.Context, playerID string) (*game.Player, production.Accrual, error) {
	var acc production.Accrual
	p, err := s.updatePlayer(ctx, playerID, func(tx store.Tx, p *game.Player, out *outbox) error {
		now := s.now()
		p.LastActive = now
		acc = s.settle(p, s.effects(p), now, out)
		return nil
	})
	return p, acc, err
}

// StartUpgrade queues the next level of a building
func (s *CityService) StartUpgrade(ctx context.Context, playerID, buildingID string) (*game.Player, error) {
	p, err := s.updatePlayer(ctx, playerID, func(tx store.Tx, p *game.Player, out *outbox) error {
		if p.BuildQueue != nil {
			return core.ErrBuildInProgress
		}
		cfg, ok := s.cat().Building(buildingID)
		if !ok {
			return fmt.Errorf("building %q: %w", buildingID, core.ErrNotFound)
		}
		current := p.Building(buildingID).Level
		next, ok := cfg.Level(current + 1)
		if !ok {
			return core.ErrMaxLevel
		}

		bag := s.effects(p)
		cost := next.Cost.Scale(bag.Float(effects.UpgradeCostFactor))
		if err := p.Resources.Sub(cost); err != nil {
			return err
		}

		now := s.now()
		duration := time.Duration(float64(next.BuildMinutes) * float64(time.Minute) * effects.SpeedFactor(bag.Float(effects.BuildSpeed))).Round(time.Second)
		p.BuildQueue = &game.BuildOrder{
			BuildingID:  buildingID,
			TargetLevel: next.Level,
			StartedAt:   now,
			EndsAt:      now.Add(duration),
		}
		out.add(events.NewBuildingUpgradeStartedEvent(p.ID, buildingID, next.Level, p.BuildQueue.EndsAt))
		return nil
	})
	if err != nil {
		logRejected(s.logger, "start_upgrade", playerID, err)
	}
	return p, err
}

// CompleteUpgrade finishes the queued upgrade once its timer has run out
func (s *CityService) CompleteUpgrade(ctx context.Context, playerID string) (*game.Player, error) {
	p, err := s.updatePlayer(ctx, playerID, func(tx store.Tx, p *game.Player, out *outbox) error {
		order := p.BuildQueue
		if order == nil {
			return fmt.Errorf("nothing is being built: %w", core.ErrInvalidState)
		}
		now := s.now()
		if now.Before(order.EndsAt) {
			return core.ErrNotReady
		}

		// old level still produces until now
		s.settle(p, s.effects(p), now, out)

		b := p.Buildings[order.BuildingID]
		b.Level = order.TargetLevel
		p.Buildings[order.BuildingID] = b
		p.BuildQueue = nil
		out.add(events.NewBuildingUpgradedEvent(p.ID, order.BuildingID, b.Level))

		_, err := s.missions.advance(tx, out, playerID, catalog.ActionReport{
			Action:      catalog.ActionUpgradeBuilding,
			Target:      order.BuildingID,
			TargetLevel: b.Level,
		}, now)
		return err
	})
	if err != nil {
		logRejected(s.logger, "complete_upgrade", playerID, err)
	}
	return p, err
}

// WorkerSlots returns how many workers a building can take at its level
func WorkerSlots(cfg *catalog.BuildingConfig, level int, bag *effects.Bag) int {
	lc, ok := cfg.Level(level)
	if !ok {
		return 0
	}
	return lc.WorkerSlots + bag.Int(effects.WorkerSlots)
}

// AssignWorker moves a free worker into a building
func (s *CityService) AssignWorker(ctx context.Context, playerID, buildingID string) (*game.Player, error) {
	p, err := s.updatePlayer(ctx, playerID, func(tx store.Tx, p *game.Player, out *outbox) error {
		cfg, ok := s.cat().Building(buildingID)
		if !ok {
			return fmt.Errorf("building %q: %w", buildingID, core.ErrNotFound)
		}
		b := p.Building(buildingID)
		if b.Level < 1 {
			return core.ErrBuildingNotBuilt
		}
		// the placed count is derived; a drifted document heals here
		p.Workers.Placed = p.PlacedWorkers()
		if p.Workers.Free() <= 0 {
			return core.ErrNoFreeWorkers
		}
		bag := s.effects(p)
		if b.Workers >= WorkerSlots(cfg, b.Level, bag) {
			return core.ErrNoWorkerSlots
		}

		s.settle(p, bag, s.now(), out)
		b.Workers++
		p.Buildings[buildingID] = b
		p.Workers.Placed = p.PlacedWorkers()
		return nil
	})
	if err != nil {
		logRejected(s.logger, "assign_worker", playerID, err)
	}
	return p, err
}

// UnassignWorker returns a worker from a building to the free pool
func (s *CityService) UnassignWorker(ctx context.Context, playerID, buildingID string) (*game.Player, error) {
	p, err := s.updatePlayer(ctx, playerID, func(tx store.Tx, p *game.Player, out *outbox) error {
		if _, ok := s.cat().Building(buildingID); !ok {
			return fmt.Errorf("building %q: %w", buildingID, core.ErrNotFound)
		}
		b := p.Building(buildingID)
		if b.Workers <= 0 {
			return fmt.Errorf("no workers in %s: %w", buildingID, core.ErrInvalidState)
		}

		s.settle(p, s.effects(p), s.now(), out)
		b.Workers--
		p.Buildings[buildingID] = b
		p.Workers.Placed = p.PlacedWorkers()
		return nil
	})
	if err != nil {
		logRejected(s.logger, "unassign_worker", playerID, err)
	}
	return p, err
}

// PlaceBuilding puts a built building on a grid cell, or takes it off the
// map when cell is nil
func (s *CityService) PlaceBuilding(ctx context.Context, playerID, buildingID string, cell *core.CellIndex) (*game.Player, error) {
	p, err := s.updatePlayer(ctx, playerID, func(tx store.Tx, p *game.Player, out *outbox) error {
		if _, ok := s.cat().Building(buildingID); !ok {
			return fmt.Errorf("building %q: %w", buildingID, core.ErrNotFound)
		}
		if p.Building(buildingID).Level < 1 {
			return core.ErrBuildingNotBuilt
		}

		var target *core.Cell
		if cell != nil {
			c, err := p.Grid.Cell(*cell)
			if err != nil {
				return err
			}
			if c.IsMine() || c.Status == states.CellResearching {
				return core.ErrCellOccupied
			}
			if c.BuildingID != "" && c.BuildingID != buildingID {
				return core.ErrCellOccupied
			}
			target = c
		}

		if old, ok := p.Grid.BuildingCell(buildingID); ok {
			p.Grid.Cells[old].BuildingID = ""
		}
		if target != nil {
			target.BuildingID = buildingID
		}
		return nil
	})
	if err != nil {
		logRejected(s.logger, "place_building", playerID, err)
	}
	return p, err
}
