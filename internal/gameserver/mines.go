package gameserver

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/eduland/eduland-server/internal/game"
	"github.com/eduland/eduland-server/internal/game/catalog"
	"github.com/eduland/eduland-server/internal/game/core"
	"github.com/eduland/eduland-server/internal/game/effects"
	"github.com/eduland/eduland-server/internal/game/events"
	"github.com/eduland/eduland-server/internal/game/production"
	"github.com/eduland/eduland-server/internal/game/states"
	"github.com/eduland/eduland-server/internal/store"
)

// MineService runs the per-player mine map: cell research, mine
// construction, collection and upgrades
type MineService struct {
	*env
	missions *MissionService
	logger   zerolog.Logger
}

// MineYield is the result of collecting a mine
type MineYield struct {
	Cell     core.CellIndex    `json:"cell"`
	Resource core.ResourceKind `json:"resource"`
	Amount   int               `json:"amount"`
}

func (s *MineService) cellFor(p *game.Player, idx core.CellIndex) (*core.Cell, error) {
	c, err := p.Grid.Cell(idx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrInvalidInput, err)
	}
	return c, nil
}

func transition(c *core.Cell, to states.CellStatus) error {
	if !c.Status.CanTransitionTo(to) {
		return fmt.Errorf("cell %d is %s: %w", c.Index, c.Status, core.ErrInvalidState)
	}
	c.Status = to
	return nil
}

// StartCellResearch begins surveying a hidden cell. Only one cell per
// player can be under research.
func (s *MineService) StartCellResearch(ctx context.Context, playerID string, idx core.CellIndex) (*game.Player, error) {
	p, err := s.updatePlayer(ctx, playerID, func(tx store.Tx, p *game.Player, out *outbox) error {
		c, err := s.cellFor(p, idx)
		if err != nil {
			return err
		}
		if c.BuildingID != "" {
			return core.ErrCellOccupied
		}
		if c.Status != states.CellHidden {
			return fmt.Errorf("cell %d is %s: %w", idx, c.Status, core.ErrInvalidState)
		}
		if p.Grid.CountStatus(states.CellResearching) > 0 {
			return core.ErrResearchInProgress
		}
		mines := &s.cat().Mines
		if err := p.Resources.Sub(mines.ResearchCost); err != nil {
			return err
		}

		ends := s.now().Add(time.Duration(mines.ResearchMinutes) * time.Minute)
		if err := transition(c, states.CellResearching); err != nil {
			return err
		}
		c.ResearchEndsAt = &ends
		out.add(events.NewCellChangedEvent(p.ID, idx, c.Status, 0))
		return nil
	})
	if err != nil {
		logRejected(s.logger, "start_cell_research", playerID, err)
	}
	return p, err
}

// CompleteCellResearch reveals the deposit of a surveyed cell
func (s *MineService) CompleteCellResearch(ctx context.Context, playerID string, idx core.CellIndex) (*game.Player, error) {
	p, err := s.updatePlayer(ctx, playerID, func(tx store.Tx, p *game.Player, out *outbox) error {
		c, err := s.cellFor(p, idx)
		if err != nil {
			return err
		}
		if c.Status != states.CellResearching {
			return fmt.Errorf("cell %d is %s: %w", idx, c.Status, core.ErrInvalidState)
		}
		now := s.now()
		if c.ResearchEndsAt != nil && now.Before(*c.ResearchEndsAt) {
			return core.ErrNotReady
		}
		if err := transition(c, states.CellRevealed); err != nil {
			return err
		}
		c.Resource = c.Deposit
		c.ResearchEndsAt = nil
		out.add(events.NewCellChangedEvent(p.ID, idx, c.Status, 0))

		_, err = s.missions.advance(tx, out, playerID, catalog.ActionReport{
			Action: catalog.ActionResearchCell,
			Target: string(c.Resource),
		}, now)
		return err
	})
	if err != nil {
		logRejected(s.logger, "complete_cell_research", playerID, err)
	}
	return p, err
}

// BuildMine builds a tier 1 mine on a revealed cell
func (s *MineService) BuildMine(ctx context.Context, playerID string, idx core.CellIndex) (*game.Player, error) {
	p, err := s.updatePlayer(ctx, playerID, func(tx store.Tx, p *game.Player, out *outbox) error {
		c, err := s.cellFor(p, idx)
		if err != nil {
			return err
		}
		if c.BuildingID != "" {
			return core.ErrCellOccupied
		}
		if c.Status != states.CellRevealed {
			return fmt.Errorf("cell %d is %s: %w", idx, c.Status, core.ErrInvalidState)
		}
		first, ok := s.cat().Mines.Level(1)
		if !ok {
			return fmt.Errorf("mine table is empty: %w", core.ErrInvalidState)
		}
		cost := first.Cost.Scale(s.effects(p).Float(effects.UpgradeCostFactor))
		if err := p.Resources.Sub(cost); err != nil {
			return err
		}

		now := s.now()
		if err := transition(c, states.CellMine); err != nil {
			return err
		}
		c.MineLevel = 1
		c.LastCollected = now
		out.add(events.NewCellChangedEvent(p.ID, idx, c.Status, c.MineLevel))

		_, err = s.missions.advance(tx, out, playerID, catalog.ActionReport{
			Action: catalog.ActionBuildMine,
			Target: string(c.Resource),
			Tier:   1,
		}, now)
		return err
	})
	if err != nil {
		logRejected(s.logger, "build_mine", playerID, err)
	}
	return p, err
}

// collect credits the yield waiting in c and restarts its timer
func (s *MineService) collect(p *game.Player, c *core.Cell, bag *effects.Bag, now time.Time, out *outbox) int {
	amount := production.MineAccumulated(c, &s.cat().Mines, bag, now)
	c.LastCollected = now
	if amount > 0 {
		p.Resources.Add(core.Resources{c.Resource: amount})
		out.add(events.NewMineCollectedEvent(p.ID, c.Index, c.Resource, amount))
	}
	return amount
}

// CollectMine takes the accumulated yield of a mine
func (s *MineService) CollectMine(ctx context.Context, playerID string, idx core.CellIndex) (*game.Player, MineYield, error) {
	var yield MineYield
	p, err := s.updatePlayer(ctx, playerID, func(tx store.Tx, p *game.Player, out *outbox) error {
		c, err := s.cellFor(p, idx)
		if err != nil {
			return err
		}
		if !c.IsMine() {
			return fmt.Errorf("cell %d has no mine: %w", idx, core.ErrInvalidState)
		}
		now := s.now()
		if production.MineAccumulated(c, &s.cat().Mines, s.effects(p), now) == 0 {
			return core.ErrNotReady
		}
		amount := s.collect(p, c, s.effects(p), now, out)
		yield = MineYield{Cell: idx, Resource: c.Resource, Amount: amount}

		_, err = s.missions.advance(tx, out, playerID, catalog.ActionReport{
			Action: catalog.ActionCollectMine,
			Target: string(c.Resource),
			Tier:   c.MineLevel,
		}, now)
		return err
	})
	if err != nil {
		logRejected(s.logger, "collect_mine", playerID, err)
	}
	return p, yield, err
}

// UpgradeMine raises a mine one tier. Pending yield is collected at the old
// rate first.
func (s *MineService) UpgradeMine(ctx context.Context, playerID string, idx core.CellIndex) (*game.Player, error) {
	p, err := s.updatePlayer(ctx, playerID, func(tx store.Tx, p *game.Player, out *outbox) error {
		c, err := s.cellFor(p, idx)
		if err != nil {
			return err
		}
		if !c.IsMine() {
			return fmt.Errorf("cell %d has no mine: %w", idx, core.ErrInvalidState)
		}
		bag := s.effects(p)
		cost, ok := production.MineUpgradeCost(c, &s.cat().Mines, bag)
		if !ok {
			return core.ErrMaxLevel
		}
		now := s.now()
		s.collect(p, c, bag, now, out)
		if err := p.Resources.Sub(cost); err != nil {
			return err
		}
		c.MineLevel++
		out.add(events.NewCellChangedEvent(p.ID, idx, c.Status, c.MineLevel))

		_, err = s.missions.advance(tx, out, playerID, catalog.ActionReport{
			Action: catalog.ActionUpgradeMine,
			Target: string(c.Resource),
			Tier:   c.MineLevel,
		}, now)
		return err
	})
	if err != nil {
		logRejected(s.logger, "upgrade_mine", playerID, err)
	}
	return p, err
}
