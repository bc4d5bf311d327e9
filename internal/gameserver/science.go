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
	"github.com/eduland/eduland-server/internal/game/states"
	"github.com/eduland/eduland-server/internal/store"
)

// ScienceService runs the tech tree. A player researches one science at a
// time.
type ScienceService struct {
	*env
	missions *MissionService
	logger   zerolog.Logger
}

// ResearchDuration returns how long sci takes for a player with bag and a
// lab at labLevel
func ResearchDuration(cat *catalog.Catalog, sci *catalog.ScienceConfig, bag *effects.Bag, labLevel int) time.Duration {
	bonus := bag.Float(effects.ResearchSpeed) + cat.Research.LabBonusPerLevel*float64(labLevel)
	minutes := float64(sci.BaseMinutes) * effects.SpeedFactor(bonus)
	return time.Duration(minutes * float64(time.Minute)).Round(time.Second)
}

// StartResearch begins researching scienceID
func (s *ScienceService) StartResearch(ctx context.Context, playerID, scienceID string) (*game.Player, error) {
	p, err := s.updatePlayer(ctx, playerID, func(tx store.Tx, p *game.Player, out *outbox) error {
		if p.ActiveResearchID != "" {
			return core.ErrResearchInProgress
		}
		cat := s.cat()
		sci, ok := cat.Science(scienceID)
		if !ok {
			return fmt.Errorf("science %q: %w", scienceID, core.ErrNotFound)
		}
		if p.HasCompleted(scienceID) {
			return core.ErrAlreadyResearched
		}
		for _, pre := range sci.Prerequisites {
			if !p.HasCompleted(pre) {
				return fmt.Errorf("%w: %s", core.ErrPrerequisitesMissing, pre)
			}
		}
		if p.ResearchPoints < sci.ResearchPoints {
			return fmt.Errorf("%w: need %d research points, have %d",
				core.ErrInsufficientResources, sci.ResearchPoints, p.ResearchPoints)
		}
		if err := p.Resources.Sub(sci.Cost); err != nil {
			return err
		}
		p.ResearchPoints -= sci.ResearchPoints

		now := s.now()
		lab := 0
		if cat.Research.LabBuilding != "" {
			lab = p.Building(cat.Research.LabBuilding).Level
		}
		ends := now.Add(ResearchDuration(cat, sci, s.effects(p), lab))
		p.Sciences[scienceID] = game.ScienceState{
			Status:    states.ResearchInProgress,
			StartedAt: now,
			EndsAt:    ends,
		}
		p.ActiveResearchID = scienceID
		out.add(events.NewResearchStartedEvent(p.ID, scienceID, ends))
		return nil
	})
	if err != nil {
		logRejected(s.logger, "start_research", playerID, err)
	}
	return p, err
}

// CompleteResearch finishes the active research once its timer has run out
func (s *ScienceService) CompleteResearch(ctx context.Context, playerID string) (*game.Player, error) {
	p, err := s.updatePlayer(ctx, playerID, func(tx store.Tx, p *game.Player, out *outbox) error {
		id := p.ActiveResearchID
		if id == "" {
			return fmt.Errorf("nothing is being researched: %w", core.ErrInvalidState)
		}
		state := p.Sciences[id]
		now := s.now()
		if now.Before(state.EndsAt) {
			return core.ErrNotReady
		}
		if !state.Status.CanTransitionTo(states.ResearchCompleted) {
			return fmt.Errorf("science %s is %s: %w", id, state.Status, core.ErrInvalidState)
		}

		// production up to now runs on the old bonuses
		s.settle(p, s.effects(p), now, out)

		state.Status = states.ResearchCompleted
		state.CompletedAt = &now
		p.Sciences[id] = state
		p.ActiveResearchID = ""
		out.add(events.NewResearchCompletedEvent(p.ID, id, state.EndsAt))

		_, err := s.missions.advance(tx, out, playerID, catalog.ActionReport{
			Action: catalog.ActionResearchComplete,
			Target: id,
		}, now)
		return err
	})
	if err != nil {
		logRejected(s.logger, "complete_research", playerID, err)
	}
	return p, err
}

// Effects returns the bonuses currently active for a player
func (s *ScienceService) Effects(ctx context.Context, playerID string) (*effects.Bag, error) {
	p, err := store.View(ctx, s.store, func(tx store.Tx) (*game.Player, error) {
		return tx.Player(playerID)
	})
	if err != nil {
		return nil, err
	}
	return s.effects(p), nil
}
