package gameserver

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/eduland/eduland-server/internal/game"
	"github.com/eduland/eduland-server/internal/game/catalog"
	"github.com/eduland/eduland-server/internal/game/core"
	"github.com/eduland/eduland-server/internal/game/effects"
	"github.com/eduland/eduland-server/internal/store"
)

// CastleService upgrades the castle and changes its skin
type CastleService struct {
	*env
	missions *MissionService
	logger   zerolog.Logger
}

// UpgradeCastle raises the castle one level, granting that level's workers
func (s *CastleService) UpgradeCastle(ctx context.Context, playerID string) (*game.Player, error) {
	p, err := s.updatePlayer(ctx, playerID, func(tx store.Tx, p *game.Player, out *outbox) error {
		next, ok := s.cat().CastleLevel(p.Castle.Level + 1)
		if !ok {
			return core.ErrMaxLevel
		}
		bag := s.effects(p)
		now := s.now()
		// castle effects change with the level
		s.settle(p, bag, now, out)
		if err := p.Resources.Sub(next.Cost.Scale(bag.Float(effects.UpgradeCostFactor))); err != nil {
			return err
		}
		p.Castle.Level = next.Level
		p.Workers.Total += next.Workers

		_, err := s.missions.advance(tx, out, playerID, catalog.ActionReport{
			Action:      catalog.ActionUpgradeCastle,
			TargetLevel: next.Level,
		}, now)
		return err
	})
	if err != nil {
		logRejected(s.logger, "upgrade_castle", playerID, err)
		return nil, err
	}
	s.logger.Info().Str("player_id", playerID).Int("level", p.Castle.Level).Msg("Castle upgraded")
	return p, nil
}

// SetSkin changes the castle skin to one unlocked at the current level
func (s *CastleService) SetSkin(ctx context.Context, playerID, skin string) (*game.Player, error) {
	p, err := s.updatePlayer(ctx, playerID, func(tx store.Tx, p *game.Player, out *outbox) error {
		if !s.cat().SkinUnlocked(skin, p.Castle.Level) {
			return fmt.Errorf("skin %q: %w", skin, core.ErrLocked)
		}
		p.Castle.Skin = skin
		return nil
	})
	if err != nil {
		logRejected(s.logger, "set_skin", playerID, err)
	}
	return p, err
}
