package gameserver

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/eduland/eduland-server/internal/common"
	"github.com/eduland/eduland-server/internal/game"
	"github.com/eduland/eduland-server/internal/game/catalog"
	"github.com/eduland/eduland-server/internal/game/core"
	"github.com/eduland/eduland-server/internal/game/events"
	"github.com/eduland/eduland-server/internal/game/production"
	"github.com/eduland/eduland-server/internal/store"
)

// Domain actions carried by domain events
const (
	DomainClaimed   = "claimed"
	DomainCollected = "collected"
	DomainAbandoned = "abandoned"
)

// DomainService runs the shared world map of outer domains
type DomainService struct {
	*env
	missions *MissionService
	logger   zerolog.Logger
}

// DomainView is a world tile as seen by a player; unowned tiles report the
// resource and rate they would have once claimed
type DomainView struct {
	ID          string            `json:"id"`
	X           int               `json:"x"`
	Y           int               `json:"y"`
	OwnerID     string            `json:"ownerId,omitempty"`
	Resource    core.ResourceKind `json:"resource"`
	RatePerHour float64           `json:"ratePerHour"`
	Pending     int               `json:"pending,omitempty"`
}

func (s *DomainService) coordinate(x, y int) (core.Coordinate, error) {
	cfg := s.cfg()
	if !common.IsValidCoordinate(x, y, cfg.WorldWidth, cfg.WorldHeight) {
		return core.Coordinate{}, fmt.Errorf("%w: domain (%d,%d) is outside the world", core.ErrInvalidInput, x, y)
	}
	return core.NewCoordinate(x, y), nil
}

// ClaimDomain takes an unowned tile for playerID
func (s *DomainService) ClaimDomain(ctx context.Context, playerID string, x, y int) (*game.OuterDomain, *game.Player, error) {
	c, err := s.coordinate(x, y)
	if err != nil {
		return nil, nil, err
	}
	var domain *game.OuterDomain
	p, err := s.updatePlayer(ctx, playerID, func(tx store.Tx, p *game.Player, out *outbox) error {
		id := c.Key()
		if _, err := tx.Domain(id); err == nil {
			return core.ErrDomainOwned
		} else if !errors.Is(err, core.ErrNotFound) {
			return err
		}
		owned, err := tx.Domains(playerID)
		if err != nil {
			return err
		}
		if len(owned) >= s.cfg().DomainsPerPlayer {
			return core.ErrDomainLimit
		}
		cat := s.cat()
		if err := p.Resources.Sub(cat.Domains.ClaimCost); err != nil {
			return err
		}

		now := s.now()
		kind, rate := production.DomainTraits(c, &cat.Domains)
		domain = &game.OuterDomain{
			ID:            id,
			X:             c.X,
			Y:             c.Y,
			OwnerID:       playerID,
			Resource:      kind,
			RatePerHour:   rate,
			ClaimedAt:     now,
			LastCollected: now,
		}
		if err := tx.PutDomain(domain); err != nil {
			return err
		}
		out.add(events.NewDomainChangedEvent(playerID, id, DomainClaimed, 0))

		_, err = s.missions.advance(tx, out, playerID, catalog.ActionReport{
			Action: catalog.ActionClaimDomain,
			Target: string(kind),
		}, now)
		return err
	})
	if err != nil {
		logRejected(s.logger, "claim_domain", playerID, err)
		return nil, nil, err
	}
	s.logger.Info().Str("player_id", playerID).Str("domain_id", domain.ID).Msg("Domain claimed")
	return domain, p, nil
}

// ownedDomain loads a domain and checks that playerID holds it
func ownedDomain(tx store.Tx, playerID string, x, y int) (*game.OuterDomain, error) {
	d, err := tx.Domain(core.NewCoordinate(x, y).Key())
	if err != nil {
		return nil, err
	}
	if d.OwnerID != playerID {
		return nil, core.ErrNotAuthorized
	}
	return d, nil
}

// collect credits what d has produced and restarts its timer
func (s *DomainService) collect(p *game.Player, d *game.OuterDomain) int {
	now := s.now()
	amount := production.DomainAccumulated(d, s.effects(p), now, s.cfg().DomainMaxHours)
	d.LastCollected = now
	if amount > 0 {
		p.Resources.Add(core.Resources{d.Resource: amount})
	}
	return amount
}

// CollectDomain takes what an owned domain has produced
func (s *DomainService) CollectDomain(ctx context.Context, playerID string, x, y int) (*game.OuterDomain, *game.Player, int, error) {
	var (
		domain *game.OuterDomain
		amount int
	)
	p, err := s.updatePlayer(ctx, playerID, func(tx store.Tx, p *game.Player, out *outbox) error {
		d, err := ownedDomain(tx, playerID, x, y)
		if err != nil {
			return err
		}
		amount = s.collect(p, d)
		if amount == 0 {
			return core.ErrNotReady
		}
		if err := tx.PutDomain(d); err != nil {
			return err
		}
		domain = d
		out.add(events.NewDomainChangedEvent(playerID, d.ID, DomainCollected, amount))

		_, err = s.missions.advance(tx, out, playerID, catalog.ActionReport{
			Action: catalog.ActionCollectDomain,
			Target: string(d.Resource),
		}, d.LastCollected)
		return err
	})
	if err != nil {
		logRejected(s.logger, "collect_domain", playerID, err)
		return nil, nil, 0, err
	}
	return domain, p, amount, nil
}

// AbandonDomain releases an owned domain after collecting what it holds
func (s *DomainService) AbandonDomain(ctx context.Context, playerID string, x, y int) (*game.Player, int, error) {
	var amount int
	p, err := s.updatePlayer(ctx, playerID, func(tx store.Tx, p *game.Player, out *outbox) error {
		d, err := ownedDomain(tx, playerID, x, y)
		if err != nil {
			return err
		}
		amount = s.collect(p, d)
		if err := tx.DeleteDomain(d.ID); err != nil {
			return err
		}
		out.add(events.NewDomainChangedEvent(playerID, d.ID, DomainAbandoned, amount))
		return nil
	})
	if err != nil {
		logRejected(s.logger, "abandon_domain", playerID, err)
		return nil, 0, err
	}
	s.logger.Info().Str("player_id", playerID).Int("x", x).Int("y", y).Msg("Domain abandoned")
	return p, amount, nil
}

// ListDomains returns the claimed domains of ownerID, or every claimed
// domain when ownerID is empty
func (s *DomainService) ListDomains(ctx context.Context, ownerID string) ([]*game.OuterDomain, error) {
	return store.View(ctx, s.store, func(tx store.Tx) ([]*game.OuterDomain, error) {
		return tx.Domains(ownerID)
	})
}

// Inspect describes a tile whether or not it is claimed
func (s *DomainService) Inspect(ctx context.Context, x, y int) (DomainView, error) {
	c, err := s.coordinate(x, y)
	if err != nil {
		return DomainView{}, err
	}
	return store.View(ctx, s.store, func(tx store.Tx) (DomainView, error) {
		kind, rate := production.DomainTraits(c, &s.cat().Domains)
		view := DomainView{ID: c.Key(), X: c.X, Y: c.Y, Resource: kind, RatePerHour: rate}

		d, err := tx.Domain(c.Key())
		if errors.Is(err, core.ErrNotFound) {
			return view, nil
		}
		if err != nil {
			return DomainView{}, err
		}
		view.OwnerID = d.OwnerID
		view.Resource = d.Resource
		view.RatePerHour = d.RatePerHour
		if owner, err := tx.Player(d.OwnerID); err == nil {
			view.Pending = production.DomainAccumulated(d, s.effects(owner), s.now(), s.cfg().DomainMaxHours)
		}
		return view, nil
	})
}
