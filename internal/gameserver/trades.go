package gameserver

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/eduland/eduland-server/internal/game"
	"github.com/eduland/eduland-server/internal/game/catalog"
	"github.com/eduland/eduland-server/internal/game/core"
	"github.com/eduland/eduland-server/internal/game/events"
	"github.com/eduland/eduland-server/internal/game/states"
	"github.com/eduland/eduland-server/internal/store"
)

// TradeService runs resource trades between players. The offer leaves the
// sender when the trade is created and comes back on reject or cancel.
type TradeService struct {
	*env
	missions *MissionService
	logger   zerolog.Logger
}

// TradeOffer describes a trade to create
type TradeOffer struct {
	To      string         `json:"to" validate:"required"`
	Offer   core.Resources `json:"offer" validate:"required"`
	Request core.Resources `json:"request" validate:"required"`
}

func validBundle(name string, r core.Resources) error {
	if err := r.Validate(); err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	if r.IsEmpty() {
		return fmt.Errorf("%w: %s is empty", core.ErrInvalidInput, name)
	}
	return nil
}

// CreateTrade offers resources from one player to another
func (s *TradeService) CreateTrade(ctx context.Context, fromID string, req TradeOffer) (*game.Trade, error) {
	if fromID == req.To {
		return nil, fmt.Errorf("%w: cannot trade with yourself", core.ErrInvalidInput)
	}
	if err := validBundle("offer", req.Offer); err != nil {
		return nil, err
	}
	if err := validBundle("request", req.Request); err != nil {
		return nil, err
	}

	trade := &game.Trade{
		ID:         uuid.NewString(),
		FromPlayer: fromID,
		ToPlayer:   req.To,
		Offer:      req.Offer.NonZero(),
		Request:    req.Request.NonZero(),
		Status:     states.TradePending,
	}
	err := s.run(ctx, func(tx store.Tx, out *outbox) error {
		if _, err := tx.Player(req.To); err != nil {
			return fmt.Errorf("receiver: %w", err)
		}
		from, err := tx.Player(fromID)
		if err != nil {
			return err
		}
		if err := from.Resources.Sub(trade.Offer); err != nil {
			return err
		}
		trade.CreatedAt = s.now()
		if err := tx.PutTrade(trade); err != nil {
			return err
		}
		if err := savePlayer(tx, out, from); err != nil {
			return err
		}
		s.announce(out, trade)
		return nil
	})
	if err != nil {
		logRejected(s.logger, "create_trade", fromID, err)
		return nil, err
	}
	s.logger.Debug().Str("trade_id", trade.ID).Str("from", fromID).Str("to", req.To).Msg("Trade created")
	return trade, nil
}

func (s *TradeService) announce(out *outbox, t *game.Trade) {
	out.add(events.NewTradeChangedEvent(t.FromPlayer, t))
	out.add(events.NewTradeChangedEvent(t.ToPlayer, t))
}

// resolve loads a pending trade, checks that actor plays the required role
// and moves it to status
func (s *TradeService) resolve(tx store.Tx, tradeID, actor string, receiver bool, status states.TradeStatus) (*game.Trade, error) {
	t, err := tx.Trade(tradeID)
	if err != nil {
		return nil, err
	}
	owner := t.FromPlayer
	if receiver {
		owner = t.ToPlayer
	}
	if actor != owner {
		return nil, core.ErrNotAuthorized
	}
	if !t.Status.CanTransitionTo(status) {
		return nil, fmt.Errorf("trade is %s: %w", t.Status, core.ErrInvalidState)
	}
	now := s.now()
	t.Status = status
	t.ResolvedAt = &now
	return t, tx.PutTrade(t)
}

// AcceptTrade completes a trade. Both players and the trade change in one
// transaction.
func (s *TradeService) AcceptTrade(ctx context.Context, tradeID, actor string) (*game.Trade, error) {
	var trade *game.Trade
	err := s.run(ctx, func(tx store.Tx, out *outbox) error {
		t, err := s.resolve(tx, tradeID, actor, true, states.TradeAccepted)
		if err != nil {
			return err
		}
		to, err := tx.Player(t.ToPlayer)
		if err != nil {
			return err
		}
		from, err := tx.Player(t.FromPlayer)
		if err != nil {
			return err
		}
		if err := to.Resources.Sub(t.Request); err != nil {
			return err
		}
		to.Resources.Add(t.Offer)
		from.Resources.Add(t.Request)
		if err := savePlayer(tx, out, to); err != nil {
			return err
		}
		if err := savePlayer(tx, out, from); err != nil {
			return err
		}

		report := catalog.ActionReport{Action: catalog.ActionTradeAccepted}
		for _, id := range []string{t.FromPlayer, t.ToPlayer} {
			if _, err := s.missions.advance(tx, out, id, report, *t.ResolvedAt); err != nil {
				return err
			}
		}
		s.announce(out, t)
		trade = t
		return nil
	})
	if err != nil {
		logRejected(s.logger, "accept_trade", actor, err)
		return nil, err
	}
	s.logger.Debug().Str("trade_id", tradeID).Msg("Trade accepted")
	return trade, nil
}

// refund returns the offer to the sender and closes the trade
func (s *TradeService) refund(ctx context.Context, op, tradeID, actor string, receiver bool, status states.TradeStatus) (*game.Trade, error) {
	var trade *game.Trade
	err := s.run(ctx, func(tx store.Tx, out *outbox) error {
		t, err := s.resolve(tx, tradeID, actor, receiver, status)
		if err != nil {
			return err
		}
		from, err := tx.Player(t.FromPlayer)
		if err != nil {
			return err
		}
		from.Resources.Add(t.Offer)
		if err := savePlayer(tx, out, from); err != nil {
			return err
		}
		s.announce(out, t)
		trade = t
		return nil
	})
	if err != nil {
		logRejected(s.logger, op, actor, err)
		return nil, err
	}
	return trade, nil
}

// RejectTrade declines a trade as its receiver
func (s *TradeService) RejectTrade(ctx context.Context, tradeID, actor string) (*game.Trade, error) {
	return s.refund(ctx, "reject_trade", tradeID, actor, true, states.TradeRejected)
}

// CancelTrade withdraws a trade as its sender
func (s *TradeService) CancelTrade(ctx context.Context, tradeID, actor string) (*game.Trade, error) {
	return s.refund(ctx, "cancel_trade", tradeID, actor, false, states.TradeCancelled)
}

// ListTrades returns trades sent or received by playerID, newest first
func (s *TradeService) ListTrades(ctx context.Context, playerID string) ([]*game.Trade, error) {
	return store.View(ctx, s.store, func(tx store.Tx) ([]*game.Trade, error) {
		return tx.TradesFor(playerID)
	})
}
