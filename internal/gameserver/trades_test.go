package gameserver

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eduland/eduland-server/internal/game"
	"github.com/eduland/eduland-server/internal/game/core"
	"github.com/eduland/eduland-server/internal/game/events"
	"github.com/eduland/eduland-server/internal/game/states"
)

func setupTrade(t *testing.T) (*harness, *game.Player, *game.Player, *game.Trade) {
	h := newHarness(t)
	from := h.newPlayer(t, "Оля", "")
	to := h.newPlayer(t, "Петро", "")
	trade, err := h.Trades.CreateTrade(context.Background(), from.ID, TradeOffer{
		To:      to.ID,
		Offer:   core.Resources{core.Gold: 100},
		Request: core.Resources{core.Wood: 50},
	})
	require.NoError(t, err)
	return h, from, to, trade
}

func TestCreateTradeDebitsOffer(t *testing.T) {
	h, from, to, trade := setupTrade(t)

	assert.Equal(t, states.TradePending, trade.Status)
	assert.Equal(t, 200, h.player(t, from.ID).Resources.Get(core.Gold))
	assert.Equal(t, 300, h.player(t, to.ID).Resources.Get(core.Gold))

	changes := h.events.OfType(events.TypeTradeChanged)
	require.Len(t, changes, 2)
	assert.Equal(t, from.ID, changes[0].PlayerID())
	assert.Equal(t, to.ID, changes[1].PlayerID())

	listed, err := h.Trades.ListTrades(context.Background(), to.ID)
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.Equal(t, trade.ID, listed[0].ID)
}

func TestCreateTradeRejections(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	a := h.newPlayer(t, "Оля", "")
	b := h.newPlayer(t, "Петро", "")

	tests := []struct {
		name  string
		from  string
		offer TradeOffer
		want  error
	}{
		{"self", a.ID, TradeOffer{To: a.ID, Offer: core.Resources{core.Gold: 1}, Request: core.Resources{core.Wood: 1}}, core.ErrInvalidInput},
		{"empty offer", a.ID, TradeOffer{To: b.ID, Offer: core.Resources{}, Request: core.Resources{core.Wood: 1}}, core.ErrInvalidInput},
		{"zero request", a.ID, TradeOffer{To: b.ID, Offer: core.Resources{core.Gold: 1}, Request: core.Resources{core.Wood: 0}}, core.ErrInvalidInput},
		{"negative", a.ID, TradeOffer{To: b.ID, Offer: core.Resources{core.Gold: -5}, Request: core.Resources{core.Wood: 1}}, core.ErrInvalidInput},
		{"unknown kind", a.ID, TradeOffer{To: b.ID, Offer: core.Resources{"mana": 5}, Request: core.Resources{core.Wood: 1}}, core.ErrInvalidInput},
		{"unknown receiver", a.ID, TradeOffer{To: "ghost", Offer: core.Resources{core.Gold: 1}, Request: core.Resources{core.Wood: 1}}, core.ErrNotFound},
		{"too poor", a.ID, TradeOffer{To: b.ID, Offer: core.Resources{core.Gold: 301}, Request: core.Resources{core.Wood: 1}}, core.ErrInsufficientResources},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := h.Trades.CreateTrade(ctx, tt.from, tt.offer)
			assert.ErrorIs(t, err, tt.want)
		})
	}
	assert.Equal(t, 300, h.player(t, a.ID).Resources.Get(core.Gold))
}

func TestAcceptTrade(t *testing.T) {
	h, from, to, trade := setupTrade(t)
	ctx := context.Background()

	_, err := h.Trades.AcceptTrade(ctx, trade.ID, from.ID)
	assert.ErrorIs(t, err, core.ErrNotAuthorized)

	accepted, err := h.Trades.AcceptTrade(ctx, trade.ID, to.ID)
	require.NoError(t, err)
	assert.Equal(t, states.TradeAccepted, accepted.Status)
	require.NotNil(t, accepted.ResolvedAt)

	f, r := h.player(t, from.ID), h.player(t, to.ID)
	assert.Equal(t, 200, f.Resources.Get(core.Gold))
	assert.Equal(t, 200, f.Resources.Get(core.Wood))
	assert.Equal(t, 400, r.Resources.Get(core.Gold))
	assert.Equal(t, 100, r.Resources.Get(core.Wood))

	ach := h.mission(t, from.ID, "ach_trader", "")
	assert.Equal(t, 1, ach.Progress)
	ach = h.mission(t, to.ID, "ach_trader", "")
	assert.Equal(t, 1, ach.Progress)

	_, err = h.Trades.AcceptTrade(ctx, trade.ID, to.ID)
	assert.ErrorIs(t, err, core.ErrInvalidState)
	assert.Equal(t, 400, h.player(t, to.ID).Resources.Get(core.Gold))
}

func TestAcceptTradeIsAtomic(t *testing.T) {
	h, from, to, trade := setupTrade(t)
	h.edit(t, to.ID, func(p *game.Player) { p.Resources[core.Wood] = 10 })

	_, err := h.Trades.AcceptTrade(context.Background(), trade.ID, to.ID)
	assert.ErrorIs(t, err, core.ErrInsufficientResources)

	stored, err := h.Trades.ListTrades(context.Background(), from.ID)
	require.NoError(t, err)
	assert.Equal(t, states.TradePending, stored[0].Status)
	assert.Equal(t, 200, h.player(t, from.ID).Resources.Get(core.Gold))
	assert.Equal(t, 150, h.player(t, from.ID).Resources.Get(core.Wood))
	assert.Equal(t, 300, h.player(t, to.ID).Resources.Get(core.Gold))
	assert.Equal(t, 0, h.mission(t, to.ID, "ach_trader", "").Progress)
}

func TestRejectTradeRefundsOnce(t *testing.T) {
	h, from, to, trade := setupTrade(t)
	ctx := context.Background()

	_, err := h.Trades.RejectTrade(ctx, trade.ID, from.ID)
	assert.ErrorIs(t, err, core.ErrNotAuthorized)

	rejected, err := h.Trades.RejectTrade(ctx, trade.ID, to.ID)
	require.NoError(t, err)
	assert.Equal(t, states.TradeRejected, rejected.Status)
	assert.Equal(t, 300, h.player(t, from.ID).Resources.Get(core.Gold))

	_, err = h.Trades.RejectTrade(ctx, trade.ID, to.ID)
	assert.ErrorIs(t, err, core.ErrInvalidState)
	_, err = h.Trades.CancelTrade(ctx, trade.ID, from.ID)
	assert.ErrorIs(t, err, core.ErrInvalidState)
	assert.Equal(t, 300, h.player(t, from.ID).Resources.Get(core.Gold))
}

func TestCancelTrade(t *testing.T) {
	h, from, to, trade := setupTrade(t)
	ctx := context.Background()

	_, err := h.Trades.CancelTrade(ctx, trade.ID, to.ID)
	assert.ErrorIs(t, err, core.ErrNotAuthorized)

	cancelled, err := h.Trades.CancelTrade(ctx, trade.ID, from.ID)
	require.NoError(t, err)
	assert.Equal(t, states.TradeCancelled, cancelled.Status)
	assert.Equal(t, 300, h.player(t, from.ID).Resources.Get(core.Gold))

	_, err = h.Trades.AcceptTrade(ctx, trade.ID, to.ID)
	assert.ErrorIs(t, err, core.ErrInvalidState)

	_, err = h.Trades.CancelTrade(ctx, "missing", from.ID)
	assert.ErrorIs(t, err, core.ErrNotFound)
}
