package gameserver

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eduland/eduland-server/internal/common"
	"github.com/eduland/eduland-server/internal/game"
	"github.com/eduland/eduland-server/internal/game/core"
	"github.com/eduland/eduland-server/internal/game/production"
)

func TestClaimAndCollectDomain(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	owner := h.newPlayer(t, "Оля", "")
	other := h.newPlayer(t, "Петро", "")

	d, p, err := h.Domains.ClaimDomain(ctx, owner.ID, 3, 4)
	require.NoError(t, err)
	assert.Equal(t, "3_4", d.ID)
	assert.Equal(t, owner.ID, d.OwnerID)
	assert.Equal(t, 200, p.Resources.Get(core.Gold))
	assert.Equal(t, 100, p.Resources.Get(core.Wood))

	kind, rate := production.DomainTraits(core.NewCoordinate(3, 4), &h.Catalog().Domains)
	assert.Equal(t, kind, d.Resource)
	assert.Equal(t, rate, d.RatePerHour)

	_, _, err = h.Domains.ClaimDomain(ctx, other.ID, 3, 4)
	assert.ErrorIs(t, err, core.ErrDomainOwned)

	_, _, _, err = h.Domains.CollectDomain(ctx, owner.ID, 3, 4)
	assert.ErrorIs(t, err, core.ErrNotReady)

	_, _, _, err = h.Domains.CollectDomain(ctx, other.ID, 3, 4)
	assert.ErrorIs(t, err, core.ErrNotAuthorized)

	// two days away still pays only the capped 24 hours
	h.clock.Advance(48 * time.Hour)
	before := h.player(t, owner.ID).Resources.Get(d.Resource)
	d, p, amount, err := h.Domains.CollectDomain(ctx, owner.ID, 3, 4)
	require.NoError(t, err)
	assert.Equal(t, common.FloorInt(24*rate+1e-9), amount)
	assert.Equal(t, before+amount, p.Resources.Get(d.Resource))
	assert.Equal(t, h.clock.Now(), d.LastCollected)
}

func TestClaimDomainLimits(t *testing.T) {
	settings := DefaultSettings()
	settings.DomainsPerPlayer = 1
	h := newHarnessWith(t, settings)
	ctx := context.Background()
	p := h.newPlayer(t, "Оля", "")
	h.grant(t, p.ID, core.Resources{core.Gold: 1000, core.Wood: 1000})

	_, _, err := h.Domains.ClaimDomain(ctx, p.ID, 20, 0)
	assert.ErrorIs(t, err, core.ErrInvalidInput)
	_, _, err = h.Domains.ClaimDomain(ctx, p.ID, -1, 0)
	assert.ErrorIs(t, err, core.ErrInvalidInput)

	_, _, err = h.Domains.ClaimDomain(ctx, p.ID, 0, 0)
	require.NoError(t, err)
	_, _, err = h.Domains.ClaimDomain(ctx, p.ID, 1, 0)
	assert.ErrorIs(t, err, core.ErrDomainLimit)

	poor := h.newPlayer(t, "Петро", "")
	h.edit(t, poor.ID, func(p *game.Player) { p.Resources = core.Resources{} })
	_, _, err = h.Domains.ClaimDomain(ctx, poor.ID, 5, 5)
	assert.ErrorIs(t, err, core.ErrInsufficientResources)
}

func TestAbandonDomain(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	p := h.newPlayer(t, "Оля", "")
	other := h.newPlayer(t, "Петро", "")

	d, _, err := h.Domains.ClaimDomain(ctx, p.ID, 2, 2)
	require.NoError(t, err)

	_, _, err = h.Domains.AbandonDomain(ctx, other.ID, 2, 2)
	assert.ErrorIs(t, err, core.ErrNotAuthorized)

	h.clock.Advance(time.Hour)
	before := h.player(t, p.ID).Resources.Get(d.Resource)
	after, amount, err := h.Domains.AbandonDomain(ctx, p.ID, 2, 2)
	require.NoError(t, err)
	assert.Equal(t, common.FloorInt(d.RatePerHour+1e-9), amount)
	assert.Equal(t, before+amount, after.Resources.Get(d.Resource))

	owned, err := h.Domains.ListDomains(ctx, p.ID)
	require.NoError(t, err)
	assert.Empty(t, owned)

	view, err := h.Domains.Inspect(ctx, 2, 2)
	require.NoError(t, err)
	assert.Empty(t, view.OwnerID)
	assert.Equal(t, d.Resource, view.Resource)

	_, _, err = h.Domains.AbandonDomain(ctx, p.ID, 2, 2)
	assert.ErrorIs(t, err, core.ErrNotFound)

	// the tile is free again
	_, _, err = h.Domains.ClaimDomain(ctx, other.ID, 2, 2)
	assert.NoError(t, err)
}

func TestInspectAndListDomains(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	a := h.newPlayer(t, "Оля", "")
	b := h.newPlayer(t, "Петро", "")

	_, _, err := h.Domains.ClaimDomain(ctx, a.ID, 1, 1)
	require.NoError(t, err)
	_, _, err = h.Domains.ClaimDomain(ctx, b.ID, 1, 2)
	require.NoError(t, err)

	all, err := h.Domains.ListDomains(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 2)

	mine, err := h.Domains.ListDomains(ctx, a.ID)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, "1_1", mine[0].ID)

	h.clock.Advance(2 * time.Hour)
	view, err := h.Domains.Inspect(ctx, 1, 1)
	require.NoError(t, err)
	assert.Equal(t, a.ID, view.OwnerID)
	assert.Equal(t, common.FloorInt(2*mine[0].RatePerHour+1e-9), view.Pending)

	_, err = h.Domains.Inspect(ctx, 100, 1)
	assert.ErrorIs(t, err, core.ErrInvalidInput)
}
