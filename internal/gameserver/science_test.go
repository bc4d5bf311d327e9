package gameserver

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eduland/eduland-server/internal/game"
	"github.com/eduland/eduland-server/internal/game/core"
	"github.com/eduland/eduland-server/internal/game/effects"
	"github.com/eduland/eduland-server/internal/game/states"
	"github.com/eduland/eduland-server/internal/testutil"
)

func TestResearchLifecycle(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	p := h.newPlayer(t, "Оля", "")

	p, err := h.Science.StartResearch(ctx, p.ID, "basics_of_code")
	require.NoError(t, err)
	assert.Equal(t, "basics_of_code", p.ActiveResearchID)
	assert.Equal(t, 200, p.Resources.Get(core.Gold))
	state := p.Sciences["basics_of_code"]
	assert.Equal(t, states.ResearchInProgress, state.Status)
	assert.Equal(t, testutil.Epoch.Add(30*time.Minute), state.EndsAt)

	h.clock.Advance(29 * time.Minute)
	_, err = h.Science.CompleteResearch(ctx, p.ID)
	assert.ErrorIs(t, err, core.ErrNotReady)

	h.clock.Advance(time.Minute)
	p, err = h.Science.CompleteResearch(ctx, p.ID)
	require.NoError(t, err)
	assert.Empty(t, p.ActiveResearchID)
	assert.True(t, p.HasCompleted("basics_of_code"))
	require.NotNil(t, p.Sciences["basics_of_code"].CompletedAt)

	bag, err := h.Science.Effects(ctx, p.ID)
	require.NoError(t, err)
	assert.InDelta(t, 0.05, bag.Float(effects.BuildingProduction), 1e-9)

	_, err = h.Science.StartResearch(ctx, p.ID, "basics_of_code")
	assert.ErrorIs(t, err, core.ErrAlreadyResearched)

	_, err = h.Science.CompleteResearch(ctx, p.ID)
	assert.ErrorIs(t, err, core.ErrInvalidState)
}

func TestOneResearchAtATime(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	p := h.newPlayer(t, "Оля", "")

	_, err := h.Science.StartResearch(ctx, p.ID, "botany")
	require.NoError(t, err)

	// the busy slot is reported before anything about the requested science
	for _, id := range []string{"geology", "networks", "no-such-science", "botany"} {
		_, err = h.Science.StartResearch(ctx, p.ID, id)
		assert.ErrorIs(t, err, core.ErrResearchInProgress, id)
	}
}

func TestStartResearchRejections(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	p := h.newPlayer(t, "Оля", "")

	_, err := h.Science.StartResearch(ctx, p.ID, "alchemy")
	assert.ErrorIs(t, err, core.ErrNotFound)

	_, err = h.Science.StartResearch(ctx, p.ID, "algorithms")
	assert.ErrorIs(t, err, core.ErrPrerequisitesMissing)

	done := testutil.Epoch
	h.edit(t, p.ID, func(p *game.Player) {
		p.Sciences["basics_of_code"] = game.ScienceState{Status: states.ResearchCompleted, CompletedAt: &done}
		p.Resources.Add(core.Resources{core.Bits: 500})
	})
	_, err = h.Science.StartResearch(ctx, p.ID, "algorithms")
	assert.ErrorIs(t, err, core.ErrInsufficientResources, "algorithms needs research points")

	h.edit(t, p.ID, func(p *game.Player) { p.ResearchPoints = 5 })
	p, err = h.Science.StartResearch(ctx, p.ID, "algorithms")
	require.NoError(t, err)
	assert.Equal(t, 0, p.ResearchPoints)
	assert.Equal(t, 400, p.Resources.Get(core.Bits))
}

func TestResearchDurationUsesLabAndBonuses(t *testing.T) {
	cat := testutil.Catalog()
	sci, ok := cat.Science("basics_of_code")
	require.True(t, ok)

	assert.Equal(t, 30*time.Minute, ResearchDuration(cat, sci, effects.NewBag(), 0))
	assert.Equal(t, 24*time.Minute, ResearchDuration(cat, sci, effects.NewBag(), 2))

	bag := effects.NewBag()
	require.NoError(t, bag.Apply(effects.ResearchSpeed, 0.1))
	assert.Equal(t, 21*time.Minute, ResearchDuration(cat, sci, bag, 2))

	require.NoError(t, bag.Apply(effects.ResearchSpeed, 5.0))
	assert.Equal(t, 3*time.Minute, ResearchDuration(cat, sci, bag, 0), "speed bonus is capped")
}

func TestCompleteResearchSettlesAtOldRates(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	p := h.newPlayer(t, "Оля", "")

	_, err := h.Science.StartResearch(ctx, p.ID, "basics_of_code")
	require.NoError(t, err)
	h.clock.Advance(10 * time.Hour)

	p, err = h.Science.CompleteResearch(ctx, p.ID)
	require.NoError(t, err)
	// 10h of server level 1 at half rate, without the new 5% bonus
	assert.Equal(t, 40, p.Resources.Get(core.Bits))
}
