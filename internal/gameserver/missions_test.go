package gameserver

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/eduland/eduland-server/internal/game"
	"github.com/eduland/eduland-server/internal/game/catalog"
	"github.com/eduland/eduland-server/internal/game/core"
	"github.com/eduland/eduland-server/internal/game/states"
	"github.com/eduland/eduland-server/internal/store"
)

func TestPeriod(t *testing.T) {
	tests := []struct {
		name    string
		kind    catalog.MissionKind
		now     time.Time
		period  string
		expires time.Time
	}{
		{"daily", catalog.Daily, time.Date(2025, 3, 12, 23, 59, 0, 0, time.UTC), "2025-03-12", time.Date(2025, 3, 13, 0, 0, 0, 0, time.UTC)},
		{"weekly midweek", catalog.Weekly, time.Date(2025, 3, 12, 12, 0, 0, 0, time.UTC), "2025-W11", time.Date(2025, 3, 17, 0, 0, 0, 0, time.UTC)},
		{"weekly sunday", catalog.Weekly, time.Date(2025, 3, 16, 22, 0, 0, 0, time.UTC), "2025-W11", time.Date(2025, 3, 17, 0, 0, 0, 0, time.UTC)},
		{"weekly monday", catalog.Weekly, time.Date(2025, 3, 17, 0, 0, 0, 0, time.UTC), "2025-W12", time.Date(2025, 3, 24, 0, 0, 0, 0, time.UTC)},
		{"iso year boundary", catalog.Weekly, time.Date(2024, 12, 30, 8, 0, 0, 0, time.UTC), "2025-W01", time.Date(2025, 1, 6, 0, 0, 0, 0, time.UTC)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			period, expires := Period(tt.kind, tt.now)
			assert.Equal(t, tt.period, period)
			assert.Equal(t, tt.expires, expires)
		})
	}

	period, expires := Period(catalog.Story, time.Now())
	assert.Empty(t, period)
	assert.True(t, expires.IsZero())
}

func TestPickRotationIsDeterministic(t *testing.T) {
	pool := testCatalogMissions(t, catalog.Daily)
	a := pickRotation(pool, 3, "p1|2025-03-12")
	b := pickRotation(pool, 3, "p1|2025-03-12")
	assert.Equal(t, a, b)
	assert.Len(t, a, 3)

	seen := map[string]bool{}
	for _, m := range a {
		assert.False(t, seen[m.ID], "duplicate %s", m.ID)
		seen[m.ID] = true
	}
	assert.Len(t, pickRotation(pool, 10, "x"), len(pool))
}

func testCatalogMissions(t *testing.T, kind catalog.MissionKind) []catalog.MissionTemplate {
	t.Helper()
	pool := newHarness(t).Catalog().MissionsOfKind(kind)
	require.NotEmpty(t, pool)
	return pool
}

func TestReportActionClampsProgress(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	p := h.newPlayer(t, "Оля", "")

	changed, err := h.Missions.ReportAction(ctx, p.ID, catalog.ActionReport{Action: catalog.ActionResearchComplete, Amount: 3})
	require.NoError(t, err)
	require.NotEmpty(t, changed)

	scholar := h.mission(t, p.ID, "ach_scholar", "")
	assert.Equal(t, 3, scholar.Progress)
	assert.Equal(t, states.MissionActive, scholar.Status)

	_, err = h.Missions.ReportAction(ctx, p.ID, catalog.ActionReport{Action: catalog.ActionResearchComplete, Amount: 100})
	require.NoError(t, err)
	scholar = h.mission(t, p.ID, "ach_scholar", "")
	assert.Equal(t, 5, scholar.Progress)
	assert.Equal(t, states.MissionCompleted, scholar.Status)

	_, err = h.Missions.ReportAction(ctx, p.ID, catalog.ActionReport{Action: "dance"})
	assert.ErrorIs(t, err, core.ErrInvalidInput)
	_, err = h.Missions.ReportAction(ctx, "ghost", catalog.ActionReport{Action: catalog.ActionCollectMine})
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestObjectiveFilters(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	p := h.newPlayer(t, "Оля", "")
	require.NoError(t, h.store.RunInTransaction(ctx, func(tx store.Tx) error {
		for _, id := range []string{"story_server_upgrade", "story_tier2_mine"} {
			tpl, _ := h.Catalog().Mission(id)
			if _, _, err := h.Missions.assign(tx, p.ID, tpl, "", h.clock.Now(), time.Time{}); err != nil {
				return err
			}
		}
		return nil
	}))

	report := func(r catalog.ActionReport) {
		_, err := h.Missions.ReportAction(ctx, p.ID, r)
		require.NoError(t, err)
	}
	report(catalog.ActionReport{Action: catalog.ActionUpgradeBuilding, Target: "sawmill", TargetLevel: 3})
	report(catalog.ActionReport{Action: catalog.ActionUpgradeBuilding, Target: "server", TargetLevel: 1})
	report(catalog.ActionReport{Action: catalog.ActionUpgradeMine, Tier: 3})
	assert.Equal(t, 0, h.mission(t, p.ID, "story_server_upgrade", "").Progress)
	assert.Equal(t, 0, h.mission(t, p.ID, "story_tier2_mine", "").Progress)

	// targetLevel is a minimum, tier must match exactly
	report(catalog.ActionReport{Action: catalog.ActionUpgradeBuilding, Target: "server", TargetLevel: 3})
	report(catalog.ActionReport{Action: catalog.ActionUpgradeMine, Tier: 2})
	assert.Equal(t, states.MissionCompleted, h.mission(t, p.ID, "story_server_upgrade", "").Status)
	assert.Equal(t, states.MissionCompleted, h.mission(t, p.ID, "story_tier2_mine", "").Status)
}

func TestReportActionAdvancesEveryMatchingMission(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	p := h.newPlayer(t, "Оля", "")

	now := h.clock.Now()
	daily, dailyExpires := Period(catalog.Daily, now)
	weekly, weeklyExpires := Period(catalog.Weekly, now)
	require.NoError(t, h.store.RunInTransaction(ctx, func(tx store.Tx) error {
		dailyTask, _ := h.Catalog().Mission("daily_task")
		if _, _, err := h.Missions.assign(tx, p.ID, dailyTask, daily, now, dailyExpires); err != nil {
			return err
		}
		weeklyTasks, _ := h.Catalog().Mission("weekly_tasks")
		_, _, err := h.Missions.assign(tx, p.ID, weeklyTasks, weekly, now, weeklyExpires)
		return err
	}))

	changed, err := h.Missions.ReportAction(ctx, p.ID, catalog.ActionReport{Action: catalog.ActionTaskApproved})
	require.NoError(t, err)

	ids := make([]string, 0, len(changed))
	for _, m := range changed {
		ids = append(ids, m.ID)
	}
	assert.Contains(t, ids, game.MissionDocID(p.ID, "daily_task", daily))
	assert.Contains(t, ids, game.MissionDocID(p.ID, "weekly_tasks", weekly))

	dailyTask := h.mission(t, p.ID, "daily_task", daily)
	assert.Equal(t, 1, dailyTask.Progress)
	assert.Equal(t, states.MissionCompleted, dailyTask.Status)
	weeklyTasks := h.mission(t, p.ID, "weekly_tasks", weekly)
	assert.Equal(t, 1, weeklyTasks.Progress)
	assert.Equal(t, states.MissionActive, weeklyTasks.Status)
}

func TestClaimMissionAdvancesStory(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	p := h.newPlayer(t, "Оля", "")
	storyID := game.MissionDocID(p.ID, "story_first_steps", "")

	_, _, err := h.Missions.ClaimMission(ctx, p.ID, storyID)
	assert.ErrorIs(t, err, core.ErrNotReady)

	h.clock.Advance(time.Hour)
	_, _, err = h.City.CollectProduction(ctx, p.ID)
	require.NoError(t, err)

	m, player, err := h.Missions.ClaimMission(ctx, p.ID, storyID)
	require.NoError(t, err)
	assert.Equal(t, states.MissionClaimed, m.Status)
	require.NotNil(t, m.ClaimedAt)
	assert.Equal(t, 20, player.Hero.XP)

	gold := player.Resources.Get(core.Gold)
	next := h.mission(t, p.ID, "story_server_upgrade", "")
	assert.Equal(t, states.MissionActive, next.Status)

	_, _, err = h.Missions.ClaimMission(ctx, p.ID, storyID)
	assert.ErrorIs(t, err, core.ErrAlreadyClaimed)
	assert.Equal(t, gold, h.player(t, p.ID).Resources.Get(core.Gold))

	other := h.newPlayer(t, "Петро", "")
	_, _, err = h.Missions.ClaimMission(ctx, other.ID, storyID)
	assert.ErrorIs(t, err, core.ErrNotAuthorized)
}

func TestRotateMissions(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	p := h.newPlayer(t, "Оля", "")
	firstDay, _ := Period(catalog.Daily, h.clock.Now())

	h.clock.Advance(8 * 24 * time.Hour)
	missions, err := h.Missions.RotateMissions(ctx, p.ID)
	require.NoError(t, err)

	today, _ := Period(catalog.Daily, h.clock.Now())
	week, _ := Period(catalog.Weekly, h.clock.Now())
	daily, weekly := 0, 0
	for _, m := range missions {
		switch m.Kind {
		case catalog.Daily:
			daily++
			assert.Equal(t, today, m.Period)
			assert.NotEqual(t, firstDay, m.Period)
		case catalog.Weekly:
			weekly++
			assert.Equal(t, week, m.Period)
		}
	}
	assert.Equal(t, 3, daily)
	assert.Equal(t, 2, weekly)
	assert.Len(t, missions, 1+3+3+2)

	again, err := h.Missions.RotateMissions(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, missions, again)
}

func TestExpiredMissionDoesNotAdvance(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	p := h.newPlayer(t, "Оля", "")

	h.clock.Advance(48 * time.Hour)
	changed, err := h.Missions.ReportAction(ctx, p.ID, catalog.ActionReport{Action: catalog.ActionCollectProduction})
	require.NoError(t, err)
	for _, m := range changed {
		assert.False(t, m.Kind.Rotates(), "%s is expired", m.ID)
	}
}

func TestClaimSeasonTier(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	p := h.newPlayer(t, "Оля", "")

	_, err := h.Missions.ClaimSeasonTier(ctx, p.ID, 1)
	assert.ErrorIs(t, err, core.ErrLocked)
	_, err = h.Missions.ClaimSeasonTier(ctx, p.ID, 99)
	assert.ErrorIs(t, err, core.ErrNotFound)

	h.edit(t, p.ID, func(p *game.Player) { p.Season.Points = 60 })
	p, err = h.Missions.ClaimSeasonTier(ctx, p.ID, 1)
	require.NoError(t, err)
	assert.Equal(t, 500, p.Resources.Get(core.Gold))
	assert.Equal(t, []int{1}, p.Season.ClaimedTiers)

	_, err = h.Missions.ClaimSeasonTier(ctx, p.ID, 1)
	assert.ErrorIs(t, err, core.ErrAlreadyClaimed)
	_, err = h.Missions.ClaimSeasonTier(ctx, p.ID, 2)
	assert.ErrorIs(t, err, core.ErrLocked)

	// a new season starts from zero
	h.edit(t, p.ID, func(p *game.Player) { p.Season.ID = "season-0" })
	_, err = h.Missions.ClaimSeasonTier(ctx, p.ID, 1)
	assert.ErrorIs(t, err, core.ErrLocked)
}

func TestMissionProgressNeverExceedsTarget(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		target := rapid.IntRange(1, 50).Draw(t, "target")
		m := &game.PlayerMission{Target: target, Status: states.MissionActive}
		amounts := rapid.SliceOf(rapid.IntRange(-5, 20)).Draw(t, "amounts")
		for _, a := range amounts {
			m.Advance(a)
			if m.Progress > m.Target || m.Progress < 0 {
				t.Fatalf("progress %d outside [0,%d]", m.Progress, m.Target)
			}
			if (m.Status == states.MissionCompleted) != (m.Progress == m.Target) {
				t.Fatalf("status %s with progress %d/%d", m.Status, m.Progress, m.Target)
			}
		}
	})
}
