package gameserver

import (
	"context"
	"fmt"
	"hash/fnv"
	"math/rand"
	"time"

	"github.com/rs/zerolog"

	"github.com/eduland/eduland-server/internal/game"
	"github.com/eduland/eduland-server/internal/game/catalog"
	"github.com/eduland/eduland-server/internal/game/core"
	"github.com/eduland/eduland-server/internal/game/events"
	"github.com/eduland/eduland-server/internal/game/states"
	"github.com/eduland/eduland-server/internal/store"
)

// MissionService tracks mission progress, rewards and the season track
type MissionService struct {
	*env
	logger zerolog.Logger
}

// Period returns the rotation period of kind containing now and when it
// ends. Story missions and achievements have no period.
func Period(kind catalog.MissionKind, now time.Time) (string, time.Time) {
	now = now.UTC()
	day := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	switch kind {
	case catalog.Daily:
		return day.Format("2006-01-02"), day.AddDate(0, 0, 1)
	case catalog.Weekly:
		year, week := now.ISOWeek()
		untilMonday := (8 - int(day.Weekday())) % 7
		if untilMonday == 0 {
			untilMonday = 7
		}
		return fmt.Sprintf("%d-W%02d", year, week), day.AddDate(0, 0, untilMonday)
	default:
		return "", time.Time{}
	}
}

// pickRotation chooses n templates from pool. The choice depends only on
// seed, so a player sees the same set for the whole period.
func pickRotation(pool []catalog.MissionTemplate, n int, seed string) []catalog.MissionTemplate {
	if n >= len(pool) {
		return pool
	}
	h := fnv.New64a()
	_, _ = h.Write([]byte(seed))
	rng := rand.New(rand.NewSource(int64(h.Sum64() & 0x7fffffffffffffff)))

	picked := append([]catalog.MissionTemplate(nil), pool...)
	rng.Shuffle(len(picked), func(i, j int) { picked[i], picked[j] = picked[j], picked[i] })
	return picked[:n]
}

func newPlayerMission(playerID string, t *catalog.MissionTemplate, period string, now time.Time, expires time.Time) *game.PlayerMission {
	m := &game.PlayerMission{
		ID:         game.MissionDocID(playerID, t.ID, period),
		PlayerID:   playerID,
		MissionID:  t.ID,
		Kind:       t.Kind,
		Title:      t.Title,
		Objective:  t.Objective,
		Target:     t.Goal,
		Status:     states.MissionActive,
		Reward:     t.Reward,
		Period:     period,
		AssignedAt: now,
	}
	m.Reward.Resources = t.Reward.Resources.Clone()
	if !expires.IsZero() {
		m.ExpiresAt = &expires
	}
	return m
}

// assign stores a mission unless the player already has that instance
func (s *MissionService) assign(tx store.Tx, playerID string, t *catalog.MissionTemplate, period string, now, expires time.Time) (*game.PlayerMission, bool, error) {
	id := game.MissionDocID(playerID, t.ID, period)
	if existing, err := tx.Mission(id); err == nil {
		return existing, false, nil
	}
	m := newPlayerMission(playerID, t, period, now, expires)
	if err := tx.PutMission(m); err != nil {
		return nil, false, err
	}
	return m, true, nil
}

// assignInitial gives a new player the story start, every achievement and
// the current rotation
func (s *MissionService) assignInitial(tx store.Tx, playerID string, now time.Time) error {
	cat := s.cat()
	if start := cat.StoryStart(); start != "" {
		t, _ := cat.Mission(start)
		if _, _, err := s.assign(tx, playerID, t, "", now, time.Time{}); err != nil {
			return err
		}
	}
	for _, t := range cat.MissionsOfKind(catalog.Achievement) {
		t := t
		if _, _, err := s.assign(tx, playerID, &t, "", now, time.Time{}); err != nil {
			return err
		}
	}
	_, err := s.rotate(tx, playerID, now)
	return err
}

// rotate drops expired daily and weekly missions and assigns the current
// period's set. It returns the player's missions afterwards.
func (s *MissionService) rotate(tx store.Tx, playerID string, now time.Time) ([]*game.PlayerMission, error) {
	existing, err := tx.MissionsFor(playerID)
	if err != nil {
		return nil, err
	}
	for _, m := range existing {
		if m.Kind.Rotates() && m.Expired(now) {
			if err := tx.DeleteMission(m.ID); err != nil {
				return nil, err
			}
		}
	}

	cat := s.cat()
	cfg := s.cfg()
	for _, rot := range []struct {
		kind  catalog.MissionKind
		count int
	}{
		{catalog.Daily, cfg.DailyMissions},
		{catalog.Weekly, cfg.WeeklyMissions},
	} {
		period, expires := Period(rot.kind, now)
		pool := cat.MissionsOfKind(rot.kind)
		for _, t := range pickRotation(pool, rot.count, playerID+"|"+period) {
			t := t
			if _, _, err := s.assign(tx, playerID, &t, period, now, expires); err != nil {
				return nil, err
			}
		}
	}
	return tx.MissionsFor(playerID)
}

// advance credits report to every active mission of the player that it
// matches. Completed missions are announced through out.
func (s *MissionService) advance(tx store.Tx, out *outbox, playerID string, report catalog.ActionReport, now time.Time) ([]*game.PlayerMission, error) {
	if report.Amount <= 0 {
		report.Amount = 1
	}
	missions, err := tx.MissionsFor(playerID)
	if err != nil {
		return nil, err
	}

	var changed []*game.PlayerMission
	for _, m := range missions {
		if m.Status != states.MissionActive || m.Expired(now) || !m.Objective.Matches(report) {
			continue
		}
		if !m.Advance(report.Amount) {
			continue
		}
		if err := tx.PutMission(m); err != nil {
			return nil, err
		}
		changed = append(changed, m)
		if m.Status == states.MissionCompleted {
			out.add(events.NewMissionChangedEvent(playerID, m.ID, m.Status))
		}
	}
	return changed, nil
}

// ReportAction records a gameplay action against the player's missions and
// returns the missions it advanced
func (s *MissionService) ReportAction(ctx context.Context, playerID string, report catalog.ActionReport) ([]*game.PlayerMission, error) {
	if !knownAction(report.Action) {
		return nil, fmt.Errorf("action %q: %w", report.Action, core.ErrInvalidInput)
	}
	var changed []*game.PlayerMission
	err := s.run(ctx, func(tx store.Tx, out *outbox) error {
		if _, err := tx.Player(playerID); err != nil {
			return err
		}
		var err error
		changed, err = s.advance(tx, out, playerID, report, s.now())
		return err
	})
	if err != nil {
		logRejected(s.logger, "report_action", playerID, err)
		return nil, err
	}
	return changed, nil
}

func knownAction(action string) bool {
	for _, a := range catalog.KnownActions {
		if a == action {
			return true
		}
	}
	return false
}

// ClaimMission pays out a completed mission. Claiming a story mission
// unlocks the next one in the chain.
func (s *MissionService) ClaimMission(ctx context.Context, playerID, missionID string) (*game.PlayerMission, *game.Player, error) {
	var claimed *game.PlayerMission
	p, err := s.updatePlayer(ctx, playerID, func(tx store.Tx, p *game.Player, out *outbox) error {
		m, err := tx.Mission(missionID)
		if err != nil {
			return err
		}
		if m.PlayerID != playerID {
			return fmt.Errorf("mission %s: %w", missionID, core.ErrNotAuthorized)
		}
		switch {
		case m.Status == states.MissionClaimed:
			return core.ErrAlreadyClaimed
		case !m.Status.CanTransitionTo(states.MissionClaimed):
			return fmt.Errorf("mission %s: %w", missionID, core.ErrNotReady)
		}

		now := s.now()
		cat := s.cat()
		p.ApplyReward(m.Reward, &cat.Hero)
		m.Status = states.MissionClaimed
		m.ClaimedAt = &now
		if err := tx.PutMission(m); err != nil {
			return err
		}
		out.add(events.NewMissionChangedEvent(playerID, m.ID, m.Status))

		if m.Kind == catalog.Story {
			if t, ok := cat.Mission(m.MissionID); ok && t.Next != "" {
				next, _ := cat.Mission(t.Next)
				if _, _, err := s.assign(tx, playerID, next, "", now, time.Time{}); err != nil {
					return err
				}
			}
		}
		claimed = m
		return nil
	})
	if err != nil {
		logRejected(s.logger, "claim_mission", playerID, err)
		return nil, nil, err
	}
	s.logger.Debug().Str("player_id", playerID).Str("mission_id", missionID).Msg("Mission claimed")
	return claimed, p, nil
}

// RotateMissions replaces expired daily and weekly missions
func (s *MissionService) RotateMissions(ctx context.Context, playerID string) ([]*game.PlayerMission, error) {
	var missions []*game.PlayerMission
	err := s.run(ctx, func(tx store.Tx, out *outbox) error {
		if _, err := tx.Player(playerID); err != nil {
			return err
		}
		var err error
		missions, err = s.rotate(tx, playerID, s.now())
		return err
	})
	return missions, err
}

// ListMissions returns every mission assigned to the player
func (s *MissionService) ListMissions(ctx context.Context, playerID string) ([]*game.PlayerMission, error) {
	return store.View(ctx, s.store, func(tx store.Tx) ([]*game.PlayerMission, error) {
		if _, err := tx.Player(playerID); err != nil {
			return nil, err
		}
		return tx.MissionsFor(playerID)
	})
}

// ClaimSeasonTier pays out a season tier once its points are reached.
// Progress from an earlier season is reset first.
func (s *MissionService) ClaimSeasonTier(ctx context.Context, playerID string, tier int) (*game.Player, error) {
	p, err := s.updatePlayer(ctx, playerID, func(tx store.Tx, p *game.Player, out *outbox) error {
		cat := s.cat()
		t, ok := cat.Season.Tier(tier)
		if !ok {
			return fmt.Errorf("season tier %d: %w", tier, core.ErrNotFound)
		}
		if p.Season.ID != cat.Season.ID {
			p.Season = game.SeasonProgress{ID: cat.Season.ID}
		}
		if p.Season.HasClaimed(tier) {
			return core.ErrAlreadyClaimed
		}
		if p.Season.Points < t.Points {
			return fmt.Errorf("season tier %d needs %d points: %w", tier, t.Points, core.ErrLocked)
		}
		p.ApplyReward(t.Reward, &cat.Hero)
		p.Season.ClaimedTiers = append(p.Season.ClaimedTiers, tier)
		return nil
	})
	if err != nil {
		logRejected(s.logger, "claim_season_tier", playerID, err)
	}
	return p, err
}
