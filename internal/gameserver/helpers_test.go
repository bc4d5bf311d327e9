package gameserver

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/eduland/eduland-server/internal/game"
	"github.com/eduland/eduland-server/internal/game/core"
	"github.com/eduland/eduland-server/internal/store"
	"github.com/eduland/eduland-server/internal/store/memory"
	"github.com/eduland/eduland-server/internal/testutil"
)

type harness struct {
	*Server
	clock  *testutil.FakeClock
	events *testutil.RecordingPublisher
	store  store.Store
}

func newHarness(t *testing.T) *harness {
	return newHarnessWith(t, DefaultSettings())
}

func newHarnessWith(t *testing.T, settings Settings) *harness {
	t.Helper()
	clock := testutil.NewFakeClock(testutil.Epoch)
	pub := &testutil.RecordingPublisher{}
	st := memory.NewEphemeral()
	srv := NewServer(Deps{
		Store:    st,
		Catalog:  testutil.Catalog(),
		Bus:      pub,
		Clock:    clock,
		Settings: settings,
		Logger:   testutil.NopLogger(),
	})
	return &harness{Server: srv, clock: clock, events: pub, store: st}
}

func (h *harness) newPlayer(t *testing.T, name, group string) *game.Player {
	t.Helper()
	p, err := h.City.CreatePlayer(context.Background(), NewPlayer{Name: name, Group: group, HeroClass: "scientist"})
	require.NoError(t, err)
	return p
}

// edit changes a stored player directly, bypassing game rules
func (h *harness) edit(t *testing.T, playerID string, fn func(p *game.Player)) {
	t.Helper()
	err := h.store.RunInTransaction(context.Background(), func(tx store.Tx) error {
		p, err := tx.Player(playerID)
		if err != nil {
			return err
		}
		fn(p)
		return tx.PutPlayer(p)
	})
	require.NoError(t, err)
}

func (h *harness) grant(t *testing.T, playerID string, r core.Resources) {
	h.edit(t, playerID, func(p *game.Player) { p.Resources.Add(r) })
}

func (h *harness) player(t *testing.T, playerID string) *game.Player {
	t.Helper()
	p, err := h.City.GetPlayer(context.Background(), playerID)
	require.NoError(t, err)
	return p
}

func (h *harness) mission(t *testing.T, playerID, missionID, period string) *game.PlayerMission {
	t.Helper()
	m, err := store.View(context.Background(), h.store, func(tx store.Tx) (*game.PlayerMission, error) {
		return tx.Mission(game.MissionDocID(playerID, missionID, period))
	})
	require.NoError(t, err)
	return m
}
