package memory

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eduland/eduland-server/internal/game"
	"github.com/eduland/eduland-server/internal/game/core"
	"github.com/eduland/eduland-server/internal/game/states"
	"github.com/eduland/eduland-server/internal/store"
)

var t0 = time.Date(2026, 9, 1, 9, 0, 0, 0, time.UTC)

func newPlayer(id, group string) *game.Player {
	p := &game.Player{
		ID:        id,
		Name:      "player " + id,
		Group:     group,
		Resources: core.Resources{core.Gold: 100},
		Buildings: map[string]game.BuildingState{"server": {Level: 1}},
		Grid:      core.NewGrid(2, 2),
		CreatedAt: t0,
	}
	p.Grid.Cells[1].Deposit = core.Crystals
	return p
}

func TestCommitAndRollback(t *testing.T) {
	ctx := context.Background()
	s := NewEphemeral()

	require.NoError(t, s.RunInTransaction(ctx, func(tx store.Tx) error {
		return tx.PutPlayer(newPlayer("p1", "7-A"))
	}))

	boom := errors.New("boom")
	err := s.RunInTransaction(ctx, func(tx store.Tx) error {
		p, err := tx.Player("p1")
		require.NoError(t, err)
		p.Resources[core.Gold] = 0
		require.NoError(t, tx.PutPlayer(p))
		require.NoError(t, tx.PutPlayer(newPlayer("p2", "7-A")))
		return boom
	})
	assert.ErrorIs(t, err, boom)

	p, err := store.View(ctx, store.Store(s), func(tx store.Tx) (*game.Player, error) {
		return tx.Player("p1")
	})
	require.NoError(t, err)
	assert.Equal(t, 100, p.Resources.Get(core.Gold))
	assert.Equal(t, int64(1), p.Version)

	err = s.RunInTransaction(ctx, func(tx store.Tx) error {
		_, err := tx.Player("p2")
		return err
	})
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestReadsAreCopies(t *testing.T) {
	ctx := context.Background()
	s := NewEphemeral()
	p := newPlayer("p1", "")
	require.NoError(t, s.RunInTransaction(ctx, func(tx store.Tx) error { return tx.PutPlayer(p) }))

	// mutating the caller's object after commit must not leak in
	p.Resources[core.Gold] = 1

	require.NoError(t, s.RunInTransaction(ctx, func(tx store.Tx) error {
		got, err := tx.Player("p1")
		require.NoError(t, err)
		assert.Equal(t, 100, got.Resources.Get(core.Gold))
		got.Resources[core.Gold] = 5

		again, err := tx.Player("p1")
		require.NoError(t, err)
		assert.Equal(t, 100, again.Resources.Get(core.Gold))
		return nil
	}))
}

func TestTransactionSeesOwnWrites(t *testing.T) {
	ctx := context.Background()
	s := NewEphemeral()

	require.NoError(t, s.RunInTransaction(ctx, func(tx store.Tx) error {
		require.NoError(t, tx.PutDomain(&game.OuterDomain{ID: "1_1", OwnerID: "p1"}))
		require.NoError(t, tx.PutDomain(&game.OuterDomain{ID: "2_2", OwnerID: "p2"}))

		mine, err := tx.Domains("p1")
		require.NoError(t, err)
		require.Len(t, mine, 1)

		require.NoError(t, tx.DeleteDomain("1_1"))
		mine, err = tx.Domains("p1")
		require.NoError(t, err)
		assert.Empty(t, mine)

		all, err := tx.Domains("")
		require.NoError(t, err)
		assert.Len(t, all, 1)
		return nil
	}))

	err := s.RunInTransaction(ctx, func(tx store.Tx) error { return tx.DeleteDomain("1_1") })
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestListOrdering(t *testing.T) {
	ctx := context.Background()
	s := NewEphemeral()

	require.NoError(t, s.RunInTransaction(ctx, func(tx store.Tx) error {
		for i, id := range []string{"m1", "m2", "m3"} {
			require.NoError(t, tx.PutMessage(&game.Message{
				ID: id, From: "teacher", To: "p1", CreatedAt: t0.Add(time.Duration(i) * time.Minute),
			}))
		}
		require.NoError(t, tx.PutMessage(&game.Message{ID: "m4", From: "p1", To: "p2", CreatedAt: t0}))
		require.NoError(t, tx.PutPlayer(&game.Player{ID: "b", Name: "Bohdan", Group: "7-A"}))
		require.NoError(t, tx.PutPlayer(&game.Player{ID: "a", Name: "Anna", Group: "7-A"}))
		return tx.PutPlayer(&game.Player{ID: "c", Name: "Cyril", Group: "8-B"})
	}))

	require.NoError(t, s.RunInTransaction(ctx, func(tx store.Tx) error {
		inbox, err := tx.Inbox("p1")
		require.NoError(t, err)
		require.Len(t, inbox, 3)
		assert.Equal(t, "m3", inbox[0].ID)
		assert.Equal(t, "m1", inbox[2].ID)

		players, err := tx.Players("7-A")
		require.NoError(t, err)
		require.Len(t, players, 2)
		assert.Equal(t, "Anna", players[0].Name)

		all, err := tx.Players("")
		require.NoError(t, err)
		assert.Len(t, all, 3)
		return nil
	}))
}

func TestTransactionsAreSerialized(t *testing.T) {
	ctx := context.Background()
	s := NewEphemeral()
	require.NoError(t, s.RunInTransaction(ctx, func(tx store.Tx) error {
		return tx.PutPlayer(&game.Player{ID: "p1", Resources: core.Resources{}})
	}))

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = s.RunInTransaction(ctx, func(tx store.Tx) error {
				p, err := tx.Player("p1")
				if err != nil {
					return err
				}
				p.Resources.Add(core.Resources{core.Bits: 1})
				return tx.PutPlayer(p)
			})
		}()
	}
	wg.Wait()

	p, err := store.View(ctx, store.Store(s), func(tx store.Tx) (*game.Player, error) { return tx.Player("p1") })
	require.NoError(t, err)
	assert.Equal(t, 50, p.Resources.Get(core.Bits))
	assert.Equal(t, int64(51), p.Version)
}

func TestCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	called := false
	err := NewEphemeral().RunInTransaction(ctx, func(store.Tx) error {
		called = true
		return nil
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, called)
}

func TestSnapshotRoundTrip(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "eduland.bson")

	s, err := New(Options{SnapshotFile: path, Logger: zerolog.Nop()})
	require.NoError(t, err)
	require.NoError(t, s.RunInTransaction(ctx, func(tx store.Tx) error {
		require.NoError(t, tx.PutPlayer(newPlayer("p1", "7-A")))
		return tx.PutTrade(&game.Trade{
			ID: "t1", FromPlayer: "p1", ToPlayer: "p2",
			Offer: core.Resources{core.Gold: 50}, Request: core.Resources{core.Bits: 20},
			Status: states.TradePending, CreatedAt: t0,
		})
	}))
	require.NoError(t, s.Close(ctx))

	restored, err := New(Options{SnapshotFile: path, Logger: zerolog.Nop()})
	require.NoError(t, err)
	require.NoError(t, restored.RunInTransaction(ctx, func(tx store.Tx) error {
		p, err := tx.Player("p1")
		require.NoError(t, err)
		assert.Equal(t, "7-A", p.Group)
		assert.Equal(t, 100, p.Resources.Get(core.Gold))
		assert.Equal(t, core.Crystals, p.Grid.Cells[1].Deposit, "hidden deposits survive a restart")
		assert.True(t, p.CreatedAt.Equal(t0))

		tr, err := tx.Trade("t1")
		require.NoError(t, err)
		assert.Equal(t, states.TradePending, tr.Status)
		assert.Equal(t, 20, tr.Request.Get(core.Bits))
		return nil
	}))
}

func TestMissingSnapshotStartsEmpty(t *testing.T) {
	s, err := New(Options{SnapshotFile: filepath.Join(t.TempDir(), "none.bson"), Logger: zerolog.Nop()})
	require.NoError(t, err)
	players, err := store.View(context.Background(), store.Store(s), func(tx store.Tx) ([]*game.Player, error) {
		return tx.Players("")
	})
	require.NoError(t, err)
	assert.Empty(t, players)
}
