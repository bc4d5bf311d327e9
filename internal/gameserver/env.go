package gameserver

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/eduland/eduland-server/internal/game"
	"github.com/eduland/eduland-server/internal/game/catalog"
	"github.com/eduland/eduland-server/internal/game/effects"
	"github.com/eduland/eduland-server/internal/game/events"
	"github.com/eduland/eduland-server/internal/game/production"
	"github.com/eduland/eduland-server/internal/store"
)

// env is shared by every service
type env struct {
	store      store.Store
	bus        events.Publisher
	clock      Clock
	production *production.Manager
	catalog    atomic.Pointer[catalog.Catalog]
	settings   atomic.Pointer[Settings]
}

func (e *env) cat() *catalog.Catalog { return e.catalog.Load() }
func (e *env) cfg() Settings         { return *e.settings.Load() }
func (e *env) now() time.Time        { return e.clock.Now() }

func (e *env) effects(p *game.Player) *effects.Bag {
	return e.cat().EffectsFor(p.CompletedSciences(), p.Castle.Level)
}

// outbox collects what a transaction wants to announce. It is published
// only after commit and rebuilt on every attempt.
type outbox struct {
	events  []events.Event
	players map[string]*game.Player
	order   []string
}

func newOutbox() *outbox {
	return &outbox{players: make(map[string]*game.Player)}
}

func (o *outbox) add(e events.Event) {
	o.events = append(o.events, e)
}

// Publish lets an outbox stand in for the bus inside a transaction
func (o *outbox) Publish(e events.Event) {
	o.add(e)
}

// touch records p as changed; the last version seen wins
func (o *outbox) touch(p *game.Player) {
	if _, seen := o.players[p.ID]; !seen {
		o.order = append(o.order, p.ID)
	}
	o.players[p.ID] = p
}

func (o *outbox) flush(pub events.Publisher) {
	for _, e := range o.events {
		pub.Publish(e)
	}
	for _, id := range o.order {
		pub.Publish(events.NewPlayerUpdatedEvent(o.players[id]))
	}
}

// run executes fn in one transaction and publishes its outbox on success
func (e *env) run(ctx context.Context, fn func(tx store.Tx, out *outbox) error) error {
	var out *outbox
	err := e.store.RunInTransaction(ctx, func(tx store.Tx) error {
		out = newOutbox()
		return fn(tx, out)
	})
	if err != nil {
		return err
	}
	out.flush(e.bus)
	return nil
}

// savePlayer writes p and queues its snapshot
func savePlayer(tx store.Tx, out *outbox, p *game.Player) error {
	if err := tx.PutPlayer(p); err != nil {
		return err
	}
	out.touch(p)
	return nil
}

// updatePlayer loads a player, lets fn change it and writes it back
func (e *env) updatePlayer(ctx context.Context, playerID string, fn func(tx store.Tx, p *game.Player, out *outbox) error) (*game.Player, error) {
	var result *game.Player
	err := e.run(ctx, func(tx store.Tx, out *outbox) error {
		p, err := tx.Player(playerID)
		if err != nil {
			return err
		}
		if err := fn(tx, p, out); err != nil {
			return err
		}
		if err := savePlayer(tx, out, p); err != nil {
			return err
		}
		result = p
		return nil
	})
	return result, err
}

// settle credits offline production before anything that changes rates
func (e *env) settle(p *game.Player, bag *effects.Bag, now time.Time, out *outbox) production.Accrual {
	acc := e.production.Collect(p, bag, now)
	e.production.PublishCollected(out, p.ID, acc)
	return acc
}

func logRejected(logger zerolog.Logger, op, playerID string, err error) {
	logger.Debug().Err(err).Str("op", op).Str("player_id", playerID).Msg("Operation rejected")
}
