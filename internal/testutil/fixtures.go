package testutil

import (
	"sync"
	"time"

	"github.com/eduland/eduland-server/internal/game"
	"github.com/eduland/eduland-server/internal/game/catalog"
	"github.com/eduland/eduland-server/internal/game/core"
	"github.com/eduland/eduland-server/internal/game/events"
)

// Epoch is a fixed Wednesday noon used as "now" in tests
var Epoch = time.Date(2025, time.March, 12, 12, 0, 0, 0, time.UTC)

// Catalog returns a fresh copy of the embedded catalog
func Catalog() *catalog.Catalog {
	return catalog.MustDefault()
}

// NewPlayer builds a player with the server at level 1 and no grid, for
// tests that work below the service layer
func NewPlayer(id string, resources core.Resources) *game.Player {
	return &game.Player{
		ID:        id,
		Name:      "Player " + id,
		Hero:      game.Hero{Class: "scientist", Level: 1},
		Resources: resources,
		Buildings: map[string]game.BuildingState{
			"server": {Level: 1},
		},
		Sciences:       map[string]game.ScienceState{},
		Workers:        game.Workers{Total: 3},
		Castle:         game.Castle{Level: 1, Skin: "default"},
		LastCalculated: Epoch,
		LastActive:     Epoch,
		CreatedAt:      Epoch,
	}
}

// RecordingPublisher keeps every published event
type RecordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
}

// Publish implements events.Publisher
func (r *RecordingPublisher) Publish(e events.Event) {
	r.mu.Lock()
	r.events = append(r.events, e)
	r.mu.Unlock()
}

// Events returns the events seen so far
func (r *RecordingPublisher) Events() []events.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]events.Event(nil), r.events...)
}

// Types returns the types of the events seen so far, in order
func (r *RecordingPublisher) Types() []string {
	var out []string
	for _, e := range r.Events() {
		out = append(out, e.Type())
	}
	return out
}

// OfType returns the events of one type
func (r *RecordingPublisher) OfType(eventType string) []events.Event {
	var out []events.Event
	for _, e := range r.Events() {
		if e.Type() == eventType {
			out = append(out, e)
		}
	}
	return out
}

// Reset forgets recorded events
func (r *RecordingPublisher) Reset() {
	r.mu.Lock()
	r.events = nil
	r.mu.Unlock()
}
