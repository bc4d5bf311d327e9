package gameserver

import (
	"time"

	"github.com/eduland/eduland-server/internal/config"
	"github.com/eduland/eduland-server/internal/game"
	"github.com/eduland/eduland-server/internal/game/production"
)

// Settings are the tunables the services read on every call. They can be
// swapped at runtime when the config file changes.
type Settings struct {
	Accrual          production.Policy
	DomainMaxHours   float64
	DomainsPerPlayer int
	WorldWidth       int
	WorldHeight      int
	GridWidth        int
	GridHeight       int
	DailyMissions    int
	WeeklyMissions   int
	StartWorkers     int
	IdempotencyTTL   time.Duration
}

// DefaultSettings mirrors the configuration defaults
func DefaultSettings() Settings {
	return Settings{
		Accrual:          production.DefaultPolicy(),
		DomainMaxHours:   24,
		DomainsPerPlayer: 3,
		WorldWidth:       20,
		WorldHeight:      20,
		GridWidth:        6,
		GridHeight:       6,
		DailyMissions:    3,
		WeeklyMissions:   2,
		StartWorkers:     3,
		IdempotencyTTL:   24 * time.Hour,
	}
}

// SettingsFromConfig reads the current global configuration
func SettingsFromConfig() Settings {
	worldW, worldH := game.WorldSize()
	gridW, gridH := game.GridSize()
	return Settings{
		Accrual: production.Policy{
			MaxHours: game.AccrualMaxHours(),
			MinHours: game.AccrualMinHours(),
		},
		DomainMaxHours:   game.DomainMaxAccrualHours(),
		DomainsPerPlayer: game.DomainsPerPlayer(),
		WorldWidth:       worldW,
		WorldHeight:      worldH,
		GridWidth:        gridW,
		GridHeight:       gridH,
		DailyMissions:    game.DailyMissionCount(),
		WeeklyMissions:   game.WeeklyMissionCount(),
		StartWorkers:     game.StartWorkers(),
		IdempotencyTTL:   config.Get().Server.IdempotencyTTL,
	}
}

// Clock supplies the current time
type Clock interface {
	Now() time.Time
}

// SystemClock is the wall clock in UTC
type SystemClock struct{}

// Now implements Clock
func (SystemClock) Now() time.Time { return time.Now().UTC() }
