package subscribers

import (
	"encoding/json"

	"github.com/rs/zerolog"

	"github.com/eduland/eduland-server/internal/game/events"
)

// LoggerSubscriber logs events to structured logs
type LoggerSubscriber struct {
	id              string
	logger          zerolog.Logger
	logLevel        zerolog.Level
	eventTypeFilter map[string]bool // If non-nil, only log these event types
	devMode         bool            // If true, log full event details
}

// NewLoggerSubscriber creates a new logger subscriber
func NewLoggerSubscriber(id string, logger zerolog.Logger, logLevel zerolog.Level) *LoggerSubscriber {
	return &LoggerSubscriber{
		id:       id,
		logger:   logger.With().Str("subscriber", "event_logger").Logger(),
		logLevel: logLevel,
	}
}

// ID returns the subscriber's unique identifier
func (ls *LoggerSubscriber) ID() string {
	return ls.id
}

// SetEventFilter sets which event types to log (nil means log all)
func (ls *LoggerSubscriber) SetEventFilter(eventTypes []string) {
	if len(eventTypes) == 0 {
		ls.eventTypeFilter = nil
		return
	}

	ls.eventTypeFilter = make(map[string]bool, len(eventTypes))
	for _, eventType := range eventTypes {
		ls.eventTypeFilter[eventType] = true
	}
}

// SetDevMode enables or disables development mode logging
func (ls *LoggerSubscriber) SetDevMode(enabled bool) {
	ls.devMode = enabled
}

// InterestedIn returns true if the subscriber wants to receive this event type.
// Player snapshots are for push only and never logged.
func (ls *LoggerSubscriber) InterestedIn(eventType string) bool {
	if eventType == events.TypePlayerUpdated {
		return false
	}
	if ls.eventTypeFilter == nil {
		return true
	}
	return ls.eventTypeFilter[eventType]
}

// HandleEvent processes an event by logging it
func (ls *LoggerSubscriber) HandleEvent(event events.Event) {
	logEvent := ls.logger.WithLevel(ls.level()).
		Str("event_type", event.Type()).
		Str("player_id", event.PlayerID()).
		Time("timestamp", event.Timestamp())

	switch e := event.(type) {
	case *events.PlayerCreatedEvent:
		logEvent.Str("name", e.Name).Str("group", e.Group)

	case *events.ProductionCollectedEvent:
		logEvent.
			Stringer("produced", e.Produced).
			Float64("elapsed_hours", e.ElapsedHours)

	case *events.BuildingEvent:
		logEvent.Str("building_id", e.BuildingID).Int("building_level", e.Level)

	case *events.ResearchEvent:
		logEvent.Str("science_id", e.ScienceID).Time("ends_at", e.EndsAt)

	case *events.CellEvent:
		logEvent.
			Int("cell", int(e.Cell)).
			Str("status", string(e.Status)).
			Int("mine_level", e.MineLevel)

	case *events.MineCollectedEvent:
		logEvent.
			Int("cell", int(e.Cell)).
			Str("resource", string(e.Resource)).
			Int("amount", e.Amount)

	case *events.DomainEvent:
		logEvent.
			Str("domain_id", e.DomainID).
			Str("action", e.Action).
			Int("amount", e.Amount)

	case *events.MissionEvent:
		logEvent.Str("mission_id", e.MissionID).Str("status", string(e.Status))

	case *events.TradeEvent:
		logEvent.
			Str("trade_id", e.TradeID).
			Str("from", e.From).
			Str("to", e.To).
			Str("status", string(e.Status))

	case *events.ClassroomEvent:
		logEvent.
			Str("entity", e.Entity).
			Str("entity_id", e.EntityID).
			Str("action", e.Action)
	}

	if ls.devMode {
		if jsonData, err := json.Marshal(event); err == nil {
			logEvent.RawJSON("event_data", jsonData)
		}
	}

	logEvent.Msg("Game event")
}

func (ls *LoggerSubscriber) level() zerolog.Level {
	switch ls.logLevel {
	case zerolog.DebugLevel, zerolog.InfoLevel, zerolog.WarnLevel, zerolog.ErrorLevel:
		return ls.logLevel
	default:
		return zerolog.InfoLevel
	}
}
