package events

import (
	"time"

	"github.com/eduland/eduland-server/internal/game"
	"github.com/eduland/eduland-server/internal/game/core"
	"github.com/eduland/eduland-server/internal/game/states"
)

// Event type constants
const (
	TypePlayerCreated        = "player.created"
	TypePlayerUpdated        = "player.updated"
	TypeProductionCollected  = "production.collected"
	TypeBuildingUpgradeStart = "building.upgrade_started"
	TypeBuildingUpgraded     = "building.upgraded"
	TypeResearchStarted      = "research.started"
	TypeResearchCompleted    = "research.completed"
	TypeCellChanged          = "mine.cell_changed"
	TypeMineCollected        = "mine.collected"
	TypeDomainChanged        = "domain.changed"
	TypeMissionChanged       = "mission.changed"
	TypeTradeChanged         = "trade.changed"
	TypeClassroomChanged     = "classroom.changed"
)

// PlayerCreatedEvent is published when a student joins
type PlayerCreatedEvent struct {
	BaseEvent
	Name  string `json:"name"`
	Group string `json:"group"`
}

// NewPlayerCreatedEvent creates a new PlayerCreatedEvent
func NewPlayerCreatedEvent(playerID, name, group string) *PlayerCreatedEvent {
	return &PlayerCreatedEvent{
		BaseEvent: newBase(TypePlayerCreated, playerID),
		Name:      name,
		Group:     group,
	}
}

// PlayerUpdatedEvent carries the committed state of a player for push
type PlayerUpdatedEvent struct {
	BaseEvent
	Player *game.Player `json:"player"`
}

// NewPlayerUpdatedEvent creates a new PlayerUpdatedEvent
func NewPlayerUpdatedEvent(p *game.Player) *PlayerUpdatedEvent {
	return &PlayerUpdatedEvent{
		BaseEvent: newBase(TypePlayerUpdated, p.ID),
		Player:    p,
	}
}

// ProductionCollectedEvent is published after offline production is credited
type ProductionCollectedEvent struct {
	BaseEvent
	Produced     core.Resources `json:"produced"`
	ElapsedHours float64        `json:"elapsedHours"`
}

// NewProductionCollectedEvent creates a new ProductionCollectedEvent
func NewProductionCollectedEvent(playerID string, produced core.Resources, hours float64) *ProductionCollectedEvent {
	return &ProductionCollectedEvent{
		BaseEvent:    newBase(TypeProductionCollected, playerID),
		Produced:     produced,
		ElapsedHours: hours,
	}
}

// BuildingEvent is published when an upgrade starts or completes
type BuildingEvent struct {
	BaseEvent
	BuildingID string    `json:"buildingId"`
	Level      int       `json:"level"`
	EndsAt     time.Time `json:"endsAt,omitempty"`
}

// NewBuildingUpgradeStartedEvent creates a BuildingEvent for a queued upgrade
func NewBuildingUpgradeStartedEvent(playerID, buildingID string, targetLevel int, endsAt time.Time) *BuildingEvent {
	return &BuildingEvent{
		BaseEvent:  newBase(TypeBuildingUpgradeStart, playerID),
		BuildingID: buildingID,
		Level:      targetLevel,
		EndsAt:     endsAt,
	}
}

// NewBuildingUpgradedEvent creates a BuildingEvent for a finished upgrade
func NewBuildingUpgradedEvent(playerID, buildingID string, level int) *BuildingEvent {
	return &BuildingEvent{
		BaseEvent:  newBase(TypeBuildingUpgraded, playerID),
		BuildingID: buildingID,
		Level:      level,
	}
}

// ResearchEvent is published when research starts or completes
type ResearchEvent struct {
	BaseEvent
	ScienceID string    `json:"scienceId"`
	EndsAt    time.Time `json:"endsAt"`
}

// NewResearchStartedEvent creates a ResearchEvent for a started science
func NewResearchStartedEvent(playerID, scienceID string, endsAt time.Time) *ResearchEvent {
	return &ResearchEvent{
		BaseEvent: newBase(TypeResearchStarted, playerID),
		ScienceID: scienceID,
		EndsAt:    endsAt,
	}
}

// NewResearchCompletedEvent creates a ResearchEvent for a completed science
func NewResearchCompletedEvent(playerID, scienceID string, endsAt time.Time) *ResearchEvent {
	return &ResearchEvent{
		BaseEvent: newBase(TypeResearchCompleted, playerID),
		ScienceID: scienceID,
		EndsAt:    endsAt,
	}
}

// CellEvent is published when a mine cell changes status or level
type CellEvent struct {
	BaseEvent
	Cell      core.CellIndex    `json:"cell"`
	Status    states.CellStatus `json:"status"`
	MineLevel int               `json:"mineLevel,omitempty"`
}

// NewCellChangedEvent creates a new CellEvent
func NewCellChangedEvent(playerID string, cell core.CellIndex, status states.CellStatus, level int) *CellEvent {
	return &CellEvent{
		BaseEvent: newBase(TypeCellChanged, playerID),
		Cell:      cell,
		Status:    status,
		MineLevel: level,
	}
}

// MineCollectedEvent is published when a mine is emptied
type MineCollectedEvent struct {
	BaseEvent
	Cell     core.CellIndex    `json:"cell"`
	Resource core.ResourceKind `json:"resource"`
	Amount   int               `json:"amount"`
}

// NewMineCollectedEvent creates a new MineCollectedEvent
func NewMineCollectedEvent(playerID string, cell core.CellIndex, resource core.ResourceKind, amount int) *MineCollectedEvent {
	return &MineCollectedEvent{
		BaseEvent: newBase(TypeMineCollected, playerID),
		Cell:      cell,
		Resource:  resource,
		Amount:    amount,
	}
}

// DomainEvent is published when an outer domain is claimed, collected or abandoned
type DomainEvent struct {
	BaseEvent
	DomainID string `json:"domainId"`
	Action   string `json:"action"`
	Amount   int    `json:"amount,omitempty"`
}

// NewDomainChangedEvent creates a new DomainEvent
func NewDomainChangedEvent(playerID, domainID, action string, amount int) *DomainEvent {
	return &DomainEvent{
		BaseEvent: newBase(TypeDomainChanged, playerID),
		DomainID:  domainID,
		Action:    action,
		Amount:    amount,
	}
}

// MissionEvent is published when a mission completes or is claimed
type MissionEvent struct {
	BaseEvent
	MissionID string               `json:"missionId"`
	Status    states.MissionStatus `json:"status"`
}

// NewMissionChangedEvent creates a new MissionEvent
func NewMissionChangedEvent(playerID, missionID string, status states.MissionStatus) *MissionEvent {
	return &MissionEvent{
		BaseEvent: newBase(TypeMissionChanged, playerID),
		MissionID: missionID,
		Status:    status,
	}
}

// TradeEvent is published for each party when a trade changes status
type TradeEvent struct {
	BaseEvent
	TradeID string             `json:"tradeId"`
	From    string             `json:"from"`
	To      string             `json:"to"`
	Status  states.TradeStatus `json:"status"`
}

// NewTradeChangedEvent creates a new TradeEvent addressed to playerID
func NewTradeChangedEvent(playerID string, t *game.Trade) *TradeEvent {
	return &TradeEvent{
		BaseEvent: newBase(TypeTradeChanged, playerID),
		TradeID:   t.ID,
		From:      t.FromPlayer,
		To:        t.ToPlayer,
		Status:    t.Status,
	}
}

// ClassroomEvent is published for task, submission, message and survey changes
type ClassroomEvent struct {
	BaseEvent
	Entity   string `json:"entity"`
	EntityID string `json:"entityId"`
	Action   string `json:"action"`
}

// NewClassroomChangedEvent creates a new ClassroomEvent
func NewClassroomChangedEvent(playerID, entity, entityID, action string) *ClassroomEvent {
	return &ClassroomEvent{
		BaseEvent: newBase(TypeClassroomChanged, playerID),
		Entity:    entity,
		EntityID:  entityID,
		Action:    action,
	}
}
