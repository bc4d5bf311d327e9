package states

// Document lifecycles. Each status type lists the statuses it may move to;
// services check CanTransitionTo before writing.

// CellStatus is the lifecycle of a grid cell on a player's mine map
type CellStatus string

const (
	CellHidden      CellStatus = "hidden"
	CellResearching CellStatus = "researching"
	CellRevealed    CellStatus = "revealed"
	CellMine        CellStatus = "mine"
)

// AllowedTransitions returns the statuses this status can move to
func (s CellStatus) AllowedTransitions() []CellStatus {
	switch s {
	case CellHidden:
		return []CellStatus{CellResearching}
	case CellResearching:
		return []CellStatus{CellRevealed}
	case CellRevealed:
		return []CellStatus{CellMine}
	default:
		return nil
	}
}

// CanTransitionTo checks if moving to target is allowed
func (s CellStatus) CanTransitionTo(target CellStatus) bool {
	return contains(s.AllowedTransitions(), target)
}

// MissionStatus is the lifecycle of an assigned mission
type MissionStatus string

const (
	MissionActive    MissionStatus = "active"
	MissionCompleted MissionStatus = "completed"
	MissionClaimed   MissionStatus = "claimed"
)

// AllowedTransitions returns the statuses this status can move to
func (s MissionStatus) AllowedTransitions() []MissionStatus {
	switch s {
	case MissionActive:
		return []MissionStatus{MissionCompleted}
	case MissionCompleted:
		return []MissionStatus{MissionClaimed}
	default:
		return nil
	}
}

// CanTransitionTo checks if moving to target is allowed
func (s MissionStatus) CanTransitionTo(target MissionStatus) bool {
	return contains(s.AllowedTransitions(), target)
}

// IsTerminal returns true once the reward has been paid out
func (s MissionStatus) IsTerminal() bool {
	return s == MissionClaimed
}

// ResearchStatus is the lifecycle of a science for one player.
// A science never started has no record at all.
type ResearchStatus string

const (
	ResearchInProgress ResearchStatus = "researching"
	ResearchCompleted  ResearchStatus = "completed"
)

// CanTransitionTo checks if moving to target is allowed
func (s ResearchStatus) CanTransitionTo(target ResearchStatus) bool {
	return s == ResearchInProgress && target == ResearchCompleted
}

// TradeStatus is the lifecycle of a trade offer
type TradeStatus string

const (
	TradePending   TradeStatus = "pending"
	TradeAccepted  TradeStatus = "accepted"
	TradeRejected  TradeStatus = "rejected"
	TradeCancelled TradeStatus = "cancelled"
)

// AllowedTransitions returns the statuses this status can move to
func (s TradeStatus) AllowedTransitions() []TradeStatus {
	if s == TradePending {
		return []TradeStatus{TradeAccepted, TradeRejected, TradeCancelled}
	}
	return nil
}

// CanTransitionTo checks if moving to target is allowed
func (s TradeStatus) CanTransitionTo(target TradeStatus) bool {
	return contains(s.AllowedTransitions(), target)
}

// IsTerminal returns true if the trade can no longer change
func (s TradeStatus) IsTerminal() bool {
	return s != TradePending
}

// SubmissionStatus is the review state of a task submission
type SubmissionStatus string

const (
	SubmissionPending  SubmissionStatus = "pending"
	SubmissionApproved SubmissionStatus = "approved"
	SubmissionRejected SubmissionStatus = "rejected"
)

// AllowedTransitions returns the statuses this status can move to
func (s SubmissionStatus) AllowedTransitions() []SubmissionStatus {
	if s == SubmissionPending {
		return []SubmissionStatus{SubmissionApproved, SubmissionRejected}
	}
	return nil
}

// CanTransitionTo checks if moving to target is allowed
func (s SubmissionStatus) CanTransitionTo(target SubmissionStatus) bool {
	return contains(s.AllowedTransitions(), target)
}

func contains[T comparable](list []T, target T) bool {
	for _, s := range list {
		if s == target {
			return true
		}
	}
	return false
}
