package states

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCellStatusTransitions(t *testing.T) {
	tests := []struct {
		from, to CellStatus
		allowed  bool
	}{
		{CellHidden, CellResearching, true},
		{CellResearching, CellRevealed, true},
		{CellRevealed, CellMine, true},
		{CellHidden, CellRevealed, false},
		{CellHidden, CellMine, false},
		{CellMine, CellHidden, false},
		{CellRevealed, CellResearching, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			assert.Equal(t, tt.allowed, tt.from.CanTransitionTo(tt.to))
		})
	}
}

func TestMissionStatusTransitions(t *testing.T) {
	assert.True(t, MissionActive.CanTransitionTo(MissionCompleted))
	assert.True(t, MissionCompleted.CanTransitionTo(MissionClaimed))
	assert.False(t, MissionActive.CanTransitionTo(MissionClaimed))
	assert.False(t, MissionClaimed.CanTransitionTo(MissionActive))
	assert.True(t, MissionClaimed.IsTerminal())
	assert.False(t, MissionCompleted.IsTerminal())
}

func TestTradeStatusTransitions(t *testing.T) {
	for _, target := range []TradeStatus{TradeAccepted, TradeRejected, TradeCancelled} {
		assert.True(t, TradePending.CanTransitionTo(target))
		assert.True(t, target.IsTerminal())
		for _, again := range []TradeStatus{TradePending, TradeAccepted, TradeRejected, TradeCancelled} {
			assert.False(t, target.CanTransitionTo(again), "%s must be terminal", target)
		}
	}
}

func TestResearchAndSubmissionTransitions(t *testing.T) {
	assert.True(t, ResearchInProgress.CanTransitionTo(ResearchCompleted))
	assert.False(t, ResearchCompleted.CanTransitionTo(ResearchInProgress))

	assert.True(t, SubmissionPending.CanTransitionTo(SubmissionApproved))
	assert.True(t, SubmissionPending.CanTransitionTo(SubmissionRejected))
	assert.False(t, SubmissionRejected.CanTransitionTo(SubmissionApproved))
}
