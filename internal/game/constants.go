package game

import (
	"github.com/eduland/eduland-server/internal/config"
)

// Accrual bounds
func AccrualMaxHours() float64 {
	return config.Get().Game.Accrual.MaxHours
}

func AccrualMinHours() float64 {
	return config.Get().Game.Accrual.MinHours
}

// Outer domain settings
func DomainMaxAccrualHours() float64 {
	return config.Get().Game.Domains.MaxAccrualHours
}

func DomainsPerPlayer() int {
	return config.Get().Game.Domains.MaxPerPlayer
}

func WorldSize() (width, height int) {
	d := config.Get().Game.Domains
	return d.WorldWidth, d.WorldHeight
}

// Player grid size
func GridSize() (width, height int) {
	g := config.Get().Game.Grid
	return g.Width, g.Height
}

// Mission rotation
func DailyMissionCount() int {
	return config.Get().Game.Missions.DailyCount
}

func WeeklyMissionCount() int {
	return config.Get().Game.Missions.WeeklyCount
}

func StartWorkers() int {
	return config.Get().Game.Start.Workers
}
