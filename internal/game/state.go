package game

import (
	"sort"
	"time"

	"github.com/eduland/eduland-server/internal/game/catalog"
	"github.com/eduland/eduland-server/internal/game/core"
	"github.com/eduland/eduland-server/internal/game/states"
)

// Hero is the player's avatar
type Hero struct {
	Class string `json:"class" bson:"class"`
	Level int    `json:"level" bson:"level"`
	XP    int    `json:"xp" bson:"xp"`
}

// BuildingState is the per-player state of one catalog building.
// Level 0 means not built.
type BuildingState struct {
	Level   int `json:"level" bson:"level"`
	Workers int `json:"workers" bson:"workers"`
}

// Workers tracks the worker pool. Placed always equals the sum of
// building workers.
type Workers struct {
	Total  int `json:"total" bson:"total"`
	Placed int `json:"placed" bson:"placed"`
}

// Free returns unassigned workers
func (w Workers) Free() int {
	return w.Total - w.Placed
}

// Castle is the player's castle
type Castle struct {
	Level int    `json:"level" bson:"level"`
	Skin  string `json:"skin" bson:"skin"`
}

// ScienceState is a player's progress on one science
type ScienceState struct {
	Status      states.ResearchStatus `json:"status" bson:"status"`
	StartedAt   time.Time             `json:"startedAt" bson:"started_at"`
	EndsAt      time.Time             `json:"endsAt" bson:"ends_at"`
	CompletedAt *time.Time            `json:"completedAt,omitempty" bson:"completed_at,omitempty"`
}

// BuildOrder is the single running building upgrade
type BuildOrder struct {
	BuildingID  string    `json:"buildingId" bson:"building_id"`
	TargetLevel int       `json:"targetLevel" bson:"target_level"`
	StartedAt   time.Time `json:"startedAt" bson:"started_at"`
	EndsAt      time.Time `json:"endsAt" bson:"ends_at"`
}

// SeasonProgress is the player's standing on the season track
type SeasonProgress struct {
	ID           string `json:"id" bson:"id"`
	Points       int    `json:"points" bson:"points"`
	ClaimedTiers []int  `json:"claimedTiers" bson:"claimed_tiers"`
}

// HasClaimed reports whether tier was already paid out
func (s SeasonProgress) HasClaimed(tier int) bool {
	for _, t := range s.ClaimedTiers {
		if t == tier {
			return true
		}
	}
	return false
}

// Player is the aggregate root for one student
type Player struct {
	ID               string                   `json:"id" bson:"_id"`
	Name             string                   `json:"name" bson:"name"`
	Group            string                   `json:"group" bson:"group"`
	Hero             Hero                     `json:"hero" bson:"hero"`
	Resources        core.Resources           `json:"resources" bson:"resources"`
	Diamonds         int                      `json:"diamonds" bson:"diamonds"`
	ResearchPoints   int                      `json:"researchPoints" bson:"research_points"`
	Buildings        map[string]BuildingState `json:"buildings" bson:"buildings"`
	Workers          Workers                  `json:"workers" bson:"workers"`
	Castle           Castle                   `json:"castle" bson:"castle"`
	Sciences         map[string]ScienceState  `json:"sciences" bson:"sciences"`
	ActiveResearchID string                   `json:"activeResearchId,omitempty" bson:"active_research_id,omitempty"`
	Grid             core.Grid                `json:"grid" bson:"grid"`
	BuildQueue       *BuildOrder              `json:"buildQueue,omitempty" bson:"build_queue,omitempty"`
	Season           SeasonProgress           `json:"season" bson:"season"`
	LastCalculated   time.Time                `json:"lastCalculated" bson:"last_calculated"`
	LastActive       time.Time                `json:"lastActive" bson:"last_active"`
	CreatedAt        time.Time                `json:"createdAt" bson:"created_at"`
	Version          int64                    `json:"version" bson:"version"`
}

// DocID returns the document id
func (p *Player) DocID() string { return p.ID }

// Clone returns a deep copy
func (p *Player) Clone() *Player {
	c := *p
	c.Resources = p.Resources.Clone()
	c.Buildings = make(map[string]BuildingState, len(p.Buildings))
	for k, v := range p.Buildings {
		c.Buildings[k] = v
	}
	c.Sciences = make(map[string]ScienceState, len(p.Sciences))
	for k, v := range p.Sciences {
		if v.CompletedAt != nil {
			t := *v.CompletedAt
			v.CompletedAt = &t
		}
		c.Sciences[k] = v
	}
	c.Grid = p.Grid.Clone()
	if p.BuildQueue != nil {
		q := *p.BuildQueue
		c.BuildQueue = &q
	}
	c.Season.ClaimedTiers = append([]int(nil), p.Season.ClaimedTiers...)
	return &c
}

// Normalize replaces nil maps left behind by decoding empty documents
func (p *Player) Normalize() {
	if p.Resources == nil {
		p.Resources = core.Resources{}
	}
	if p.Buildings == nil {
		p.Buildings = make(map[string]BuildingState)
	}
	if p.Sciences == nil {
		p.Sciences = make(map[string]ScienceState)
	}
}

// Building returns the state of id; unknown ids read as unbuilt
func (p *Player) Building(id string) BuildingState {
	return p.Buildings[id]
}

// CompletedSciences returns completed science ids sorted
func (p *Player) CompletedSciences() []string {
	var ids []string
	for id, s := range p.Sciences {
		if s.Status == states.ResearchCompleted {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids
}

// HasCompleted reports whether science id is completed
func (p *Player) HasCompleted(id string) bool {
	s, ok := p.Sciences[id]
	return ok && s.Status == states.ResearchCompleted
}

// PlacedWorkers sums workers over all buildings
func (p *Player) PlacedWorkers() int {
	n := 0
	for _, b := range p.Buildings {
		n += b.Workers
	}
	return n
}

// ApplyReward credits r and recomputes the hero level
func (p *Player) ApplyReward(r core.Reward, hero *catalog.HeroConfig) {
	if p.Resources == nil {
		p.Resources = core.Resources{}
	}
	p.Resources.Add(r.Resources)
	p.Diamonds += r.Diamonds
	p.ResearchPoints += r.ResearchPoints
	p.Season.Points += r.SeasonPoints
	if r.XP > 0 {
		p.Hero.XP += r.XP
		if hero != nil {
			p.Hero.Level = hero.LevelFor(p.Hero.XP)
		}
	}
}
