package catalog

import "github.com/eduland/eduland-server/internal/game/core"

// MissionKind tells how a mission is assigned and when it expires
type MissionKind string

const (
	Daily       MissionKind = "daily"
	Weekly      MissionKind = "weekly"
	Story       MissionKind = "story"
	Achievement MissionKind = "achievement"
)

// Rotates reports whether missions of this kind expire with their period
func (k MissionKind) Rotates() bool {
	return k == Daily || k == Weekly
}

// Actions reported by gameplay operations
const (
	ActionCollectProduction = "collect_production"
	ActionUpgradeBuilding   = "upgrade_building"
	ActionResearchCell      = "research_cell"
	ActionBuildMine         = "build_mine"
	ActionUpgradeMine       = "upgrade_mine"
	ActionCollectMine       = "collect_mine"
	ActionClaimDomain       = "claim_domain"
	ActionCollectDomain     = "collect_domain"
	ActionResearchComplete  = "research_complete"
	ActionTradeAccepted     = "trade_accepted"
	ActionTaskApproved      = "task_approved"
	ActionSurveyCompleted   = "survey_completed"
	ActionUpgradeCastle     = "upgrade_castle"
)

// KnownActions lists every action a mission may track
var KnownActions = []string{
	ActionCollectProduction, ActionUpgradeBuilding, ActionResearchCell,
	ActionBuildMine, ActionUpgradeMine, ActionCollectMine, ActionClaimDomain,
	ActionCollectDomain, ActionResearchComplete, ActionTradeAccepted,
	ActionTaskApproved, ActionSurveyCompleted, ActionUpgradeCastle,
}

// Objective is what a mission counts. Empty filters match anything.
type Objective struct {
	Action      string `yaml:"action" json:"action" bson:"action"`
	Target      string `yaml:"target" json:"target,omitempty" bson:"target,omitempty"`
	Tier        int    `yaml:"tier" json:"tier,omitempty" bson:"tier,omitempty"`
	TargetLevel int    `yaml:"target_level" json:"targetLevel,omitempty" bson:"target_level,omitempty"`
}

// ActionReport describes one gameplay event for mission tracking
type ActionReport struct {
	Action      string `json:"action" validate:"required"`
	Target      string `json:"target,omitempty"`
	Tier        int    `json:"tier,omitempty" validate:"gte=0"`
	TargetLevel int    `json:"targetLevel,omitempty" validate:"gte=0"`
	Amount      int    `json:"amount" validate:"omitempty,gte=1"`
}

// Matches reports whether report counts toward o. Tier must be equal when
// set; TargetLevel is a minimum.
func (o Objective) Matches(report ActionReport) bool {
	if o.Action != report.Action {
		return false
	}
	if o.Target != "" && o.Target != report.Target {
		return false
	}
	if o.Tier != 0 && o.Tier != report.Tier {
		return false
	}
	if o.TargetLevel != 0 && report.TargetLevel < o.TargetLevel {
		return false
	}
	return true
}

// MissionTemplate is a mission definition
type MissionTemplate struct {
	ID          string      `yaml:"id" json:"id"`
	Kind        MissionKind `yaml:"kind" json:"kind"`
	Title       string      `yaml:"title" json:"title"`
	Description string      `yaml:"description" json:"description,omitempty"`
	Objective   Objective   `yaml:"objective" json:"objective"`
	Goal        int         `yaml:"goal" json:"goal"`
	Reward      core.Reward `yaml:"reward" json:"reward"`
	Next        string      `yaml:"next" json:"next,omitempty"`
}

// Mission returns a mission template
func (c *Catalog) Mission(id string) (*MissionTemplate, bool) {
	m, ok := c.missions[id]
	return m, ok
}

// MissionsOfKind returns templates of kind in catalog order
func (c *Catalog) MissionsOfKind(kind MissionKind) []MissionTemplate {
	var out []MissionTemplate
	for _, m := range c.Missions {
		if m.Kind == kind {
			out = append(out, m)
		}
	}
	return out
}

// StoryChain returns story mission ids in play order
func (c *Catalog) StoryChain() []string {
	return append([]string(nil), c.story...)
}

// StoryStart returns the first story mission, or "" if there is none
func (c *Catalog) StoryStart() string {
	if len(c.story) == 0 {
		return ""
	}
	return c.story[0]
}
