package core

// Reward is what a mission, task, survey or season tier pays out
type Reward struct {
	Resources      Resources `yaml:"resources" json:"resources,omitempty" bson:"resources,omitempty"`
	XP             int       `yaml:"xp" json:"xp,omitempty" bson:"xp,omitempty"`
	Diamonds       int       `yaml:"diamonds" json:"diamonds,omitempty" bson:"diamonds,omitempty"`
	ResearchPoints int       `yaml:"research_points" json:"researchPoints,omitempty" bson:"research_points,omitempty"`
	SeasonPoints   int       `yaml:"season_points" json:"seasonPoints,omitempty" bson:"season_points,omitempty"`
}

// Validate rejects negative payouts
func (r Reward) Validate() error {
	if r.XP < 0 || r.Diamonds < 0 || r.ResearchPoints < 0 || r.SeasonPoints < 0 {
		return ErrInvalidInput
	}
	return r.Resources.Validate()
}

// IsZero reports whether the reward pays nothing
func (r Reward) IsZero() bool {
	return r.Resources.IsEmpty() && r.XP == 0 && r.Diamonds == 0 && r.ResearchPoints == 0 && r.SeasonPoints == 0
}
