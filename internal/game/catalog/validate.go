package catalog

import (
	"errors"
	"fmt"

	"github.com/eduland/eduland-server/internal/common"
	"github.com/eduland/eduland-server/internal/game/core"
)

// Validate checks the whole catalog and computes the story chain.
// All problems are reported together.
func (c *Catalog) Validate() error {
	if c.buildings == nil {
		c.index()
	}
	var errs []error
	add := func(format string, args ...interface{}) {
		errs = append(errs, fmt.Errorf(format, args...))
	}

	c.validateResources(add)
	c.validateBuildings(add)
	c.validateSciences(add)
	c.validateCastle(add)
	c.validateMines(add)
	c.validateDomains(add)
	c.validateStart(add)
	c.validateMissions(add)

	story, err := c.buildStoryChain()
	if err != nil {
		errs = append(errs, err)
	}
	c.story = story

	if len(errs) > 0 {
		return fmt.Errorf("invalid catalog: %w", errors.Join(errs...))
	}
	return nil
}

type reporter func(format string, args ...interface{})

func (c *Catalog) validateResources(add reporter) {
	seen := make(map[core.ResourceKind]bool)
	for _, r := range c.Resources {
		if !r.Kind.Valid() {
			add("resource %q is not a known kind", r.Kind)
		}
		if seen[r.Kind] {
			add("resource %q listed twice", r.Kind)
		}
		seen[r.Kind] = true
		if _, err := common.ParseHexColor(r.Color); err != nil {
			add("resource %s: %v", r.Kind, err)
		}
	}
}

func (c *Catalog) validateBuildings(add reporter) {
	if len(c.buildings) != len(c.Buildings) {
		add("duplicate building ids")
	}
	for _, b := range c.Buildings {
		if b.ID == "" {
			add("building without id")
			continue
		}
		if b.Discipline != Informatics && b.Discipline != Biology {
			add("building %s: unknown discipline %q", b.ID, b.Discipline)
		}
		if len(b.Levels) == 0 || len(b.Levels) > 3 {
			add("building %s: must define 1 to 3 levels", b.ID)
		}
		maxSlots := 0
		for i, l := range b.Levels {
			if l.Level != i+1 {
				add("building %s: level %d out of order", b.ID, l.Level)
			}
			if err := l.Cost.Validate(); err != nil {
				add("building %s level %d cost: %v", b.ID, l.Level, err)
			}
			if err := l.Production.Validate(); err != nil {
				add("building %s level %d production: %v", b.ID, l.Level, err)
			}
			if l.WorkerSlots < 0 || l.BuildMinutes < 0 {
				add("building %s level %d: negative slots or build time", b.ID, l.Level)
			}
			maxSlots = common.Max(maxSlots, l.WorkerSlots)
		}
		if b.Synergy != nil {
			if b.Synergy.MinWorkers < 1 || b.Synergy.MinWorkers > maxSlots {
				add("building %s: synergy needs between 1 and %d workers", b.ID, maxSlots)
			}
			if err := b.Synergy.Bonus.Validate(); err != nil {
				add("building %s synergy: %v", b.ID, err)
			}
		}
	}
}

func (c *Catalog) validateSciences(add reporter) {
	if len(c.sciences) != len(c.Sciences) {
		add("duplicate science ids")
	}
	for _, s := range c.Sciences {
		for _, p := range s.Prerequisites {
			if _, ok := c.sciences[p]; !ok {
				add("science %s: unknown prerequisite %q", s.ID, p)
			}
		}
		if err := s.Cost.Validate(); err != nil {
			add("science %s cost: %v", s.ID, err)
		}
		if s.BaseMinutes <= 0 || s.ResearchPoints < 0 {
			add("science %s: research time must be positive", s.ID)
		}
		if err := s.Effects.Validate(); err != nil {
			add("science %s: %v", s.ID, err)
		}
	}

	// prerequisite cycles
	const (
		unvisited = iota
		visiting
		done
	)
	marks := make(map[string]int, len(c.Sciences))
	var visit func(id string) bool
	visit = func(id string) bool {
		switch marks[id] {
		case visiting:
			return false
		case done:
			return true
		}
		marks[id] = visiting
		if s, ok := c.sciences[id]; ok {
			for _, p := range s.Prerequisites {
				if !visit(p) {
					return false
				}
			}
		}
		marks[id] = done
		return true
	}
	for _, s := range c.Sciences {
		if !visit(s.ID) {
			add("science %s: prerequisite cycle", s.ID)
			return
		}
	}

	if c.Research.LabBuilding != "" {
		if _, ok := c.buildings[c.Research.LabBuilding]; !ok {
			add("research lab building %q not found", c.Research.LabBuilding)
		}
	}
	if c.Research.LabBonusPerLevel < 0 {
		add("research lab bonus must be non-negative")
	}
}

func (c *Catalog) validateCastle(add reporter) {
	if len(c.Castle) == 0 {
		add("castle needs at least one level")
	}
	for i, cl := range c.Castle {
		if cl.Level != i+1 {
			add("castle level %d out of order", cl.Level)
		}
		if err := cl.Cost.Validate(); err != nil {
			add("castle level %d cost: %v", cl.Level, err)
		}
		if cl.Workers < 0 {
			add("castle level %d: negative workers", cl.Level)
		}
		if err := cl.Effects.Validate(); err != nil {
			add("castle level %d: %v", cl.Level, err)
		}
	}
	if c.Start.Skin != "" && !c.SkinUnlocked(c.Start.Skin, 1) {
		add("start skin %q is not unlocked at castle level 1", c.Start.Skin)
	}
}

func (c *Catalog) validateMines(add reporter) {
	m := c.Mines
	if len(m.Levels) == 0 || len(m.Levels) > 3 {
		add("mines: must define 1 to 3 levels")
	}
	for i, l := range m.Levels {
		if l.Level != i+1 {
			add("mine level %d out of order", l.Level)
		}
		if l.RatePerHour <= 0 || l.Capacity <= 0 {
			add("mine level %d: rate and capacity must be positive", l.Level)
		}
		if err := l.Cost.Validate(); err != nil {
			add("mine level %d cost: %v", l.Level, err)
		}
	}
	if m.ResearchMinutes <= 0 {
		add("mines: research time must be positive")
	}
	if err := m.ResearchCost.Validate(); err != nil {
		add("mines research cost: %v", err)
	}
	total := 0
	for _, d := range m.Deposits {
		if !d.Resource.Valid() || d.Weight < 0 {
			add("mines: bad deposit %q", d.Resource)
		}
		total += d.Weight
	}
	if total <= 0 {
		add("mines: deposit weights must sum to a positive value")
	}
}

func (c *Catalog) validateDomains(add reporter) {
	d := c.Domains
	if len(d.Resources) == 0 {
		add("domains: no resources")
	}
	for _, r := range d.Resources {
		if !r.Valid() {
			add("domains: unknown resource %q", r)
		}
	}
	if d.MinRate <= 0 || d.MaxRate < d.MinRate {
		add("domains: rate range must be positive and ordered")
	}
	if err := d.ClaimCost.Validate(); err != nil {
		add("domains claim cost: %v", err)
	}
}

func (c *Catalog) validateStart(add reporter) {
	if err := c.Start.Resources.Validate(); err != nil {
		add("start resources: %v", err)
	}
	for id, level := range c.Start.Buildings {
		b, ok := c.buildings[id]
		if !ok {
			add("start building %q not found", id)
			continue
		}
		if level < 0 || level > b.MaxLevel() {
			add("start building %s: level %d out of range", id, level)
		}
	}
	if len(c.Hero.Classes) == 0 {
		add("hero: no classes")
	}
	if c.Hero.XPPerLevel <= 0 {
		add("hero: xp_per_level must be positive")
	}
	for i, t := range c.Season.Tiers {
		if t.Tier != i+1 {
			add("season tier %d out of order", t.Tier)
		}
		if i > 0 && t.Points <= c.Season.Tiers[i-1].Points {
			add("season tier %d: points must increase", t.Tier)
		}
		if err := t.Reward.Validate(); err != nil {
			add("season tier %d reward: %v", t.Tier, err)
		}
	}
}

func (c *Catalog) validateMissions(add reporter) {
	if len(c.missions) != len(c.Missions) {
		add("duplicate mission ids")
	}
	known := make(map[string]bool, len(KnownActions))
	for _, a := range KnownActions {
		known[a] = true
	}
	for _, m := range c.Missions {
		switch m.Kind {
		case Daily, Weekly, Story, Achievement:
		default:
			add("mission %s: unknown kind %q", m.ID, m.Kind)
		}
		if !known[m.Objective.Action] {
			add("mission %s: unknown action %q", m.ID, m.Objective.Action)
		}
		if m.Goal <= 0 {
			add("mission %s: goal must be positive", m.ID)
		}
		if err := m.Reward.Validate(); err != nil {
			add("mission %s reward: %v", m.ID, err)
		}
		if m.Next != "" && m.Kind != Story {
			add("mission %s: only story missions may have a next mission", m.ID)
		}
	}
}

// buildStoryChain follows next pointers from the single story root and
// fails on dangling links, forks, cycles and unreachable story missions.
func (c *Catalog) buildStoryChain() ([]string, error) {
	story := c.MissionsOfKind(Story)
	if len(story) == 0 {
		return nil, nil
	}

	referenced := make(map[string]string)
	for _, m := range story {
		if m.Next == "" {
			continue
		}
		next, ok := c.missions[m.Next]
		if !ok || next.Kind != Story {
			return nil, fmt.Errorf("story mission %s: next %q is not a story mission", m.ID, m.Next)
		}
		if prev, dup := referenced[m.Next]; dup {
			return nil, fmt.Errorf("story mission %s follows both %s and %s", m.Next, prev, m.ID)
		}
		referenced[m.Next] = m.ID
	}

	var root string
	for _, m := range story {
		if _, ok := referenced[m.ID]; !ok {
			if root != "" {
				return nil, fmt.Errorf("story has several starting missions: %s, %s", root, m.ID)
			}
			root = m.ID
		}
	}
	if root == "" {
		return nil, fmt.Errorf("story chain is a cycle")
	}

	chain := make([]string, 0, len(story))
	seen := make(map[string]bool, len(story))
	for id := root; id != ""; id = c.missions[id].Next {
		if seen[id] {
			return nil, fmt.Errorf("story chain cycles at %s", id)
		}
		seen[id] = true
		chain = append(chain, id)
	}
	if len(chain) != len(story) {
		return nil, fmt.Errorf("story chain reaches %d of %d story missions", len(chain), len(story))
	}
	return chain, nil
}
