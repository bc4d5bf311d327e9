// Package catalog holds the static game data: resources, buildings,
// sciences, castle levels, mines, domains, missions and the season track.
// A catalog is loaded from YAML once and treated as read-only afterwards.
package catalog

import (
	"bytes"
	_ "embed"
	"fmt"
	"io"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/eduland/eduland-server/internal/game/core"
	"github.com/eduland/eduland-server/internal/game/effects"
)

//go:embed default.yaml
var defaultCatalog []byte

// Discipline groups buildings and sciences by school subject
type Discipline string

const (
	Informatics Discipline = "informatics"
	Biology     Discipline = "biology"
)

// ResourceInfo is display metadata for one resource kind
type ResourceInfo struct {
	Kind  core.ResourceKind `yaml:"kind" json:"kind"`
	Name  string            `yaml:"name" json:"name"`
	Icon  string            `yaml:"icon" json:"icon"`
	Color string            `yaml:"color" json:"color"`
}

// LevelConfig describes one level of a building
type LevelConfig struct {
	Level        int            `yaml:"level" json:"level"`
	Cost         core.Resources `yaml:"cost" json:"cost"`
	Production   core.Resources `yaml:"production" json:"production"`
	WorkerSlots  int            `yaml:"worker_slots" json:"workerSlots"`
	BuildMinutes int            `yaml:"build_minutes" json:"buildMinutes"`
}

// Synergy is a flat hourly bonus paid while enough workers are assigned
type Synergy struct {
	MinWorkers int            `yaml:"min_workers" json:"minWorkers"`
	Bonus      core.Resources `yaml:"bonus" json:"bonus"`
}

// BuildingConfig is the static definition of a building
type BuildingConfig struct {
	ID         string        `yaml:"id" json:"id"`
	Name       string        `yaml:"name" json:"name"`
	Discipline Discipline    `yaml:"discipline" json:"discipline"`
	Levels     []LevelConfig `yaml:"levels" json:"levels"`
	Synergy    *Synergy      `yaml:"synergy" json:"synergy,omitempty"`
}

// MaxLevel returns the highest level defined
func (b *BuildingConfig) MaxLevel() int {
	return len(b.Levels)
}

// Level returns the config of level n, or false if undefined
func (b *BuildingConfig) Level(n int) (LevelConfig, bool) {
	if n < 1 || n > len(b.Levels) {
		return LevelConfig{}, false
	}
	return b.Levels[n-1], true
}

// ScienceConfig is one node of the tech tree
type ScienceConfig struct {
	ID             string         `yaml:"id" json:"id"`
	Name           string         `yaml:"name" json:"name"`
	Discipline     Discipline     `yaml:"discipline" json:"discipline"`
	Prerequisites  []string       `yaml:"prerequisites" json:"prerequisites,omitempty"`
	Cost           core.Resources `yaml:"cost" json:"cost"`
	ResearchPoints int            `yaml:"research_points" json:"researchPoints"`
	BaseMinutes    int            `yaml:"base_minutes" json:"baseMinutes"`
	Effects        effects.Spec   `yaml:"effects" json:"effects"`
}

// ResearchConfig tunes research timing
type ResearchConfig struct {
	LabBuilding      string  `yaml:"lab_building" json:"labBuilding"`
	LabBonusPerLevel float64 `yaml:"lab_bonus_per_level" json:"labBonusPerLevel"`
}

// CastleLevel describes one castle level. Workers are granted on reaching it;
// Effects apply while the castle is at exactly this level.
type CastleLevel struct {
	Level   int            `yaml:"level" json:"level"`
	Cost    core.Resources `yaml:"cost" json:"cost"`
	Workers int            `yaml:"workers" json:"workers"`
	Effects effects.Spec   `yaml:"effects" json:"effects"`
	Skins   []string       `yaml:"skins" json:"skins,omitempty"`
}

// MineLevel describes yield and upgrade cost of one mine tier.
// Cost is paid to reach the level; level 1 cost is the build cost.
type MineLevel struct {
	Level       int            `yaml:"level" json:"level"`
	RatePerHour float64        `yaml:"rate_per_hour" json:"ratePerHour"`
	Capacity    int            `yaml:"capacity" json:"capacity"`
	Cost        core.Resources `yaml:"cost" json:"cost"`
}

// DepositWeight is the relative chance of a resource under a grid cell
type DepositWeight struct {
	Resource core.ResourceKind `yaml:"resource" json:"resource"`
	Weight   int               `yaml:"weight" json:"weight"`
}

// MineConfig holds the mine table
type MineConfig struct {
	ResearchCost    core.Resources  `yaml:"research_cost" json:"researchCost"`
	ResearchMinutes int             `yaml:"research_minutes" json:"researchMinutes"`
	Levels          []MineLevel     `yaml:"levels" json:"levels"`
	Deposits        []DepositWeight `yaml:"deposits" json:"deposits"`
}

// MaxLevel returns the highest mine tier
func (m *MineConfig) MaxLevel() int {
	return len(m.Levels)
}

// Level returns the config of tier n, or false if undefined
func (m *MineConfig) Level(n int) (MineLevel, bool) {
	if n < 1 || n > len(m.Levels) {
		return MineLevel{}, false
	}
	return m.Levels[n-1], true
}

// DomainConfig holds outer-domain parameters
type DomainConfig struct {
	ClaimCost core.Resources      `yaml:"claim_cost" json:"claimCost"`
	Resources []core.ResourceKind `yaml:"resources" json:"resources"`
	MinRate   float64             `yaml:"min_rate" json:"minRate"`
	MaxRate   float64             `yaml:"max_rate" json:"maxRate"`
}

// StartConfig is the state of a freshly created player
type StartConfig struct {
	Resources core.Resources `yaml:"resources" json:"resources"`
	Buildings map[string]int `yaml:"buildings" json:"buildings"`
	Skin      string         `yaml:"skin" json:"skin"`
}

// HeroConfig lists hero classes and the XP curve
type HeroConfig struct {
	Classes    []string `yaml:"classes" json:"classes"`
	XPPerLevel int      `yaml:"xp_per_level" json:"xpPerLevel"`
}

// LevelFor returns the hero level reached with xp total experience.
// Going from level L to L+1 costs XPPerLevel*L.
func (h *HeroConfig) LevelFor(xp int) int {
	level := 1
	if h.XPPerLevel <= 0 {
		return level
	}
	need := h.XPPerLevel
	for xp >= need {
		xp -= need
		level++
		need = h.XPPerLevel * level
	}
	return level
}

// HasClass reports whether class is a known hero class
func (h *HeroConfig) HasClass(class string) bool {
	for _, c := range h.Classes {
		if c == class {
			return true
		}
	}
	return false
}

// SeasonTier is one step of the season reward track
type SeasonTier struct {
	Tier   int         `yaml:"tier" json:"tier"`
	Points int         `yaml:"points" json:"points"`
	Reward core.Reward `yaml:"reward" json:"reward"`
}

// SeasonConfig is the current season track
type SeasonConfig struct {
	ID    string       `yaml:"id" json:"id"`
	Tiers []SeasonTier `yaml:"tiers" json:"tiers"`
}

// Tier returns tier n, or false if undefined
func (s *SeasonConfig) Tier(n int) (SeasonTier, bool) {
	for _, t := range s.Tiers {
		if t.Tier == n {
			return t, true
		}
	}
	return SeasonTier{}, false
}

// Catalog is the full set of static game data
type Catalog struct {
	Resources []ResourceInfo    `yaml:"resources" json:"resources"`
	Buildings []BuildingConfig  `yaml:"buildings" json:"buildings"`
	Sciences  []ScienceConfig   `yaml:"sciences" json:"sciences"`
	Research  ResearchConfig    `yaml:"research" json:"research"`
	Castle    []CastleLevel     `yaml:"castle" json:"castle"`
	Mines     MineConfig        `yaml:"mines" json:"mines"`
	Domains   DomainConfig      `yaml:"domains" json:"domains"`
	Start     StartConfig       `yaml:"start" json:"start"`
	Hero      HeroConfig        `yaml:"hero" json:"hero"`
	Missions  []MissionTemplate `yaml:"missions" json:"missions"`
	Season    SeasonConfig      `yaml:"season" json:"season"`

	buildings map[string]*BuildingConfig
	sciences  map[string]*ScienceConfig
	missions  map[string]*MissionTemplate
	story     []string
}

// Load decodes and validates a catalog
func Load(r io.Reader) (*Catalog, error) {
	c := &Catalog{}
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(c); err != nil {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}
	c.index()
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// LoadFile loads a catalog from a YAML file
func LoadFile(path string) (*Catalog, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open catalog: %w", err)
	}
	defer f.Close()
	return Load(f)
}

// Default returns the catalog compiled into the binary
func Default() (*Catalog, error) {
	return Load(bytes.NewReader(defaultCatalog))
}

// MustDefault is Default for tests and tools; it panics on a broken build
func MustDefault() *Catalog {
	c, err := Default()
	if err != nil {
		panic("embedded catalog is invalid: " + err.Error())
	}
	return c
}

// FromPath loads path, or the default catalog when path is empty
func FromPath(path string) (*Catalog, error) {
	if path == "" {
		return Default()
	}
	return LoadFile(path)
}

func (c *Catalog) index() {
	c.buildings = make(map[string]*BuildingConfig, len(c.Buildings))
	for i := range c.Buildings {
		c.buildings[c.Buildings[i].ID] = &c.Buildings[i]
	}
	c.sciences = make(map[string]*ScienceConfig, len(c.Sciences))
	for i := range c.Sciences {
		c.sciences[c.Sciences[i].ID] = &c.Sciences[i]
	}
	c.missions = make(map[string]*MissionTemplate, len(c.Missions))
	for i := range c.Missions {
		c.missions[c.Missions[i].ID] = &c.Missions[i]
	}
}

// Resource returns display metadata for kind
func (c *Catalog) Resource(kind core.ResourceKind) (ResourceInfo, bool) {
	for _, r := range c.Resources {
		if r.Kind == kind {
			return r, true
		}
	}
	return ResourceInfo{}, false
}

// Building returns the config of a building
func (c *Catalog) Building(id string) (*BuildingConfig, bool) {
	b, ok := c.buildings[id]
	return b, ok
}

// BuildingIDs returns all building ids sorted
func (c *Catalog) BuildingIDs() []string {
	ids := make([]string, 0, len(c.buildings))
	for id := range c.buildings {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Science returns a tech-tree node
func (c *Catalog) Science(id string) (*ScienceConfig, bool) {
	s, ok := c.sciences[id]
	return s, ok
}

// CastleLevel returns castle level n
func (c *Catalog) CastleLevel(n int) (CastleLevel, bool) {
	if n < 1 || n > len(c.Castle) {
		return CastleLevel{}, false
	}
	return c.Castle[n-1], true
}

// MaxCastleLevel returns the highest castle level
func (c *Catalog) MaxCastleLevel() int {
	return len(c.Castle)
}

// SkinUnlocked reports whether skin is available at castle level
func (c *Catalog) SkinUnlocked(skin string, level int) bool {
	for _, cl := range c.Castle {
		if cl.Level > level {
			break
		}
		for _, s := range cl.Skins {
			if s == skin {
				return true
			}
		}
	}
	return false
}

// EffectsFor composes the bonus bag for a player's completed sciences and
// castle level. Sciences missing from the catalog are skipped.
func (c *Catalog) EffectsFor(completed []string, castleLevel int) *effects.Bag {
	bag := effects.NewBag()
	ids := append([]string(nil), completed...)
	sort.Strings(ids)
	for _, id := range ids {
		if s, ok := c.sciences[id]; ok {
			// specs are validated at load time
			_ = bag.ApplySpec(s.Effects)
		}
	}
	if cl, ok := c.CastleLevel(castleLevel); ok {
		_ = bag.ApplySpec(cl.Effects)
	}
	return bag
}
