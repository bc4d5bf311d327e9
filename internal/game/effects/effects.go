// Package effects holds the bonus bag built from a player's completed
// sciences and castle level. Every bonus key is declared once in rules
// together with the way repeated contributions combine.
package effects

import (
	"encoding/json"
	"fmt"
	"sort"
)

// Key names a bonus
type Key string

const (
	BuildingProduction Key = "buildingProduction"
	MineProduction     Key = "mineProduction"
	DomainProduction   Key = "domainProduction"
	BuildSpeed         Key = "buildSpeed"
	ResearchSpeed      Key = "researchSpeed"
	WorkerSlots        Key = "workerSlots"
	UpgradeCostFactor  Key = "upgradeCostFactor"
	Espionage          Key = "espionage"
)

// Rule is how two contributions to the same key combine
type Rule int

const (
	Additive Rule = iota
	Multiplicative
	Override
)

// String returns the rule name
func (r Rule) String() string {
	switch r {
	case Additive:
		return "additive"
	case Multiplicative:
		return "multiplicative"
	case Override:
		return "override"
	default:
		return fmt.Sprintf("Unknown(%d)", int(r))
	}
}

var rules = map[Key]Rule{
	BuildingProduction: Additive,
	MineProduction:     Additive,
	DomainProduction:   Additive,
	BuildSpeed:         Additive,
	ResearchSpeed:      Additive,
	WorkerSlots:        Additive,
	UpgradeCostFactor:  Multiplicative,
	Espionage:          Override,
}

// MaxSpeedBonus caps build and research speed-ups
const MaxSpeedBonus = 0.9

// RuleFor returns the declared rule of k. Undeclared numeric keys add up,
// undeclared flags override.
func RuleFor(k Key, v interface{}) Rule {
	if r, ok := rules[k]; ok {
		return r
	}
	if _, isBool := v.(bool); isBool {
		return Override
	}
	return Additive
}

// Keys lists every declared key in a stable order
func Keys() []Key {
	keys := make([]Key, 0, len(rules))
	for k := range rules {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}

// Spec is a raw set of contributions as written in a catalog
type Spec map[Key]interface{}

// Validate checks that every value has a usable type for its rule
func (s Spec) Validate() error {
	for k, v := range s {
		if _, err := toFloat(v); err == nil {
			if rules[k] == Override && isFlagKey(k) {
				return fmt.Errorf("effect %s expects a boolean", k)
			}
			continue
		}
		if _, isBool := v.(bool); isBool {
			if r, declared := rules[k]; declared && r != Override {
				return fmt.Errorf("effect %s expects a number", k)
			}
			continue
		}
		return fmt.Errorf("effect %s has unsupported value %v", k, v)
	}
	return nil
}

func isFlagKey(k Key) bool {
	return k == Espionage
}

// Bag is the composed bonus state for one player at one moment
type Bag struct {
	values map[Key]float64
	flags  map[Key]bool
}

// NewBag returns an empty bag
func NewBag() *Bag {
	return &Bag{values: make(map[Key]float64), flags: make(map[Key]bool)}
}

// Apply folds one contribution into the bag
func (b *Bag) Apply(k Key, v interface{}) error {
	if flag, ok := v.(bool); ok {
		b.flags[k] = flag
		return nil
	}
	f, err := toFloat(v)
	if err != nil {
		return fmt.Errorf("effect %s: %w", k, err)
	}
	current, seen := b.values[k]
	switch RuleFor(k, v) {
	case Multiplicative:
		if !seen {
			current = 1
		}
		b.values[k] = current * f
	case Override:
		b.values[k] = f
	default:
		b.values[k] = current + f
	}
	return nil
}

// ApplySpec folds every contribution of s. Keys are applied in sorted order
// so overrides are deterministic.
func (b *Bag) ApplySpec(s Spec) error {
	keys := make([]Key, 0, len(s))
	for k := range s {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	for _, k := range keys {
		if err := b.Apply(k, s[k]); err != nil {
			return err
		}
	}
	return nil
}

// Float returns the numeric value of k, or the rule's identity when absent
func (b *Bag) Float(k Key) float64 {
	if v, ok := b.values[k]; ok {
		return v
	}
	if rules[k] == Multiplicative {
		return 1
	}
	return 0
}

// Int returns Float truncated
func (b *Bag) Int(k Key) int {
	return int(b.Float(k))
}

// Bool returns the flag value of k
func (b *Bag) Bool(k Key) bool {
	return b.flags[k]
}

// SpeedFactor converts a speed bonus into a duration multiplier
func SpeedFactor(bonus float64) float64 {
	if bonus < 0 {
		bonus = 0
	}
	if bonus > MaxSpeedBonus {
		bonus = MaxSpeedBonus
	}
	return 1 - bonus
}

// MarshalJSON renders the bag as a flat object including declared identities
func (b *Bag) MarshalJSON() ([]byte, error) {
	out := make(map[Key]interface{}, len(rules)+len(b.values)+len(b.flags))
	for k, r := range rules {
		if r == Override && isFlagKey(k) {
			out[k] = b.Bool(k)
			continue
		}
		out[k] = b.Float(k)
	}
	for k, v := range b.values {
		out[k] = v
	}
	for k, v := range b.flags {
		out[k] = v
	}
	return json.Marshal(out)
}

func toFloat(v interface{}) (float64, error) {
	switch n := v.(type) {
	case float64:
		return n, nil
	case float32:
		return float64(n), nil
	case int:
		return float64(n), nil
	case int64:
		return float64(n), nil
	case int32:
		return float64(n), nil
	default:
		return 0, fmt.Errorf("not a number: %v", v)
	}
}
