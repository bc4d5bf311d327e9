package core

import (
	"fmt"
	"math"
	"sort"
)

// ResourceKind names one of the tradable resources
type ResourceKind string

const (
	Gold     ResourceKind = "gold"
	Wood     ResourceKind = "wood"
	Stone    ResourceKind = "stone"
	Crystals ResourceKind = "crystals"
	Bits     ResourceKind = "bits"
	Code     ResourceKind = "code"
	Bio      ResourceKind = "bio"
	Energy   ResourceKind = "energy"
)

// AllResourceKinds lists every kind in display order
var AllResourceKinds = []ResourceKind{Gold, Wood, Stone, Crystals, Bits, Code, Bio, Energy}

// Valid reports whether k is a known resource kind
func (k ResourceKind) Valid() bool {
	for _, known := range AllResourceKinds {
		if k == known {
			return true
		}
	}
	return false
}

// Resources is a bundle of resource amounts. A missing key means zero.
type Resources map[ResourceKind]int

// Clone returns an independent copy
func (r Resources) Clone() Resources {
	out := make(Resources, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// Get returns the amount of kind k
func (r Resources) Get(k ResourceKind) int {
	return r[k]
}

// IsEmpty reports whether the bundle holds nothing
func (r Resources) IsEmpty() bool {
	for _, v := range r {
		if v != 0 {
			return false
		}
	}
	return true
}

// Add credits every amount in delta. r must be non-nil.
func (r Resources) Add(delta Resources) {
	for k, v := range delta {
		if v == 0 {
			continue
		}
		r[k] += v
	}
}

// Covers reports whether r holds at least cost of every kind
func (r Resources) Covers(cost Resources) bool {
	for k, v := range cost {
		if r[k] < v {
			return false
		}
	}
	return true
}

// Sub debits cost from r. Nothing is debited when any kind falls short.
func (r Resources) Sub(cost Resources) error {
	if !r.Covers(cost) {
		return fmt.Errorf("%w: need %s, have %s", ErrInsufficientResources, cost, r.Only(cost))
	}
	for k, v := range cost {
		r[k] -= v
	}
	return nil
}

// Only returns the subset of r for the kinds present in keys
func (r Resources) Only(keys Resources) Resources {
	out := make(Resources, len(keys))
	for k := range keys {
		out[k] = r[k]
	}
	return out
}

// Scale multiplies every amount by factor, rounding up
func (r Resources) Scale(factor float64) Resources {
	out := make(Resources, len(r))
	for k, v := range r {
		// epsilon keeps 150*0.9 at 135 despite float error
		out[k] = int(math.Ceil(float64(v)*factor - 1e-9))
	}
	return out
}

// NonZero drops zero entries
func (r Resources) NonZero() Resources {
	out := make(Resources, len(r))
	for k, v := range r {
		if v != 0 {
			out[k] = v
		}
	}
	return out
}

// Validate checks for unknown kinds and negative amounts
func (r Resources) Validate() error {
	for k, v := range r {
		if !k.Valid() {
			return fmt.Errorf("%w: unknown resource %q", ErrInvalidInput, k)
		}
		if v < 0 {
			return fmt.Errorf("%w: negative amount for %s", ErrInvalidInput, k)
		}
	}
	return nil
}

// Total sums every amount
func (r Resources) Total() int {
	total := 0
	for _, v := range r {
		total += v
	}
	return total
}

// String renders the bundle with kinds in a stable order
func (r Resources) String() string {
	keys := make([]string, 0, len(r))
	for k := range r {
		keys = append(keys, string(k))
	}
	sort.Strings(keys)
	s := "{"
	for i, k := range keys {
		if i > 0 {
			s += " "
		}
		s += fmt.Sprintf("%s:%d", k, r[ResourceKind(k)])
	}
	return s + "}"
}
