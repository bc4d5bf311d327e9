package memory

import (
	"fmt"
	"sort"

	"github.com/eduland/eduland-server/internal/game/core"
)

type document[T any] interface {
	DocID() string
	Clone() T
}

// staged is one collection seen through a transaction. Writes and deletes
// are buffered until commit; reads overlay them on the committed documents.
type staged[T document[T]] struct {
	name    string
	base    map[string]T
	writes  map[string]T
	deleted map[string]bool
}

func newStaged[T document[T]](name string, base map[string]T) *staged[T] {
	return &staged[T]{
		name:    name,
		base:    base,
		writes:  make(map[string]T),
		deleted: make(map[string]bool),
	}
}

func (s *staged[T]) get(id string) (T, error) {
	if d, ok := s.writes[id]; ok {
		return d.Clone(), nil
	}
	if d, ok := s.base[id]; ok && !s.deleted[id] {
		return d.Clone(), nil
	}
	var zero T
	return zero, fmt.Errorf("%s %q: %w", s.name, id, core.ErrNotFound)
}

func (s *staged[T]) put(d T) error {
	id := d.DocID()
	if id == "" {
		return fmt.Errorf("%s: empty id: %w", s.name, core.ErrInvalidInput)
	}
	s.writes[id] = d.Clone()
	delete(s.deleted, id)
	return nil
}

func (s *staged[T]) del(id string) error {
	if _, err := s.get(id); err != nil {
		return err
	}
	delete(s.writes, id)
	s.deleted[id] = true
	return nil
}

// list returns clones of every visible document accepted by match, ordered
// by less (or by id when less is nil)
func (s *staged[T]) list(match func(T) bool, less func(a, b T) bool) []T {
	var out []T
	for id, d := range s.base {
		if s.deleted[id] {
			continue
		}
		if _, overwritten := s.writes[id]; overwritten {
			continue
		}
		if match == nil || match(d) {
			out = append(out, d.Clone())
		}
	}
	for _, d := range s.writes {
		if match == nil || match(d) {
			out = append(out, d.Clone())
		}
	}
	if less == nil {
		less = func(a, b T) bool { return a.DocID() < b.DocID() }
	}
	sort.Slice(out, func(i, j int) bool { return less(out[i], out[j]) })
	return out
}

func (s *staged[T]) dirty() bool {
	return len(s.writes) > 0 || len(s.deleted) > 0
}

func (s *staged[T]) commit() {
	for id := range s.deleted {
		delete(s.base, id)
	}
	for id, d := range s.writes {
		s.base[id] = d
	}
}
