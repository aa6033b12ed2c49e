package rename

import (
	"fmt"
	"log"
	"strings"

	"github.com/pkg/errors"

	"github.com/mogaika/transfer_skin_cluster/skin"
)

// SceneLookup answers whether a node with exactly this name exists.
type SceneLookup interface {
	Exists(name string) bool
}

type LookupFunc func(name string) bool

func (f LookupFunc) Exists(name string) bool {
	return f(name)
}

type Kind int

const (
	Geometry Kind = iota
	Influence
)

func (k Kind) String() string {
	if k == Geometry {
		return "geometry"
	}
	return "influence"
}

// Mismatch is a stored name not found in the scene.
type Mismatch struct {
	Kind       Kind     `json:"kind"`
	Stored     string   `json:"stored"`
	Current    string   `json:"current"`
	Candidates []string `json:"candidates,omitempty"`
}

func (m Mismatch) String() string {
	if m.Stored != m.Current {
		return fmt.Sprintf("%v %q (as %q)", m.Kind, m.Stored, m.Current)
	}
	return fmt.Sprintf("%v %q", m.Kind, m.Stored)
}

type Renamed struct {
	Kind Kind   `json:"kind"`
	From string `json:"from"`
	To   string `json:"to"`
}

type Report struct {
	Strategy  string    `json:"strategy"`
	Renamed   []Renamed `json:"renamed"`
	Unmatched int       `json:"unmatched"`
}

type entry struct {
	kind    Kind
	stored  string
	current string
	matched bool
}

// Resolver reconciles the names of a decoded model with the live scene.
// Only exact name equality counts as a match.
type Resolver struct {
	scene   SceneLookup
	model   *skin.WeightModel
	entries []entry // geometry first, then influences in model order
}

func NewResolver(m *skin.WeightModel, scene SceneLookup) *Resolver {
	r := &Resolver{
		scene:   scene,
		model:   m,
		entries: make([]entry, 0, len(m.Influences)+1),
	}
	r.entries = append(r.entries, entry{kind: Geometry, stored: m.Geometry, current: m.Geometry})
	for _, infl := range m.Influences {
		r.entries = append(r.entries, entry{kind: Influence, stored: infl, current: infl})
	}
	for i := range r.entries {
		r.entries[i].matched = scene.Exists(r.entries[i].current)
	}
	return r
}

func (r *Resolver) Resolved() bool {
	for i := range r.entries {
		if !r.entries[i].matched {
			return false
		}
	}
	return true
}

func (r *Resolver) Unmatched() []Mismatch {
	result := make([]Mismatch, 0)
	for _, e := range r.entries {
		if !e.matched {
			result = append(result, Mismatch{Kind: e.kind, Stored: e.stored, Current: e.current})
		}
	}
	return result
}

// Apply renames unmatched entries. A substitution is committed only when the
// new name exists in the scene, so applying the same strategy again changes nothing.
func (r *Resolver) Apply(s Strategy) Report {
	report := Report{Strategy: s.String(), Renamed: make([]Renamed, 0)}
	for i := range r.entries {
		e := &r.entries[i]
		if e.matched {
			continue
		}
		name, ok := s.rename(e.current, e.stored)
		if ok && name != e.current && r.scene.Exists(name) {
			report.Renamed = append(report.Renamed, Renamed{Kind: e.kind, From: e.current, To: name})
			e.current = name
			e.matched = true
		}
		if !e.matched {
			report.Unmatched++
		}
	}
	log.Printf("[rename] %v: renamed %d, unmatched %d", report.Strategy, len(report.Renamed), report.Unmatched)
	return report
}

// Preview reports unmatched names with the candidates s would produce, without applying it.
func (r *Resolver) Preview(s Strategy) []Mismatch {
	result := r.Unmatched()
	for i := range result {
		if name, ok := s.rename(result[i].Current, result[i].Stored); ok && r.scene.Exists(name) {
			result[i].Candidates = []string{name}
		}
	}
	return result
}

// UnresolvedError lists names that are still not found in the scene.
type UnresolvedError struct {
	Names []Mismatch
}

func (e *UnresolvedError) Error() string {
	names := make([]string, len(e.Names))
	for i, m := range e.Names {
		names[i] = m.String()
	}
	return fmt.Sprintf("%d names not found in scene: %s", len(e.Names), strings.Join(names, ", "))
}

// Model returns a renamed copy of the source model. The source is not modified.
func (r *Resolver) Model() (*skin.WeightModel, error) {
	if !r.Resolved() {
		return nil, &UnresolvedError{Names: r.Unmatched()}
	}

	m := r.model.Clone()
	m.Geometry = r.entries[0].current
	owners := make(map[string]string, len(m.Influences))
	for i := range m.Influences {
		e := &r.entries[i+1]
		if prev, dup := owners[e.current]; dup {
			return nil, errors.Errorf("influences %q and %q both resolve to %q", prev, e.stored, e.current)
		}
		owners[e.current] = e.stored
		m.Influences[i] = e.current
	}
	return m, nil
}
