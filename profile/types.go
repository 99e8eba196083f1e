// Package profile holds persona voices and world-building elements.
//
// Tables are loaded from two small text files and exposed as immutable
// snapshots through a Store. Callers keep a *Store handle and read the
// current Snapshot; Reload swaps in a fresh one.
package profile

import "strings"

// Persona is a named voice profile the model is asked to write in.
type Persona struct {
	Key         string `json:"key" ini:"-"`
	Name        string `json:"name" ini:"name"`
	Personality string `json:"personality" ini:"personality"`
	Interests   string `json:"interests" ini:"interests"`
	Style       string `json:"style" ini:"style"`
	Influences  string `json:"influences" ini:"influences"`
}

// IsZero reports whether no persona field is set.
func (p Persona) IsZero() bool {
	return p.Name == "" && p.Personality == "" && p.Interests == "" && p.Style == "" && p.Influences == ""
}

// Element is a short world-building concept injected as inspiration.
type Element struct {
	Key         string `json:"key"`
	Description string `json:"description"`
}

// Snapshot is an immutable view of the persona and element tables.
// Key order follows the source file. Lookups ignore case.
type Snapshot struct {
	personas     map[string]Persona
	personaOrder []string
	elements     map[string]Element
	elementOrder []string
}

// NewSnapshot builds a snapshot. Later duplicates replace earlier entries but keep
// the first position.
func NewSnapshot(personas []Persona, elements []Element) *Snapshot {
	s := &Snapshot{
		personas: make(map[string]Persona, len(personas)),
		elements: make(map[string]Element, len(elements)),
	}

	for _, p := range personas {
		k := foldKey(p.Key)
		if _, ok := s.personas[k]; !ok {
			s.personaOrder = append(s.personaOrder, k)
		}
		s.personas[k] = p
	}
	for _, e := range elements {
		k := foldKey(e.Key)
		if _, ok := s.elements[k]; !ok {
			s.elementOrder = append(s.elementOrder, k)
		}
		s.elements[k] = e
	}

	return s
}

// Persona returns the persona for key.
func (s *Snapshot) Persona(key string) (Persona, bool) {
	if s == nil {
		return Persona{}, false
	}
	p, ok := s.personas[foldKey(key)]
	return p, ok
}

// Element returns the element for key.
func (s *Snapshot) Element(key string) (Element, bool) {
	if s == nil {
		return Element{}, false
	}
	e, ok := s.elements[foldKey(key)]
	return e, ok
}

// Personas returns all personas in file order.
func (s *Snapshot) Personas() []Persona {
	if s == nil {
		return nil
	}
	out := make([]Persona, 0, len(s.personaOrder))
	for _, k := range s.personaOrder {
		out = append(out, s.personas[k])
	}
	return out
}

// Elements returns all elements in file order.
func (s *Snapshot) Elements() []Element {
	if s == nil {
		return nil
	}
	out := make([]Element, 0, len(s.elementOrder))
	for _, k := range s.elementOrder {
		out = append(out, s.elements[k])
	}
	return out
}

func foldKey(key string) string {
	return strings.ToLower(strings.TrimSpace(key))
}
