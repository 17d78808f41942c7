package combobox

import (
	"slices"

	tea "github.com/charmbracelet/bubbletea"
)

// SingleChangedMsg proposes a new value for a single-select combobox.
// A nil Value means nothing is selected.
type SingleChangedMsg struct {
	ID    string
	Value *Option
}

// MultiChangedMsg proposes a new value for a multi-select combobox. Value is
// in selection order and never holds two options with the same ID.
type MultiChangedMsg struct {
	ID    string
	Value []Option
}

// selection adapts the two value shapes to one widget. Add, Remove and
// Clear never touch the held value. They return the change message the
// caller has to apply, or nil when nothing would change.
//
// A change that has not been written back yet stays pending, and the next
// change is built on top of it. Two commits made before the host applies
// the first one therefore both survive.
type selection interface {
	Multi() bool
	// Selected is the held value.
	Selected() []Option
	// Proposed is the pending value, or the held value when nothing is
	// pending.
	Proposed() []Option
	// Set writes a value from outside and drops whatever is pending.
	Set(values []Option)
	// Apply writes back a change this selection emitted.
	Apply(values []Option)
	Add(o Option) tea.Msg
	Remove(id string) tea.Msg
	Clear() tea.Msg
}

// proposal is the last change emitted and not yet written back.
type proposal struct {
	next    []Option
	pending bool
}

func (p *proposal) propose(values []Option) {
	p.next = values
	p.pending = true
}

func (p *proposal) drop() {
	p.next = nil
	p.pending = false
}

// settle drops the proposal once the host has written it back. An earlier
// change arriving late leaves the newer proposal in place.
func (p *proposal) settle(applied []Option) {
	if p.pending && sameIDs(p.next, applied) {
		p.drop()
	}
}

func sameIDs(x, y []Option) bool {
	return slices.EqualFunc(x, y, func(a, b Option) bool { return a.ID == b.ID })
}

type singleSelection struct {
	id    string
	value *Option
	proposal
}

func (s *singleSelection) Multi() bool { return false }

func (s *singleSelection) Selected() []Option {
	if s.value == nil {
		return nil
	}
	return []Option{*s.value}
}

func (s *singleSelection) Proposed() []Option {
	if s.pending {
		return s.next
	}
	return s.Selected()
}

func (s *singleSelection) Set(values []Option) {
	s.hold(values)
	s.drop()
}

func (s *singleSelection) Apply(values []Option) {
	s.hold(values)
	s.settle(values)
}

func (s *singleSelection) hold(values []Option) {
	if len(values) == 0 {
		s.value = nil
		return
	}
	v := values[0]
	s.value = &v
}

func (s *singleSelection) Add(o Option) tea.Msg {
	s.propose([]Option{o})
	return SingleChangedMsg{ID: s.id, Value: &o}
}

func (s *singleSelection) Remove(id string) tea.Msg {
	current := s.Proposed()
	if len(current) == 0 || current[0].ID != id {
		return nil
	}
	s.propose(nil)
	return SingleChangedMsg{ID: s.id}
}

func (s *singleSelection) Clear() tea.Msg {
	if len(s.Proposed()) == 0 {
		return nil
	}
	s.propose(nil)
	return SingleChangedMsg{ID: s.id}
}

type multiSelection struct {
	id     string
	values []Option
	proposal
}

func (s *multiSelection) Multi() bool { return true }

func (s *multiSelection) Selected() []Option {
	return s.values
}

func (s *multiSelection) Proposed() []Option {
	if s.pending {
		return s.next
	}
	return s.values
}

func (s *multiSelection) Set(values []Option) {
	s.hold(values)
	s.drop()
}

func (s *multiSelection) Apply(values []Option) {
	s.hold(values)
	s.settle(s.values)
}

// hold keeps the first occurrence of each ID.
func (s *multiSelection) hold(values []Option) {
	s.values = s.values[:0:0]
	for _, v := range values {
		if !containsID(s.values, v.ID) {
			s.values = append(s.values, v)
		}
	}
}

func (s *multiSelection) Add(o Option) tea.Msg {
	current := s.Proposed()
	if containsID(current, o.ID) {
		return nil
	}
	next := append(slices.Clone(current), o)
	s.propose(next)
	return MultiChangedMsg{ID: s.id, Value: slices.Clone(next)}
}

func (s *multiSelection) Remove(id string) tea.Msg {
	current := s.Proposed()
	if !containsID(current, id) {
		return nil
	}
	next := slices.DeleteFunc(slices.Clone(current), func(o Option) bool {
		return o.ID == id
	})
	s.propose(next)
	return MultiChangedMsg{ID: s.id, Value: slices.Clone(next)}
}

func (s *multiSelection) Clear() tea.Msg {
	if len(s.Proposed()) == 0 {
		return nil
	}
	s.propose([]Option{})
	return MultiChangedMsg{ID: s.id, Value: []Option{}}
}
