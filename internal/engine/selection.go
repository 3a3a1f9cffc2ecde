package engine

import "slices"

// Selection is an ordered set of shape handles. The primary handle is the
// most recently added one and drives single-shape editing.
type Selection struct {
	ids     []string
	primary string
}

// Select replaces the selection with id, or with additive set toggles id:
// removing it hands primary to the last remaining handle, adding it makes it
// primary.
func (s *Selection) Select(id string, additive bool) {
	if !additive {
		s.ids = []string{id}
		s.primary = id
		return
	}
	if i := slices.Index(s.ids, id); i >= 0 {
		s.ids = slices.Delete(s.ids, i, i+1)
		if s.primary == id {
			s.primary = ""
			if len(s.ids) > 0 {
				s.primary = s.ids[len(s.ids)-1]
			}
		}
		return
	}
	s.ids = append(s.ids, id)
	s.primary = id
}

// Add appends id unless it is already selected.
func (s *Selection) Add(id string) {
	if !s.Contains(id) {
		s.Select(id, true)
	}
}

// Clear deselects everything.
func (s *Selection) Clear() {
	s.ids = nil
	s.primary = ""
}

// Remove drops handles from the selection, e.g. after their shapes are
// deleted.
func (s *Selection) Remove(ids ...string) {
	for _, id := range ids {
		if s.Contains(id) {
			s.Select(id, true)
		}
	}
}

// Retain drops every handle for which keep returns false.
func (s *Selection) Retain(keep func(id string) bool) {
	var drop []string
	for _, id := range s.ids {
		if !keep(id) {
			drop = append(drop, id)
		}
	}
	s.Remove(drop...)
}

func (s *Selection) Contains(id string) bool {
	return slices.Contains(s.ids, id)
}

// IDs returns the selected handles in selection order.
func (s *Selection) IDs() []string {
	return slices.Clone(s.ids)
}

func (s *Selection) Len() int {
	return len(s.ids)
}

func (s *Selection) Primary() string {
	return s.primary
}

// Single returns the handle when exactly one shape is selected.
func (s *Selection) Single() (string, bool) {
	if len(s.ids) != 1 {
		return "", false
	}
	return s.ids[0], true
}
