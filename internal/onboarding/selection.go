package onboarding

import "sort"

// SelectionSet holds the FRNs chosen for tracking.
type SelectionSet map[string]struct{}

func NewSelectionSet(frns ...string) SelectionSet {
	s := make(SelectionSet, len(frns))
	for _, frn := range frns {
		s[frn] = struct{}{}
	}
	return s
}

func (s SelectionSet) Has(frn string) bool {
	_, ok := s[frn]
	return ok
}

func (s SelectionSet) Len() int {
	return len(s)
}

// IDs returns the members in sorted order.
func (s SelectionSet) IDs() []string {
	ids := make([]string, 0, len(s))
	for frn := range s {
		ids = append(ids, frn)
	}
	sort.Strings(ids)
	return ids
}
