package model

import (
	"slices"
)

// Graph is the collected mapping from user ID to its recorded entry.
// Each ID appears at most once, representing the outcome of the first and
// only visit to that user. Insertion order is irrelevant.
//
// encoding/json writes integer map keys as decimal strings, which gives the
// {"<id>": {...}} artifact shape without a custom marshaler.
type Graph map[EntityID]Entry

// NewGraph returns an empty Graph.
func NewGraph() Graph {
	return make(Graph)
}

// Len returns the number of collected users.
func (g Graph) Len() int {
	return len(g)
}

// IDs returns the collected user IDs in ascending order.
func (g Graph) IDs() []EntityID {
	ids := make([]EntityID, 0, len(g))
	for id := range g {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// EdgeCount returns the total number of (user, friend) pairs recorded.
func (g Graph) EdgeCount() int {
	n := 0
	for _, e := range g {
		n += len(e.Friends)
	}
	return n
}

// IDSet is a set of user IDs. The crawler uses it as the visited set.
type IDSet map[EntityID]struct{}

// NewIDSet returns an empty IDSet.
func NewIDSet() IDSet {
	return make(IDSet)
}

// Add inserts id into the set.
func (s IDSet) Add(id EntityID) {
	s[id] = struct{}{}
}

// Has reports whether id is in the set.
func (s IDSet) Has(id EntityID) bool {
	_, ok := s[id]
	return ok
}

// Len returns the number of IDs in the set.
func (s IDSet) Len() int {
	return len(s)
}

// Slice returns the IDs in ascending order.
func (s IDSet) Slice() []EntityID {
	ids := make([]EntityID, 0, len(s))
	for id := range s {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}
