// Package simstate tracks the per-sweep scratch state a CA engine needs:
// which cells have moved or reacted this sweep, which pairs have been ruled
// out for reaction, and which intermediate cells are bonded to which
// partner across sweeps.
package simstate

// Coord is a lattice coordinate.
type Coord struct {
	R, C int
}

// pairKey is an ordered (from, to) tuple used to record "not reacted"
// attempts, which are directional per spec.md §4.4 step 2 (checked both as
// (p,q) and (q,p)).
type pairKey struct {
	From, To Coord
}

// State is the per-sweep iteration state plus the cross-sweep intermediate
// pairing. Moved/Reacted/NotReacted are cleared at the start of every
// sweep; IntermediatePairs persists.
type State struct {
	moved      map[Coord]bool
	reacted    map[Coord]bool
	notReacted map[pairKey]bool

	// intermediatePairs maps a bonded intermediate cell to its partner.
	// Replaces the Python original's list of duplicated 4-tuples (one per
	// ordering) with a symmetric coordinate->coordinate map, per spec.md §9.
	intermediatePairs map[Coord]Coord
}

// New creates an empty State.
func New() *State {
	return &State{
		moved:             make(map[Coord]bool),
		reacted:           make(map[Coord]bool),
		notReacted:        make(map[pairKey]bool),
		intermediatePairs: make(map[Coord]Coord),
	}
}

// ClearSweep resets the per-sweep sets. IntermediatePairs is untouched.
func (s *State) ClearSweep() {
	s.moved = make(map[Coord]bool)
	s.reacted = make(map[Coord]bool)
	s.notReacted = make(map[pairKey]bool)
}

// MarkMoved records that a cell moved into target this sweep.
func (s *State) MarkMoved(target Coord) { s.moved[target] = true }

// HasMoved reports whether a coordinate has moved this sweep.
func (s *State) HasMoved(c Coord) bool { return s.moved[c] }

// MarkReacted records that a cell reacted this sweep.
func (s *State) MarkReacted(c Coord) { s.reacted[c] = true }

// HasReacted reports whether a coordinate reacted this sweep.
func (s *State) HasReacted(c Coord) bool { return s.reacted[c] }

// MarkNotReacted records that the ordered pair (from, to) must not react
// again this sweep.
func (s *State) MarkNotReacted(from, to Coord) {
	s.notReacted[pairKey{from, to}] = true
}

// IsNotReacted reports whether (from, to) or (to, from) was marked not
// reacted this sweep, matching spec.md §4.4's symmetric check.
func (s *State) IsNotReacted(from, to Coord) bool {
	return s.notReacted[pairKey{from, to}] || s.notReacted[pairKey{to, from}]
}

// Pair bonds two intermediate coordinates symmetrically.
func (s *State) Pair(a, b Coord) {
	s.intermediatePairs[a] = b
	s.intermediatePairs[b] = a
}

// Unpair removes the bond between a and b, if present, in both directions.
func (s *State) Unpair(a, b Coord) {
	if s.intermediatePairs[a] == b {
		delete(s.intermediatePairs, a)
	}
	if s.intermediatePairs[b] == a {
		delete(s.intermediatePairs, b)
	}
}

// PartnerOf returns the coordinate bonded to c, if any.
func (s *State) PartnerOf(c Coord) (Coord, bool) {
	p, ok := s.intermediatePairs[c]
	return p, ok
}

// IsPairedWith reports whether a and b are bonded to each other.
func (s *State) IsPairedWith(a, b Coord) bool {
	p, ok := s.intermediatePairs[a]
	return ok && p == b
}

// PairCount returns the number of bonded coordinates (each pair counts
// twice, once per side).
func (s *State) PairCount() int {
	return len(s.intermediatePairs)
}
