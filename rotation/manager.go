// Package rotation implements the at-most-one rotatable species: eligibility
// checking and face reassignment, per spec.md §4.3.
package rotation

import (
	"math/rand"

	"chemca/lattice"
	"chemca/sim"
)

// Manager decides rotation eligibility and picks new orientations for the
// designated rotatable species. A zero-value Manager (SpeciesIndex == 0)
// means "no rotatable species" and Eligible/TryRotate are never called for
// it because no cell can carry a rotation code in that case.
type Manager struct {
	SpeciesIndex int // 1-based; 0 means none
	Letter       byte
	Prot         float64
	States       [4]int16 // encoded codes for faces 1..4
}

// New builds a Manager from the rotation spec. If r.Component == 0, the
// returned Manager has SpeciesIndex == 0 and is otherwise inert.
func New(r sim.Rotation) *Manager {
	m := &Manager{Prot: r.Prot}
	if r.Component == 0 {
		return m
	}
	m.SpeciesIndex = sim.ComponentIndex(r.Component)
	m.Letter = r.Component
	for face := 1; face <= 4; face++ {
		m.States[face-1] = lattice.RotationCode(m.SpeciesIndex, face)
	}
	return m
}

// Enabled reports whether a rotatable species is designated at all.
func (m *Manager) Enabled() bool { return m.SpeciesIndex != 0 }

// Eligible reports whether the rotation-state cell at (r, c) may attempt to
// rotate this step: every legal inner Von Neumann neighbor must be empty.
// An out-of-surface neighbor does not block eligibility.
func (m *Manager) Eligible(surf lattice.Surface, grid *lattice.Grid, r, c int) bool {
	for d := 0; d < 4; d++ {
		off := lattice.Inner(d)
		nr, nc, ok := surf.ResolveOffset(r, c, off)
		if !ok {
			continue
		}
		if lattice.IsOccupied(grid.Get(nr, nc)) {
			return false
		}
	}
	return true
}

// TryRotate attempts a rotation at (r, c) holding code `current`. It
// performs the Bernoulli(Prot) trial itself and, on success, overwrites the
// cell with a uniformly chosen face among the other three. It returns true
// iff a rotation actually happened.
//
// Caller must have already confirmed Eligible.
func (m *Manager) TryRotate(rng *rand.Rand, grid *lattice.Grid, r, c int, current int16) bool {
	if rng.Float64() >= m.Prot {
		return false
	}
	choices := make([]int16, 0, 3)
	for _, s := range m.States {
		if s != current {
			choices = append(choices, s)
		}
	}
	if len(choices) == 0 {
		return false
	}
	grid.Set(r, c, choices[rng.Intn(len(choices))])
	return true
}
