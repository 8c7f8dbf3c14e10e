// Package movement implements the affinity-driven hop decision for a focal
// cell: scoring empty inner neighbors by the species behind them, and
// weighing the hop against the break probability of any occupied inner
// neighbors, per spec.md §4.5.
package movement

import (
	"math/rand"

	"chemca/lattice"
	"chemca/params"
	"chemca/sim"
	"chemca/simstate"
)

// emptyCandidate is one direction's affinity score toward an empty inner
// neighbor.
type emptyCandidate struct {
	direction int
	r, c      int
	j         float64
}

// Analyzer decides whether an eligible focal cell hops this sweep.
type Analyzer struct {
	Tables *params.Tables
}

// New builds an Analyzer over precomputed lookup tables.
func New(tables *params.Tables) *Analyzer {
	return &Analyzer{Tables: tables}
}

// Attempt evaluates and, on success, executes a hop for the focal cell at
// (r, c) holding code `code`. Caller must have already confirmed the cell is
// occupied, not reacted, not moved this sweep, and not an intermediate.
func (a *Analyzer) Attempt(rng *rand.Rand, surf lattice.Surface, grid *lattice.Grid, state *simstate.State, r, c int, code int16) bool {
	focalIndex, focalIsRotation := classify(code)
	focalLetter := sim.ComponentLetter(focalIndex)

	var empties []emptyCandidate
	var pbProd float64 = 1.0

	for d := 0; d < 4; d++ {
		nr, nc, ok := surf.ResolveOffset(r, c, lattice.Inner(d))
		if !ok {
			continue
		}
		neighborCode := grid.Get(nr, nc)

		if lattice.IsEmpty(neighborCode) {
			j := a.affinity(surf, grid, r, c, d, focalLetter, code, focalIsRotation)
			empties = append(empties, emptyCandidate{direction: d, r: nr, c: nc, j: j})
			continue
		}

		pbProd *= a.breakProbability(neighborCode, d, focalLetter, code, focalIsRotation)
	}

	target, ok := selectTarget(rng, empties)
	if !ok {
		return false
	}

	pm := a.Tables.PmOf(focalIndex)
	if rng.Float64() >= pm*pbProd {
		return false
	}

	grid.Set(target.r, target.c, code)
	grid.Set(r, c, lattice.Empty)
	state.MarkMoved(simstate.Coord{R: target.r, C: target.c})
	return true
}

// affinity computes J_d by inspecting the outer neighbor in direction d.
func (a *Analyzer) affinity(surf lattice.Surface, grid *lattice.Grid, r, c, d int, focalLetter byte, focalCode int16, focalIsRotation bool) float64 {
	or, oc, ok := surf.ResolveOffset(r, c, lattice.Outer(d))
	if !ok {
		return 0
	}
	outerCode := grid.Get(or, oc)
	if lattice.IsIntermediate(outerCode) || lattice.IsEmpty(outerCode) {
		return 0
	}

	outerIndex, outerIsRotation := classify(outerCode)
	outerLetter := sim.ComponentLetter(outerIndex)

	focalLabel := a.Tables.Label(focalLetter, focalCode, d, false, focalIsRotation)
	outerLabel := a.Tables.Label(outerLetter, outerCode, d, true, outerIsRotation)
	return a.Tables.J(focalLabel, outerLabel)
}

// breakProbability computes Pb[focal | occupied_neighbor], treating the
// occupied inner neighbor analogously to the "outer" role in affinity, per
// spec.md §4.5.
func (a *Analyzer) breakProbability(neighborCode int16, d int, focalLetter byte, focalCode int16, focalIsRotation bool) float64 {
	if lattice.IsIntermediate(neighborCode) {
		return 1.0
	}
	neighborIndex, neighborIsRotation := classify(neighborCode)
	neighborLetter := sim.ComponentLetter(neighborIndex)

	focalLabel := a.Tables.Label(focalLetter, focalCode, d, false, focalIsRotation)
	neighborLabel := a.Tables.Label(neighborLetter, neighborCode, d, true, neighborIsRotation)
	return a.Tables.Pb(focalLabel, neighborLabel)
}

// classify returns the 1-based species index and whether the code is a
// rotation-state code.
func classify(code int16) (int, bool) {
	if lattice.IsRotation(code) {
		return lattice.RotationSpecies(code), true
	}
	return int(code), false
}

// selectTarget implements spec.md §4.5's three-branch tie-break over J_max.
func selectTarget(rng *rand.Rand, empties []emptyCandidate) (emptyCandidate, bool) {
	if len(empties) == 0 {
		return emptyCandidate{}, false
	}

	jMax := empties[0].j
	for _, e := range empties[1:] {
		if e.j > jMax {
			jMax = e.j
		}
	}

	var pool []emptyCandidate
	switch {
	case jMax >= 1:
		for _, e := range empties {
			if e.j == jMax {
				pool = append(pool, e)
			}
		}
	case jMax == 0:
		pool = empties
	default: // jMax < 1 and jMax != 0 (0 < jMax < 1, or all negative)
		for _, e := range empties {
			if e.j == 0 {
				pool = append(pool, e)
			}
		}
	}

	if len(pool) == 0 {
		return emptyCandidate{}, false
	}
	return pool[rng.Intn(len(pool))], true
}
