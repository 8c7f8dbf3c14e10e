// Package params precomputes the lookup tables an engine run needs from raw
// user input: per-species mobility, pairwise affinity, derived break
// probability, and rotation-aware label construction.
package params

import (
	"fmt"

	"chemca/sim"
)

// BreakDenominator is the constant in Pb = 1.5 / (J + 1.5).
const BreakDenominator = 1.5

// Tables bundles the precomputed per-run lookup data derived from
// sim.Parameters.
type Tables struct {
	// Pm[i] is the self-mobility of species index i+1 (1-based elsewhere).
	Pm []float64

	j  map[string]float64
	pb map[string]float64

	// RotationSpecies is the 1-based species index of the rotatable
	// species, or 0 if none.
	RotationSpecies int
	RotationLetter  byte
}

// Build constructs a Tables from sim.Parameters and the rotation spec.
func Build(p sim.Parameters, rotation sim.Rotation) *Tables {
	t := &Tables{
		Pm: append([]float64(nil), p.Pm...),
		j:  make(map[string]float64, len(p.J)),
		pb: make(map[string]float64, len(p.J)),
	}
	for _, entry := range p.J {
		t.j[entry.Relation] = entry.Value
		t.pb[entry.Relation] = BreakDenominator / (entry.Value + BreakDenominator)
	}
	if rotation.Component != 0 {
		t.RotationSpecies = sim.ComponentIndex(rotation.Component)
		t.RotationLetter = rotation.Component
	}
	return t
}

// lookup tries both orderings of a "X|Y" pair label in m, returning
// (value, true) on a hit.
func lookup(m map[string]float64, label1, label2 string) (float64, bool) {
	if v, ok := m[label1]; ok {
		return v, true
	}
	if v, ok := m[label2]; ok {
		return v, true
	}
	return 0, false
}

// J returns the affinity between two rotation-aware labels, defaulting to 0
// on a miss (spec.md §4.2).
func (t *Tables) J(label1, label2 string) float64 {
	v, _ := lookup(t.j, fmt.Sprintf("%s|%s", label1, label2), fmt.Sprintf("%s|%s", label2, label1))
	return v
}

// Pb returns the break probability between two rotation-aware labels,
// defaulting to 1.0 (no break resistance) on a miss.
func (t *Tables) Pb(label1, label2 string) float64 {
	v, ok := lookup(t.pb, fmt.Sprintf("%s|%s", label1, label2), fmt.Sprintf("%s|%s", label2, label1))
	if !ok {
		return 1.0
	}
	return v
}

// PmOf returns the self-mobility of the 1-based species index.
func (t *Tables) PmOf(speciesIndex int) float64 {
	return t.Pm[speciesIndex-1]
}

// Label builds the rotation-aware component label used for J/Pb lookups.
// For a non-rotatable species it is just the letter. For the rotatable
// species it appends "1" (same-face) or "2" (other-face), per spec.md §4.2
// and §4.5:
//
//   - inner/focal side: "1" when the rotation state's face index equals
//     the direction index d, "2" otherwise.
//   - outer side: "1" when |face - d| == 2 (directly opposing face), "2"
//     otherwise.
func (t *Tables) Label(letter byte, code int16, direction int, outer bool, isRotation bool) string {
	if !isRotation {
		return string(letter)
	}
	face := faceIndexFromCode(code)
	var sameFace bool
	if outer {
		sameFace = abs(face-direction) == 2
	} else {
		sameFace = face == direction
	}
	if sameFace {
		return string(letter) + "1"
	}
	return string(letter) + "2"
}

// faceIndexFromCode maps a rotation-state's stored face (1..4) back to the
// 0-based direction index used for lookups. spec.md defines faces via the
// RotationManager's state ordering which follows lattice.Offsets (N,W,S,E);
// face k corresponds to direction index k-1.
func faceIndexFromCode(code int16) int {
	return int(code)%10 - 1
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
