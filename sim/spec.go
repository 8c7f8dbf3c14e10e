// Package sim holds the input schema for a cellular-automaton run: the
// ingredient list, parameter tables, reaction set, and rotation designation
// that together describe a simulation before the engine touches it.
package sim

import (
	"fmt"

	"chemca/lattice"
)

// Ingredient is one chemical-like species a simulation may place on the
// lattice. Name must be a single uppercase letter A-Z.
type Ingredient struct {
	Name          byte
	MolarFraction float64
	Color         string
}

// PairParameter is a single unordered-pair affinity entry, e.g. "A|B": 0.8.
type PairParameter struct {
	Relation string
	Value    float64
}

// Parameters holds the per-species mobility and pairwise affinity inputs
// that params.Tables is built from.
type Parameters struct {
	Pm []float64
	J  []PairParameter
}

// Reaction describes a reversible transformation between an ordered
// reactant pair and an ordered product pair, optionally routed through a
// transient intermediate pair.
type Reaction struct {
	Reactants       [2]byte
	Products        [2]byte
	Pr              [2]float64
	ReversePr       [2]float64
	HasIntermediate bool
}

// Rotation designates the at-most-one rotatable species and its rotation
// probability. Component == 0 means "no rotatable species".
type Rotation struct {
	Component byte
	Prot      float64
}

// Spec is the full, read-only input to a simulation run.
type Spec struct {
	Name             string
	IterationsNumber int
	GridHeight       int
	GridWidth        int
	Ingredients      []Ingredient
	Parameters       Parameters
	Reactions        []Reaction
	Rotation         Rotation

	// SurfaceKind selects the boundary condition (torus/cylinder/box). The
	// zero value is lattice.Torus, matching the original implementation's
	// default surface_type.
	SurfaceKind lattice.Kind

	// Seed seeds the run's RNG stream for reproducibility (spec.md §5: "the
	// RNG is a single logical stream and must be seedable"). Zero means the
	// caller did not pin a seed; callers outside the engine (cmd, httpapi)
	// substitute a time-derived seed in that case.
	Seed int64
}

// ComponentIndex returns the 1-based species index for an ingredient letter,
// i.e. 'A' -> 1, 'B' -> 2, etc., matching the encoding in spec.md §3.
func ComponentIndex(letter byte) int {
	return int(letter) - int('A') + 1
}

// ComponentLetter is the inverse of ComponentIndex.
func ComponentLetter(index int) byte {
	return byte('A' + index - 1)
}

// Validate checks a Spec against the validation taxonomy in spec.md §7.1.
// It never mutates the spec; a non-nil error means the engine must not
// start.
func Validate(s Spec) error {
	if s.GridHeight <= 0 || s.GridWidth <= 0 {
		return fmt.Errorf("sim: grid dimensions must be positive, got %dx%d", s.GridHeight, s.GridWidth)
	}
	if s.IterationsNumber < 0 {
		return fmt.Errorf("sim: iterationsNumber must be >= 0, got %d", s.IterationsNumber)
	}
	if len(s.Ingredients) == 0 {
		return fmt.Errorf("sim: at least one ingredient is required")
	}
	if len(s.Parameters.Pm) != len(s.Ingredients) {
		return fmt.Errorf("sim: Pm length %d does not match ingredient count %d", len(s.Parameters.Pm), len(s.Ingredients))
	}
	seen := make(map[byte]bool, len(s.Ingredients))
	for _, ing := range s.Ingredients {
		if ing.Name < 'A' || ing.Name > 'Z' {
			return fmt.Errorf("sim: ingredient name %q is not a single uppercase letter", string(ing.Name))
		}
		if seen[ing.Name] {
			return fmt.Errorf("sim: duplicate ingredient name %q", string(ing.Name))
		}
		seen[ing.Name] = true
		if ing.MolarFraction < 0 || ing.MolarFraction > 100 {
			return fmt.Errorf("sim: ingredient %q molar fraction %.4f out of [0,100]", string(ing.Name), ing.MolarFraction)
		}
	}
	for _, j := range s.Parameters.J {
		if err := validatePairRelation(j.Relation); err != nil {
			return fmt.Errorf("sim: J entry %q: %w", j.Relation, err)
		}
	}
	for i, r := range s.Reactions {
		for _, letter := range append(append([]byte{}, r.Reactants[:]...), r.Products[:]...) {
			if !seen[letter] {
				return fmt.Errorf("sim: reaction %d references unknown ingredient %q", i, string(letter))
			}
		}
		wantPr := 1
		wantReversePr := 1
		if r.HasIntermediate {
			wantPr = 2
			wantReversePr = 2
		}
		_ = wantReversePr
		if r.HasIntermediate {
			// Pr[0] forward-to-intermediate, Pr[1] intermediate-to-product;
			// ReversePr[0] intermediate-to-reactant, ReversePr[1] product-to-intermediate.
			if len(r.Pr) < 2 || len(r.ReversePr) < 2 {
				return fmt.Errorf("sim: reaction %d has hasIntermediate=true but Pr/ReversePr shorter than 2", i)
			}
		} else {
			if len(r.Pr) < wantPr || len(r.ReversePr) < wantPr {
				return fmt.Errorf("sim: reaction %d Pr/ReversePr shorter than required", i)
			}
		}
	}
	if s.Rotation.Component != 0 && !seen[s.Rotation.Component] {
		return fmt.Errorf("sim: rotation component %q is not a declared ingredient", string(s.Rotation.Component))
	}
	if s.Rotation.Prot < 0 || s.Rotation.Prot > 1 {
		return fmt.Errorf("sim: rotation probability %.4f out of [0,1]", s.Rotation.Prot)
	}
	return nil
}

func validatePairRelation(relation string) error {
	// Accept "X|Y" and the rotation-decorated "X1|Y2" etc. forms; only the
	// separator and letter-ness are checked here, the numeric lookup is
	// tolerant of anything else by design (spec.md §4.2: a miss defaults to
	// J=0, Pb=1).
	sep := -1
	for i := 0; i < len(relation); i++ {
		if relation[i] == '|' {
			sep = i
			break
		}
	}
	if sep <= 0 || sep >= len(relation)-1 {
		return fmt.Errorf("malformed pair relation")
	}
	return nil
}
