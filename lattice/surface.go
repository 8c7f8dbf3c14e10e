// Package lattice implements the fixed-topology grid the cellular automaton
// runs on: boundary-condition resolution (torus/cylinder/box), the
// Von Neumann neighbor offsets, and the integer species encoding.
package lattice

// Kind selects the boundary condition used to resolve possibly-out-of-range
// coordinates.
type Kind int

const (
	Torus Kind = iota
	Cylinder
	Box
)

// Offset is a (dRow, dCol) step.
type Offset struct {
	DR, DC int
}

// Offsets holds the four Von Neumann step directions in the fixed order
// N, W, S, E mandated by spec.md §4.1. Direction index d in [0,4) is used
// both for inner/outer neighbor lookups and for rotation-state face
// matching, so this order must never change.
var Offsets = [4]Offset{
	{-1, 0}, // N
	{0, -1}, // W
	{1, 0},  // S
	{0, 1},  // E
}

// Inner returns the one-step neighbor offset for direction d.
func Inner(d int) Offset {
	return Offsets[d]
}

// Outer returns the two-step neighbor offset for direction d.
func Outer(d int) Offset {
	o := Offsets[d]
	return Offset{o.DR * 2, o.DC * 2}
}

// Surface resolves coordinates against a fixed H×W lattice under a given
// boundary condition. It carries no mutable state.
type Surface struct {
	Height, Width int
	Kind          Kind
}

// New creates a Surface for the given dimensions and boundary kind.
func New(height, width int, kind Kind) Surface {
	return Surface{Height: height, Width: width, Kind: kind}
}

// Resolve maps a possibly-out-of-range (r, c) to a valid in-lattice
// coordinate, or reports ok=false if the coordinate is out of the surface.
func (s Surface) Resolve(r, c int) (rr, cc int, ok bool) {
	switch s.Kind {
	case Torus:
		return mod(r, s.Height), mod(c, s.Width), true
	case Cylinder:
		if r < 0 || r >= s.Height {
			return 0, 0, false
		}
		return r, mod(c, s.Width), true
	case Box:
		if r < 0 || r >= s.Height || c < 0 || c >= s.Width {
			return 0, 0, false
		}
		return r, c, true
	default:
		return 0, 0, false
	}
}

// ResolveOffset resolves the coordinate reached from (r,c) by the given
// offset.
func (s Surface) ResolveOffset(r, c int, o Offset) (int, int, bool) {
	return s.Resolve(r+o.DR, c+o.DC)
}

func mod(a, n int) int {
	m := a % n
	if m < 0 {
		m += n
	}
	return m
}
