package ca

import (
	"math"
	"math/rand"
	"sort"

	"chemca/lattice"
)

// EmptyFraction is the fixed fraction of the lattice left empty at
// initialization, per spec.md §3.
const EmptyFraction = 0.31

// CalculateCellCounts splits `total` among entries whose percentages are
// given in `fractions` (each in [0,100], nominally summing to 100) using
// largest-remainder rounding: floor each share, then hand the leftover
// units to the entries with the largest fractional remainders, per
// spec.md §8 property 2.
func CalculateCellCounts(total int, fractions []float64) []int {
	n := len(fractions)
	exact := make([]float64, n)
	counts := make([]int, n)
	sumFloors := 0
	for i, f := range fractions {
		exact[i] = f * float64(total) / 100.0
		counts[i] = int(math.Floor(exact[i]))
		sumFloors += counts[i]
	}

	type remainder struct {
		idx int
		rem float64
	}
	remainders := make([]remainder, n)
	for i := range fractions {
		remainders[i] = remainder{idx: i, rem: exact[i] - float64(counts[i])}
	}
	sort.SliceStable(remainders, func(a, b int) bool {
		return remainders[a].rem > remainders[b].rem
	})

	leftover := total - sumFloors
	for k := 0; k < leftover && k < n; k++ {
		counts[remainders[k].idx]++
	}
	return counts
}

// placeInitialSpecies fills `grid` with NCELL occupied cells split among
// species by molar fraction, leaving the rest empty. Species placement
// order follows ingredient order; a designated rotatable species gets a
// uniformly random face per placed cell, per spec.md §3.
func placeInitialSpecies(rng *rand.Rand, grid *lattice.Grid, counts []int, rotationSpecies int) {
	total := grid.H * grid.W
	positions := make([]int, total)
	for i := range positions {
		positions[i] = i
	}
	rng.Shuffle(total, func(i, j int) { positions[i], positions[j] = positions[j], positions[i] })

	cursor := 0
	for speciesIdx, count := range counts {
		speciesIndex := speciesIdx + 1
		for k := 0; k < count; k++ {
			pos := positions[cursor]
			cursor++
			r, c := pos/grid.W, pos%grid.W
			code := int16(speciesIndex)
			if speciesIndex == rotationSpecies {
				face := rng.Intn(4) + 1
				code = lattice.RotationCode(speciesIndex, face)
			}
			grid.Set(r, c, code)
		}
	}
}
