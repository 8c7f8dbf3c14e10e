// Package reaction enumerates candidate reactions between a focal cell and
// its legal neighbors, samples one (including a synthetic "no reaction"
// outcome), and applies the chosen transition, per spec.md §4.4.
package reaction

import (
	"math/rand"

	"chemca/lattice"
	"chemca/simstate"
)

// resolved is a reaction precomputed into cell codes so the hot path never
// re-derives intermediate codes or ingredient indices.
type resolved struct {
	reactants       [2]int16
	products        [2]int16
	intermediates   [2]int16
	hasIntermediate bool
	pr              [2]float64 // [p_f, p_fi]
	reversePr       [2]float64 // [p_r, p_ri]
}

// Candidate is a single possible outcome for the focal cell: either "apply
// this transition" or the synthetic "do nothing" outcome.
type Candidate struct {
	NoReaction bool
	Products   [2]int16
	Positions  [2]simstate.Coord
	Prob       float64
}

// Processor finds and applies reactions for a single simulation run.
type Processor struct {
	reactions []resolved
}

// New precomputes a Processor from the reaction list, whose entries already
// hold species codes. Intermediate codes are derived once, up front.
func New(reactions []ReactionInput) *Processor {
	p := &Processor{reactions: make([]resolved, 0, len(reactions))}
	for _, r := range reactions {
		res := resolved{
			reactants:       r.Reactants,
			products:        r.Products,
			hasIntermediate: r.HasIntermediate,
			pr:              r.Pr,
			reversePr:       r.ReversePr,
		}
		if r.HasIntermediate {
			i0, i1 := lattice.IntermediateCodes(int(r.Reactants[0]), int(r.Reactants[1]))
			res.intermediates = [2]int16{i0, i1}
		}
		p.reactions = append(p.reactions, res)
	}
	return p
}

// ReactionInput is the cell-code form of sim.Reaction, built by the caller
// (ca.Engine) which knows how to translate ingredient letters to species
// indices.
type ReactionInput struct {
	Reactants       [2]int16
	Products        [2]int16
	Pr              [2]float64
	ReversePr       [2]float64
	HasIntermediate bool
}

// FindCandidates enumerates every legal candidate reaction for the focal
// cell at (r,c) holding code `code`, per spec.md §4.4 steps 1-3.
func (p *Processor) FindCandidates(surf lattice.Surface, grid *lattice.Grid, state *simstate.State, r, c int, code int16) []Candidate {
	pos := simstate.Coord{R: r, C: c}
	var candidates []Candidate

	for d := 0; d < 4; d++ {
		nr, nc, ok := surf.ResolveOffset(r, c, lattice.Inner(d))
		if !ok {
			continue
		}
		neighbor := simstate.Coord{R: nr, C: nc}
		ncode := grid.Get(nr, nc)

		if p.shouldSkipNeighbor(code, ncode, pos, neighbor, state) {
			continue
		}

		for _, rr := range p.reactions {
			candidates = append(candidates, rr.matchCandidates(code, ncode, pos, neighbor)...)
		}
	}
	return candidates
}

func (p *Processor) shouldSkipNeighbor(code, ncode int16, pos, neighbor simstate.Coord, state *simstate.State) bool {
	if lattice.IsEmpty(ncode) || ncode == code {
		return true
	}
	if state.IsNotReacted(pos, neighbor) {
		return true
	}
	if state.HasReacted(neighbor) || state.HasMoved(neighbor) {
		return true
	}
	if lattice.IsIntermediate(code) && lattice.IsIntermediate(ncode) && !state.IsPairedWith(pos, neighbor) {
		return true
	}
	return false
}

// matchCandidates implements the 8-case match table in spec.md §4.4 step 3
// for a single resolved reaction and a single (focal, neighbor) code pair.
func (rr resolved) matchCandidates(focal, neighborCode int16, pos, neighbor simstate.Coord) []Candidate {
	var out []Candidate
	a, b := rr.reactants[0], rr.reactants[1]
	x, y := rr.products[0], rr.products[1]

	forwardProducts := rr.products
	if rr.hasIntermediate {
		forwardProducts = rr.intermediates
	}

	switch {
	case focal == a && neighborCode == b:
		out = append(out, Candidate{Products: forwardProducts, Positions: [2]simstate.Coord{pos, neighbor}, Prob: rr.pr[0]})
	case focal == b && neighborCode == a:
		out = append(out, Candidate{Products: forwardProducts, Positions: [2]simstate.Coord{neighbor, pos}, Prob: rr.pr[0]})
	}

	reverseProducts := rr.reactants
	reverseIdx := 0
	if rr.hasIntermediate {
		reverseProducts = rr.intermediates
		reverseIdx = 1
	}
	switch {
	case focal == x && neighborCode == y:
		out = append(out, Candidate{Products: reverseProducts, Positions: [2]simstate.Coord{pos, neighbor}, Prob: rr.reversePr[reverseIdx]})
	case focal == y && neighborCode == x:
		out = append(out, Candidate{Products: reverseProducts, Positions: [2]simstate.Coord{neighbor, pos}, Prob: rr.reversePr[reverseIdx]})
	}

	if rr.hasIntermediate {
		i0, i1 := rr.intermediates[0], rr.intermediates[1]
		switch {
		case focal == i0 && neighborCode == i1:
			out = append(out, Candidate{Products: rr.products, Positions: [2]simstate.Coord{pos, neighbor}, Prob: rr.pr[1]})
			out = append(out, Candidate{Products: rr.reactants, Positions: [2]simstate.Coord{pos, neighbor}, Prob: rr.reversePr[0]})
		case focal == i1 && neighborCode == i0:
			out = append(out, Candidate{Products: rr.products, Positions: [2]simstate.Coord{neighbor, pos}, Prob: rr.pr[1]})
			out = append(out, Candidate{Products: rr.reactants, Positions: [2]simstate.Coord{neighbor, pos}, Prob: rr.reversePr[0]})
		}
	}
	return out
}

// Outcome describes what SelectAndApply did, so ca.Engine knows whether to
// attempt movement afterward.
type Outcome int

const (
	// NoCandidates/NoReactionChosen: movement may still proceed.
	OutcomeNone Outcome = iota
	// OutcomeApplied: a reaction fired; movement must be skipped.
	OutcomeApplied
	// OutcomeBlocked: the total probability mass was zero; spec.md §4.4
	// step 4 mandates skipping reaction AND movement for this focal cell.
	OutcomeBlocked
)

// SelectAndApply samples the candidate set and applies the chosen outcome,
// per spec.md §4.4 steps 4-6.
func (p *Processor) SelectAndApply(rng *rand.Rand, grid *lattice.Grid, state *simstate.State, code int16, candidates []Candidate) Outcome {
	if len(candidates) == 0 {
		return OutcomeNone
	}

	total := 0.0
	for _, cnd := range candidates {
		total += cnd.Prob
	}

	if total == 0 {
		markAllNotReacted(state, candidates)
		return OutcomeBlocked
	}

	pool := candidates
	normalizer := total
	if !lattice.IsIntermediate(code) {
		falseSum := float64(len(candidates)) - total
		pool = append(append([]Candidate(nil), candidates...), Candidate{NoReaction: true, Prob: falseSum})
		normalizer = total + falseSum
	}

	chosenIdx := sampleIndex(rng, pool, normalizer)
	chosen := pool[chosenIdx]

	if chosen.NoReaction {
		markAllNotReacted(state, candidates)
		return OutcomeNone
	}

	applyReaction(grid, state, chosen)
	for i, cnd := range pool {
		if i == chosenIdx || cnd.NoReaction {
			continue
		}
		state.MarkNotReacted(cnd.Positions[0], cnd.Positions[1])
	}
	return OutcomeApplied
}

func sampleIndex(rng *rand.Rand, pool []Candidate, normalizer float64) int {
	draw := rng.Float64() * normalizer
	acc := 0.0
	for i, cnd := range pool {
		acc += cnd.Prob
		if draw < acc {
			return i
		}
	}
	return len(pool) - 1
}

func markAllNotReacted(state *simstate.State, candidates []Candidate) {
	for _, cnd := range candidates {
		state.MarkNotReacted(cnd.Positions[0], cnd.Positions[1])
	}
}

func applyReaction(grid *lattice.Grid, state *simstate.State, chosen Candidate) {
	pos1, pos2 := chosen.Positions[0], chosen.Positions[1]
	cur1, cur2 := grid.Get(pos1.R, pos1.C), grid.Get(pos2.R, pos2.C)

	if lattice.IsIntermediate(cur1) && lattice.IsIntermediate(cur2) {
		state.Unpair(pos1, pos2)
	}

	grid.Set(pos1.R, pos1.C, chosen.Products[0])
	grid.Set(pos2.R, pos2.C, chosen.Products[1])
	state.MarkReacted(pos1)
	state.MarkReacted(pos2)

	if lattice.IsIntermediate(chosen.Products[0]) && lattice.IsIntermediate(chosen.Products[1]) {
		state.Pair(pos1, pos2)
	}
}

// Process is the convenience entry point ca.Engine calls per focal cell: it
// finds candidates and immediately selects/applies, returning the outcome.
func (p *Processor) Process(rng *rand.Rand, surf lattice.Surface, grid *lattice.Grid, state *simstate.State, r, c int, code int16) Outcome {
	candidates := p.FindCandidates(surf, grid, state, r, c, code)
	return p.SelectAndApply(rng, grid, state, code, candidates)
}
