// Package ca orchestrates a single simulation run: initial lattice
// placement, the per-iteration sweep over rotation, reaction, and movement,
// snapshot/molar-fraction recording, and progress event emission, per
// spec.md §4.6.
package ca

import (
	"fmt"
	"math"
	"math/rand"
	"time"

	"github.com/sirupsen/logrus"

	"chemca/lattice"
	"chemca/movement"
	"chemca/params"
	"chemca/reaction"
	"chemca/rotation"
	"chemca/sim"
	"chemca/simstate"
)

// ProgressEvent is one tick of a running simulation.
type ProgressEvent struct {
	Iteration int
	Total     int
	Fraction  float64
}

// MolarFractionsTable is the molar-fraction history, one row per iteration
// plus a header naming each column, per spec.md §6/§8.
type MolarFractionsTable struct {
	Header []string
	Rows   [][]float64
}

// Result is everything a completed run produces.
type Result struct {
	History        [][][]int16
	MolarFractions MolarFractionsTable
	Elapsed        time.Duration
}

// Engine runs one simulation from a validated sim.Spec.
type Engine struct {
	spec sim.Spec

	surf     lattice.Surface
	tables   *params.Tables
	rotMgr   *rotation.Manager
	reactor  *reaction.Processor
	movement *movement.Analyzer
	state    *simstate.State

	rng *rand.Rand
	log logrus.FieldLogger

	ncell int
}

// New validates spec and builds an Engine ready to Run. rng must be supplied
// by the caller so runs are reproducible under a fixed seed, per spec.md §5.
func New(spec sim.Spec, rng *rand.Rand, log logrus.FieldLogger) (*Engine, error) {
	if err := sim.Validate(spec); err != nil {
		return nil, fmt.Errorf("ca: invalid spec: %w", err)
	}
	if log == nil {
		log = logrus.StandardLogger()
	}

	reactions := make([]reaction.ReactionInput, 0, len(spec.Reactions))
	for _, r := range spec.Reactions {
		reactions = append(reactions, reaction.ReactionInput{
			Reactants:       [2]int16{int16(sim.ComponentIndex(r.Reactants[0])), int16(sim.ComponentIndex(r.Reactants[1]))},
			Products:        [2]int16{int16(sim.ComponentIndex(r.Products[0])), int16(sim.ComponentIndex(r.Products[1]))},
			Pr:              r.Pr,
			ReversePr:       r.ReversePr,
			HasIntermediate: r.HasIntermediate,
		})
	}

	tables := params.Build(spec.Parameters, spec.Rotation)
	e := &Engine{
		spec:     spec,
		surf:     lattice.New(spec.GridHeight, spec.GridWidth, spec.SurfaceKind),
		tables:   tables,
		rotMgr:   rotation.New(spec.Rotation),
		reactor:  reaction.New(reactions),
		movement: movement.New(tables),
		state:    simstate.New(),
		rng:      rng,
		log:      log,
	}
	return e, nil
}

// buildInitialGrid constructs the H×W lattice per spec.md §3's initial
// placement rule: NCELL occupied cells split among ingredients by molar
// fraction via largest-remainder rounding, the rest left empty.
func (e *Engine) buildInitialGrid() *lattice.Grid {
	h, w := e.spec.GridHeight, e.spec.GridWidth
	grid := lattice.NewGrid(h, w)

	total := h * w
	nempty := int(math.Floor(EmptyFraction * float64(total)))
	e.ncell = total - nempty

	fractions := make([]float64, len(e.spec.Ingredients))
	for i, ing := range e.spec.Ingredients {
		fractions[i] = ing.MolarFraction
	}
	counts := CalculateCellCounts(e.ncell, fractions)
	placeInitialSpecies(e.rng, grid, counts, e.tables.RotationSpecies)
	return grid
}

// Run executes the full simulation. onProgress, if non-nil, is called at
// every multiple-of-10 iteration whose rounded completion fraction changed,
// and unconditionally on the final iteration, per spec.md §4.6 step 3.
func (e *Engine) Run(onProgress func(ProgressEvent)) (*Result, error) {
	start := time.Now()
	grid := e.buildInitialGrid()
	n := e.spec.IterationsNumber

	e.logParameters()

	history := make([][][]int16, 0, n+1)
	history = append(history, grid.Snapshot())

	table := MolarFractionsTable{Header: e.molarFractionHeader()}
	table.Rows = append(table.Rows, e.molarFractionRow(grid, 0))

	lastRounded := -1.0
	for iter := 1; iter <= n; iter++ {
		e.sweep(grid)
		history = append(history, grid.Snapshot())
		table.Rows = append(table.Rows, e.molarFractionRow(grid, iter))

		if onProgress == nil {
			continue
		}
		fraction := 0.0
		if n > 0 {
			fraction = float64(iter) / float64(n)
		}
		rounded := math.Round(fraction*100) / 100
		if iter == n || (iter%10 == 0 && rounded != lastRounded) {
			onProgress(ProgressEvent{Iteration: iter, Total: n, Fraction: rounded})
			lastRounded = rounded
		}
	}

	e.log.WithFields(logrus.Fields{"iterations": n, "elapsed": time.Since(start)}).Info("ca: run completed")
	return &Result{History: history, MolarFractions: table, Elapsed: time.Since(start)}, nil
}

// sweep runs one full row-major pass over the grid, applying rotation,
// reaction, and movement in that order per focal cell, per spec.md §4.6.
func (e *Engine) sweep(grid *lattice.Grid) {
	e.state.ClearSweep()
	h, w := grid.H, grid.W
	for r := 0; r < h; r++ {
		for c := 0; c < w; c++ {
			code := grid.Get(r, c)
			if !lattice.IsOccupied(code) {
				continue
			}
			pos := simstate.Coord{R: r, C: c}

			if lattice.IsRotation(code) {
				if e.rotMgr.Enabled() && e.rotMgr.Eligible(e.surf, grid, r, c) && e.rotMgr.TryRotate(e.rng, grid, r, c, code) {
					continue
				}
				if !e.state.HasMoved(pos) && !e.state.HasReacted(pos) {
					e.movement.Attempt(e.rng, e.surf, grid, e.state, r, c, grid.Get(r, c))
				}
				continue
			}

			if !e.state.HasReacted(pos) {
				outcome := e.reactor.Process(e.rng, e.surf, grid, e.state, r, c, code)
				if outcome == reaction.OutcomeApplied || outcome == reaction.OutcomeBlocked {
					continue
				}
			}

			if !e.state.HasMoved(pos) && !e.state.HasReacted(pos) && !lattice.IsIntermediate(grid.Get(r, c)) {
				e.movement.Attempt(e.rng, e.surf, grid, e.state, r, c, grid.Get(r, c))
			}
		}
	}
}

// molarFractionHeader names the columns: iteration index, one per declared
// ingredient, then the intermediate bucket, per spec.md §6/§8.
func (e *Engine) molarFractionHeader() []string {
	header := make([]string, 0, len(e.spec.Ingredients)+2)
	header = append(header, "iteration")
	for _, ing := range e.spec.Ingredients {
		header = append(header, string(ing.Name))
	}
	header = append(header, "intermediate")
	return header
}

// molarFractionRow classifies every non-empty cell into its species' bucket
// (rotation-state cells count toward their underlying species; intermediate
// cells count toward a single shared bucket) and divides by NCELL, per
// spec.md §8.
func (e *Engine) molarFractionRow(grid *lattice.Grid, iteration int) []float64 {
	k := len(e.spec.Ingredients)
	counts := make([]float64, k+1) // last slot is the intermediate bucket
	for r := 0; r < grid.H; r++ {
		for c := 0; c < grid.W; c++ {
			code := grid.Get(r, c)
			switch {
			case lattice.IsEmpty(code):
				continue
			case lattice.IsIntermediate(code):
				counts[k]++
			case lattice.IsRotation(code):
				counts[lattice.RotationSpecies(code)-1]++
			default:
				counts[int(code)-1]++
			}
		}
	}
	row := make([]float64, 0, k+2)
	row = append(row, float64(iteration))
	for _, cnt := range counts {
		row = append(row, cnt/float64(e.ncell))
	}
	return row
}

// logParameters logs the run's shape once at start, per the supplemented
// feature in SPEC_FULL.md §D.1.
func (e *Engine) logParameters() {
	e.log.WithFields(logrus.Fields{
		"name":         e.spec.Name,
		"grid":         fmt.Sprintf("%dx%d", e.spec.GridHeight, e.spec.GridWidth),
		"ingredients":  len(e.spec.Ingredients),
		"iterations":   e.spec.IterationsNumber,
		"surface_kind": e.spec.SurfaceKind,
		"ncell":        e.ncell,
	}).Info("ca: starting run")
}
