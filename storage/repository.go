package storage

import (
	"context"
	"errors"

	"chemca/ca"
	"chemca/sim"
)

// ErrNotFound is returned when a lookup by id finds nothing.
var ErrNotFound = errors.New("storage: simulation not found")

// ErrResultsNotReady is returned by GetResults/GetIterations before a run
// has completed and saved its results, per SPEC_FULL.md §D.4.
var ErrResultsNotReady = errors.New("storage: results not available yet, run the simulation first")

// Record is a stored simulation definition, without its (possibly large)
// results payload.
type Record struct {
	ID   string
	Spec sim.Spec
}

// Repository is the persistence collaborator spec.md §6 describes: CRUD
// over simulation definitions plus chunked storage of run results.
type Repository interface {
	List(ctx context.Context) ([]Record, error)
	Get(ctx context.Context, id string) (*Record, error)
	GetByName(ctx context.Context, name string) (*Record, error)
	GetByNameExcluding(ctx context.Context, name, excludeID string) (*Record, error)
	Create(ctx context.Context, spec sim.Spec) (string, error)
	Update(ctx context.Context, id string, spec sim.Spec) error
	Delete(ctx context.Context, id string) error

	// SaveResults persists the full iteration history (chunked and
	// compressed internally) plus the molar-fraction table.
	SaveResults(ctx context.Context, id string, history [][][]int16, table ca.MolarFractionsTable) error
	// GetIterations returns one decoded chunk of the iteration history.
	// Returns ErrResultsNotReady if no results are stored yet.
	GetIterations(ctx context.Context, id string, chunkNumber int) ([][][]int16, error)
	// GetResults returns the simulation's name and its molar-fraction
	// table. Returns ErrResultsNotReady if no results are stored yet.
	GetResults(ctx context.Context, id string) (name string, table ca.MolarFractionsTable, err error)
}
