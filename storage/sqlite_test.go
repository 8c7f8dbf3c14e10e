package storage

import (
	"context"
	"testing"

	"chemca/ca"
	"chemca/sim"
)

func testSpec(name string) sim.Spec {
	return sim.Spec{
		Name:             name,
		IterationsNumber: 1,
		GridHeight:       3,
		GridWidth:        3,
		Ingredients:      []sim.Ingredient{{Name: 'A', MolarFraction: 100}},
		Parameters:       sim.Parameters{Pm: []float64{1}},
	}
}

func openTestRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	repo, err := OpenSQLite(":memory:")
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func TestCreateGetUpdateDelete(t *testing.T) {
	repo := openTestRepo(t)
	ctx := context.Background()

	id, err := repo.Create(ctx, testSpec("sim-1"))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	rec, err := repo.Get(ctx, id)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if rec == nil || rec.Spec.Name != "sim-1" {
		t.Fatalf("Get returned %+v", rec)
	}

	updated := testSpec("sim-1-renamed")
	if err := repo.Update(ctx, id, updated); err != nil {
		t.Fatalf("Update: %v", err)
	}
	rec, err = repo.Get(ctx, id)
	if err != nil || rec.Spec.Name != "sim-1-renamed" {
		t.Fatalf("Update did not persist: %+v, err=%v", rec, err)
	}

	if err := repo.Delete(ctx, id); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	rec, err = repo.Get(ctx, id)
	if err != nil {
		t.Fatalf("Get after delete: %v", err)
	}
	if rec != nil {
		t.Fatalf("expected nil record after delete, got %+v", rec)
	}
}

func TestCreateDuplicateNameDetectedViaGetByName(t *testing.T) {
	repo := openTestRepo(t)
	ctx := context.Background()

	if _, err := repo.Create(ctx, testSpec("dup")); err != nil {
		t.Fatalf("Create: %v", err)
	}
	existing, err := repo.GetByName(ctx, "dup")
	if err != nil {
		t.Fatalf("GetByName: %v", err)
	}
	if existing == nil {
		t.Fatalf("expected to find existing simulation named 'dup'")
	}
}

func TestResultsNotReadyBeforeSave(t *testing.T) {
	repo := openTestRepo(t)
	ctx := context.Background()
	id, err := repo.Create(ctx, testSpec("pending"))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	_, _, err = repo.GetResults(ctx, id)
	if err != ErrResultsNotReady {
		t.Fatalf("expected ErrResultsNotReady, got %v", err)
	}
	_, err = repo.GetIterations(ctx, id, 0)
	if err != ErrResultsNotReady {
		t.Fatalf("expected ErrResultsNotReady for iterations, got %v", err)
	}
}

func TestSaveAndGetResultsRoundTrip(t *testing.T) {
	repo := openTestRepo(t)
	ctx := context.Background()
	id, err := repo.Create(ctx, testSpec("with-results"))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	history := [][][]int16{{{1, 0}, {0, 1}}, {{0, 1}, {1, 0}}}
	table := ca.MolarFractionsTable{
		Header: []string{"iteration", "A", "intermediate"},
		Rows:   [][]float64{{0, 1, 0}, {1, 1, 0}},
	}
	if err := repo.SaveResults(ctx, id, history, table); err != nil {
		t.Fatalf("SaveResults: %v", err)
	}

	name, gotTable, err := repo.GetResults(ctx, id)
	if err != nil {
		t.Fatalf("GetResults: %v", err)
	}
	if name != "with-results" {
		t.Errorf("got name %q", name)
	}
	if len(gotTable.Rows) != len(table.Rows) {
		t.Errorf("got %d rows, want %d", len(gotTable.Rows), len(table.Rows))
	}

	chunk, err := repo.GetIterations(ctx, id, 0)
	if err != nil {
		t.Fatalf("GetIterations: %v", err)
	}
	if !equalMatrix(chunk, history) {
		t.Errorf("chunk round trip mismatch: got %v want %v", chunk, history)
	}
}
