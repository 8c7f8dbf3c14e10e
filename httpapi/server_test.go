package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"chemca/sim"
	"chemca/storage"
)

func newTestServer(t *testing.T) (*Server, *storage.SQLiteRepository) {
	t.Helper()
	repo, err := storage.OpenSQLite(":memory:")
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return NewServer(repo, nil), repo
}

func diffusionSpec(name string) sim.Spec {
	return sim.Spec{
		Name:             name,
		IterationsNumber: 1,
		GridHeight:       5,
		GridWidth:        5,
		Ingredients:      []sim.Ingredient{{Name: 'A', MolarFraction: 100}},
		Parameters:       sim.Parameters{Pm: []float64{1}},
	}
}

func TestCreateThenGetRoundTrip(t *testing.T) {
	srv, _ := newTestServer(t)
	body := `{
		"name": "diffusion-a",
		"iterationsNumber": 2,
		"gridHeight": 5,
		"gridWidth": 5,
		"ingredients": [{"name": 65, "molarFraction": 50}, {"name": 66, "molarFraction": 50}],
		"parameters": {"pm": [1, 1], "j": [{"relation": "A|A", "value": 0}, {"relation": "A|B", "value": 0}, {"relation": "B|B", "value": 0}]}
	}`
	req := httptest.NewRequest(http.MethodPost, "/simulations", strings.NewReader(body))
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create: got %d, body=%s", rec.Code, rec.Body.String())
	}
	var created map[string]string
	if err := json.NewDecoder(rec.Body).Decode(&created); err != nil {
		t.Fatalf("decode create response: %v", err)
	}
	id := created["id"]
	if id == "" {
		t.Fatalf("expected non-empty id in response")
	}

	getReq := httptest.NewRequest(http.MethodGet, "/simulations/"+id, nil)
	getRec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(getRec, getReq)
	if getRec.Code != http.StatusOK {
		t.Fatalf("get: got %d, body=%s", getRec.Code, getRec.Body.String())
	}
	if !strings.Contains(getRec.Body.String(), "diffusion-a") {
		t.Errorf("get response missing name: %s", getRec.Body.String())
	}
}

func TestCreateDuplicateNameReturnsConflict(t *testing.T) {
	srv, _ := newTestServer(t)
	body := `{
		"name": "dup-sim",
		"iterationsNumber": 1,
		"gridHeight": 5,
		"gridWidth": 5,
		"ingredients": [{"name": 65, "molarFraction": 100}],
		"parameters": {"pm": [1]}
	}`
	for i, want := range []int{http.StatusCreated, http.StatusConflict} {
		req := httptest.NewRequest(http.MethodPost, "/simulations", bytes.NewReader([]byte(body)))
		rec := httptest.NewRecorder()
		srv.Handler().ServeHTTP(rec, req)
		if rec.Code != want {
			t.Fatalf("attempt %d: got %d, want %d, body=%s", i, rec.Code, want, rec.Body.String())
		}
	}
}

func TestGetMissingSimulationReturnsBadRequest(t *testing.T) {
	srv, _ := newTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/simulations/does-not-exist", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("got %d, want 400", rec.Code)
	}
}

func TestResultsNotReadyReturnsNotFound(t *testing.T) {
	srv, repo := newTestServer(t)
	id, err := repo.Create(context.Background(), diffusionSpec("pending-results"))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	req := httptest.NewRequest(http.MethodGet, "/simulations/"+id+"/results", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("got %d, want 404, body=%s", rec.Code, rec.Body.String())
	}
}

func TestDeleteThenGetReportsBadRequest(t *testing.T) {
	srv, repo := newTestServer(t)
	id, err := repo.Create(context.Background(), diffusionSpec("to-delete"))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	delReq := httptest.NewRequest(http.MethodDelete, "/simulations/"+id, nil)
	delRec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(delRec, delReq)
	if delRec.Code != http.StatusNoContent {
		t.Fatalf("delete: got %d", delRec.Code)
	}

	getReq := httptest.NewRequest(http.MethodGet, "/simulations/"+id, nil)
	getRec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(getRec, getReq)
	if getRec.Code != http.StatusBadRequest {
		t.Fatalf("get after delete: got %d", getRec.Code)
	}
}

func TestHandlerSetsPermissiveCORSHeader(t *testing.T) {
	srv, _ := newTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/simulations", nil)
	req.Header.Set("Origin", "https://example.test")
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Errorf("Access-Control-Allow-Origin = %q, want \"*\"", got)
	}
}

func TestRunStreamsProgressAndPersistsResults(t *testing.T) {
	srv, repo := newTestServer(t)
	spec := diffusionSpec("tiny-run")
	spec.GridHeight, spec.GridWidth = 4, 4
	spec.IterationsNumber = 2
	id, err := repo.Create(context.Background(), spec)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/simulations/"+id+"/run", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	if ct := rec.Header().Get("Content-Type"); ct != "text/event-stream" {
		t.Fatalf("Content-Type = %q, want text/event-stream", ct)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "event: completed") {
		t.Fatalf("expected a completed event, got body:\n%s", body)
	}
	if !strings.Contains(body, "event: processing_results") {
		t.Fatalf("expected a processing_results event, got body:\n%s", body)
	}

	_, _, err = repo.GetResults(context.Background(), id)
	if err != nil {
		t.Fatalf("GetResults after run: %v", err)
	}
}

func TestResultsAndIterationsEndpointsAfterRun(t *testing.T) {
	srv, repo := newTestServer(t)
	spec := diffusionSpec("with-downloads")
	spec.GridHeight, spec.GridWidth = 4, 4
	spec.IterationsNumber = 2
	id, err := repo.Create(context.Background(), spec)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	runReq := httptest.NewRequest(http.MethodPost, "/simulations/"+id+"/run", nil)
	srv.Handler().ServeHTTP(httptest.NewRecorder(), runReq)

	resultsReq := httptest.NewRequest(http.MethodGet, "/simulations/"+id+"/results", nil)
	resultsRec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(resultsRec, resultsReq)
	if resultsRec.Code != http.StatusOK {
		t.Fatalf("results: got %d, body=%s", resultsRec.Code, resultsRec.Body.String())
	}
	if cd := resultsRec.Header().Get("Content-Disposition"); !strings.Contains(cd, "with-downloads.csv") {
		t.Errorf("Content-Disposition = %q, want it to name with-downloads.csv", cd)
	}
	if !strings.HasPrefix(resultsRec.Body.String(), "iteration,") {
		t.Errorf("csv body missing header row: %q", resultsRec.Body.String())
	}

	iterReq := httptest.NewRequest(http.MethodGet, "/simulations/"+id+"/iterations?chunk=0", nil)
	iterRec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(iterRec, iterReq)
	if iterRec.Code != http.StatusOK {
		t.Fatalf("iterations: got %d, body=%s", iterRec.Code, iterRec.Body.String())
	}
	var chunk [][][]int16
	if err := json.Unmarshal(iterRec.Body.Bytes(), &chunk); err != nil {
		t.Fatalf("decode iterations body: %v", err)
	}
	if len(chunk) != 3 { // initial snapshot + 2 iterations
		t.Errorf("got %d snapshots, want 3", len(chunk))
	}

	missingChunkReq := httptest.NewRequest(http.MethodGet, "/simulations/"+id+"/iterations?chunk=5", nil)
	missingChunkRec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(missingChunkRec, missingChunkReq)
	if missingChunkRec.Code != http.StatusNotFound {
		t.Fatalf("missing chunk: got %d, want 404", missingChunkRec.Code)
	}
}
