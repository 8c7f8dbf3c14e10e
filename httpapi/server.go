// Package httpapi is the thin HTTP surface spec.md §6 describes: CRUD over
// a simulation resource, an SSE run endpoint, a CSV results download, and an
// iteration-chunk endpoint, wrapped in permissive CORS.
package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/rs/cors"
	"github.com/sirupsen/logrus"

	"chemca/lattice"
	"chemca/sim"
	"chemca/storage"
)

// Server wires a storage.Repository into a net/http surface.
type Server struct {
	repo storage.Repository
	log  logrus.FieldLogger
	mux  *http.ServeMux
}

// NewServer builds a Server backed by repo. A nil log defaults to logrus's
// standard logger, matching the engine's own convention.
func NewServer(repo storage.Repository, log logrus.FieldLogger) *Server {
	if log == nil {
		log = logrus.StandardLogger()
	}
	s := &Server{repo: repo, log: log, mux: http.NewServeMux()}
	s.routes()
	return s
}

// Handler returns the full handler, CORS permissive on all origins per
// spec.md §6.
func (s *Server) Handler() http.Handler {
	return cors.AllowAll().Handler(s.mux)
}

func (s *Server) routes() {
	s.mux.HandleFunc("GET /simulations", s.handleList)
	s.mux.HandleFunc("POST /simulations", s.handleCreate)
	s.mux.HandleFunc("GET /simulations/{id}", s.handleGet)
	s.mux.HandleFunc("PUT /simulations/{id}", s.handleUpdate)
	s.mux.HandleFunc("DELETE /simulations/{id}", s.handleDelete)
	s.mux.HandleFunc("POST /simulations/{id}/run", s.handleRun)
	s.mux.HandleFunc("GET /simulations/{id}/results", s.handleResults)
	s.mux.HandleFunc("GET /simulations/{id}/iterations", s.handleIterations)
}

type simulationPayload struct {
	Name             string           `json:"name"`
	IterationsNumber int              `json:"iterationsNumber"`
	GridHeight       int              `json:"gridHeight"`
	GridWidth        int              `json:"gridWidth"`
	Ingredients      []sim.Ingredient `json:"ingredients"`
	Parameters       sim.Parameters   `json:"parameters"`
	Reactions        []sim.Reaction   `json:"reactions"`
	Rotation         sim.Rotation     `json:"rotation"`
	SurfaceKind      int              `json:"surfaceKind"`
	Seed             int64            `json:"seed"`
}

func (p simulationPayload) toSpec() sim.Spec {
	return sim.Spec{
		Name:             p.Name,
		IterationsNumber: p.IterationsNumber,
		GridHeight:       p.GridHeight,
		GridWidth:        p.GridWidth,
		Ingredients:      p.Ingredients,
		Parameters:       p.Parameters,
		Reactions:        p.Reactions,
		Rotation:         p.Rotation,
		SurfaceKind:      lattice.Kind(p.SurfaceKind),
		Seed:             p.Seed,
	}
}

func specPayload(spec sim.Spec) simulationPayload {
	return simulationPayload{
		Name:             spec.Name,
		IterationsNumber: spec.IterationsNumber,
		GridHeight:       spec.GridHeight,
		GridWidth:        spec.GridWidth,
		Ingredients:      spec.Ingredients,
		Parameters:       spec.Parameters,
		Reactions:        spec.Reactions,
		Rotation:         spec.Rotation,
		SurfaceKind:      int(spec.SurfaceKind),
		Seed:             spec.Seed,
	}
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	records, err := s.repo.List(r.Context())
	if err != nil {
		s.serverError(w, "list simulations", err)
		return
	}
	out := make([]map[string]any, 0, len(records))
	for _, rec := range records {
		out = append(out, map[string]any{"id": rec.ID, "spec": specPayload(rec.Spec)})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	var payload simulationPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, fmt.Sprintf("invalid request body: %v", err), http.StatusBadRequest)
		return
	}
	spec := payload.toSpec()
	if err := sim.Validate(spec); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	existing, err := s.repo.GetByName(r.Context(), spec.Name)
	if err != nil {
		s.serverError(w, "check name uniqueness", err)
		return
	}
	if existing != nil {
		http.Error(w, fmt.Sprintf("a simulation named %q already exists", spec.Name), http.StatusConflict)
		return
	}

	id, err := s.repo.Create(r.Context(), spec)
	if err != nil {
		s.serverError(w, "create simulation", err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"id": id})
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	rec, err := s.repo.Get(r.Context(), id)
	if err != nil {
		s.serverError(w, "get simulation", err)
		return
	}
	if rec == nil {
		http.Error(w, "simulation not found", http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"id": rec.ID, "spec": specPayload(rec.Spec)})
}

func (s *Server) handleUpdate(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	var payload simulationPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, fmt.Sprintf("invalid request body: %v", err), http.StatusBadRequest)
		return
	}
	spec := payload.toSpec()
	if err := sim.Validate(spec); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	conflict, err := s.repo.GetByNameExcluding(r.Context(), spec.Name, id)
	if err != nil {
		s.serverError(w, "check name uniqueness", err)
		return
	}
	if conflict != nil {
		http.Error(w, fmt.Sprintf("a simulation named %q already exists", spec.Name), http.StatusConflict)
		return
	}

	if err := s.repo.Update(r.Context(), id, spec); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			http.Error(w, "simulation not found", http.StatusBadRequest)
			return
		}
		s.serverError(w, "update simulation", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := s.repo.Delete(r.Context(), id); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			http.Error(w, "simulation not found", http.StatusBadRequest)
			return
		}
		s.serverError(w, "delete simulation", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) serverError(w http.ResponseWriter, action string, err error) {
	s.log.WithError(err).Errorf("httpapi: %s", action)
	http.Error(w, "internal error", http.StatusInternalServerError)
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
