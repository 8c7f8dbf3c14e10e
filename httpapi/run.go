package httpapi

import (
	"encoding/json"
	"fmt"
	"math/rand"
	"net/http"
	"time"

	"chemca/ca"
)

// handleRun streams progress events as the simulation executes, then
// persists the results and emits the two sentinel events spec.md §6
// describes: "processing results" once the sweep loop finishes, and
// "completed" once storage.SaveResults has returned.
func (s *Server) handleRun(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	rec, err := s.repo.Get(r.Context(), id)
	if err != nil {
		s.serverError(w, "get simulation for run", err)
		return
	}
	if rec == nil {
		http.Error(w, "simulation not found", http.StatusBadRequest)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	emit := func(event string, data any) {
		payload, _ := json.Marshal(data)
		fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, payload)
		flusher.Flush()
	}

	seed := rec.Spec.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(seed))

	engine, err := ca.New(rec.Spec, rng, s.log.WithField("simulation_id", id))
	if err != nil {
		emit("error", map[string]string{"message": err.Error()})
		return
	}

	result, err := engine.Run(func(p ca.ProgressEvent) {
		emit("progress", map[string]any{"iteration": p.Iteration, "total": p.Total, "fraction": p.Fraction})
	})
	if err != nil {
		emit("error", map[string]string{"message": err.Error()})
		return
	}

	emit("processing_results", map[string]string{"status": "processing results"})

	if err := s.repo.SaveResults(r.Context(), id, result.History, result.MolarFractions); err != nil {
		s.log.WithError(err).Error("httpapi: save results")
		emit("error", map[string]string{"message": err.Error()})
		return
	}

	emit("completed", map[string]any{"status": "completed", "elapsedMs": result.Elapsed.Milliseconds()})
}
