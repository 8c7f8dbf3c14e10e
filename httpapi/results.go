package httpapi

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"chemca/storage"
)

// handleResults returns the molar-fraction table as CSV, header row first,
// per spec.md §6.
func (s *Server) handleResults(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	name, table, err := s.repo.GetResults(r.Context(), id)
	if err != nil {
		s.handleResultsError(w, err)
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s.csv", name))

	cw := csv.NewWriter(w)
	defer cw.Flush()

	_ = cw.Write(table.Header)
	for _, row := range table.Rows {
		record := make([]string, len(row))
		for i, v := range row {
			record[i] = strconv.FormatFloat(v, 'f', -1, 64)
		}
		if err := cw.Write(record); err != nil {
			s.log.WithError(err).Error("httpapi: write csv row")
			return
		}
	}
}

// handleIterations returns one decoded chunk of the iteration history as
// nested integer arrays, per spec.md §6. The chunk number defaults to 0.
func (s *Server) handleIterations(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	chunkNumber := 0
	if raw := r.URL.Query().Get("chunk"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			http.Error(w, "invalid chunk parameter", http.StatusBadRequest)
			return
		}
		chunkNumber = n
	}

	chunk, err := s.repo.GetIterations(r.Context(), id, chunkNumber)
	if err != nil {
		s.handleResultsError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(chunk)
}

func (s *Server) handleResultsError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, storage.ErrNotFound):
		http.Error(w, "simulation not found", http.StatusBadRequest)
	case errors.Is(err, storage.ErrResultsNotReady):
		http.Error(w, "results not available yet, missing chunk", http.StatusNotFound)
	default:
		s.serverError(w, "fetch results", err)
	}
}
