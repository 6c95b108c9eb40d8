package web

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
)

const defaultHistoryLimit = 50

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	if s.history == nil {
		respondError(w, r, errNoHistory)
		return
	}
	batches, err := s.history.Imports(r.Context(), parseIntParam(r, "limit", defaultHistoryLimit))
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, batches)
}

// handleRollback deletes every record written by one import.
func (s *Server) handleRollback(w http.ResponseWriter, r *http.Request) {
	if s.history == nil {
		respondError(w, r, errNoHistory)
		return
	}
	res, err := s.history.Rollback(r.Context(), chi.URLParam(r, "importID"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// parseIntParam parses a positive integer query parameter with a default value.
func parseIntParam(r *http.Request, name string, defaultVal int) int {
	val := r.URL.Query().Get(name)
	if val == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(val)
	if err != nil || i < 1 {
		return defaultVal
	}
	return i
}
