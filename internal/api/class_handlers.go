package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/rbeezley/myk9q-scoring/internal/catalog"
	"github.com/rbeezley/myk9q-scoring/internal/models"
	"github.com/rbeezley/myk9q-scoring/internal/timing"
)

type classResponse struct {
	*models.Class
	ActiveAreas [timing.MaxAreas]bool  `json:"active_areas"`
	Defaults    *catalog.ClassDefaults `json:"defaults,omitempty"`
}

func (s *Server) handleListCatalog(w http.ResponseWriter, r *http.Request) {
	defaults := s.catalog.List()
	respondJSON(w, http.StatusOK, map[string]any{
		"classes": defaults,
		"total":   len(defaults),
	})
}

func (s *Server) handleListClasses(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filters := models.ClassFilters{
		TrialID: q.Get("trial_id"),
		Element: q.Get("element"),
		Level:   q.Get("level"),
	}

	classes, err := s.repo.ListClasses(r.Context(), filters)
	if err != nil {
		slog.Error("failed to list classes", "error", err)
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to list classes")
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"classes": classes,
		"total":   len(classes),
	})
}

func (s *Server) handleGetClass(w http.ResponseWriter, r *http.Request) {
	class, ok := s.loadClass(w, r)
	if !ok {
		return
	}

	respondJSON(w, http.StatusOK, classResponse{
		Class:       class,
		ActiveAreas: class.ActiveAreas(),
		Defaults:    s.catalog.Lookup(class.Element, class.Level),
	})
}

func (s *Server) handleListEntries(w http.ResponseWriter, r *http.Request) {
	class, ok := s.loadClass(w, r)
	if !ok {
		return
	}

	entries, err := s.repo.ListEntries(r.Context(), class.ID)
	if err != nil {
		slog.Error("failed to list entries", "error", err, "class_id", class.ID)
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to list entries")
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"entries": entries,
		"total":   len(entries),
	})
}

func (s *Server) handleClassWS(w http.ResponseWriter, r *http.Request) {
	class, ok := s.loadClass(w, r)
	if !ok {
		return
	}
	s.hub.ServeWS(w, r, class.ID)
}

func (s *Server) loadClass(w http.ResponseWriter, r *http.Request) (*models.Class, bool) {
	id := chi.URLParam(r, "id")

	class, err := s.repo.GetClass(r.Context(), id)
	if err != nil {
		slog.Error("failed to get class", "error", err, "id", id)
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to get class")
		return nil, false
	}
	if class == nil {
		respondError(w, http.StatusNotFound, "not_found", "class not found")
		return nil, false
	}
	return class, true
}
