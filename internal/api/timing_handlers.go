package api

import (
	"net/http"

	"github.com/rbeezley/myk9q-scoring/internal/timing"
)

type parseRequest struct {
	Text string `json:"text"`
}

type formatRequest struct {
	Ms                int  `json:"ms"`
	IncludeHours      bool `json:"include_hours"`
	IncludeHundredths bool `json:"include_hundredths"`
}

type areasRequest struct {
	AreaCount int    `json:"area_count"`
	Element   string `json:"element"`
	Level     string `json:"level"`
}

type presetRequest struct {
	AreaCount int               `json:"area_count"`
	Areas     timing.AreaValues `json:"areas"`
	Limits    timing.AreaLimits `json:"limits"`
}

type validateRequest struct {
	Text  string `json:"text"`
	Limit string `json:"limit"`
}

func (s *Server) handleParse(w http.ResponseWriter, r *http.Request) {
	var req parseRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	ms, err := timing.Parse(req.Text)
	if err != nil {
		respondServiceError(w, err, "parse time")
		return
	}
	respondJSON(w, http.StatusOK, map[string]int{"ms": ms})
}

func (s *Server) handleFormat(w http.ResponseWriter, r *http.Request) {
	var req formatRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{
		"text": timing.Format(req.Ms, req.IncludeHours, req.IncludeHundredths),
	})
}

func (s *Server) handleAreas(w http.ResponseWriter, r *http.Request) {
	var req areasRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	cfg, err := timing.NewAreaConfig(req.AreaCount, timing.ElementLevel{Element: req.Element, Level: req.Level})
	if err != nil {
		respondServiceError(w, err, "resolve areas")
		return
	}

	var active [timing.MaxAreas]bool
	for i := range active {
		active[i] = cfg.IsActive(i + 1)
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"active": active,
		"count":  cfg.ActiveAreas(),
	})
}

func (s *Server) handlePreset(w http.ResponseWriter, r *http.Request) {
	var req presetRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	area, err := timing.CurrentArea(req.AreaCount, req.Areas)
	if err != nil {
		respondServiceError(w, err, "resolve preset")
		return
	}
	ms, err := timing.ResolvePreset(req.AreaCount, req.Areas, req.Limits)
	if err != nil {
		respondServiceError(w, err, "resolve preset")
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"current_area": area,
		"preset_ms":    ms,
		"preset":       timing.Format(ms, false, true),
	})
}

func (s *Server) handleValidate(w http.ResponseWriter, r *http.Request) {
	var req validateRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if err := timing.ValidateAreaTime(req.Text, req.Limit); err != nil {
		_, code, ok := timingErrorCode(err)
		if !ok {
			code = "invalid_time"
		}
		respondJSON(w, http.StatusOK, map[string]any{
			"valid": false,
			"error": apiError{Code: code, Message: err.Error()},
		})
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"valid": true})
}
