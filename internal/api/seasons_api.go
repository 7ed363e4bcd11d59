package api

import (
	"net/http"

	"revir/internal/models"
	"revir/internal/service"
)

// CreateSeasonBody is the request body for POST /api/seasons.
type CreateSeasonBody struct {
	Name     string `json:"name"`
	DateFrom string `json:"date_from"` // Format: YYYY-MM-DD
	DateTo   string `json:"date_to"`   // Format: YYYY-MM-DD
}

type PlanItemBody struct {
	PlannedCount int    `json:"planned_count"`
	Note         string `json:"note,omitempty"`
}

// POST /api/seasons (admin)
func (s *HTTPServer) handleCreateSeason(w http.ResponseWriter, r *http.Request, actor models.Actor) {
	if !requireAdmin(w, actor) {
		return
	}
	var body CreateSeasonBody
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if body.DateFrom == "" || body.DateTo == "" {
		writeError(w, http.StatusBadRequest, "date_from and date_to are required")
		return
	}
	from, err := parseDate(body.DateFrom)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid date_from format; expected YYYY-MM-DD")
		return
	}
	to, err := parseDate(body.DateTo)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid date_to format; expected YYYY-MM-DD")
		return
	}

	season, err := s.services.Seasons.CreateSeason(r.Context(), service.CreateSeasonRequest{
		Name:     body.Name,
		DateFrom: from,
		DateTo:   to,
	})
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, season)
}

// GET /api/seasons/active
func (s *HTTPServer) handleActiveSeason(w http.ResponseWriter, r *http.Request, _ models.Actor) {
	season, err := s.services.Seasons.GetActiveSeason(r.Context())
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, season)
}

// POST /api/seasons/{id}/activate (admin)
func (s *HTTPServer) handleActivateSeason(w http.ResponseWriter, r *http.Request, actor models.Actor) {
	if !requireAdmin(w, actor) {
		return
	}
	id, ok := pathID(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid season id")
		return
	}
	season, err := s.services.Seasons.ActivateSeason(r.Context(), id)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, season)
}

// GET /api/seasons/{id}/harvest
func (s *HTTPServer) handleHarvest(w http.ResponseWriter, r *http.Request, _ models.Actor) {
	id, ok := pathID(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid season id")
		return
	}
	report, err := s.services.Harvest.ComputeHarvestReport(r.Context(), id)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// GET /api/seasons/active/harvest
func (s *HTTPServer) handleActiveHarvest(w http.ResponseWriter, r *http.Request, _ models.Actor) {
	report, err := s.services.Harvest.ActiveHarvestReport(r.Context())
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// PUT /api/seasons/{id}/plan/{speciesID} (admin)
func (s *HTTPServer) handleUpsertPlanItem(w http.ResponseWriter, r *http.Request, actor models.Actor) {
	if !requireAdmin(w, actor) {
		return
	}
	seasonID, ok := pathID(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid season id")
		return
	}
	speciesID, ok := pathID(r, "speciesID")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid species id")
		return
	}
	var body PlanItemBody
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	item, err := s.services.Harvest.UpsertPlanItem(r.Context(), service.UpsertPlanItemRequest{
		SeasonID:     seasonID,
		SpeciesID:    speciesID,
		PlannedCount: body.PlannedCount,
		Note:         body.Note,
	})
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, item)
}
