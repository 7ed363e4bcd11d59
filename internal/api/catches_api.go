package api

import (
	"net/http"
	"time"

	"revir/internal/models"
	"revir/internal/service"
)

// RecordCatchBody is the request body for POST /api/visits/{id}/catches.
type RecordCatchBody struct {
	SpeciesID         int64              `json:"species_id"`
	HuntingLocalityID int64              `json:"hunting_locality_id,omitempty"`
	HuntedAt          time.Time          `json:"hunted_at,omitempty"`
	Sex               models.Sex         `json:"sex,omitempty"`
	Age               string             `json:"age,omitempty"`
	Weight            *float64           `json:"weight,omitempty"`
	TagNumber         string             `json:"tag_number,omitempty"`
	ShooterType       models.ShooterType `json:"shooter_type,omitempty"`
	GuestShooterName  string             `json:"guest_shooter_name,omitempty"`
}

// POST /api/visits/{id}/catches
func (s *HTTPServer) handleRecordCatch(w http.ResponseWriter, r *http.Request, actor models.Actor) {
	visitID, ok := pathID(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid visit id")
		return
	}
	var body RecordCatchBody
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	catch, err := s.services.Catches.RecordCatch(r.Context(), service.RecordCatchRequest{
		VisitID:           visitID,
		SpeciesID:         body.SpeciesID,
		HuntingLocalityID: body.HuntingLocalityID,
		HuntedAt:          body.HuntedAt,
		Sex:               body.Sex,
		Age:               body.Age,
		Weight:            body.Weight,
		TagNumber:         body.TagNumber,
		ShooterType:       body.ShooterType,
		GuestShooterName:  body.GuestShooterName,
	}, actor)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, catch)
}

// GET /api/visits/{id}/catches
func (s *HTTPServer) handleVisitCatches(w http.ResponseWriter, r *http.Request, _ models.Actor) {
	visitID, ok := pathID(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid visit id")
		return
	}
	catches, err := s.services.Catches.ListVisitCatches(r.Context(), visitID)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	if catches == nil {
		catches = []models.Catch{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"catches": catches})
}

// handleUpdateCatch applies a partial update; absent fields keep their value.
// PATCH /api/catches/{id}
func (s *HTTPServer) handleUpdateCatch(w http.ResponseWriter, r *http.Request, actor models.Actor) {
	id, ok := pathID(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid catch id")
		return
	}
	var req service.UpdateCatchRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	req.CatchID = id

	catch, err := s.services.Catches.UpdateCatch(r.Context(), req, actor)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, catch)
}

// DELETE /api/catches/{id}
func (s *HTTPServer) handleDeleteCatch(w http.ResponseWriter, r *http.Request, actor models.Actor) {
	id, ok := pathID(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid catch id")
		return
	}
	if err := s.services.Catches.DeleteCatch(r.Context(), id, actor); err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}
