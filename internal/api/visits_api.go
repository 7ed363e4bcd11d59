package api

import (
	"net/http"
	"strconv"
	"time"

	"revir/internal/models"
	"revir/internal/service"
)

const defaultVisitsLimit = 20

// OpenVisitBody is the request body for POST /api/visits. MemberID defaults
// to the acting member.
type OpenVisitBody struct {
	MemberID   int64     `json:"member_id,omitempty"`
	LocalityID int64     `json:"locality_id"`
	StartDate  time.Time `json:"start_date,omitempty"`
	HasGuest   bool      `json:"has_guest,omitempty"`
	GuestName  string    `json:"guest_name,omitempty"`
}

type CloseVisitBody struct {
	EndDate time.Time `json:"end_date,omitempty"`
}

type AddGuestBody struct {
	GuestName string `json:"guest_name"`
}

// handleOpenVisit opens a visit.
// POST /api/visits
func (s *HTTPServer) handleOpenVisit(w http.ResponseWriter, r *http.Request, actor models.Actor) {
	var body OpenVisitBody
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	memberID, ok := ownMemberOr(w, actor, body.MemberID)
	if !ok {
		return
	}

	visit, err := s.services.Visits.OpenVisit(r.Context(), service.OpenVisitRequest{
		MemberID:   memberID,
		LocalityID: body.LocalityID,
		StartDate:  body.StartDate,
		HasGuest:   body.HasGuest,
		GuestName:  body.GuestName,
	})
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, visit)
}

// handleOpenVisits returns the current locality occupancy.
// GET /api/visits/open
func (s *HTTPServer) handleOpenVisits(w http.ResponseWriter, r *http.Request, _ models.Actor) {
	visits, err := s.services.Visits.ListOpenVisits(r.Context())
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	if visits == nil {
		visits = []models.Visit{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"visits": visits})
}

// GET /api/visits/{id}
func (s *HTTPServer) handleGetVisit(w http.ResponseWriter, r *http.Request, _ models.Actor) {
	id, ok := pathID(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid visit id")
		return
	}
	visit, err := s.services.Visits.GetVisit(r.Context(), id)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, visit)
}

// handleCloseVisit closes a visit; end_date defaults to now.
// POST /api/visits/{id}/close
func (s *HTTPServer) handleCloseVisit(w http.ResponseWriter, r *http.Request, actor models.Actor) {
	id, ok := pathID(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid visit id")
		return
	}
	var body CloseVisitBody
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	visit, err := s.services.Visits.CloseVisit(r.Context(), service.CloseVisitRequest{VisitID: id, EndDate: body.EndDate}, actor)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, visit)
}

// POST /api/visits/{id}/guest
func (s *HTTPServer) handleAddGuest(w http.ResponseWriter, r *http.Request, actor models.Actor) {
	id, ok := pathID(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid visit id")
		return
	}
	var body AddGuestBody
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	visit, err := s.services.Visits.AddGuest(r.Context(), service.AddGuestRequest{VisitID: id, GuestName: body.GuestName}, actor)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, visit)
}

// handleMemberVisits lists the newest visits of a member.
// GET /api/members/{id}/visits?limit=N
func (s *HTTPServer) handleMemberVisits(w http.ResponseWriter, r *http.Request, _ models.Actor) {
	id, ok := pathID(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid member id")
		return
	}
	limit := defaultVisitsLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = n
	}

	visits, err := s.services.Visits.ListMemberVisits(r.Context(), id, limit)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	if visits == nil {
		visits = []models.Visit{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"visits": visits})
}
