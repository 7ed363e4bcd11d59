package api

import (
	"net/http"
	"time"

	"revir/internal/models"
	"revir/internal/service"
)

// CreateBookingBody is the request body for POST /api/cabins/{id}/bookings.
// MemberID defaults to the acting member.
type CreateBookingBody struct {
	MemberID int64     `json:"member_id,omitempty"`
	StartAt  time.Time `json:"start_at"`
	EndAt    time.Time `json:"end_at"`
	Title    string    `json:"title,omitempty"`
	Note     string    `json:"note,omitempty"`
}

// AvailabilityResponse is the response for GET /api/cabins/{id}/availability.
type AvailabilityResponse struct {
	CabinID int64                    `json:"cabin_id"`
	Days    []models.DayAvailability `json:"days"`
	Period  struct {
		Start string `json:"start"`
		End   string `json:"end"`
	} `json:"period"`
}

// POST /api/cabins/{id}/bookings
func (s *HTTPServer) handleCreateBooking(w http.ResponseWriter, r *http.Request, actor models.Actor) {
	cabinID, ok := pathID(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid cabin id")
		return
	}
	var body CreateBookingBody
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	memberID, ok := ownMemberOr(w, actor, body.MemberID)
	if !ok {
		return
	}

	booking, err := s.services.Cabins.CreateBooking(r.Context(), service.CreateBookingRequest{
		CabinID:  cabinID,
		MemberID: memberID,
		StartAt:  body.StartAt,
		EndAt:    body.EndAt,
		Title:    body.Title,
		Note:     body.Note,
	})
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, booking)
}

// handleAvailability returns the per-day calendar of a cabin.
// GET /api/cabins/{id}/availability?from=YYYY-MM-DD&to=YYYY-MM-DD
func (s *HTTPServer) handleAvailability(w http.ResponseWriter, r *http.Request, _ models.Actor) {
	cabinID, ok := pathID(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid cabin id")
		return
	}
	q := r.URL.Query()
	if q.Get("from") == "" || q.Get("to") == "" {
		writeError(w, http.StatusBadRequest, "from and to are required")
		return
	}
	from, err := parseDate(q.Get("from"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid from format; expected YYYY-MM-DD")
		return
	}
	to, err := parseDate(q.Get("to"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid to format; expected YYYY-MM-DD")
		return
	}

	days, err := s.services.Cabins.CabinAvailability(r.Context(), cabinID, from, to)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}

	response := AvailabilityResponse{CabinID: cabinID, Days: days}
	response.Period.Start = q.Get("from")
	response.Period.End = q.Get("to")
	writeJSON(w, http.StatusOK, response)
}

// PATCH /api/bookings/{id}
func (s *HTTPServer) handleUpdateBooking(w http.ResponseWriter, r *http.Request, actor models.Actor) {
	id, ok := pathID(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid booking id")
		return
	}
	var req service.UpdateBookingRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	req.BookingID = id

	booking, err := s.services.Cabins.UpdateBooking(r.Context(), req, actor)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, booking)
}

// POST /api/bookings/{id}/cancel
func (s *HTTPServer) handleCancelBooking(w http.ResponseWriter, r *http.Request, actor models.Actor) {
	id, ok := pathID(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid booking id")
		return
	}
	booking, err := s.services.Cabins.CancelBooking(r.Context(), id, actor)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, booking)
}

// DELETE /api/bookings/{id}
func (s *HTTPServer) handleDeleteBooking(w http.ResponseWriter, r *http.Request, actor models.Actor) {
	id, ok := pathID(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid booking id")
		return
	}
	if err := s.services.Cabins.DeleteBooking(r.Context(), id, actor); err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}
