// Package api exposes the visit, catch, season and cabin services over HTTP.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"revir/internal/apperr"
	"revir/internal/config"
	"revir/internal/metrics"
	"revir/internal/models"
	"revir/internal/service"
)

const (
	headerAPIKey    = "x-api-key"
	headerMemberID  = "X-Member-ID"
	headerRequestID = "X-Request-ID"

	dateLayout = "2006-01-02"
)

// Services bundles the managers the API delegates to.
type Services struct {
	Visits  *service.VisitService
	Catches *service.CatchService
	Harvest *service.HarvestService
	Seasons *service.SeasonService
	Cabins  *service.CabinService
	Members *service.MemberService
}

type HTTPServer struct {
	services Services
	apiKey   string
	limiter  *memberLimiter
	log      zerolog.Logger
	server   *http.Server
}

func NewHTTPServer(cfg config.HTTPConfig, services Services, logger *zerolog.Logger) *HTTPServer {
	s := &HTTPServer{
		services: services,
		apiKey:   cfg.APIKey,
		limiter:  newMemberLimiter(cfg.RateLimit, cfg.RateBurst),
		log:      logger.With().Str("component", "http").Logger(),
	}

	mux := http.NewServeMux()
	s.registerRoutes(mux)

	s.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      mux,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}
	return s
}

func (s *HTTPServer) registerRoutes(mux *http.ServeMux) {
	s.handle(mux, "POST /api/visits", s.handleOpenVisit)
	s.handle(mux, "GET /api/visits/open", s.handleOpenVisits)
	s.handle(mux, "GET /api/visits/{id}", s.handleGetVisit)
	s.handle(mux, "POST /api/visits/{id}/close", s.handleCloseVisit)
	s.handle(mux, "POST /api/visits/{id}/guest", s.handleAddGuest)
	s.handle(mux, "GET /api/members/{id}/visits", s.handleMemberVisits)

	s.handle(mux, "POST /api/visits/{id}/catches", s.handleRecordCatch)
	s.handle(mux, "GET /api/visits/{id}/catches", s.handleVisitCatches)
	s.handle(mux, "PATCH /api/catches/{id}", s.handleUpdateCatch)
	s.handle(mux, "DELETE /api/catches/{id}", s.handleDeleteCatch)

	s.handle(mux, "POST /api/seasons", s.handleCreateSeason)
	s.handle(mux, "GET /api/seasons/active", s.handleActiveSeason)
	s.handle(mux, "GET /api/seasons/active/harvest", s.handleActiveHarvest)
	s.handle(mux, "POST /api/seasons/{id}/activate", s.handleActivateSeason)
	s.handle(mux, "GET /api/seasons/{id}/harvest", s.handleHarvest)
	s.handle(mux, "PUT /api/seasons/{id}/plan/{speciesID}", s.handleUpsertPlanItem)

	s.handle(mux, "POST /api/cabins/{id}/bookings", s.handleCreateBooking)
	s.handle(mux, "GET /api/cabins/{id}/availability", s.handleAvailability)
	s.handle(mux, "PATCH /api/bookings/{id}", s.handleUpdateBooking)
	s.handle(mux, "POST /api/bookings/{id}/cancel", s.handleCancelBooking)
	s.handle(mux, "DELETE /api/bookings/{id}", s.handleDeleteBooking)
}

// actorHandler serves a request on behalf of a resolved member.
type actorHandler func(w http.ResponseWriter, r *http.Request, actor models.Actor)

// handle wraps h with request ids, the api key check, actor resolution,
// per-member rate limiting and request metrics.
func (s *HTTPServer) handle(mux *http.ServeMux, pattern string, h actorHandler) {
	mux.HandleFunc(pattern, func(w http.ResponseWriter, r *http.Request) {
		started := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		requestID := r.Header.Get(headerRequestID)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		rec.Header().Set(headerRequestID, requestID)

		defer func() {
			metrics.ObserveHTTPRequest(pattern, strconv.Itoa(rec.status), time.Since(started).Seconds())
			s.log.Debug().
				Str("request_id", requestID).
				Str("route", pattern).
				Int("status", rec.status).
				Dur("duration", time.Since(started)).
				Msg("request served")
		}()

		if s.apiKey != "" && r.Header.Get(headerAPIKey) != s.apiKey {
			writeError(rec, http.StatusUnauthorized, "invalid api key")
			return
		}

		actor, ok := s.resolveActor(rec, r)
		if !ok {
			return
		}
		if !s.limiter.Allow(actor.MemberID) {
			writeError(rec, http.StatusTooManyRequests, "rate limit exceeded")
			return
		}
		h(rec, r, actor)
	})
}

func (s *HTTPServer) resolveActor(w http.ResponseWriter, r *http.Request) (models.Actor, bool) {
	raw := r.Header.Get(headerMemberID)
	if raw == "" {
		writeError(w, http.StatusUnauthorized, "X-Member-ID header is required")
		return models.Actor{}, false
	}
	memberID, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || memberID <= 0 {
		writeError(w, http.StatusUnauthorized, "invalid X-Member-ID header")
		return models.Actor{}, false
	}
	actor, err := s.services.Members.Actor(r.Context(), memberID)
	if err != nil {
		s.writeServiceError(w, err)
		return models.Actor{}, false
	}
	return actor, true
}

// Handler returns the root handler, mainly for tests.
func (s *HTTPServer) Handler() http.Handler {
	return s.server.Handler
}

func (s *HTTPServer) Start() error {
	s.log.Info().Str("addr", s.server.Addr).Msg("HTTP API listening")
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("http server: %w", err)
	}
	return nil
}

func (s *HTTPServer) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error    string            `json:"error"`
	Code     string            `json:"code,omitempty"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, ErrorResponse{Error: msg})
}

// writeServiceError maps domain errors to their HTTP status. Anything else
// is logged and reported as an internal error.
func (s *HTTPServer) writeServiceError(w http.ResponseWriter, err error) {
	var appErr *apperr.Error
	if errors.As(err, &appErr) {
		writeJSON(w, appErr.Kind.HTTPStatus(), ErrorResponse{
			Error:    appErr.Message,
			Code:     string(appErr.Code),
			Metadata: appErr.Metadata,
		})
		return
	}
	s.log.Error().Err(err).Msg("request failed")
	writeError(w, http.StatusInternalServerError, "internal error")
}

// decodeJSON reads a JSON body into v, rejecting unknown fields. An empty
// body leaves v untouched.
func decodeJSON(r *http.Request, v any) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(v); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

func pathID(r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

func parseDate(value string) (time.Time, error) {
	return time.ParseInLocation(dateLayout, value, time.UTC)
}

func requireAdmin(w http.ResponseWriter, actor models.Actor) bool {
	if actor.IsAdmin() {
		return true
	}
	writeJSON(w, http.StatusForbidden, ErrorResponse{
		Error: "admin role required",
		Code:  string(apperr.CodeForbidden),
	})
	return false
}

// ownMemberOr returns memberID when the actor may act for that member, or
// the actor itself when memberID is zero.
func ownMemberOr(w http.ResponseWriter, actor models.Actor, memberID int64) (int64, bool) {
	if memberID == 0 {
		return actor.MemberID, true
	}
	if !actor.CanModify(memberID) {
		writeJSON(w, http.StatusForbidden, ErrorResponse{
			Error: "only an admin may act for another member",
			Code:  string(apperr.CodeForbidden),
		})
		return 0, false
	}
	return memberID, true
}
