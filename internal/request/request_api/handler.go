package request_api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"ms-request/internal/logger"
	"ms-request/internal/models"
	"ms-request/internal/request/db"
	"ms-request/internal/utils"
)

type RequestService interface {
	PlaceRequest(ctx context.Context, in models.NewRequest) (*models.Request, error)
	GetRequest(ctx context.Context, id int64) (*models.Request, error)
	UpdateRequest(ctx context.Context, id int64, patch models.RequestPatch) (*models.Request, error)
	CancelRequest(ctx context.Context, id int64) error
	ListRequestsByTour(ctx context.Context, tourID int64) ([]models.Request, error)
	ListRequestsByCustomer(ctx context.Context, customerID int64) ([]models.Request, error)
	ListRequestEvents(ctx context.Context, requestID int64) ([]models.Event, error)
	TourOccupancy(ctx context.Context, tourID int64) (*models.TourOccupancy, error)
}

type Handler struct {
	Service RequestService
	Logger  *logger.Logger
}

func NewHandler(service RequestService, log *logger.Logger) *Handler {
	return &Handler{Service: service, Logger: log}
}

// RegisterRoutes registers the request routes on a chi router
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/request", func(r chi.Router) {
		r.Post("/", h.PlaceRequest)
		r.Route("/{requestId}", func(r chi.Router) {
			r.Get("/", h.GetRequest)
			r.Patch("/", h.UpdateRequest)
			r.Delete("/", h.CancelRequest)
			r.Get("/events", h.ListRequestEvents)
		})
	})
	r.Get("/tour/{tourId}/requests", h.ListRequestsByTour)
	r.Get("/tour/{tourId}/occupancy", h.TourOccupancy)
	r.Get("/customer/{customerId}/requests", h.ListRequestsByCustomer)
}

// LogRequests is a middleware logging method, path, status and duration.
func (h *Handler) LogRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		h.Logger.LogAPI(r.Method, r.URL.Path, ww.Status(), time.Since(start))
	})
}

func Health(w http.ResponseWriter, r *http.Request) {
	_ = utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("ok", nil))
}

func (h *Handler) PlaceRequest(w http.ResponseWriter, r *http.Request) {
	var in models.NewRequest
	if err := decodeBody(r, &in); err != nil {
		h.badRequest(w, "PlaceRequest", "Invalid request body", err)
		return
	}
	h.Logger.Debug("API", fmt.Sprintf("PlaceRequest: %+v", in))

	req, err := h.Service.PlaceRequest(r.Context(), in)
	if err != nil {
		h.writeError(w, "PlaceRequest", err)
		return
	}
	h.respond(w, "PlaceRequest", http.StatusCreated, "request created", req)
}

func (h *Handler) GetRequest(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "requestId")
	if !ok {
		return
	}

	req, err := h.Service.GetRequest(r.Context(), id)
	if err != nil {
		h.writeError(w, "GetRequest", err)
		return
	}
	h.respond(w, "GetRequest", http.StatusOK, "request found", req)
}

func (h *Handler) UpdateRequest(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "requestId")
	if !ok {
		return
	}

	var patch models.RequestPatch
	if err := decodeBody(r, &patch); err != nil {
		h.badRequest(w, "UpdateRequest", "Invalid request body", err)
		return
	}

	req, err := h.Service.UpdateRequest(r.Context(), id, patch)
	if err != nil {
		h.writeError(w, "UpdateRequest", err)
		return
	}
	h.respond(w, "UpdateRequest", http.StatusOK, "request updated", req)
}

func (h *Handler) CancelRequest(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "requestId")
	if !ok {
		return
	}

	if err := h.Service.CancelRequest(r.Context(), id); err != nil {
		h.writeError(w, "CancelRequest", err)
		return
	}
	h.Logger.Info("API", fmt.Sprintf("CancelRequest: request %d cancelled", id))
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) ListRequestEvents(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "requestId")
	if !ok {
		return
	}

	events, err := h.Service.ListRequestEvents(r.Context(), id)
	if err != nil {
		h.writeError(w, "ListRequestEvents", err)
		return
	}
	h.respond(w, "ListRequestEvents", http.StatusOK, fmt.Sprintf("%d events", len(events)), events)
}

func (h *Handler) ListRequestsByTour(w http.ResponseWriter, r *http.Request) {
	tourID, ok := h.pathID(w, r, "tourId")
	if !ok {
		return
	}

	requests, err := h.Service.ListRequestsByTour(r.Context(), tourID)
	if err != nil {
		h.writeError(w, "ListRequestsByTour", err)
		return
	}
	h.respond(w, "ListRequestsByTour", http.StatusOK, fmt.Sprintf("%d requests", len(requests)), requests)
}

func (h *Handler) ListRequestsByCustomer(w http.ResponseWriter, r *http.Request) {
	customerID, ok := h.pathID(w, r, "customerId")
	if !ok {
		return
	}

	requests, err := h.Service.ListRequestsByCustomer(r.Context(), customerID)
	if err != nil {
		h.writeError(w, "ListRequestsByCustomer", err)
		return
	}
	h.respond(w, "ListRequestsByCustomer", http.StatusOK, fmt.Sprintf("%d requests", len(requests)), requests)
}

func (h *Handler) TourOccupancy(w http.ResponseWriter, r *http.Request) {
	tourID, ok := h.pathID(w, r, "tourId")
	if !ok {
		return
	}

	occupancy, err := h.Service.TourOccupancy(r.Context(), tourID)
	if err != nil {
		h.writeError(w, "TourOccupancy", err)
		return
	}
	h.respond(w, "TourOccupancy", http.StatusOK, "tour occupancy", occupancy)
}

// ---------------- HELPERS ----------------

func decodeBody(r *http.Request, dst interface{}) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}

func (h *Handler) pathID(w http.ResponseWriter, r *http.Request, param string) (int64, bool) {
	raw := chi.URLParam(r, param)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		h.badRequest(w, "pathID", fmt.Sprintf("Invalid %s", param), fmt.Errorf("%q is not a positive integer", raw))
		return 0, false
	}
	return id, true
}

func (h *Handler) respond(w http.ResponseWriter, op string, status int, message string, data interface{}) {
	if err := utils.WriteJSON(w, status, utils.SuccessResponse(message, data)); err != nil {
		h.Logger.Error("API", fmt.Sprintf("%s: failed to encode response: %v", op, err))
	}
}

func (h *Handler) badRequest(w http.ResponseWriter, op, message string, err error) {
	h.Logger.Warn("API", fmt.Sprintf("%s: %s: %v", op, message, err))
	_ = utils.WriteJSON(w, http.StatusBadRequest, utils.ErrorResponse(message, err.Error()))
}

// writeError maps the repository error taxonomy onto HTTP status codes.
func (h *Handler) writeError(w http.ResponseWriter, op string, err error) {
	var (
		status  int
		message string
		detail  = err.Error()
	)
	switch {
	case errors.Is(err, db.ErrValidation):
		status, message = http.StatusBadRequest, "Validation failed"
	case errors.Is(err, db.ErrNotFound):
		status, message = http.StatusNotFound, "Not found"
	case errors.Is(err, db.ErrReferentialIntegrity):
		status, message = http.StatusConflict, "Referential integrity violation"
	default:
		status, message, detail = http.StatusInternalServerError, "Internal error", "internal error"
	}

	h.Logger.Error("API", fmt.Sprintf("%s: %v", op, err))
	_ = utils.WriteJSON(w, status, utils.ErrorResponse(message, detail))
}
