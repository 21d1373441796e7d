package requests

import (
	"context"
	"fmt"
	"time"

	"ms-request/internal/logger"
	"ms-request/internal/models"
)

type RequestDBLayer interface {
	CreateRequest(ctx context.Context, in models.NewRequest) (*models.Request, error)
	GetRequestByID(ctx context.Context, id int64) (*models.Request, error)
	UpdateRequest(ctx context.Context, id int64, patch models.RequestPatch) (*models.Request, error)
	DeleteRequest(ctx context.Context, id int64) error
	GetRequestsByTour(ctx context.Context, tourID int64) ([]models.Request, error)
	GetRequestsByCustomer(ctx context.Context, customerID int64) ([]models.Request, error)
	GetEventsByRequest(ctx context.Context, requestID int64) ([]models.Event, error)
	GetTourOccupancy(ctx context.Context, tourID int64) (*models.TourOccupancy, error)
}

// Notifier receives committed request changes. Implemented by the Kafka
// producer; nil disables notifications.
type Notifier interface {
	PublishRequestChange(ctx context.Context, change models.RequestChange) error
}

type RequestService struct {
	DB       RequestDBLayer
	Notifier Notifier
	Logger   *logger.Logger
}

func NewRequestService(db RequestDBLayer, notifier Notifier, log *logger.Logger) *RequestService {
	return &RequestService{DB: db, Notifier: notifier, Logger: log}
}

func (s *RequestService) PlaceRequest(ctx context.Context, in models.NewRequest) (*models.Request, error) {
	req, err := s.DB.CreateRequest(ctx, in)
	if err != nil {
		s.Logger.Error("REQUEST", fmt.Sprintf("Failed to place request on tour %d for customer %d: %v", in.Tour, in.Customer, err))
		return nil, fmt.Errorf("place request: %w", err)
	}

	s.Logger.LogRequest("CREATE", req.ID, fmt.Sprintf("tour=%d customer=%d passengers=%d wheelchairs=%d luggage=%d",
		req.Tour, req.Customer, req.Passengers, req.Wheelchairs, req.Luggage))
	s.notify(ctx, models.RequestCreated, *req)
	return req, nil
}

func (s *RequestService) GetRequest(ctx context.Context, id int64) (*models.Request, error) {
	req, err := s.DB.GetRequestByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get request %d: %w", id, err)
	}
	return req, nil
}

func (s *RequestService) UpdateRequest(ctx context.Context, id int64, patch models.RequestPatch) (*models.Request, error) {
	req, err := s.DB.UpdateRequest(ctx, id, patch)
	if err != nil {
		s.Logger.Error("REQUEST", fmt.Sprintf("Failed to update request %d: %v", id, err))
		return nil, fmt.Errorf("update request %d: %w", id, err)
	}
	if patch.IsEmpty() {
		return req, nil
	}

	s.Logger.LogRequest("UPDATE", req.ID, "request updated")
	s.notify(ctx, models.RequestUpdated, *req)
	return req, nil
}

// CancelRequest deletes the request. The row is read first so the
// notification can carry what was removed.
func (s *RequestService) CancelRequest(ctx context.Context, id int64) error {
	req, err := s.DB.GetRequestByID(ctx, id)
	if err != nil {
		return fmt.Errorf("cancel request %d: %w", id, err)
	}

	if err := s.DB.DeleteRequest(ctx, id); err != nil {
		s.Logger.Error("REQUEST", fmt.Sprintf("Failed to cancel request %d: %v", id, err))
		return fmt.Errorf("cancel request %d: %w", id, err)
	}

	s.Logger.LogRequest("DELETE", id, "request cancelled")
	s.notify(ctx, models.RequestDeleted, *req)
	return nil
}

func (s *RequestService) ListRequestsByTour(ctx context.Context, tourID int64) ([]models.Request, error) {
	requests, err := s.DB.GetRequestsByTour(ctx, tourID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch requests for tour %d: %w", tourID, err)
	}
	return requests, nil
}

func (s *RequestService) ListRequestsByCustomer(ctx context.Context, customerID int64) ([]models.Request, error) {
	requests, err := s.DB.GetRequestsByCustomer(ctx, customerID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch requests for customer %d: %w", customerID, err)
	}
	return requests, nil
}

func (s *RequestService) ListRequestEvents(ctx context.Context, requestID int64) ([]models.Event, error) {
	events, err := s.DB.GetEventsByRequest(ctx, requestID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch events for request %d: %w", requestID, err)
	}
	return events, nil
}

func (s *RequestService) TourOccupancy(ctx context.Context, tourID int64) (*models.TourOccupancy, error) {
	occupancy, err := s.DB.GetTourOccupancy(ctx, tourID)
	if err != nil {
		return nil, fmt.Errorf("tour occupancy %d: %w", tourID, err)
	}
	return occupancy, nil
}

// notify never fails the caller: the write is already committed.
func (s *RequestService) notify(ctx context.Context, changeType models.RequestChangeType, req models.Request) {
	if s.Notifier == nil {
		return
	}
	change := models.RequestChange{Type: changeType, Request: req, OccurredAt: time.Now().UTC()}
	if err := s.Notifier.PublishRequestChange(ctx, change); err != nil {
		s.Logger.Warn("KAFKA", fmt.Sprintf("Failed to publish %s for request %d: %v", changeType, req.ID, err))
	}
}
