package requests_test

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"ms-request/internal/logger"
	"ms-request/internal/models"
	"ms-request/internal/request/db"
	requests "ms-request/internal/request/service"
)

// MockRequestDBLayer is a mock implementation of the RequestDBLayer interface
type MockRequestDBLayer struct {
	mock.Mock
}

func (m *MockRequestDBLayer) CreateRequest(ctx context.Context, in models.NewRequest) (*models.Request, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Request), args.Error(1)
}

func (m *MockRequestDBLayer) GetRequestByID(ctx context.Context, id int64) (*models.Request, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Request), args.Error(1)
}

func (m *MockRequestDBLayer) UpdateRequest(ctx context.Context, id int64, patch models.RequestPatch) (*models.Request, error) {
	args := m.Called(ctx, id, patch)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Request), args.Error(1)
}

func (m *MockRequestDBLayer) DeleteRequest(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockRequestDBLayer) GetRequestsByTour(ctx context.Context, tourID int64) ([]models.Request, error) {
	args := m.Called(ctx, tourID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Request), args.Error(1)
}

func (m *MockRequestDBLayer) GetRequestsByCustomer(ctx context.Context, customerID int64) ([]models.Request, error) {
	args := m.Called(ctx, customerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Request), args.Error(1)
}

func (m *MockRequestDBLayer) GetEventsByRequest(ctx context.Context, requestID int64) ([]models.Event, error) {
	args := m.Called(ctx, requestID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Event), args.Error(1)
}

func (m *MockRequestDBLayer) GetTourOccupancy(ctx context.Context, tourID int64) (*models.TourOccupancy, error) {
	args := m.Called(ctx, tourID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.TourOccupancy), args.Error(1)
}

// MockNotifier records published changes
type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) PublishRequestChange(ctx context.Context, change models.RequestChange) error {
	args := m.Called(ctx, change)
	return args.Error(0)
}

func newService(dbLayer *MockRequestDBLayer, notifier requests.Notifier) *requests.RequestService {
	return requests.NewRequestService(dbLayer, notifier, logger.NewWriterLogger(io.Discard))
}

func changeOf(changeType models.RequestChangeType, id int64) interface{} {
	return mock.MatchedBy(func(c models.RequestChange) bool {
		return c.Type == changeType && c.Request.ID == id && !c.OccurredAt.IsZero()
	})
}

func TestPlaceRequest(t *testing.T) {
	ctx := context.Background()
	mockDB := new(MockRequestDBLayer)
	notifier := new(MockNotifier)
	svc := newService(mockDB, notifier)

	in := models.NewRequest{Tour: 1, Customer: 1, Passengers: 3, Wheelchairs: 1, Luggage: 2}
	created := &models.Request{ID: 1, Tour: 1, Customer: 1, Passengers: 3, Wheelchairs: 1, Luggage: 2}
	mockDB.On("CreateRequest", ctx, in).Return(created, nil)
	notifier.On("PublishRequestChange", ctx, changeOf(models.RequestCreated, 1)).Return(nil)

	req, err := svc.PlaceRequest(ctx, in)

	require.NoError(t, err)
	assert.Equal(t, created, req)
	mockDB.AssertExpectations(t)
	notifier.AssertExpectations(t)
}

func TestPlaceRequestKeepsErrorKind(t *testing.T) {
	ctx := context.Background()
	mockDB := new(MockRequestDBLayer)
	notifier := new(MockNotifier)
	svc := newService(mockDB, notifier)

	in := models.NewRequest{Tour: 999, Customer: 1, Passengers: 1}
	mockDB.On("CreateRequest", ctx, in).Return(nil, &db.ReferentialIntegrityError{Constraint: "request_tour_fkey"})

	req, err := svc.PlaceRequest(ctx, in)

	assert.Nil(t, req)
	assert.ErrorIs(t, err, db.ErrReferentialIntegrity)
	notifier.AssertNotCalled(t, "PublishRequestChange", mock.Anything, mock.Anything)
}

func TestPlaceRequestNotifierFailureIsNotFatal(t *testing.T) {
	ctx := context.Background()
	mockDB := new(MockRequestDBLayer)
	notifier := new(MockNotifier)
	svc := newService(mockDB, notifier)

	in := models.NewRequest{Tour: 1, Customer: 1, Passengers: 1}
	mockDB.On("CreateRequest", ctx, in).Return(&models.Request{ID: 5, Tour: 1, Customer: 1, Passengers: 1}, nil)
	notifier.On("PublishRequestChange", ctx, mock.Anything).Return(errors.New("broker down"))

	req, err := svc.PlaceRequest(ctx, in)

	require.NoError(t, err)
	assert.Equal(t, int64(5), req.ID)
}

func TestPlaceRequestWithoutNotifier(t *testing.T) {
	ctx := context.Background()
	mockDB := new(MockRequestDBLayer)
	svc := newService(mockDB, nil)

	in := models.NewRequest{Tour: 1, Customer: 1}
	mockDB.On("CreateRequest", ctx, in).Return(&models.Request{ID: 1, Tour: 1, Customer: 1}, nil)

	_, err := svc.PlaceRequest(ctx, in)
	assert.NoError(t, err)
}

func TestGetRequest(t *testing.T) {
	ctx := context.Background()
	mockDB := new(MockRequestDBLayer)
	svc := newService(mockDB, nil)

	mockDB.On("GetRequestByID", ctx, int64(1)).Return(&models.Request{ID: 1}, nil)
	mockDB.On("GetRequestByID", ctx, int64(2)).Return(nil, &db.NotFoundError{Entity: "request", ID: 2})

	req, err := svc.GetRequest(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(1), req.ID)

	_, err = svc.GetRequest(ctx, 2)
	assert.ErrorIs(t, err, db.ErrNotFound)
	assert.Contains(t, err.Error(), "request 2 not found")
}

func TestUpdateRequest(t *testing.T) {
	ctx := context.Background()
	mockDB := new(MockRequestDBLayer)
	notifier := new(MockNotifier)
	svc := newService(mockDB, notifier)

	passengers := int32(4)
	patch := models.RequestPatch{Passengers: &passengers}
	mockDB.On("UpdateRequest", ctx, int64(3), patch).Return(&models.Request{ID: 3, Passengers: 4}, nil)
	notifier.On("PublishRequestChange", ctx, changeOf(models.RequestUpdated, 3)).Return(nil)

	req, err := svc.UpdateRequest(ctx, 3, patch)

	require.NoError(t, err)
	assert.Equal(t, int32(4), req.Passengers)
	notifier.AssertExpectations(t)
}

func TestUpdateRequestEmptyPatchDoesNotNotify(t *testing.T) {
	ctx := context.Background()
	mockDB := new(MockRequestDBLayer)
	notifier := new(MockNotifier)
	svc := newService(mockDB, notifier)

	mockDB.On("UpdateRequest", ctx, int64(3), models.RequestPatch{}).Return(&models.Request{ID: 3}, nil)

	_, err := svc.UpdateRequest(ctx, 3, models.RequestPatch{})

	require.NoError(t, err)
	notifier.AssertNotCalled(t, "PublishRequestChange", mock.Anything, mock.Anything)
}

func TestUpdateRequestValidationError(t *testing.T) {
	ctx := context.Background()
	mockDB := new(MockRequestDBLayer)
	svc := newService(mockDB, nil)

	luggage := int32(-1)
	patch := models.RequestPatch{Luggage: &luggage}
	mockDB.On("UpdateRequest", ctx, int64(3), patch).Return(nil, &db.ValidationError{Field: "luggage", Reason: "must not be negative"})

	_, err := svc.UpdateRequest(ctx, 3, patch)

	var ve *db.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "luggage", ve.Field)
}

func TestCancelRequest(t *testing.T) {
	ctx := context.Background()
	mockDB := new(MockRequestDBLayer)
	notifier := new(MockNotifier)
	svc := newService(mockDB, notifier)

	mockDB.On("GetRequestByID", ctx, int64(7)).Return(&models.Request{ID: 7, Tour: 2}, nil)
	mockDB.On("DeleteRequest", ctx, int64(7)).Return(nil)
	notifier.On("PublishRequestChange", ctx, changeOf(models.RequestDeleted, 7)).Return(nil)

	require.NoError(t, svc.CancelRequest(ctx, 7))
	mockDB.AssertExpectations(t)
	notifier.AssertExpectations(t)
}

func TestCancelRequestErrors(t *testing.T) {
	ctx := context.Background()
	mockDB := new(MockRequestDBLayer)
	notifier := new(MockNotifier)
	svc := newService(mockDB, notifier)

	mockDB.On("GetRequestByID", ctx, int64(8)).Return(nil, &db.NotFoundError{Entity: "request", ID: 8})
	mockDB.On("GetRequestByID", ctx, int64(9)).Return(&models.Request{ID: 9}, nil)
	mockDB.On("DeleteRequest", ctx, int64(9)).Return(&db.ReferentialIntegrityError{Constraint: "event_request_fkey"})

	assert.ErrorIs(t, svc.CancelRequest(ctx, 8), db.ErrNotFound)
	assert.ErrorIs(t, svc.CancelRequest(ctx, 9), db.ErrReferentialIntegrity)
	mockDB.AssertNotCalled(t, "DeleteRequest", ctx, int64(8))
	notifier.AssertNotCalled(t, "PublishRequestChange", mock.Anything, mock.Anything)
}

func TestListings(t *testing.T) {
	ctx := context.Background()
	mockDB := new(MockRequestDBLayer)
	svc := newService(mockDB, nil)

	onTour := []models.Request{{ID: 1, Tour: 4}, {ID: 2, Tour: 4}}
	mockDB.On("GetRequestsByTour", ctx, int64(4)).Return(onTour, nil)
	mockDB.On("GetRequestsByCustomer", ctx, int64(5)).Return([]models.Request{}, nil)
	mockDB.On("GetEventsByRequest", ctx, int64(1)).Return([]models.Event{{ID: 10, Request: 1}}, nil)
	mockDB.On("GetTourOccupancy", ctx, int64(4)).Return(&models.TourOccupancy{Tour: 4, Requests: 2}, nil)

	byTour, err := svc.ListRequestsByTour(ctx, 4)
	require.NoError(t, err)
	assert.Equal(t, onTour, byTour)

	byCustomer, err := svc.ListRequestsByCustomer(ctx, 5)
	require.NoError(t, err)
	assert.Empty(t, byCustomer)

	events, err := svc.ListRequestEvents(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, events, 1)

	occupancy, err := svc.TourOccupancy(ctx, 4)
	require.NoError(t, err)
	assert.Equal(t, int64(2), occupancy.Requests)
}

func TestListingErrorsAreWrapped(t *testing.T) {
	ctx := context.Background()
	mockDB := new(MockRequestDBLayer)
	svc := newService(mockDB, nil)

	boom := errors.New("connection reset")
	mockDB.On("GetRequestsByTour", ctx, int64(4)).Return(nil, boom)

	_, err := svc.ListRequestsByTour(ctx, 4)
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "tour 4")
}
