package models

import (
	"time"

	"github.com/uptrace/bun"
)

// Request is a single transport booking: a customer reserving seats on a tour.
type Request struct {
	bun.BaseModel `bun:"table:request,alias:r"`

	ID          int64 `bun:"id,pk,autoincrement" json:"id"`
	Tour        int64 `bun:"tour,notnull" json:"tour"`
	Customer    int64 `bun:"customer,notnull" json:"customer"`
	Passengers  int32 `bun:"passengers" json:"passengers"`
	Wheelchairs int32 `bun:"wheelchairs" json:"wheelchairs"`
	Luggage     int32 `bun:"luggage" json:"luggage"`
}

// NewRequest carries the caller-supplied fields of a request to be created.
type NewRequest struct {
	Tour        int64 `json:"tour"`
	Customer    int64 `json:"customer"`
	Passengers  int32 `json:"passengers"`
	Wheelchairs int32 `json:"wheelchairs"`
	Luggage     int32 `json:"luggage"`
}

// RequestPatch is a partial update. Nil fields are left untouched.
type RequestPatch struct {
	Tour        *int64 `json:"tour,omitempty"`
	Customer    *int64 `json:"customer,omitempty"`
	Passengers  *int32 `json:"passengers,omitempty"`
	Wheelchairs *int32 `json:"wheelchairs,omitempty"`
	Luggage     *int32 `json:"luggage,omitempty"`
}

func (p RequestPatch) IsEmpty() bool {
	return p.Tour == nil && p.Customer == nil && p.Passengers == nil && p.Wheelchairs == nil && p.Luggage == nil
}

// TourOccupancy aggregates the requests booked on one tour
type TourOccupancy struct {
	Tour        int64 `bun:"-" json:"tour"`
	Requests    int64 `bun:"requests" json:"requests"`
	Passengers  int64 `bun:"passengers" json:"passengers"`
	Wheelchairs int64 `bun:"wheelchairs" json:"wheelchairs"`
	Luggage     int64 `bun:"luggage" json:"luggage"`
}

type RequestChangeType string

const (
	RequestCreated RequestChangeType = "request.created"
	RequestUpdated RequestChangeType = "request.updated"
	RequestDeleted RequestChangeType = "request.deleted"
)

// RequestChange is published after a request write has been committed.
type RequestChange struct {
	Type       RequestChangeType `json:"type"`
	Request    Request           `json:"request"`
	OccurredAt time.Time         `json:"occurred_at"`
}
