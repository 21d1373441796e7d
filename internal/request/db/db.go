package db

import (
	"context"
	"fmt"

	"github.com/uptrace/bun"

	"ms-request/internal/models"
)

// DB is the request repository. Writes run in a single transaction
// together with their reference checks; reads are single statements.
type DB struct {
	Bun *bun.DB

	// AllowExcessWheelchairs disables the wheelchairs <= passengers rule.
	AllowExcessWheelchairs bool
}

// ---------------- REQUESTS ----------------

// CreateRequest → validate, check parents, insert
func (d *DB) CreateRequest(ctx context.Context, in models.NewRequest) (*models.Request, error) {
	req := models.Request{
		Tour:        in.Tour,
		Customer:    in.Customer,
		Passengers:  in.Passengers,
		Wheelchairs: in.Wheelchairs,
		Luggage:     in.Luggage,
	}
	if err := d.validate(req); err != nil {
		return nil, err
	}

	err := d.Bun.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if err := checkTour(ctx, tx, req.Tour); err != nil {
			return err
		}
		if err := checkCustomer(ctx, tx, req.Customer); err != nil {
			return err
		}
		_, err := tx.NewInsert().Model(&req).Exec(ctx)
		return err
	})
	if err != nil {
		return nil, classifyError(err, "request", 0)
	}
	return &req, nil
}

// GetRequestByID → fetch one request by its ID
func (d *DB) GetRequestByID(ctx context.Context, id int64) (*models.Request, error) {
	var req models.Request
	err := d.Bun.NewSelect().
		Model(&req).
		Where("id = ?", id).
		Limit(1).
		Scan(ctx)
	if err != nil {
		return nil, classifyError(err, "request", id)
	}
	return &req, nil
}

// UpdateRequest applies a partial update. Only the columns named in the
// patch are written; the merged row is validated before the write.
func (d *DB) UpdateRequest(ctx context.Context, id int64, patch models.RequestPatch) (*models.Request, error) {
	var req models.Request
	err := d.Bun.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		err := tx.NewSelect().Model(&req).Where("id = ?", id).Limit(1).Scan(ctx)
		if err != nil {
			return classifyError(err, "request", id)
		}

		columns := make([]string, 0, 5)
		if patch.Tour != nil {
			req.Tour = *patch.Tour
			columns = append(columns, "tour")
		}
		if patch.Customer != nil {
			req.Customer = *patch.Customer
			columns = append(columns, "customer")
		}
		if patch.Passengers != nil {
			req.Passengers = *patch.Passengers
			columns = append(columns, "passengers")
		}
		if patch.Wheelchairs != nil {
			req.Wheelchairs = *patch.Wheelchairs
			columns = append(columns, "wheelchairs")
		}
		if patch.Luggage != nil {
			req.Luggage = *patch.Luggage
			columns = append(columns, "luggage")
		}
		if len(columns) == 0 {
			return nil
		}

		if err := d.validate(req); err != nil {
			return err
		}
		if patch.Tour != nil {
			if err := checkTour(ctx, tx, req.Tour); err != nil {
				return err
			}
		}
		if patch.Customer != nil {
			if err := checkCustomer(ctx, tx, req.Customer); err != nil {
				return err
			}
		}

		_, err = tx.NewUpdate().
			Model(&req).
			Column(columns...).
			WherePK().
			Exec(ctx)
		return err
	})
	if err != nil {
		return nil, classifyError(err, "request", id)
	}
	return &req, nil
}

// DeleteRequest → hard delete. Refused while events still reference the row.
func (d *DB) DeleteRequest(ctx context.Context, id int64) error {
	err := d.Bun.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		events, err := tx.NewSelect().
			Model((*models.Event)(nil)).
			Where("request = ?", id).
			Count(ctx)
		if err != nil {
			return err
		}
		if events > 0 {
			return &ReferentialIntegrityError{
				Constraint: "event_request_fkey",
				Err:        fmt.Errorf("request %d still has %d events", id, events),
			}
		}

		res, err := tx.NewDelete().
			Model((*models.Request)(nil)).
			Where("id = ?", id).
			Exec(ctx)
		if err != nil {
			return err
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if affected == 0 {
			return &NotFoundError{Entity: "request", ID: id}
		}
		return nil
	})
	return classifyError(err, "request", id)
}

// RequestExists checks if a request with the given ID exists
func (d *DB) RequestExists(ctx context.Context, id int64) (bool, error) {
	return d.Bun.NewSelect().
		Model((*models.Request)(nil)).
		Where("id = ?", id).
		Exists(ctx)
}

// ---------------- RELATION QUERIES ----------------

// GetRequestsByTour → all requests booked on a tour, oldest first
func (d *DB) GetRequestsByTour(ctx context.Context, tourID int64) ([]models.Request, error) {
	requests := make([]models.Request, 0)
	err := d.Bun.NewSelect().
		Model(&requests).
		Where("tour = ?", tourID).
		Order("id ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return requests, nil
}

// GetRequestsByCustomer → all requests placed by a customer, oldest first
func (d *DB) GetRequestsByCustomer(ctx context.Context, customerID int64) ([]models.Request, error) {
	requests := make([]models.Request, 0)
	err := d.Bun.NewSelect().
		Model(&requests).
		Where("customer = ?", customerID).
		Order("id ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return requests, nil
}

// GetEventsByRequest → events recorded for a request in insertion order
func (d *DB) GetEventsByRequest(ctx context.Context, requestID int64) ([]models.Event, error) {
	events := make([]models.Event, 0)
	err := d.Bun.NewSelect().
		Model(&events).
		Where("request = ?", requestID).
		Order("id ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return events, nil
}

// GetTourOccupancy sums the seats, wheelchairs and luggage booked on a tour.
func (d *DB) GetTourOccupancy(ctx context.Context, tourID int64) (*models.TourOccupancy, error) {
	exists, err := d.TourExists(ctx, tourID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, &NotFoundError{Entity: "tour", ID: tourID}
	}

	occupancy := models.TourOccupancy{Tour: tourID}
	err = d.Bun.NewSelect().
		Model((*models.Request)(nil)).
		ColumnExpr("COUNT(*) AS requests").
		ColumnExpr("COALESCE(SUM(passengers), 0) AS passengers").
		ColumnExpr("COALESCE(SUM(wheelchairs), 0) AS wheelchairs").
		ColumnExpr("COALESCE(SUM(luggage), 0) AS luggage").
		Where("tour = ?", tourID).
		Scan(ctx, &occupancy)
	if err != nil {
		return nil, err
	}
	return &occupancy, nil
}

// TourExists checks if a tour with the given ID exists
func (d *DB) TourExists(ctx context.Context, tourID int64) (bool, error) {
	return d.Bun.NewSelect().
		Model((*models.Tour)(nil)).
		Where("id = ?", tourID).
		Exists(ctx)
}

// CustomerExists checks if a user with the given ID exists
func (d *DB) CustomerExists(ctx context.Context, customerID int64) (bool, error) {
	return d.Bun.NewSelect().
		Model((*models.User)(nil)).
		Where("id = ?", customerID).
		Exists(ctx)
}

// ---------------- CHECKS ----------------

func checkTour(ctx context.Context, db bun.IDB, tourID int64) error {
	ok, err := db.NewSelect().Model((*models.Tour)(nil)).Where("id = ?", tourID).Exists(ctx)
	if err != nil {
		return err
	}
	if !ok {
		return &ReferentialIntegrityError{
			Constraint: "request_tour_fkey",
			Err:        fmt.Errorf("tour %d does not exist", tourID),
		}
	}
	return nil
}

func checkCustomer(ctx context.Context, db bun.IDB, customerID int64) error {
	ok, err := db.NewSelect().Model((*models.User)(nil)).Where("id = ?", customerID).Exists(ctx)
	if err != nil {
		return err
	}
	if !ok {
		return &ReferentialIntegrityError{
			Constraint: "request_customer_fkey",
			Err:        fmt.Errorf("user %d does not exist", customerID),
		}
	}
	return nil
}

func (d *DB) validate(req models.Request) error {
	switch {
	case req.Passengers < 0:
		return &ValidationError{Field: "passengers", Reason: "must not be negative"}
	case req.Wheelchairs < 0:
		return &ValidationError{Field: "wheelchairs", Reason: "must not be negative"}
	case req.Luggage < 0:
		return &ValidationError{Field: "luggage", Reason: "must not be negative"}
	case !d.AllowExcessWheelchairs && req.Wheelchairs > req.Passengers:
		return &ValidationError{
			Field:  "wheelchairs",
			Reason: fmt.Sprintf("%d exceeds passenger count %d", req.Wheelchairs, req.Passengers),
		}
	}
	return nil
}
