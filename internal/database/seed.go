package database

import (
	"context"
	"fmt"
	"time"

	"github.com/uptrace/bun"

	"ms-request/internal/models"
)

// Seed inserts a small sample data set: two customers, one tour, one
// request and its pickup/dropoff events. It runs in one transaction.
func Seed(ctx context.Context, db *bun.DB) error {
	return db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		users := []models.User{
			{Name: "Alice Wonderland", Email: "alice@example.com"},
			{Name: "Bob Builder", Email: "bob@example.com"},
		}
		if _, err := tx.NewInsert().Model(&users).Exec(ctx); err != nil {
			return fmt.Errorf("seed users: %w", err)
		}

		departure := time.Now().Add(24 * time.Hour).Truncate(time.Minute)
		tour := models.Tour{
			Departure: departure,
			Arrival:   departure.Add(40 * time.Minute),
			Vehicle:   1,
			Fare:      1250,
			Comment:   "seeded sample tour",
		}
		if _, err := tx.NewInsert().Model(&tour).Exec(ctx); err != nil {
			return fmt.Errorf("seed tour: %w", err)
		}

		request := models.Request{
			Tour:        tour.ID,
			Customer:    users[0].ID,
			Passengers:  3,
			Wheelchairs: 1,
			Luggage:     2,
		}
		if _, err := tx.NewInsert().Model(&request).Exec(ctx); err != nil {
			return fmt.Errorf("seed request: %w", err)
		}

		events := []models.Event{
			{Request: request.ID, IsPickup: true, Address: "Hauptstraße 1", ScheduledTime: tour.Departure, CommunicatedTime: tour.Departure},
			{Request: request.ID, IsPickup: false, Address: "Bahnhofplatz 3", ScheduledTime: tour.Arrival, CommunicatedTime: tour.Arrival},
		}
		if _, err := tx.NewInsert().Model(&events).Exec(ctx); err != nil {
			return fmt.Errorf("seed events: %w", err)
		}
		return nil
	})
}
