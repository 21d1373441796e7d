package models

import (
	"time"

	"github.com/uptrace/bun"
)

// Tour is owned by the tour-planning service. Only the columns needed to
// satisfy the request foreign key and build fixtures are mapped here.
type Tour struct {
	bun.BaseModel `bun:"table:tour,alias:t"`

	ID        int64     `bun:"id,pk,autoincrement" json:"id"`
	Departure time.Time `bun:"departure,notnull" json:"departure"`
	Arrival   time.Time `bun:"arrival,notnull" json:"arrival"`
	Vehicle   int64     `bun:"vehicle,notnull" json:"vehicle"`
	Fare      int32     `bun:"fare,nullzero" json:"fare,omitempty"`
	Comment   string    `bun:"comment,nullzero" json:"comment,omitempty"`
}
