package models

import (
	"time"

	"github.com/uptrace/bun"
)

// Event is a pickup or dropoff stop recorded against a request by the event
// subsystem. Requests only read them.
type Event struct {
	bun.BaseModel `bun:"table:event,alias:e"`

	ID               int64     `bun:"id,pk,autoincrement" json:"id"`
	Request          int64     `bun:"request,notnull" json:"request"`
	IsPickup         bool      `bun:"is_pickup,notnull" json:"is_pickup"`
	Address          string    `bun:"address,notnull" json:"address"`
	ScheduledTime    time.Time `bun:"scheduled_time,notnull" json:"scheduled_time"`
	CommunicatedTime time.Time `bun:"communicated_time,notnull" json:"communicated_time"`
}
