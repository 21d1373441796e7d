package models

import (
	"github.com/uptrace/bun"
)

// User is the customer account placing requests.
type User struct {
	bun.BaseModel `bun:"table:user,alias:u"`

	ID    int64  `bun:"id,pk,autoincrement" json:"id"`
	Name  string `bun:"name,notnull" json:"name"`
	Email string `bun:"email,unique,notnull" json:"email"`
}
