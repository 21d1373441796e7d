package database

import (
	"context"
	"fmt"

	"github.com/uptrace/bun"

	"ms-request/internal/models"
)

// tableDef is the static definition of one table: its model and the
// foreign keys bun cannot derive from struct tags.
type tableDef struct {
	model       interface{}
	foreignKeys []string
	indexes     map[string][]string
}

// Tables in dependency order. Parents come first.
var tables = []tableDef{
	{model: (*models.User)(nil)},
	{model: (*models.Tour)(nil)},
	{
		model: (*models.Request)(nil),
		foreignKeys: []string{
			`("tour") REFERENCES "tour" ("id") ON UPDATE NO ACTION ON DELETE NO ACTION`,
			`("customer") REFERENCES "user" ("id") ON UPDATE NO ACTION ON DELETE NO ACTION`,
		},
		indexes: map[string][]string{
			"request_tour_idx":     {"tour"},
			"request_customer_idx": {"customer"},
		},
	},
	{
		model: (*models.Event)(nil),
		foreignKeys: []string{
			`("request") REFERENCES "request" ("id") ON UPDATE NO ACTION ON DELETE NO ACTION`,
		},
		indexes: map[string][]string{
			"event_request_idx": {"request"},
		},
	},
}

// CreateSchema creates the request table and the tables it references.
// PostgreSQL deployments use the versioned migrations instead; this is
// the schema for sqlite and tests.
func CreateSchema(ctx context.Context, db bun.IDB) error {
	for _, t := range tables {
		q := db.NewCreateTable().Model(t.model).IfNotExists()
		for _, fk := range t.foreignKeys {
			q = q.ForeignKey(fk)
		}
		if _, err := q.Exec(ctx); err != nil {
			return fmt.Errorf("create table for %T: %w", t.model, err)
		}
		for name, columns := range t.indexes {
			_, err := db.NewCreateIndex().
				Model(t.model).
				Index(name).
				Column(columns...).
				IfNotExists().
				Exec(ctx)
			if err != nil {
				return fmt.Errorf("create index %s: %w", name, err)
			}
		}
	}
	return nil
}

// DropSchema drops the tables in reverse dependency order.
func DropSchema(ctx context.Context, db bun.IDB) error {
	for i := len(tables) - 1; i >= 0; i-- {
		if _, err := db.NewDropTable().Model(tables[i].model).IfExists().Exec(ctx); err != nil {
			return fmt.Errorf("drop table for %T: %w", tables[i].model, err)
		}
	}
	return nil
}
