package main

import (
	"context"
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"

	"ms-request/internal/config"
	"ms-request/internal/database"
	"ms-request/internal/database/migrations"
	"ms-request/internal/logger"
)

const usage = `usage: migrate <command>

commands:
  up             apply all pending migrations
  down           roll back every migration
  to <version>   migrate up or down to the given version
  version        print the applied version
  seed           insert the sample data set
  reset          drop and recreate the schema, then seed (sqlite only)`

func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	log := logger.NewLogger(cfg.Log.Dir, "migrate")
	defer log.Close()

	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, usage)
		os.Exit(2)
	}

	if err := run(context.Background(), cfg, log, os.Args[1], os.Args[2:]); err != nil {
		log.Fatal("MIGRATION", err.Error())
	}
}

func run(ctx context.Context, cfg *config.Config, log *logger.Logger, cmd string, args []string) error {
	db, err := database.Open(ctx, cfg.Database, log)
	if err != nil {
		return err
	}
	defer db.Close()

	switch cmd {
	case "seed":
		if err := database.Seed(ctx, db); err != nil {
			return err
		}
		log.LogMigration("SEED", "Sample data inserted")
		return nil
	case "reset":
		if cfg.Database.Driver != config.DriverSQLite {
			return fmt.Errorf("reset is only supported for sqlite, use down and up for postgres")
		}
		log.LogMigration("RESET", "Dropping tables")
		if err := database.DropSchema(ctx, db); err != nil {
			return err
		}
		log.LogMigration("RESET", "Creating tables")
		if err := database.CreateSchema(ctx, db); err != nil {
			return err
		}
		return database.Seed(ctx, db)
	}

	if cfg.Database.Driver != config.DriverPostgres {
		return fmt.Errorf("command %q needs DB_DRIVER=postgres", cmd)
	}

	runner := migrations.NewRunner(db, log)
	defer runner.Close()

	switch cmd {
	case "up":
		return runner.MigrateUp()
	case "down":
		return runner.MigrateDown()
	case "to":
		if len(args) != 1 {
			return fmt.Errorf("to needs exactly one version argument")
		}
		version, err := strconv.ParseUint(args[0], 10, 32)
		if err != nil {
			return fmt.Errorf("invalid version %q: %w", args[0], err)
		}
		return runner.MigrateTo(uint(version))
	case "version":
		version, dirty, err := runner.Version()
		if err != nil {
			return err
		}
		fmt.Printf("version=%d dirty=%t\n", version, dirty)
		return nil
	default:
		return fmt.Errorf("unknown command %q\n%s", cmd, usage)
	}
}
