package db

import (
	"embed"
	"errors"
	"fmt"
	"strings"

	"travelo/internal/config"
	"travelo/internal/mylogger"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Migrate applies (up) or reverts (down) schema migrations. steps == 0 means all.
func Migrate(dbCfg *config.DBconfig, direction string, steps int, mylog mylogger.Logger) error {
	log := mylog.Action("Migrate").With("direction", direction, "steps", steps)

	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("open migrations: %w", err)
	}
	// the pgx/v5 driver registers itself as "pgx5"
	dbURL := "pgx5://" + strings.TrimPrefix(dbCfg.DSN(), "postgres://")

	m, err := migrate.NewWithSourceInstance("iofs", src, dbURL)
	if err != nil {
		return fmt.Errorf("migrate init: %w", err)
	}
	defer m.Close()

	switch direction {
	case "up":
		if steps > 0 {
			err = m.Steps(steps)
		} else {
			err = m.Up()
		}
	case "down":
		if steps > 0 {
			err = m.Steps(-steps)
		} else {
			err = m.Down()
		}
	default:
		return fmt.Errorf("invalid direction %q, must be up|down", direction)
	}

	if err != nil && !errors.Is(err, migrate.ErrNoChange) {
		log.Error("migration failed", err)
		return err
	}
	version, dirty, _ := m.Version()
	log.Info("migrations applied", "version", version, "dirty", dirty)
	return nil
}
