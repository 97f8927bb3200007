package postgres

import (
	"database/sql"
	"embed"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	migratepg "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/Hettieboo/AuctionDimensionProcessor/internal/config"
	"github.com/Hettieboo/AuctionDimensionProcessor/internal/infrastructure/monitoring/logging"
	"github.com/Hettieboo/AuctionDimensionProcessor/pkg/errors"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

// RunMigrations applies all pending schema migrations.  The migration files
// are embedded in the binary, so deployments need no migrations directory on
// disk.  It opens its own short-lived database/sql connection via the pgx
// stdlib driver because golang-migrate drives *sql.DB, not pgxpool.
func RunMigrations(cfg config.DatabaseConfig, log logging.Logger) error {
	if log == nil {
		log = logging.NewNopLogger()
	}

	db, err := sql.Open("pgx", BuildDSN(cfg))
	if err != nil {
		return errors.Wrap(err, errors.CodeMigration, "opening migration connection")
	}
	defer db.Close()

	driver, err := migratepg.WithInstance(db, &migratepg.Config{})
	if err != nil {
		return errors.Wrap(err, errors.CodeMigration, "creating migration driver")
	}

	source, err := iofs.New(migrationFiles, "migrations")
	if err != nil {
		return errors.Wrap(err, errors.CodeMigration, "loading embedded migrations")
	}

	m, err := migrate.NewWithInstance("iofs", source, "postgres", driver)
	if err != nil {
		return errors.Wrap(err, errors.CodeMigration, "creating migrate instance")
	}

	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		version, _, _ := m.Version()
		return errors.Wrap(err, errors.CodeMigration,
			fmt.Sprintf("running migrations (current version: %d)", version))
	}

	version, dirty, err := m.Version()
	if err != nil && err != migrate.ErrNilVersion {
		log.Warn("failed to read migration version", logging.Err(err))
	}
	log.Info("database migrations completed",
		logging.Int64("version", int64(version)),
		logging.Bool("dirty", dirty))
	return nil
}
