package database

import (
	"database/sql"
	"embed"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/mbolis/quick-forms/log"
	"github.com/pkg/errors"
)

//go:embed migrations
var schema embed.FS

// migrateDB brings the schema up to the latest embedded version.
func migrateDB(db *sql.DB) error {
	src, err := iofs.New(schema, "migrations")
	if err != nil {
		return errors.Wrap(err, "migrate.source")
	}

	dst, err := sqlite3.WithInstance(db, &sqlite3.Config{})
	if err != nil {
		return errors.Wrap(err, "migrate.driver")
	}

	m, err := migrate.NewWithInstance("iofs", src, "sqlite3", dst)
	if err != nil {
		return errors.Wrap(err, "migrate.init")
	}

	err = m.Up()
	if err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return errors.Wrap(err, "migrate.up")
	}

	version, dirty, err := m.Version()
	if err != nil {
		return errors.Wrap(err, "migrate.version")
	}
	if dirty {
		return errors.Errorf("migrate: schema version %d is dirty", version)
	}
	log.Infof("db.migrate: schema at version %d", version)
	return nil
}
