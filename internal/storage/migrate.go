package storage

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

//go:embed migrations/sqlite/*.sql migrations/postgres/*.sql
var migrationsFS embed.FS

// migrate applies every pending migration for the dialect.
//
// SQLite migrations run on the shared handle so that :memory: databases see
// the schema. The migrate instance is not closed there because closing the
// driver closes the handle. PostgreSQL migrations use their own connection.
func (db *DB) migrate(dsn string) error {
	var (
		driver database.Driver
		err    error
	)

	switch db.dialect {
	case DialectPostgres:
		migrateDB, openErr := sql.Open("postgres", dsn)
		if openErr != nil {
			return fmt.Errorf("open migration database: %w", openErr)
		}
		driver, err = postgres.WithInstance(migrateDB, &postgres.Config{})
		if err != nil {
			migrateDB.Close()
			return fmt.Errorf("create postgres driver: %w", err)
		}
	default:
		driver, err = sqlite.WithInstance(db.conn, &sqlite.Config{})
		if err != nil {
			return fmt.Errorf("create sqlite driver: %w", err)
		}
	}

	src, err := iofs.New(migrationsFS, "migrations/"+string(db.dialect))
	if err != nil {
		return fmt.Errorf("create iofs source: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", src, string(db.dialect), driver)
	if err != nil {
		return fmt.Errorf("create migrate instance: %w", err)
	}
	if db.dialect == DialectPostgres {
		defer m.Close()
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("apply migrations: %w", err)
	}

	return nil
}
