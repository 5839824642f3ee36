package postgres

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	// Register database postgres
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	// Register golang migrate source
	"github.com/golang-migrate/migrate/v4/source/iofs"

	"github.com/jackc/pgconn"
	"github.com/jackc/pgerrcode"
	_ "github.com/jackc/pgx/v4/stdlib"
	"github.com/jmoiron/sqlx"
)

//go:embed migrations/*.sql
var fs embed.FS

// Client is a thin wrapper over sqlx shared by the repositories.
type Client struct {
	db *sqlx.DB
}

func (c *Client) ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error) {
	return c.db.ExecContext(ctx, query, args...)
}

func (c *Client) GetContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error {
	return c.db.GetContext(ctx, dest, query, args...)
}

func (c *Client) SelectContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error {
	return c.db.SelectContext(ctx, dest, query, args...)
}

func (c *Client) RunWithinTx(ctx context.Context, f func(tx *sqlx.Tx) error) error {
	tx, err := c.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("starting transaction: %w", err)
	}
	if err := f(tx); err != nil {
		if txErr := tx.Rollback(); txErr != nil {
			return fmt.Errorf("rollback transaction error: %v (original error: %w)", txErr, err)
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

func (c *Client) Migrate(cfg Config) (ver uint, err error) {
	m, err := initMigration(cfg)
	if err != nil {
		return 0, fmt.Errorf("migration failed: %w", err)
	}
	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return 0, fmt.Errorf("migration failed: %w", err)
	}
	if ver, _, err = m.Version(); err != nil {
		return ver, err
	}
	return ver, nil
}

func (c *Client) MigrateDown(cfg Config) (ver uint, err error) {
	m, err := initMigration(cfg)
	if err != nil {
		return 0, fmt.Errorf("migration failed: %w", err)
	}
	// down one step
	if err := m.Steps(-1); err != nil && err != migrate.ErrNoChange {
		return 0, fmt.Errorf("migration failed: %w", err)
	}
	if ver, _, err = m.Version(); err != nil {
		return ver, err
	}
	return ver, nil
}

func (c *Client) Close() error {
	return c.db.Close()
}

// NewClient initializes database connection
func NewClient(cfg Config) (*Client, error) {
	db, err := sqlx.Connect("pgx", cfg.ConnectionURL().String())
	if err != nil {
		return nil, fmt.Errorf("error creating and connecting DB: %w", err)
	}
	if db == nil {
		return nil, errNilDBClient
	}
	return &Client{db}, nil
}

// NewClientWithDB wraps an existing connection, mainly for tests.
func NewClientWithDB(db *sql.DB) *Client {
	return &Client{sqlx.NewDb(db, "pgx")}
}

func initMigration(cfg Config) (*migrate.Migrate, error) {
	iofsDriver, err := iofs.New(fs, "migrations")
	if err != nil {
		return nil, err
	}
	return migrate.NewWithSourceInstance("iofs", iofsDriver, cfg.ConnectionURL().String())
}

func checkPostgresError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgerrcode.UniqueViolation:
			return fmt.Errorf("%w [%s]", errDuplicateKey, pgErr.Detail)
		case pgerrcode.CheckViolation:
			return fmt.Errorf("%w [%s]", errCheckViolation, pgErr.Detail)
		case pgerrcode.ForeignKeyViolation:
			return fmt.Errorf("%w [%s]", errForeignKeyViolation, pgErr.Detail)
		}
	}
	return err
}
