// Package store persists users, per-user financials tables and run history.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"github.com/ppiankov/edgarflat/internal/model"
)

func init() {
	// modernc registers as "sqlite", which sqlx does not know
	sqlx.BindDriver("sqlite", sqlx.QUESTION)
}

// Store wraps a pooled sqlx.DB for either SQLite or Postgres
type Store struct {
	db      *sqlx.DB
	dialect dialect
	logger  *zap.Logger
}

// Open connects using cfg, then creates the shared tables if needed
func Open(ctx context.Context, cfg model.StoreConfig, logger *zap.Logger) (*Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	d, err := dialectFor(cfg.Driver)
	if err != nil {
		return nil, err
	}
	dsn, err := d.dsn(cfg)
	if err != nil {
		return nil, err
	}

	db, err := sqlx.Open(d.driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", d.name, err)
	}
	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	pingTimeout := cfg.BusyTimeout
	if pingTimeout <= 0 {
		pingTimeout = 5 * time.Second
	}
	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping %s: %w", d.name, err)
	}

	s := &Store{db: db, dialect: d, logger: logger.Named("store")}
	if err := s.migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// Close releases the pool
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Ping checks connectivity
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Dialect names the backend, "sqlite" or "postgres"
func (s *Store) Dialect() string { return s.dialect.name }

func (s *Store) migrate(ctx context.Context) error {
	return s.withTx(ctx, func(tx *sqlx.Tx) error {
		for i, stmt := range schemaStatements {
			if _, err := tx.ExecContext(ctx, stmt); err != nil {
				return fmt.Errorf("execute schema statement %d: %w", i+1, err)
			}
		}
		return nil
	})
}

func (s *Store) withTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	tx, err := s.db.BeginTxx(ctx, &sql.TxOptions{})
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id TEXT PRIMARY KEY,
		first_name TEXT NOT NULL,
		last_name TEXT NOT NULL,
		email TEXT NOT NULL,
		created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE IF NOT EXISTS pipeline_runs (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		cik BIGINT NOT NULL,
		entity_name TEXT NOT NULL,
		fact_rows INTEGER NOT NULL,
		attribute_rows INTEGER NOT NULL,
		skipped INTEGER NOT NULL,
		walk_mode TEXT NOT NULL,
		started_at TIMESTAMP NOT NULL,
		finished_at TIMESTAMP NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_pipeline_runs_user ON pipeline_runs(user_id, finished_at)`,
}

// dialect holds what differs between the two backends
type dialect struct {
	name       string
	driver     string
	realType   string
	nullsFirst string
	tableQuery string
	dsn        func(cfg model.StoreConfig) (string, error)
}

func dialectFor(name string) (dialect, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "sqlite", "sqlite3":
		return dialect{
			name:       "sqlite",
			driver:     "sqlite",
			realType:   "REAL",
			tableQuery: `SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = ? COLLATE NOCASE`,
			dsn:        sqliteDSN,
		}, nil
	case "postgres", "postgresql", "pgx":
		return dialect{
			name:       "postgres",
			driver:     "pgx",
			realType:   "DOUBLE PRECISION",
			nullsFirst: " NULLS FIRST",
			tableQuery: `SELECT COUNT(*) FROM information_schema.tables WHERE table_schema = current_schema() AND table_name = ?`,
			dsn:        postgresDSN,
		}, nil
	}
	return dialect{}, fmt.Errorf("unsupported store driver %q (want sqlite or postgres)", name)
}

func sqliteDSN(cfg model.StoreConfig) (string, error) {
	path := strings.TrimSpace(cfg.DSN)
	if path == "" {
		return "", errors.New("sqlite path required")
	}
	if strings.HasPrefix(path, "file:") {
		return path, nil
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("resolve sqlite path: %w", err)
	}
	busy := int(cfg.BusyTimeout / time.Millisecond)
	if busy <= 0 {
		busy = 5000
	}
	return fmt.Sprintf("file:%s?_pragma=busy_timeout(%d)&_pragma=foreign_keys(1)", abs, busy), nil
}

func postgresDSN(cfg model.StoreConfig) (string, error) {
	if strings.TrimSpace(cfg.DSN) == "" {
		return "", errors.New("postgres DSN required")
	}
	return cfg.DSN, nil
}

// quoteIdent quotes a table or column name. Both dialects accept double quotes.
func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}
