// Package postgres implements the store.Store interface backed by PostgreSQL.
package postgres

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/golang-migrate/migrate/v4"
	migratepg "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/lib/pq"

	"github.com/fraudlens/ringview/internal/model"
	"github.com/fraudlens/ringview/internal/store"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// PostgresStore implements store.Store backed by a PostgreSQL database.
type PostgresStore struct {
	db *sql.DB
}

var _ store.Store = (*PostgresStore)(nil)

// New opens a connection to the PostgreSQL database at the given URL,
// configures the connection pool, and runs any pending migrations.
func New(databaseURL string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := runMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &PostgresStore{db: db}, nil
}

// NewWithDB wraps an existing connection without running migrations.
// Tests use it with sqlmock.
func NewWithDB(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func runMigrations(db *sql.DB) error {
	sourceDriver, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("create migration source: %w", err)
	}

	dbDriver, err := migratepg.WithInstance(db, &migratepg.Config{})
	if err != nil {
		return fmt.Errorf("create migration db driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", sourceDriver, "postgres", dbDriver)
	if err != nil {
		return fmt.Errorf("create migrator: %w", err)
	}

	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("apply migrations: %w", err)
	}

	return nil
}

// Close closes the underlying database connection.
func (s *PostgresStore) Close() error {
	return s.db.Close()
}

func (s *PostgresStore) SaveSnapshot(ctx context.Context, caseID string, snap model.Snapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO case_snapshots (case_id, snapshot, node_count, edge_count, updated_at)
		VALUES ($1, $2, $3, $4, now())
		ON CONFLICT (case_id) DO UPDATE SET
			snapshot = EXCLUDED.snapshot,
			node_count = EXCLUDED.node_count,
			edge_count = EXCLUDED.edge_count,
			updated_at = now()`,
		caseID, data, len(snap.Nodes), len(snap.Edges),
	)
	if err != nil {
		return fmt.Errorf("save snapshot %s: %w", caseID, err)
	}
	return nil
}

func (s *PostgresStore) GetSnapshot(ctx context.Context, caseID string) (model.Snapshot, time.Time, error) {
	var (
		data      []byte
		updatedAt time.Time
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT snapshot, updated_at FROM case_snapshots WHERE case_id = $1`,
		caseID,
	).Scan(&data, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Snapshot{}, time.Time{}, store.ErrNotFound
	}
	if err != nil {
		return model.Snapshot{}, time.Time{}, fmt.Errorf("get snapshot %s: %w", caseID, err)
	}

	var snap model.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return model.Snapshot{}, time.Time{}, fmt.Errorf("unmarshal snapshot %s: %w", caseID, err)
	}
	return snap, updatedAt, nil
}

func (s *PostgresStore) ListCases(ctx context.Context) ([]store.CaseInfo, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT case_id, node_count, edge_count, updated_at
		FROM case_snapshots
		ORDER BY updated_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list cases: %w", err)
	}
	defer rows.Close()

	var out []store.CaseInfo
	for rows.Next() {
		var c store.CaseInfo
		if err := rows.Scan(&c.CaseID, &c.NodeCount, &c.EdgeCount, &c.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan case row: %w", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate case rows: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) DeleteCase(ctx context.Context, caseID string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM case_snapshots WHERE case_id = $1`, caseID)
	if err != nil {
		return fmt.Errorf("delete case %s: %w", caseID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete case %s: %w", caseID, err)
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}
