package sheet

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore persists tables in Postgres while keeping the store's
// full-replace contract: every write runs in one transaction that deletes
// the table's rows and inserts the submitted snapshot. Cells stay opaque
// text; typing is the reconciler's job, not the database's.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore connects and creates the backing tables if absent.
func NewPostgresStore(ctx context.Context, dsn string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres store: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres store: ping: %w", err)
	}
	s := &PostgresStore{pool: pool}
	for _, table := range []string{MaintenanceTable, StockTable} {
		if err := s.ensureTable(ctx, table); err != nil {
			pool.Close()
			return nil, err
		}
	}
	return s, nil
}

func (s *PostgresStore) Close() {
	s.pool.Close()
}

func (s *PostgresStore) ensureTable(ctx context.Context, table string) error {
	_, err := s.pool.Exec(ctx, fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			seq     BIGSERIAL PRIMARY KEY,
			header  BOOLEAN NOT NULL DEFAULT FALSE,
			cells   TEXT[] NOT NULL
		)`, pgx.Identifier{table}.Sanitize()))
	if err != nil {
		return fmt.Errorf("postgres store: create %s: %w", table, err)
	}
	return nil
}

func (s *PostgresStore) Read(ctx context.Context, table string) (Table, error) {
	rows, err := s.pool.Query(ctx, fmt.Sprintf(
		`SELECT header, cells FROM %s ORDER BY seq`, pgx.Identifier{table}.Sanitize()))
	if err != nil {
		return Table{}, unavailable("read", table, err)
	}
	defer rows.Close()

	var t Table
	for rows.Next() {
		var header bool
		var cells []string
		if err := rows.Scan(&header, &cells); err != nil {
			return Table{}, unavailable("read", table, err)
		}
		if header {
			t.Columns = cells
			continue
		}
		t.Rows = append(t.Rows, cells)
	}
	if err := rows.Err(); err != nil {
		return Table{}, unavailable("read", table, err)
	}
	return t, nil
}

func (s *PostgresStore) Replace(ctx context.Context, table string, t Table) error {
	ident := pgx.Identifier{table}.Sanitize()
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return unavailable("write", table, err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, fmt.Sprintf(`DELETE FROM %s`, ident)); err != nil {
		return unavailable("write", table, err)
	}
	insert := fmt.Sprintf(`INSERT INTO %s (header, cells) VALUES ($1, $2)`, ident)
	if _, err := tx.Exec(ctx, insert, true, t.Columns); err != nil {
		return unavailable("write", table, err)
	}
	for _, row := range t.Rows {
		if _, err := tx.Exec(ctx, insert, false, row); err != nil {
			return unavailable("write", table, err)
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return unavailable("write", table, err)
	}
	return nil
}
