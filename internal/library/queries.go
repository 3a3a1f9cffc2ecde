package library

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// DBTX is the subset of a pgx pool or transaction the queries need.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// NewPool connects to PostgreSQL and checks the connection.
func NewPool(ctx context.Context, databaseURL string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return pool, nil
}

// DrawingRow is a row of the drawings table.
type DrawingRow struct {
	ID        string
	Name      string
	Document  []byte
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Querier is the storage the Service runs on.
type Querier interface {
	CreateDrawing(ctx context.Context, id, name string, doc []byte) (DrawingRow, error)
	GetDrawing(ctx context.Context, id string) (DrawingRow, error)
	ListDrawings(ctx context.Context) ([]DrawingRow, error)
	UpdateDrawing(ctx context.Context, id, name string, doc []byte) (DrawingRow, error)
	DeleteDrawing(ctx context.Context, id string) error
}

const schema = `
CREATE TABLE IF NOT EXISTS drawings (
	id         TEXT PRIMARY KEY,
	name       TEXT NOT NULL,
	document   JSONB NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`

const drawingColumns = `id, name, document, created_at, updated_at`

// Queries implements Querier with SQL over pgx. Missing rows surface as
// pgx.ErrNoRows.
type Queries struct {
	db DBTX
}

func NewQueries(db DBTX) *Queries {
	return &Queries{db: db}
}

// Migrate creates the drawings table if it does not exist.
func (q *Queries) Migrate(ctx context.Context) error {
	if _, err := q.db.Exec(ctx, schema); err != nil {
		return fmt.Errorf("migrate drawings: %w", err)
	}
	return nil
}

func scanDrawing(row pgx.Row) (DrawingRow, error) {
	var d DrawingRow
	err := row.Scan(&d.ID, &d.Name, &d.Document, &d.CreatedAt, &d.UpdatedAt)
	return d, err
}

func (q *Queries) CreateDrawing(ctx context.Context, id, name string, doc []byte) (DrawingRow, error) {
	return scanDrawing(q.db.QueryRow(ctx,
		`INSERT INTO drawings (id, name, document) VALUES ($1, $2, $3) RETURNING `+drawingColumns,
		id, name, doc))
}

func (q *Queries) GetDrawing(ctx context.Context, id string) (DrawingRow, error) {
	return scanDrawing(q.db.QueryRow(ctx,
		`SELECT `+drawingColumns+` FROM drawings WHERE id = $1`, id))
}

func (q *Queries) ListDrawings(ctx context.Context) ([]DrawingRow, error) {
	rows, err := q.db.Query(ctx, `SELECT `+drawingColumns+` FROM drawings ORDER BY updated_at DESC`)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (DrawingRow, error) {
		return scanDrawing(row)
	})
}

func (q *Queries) UpdateDrawing(ctx context.Context, id, name string, doc []byte) (DrawingRow, error) {
	return scanDrawing(q.db.QueryRow(ctx,
		`UPDATE drawings SET name = $2, document = $3, updated_at = now() WHERE id = $1 RETURNING `+drawingColumns,
		id, name, doc))
}

func (q *Queries) DeleteDrawing(ctx context.Context, id string) error {
	tag, err := q.db.Exec(ctx, `DELETE FROM drawings WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}
