package database

import (
	"context"
	"database/sql"
	"time"
)

// DBTX is satisfied by *sql.DB and *sql.Tx.
type DBTX interface {
	ExecContext(context.Context, string, ...any) (sql.Result, error)
	QueryContext(context.Context, string, ...any) (*sql.Rows, error)
	QueryRowContext(context.Context, string, ...any) *sql.Row
}

// Queries holds every statement feedgrid runs against its schema.
type Queries struct {
	db DBTX
}

// NewQueries returns Queries bound to db.
func NewQueries(db DBTX) *Queries {
	return &Queries{db: db}
}

// WithTx returns Queries that run inside tx.
func (q *Queries) WithTx(tx *sql.Tx) *Queries {
	return &Queries{db: tx}
}

const getValue = `-- name: GetValue :one
SELECT value FROM kv WHERE key = ?
`

func (q *Queries) GetValue(ctx context.Context, key string) (string, error) {
	row := q.db.QueryRowContext(ctx, getValue, key)
	var value string
	err := row.Scan(&value)
	return value, err
}

const upsertValue = `-- name: UpsertValue :exec
INSERT INTO kv (key, value, updated_at) VALUES (?, ?, ?)
ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
`

type UpsertValueParams struct {
	Key       string
	Value     string
	UpdatedAt time.Time
}

func (q *Queries) UpsertValue(ctx context.Context, arg UpsertValueParams) error {
	_, err := q.db.ExecContext(ctx, upsertValue, arg.Key, arg.Value, arg.UpdatedAt)
	return err
}

const createOperation = `-- name: CreateOperation :execlastid
INSERT INTO operations (started_at, operation, parameters, status) VALUES (?, ?, ?, ?)
`

type CreateOperationParams struct {
	StartedAt  time.Time
	Operation  string
	Parameters string
	Status     string
}

func (q *Queries) CreateOperation(ctx context.Context, arg CreateOperationParams) (int64, error) {
	res, err := q.db.ExecContext(ctx, createOperation, arg.StartedAt, arg.Operation, arg.Parameters, arg.Status)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

const finishOperation = `-- name: FinishOperation :exec
UPDATE operations SET finished_at = ?, status = ? WHERE id = ?
`

type FinishOperationParams struct {
	FinishedAt time.Time
	Status     string
	ID         int64
}

func (q *Queries) FinishOperation(ctx context.Context, arg FinishOperationParams) error {
	_, err := q.db.ExecContext(ctx, finishOperation, arg.FinishedAt, arg.Status, arg.ID)
	return err
}

const listOperations = `-- name: ListOperations :many
SELECT id, started_at, finished_at, operation, parameters, status
FROM operations ORDER BY id DESC LIMIT ?
`

func (q *Queries) ListOperations(ctx context.Context, limit int) ([]*Operation, error) {
	rows, err := q.db.QueryContext(ctx, listOperations, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []*Operation
	for rows.Next() {
		var i Operation
		if err := rows.Scan(&i.ID, &i.StartedAt, &i.FinishedAt, &i.Operation, &i.Parameters, &i.Status); err != nil {
			return nil, err
		}
		items = append(items, &i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}
