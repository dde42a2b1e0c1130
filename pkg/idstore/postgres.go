package idstore

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// loadPostgres reads identifiers from a Postgres database.
// The DSN may carry credentials, so it never appears in errors or logs.
func loadPostgres(ctx context.Context, dsn string, o *options) (*Store, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parsing postgres connection string: %w", err)
	}
	cfg.ConnConfig.DefaultQueryExecMode = pgx.QueryExecModeSimpleProtocol
	cfg.MaxConns = 1

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connecting to identifier database: %w", err)
	}
	defer pool.Close()

	rows, err := pool.Query(ctx, o.query)
	if err != nil {
		return nil, fmt.Errorf("querying identifier database: %w", err)
	}
	defer rows.Close()

	cols := len(rows.FieldDescriptions())
	if cols == 0 {
		rows.Close()
		if err := rows.Err(); err != nil {
			return nil, fmt.Errorf("querying identifier database: %w", err)
		}
	}
	if err := checkColumns(cols); err != nil {
		return nil, err
	}

	store := New(sqlStoreKind(cols, o))
	for rows.Next() {
		var (
			id     string
			method *string
		)
		if cols == 1 {
			err = rows.Scan(&id)
		} else {
			err = rows.Scan(&id, &method)
		}
		if err != nil {
			return nil, fmt.Errorf("scanning identifier row: %w", err)
		}

		m := ""
		if method != nil {
			m = *method
		}
		addSQLRow(store, id, m, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading identifier rows: %w", err)
	}

	return store, nil
}
