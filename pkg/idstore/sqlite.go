package idstore

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"strings"

	_ "modernc.org/sqlite" // SQLite driver
)

const sqliteScheme = "sqlite://"

// loadSQLite reads identifiers from a SQLite database file.
// The database must already exist; it is never created.
func loadSQLite(ctx context.Context, source string, o *options) (*Store, error) {
	path := source
	if strings.HasPrefix(strings.ToLower(path), sqliteScheme) {
		path = path[len(sqliteScheme):]
	}

	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("opening identifier database: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening identifier database: %w", err)
	}
	defer db.Close()

	rows, err := db.QueryContext(ctx, o.query)
	if err != nil {
		return nil, fmt.Errorf("querying identifier database: %w", err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("reading result columns: %w", err)
	}
	if err := checkColumns(len(cols)); err != nil {
		return nil, err
	}

	store := New(sqlStoreKind(len(cols), o))
	for rows.Next() {
		var (
			id     string
			method sql.NullString
		)
		if len(cols) == 1 {
			err = rows.Scan(&id)
		} else {
			err = rows.Scan(&id, &method)
		}
		if err != nil {
			return nil, fmt.Errorf("scanning identifier row: %w", err)
		}
		addSQLRow(store, id, method.String, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading identifier rows: %w", err)
	}

	return store, nil
}

// checkColumns validates the shape of an identifier query result:
// one column (identifier) or two columns (identifier, payment method).
func checkColumns(n int) error {
	if n < 1 || n > 2 {
		return fmt.Errorf("identifier query must return 1 or 2 columns, got %d", n)
	}
	return nil
}

func sqlStoreKind(columns int, o *options) Kind {
	if columns == 1 {
		return KindIdentifiersOnly
	}
	return storeKind(o)
}

func addSQLRow(store *Store, id, method string, o *options) {
	id = strings.TrimSpace(id)
	if id == "" {
		o.logger.Warn("ignoring identifier row with empty id")
		return
	}
	store.Add(id, PaymentMethod(strings.TrimSpace(method)))
}
