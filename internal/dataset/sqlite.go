package dataset

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"
)

// SQLiteLoader reads the dataset from a SQLite database with one table per
// record kind. The database is opened read-only; only tables that exist are
// loaded.
type SQLiteLoader struct {
	path   string
	logger *zap.Logger
}

// NewSQLiteLoader creates a loader for the given database file.
func NewSQLiteLoader(path string, logger *zap.Logger) *SQLiteLoader {
	return &SQLiteLoader{path: path, logger: logger}
}

// Load opens the database and reads every known table present in it.
func (l *SQLiteLoader) Load() (*Snapshot, error) {
	db, err := sql.Open("sqlite3", "file:"+l.path+"?mode=ro")
	if err != nil {
		return nil, fmt.Errorf("open database %s: %w", l.path, err)
	}
	defer db.Close()

	existing, err := existingTables(db)
	if err != nil {
		return nil, err
	}

	snap := &Snapshot{}
	found := 0
	for table, kind := range tableNames {
		if !existing[table] {
			continue
		}
		header, rows, err := readTable(db, table)
		if err != nil {
			return nil, fmt.Errorf("read table %s: %w", table, err)
		}
		found++
		snap.assign(kind, recordsFromTable(kind, header, rows))
	}
	if found == 0 {
		return nil, fmt.Errorf("no dataset tables found in %s", l.path)
	}
	if l.logger != nil {
		l.logger.Debug("sqlite dataset read", zap.String("path", l.path), zap.Int("tables", found))
	}
	return snap, nil
}

func existingTables(db *sql.DB) (map[string]bool, error) {
	rows, err := db.Query(`SELECT name FROM sqlite_master WHERE type = 'table'`)
	if err != nil {
		return nil, fmt.Errorf("list tables: %w", err)
	}
	defer rows.Close()

	out := map[string]bool{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		out[name] = true
	}
	return out, rows.Err()
}

func readTable(db *sql.DB, table string) (header []string, out [][]string, err error) {
	// Table names come from the fixed tableNames map, never from input.
	rows, err := db.Query(`SELECT * FROM ` + table)
	if err != nil {
		return nil, nil, err
	}
	defer rows.Close()

	header, err = rows.Columns()
	if err != nil {
		return nil, nil, err
	}
	for rows.Next() {
		values := make([]sql.NullString, len(header))
		ptrs := make([]any, len(header))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, nil, err
		}
		row := make([]string, len(header))
		for i, v := range values {
			if v.Valid {
				row[i] = v.String
			}
		}
		out = append(out, row)
	}
	return header, out, rows.Err()
}
