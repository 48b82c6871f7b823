package dataset

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"
)

// CSVLoader reads a directory of CSV exports, one file per table
// (orders.csv, fleet_logs.csv, ...). Missing files are tolerated; the
// corresponding slice stays empty.
type CSVLoader struct {
	dir    string
	logger *zap.Logger
}

// NewCSVLoader creates a loader for the given directory.
func NewCSVLoader(dir string, logger *zap.Logger) *CSVLoader {
	return &CSVLoader{dir: dir, logger: logger}
}

// Load reads every known table file present in the directory.
func (l *CSVLoader) Load() (*Snapshot, error) {
	snap := &Snapshot{}
	found := 0
	for table, kind := range tableNames {
		path := filepath.Join(l.dir, table+".csv")
		header, rows, err := readCSV(path)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return nil, fmt.Errorf("read %s: %w", path, err)
		}
		found++
		snap.assign(kind, recordsFromTable(kind, header, rows))
	}
	if found == 0 {
		return nil, fmt.Errorf("no dataset tables found in %s", l.dir)
	}
	if l.logger != nil {
		l.logger.Debug("csv dataset read", zap.String("dir", l.dir), zap.Int("tables", found))
	}
	return snap, nil
}

func readCSV(path string) (header []string, rows [][]string, err error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	all, err := r.ReadAll()
	if err != nil {
		return nil, nil, err
	}
	if len(all) == 0 {
		return nil, nil, nil
	}
	return all[0], all[1:], nil
}
