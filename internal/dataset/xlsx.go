package dataset

import (
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

// XLSXLoader reads a single workbook with one sheet per table. Sheet names
// are matched case-insensitively against the table names.
type XLSXLoader struct {
	path   string
	logger *zap.Logger
}

// NewXLSXLoader creates a loader for the given workbook.
func NewXLSXLoader(path string, logger *zap.Logger) *XLSXLoader {
	return &XLSXLoader{path: path, logger: logger}
}

// Load reads every recognized sheet from the workbook.
func (l *XLSXLoader) Load() (*Snapshot, error) {
	f, err := excelize.OpenFile(l.path)
	if err != nil {
		return nil, fmt.Errorf("open workbook %s: %w", l.path, err)
	}
	defer f.Close()

	snap := &Snapshot{}
	found := 0
	for _, sheet := range f.GetSheetList() {
		kind, ok := tableNames[strings.ToLower(strings.TrimSpace(sheet))]
		if !ok {
			continue
		}
		rows, err := f.GetRows(sheet)
		if err != nil {
			return nil, fmt.Errorf("read sheet %s: %w", sheet, err)
		}
		if len(rows) == 0 {
			continue
		}
		found++
		snap.assign(kind, recordsFromTable(kind, rows[0], rows[1:]))
	}
	if found == 0 {
		return nil, fmt.Errorf("no recognized sheets in %s", l.path)
	}
	if l.logger != nil {
		l.logger.Debug("xlsx dataset read", zap.String("path", l.path), zap.Int("sheets", found))
	}
	return snap, nil
}
