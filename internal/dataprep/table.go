package dataprep

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/xuri/excelize/v2"
)

// table is a raw grid read from a source file. Rows may be shorter than the
// header when trailing cells are empty.
type table struct {
	header []string
	rows   [][]string
}

type format int

const (
	formatUnknown format = iota
	formatXLSX
	formatCSV
)

func detectFormat(path string) format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xlsm", ".xltx", ".xltm":
		return formatXLSX
	case ".csv":
		return formatCSV
	default:
		return formatUnknown
	}
}

func readTable(path, sheet string) (*table, error) {
	switch detectFormat(path) {
	case formatXLSX:
		return readXLSX(path, sheet)
	case formatCSV:
		return readCSV(path)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, filepath.Ext(path))
	}
}

func readXLSX(path, sheet string) (*table, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if sheet == "" {
		if len(sheets) == 0 {
			return nil, ErrEmptyFile
		}
		sheet = sheets[0]
	} else if !slices.Contains(sheets, sheet) {
		return nil, fmt.Errorf("%w: %q", ErrSheetNotFound, sheet)
	}

	// number formats such as #,##0 would otherwise leak into the values
	rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheet, err)
	}
	if len(rows) == 0 {
		return nil, ErrEmptyFile
	}

	return &table{header: rows[0], rows: rows[1:]}, nil
}

func readCSV(path string) (*table, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer file.Close()

	r := csv.NewReader(file)
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	header, err := r.Read()
	if err == io.EOF {
		return nil, ErrEmptyFile
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}

	rows, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read rows: %w", err)
	}

	return &table{header: header, rows: rows}, nil
}

// columnIndex maps each requested header name to its position.
func (t *table) columnIndex(names ...string) ([]int, error) {
	pos := make(map[string]int, len(t.header))
	for i, h := range t.header {
		h = strings.TrimSpace(h)
		if _, dup := pos[h]; !dup {
			pos[h] = i
		}
	}

	idx := make([]int, len(names))
	for i, name := range names {
		p, ok := pos[strings.TrimSpace(name)]
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrMissingColumn, name)
		}
		idx[i] = p
	}
	return idx, nil
}

func cell(row []string, i int) string {
	if i < len(row) {
		return row[i]
	}
	return ""
}
