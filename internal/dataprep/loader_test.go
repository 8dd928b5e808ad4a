package dataprep

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/xuri/excelize/v2"

	"basket-rules/internal/models"
)

var retailColumns = models.Columns{
	Invoice:  "InvoiceNo",
	Item:     "Description",
	Country:  "Country",
	Quantity: "Quantity",
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// writeXLSX stores rows (header first) in a workbook under dir.
func writeXLSX(t *testing.T, dir string, rows [][]any) string {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()

	for i, row := range rows {
		cellName, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			t.Fatal(err)
		}
		if err := f.SetSheetRow("Sheet1", cellName, &row); err != nil {
			t.Fatal(err)
		}
	}

	path := filepath.Join(dir, "retail.xlsx")
	if err := f.SaveAs(path); err != nil {
		t.Fatal(err)
	}
	return path
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func retailRows() [][]any {
	return [][]any{
		{"InvoiceNo", "StockCode", "Description", "Quantity", "Country"},
		{536365, "85123A", "WHITE HANGING HEART ", 6, "United Kingdom"},
		{536365, "71053", "WHITE METAL LANTERN", 6, "United Kingdom"},
		{"536365C", "71053", "WHITE METAL LANTERN", -6, "United Kingdom"},
		{nil, "22752", "SET 7 BABUSHKA", 2, "United Kingdom"},
		{536370, "22728", "ALARM CLOCK", 24, "France"},
	}
}

func TestLoader_LoadXLSX(t *testing.T) {
	path := writeXLSX(t, t.TempDir(), retailRows())
	l := NewLoader(Options{}, testLogger())

	records, err := l.Load(context.Background(), Request{Path: path, Columns: retailColumns})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	want := []models.Record{
		{Invoice: "536365", Item: "WHITE HANGING HEART", Country: "United Kingdom", Quantity: "6"},
		{Invoice: "536365", Item: "WHITE METAL LANTERN", Country: "United Kingdom", Quantity: "6"},
		{Invoice: "536370", Item: "ALARM CLOCK", Country: "France", Quantity: "24"},
	}
	if len(records) != len(want) {
		t.Fatalf("records = %+v, want %+v", records, want)
	}
	for i := range want {
		if records[i] != want[i] {
			t.Errorf("record %d = %+v, want %+v", i, records[i], want[i])
		}
	}
}

func TestLoader_LoadXLSXStyledNumbers(t *testing.T) {
	f := excelize.NewFile()
	defer f.Close()

	for i, row := range [][]any{
		{"InvoiceNo", "Description", "Quantity", "Country"},
		{536365, "A", 1200, "United Kingdom"},
	} {
		cellName, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			t.Fatal(err)
		}
		if err := f.SetSheetRow("Sheet1", cellName, &row); err != nil {
			t.Fatal(err)
		}
	}

	// 0.00 on the invoice and #,##0 on the quantity
	twoDecimals, err := f.NewStyle(&excelize.Style{NumFmt: 2})
	if err != nil {
		t.Fatal(err)
	}
	thousands, err := f.NewStyle(&excelize.Style{NumFmt: 3})
	if err != nil {
		t.Fatal(err)
	}
	if err := f.SetCellStyle("Sheet1", "A2", "A2", twoDecimals); err != nil {
		t.Fatal(err)
	}
	if err := f.SetCellStyle("Sheet1", "C2", "C2", thousands); err != nil {
		t.Fatal(err)
	}

	path := filepath.Join(t.TempDir(), "styled.xlsx")
	if err := f.SaveAs(path); err != nil {
		t.Fatal(err)
	}

	records, err := NewLoader(Options{}, testLogger()).Load(context.Background(), Request{Path: path, Columns: retailColumns})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	want := models.Record{Invoice: "536365", Item: "A", Country: "United Kingdom", Quantity: "1200"}
	if len(records) != 1 || records[0] != want {
		t.Errorf("records = %+v, want [%+v]", records, want)
	}
}

func TestLoader_LoadCSV(t *testing.T) {
	csv := "\ufeffInvoiceNo,Description,Quantity,Country\n" +
		"536365,  CREAM CUPID HEARTS ,8,United Kingdom\n" +
		"536365C,CREAM CUPID HEARTS,-8,United Kingdom\n" +
		",NO INVOICE,1,United Kingdom\n" +
		"536366.0,HAND WARMER,6,United Kingdom\n"
	path := writeFile(t, t.TempDir(), "retail.csv", csv)

	records, err := NewLoader(Options{}, testLogger()).Load(context.Background(), Request{Path: path, Columns: retailColumns})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if len(records) != 2 {
		t.Fatalf("len = %d, want 2: %+v", len(records), records)
	}
	if records[0].Item != "CREAM CUPID HEARTS" {
		t.Errorf("item = %q, want trimmed", records[0].Item)
	}
	if records[1].Invoice != "536366" {
		t.Errorf("invoice = %q, want 536366", records[1].Invoice)
	}
}

func TestLoader_Errors(t *testing.T) {
	dir := t.TempDir()
	xlsx := writeXLSX(t, dir, retailRows())
	badQty := writeFile(t, dir, "bad.csv", "InvoiceNo,Description,Quantity,Country\n1,A,many,UK\n")
	empty := writeFile(t, dir, "empty.csv", "")
	txt := writeFile(t, dir, "notes.txt", "hello")

	tests := []struct {
		name    string
		req     Request
		wantErr error
	}{
		{"missing file", Request{Path: filepath.Join(dir, "nope.xlsx"), Columns: retailColumns}, os.ErrNotExist},
		{"unsupported format", Request{Path: txt, Columns: retailColumns}, ErrUnsupportedFormat},
		{"missing invoice column", Request{Path: xlsx, Columns: models.Columns{Invoice: "Invoice", Item: "Description", Country: "Country", Quantity: "Quantity"}}, ErrMissingColumn},
		{"missing country column", Request{Path: xlsx, Columns: models.Columns{Invoice: "InvoiceNo", Item: "Description", Country: "Nation", Quantity: "Quantity"}}, ErrMissingColumn},
		{"unknown sheet", Request{Path: xlsx, Sheet: "Other", Columns: retailColumns}, ErrSheetNotFound},
		{"bad quantity", Request{Path: badQty, Columns: retailColumns}, ErrInvalidQuantity},
		{"empty csv", Request{Path: empty, Columns: retailColumns}, ErrEmptyFile},
		{"directory", Request{Path: dir, Columns: retailColumns}, ErrUnsupportedFormat},
	}

	l := NewLoader(Options{}, testLogger())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := l.Load(context.Background(), tt.req)
			if err == nil {
				t.Fatal("Load() should fail")
			}

			var dle *DataLoadError
			if !errors.As(err, &dle) {
				t.Errorf("error %v should be a *DataLoadError", err)
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("error %v should wrap %v", err, tt.wantErr)
			}
		})
	}
}

func TestLoader_BadQuantityReportsRow(t *testing.T) {
	path := writeFile(t, t.TempDir(), "bad.csv", "InvoiceNo,Description,Quantity,Country\n1,A,2,UK\n2,B,x,UK\n")

	_, err := NewLoader(Options{}, testLogger()).Load(context.Background(), Request{Path: path, Columns: retailColumns})

	var dle *DataLoadError
	if !errors.As(err, &dle) {
		t.Fatalf("error = %v, want *DataLoadError", err)
	}
	if dle.Row != 3 {
		t.Errorf("row = %d, want 3", dle.Row)
	}
}

func TestLoader_DataRoot(t *testing.T) {
	root := t.TempDir()
	writeXLSX(t, root, retailRows())
	outside := writeFile(t, t.TempDir(), "other.csv", "InvoiceNo,Description,Quantity,Country\n")

	l := NewLoader(Options{Root: root}, testLogger())

	records, err := l.Load(context.Background(), Request{Path: "retail.xlsx", Columns: retailColumns})
	if err != nil {
		t.Fatalf("relative path inside root: %v", err)
	}
	if len(records) == 0 {
		t.Error("expected records")
	}

	if err := os.Symlink(filepath.Join(root, "retail.xlsx"), filepath.Join(root, "alias.xlsx")); err != nil {
		t.Skipf("symlinks unavailable: %v", err)
	}
	if _, err := l.Load(context.Background(), Request{Path: "alias.xlsx", Columns: retailColumns}); err != nil {
		t.Errorf("link to a file inside root: %v", err)
	}

	if err := os.Symlink(outside, filepath.Join(root, "link.csv")); err != nil {
		t.Fatal(err)
	}
	if err := os.Symlink(filepath.Dir(outside), filepath.Join(root, "elsewhere")); err != nil {
		t.Fatal(err)
	}

	for _, p := range []string{outside, "../escape.csv", filepath.Join(root, "..", "x.csv"), "link.csv", "elsewhere/other.csv"} {
		if _, err := l.Load(context.Background(), Request{Path: p, Columns: retailColumns}); !errors.Is(err, ErrOutsideRoot) {
			t.Errorf("Load(%q) error = %v, want ErrOutsideRoot", p, err)
		}
	}
}

func TestLoader_Cache(t *testing.T) {
	dir := t.TempDir()
	cacheDir := filepath.Join(dir, "cache")
	path := writeFile(t, dir, "retail.csv", "InvoiceNo,Description,Quantity,Country\n1,A,2,UK\n")

	l := NewLoader(Options{CacheDir: cacheDir}, testLogger())
	req := Request{Path: path, Columns: retailColumns}

	first, err := l.Load(context.Background(), req)
	if err != nil {
		t.Fatal(err)
	}

	entries, err := os.ReadDir(cacheDir)
	if err != nil || len(entries) != 1 {
		t.Fatalf("cache dir entries = %v, err = %v", entries, err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	cached, ok := l.cache.load(cacheKey{Path: filepath.Clean(path), Columns: retailColumns}, info)
	if !ok {
		t.Fatal("expected cache hit")
	}
	if len(cached) != len(first) || cached[0] != first[0] {
		t.Errorf("cached = %+v, want %+v", cached, first)
	}

	// a different column mapping must not reuse the entry
	other := retailColumns
	other.Item = "Quantity"
	if _, ok := l.cache.load(cacheKey{Path: filepath.Clean(path), Columns: other}, info); ok {
		t.Error("cache should miss for another column mapping")
	}
}

func TestLoader_CacheInvalidatedBySourceChange(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "retail.csv", "InvoiceNo,Description,Quantity,Country\n1,A,2,UK\n")
	l := NewLoader(Options{CacheDir: filepath.Join(dir, "cache")}, testLogger())
	req := Request{Path: path, Columns: retailColumns}

	if _, err := l.Load(context.Background(), req); err != nil {
		t.Fatal(err)
	}

	writeFile(t, dir, "retail.csv", "InvoiceNo,Description,Quantity,Country\n1,A,2,UK\n2,B,3,UK\n")

	records, err := l.Load(context.Background(), req)
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 2 {
		t.Errorf("len = %d, want 2 after source change", len(records))
	}
}
