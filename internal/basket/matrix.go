// Package basket reshapes cleaned transaction records into a per-invoice item
// quantity matrix and its boolean presence encoding.
package basket

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/cockroachdb/apd/v3"

	"basket-rules/internal/mining"
	"basket-rules/internal/models"
)

var (
	ErrEmptyBasket     = errors.New("basket matrix is empty")
	ErrInvalidQuantity = errors.New("invalid quantity")
)

// EmptyBasketError reports a country filter that left no invoices or no items.
type EmptyBasketError struct {
	Country  string
	Invoices int
	Items    int
}

func (e *EmptyBasketError) Error() string {
	return fmt.Sprintf("no basket data for country %q (%d invoices, %d items)", e.Country, e.Invoices, e.Items)
}

func (e *EmptyBasketError) Unwrap() error {
	return ErrEmptyBasket
}

var decimalCtx = apd.BaseContext.WithPrecision(34)

// Matrix holds summed quantities per (invoice, item). Rows follow the first
// appearance of each invoice, columns are sorted item names, and cells that
// were never written are zero.
type Matrix struct {
	Invoices []string
	Items    []string
	cells    []map[int]*apd.Decimal
}

// Build filters records to one country and pivots them into a quantity
// matrix. Records without an item name do not contribute a column.
func Build(records []models.Record, country string) (*Matrix, error) {
	country = strings.TrimSpace(country)

	rowIndex := make(map[string]int)
	var invoices []string
	itemSet := make(map[string]struct{})
	var selected []models.Record

	for _, rec := range records {
		if strings.TrimSpace(rec.Country) != country || rec.Item == "" {
			continue
		}
		if _, ok := rowIndex[rec.Invoice]; !ok {
			rowIndex[rec.Invoice] = len(invoices)
			invoices = append(invoices, rec.Invoice)
		}
		itemSet[rec.Item] = struct{}{}
		selected = append(selected, rec)
	}

	if len(invoices) == 0 || len(itemSet) == 0 {
		return nil, &EmptyBasketError{Country: country, Invoices: len(invoices), Items: len(itemSet)}
	}

	items := make([]string, 0, len(itemSet))
	for it := range itemSet {
		items = append(items, it)
	}
	slices.Sort(items)

	colIndex := make(map[string]int, len(items))
	for i, it := range items {
		colIndex[it] = i
	}

	m := &Matrix{
		Invoices: invoices,
		Items:    items,
		cells:    make([]map[int]*apd.Decimal, len(invoices)),
	}
	for i := range m.cells {
		m.cells[i] = make(map[int]*apd.Decimal)
	}

	for _, rec := range selected {
		qty, err := parseQuantity(rec.Quantity)
		if err != nil {
			return nil, fmt.Errorf("invoice %s item %q: %w", rec.Invoice, rec.Item, err)
		}
		if err := m.add(rowIndex[rec.Invoice], colIndex[rec.Item], qty); err != nil {
			return nil, err
		}
	}

	return m, nil
}

func parseQuantity(s string) (*apd.Decimal, error) {
	d := new(apd.Decimal)
	if strings.TrimSpace(s) == "" {
		return d, nil
	}
	if _, _, err := d.SetString(strings.TrimSpace(s)); err != nil {
		return nil, fmt.Errorf("%w %q: %v", ErrInvalidQuantity, s, err)
	}
	if d.Form != apd.Finite {
		return nil, fmt.Errorf("%w %q", ErrInvalidQuantity, s)
	}
	return d, nil
}

func (m *Matrix) add(row, col int, qty *apd.Decimal) error {
	cur, ok := m.cells[row][col]
	if !ok {
		m.cells[row][col] = new(apd.Decimal).Set(qty)
		return nil
	}
	if _, err := decimalCtx.Add(cur, cur, qty); err != nil {
		return fmt.Errorf("sum quantity: %w", err)
	}
	return nil
}

func (m *Matrix) Rows() int { return len(m.Invoices) }

func (m *Matrix) Cols() int { return len(m.Items) }

// Value returns the summed quantity at (row, col), zero when absent.
func (m *Matrix) Value(row, col int) apd.Decimal {
	var out apd.Decimal
	if d, ok := m.cells[row][col]; ok {
		out.Set(d)
	}
	return out
}

// Binarize maps every positive cell to 1 and every other cell to 0.
// Binarizing an already binary matrix returns an equal matrix.
func (m *Matrix) Binarize() *Matrix {
	out := &Matrix{
		Invoices: m.Invoices,
		Items:    m.Items,
		cells:    make([]map[int]*apd.Decimal, len(m.cells)),
	}
	for r, row := range m.cells {
		out.cells[r] = make(map[int]*apd.Decimal, len(row))
		for c, d := range row {
			if d.Sign() > 0 {
				out.cells[r][c] = apd.New(1, 0)
			}
		}
	}
	return out
}

// Presence encodes positive cells as a column-oriented boolean matrix for
// the mining stage.
func (m *Matrix) Presence() *mining.Matrix {
	pm := mining.NewMatrix(m.Rows(), m.Items)
	for r, row := range m.cells {
		for c, d := range row {
			if d.Sign() > 0 {
				pm.Set(r, c)
			}
		}
	}
	return pm
}

// Equal reports whether both matrices have the same labels and cell values.
func (m *Matrix) Equal(other *Matrix) bool {
	if !slices.Equal(m.Invoices, other.Invoices) || !slices.Equal(m.Items, other.Items) {
		return false
	}
	for r := range m.cells {
		for c := range m.Items {
			a, b := m.Value(r, c), other.Value(r, c)
			if a.Cmp(&b) != 0 {
				return false
			}
		}
	}
	return true
}
