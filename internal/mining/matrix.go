package mining

import "math/bits"

// Bitset is a fixed-size set of row indexes.
type Bitset []uint64

func NewBitset(n int) Bitset {
	return make(Bitset, (n+63)/64)
}

func (b Bitset) Set(i int) {
	b[i/64] |= 1 << uint(i%64)
}

func (b Bitset) Has(i int) bool {
	return b[i/64]&(1<<uint(i%64)) != 0
}

func (b Bitset) Count() int {
	n := 0
	for _, w := range b {
		n += bits.OnesCount64(w)
	}
	return n
}

// intersect returns a new bitset holding a AND b.
func intersect(a, b Bitset) Bitset {
	out := make(Bitset, len(a))
	for i := range a {
		out[i] = a[i] & b[i]
	}
	return out
}

// Matrix is a column-oriented boolean basket matrix: Columns[j] marks the
// rows whose basket contains Items[j].
type Matrix struct {
	Items   []string
	Rows    int
	Columns []Bitset
}

func NewMatrix(rows int, items []string) *Matrix {
	cols := make([]Bitset, len(items))
	for j := range cols {
		cols[j] = NewBitset(rows)
	}
	return &Matrix{
		Items:   items,
		Rows:    rows,
		Columns: cols,
	}
}

func (m *Matrix) Set(row, col int) {
	m.Columns[col].Set(row)
}

func (m *Matrix) Has(row, col int) bool {
	return m.Columns[col].Has(row)
}

func (m *Matrix) Empty() bool {
	return m == nil || m.Rows == 0 || len(m.Items) == 0
}
