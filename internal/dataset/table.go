package dataset

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// Well-known column names.
const (
	ColLocation = "location"
	ColDate     = "date"
)

// Table is an ordered set of rows sharing one column list.
type Table struct {
	columns []string
	index   map[string]int
	rows    [][]Value
}

// NewTable creates an empty table with the given columns.
// Returns an error if a column name is empty or repeated.
func NewTable(columns []string) (*Table, error) {
	idx := make(map[string]int, len(columns))
	for i, c := range columns {
		if c == "" {
			return nil, fmt.Errorf("column %d has an empty name", i)
		}
		if _, dup := idx[c]; dup {
			return nil, fmt.Errorf("duplicate column %q", c)
		}
		idx[c] = i
	}
	cols := make([]string, len(columns))
	copy(cols, columns)
	return &Table{columns: cols, index: idx}, nil
}

// MustTable is NewTable that panics on error. Intended for tests and literals.
func MustTable(columns []string, rows ...[]Value) *Table {
	t, err := NewTable(columns)
	if err != nil {
		panic(err)
	}
	for _, r := range rows {
		if err := t.Append(r); err != nil {
			panic(err)
		}
	}
	return t
}

// Append adds a row. The row must have exactly one value per column.
func (t *Table) Append(row []Value) error {
	if len(row) != len(t.columns) {
		return fmt.Errorf("row has %d values, table has %d columns", len(row), len(t.columns))
	}
	t.rows = append(t.rows, row)
	return nil
}

// Columns returns a copy of the column names in order.
func (t *Table) Columns() []string {
	out := make([]string, len(t.columns))
	copy(out, t.columns)
	return out
}

// Len returns the number of rows. A nil table has no rows.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.rows)
}

// Has reports whether the table has a column with the given name.
func (t *Table) Has(name string) bool {
	if t == nil {
		return false
	}
	_, ok := t.index[name]
	return ok
}

// Column returns the position of a column, or -1 when absent.
func (t *Table) Column(name string) int {
	if t == nil {
		return -1
	}
	if i, ok := t.index[name]; ok {
		return i
	}
	return -1
}

// Missing returns the names from want that the table does not have.
func (t *Table) Missing(want ...string) []string {
	var missing []string
	for _, w := range want {
		if !t.Has(w) {
			missing = append(missing, w)
		}
	}
	return missing
}

// Get returns the cell at row i for the named column.
// Absent columns and out-of-range rows read as null.
func (t *Table) Get(i int, name string) Value {
	c := t.Column(name)
	if c < 0 || i < 0 || i >= t.Len() {
		return Value{}
	}
	return t.rows[i][c]
}

// Row returns a copy of row i.
func (t *Table) Row(i int) []Value {
	out := make([]Value, len(t.rows[i]))
	copy(out, t.rows[i])
	return out
}

// Clone returns a deep copy of the table.
func (t *Table) Clone() *Table {
	out := &Table{
		columns: t.Columns(),
		index:   make(map[string]int, len(t.index)),
		rows:    make([][]Value, len(t.rows)),
	}
	for k, v := range t.index {
		out.index[k] = v
	}
	for i := range t.rows {
		out.rows[i] = t.Row(i)
	}
	return out
}

// Filter returns a new table holding copies of the rows for which keep
// returns true, in their original order.
func (t *Table) Filter(keep func(i int) bool) *Table {
	out := &Table{columns: t.Columns(), index: t.index}
	for i := range t.rows {
		if keep(i) {
			out.rows = append(out.rows, t.Row(i))
		}
	}
	return out
}

// WhereLocation returns the rows whose location is one of names.
func (t *Table) WhereLocation(names ...string) *Table {
	set := make(map[string]struct{}, len(names))
	for _, n := range names {
		set[n] = struct{}{}
	}
	c := t.Column(ColLocation)
	return t.Filter(func(i int) bool {
		if c < 0 {
			return false
		}
		v := t.rows[i][c]
		if v.Kind != KindString {
			return false
		}
		_, ok := set[v.Str]
		return ok
	})
}

// SortStable returns a copy of the table sorted with less. Ties keep their
// original order.
func (t *Table) SortStable(less func(a, b []Value) bool) *Table {
	out := t.Clone()
	sort.SliceStable(out.rows, func(i, j int) bool {
		return less(out.rows[i], out.rows[j])
	})
	return out
}

// SortByDate returns a copy sorted ascending by the date column. Rows with a
// null date sort last.
func (t *Table) SortByDate() *Table {
	c := t.Column(ColDate)
	if c < 0 {
		return t.Clone()
	}
	return t.SortStable(func(a, b []Value) bool {
		return dateLess(a[c], b[c])
	})
}

// SortByDateThen sorts by date, breaking ties on another column's text.
func (t *Table) SortByDateThen(col string) *Table {
	dc, tc := t.Column(ColDate), t.Column(col)
	if dc < 0 {
		return t.Clone()
	}
	return t.SortStable(func(a, b []Value) bool {
		if !a[dc].Equal(b[dc]) {
			return dateLess(a[dc], b[dc])
		}
		if tc < 0 {
			return false
		}
		return a[tc].Text() < b[tc].Text()
	})
}

func dateLess(a, b Value) bool {
	if a.Kind != KindDate {
		return false
	}
	if b.Kind != KindDate {
		return true
	}
	return a.Time.Before(b.Time)
}

// IsSortedByDate reports whether every row has a date and dates never
// decrease. The returned index is the first offending row, or -1.
func (t *Table) IsSortedByDate() (bool, int) {
	c := t.Column(ColDate)
	if c < 0 {
		return t.Len() == 0, 0
	}
	for i, r := range t.rows {
		if r[c].Kind != KindDate {
			return false, i
		}
		if i > 0 && r[c].Time.Before(t.rows[i-1][c].Time) {
			return false, i
		}
	}
	return true, -1
}

// Locations returns the distinct string values of the location column in
// first-seen order.
func (t *Table) Locations() []string {
	c := t.Column(ColLocation)
	if c < 0 {
		return nil
	}
	seen := make(map[string]struct{})
	var out []string
	for _, r := range t.rows {
		v := r[c]
		if v.Kind != KindString {
			continue
		}
		if _, ok := seen[v.Str]; ok {
			continue
		}
		seen[v.Str] = struct{}{}
		out = append(out, v.Str)
	}
	return out
}

// MarshalJSON encodes the table as {"columns": [...], "rows": [[...], ...]}
// so column order survives the round trip to the presentation layer.
func (t *Table) MarshalJSON() ([]byte, error) {
	rows := t.rows
	if rows == nil {
		rows = [][]Value{}
	}
	return json.Marshal(struct {
		Columns []string  `json:"columns"`
		Rows    [][]Value `json:"rows"`
	}{Columns: t.columns, Rows: rows})
}

// String returns a short description used in logs.
func (t *Table) String() string {
	if t == nil {
		return "Table<nil>"
	}
	return fmt.Sprintf("Table[%d rows x %d cols: %s]", len(t.rows), len(t.columns), strings.Join(t.columns, ","))
}
