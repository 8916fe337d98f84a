package dataset

// Float reads a numeric cell with a declared default. The default is returned
// when the column is absent, the row is out of range, or the cell is null or
// not a number.
func Float(t *Table, row int, col string, def float64) float64 {
	if f, ok := t.Get(row, col).Float(); ok {
		return f
	}
	return def
}

// Last returns the index of the final row, or -1 for an empty table.
func Last(t *Table) int {
	return t.Len() - 1
}

// LatestFloat reads a numeric cell from the final row with a default.
func LatestFloat(t *Table, col string, def float64) float64 {
	return Float(t, Last(t), col, def)
}

// FloatColumn returns every value of a numeric column, substituting def for
// missing or non-numeric cells.
func FloatColumn(t *Table, col string, def float64) []float64 {
	out := make([]float64, t.Len())
	for i := range out {
		out[i] = Float(t, i, col, def)
	}
	return out
}
