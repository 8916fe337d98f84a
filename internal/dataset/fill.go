package dataset

// Gap filling. Every helper works per location, visiting rows in table
// order, and returns a copy; the input is never modified. Callers sort by
// date first when the fill should follow time.

// groups returns row indexes per location value in first-seen order.
func (t *Table) groups() [][]int {
	lc := t.Column(ColLocation)
	pos := make(map[string]int)
	var out [][]int
	for i, r := range t.rows {
		key := ""
		if lc >= 0 {
			key = r[lc].Text()
		}
		g, ok := pos[key]
		if !ok {
			g = len(out)
			pos[key] = g
			out = append(out, nil)
		}
		out[g] = append(out[g], i)
	}
	return out
}

// FillForward returns a copy of the table where null cells of the given
// columns take the last non-null value seen for the same location.
func FillForward(t *Table, cols ...string) *Table {
	out := t.Clone()
	out.eachColumnGroup(cols, func(c int, rows []int) {
		var last Value
		for _, i := range rows {
			if out.rows[i][c].IsNull() {
				out.rows[i][c] = last
				continue
			}
			last = out.rows[i][c]
		}
	})
	return out
}

// FillBackward is FillForward in reverse: nulls take the next non-null value
// for the same location.
func FillBackward(t *Table, cols ...string) *Table {
	out := t.Clone()
	out.eachColumnGroup(cols, func(c int, rows []int) {
		var next Value
		for n := len(rows) - 1; n >= 0; n-- {
			i := rows[n]
			if out.rows[i][c].IsNull() {
				out.rows[i][c] = next
				continue
			}
			next = out.rows[i][c]
		}
	})
	return out
}

// FillNull replaces every remaining null in the given columns with v.
func FillNull(t *Table, v Value, cols ...string) *Table {
	out := t.Clone()
	out.eachColumnGroup(cols, func(c int, rows []int) {
		for _, i := range rows {
			if out.rows[i][c].IsNull() {
				out.rows[i][c] = v
			}
		}
	})
	return out
}

// Interpolate fills numeric gaps in col linearly by row position within
// each location. Nulls before the first number stay null; nulls after the
// last number repeat it.
func Interpolate(t *Table, col string) *Table {
	out := t.Clone()
	out.eachColumnGroup([]string{col}, func(c int, rows []int) {
		prev := -1
		for n, i := range rows {
			cur, ok := out.rows[i][c].Float()
			if !ok {
				continue
			}
			if prev >= 0 && n-prev > 1 {
				from, _ := out.rows[rows[prev]][c].Float()
				step := (cur - from) / float64(n-prev)
				for k := prev + 1; k < n; k++ {
					out.rows[rows[k]][c] = Number(from + step*float64(k-prev))
				}
			}
			prev = n
		}
		if prev >= 0 {
			last := out.rows[rows[prev]][c]
			for k := prev + 1; k < len(rows); k++ {
				out.rows[rows[k]][c] = last
			}
		}
	})
	return out
}

func (t *Table) eachColumnGroup(cols []string, fn func(c int, rows []int)) {
	groups := t.groups()
	for _, col := range cols {
		c := t.Column(col)
		if c < 0 {
			continue
		}
		for _, rows := range groups {
			fn(c, rows)
		}
	}
}
