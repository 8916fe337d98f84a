package merge

import (
	"fmt"
	"sort"
	"strings"

	"github.com/JonMunkholm/covidboard/internal/dataset"
)

// PivotManufacturers reshapes a vaccination-by-manufacturer table, which has
// one row per (location, date, vaccine), into one row per (location, date).
//
// For every measure column m and every manufacturer v seen anywhere in the
// table the result carries a column "m_v". The column m itself holds the sum
// over manufacturers (null when every manufacturer is null), and the vaccine
// column lists the manufacturers reported for that key, sorted and joined
// with ", ". A repeated (location, date, vaccine) triple is a
// *DuplicateKeyError. Key order follows first appearance in the input.
func PivotManufacturers(t *dataset.Table, vaccineCol string) (*dataset.Table, error) {
	if err := checkSchema(TableVaccination, t, append([]string{dataset.ColLocation, dataset.ColDate}, vaccineCol)...); err != nil {
		return nil, err
	}

	var measures []string
	for _, c := range t.Columns() {
		if isKey(c) || c == vaccineCol {
			continue
		}
		measures = append(measures, c)
	}

	type group struct {
		location dataset.Value
		date     dataset.Value
		rows     map[string]int // vaccine -> source row
	}
	var order []string
	groups := make(map[string]*group)
	vaccineSet := make(map[string]struct{})
	seenTriple := make(map[string]int)

	for i := 0; i < t.Len(); i++ {
		k, ok := keyOf(t, i)
		if !ok {
			continue
		}
		v := t.Get(i, vaccineCol)
		if v.IsNull() {
			continue
		}
		name := v.Text()
		triple := k + keySep + name
		if prev, dup := seenTriple[triple]; dup {
			return nil, &DuplicateKeyError{
				Table: TableVaccination,
				Key:   strings.Split(triple, keySep),
				Rows:  [2]int{prev, i},
			}
		}
		seenTriple[triple] = i
		vaccineSet[name] = struct{}{}

		g, ok := groups[k]
		if !ok {
			g = &group{
				location: t.Get(i, dataset.ColLocation),
				date:     t.Get(i, dataset.ColDate),
				rows:     make(map[string]int),
			}
			groups[k] = g
			order = append(order, k)
		}
		g.rows[name] = i
	}

	vaccines := make([]string, 0, len(vaccineSet))
	for v := range vaccineSet {
		vaccines = append(vaccines, v)
	}
	sort.Strings(vaccines)

	cols := []string{dataset.ColLocation, dataset.ColDate, vaccineCol}
	for _, m := range measures {
		cols = append(cols, m)
		for _, v := range vaccines {
			cols = append(cols, m+"_"+v)
		}
	}
	out, err := dataset.NewTable(cols)
	if err != nil {
		return nil, fmt.Errorf("pivot vaccination columns: %w", err)
	}

	for _, k := range order {
		g := groups[k]
		row := make([]dataset.Value, 0, len(cols))
		row = append(row, g.location, g.date)

		present := make([]string, 0, len(g.rows))
		for _, v := range vaccines {
			if _, ok := g.rows[v]; ok {
				present = append(present, v)
			}
		}
		row = append(row, dataset.String(strings.Join(present, ", ")))

		for _, m := range measures {
			var sum float64
			var seen bool
			cells := make([]dataset.Value, len(vaccines))
			for n, v := range vaccines {
				src, ok := g.rows[v]
				if !ok {
					continue
				}
				cell := t.Get(src, m)
				cells[n] = cell
				if f, ok := cell.Float(); ok {
					sum += f
					seen = true
				}
			}
			if seen {
				row = append(row, dataset.Number(sum))
			} else {
				row = append(row, dataset.Null())
			}
			row = append(row, cells...)
		}
		if err := out.Append(row); err != nil {
			return nil, err
		}
	}
	return out, nil
}
