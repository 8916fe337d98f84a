// Package merge builds the unified per-(location, date) table from the three
// raw datasets.
//
// The main table is authoritative for row presence. The secondary table and
// the vaccination table are left-joined onto it on (location, date); columns
// whose names already exist on the left are kept under a suffixed name so no
// source column is lost. Output row order is the main table's row order.
package merge

import (
	"log/slog"
	"strings"

	"github.com/JonMunkholm/covidboard/internal/dataset"
)

// Table names used in errors.
const (
	TableMain        = "main"
	TableSecondary   = "secondary"
	TableVaccination = "vaccination"
)

// KeyColumns are the join key columns, in order.
var KeyColumns = []string{dataset.ColLocation, dataset.ColDate}

// Options controls naming and the optional preprocessing steps.
type Options struct {
	// SecondarySuffix is appended to secondary columns that collide with main columns.
	SecondarySuffix string
	// VaccinationSuffix is appended to vaccination columns that collide with earlier columns.
	VaccinationSuffix string
	// VaccineColumn names the manufacturer identifier in the vaccination table.
	VaccineColumn string
	// PivotVaccines reshapes the vaccination table to one row per key before joining.
	PivotVaccines bool
	// DropColumns are removed from the result after both joins. Unknown names are ignored.
	DropColumns []string
}

// DefaultOptions returns the reference naming: "_owid" for secondary
// collisions and "_vacc_manufacturer" for vaccination collisions.
func DefaultOptions() Options {
	return Options{
		SecondarySuffix:   "_owid",
		VaccinationSuffix: "_vacc_manufacturer",
		VaccineColumn:     "vaccine",
		PivotVaccines:     false,
	}
}

// Merge joins main, secondary and vaccination into the unified table.
//
// Every input is checked for its key columns before any work is done; a
// missing key column fails with *SchemaError. A right-hand table with two
// rows for the same key fails with *DuplicateKeyError.
func Merge(main, secondary, vaccination *dataset.Table, opts Options) (*dataset.Table, error) {
	if err := checkSchema(TableMain, main, KeyColumns...); err != nil {
		return nil, err
	}
	if err := checkSchema(TableSecondary, secondary, KeyColumns...); err != nil {
		return nil, err
	}
	if err := checkSchema(TableVaccination, vaccination, append(KeyColumns, opts.VaccineColumn)...); err != nil {
		return nil, err
	}

	if opts.PivotVaccines {
		pivoted, err := PivotManufacturers(vaccination, opts.VaccineColumn)
		if err != nil {
			return nil, err
		}
		vaccination = pivoted
	}

	step1, err := LeftJoin(main, secondary, TableSecondary, opts.SecondarySuffix)
	if err != nil {
		return nil, err
	}
	slog.Debug("merged secondary dataset",
		"main_rows", main.Len(),
		"secondary_rows", secondary.Len(),
		"columns", len(step1.Columns()),
	)

	step2, err := LeftJoin(step1, vaccination, TableVaccination, opts.VaccinationSuffix)
	if err != nil {
		return nil, err
	}
	slog.Debug("merged vaccination dataset",
		"vaccination_rows", vaccination.Len(),
		"columns", len(step2.Columns()),
	)

	if len(opts.DropColumns) > 0 {
		step2 = Drop(step2, opts.DropColumns...)
	}
	return step2, nil
}

// checkSchema returns a *SchemaError when t lacks any of the required columns.
func checkSchema(name string, t *dataset.Table, required ...string) error {
	if t == nil {
		return &SchemaError{Table: name, Missing: required}
	}
	if missing := t.Missing(required...); len(missing) > 0 {
		return &SchemaError{Table: name, Missing: missing}
	}
	return nil
}

// LeftJoin attaches the columns of right to every row of left, matching on
// (location, date). Right-hand non-key columns whose names exist in left are
// renamed with suffix. Unmatched left rows get nulls for every right column.
// Right rows with a null key component never match.
func LeftJoin(left, right *dataset.Table, rightName, suffix string) (*dataset.Table, error) {
	if err := checkSchema(rightName, right, KeyColumns...); err != nil {
		return nil, err
	}

	leftCols := left.Columns()
	inLeft := make(map[string]struct{}, len(leftCols))
	for _, c := range leftCols {
		inLeft[c] = struct{}{}
	}

	// Output names depend only on the column names, never on row content.
	taken := make(map[string]struct{}, len(leftCols))
	for c := range inLeft {
		taken[c] = struct{}{}
	}
	var rightIdx []int
	outCols := leftCols
	for i, c := range right.Columns() {
		if isKey(c) {
			continue
		}
		name := c
		if _, clash := inLeft[c]; clash {
			name = c + suffix
		}
		if _, used := taken[name]; used {
			return nil, &ColumnCollisionError{Table: rightName, Column: c, Suffix: suffix}
		}
		taken[name] = struct{}{}
		outCols = append(outCols, name)
		rightIdx = append(rightIdx, i)
	}

	index, err := indexByKey(right, rightName)
	if err != nil {
		return nil, err
	}

	out, err := dataset.NewTable(outCols)
	if err != nil {
		return nil, err
	}

	width := len(leftCols)
	for i := 0; i < left.Len(); i++ {
		row := make([]dataset.Value, len(outCols))
		copy(row, left.Row(i))
		if k, ok := keyOf(left, i); ok {
			if j, found := index[k]; found {
				src := right.Row(j)
				for n, ri := range rightIdx {
					row[width+n] = src[ri]
				}
			}
		}
		if err := out.Append(row); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// indexByKey maps each (location, date) key to its row in t.
func indexByKey(t *dataset.Table, name string) (map[string]int, error) {
	index := make(map[string]int, t.Len())
	for i := 0; i < t.Len(); i++ {
		k, ok := keyOf(t, i)
		if !ok {
			continue
		}
		if prev, dup := index[k]; dup {
			return nil, &DuplicateKeyError{
				Table: name,
				Key:   strings.Split(k, keySep),
				Rows:  [2]int{prev, i},
			}
		}
		index[k] = i
	}
	return index, nil
}

const keySep = "\x1f"

// keyOf builds the join key of row i. ok is false when a key cell is null.
func keyOf(t *dataset.Table, i int, extra ...string) (string, bool) {
	cols := append(KeyColumns[:len(KeyColumns):len(KeyColumns)], extra...)
	parts := make([]string, len(cols))
	for n, c := range cols {
		v := t.Get(i, c)
		if v.IsNull() {
			return "", false
		}
		parts[n] = v.Text()
	}
	return strings.Join(parts, keySep), true
}

func isKey(c string) bool {
	for _, k := range KeyColumns {
		if c == k {
			return true
		}
	}
	return false
}

// Drop returns a copy of t without the named columns.
func Drop(t *dataset.Table, names ...string) *dataset.Table {
	drop := make(map[string]struct{}, len(names))
	for _, n := range names {
		drop[n] = struct{}{}
	}
	var keep []string
	var pos []int
	for i, c := range t.Columns() {
		if _, ok := drop[c]; ok {
			continue
		}
		keep = append(keep, c)
		pos = append(pos, i)
	}
	if len(keep) == len(t.Columns()) {
		return t
	}
	out, _ := dataset.NewTable(keep)
	for i := 0; i < t.Len(); i++ {
		src := t.Row(i)
		row := make([]dataset.Value, len(pos))
		for n, p := range pos {
			row[n] = src[p]
		}
		_ = out.Append(row)
	}
	return out
}
