package merge

import (
	"fmt"
	"strings"
)

// SchemaError reports an input table that lacks required key columns.
// No partial merge is produced when it is returned.
type SchemaError struct {
	Table   string   // "main", "secondary" or "vaccination"
	Missing []string // required columns not found
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("schema error: %s table missing required column(s): %s",
		e.Table, strings.Join(e.Missing, ", "))
}

// DuplicateKeyError reports a right-hand table with more than one row for a
// join key. Inputs are expected to hold one row per key; the engine does not
// deduplicate.
type DuplicateKeyError struct {
	Table string
	Key   []string // key column values, in key column order
	Rows  [2]int   // zero-based row indexes of the first two rows sharing the key
}

func (e *DuplicateKeyError) Error() string {
	return fmt.Sprintf("duplicate join key in %s table: (%s) at rows %d and %d",
		e.Table, strings.Join(e.Key, ", "), e.Rows[0], e.Rows[1])
}

// ColumnCollisionError reports that a disambiguated column name is itself
// already taken, so the suffix cannot keep both columns.
type ColumnCollisionError struct {
	Table  string
	Column string
	Suffix string
}

func (e *ColumnCollisionError) Error() string {
	return fmt.Sprintf("column collision: %s column %q cannot be renamed to %q, name already in use",
		e.Table, e.Column, e.Column+e.Suffix)
}
