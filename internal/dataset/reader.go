package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
)

// ErrEmptyFile is returned when a CSV has no header row.
var ErrEmptyFile = errors.New("empty file")

// CellError reports a cell that could not be converted.
type CellError struct {
	Source string
	Line   int
	Column string
	Value  string
}

func (e *CellError) Error() string {
	return fmt.Sprintf("%s line %d: invalid date in column %q: %q", e.Source, e.Line, e.Column, e.Value)
}

// ReadResult carries the parsed table plus load statistics.
type ReadResult struct {
	Table     *Table
	BytesRead int64
}

// ReadCSV parses a CSV stream into a Table. source names the stream in errors.
func ReadCSV(source string, r io.Reader) (*ReadResult, error) {
	counted := WrapRaw(r)
	cr := csv.NewReader(counted)
	cr.ReuseRecord = true

	header, err := cr.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("%s: %w", source, ErrEmptyFile)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: invalid csv header: %w", source, err)
	}

	cols := make([]string, len(header))
	for i, h := range header {
		cols[i] = CleanCell(h)
	}
	t, err := NewTable(cols)
	if err != nil {
		return nil, fmt.Errorf("%s: invalid csv header: %w", source, err)
	}

	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%s: invalid csv: %w", source, err)
		}
		row := make([]Value, len(cols))
		for i, raw := range rec {
			v, ok := ParseCell(cols[i], raw)
			if !ok {
				line, _ := cr.FieldPos(i)
				return nil, &CellError{Source: source, Line: line, Column: cols[i], Value: raw}
			}
			row[i] = v
		}
		t.rows = append(t.rows, row)
	}

	return &ReadResult{Table: t, BytesRead: counted.BytesRead}, nil
}
