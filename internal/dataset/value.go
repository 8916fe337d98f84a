// Package dataset provides the in-memory tabular model shared by the merge
// engine and the country handlers.
//
// A [Table] is an ordered list of column names plus rows of [Value] cells
// aligned to those columns. Tables produced by the merge engine are treated as
// immutable: helpers that filter or sort always return a new Table.
package dataset

import (
	"encoding/json"
	"strconv"
	"time"
)

// Kind identifies the scalar type held by a Value.
type Kind uint8

const (
	KindNull Kind = iota
	KindString
	KindNumber
	KindDate
)

// DateLayout is the canonical day layout used for join keys and JSON output.
const DateLayout = "2006-01-02"

// Value is a single cell. The zero Value is null.
type Value struct {
	Kind Kind
	Str  string
	Num  float64
	Time time.Time
}

// Null returns the null value.
func Null() Value { return Value{} }

// String returns a string value.
func String(s string) Value { return Value{Kind: KindString, Str: s} }

// Number returns a numeric value.
func Number(f float64) Value { return Value{Kind: KindNumber, Num: f} }

// Date returns a date value truncated to the day in UTC.
func Date(t time.Time) Value {
	y, m, d := t.Date()
	return Value{Kind: KindDate, Time: time.Date(y, m, d, 0, 0, 0, 0, time.UTC)}
}

// IsNull reports whether v holds no value.
func (v Value) IsNull() bool { return v.Kind == KindNull }

// Float returns the numeric value and whether v is a number.
func (v Value) Float() (float64, bool) {
	if v.Kind != KindNumber {
		return 0, false
	}
	return v.Num, true
}

// Text renders v as it would appear in a CSV cell. Null renders as "".
func (v Value) Text() string {
	switch v.Kind {
	case KindString:
		return v.Str
	case KindNumber:
		return strconv.FormatFloat(v.Num, 'f', -1, 64)
	case KindDate:
		return v.Time.Format(DateLayout)
	default:
		return ""
	}
}

// Equal reports whether two values have the same kind and content.
func (v Value) Equal(o Value) bool {
	if v.Kind != o.Kind {
		return false
	}
	switch v.Kind {
	case KindString:
		return v.Str == o.Str
	case KindNumber:
		return v.Num == o.Num
	case KindDate:
		return v.Time.Equal(o.Time)
	default:
		return true
	}
}

// Interface returns v as a plain Go value (nil, string, float64 or date string).
func (v Value) Interface() any {
	switch v.Kind {
	case KindString:
		return v.Str
	case KindNumber:
		return v.Num
	case KindDate:
		return v.Time.Format(DateLayout)
	default:
		return nil
	}
}

// MarshalJSON encodes the value as null, a string, or a number.
func (v Value) MarshalJSON() ([]byte, error) {
	return json.Marshal(v.Interface())
}
