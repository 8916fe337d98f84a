package dataset

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"strings"
	"testing"
	"time"
)

func day(s string) Value {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		panic(err)
	}
	return Date(t)
}

func TestNewTable_RejectsDuplicateColumns(t *testing.T) {
	if _, err := NewTable([]string{"a", "b", "a"}); err == nil {
		t.Fatal("expected duplicate column error")
	}
	if _, err := NewTable([]string{"a", ""}); err == nil {
		t.Fatal("expected empty column error")
	}
}

func TestTable_Append_WrongWidth(t *testing.T) {
	tbl := MustTable([]string{"a", "b"})
	if err := tbl.Append([]Value{Number(1)}); err == nil {
		t.Fatal("expected width error")
	}
}

func TestTable_SortByDate_LeavesOriginal(t *testing.T) {
	tbl := MustTable([]string{ColLocation, ColDate},
		[]Value{String("France"), day("2021-01-02")},
		[]Value{String("France"), Null()},
		[]Value{String("France"), day("2021-01-01")},
	)

	sorted := tbl.SortByDate()

	if got := sorted.Get(0, ColDate).Text(); got != "2021-01-01" {
		t.Errorf("first date = %q, want 2021-01-01", got)
	}
	if !sorted.Get(2, ColDate).IsNull() {
		t.Errorf("null date should sort last")
	}
	if got := tbl.Get(0, ColDate).Text(); got != "2021-01-02" {
		t.Errorf("original table mutated: first date = %q", got)
	}
}

func TestTable_IsSortedByDate(t *testing.T) {
	tests := []struct {
		name    string
		dates   []Value
		want    bool
		wantIdx int
	}{
		{name: "ascending", dates: []Value{day("2021-01-01"), day("2021-01-02")}, want: true, wantIdx: -1},
		{name: "equal dates", dates: []Value{day("2021-01-01"), day("2021-01-01")}, want: true, wantIdx: -1},
		{name: "descending", dates: []Value{day("2021-01-02"), day("2021-01-01")}, want: false, wantIdx: 1},
		{name: "null date", dates: []Value{day("2021-01-01"), Null()}, want: false, wantIdx: 1},
		{name: "empty", dates: nil, want: true, wantIdx: -1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tbl := MustTable([]string{ColDate})
			for _, d := range tt.dates {
				_ = tbl.Append([]Value{d})
			}
			got, idx := tbl.IsSortedByDate()
			if got != tt.want || idx != tt.wantIdx {
				t.Errorf("IsSortedByDate() = (%v, %d), want (%v, %d)", got, idx, tt.want, tt.wantIdx)
			}
		})
	}
}

func TestTable_WhereLocation(t *testing.T) {
	tbl := MustTable([]string{ColLocation, "n"},
		[]Value{String("France"), Number(1)},
		[]Value{String("Spain"), Number(2)},
		[]Value{String("France "), Number(3)},
		[]Value{String("france"), Number(4)},
	)
	got := tbl.WhereLocation("France")
	if got.Len() != 1 {
		t.Fatalf("WhereLocation matched %d rows, want exact match only", got.Len())
	}
	if f := Float(got, 0, "n", -1); f != 1 {
		t.Errorf("n = %v, want 1", f)
	}
}

func TestFloat_Defaults(t *testing.T) {
	tbl := MustTable([]string{"total_cases", "note"},
		[]Value{Number(5), String("x")},
		[]Value{Null(), Null()},
	)
	tests := []struct {
		name string
		row  int
		col  string
		want float64
	}{
		{name: "present", row: 0, col: "total_cases", want: 5},
		{name: "null cell", row: 1, col: "total_cases", want: 0},
		{name: "absent column", row: 0, col: "people_fully_vaccinated", want: 0},
		{name: "text cell", row: 0, col: "note", want: 0},
		{name: "row out of range", row: 9, col: "total_cases", want: 0},
		{name: "negative row", row: -1, col: "total_cases", want: 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Float(tbl, tt.row, tt.col, 0); got != tt.want {
				t.Errorf("Float() = %v, want %v", got, tt.want)
			}
		})
	}

	empty := MustTable([]string{"total_cases"})
	if got := LatestFloat(empty, "total_cases", 7); got != 7 {
		t.Errorf("LatestFloat on empty table = %v, want default 7", got)
	}
}

func TestFillForward_PerLocation(t *testing.T) {
	tbl := MustTable([]string{ColLocation, "v"},
		[]Value{String("A"), Number(1)},
		[]Value{String("B"), Null()},
		[]Value{String("A"), Null()},
		[]Value{String("B"), Number(2)},
		[]Value{String("B"), Null()},
	)
	got := FillForward(tbl, "v")
	want := []Value{Number(1), Null(), Number(1), Number(2), Number(2)}
	for i, w := range want {
		if !got.Get(i, "v").Equal(w) {
			t.Errorf("row %d = %+v, want %+v", i, got.Get(i, "v"), w)
		}
	}
	if !tbl.Get(2, "v").IsNull() {
		t.Error("FillForward mutated its input")
	}
}

func TestTable_MarshalJSON(t *testing.T) {
	tbl := MustTable([]string{ColLocation, ColDate, "total_cases"},
		[]Value{String("France"), day("2021-01-01"), Number(100)},
		[]Value{String("France"), day("2021-01-02"), Null()},
	)
	b, err := json.Marshal(tbl)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	want := `{"columns":["location","date","total_cases"],"rows":[["France","2021-01-01",100],["France","2021-01-02",null]]}`
	if string(b) != want {
		t.Errorf("json = %s\nwant  %s", b, want)
	}
}

func TestReadCSV(t *testing.T) {
	input := append([]byte{0xEF, 0xBB, 0xBF}, []byte("location,date,total_cases,iso_code\n"+
		"France,2021-01-01,\"1,000\",FRA\n"+
		"France,2021-01-02,,FRA\n")...)

	res, err := ReadCSV("main", bytes.NewReader(input))
	if err != nil {
		t.Fatalf("ReadCSV: %v", err)
	}
	tbl := res.Table
	if tbl.Len() != 2 {
		t.Fatalf("rows = %d, want 2", tbl.Len())
	}
	if !tbl.Has(ColLocation) {
		t.Fatalf("BOM leaked into header: %v", tbl.Columns())
	}
	if f := Float(tbl, 0, "total_cases", -1); f != 1000 {
		t.Errorf("total_cases = %v, want 1000", f)
	}
	if !tbl.Get(1, "total_cases").IsNull() {
		t.Error("empty cell should be null")
	}
	if res.BytesRead == 0 {
		t.Error("BytesRead not tracked")
	}
}

func TestReadCSV_Errors(t *testing.T) {
	if _, err := ReadCSV("empty", strings.NewReader("")); !errors.Is(err, ErrEmptyFile) {
		t.Errorf("empty input err = %v, want ErrEmptyFile", err)
	}

	_, err := ReadCSV("main", strings.NewReader("location,date\nFrance,someday\n"))
	var cellErr *CellError
	if !errors.As(err, &cellErr) {
		t.Fatalf("err = %v, want *CellError", err)
	}
	if cellErr.Line != 2 || cellErr.Column != ColDate {
		t.Errorf("CellError = %+v, want line 2 column date", cellErr)
	}

	if _, err := ReadCSV("ragged", strings.NewReader("a,b\n1\n")); err == nil {
		t.Error("ragged csv accepted")
	}
}

func TestSanitizer(t *testing.T) {
	tests := []struct {
		name  string
		input []byte
		want  string
	}{
		{name: "ascii", input: []byte("hello,world"), want: "hello,world"},
		{name: "multibyte", input: []byte("Curaçao"), want: "Curaçao"},
		{name: "invalid byte", input: []byte{'h', 'e', 0x80, 'l', 'o'}, want: "he?lo"},
		{name: "truncated sequence", input: []byte{'a', 0xC3}, want: "a?"},
		{name: "empty", input: []byte{}, want: ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := io.ReadAll(NewSanitizer(bytes.NewReader(tt.input)))
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if string(got) != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestSkipBOM(t *testing.T) {
	got, _ := io.ReadAll(SkipBOM(bytes.NewReader([]byte{0xEF, 0xBB, 0xBF, 'x'})))
	if string(got) != "x" {
		t.Errorf("got %q, want %q", got, "x")
	}
	got, _ = io.ReadAll(SkipBOM(bytes.NewReader([]byte{0xEF, 0xBB, 'x'})))
	if !bytes.Equal(got, []byte{0xEF, 0xBB, 'x'}) {
		t.Errorf("partial BOM altered: %q", got)
	}
}
