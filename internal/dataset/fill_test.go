package dataset

import "testing"

func fillFixture() *Table {
	return MustTable([]string{ColLocation, "v"},
		[]Value{String("A"), Null()},
		[]Value{String("A"), Number(1)},
		[]Value{String("B"), Number(10)},
		[]Value{String("A"), Null()},
		[]Value{String("A"), Null()},
		[]Value{String("A"), Number(4)},
		[]Value{String("B"), Null()},
	)
}

func column(t *Table, col string) []Value {
	out := make([]Value, t.Len())
	for i := range out {
		out[i] = t.Get(i, col)
	}
	return out
}

func TestFill(t *testing.T) {
	tests := []struct {
		name string
		fill func(*Table) *Table
		want []Value
	}{
		{
			name: "backward",
			fill: func(t *Table) *Table { return FillBackward(t, "v") },
			want: []Value{Number(1), Number(1), Number(10), Number(4), Number(4), Number(4), Null()},
		},
		{
			name: "forward then zero",
			fill: func(t *Table) *Table { return FillNull(FillForward(t, "v"), Number(0), "v") },
			want: []Value{Number(0), Number(1), Number(10), Number(1), Number(1), Number(4), Number(10)},
		},
		{
			name: "interpolate",
			fill: func(t *Table) *Table { return Interpolate(t, "v") },
			want: []Value{Null(), Number(1), Number(10), Number(2), Number(3), Number(4), Number(10)},
		},
		{
			name: "unknown column is a copy",
			fill: func(t *Table) *Table { return FillForward(t, "nope") },
			want: column(fillFixture(), "v"),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := fillFixture()
			got := column(tt.fill(in), "v")
			for i, w := range tt.want {
				if !got[i].Equal(w) {
					t.Errorf("row %d = %+v, want %+v", i, got[i], w)
				}
			}
			if !in.Get(0, "v").IsNull() {
				t.Error("input was modified")
			}
		})
	}
}
