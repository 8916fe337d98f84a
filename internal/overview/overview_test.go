package overview

import (
	"testing"
	"time"

	"github.com/JonMunkholm/covidboard/internal/dataset"
)

func day(s string) dataset.Value {
	t, err := time.Parse(dataset.DateLayout, s)
	if err != nil {
		panic(err)
	}
	return dataset.Date(t)
}

var cols = []string{"location", "date", "total_cases", "total_deaths", "total_vaccinations", "new_cases"}

func fixture() *dataset.Table {
	s, n, z := dataset.String, dataset.Number, dataset.Null()
	return dataset.MustTable(cols,
		[]dataset.Value{s("World"), day("2021-01-01"), n(1000), n(20), z, n(9)},
		[]dataset.Value{s("World"), day("2021-01-02"), n(1100), n(22), n(500), n(10)},
		[]dataset.Value{s("France"), day("2021-01-02"), n(100), n(2), z, n(4)},
		[]dataset.Value{s("Asia"), day("2021-01-02"), n(400), n(8), z, n(1)},
		[]dataset.Value{s("Chad"), day("2021-01-01"), n(5), z, z, n(1)},
		[]dataset.Value{s("France"), day("2021-01-01"), n(96), n(2), z, n(3)},
	)
}

func TestSummarize(t *testing.T) {
	tests := []struct {
		name      string
		table     *dataset.Table
		wantDate  string
		wantCases float64
		wantVacc  float64
		wantWorld bool
	}{
		{name: "world row on latest date", table: fixture(), wantDate: "2021-01-02", wantCases: 1100, wantVacc: 500, wantWorld: true},
		{name: "no world row", table: fixture().WhereLocation("France"), wantDate: "2021-01-02"},
		{name: "empty", table: dataset.MustTable(cols)},
		{
			name: "world missing on latest date",
			table: dataset.MustTable(cols,
				[]dataset.Value{dataset.String("World"), day("2021-01-01"), dataset.Number(1), dataset.Number(1), dataset.Null(), dataset.Null()},
				[]dataset.Value{dataset.String("Chad"), day("2021-01-05"), dataset.Number(1), dataset.Number(1), dataset.Null(), dataset.Null()},
			),
			wantDate: "2021-01-05",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Summarize(tt.table)
			if got.LatestDate != tt.wantDate {
				t.Errorf("LatestDate = %q, want %q", got.LatestDate, tt.wantDate)
			}
			if got.TotalCases != tt.wantCases {
				t.Errorf("TotalCases = %v, want %v", got.TotalCases, tt.wantCases)
			}
			if got.WorldRow != tt.wantWorld {
				t.Errorf("WorldRow = %v, want %v", got.WorldRow, tt.wantWorld)
			}
			if tt.wantVacc == 0 {
				if got.TotalVaccinations != nil {
					t.Errorf("TotalVaccinations = %v, want nil", *got.TotalVaccinations)
				}
			} else if got.TotalVaccinations == nil || *got.TotalVaccinations != tt.wantVacc {
				t.Errorf("TotalVaccinations = %v, want %v", got.TotalVaccinations, tt.wantVacc)
			}
		})
	}
}

func TestLocations(t *testing.T) {
	got := Locations(fixture())
	want := []string{"Chad", "France"}
	if len(got) != len(want) {
		t.Fatalf("Locations() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Locations()[%d] = %q, want %q", i, got[i], want[i])
		}
	}
	if got := Locations(dataset.MustTable(cols)); len(got) != 0 {
		t.Errorf("Locations(empty) = %v, want empty", got)
	}
}

func TestLatestFor(t *testing.T) {
	got, ok := LatestFor(fixture(), "France")
	if !ok {
		t.Fatal("LatestFor(France) not found")
	}
	if got.Date != "2021-01-02" || got.TotalCases != 100 || got.NewCases != 4 {
		t.Errorf("LatestFor(France) = %+v", got)
	}
	if got.TotalVaccinations != 0 {
		t.Errorf("TotalVaccinations = %v, want default 0", got.TotalVaccinations)
	}

	if _, ok := LatestFor(fixture(), "Atlantis"); ok {
		t.Error("LatestFor(Atlantis) found rows")
	}
}
