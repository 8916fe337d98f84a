// Package handlers holds the built-in country modules.
//
// Each handler filters the unified table itself, works on a copy, and
// returns nil when its location has no rows. Adding a country means adding
// one handler and one line to NewRegistry.
package handlers

import (
	"math"

	"github.com/JonMunkholm/covidboard/internal/country"
	"github.com/JonMunkholm/covidboard/internal/dataset"
)

// Display labels.
const (
	LabelSouthKorea   = "South Korea"
	LabelUnitedStates = "United States"
	LabelJapan        = "Japan"
	LabelEurope       = "Europe"
)

// NewRegistry returns a registry with every built-in module registered.
func NewRegistry() *country.Registry {
	reg := country.NewRegistry()
	reg.Register(LabelSouthKorea, SouthKorea)
	reg.Register(LabelUnitedStates, UnitedStates)
	reg.Register(LabelJapan, Japan)
	reg.Register(LabelEurope, Europe)
	return reg
}

// SouthKorea reports the latest figures for South Korea.
func SouthKorea(t *dataset.Table) *country.Result {
	return latest(t, LabelSouthKorea)
}

// UnitedStates reports the latest figures for the United States.
func UnitedStates(t *dataset.Table) *country.Result {
	return latest(t, LabelUnitedStates)
}

func latest(t *dataset.Table, name string) *country.Result {
	sub := country.ForLocation(t, name)
	if sub == nil {
		return nil
	}
	return &country.Result{
		CountryName: name,
		Data:        sub,
		Metrics:     country.LatestMetrics(sub),
	}
}

// percent returns part/whole*100 rounded to two places, or 0 when whole is
// not positive.
func percent(part, whole float64) float64 {
	if whole <= 0 {
		return 0
	}
	return round2(part / whole * 100)
}

func round2(f float64) float64 {
	return math.Round(f*100) / 100
}

// sum adds the numeric cells of col over rows [from, to], skipping nulls.
func sum(t *dataset.Table, col string, from, to int) float64 {
	var s float64
	for i := from; i <= to; i++ {
		if f, ok := t.Get(i, col).Float(); ok {
			s += f
		}
	}
	return s
}

// mean averages the numeric cells of col over rows [from, to], skipping
// nulls. It returns 0 when there are none.
func mean(t *dataset.Table, col string, from, to int) float64 {
	var s float64
	var n int
	for i := from; i <= to; i++ {
		if f, ok := t.Get(i, col).Float(); ok {
			s += f
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return s / float64(n)
}
