// Package overview computes the dashboard-wide figures that sit above the
// per-country modules: the global headline and the selectable locations.
package overview

import (
	"sort"

	"github.com/JonMunkholm/covidboard/internal/country"
	"github.com/JonMunkholm/covidboard/internal/dataset"
)

// WorldLocation is the aggregate row carrying global totals.
const WorldLocation = "World"

// Aggregates are location values that are not countries.
var Aggregates = []string{
	WorldLocation, "Africa", "Asia", "Europe", "European Union",
	"North America", "Oceania", "South America", "High income",
	"Upper middle income", "Lower middle income", "Low income",
}

// Global is the headline shown above every country view.
type Global struct {
	// LatestDate is the most recent date in the table, empty when it has none.
	LatestDate  string  `json:"latest_date"`
	TotalCases  float64 `json:"total_cases"`
	TotalDeaths float64 `json:"total_deaths"`
	// TotalVaccinations is nil when the World row has no figure.
	TotalVaccinations *float64 `json:"total_vaccinations"`
	// WorldRow reports whether a World row exists on LatestDate.
	WorldRow bool `json:"world_row"`
}

// Summarize reads the World row on the latest date in t. Totals are 0 when
// that row is absent.
func Summarize(t *dataset.Table) Global {
	var g Global
	latest, row := dataset.Null(), -1
	for i := 0; i < t.Len(); i++ {
		d := t.Get(i, dataset.ColDate)
		if d.Kind != dataset.KindDate {
			continue
		}
		if latest.IsNull() || d.Time.After(latest.Time) {
			latest, row = d, -1
		}
		if d.Equal(latest) && row < 0 && t.Get(i, dataset.ColLocation).Equal(dataset.String(WorldLocation)) {
			row = i
		}
	}
	if latest.IsNull() {
		return g
	}
	g.LatestDate = latest.Text()
	if row < 0 {
		return g
	}

	g.WorldRow = true
	g.TotalCases = dataset.Float(t, row, "total_cases", 0)
	g.TotalDeaths = dataset.Float(t, row, "total_deaths", 0)
	if f, ok := t.Get(row, "total_vaccinations").Float(); ok {
		g.TotalVaccinations = &f
	}
	return g
}

// Locations returns the sorted distinct locations of t, without aggregates.
func Locations(t *dataset.Table) []string {
	skip := make(map[string]struct{}, len(Aggregates))
	for _, a := range Aggregates {
		skip[a] = struct{}{}
	}
	out := []string{}
	for _, loc := range t.Locations() {
		if _, ok := skip[loc]; ok {
			continue
		}
		out = append(out, loc)
	}
	sort.Strings(out)
	return out
}

// Latest is the most recent figures for one location.
type Latest struct {
	Location              string  `json:"location"`
	Date                  string  `json:"date"`
	TotalCases            float64 `json:"total_cases"`
	TotalDeaths           float64 `json:"total_deaths"`
	PeopleFullyVaccinated float64 `json:"people_fully_vaccinated"`
	TotalVaccinations     float64 `json:"total_vaccinations"`
	NewCases              float64 `json:"new_cases"`
	NewDeaths             float64 `json:"new_deaths"`
}

// LatestFor returns the figures from the most recent row of one location.
// Missing cells read as 0. ok is false when the location has no dated rows.
func LatestFor(t *dataset.Table, location string) (Latest, bool) {
	sub := country.ForLocation(t, location)
	if sub == nil {
		return Latest{}, false
	}
	last := dataset.Last(sub)
	return Latest{
		Location:              location,
		Date:                  sub.Get(last, dataset.ColDate).Text(),
		TotalCases:            dataset.Float(sub, last, "total_cases", 0),
		TotalDeaths:           dataset.Float(sub, last, "total_deaths", 0),
		PeopleFullyVaccinated: dataset.Float(sub, last, "people_fully_vaccinated", 0),
		TotalVaccinations:     dataset.Float(sub, last, "total_vaccinations", 0),
		NewCases:              dataset.Float(sub, last, "new_cases", 0),
		NewDeaths:             dataset.Float(sub, last, "new_deaths", 0),
	}, true
}
