// Package country defines the per-country extension contract: the Result
// every handler returns, the Registry mapping display labels to handlers,
// and the Dispatcher that runs a handler and validates what it produced.
package country

import (
	"github.com/JonMunkholm/covidboard/internal/dataset"
)

// Metric keys. Every Result carries exactly these four.
const (
	MetricTotalCases            = "total_cases"
	MetricTotalDeaths           = "total_deaths"
	MetricPeopleFullyVaccinated = "people_fully_vaccinated"
	MetricNewCases              = "new_cases"
)

// MetricKeys lists the required metric keys in display order.
var MetricKeys = []string{
	MetricTotalCases,
	MetricTotalDeaths,
	MetricPeopleFullyVaccinated,
	MetricNewCases,
}

// Handler turns the unified table into one country's result. A nil result
// means the country has no rows. Handlers must not modify the table.
type Handler func(t *dataset.Table) *Result

// Result is the payload handed to the presentation layer.
type Result struct {
	// CountryName is the location value the handler filtered on.
	CountryName string `json:"country_name"`

	// Members lists the locations aggregated by a regional handler. When
	// set, rows of Data may carry any of these locations instead of
	// CountryName.
	Members []string `json:"members,omitempty"`

	// Data is the filtered subset of the unified table, sorted by date.
	Data *dataset.Table `json:"country_df"`

	Metrics map[string]float64 `json:"metrics"`

	// Extras holds handler-specific derived figures.
	Extras map[string]any `json:"extras,omitempty"`
}

// LatestMetrics reads the four metrics from the final row of t, using 0 for
// any absent column or null cell.
func LatestMetrics(t *dataset.Table) map[string]float64 {
	m := make(map[string]float64, len(MetricKeys))
	for _, k := range MetricKeys {
		m[k] = dataset.LatestFloat(t, k, 0)
	}
	return m
}

// ForLocation returns the dated rows of t whose location is one of names,
// sorted by date. It returns nil when nothing matches.
func ForLocation(t *dataset.Table, names ...string) *dataset.Table {
	rows := t.WhereLocation(names...)
	sub := rows.Filter(func(i int) bool {
		return !rows.Get(i, dataset.ColDate).IsNull()
	})
	if sub.Len() == 0 {
		return nil
	}
	return sub.SortByDateThen(dataset.ColLocation)
}
