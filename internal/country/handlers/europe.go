package handlers

import (
	"math"
	"slices"

	"github.com/JonMunkholm/covidboard/internal/country"
	"github.com/JonMunkholm/covidboard/internal/dataset"
)

// EuropeCountries are the locations aggregated by the Europe module.
var EuropeCountries = []string{
	"Germany", "France", "Italy", "Spain", "Poland", "Romania", "Netherlands",
	"Belgium", "Sweden", "Austria", "Switzerland", "Greece", "Portugal",
	"Czechia", "Hungary", "Norway", "Denmark", "Finland", "Ireland", "Slovakia",
	"Bulgaria", "Croatia", "Slovenia", "Lithuania", "Latvia", "Estonia",
}

var (
	europeFillZero    = []string{"new_cases_smoothed", "new_deaths_smoothed", "total_cases", "total_deaths"}
	europeFillForward = []string{"people_fully_vaccinated", "total_vaccinations"}
)

// Europe aggregates the EuropeCountries into one regional result. Rows keep
// their own location; the result is sorted by date, then location.
//
// Cumulative metrics sum each country's latest row. new_cases sums every
// country's value on the latest date present in the region.
func Europe(t *dataset.Table) *country.Result {
	sub := country.ForLocation(t, EuropeCountries...)
	if sub == nil {
		return nil
	}

	sub = dataset.FillNull(dataset.FillForward(sub, europeFillZero...), dataset.Number(0), europeFillZero...)
	sub = dataset.FillForward(sub, europeFillForward...)

	// Sorted by date, so the last row seen per location is its latest.
	latest := make(map[string]int)
	var order []string
	for i := 0; i < sub.Len(); i++ {
		loc := sub.Get(i, dataset.ColLocation).Text()
		if _, ok := latest[loc]; !ok {
			order = append(order, loc)
		}
		latest[loc] = i
	}

	var cases, deaths, vaccinated, population, rt float64
	var rtN int
	for _, loc := range order {
		i := latest[loc]
		cases += dataset.Float(sub, i, "total_cases", 0)
		deaths += dataset.Float(sub, i, "total_deaths", 0)
		vaccinated += dataset.Float(sub, i, "people_fully_vaccinated", 0)
		population += dataset.Float(sub, i, "population", 0)
		if f, ok := sub.Get(i, "reproduction_rate").Float(); ok && !math.IsNaN(f) {
			rt += f
			rtN++
		}
	}
	if rtN > 0 {
		rt /= float64(rtN)
	}

	lastDate := sub.Get(dataset.Last(sub), dataset.ColDate)
	var newCases float64
	for i := dataset.Last(sub); i >= 0 && sub.Get(i, dataset.ColDate).Equal(lastDate); i-- {
		newCases += dataset.Float(sub, i, "new_cases", 0)
	}

	return &country.Result{
		CountryName: LabelEurope,
		Members:     slices.Clone(EuropeCountries),
		Data:        sub,
		Metrics: map[string]float64{
			country.MetricTotalCases:            cases,
			country.MetricTotalDeaths:           deaths,
			country.MetricPeopleFullyVaccinated: vaccinated,
			country.MetricNewCases:              newCases,
		},
		Extras: map[string]any{
			"case_fatality_rate": percent(deaths, cases),
			"vaccination_rate":   percent(vaccinated, population),
			"reproduction_rate":  round2(rt),
			"countries_count":    len(order),
			"total_population":   population,
		},
	}
}
