package handlers

import (
	"math"
	"time"

	"github.com/JonMunkholm/covidboard/internal/country"
	"github.com/JonMunkholm/covidboard/internal/dataset"
)

// Wave detection parameters.
const (
	trendWindow     = 21
	trendMinPeriods = 7
	minPeakCases    = 1000.0
	peakMergeDays   = 30
	minWaveDays     = 7

	// Share of the population fully vaccinated that marks the start of
	// the post-vaccination period.
	vaccinationMilestone = 10.0
)

// Wave is one trough-to-trough epidemic wave.
type Wave struct {
	Number         int     `json:"wave_number"`
	StartDate      string  `json:"start_date"`
	PeakDate       string  `json:"peak_date"`
	EndDate        string  `json:"end_date"`
	PeakDailyCases float64 `json:"peak_daily_cases"`
	TotalCases     float64 `json:"total_cases"`
	TotalDeaths    float64 `json:"total_deaths"`
	DurationDays   int     `json:"duration_days"`
	AvgDailyCases  float64 `json:"avg_daily_cases"`
}

// PeriodStats summarises one side of the vaccination split.
type PeriodStats struct {
	Period         string       `json:"period"`
	TotalCases     float64      `json:"total_cases"`
	TotalDeaths    float64      `json:"total_deaths"`
	CFR            float64      `json:"cfr"`
	AvgDailyCases  float64      `json:"avg_daily_cases"`
	AvgDailyDeaths float64      `json:"avg_daily_deaths"`
	Months         int          `json:"months"`
	Monthly        []MonthStats `json:"monthly"`
}

// MonthStats aggregates one calendar month.
type MonthStats struct {
	Month            string  `json:"month"`
	NewCases         float64 `json:"new_cases"`
	NewDeaths        float64 `json:"new_deaths"`
	AvgCasesSmoothed float64 `json:"avg_new_cases_smoothed"`
}

// VaccinationImpact compares the periods before and after vaccination
// became widespread.
type VaccinationImpact struct {
	StartDate string      `json:"vacc_start_date"`
	Pre       PeriodStats `json:"pre_vaccination"`
	Post      PeriodStats `json:"post_vaccination"`
}

var (
	japanFillBoth    = []string{"new_cases_smoothed", "new_deaths_smoothed", "total_cases", "total_deaths"}
	japanFillForward = []string{"people_fully_vaccinated", "total_vaccinations", "total_boosters", "stringency_index", "positive_rate"}
)

// Japan reports Japan's figures with detected waves and the effect of
// vaccination on case fatality.
func Japan(t *dataset.Table) *country.Result {
	sub := country.ForLocation(t, LabelJapan)
	if sub == nil {
		return nil
	}

	sub = dataset.FillBackward(dataset.FillForward(sub, japanFillBoth...), japanFillBoth...)
	sub = dataset.FillForward(sub, japanFillForward...)
	sub = dataset.Interpolate(sub, "reproduction_rate")

	waves := DetectWaves(sub)
	impact := AnalyzeVaccinationImpact(sub)

	metrics := country.LatestMetrics(sub)
	population := dataset.LatestFloat(sub, "population", 0)

	extras := map[string]any{
		"case_fatality_rate":   percent(metrics[country.MetricTotalDeaths], metrics[country.MetricTotalCases]),
		"vaccination_rate":     percent(metrics[country.MetricPeopleFullyVaccinated], population),
		"total_waves_detected": len(waves),
		"population":           population,
		"waves":                waves,
	}
	if impact != nil {
		extras["vaccination_impact"] = impact
	}

	return &country.Result{
		CountryName: LabelJapan,
		Data:        sub,
		Metrics:     metrics,
		Extras:      extras,
	}
}

// DetectWaves finds epidemic waves in a single-location table sorted by
// date.
//
// new_cases_smoothed is smoothed again with a centred 21-day mean. A peak is
// a day where that trend exceeds 1000 and its day-over-day change turns from
// rising to flat or falling. Peaks closer than 30 days collapse into the
// higher one. Each wave runs from the lowest trend point since the previous
// peak to the lowest point before the next one; waves shorter than 7 days
// are dropped but keep their number.
func DetectWaves(t *dataset.Table) []Wave {
	n := t.Len()
	if n == 0 {
		return []Wave{}
	}

	trend := centredMean(dataset.FloatColumn(t, "new_cases_smoothed", math.NaN()), trendWindow, trendMinPeriods)
	velocity := make([]float64, n)
	velocity[0] = math.NaN()
	for i := 1; i < n; i++ {
		velocity[i] = trend[i] - trend[i-1]
	}

	dates := make([]time.Time, n)
	for i := range dates {
		dates[i] = t.Get(i, dataset.ColDate).Time
	}
	days := func(a, b int) int {
		return int(dates[b].Sub(dates[a]).Hours() / 24)
	}

	var peaks []int
	for i := 1; i < n-1; i++ {
		if trend[i] > minPeakCases && velocity[i-1] > 0 && velocity[i] <= 0 {
			peaks = append(peaks, i)
		}
	}

	var merged []int
	for _, p := range peaks {
		if len(merged) > 0 && days(merged[len(merged)-1], p) < peakMergeDays {
			if trend[p] > trend[merged[len(merged)-1]] {
				merged[len(merged)-1] = p
			}
			continue
		}
		merged = append(merged, p)
	}

	waves := []Wave{}
	for k, peak := range merged {
		from := 0
		if k > 0 {
			from = merged[k-1]
		}
		to := n - 1
		if k < len(merged)-1 {
			to = merged[k+1]
		}
		start := argmin(trend, from, peak)
		end := argmin(trend, peak, to)

		duration := days(start, end)
		if duration < minWaveDays {
			continue
		}

		waves = append(waves, Wave{
			Number:         k + 1,
			StartDate:      dates[start].Format(dataset.DateLayout),
			PeakDate:       dates[peak].Format(dataset.DateLayout),
			EndDate:        dates[end].Format(dataset.DateLayout),
			PeakDailyCases: maxOf(t, "new_cases_smoothed", start, end),
			TotalCases:     sum(t, "new_cases", start, end),
			TotalDeaths:    sum(t, "new_deaths", start, end),
			DurationDays:   duration,
			AvgDailyCases:  mean(t, "new_cases", start, end),
		})
	}
	return waves
}

// centredMean is a centred rolling mean ignoring NaN inputs. Positions with
// fewer than minPeriods values in their window are 0.
func centredMean(xs []float64, window, minPeriods int) []float64 {
	out := make([]float64, len(xs))
	before := (window - 1) / 2
	after := window - 1 - before
	for i := range xs {
		lo, hi := i-before, i+after
		if lo < 0 {
			lo = 0
		}
		if hi > len(xs)-1 {
			hi = len(xs) - 1
		}
		var s float64
		var cnt int
		for j := lo; j <= hi; j++ {
			if !math.IsNaN(xs[j]) {
				s += xs[j]
				cnt++
			}
		}
		if cnt >= minPeriods {
			out[i] = s / float64(cnt)
		}
	}
	return out
}

// argmin returns the index of the first smallest value in xs[from:to+1].
func argmin(xs []float64, from, to int) int {
	best := from
	for i := from + 1; i <= to; i++ {
		if xs[i] < xs[best] {
			best = i
		}
	}
	return best
}

func maxOf(t *dataset.Table, col string, from, to int) float64 {
	best := math.Inf(-1)
	for i := from; i <= to; i++ {
		if f, ok := t.Get(i, col).Float(); ok && f > best {
			best = f
		}
	}
	if math.IsInf(best, -1) {
		return 0
	}
	return best
}

// AnalyzeVaccinationImpact splits a single-location table sorted by date at
// the first day at least 10% of the population was fully vaccinated, or
// failing that the first day with any fully vaccinated people, and compares
// the two periods. It returns nil when population is unknown, nobody was
// vaccinated, or either period is empty.
func AnalyzeVaccinationImpact(t *dataset.Table) *VaccinationImpact {
	population := dataset.Float(t, 0, "population", 0)
	if population <= 0 {
		return nil
	}

	split, fallback := -1, -1
	for i := 0; i < t.Len(); i++ {
		v, ok := t.Get(i, "people_fully_vaccinated").Float()
		if !ok {
			continue
		}
		if fallback < 0 && v > 0 {
			fallback = i
		}
		if v/population*100 >= vaccinationMilestone {
			split = i
			break
		}
	}
	if split < 0 {
		split = fallback
	}
	if split < 0 {
		return nil
	}

	// Rows sharing the split date belong to the post period.
	startDate := t.Get(split, dataset.ColDate).Time
	for split > 0 && !t.Get(split-1, dataset.ColDate).Time.Before(startDate) {
		split--
	}
	if split == 0 {
		return nil
	}

	return &VaccinationImpact{
		StartDate: startDate.Format(dataset.DateLayout),
		Pre:       periodStats(t, 0, split-1),
		Post:      periodStats(t, split, t.Len()-1),
	}
}

func periodStats(t *dataset.Table, from, to int) PeriodStats {
	first := t.Get(from, dataset.ColDate).Time
	last := t.Get(to, dataset.ColDate).Time
	cases := sum(t, "new_cases", from, to)
	deaths := sum(t, "new_deaths", from, to)

	monthly := monthlyStats(t, from, to)
	return PeriodStats{
		Period:         first.Format(dataset.DateLayout) + " ~ " + last.Format(dataset.DateLayout),
		TotalCases:     cases,
		TotalDeaths:    deaths,
		CFR:            percent(deaths, cases),
		AvgDailyCases:  mean(t, "new_cases_smoothed", from, to),
		AvgDailyDeaths: mean(t, "new_deaths_smoothed", from, to),
		Months:         len(monthly),
		Monthly:        monthly,
	}
}

// monthlyStats buckets rows [from, to] by calendar month. Months inside the
// range with no rows are included with zero totals.
func monthlyStats(t *dataset.Table, from, to int) []MonthStats {
	first := t.Get(from, dataset.ColDate).Time
	last := t.Get(to, dataset.ColDate).Time
	count := (last.Year()*12 + int(last.Month())) - (first.Year()*12 + int(first.Month())) + 1

	out := make([]MonthStats, count)
	smoothedN := make([]int, count)
	for m := range out {
		out[m].Month = time.Date(first.Year(), first.Month()+time.Month(m), 1, 0, 0, 0, 0, time.UTC).Format("2006-01")
	}
	for i := from; i <= to; i++ {
		d := t.Get(i, dataset.ColDate).Time
		m := (d.Year()*12 + int(d.Month())) - (first.Year()*12 + int(first.Month()))
		out[m].NewCases += dataset.Float(t, i, "new_cases", 0)
		out[m].NewDeaths += dataset.Float(t, i, "new_deaths", 0)
		if f, ok := t.Get(i, "new_cases_smoothed").Float(); ok {
			out[m].AvgCasesSmoothed += f
			smoothedN[m]++
		}
	}
	for m := range out {
		if smoothedN[m] > 0 {
			out[m].AvgCasesSmoothed /= float64(smoothedN[m])
		}
	}
	return out
}
