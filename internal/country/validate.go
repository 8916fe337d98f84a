package country

import (
	"math"
	"sort"
	"strings"

	"github.com/JonMunkholm/covidboard/internal/dataset"
)

// Check names reported in a ContractViolation.
const (
	CheckCountryName    = "country_name"
	CheckCountryDF      = "country_df"
	CheckMetricsKeys    = "metrics.keys"
	CheckMetricsNumeric = "metrics.numeric"
	CheckSorted         = "country_df.sorted"
	CheckLocation       = "country_df.location"
	CheckPanic          = "panic"
)

// Validate checks r against the Result contract and returns a
// *ContractViolation listing every failed check, or nil.
func Validate(label string, r *Result) error {
	v := &violations{label: label}

	if r.CountryName == "" {
		v.fail(CheckCountryName, "empty")
	}

	if r.Metrics == nil {
		v.fail(CheckMetricsKeys, "metrics missing")
	} else {
		checkMetrics(v, r.Metrics)
	}

	if r.Data == nil {
		v.fail(CheckCountryDF, "missing")
		return v.err()
	}

	if ok, at := r.Data.IsSortedByDate(); !ok {
		if !r.Data.Has(dataset.ColDate) {
			v.fail(CheckSorted, "no %s column", dataset.ColDate)
		} else {
			v.fail(CheckSorted, "row %d is out of date order or has no date", at)
		}
	}

	checkLocations(v, r)
	return v.err()
}

func checkMetrics(v *violations, m map[string]float64) {
	var missing, extra []string
	for _, k := range MetricKeys {
		if _, ok := m[k]; !ok {
			missing = append(missing, k)
		}
	}
	for k := range m {
		if !isMetricKey(k) {
			extra = append(extra, k)
		}
	}
	if len(missing) > 0 || len(extra) > 0 {
		sort.Strings(extra)
		v.fail(CheckMetricsKeys, "missing [%s] unexpected [%s]",
			strings.Join(missing, ", "), strings.Join(extra, ", "))
	}

	var bad []string
	for _, k := range MetricKeys {
		if f, ok := m[k]; ok && (math.IsNaN(f) || math.IsInf(f, 0)) {
			bad = append(bad, k)
		}
	}
	if len(bad) > 0 {
		v.fail(CheckMetricsNumeric, "not finite: %s", strings.Join(bad, ", "))
	}
}

func isMetricKey(k string) bool {
	for _, mk := range MetricKeys {
		if k == mk {
			return true
		}
	}
	return false
}

// checkLocations requires every row to belong to the result's country, or to
// one of its members for a regional result.
func checkLocations(v *violations, r *Result) {
	if r.Data.Len() == 0 {
		return
	}
	if !r.Data.Has(dataset.ColLocation) {
		v.fail(CheckLocation, "no %s column", dataset.ColLocation)
		return
	}

	allowed := map[string]struct{}{r.CountryName: {}}
	for _, m := range r.Members {
		allowed[m] = struct{}{}
	}
	for i := 0; i < r.Data.Len(); i++ {
		loc := r.Data.Get(i, dataset.ColLocation)
		if _, ok := allowed[loc.Text()]; !ok || loc.Kind != dataset.KindString {
			v.fail(CheckLocation, "row %d has location %q, want %q", i, loc.Text(), r.CountryName)
			return
		}
	}
}
