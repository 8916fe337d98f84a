// Package views holds the HTML components rendered by the web server.
package views

import (
	"context"
	"fmt"
	"io"
	"math"
	"net/url"
	"sort"
	"strconv"

	"github.com/a-h/templ"

	"github.com/JonMunkholm/covidboard/internal/country"
	"github.com/JonMunkholm/covidboard/internal/overview"
)

const styles = `body{font-family:system-ui,sans-serif;margin:2rem auto;max-width:56rem;color:#1f2937}
table{border-collapse:collapse}td,th{padding:.25rem .75rem;text-align:left;border-bottom:1px solid #e5e7eb}
.card{border:1px solid #d1d5db;border-radius:.5rem;padding:1rem 1.5rem;margin:1rem 0}
.muted{color:#6b7280}.alert{border-color:#fca5a5;background:#fef2f2}`

// Page wraps body in the HTML document shell.
func Page(title string, body templ.Component) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if _, err := fmt.Fprintf(w,
			`<!DOCTYPE html><html lang="en"><head><meta charset="utf-8"><title>%s</title><style>%s</style></head><body>`,
			templ.EscapeString(title), styles); err != nil {
			return err
		}
		if err := body.Render(ctx, w); err != nil {
			return err
		}
		_, err := io.WriteString(w, `</body></html>`)
		return err
	})
}

// Index renders the global overview and the list of country modules.
func Index(g overview.Global, labels []string) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		ew := &errWriter{w: w}
		ew.printf(`<h1>COVID-19 overview</h1>`)
		if g.LatestDate == "" {
			ew.printf(`<p class="muted">No data loaded.</p>`)
		} else {
			ew.printf(`<div class="card"><p class="muted">Latest date %s</p><table>`, templ.EscapeString(g.LatestDate))
			ew.printf(`<tr><th>Total cases</th><td>%s</td></tr>`, formatNumber(g.TotalCases))
			ew.printf(`<tr><th>Total deaths</th><td>%s</td></tr>`, formatNumber(g.TotalDeaths))
			if g.TotalVaccinations != nil {
				ew.printf(`<tr><th>Total vaccinations</th><td>%s</td></tr>`, formatNumber(*g.TotalVaccinations))
			}
			ew.printf(`</table></div>`)
		}
		ew.printf(`<h2>Countries</h2><ul>`)
		for _, l := range labels {
			ew.printf(`<li><a href="/countries/%s">%s</a></li>`,
				templ.EscapeString(url.PathEscape(l)), templ.EscapeString(l))
		}
		ew.printf(`</ul>`)
		return ew.err
	})
}

// CountryCard renders one dispatch outcome. An empty outcome renders a
// placeholder instead of metrics.
func CountryCard(out country.Outcome) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		ew := &errWriter{w: w}
		ew.printf(`<p><a href="/">&larr; Overview</a></p>`)
		if out.Empty() || out.Result == nil {
			ew.printf(`<div class="card"><h2>%s</h2><p class="muted">No data available for this country.</p></div>`,
				templ.EscapeString(out.Label))
			return ew.err
		}

		r := out.Result
		ew.printf(`<div class="card"><h2>%s</h2>`, templ.EscapeString(r.CountryName))
		if len(r.Members) > 0 {
			ew.printf(`<p class="muted">%d member countries</p>`, len(r.Members))
		}
		ew.printf(`<table>`)
		for _, k := range country.MetricKeys {
			ew.printf(`<tr><th>%s</th><td>%s</td></tr>`, templ.EscapeString(k), formatNumber(r.Metrics[k]))
		}
		for _, k := range scalarExtras(r.Extras) {
			ew.printf(`<tr><th>%s</th><td>%s</td></tr>`, templ.EscapeString(k), formatExtra(r.Extras[k]))
		}
		ew.printf(`</table>`)
		if r.Data != nil {
			ew.printf(`<p class="muted">%d daily rows</p>`, r.Data.Len())
		}
		ew.printf(`</div>`)
		return ew.err
	})
}

// ErrorAlert renders a user-facing error with its support code.
func ErrorAlert(message, action, code string) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		ew := &errWriter{w: w}
		ew.printf(`<div class="card alert" role="alert"><p><strong>%s</strong></p>`, templ.EscapeString(message))
		if action != "" {
			ew.printf(`<p>%s</p>`, templ.EscapeString(action))
		}
		ew.printf(`<p class="muted">Code: %s</p></div>`, templ.EscapeString(code))
		return ew.err
	})
}

// scalarExtras returns the sorted keys of extras whose values render as a
// single cell.
func scalarExtras(extras map[string]any) []string {
	keys := make([]string, 0, len(extras))
	for k, v := range extras {
		switch v.(type) {
		case float64, int, string:
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys
}

func formatExtra(v any) string {
	switch x := v.(type) {
	case float64:
		return formatNumber(x)
	case int:
		return strconv.Itoa(x)
	case string:
		return templ.EscapeString(x)
	}
	return ""
}

// formatNumber prints integral values without decimals.
func formatNumber(f float64) string {
	if f == math.Trunc(f) && math.Abs(f) < 1e15 {
		return strconv.FormatFloat(f, 'f', 0, 64)
	}
	return strconv.FormatFloat(f, 'f', 2, 64)
}

// errWriter keeps the first write error.
type errWriter struct {
	w   io.Writer
	err error
}

func (e *errWriter) printf(format string, args ...any) {
	if e.err != nil {
		return
	}
	_, e.err = fmt.Fprintf(e.w, format, args...)
}
