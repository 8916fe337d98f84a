package web

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/covidboard/internal/config"
	"github.com/JonMunkholm/covidboard/internal/core"
	"github.com/JonMunkholm/covidboard/internal/country"
	"github.com/JonMunkholm/covidboard/internal/country/handlers"
	"github.com/JonMunkholm/covidboard/internal/dataset"
	"github.com/JonMunkholm/covidboard/internal/merge"
	"github.com/JonMunkholm/covidboard/internal/provider"
)

func day(s string) dataset.Value {
	t, err := time.Parse(dataset.DateLayout, s)
	if err != nil {
		panic(err)
	}
	return dataset.Date(t)
}

func testTables() provider.Tables {
	s, n := dataset.String, dataset.Number
	return provider.Tables{
		Main: dataset.MustTable([]string{"location", "date", "total_cases", "total_deaths", "new_cases", "total_vaccinations"},
			[]dataset.Value{s("South Korea"), day("2021-01-01"), n(18), n(1), n(3), dataset.Null()},
			[]dataset.Value{s("South Korea"), day("2021-01-02"), n(20), n(1), n(2), dataset.Null()},
			[]dataset.Value{s("World"), day("2021-01-02"), n(900), n(30), n(50), n(1200)},
		),
		Secondary: dataset.MustTable([]string{"location", "date", "population"},
			[]dataset.Value{s("South Korea"), day("2021-01-02"), n(51000000)},
		),
		Vaccination: dataset.MustTable([]string{"location", "date", "vaccine", "people_fully_vaccinated"},
			[]dataset.Value{s("South Korea"), day("2021-01-02"), s("Pfizer/BioNTech"), n(5)},
		),
	}
}

func testConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{RequestTimeout: 5 * time.Second, ShutdownTimeout: time.Second},
		Rate:   config.RateLimitConfig{Enabled: false},
		Security: config.SecurityConfig{
			RequireAPIKey: true,
			APIKeys:       []string{"k1"},
			EnableCSP:     true,
		},
	}
}

// newTestServer returns a server over svc; load controls whether the
// service publishes a snapshot first.
func newTestServer(t *testing.T, reg *country.Registry, load bool) (*Server, *core.Service) {
	t.Helper()
	svc := core.NewService(&provider.Static{Tables: testTables()}, reg, core.Options{Merge: merge.DefaultOptions()})
	if load {
		_, err := svc.Reload(context.Background())
		require.NoError(t, err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	return NewServer(ctx, svc, testConfig()), svc
}

func do(s *Server, method, path string, header map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	for k, v := range header {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body), rec.Body.String())
	return body
}

func TestAPI_NotLoaded(t *testing.T) {
	s, _ := newTestServer(t, handlers.NewRegistry(), false)

	rec := do(s, http.MethodGet, "/api/health", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, false, decode(t, rec)["loaded"])

	rec = do(s, http.MethodGet, "/api/countries/Japan", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "DATA001", decode(t, rec)["code"])

	rec = do(s, http.MethodGet, "/", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "No data loaded")
}

func TestAPI_Endpoints(t *testing.T) {
	s, _ := newTestServer(t, handlers.NewRegistry(), true)

	tests := []struct {
		name       string
		path       string
		wantStatus int
		check      func(t *testing.T, body map[string]any)
	}{
		{
			name:       "health",
			path:       "/api/health",
			wantStatus: http.StatusOK,
			check: func(t *testing.T, body map[string]any) {
				assert.Equal(t, true, body["loaded"])
				assert.EqualValues(t, 3, body["rows"])
			},
		},
		{
			name:       "overview",
			path:       "/api/overview",
			wantStatus: http.StatusOK,
			check: func(t *testing.T, body map[string]any) {
				assert.Equal(t, "2021-01-02", body["latest_date"])
				assert.EqualValues(t, 900, body["total_cases"])
				assert.EqualValues(t, 1200, body["total_vaccinations"])
			},
		},
		{
			name:       "locations",
			path:       "/api/locations",
			wantStatus: http.StatusOK,
			check: func(t *testing.T, body map[string]any) {
				assert.Equal(t, []any{"South Korea"}, body["locations"])
			},
		},
		{
			name:       "location latest",
			path:       "/api/locations/South%20Korea",
			wantStatus: http.StatusOK,
			check: func(t *testing.T, body map[string]any) {
				assert.Equal(t, "2021-01-02", body["date"])
				assert.EqualValues(t, 20, body["total_cases"])
			},
		},
		{
			name:       "unknown location",
			path:       "/api/locations/Atlantis",
			wantStatus: http.StatusNotFound,
			check: func(t *testing.T, body map[string]any) {
				assert.Equal(t, "DATA002", body["code"])
			},
		},
		{
			name:       "countries",
			path:       "/api/countries",
			wantStatus: http.StatusOK,
			check: func(t *testing.T, body map[string]any) {
				assert.Equal(t, []any{"Europe", "Japan", "South Korea", "United States"}, body["countries"])
			},
		},
		{
			name:       "dispatch ok",
			path:       "/api/countries/South%20Korea",
			wantStatus: http.StatusOK,
			check: func(t *testing.T, body map[string]any) {
				assert.Equal(t, "ok", body["status"])
				result := body["result"].(map[string]any)
				assert.Equal(t, "South Korea", result["country_name"])
				metrics := result["metrics"].(map[string]any)
				assert.EqualValues(t, 20, metrics["total_cases"])
				assert.EqualValues(t, 5, metrics["people_fully_vaccinated"])
				df := result["country_df"].(map[string]any)
				assert.Len(t, df["rows"], 2)
			},
		},
		{
			name:       "dispatch empty",
			path:       "/api/countries/United%20States",
			wantStatus: http.StatusOK,
			check: func(t *testing.T, body map[string]any) {
				assert.Equal(t, "empty", body["status"])
				assert.NotContains(t, body, "result")
			},
		},
		{
			name:       "dispatch unregistered",
			path:       "/api/countries/Atlantis",
			wantStatus: http.StatusNotFound,
			check: func(t *testing.T, body map[string]any) {
				assert.Equal(t, "CFG001", body["code"])
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(s, http.MethodGet, tt.path, nil)
			require.Equal(t, tt.wantStatus, rec.Code, rec.Body.String())
			assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
			tt.check(t, decode(t, rec))
		})
	}
}

func TestAPI_UnknownCountryLabelText(t *testing.T) {
	s, _ := newTestServer(t, handlers.NewRegistry(), true)

	tests := []struct {
		name string
		path string
	}{
		{name: "plain label", path: "/api/countries/Atlantis"},
		{name: "label naming a collision", path: "/api/countries/column%20collision"},
		{name: "label naming a schema error", path: "/api/countries/schema%20error%20land"},
		{name: "label naming a panic", path: "/api/countries/handler%20panicked"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(s, http.MethodGet, tt.path, nil)
			assert.Equal(t, http.StatusNotFound, rec.Code)
			assert.Equal(t, "CFG001", decode(t, rec)["code"])
		})
	}
}

func TestAPI_ContractViolation(t *testing.T) {
	reg := handlers.NewRegistry()
	reg.Register("Broken", func(*dataset.Table) *country.Result {
		return &country.Result{CountryName: "Broken"}
	})
	reg.Register("Crashing", func(*dataset.Table) *country.Result {
		panic("index out of range")
	})
	s, _ := newTestServer(t, reg, true)

	rec := do(s, http.MethodGet, "/api/countries/Broken", nil)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "CON001", decode(t, rec)["code"])

	rec = do(s, http.MethodGet, "/api/countries/Crashing", nil)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "CON002", decode(t, rec)["code"])

	// Other countries are unaffected.
	rec = do(s, http.MethodGet, "/api/countries/South%20Korea", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestPages(t *testing.T) {
	s, _ := newTestServer(t, handlers.NewRegistry(), true)

	rec := do(s, http.MethodGet, "/", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, rec.Body.String(), `href="/countries/South%20Korea"`)
	assert.Contains(t, rec.Body.String(), "900")

	rec = do(s, http.MethodGet, "/countries/South%20Korea", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "<h2>South Korea</h2>")
	assert.Contains(t, rec.Body.String(), "total_cases")

	rec = do(s, http.MethodGet, "/countries/United%20States", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "No data available")

	rec = do(s, http.MethodGet, "/countries/Atlantis", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "CFG001")
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")
}

func TestReload_RequiresAPIKey(t *testing.T) {
	s, svc := newTestServer(t, handlers.NewRegistry(), false)

	rec := do(s, http.MethodPost, "/api/reload", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = do(s, http.MethodPost, "/api/reload", map[string]string{"X-API-Key": "wrong"})
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.False(t, svc.Status().Loaded)

	rec = do(s, http.MethodPost, "/api/reload", map[string]string{"X-API-Key": "k1"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	body := decode(t, rec)
	assert.EqualValues(t, 3, body["rows"])
	assert.Equal(t, svc.Status().LoadID, body["load_id"])

	rec = do(s, http.MethodGet, "/api/loads?limit=5", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	loads := decode(t, rec)["loads"].([]any)
	require.Len(t, loads, 1)
	entry := loads[0].(map[string]any)
	assert.Equal(t, "succeeded", entry["outcome"])
	assert.Equal(t, "api", entry["trigger"])
	assert.Equal(t, "192.0.2.1:1234", entry["ip_address"])
}

func TestSecurityHeaders(t *testing.T) {
	s, _ := newTestServer(t, handlers.NewRegistry(), true)

	rec := do(s, http.MethodGet, "/api/health", nil)
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))
	assert.True(t, strings.HasPrefix(rec.Header().Get("Content-Security-Policy"), "default-src 'self'"))
}

func TestRateLimit(t *testing.T) {
	svc := core.NewService(&provider.Static{Tables: testTables()}, handlers.NewRegistry(), core.Options{Merge: merge.DefaultOptions()})
	cfg := testConfig()
	cfg.Rate = config.RateLimitConfig{Enabled: true, RequestsPerMinute: 2}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	s := NewServer(ctx, svc, cfg)

	for i := 0; i < 2; i++ {
		rec := do(s, http.MethodGet, "/api/countries", nil)
		require.Equal(t, http.StatusOK, rec.Code)
	}
	rec := do(s, http.MethodGet, "/api/countries", nil)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "RATE001", decode(t, rec)["code"])
	assert.Equal(t, "60", rec.Header().Get("Retry-After"))
}
