package dashboardhttp

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hotelpulse/hotelpulse/internal/dashboard"
	"github.com/hotelpulse/hotelpulse/internal/shared"
	"github.com/hotelpulse/hotelpulse/internal/tenants"
)

type stubFetcher struct {
	mu      sync.Mutex
	err     error
	queries []dashboard.Query
}

func (s *stubFetcher) Fetch(ctx context.Context, q dashboard.Query) (*dashboard.RawPeriodPayload, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.queries = append(s.queries, q)
	if s.err != nil {
		return nil, s.err
	}
	return &dashboard.RawPeriodPayload{
		TotalEmails: 50,
		Volume:      dashboard.Series{{Name: "03/01", Value: 9}},
	}, nil
}

func (s *stubFetcher) fail(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.err = err
}

type outcomeCounter struct {
	mu     sync.Mutex
	counts map[string]int
}

func (c *outcomeCounter) ObserveRefresh(outcome string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.counts == nil {
		c.counts = map[string]int{}
	}
	c.counts[outcome]++
}

const testDirectory = `{
  "hotels": [{"id": "h1", "name": "Mar"}, {"id": "h2", "name": "Sol"}, {"id": "h3", "name": "Luna"}],
  "users": [{"id": "ana", "tenantId": "t1", "hotelIds": ["h1", "h2"]}]
}`

type fixture struct {
	router   chi.Router
	fetcher  *stubFetcher
	outcomes *outcomeCounter
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	return newFixtureWith(t, nil)
}

func newFixtureWith(t *testing.T, pdf PDFRenderer) fixture {
	t.Helper()
	dir, err := tenants.Load(strings.NewReader(testDirectory))
	require.NoError(t, err)
	fetcher := &stubFetcher{}
	outcomes := &outcomeCounter{}
	agg := dashboard.NewAggregator(fetcher, nil, nil)
	handler := NewHandler(nil, dashboard.NewRegistry(agg), agg, dir, outcomes, Config{})
	handler.WithNow(func() time.Time { return time.Date(2024, 1, 8, 15, 30, 0, 0, time.UTC) })
	if pdf != nil {
		handler.WithPDFRenderer(pdf)
	}

	r := chi.NewRouter()
	handler.MountRoutes(r)
	return fixture{router: r, fetcher: fetcher, outcomes: outcomes}
}

func (f fixture) do(t *testing.T, method, target, user string, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, nil)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	if user != "" {
		req = req.WithContext(shared.ContextWithIdentity(req.Context(), shared.Identity{UserID: user, Credential: "Bearer tok-" + user}))
	}
	rr := httptest.NewRecorder()
	f.router.ServeHTTP(rr, req)
	return rr
}

func decodeSnapshot(t *testing.T, body []byte) dashboard.Snapshot {
	t.Helper()
	var snap dashboard.Snapshot
	require.NoError(t, json.Unmarshal(body, &snap))
	return snap
}

func TestDashboardRequiresIdentity(t *testing.T) {
	f := newFixture(t)
	rr := f.do(t, http.MethodGet, "/api/dashboard", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	rr = f.do(t, http.MethodGet, "/api/dashboard", "mallory", nil)
	assert.Equal(t, http.StatusForbidden, rr.Code)
}

func TestDashboardDefaultsToLastWeek(t *testing.T) {
	f := newFixture(t)
	rr := f.do(t, http.MethodGet, "/api/dashboard", "ana", nil)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	snap := decodeSnapshot(t, rr.Body.Bytes())
	assert.Equal(t, dashboard.StatusReady, snap.Status)
	assert.Equal(t, "2024-01-01", dashboard.FormatDay(snap.Model.Range.From))
	assert.Equal(t, "2024-01-08", dashboard.FormatDay(snap.Model.Range.To))
	assert.Len(t, snap.Model.Labels, 7)
	assert.Equal(t, "the previous week", snap.Model.ComparisonPeriodText)
	assert.Equal(t, 50.0, snap.Model.KPIs.TotalEmails.Value)
	assert.Equal(t, 1, f.outcomes.counts[OutcomeReady])

	require.Len(t, f.fetcher.queries, 2)
	for _, q := range f.fetcher.queries {
		assert.Equal(t, []string{"h1", "h2"}, q.HotelIDs)
		assert.Equal(t, "Bearer tok-ana", q.Credential)
	}
}

func TestDashboardExplicitRangeAndLanguage(t *testing.T) {
	f := newFixture(t)
	rr := f.do(t, http.MethodGet, "/api/dashboard?from=2024-01-01&to=2024-01-08&hotels=h2", "ana",
		map[string]string{"Accept-Language": "es-ES,es;q=0.9"})
	require.Equal(t, http.StatusOK, rr.Code)

	snap := decodeSnapshot(t, rr.Body.Bytes())
	assert.Equal(t, "la semana anterior", snap.Model.ComparisonPeriodText)
	require.Len(t, snap.Model.Volume, 7)
	assert.Equal(t, 9.0, snap.Model.Volume[2].Value)
	assert.Equal(t, []string{"h2"}, f.fetcher.queries[0].HotelIDs)
}

func TestDashboardRejectsInvalidFilters(t *testing.T) {
	f := newFixture(t)
	for _, target := range []string{
		"/api/dashboard?from=2024-13-01",
		"/api/dashboard?from=2024-01-08&to=2024-01-01",
		"/api/dashboard?max_points=abc",
		"/api/dashboard?max_points=500",
		"/api/dashboard?from=2015-01-01&to=2024-01-01",
	} {
		rr := f.do(t, http.MethodGet, target, "ana", nil)
		assert.Equal(t, http.StatusBadRequest, rr.Code, target)
	}
	assert.Empty(t, f.fetcher.queries)
}

func TestDashboardRejectsForeignHotels(t *testing.T) {
	f := newFixture(t)
	rr := f.do(t, http.MethodGet, "/api/dashboard?hotels=h1,h3", "ana", nil)
	assert.Equal(t, http.StatusForbidden, rr.Code)
}

func TestDashboardHoldsModelWhenUpstreamFails(t *testing.T) {
	f := newFixture(t)
	rr := f.do(t, http.MethodGet, "/api/dashboard", "ana", nil)
	require.Equal(t, http.StatusOK, rr.Code)

	f.fetcher.fail(dashboard.ErrTransport)
	rr = f.do(t, http.MethodGet, "/api/dashboard?from=2024-01-03", "ana", nil)
	require.Equal(t, http.StatusBadGateway, rr.Code)

	var body struct {
		Status int                `json:"status"`
		Data   dashboard.Snapshot `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Equal(t, http.StatusBadGateway, body.Status)
	assert.True(t, body.Data.Retained)
	assert.Equal(t, 50.0, body.Data.Model.KPIs.TotalEmails.Value)
	assert.Equal(t, "2024-01-01", dashboard.FormatDay(body.Data.Model.Range.From))
	assert.Equal(t, 1, f.outcomes.counts[OutcomeRetained])
}

func TestClearResetsModel(t *testing.T) {
	f := newFixture(t)
	rr := f.do(t, http.MethodGet, "/api/dashboard", "ana", nil)
	require.Equal(t, http.StatusOK, rr.Code)

	rr = f.do(t, http.MethodDelete, "/api/dashboard", "ana", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	snap := decodeSnapshot(t, rr.Body.Bytes())
	assert.Equal(t, dashboard.StatusEmpty, snap.Status)
	assert.Equal(t, 0.0, snap.Model.KPIs.TotalEmails.Value)
}

func TestHotelsListsUserScope(t *testing.T) {
	f := newFixture(t)
	rr := f.do(t, http.MethodGet, "/api/hotels", "ana", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	var hotels []tenants.Hotel
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &hotels))
	require.Len(t, hotels, 2)
	assert.Equal(t, "Mar", hotels[0].Name)
}

func TestExportCSV(t *testing.T) {
	f := newFixture(t)
	rr := f.do(t, http.MethodGet, "/api/dashboard/export.csv?from=2024-01-01&to=2024-01-08", "ana", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "text/csv; charset=utf-8", rr.Header().Get("Content-Type"))
	assert.Contains(t, rr.Header().Get("Content-Disposition"), "dashboard-2024-01-01-2024-01-08.csv")
	assert.Contains(t, rr.Body.String(), "Total Emails,50.00")

	// exports never touch the displayed model
	rr = f.do(t, http.MethodDelete, "/api/dashboard", "ana", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, uint64(1), decodeSnapshot(t, rr.Body.Bytes()).Generation)
}

func TestExportXLSXMapsUpstreamFailure(t *testing.T) {
	f := newFixture(t)
	f.fetcher.fail(dashboard.ErrTransport)
	rr := f.do(t, http.MethodGet, "/api/dashboard/export.xlsx", "ana", nil)
	assert.Equal(t, http.StatusBadGateway, rr.Code)
}

func TestExportIsRateLimited(t *testing.T) {
	f := newFixture(t)
	var last int
	for i := 0; i < 11; i++ {
		last = f.do(t, http.MethodGet, "/api/dashboard/export.csv", "ana", nil).Code
	}
	assert.Equal(t, http.StatusTooManyRequests, last)
}

type stubRenderer struct {
	html []byte
	err  error
}

func (s *stubRenderer) RenderHTML(ctx context.Context, html []byte) ([]byte, error) {
	s.html = append([]byte(nil), html...)
	if s.err != nil {
		return nil, s.err
	}
	return []byte("%PDF-1.7"), nil
}

func TestExportPDF(t *testing.T) {
	rr := newFixture(t).do(t, http.MethodGet, "/api/dashboard/export.pdf", "ana", nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)

	renderer := &stubRenderer{}
	f := newFixtureWith(t, renderer)
	rr = f.do(t, http.MethodGet, "/api/dashboard/export.pdf?from=2024-01-01&to=2024-01-07", "ana", nil)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.Equal(t, "application/pdf", rr.Header().Get("Content-Type"))
	assert.Contains(t, rr.Header().Get("Content-Disposition"), "dashboard-2024-01-01-2024-01-07.pdf")
	assert.Equal(t, "%PDF-1.7", rr.Body.String())
	assert.Contains(t, string(renderer.html), "<h2>KPIs</h2>")

	renderer.err = errors.New("gotenberg down")
	rr = f.do(t, http.MethodGet, "/api/dashboard/export.pdf", "ana", nil)
	assert.Equal(t, http.StatusBadGateway, rr.Code)
}
