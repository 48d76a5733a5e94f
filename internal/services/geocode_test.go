package services

import (
  "context"
  "fmt"
  "net/http"
  "net/http/httptest"
  "net/url"
  "strings"
  "sync/atomic"
  "testing"

  "github.com/stretchr/testify/assert"
  "github.com/stretchr/testify/require"

  "github.com/wayfarer-org/wayfarer-backend/internal/apperr"
)

func newGeocodeFixture(t *testing.T, handler http.Handler) (*geocodeService, *httptest.Server) {
  t.Helper()
  server := httptest.NewServer(handler)
  t.Cleanup(server.Close)
  return &geocodeService{
    token:      "test-token",
    baseURL:    server.URL,
    httpClient: server.Client(),
    log:        testLogger(t).With("service", "GeocodeService"),
  }, server
}

func mapboxFeature(query string, lng, lat float64, placeName string) string {
  return fmt.Sprintf(`{"features":[{"center":[%f,%f],"place_name":%q}]}`, lng, lat, placeName)
}

func TestGeocodeResolvesLocations(t *testing.T) {
  gs, _ := newGeocodeFixture(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
    query, _ := url.QueryUnescape(strings.TrimSuffix(strings.TrimPrefix(r.URL.Path, "/"), ".json"))
    assert.Equal(t, "1", r.URL.Query().Get("limit"))
    assert.Equal(t, "test-token", r.URL.Query().Get("access_token"))
    fmt.Fprint(w, mapboxFeature(query, 139.6917, 35.6895, "Tokyo, Japan"))
  }))

  results, err := gs.Geocode(context.Background(), []string{"Tokyo"})
  require.NoError(t, err)
  require.Len(t, results, 1)
  assert.Equal(t, "Tokyo", results[0].Query)
  assert.InDelta(t, 35.6895, results[0].Lat, 0.0001)
  assert.InDelta(t, 139.6917, results[0].Lng, 0.0001)
  assert.Equal(t, "Tokyo, Japan", results[0].DisplayName)
}

func TestGeocodeRequiresToken(t *testing.T) {
  gs := &geocodeService{log: testLogger(t)}

  _, err := gs.Geocode(context.Background(), []string{"Tokyo"})
  require.Error(t, err)
  assert.True(t, apperr.Is(err, apperr.CodeNotConfigured))
}

func TestGeocodeRequiresLocations(t *testing.T) {
  gs, _ := newGeocodeFixture(t, http.NotFoundHandler())

  _, err := gs.Geocode(context.Background(), nil)
  require.Error(t, err)
  assert.True(t, apperr.Is(err, apperr.CodeValidation))
}

func TestGeocodeCapsLookups(t *testing.T) {
  var calls int64
  gs, _ := newGeocodeFixture(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
    atomic.AddInt64(&calls, 1)
    fmt.Fprint(w, mapboxFeature("x", 1, 2, "Somewhere"))
  }))

  locations := make([]string, 0, 10)
  for i := 0; i < 10; i++ {
    locations = append(locations, fmt.Sprintf("City %d", i))
  }
  results, err := gs.Geocode(context.Background(), locations)
  require.NoError(t, err)
  assert.Len(t, results, maxGeocodeLocations)
  assert.EqualValues(t, maxGeocodeLocations, atomic.LoadInt64(&calls))
}

func TestGeocodeSkipsBlanksWithoutSpendingBudget(t *testing.T) {
  gs, _ := newGeocodeFixture(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
    fmt.Fprint(w, mapboxFeature("x", 1, 2, "Somewhere"))
  }))

  locations := []string{"", "  ", "Paris", "", "Rome"}
  results, err := gs.Geocode(context.Background(), locations)
  require.NoError(t, err)
  assert.Len(t, results, 2)
}

func TestGeocodeOmitsFailedLookups(t *testing.T) {
  gs, _ := newGeocodeFixture(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
    if strings.Contains(r.URL.Path, "Atlantis") {
      w.WriteHeader(http.StatusInternalServerError)
      return
    }
    fmt.Fprint(w, mapboxFeature("x", 12.4964, 41.9028, "Rome, Italy"))
  }))

  results, err := gs.Geocode(context.Background(), []string{"Atlantis", "Rome"})
  require.NoError(t, err)
  require.Len(t, results, 1)
  assert.Equal(t, "Rome", results[0].Query)
}

func TestGeocodeEmptyFeatureSetOmitted(t *testing.T) {
  gs, _ := newGeocodeFixture(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
    fmt.Fprint(w, `{"features":[]}`)
  }))

  results, err := gs.Geocode(context.Background(), []string{"Nowhere"})
  require.NoError(t, err)
  assert.Empty(t, results)
}

func TestGeocodeDisplayNameFallsBackToQuery(t *testing.T) {
  gs, _ := newGeocodeFixture(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
    fmt.Fprint(w, `{"features":[{"center":[1.0,2.0],"place_name":""}]}`)
  }))

  results, err := gs.Geocode(context.Background(), []string{"Springfield"})
  require.NoError(t, err)
  require.Len(t, results, 1)
  assert.Equal(t, "Springfield", results[0].DisplayName)
}
