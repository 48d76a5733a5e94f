package services

import (
  "context"
  "encoding/json"
  "fmt"
  "io"
  "net/http"
  "net/url"
  "strings"
  "time"

  "github.com/redis/go-redis/v9"

  "github.com/wayfarer-org/wayfarer-backend/internal/apperr"
  "github.com/wayfarer-org/wayfarer-backend/internal/logger"
  "github.com/wayfarer-org/wayfarer-backend/internal/utils"
)

// maxGeocodeLocations caps how many lookups one request may trigger.
const maxGeocodeLocations = 8

const geocodeCacheTTL = 24 * time.Hour

type GeocodeResult struct {
  Query       string  `json:"query"`
  Lat         float64 `json:"lat"`
  Lng         float64 `json:"lng"`
  DisplayName string  `json:"displayName"`
}

type GeocodeService interface {
  Geocode(ctx context.Context, locations []string) ([]GeocodeResult, error)
}

const mapboxBaseURL = "https://api.mapbox.com/geocoding/v5/mapbox.places"

type geocodeService struct {
  token      string
  baseURL    string
  httpClient *http.Client
  cache      *redis.Client
  log        *logger.Logger
}

// NewGeocodeService builds the Mapbox forward-geocoding client. cache may be
// nil; lookups then always go to Mapbox.
func NewGeocodeService(log *logger.Logger, cache *redis.Client) GeocodeService {
  serviceLog := log.With("service", "GeocodeService")
  token := utils.GetEnv("MAPBOX_API_KEY", "", log)
  if token == "" {
    serviceLog.Warn("MAPBOX_API_KEY is not set, geocoding will fail until configured")
  }
  return &geocodeService{
    token:      token,
    baseURL:    mapboxBaseURL,
    httpClient: &http.Client{Timeout: 10 * time.Second},
    cache:      cache,
    log:        serviceLog,
  }
}

// Geocode resolves up to maxGeocodeLocations place names. Individual lookup
// failures are dropped from the result set rather than reported, so one bad
// place name never spoils the rest.
func (gs *geocodeService) Geocode(ctx context.Context, locations []string) ([]GeocodeResult, error) {
  if gs.token == "" {
    return nil, apperr.NotConfigured("Mapbox API key is not configured.")
  }
  if len(locations) == 0 {
    return nil, apperr.Validation("Locations are required.")
  }

  results := make([]GeocodeResult, 0, len(locations))
  count := 0
  for _, location := range locations {
    if count >= maxGeocodeLocations {
      break
    }
    trimmed := strings.TrimSpace(location)
    if trimmed == "" {
      continue
    }
    if result, err := gs.geocodeSingle(ctx, trimmed); err != nil {
      gs.log.Debug("geocode lookup failed, skipping", "query", trimmed, "error", err)
    } else if result != nil {
      results = append(results, *result)
    }
    count++
  }
  return results, nil
}

func (gs *geocodeService) geocodeSingle(ctx context.Context, query string) (*GeocodeResult, error) {
  if cached := gs.cacheGet(ctx, query); cached != nil {
    return cached, nil
  }

  endpoint := gs.baseURL + "/" +
    url.QueryEscape(query) + ".json?limit=1&access_token=" + url.QueryEscape(gs.token)
  req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
  if err != nil {
    return nil, err
  }
  req.Header.Set("Accept", "application/json")

  resp, err := gs.httpClient.Do(req)
  if err != nil {
    return nil, err
  }
  defer resp.Body.Close()
  if resp.StatusCode >= 400 {
    return nil, fmt.Errorf("mapbox returned status %d", resp.StatusCode)
  }

  body, err := io.ReadAll(resp.Body)
  if err != nil {
    return nil, err
  }
  var parsed struct {
    Features []struct {
      Center    []float64 `json:"center"`
      PlaceName string    `json:"place_name"`
    } `json:"features"`
  }
  if err := json.Unmarshal(body, &parsed); err != nil {
    return nil, err
  }
  if len(parsed.Features) == 0 {
    return nil, nil
  }
  first := parsed.Features[0]
  if len(first.Center) < 2 {
    return nil, nil
  }

  result := &GeocodeResult{
    Query:       query,
    Lat:         first.Center[1],
    Lng:         first.Center[0],
    DisplayName: first.PlaceName,
  }
  if result.DisplayName == "" {
    result.DisplayName = query
  }
  gs.cacheSet(ctx, query, result)
  return result, nil
}

func (gs *geocodeService) cacheKey(query string) string {
  return "geocode:" + strings.ToLower(query)
}

func (gs *geocodeService) cacheGet(ctx context.Context, query string) *GeocodeResult {
  if gs.cache == nil {
    return nil
  }
  raw, err := gs.cache.Get(ctx, gs.cacheKey(query)).Bytes()
  if err != nil {
    return nil
  }
  var result GeocodeResult
  if err := json.Unmarshal(raw, &result); err != nil {
    return nil
  }
  return &result
}

func (gs *geocodeService) cacheSet(ctx context.Context, query string, result *GeocodeResult) {
  if gs.cache == nil {
    return
  }
  raw, err := json.Marshal(result)
  if err != nil {
    return
  }
  if err := gs.cache.Set(ctx, gs.cacheKey(query), raw, geocodeCacheTTL).Err(); err != nil {
    gs.log.Debug("failed to cache geocode result", "query", query, "error", err)
  }
}
