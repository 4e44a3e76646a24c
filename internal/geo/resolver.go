package geo

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"aibetix/internal/platform/metrics"
)

// Resolver turns a client IP into a geographic location. A nil location with a
// nil error means the lookup completed but the IP could not be resolved.
type Resolver interface {
	Resolve(ctx context.Context, ip string) (*Location, error)
}

const lookupFields = "status,message,country,countryCode,region,regionName,city,lat,lon,timezone,isp"

// IPAPIClient resolves IPs against the ip-api.com JSON endpoint.
type IPAPIClient struct {
	baseURL string
	client  *http.Client
	logger  *slog.Logger
	metrics *metrics.Metrics
}

func NewIPAPIClient(baseURL string, timeout time.Duration, logger *slog.Logger, m *metrics.Metrics) *IPAPIClient {
	return &IPAPIClient{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
		logger:  logger,
		metrics: m,
	}
}

type ipAPIResponse struct {
	Status      string   `json:"status"`
	Message     string   `json:"message"`
	Country     string   `json:"country"`
	CountryCode string   `json:"countryCode"`
	Region      string   `json:"region"`
	RegionName  string   `json:"regionName"`
	City        string   `json:"city"`
	Lat         *float64 `json:"lat"`
	Lon         *float64 `json:"lon"`
	Timezone    string   `json:"timezone"`
	ISP         string   `json:"isp"`
}

// Resolve queries the lookup provider. Every failure mode, transport errors
// included, degrades to (nil, nil) so callers treat the location as unknown
// rather than surfacing an internal error.
func (c *IPAPIClient) Resolve(ctx context.Context, ip string) (*Location, error) {
	start := time.Now()
	loc, err := c.resolve(ctx, ip)
	if c.metrics != nil {
		c.metrics.GeoLookupLatency.Observe(time.Since(start).Seconds())
	}
	if err != nil {
		if c.metrics != nil {
			c.metrics.GeoLookupFailures.Inc()
		}
		c.logger.Warn("ip geolocation lookup failed", "ip", ip, "error", err)
		return nil, nil
	}
	return loc, nil
}

func (c *IPAPIClient) resolve(ctx context.Context, ip string) (*Location, error) {
	endpoint := fmt.Sprintf("%s/json/%s?fields=%s", c.baseURL, url.PathEscape(ip), lookupFields)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("building lookup request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("calling lookup provider: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("lookup provider returned status %d", resp.StatusCode)
	}

	var body ipAPIResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decoding lookup response: %w", err)
	}

	if body.Status != "success" {
		return nil, fmt.Errorf("lookup rejected: %s", body.Message)
	}

	return &Location{
		Country:     body.Country,
		CountryCode: body.CountryCode,
		Region:      body.RegionName,
		City:        body.City,
		Latitude:    body.Lat,
		Longitude:   body.Lon,
		Timezone:    body.Timezone,
		ISP:         body.ISP,
	}, nil
}
