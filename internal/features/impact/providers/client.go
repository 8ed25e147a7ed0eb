// Package providers talks to the third-party carbon-data APIs and normalizes
// their answers into fixed-shape records.
package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"co2-bunny/internal/core"
)

// Provider names, used in logs and metrics
const (
	WebsiteCarbon = "websitecarbon"
	GreenWeb      = "greenweb"
)

// maxResponseBytes caps how much of an upstream body is decoded
const maxResponseBytes = 1 << 20

// Config holds the upstream endpoints and request settings
type Config struct {
	WebsiteCarbonURL string
	GreenWebURL      string
	Timeout          time.Duration
	UserAgent        string
}

// Client fetches transfer and hosting metrics. It makes a single attempt per
// call; any failure surfaces as an UPSTREAM_ERROR.
type Client struct {
	client  *http.Client
	config  Config
	logger  *core.Logger
	metrics *core.Metrics
}

// NewClient creates a provider client. metrics may be nil.
func NewClient(logger *core.Logger, metrics *core.Metrics, config Config) *Client {
	if config.Timeout <= 0 {
		config.Timeout = 10 * time.Second
	}

	return &Client{
		client:  &http.Client{},
		config:  config,
		logger:  logger,
		metrics: metrics,
	}
}

// getJSON performs one bounded GET and decodes the body into out
func (c *Client) getJSON(ctx context.Context, provider, endpoint string, out any) (err error) {
	started := time.Now()
	defer func() {
		c.metrics.ObserveProviderRequest(provider, started, err)
		if err != nil {
			c.logger.WithContext(ctx).Warn("Provider request failed", "provider", provider, "error", err)
		}
	}()

	ctx, cancel := context.WithTimeout(ctx, c.config.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return core.NewUpstreamError(fmt.Sprintf("Error building %s request", provider), err)
	}
	req.Header.Set("Accept", "application/json")
	if c.config.UserAgent != "" {
		req.Header.Set("User-Agent", c.config.UserAgent)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return core.NewUpstreamError(fmt.Sprintf("Error contacting %s", provider), err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		io.Copy(io.Discard, io.LimitReader(resp.Body, maxResponseBytes))
		return core.NewUpstreamError(
			fmt.Sprintf("Error fetching data from %s", provider),
			fmt.Errorf("%s returned status %d", provider, resp.StatusCode),
		)
	}

	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBytes)).Decode(out); err != nil {
		return core.NewUpstreamError(fmt.Sprintf("Error decoding %s response", provider), err)
	}

	return nil
}

func malformed(provider, detail string) error {
	return core.NewUpstreamError(
		fmt.Sprintf("Error decoding %s response", provider),
		fmt.Errorf("malformed payload: %s", detail),
	)
}
