package providers

import (
	"context"
	"net/url"
	"strings"

	"co2-bunny/internal/features/impact/models"
)

// GreenHostingSavingsGrams is credited whenever the host runs on green energy.
// It is a fixed policy value, not a measurement.
const GreenHostingSavingsGrams = 10.0

const (
	unknownProvider        = "Unknown"
	noSustainabilityReport = "No sustainability report available"
)

type greenCheckResponse struct {
	Green               *bool  `json:"green"`
	HostedBy            string `json:"hosted_by"`
	SupportingDocuments []struct {
		Title string `json:"title"`
		Link  string `json:"link"`
	} `json:"supporting_documents"`
}

// FetchHostingMetrics asks the Green Web Foundation whether the site's host
// runs on renewable energy
func (c *Client) FetchHostingMetrics(ctx context.Context, siteURL string) (*models.HostingMetrics, error) {
	endpoint := strings.TrimRight(c.config.GreenWebURL, "/") + "/greencheck/" + url.PathEscape(hostname(siteURL))

	var body greenCheckResponse
	if err := c.getJSON(ctx, GreenWeb, endpoint, &body); err != nil {
		return nil, err
	}

	if body.Green == nil {
		return nil, malformed(GreenWeb, "green missing")
	}

	metrics := &models.HostingMetrics{
		URL:                  siteURL,
		GreenHosting:         *body.Green,
		Provider:             body.HostedBy,
		SustainabilityReport: noSustainabilityReport,
	}
	if metrics.Provider == "" {
		metrics.Provider = unknownProvider
	}
	if metrics.GreenHosting {
		metrics.CarbonSavingsGrams = GreenHostingSavingsGrams
	}

	var links []string
	for _, doc := range body.SupportingDocuments {
		if doc.Link != "" {
			links = append(links, doc.Link)
		}
	}
	if len(links) > 0 {
		metrics.SustainabilityReport = strings.Join(links, " ")
	}

	return metrics, nil
}

// hostname reduces user input like "https://example.com/about" to the host
// the greencheck API expects. Bare hosts pass through unchanged.
func hostname(siteURL string) string {
	siteURL = strings.TrimSpace(siteURL)
	if strings.Contains(siteURL, "://") {
		if parsed, err := url.Parse(siteURL); err == nil && parsed.Hostname() != "" {
			return parsed.Hostname()
		}
	}

	if i := strings.IndexAny(siteURL, "/?#"); i >= 0 {
		siteURL = siteURL[:i]
	}
	return siteURL
}
