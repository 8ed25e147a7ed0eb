package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"math"
	"net/url"
	"strconv"
	"strings"

	"co2-bunny/internal/features/impact/models"
)

type websiteCarbonResponse struct {
	Rating      json.RawMessage `json:"rating"`
	CleanerThan *float64        `json:"cleanerThan"`
	Statistics  *struct {
		AdjustedBytes *float64                `json:"adjustedBytes"`
		Energy        *float64                `json:"energy"`
		CO2           *models.CarbonEmissions `json:"co2"`
	} `json:"statistics"`
}

// FetchTransferMetrics asks the Website Carbon API for the page weight,
// energy and CO2 estimate of one page load
func (c *Client) FetchTransferMetrics(ctx context.Context, siteURL string) (*models.TransferMetrics, error) {
	endpoint := strings.TrimRight(c.config.WebsiteCarbonURL, "/") + "/site?url=" + url.QueryEscape(siteURL)

	var body websiteCarbonResponse
	if err := c.getJSON(ctx, WebsiteCarbon, endpoint, &body); err != nil {
		return nil, err
	}

	stats := body.Statistics
	switch {
	case stats == nil:
		return nil, malformed(WebsiteCarbon, "statistics missing")
	case stats.AdjustedBytes == nil:
		return nil, malformed(WebsiteCarbon, "statistics.adjustedBytes missing")
	case stats.Energy == nil:
		return nil, malformed(WebsiteCarbon, "statistics.energy missing")
	case stats.CO2 == nil:
		return nil, malformed(WebsiteCarbon, "statistics.co2 missing")
	}

	metrics := &models.TransferMetrics{
		URL:             siteURL,
		DataTransferKB:  *stats.AdjustedBytes / 1024,
		EnergyUsedKWh:   *stats.Energy,
		CarbonEmissions: *stats.CO2,
		GreenRating:     ratingString(body.Rating),
	}
	if body.CleanerThan != nil {
		metrics.CleanerThanPercent = math.Round(*body.CleanerThan*100*100) / 100
	}

	return metrics, nil
}

// ratingString accepts the letter grade or a numeric score
func ratingString(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return ""
	}

	var letter string
	if err := json.Unmarshal(raw, &letter); err == nil {
		return letter
	}

	var score float64
	if err := json.Unmarshal(raw, &score); err == nil {
		return strconv.FormatFloat(score, 'f', -1, 64)
	}

	return ""
}
