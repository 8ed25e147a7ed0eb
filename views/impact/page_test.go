package impact

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"co2-bunny/internal/features/impact/models"
)

func render(t *testing.T, data PageData) string {
	t.Helper()

	var buf bytes.Buffer
	if err := AnalyzePage(data).Render(context.Background(), &buf); err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	return buf.String()
}

func TestAnalyzePageEmpty(t *testing.T) {
	html := render(t, PageData{})

	for _, want := range []string{
		"<title>Website Carbon Calculator</title>",
		`action="/analyze"`,
		"No analyses yet.",
	} {
		if !strings.Contains(html, want) {
			t.Errorf("page is missing %q", want)
		}
	}
	if strings.Contains(html, "analysis-result") || strings.Contains(html, "analysis-error") {
		t.Error("empty page must not render a result or an error")
	}
}

func TestAnalyzePageResult(t *testing.T) {
	analysis := &models.WebsiteAnalysis{
		ID:                     "abc",
		URL:                    "example.com",
		DataTransferKB:         512,
		EnergyUsedKWh:          0.0003,
		CarbonEmissionsG:       models.CarbonEmissions{Grid: 0.2, Renewable: 0.17},
		GreenHosting:           true,
		Provider:               "Green Host Ltd",
		AnnualPageViews:        100000,
		CarbonPerViewG:         0.3,
		TotalAnnualEmissionsKg: 29.99,
		CreatedAt:              time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC),
	}

	html := render(t, PageData{
		URL:       "example.com",
		PageViews: "100000",
		Result:    &models.CalculationResult{WebsiteAnalysis: analysis, Message: "Using cached analysis from the last 24 hours", Cached: true},
		Recent:    []models.WebsiteAnalysis{*analysis},
	})

	for _, want := range []string{
		"29.99 kg CO₂",
		"Based on 100,000 annual page views",
		"512.00 KB",
		"Provider: Green Host Ltd",
		"Using cached analysis from the last 24 hours",
		"bg-green-100",
		`datetime="2025-03-01T12:00:00Z"`,
	} {
		if !strings.Contains(html, want) {
			t.Errorf("page is missing %q", want)
		}
	}
}

func TestAnalyzePageEscapesInput(t *testing.T) {
	html := render(t, PageData{
		URL:   `"><script>alert(1)</script>`,
		Error: "<b>bad</b>",
	})

	if strings.Contains(html, "<script>alert(1)</script>") || strings.Contains(html, "<b>bad</b>") {
		t.Error("user input was not escaped")
	}
}

func TestHostingBadgeMergesClasses(t *testing.T) {
	var buf bytes.Buffer
	if err := HostingBadge(false, "text-sm").Render(context.Background(), &buf); err != nil {
		t.Fatalf("Render failed: %v", err)
	}

	html := buf.String()
	if strings.Contains(html, "text-xs") {
		t.Errorf("expected text-sm to replace text-xs, got %s", html)
	}
	if !strings.Contains(html, "Standard") || !strings.Contains(html, "bg-amber-100") {
		t.Errorf("unexpected badge: %s", html)
	}
}

func TestFormatThousands(t *testing.T) {
	tests := map[int64]string{
		0:          "0",
		999:        "999",
		1000:       "1,000",
		100000:     "100,000",
		1234567:    "1,234,567",
		-1234:      "-1,234",
		1000000000: "1,000,000,000",
	}
	for in, want := range tests {
		if got := FormatThousands(in); got != want {
			t.Errorf("FormatThousands(%d) = %q, want %q", in, got, want)
		}
	}
}
