// Package impact renders the analyze page. Edit the .templ sources and run
// `go tool templ generate` to refresh the _templ.go files.
package impact

import (
	"strconv"
	"strings"

	twmerge "github.com/Oudwins/tailwind-merge-go"

	"co2-bunny/internal/features/impact/models"
)

const (
	badgeBase = "inline-flex items-center rounded-full px-2.5 py-0.5 text-xs font-medium"
	cardBase  = "p-4 rounded-lg border bg-white shadow-sm"
)

// PageData is everything the analyze page can show
type PageData struct {
	URL       string
	PageViews string
	Result    *models.CalculationResult
	Error     string
	Recent    []models.WebsiteAnalysis
}

func badgeClasses(green bool, class ...string) string {
	variant := "bg-amber-100 text-amber-800"
	if green {
		variant = "bg-green-100 text-green-800"
	}
	return twmerge.Merge(append([]string{badgeBase, variant}, class...)...)
}

func cardClasses(class ...string) string {
	return twmerge.Merge(append([]string{cardBase}, class...)...)
}

func hostingLabel(green bool) string {
	if green {
		return "Green"
	}
	return "Standard"
}

func carbonPerView(a *models.WebsiteAnalysis) string {
	return formatFixed(a.CarbonEmissionsG.Effective(a.GreenHosting), 2) + " g CO₂"
}

func carbonSplit(c models.CarbonEmissions) string {
	return "Grid " + formatFixed(c.Grid, 2) + " g, renewable " + formatFixed(c.Renewable, 2) + " g"
}

// FormatThousands renders an integer with comma separators
func FormatThousands(n int64) string {
	s := strconv.FormatInt(n, 10)
	negative := strings.HasPrefix(s, "-")
	if negative {
		s = s[1:]
	}

	var b strings.Builder
	for i, r := range s {
		if i > 0 && (len(s)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}

	if negative {
		return "-" + b.String()
	}
	return b.String()
}

func formatFixed(v float64, decimals int) string {
	return strconv.FormatFloat(v, 'f', decimals, 64)
}
