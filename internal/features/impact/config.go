package impact

import (
	"time"

	"co2-bunny/internal/core"
	"co2-bunny/internal/features/impact/providers"
)

// Config holds the impact feature settings derived from the core config
type Config struct {
	Providers  providers.Config
	CacheTTL   time.Duration
	WebEnabled bool
}

// ConfigFromCore extracts the impact settings
func ConfigFromCore(c *core.Config) Config {
	return Config{
		Providers: providers.Config{
			WebsiteCarbonURL: c.Providers.WebsiteCarbonURL,
			GreenWebURL:      c.Providers.GreenWebURL,
			Timeout:          c.ProviderTimeout(),
			UserAgent:        c.Providers.UserAgent,
		},
		CacheTTL:   c.CacheTTL(),
		WebEnabled: c.Features.Web.Enabled,
	}
}
