package migrations

import (
	"co2-bunny/internal/core"
)

// Migration001CreateWebsiteAnalyses creates the analysis table
var Migration001CreateWebsiteAnalyses = core.Migration{
	Feature:     FeatureName,
	Version:     1,
	Name:        "create_website_analyses",
	Description: "Create the website analysis table used as the impact cache",
	UpSQL: `
		CREATE TABLE IF NOT EXISTS website_analyses (
			id TEXT PRIMARY KEY,
			url TEXT NOT NULL,
			data_transfer_kb REAL NOT NULL,
			energy_used_kwh REAL NOT NULL,
			carbon_schema_version INTEGER NOT NULL DEFAULT 2,
			carbon_grid_g REAL NOT NULL,
			carbon_renewable_g REAL NOT NULL,
			green_hosting BOOLEAN NOT NULL,
			provider TEXT NOT NULL,
			annual_page_views INTEGER NOT NULL CHECK (annual_page_views >= 0),
			carbon_per_view_g REAL NOT NULL,
			total_annual_emissions_kg REAL NOT NULL,
			created_at DATETIME NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_website_analyses_lookup
			ON website_analyses(url, annual_page_views, created_at);
		CREATE INDEX IF NOT EXISTS idx_website_analyses_created_at
			ON website_analyses(created_at);
	`,
	DownSQL: `
		DROP INDEX IF EXISTS idx_website_analyses_created_at;
		DROP INDEX IF EXISTS idx_website_analyses_lookup;
		DROP TABLE IF EXISTS website_analyses;
	`,
}
