package database

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"

	"co2-bunny/internal/core"
	"co2-bunny/internal/features/impact/models"
)

const analysisColumns = `
	id, url, data_transfer_kb, energy_used_kwh, carbon_schema_version, carbon_grid_g, carbon_renewable_g,
	green_hosting, provider, annual_page_views, carbon_per_view_g, total_annual_emissions_kg, created_at`

// AnalysisStore reads and writes website analyses. Rows are insert-only.
type AnalysisStore struct {
	db  *core.Database
	now func() time.Time
}

// NewAnalysisStore creates a store over an already migrated database
func NewAnalysisStore(db *core.Database) *AnalysisStore {
	return &AnalysisStore{
		db:  db,
		now: time.Now,
	}
}

// WithClock replaces the clock used for created_at and freshness checks
func (s *AnalysisStore) WithClock(now func() time.Time) *AnalysisStore {
	s.now = now
	return s
}

// FindFresh returns the newest analysis for exactly this url and page views
// created within maxAge, or nil when there is none
func (s *AnalysisStore) FindFresh(ctx context.Context, url string, annualPageViews int64, maxAge time.Duration) (*models.WebsiteAnalysis, error) {
	query := `SELECT ` + analysisColumns + `
		FROM website_analyses
		WHERE url = ? AND annual_page_views = ? AND created_at >= ?
		ORDER BY created_at DESC, rowid DESC
		LIMIT 1`

	cutoff := s.now().UTC().Add(-maxAge)

	queryCtx, cancel := s.db.QueryContextWithTimeout(ctx)
	defer cancel()

	analysis, err := scanAnalysis(s.db.QueryRowContext(queryCtx, query, url, annualPageViews, cutoff))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, core.NewDatabaseError("Error reading cached analysis", err)
	}

	return analysis, nil
}

// Insert assigns an id and creation time to the analysis and stores it
func (s *AnalysisStore) Insert(ctx context.Context, analysis *models.WebsiteAnalysis) (*models.WebsiteAnalysis, error) {
	if analysis.AnnualPageViews < 0 {
		return nil, core.NewValidationError("annualPageViews must not be negative", nil)
	}

	stored := *analysis
	stored.ID = uuid.NewString()
	stored.CreatedAt = s.now().UTC()

	query := `
		INSERT INTO website_analyses (` + analysisColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := s.db.ExecWithTimeout(ctx, query,
		stored.ID,
		stored.URL,
		stored.DataTransferKB,
		stored.EnergyUsedKWh,
		models.CarbonSchemaStructured,
		stored.CarbonEmissionsG.Grid,
		stored.CarbonEmissionsG.Renewable,
		stored.GreenHosting,
		stored.Provider,
		stored.AnnualPageViews,
		stored.CarbonPerViewG,
		stored.TotalAnnualEmissionsKg,
		stored.CreatedAt,
	)
	if err != nil {
		return nil, core.NewDatabaseError("Error saving analysis", err)
	}

	return &stored, nil
}

// ListByURL returns every analysis for the url, newest first
func (s *AnalysisStore) ListByURL(ctx context.Context, url string) ([]models.WebsiteAnalysis, error) {
	query := `SELECT ` + analysisColumns + `
		FROM website_analyses
		WHERE url = ?
		ORDER BY created_at DESC, rowid DESC`

	return s.list(ctx, query, url)
}

// ListRecent returns the newest analyses across all urls
func (s *AnalysisStore) ListRecent(ctx context.Context, limit int) ([]models.WebsiteAnalysis, error) {
	query := `SELECT ` + analysisColumns + `
		FROM website_analyses
		ORDER BY created_at DESC, rowid DESC
		LIMIT ?`

	return s.list(ctx, query, limit)
}

// Count returns the number of stored analyses
func (s *AnalysisStore) Count(ctx context.Context) (int, error) {
	queryCtx, cancel := s.db.QueryContextWithTimeout(ctx)
	defer cancel()

	var count int
	if err := s.db.QueryRowContext(queryCtx, `SELECT COUNT(*) FROM website_analyses`).Scan(&count); err != nil {
		return 0, core.NewDatabaseError("Error counting analyses", err)
	}
	return count, nil
}

func (s *AnalysisStore) list(ctx context.Context, query string, args ...any) ([]models.WebsiteAnalysis, error) {
	queryCtx, cancel := s.db.QueryContextWithTimeout(ctx)
	defer cancel()

	rows, err := s.db.QueryContext(queryCtx, query, args...)
	if err != nil {
		return nil, core.NewDatabaseError("Error listing analyses", err)
	}
	defer rows.Close()

	analyses := make([]models.WebsiteAnalysis, 0)
	for rows.Next() {
		analysis, err := scanAnalysis(rows)
		if err != nil {
			return nil, core.NewDatabaseError("Error reading analysis", err)
		}
		analyses = append(analyses, *analysis)
	}

	if err := rows.Err(); err != nil {
		return nil, core.NewDatabaseError("Error listing analyses", err)
	}

	return analyses, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanAnalysis(row scanner) (*models.WebsiteAnalysis, error) {
	var analysis models.WebsiteAnalysis
	var schemaVersion int
	var grid, renewable float64

	err := row.Scan(
		&analysis.ID,
		&analysis.URL,
		&analysis.DataTransferKB,
		&analysis.EnergyUsedKWh,
		&schemaVersion,
		&grid,
		&renewable,
		&analysis.GreenHosting,
		&analysis.Provider,
		&analysis.AnnualPageViews,
		&analysis.CarbonPerViewG,
		&analysis.TotalAnnualEmissionsKg,
		&analysis.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	if schemaVersion == models.CarbonSchemaScalar {
		analysis.CarbonEmissionsG = models.CarbonEmissionsFromScalar(grid)
	} else {
		analysis.CarbonEmissionsG = models.CarbonEmissions{Grid: grid, Renewable: renewable}
	}
	analysis.CreatedAt = analysis.CreatedAt.UTC()

	return &analysis, nil
}
