package core

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// Migration represents a versioned schema change owned by one feature
type Migration struct {
	Feature     string
	Version     int
	Name        string
	Description string
	UpSQL       string
	DownSQL     string
	AppliedAt   time.Time
}

// MigrationService applies and rolls back migrations
type MigrationService struct {
	db     *Database
	logger *Logger
}

// NewMigrationService creates a new migration service
func NewMigrationService(db *Database, logger *Logger) *MigrationService {
	return &MigrationService{
		db:     db,
		logger: logger,
	}
}

// InitMigrations initializes the migrations table
func (m *MigrationService) InitMigrations(ctx context.Context) error {
	createMigrationsTable := `
	CREATE TABLE IF NOT EXISTS migrations (
		feature TEXT NOT NULL,
		version INTEGER NOT NULL,
		name TEXT NOT NULL,
		description TEXT,
		applied_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		PRIMARY KEY (feature, version)
	);`

	if _, err := m.db.ExecWithTimeout(ctx, createMigrationsTable); err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}

	return nil
}

// GetAppliedMigrations returns the applied migrations of a feature, oldest first
func (m *MigrationService) GetAppliedMigrations(ctx context.Context, feature string) ([]Migration, error) {
	query := `SELECT feature, version, name, description, applied_at FROM migrations WHERE feature = ? ORDER BY version`

	queryCtx, cancel := m.db.QueryContextWithTimeout(ctx)
	defer cancel()

	rows, err := m.db.QueryContext(queryCtx, query, feature)
	if err != nil {
		return nil, fmt.Errorf("failed to query migrations: %w", err)
	}
	defer rows.Close()

	var migrations []Migration
	for rows.Next() {
		var migration Migration
		var description sql.NullString
		err := rows.Scan(&migration.Feature, &migration.Version, &migration.Name, &description, &migration.AppliedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan migration: %w", err)
		}
		migration.Description = description.String
		migrations = append(migrations, migration)
	}

	return migrations, rows.Err()
}

// IsMigrationApplied checks if a migration has been applied
func (m *MigrationService) IsMigrationApplied(ctx context.Context, migration Migration) (bool, error) {
	query := `SELECT COUNT(*) FROM migrations WHERE feature = ? AND version = ?`

	queryCtx, cancel := m.db.QueryContextWithTimeout(ctx)
	defer cancel()

	var count int
	if err := m.db.QueryRowContext(queryCtx, query, migration.Feature, migration.Version).Scan(&count); err != nil {
		return false, fmt.Errorf("failed to check migration status: %w", err)
	}

	return count > 0, nil
}

// ApplyMigration applies a single migration inside a transaction
func (m *MigrationService) ApplyMigration(ctx context.Context, migration Migration) error {
	applied, err := m.IsMigrationApplied(ctx, migration)
	if err != nil {
		return err
	}
	if applied {
		m.logger.Debug("Migration already applied", "feature", migration.Feature, "version", migration.Version)
		return nil
	}

	err = m.db.Transaction(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, migration.UpSQL); err != nil {
			return fmt.Errorf("failed to execute migration %d (%s): %w", migration.Version, migration.Name, err)
		}

		insertQuery := `INSERT INTO migrations (feature, version, name, description) VALUES (?, ?, ?, ?)`
		if _, err := tx.ExecContext(ctx, insertQuery, migration.Feature, migration.Version, migration.Name, migration.Description); err != nil {
			return fmt.Errorf("failed to record migration %d: %w", migration.Version, err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	m.logger.Info("Applied migration", "feature", migration.Feature, "version", migration.Version, "name", migration.Name)
	return nil
}

// RollbackMigration rolls back a single migration inside a transaction
func (m *MigrationService) RollbackMigration(ctx context.Context, migration Migration) error {
	applied, err := m.IsMigrationApplied(ctx, migration)
	if err != nil {
		return err
	}
	if !applied {
		m.logger.Info("Migration not applied, cannot rollback", "feature", migration.Feature, "version", migration.Version)
		return nil
	}

	err = m.db.Transaction(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, migration.DownSQL); err != nil {
			return fmt.Errorf("failed to rollback migration %d (%s): %w", migration.Version, migration.Name, err)
		}

		deleteQuery := `DELETE FROM migrations WHERE feature = ? AND version = ?`
		if _, err := tx.ExecContext(ctx, deleteQuery, migration.Feature, migration.Version); err != nil {
			return fmt.Errorf("failed to remove migration record %d: %w", migration.Version, err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	m.logger.Info("Rolled back migration", "feature", migration.Feature, "version", migration.Version, "name", migration.Name)
	return nil
}

// GetMigrationStatus returns the status of a feature's migrations
func (m *MigrationService) GetMigrationStatus(ctx context.Context, feature string) (*MigrationStatus, error) {
	applied, err := m.GetAppliedMigrations(ctx, feature)
	if err != nil {
		return nil, err
	}

	status := &MigrationStatus{
		Feature:      feature,
		AppliedCount: len(applied),
		Applied:      applied,
	}

	if len(applied) > 0 {
		status.LastApplied = &applied[len(applied)-1]
	}

	return status, nil
}

// MigrationStatus represents the current migration status
type MigrationStatus struct {
	Feature      string      `json:"feature"`
	AppliedCount int         `json:"applied_count"`
	Applied      []Migration `json:"applied"`
	LastApplied  *Migration  `json:"last_applied,omitempty"`
}
