package persistence

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/blockwatch/blockwatch/internal/domain"
	"github.com/blockwatch/blockwatch/internal/ports"
)

// PostgresSettingsRepository implements SettingsRepository using PostgreSQL.
// The settings table holds exactly one row.
type PostgresSettingsRepository struct {
	db *sql.DB
}

// NewPostgresSettingsRepository creates a new PostgreSQL settings repository.
func NewPostgresSettingsRepository(db *sql.DB) ports.SettingsRepository {
	return &PostgresSettingsRepository{db: db}
}

// Get returns the current settings, falling back to the defaults when the
// singleton row has not been written yet.
func (r *PostgresSettingsRepository) Get(ctx context.Context) (domain.Settings, error) {
	query := `
		SELECT integration_mode, dry_run, edl_token, palo_alto_api_url, palo_alto_api_key, address_group_name
		FROM settings WHERE id = 1
	`
	var s domain.Settings
	var mode string
	err := r.db.QueryRowContext(ctx, query).Scan(
		&mode, &s.DryRun, &s.EDLToken, &s.PaloAltoAPIURL, &s.PaloAltoAPIKey, &s.AddressGroupName,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return domain.DefaultSettings(), nil
		}
		return domain.Settings{}, fmt.Errorf("failed to load settings: %w", err)
	}
	s.IntegrationMode = domain.IntegrationMode(mode)
	return s, nil
}

// Update merges the patch into the stored settings inside a transaction so
// concurrent updates cannot interleave field writes.
func (r *PostgresSettingsRepository) Update(ctx context.Context, patch domain.SettingsPatch) (domain.Settings, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return domain.Settings{}, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	current := domain.DefaultSettings()
	var mode string
	query := `
		SELECT integration_mode, dry_run, edl_token, palo_alto_api_url, palo_alto_api_key, address_group_name
		FROM settings WHERE id = 1 FOR UPDATE
	`
	err = tx.QueryRowContext(ctx, query).Scan(
		&mode, &current.DryRun, &current.EDLToken, &current.PaloAltoAPIURL, &current.PaloAltoAPIKey, &current.AddressGroupName,
	)
	if err != nil && err != sql.ErrNoRows {
		return domain.Settings{}, fmt.Errorf("failed to lock settings: %w", err)
	}
	if err == nil {
		current.IntegrationMode = domain.IntegrationMode(mode)
	}

	patch.Apply(&current)

	upsert := `
		INSERT INTO settings (id, integration_mode, dry_run, edl_token, palo_alto_api_url, palo_alto_api_key, address_group_name)
		VALUES (1, $1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO UPDATE SET
			integration_mode = EXCLUDED.integration_mode,
			dry_run = EXCLUDED.dry_run,
			edl_token = EXCLUDED.edl_token,
			palo_alto_api_url = EXCLUDED.palo_alto_api_url,
			palo_alto_api_key = EXCLUDED.palo_alto_api_key,
			address_group_name = EXCLUDED.address_group_name
	`
	_, err = tx.ExecContext(ctx, upsert,
		string(current.IntegrationMode),
		current.DryRun,
		current.EDLToken,
		current.PaloAltoAPIURL,
		current.PaloAltoAPIKey,
		current.AddressGroupName,
	)
	if err != nil {
		return domain.Settings{}, fmt.Errorf("failed to save settings: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return domain.Settings{}, fmt.Errorf("failed to commit settings: %w", err)
	}
	return current, nil
}
