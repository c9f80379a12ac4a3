package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/adplane/ads-control-plane/models"
	"github.com/adplane/ads-control-plane/repositories"
	"go.uber.org/zap"
)

// DsaRepository implements the repositories.DsaRepository interface
type DsaRepository struct {
	db     *DB
	tx     repositories.Transaction
	logger *zap.Logger
}

// NewDsaRepository creates a new DSA settings repository
func NewDsaRepository(db *DB, logger *zap.Logger) repositories.DsaRepository {
	return &DsaRepository{
		db:     db,
		logger: logger,
	}
}

// GetDsaSettings retrieves the settings row, (nil, nil) when absent
func (r *DsaRepository) GetDsaSettings(ctx context.Context, tenantID, adAccountID string) (*models.DsaSettings, error) {
	query := `
		SELECT tenant_id, ad_account_id, beneficiary, payor, source, updated_at
		FROM dsa_settings
		WHERE tenant_id = $1 AND ad_account_id = $2
	`

	executor := executorFor(ctx, r.db, r.tx)
	settings := &models.DsaSettings{}

	err := executor.QueryRowContext(ctx, query, tenantID, models.NormalizeAccountID(adAccountID)).Scan(
		&settings.TenantID,
		&settings.AdAccountID,
		&settings.Beneficiary,
		&settings.Payor,
		&settings.Source,
		&settings.UpdatedAt,
	)

	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get dsa settings: %w", err)
	}

	return settings, nil
}

// PutDsaSettings inserts or replaces the settings row
func (r *DsaRepository) PutDsaSettings(ctx context.Context, settings *models.DsaSettings) error {
	query := `
		INSERT INTO dsa_settings (tenant_id, ad_account_id, beneficiary, payor, source, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (tenant_id, ad_account_id) DO UPDATE SET
			beneficiary = EXCLUDED.beneficiary,
			payor = EXCLUDED.payor,
			source = EXCLUDED.source,
			updated_at = EXCLUDED.updated_at
	`

	executor := executorFor(ctx, r.db, r.tx)
	_, err := executor.ExecContext(ctx, query,
		settings.TenantID,
		settings.AdAccountID,
		settings.Beneficiary,
		settings.Payor,
		string(settings.Source),
		settings.UpdatedAt,
	)

	if err != nil {
		return fmt.Errorf("failed to put dsa settings: %w", err)
	}

	r.logger.Debug("dsa settings stored",
		zap.String("tenant_id", settings.TenantID),
		zap.String("ad_account_id", settings.AdAccountID),
		zap.String("source", string(settings.Source)))

	return nil
}

// WithTx returns a new repository instance bound to the transaction
func (r *DsaRepository) WithTx(tx repositories.Transaction) repositories.DsaRepository {
	return &DsaRepository{
		db:     r.db,
		tx:     tx,
		logger: r.logger,
	}
}
