package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/adplane/ads-control-plane/models"
	"github.com/adplane/ads-control-plane/repositories"
	"go.uber.org/zap"
)

// PageSelectionRepository implements the repositories.PageSelectionRepository
// interface
type PageSelectionRepository struct {
	db     *DB
	tx     repositories.Transaction
	logger *zap.Logger
}

// NewPageSelectionRepository creates a new page selection repository
func NewPageSelectionRepository(db *DB, logger *zap.Logger) repositories.PageSelectionRepository {
	return &PageSelectionRepository{
		db:     db,
		logger: logger,
	}
}

// GetPageSelection retrieves the selection row, (nil, nil) when absent
func (r *PageSelectionRepository) GetPageSelection(ctx context.Context, tenantID, adAccountID string) (*models.PageSelection, error) {
	query := `
		SELECT tenant_id, ad_account_id, page_id, created_at, updated_at
		FROM page_selections
		WHERE tenant_id = $1 AND ad_account_id = $2
	`

	executor := executorFor(ctx, r.db, r.tx)
	selection := &models.PageSelection{}

	err := executor.QueryRowContext(ctx, query, tenantID, models.NormalizeAccountID(adAccountID)).Scan(
		&selection.TenantID,
		&selection.AdAccountID,
		&selection.PageID,
		&selection.CreatedAt,
		&selection.UpdatedAt,
	)

	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get page selection: %w", err)
	}

	return selection, nil
}

// PutPageSelection inserts or replaces the selection row
func (r *PageSelectionRepository) PutPageSelection(ctx context.Context, selection *models.PageSelection) error {
	query := `
		INSERT INTO page_selections (tenant_id, ad_account_id, page_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (tenant_id, ad_account_id) DO UPDATE SET
			page_id = EXCLUDED.page_id,
			updated_at = EXCLUDED.updated_at
	`

	executor := executorFor(ctx, r.db, r.tx)
	_, err := executor.ExecContext(ctx, query,
		selection.TenantID,
		selection.AdAccountID,
		selection.PageID,
		selection.CreatedAt,
		selection.UpdatedAt,
	)

	if err != nil {
		return fmt.Errorf("failed to put page selection: %w", err)
	}

	r.logger.Debug("page selection stored",
		zap.String("tenant_id", selection.TenantID),
		zap.String("ad_account_id", selection.AdAccountID),
		zap.String("page_id", selection.PageID))

	return nil
}

// WithTx returns a new repository instance bound to the transaction
func (r *PageSelectionRepository) WithTx(tx repositories.Transaction) repositories.PageSelectionRepository {
	return &PageSelectionRepository{
		db:     r.db,
		tx:     tx,
		logger: r.logger,
	}
}
