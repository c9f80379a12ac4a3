package postgres

import (
	"context"
	"fmt"

	"github.com/adplane/ads-control-plane/models"
	"github.com/adplane/ads-control-plane/repositories"
	"github.com/lib/pq"
	"go.uber.org/zap"
)

// AssetRepository implements the repositories.AssetRepository interface
type AssetRepository struct {
	db     *DB
	tx     repositories.Transaction
	logger *zap.Logger
}

// NewAssetRepository creates a new asset repository
func NewAssetRepository(db *DB, logger *zap.Logger) repositories.AssetRepository {
	return &AssetRepository{
		db:     db,
		logger: logger,
	}
}

// ReplaceForTenant swaps the tenant's snapshot of one asset kind for a fresh
// one. Rows surviving the swap keep their confirmed flag: a page the tenant
// chose once stays chosen across syncs.
func (r *AssetRepository) ReplaceForTenant(ctx context.Context, tenantID string, kind models.AssetKind, assets []*models.Asset) error {
	executor := executorFor(ctx, r.db, r.tx)

	upsertQuery := `
		INSERT INTO tenant_assets (tenant_id, kind, external_id, name, confirmed, synced_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (tenant_id, kind, external_id) DO UPDATE SET
			name = EXCLUDED.name,
			confirmed = tenant_assets.confirmed OR EXCLUDED.confirmed,
			synced_at = EXCLUDED.synced_at
	`
	ids := make([]string, 0, len(assets))
	for _, asset := range assets {
		ids = append(ids, asset.ExternalID)
		if _, err := executor.ExecContext(ctx, upsertQuery,
			asset.TenantID,
			string(asset.Kind),
			asset.ExternalID,
			asset.Name,
			asset.Confirmed,
			asset.SyncedAt,
		); err != nil {
			return fmt.Errorf("failed to upsert tenant asset %s: %w", asset.ExternalID, err)
		}
	}

	// Drop assets that vanished from the platform since the last sync.
	deleteQuery := `DELETE FROM tenant_assets WHERE tenant_id = $1 AND kind = $2 AND external_id <> ALL($3)`
	if _, err := executor.ExecContext(ctx, deleteQuery, tenantID, string(kind), pq.Array(ids)); err != nil {
		return fmt.Errorf("failed to prune tenant assets: %w", err)
	}

	r.logger.Debug("tenant assets replaced",
		zap.String("tenant_id", tenantID),
		zap.String("kind", string(kind)),
		zap.Int("count", len(assets)))

	return nil
}

// ListByTenant retrieves the tenant's assets of one kind
func (r *AssetRepository) ListByTenant(ctx context.Context, tenantID string, kind models.AssetKind) ([]*models.Asset, error) {
	query := `
		SELECT tenant_id, kind, external_id, name, confirmed, synced_at
		FROM tenant_assets
		WHERE tenant_id = $1 AND kind = $2
		ORDER BY external_id
	`

	executor := executorFor(ctx, r.db, r.tx)
	rows, err := executor.QueryContext(ctx, query, tenantID, string(kind))
	if err != nil {
		return nil, fmt.Errorf("failed to list tenant assets: %w", err)
	}
	defer rows.Close()

	var assets []*models.Asset
	for rows.Next() {
		asset := &models.Asset{}
		if err := rows.Scan(
			&asset.TenantID,
			&asset.Kind,
			&asset.ExternalID,
			&asset.Name,
			&asset.Confirmed,
			&asset.SyncedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan tenant asset: %w", err)
		}
		assets = append(assets, asset)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate tenant assets: %w", err)
	}

	return assets, nil
}

// TenantPages retrieves the tenant's page inventory
func (r *AssetRepository) TenantPages(ctx context.Context, tenantID string) ([]models.PageInfo, error) {
	assets, err := r.ListByTenant(ctx, tenantID, models.AssetKindPage)
	if err != nil {
		return nil, err
	}

	pages := make([]models.PageInfo, 0, len(assets))
	for _, asset := range assets {
		pages = append(pages, models.PageInfo{
			ID:        asset.ExternalID,
			Name:      asset.Name,
			Confirmed: asset.Confirmed,
		})
	}
	return pages, nil
}

// ConfirmPage marks a page as deliberately chosen, inserting the row if sync
// has not seen the page yet
func (r *AssetRepository) ConfirmPage(ctx context.Context, tenantID, pageID string) error {
	query := `
		INSERT INTO tenant_assets (tenant_id, kind, external_id, name, confirmed, synced_at)
		VALUES ($1, $2, $3, '', true, CURRENT_TIMESTAMP)
		ON CONFLICT (tenant_id, kind, external_id) DO UPDATE SET
			confirmed = true
	`

	executor := executorFor(ctx, r.db, r.tx)
	if _, err := executor.ExecContext(ctx, query, tenantID, string(models.AssetKindPage), pageID); err != nil {
		return fmt.Errorf("failed to confirm page: %w", err)
	}

	r.logger.Debug("page confirmed",
		zap.String("tenant_id", tenantID),
		zap.String("page_id", pageID))

	return nil
}

// WithTx returns a new repository instance bound to the transaction
func (r *AssetRepository) WithTx(tx repositories.Transaction) repositories.AssetRepository {
	return &AssetRepository{
		db:     r.db,
		tx:     tx,
		logger: r.logger,
	}
}
