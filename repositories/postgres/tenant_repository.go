package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/adplane/ads-control-plane/models"
	"github.com/adplane/ads-control-plane/repositories"
	"go.uber.org/zap"
)

// TenantRepository implements the repositories.TenantRepository interface
type TenantRepository struct {
	db     *DB
	tx     repositories.Transaction
	logger *zap.Logger
}

// NewTenantRepository creates a new tenant repository
func NewTenantRepository(db *DB, logger *zap.Logger) repositories.TenantRepository {
	return &TenantRepository{
		db:     db,
		logger: logger,
	}
}

// Upsert inserts or refreshes a tenant row
func (r *TenantRepository) Upsert(ctx context.Context, tenant *models.Tenant) error {
	query := `
		INSERT INTO tenants (id, display_name, credential_ref, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO UPDATE SET
			display_name = EXCLUDED.display_name,
			credential_ref = EXCLUDED.credential_ref,
			updated_at = EXCLUDED.updated_at
	`

	executor := executorFor(ctx, r.db, r.tx)
	_, err := executor.ExecContext(ctx, query,
		tenant.ID,
		tenant.DisplayName,
		tenant.CredentialRef,
		tenant.CreatedAt,
		tenant.UpdatedAt,
	)

	if err != nil {
		return fmt.Errorf("failed to upsert tenant: %w", err)
	}

	r.logger.Debug("tenant upserted", zap.String("tenant_id", tenant.ID))
	return nil
}

// GetByID retrieves a tenant by id
func (r *TenantRepository) GetByID(ctx context.Context, id string) (*models.Tenant, error) {
	query := `
		SELECT id, display_name, credential_ref, created_at, updated_at
		FROM tenants
		WHERE id = $1
	`

	executor := executorFor(ctx, r.db, r.tx)
	tenant := &models.Tenant{}

	err := executor.QueryRowContext(ctx, query, id).Scan(
		&tenant.ID,
		&tenant.DisplayName,
		&tenant.CredentialRef,
		&tenant.CreatedAt,
		&tenant.UpdatedAt,
	)

	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("tenant not found: %s", id)
		}
		return nil, fmt.Errorf("failed to get tenant: %w", err)
	}

	return tenant, nil
}

// List retrieves all tenants
func (r *TenantRepository) List(ctx context.Context) ([]*models.Tenant, error) {
	query := `
		SELECT id, display_name, credential_ref, created_at, updated_at
		FROM tenants
		ORDER BY id
	`

	executor := executorFor(ctx, r.db, r.tx)
	rows, err := executor.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list tenants: %w", err)
	}
	defer rows.Close()

	var tenants []*models.Tenant
	for rows.Next() {
		tenant := &models.Tenant{}
		if err := rows.Scan(
			&tenant.ID,
			&tenant.DisplayName,
			&tenant.CredentialRef,
			&tenant.CreatedAt,
			&tenant.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan tenant: %w", err)
		}
		tenants = append(tenants, tenant)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate tenants: %w", err)
	}

	return tenants, nil
}

// WithTx returns a new repository instance bound to the transaction
func (r *TenantRepository) WithTx(tx repositories.Transaction) repositories.TenantRepository {
	return &TenantRepository{
		db:     r.db,
		tx:     tx,
		logger: r.logger,
	}
}
