package repositories

import (
	"context"
	"time"

	"github.com/adplane/ads-control-plane/models"
	"github.com/google/uuid"
)

// TransactionManager manages database transactions
type TransactionManager interface {
	// Begin starts a new transaction
	Begin(ctx context.Context) (Transaction, error)

	// InTransaction executes a function within a transaction
	// Automatically commits if function succeeds, rolls back on error
	InTransaction(ctx context.Context, fn func(ctx context.Context, tx Transaction) error) error
}

// Transaction represents a database transaction
type Transaction interface {
	// Commit commits the transaction
	Commit() error

	// Rollback rolls back the transaction
	Rollback() error

	// Context returns the transaction context
	Context() context.Context
}

// TenantRepository mirrors the startup tenant configuration into the database
// so other rows have a parent to reference
type TenantRepository interface {
	// Upsert inserts or refreshes a tenant row
	Upsert(ctx context.Context, tenant *models.Tenant) error

	// GetByID retrieves a tenant by id
	GetByID(ctx context.Context, id string) (*models.Tenant, error)

	// List retrieves all tenants
	List(ctx context.Context) ([]*models.Tenant, error)

	// WithTx returns a new repository instance bound to the transaction
	WithTx(tx Transaction) TenantRepository
}

// AssetRepository stores the per-tenant snapshot of synced platform objects
type AssetRepository interface {
	// ReplaceForTenant swaps the tenant's snapshot of one asset kind for a
	// fresh one. Confirmed flags of surviving pages are preserved.
	ReplaceForTenant(ctx context.Context, tenantID string, kind models.AssetKind, assets []*models.Asset) error

	// ListByTenant retrieves the tenant's assets of one kind
	ListByTenant(ctx context.Context, tenantID string, kind models.AssetKind) ([]*models.Asset, error)

	// TenantPages retrieves the tenant's page inventory
	TenantPages(ctx context.Context, tenantID string) ([]models.PageInfo, error)

	// ConfirmPage marks a page as deliberately chosen, inserting the row if
	// sync has not seen the page yet
	ConfirmPage(ctx context.Context, tenantID, pageID string) error

	// WithTx returns a new repository instance bound to the transaction
	WithTx(tx Transaction) AssetRepository
}

// DsaRepository persists disclosure settings per (tenant, ad account)
type DsaRepository interface {
	// GetDsaSettings retrieves the settings row, (nil, nil) when absent
	GetDsaSettings(ctx context.Context, tenantID, adAccountID string) (*models.DsaSettings, error)

	// PutDsaSettings inserts or replaces the settings row
	PutDsaSettings(ctx context.Context, settings *models.DsaSettings) error

	// WithTx returns a new repository instance bound to the transaction
	WithTx(tx Transaction) DsaRepository
}

// PageSelectionRepository persists the default page choice per
// (tenant, ad account)
type PageSelectionRepository interface {
	// GetPageSelection retrieves the selection row, (nil, nil) when absent
	GetPageSelection(ctx context.Context, tenantID, adAccountID string) (*models.PageSelection, error)

	// PutPageSelection inserts or replaces the selection row
	PutPageSelection(ctx context.Context, selection *models.PageSelection) error

	// WithTx returns a new repository instance bound to the transaction
	WithTx(tx Transaction) PageSelectionRepository
}

// AuditRepository handles audit log data operations
type AuditRepository interface {
	// Insert inserts a new audit log entry
	Insert(ctx context.Context, log *models.AuditLog) error

	// GetByID retrieves an audit log by ID
	GetByID(ctx context.Context, id uuid.UUID) (*models.AuditLog, error)

	// GetByTenantID retrieves audit logs for a tenant with pagination
	GetByTenantID(ctx context.Context, tenantID string, limit, offset int) ([]*models.AuditLog, error)

	// GetByDateRange retrieves audit logs within a date range
	GetByDateRange(ctx context.Context, tenantID string, start, end time.Time, limit, offset int) ([]*models.AuditLog, error)

	// GetByAction retrieves audit logs by action type
	GetByAction(ctx context.Context, tenantID string, action models.AuditAction, limit, offset int) ([]*models.AuditLog, error)

	// GetByRequestID retrieves audit logs by request ID
	GetByRequestID(ctx context.Context, requestID string) ([]*models.AuditLog, error)

	// WithTx returns a new repository instance bound to the transaction
	WithTx(tx Transaction) AuditRepository
}

// Repositories aggregates all repository interfaces
type Repositories struct {
	Tenants        TenantRepository
	Assets         AssetRepository
	DsaSettings    DsaRepository
	PageSelections PageSelectionRepository
	AuditLogs      AuditRepository
}
