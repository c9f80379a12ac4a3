package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/adplane/ads-control-plane/models"
	"github.com/adplane/ads-control-plane/repositories"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// AuditRepository implements the repositories.AuditRepository interface
type AuditRepository struct {
	db     *DB
	tx     repositories.Transaction
	logger *zap.Logger
}

// NewAuditRepository creates a new audit repository
func NewAuditRepository(db *DB, logger *zap.Logger) repositories.AuditRepository {
	return &AuditRepository{
		db:     db,
		logger: logger,
	}
}

// Insert inserts a new audit log entry
func (r *AuditRepository) Insert(ctx context.Context, log *models.AuditLog) error {
	query := `
		INSERT INTO audit_logs (
			id, tenant_id, actor_user_id, action, resource_kind, resource_id,
			ad_account_id, details, request_id, timestamp,
			latency_ms, status_code, error_message
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13
		)
	`

	executor := executorFor(ctx, r.db, r.tx)
	_, err := executor.ExecContext(ctx, query,
		log.ID,
		log.TenantID,
		log.ActorUserID,
		log.Action,
		log.ResourceKind,
		log.ResourceID,
		log.AdAccountID,
		nullableJSON(log.Details),
		log.RequestID,
		log.Timestamp,
		log.LatencyMs,
		log.StatusCode,
		log.ErrorMessage,
	)

	if err != nil {
		return fmt.Errorf("failed to insert audit log: %w", err)
	}

	r.logger.Debug("audit log inserted",
		zap.String("id", log.ID.String()),
		zap.String("action", string(log.Action)))
	return nil
}

// GetByID retrieves an audit log by ID
func (r *AuditRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.AuditLog, error) {
	query := auditSelectColumns + `
		FROM audit_logs
		WHERE id = $1
	`

	executor := executorFor(ctx, r.db, r.tx)
	log := &models.AuditLog{}

	err := executor.QueryRowContext(ctx, query, id).Scan(auditScanTargets(log)...)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("audit log not found: %s", id)
		}
		return nil, fmt.Errorf("failed to get audit log: %w", err)
	}

	return log, nil
}

// GetByTenantID retrieves audit logs for a tenant with pagination
func (r *AuditRepository) GetByTenantID(ctx context.Context, tenantID string, limit, offset int) ([]*models.AuditLog, error) {
	query := auditSelectColumns + `
		FROM audit_logs
		WHERE tenant_id = $1
		ORDER BY timestamp DESC
		LIMIT $2 OFFSET $3
	`
	return r.queryAuditLogs(ctx, query, tenantID, limit, offset)
}

// GetByDateRange retrieves audit logs within a date range
func (r *AuditRepository) GetByDateRange(ctx context.Context, tenantID string, start, end time.Time, limit, offset int) ([]*models.AuditLog, error) {
	query := auditSelectColumns + `
		FROM audit_logs
		WHERE tenant_id = $1 AND timestamp >= $2 AND timestamp <= $3
		ORDER BY timestamp DESC
		LIMIT $4 OFFSET $5
	`
	return r.queryAuditLogs(ctx, query, tenantID, start, end, limit, offset)
}

// GetByAction retrieves audit logs by action type
func (r *AuditRepository) GetByAction(ctx context.Context, tenantID string, action models.AuditAction, limit, offset int) ([]*models.AuditLog, error) {
	query := auditSelectColumns + `
		FROM audit_logs
		WHERE tenant_id = $1 AND action = $2
		ORDER BY timestamp DESC
		LIMIT $3 OFFSET $4
	`
	return r.queryAuditLogs(ctx, query, tenantID, string(action), limit, offset)
}

// GetByRequestID retrieves audit logs by request ID
func (r *AuditRepository) GetByRequestID(ctx context.Context, requestID string) ([]*models.AuditLog, error) {
	query := auditSelectColumns + `
		FROM audit_logs
		WHERE request_id = $1
		ORDER BY timestamp ASC
	`
	return r.queryAuditLogs(ctx, query, requestID)
}

// WithTx returns a new repository instance bound to the transaction
func (r *AuditRepository) WithTx(tx repositories.Transaction) repositories.AuditRepository {
	return &AuditRepository{
		db:     r.db,
		tx:     tx,
		logger: r.logger,
	}
}

// queryAuditLogs is a helper method to query multiple audit logs
func (r *AuditRepository) queryAuditLogs(ctx context.Context, query string, args ...interface{}) ([]*models.AuditLog, error) {
	executor := executorFor(ctx, r.db, r.tx)
	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query audit logs: %w", err)
	}
	defer rows.Close()

	var logs []*models.AuditLog
	for rows.Next() {
		log := &models.AuditLog{}
		if err := rows.Scan(auditScanTargets(log)...); err != nil {
			return nil, fmt.Errorf("failed to scan audit log: %w", err)
		}
		logs = append(logs, log)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate audit logs: %w", err)
	}

	return logs, nil
}

const auditSelectColumns = `
		SELECT id, tenant_id, actor_user_id, action, resource_kind, resource_id,
		       ad_account_id, details, request_id, timestamp,
		       latency_ms, status_code, error_message`

func auditScanTargets(log *models.AuditLog) []interface{} {
	return []interface{}{
		&log.ID,
		&log.TenantID,
		&log.ActorUserID,
		&log.Action,
		&log.ResourceKind,
		&log.ResourceID,
		&log.AdAccountID,
		&log.Details,
		&log.RequestID,
		&log.Timestamp,
		&log.LatencyMs,
		&log.StatusCode,
		&log.ErrorMessage,
	}
}

// nullableJSON maps empty details to NULL instead of an invalid empty jsonb
func nullableJSON(raw []byte) interface{} {
	if len(raw) == 0 {
		return nil
	}
	return raw
}
