package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// AuditAction represents the type of action being audited
type AuditAction string

const (
	AuditActionCampaignCreated    AuditAction = "campaign_created"
	AuditActionCampaignUpdated    AuditAction = "campaign_updated"
	AuditActionCampaignDuplicated AuditAction = "campaign_duplicated"
	AuditActionAdSetCreated       AuditAction = "adset_created"
	AuditActionAdSetUpdated       AuditAction = "adset_updated"
	AuditActionAdSetDuplicated    AuditAction = "adset_duplicated"
	AuditActionAdCreated          AuditAction = "ad_created"
	AuditActionAdUpdated          AuditAction = "ad_updated"
	AuditActionAdDuplicated       AuditAction = "ad_duplicated"
	AuditActionDefaultPageSet     AuditAction = "default_page_set"
	AuditActionDsaUpdated         AuditAction = "dsa_updated"
	AuditActionAssetsSynced       AuditAction = "assets_synced"
	AuditActionIsolationRejected  AuditAction = "isolation_rejected"
	AuditActionPolicyRejected     AuditAction = "policy_rejected"
)

// AuditLog represents an audit trail entry for a gateway mutation
type AuditLog struct {
	ID           uuid.UUID       `json:"id" db:"id"`
	TenantID     string          `json:"tenant_id" db:"tenant_id"`
	ActorUserID  *string         `json:"actor_user_id,omitempty" db:"actor_user_id"`
	Action       AuditAction     `json:"action" db:"action"`
	ResourceKind string          `json:"resource_kind" db:"resource_kind"`
	ResourceID   *string         `json:"resource_id,omitempty" db:"resource_id"`
	AdAccountID  *string         `json:"ad_account_id,omitempty" db:"ad_account_id"`
	Details      json.RawMessage `json:"details" db:"details"`
	RequestID    string          `json:"request_id" db:"request_id"`
	Timestamp    time.Time       `json:"timestamp" db:"timestamp"`
	LatencyMs    *int            `json:"latency_ms,omitempty" db:"latency_ms"`
	StatusCode   *int            `json:"status_code,omitempty" db:"status_code"`
	ErrorMessage *string         `json:"error_message,omitempty" db:"error_message"`
}

// TableName returns the table name for the AuditLog model
func (AuditLog) TableName() string {
	return "audit_logs"
}

// NewAuditLog creates a new AuditLog instance
func NewAuditLog(tenantID string, action AuditAction, resourceKind ResourceKind) *AuditLog {
	return &AuditLog{
		ID:           uuid.New(),
		TenantID:     tenantID,
		Action:       action,
		ResourceKind: string(resourceKind),
		Timestamp:    time.Now(),
	}
}

// WithActor sets the acting user id
func (a *AuditLog) WithActor(actorUserID string) *AuditLog {
	if actorUserID != "" {
		a.ActorUserID = &actorUserID
	}
	return a
}

// WithResource sets the external resource id
func (a *AuditLog) WithResource(resourceID string) *AuditLog {
	if resourceID != "" {
		a.ResourceID = &resourceID
	}
	return a
}

// WithAdAccount sets the ad account id
func (a *AuditLog) WithAdAccount(adAccountID string) *AuditLog {
	if adAccountID != "" {
		normalized := NormalizeAccountID(adAccountID)
		a.AdAccountID = &normalized
	}
	return a
}

// WithDetails sets the details
func (a *AuditLog) WithDetails(details interface{}) *AuditLog {
	if data, err := json.Marshal(details); err == nil {
		a.Details = data
	}
	return a
}

// WithRequestID sets the request correlation id
func (a *AuditLog) WithRequestID(requestID string) *AuditLog {
	a.RequestID = requestID
	return a
}

// WithOutcome sets call outcome metrics
func (a *AuditLog) WithOutcome(statusCode, latencyMs int) *AuditLog {
	a.StatusCode = &statusCode
	a.LatencyMs = &latencyMs
	return a
}

// WithError sets error information
func (a *AuditLog) WithError(errorMessage string) *AuditLog {
	if errorMessage != "" {
		a.ErrorMessage = &errorMessage
	}
	return a
}
