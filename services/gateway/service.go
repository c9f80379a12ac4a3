package gateway

import (
	"context"
	"fmt"
	"net/url"

	"github.com/adplane/ads-control-plane/models"
	"github.com/adplane/ads-control-plane/repositories"
	"github.com/adplane/ads-control-plane/services"
	"github.com/adplane/ads-control-plane/services/compliance"
	"github.com/adplane/ads-control-plane/services/graph"
	"github.com/adplane/ads-control-plane/services/isolation"
	"github.com/adplane/ads-control-plane/services/pages"
	"github.com/adplane/ads-control-plane/services/policy"
	"github.com/adplane/ads-control-plane/services/registry"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// Field lists requested from the platform per object type
const (
	campaignFields = "id,name,status,effective_status,objective,daily_budget,lifetime_budget,special_ad_categories,created_time,updated_time"
	adsetFields    = "id,name,campaign_id,status,effective_status,daily_budget,lifetime_budget,optimization_goal,billing_event,targeting,dsa_beneficiary,dsa_payor,start_time,end_time"
	adFields       = "id,name,adset_id,status,effective_status,creative{id,name,page_id,object_story_spec}"
	accountFields  = "id,account_id,name,currency,timezone_name,account_status,business{id,name,verification_status}"
	pageFields     = "id,name,category,verification_status"
	insightsFields = "date_start,date_stop,impressions,clicks,spend,reach,ctr,cpc"
)

// ProtocolClient is the slice of the platform client the gateway drives
type ProtocolClient interface {
	Get(ctx context.Context, tenantID, path, accountID string, query url.Values) (*graph.Response, error)
	Post(ctx context.Context, tenantID, path, accountID string, body map[string]interface{}) (*graph.Response, error)
	Delete(ctx context.Context, tenantID, path, accountID string) (*graph.Response, error)
}

// AuditSink receives the gateway's fire-and-forget audit events
type AuditSink interface {
	LogMutation(rc models.RequestContext, requestID string, action models.AuditAction, kind models.ResourceKind, resourceID string, details interface{}) error
	LogIsolationRejected(rc models.RequestContext, requestID string, kind models.ResourceKind, resourceID, reason string) error
	LogPolicyRejected(rc models.RequestContext, requestID string, kind models.ResourceKind, reason string, details interface{}) error
	LogAssetsSynced(rc models.RequestContext, requestID string, accountCount, pageCount int) error
	LogDefaultPageSet(rc models.RequestContext, requestID, adAccountID, pageID string) error
	LogDsaUpdated(rc models.RequestContext, requestID, adAccountID string, source models.DsaSource) error
}

// Service orchestrates every gateway operation as a pipeline: isolation
// gate, policy engine for writes, compliance for EU-targeted writes, then
// the protocol client. Mutations emit audit events after the platform call
// returns.
type Service struct {
	registry   *registry.Service
	gate       *isolation.Gate
	policy     *policy.Engine
	compliance *compliance.Service
	pages      *pages.Service
	protocol   ProtocolClient
	assets     repositories.AssetRepository
	txManager  repositories.TransactionManager
	audit      AuditSink
	logger     *zap.Logger
}

// NewService creates a new gateway service with all pipeline dependencies
func NewService(
	reg *registry.Service,
	gate *isolation.Gate,
	engine *policy.Engine,
	comp *compliance.Service,
	pageResolver *pages.Service,
	protocol ProtocolClient,
	assets repositories.AssetRepository,
	txManager repositories.TransactionManager,
	auditSink AuditSink,
	logger *zap.Logger,
) *Service {
	return &Service{
		registry:   reg,
		gate:       gate,
		policy:     engine,
		compliance: comp,
		pages:      pageResolver,
		protocol:   protocol,
		assets:     assets,
		txManager:  txManager,
		audit:      auditSink,
		logger:     logger,
	}
}

// authorize runs the isolation gate and audits a rejection
func (s *Service) authorize(ctx context.Context, rc models.RequestContext, kind models.ResourceKind, query url.Values, body map[string]interface{}) error {
	err := s.gate.Authorize(ctx, rc, query, body)
	if err == nil {
		return nil
	}
	if services.IsIsolationError(err) {
		details := services.GetErrorDetails(err)
		resourceID, _ := details["resource_id"].(string)
		s.emitAudit(func() error {
			return s.audit.LogIsolationRejected(rc, chimiddleware.GetReqID(ctx), kind, resourceID, err.Error())
		})
	}
	return err
}

// evaluateMutation runs the policy engine and audits a rejection. The
// mutation-window entry is recorded separately, once the write proceeds.
func (s *Service) evaluateMutation(ctx context.Context, rc models.RequestContext, input policy.MutationInput) ([]policy.Warning, error) {
	evaluation, err := s.policy.Evaluate(ctx, input)
	if err != nil {
		if services.IsRateLimitError(err) || services.IsPolicyViolationError(err) {
			s.emitAudit(func() error {
				return s.audit.LogPolicyRejected(rc, chimiddleware.GetReqID(ctx), input.Kind, err.Error(), services.GetErrorDetails(err))
			})
		}
		return nil, err
	}
	return evaluation.Warnings, nil
}

// recordMutation counts the write against the tenant's sliding window.
// Called once per mutation, after every check passed and immediately
// before the platform call.
func (s *Service) recordMutation(ctx context.Context, tenantID string) {
	if err := s.policy.Record(ctx, tenantID); err != nil {
		s.logger.Error("failed to record mutation-window entry",
			zap.String("tenant_id", tenantID),
			zap.Error(err))
	}
}

// ensureDisclosure injects the account's DSA disclosure into an EU-targeted
// ad set write. Explicit disclosure fields on the body are respected.
func (s *Service) ensureDisclosure(ctx context.Context, rc models.RequestContext, adAccountID string, targeting *models.TargetingSpec, body map[string]interface{}) (*models.DsaSettings, error) {
	if !compliance.IsEUTargeted(targeting) {
		return nil, nil
	}
	if beneficiary, _ := body["dsa_beneficiary"].(string); beneficiary != "" {
		if payor, _ := body["dsa_payor"].(string); payor != "" {
			return nil, nil
		}
	}

	settings, err := s.compliance.EnsureForAdAccount(ctx, rc, adAccountID)
	if err != nil {
		return nil, err
	}

	body["dsa_beneficiary"] = settings.Beneficiary
	body["dsa_payor"] = settings.Payor
	return settings, nil
}

// owningAccount finds the ad account behind an object-path call so the
// request rides that account's queue lane. Resolution failures degrade to
// an unqueued call rather than failing the request.
func (s *Service) owningAccount(ctx context.Context, rc models.RequestContext, kind models.ResourceKind, objectID string) string {
	if rc.AdAccountID != "" {
		return rc.AdAccountID
	}
	accountID, err := s.gate.OwningAccount(ctx, rc.TenantID, kind, objectID)
	if err != nil {
		s.logger.Debug("owning account unresolved",
			zap.String("resource_kind", string(kind)),
			zap.String("resource_id", objectID),
			zap.Error(err))
		return ""
	}
	return accountID
}

// emitAudit fires an audit event without letting a full buffer or a stopped
// sink affect the request
func (s *Service) emitAudit(emit func() error) {
	if s.audit == nil {
		return
	}
	if err := emit(); err != nil {
		s.logger.Debug("audit event dropped", zap.Error(err))
	}
}

func (s *Service) auditMutation(ctx context.Context, rc models.RequestContext, action models.AuditAction, kind models.ResourceKind, resourceID string, details interface{}) {
	s.emitAudit(func() error {
		return s.audit.LogMutation(rc, chimiddleware.GetReqID(ctx), action, kind, resourceID, details)
	})
}

// idRef is the platform's minimal create response
type idRef struct {
	ID string `json:"id"`
}

// copyRef is the platform's response on the /copies edge; the populated
// key depends on the copied object type
type copyRef struct {
	ID               string `json:"id"`
	CopiedCampaignID string `json:"copied_campaign_id"`
	CopiedAdSetID    string `json:"copied_adset_id"`
	CopiedAdID       string `json:"copied_ad_id"`
}

func (r copyRef) resolved() string {
	for _, id := range []string{r.CopiedCampaignID, r.CopiedAdSetID, r.CopiedAdID, r.ID} {
		if id != "" {
			return id
		}
	}
	return ""
}

func decodeCreated(resp *graph.Response, object string) (string, error) {
	var ref idRef
	if err := resp.Decode(&ref); err != nil {
		return "", services.WrapExternal(fmt.Sprintf("unreadable %s create response", object), err)
	}
	if ref.ID == "" {
		return "", services.WrapExternal(fmt.Sprintf("platform returned no id for created %s", object), nil)
	}
	return ref.ID, nil
}

func decodeCopied(resp *graph.Response, object string) (string, error) {
	var ref copyRef
	if err := resp.Decode(&ref); err != nil {
		return "", services.WrapExternal(fmt.Sprintf("unreadable %s copy response", object), err)
	}
	id := ref.resolved()
	if id == "" {
		return "", services.WrapExternal(fmt.Sprintf("platform returned no id for copied %s", object), nil)
	}
	return id, nil
}

// listQuery builds the common query for a list call
func listQuery(fields string, params ListParams) url.Values {
	q := url.Values{}
	q.Set("fields", fields)
	if params.Limit > 0 {
		q.Set("limit", fmt.Sprintf("%d", params.Limit))
	}
	params.StatusFilter.Apply(q)
	return q
}

// insightsQuery builds the query for an insights call
func insightsQuery(params InsightsParams) (url.Values, error) {
	q := url.Values{}
	q.Set("fields", insightsFields)
	if params.DatePreset != "" {
		if !params.DatePreset.IsValid() {
			return nil, services.NewDomainError(services.ErrorTypeValidation, services.CodeValidation,
				fmt.Sprintf("unknown date preset %q", params.DatePreset), nil).
				WithDetail("date_preset", string(params.DatePreset))
		}
		q.Set("date_preset", string(params.DatePreset))
	}
	if params.Limit > 0 {
		q.Set("limit", fmt.Sprintf("%d", params.Limit))
	}
	return q, nil
}
