package isolation

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/adplane/ads-control-plane/models"
	"github.com/adplane/ads-control-plane/services"
	"github.com/adplane/ads-control-plane/services/graph"
	"github.com/adplane/ads-control-plane/services/registry"
	"go.uber.org/zap"
)

const (
	ownershipCacheSize = 4096
	ownershipCacheTTL  = 15 * time.Minute
)

// ProtocolReader is the slice of the platform client the gate needs for
// ownership lookups
type ProtocolReader interface {
	Get(ctx context.Context, tenantID, path, accountID string, query url.Values) (*graph.Response, error)
}

// Gate enforces tenant isolation. Every resource id a request touches,
// whether in the path, the query, or anywhere in the body, must belong to
// the calling tenant. The gate fails closed: an id it cannot attribute to
// the tenant's allow-list rejects the request.
type Gate struct {
	registry *registry.Service
	protocol ProtocolReader
	cache    *ownershipCache
	logger   *zap.Logger
}

// NewGate creates a new isolation Gate instance
func NewGate(registry *registry.Service, protocol ProtocolReader, logger *zap.Logger) *Gate {
	return &Gate{
		registry: registry,
		protocol: protocol,
		cache:    newOwnershipCache(ownershipCacheSize, ownershipCacheTTL),
		logger:   logger,
	}
}

// Authorize checks every id the request references against the tenant's
// allow-lists. Campaign, ad set, and ad ids are first resolved to their
// owning ad account. The first foreign id fails the whole request.
// Platform admins bypass the gate entirely.
func (g *Gate) Authorize(ctx context.Context, reqCtx models.RequestContext, query url.Values, body map[string]interface{}) error {
	if reqCtx.IsPlatformAdmin {
		g.logger.Debug("isolation gate bypassed for platform admin",
			zap.String("tenant_id", reqCtx.TenantID),
			zap.String("actor_user_id", reqCtx.ActorUserID))
		return nil
	}

	if _, err := g.registry.Tenant(reqCtx.TenantID); err != nil {
		return services.NewDomainError(
			services.ErrorTypeIsolation,
			services.CodeTenantIsolation,
			fmt.Sprintf("tenant %q is not registered", reqCtx.TenantID),
			err,
		)
	}

	ids := collectIDs(reqCtx, query, body)

	for _, id := range ids {
		if err := g.check(ctx, reqCtx.TenantID, id); err != nil {
			g.logger.Warn("isolation gate rejected request",
				zap.String("tenant_id", reqCtx.TenantID),
				zap.String("resource_kind", string(id.Kind)),
				zap.String("resource_id", id.Value),
				zap.String("origin", id.Origin))
			return err
		}
	}

	return nil
}

// collectIDs merges the explicit ids on the request context (path
// parameters) with everything extracted from query and body
func collectIDs(reqCtx models.RequestContext, query url.Values, body map[string]interface{}) []ExtractedID {
	var ids []ExtractedID
	for kind, value := range reqCtx.ExplicitIDs() {
		ids = append(ids, ExtractedID{Kind: kind, Value: value, Origin: "path"})
	}
	return append(ids, ExtractIDs(query, body)...)
}

func (g *Gate) check(ctx context.Context, tenantID string, id ExtractedID) error {
	switch id.Kind {
	case models.ResourceKindAccount:
		if !g.registry.AccountAllowed(tenantID, id.Value) {
			return isolationError(tenantID, id)
		}
	case models.ResourceKindPage:
		if !g.registry.PageAllowed(tenantID, id.Value) {
			return isolationError(tenantID, id)
		}
	default:
		accountID, err := g.resolveOwner(ctx, tenantID, id)
		if err != nil {
			return err
		}
		if !g.registry.AccountAllowed(tenantID, accountID) {
			return isolationError(tenantID, id)
		}
	}
	return nil
}

// OwningAccount resolves which ad account owns the object, reusing the
// gate's ownership cache. Callers use it to key per-account queueing for
// object-path requests.
func (g *Gate) OwningAccount(ctx context.Context, tenantID string, kind models.ResourceKind, objectID string) (string, error) {
	return g.resolveOwner(ctx, tenantID, ExtractedID{Kind: kind, Value: objectID, Origin: "path"})
}

// resolveOwner asks the platform which ad account owns the object. The
// lookup goes straight to the protocol client and is itself exempt from
// the gate: routing it back through Authorize would recurse on the ids in
// its own response.
func (g *Gate) resolveOwner(ctx context.Context, tenantID string, id ExtractedID) (string, error) {
	cacheKey := string(id.Kind) + ":" + id.Value
	if accountID, ok := g.cache.get(cacheKey); ok {
		return accountID, nil
	}

	query := url.Values{}
	query.Set("fields", "account_id")

	resp, err := g.protocol.Get(ctx, tenantID, "/"+id.Value, "", query)
	if err != nil {
		return "", err
	}

	var payload struct {
		ID        string `json:"id"`
		AccountID string `json:"account_id"`
	}
	if err := resp.Decode(&payload); err != nil {
		return "", services.WrapExternal(fmt.Sprintf("unreadable ownership response for %s %s", id.Kind, id.Value), err)
	}
	if payload.AccountID == "" {
		return "", services.WrapExternal(fmt.Sprintf("platform reported no owning ad account for %s %s", id.Kind, id.Value), nil)
	}

	accountID := models.NormalizeAccountID(payload.AccountID)
	g.cache.set(cacheKey, accountID)

	return accountID, nil
}

func isolationError(tenantID string, id ExtractedID) error {
	return services.NewDomainError(
		services.ErrorTypeIsolation,
		services.CodeTenantIsolation,
		fmt.Sprintf("%s %s does not belong to tenant %q", id.Kind, id.Value, tenantID),
		nil,
	).WithDetail("resource_kind", string(id.Kind)).
		WithDetail("resource_id", id.Value).
		WithDetail("origin", id.Origin)
}
