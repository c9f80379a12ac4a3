package gateway

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"testing"

	"github.com/adplane/ads-control-plane/config"
	"github.com/adplane/ads-control-plane/models"
	"github.com/adplane/ads-control-plane/services"
	"github.com/adplane/ads-control-plane/services/compliance"
	"github.com/adplane/ads-control-plane/services/graph"
	"github.com/adplane/ads-control-plane/services/isolation"
	"github.com/adplane/ads-control-plane/services/pages"
	"github.com/adplane/ads-control-plane/services/policy"
	"github.com/adplane/ads-control-plane/services/registry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

// fakeProtocol replays canned platform responses keyed by "METHOD path"
// and records every call the pipeline lets through
type protocolCall struct {
	method string
	path   string
	body   map[string]interface{}
}

type fakeProtocol struct {
	mu      sync.Mutex
	calls   []protocolCall
	replies map[string]string
}

func (f *fakeProtocol) reply(method, path string) (*graph.Response, error) {
	body, ok := f.replies[method+" "+path]
	if !ok {
		body = `{"id":"9001"}`
	}
	return &graph.Response{StatusCode: http.StatusOK, Body: []byte(body)}, nil
}

func (f *fakeProtocol) Get(_ context.Context, _, path, _ string, _ url.Values) (*graph.Response, error) {
	f.mu.Lock()
	f.calls = append(f.calls, protocolCall{method: "GET", path: path})
	f.mu.Unlock()
	return f.reply("GET", path)
}

func (f *fakeProtocol) Post(_ context.Context, _, path, _ string, body map[string]interface{}) (*graph.Response, error) {
	f.mu.Lock()
	f.calls = append(f.calls, protocolCall{method: "POST", path: path, body: body})
	f.mu.Unlock()
	return f.reply("POST", path)
}

func (f *fakeProtocol) Delete(_ context.Context, _, path, _ string) (*graph.Response, error) {
	f.mu.Lock()
	f.calls = append(f.calls, protocolCall{method: "DELETE", path: path})
	f.mu.Unlock()
	return f.reply("DELETE", path)
}

func (f *fakeProtocol) count(method string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		if c.method == method {
			n++
		}
	}
	return n
}

func (f *fakeProtocol) lastBody(method, path string) map[string]interface{} {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := len(f.calls) - 1; i >= 0; i-- {
		if f.calls[i].method == method && f.calls[i].path == path {
			return f.calls[i].body
		}
	}
	return nil
}

// fakeAuditSink counts the events the pipeline emits
type fakeAuditSink struct {
	mu                  sync.Mutex
	mutations           []models.AuditAction
	isolationRejections int
	policyRejections    int
}

func (f *fakeAuditSink) LogMutation(_ models.RequestContext, _ string, action models.AuditAction, _ models.ResourceKind, _ string, _ interface{}) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.mutations = append(f.mutations, action)
	return nil
}

func (f *fakeAuditSink) LogIsolationRejected(models.RequestContext, string, models.ResourceKind, string, string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.isolationRejections++
	return nil
}

func (f *fakeAuditSink) LogPolicyRejected(models.RequestContext, string, models.ResourceKind, string, interface{}) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.policyRejections++
	return nil
}

func (f *fakeAuditSink) LogAssetsSynced(models.RequestContext, string, int, int) error { return nil }
func (f *fakeAuditSink) LogDefaultPageSet(models.RequestContext, string, string, string) error {
	return nil
}
func (f *fakeAuditSink) LogDsaUpdated(models.RequestContext, string, string, models.DsaSource) error {
	return nil
}

// fakeDsaStore keeps disclosure rows in memory
type fakeDsaStore struct {
	mu   sync.Mutex
	rows map[string]*models.DsaSettings
	puts int
}

func dsaKey(tenantID, adAccountID string) string {
	return tenantID + "|" + models.NormalizeAccountID(adAccountID)
}

func (f *fakeDsaStore) GetDsaSettings(_ context.Context, tenantID, adAccountID string) (*models.DsaSettings, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.rows[dsaKey(tenantID, adAccountID)], nil
}

func (f *fakeDsaStore) PutDsaSettings(_ context.Context, settings *models.DsaSettings) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.rows == nil {
		f.rows = map[string]*models.DsaSettings{}
	}
	f.rows[dsaKey(settings.TenantID, settings.AdAccountID)] = settings
	f.puts++
	return nil
}

type fakeSelectionStore struct{}

func (fakeSelectionStore) GetPageSelection(context.Context, string, string) (*models.PageSelection, error) {
	return nil, nil
}
func (fakeSelectionStore) PutPageSelection(context.Context, *models.PageSelection) error { return nil }

type fakePageDirectory struct{}

func (fakePageDirectory) TenantPages(context.Context, string) ([]models.PageInfo, error) {
	return nil, nil
}
func (fakePageDirectory) ConfirmPage(context.Context, string, string) error { return nil }

type gatewayHarness struct {
	svc      *Service
	protocol *fakeProtocol
	audit    *fakeAuditSink
	dsa      *fakeDsaStore
}

func warnPolicy() config.PolicyConfig {
	return config.PolicyConfig{
		Mode:                  config.PolicyModeWarn,
		HourlyMutationLimit:   10,
		BudgetIncreaseCapPct:  100,
		BroadTargetingAgeSpan: 40,
		ExplicitBudgetOps:     []string{"adset.create"},
	}
}

func newGatewayHarness(t *testing.T, policyCfg config.PolicyConfig) *gatewayHarness {
	t.Helper()
	logger := zaptest.NewLogger(t)

	reg, err := registry.NewService([]models.TenantConfig{
		{
			TenantID:            "acme",
			DisplayName:         "Acme Media",
			AllowedAdAccountIDs: []string{"act_123"},
			AllowedPageIDs:      []string{"501"},
			CredentialRef:       "shared",
		},
		{
			TenantID:            "barebones",
			AllowedAdAccountIDs: []string{"act_777"},
			CredentialRef:       "shared",
		},
	}, logger)
	require.NoError(t, err)

	protocol := &fakeProtocol{replies: map[string]string{
		"GET /601": `{"id":"601","account_id":"act_123","status":"PAUSED","daily_budget":"1000"}`,
	}}
	dsaStore := &fakeDsaStore{}

	gate := isolation.NewGate(reg, protocol, logger)
	engine := policy.NewEngine(policyCfg, policy.NewMemoryStore(100), logger)
	comp := compliance.NewService(reg, dsaStore, protocol, logger)
	pageSvc := pages.NewService(reg, fakeSelectionStore{}, fakePageDirectory{}, logger)
	auditSink := &fakeAuditSink{}

	return &gatewayHarness{
		svc:      NewService(reg, gate, engine, comp, pageSvc, protocol, nil, nil, auditSink, logger),
		protocol: protocol,
		audit:    auditSink,
		dsa:      dsaStore,
	}
}

func acmeContext() models.RequestContext {
	return models.RequestContext{TenantID: "acme", ActorUserID: "user-1"}
}

func TestCreateCampaign(t *testing.T) {
	ctx := context.Background()

	t.Run("foreign account never reaches the platform", func(t *testing.T) {
		h := newGatewayHarness(t, warnPolicy())

		_, err := h.svc.CreateCampaign(ctx, acmeContext(), "act_999", CreateCampaignInput{
			Name:      "Spring",
			Objective: "OUTCOME_TRAFFIC",
		})

		require.Error(t, err)
		assert.True(t, services.IsIsolationError(err))
		assert.Zero(t, len(h.protocol.calls), "an isolation rejection must not touch the platform")
		assert.Equal(t, 1, h.audit.isolationRejections)
	})

	t.Run("create posts to the account edge", func(t *testing.T) {
		h := newGatewayHarness(t, warnPolicy())

		result, err := h.svc.CreateCampaign(ctx, acmeContext(), "act_123", CreateCampaignInput{
			Name:      "Spring",
			Objective: "OUTCOME_TRAFFIC",
		})

		require.NoError(t, err)
		assert.Equal(t, "9001", result.Campaign.ID)
		assert.Equal(t, "Spring", result.Campaign.Name)

		body := h.protocol.lastBody("POST", "/act_123/campaigns")
		require.NotNil(t, body)
		assert.Equal(t, []string{"NONE"}, body["special_ad_categories"], "undeclared categories default to NONE")

		require.Len(t, h.audit.mutations, 1)
		assert.Equal(t, models.AuditActionCampaignCreated, h.audit.mutations[0])
	})
}

func TestMutationRateLimit(t *testing.T) {
	ctx := context.Background()
	cfg := warnPolicy()
	cfg.HourlyMutationLimit = 1
	h := newGatewayHarness(t, cfg)

	input := CreateCampaignInput{Name: "First", Objective: "OUTCOME_TRAFFIC"}
	_, err := h.svc.CreateCampaign(ctx, acmeContext(), "act_123", input)
	require.NoError(t, err)

	_, err = h.svc.CreateCampaign(ctx, acmeContext(), "act_123", input)
	require.Error(t, err)
	assert.True(t, services.IsRateLimitError(err))
	assert.Equal(t, 1, h.protocol.count("POST"), "the rejected mutation must not reach the platform")
	assert.Equal(t, 1, h.audit.policyRejections)
}

func TestUpdateCampaignBudgetCap(t *testing.T) {
	ctx := context.Background()
	budget := func(v int64) *int64 { return &v }

	t.Run("raise beyond the cap is rejected", func(t *testing.T) {
		h := newGatewayHarness(t, warnPolicy())

		_, err := h.svc.UpdateCampaign(ctx, acmeContext(), "601", UpdateCampaignInput{
			DailyBudget: budget(5000),
		})

		require.Error(t, err)
		assert.True(t, services.IsPolicyViolationError(err))
		assert.Contains(t, err.Error(), "daily_budget")
		assert.Zero(t, h.protocol.count("POST"))
	})

	t.Run("raise within the cap passes with a warning", func(t *testing.T) {
		h := newGatewayHarness(t, warnPolicy())

		result, err := h.svc.UpdateCampaign(ctx, acmeContext(), "601", UpdateCampaignInput{
			DailyBudget: budget(1500),
		})

		require.NoError(t, err)
		require.Len(t, result.Warnings, 1)
		assert.Equal(t, policy.WarningBudgetIncrease, result.Warnings[0].Code)
		assert.Equal(t, 1, h.protocol.count("POST"))
	})

	t.Run("re-enabling a paused campaign warns", func(t *testing.T) {
		h := newGatewayHarness(t, warnPolicy())

		result, err := h.svc.UpdateCampaign(ctx, acmeContext(), "601", UpdateCampaignInput{
			Status: models.StatusActive,
		})

		require.NoError(t, err)
		require.Len(t, result.Warnings, 1)
		assert.Equal(t, policy.WarningEnablingPaused, result.Warnings[0].Code)
	})

	t.Run("block mode turns the warning into a rejection", func(t *testing.T) {
		cfg := warnPolicy()
		cfg.Mode = config.PolicyModeBlock
		h := newGatewayHarness(t, cfg)

		_, err := h.svc.UpdateCampaign(ctx, acmeContext(), "601", UpdateCampaignInput{
			Status: models.StatusActive,
		})

		require.Error(t, err)
		assert.True(t, services.IsPolicyViolationError(err))
		assert.Contains(t, err.Error(), policy.WarningEnablingPaused)
		assert.Zero(t, h.protocol.count("POST"))
	})
}

func TestCreateAdSetDisclosure(t *testing.T) {
	ctx := context.Background()
	budget := func(v int64) *int64 { return &v }
	euTargeting := &models.TargetingSpec{
		GeoLocations: &models.GeoLocations{Countries: []string{"DE"}},
		AgeMin:       25,
		AgeMax:       45,
	}

	t.Run("persisted settings are injected into the write", func(t *testing.T) {
		h := newGatewayHarness(t, warnPolicy())
		require.NoError(t, h.dsa.PutDsaSettings(ctx,
			models.NewDsaSettings("acme", "act_123", "Acme Media", "Acme Media", models.DsaSourceManual)))

		result, err := h.svc.CreateAdSet(ctx, acmeContext(), "act_123", CreateAdSetInput{
			Name:        "DE prospecting",
			CampaignID:  "601",
			DailyBudget: budget(2000),
			Targeting:   euTargeting,
		})

		require.NoError(t, err)
		assert.Equal(t, "Acme Media", result.AdSet.DsaBeneficiary)
		assert.Equal(t, "Acme Media", result.AdSet.DsaPayor)

		body := h.protocol.lastBody("POST", "/act_123/adsets")
		require.NotNil(t, body)
		assert.Equal(t, "Acme Media", body["dsa_beneficiary"])
		assert.Equal(t, "Acme Media", body["dsa_payor"])
	})

	t.Run("explicit disclosure fields are respected", func(t *testing.T) {
		h := newGatewayHarness(t, warnPolicy())

		_, err := h.svc.CreateAdSet(ctx, acmeContext(), "act_123", CreateAdSetInput{
			Name:           "DE prospecting",
			CampaignID:     "601",
			DailyBudget:    budget(2000),
			Targeting:      euTargeting,
			DsaBeneficiary: "Explicit Brand",
			DsaPayor:       "Explicit Agency",
		})

		require.NoError(t, err)
		body := h.protocol.lastBody("POST", "/act_123/adsets")
		require.NotNil(t, body)
		assert.Equal(t, "Explicit Brand", body["dsa_beneficiary"])
		assert.Equal(t, "Explicit Agency", body["dsa_payor"])
		assert.Zero(t, h.dsa.puts, "explicit fields must not trigger disclosure resolution")
	})

	t.Run("non-EU targeting skips disclosure entirely", func(t *testing.T) {
		h := newGatewayHarness(t, warnPolicy())

		_, err := h.svc.CreateAdSet(ctx, acmeContext(), "act_123", CreateAdSetInput{
			Name:        "US prospecting",
			CampaignID:  "601",
			DailyBudget: budget(2000),
			Targeting: &models.TargetingSpec{
				GeoLocations: &models.GeoLocations{Countries: []string{"US"}},
				AgeMin:       25,
				AgeMax:       45,
			},
		})

		require.NoError(t, err)
		body := h.protocol.lastBody("POST", "/act_123/adsets")
		require.NotNil(t, body)
		assert.NotContains(t, body, "dsa_beneficiary")
		assert.NotContains(t, body, "dsa_payor")
	})

	t.Run("no disclosure source blocks the EU write", func(t *testing.T) {
		h := newGatewayHarness(t, warnPolicy())
		h.protocol.replies["GET /act_777"] = `{"id":"act_777"}`
		h.protocol.replies["GET /602"] = `{"id":"602","account_id":"act_777"}`

		rc := models.RequestContext{TenantID: "barebones", ActorUserID: "user-2"}
		_, err := h.svc.CreateAdSet(ctx, rc, "act_777", CreateAdSetInput{
			Name:        "DE prospecting",
			CampaignID:  "602",
			DailyBudget: budget(2000),
			Targeting:   euTargeting,
		})

		require.Error(t, err)
		assert.True(t, services.IsComplianceError(err))
		assert.NotEmpty(t, services.GetRemediation(err))
		assert.Zero(t, h.protocol.count("POST"), "an EU write without disclosure must never execute")
	})
}

func TestExplicitBudgetRequirement(t *testing.T) {
	ctx := context.Background()
	h := newGatewayHarness(t, warnPolicy())

	_, err := h.svc.CreateAdSet(ctx, acmeContext(), "act_123", CreateAdSetInput{
		Name:       "No budget",
		CampaignID: "601",
	})

	require.Error(t, err)
	assert.True(t, services.IsPolicyViolationError(err))
	assert.True(t, strings.Contains(err.Error(), "daily_budget") || strings.Contains(err.Error(), "explicit"))
	assert.Zero(t, h.protocol.count("POST"))
}

func TestDuplicateCampaign(t *testing.T) {
	ctx := context.Background()

	t.Run("deep copy warns in warn mode", func(t *testing.T) {
		h := newGatewayHarness(t, warnPolicy())
		h.protocol.replies["POST /601/copies"] = `{"copied_campaign_id":"888"}`

		result, err := h.svc.DuplicateCampaign(ctx, acmeContext(), "601", DuplicateInput{DeepCopy: true})

		require.NoError(t, err)
		assert.Equal(t, "888", result.CopiedID)
		require.Len(t, result.Warnings, 1)
		assert.Equal(t, policy.WarningDeepCopy, result.Warnings[0].Code)
	})

	t.Run("deep copy is rejected in block mode", func(t *testing.T) {
		cfg := warnPolicy()
		cfg.Mode = config.PolicyModeBlock
		h := newGatewayHarness(t, cfg)

		_, err := h.svc.DuplicateCampaign(ctx, acmeContext(), "601", DuplicateInput{DeepCopy: true})

		require.Error(t, err)
		assert.True(t, services.IsPolicyViolationError(err))
		assert.Zero(t, h.protocol.count("POST"))
	})
}

func TestPreflightConsumesNoQuota(t *testing.T) {
	ctx := context.Background()
	cfg := warnPolicy()
	cfg.HourlyMutationLimit = 1
	h := newGatewayHarness(t, cfg)

	input := PreflightInput{
		Operation:   "campaign.create",
		AdAccountID: "act_123",
		Body:        map[string]interface{}{"name": "Spring", "objective": "OUTCOME_TRAFFIC"},
	}

	for i := 0; i < 3; i++ {
		result, err := h.svc.Preflight(ctx, acmeContext(), input)
		require.NoError(t, err)
		assert.Equal(t, "campaign.create", result.Operation)
	}

	// The real write still fits in the window: preflights did not count
	_, err := h.svc.CreateCampaign(ctx, acmeContext(), "act_123", CreateCampaignInput{
		Name:      "Spring",
		Objective: "OUTCOME_TRAFFIC",
	})
	require.NoError(t, err)

	_, err = h.svc.CreateCampaign(ctx, acmeContext(), "act_123", CreateCampaignInput{
		Name:      "Summer",
		Objective: "OUTCOME_TRAFFIC",
	})
	assert.True(t, services.IsRateLimitError(err))
}

func TestPreflightUnknownOperation(t *testing.T) {
	h := newGatewayHarness(t, warnPolicy())

	_, err := h.svc.Preflight(context.Background(), acmeContext(), PreflightInput{Operation: "campaign.delete"})

	require.Error(t, err)
	assert.True(t, services.IsValidationError(err))
}
