package policy

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/adplane/ads-control-plane/config"
	"github.com/adplane/ads-control-plane/models"
	"github.com/adplane/ads-control-plane/services"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// mutationWindow is the sliding window the per-tenant mutation limit
// applies over
const mutationWindow = time.Hour

// Warning codes for soft policy findings
const (
	WarningEnablingPaused = "ENABLING_PAUSED"
	WarningBudgetIncrease = "BUDGET_INCREASE"
	WarningBroadTargeting = "BROAD_TARGETING"
	WarningDeepCopy       = "DEEP_COPY"
)

// MutationInput describes a write about to be sent to the platform
type MutationInput struct {
	TenantID      string
	Operation     string // e.g. "campaign.create", "adset.update"
	Kind          models.ResourceKind
	Budget        models.MutationBudget
	CurrentBudget models.MutationBudget
	Status        models.ObjectStatus
	CurrentStatus models.ObjectStatus
	Targeting     *models.TargetingSpec
	DeepCopy      bool
}

// Warning is a soft policy finding. In warn mode warnings ride along on
// the successful response; in block mode they reject the mutation.
type Warning struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Evaluation is the outcome of a policy check that did not reject
type Evaluation struct {
	Warnings []Warning
}

// WindowStore counts mutation events per tenant over a sliding window
type WindowStore interface {
	Record(ctx context.Context, tenantID string, at time.Time) error
	Count(ctx context.Context, tenantID string, from, to time.Time) (int, error)
}

// Engine evaluates tenant mutations against the configured guardrails:
// the hourly mutation volume cap, the explicit-budget requirement, the
// budget increase cap, and the soft warning rules.
type Engine struct {
	cfg    config.PolicyConfig
	window WindowStore
	logger *zap.Logger
	now    func() time.Time
}

// NewEngine creates a new policy Engine instance
func NewEngine(cfg config.PolicyConfig, window WindowStore, logger *zap.Logger) *Engine {
	return &Engine{
		cfg:    cfg,
		window: window,
		logger: logger,
		now:    time.Now,
	}
}

// SetClock overrides the engine clock, for tests
func (e *Engine) SetClock(now func() time.Time) {
	e.now = now
}

// Evaluate checks a mutation before it is sent. The volume check runs
// against what is already recorded, never against the mutation under
// evaluation: a rejected request consumes no quota.
func (e *Engine) Evaluate(ctx context.Context, input MutationInput) (*Evaluation, error) {
	if err := e.checkVolume(ctx, input.TenantID); err != nil {
		return nil, err
	}

	if e.requiresExplicitBudget(input.Operation) && input.Budget.IsZero() {
		return nil, services.NewDomainError(
			services.ErrorTypePolicyViolation,
			services.CodePolicyViolation,
			fmt.Sprintf("%s requires an explicit daily_budget or lifetime_budget", input.Operation),
			nil,
		).WithDetail("operation", input.Operation).
			WithRemediation("Set daily_budget or lifetime_budget on the request and resubmit.")
	}

	if err := e.checkBudgetCap("daily_budget", input.CurrentBudget.DailyBudget, input.Budget.DailyBudget); err != nil {
		return nil, err
	}
	if err := e.checkBudgetCap("lifetime_budget", input.CurrentBudget.LifetimeBudget, input.Budget.LifetimeBudget); err != nil {
		return nil, err
	}

	warnings := e.collectWarnings(input)

	if e.cfg.Mode == config.PolicyModeBlock && len(warnings) > 0 {
		codes := make([]string, len(warnings))
		for i, w := range warnings {
			codes[i] = w.Code
		}
		return nil, services.NewDomainError(
			services.ErrorTypePolicyViolation,
			services.CodePolicyViolation,
			fmt.Sprintf("mutation blocked by policy: %s", strings.Join(codes, ", ")),
			nil,
		).WithDetail("warnings", warnings)
	}

	if len(warnings) > 0 {
		e.logger.Info("policy warnings attached to mutation",
			zap.String("tenant_id", input.TenantID),
			zap.String("operation", input.Operation),
			zap.Int("warnings", len(warnings)))
	}

	return &Evaluation{Warnings: warnings}, nil
}

// Record counts a completed mutation against the tenant's window. Called
// only after the platform accepted the write.
func (e *Engine) Record(ctx context.Context, tenantID string) error {
	if err := e.window.Record(ctx, tenantID, e.now()); err != nil {
		return services.WrapInternal("failed to record mutation", err)
	}
	return nil
}

// checkVolume raises when the tenant already used up the hourly budget
func (e *Engine) checkVolume(ctx context.Context, tenantID string) error {
	now := e.now()
	count, err := e.window.Count(ctx, tenantID, now.Add(-mutationWindow), now)
	if err != nil {
		return services.WrapInternal("failed to count mutation window", err)
	}

	if count >= e.cfg.HourlyMutationLimit {
		return services.NewDomainError(
			services.ErrorTypeRateLimit,
			services.CodeMutationRateLimit,
			fmt.Sprintf("tenant %q reached the limit of %d mutations per hour", tenantID, e.cfg.HourlyMutationLimit),
			nil,
		).WithDetail("limit", e.cfg.HourlyMutationLimit).
			WithDetail("window_minutes", int(mutationWindow.Minutes())).
			WithDetail("used", count)
	}

	return nil
}

func (e *Engine) requiresExplicitBudget(operation string) bool {
	for _, op := range e.cfg.ExplicitBudgetOps {
		if op == operation {
			return true
		}
	}
	return false
}

// checkBudgetCap rejects increases beyond the configured percentage.
// Unset sides and decreases pass: the cap only guards raises.
func (e *Engine) checkBudgetCap(field string, current, requested *int64) error {
	if current == nil || requested == nil || *current <= 0 || *requested <= *current {
		return nil
	}

	currentDec := decimal.NewFromInt(*current)
	increasePct := decimal.NewFromInt(*requested).
		Sub(currentDec).
		Div(currentDec).
		Mul(decimal.NewFromInt(100))
	capPct := decimal.NewFromFloat(e.cfg.BudgetIncreaseCapPct)

	if increasePct.GreaterThan(capPct) {
		return services.NewDomainError(
			services.ErrorTypePolicyViolation,
			services.CodePolicyViolation,
			fmt.Sprintf("%s increase of %s%% exceeds the %s%% cap", field, increasePct.StringFixed(1), capPct.StringFixed(0)),
			nil,
		).WithDetail("field", field).
			WithDetail("current", *current).
			WithDetail("requested", *requested).
			WithDetail("cap_pct", e.cfg.BudgetIncreaseCapPct)
	}

	return nil
}

func (e *Engine) collectWarnings(input MutationInput) []Warning {
	var warnings []Warning

	if input.Status == models.StatusActive && input.CurrentStatus == models.StatusPaused {
		warnings = append(warnings, Warning{
			Code:    WarningEnablingPaused,
			Message: fmt.Sprintf("this update re-enables a paused %s", input.Kind),
		})
	}

	if increased, field, pct := budgetIncrease(input.CurrentBudget, input.Budget); increased {
		warnings = append(warnings, Warning{
			Code:    WarningBudgetIncrease,
			Message: fmt.Sprintf("%s raised by %s%%", field, pct.StringFixed(1)),
		})
	}

	if input.Targeting != nil &&
		input.Targeting.AgeSpan() >= e.cfg.BroadTargetingAgeSpan &&
		!input.Targeting.HasNarrowingSignal() {
		warnings = append(warnings, Warning{
			Code:    WarningBroadTargeting,
			Message: fmt.Sprintf("targeting spans %d years of age with no interest, audience, or flexible narrowing", input.Targeting.AgeSpan()),
		})
	}

	if input.DeepCopy {
		warnings = append(warnings, Warning{
			Code:    WarningDeepCopy,
			Message: "deep copy duplicates every object beneath the source",
		})
	}

	return warnings
}

// budgetIncrease reports the largest percentage raise across both budget
// fields, for the soft warning
func budgetIncrease(current, requested models.MutationBudget) (bool, string, decimal.Decimal) {
	increased := false
	field := ""
	maxPct := decimal.Zero

	check := func(name string, cur, req *int64) {
		if cur == nil || req == nil || *cur <= 0 || *req <= *cur {
			return
		}
		curDec := decimal.NewFromInt(*cur)
		pct := decimal.NewFromInt(*req).Sub(curDec).Div(curDec).Mul(decimal.NewFromInt(100))
		if !increased || pct.GreaterThan(maxPct) {
			increased = true
			field = name
			maxPct = pct
		}
	}

	check("daily_budget", current.DailyBudget, requested.DailyBudget)
	check("lifetime_budget", current.LifetimeBudget, requested.LifetimeBudget)

	return increased, field, maxPct
}
