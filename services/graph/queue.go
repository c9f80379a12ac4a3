package graph

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/adplane/ads-control-plane/models"
	"github.com/adplane/ads-control-plane/services"
	"go.uber.org/zap"
)

// AccountQueue serializes platform calls per ad account. The platform
// tolerates at most one in-flight mutation per account, so every account
// gets a strict FIFO lane. When telemetry reports an account-level
// throttle the lane enters a cooldown and rejects calls until it lifts.
type AccountQueue struct {
	mu     sync.Mutex
	lanes  map[string]*accountLane
	now    func() time.Time
	logger *zap.Logger
}

type accountLane struct {
	mu            sync.Mutex
	tail          chan struct{}
	cooldownUntil time.Time
}

// NewAccountQueue creates a new AccountQueue instance
func NewAccountQueue(logger *zap.Logger) *AccountQueue {
	return &AccountQueue{
		lanes:  make(map[string]*accountLane),
		now:    time.Now,
		logger: logger,
	}
}

// SetClock overrides the queue clock, for tests
func (q *AccountQueue) SetClock(now func() time.Time) {
	q.now = now
}

// Run executes fn in the account's lane, in arrival order. A caller whose
// context is cancelled while waiting gives up its place without breaking
// the chain for entries queued behind it.
func (q *AccountQueue) Run(ctx context.Context, accountID string, fn func(context.Context) (*Response, error)) (*Response, error) {
	lane := q.lane(accountID)

	lane.mu.Lock()
	prev := lane.tail
	turn := make(chan struct{})
	lane.tail = turn
	lane.mu.Unlock()

	if prev != nil {
		select {
		case <-prev:
		case <-ctx.Done():
			go func() {
				<-prev
				close(turn)
			}()
			return nil, ctx.Err()
		}
	}
	defer close(turn)

	if remaining := lane.cooldownRemaining(q.now()); remaining > 0 {
		secs := int((remaining + time.Second - 1) / time.Second)
		return nil, services.NewDomainError(
			services.ErrorTypeCooldown,
			services.CodeAccountCooldown,
			fmt.Sprintf("ad account %s is cooling down after a platform throttle; retry in %ds", accountID, secs),
			nil,
		).WithDetail("ad_account_id", models.NormalizeAccountID(accountID)).
			WithDetail("retry_after_seconds", secs)
	}

	resp, err := fn(ctx)

	if resp != nil {
		if cooldown := resp.Usage.CooldownFor(accountID); cooldown > 0 {
			until := q.now().Add(cooldown)
			lane.setCooldown(until)
			q.logger.Warn("ad account entering cooldown",
				zap.String("ad_account_id", models.NormalizeAccountID(accountID)),
				zap.Duration("cooldown", cooldown))
		}
	}

	return resp, err
}

// CooldownRemaining reports how long the account's lane stays closed, or
// zero when it is open
func (q *AccountQueue) CooldownRemaining(accountID string) time.Duration {
	return q.lane(accountID).cooldownRemaining(q.now())
}

func (q *AccountQueue) lane(accountID string) *accountLane {
	key := models.NormalizeAccountID(accountID)

	q.mu.Lock()
	defer q.mu.Unlock()

	lane, ok := q.lanes[key]
	if !ok {
		lane = &accountLane{}
		q.lanes[key] = lane
	}
	return lane
}

func (l *accountLane) cooldownRemaining(now time.Time) time.Duration {
	l.mu.Lock()
	defer l.mu.Unlock()

	if now.Before(l.cooldownUntil) {
		return l.cooldownUntil.Sub(now)
	}
	return 0
}

func (l *accountLane) setCooldown(until time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if until.After(l.cooldownUntil) {
		l.cooldownUntil = until
	}
}
