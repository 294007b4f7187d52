// Package quota tracks the user's subscription and free-usage access state.
package quota

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"golang.org/x/sync/singleflight"

	"github.com/pschneider14/venturelens/internal/domain"
	"github.com/pschneider14/venturelens/internal/metrics"
)

const (
	// DefaultFreeUses is the optimistic free-tier allowance assumed before
	// the first authoritative status fetch.
	DefaultFreeUses = 3

	// nominalTerm is the fixed subscription length used only for the
	// percent-elapsed progress display. Not correctness-bearing.
	nominalTerm = 30 * 24 * time.Hour
)

// StatusAPI is the slice of the directory API the tracker needs.
type StatusAPI interface {
	SubscriptionStatus(ctx context.Context) (*domain.SubscriptionStatus, error)
}

// Tracker holds the client-side AccessState. Server signals are authoritative:
// Refresh overwrites the state wholesale and OnAccessDenied forces the
// free-tier counter to zero. Local decrements are a display affordance only.
type Tracker struct {
	api   StatusAPI
	clock clockwork.Clock
	sink  domain.AccessSink

	group singleflight.Group

	mu    sync.Mutex
	state domain.AccessState
}

// New creates a tracker with the optimistic free-tier default. sink may be
// nil. The first Refresh corrects the default from the server.
func New(api StatusAPI, clock clockwork.Clock, sink domain.AccessSink) *Tracker {
	return &Tracker{
		api:   api,
		clock: clock,
		sink:  sink,
		state: domain.AccessState{
			Mode:              domain.FreeTier,
			FreeUsesRemaining: DefaultFreeUses,
		},
	}
}

// Refresh fetches the authoritative status and replaces the local state
// entirely. Failure is non-fatal: the previous state is retained and the
// error is returned alongside it. Concurrent calls share one fetch.
func (t *Tracker) Refresh(ctx context.Context) (domain.AccessState, error) {
	v, err, _ := t.group.Do("status", func() (any, error) {
		return t.api.SubscriptionStatus(ctx)
	})
	if err != nil {
		metrics.StatusRefreshesTotal.WithLabelValues("error").Inc()
		slog.WarnContext(ctx, "Status refresh failed, keeping previous access state", "error", err)
		return t.State(), err
	}
	metrics.StatusRefreshesTotal.WithLabelValues("success").Inc()

	status := v.(*domain.SubscriptionStatus)
	state := stateFromStatus(status)

	t.mu.Lock()
	t.state = state
	t.mu.Unlock()

	t.publish(state)
	return state, nil
}

func stateFromStatus(status *domain.SubscriptionStatus) domain.AccessState {
	if status.SubscriptionActive && status.SubscriptionExpiry != nil {
		return domain.AccessState{
			Mode:   domain.Subscribed,
			Expiry: *status.SubscriptionExpiry,
		}
	}
	return domain.AccessState{
		Mode:              domain.FreeTier,
		FreeUsesRemaining: status.FreeUsesLeft,
	}
}

// OnAccessDenied records a server-side quota rejection. On the free tier the
// remaining counter drops to zero; a later Refresh overwrites it. The tracker
// never retries the rejected request.
func (t *Tracker) OnAccessDenied() {
	metrics.AccessDenialsTotal.Inc()

	t.mu.Lock()
	if t.state.Mode == domain.FreeTier {
		t.state.FreeUsesRemaining = 0
	}
	state := t.state
	t.mu.Unlock()

	t.publish(state)
}

// NoteUsage applies the optimistic local decrement after a successful fetch.
// Cosmetic: the server stays authoritative via Refresh and OnAccessDenied.
func (t *Tracker) NoteUsage() {
	t.mu.Lock()
	if t.state.Mode == domain.FreeTier && t.state.FreeUsesRemaining > 0 {
		t.state.FreeUsesRemaining--
	}
	state := t.state
	t.mu.Unlock()

	t.publish(state)
}

// State returns a copy of the current access state.
func (t *Tracker) State() domain.AccessState {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

// TimeToExpiry returns the remaining subscription time at now. ok is false
// when not subscribed or already expired.
func (t *Tracker) TimeToExpiry(now time.Time) (time.Duration, bool) {
	t.mu.Lock()
	state := t.state
	t.mu.Unlock()

	if state.Mode != domain.Subscribed || state.Expiry.IsZero() {
		return 0, false
	}
	d := state.Expiry.Sub(now)
	if d <= 0 {
		return 0, false
	}
	return d, true
}

// PercentElapsed returns how much of the nominal subscription term has passed
// at now, clamped to [0, 100]. Display only.
func (t *Tracker) PercentElapsed(now time.Time) int {
	remaining, ok := t.TimeToExpiry(now)
	if !ok {
		return 0
	}
	if remaining >= nominalTerm {
		return 0
	}
	pct := int((1 - float64(remaining)/float64(nominalTerm)) * 100)
	if pct > 100 {
		pct = 100
	}
	return pct
}

func (t *Tracker) publish(state domain.AccessState) {
	if t.sink != nil {
		t.sink.PublishAccess(state)
	}
}
