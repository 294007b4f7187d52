package quota

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pschneider14/venturelens/internal/domain"
)

type stubStatusAPI struct {
	mu     sync.Mutex
	status *domain.SubscriptionStatus
	err    error
	calls  int
}

func (s *stubStatusAPI) SubscriptionStatus(_ context.Context) (*domain.SubscriptionStatus, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return s.status, nil
}

type recordingSink struct {
	mu     sync.Mutex
	states []domain.AccessState
}

func (r *recordingSink) PublishAccess(state domain.AccessState) {
	r.mu.Lock()
	r.states = append(r.states, state)
	r.mu.Unlock()
}

func (r *recordingSink) last() (domain.AccessState, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.states) == 0 {
		return domain.AccessState{}, false
	}
	return r.states[len(r.states)-1], true
}

func TestNew_StartsWithOptimisticFreeTier(t *testing.T) {
	tracker := New(&stubStatusAPI{}, clockwork.NewFakeClock(), nil)

	state := tracker.State()
	assert.Equal(t, domain.FreeTier, state.Mode)
	assert.Equal(t, DefaultFreeUses, state.FreeUsesRemaining)
}

func TestRefresh_SubscribedOverwritesState(t *testing.T) {
	expiry := time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC)
	api := &stubStatusAPI{status: &domain.SubscriptionStatus{
		SubscriptionActive: true,
		SubscriptionExpiry: &expiry,
	}}
	sink := &recordingSink{}
	tracker := New(api, clockwork.NewFakeClock(), sink)

	state, err := tracker.Refresh(context.Background())

	require.NoError(t, err)
	assert.Equal(t, domain.Subscribed, state.Mode)
	assert.Equal(t, expiry, state.Expiry)

	published, ok := sink.last()
	require.True(t, ok)
	assert.Equal(t, state, published)
}

func TestRefresh_FreeTierTakesServerCount(t *testing.T) {
	api := &stubStatusAPI{status: &domain.SubscriptionStatus{FreeUsesLeft: 1}}
	tracker := New(api, clockwork.NewFakeClock(), nil)

	state, err := tracker.Refresh(context.Background())

	require.NoError(t, err)
	assert.Equal(t, domain.FreeTier, state.Mode)
	assert.Equal(t, 1, state.FreeUsesRemaining)
}

func TestRefresh_FailureKeepsPreviousState(t *testing.T) {
	api := &stubStatusAPI{err: errors.New("backend unreachable")}
	sink := &recordingSink{}
	tracker := New(api, clockwork.NewFakeClock(), sink)

	state, err := tracker.Refresh(context.Background())

	assert.Error(t, err)
	assert.Equal(t, domain.FreeTier, state.Mode)
	assert.Equal(t, DefaultFreeUses, state.FreeUsesRemaining)

	_, published := sink.last()
	assert.False(t, published, "a failed refresh must not publish")
}

func TestOnAccessDenied_ZeroesFreeTierCounter(t *testing.T) {
	sink := &recordingSink{}
	tracker := New(&stubStatusAPI{}, clockwork.NewFakeClock(), sink)

	tracker.OnAccessDenied()

	state := tracker.State()
	assert.Equal(t, 0, state.FreeUsesRemaining)

	published, ok := sink.last()
	require.True(t, ok)
	assert.Equal(t, 0, published.FreeUsesRemaining)
}

func TestOnAccessDenied_LeavesSubscribedStateAlone(t *testing.T) {
	expiry := time.Now().Add(24 * time.Hour)
	api := &stubStatusAPI{status: &domain.SubscriptionStatus{
		SubscriptionActive: true,
		SubscriptionExpiry: &expiry,
	}}
	tracker := New(api, clockwork.NewFakeClock(), nil)
	_, err := tracker.Refresh(context.Background())
	require.NoError(t, err)

	tracker.OnAccessDenied()

	assert.Equal(t, domain.Subscribed, tracker.State().Mode)
}

func TestNoteUsage_DecrementsButNeverBelowZero(t *testing.T) {
	tracker := New(&stubStatusAPI{}, clockwork.NewFakeClock(), nil)

	for i := DefaultFreeUses - 1; i >= 0; i-- {
		tracker.NoteUsage()
		assert.Equal(t, i, tracker.State().FreeUsesRemaining)
	}

	tracker.NoteUsage()
	assert.Equal(t, 0, tracker.State().FreeUsesRemaining)
}

func TestNoteUsage_NoOpWhenSubscribed(t *testing.T) {
	expiry := time.Now().Add(24 * time.Hour)
	api := &stubStatusAPI{status: &domain.SubscriptionStatus{
		SubscriptionActive: true,
		SubscriptionExpiry: &expiry,
	}}
	tracker := New(api, clockwork.NewFakeClock(), nil)
	_, err := tracker.Refresh(context.Background())
	require.NoError(t, err)

	tracker.NoteUsage()

	assert.Equal(t, domain.Subscribed, tracker.State().Mode)
}

func TestRefresh_CorrectsLocalDecrements(t *testing.T) {
	api := &stubStatusAPI{status: &domain.SubscriptionStatus{FreeUsesLeft: 2}}
	tracker := New(api, clockwork.NewFakeClock(), nil)

	tracker.NoteUsage()
	tracker.NoteUsage()
	tracker.NoteUsage()
	require.Equal(t, 0, tracker.State().FreeUsesRemaining)

	state, err := tracker.Refresh(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 2, state.FreeUsesRemaining, "server count replaces local estimate")
}

func TestTimeToExpiry(t *testing.T) {
	now := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)

	t.Run("free tier has no expiry", func(t *testing.T) {
		tracker := New(&stubStatusAPI{}, clockwork.NewFakeClock(), nil)
		_, ok := tracker.TimeToExpiry(now)
		assert.False(t, ok)
	})

	t.Run("active subscription", func(t *testing.T) {
		expiry := now.Add(72 * time.Hour)
		api := &stubStatusAPI{status: &domain.SubscriptionStatus{
			SubscriptionActive: true,
			SubscriptionExpiry: &expiry,
		}}
		tracker := New(api, clockwork.NewFakeClock(), nil)
		_, err := tracker.Refresh(context.Background())
		require.NoError(t, err)

		remaining, ok := tracker.TimeToExpiry(now)
		require.True(t, ok)
		assert.Equal(t, 72*time.Hour, remaining)
	})

	t.Run("expired subscription", func(t *testing.T) {
		expiry := now.Add(-time.Hour)
		api := &stubStatusAPI{status: &domain.SubscriptionStatus{
			SubscriptionActive: true,
			SubscriptionExpiry: &expiry,
		}}
		tracker := New(api, clockwork.NewFakeClock(), nil)
		_, err := tracker.Refresh(context.Background())
		require.NoError(t, err)

		_, ok := tracker.TimeToExpiry(now)
		assert.False(t, ok)
	})
}

func TestPercentElapsed(t *testing.T) {
	now := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)

	newTracker := func(t *testing.T, expiry time.Time) *Tracker {
		t.Helper()
		api := &stubStatusAPI{status: &domain.SubscriptionStatus{
			SubscriptionActive: true,
			SubscriptionExpiry: &expiry,
		}}
		tracker := New(api, clockwork.NewFakeClock(), nil)
		_, err := tracker.Refresh(context.Background())
		require.NoError(t, err)
		return tracker
	}

	t.Run("fresh term", func(t *testing.T) {
		tracker := newTracker(t, now.Add(30*24*time.Hour))
		assert.Equal(t, 0, tracker.PercentElapsed(now))
	})

	t.Run("half elapsed", func(t *testing.T) {
		tracker := newTracker(t, now.Add(15*24*time.Hour))
		assert.Equal(t, 50, tracker.PercentElapsed(now))
	})

	t.Run("not subscribed", func(t *testing.T) {
		tracker := New(&stubStatusAPI{}, clockwork.NewFakeClock(), nil)
		assert.Equal(t, 0, tracker.PercentElapsed(now))
	})
}
