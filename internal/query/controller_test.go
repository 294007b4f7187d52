package query

import (
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pschneider14/venturelens/internal/domain"
)

type changeRecorder struct {
	mu    sync.Mutex
	count int
}

func (r *changeRecorder) fire() {
	r.mu.Lock()
	r.count++
	r.mu.Unlock()
}

func (r *changeRecorder) calls() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.count
}

func newTestController(t *testing.T) (*Controller, *changeRecorder, *clockwork.FakeClock) {
	t.Helper()
	clock := clockwork.NewFakeClock()
	rec := &changeRecorder{}
	c := New(clock, DefaultDebounceInterval, rec.fire)
	return c, rec, clock
}

func TestSetSearch_AppliesAfterQuiescenceWindow(t *testing.T) {
	c, rec, clock := newTestController(t)

	c.SetSearch("fintech")
	assert.Equal(t, 0, rec.calls(), "nothing should apply before the window elapses")
	assert.Empty(t, c.Snapshot().Search)

	clock.Advance(DefaultDebounceInterval)

	assert.Eventually(t, func() bool {
		return rec.calls() == 1 && c.Snapshot().Search == "fintech"
	}, time.Second, 5*time.Millisecond)
}

func TestSetSearch_RapidEditsApplyOnlyFinalValue(t *testing.T) {
	c, rec, clock := newTestController(t)

	c.SetSearch("f")
	clock.Advance(500 * time.Millisecond)
	c.SetSearch("fi")
	clock.Advance(500 * time.Millisecond)
	c.SetSearch("fin")
	clock.Advance(500 * time.Millisecond)
	c.SetSearch("fintech")

	// Each keystroke restarted the window, so nothing has applied yet.
	assert.Equal(t, 0, rec.calls())
	assert.Empty(t, c.Snapshot().Search)

	clock.Advance(DefaultDebounceInterval)

	assert.Eventually(t, func() bool {
		return c.Snapshot().Search == "fintech"
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, 1, rec.calls(), "final value must be applied exactly once")
}

func TestSetSearch_TrimsWhitespace(t *testing.T) {
	c, _, clock := newTestController(t)

	c.SetSearch("  deep tech  ")
	clock.Advance(DefaultDebounceInterval)

	assert.Eventually(t, func() bool {
		return c.Snapshot().Search == "deep tech"
	}, time.Second, 5*time.Millisecond)
}

func TestSetSearch_ResetsCursor(t *testing.T) {
	c, _, clock := newTestController(t)

	c.SetPageCursors("http://api/investors/?page=2", "")
	require.NoError(t, c.Advance(domain.Next))
	require.NotEmpty(t, c.Snapshot().Cursor)

	c.SetSearch("ai")
	clock.Advance(DefaultDebounceInterval)

	assert.Eventually(t, func() bool {
		return c.Snapshot().Cursor == ""
	}, time.Second, 5*time.Millisecond)
}

func TestToggleDomain_AddsAndRemoves(t *testing.T) {
	c, rec, _ := newTestController(t)

	c.ToggleDomain("Tech")
	assert.Equal(t, []string{"Tech"}, c.Snapshot().Domains)

	c.ToggleDomain("Finance")
	assert.Equal(t, []string{"Finance", "Tech"}, c.Snapshot().Domains)

	c.ToggleDomain("Tech")
	assert.Equal(t, []string{"Finance"}, c.Snapshot().Domains)

	assert.Equal(t, 3, rec.calls(), "each toggle triggers a fetch cycle")
}

func TestFilterMutations_ResetCursor(t *testing.T) {
	mutations := map[string]func(c *Controller){
		"toggle domain": func(c *Controller) { c.ToggleDomain("Tech") },
		"toggle region": func(c *Controller) { c.ToggleRegion("US") },
		"set stage":     func(c *Controller) { c.SetStage(domain.StageSeed) },
	}

	for name, mutate := range mutations {
		t.Run(name, func(t *testing.T) {
			c, _, _ := newTestController(t)
			c.SetPageCursors("http://api/investors/?page=2", "")
			require.NoError(t, c.Advance(domain.Next))
			require.NotEmpty(t, c.Snapshot().Cursor)

			mutate(c)

			assert.Empty(t, c.Snapshot().Cursor)
		})
	}
}

func TestSetStage_ReselectClears(t *testing.T) {
	c, _, _ := newTestController(t)

	c.SetStage(domain.StageSeriesA)
	assert.Equal(t, domain.StageSeriesA, c.Snapshot().Stage)

	c.SetStage(domain.StageSeriesA)
	assert.Empty(t, c.Snapshot().Stage, "reselecting the same stage clears it")

	c.SetStage(domain.StageSeriesA)
	c.SetStage(domain.StageGrowth)
	assert.Equal(t, domain.StageGrowth, c.Snapshot().Stage)
}

func TestAdvance_UsesPageCursors(t *testing.T) {
	c, rec, _ := newTestController(t)

	c.SetPageCursors("http://api/investors/?cursor=abc", "http://api/investors/?cursor=xyz")

	require.NoError(t, c.Advance(domain.Next))
	assert.Equal(t, "http://api/investors/?cursor=abc", c.Snapshot().Cursor)

	require.NoError(t, c.Advance(domain.Prev))
	assert.Equal(t, "http://api/investors/?cursor=xyz", c.Snapshot().Cursor)

	assert.Equal(t, 2, rec.calls())
}

func TestAdvance_RejectedWithoutCursor(t *testing.T) {
	c, rec, _ := newTestController(t)

	assert.ErrorIs(t, c.Advance(domain.Next), domain.ErrNoCursor)
	assert.ErrorIs(t, c.Advance(domain.Prev), domain.ErrNoCursor)
	assert.Equal(t, 0, rec.calls(), "rejected advance must not trigger a fetch")

	assert.False(t, c.CanAdvance(domain.Next))
	assert.False(t, c.CanAdvance(domain.Prev))
}

func TestSnapshot_IsACopy(t *testing.T) {
	c, _, _ := newTestController(t)

	c.ToggleDomain("Tech")
	snap := c.Snapshot()
	snap.Domains[0] = "mutated"
	snap.Search = "mutated"

	assert.Equal(t, []string{"Tech"}, c.Snapshot().Domains)
	assert.Empty(t, c.Snapshot().Search)
}
