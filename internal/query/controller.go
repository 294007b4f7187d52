// Package query owns the filter and pagination state of the directory view.
package query

import (
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/pschneider14/venturelens/internal/domain"
)

// DefaultDebounceInterval is the quiescence window applied to free-text
// search input.
const DefaultDebounceInterval = 1500 * time.Millisecond

// Controller mutates query state on user interaction and triggers a fetch
// cycle on every change. Text input is debounced; select and pagination
// changes fire immediately. Every mutation except Advance resets pagination.
type Controller struct {
	clock    clockwork.Clock
	interval time.Duration
	onChange func()

	mu          sync.Mutex
	search      string
	domains     map[string]struct{}
	regions     map[string]struct{}
	stage       domain.Stage
	cursor      string
	nextCursor  string
	prevCursor  string
	timer       clockwork.Timer
	debounceSeq uint64
}

// New creates a controller. onChange is invoked (outside the controller's
// lock) whenever a mutation warrants a new fetch; interval <= 0 selects the
// default debounce window.
func New(clock clockwork.Clock, interval time.Duration, onChange func()) *Controller {
	if interval <= 0 {
		interval = DefaultDebounceInterval
	}
	return &Controller{
		clock:    clock,
		interval: interval,
		onChange: onChange,
		domains:  make(map[string]struct{}),
		regions:  make(map[string]struct{}),
	}
}

// SetSearch schedules a search-text mutation after the quiescence window.
// A keystroke arriving before the window elapses cancels the pending
// mutation and starts a new window; only the final value is ever applied.
func (c *Controller) SetSearch(raw string) {
	value := strings.TrimSpace(raw)

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.timer != nil {
		c.timer.Stop()
	}
	c.debounceSeq++
	seq := c.debounceSeq
	c.timer = c.clock.AfterFunc(c.interval, func() {
		c.applySearch(seq, value)
	})
}

// applySearch runs when the debounce window elapses. The sequence check
// drops a timer callback that raced with a newer keystroke's Stop.
func (c *Controller) applySearch(seq uint64, value string) {
	c.mu.Lock()
	if seq != c.debounceSeq {
		c.mu.Unlock()
		return
	}
	c.search = value
	c.resetPagination()
	c.mu.Unlock()

	c.notify()
}

// ToggleDomain toggles membership of value in the domain multi-select.
func (c *Controller) ToggleDomain(value string) {
	c.mu.Lock()
	toggle(c.domains, value)
	c.resetPagination()
	c.mu.Unlock()

	c.notify()
}

// ToggleRegion toggles membership of value in the region multi-select.
func (c *Controller) ToggleRegion(value string) {
	c.mu.Lock()
	toggle(c.regions, value)
	c.resetPagination()
	c.mu.Unlock()

	c.notify()
}

func toggle(set map[string]struct{}, value string) {
	if _, ok := set[value]; ok {
		delete(set, value)
	} else {
		set[value] = struct{}{}
	}
}

// SetStage sets the single-select stage filter. Reselecting the current
// stage clears it.
func (c *Controller) SetStage(stage domain.Stage) {
	c.mu.Lock()
	if c.stage == stage {
		c.stage = ""
	} else {
		c.stage = stage
	}
	c.resetPagination()
	c.mu.Unlock()

	c.notify()
}

// Advance replaces the cursor with the current page's next or previous
// cursor. Returns ErrNoCursor when there is no page in that direction.
func (c *Controller) Advance(dir domain.Direction) error {
	c.mu.Lock()
	target := c.nextCursor
	if dir == domain.Prev {
		target = c.prevCursor
	}
	if target == "" {
		c.mu.Unlock()
		return domain.ErrNoCursor
	}
	c.cursor = target
	c.mu.Unlock()

	c.notify()
	return nil
}

// SetPageCursors records the pagination tokens of the last fetched page.
// Called by the orchestrator after a successful fetch; does not trigger a
// fetch cycle.
func (c *Controller) SetPageCursors(next, prev string) {
	c.mu.Lock()
	c.nextCursor = next
	c.prevCursor = prev
	c.mu.Unlock()
}

// CanAdvance reports whether a page exists in the given direction.
func (c *Controller) CanAdvance(dir domain.Direction) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if dir == domain.Prev {
		return c.prevCursor != ""
	}
	return c.nextCursor != ""
}

// Snapshot returns a copy of the current query state for request derivation.
func (c *Controller) Snapshot() domain.QueryState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return domain.QueryState{
		Search:  c.search,
		Domains: sortedKeys(c.domains),
		Regions: sortedKeys(c.regions),
		Stage:   c.stage,
		Cursor:  c.cursor,
	}
}

// resetPagination is called (under lock) by every mutation except Advance.
// Page cursors from the previous result set are no longer meaningful.
func (c *Controller) resetPagination() {
	c.cursor = ""
	c.nextCursor = ""
	c.prevCursor = ""
}

func (c *Controller) notify() {
	if c.onChange != nil {
		c.onChange()
	}
}

func sortedKeys(set map[string]struct{}) []string {
	if len(set) == 0 {
		return nil
	}
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
