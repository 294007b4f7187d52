package app

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/jonboulle/clockwork"

	"github.com/pschneider14/venturelens/internal/correlation"
	"github.com/pschneider14/venturelens/internal/domain"
	"github.com/pschneider14/venturelens/internal/metrics"
)

// accessTracker is the slice of the quota tracker the service drives.
type accessTracker interface {
	Refresh(ctx context.Context) (domain.AccessState, error)
	OnAccessDenied()
	NoteUsage()
}

// cursorSink receives the pagination tokens of each successfully fetched page.
type cursorSink interface {
	SetPageCursors(next, prev string)
}

// Service coordinates session, quota, and query state around directory
// fetches. A monotonically increasing generation counter identifies the most
// recently initiated fetch; responses of superseded fetches are discarded
// unconditionally, so observable state never interleaves two in-flight
// fetches.
type Service struct {
	api      domain.DirectoryAPI
	sessions domain.SessionStore
	tracker  accessTracker
	cursors  cursorSink
	views    domain.ViewSink
	clock    clockwork.Clock

	generation atomic.Uint64

	mu   sync.Mutex
	view domain.DirectoryView
}

// NewService creates the application layer service.
func NewService(api domain.DirectoryAPI, sessions domain.SessionStore, tracker accessTracker, cursors cursorSink, views domain.ViewSink, clock clockwork.Clock) *Service {
	return &Service{
		api:      api,
		sessions: sessions,
		tracker:  tracker,
		cursors:  cursors,
		views:    views,
		clock:    clock,
	}
}

// FetchPage issues one directory request for the given query snapshot and
// applies the outcome, unless a newer fetch has been initiated meanwhile.
// It performs no retries of its own; retryable failures are surfaced on the
// view model and left to the boundary.
func (s *Service) FetchPage(ctx context.Context, q domain.QueryState) {
	gen := s.generation.Add(1)
	ctx = correlation.WithID(ctx, correlation.NewID())

	s.mu.Lock()
	s.view.Loading = true
	view := s.view
	s.mu.Unlock()
	s.publish(view)

	slog.DebugContext(ctx, "Fetching directory page",
		"search", q.Search, "domains", q.Domains, "regions", q.Regions,
		"stage", q.Stage, "paginated", q.Cursor != "")

	start := s.clock.Now()
	page, err := s.api.ListInvestors(ctx, q)
	metrics.DirectoryRequestDuration.Observe(s.clock.Since(start).Seconds())

	s.apply(ctx, gen, page, err)
}

// apply folds a fetch outcome into the view model. The generation is
// re-checked under the lock so a slow early response can never overwrite
// state set by a faster later one.
func (s *Service) apply(ctx context.Context, gen uint64, page *domain.ResultPage, err error) {
	s.mu.Lock()
	if s.generation.Load() != gen {
		s.mu.Unlock()
		metrics.StaleResponsesDiscarded.Inc()
		slog.DebugContext(ctx, "Discarding superseded response", "generation", gen)
		return
	}

	switch {
	case err == nil:
		s.view = domain.DirectoryView{Page: *page}
	case errors.Is(err, domain.ErrAccessDenied):
		s.view = domain.DirectoryView{Page: domain.ResultPage{}, Denied: true}
	case errors.Is(err, domain.ErrUnauthenticated):
		s.view = domain.DirectoryView{SignedOut: true}
	default:
		// Retryable: keep the previous page visible, surface the error.
		s.view.Loading = false
		s.view.Err = err
		s.view.Denied = false
	}
	view := s.view
	s.mu.Unlock()

	switch {
	case err == nil:
		metrics.DirectoryRequestsTotal.WithLabelValues("success").Inc()
		s.cursors.SetPageCursors(page.NextCursor, page.PrevCursor)
		s.tracker.NoteUsage()
	case errors.Is(err, domain.ErrAccessDenied):
		metrics.DirectoryRequestsTotal.WithLabelValues("denied").Inc()
		slog.InfoContext(ctx, "Directory access denied, prompting upgrade")
		s.tracker.OnAccessDenied()
	case errors.Is(err, domain.ErrUnauthenticated):
		metrics.DirectoryRequestsTotal.WithLabelValues("unauthenticated").Inc()
		slog.InfoContext(ctx, "Session rejected by server, signing out")
		if clearErr := s.sessions.Clear(); clearErr != nil {
			slog.WarnContext(ctx, "Failed to clear session", "error", clearErr)
		}
	default:
		metrics.DirectoryRequestsTotal.WithLabelValues("error").Inc()
		slog.WarnContext(ctx, "Directory fetch failed", "error", err)
	}

	s.publish(view)
}

// Login establishes a session and primes the access state.
func (s *Service) Login(ctx context.Context, username, password string) (domain.Session, error) {
	sess, err := s.sessions.Establish(ctx, username, password)
	if err != nil {
		return domain.Session{}, err
	}

	// Non-fatal: the optimistic default stands until a refresh succeeds.
	if _, err := s.tracker.Refresh(ctx); err != nil {
		slog.WarnContext(ctx, "Initial status refresh failed", "error", err)
	}

	s.mu.Lock()
	s.view = domain.DirectoryView{}
	view := s.view
	s.mu.Unlock()
	s.publish(view)

	return sess, nil
}

// Signup registers a new account. The caller logs in afterwards, mirroring
// the signup-then-login exchange of the web client.
func (s *Service) Signup(ctx context.Context, username, email, password string) error {
	return s.api.Register(ctx, username, email, password)
}

// Logout tears down the session. Bumping the generation makes any in-flight
// fetch response a discard on arrival.
func (s *Service) Logout() error {
	s.generation.Add(1)

	err := s.sessions.Clear()

	s.mu.Lock()
	s.view = domain.DirectoryView{SignedOut: true}
	view := s.view
	s.mu.Unlock()
	s.publish(view)

	return err
}

// Plans lists the purchasable subscription plans.
func (s *Service) Plans(ctx context.Context) ([]domain.SubscriptionPlan, error) {
	return s.api.Plans(ctx)
}

// Subscribe purchases a plan and refreshes the access state from the server.
func (s *Service) Subscribe(ctx context.Context, planID string) (domain.AccessState, error) {
	if _, err := s.api.Subscribe(ctx, planID); err != nil {
		return domain.AccessState{}, err
	}
	return s.tracker.Refresh(ctx)
}

// View returns a copy of the current directory view model.
func (s *Service) View() domain.DirectoryView {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.view
}

func (s *Service) publish(view domain.DirectoryView) {
	if s.views != nil {
		s.views.PublishDirectory(view)
	}
}
