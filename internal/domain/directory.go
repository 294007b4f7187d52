package domain

import "context"

// DirectoryAPI is the HTTP contract with the investor-directory backend.
// All authenticated calls carry the current session credential as a bearer
// header; the implementation reads it at request-build time so a logout is
// observed by requests issued afterwards.
type DirectoryAPI interface {
	Login(ctx context.Context, username, password string) (token string, err error)
	Register(ctx context.Context, username, email, password string) error

	ListInvestors(ctx context.Context, q QueryState) (*ResultPage, error)

	SubscriptionStatus(ctx context.Context) (*SubscriptionStatus, error)
	Plans(ctx context.Context) ([]SubscriptionPlan, error)
	Subscribe(ctx context.Context, planID string) (*SubscriptionStatus, error)

	Domains(ctx context.Context) ([]NamedOption, error)
	Regions(ctx context.Context) ([]NamedOption, error)
}

// DirectoryView is the one-way view model consumed by the presentation layer.
type DirectoryView struct {
	Page    ResultPage
	Loading bool
	// Err is a retryable failure; the previous page stays visible.
	Err error
	// Denied is set on a quota/subscription rejection; the page is cleared
	// and an upgrade prompt must be shown.
	Denied bool
	// SignedOut is set when the session was torn down after a 401.
	SignedOut bool
}

// ViewSink receives directory view-model updates.
type ViewSink interface {
	PublishDirectory(view DirectoryView)
}
