package domain

import "time"

// AccessMode describes how the user is currently metered.
type AccessMode string

const (
	FreeTier   AccessMode = "free_tier"
	Subscribed AccessMode = "subscribed"
)

// AccessState is the client-side picture of the user's access rights.
// It is never persisted: the server is authoritative and the state is
// re-derived from /subscription/status on each load.
type AccessState struct {
	Mode              AccessMode
	FreeUsesRemaining int
	Expiry            time.Time // meaningful only when Subscribed
}

// SubscriptionStatus is the wire shape of GET /subscription/status.
type SubscriptionStatus struct {
	SubscriptionActive bool                 `json:"subscription_active"`
	SubscriptionExpiry *time.Time           `json:"subscription_expiry"`
	FreeUsesLeft       int                  `json:"free_uses_left"`
	Current            *CurrentSubscription `json:"current_subscription"`
}

// CurrentSubscription describes the active plan, when one exists.
type CurrentSubscription struct {
	Plan      string     `json:"plan"`
	StartDate *time.Time `json:"start_date"`
	EndDate   *time.Time `json:"end_date"`
	IsActive  bool       `json:"is_active"`
}

// SubscriptionPlan is one purchasable plan from GET /subscription/plans.
type SubscriptionPlan struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Price        string `json:"price"`
	DurationDays int    `json:"duration_days"`
	Features     string `json:"features"`
}

// AccessSink receives access-state changes for display.
type AccessSink interface {
	PublishAccess(state AccessState)
}
