package services

import "context"

// NotificationResult is the outcome of one handle() invocation (§4.7).
type NotificationResult struct {
	Handled       bool
	Status        string // "sync", "filtered_changed_type", "no_companies", "ok", ""
	ChangesFound  int
	JobsTriggered int
}

// NotificationRouter is the Notification Router (C8): consumes Drive push
// notifications, advances change-feed tokens, maps changed files to
// subscribed tenants, enforces per-tenant cooldown, and invokes the
// Dispatcher. Must be safe under concurrent invocation for the same
// channel — see §5's ordering guarantees.
type NotificationRouter interface {
	Handle(ctx context.Context, channelID, resourceState string, changedTypes []string) (NotificationResult, error)
}
