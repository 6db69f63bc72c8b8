package services

import "context"

// RunReport summarizes one Scheduler sweep (C10) for logging/diagnostics.
type RunReport struct {
	TenantsChecked int
	TenantsUpdated int
	TenantsSkipped int
	TenantsFailed  int
	StartedAt      int64
	CompletedAt    int64
}

// AutoUpdateScheduler is the Scheduler (C10): periodically enumerates
// auto-update tenants, gates each by its Manifest, and converges the ones
// that need re-vectorization by running the Sync Engine in-process with
// bounded parallelism. It does not go through the Job Dispatcher.
type AutoUpdateScheduler interface {
	RunOnce(ctx context.Context) (RunReport, error)
}
