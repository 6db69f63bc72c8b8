package services

import "context"

// DispatchTask is the payload handed to one Job Dispatcher invocation.
type DispatchTask struct {
	UUID        string `json:"uuid"`
	DriveURL    string `json:"drive_url"`
	UseEmbedV4  bool   `json:"use_embed_v4"`
	CompanyName string `json:"company_name"`
}

// Dispatcher is the Job Dispatcher (C6). It is fire-and-forget: Dispatch
// returns an opaque execution handle without waiting for the worker to
// finish. Retrying a failed execution is the caller's responsibility.
type Dispatcher interface {
	// Dispatch launches a single-tenant Sync Engine execution.
	Dispatch(ctx context.Context, task DispatchTask) (executionHandle string, err error)

	// DispatchBatch launches one execution covering every task, with
	// BATCH_MODE=true and BATCH_TASKS injected into its environment.
	DispatchBatch(ctx context.Context, tasks []DispatchTask) (executionHandle string, err error)
}
