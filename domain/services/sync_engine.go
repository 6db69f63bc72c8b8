package services

import "context"

// EmbeddingEntry is one EmbeddingEntry from §3 — persisted verbatim inside
// a Tenant Artifact.
type EmbeddingEntry struct {
	Filename      string    `json:"filename"`
	Filepath      string    `json:"filepath"`
	FolderPath    string    `json:"folder_path"`
	Embedding     []float32 `json:"embedding,omitempty"`
	IsCorrupt     bool      `json:"is_corrupt"`
	CorruptReason string    `json:"corrupt_reason,omitempty"`
}

// SyncTask is one unit of work for the Sync Engine, in both single and
// batch mode.
type SyncTask struct {
	UUID        string
	DriveURL    string
	UseEmbedV4  bool
	CompanyName string
}

// SyncResult summarizes one tenant's sync run.
type SyncResult struct {
	UUID           string
	Added          int
	Deleted        int
	Corrupt        int
	EmbedFailures  int
	Err            error
}

// SyncEngine is the Sync Engine (C5): converges one tenant's artifact to
// the current state of its Drive folder. Implementations must be safe to
// cancel via ctx at any point between files — on cancellation the engine
// makes one best-effort final checkpoint before returning.
type SyncEngine interface {
	// Sync runs a single-tenant convergence to completion or cancellation.
	Sync(ctx context.Context, task SyncTask) SyncResult

	// SyncBatch runs each task sequentially; a per-tenant failure does not
	// abort the batch.
	SyncBatch(ctx context.Context, tasks []SyncTask) []SyncResult
}
