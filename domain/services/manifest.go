package services

import "context"

// ManifestFileEntry is one Drive file's change-detection metadata (§3).
type ManifestFileEntry struct {
	ModifiedTime string `json:"modifiedTime"`
	Size         int64  `json:"size"`
	Checksum     string `json:"checksum,omitempty"`
	Name         string `json:"name"`
	FolderPath   string `json:"folder_path"`
}

// Manifest is the per-tenant change-detection index used solely by the
// Scheduler's gate (§3, §4.9).
type Manifest struct {
	Files       map[string]ManifestFileEntry `json:"files"` // keyed by Drive file_id
	LastChecked int64                        `json:"last_checked"`
	LastUpdated int64                        `json:"last_updated"`
	FilesCount  int                          `json:"files_count"`
}

// ManifestStore persists and evaluates Manifests. NeedsUpdate fails open:
// any read/parse error is treated as "needs update".
type ManifestStore interface {
	Load(ctx context.Context, uuid string) (*Manifest, error)
	Save(ctx context.Context, uuid string, m Manifest) error
	// NeedsUpdate compares the given live file listing against the stored
	// manifest and reports whether the tenant should be re-synced.
	NeedsUpdate(ctx context.Context, uuid string, current []FileMeta, checksums map[string]string, sizes map[string]int64, modifiedTimes map[string]string) bool
}

// TenantRegistry is the external, read-only auto-update tenant source
// (§9, §11 — out of scope as a concrete spreadsheet integration; modeled
// here as an interface with a Postgres-backed implementation standing in
// for it).
type TenantRegistry interface {
	AutoUpdateTenants(ctx context.Context) ([]DispatchTask, error)
}
