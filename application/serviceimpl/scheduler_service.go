package serviceimpl

import (
	"context"
	"sync"
	"time"

	"drivesync/domain/services"
	"drivesync/pkg/logger"
)

// PollingScheduler is the C10 implementation: periodically enumerates
// auto-update tenants, gates each by its Manifest (cheap metadata only,
// no download), and converges the ones that need it with bounded
// parallelism. Grounded on the original ScheduledUpdater/
// BatchIncrementalUpdater, which runs the update in-process rather than
// through the async Job Dispatcher — that's preserved here because the
// manifest rewrite-after-success step needs a synchronous per-tenant
// completion signal the fire-and-forget Dispatcher doesn't provide.
type PollingScheduler struct {
	registry services.TenantRegistry
	drive    services.DriveAdapter
	manifest services.ManifestStore
	engine   services.SyncEngine

	maxWorkers int
}

func NewPollingScheduler(registry services.TenantRegistry, drive services.DriveAdapter, manifest services.ManifestStore, engine services.SyncEngine, maxWorkers int) *PollingScheduler {
	if maxWorkers <= 0 {
		maxWorkers = 3
	}
	return &PollingScheduler{registry: registry, drive: drive, manifest: manifest, engine: engine, maxWorkers: maxWorkers}
}

func (s *PollingScheduler) RunOnce(ctx context.Context) (services.RunReport, error) {
	report := services.RunReport{StartedAt: time.Now().Unix()}

	tenants, err := s.registry.AutoUpdateTenants(ctx)
	if err != nil {
		logger.ScheduleError("registry_load_failed", "failed to load auto-update tenants", err, nil)
		report.CompletedAt = time.Now().Unix()
		return report, err
	}
	report.TenantsChecked = len(tenants)
	logger.Schedule("run_started", "auto-update sweep started", map[string]interface{}{"tenant_count": len(tenants)})

	var due []services.DispatchTask
	for _, t := range tenants {
		files, err := s.drive.ListFolderTree(ctx, t.DriveURL)
		if err != nil {
			logger.ScheduleError("list_failed", "failed to list drive tree for manifest check", err, map[string]interface{}{"uuid": t.UUID})
			due = append(due, t) // fail-safe: treat as needing update
			continue
		}

		checksums := make(map[string]string, len(files))
		sizes := make(map[string]int64, len(files))
		modifiedTimes := make(map[string]string, len(files))
		current := make([]services.FileMeta, 0, len(files))
		for _, f := range files {
			current = append(current, f)
			checksums[f.ID] = f.Checksum
			sizes[f.ID] = f.Size
			modifiedTimes[f.ID] = f.ModifiedTime
		}

		if s.manifest.NeedsUpdate(ctx, t.UUID, current, checksums, sizes, modifiedTimes) {
			due = append(due, t)
		} else {
			report.TenantsSkipped++
		}
	}
	logger.Schedule("gate_evaluated", "manifest gate evaluated", map[string]interface{}{"due": len(due), "skipped": report.TenantsSkipped})

	var mu sync.Mutex
	var wg sync.WaitGroup
	sem := make(chan struct{}, s.maxWorkers)

	for _, t := range due {
		wg.Add(1)
		sem <- struct{}{}
		go func(t services.DispatchTask) {
			defer wg.Done()
			defer func() { <-sem }()

			result := s.engine.Sync(ctx, services.SyncTask{
				UUID:        t.UUID,
				DriveURL:    t.DriveURL,
				UseEmbedV4:  t.UseEmbedV4,
				CompanyName: t.CompanyName,
			})

			mu.Lock()
			defer mu.Unlock()
			if result.Err != nil {
				report.TenantsFailed++
				logger.ScheduleError("tenant_sync_failed", "scheduled sync failed, manifest left unchanged", result.Err, map[string]interface{}{"uuid": t.UUID})
				return
			}
			report.TenantsUpdated++
			s.rewriteManifest(ctx, t)
		}(t)
	}
	wg.Wait()

	report.CompletedAt = time.Now().Unix()
	logger.Schedule("run_completed", "auto-update sweep completed", map[string]interface{}{
		"checked": report.TenantsChecked,
		"updated": report.TenantsUpdated,
		"skipped": report.TenantsSkipped,
		"failed":  report.TenantsFailed,
	})
	return report, nil
}

// rewriteManifest re-reads the Drive tree after a successful sync and
// persists a fresh Manifest, so the next sweep's gate reflects the
// tenant's new state.
func (s *PollingScheduler) rewriteManifest(ctx context.Context, t services.DispatchTask) {
	files, err := s.drive.ListFolderTree(ctx, t.DriveURL)
	if err != nil {
		logger.ScheduleError("manifest_refresh_failed", "failed to re-read drive tree after sync", err, map[string]interface{}{"uuid": t.UUID})
		return
	}

	now := time.Now().Unix()
	entries := make(map[string]services.ManifestFileEntry, len(files))
	for _, f := range files {
		entries[f.ID] = services.ManifestFileEntry{
			ModifiedTime: f.ModifiedTime,
			Size:         f.Size,
			Checksum:     f.Checksum,
			Name:         f.Name,
			FolderPath:   f.FolderPath,
		}
	}

	m := services.Manifest{Files: entries, LastChecked: now, LastUpdated: now}
	if err := s.manifest.Save(ctx, t.UUID, m); err != nil {
		logger.ScheduleError("manifest_save_failed", "failed to persist refreshed manifest", err, map[string]interface{}{"uuid": t.UUID})
	}
}

var _ services.AutoUpdateScheduler = (*PollingScheduler)(nil)
