package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"drivesync/application/serviceimpl"
	"drivesync/domain/services"
	"drivesync/pkg/di"
	"drivesync/pkg/logger"
)

// batchTask mirrors one entry of the BATCH_TASKS JSON array the Job
// Dispatcher injects in batch mode (§6).
type batchTask struct {
	UUID        string `json:"uuid"`
	DriveURL    string `json:"drive_url"`
	CompanyName string `json:"company_name"`
	UseEmbedV4  bool   `json:"use_embed_v4"`
}

func main() {
	if err := logger.Init("logs", true); err != nil {
		fmt.Printf("Warning: Failed to initialize logger: %v\n", err)
	}

	container := di.NewContainer()
	if err := container.InitializeWithoutScheduler(); err != nil {
		logger.StartupError("container_init_failed", "Failed to initialize container", err, nil)
		os.Exit(1)
	}
	defer container.Cleanup()

	batchMode := os.Getenv("BATCH_MODE") == "true"

	var runErr error
	err := serviceimpl.WithSignalHandling(context.Background(), func(ctx context.Context) error {
		if batchMode {
			runErr = runBatch(ctx, container.SyncEngine)
		} else {
			runErr = runSingle(ctx, container.SyncEngine)
		}
		return runErr
	})
	if err != nil {
		logger.StartupError("worker_failed", "sync run failed", err, nil)
		os.Exit(1)
	}
}

func runSingle(ctx context.Context, engine services.SyncEngine) error {
	task := services.SyncTask{
		UUID:       os.Getenv("UUID"),
		DriveURL:   os.Getenv("DRIVE_URL"),
		UseEmbedV4: os.Getenv("USE_EMBED_V4") == "true",
	}
	if task.UUID == "" || task.DriveURL == "" {
		return fmt.Errorf("worker: UUID and DRIVE_URL are required in single-task mode")
	}

	result := engine.Sync(ctx, task)
	logger.Sync("run_completed", "single-tenant sync finished", map[string]interface{}{
		"uuid":           result.UUID,
		"added":          result.Added,
		"deleted":        result.Deleted,
		"corrupt":        result.Corrupt,
		"embed_failures": result.EmbedFailures,
	})
	return result.Err
}

func runBatch(ctx context.Context, engine services.SyncEngine) error {
	raw := os.Getenv("BATCH_TASKS")
	if raw == "" {
		return fmt.Errorf("worker: BATCH_TASKS is required in batch mode")
	}

	var entries []batchTask
	if err := json.Unmarshal([]byte(raw), &entries); err != nil {
		return fmt.Errorf("worker: invalid BATCH_TASKS: %w", err)
	}

	tasks := make([]services.SyncTask, 0, len(entries))
	for _, e := range entries {
		tasks = append(tasks, services.SyncTask{
			UUID:        e.UUID,
			DriveURL:    e.DriveURL,
			CompanyName: e.CompanyName,
			UseEmbedV4:  e.UseEmbedV4,
		})
	}

	results := engine.SyncBatch(ctx, tasks)

	failed := 0
	for _, r := range results {
		if r.Err != nil {
			failed++
			logger.SyncError("tenant_failed", "batch sync failed for tenant", r.Err, map[string]interface{}{"uuid": r.UUID})
			continue
		}
		logger.Sync("tenant_completed", "batch sync finished for tenant", map[string]interface{}{
			"uuid":    r.UUID,
			"added":   r.Added,
			"deleted": r.Deleted,
			"corrupt": r.Corrupt,
		})
	}

	logger.Sync("batch_completed", "batch sync run finished", map[string]interface{}{
		"total":  len(results),
		"failed": failed,
	})

	if failed > 0 {
		return fmt.Errorf("worker: %d/%d tenants failed", failed, len(results))
	}
	return nil
}
