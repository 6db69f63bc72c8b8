// Package serviceimpl wires the domain service interfaces to concrete
// business logic: the Sync Engine, Notification Router, Search Index,
// Scheduler, and Tenant Registry.
package serviceimpl

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"drivesync/domain/services"
	"drivesync/pkg/logger"
)

// SyncEngine is the C5 implementation: converges one tenant's artifact to
// the current state of its Drive folder. Structural descendant of the
// teacher's SyncWorker — same checkpoint cadence, same box-drawn step
// logging, same semaphore-bounded per-file concurrency — rewired to call
// the Drive Adapter, Embedding Provider, Normalizer, and Blob Store instead
// of the photo-sharing database.
type SyncEngine struct {
	blob       services.BlobStore
	drive      services.DriveAdapter
	provider   services.Provider
	normalizer services.Normalizer

	artifactBucket     string
	checkpointInterval int
	maxConcurrent      int
}

func NewSyncEngine(blob services.BlobStore, drive services.DriveAdapter, provider services.Provider, normalizer services.Normalizer, artifactBucket string, checkpointInterval, maxConcurrent int) *SyncEngine {
	if checkpointInterval <= 0 {
		checkpointInterval = 100
	}
	if maxConcurrent <= 0 {
		maxConcurrent = 3
	}
	return &SyncEngine{
		blob:               blob,
		drive:              drive,
		provider:           provider,
		normalizer:         normalizer,
		artifactBucket:     artifactBucket,
		checkpointInterval: checkpointInterval,
		maxConcurrent:      maxConcurrent,
	}
}

func artifactKey(uuid string) string {
	return fmt.Sprintf("%s.json", uuid)
}

func entryKey(e services.EmbeddingEntry) string {
	return e.FolderPath + "/" + e.Filename
}

func (s *SyncEngine) loadArtifact(ctx context.Context, uuid string) ([]services.EmbeddingEntry, error) {
	data, err := s.blob.Read(ctx, s.artifactBucket, artifactKey(uuid))
	if err != nil {
		if services.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var entries []services.EmbeddingEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("sync_engine: parse artifact %s: %w", uuid, err)
	}
	return entries, nil
}

func (s *SyncEngine) persistArtifact(ctx context.Context, uuid string, entries []services.EmbeddingEntry) error {
	if entries == nil {
		entries = []services.EmbeddingEntry{}
	}
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("sync_engine: marshal artifact %s: %w", uuid, err)
	}
	return s.blob.Write(ctx, s.artifactBucket, artifactKey(uuid), data)
}

// Sync runs a single-tenant convergence to completion or cancellation.
func (s *SyncEngine) Sync(ctx context.Context, task services.SyncTask) services.SyncResult {
	result := services.SyncResult{UUID: task.UUID}

	log.Println("╔════════════════════════════════════════════════════════════════")
	log.Printf("║ SYNC STARTED: %s", task.UUID)

	log.Println("║ [STEP 1/6] Loading existing artifact...")
	existing, err := s.loadArtifact(ctx, task.UUID)
	if err != nil {
		log.Printf("║ ❌ FAILED: %v", err)
		log.Println("╚════════════════════════════════════════════════════════════════")
		result.Err = err
		return result
	}
	existingKeys := make(map[string]services.EmbeddingEntry, len(existing))
	for _, e := range existing {
		existingKeys[entryKey(e)] = e
	}
	log.Printf("║ ✓ %d existing entries", len(existing))

	log.Println("║ [STEP 2/6] Enumerating Drive tree...")
	files, err := s.drive.ListFolderTree(ctx, task.DriveURL)
	if err != nil {
		log.Printf("║ ❌ FAILED: %v", err)
		log.Println("╚════════════════════════════════════════════════════════════════")
		result.Err = err
		return result
	}
	log.Printf("║ ✓ %d files found in Drive", len(files))

	if len(files) == 0 && len(existing) > 0 {
		log.Println("║ Drive tree is empty, clearing artifact")
		if err := s.persistArtifact(ctx, task.UUID, nil); err != nil {
			log.Printf("║ ❌ FAILED to clear artifact: %v", err)
			result.Err = err
		}
		result.Deleted = len(existing)
		log.Println("╚════════════════════════════════════════════════════════════════")
		return result
	}

	currentKeys := make(map[string]services.FileMeta, len(files))
	for _, f := range files {
		currentKeys[f.FolderPath+"/"+f.Name] = f
	}

	log.Println("║ [STEP 3/6] Diffing against existing artifact...")
	working := make([]services.EmbeddingEntry, 0, len(existing))
	for _, e := range existing {
		if _, stillPresent := currentKeys[entryKey(e)]; stillPresent {
			working = append(working, e)
		} else {
			result.Deleted++
		}
	}
	var toAdd []services.FileMeta
	for key, f := range currentKeys {
		if _, had := existingKeys[key]; !had {
			toAdd = append(toAdd, f)
		}
	}
	log.Printf("║ ✓ add=%d delete=%d", len(toAdd), result.Deleted)

	if result.Deleted > 0 {
		log.Println("║ Persisting intermediate checkpoint after deletions...")
		if err := s.persistArtifact(ctx, task.UUID, working); err != nil {
			log.Printf("║ ⚠ checkpoint failed: %v", err)
		}
	}

	log.Println("║ [STEP 4/6] Downloading, normalizing, embedding new files...")
	var mu sync.Mutex
	sem := make(chan struct{}, s.maxConcurrent)
	var wg sync.WaitGroup
	sinceCheckpoint := 0

	checkpoint := func() {
		if err := s.persistArtifact(ctx, task.UUID, working); err != nil {
			log.Printf("║ ⚠ checkpoint failed: %v", err)
		}
		sinceCheckpoint = 0
	}

	for _, f := range toAdd {
		select {
		case <-ctx.Done():
			log.Println("║ ⚠ context cancelled, persisting best-effort checkpoint")
			mu.Lock()
			checkpoint()
			mu.Unlock()
			result.Err = ctx.Err()
			log.Println("╚════════════════════════════════════════════════════════════════")
			return result
		default:
		}

		wg.Add(1)
		sem <- struct{}{}
		go func(f services.FileMeta) {
			defer wg.Done()
			defer func() { <-sem }()

			entry, corrupt, embedFailed := s.processOne(ctx, f, task.UseEmbedV4)

			mu.Lock()
			defer mu.Unlock()
			if embedFailed {
				// No checkpoint here: working is unchanged, so there is
				// nothing new to persist, only a skip to retry next run.
				result.EmbedFailures++
				return
			}
			working = append(working, entry)
			result.Added++
			if corrupt {
				result.Corrupt++
			}
			sinceCheckpoint++
			if sinceCheckpoint >= s.checkpointInterval {
				checkpoint()
			}
		}(f)
	}
	wg.Wait()
	log.Printf("║ ✓ processed %d new files (%d corrupt, %d embed failures)", result.Added, result.Corrupt, result.EmbedFailures)

	if len(toAdd) == 0 && result.Deleted == 0 {
		log.Println("║ [STEP 5/6] No changes, skipping artifact write")
	} else {
		log.Println("║ [STEP 5/6] Persisting final artifact...")
		if err := s.persistArtifact(ctx, task.UUID, working); err != nil {
			log.Printf("║ ❌ FAILED: %v", err)
			result.Err = err
			log.Println("╚════════════════════════════════════════════════════════════════")
			return result
		}
		log.Println("║ ✓ artifact persisted")
	}

	log.Println("║ [STEP 6/6] Sync complete")
	log.Println("╚════════════════════════════════════════════════════════════════")
	return result
}

// processOne runs the download → normalize → embed pipeline for one file.
// corrupt is true when the file is persisted as a non-retriable corrupt
// entry; embedFailed is true when the file should be left for a future run.
func (s *SyncEngine) processOne(ctx context.Context, f services.FileMeta, useEmbedV4 bool) (entry services.EmbeddingEntry, corrupt bool, embedFailed bool) {
	entry = services.EmbeddingEntry{
		Filename:   f.Name,
		Filepath:   f.WebViewLink,
		FolderPath: f.FolderPath,
	}

	data, err := s.drive.Download(ctx, f.ID)
	if err != nil {
		logger.SyncError("download_failure", "failed to download file", err, map[string]interface{}{"file_id": f.ID, "filename": f.Name})
		embedFailed = true
		return
	}

	normalized, err := s.normalizer.Normalize(ctx, data, f.Name)
	if err != nil {
		var nerr *services.NormalizeError
		if asNormalizeError(err, &nerr) {
			entry.IsCorrupt = true
			entry.CorruptReason = string(nerr.Reason)
			logger.SyncError("normalizer_"+string(nerr.Reason), "normalization failed", err, map[string]interface{}{"filename": f.Name})
			corrupt = true
			return
		}
		logger.SyncError("normalize_error", "unexpected normalizer error", err, map[string]interface{}{"filename": f.Name})
		embedFailed = true
		return
	}

	hint := services.ModelHintTextV3
	if useEmbedV4 {
		hint = services.ModelHintMultimodalV4
	}

	vec, err := s.provider.EmbedMultimodal(ctx, f.Name, normalized, hint)
	if err != nil {
		logger.EmbedError("embedding_failure", "embedding failed", err, map[string]interface{}{"filename": f.Name})
		embedFailed = true
		return
	}
	entry.Embedding = vec
	return
}

func asNormalizeError(err error, target **services.NormalizeError) bool {
	type unwrapper interface{ Unwrap() error }
	for err != nil {
		if ne, ok := err.(*services.NormalizeError); ok {
			*target = ne
			return true
		}
		u, ok := err.(unwrapper)
		if !ok {
			return false
		}
		err = u.Unwrap()
	}
	return false
}

func joinPath(folderPath, filename string) string {
	if folderPath == "" {
		return filename
	}
	return folderPath + "/" + filename
}

// SyncBatch runs each task sequentially; a per-tenant failure does not
// abort the batch.
func (s *SyncEngine) SyncBatch(ctx context.Context, tasks []services.SyncTask) []services.SyncResult {
	results := make([]services.SyncResult, 0, len(tasks))
	for _, t := range tasks {
		results = append(results, s.Sync(ctx, t))
	}
	return results
}

// WithSignalHandling wraps fn with a SIGINT/SIGTERM handler that cancels
// ctx, giving the Sync Engine a chance to persist a final checkpoint before
// the process exits. Grounded on the signal-driven cancellation pattern
// used for long-running worker loops.
func WithSignalHandling(parent context.Context, fn func(ctx context.Context) error) error {
	ctx, cancel := context.WithCancel(parent)
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	done := make(chan error, 1)
	go func() { done <- fn(ctx) }()

	select {
	case sig := <-sigCh:
		logger.Sync("signal_received", "received termination signal, cancelling run", map[string]interface{}{"signal": sig.String()})
		cancel()
		return <-done
	case err := <-done:
		return err
	}
}

var _ services.SyncEngine = (*SyncEngine)(nil)
