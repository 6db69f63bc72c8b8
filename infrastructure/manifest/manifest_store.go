// Package manifest implements the Manifest side of the Scheduler's
// change-detection gate (§3, §4.9), grounded on
// original_source/scheduler/manifest_store.py: a manifest is a JSON object
// in a separate bucket keyed by uuid.json, mapping file_id to the metadata
// needed to detect adds/removes/modifications without a full re-sync.
package manifest

import (
	"context"
	"encoding/json"
	"fmt"

	"drivesync/domain/services"
)

type Store struct {
	blob   services.BlobStore
	bucket string
}

func New(blob services.BlobStore, bucket string) *Store {
	return &Store{blob: blob, bucket: bucket}
}

func blobName(uuid string) string {
	return fmt.Sprintf("%s.json", uuid)
}

func (s *Store) Load(ctx context.Context, uuid string) (*services.Manifest, error) {
	data, err := s.blob.Read(ctx, s.bucket, blobName(uuid))
	if err != nil {
		if services.IsNotExist(err) {
			return &services.Manifest{Files: map[string]services.ManifestFileEntry{}}, nil
		}
		return nil, fmt.Errorf("manifest: load %s: %w", uuid, err)
	}

	var m services.Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("manifest: parse %s: %w", uuid, err)
	}
	if m.Files == nil {
		m.Files = map[string]services.ManifestFileEntry{}
	}
	return &m, nil
}

func (s *Store) Save(ctx context.Context, uuid string, m services.Manifest) error {
	m.FilesCount = len(m.Files)
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("manifest: marshal %s: %w", uuid, err)
	}
	return s.blob.Write(ctx, s.bucket, blobName(uuid), data)
}

// NeedsUpdate fails open: any read/parse error (surfaced as Load returning
// an error) or an absent checksum treats the tenant as needing a refresh,
// per §4.9.
func (s *Store) NeedsUpdate(ctx context.Context, uuid string, current []services.FileMeta, checksums map[string]string, sizes map[string]int64, modifiedTimes map[string]string) bool {
	m, err := s.Load(ctx, uuid)
	if err != nil {
		return true
	}

	currentIDs := make(map[string]struct{}, len(current))
	for _, f := range current {
		currentIDs[f.ID] = struct{}{}

		checksum, haveChecksum := checksums[f.ID]
		if !haveChecksum || checksum == "" {
			// Absent checksum is fail-safe "needs update" per §4.9.
			return true
		}

		prev, existed := m.Files[f.ID]
		if !existed {
			return true
		}
		if prev.ModifiedTime != modifiedTimes[f.ID] || prev.Size != sizes[f.ID] || prev.Checksum != checksum {
			return true
		}
	}

	for prevID := range m.Files {
		if _, stillPresent := currentIDs[prevID]; !stillPresent {
			return true
		}
	}

	return false
}

var _ services.ManifestStore = (*Store)(nil)
