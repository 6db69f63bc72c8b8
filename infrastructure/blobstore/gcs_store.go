package blobstore

import (
	"context"
	"errors"
	"fmt"
	"io"

	"cloud.google.com/go/storage"
	"google.golang.org/api/iterator"

	"drivesync/domain/services"
)

// GCSStore implements services.BlobStore against Google Cloud Storage. It
// is the content-addressed store named by the spec as "Blob Store" — every
// write is a full-object upload, relying on GCS's strong read-after-write
// consistency instead of any local write-ahead log or lock.
type GCSStore struct {
	client *storage.Client
}

// NewGCSStore wraps an already-constructed storage client. Credential
// acquisition is out of scope for this component (§11) — the caller
// decides whether that's application-default credentials, a service
// account key, or workload identity.
func NewGCSStore(client *storage.Client) *GCSStore {
	return &GCSStore{client: client}
}

type notFoundError struct{ path string }

func (e *notFoundError) Error() string { return fmt.Sprintf("object not found: %s", e.path) }
func (e *notFoundError) NotExist() bool { return true }

func (s *GCSStore) Read(ctx context.Context, bucket, path string) ([]byte, error) {
	r, err := s.client.Bucket(bucket).Object(path).NewReader(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotExist) {
			return nil, &notFoundError{path: path}
		}
		return nil, fmt.Errorf("blobstore: open reader for %s/%s: %w", bucket, path, err)
	}
	defer r.Close()

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("blobstore: read %s/%s: %w", bucket, path, err)
	}
	return data, nil
}

func (s *GCSStore) Write(ctx context.Context, bucket, path string, data []byte) error {
	w := s.client.Bucket(bucket).Object(path).NewWriter(ctx)
	w.ContentType = "application/json"

	if _, err := w.Write(data); err != nil {
		_ = w.Close()
		return fmt.Errorf("blobstore: write %s/%s: %w", bucket, path, err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("blobstore: finalize write %s/%s: %w", bucket, path, err)
	}
	return nil
}

func (s *GCSStore) Exists(ctx context.Context, bucket, path string) (bool, error) {
	_, err := s.client.Bucket(bucket).Object(path).Attrs(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("blobstore: stat %s/%s: %w", bucket, path, err)
	}
	return true, nil
}

func (s *GCSStore) Delete(ctx context.Context, bucket, path string) error {
	err := s.client.Bucket(bucket).Object(path).Delete(ctx)
	if err != nil && !errors.Is(err, storage.ErrObjectNotExist) {
		return fmt.Errorf("blobstore: delete %s/%s: %w", bucket, path, err)
	}
	return nil
}

func (s *GCSStore) List(ctx context.Context, bucket, prefix string) ([]string, error) {
	it := s.client.Bucket(bucket).Objects(ctx, &storage.Query{Prefix: prefix})
	var names []string
	for {
		attrs, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("blobstore: list %s/%s*: %w", bucket, prefix, err)
		}
		names = append(names, attrs.Name)
	}
	return names, nil
}

var _ services.BlobStore = (*GCSStore)(nil)
