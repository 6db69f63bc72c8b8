// Package watchstate implements the Watch State Store (C7): a namespaced
// key-value view over the Blob Store Adapter (C1), per §4.6 — not Redis.
package watchstate

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"drivesync/domain/services"
)

// Store persists CompanyState and DriveChannelState under one prefix,
// discriminated by key shape (<prefix>/<uuid>.json vs
// <prefix>/drive-channel-<drive_id|"root">.json).
type Store struct {
	blob   services.BlobStore
	bucket string
	prefix string
}

// New builds a Store rooted at bucket/prefix.
func New(blob services.BlobStore, bucket, prefix string) *Store {
	return &Store{blob: blob, bucket: bucket, prefix: strings.Trim(prefix, "/")}
}

func (s *Store) companyKey(uuid string) string {
	return fmt.Sprintf("%s/%s.json", s.prefix, uuid)
}

func (s *Store) driveChannelKey(driveKey string) string {
	if driveKey == "" {
		driveKey = "root"
	}
	return fmt.Sprintf("%s/drive-channel-%s.json", s.prefix, driveKey)
}

func (s *Store) SaveCompanyState(ctx context.Context, st services.CompanyState) error {
	data, err := json.Marshal(st)
	if err != nil {
		return fmt.Errorf("watchstate: marshal company state %s: %w", st.UUID, err)
	}
	return s.blob.Write(ctx, s.bucket, s.companyKey(st.UUID), data)
}

func (s *Store) LoadCompanyState(ctx context.Context, uuid string) (*services.CompanyState, error) {
	data, err := s.blob.Read(ctx, s.bucket, s.companyKey(uuid))
	if err != nil {
		if services.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("watchstate: load company state %s: %w", uuid, err)
	}
	var st services.CompanyState
	if err := json.Unmarshal(data, &st); err != nil {
		return nil, fmt.Errorf("watchstate: parse company state %s: %w", uuid, err)
	}
	return &st, nil
}

func (s *Store) DeleteCompanyState(ctx context.Context, uuid string) error {
	return s.blob.Delete(ctx, s.bucket, s.companyKey(uuid))
}

func (s *Store) ListCompanyStates(ctx context.Context) ([]services.CompanyState, error) {
	names, err := s.blob.List(ctx, s.bucket, s.prefix+"/")
	if err != nil {
		return nil, fmt.Errorf("watchstate: list company states: %w", err)
	}

	var states []services.CompanyState
	for _, name := range names {
		if strings.Contains(name, "drive-channel-") {
			continue
		}
		data, err := s.blob.Read(ctx, s.bucket, name)
		if err != nil {
			continue
		}
		var st services.CompanyState
		if err := json.Unmarshal(data, &st); err != nil {
			continue
		}
		states = append(states, st)
	}
	return states, nil
}

func (s *Store) CompaniesByDrive(ctx context.Context, driveKey string) ([]services.CompanyState, error) {
	all, err := s.ListCompanyStates(ctx)
	if err != nil {
		return nil, err
	}
	var matches []services.CompanyState
	for _, st := range all {
		key := st.DriveID
		if key == "" {
			key = "root"
		}
		if key == driveKey {
			matches = append(matches, st)
		}
	}
	return matches, nil
}

func (s *Store) SaveDriveChannelState(ctx context.Context, st services.DriveChannelState) error {
	data, err := json.Marshal(st)
	if err != nil {
		return fmt.Errorf("watchstate: marshal drive channel state %s: %w", st.DriveKey, err)
	}
	return s.blob.Write(ctx, s.bucket, s.driveChannelKey(st.DriveKey), data)
}

func (s *Store) LoadDriveChannelState(ctx context.Context, driveKey string) (*services.DriveChannelState, error) {
	data, err := s.blob.Read(ctx, s.bucket, s.driveChannelKey(driveKey))
	if err != nil {
		if services.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("watchstate: load drive channel state %s: %w", driveKey, err)
	}
	var st services.DriveChannelState
	if err := json.Unmarshal(data, &st); err != nil {
		return nil, fmt.Errorf("watchstate: parse drive channel state %s: %w", driveKey, err)
	}
	return &st, nil
}

func (s *Store) DeleteDriveChannelState(ctx context.Context, driveKey string) error {
	return s.blob.Delete(ctx, s.bucket, s.driveChannelKey(driveKey))
}

// FindDriveStateByChannelID linearly scans drive-channel objects — the
// namespace is small (one per physical drive with active subscribers) so
// this is not worth indexing separately per §4.6.
func (s *Store) FindDriveStateByChannelID(ctx context.Context, channelID string) (*services.DriveChannelState, error) {
	names, err := s.blob.List(ctx, s.bucket, s.prefix+"/drive-channel-")
	if err != nil {
		return nil, fmt.Errorf("watchstate: list drive channel states: %w", err)
	}
	for _, name := range names {
		data, err := s.blob.Read(ctx, s.bucket, name)
		if err != nil {
			continue
		}
		var st services.DriveChannelState
		if err := json.Unmarshal(data, &st); err != nil {
			continue
		}
		if st.ChannelID == channelID {
			return &st, nil
		}
	}
	return nil, nil
}

var _ services.WatchStateStore = (*Store)(nil)
