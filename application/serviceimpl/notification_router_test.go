package serviceimpl

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"drivesync/domain/models"
	"drivesync/domain/services"
)

// fakeWatchStore is a minimal in-memory WatchStateStore double.
type fakeWatchStore struct {
	companies map[string]services.CompanyState
	drives    map[string]services.DriveChannelState
}

func newFakeWatchStore() *fakeWatchStore {
	return &fakeWatchStore{
		companies: make(map[string]services.CompanyState),
		drives:    make(map[string]services.DriveChannelState),
	}
}

func (f *fakeWatchStore) SaveCompanyState(_ context.Context, s services.CompanyState) error {
	f.companies[s.UUID] = s
	return nil
}
func (f *fakeWatchStore) LoadCompanyState(_ context.Context, uuid string) (*services.CompanyState, error) {
	s, ok := f.companies[uuid]
	if !ok {
		return nil, nil
	}
	return &s, nil
}
func (f *fakeWatchStore) DeleteCompanyState(_ context.Context, uuid string) error {
	delete(f.companies, uuid)
	return nil
}
func (f *fakeWatchStore) ListCompanyStates(_ context.Context) ([]services.CompanyState, error) {
	out := make([]services.CompanyState, 0, len(f.companies))
	for _, s := range f.companies {
		out = append(out, s)
	}
	return out, nil
}
func (f *fakeWatchStore) CompaniesByDrive(_ context.Context, driveKey string) ([]services.CompanyState, error) {
	var out []services.CompanyState
	for _, s := range f.companies {
		key := s.DriveID
		if key == "" {
			key = "root"
		}
		if key == driveKey {
			out = append(out, s)
		}
	}
	return out, nil
}
func (f *fakeWatchStore) SaveDriveChannelState(_ context.Context, s services.DriveChannelState) error {
	f.drives[s.DriveKey] = s
	return nil
}
func (f *fakeWatchStore) LoadDriveChannelState(_ context.Context, driveKey string) (*services.DriveChannelState, error) {
	s, ok := f.drives[driveKey]
	if !ok {
		return nil, nil
	}
	return &s, nil
}
func (f *fakeWatchStore) DeleteDriveChannelState(_ context.Context, driveKey string) error {
	delete(f.drives, driveKey)
	return nil
}
func (f *fakeWatchStore) FindDriveStateByChannelID(_ context.Context, channelID string) (*services.DriveChannelState, error) {
	for _, s := range f.drives {
		if s.ChannelID == channelID {
			cp := s
			return &cp, nil
		}
	}
	return nil, nil
}

// fakeDriveAdapter implements services.DriveAdapter with a scripted parent
// chain and a page-token-expired toggle.
type fakeDriveAdapter struct {
	parents       map[string]string
	expirePageTok bool
	startToken    string
	changes       services.ChangeFeedPage
}

func (f *fakeDriveAdapter) ListFolderTree(context.Context, string) ([]services.FileMeta, error) {
	return nil, nil
}
func (f *fakeDriveAdapter) ResolveFolder(context.Context, string) (string, string, error) {
	return "", "", nil
}
func (f *fakeDriveAdapter) Download(context.Context, string) ([]byte, error) { return nil, nil }
func (f *fakeDriveAdapter) GetStartPageToken(context.Context, string) (string, error) {
	return f.startToken, nil
}

type fakePageTokenExpiredErr struct{}

func (fakePageTokenExpiredErr) Error() string          { return "page token expired" }
func (fakePageTokenExpiredErr) PageTokenExpired() bool { return true }

func (f *fakeDriveAdapter) ListChanges(_ context.Context, pageToken, _ string) (services.ChangeFeedPage, error) {
	if f.expirePageTok {
		return services.ChangeFeedPage{}, fakePageTokenExpiredErr{}
	}
	return f.changes, nil
}
func (f *fakeDriveAdapter) WatchCreate(context.Context, string, string, string, int) (services.WatchHandle, error) {
	return services.WatchHandle{}, nil
}
func (f *fakeDriveAdapter) WatchStop(context.Context, string, string) error { return nil }
func (f *fakeDriveAdapter) GetFileParent(_ context.Context, fileID string) (string, error) {
	return f.parents[fileID], nil
}

var _ services.DriveAdapter = (*fakeDriveAdapter)(nil)

// fakeDispatcher records every dispatch call.
type fakeDispatcher struct {
	dispatched []services.DispatchTask
	failUUID   string
}

func (f *fakeDispatcher) Dispatch(_ context.Context, task services.DispatchTask) (string, error) {
	if task.UUID == f.failUUID {
		return "", assert.AnError
	}
	f.dispatched = append(f.dispatched, task)
	return "exec-" + task.UUID, nil
}
func (f *fakeDispatcher) DispatchBatch(context.Context, []services.DispatchTask) (string, error) {
	return "", nil
}

// fakeLogRepo discards notification audit rows.
type fakeLogRepo struct{ entries []*models.NotificationLog }

func (f *fakeLogRepo) Create(_ context.Context, log *models.NotificationLog) error {
	f.entries = append(f.entries, log)
	return nil
}

func TestHandle_UnknownChannelIsUnhandled(t *testing.T) {
	watch := newFakeWatchStore()
	drive := &fakeDriveAdapter{}
	dispatcher := &fakeDispatcher{}
	logs := &fakeLogRepo{}

	router := NewDriveNotificationRouter(watch, drive, dispatcher, nil, logs, 60)
	result, err := router.Handle(context.Background(), "missing-channel", "update", nil)

	require.NoError(t, err)
	assert.False(t, result.Handled)
}

func TestHandle_SyncHandshakeIsHandledWithoutDispatch(t *testing.T) {
	watch := newFakeWatchStore()
	watch.drives["root"] = services.DriveChannelState{DriveKey: "root", ChannelID: "chan-1", PageToken: "tok-1"}
	drive := &fakeDriveAdapter{}
	dispatcher := &fakeDispatcher{}
	logs := &fakeLogRepo{}

	router := NewDriveNotificationRouter(watch, drive, dispatcher, nil, logs, 60)
	result, err := router.Handle(context.Background(), "chan-1", "sync", nil)

	require.NoError(t, err)
	assert.True(t, result.Handled)
	assert.Equal(t, "sync", result.Status)
	assert.Empty(t, dispatcher.dispatched)
}

func TestHandle_FiltersNonContentChangedTypes(t *testing.T) {
	watch := newFakeWatchStore()
	watch.drives["root"] = services.DriveChannelState{DriveKey: "root", ChannelID: "chan-1", PageToken: "tok-1"}
	drive := &fakeDriveAdapter{}
	dispatcher := &fakeDispatcher{}
	logs := &fakeLogRepo{}

	router := NewDriveNotificationRouter(watch, drive, dispatcher, nil, logs, 60)
	result, err := router.Handle(context.Background(), "chan-1", "update", []string{"properties"})

	require.NoError(t, err)
	assert.Equal(t, "filtered_changed_type", result.Status)
}

func TestHandle_RoutesDescendantChangeAndDispatches(t *testing.T) {
	watch := newFakeWatchStore()
	watch.drives["root"] = services.DriveChannelState{DriveKey: "root", ChannelID: "chan-1", PageToken: "tok-1"}
	watch.companies["tenant-1"] = services.CompanyState{UUID: "tenant-1", FolderID: "folder-1", DriveURL: "https://drive/folder-1"}

	drive := &fakeDriveAdapter{
		parents: map[string]string{"parent-of-file": "folder-1"},
		changes: services.ChangeFeedPage{
			Changes:       []services.ChangeEntry{{FileID: "file-1", ParentID: "parent-of-file"}},
			NextPageToken: "",
		},
	}
	dispatcher := &fakeDispatcher{}
	logs := &fakeLogRepo{}

	router := NewDriveNotificationRouter(watch, drive, dispatcher, nil, logs, 60)
	result, err := router.Handle(context.Background(), "chan-1", "update", []string{"content"})

	require.NoError(t, err)
	assert.Equal(t, "ok", result.Status)
	assert.Equal(t, 1, result.ChangesFound)
	assert.Equal(t, 1, result.JobsTriggered)
	require.Len(t, dispatcher.dispatched, 1)
	assert.Equal(t, "tenant-1", dispatcher.dispatched[0].UUID)
	require.Len(t, logs.entries, 1)
}

func TestHandle_RemovedChangeAlwaysCountsAsRelevant(t *testing.T) {
	watch := newFakeWatchStore()
	watch.drives["root"] = services.DriveChannelState{DriveKey: "root", ChannelID: "chan-1", PageToken: "tok-1"}
	watch.companies["tenant-1"] = services.CompanyState{UUID: "tenant-1", FolderID: "folder-1"}

	drive := &fakeDriveAdapter{
		changes: services.ChangeFeedPage{Changes: []services.ChangeEntry{{FileID: "file-1", Removed: true}}},
	}
	dispatcher := &fakeDispatcher{}
	logs := &fakeLogRepo{}

	router := NewDriveNotificationRouter(watch, drive, dispatcher, nil, logs, 60)
	result, err := router.Handle(context.Background(), "chan-1", "update", nil)

	require.NoError(t, err)
	assert.Equal(t, 1, result.JobsTriggered)
}

func TestHandle_RespectsCooldownWindow(t *testing.T) {
	watch := newFakeWatchStore()
	watch.drives["root"] = services.DriveChannelState{DriveKey: "root", ChannelID: "chan-1", PageToken: "tok-1"}
	watch.companies["tenant-1"] = services.CompanyState{
		UUID:             "tenant-1",
		FolderID:         "folder-1",
		LastJobTriggerTS: time.Now().Unix(),
	}

	drive := &fakeDriveAdapter{
		changes: services.ChangeFeedPage{Changes: []services.ChangeEntry{{FileID: "file-1", Removed: true}}},
	}
	dispatcher := &fakeDispatcher{}
	logs := &fakeLogRepo{}

	router := NewDriveNotificationRouter(watch, drive, dispatcher, nil, logs, 600)
	result, err := router.Handle(context.Background(), "chan-1", "update", nil)

	require.NoError(t, err)
	assert.Equal(t, 0, result.JobsTriggered)
	assert.Empty(t, dispatcher.dispatched)
}

func TestHandle_PageTokenExpiredResetsCursorWithoutRouting(t *testing.T) {
	watch := newFakeWatchStore()
	watch.drives["root"] = services.DriveChannelState{DriveKey: "root", ChannelID: "chan-1", PageToken: "stale-token"}
	watch.companies["tenant-1"] = services.CompanyState{UUID: "tenant-1", FolderID: "folder-1"}

	drive := &fakeDriveAdapter{expirePageTok: true, startToken: "fresh-token"}
	dispatcher := &fakeDispatcher{}
	logs := &fakeLogRepo{}

	router := NewDriveNotificationRouter(watch, drive, dispatcher, nil, logs, 60)
	result, err := router.Handle(context.Background(), "chan-1", "update", nil)

	require.NoError(t, err)
	assert.Equal(t, 0, result.ChangesFound)
	assert.Equal(t, "fresh-token", watch.drives["root"].PageToken)
	assert.Empty(t, dispatcher.dispatched)
}

func TestIsDescendant_DetectsCycleWithoutInfiniteLoop(t *testing.T) {
	drive := &fakeDriveAdapter{parents: map[string]string{"a": "b", "b": "a"}}
	router := NewDriveNotificationRouter(newFakeWatchStore(), drive, &fakeDispatcher{}, nil, &fakeLogRepo{}, 60)

	visited := make(map[string]struct{})
	assert.False(t, router.isDescendant(context.Background(), "a", "not-in-chain", visited))
}

// TestHandle_RoutesToSecondCompanyAfterFirstCompanyWalksSharedAncestors
// reproduces a drive shared by two companies where company A's folder is
// unrelated to the changed file but sits along the same ancestor chain
// walked first; company B's folder is further down that chain. Each
// isDescendant call must start from a fresh visited set or B's walk would
// short-circuit on nodes A's walk already marked visited.
func TestHandle_RoutesToSecondCompanyAfterFirstCompanyWalksSharedAncestors(t *testing.T) {
	watch := newFakeWatchStore()
	watch.drives["root"] = services.DriveChannelState{DriveKey: "root", ChannelID: "chan-1", PageToken: "tok-1"}
	watch.companies["company-a"] = services.CompanyState{UUID: "company-a", FolderID: "folder-x"}
	watch.companies["company-b"] = services.CompanyState{UUID: "company-b", FolderID: "folder-f1"}

	drive := &fakeDriveAdapter{
		parents: map[string]string{
			"folder-f2": "folder-f1",
			"folder-f1": "folder-root",
		},
		changes: services.ChangeFeedPage{
			Changes: []services.ChangeEntry{{FileID: "file-p", ParentID: "folder-f2"}},
		},
	}
	dispatcher := &fakeDispatcher{}
	logs := &fakeLogRepo{}

	router := NewDriveNotificationRouter(watch, drive, dispatcher, nil, logs, 60)
	result, err := router.Handle(context.Background(), "chan-1", "update", []string{"content"})

	require.NoError(t, err)
	assert.Equal(t, 1, result.JobsTriggered)
	require.Len(t, dispatcher.dispatched, 1)
	assert.Equal(t, "company-b", dispatcher.dispatched[0].UUID)
}
