package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"drivesync/domain/services"
)

type fakeWatchHandlerStore struct {
	companies map[string]services.CompanyState
	drives    map[string]services.DriveChannelState
}

func newFakeWatchHandlerStore() *fakeWatchHandlerStore {
	return &fakeWatchHandlerStore{companies: make(map[string]services.CompanyState), drives: make(map[string]services.DriveChannelState)}
}
func (f *fakeWatchHandlerStore) SaveCompanyState(_ context.Context, s services.CompanyState) error {
	f.companies[s.UUID] = s
	return nil
}
func (f *fakeWatchHandlerStore) LoadCompanyState(_ context.Context, uuid string) (*services.CompanyState, error) {
	s, ok := f.companies[uuid]
	if !ok {
		return nil, nil
	}
	return &s, nil
}
func (f *fakeWatchHandlerStore) DeleteCompanyState(_ context.Context, uuid string) error {
	delete(f.companies, uuid)
	return nil
}
func (f *fakeWatchHandlerStore) ListCompanyStates(_ context.Context) ([]services.CompanyState, error) {
	out := make([]services.CompanyState, 0, len(f.companies))
	for _, s := range f.companies {
		out = append(out, s)
	}
	return out, nil
}
func (f *fakeWatchHandlerStore) CompaniesByDrive(_ context.Context, driveKey string) ([]services.CompanyState, error) {
	var out []services.CompanyState
	for _, s := range f.companies {
		k := s.DriveID
		if k == "" {
			k = "root"
		}
		if k == driveKey {
			out = append(out, s)
		}
	}
	return out, nil
}
func (f *fakeWatchHandlerStore) SaveDriveChannelState(_ context.Context, s services.DriveChannelState) error {
	f.drives[s.DriveKey] = s
	return nil
}
func (f *fakeWatchHandlerStore) LoadDriveChannelState(_ context.Context, driveKey string) (*services.DriveChannelState, error) {
	s, ok := f.drives[driveKey]
	if !ok {
		return nil, nil
	}
	return &s, nil
}
func (f *fakeWatchHandlerStore) DeleteDriveChannelState(_ context.Context, driveKey string) error {
	delete(f.drives, driveKey)
	return nil
}
func (f *fakeWatchHandlerStore) FindDriveStateByChannelID(_ context.Context, channelID string) (*services.DriveChannelState, error) {
	for _, s := range f.drives {
		if s.ChannelID == channelID {
			cp := s
			return &cp, nil
		}
	}
	return nil, nil
}

var _ services.WatchStateStore = (*fakeWatchHandlerStore)(nil)

type fakeWatchHandlerDrive struct {
	folderID, driveID string
	resolveErr        error
	watchCalls        int
}

func (f *fakeWatchHandlerDrive) ListFolderTree(context.Context, string) ([]services.FileMeta, error) {
	return nil, nil
}
func (f *fakeWatchHandlerDrive) ResolveFolder(context.Context, string) (string, string, error) {
	return f.folderID, f.driveID, f.resolveErr
}
func (f *fakeWatchHandlerDrive) Download(context.Context, string) ([]byte, error) { return nil, nil }
func (f *fakeWatchHandlerDrive) GetStartPageToken(context.Context, string) (string, error) {
	return "start-token", nil
}
func (f *fakeWatchHandlerDrive) ListChanges(context.Context, string, string) (services.ChangeFeedPage, error) {
	return services.ChangeFeedPage{}, nil
}
func (f *fakeWatchHandlerDrive) WatchCreate(_ context.Context, channelID, _, _ string, _ int) (services.WatchHandle, error) {
	f.watchCalls++
	return services.WatchHandle{ResourceID: "resource-" + channelID, Expiration: 123}, nil
}
func (f *fakeWatchHandlerDrive) WatchStop(context.Context, string, string) error { return nil }
func (f *fakeWatchHandlerDrive) GetFileParent(context.Context, string) (string, error) {
	return "", nil
}

var _ services.DriveAdapter = (*fakeWatchHandlerDrive)(nil)

func TestDriveWatchCreate_OpensNewChannelWhenNoneExists(t *testing.T) {
	drive := &fakeWatchHandlerDrive{folderID: "folder-1", driveID: ""}
	watch := newFakeWatchHandlerStore()
	h := NewDriveWatchHandler(drive, watch)

	app := fiber.New()
	app.Post("/drive/watch", h.Create)

	body, _ := json.Marshal(map[string]string{"uuid": "tenant-1", "drive_url": "https://drive/folder-1"})
	req := httptest.NewRequest(fiber.MethodPost, "/drive/watch", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, 1, drive.watchCalls)
	assert.Contains(t, watch.companies, "tenant-1")
}

func TestDriveWatchCreate_ReusesExistingChannelForSameDrive(t *testing.T) {
	drive := &fakeWatchHandlerDrive{folderID: "folder-1", driveID: ""}
	watch := newFakeWatchHandlerStore()
	watch.drives["root"] = services.DriveChannelState{DriveKey: "root", ChannelID: "existing-chan", ResourceID: "existing-res"}
	h := NewDriveWatchHandler(drive, watch)

	app := fiber.New()
	app.Post("/drive/watch", h.Create)

	body, _ := json.Marshal(map[string]string{"uuid": "tenant-2", "drive_url": "https://drive/folder-1"})
	req := httptest.NewRequest(fiber.MethodPost, "/drive/watch", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, 0, drive.watchCalls)

	var payload map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&payload))
	assert.Equal(t, "existing-chan", payload["channel_id"])
	assert.Equal(t, false, payload["is_new_channel"])
}

func TestDriveWatchDelete_NoContentWhenNoSubscription(t *testing.T) {
	h := NewDriveWatchHandler(&fakeWatchHandlerDrive{}, newFakeWatchHandlerStore())
	app := fiber.New()
	app.Delete("/drive/watch/:uuid", h.Delete)

	req := httptest.NewRequest(fiber.MethodDelete, "/drive/watch/unknown", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNoContent, resp.StatusCode)
}

func TestDriveWatchDelete_KeepsChannelWhileOtherSubscribersRemain(t *testing.T) {
	drive := &fakeWatchHandlerDrive{}
	watch := newFakeWatchHandlerStore()
	watch.companies["tenant-1"] = services.CompanyState{UUID: "tenant-1", DriveID: ""}
	watch.companies["tenant-2"] = services.CompanyState{UUID: "tenant-2", DriveID: ""}
	watch.drives["root"] = services.DriveChannelState{DriveKey: "root", ChannelID: "chan-1"}
	h := NewDriveWatchHandler(drive, watch)

	app := fiber.New()
	app.Delete("/drive/watch/:uuid", h.Delete)

	req := httptest.NewRequest(fiber.MethodDelete, "/drive/watch/tenant-1", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNoContent, resp.StatusCode)
	assert.NotContains(t, watch.companies, "tenant-1")
	assert.Contains(t, watch.drives, "root")
}

func TestDriveWatchDelete_StopsChannelWhenLastSubscriberLeaves(t *testing.T) {
	drive := &fakeWatchHandlerDrive{}
	watch := newFakeWatchHandlerStore()
	watch.companies["tenant-1"] = services.CompanyState{UUID: "tenant-1", DriveID: ""}
	watch.drives["root"] = services.DriveChannelState{DriveKey: "root", ChannelID: "chan-1"}
	h := NewDriveWatchHandler(drive, watch)

	app := fiber.New()
	app.Delete("/drive/watch/:uuid", h.Delete)

	req := httptest.NewRequest(fiber.MethodDelete, "/drive/watch/tenant-1", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNoContent, resp.StatusCode)
	assert.NotContains(t, watch.drives, "root")
}
