// Package googledrive implements the Drive Adapter (C2) against the real
// Google Drive v3 API.
package googledrive

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"drivesync/domain/services"
	"drivesync/pkg/logger"
)

// resourceKeyRoundTripper adds the X-Goog-Drive-Resource-Keys header
// required by shared folders created before Drive's 2021 resource-key
// rollout.
type resourceKeyRoundTripper struct {
	base        http.RoundTripper
	folderID    string
	resourceKey string
}

func (t *resourceKeyRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	req.Header.Set("X-Goog-Drive-Resource-Keys", fmt.Sprintf("%s/%s", t.folderID, t.resourceKey))
	base := t.base
	if base == nil {
		base = http.DefaultTransport
	}
	return base.RoundTrip(req)
}

// Adapter implements services.DriveAdapter against one authenticated Drive
// service handle. Construct one per tenant request/job — it holds no
// per-call mutable state beyond the underlying HTTP client.
type Adapter struct {
	srv        *drive.Service
	webhookURL string
}

// NewAdapter builds an Adapter from a token source already carrying a
// refreshed OAuth2 token; credential acquisition itself is out of scope
// (§11) and is the caller's responsibility.
func NewAdapter(ctx context.Context, tokenSource oauth2.TokenSource, webhookURL string) (*Adapter, error) {
	srv, err := drive.NewService(ctx, option.WithTokenSource(tokenSource))
	if err != nil {
		return nil, fmt.Errorf("drive: create service: %w", err)
	}
	return &Adapter{srv: srv, webhookURL: webhookURL}, nil
}

// NewAdapterWithResourceKey is the legacy-shared-drive variant: it wraps
// the HTTP transport so every request carries the folder's resource key.
func NewAdapterWithResourceKey(ctx context.Context, tokenSource oauth2.TokenSource, webhookURL, folderID, resourceKey string) (*Adapter, error) {
	base := oauth2.NewClient(ctx, tokenSource)
	if resourceKey != "" && folderID != "" {
		base.Transport = &resourceKeyRoundTripper{
			base:        base.Transport,
			folderID:    folderID,
			resourceKey: resourceKey,
		}
	}
	srv, err := drive.NewService(ctx, option.WithHTTPClient(base))
	if err != nil {
		return nil, fmt.Errorf("drive: create service with resource key: %w", err)
	}
	return &Adapter{srv: srv, webhookURL: webhookURL}, nil
}

var folderIDPatterns = []*regexp.Regexp{
	regexp.MustCompile(`/folders/([a-zA-Z0-9_-]+)`),
	regexp.MustCompile(`open\?id=([a-zA-Z0-9_-]+)`),
	regexp.MustCompile(`/d/([a-zA-Z0-9_-]+)`),
}

// resolveFolderID accepts the documented forms — /folders/<id>,
// open?id=<id>, /d/<id>/, or a raw id — and returns the bare id.
func resolveFolderID(folderURL string) string {
	for _, re := range folderIDPatterns {
		if m := re.FindStringSubmatch(folderURL); len(m) == 2 {
			return m[1]
		}
	}
	return strings.TrimSpace(folderURL)
}

var imageMimeQuery = "mimeType='image/jpeg' or mimeType='image/png' or mimeType='image/gif' or mimeType='image/webp' or mimeType='image/bmp' or mimeType='image/svg+xml'"

// folderNode is an internal breadth-first enumeration record.
type folderNode struct {
	ID       string
	Name     string
	ParentID string
}

func (a *Adapter) listSubfolders(ctx context.Context, parentID string) ([]folderNode, error) {
	query := fmt.Sprintf("mimeType='application/vnd.google-apps.folder' and trashed=false and '%s' in parents", parentID)

	var folders []folderNode
	pageToken := ""
	for {
		call := a.srv.Files.List().
			Context(ctx).
			Q(query).
			Fields("nextPageToken, files(id, name, parents)").
			PageSize(100).
			SupportsAllDrives(true).
			IncludeItemsFromAllDrives(true)
		if pageToken != "" {
			call = call.PageToken(pageToken)
		}

		result, err := call.Do()
		if err != nil {
			// Per-folder listing failures are logged by the caller and the
			// enumeration continues with whatever siblings were found.
			return folders, fmt.Errorf("drive: list subfolders of %s: %w", parentID, err)
		}

		for _, f := range result.Files {
			parent := ""
			if len(f.Parents) > 0 {
				parent = f.Parents[0]
			}
			folders = append(folders, folderNode{ID: f.Id, Name: f.Name, ParentID: parent})
		}

		pageToken = result.NextPageToken
		if pageToken == "" {
			break
		}
	}
	return folders, nil
}

func (a *Adapter) listImagesInFolder(ctx context.Context, folderID string) ([]*drive.File, error) {
	query := fmt.Sprintf("'%s' in parents and trashed=false and (%s)", folderID, imageMimeQuery)

	var files []*drive.File
	pageToken := ""
	for {
		call := a.srv.Files.List().
			Context(ctx).
			Q(query).
			Fields("nextPageToken, files(id, name, mimeType, webViewLink, parents, modifiedTime, size, md5Checksum)").
			PageSize(100).
			SupportsAllDrives(true).
			IncludeItemsFromAllDrives(true)
		if pageToken != "" {
			call = call.PageToken(pageToken)
		}

		result, err := call.Do()
		if err != nil {
			return files, fmt.Errorf("drive: list images in %s: %w", folderID, err)
		}
		files = append(files, result.Files...)

		pageToken = result.NextPageToken
		if pageToken == "" {
			break
		}
	}
	return files, nil
}

// ListFolderTree resolves folder_url then breadth-first enumerates every
// subfolder (building a root-relative path map), then lists image leaves
// in each one. A failure listing one folder is logged and enumeration
// continues with the rest of the tree, per §4.1.
func (a *Adapter) ListFolderTree(ctx context.Context, folderURL string) ([]services.FileMeta, error) {
	rootID := resolveFolderID(folderURL)

	pathByID := map[string]string{rootID: ""}
	queue := []string{rootID}
	var allFolderErrs []error

	for len(queue) > 0 {
		parentID := queue[0]
		queue = queue[1:]

		children, err := a.listSubfolders(ctx, parentID)
		if err != nil {
			allFolderErrs = append(allFolderErrs, err)
			continue
		}
		parentPath := pathByID[parentID]
		for _, c := range children {
			childPath := c.Name
			if parentPath != "" {
				childPath = parentPath + "/" + c.Name
			}
			pathByID[c.ID] = childPath
			queue = append(queue, c.ID)
		}
	}

	var results []services.FileMeta
	for folderID, folderPath := range pathByID {
		files, err := a.listImagesInFolder(ctx, folderID)
		if err != nil {
			allFolderErrs = append(allFolderErrs, err)
			continue
		}
		for _, f := range files {
			results = append(results, services.FileMeta{
				ID:           f.Id,
				Name:         f.Name,
				FolderPath:   folderPath,
				WebViewLink:  f.WebViewLink,
				MimeType:     f.MimeType,
				ModifiedTime: f.ModifiedTime,
				Size:         f.Size,
				Checksum:     f.Md5Checksum,
			})
		}
	}

	// Partial results are returned even when some subtree failed; each
	// folder failure is logged here rather than aborting the whole sync.
	for _, ferr := range allFolderErrs {
		logger.DriveError("list_folder_failed", "failed to list drive folder, enumeration continued", ferr, map[string]interface{}{"folder_url": folderURL})
	}
	return results, nil
}

// ResolveFolder resolves folder_url to a bare folder id and reports the
// shared drive it lives on (empty for "My Drive").
func (a *Adapter) ResolveFolder(ctx context.Context, folderURL string) (string, string, error) {
	folderID := resolveFolderID(folderURL)

	f, err := a.srv.Files.Get(folderID).Context(ctx).Fields("id, driveId").SupportsAllDrives(true).Do()
	if err != nil {
		return "", "", fmt.Errorf("drive: resolve folder %s: %w", folderID, err)
	}
	return f.Id, f.DriveId, nil
}

func (a *Adapter) Download(ctx context.Context, fileID string) ([]byte, error) {
	resp, err := a.srv.Files.Get(fileID).Context(ctx).Download()
	if err != nil {
		return nil, fmt.Errorf("drive: download %s: %w", fileID, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("drive: read download body for %s: %w", fileID, err)
	}
	return data, nil
}

func (a *Adapter) GetStartPageToken(ctx context.Context, driveID string) (string, error) {
	call := a.srv.Changes.GetStartPageToken().Context(ctx)
	if driveID != "" {
		call = call.DriveId(driveID)
		call = call.SupportsAllDrives(true)
	}
	token, err := call.Do()
	if err != nil {
		return "", fmt.Errorf("drive: get start page token: %w", err)
	}
	return token.StartPageToken, nil
}

func (a *Adapter) ListChanges(ctx context.Context, pageToken, driveID string) (services.ChangeFeedPage, error) {
	var page services.ChangeFeedPage
	token := pageToken

	for {
		call := a.srv.Changes.List(token).
			Context(ctx).
			Fields("nextPageToken, newStartPageToken, changes(fileId, removed, file(id,name,parents,mimeType,trashed))").
			PageSize(100).
			SupportsAllDrives(true).
			IncludeItemsFromAllDrives(true)
		if driveID != "" {
			call = call.DriveId(driveID)
		}

		result, err := call.Do()
		if err != nil {
			if gerr, ok := err.(*googleapi.Error); ok && gerr.Code == 410 {
				return page, errPageTokenExpired
			}
			return page, fmt.Errorf("drive: list changes: %w", err)
		}

		for _, c := range result.Changes {
			entry := services.ChangeEntry{FileID: c.FileId, Removed: c.Removed}
			if c.File != nil {
				entry.Name = c.File.Name
				entry.MimeType = c.File.MimeType
				entry.Trashed = c.File.Trashed
				if len(c.File.Parents) > 0 {
					entry.ParentID = c.File.Parents[0]
				}
			}
			page.Changes = append(page.Changes, entry)
		}

		if result.NewStartPageToken != "" {
			page.NewStartPageToken = result.NewStartPageToken
			return page, nil
		}

		token = result.NextPageToken
		page.NextPageToken = token
		if token == "" {
			break
		}
	}
	return page, nil
}

type pageTokenExpiredError struct{}

func (pageTokenExpiredError) Error() string          { return "page_token_expired" }
func (pageTokenExpiredError) PageTokenExpired() bool { return true }

var errPageTokenExpired error = pageTokenExpiredError{}

func (a *Adapter) WatchCreate(ctx context.Context, channelID, callbackURL, driveID string, ttlSeconds int) (services.WatchHandle, error) {
	if callbackURL == "" {
		callbackURL = a.webhookURL
	}
	if callbackURL == "" {
		return services.WatchHandle{}, fmt.Errorf("drive: no callback URL configured for watch")
	}
	if ttlSeconds <= 0 {
		ttlSeconds = 86400
	}

	startToken, err := a.GetStartPageToken(ctx, driveID)
	if err != nil {
		return services.WatchHandle{}, err
	}

	channel := &drive.Channel{
		Id:         channelID,
		Type:       "web_hook",
		Address:    callbackURL,
		Expiration: time.Now().Add(time.Duration(ttlSeconds) * time.Second).UnixMilli(),
	}

	call := a.srv.Changes.Watch(startToken, channel).Context(ctx).SupportsAllDrives(true)
	if driveID != "" {
		call = call.DriveId(driveID)
	}
	result, err := call.Do()
	if err != nil {
		return services.WatchHandle{}, fmt.Errorf("drive: watch create: %w", err)
	}

	return services.WatchHandle{ResourceID: result.ResourceId, Expiration: result.Expiration}, nil
}

func (a *Adapter) WatchStop(ctx context.Context, channelID, resourceID string) error {
	channel := &drive.Channel{Id: channelID, ResourceId: resourceID}
	err := a.srv.Channels.Stop(channel).Context(ctx).Do()
	if err != nil {
		if gerr, ok := err.(*googleapi.Error); ok && (gerr.Code == 404 || gerr.Code == 410) {
			return nil
		}
		return fmt.Errorf("drive: watch stop: %w", err)
	}
	return nil
}

func (a *Adapter) GetFileParent(ctx context.Context, fileID string) (string, error) {
	f, err := a.srv.Files.Get(fileID).Context(ctx).Fields("id, parents").SupportsAllDrives(true).Do()
	if err != nil {
		return "", fmt.Errorf("drive: get parent of %s: %w", fileID, err)
	}
	if len(f.Parents) == 0 {
		return "", nil
	}
	return f.Parents[0], nil
}

var _ services.DriveAdapter = (*Adapter)(nil)
