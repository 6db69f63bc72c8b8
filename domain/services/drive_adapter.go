package services

import "context"

// IsPageTokenExpired reports whether err is the 410 sentinel ListChanges
// returns when Drive has expired the supplied change-feed cursor.
func IsPageTokenExpired(err error) bool {
	type pageTokenExpired interface{ PageTokenExpired() bool }
	pe, ok := err.(pageTokenExpired)
	return ok && pe.PageTokenExpired()
}

// FileMeta describes one image leaf discovered under a tenant's watched
// folder. ModifiedTime, Size, and Checksum are populated for the
// Scheduler's manifest gate (§4.9); they cost nothing extra since Drive
// returns them alongside id/name/mimeType in the same listing call.
type FileMeta struct {
	ID           string
	Name         string
	FolderPath   string // root-relative, slash-joined, empty at root
	WebViewLink  string
	MimeType     string
	ModifiedTime string
	Size         int64
	Checksum     string // Drive's md5Checksum, empty for Google-native formats
}

// ChangeEntry is one entry from the Drive change feed.
type ChangeEntry struct {
	FileID   string
	Removed  bool
	Name     string
	ParentID string
	MimeType string
	Trashed  bool
}

// ChangeFeedPage is the result of one list_changes call.
type ChangeFeedPage struct {
	Changes           []ChangeEntry
	NextPageToken     string
	NewStartPageToken string
}

// WatchHandle is the result of creating a push-notification channel.
type WatchHandle struct {
	ResourceID string
	Expiration int64 // epoch millis, as Drive returns it
}

// DriveAdapter is the Drive Adapter (C2): recursive folder enumeration, file
// metadata, media download, change-feed paging, watch channel lifecycle.
//
// Implementations must iterate nextPageToken to exhaustion on every listing
// call — pagination is unbounded by contract.
type DriveAdapter interface {
	// ListFolderTree resolves folder_url to a folder id, then walks the tree
	// breadth-first and returns every image-MIME leaf found.
	ListFolderTree(ctx context.Context, folderURL string) ([]FileMeta, error)

	// ResolveFolder resolves folder_url to a bare folder id and reports the
	// shared drive it lives on, empty for "My Drive". Used by watch
	// registration, which needs the drive scope before opening a channel.
	ResolveFolder(ctx context.Context, folderURL string) (folderID, driveID string, err error)

	// Download fetches one file's bytes in full.
	Download(ctx context.Context, fileID string) ([]byte, error)

	// GetStartPageToken returns the current change-feed cursor. driveID is
	// empty for "My Drive".
	GetStartPageToken(ctx context.Context, driveID string) (string, error)

	// ListChanges pages through the change feed starting at pageToken,
	// accumulating entries until the feed is exhausted.
	ListChanges(ctx context.Context, pageToken, driveID string) (ChangeFeedPage, error)

	// WatchCreate opens a push-notification channel. ttlSeconds of 0 uses
	// the adapter's default.
	WatchCreate(ctx context.Context, channelID, callbackURL, driveID string, ttlSeconds int) (WatchHandle, error)

	// WatchStop closes a channel. 404/410 from Drive are treated as success.
	WatchStop(ctx context.Context, channelID, resourceID string) error

	// GetFileParent returns the immediate parent folder id of fileID, used
	// by the Notification Router's descendant check. Empty string if the
	// file has no parent (Drive root).
	GetFileParent(ctx context.Context, fileID string) (string, error)
}
