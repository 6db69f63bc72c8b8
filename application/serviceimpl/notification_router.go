package serviceimpl

import (
	"context"
	"time"

	"github.com/google/uuid"

	"drivesync/domain/models"
	"drivesync/domain/repositories"
	"drivesync/domain/services"
	"drivesync/pkg/logger"
)

// parentCache memoizes file_id -> parent_id lookups made while walking up
// Drive's folder tree during the descendant check. Satisfied by
// *rediscache.DescendantCache without this package importing it directly.
type parentCache interface {
	GetParent(ctx context.Context, fileID string) (string, bool)
	SetParent(ctx context.Context, fileID, parentID string)
}

// DriveNotificationRouter is the C8 implementation: consumes Drive push
// notifications, advances the change feed, maps changed files to
// subscribed tenants via the descendant check, enforces per-tenant
// cooldown, and invokes the Dispatcher. Grounded on the change-feed /
// cooldown / descendant-mapping behavior of the original DriveNotification
// processor.
type DriveNotificationRouter struct {
	watch      services.WatchStateStore
	drive      services.DriveAdapter
	dispatcher services.Dispatcher
	cache      parentCache
	logs       repositories.NotificationLogRepository

	cooldown time.Duration
}

func NewDriveNotificationRouter(watch services.WatchStateStore, drive services.DriveAdapter, dispatcher services.Dispatcher, cache parentCache, logs repositories.NotificationLogRepository, cooldownSeconds int) *DriveNotificationRouter {
	if cooldownSeconds < 0 {
		cooldownSeconds = 60
	}
	return &DriveNotificationRouter{
		watch:      watch,
		drive:      drive,
		dispatcher: dispatcher,
		cache:      cache,
		logs:       logs,
		cooldown:   time.Duration(cooldownSeconds) * time.Second,
	}
}

func (r *DriveNotificationRouter) Handle(ctx context.Context, channelID, resourceState string, changedTypes []string) (services.NotificationResult, error) {
	result, err := r.handle(ctx, channelID, resourceState, changedTypes)
	r.audit(ctx, channelID, resourceState, result)
	return result, err
}

func (r *DriveNotificationRouter) handle(ctx context.Context, channelID, resourceState string, changedTypes []string) (services.NotificationResult, error) {
	driveState, err := r.watch.FindDriveStateByChannelID(ctx, channelID)
	if err != nil {
		logger.NotifyError("lookup_failed", "failed to resolve channel", err, map[string]interface{}{"channel_id": channelID})
		return services.NotificationResult{Handled: false}, err
	}
	if driveState == nil {
		logger.Notify("unknown_channel", "notification for unregistered channel", map[string]interface{}{"channel_id": channelID})
		return services.NotificationResult{Handled: false}, nil
	}

	if resourceState == "sync" {
		logger.Notify("sync_handshake", "initial sync handshake", map[string]interface{}{"channel_id": channelID})
		return services.NotificationResult{Handled: true, Status: "sync"}, nil
	}

	if len(changedTypes) > 0 && !containsString(changedTypes, "content") {
		logger.Notify("filtered_changed_type", "changed_types excludes content", map[string]interface{}{"channel_id": channelID, "changed_types": changedTypes})
		return services.NotificationResult{Handled: true, Status: "filtered_changed_type"}, nil
	}

	companies, err := r.watch.CompaniesByDrive(ctx, driveState.DriveKey)
	if err != nil {
		logger.NotifyError("companies_lookup_failed", "failed to list subscribed companies", err, map[string]interface{}{"drive_key": driveState.DriveKey})
		return services.NotificationResult{Handled: false}, err
	}
	if len(companies) == 0 {
		logger.Notify("no_companies", "no companies subscribed to this drive", map[string]interface{}{"drive_key": driveState.DriveKey})
		return services.NotificationResult{Handled: true, Status: "no_companies"}, nil
	}

	changes, err := r.advanceChangeFeed(ctx, driveState)
	if err != nil {
		logger.NotifyError("advance_failed", "failed to advance change feed", err, map[string]interface{}{"drive_key": driveState.DriveKey})
		return services.NotificationResult{Handled: false}, err
	}

	triggered := r.routeChanges(ctx, changes, companies)

	return services.NotificationResult{
		Handled:       true,
		Status:        "ok",
		ChangesFound:  len(changes),
		JobsTriggered: triggered,
	}, nil
}

// advanceChangeFeed pages list_changes to exhaustion from the stored
// page_token, resetting on a 410 and persisting the new token exactly once.
func (r *DriveNotificationRouter) advanceChangeFeed(ctx context.Context, driveState *services.DriveChannelState) ([]services.ChangeEntry, error) {
	pageToken := driveState.PageToken
	driveID := driveKeyToDriveID(driveState.DriveKey)

	var all []services.ChangeEntry
	newToken := pageToken

	for {
		page, err := r.drive.ListChanges(ctx, pageToken, driveID)
		if err != nil {
			if services.IsPageTokenExpired(err) {
				logger.Notify("page_token_expired", "change feed token expired, resetting", map[string]interface{}{"drive_key": driveState.DriveKey})
				fresh, startErr := r.drive.GetStartPageToken(ctx, driveID)
				if startErr != nil {
					return nil, startErr
				}
				driveState.PageToken = fresh
				if saveErr := r.watch.SaveDriveChannelState(ctx, *driveState); saveErr != nil {
					return nil, saveErr
				}
				return nil, nil
			}
			return nil, err
		}

		all = append(all, page.Changes...)
		if page.NewStartPageToken != "" {
			newToken = page.NewStartPageToken
		} else if page.NextPageToken != "" {
			newToken = page.NextPageToken
		}

		if page.NextPageToken == "" {
			break
		}
		pageToken = page.NextPageToken
	}

	driveState.PageToken = newToken
	if err := r.watch.SaveDriveChannelState(ctx, *driveState); err != nil {
		return nil, err
	}
	return all, nil
}

// routeChanges maps each change to the companies it's relevant to, enforces
// cooldown, and dispatches. Returns the number of jobs triggered.
func (r *DriveNotificationRouter) routeChanges(ctx context.Context, changes []services.ChangeEntry, companies []services.CompanyState) int {
	relevant := make(map[string]int, len(companies)) // uuid -> change count

	for _, c := range changes {
		for _, company := range companies {
			if c.Removed || r.isDescendant(ctx, c.ParentID, company.FolderID, make(map[string]struct{})) {
				relevant[company.UUID]++
			}
		}
	}

	triggered := 0
	now := time.Now().Unix()
	for _, company := range companies {
		if relevant[company.UUID] == 0 {
			continue
		}
		if company.LastJobTriggerTS > 0 && now-company.LastJobTriggerTS < int64(r.cooldown.Seconds()) {
			logger.Notify("cooldown_skip", "tenant in cooldown, skipping dispatch", map[string]interface{}{"uuid": company.UUID})
			continue
		}

		_, err := r.dispatcher.Dispatch(ctx, services.DispatchTask{
			UUID:        company.UUID,
			DriveURL:    company.DriveURL,
			UseEmbedV4:  company.UseEmbedV4,
			CompanyName: company.CompanyName,
		})
		if err != nil {
			logger.NotifyError("dispatch_failed", "failed to dispatch sync job", err, map[string]interface{}{"uuid": company.UUID})
			continue
		}

		company.LastJobTriggerTS = now
		if err := r.watch.SaveCompanyState(ctx, company); err != nil {
			logger.NotifyError("save_state_failed", "failed to persist cooldown timestamp", err, map[string]interface{}{"uuid": company.UUID})
		}
		triggered++
	}
	return triggered
}

// isDescendant walks parents from fileParentID up toward root, returning
// true if folderID is encountered. Memoized per-router via the parent
// cache and guarded against cycles with a visited set.
func (r *DriveNotificationRouter) isDescendant(ctx context.Context, fileParentID, folderID string, visited map[string]struct{}) bool {
	if fileParentID == "" || folderID == "" {
		return false
	}
	current := fileParentID
	for depth := 0; depth < 64; depth++ {
		if current == folderID {
			return true
		}
		if _, seen := visited[current]; seen {
			return false
		}
		visited[current] = struct{}{}

		var parent string
		var ok bool
		if r.cache != nil {
			parent, ok = r.cache.GetParent(ctx, current)
		}
		if !ok {
			fetched, err := r.drive.GetFileParent(ctx, current)
			if err != nil {
				return false
			}
			parent = fetched
			if r.cache != nil {
				r.cache.SetParent(ctx, current, parent)
			}
		}
		if parent == "" {
			return false
		}
		current = parent
	}
	return false
}

func (r *DriveNotificationRouter) audit(ctx context.Context, channelID, resourceState string, result services.NotificationResult) {
	if r.logs == nil {
		return
	}
	entry := &models.NotificationLog{
		ID:            uuid.New(),
		ChannelID:     channelID,
		ResourceState: resourceState,
		Handled:       result.Handled,
		ChangesFound:  result.ChangesFound,
		JobsTriggered: result.JobsTriggered,
		Status:        result.Status,
	}
	if err := r.logs.Create(ctx, entry); err != nil {
		logger.NotifyError("audit_write_failed", "failed to write notification log", err, map[string]interface{}{"channel_id": channelID})
	}
}

func containsString(items []string, target string) bool {
	for _, s := range items {
		if s == target {
			return true
		}
	}
	return false
}

func driveKeyToDriveID(driveKey string) string {
	if driveKey == "root" {
		return ""
	}
	return driveKey
}

var _ services.NotificationRouter = (*DriveNotificationRouter)(nil)
