package handlers

import (
	"context"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"drivesync/domain/services"
	"drivesync/pkg/logger"
)

// DriveWatchHandler manages push-notification channel subscriptions: one
// DriveChannelState per physical drive, shared by every CompanyState
// watching folders on it (§4.6).
type DriveWatchHandler struct {
	drive services.DriveAdapter
	watch services.WatchStateStore
}

func NewDriveWatchHandler(drive services.DriveAdapter, watch services.WatchStateStore) *DriveWatchHandler {
	return &DriveWatchHandler{drive: drive, watch: watch}
}

func driveKey(driveID string) string {
	if driveID == "" {
		return "root"
	}
	return driveID
}

type watchRequest struct {
	UUID        string `json:"uuid"`
	DriveURL    string `json:"drive_url"`
	CompanyName string `json:"company_name"`
	CallbackURL string `json:"callback_url"`
	UseEmbedV4  bool   `json:"use_embed_v4"`
}

// Create handles POST /drive/watch: it ensures a channel exists for the
// tenant's physical drive, opening a new one only when none is recorded,
// then records the tenant as a subscriber.
func (h *DriveWatchHandler) Create(c *fiber.Ctx) error {
	var req watchRequest
	if err := c.BodyParser(&req); err != nil {
		return errorJSON(c, fiber.StatusBadRequest, "invalid_request", "malformed request body")
	}
	if req.UUID == "" || req.DriveURL == "" {
		return errorJSON(c, fiber.StatusBadRequest, "invalid_request", "uuid and drive_url are required")
	}

	ctx := c.UserContext()

	folderID, driveID, err := h.drive.ResolveFolder(ctx, req.DriveURL)
	if err != nil {
		logger.Error(logger.CategoryWatch, "resolve_failed", "failed to resolve drive folder", err, map[string]interface{}{"uuid": req.UUID})
		return errorJSON(c, fiber.StatusInternalServerError, "resolve_failed", "failed to resolve drive folder")
	}
	key := driveKey(driveID)

	channelState, isNew, err := h.ensureChannel(ctx, key, driveID, req.CallbackURL)
	if err != nil {
		logger.Error(logger.CategoryWatch, "channel_failed", "failed to ensure watch channel", err, map[string]interface{}{"uuid": req.UUID})
		return errorJSON(c, fiber.StatusInternalServerError, "channel_failed", "failed to create watch channel")
	}

	company := services.CompanyState{
		UUID:        req.UUID,
		DriveURL:    req.DriveURL,
		FolderID:    folderID,
		DriveID:     driveID,
		UseEmbedV4:  req.UseEmbedV4,
		CompanyName: req.CompanyName,
		CallbackURL: req.CallbackURL,
	}
	if err := h.watch.SaveCompanyState(ctx, company); err != nil {
		logger.Error(logger.CategoryWatch, "save_company_failed", "failed to persist company watch state", err, map[string]interface{}{"uuid": req.UUID})
		return errorJSON(c, fiber.StatusInternalServerError, "save_failed", "failed to persist watch subscription")
	}

	return c.JSON(fiber.Map{
		"channel_id":             channelState.ChannelID,
		"resource_id":            channelState.ResourceID,
		"expiration":             channelState.Expiration,
		"drive_id":               driveID,
		"is_new_channel":         isNew,
		"drive_channel_created":  isNew,
	})
}

// ensureChannel reuses the channel recorded for the drive, without checking
// its expiration, or opens a new one when none is recorded, returning
// whether a new channel was created.
func (h *DriveWatchHandler) ensureChannel(ctx context.Context, key, driveID, callbackURL string) (services.DriveChannelState, bool, error) {
	existing, err := h.watch.LoadDriveChannelState(ctx, key)
	if err != nil {
		return services.DriveChannelState{}, false, err
	}
	if existing != nil {
		return *existing, false, nil
	}

	channelID := uuid.New().String()
	handle, err := h.drive.WatchCreate(ctx, channelID, callbackURL, driveID, 0)
	if err != nil {
		return services.DriveChannelState{}, false, err
	}

	startToken, err := h.drive.GetStartPageToken(ctx, driveID)
	if err != nil {
		return services.DriveChannelState{}, false, err
	}

	state := services.DriveChannelState{
		DriveKey:   key,
		ChannelID:  channelID,
		ResourceID: handle.ResourceID,
		Expiration: handle.Expiration,
		PageToken:  startToken,
	}
	if err := h.watch.SaveDriveChannelState(ctx, state); err != nil {
		return services.DriveChannelState{}, false, err
	}
	return state, true, nil
}

// Delete handles DELETE /drive/watch/{uuid}: removes the tenant's
// subscription and stops the shared channel only if it was the last one.
func (h *DriveWatchHandler) Delete(c *fiber.Ctx) error {
	uuidParam := c.Params("uuid")
	if uuidParam == "" {
		return errorJSON(c, fiber.StatusBadRequest, "invalid_request", "uuid is required")
	}

	ctx := c.UserContext()

	company, err := h.watch.LoadCompanyState(ctx, uuidParam)
	if err != nil {
		logger.Error(logger.CategoryWatch, "load_company_failed", "failed to load company watch state", err, map[string]interface{}{"uuid": uuidParam})
		return errorJSON(c, fiber.StatusInternalServerError, "load_failed", "failed to load watch subscription")
	}
	if company == nil {
		return c.SendStatus(fiber.StatusNoContent)
	}

	if err := h.watch.DeleteCompanyState(ctx, uuidParam); err != nil {
		logger.Error(logger.CategoryWatch, "delete_company_failed", "failed to delete company watch state", err, map[string]interface{}{"uuid": uuidParam})
		return errorJSON(c, fiber.StatusInternalServerError, "delete_failed", "failed to delete watch subscription")
	}

	key := driveKey(company.DriveID)
	remaining, err := h.watch.CompaniesByDrive(ctx, key)
	if err != nil {
		logger.Error(logger.CategoryWatch, "list_companies_failed", "failed to list remaining subscribers", err, map[string]interface{}{"drive_key": key})
		return c.SendStatus(fiber.StatusNoContent)
	}
	if len(remaining) > 0 {
		return c.SendStatus(fiber.StatusNoContent)
	}

	channelState, err := h.watch.LoadDriveChannelState(ctx, key)
	if err != nil || channelState == nil {
		return c.SendStatus(fiber.StatusNoContent)
	}
	if err := h.drive.WatchStop(ctx, channelState.ChannelID, channelState.ResourceID); err != nil {
		logger.Error(logger.CategoryWatch, "stop_channel_failed", "failed to stop drive watch channel", err, map[string]interface{}{"drive_key": key})
	}
	if err := h.watch.DeleteDriveChannelState(ctx, key); err != nil {
		logger.Error(logger.CategoryWatch, "delete_channel_failed", "failed to delete drive channel state", err, map[string]interface{}{"drive_key": key})
	}

	return c.SendStatus(fiber.StatusNoContent)
}

type reRegisterRequest struct {
	UUIDs []string `json:"uuids"`
}

// ReRegister handles POST /drive/watch/re-register: forces a fresh channel
// for each selected drive, regardless of the current channel's remaining TTL.
func (h *DriveWatchHandler) ReRegister(c *fiber.Ctx) error {
	var req reRegisterRequest
	_ = c.BodyParser(&req)

	ctx := c.UserContext()

	var companies []services.CompanyState
	if len(req.UUIDs) > 0 {
		for _, u := range req.UUIDs {
			company, err := h.watch.LoadCompanyState(ctx, u)
			if err == nil && company != nil {
				companies = append(companies, *company)
			}
		}
	} else {
		all, err := h.watch.ListCompanyStates(ctx)
		if err != nil {
			logger.Error(logger.CategoryWatch, "list_failed", "failed to list company watch states", err, nil)
			return errorJSON(c, fiber.StatusInternalServerError, "list_failed", "failed to list watch subscriptions")
		}
		companies = all
	}

	seen := make(map[string]bool)
	recreated := 0
	for _, company := range companies {
		key := driveKey(company.DriveID)
		if seen[key] {
			continue
		}
		seen[key] = true

		if old, err := h.watch.LoadDriveChannelState(ctx, key); err == nil && old != nil {
			_ = h.drive.WatchStop(ctx, old.ChannelID, old.ResourceID)
			_ = h.watch.DeleteDriveChannelState(ctx, key)
		}

		if _, _, err := h.ensureChannel(ctx, key, company.DriveID, company.CallbackURL); err != nil {
			logger.Error(logger.CategoryWatch, "recreate_failed", "failed to recreate watch channel", err, map[string]interface{}{"drive_key": key})
			continue
		}
		recreated++
	}

	return c.JSON(fiber.Map{
		"message":   "watch channels re-registered",
		"recreated": recreated,
	})
}
