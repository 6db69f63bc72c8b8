package handlers

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"drivesync/domain/models"
	"drivesync/domain/repositories"
	"drivesync/domain/services"
	"drivesync/pkg/logger"
)

// VectorizeHandler dispatches Job Dispatcher executions and records the
// bookkeeping rows a dispatched run leaves behind.
type VectorizeHandler struct {
	dispatcher services.Dispatcher
	tenants    repositories.TenantRepository
	runs       repositories.VectorizationRunRepository
}

func NewVectorizeHandler(dispatcher services.Dispatcher, tenants repositories.TenantRepository, runs repositories.VectorizationRunRepository) *VectorizeHandler {
	return &VectorizeHandler{dispatcher: dispatcher, tenants: tenants, runs: runs}
}

type vectorizeRequest struct {
	UUID       string `json:"uuid"`
	DriveURL   string `json:"drive_url"`
	UseEmbedV4 bool   `json:"use_embed_v4"`
}

// Single handles POST /vectorize.
func (h *VectorizeHandler) Single(c *fiber.Ctx) error {
	var req vectorizeRequest
	if err := c.BodyParser(&req); err != nil {
		return errorJSON(c, fiber.StatusBadRequest, "invalid_request", "malformed request body")
	}
	if req.UUID == "" || req.DriveURL == "" {
		return errorJSON(c, fiber.StatusBadRequest, "invalid_request", "uuid and drive_url are required")
	}

	tenantID, err := uuid.Parse(req.UUID)
	if err != nil {
		return errorJSON(c, fiber.StatusBadRequest, "invalid_request", "uuid is not a valid UUID")
	}

	ctx := c.UserContext()
	h.upsertTenant(ctx, tenantID, req.DriveURL, req.UseEmbedV4)

	handle, err := h.dispatcher.Dispatch(ctx, services.DispatchTask{
		UUID:       req.UUID,
		DriveURL:   req.DriveURL,
		UseEmbedV4: req.UseEmbedV4,
	})
	if err != nil {
		logger.Error(logger.CategoryDispatch, "dispatch_failed", "failed to dispatch single-tenant job", err, map[string]interface{}{"uuid": req.UUID})
		return errorJSON(c, fiber.StatusInternalServerError, "dispatch_failed", "failed to start vectorization job")
	}

	if h.runs != nil {
		now := time.Now()
		run := &models.VectorizationRun{
			ID:              uuid.New(),
			TenantID:        tenantID,
			Mode:            models.RunModeSingle,
			Status:          models.RunStatusPending,
			ExecutionHandle: handle,
			StartedAt:       &now,
		}
		if err := h.runs.Create(ctx, run); err != nil {
			logger.Error(logger.CategoryDispatch, "run_record_failed", "failed to persist vectorization run", err, map[string]interface{}{"uuid": req.UUID})
		}
	}

	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{
		"message":        "vectorization job dispatched",
		"execution_info": handle,
		"job_name":       req.UUID,
	})
}

type vectorizeBatchTask struct {
	UUID        string `json:"uuid"`
	DriveURL    string `json:"drive_url"`
	CompanyName string `json:"company_name"`
	UseEmbedV4  bool   `json:"use_embed_v4"`
}

type vectorizeBatchRequest struct {
	Tasks []vectorizeBatchTask `json:"tasks"`
}

// Batch handles POST /vectorize-batch.
func (h *VectorizeHandler) Batch(c *fiber.Ctx) error {
	var req vectorizeBatchRequest
	if err := c.BodyParser(&req); err != nil {
		return errorJSON(c, fiber.StatusBadRequest, "invalid_request", "malformed request body")
	}
	if len(req.Tasks) == 0 {
		return errorJSON(c, fiber.StatusBadRequest, "invalid_request", "tasks must be non-empty")
	}

	tasks := make([]services.DispatchTask, 0, len(req.Tasks))
	for _, t := range req.Tasks {
		if t.UUID == "" || t.DriveURL == "" {
			return errorJSON(c, fiber.StatusBadRequest, "invalid_request", "each task needs uuid and drive_url")
		}
		tasks = append(tasks, services.DispatchTask{
			UUID:        t.UUID,
			DriveURL:    t.DriveURL,
			UseEmbedV4:  t.UseEmbedV4,
			CompanyName: t.CompanyName,
		})
	}

	ctx := c.UserContext()
	for _, t := range tasks {
		if tenantID, err := uuid.Parse(t.UUID); err == nil {
			h.upsertTenant(ctx, tenantID, t.DriveURL, t.UseEmbedV4)
		}
	}

	handle, err := h.dispatcher.DispatchBatch(ctx, tasks)
	if err != nil {
		logger.Error(logger.CategoryDispatch, "dispatch_batch_failed", "failed to dispatch batch job", err, map[string]interface{}{"task_count": len(tasks)})
		return errorJSON(c, fiber.StatusInternalServerError, "dispatch_failed", "failed to start batch vectorization job")
	}

	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{
		"message":        "batch vectorization job dispatched",
		"execution_info": handle,
		"task_count":     len(tasks),
	})
}

// upsertTenant keeps the Tenant bookkeeping row in step with the dispatch
// request; it never blocks dispatch on failure, only logs.
func (h *VectorizeHandler) upsertTenant(ctx context.Context, tenantID uuid.UUID, driveURL string, useEmbedV4 bool) {
	if h.tenants == nil {
		return
	}

	existing, err := h.tenants.GetByID(ctx, tenantID)
	if err != nil || existing == nil {
		tenant := &models.Tenant{
			ID:             tenantID,
			DriveFolderURL: driveURL,
			UseEmbedV4:     useEmbedV4,
			SyncStatus:     models.SyncStatusSyncing,
		}
		if err := h.tenants.Create(ctx, tenant); err != nil {
			logger.Error(logger.CategoryDispatch, "tenant_upsert_failed", "failed to create tenant record", err, map[string]interface{}{"uuid": tenantID.String()})
		}
		return
	}

	existing.DriveFolderURL = driveURL
	existing.UseEmbedV4 = useEmbedV4
	existing.SyncStatus = models.SyncStatusSyncing
	if err := h.tenants.Update(ctx, existing); err != nil {
		logger.Error(logger.CategoryDispatch, "tenant_upsert_failed", "failed to update tenant record", err, map[string]interface{}{"uuid": tenantID.String()})
	}
}
