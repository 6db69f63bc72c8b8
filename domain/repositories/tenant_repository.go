package repositories

import (
	"context"

	"github.com/google/uuid"

	"drivesync/domain/models"
)

type TenantRepository interface {
	Create(ctx context.Context, tenant *models.Tenant) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Tenant, error)
	GetAll(ctx context.Context) ([]models.Tenant, error)
	GetAutoUpdateTenants(ctx context.Context) ([]models.Tenant, error)
	Update(ctx context.Context, tenant *models.Tenant) error
	UpdateSyncStatus(ctx context.Context, id uuid.UUID, status models.SyncStatus, lastError string) error
	Delete(ctx context.Context, id uuid.UUID) error
}
