package repositories

import (
	"context"

	"github.com/google/uuid"

	"drivesync/domain/models"
)

type VectorizationRunRepository interface {
	Create(ctx context.Context, run *models.VectorizationRun) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.VectorizationRun, error)
	GetLatestByTenant(ctx context.Context, tenantID uuid.UUID) (*models.VectorizationRun, error)
	Update(ctx context.Context, run *models.VectorizationRun) error
}
