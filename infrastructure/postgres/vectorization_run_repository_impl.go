package postgres

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"drivesync/domain/models"
	"drivesync/domain/repositories"
)

type VectorizationRunRepositoryImpl struct {
	db *gorm.DB
}

func NewVectorizationRunRepository(db *gorm.DB) repositories.VectorizationRunRepository {
	return &VectorizationRunRepositoryImpl{db: db}
}

func (r *VectorizationRunRepositoryImpl) Create(ctx context.Context, run *models.VectorizationRun) error {
	return r.db.WithContext(ctx).Create(run).Error
}

func (r *VectorizationRunRepositoryImpl) GetByID(ctx context.Context, id uuid.UUID) (*models.VectorizationRun, error) {
	var run models.VectorizationRun
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&run).Error
	if err != nil {
		return nil, err
	}
	return &run, nil
}

func (r *VectorizationRunRepositoryImpl) GetLatestByTenant(ctx context.Context, tenantID uuid.UUID) (*models.VectorizationRun, error) {
	var run models.VectorizationRun
	err := r.db.WithContext(ctx).
		Where("tenant_id = ?", tenantID).
		Order("created_at DESC").
		First(&run).Error
	if err != nil {
		return nil, err
	}
	return &run, nil
}

func (r *VectorizationRunRepositoryImpl) Update(ctx context.Context, run *models.VectorizationRun) error {
	return r.db.WithContext(ctx).Where("id = ?", run.ID).Updates(run).Error
}
