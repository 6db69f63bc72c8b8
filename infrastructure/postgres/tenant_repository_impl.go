package postgres

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"drivesync/domain/models"
	"drivesync/domain/repositories"
)

type TenantRepositoryImpl struct {
	db *gorm.DB
}

func NewTenantRepository(db *gorm.DB) repositories.TenantRepository {
	return &TenantRepositoryImpl{db: db}
}

func (r *TenantRepositoryImpl) Create(ctx context.Context, tenant *models.Tenant) error {
	return r.db.WithContext(ctx).Create(tenant).Error
}

func (r *TenantRepositoryImpl) GetByID(ctx context.Context, id uuid.UUID) (*models.Tenant, error) {
	var tenant models.Tenant
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&tenant).Error
	if err != nil {
		return nil, err
	}
	return &tenant, nil
}

func (r *TenantRepositoryImpl) GetAll(ctx context.Context) ([]models.Tenant, error) {
	var tenants []models.Tenant
	err := r.db.WithContext(ctx).Order("created_at DESC").Find(&tenants).Error
	return tenants, err
}

func (r *TenantRepositoryImpl) GetAutoUpdateTenants(ctx context.Context) ([]models.Tenant, error) {
	var tenants []models.Tenant
	err := r.db.WithContext(ctx).Where("auto_update = ?", true).Find(&tenants).Error
	return tenants, err
}

func (r *TenantRepositoryImpl) Update(ctx context.Context, tenant *models.Tenant) error {
	return r.db.WithContext(ctx).Where("id = ?", tenant.ID).Updates(tenant).Error
}

func (r *TenantRepositoryImpl) UpdateSyncStatus(ctx context.Context, id uuid.UUID, status models.SyncStatus, lastError string) error {
	updates := map[string]interface{}{
		"sync_status": status,
		"last_error":  lastError,
		"updated_at":  time.Now(),
	}
	if status == models.SyncStatusIdle {
		now := time.Now()
		updates["last_synced_at"] = &now
	}
	return r.db.WithContext(ctx).Model(&models.Tenant{}).Where("id = ?", id).Updates(updates).Error
}

func (r *TenantRepositoryImpl) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Tenant{}).Error
}
