package serviceimpl

import (
	"context"

	"drivesync/domain/repositories"
	"drivesync/domain/services"
)

// PostgresTenantRegistry stands in for the out-of-scope external
// spreadsheet registry (§11), sourcing the auto-update tenant list from
// the Postgres bookkeeping table instead.
type PostgresTenantRegistry struct {
	tenants repositories.TenantRepository
}

func NewPostgresTenantRegistry(tenants repositories.TenantRepository) *PostgresTenantRegistry {
	return &PostgresTenantRegistry{tenants: tenants}
}

func (r *PostgresTenantRegistry) AutoUpdateTenants(ctx context.Context) ([]services.DispatchTask, error) {
	rows, err := r.tenants.GetAutoUpdateTenants(ctx)
	if err != nil {
		return nil, err
	}
	tasks := make([]services.DispatchTask, 0, len(rows))
	for _, t := range rows {
		tasks = append(tasks, services.DispatchTask{
			UUID:        t.ID.String(),
			DriveURL:    t.DriveFolderURL,
			UseEmbedV4:  t.UseEmbedV4,
			CompanyName: t.CompanyName,
		})
	}
	return tasks, nil
}

var _ services.TenantRegistry = (*PostgresTenantRegistry)(nil)
