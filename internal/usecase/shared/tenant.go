package shared

import (
	"context"
	"fmt"

	"github.com/fieldlab/fieldops/internal/domain"
)

// TenantResolver yields the owning tenant of a task or legacy work package.
// It is the only place report code learns which tenant a row belongs to.
type TenantResolver struct {
	tasks        domain.TaskRepository
	workPackages domain.WorkPackageRepository
}

// NewTenantResolver creates a new TenantResolver.
func NewTenantResolver(tasks domain.TaskRepository, workPackages domain.WorkPackageRepository) *TenantResolver {
	return &TenantResolver{
		tasks:        tasks,
		workPackages: workPackages,
	}
}

// ResolveTask returns the tenant stamped on the task. Legacy tasks yield domain.LegacyTenant.
func (r *TenantResolver) ResolveTask(ctx context.Context, taskID string) (domain.TenantID, error) {
	task, err := GetTask(ctx, r.tasks, taskID)
	if err != nil {
		return domain.LegacyTenant, err
	}
	return task.TenantID, nil
}

// ResolveWorkPackage returns the tenant stamped on a legacy work package.
func (r *TenantResolver) ResolveWorkPackage(ctx context.Context, workPackageID string) (domain.TenantID, error) {
	if r.workPackages == nil {
		return domain.LegacyTenant, domain.ErrWorkPackageNotFound
	}
	wp, err := r.workPackages.Get(ctx, workPackageID)
	if err != nil {
		return domain.LegacyTenant, fmt.Errorf("get work package: %w", err)
	}
	if wp == nil {
		return domain.LegacyTenant, domain.ErrWorkPackageNotFound
	}
	return wp.TenantID, nil
}

// ReportScope is the resolved parent of a report row.
type ReportScope struct {
	Task   *domain.Task
	Tenant domain.TenantID
}

// ResolveReport resolves the parent task of a report for the caller.
// The tenant comes from the task row, never from the caller, and a caller in
// another tenant gets domain.ErrTaskNotFound. The task kind must match the report kind.
func (r *TenantResolver) ResolveReport(ctx context.Context, taskID string, kind domain.ReportKind, actor domain.Actor) (*ReportScope, error) {
	task, err := GetTaskForActor(ctx, r.tasks, taskID, actor)
	if err != nil {
		return nil, err
	}
	if kind.TaskKind() != task.Kind {
		return nil, fmt.Errorf("%w: %s report on %s task", domain.ErrReportKindMismatch, kind, task.Kind)
	}
	tenant, err := r.ResolveTask(ctx, task.ID)
	if err != nil {
		return nil, err
	}
	return &ReportScope{Task: task, Tenant: tenant}, nil
}
