package usecase

import (
	"context"
	"fmt"

	"github.com/fieldlab/fieldops/internal/domain"
	"github.com/fieldlab/fieldops/internal/usecase/shared"
)

// MigrateWorkPackagesInput contains the parameters for migrating legacy work packages.
type MigrateWorkPackagesInput struct {
	Actor  domain.Actor // Acting admin
	DryRun bool         // Report what would be migrated without writing
}

// MigratedWorkPackage pairs a work package with the task that replaced it.
type MigratedWorkPackage struct {
	WorkPackageID string
	TaskID        string
}

// InvalidWorkPackage is a work package left unmigrated because its data cannot form a task.
type InvalidWorkPackage struct {
	WorkPackageID string
	Reason        string
}

// MigrateWorkPackagesOutput contains the migration result.
type MigrateWorkPackagesOutput struct {
	Migrated []MigratedWorkPackage
	Invalid  []InvalidWorkPackage
	Skipped  int // Already migrated
}

// MigrateWorkPackages converts the tenant's legacy work packages into tasks.
type MigrateWorkPackages struct {
	resolver     *shared.TenantResolver
	workPackages domain.WorkPackageRepository
	projects     domain.ProjectRepository
	tx           domain.Transactor
	clock        domain.Clock
	logger       domain.Logger
}

// NewMigrateWorkPackages creates a new MigrateWorkPackages use case.
func NewMigrateWorkPackages(
	resolver *shared.TenantResolver,
	workPackages domain.WorkPackageRepository,
	projects domain.ProjectRepository,
	tx domain.Transactor,
	clock domain.Clock,
	logger domain.Logger,
) *MigrateWorkPackages {
	return &MigrateWorkPackages{
		resolver:     resolver,
		workPackages: workPackages,
		projects:     projects,
		tx:           tx,
		clock:        clock,
		logger:       loggerOrNop(logger),
	}
}

// Execute creates one task per unmigrated work package. Each task takes its
// tenant from the work package it replaces, and each conversion commits on its own.
// Packages with an unknown kind or a project outside their tenant are reported
// in Invalid and left untouched.
func (uc *MigrateWorkPackages) Execute(ctx context.Context, in MigrateWorkPackagesInput) (*MigrateWorkPackagesOutput, error) {
	if err := shared.RequireAdmin(in.Actor); err != nil {
		return nil, err
	}
	wps, err := uc.workPackages.List(ctx, in.Actor.TenantID)
	if err != nil {
		return nil, fmt.Errorf("list work packages: %w", err)
	}

	out := &MigrateWorkPackagesOutput{}
	for _, wp := range wps {
		if wp.MigratedTaskID != nil {
			out.Skipped++
			continue
		}
		tenant, err := uc.resolver.ResolveWorkPackage(ctx, wp.ID)
		if err != nil {
			return out, err
		}
		reason, err := uc.check(ctx, wp, tenant)
		if err != nil {
			return out, err
		}
		if reason != "" {
			uc.logger.Warn("", "migrate", fmt.Sprintf("work package %s not migrated: %s", wp.ID, reason))
			out.Invalid = append(out.Invalid, InvalidWorkPackage{WorkPackageID: wp.ID, Reason: reason})
			continue
		}
		task := uc.taskFrom(wp, tenant, in.Actor)
		if !in.DryRun {
			if err := uc.migrate(ctx, wp, task, in.Actor); err != nil {
				return out, fmt.Errorf("migrate work package %s: %w", wp.ID, err)
			}
			uc.logger.Info(task.ID, "migrate", "created from work package "+wp.ID)
		}
		out.Migrated = append(out.Migrated, MigratedWorkPackage{WorkPackageID: wp.ID, TaskID: task.ID})
	}
	return out, nil
}

// check returns why wp cannot become a task in tenant, or "" when it can.
func (uc *MigrateWorkPackages) check(ctx context.Context, wp *domain.WorkPackage, tenant domain.TenantID) (string, error) {
	if !wp.Kind.IsValid() {
		return fmt.Sprintf("unknown kind %q", wp.Kind), nil
	}
	project, err := uc.projects.Get(ctx, wp.ProjectID)
	if err != nil {
		return "", fmt.Errorf("get project %s: %w", wp.ProjectID, err)
	}
	if project == nil {
		return fmt.Sprintf("project %q does not exist", wp.ProjectID), nil
	}
	if project.TenantID != tenant {
		return fmt.Sprintf("project %q belongs to another tenant", wp.ProjectID), nil
	}
	return "", nil
}

func (uc *MigrateWorkPackages) taskFrom(wp *domain.WorkPackage, tenant domain.TenantID, actor domain.Actor) *domain.Task {
	now := uc.clock.Now()
	return &domain.Task{
		ID:                   shared.NewID(),
		TenantID:             tenant,
		ProjectID:            wp.ProjectID,
		Kind:                 wp.Kind,
		Status:               domain.StatusAssigned,
		Title:                wp.Title,
		AssignedTechnicianID: wp.AssignedTechnicianID,
		ReportDueDate:        wp.ReportDueDate,
		CreatedBy:            actor.UserID,
		CreatedAt:            now,
		UpdatedAt:            now,
	}
}

func (uc *MigrateWorkPackages) migrate(ctx context.Context, wp *domain.WorkPackage, task *domain.Task, actor domain.Actor) error {
	return uc.tx.InTx(ctx, func(ctx context.Context, tx domain.TxRepositories) error {
		if err := tx.Tasks.Create(ctx, task); err != nil {
			return fmt.Errorf("create task: %w", err)
		}
		note := domain.NoteTaskCreated + "; migrated from work package " + wp.ID
		if err := tx.History.Append(ctx, shared.NewHistoryEntry(uc.clock, task, actor, domain.HistoryStatusChanged, note)); err != nil {
			return fmt.Errorf("append history: %w", err)
		}
		if err := tx.WorkPackages.MarkMigrated(ctx, wp.ID, task.ID); err != nil {
			return fmt.Errorf("mark migrated: %w", err)
		}
		return nil
	})
}
