package usecase

import (
	"context"
	"fmt"

	"github.com/fieldlab/fieldops/internal/domain"
	"github.com/fieldlab/fieldops/internal/usecase/shared"
)

// ReportService reads and writes the report rows of one report kind.
// Every kind goes through the same resolve-stamp-persist path: the tenant
// is taken from the parent task, never from the caller.
type ReportService[P domain.ReportData] struct {
	resolver *shared.TenantResolver
	reports  domain.ReportRepository[P]
	clock    domain.Clock
	logger   domain.Logger
}

// NewReportService creates a new ReportService.
func NewReportService[P domain.ReportData](
	resolver *shared.TenantResolver,
	reports domain.ReportRepository[P],
	clock domain.Clock,
	logger domain.Logger,
) *ReportService[P] {
	return &ReportService[P]{
		resolver: resolver,
		reports:  reports,
		clock:    clock,
		logger:   loggerOrNop(logger),
	}
}

// Kind returns the report kind served.
func (s *ReportService[P]) Kind() domain.ReportKind {
	var zero P
	return zero.ReportKind()
}

// Get returns the task's report. Rows stamped with another tenant than the
// task's are reported as not found.
func (s *ReportService[P]) Get(ctx context.Context, taskID string, actor domain.Actor) (*domain.Report[P], error) {
	scope, err := s.resolver.ResolveReport(ctx, taskID, s.Kind(), actor)
	if err != nil {
		return nil, err
	}
	report, err := s.reports.Get(ctx, scope.Task.ID, scope.Tenant)
	if err != nil {
		return nil, fmt.Errorf("get %s report: %w", s.Kind(), err)
	}
	if report == nil {
		return nil, domain.ErrReportNotFound
	}
	return report, nil
}

// Save creates or replaces the task's report, stamped with the task's tenant.
// Approved tasks are read-only, and technicians cannot edit a report under review.
func (s *ReportService[P]) Save(ctx context.Context, taskID string, actor domain.Actor, data P) (*domain.Report[P], error) {
	scope, err := s.resolver.ResolveReport(ctx, taskID, s.Kind(), actor)
	if err != nil {
		return nil, err
	}
	switch {
	case scope.Task.Status == domain.StatusApproved:
		return nil, domain.ErrTaskApproved
	case actor.IsTechnician() && scope.Task.Status == domain.StatusReadyForReview:
		return nil, domain.ErrTaskUnderReview
	}

	existing, err := s.reports.Get(ctx, scope.Task.ID, scope.Tenant)
	if err != nil {
		return nil, fmt.Errorf("get %s report: %w", s.Kind(), err)
	}

	now := s.clock.Now()
	report := &domain.Report[P]{
		ID:        shared.NewID(),
		TaskID:    scope.Task.ID,
		TenantID:  scope.Tenant,
		Data:      data,
		UpdatedBy: actor.UserID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if existing != nil {
		report.ID = existing.ID
		report.CreatedAt = existing.CreatedAt
	}

	if err := s.reports.Upsert(ctx, report); err != nil {
		return nil, fmt.Errorf("save %s report: %w", s.Kind(), err)
	}
	s.logger.Info(scope.Task.ID, "report", fmt.Sprintf("%s report saved by %s", s.Kind(), actor.UserID))
	return report, nil
}

// ReportServices groups the services of every report kind.
type ReportServices struct {
	CompressiveStrength *ReportService[domain.CompressiveStrengthData]
	Density             *ReportService[domain.DensityData]
	Proctor             *ReportService[domain.ProctorData]
	Rebar               *ReportService[domain.RebarData]
}
