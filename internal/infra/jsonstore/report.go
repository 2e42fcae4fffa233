package jsonstore

import (
	"context"
	"fmt"

	"github.com/fieldlab/fieldops/internal/domain"
)

type reportRepo[P domain.ReportData] struct {
	s    *Store
	kind domain.ReportKind
}

// NewReportRepository returns the report repository for the payload's kind.
// Rows of every kind live under their own key in the store file.
func NewReportRepository[P domain.ReportData](s *Store) domain.ReportRepository[P] {
	var zero P
	return &reportRepo[P]{s: s, kind: zero.ReportKind()}
}

// Get returns the task's report if it carries the given tenant.
func (r *reportRepo[P]) Get(_ context.Context, taskID string, tenant domain.TenantID) (*domain.Report[P], error) {
	var report *domain.Report[P]
	err := r.s.withLock(func(data *storeData) error {
		rec, ok := data.Reports[string(r.kind)][taskID]
		if !ok || tenantFromNullable(rec.TenantID) != tenant {
			return nil
		}
		var err error
		report, err = fromReportRecord[P](rec)
		if err != nil {
			return fmt.Errorf("decode %s report: %w", r.kind, err)
		}
		return nil
	})
	return report, err
}

// Upsert inserts or replaces the task's report row.
func (r *reportRepo[P]) Upsert(_ context.Context, report *domain.Report[P]) error {
	rec, err := toReportRecord(report)
	if err != nil {
		return fmt.Errorf("encode %s report: %w", r.kind, err)
	}
	return r.s.withLockWrite(func(data *storeData) error {
		rows := data.Reports[string(r.kind)]
		if rows == nil {
			rows = make(map[string]*reportRecord)
			data.Reports[string(r.kind)] = rows
		}
		if existing, ok := rows[report.TaskID]; ok && tenantFromNullable(existing.TenantID) != report.TenantID {
			return domain.ErrReportTenantMismatch
		}
		rows[report.TaskID] = rec
		return nil
	})
}
