package pgstore

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/fieldlab/fieldops/internal/domain"
)

type reportRepo[P domain.ReportData] struct {
	q     querier
	kind  domain.ReportKind
	table string
}

// NewReportRepository returns the report repository for the payload's kind.
// Each kind has its own table with a JSONB payload column.
func NewReportRepository[P domain.ReportData](s *Store) domain.ReportRepository[P] {
	var zero P
	kind := zero.ReportKind()
	return &reportRepo[P]{q: s.pool, kind: kind, table: reportTable(kind)}
}

// Get returns the task's report if it carries the given tenant.
func (r *reportRepo[P]) Get(ctx context.Context, taskID string, tenant domain.TenantID) (*domain.Report[P], error) {
	row, err := getOne[reportRow](ctx, r.q,
		`SELECT `+reportColumns+` FROM `+r.table+` WHERE task_id = $1 AND tenant_id IS NOT DISTINCT FROM $2`,
		taskID, tenantToNullable(tenant))
	if err != nil {
		return nil, fmt.Errorf("get %s report: %w", r.kind, err)
	}
	if row == nil {
		return nil, nil
	}
	return fromReportRow[P](*row)
}

// Upsert inserts or replaces the task's report row. The conflict update only
// applies when the stored tenant matches, so a foreign row is never merged.
func (r *reportRepo[P]) Upsert(ctx context.Context, report *domain.Report[P]) error {
	row, err := toReportRow(report)
	if err != nil {
		return fmt.Errorf("encode %s report: %w", r.kind, err)
	}
	tag, err := r.q.Exec(ctx, `
		INSERT INTO `+r.table+` (`+reportColumns+`)
		VALUES ($1, $2, $3, $4::jsonb, $5, $6, $7)
		ON CONFLICT (task_id) DO UPDATE SET
			payload = EXCLUDED.payload,
			updated_by = EXCLUDED.updated_by,
			updated_at = EXCLUDED.updated_at
		WHERE `+r.table+`.tenant_id IS NOT DISTINCT FROM EXCLUDED.tenant_id`,
		row.ID, row.TaskID, row.TenantID, string(row.Payload), row.UpdatedBy, row.CreatedAt, row.UpdatedAt)
	if err != nil {
		return fmt.Errorf("save %s report: %w", r.kind, err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrReportTenantMismatch
	}
	return nil
}

func toReportRow[P domain.ReportData](r *domain.Report[P]) (reportRow, error) {
	payload, err := json.Marshal(r.Data)
	if err != nil {
		return reportRow{}, err
	}
	return reportRow{
		ID:        r.ID,
		TaskID:    r.TaskID,
		TenantID:  tenantToNullable(r.TenantID),
		Payload:   payload,
		UpdatedBy: r.UpdatedBy,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}, nil
}

func fromReportRow[P domain.ReportData](row reportRow) (*domain.Report[P], error) {
	var data P
	if err := json.Unmarshal(row.Payload, &data); err != nil {
		return nil, fmt.Errorf("decode report payload: %w", err)
	}
	return &domain.Report[P]{
		ID:        row.ID,
		TaskID:    row.TaskID,
		TenantID:  tenantFromNullable(row.TenantID),
		Data:      data,
		UpdatedBy: row.UpdatedBy,
		CreatedAt: row.CreatedAt,
		UpdatedAt: row.UpdatedAt,
	}, nil
}
