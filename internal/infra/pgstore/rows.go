package pgstore

import (
	"time"

	"github.com/fieldlab/fieldops/internal/domain"
)

// Row structs mirror table columns one to one so they can be scanned with
// pgx.RowToStructByName. DATE columns travel as time.Time at UTC midnight.

const taskColumns = `id, tenant_id, project_id, task_kind, status, title, assigned_technician_id,
	report_due_date, field_date, field_start, field_end, location_notes, field_completed,
	field_completed_at, report_submitted, submitted_at, completed_at, rejection_remarks,
	resubmission_due_date, created_by, created_at, updated_at, version`

type taskRow struct {
	CreatedAt            time.Time  `db:"created_at"`
	UpdatedAt            time.Time  `db:"updated_at"`
	FieldCompletedAt     *time.Time `db:"field_completed_at"`
	SubmittedAt          *time.Time `db:"submitted_at"`
	CompletedAt          *time.Time `db:"completed_at"`
	ReportDueDate        *time.Time `db:"report_due_date"`
	FieldDate            *time.Time `db:"field_date"`
	FieldStart           *time.Time `db:"field_start"`
	FieldEnd             *time.Time `db:"field_end"`
	ResubmissionDueDate  *time.Time `db:"resubmission_due_date"`
	TenantID             *string    `db:"tenant_id"`
	AssignedTechnicianID *string    `db:"assigned_technician_id"`
	ID                   string     `db:"id"`
	ProjectID            string     `db:"project_id"`
	Kind                 string     `db:"task_kind"`
	Status               string     `db:"status"`
	Title                string     `db:"title"`
	LocationNotes        string     `db:"location_notes"`
	RejectionRemarks     string     `db:"rejection_remarks"`
	CreatedBy            string     `db:"created_by"`
	Version              int64      `db:"version"`
	FieldCompleted       bool       `db:"field_completed"`
	ReportSubmitted      bool       `db:"report_submitted"`
}

func toTaskRow(t *domain.Task) taskRow {
	return taskRow{
		ID:                   t.ID,
		TenantID:             tenantToNullable(t.TenantID),
		ProjectID:            t.ProjectID,
		Kind:                 string(t.Kind),
		Status:               string(t.Status),
		Title:                t.Title,
		AssignedTechnicianID: copyString(t.AssignedTechnicianID),
		ReportDueDate:        dateToTime(t.ReportDueDate),
		FieldDate:            dateToTime(t.Field.Date),
		FieldStart:           dateToTime(t.Field.Start),
		FieldEnd:             dateToTime(t.Field.End),
		LocationNotes:        t.LocationNotes,
		FieldCompleted:       t.FieldCompleted,
		FieldCompletedAt:     copyTime(t.FieldCompletedAt),
		ReportSubmitted:      t.ReportSubmitted,
		SubmittedAt:          copyTime(t.SubmittedAt),
		CompletedAt:          copyTime(t.CompletedAt),
		RejectionRemarks:     t.RejectionRemarks,
		ResubmissionDueDate:  dateToTime(t.ResubmissionDueDate),
		CreatedBy:            t.CreatedBy,
		CreatedAt:            t.CreatedAt,
		UpdatedAt:            t.UpdatedAt,
		Version:              t.Version,
	}
}

func (r taskRow) toDomain() *domain.Task {
	return &domain.Task{
		ID:                   r.ID,
		TenantID:             tenantFromNullable(r.TenantID),
		ProjectID:            r.ProjectID,
		Kind:                 domain.TaskKind(r.Kind),
		Status:               domain.Status(r.Status),
		Title:                r.Title,
		AssignedTechnicianID: copyString(r.AssignedTechnicianID),
		ReportDueDate:        timeToDate(r.ReportDueDate),
		Field: domain.FieldSchedule{
			Date:  timeToDate(r.FieldDate),
			Start: timeToDate(r.FieldStart),
			End:   timeToDate(r.FieldEnd),
		},
		LocationNotes:       r.LocationNotes,
		FieldCompleted:      r.FieldCompleted,
		FieldCompletedAt:    copyTime(r.FieldCompletedAt),
		ReportSubmitted:     r.ReportSubmitted,
		SubmittedAt:         copyTime(r.SubmittedAt),
		CompletedAt:         copyTime(r.CompletedAt),
		RejectionRemarks:    r.RejectionRemarks,
		ResubmissionDueDate: timeToDate(r.ResubmissionDueDate),
		CreatedBy:           r.CreatedBy,
		CreatedAt:           r.CreatedAt,
		UpdatedAt:           r.UpdatedAt,
		Version:             r.Version,
	}
}

// args returns the column values in taskColumns order.
func (r taskRow) args() []any {
	return []any{
		r.ID, r.TenantID, r.ProjectID, r.Kind, r.Status, r.Title, r.AssignedTechnicianID,
		r.ReportDueDate, r.FieldDate, r.FieldStart, r.FieldEnd, r.LocationNotes, r.FieldCompleted,
		r.FieldCompletedAt, r.ReportSubmitted, r.SubmittedAt, r.CompletedAt, r.RejectionRemarks,
		r.ResubmissionDueDate, r.CreatedBy, r.CreatedAt, r.UpdatedAt, r.Version,
	}
}

const historyColumns = `id, task_id, tenant_id, actor_id, actor_name, actor_role, action_type, note, created_at`

type historyRow struct {
	CreatedAt time.Time `db:"created_at"`
	TenantID  *string   `db:"tenant_id"`
	ID        string    `db:"id"`
	TaskID    string    `db:"task_id"`
	ActorID   string    `db:"actor_id"`
	ActorName string    `db:"actor_name"`
	ActorRole string    `db:"actor_role"`
	Action    string    `db:"action_type"`
	Note      string    `db:"note"`
}

func toHistoryRow(e *domain.HistoryEntry) historyRow {
	return historyRow{
		ID:        e.ID,
		TaskID:    e.TaskID,
		TenantID:  tenantToNullable(e.TenantID),
		ActorID:   e.ActorID,
		ActorName: e.ActorName,
		ActorRole: string(e.ActorRole),
		Action:    string(e.Action),
		Note:      e.Note,
		CreatedAt: e.CreatedAt,
	}
}

func (r historyRow) toDomain() domain.HistoryEntry {
	return domain.HistoryEntry{
		ID:        r.ID,
		TaskID:    r.TaskID,
		TenantID:  tenantFromNullable(r.TenantID),
		ActorID:   r.ActorID,
		ActorName: r.ActorName,
		ActorRole: domain.Role(r.ActorRole),
		Action:    domain.HistoryAction(r.Action),
		Note:      r.Note,
		CreatedAt: r.CreatedAt,
	}
}

const projectColumns = `id, tenant_id, project_number, name, created_by, created_at`

type projectRow struct {
	CreatedAt time.Time `db:"created_at"`
	TenantID  *string   `db:"tenant_id"`
	ID        string    `db:"id"`
	Number    string    `db:"project_number"`
	Name      string    `db:"name"`
	CreatedBy string    `db:"created_by"`
}

func toProjectRow(p *domain.Project) projectRow {
	return projectRow{
		ID:        p.ID,
		TenantID:  tenantToNullable(p.TenantID),
		Number:    p.Number,
		Name:      p.Name,
		CreatedBy: p.CreatedBy,
		CreatedAt: p.CreatedAt,
	}
}

func (r projectRow) toDomain() *domain.Project {
	return &domain.Project{
		ID:        r.ID,
		TenantID:  tenantFromNullable(r.TenantID),
		Number:    r.Number,
		Name:      r.Name,
		CreatedBy: r.CreatedBy,
		CreatedAt: r.CreatedAt,
	}
}

const userColumns = `id, tenant_id, email, display_name, role`

type userRow struct {
	TenantID    *string `db:"tenant_id"`
	ID          string  `db:"id"`
	Email       string  `db:"email"`
	DisplayName string  `db:"display_name"`
	Role        string  `db:"role"`
}

func toUserRow(u *domain.User) userRow {
	return userRow{
		ID:          u.ID,
		TenantID:    tenantToNullable(u.TenantID),
		Email:       u.Email,
		DisplayName: u.DisplayName,
		Role:        string(u.Role),
	}
}

func (r userRow) toDomain() *domain.User {
	return &domain.User{
		ID:          r.ID,
		TenantID:    tenantFromNullable(r.TenantID),
		Email:       r.Email,
		DisplayName: r.DisplayName,
		Role:        domain.Role(r.Role),
	}
}

const notificationColumns = `id, tenant_id, recipient_id, task_id, project_id, message, is_read, created_at`

type notificationRow struct {
	CreatedAt   time.Time `db:"created_at"`
	TenantID    *string   `db:"tenant_id"`
	ID          string    `db:"id"`
	RecipientID string    `db:"recipient_id"`
	TaskID      string    `db:"task_id"`
	ProjectID   string    `db:"project_id"`
	Message     string    `db:"message"`
	IsRead      bool      `db:"is_read"`
}

func toNotificationRow(n *domain.Notification) notificationRow {
	return notificationRow{
		ID:          n.ID,
		TenantID:    tenantToNullable(n.TenantID),
		RecipientID: n.RecipientID,
		TaskID:      n.TaskID,
		ProjectID:   n.ProjectID,
		Message:     n.Message,
		IsRead:      n.IsRead,
		CreatedAt:   n.CreatedAt,
	}
}

func (r notificationRow) toDomain() *domain.Notification {
	return &domain.Notification{
		ID:          r.ID,
		TenantID:    tenantFromNullable(r.TenantID),
		RecipientID: r.RecipientID,
		TaskID:      r.TaskID,
		ProjectID:   r.ProjectID,
		Message:     r.Message,
		IsRead:      r.IsRead,
		CreatedAt:   r.CreatedAt,
	}
}

const workPackageColumns = `id, tenant_id, project_id, task_kind, title, assigned_technician_id,
	report_due_date, migrated_task_id, created_at`

type workPackageRow struct {
	CreatedAt            time.Time  `db:"created_at"`
	ReportDueDate        *time.Time `db:"report_due_date"`
	TenantID             *string    `db:"tenant_id"`
	AssignedTechnicianID *string    `db:"assigned_technician_id"`
	MigratedTaskID       *string    `db:"migrated_task_id"`
	ID                   string     `db:"id"`
	ProjectID            string     `db:"project_id"`
	Kind                 string     `db:"task_kind"`
	Title                string     `db:"title"`
}

func toWorkPackageRow(wp *domain.WorkPackage) workPackageRow {
	return workPackageRow{
		ID:                   wp.ID,
		TenantID:             tenantToNullable(wp.TenantID),
		ProjectID:            wp.ProjectID,
		Kind:                 string(wp.Kind),
		Title:                wp.Title,
		AssignedTechnicianID: copyString(wp.AssignedTechnicianID),
		ReportDueDate:        dateToTime(wp.ReportDueDate),
		MigratedTaskID:       copyString(wp.MigratedTaskID),
		CreatedAt:            wp.CreatedAt,
	}
}

func (r workPackageRow) toDomain() *domain.WorkPackage {
	return &domain.WorkPackage{
		ID:                   r.ID,
		TenantID:             tenantFromNullable(r.TenantID),
		ProjectID:            r.ProjectID,
		Kind:                 domain.TaskKind(r.Kind),
		Title:                r.Title,
		AssignedTechnicianID: copyString(r.AssignedTechnicianID),
		ReportDueDate:        timeToDate(r.ReportDueDate),
		MigratedTaskID:       copyString(r.MigratedTaskID),
		CreatedAt:            r.CreatedAt,
	}
}

const reportColumns = `id, task_id, tenant_id, payload, updated_by, created_at, updated_at`

type reportRow struct {
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
	TenantID  *string   `db:"tenant_id"`
	Payload   []byte    `db:"payload"`
	ID        string    `db:"id"`
	TaskID    string    `db:"task_id"`
	UpdatedBy string    `db:"updated_by"`
}

func tenantToNullable(t domain.TenantID) *string {
	if t.IsLegacy() {
		return nil
	}
	s := string(t)
	return &s
}

func tenantFromNullable(s *string) domain.TenantID {
	if s == nil {
		return domain.LegacyTenant
	}
	return domain.TenantID(*s)
}

func dateToTime(d *domain.Date) *time.Time {
	if d == nil {
		return nil
	}
	t := d.Time()
	return &t
}

func timeToDate(t *time.Time) *domain.Date {
	if t == nil {
		return nil
	}
	d := domain.DateOf(t.UTC())
	return &d
}

func copyString(s *string) *string {
	if s == nil {
		return nil
	}
	c := *s
	return &c
}

func copyTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	c := *t
	return &c
}
