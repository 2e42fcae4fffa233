package jsonstore

import (
	"encoding/json"
	"time"

	"github.com/fieldlab/fieldops/internal/domain"
)

// Records use snake_case keys. Every conversion below maps every field of
// the entity in both directions; records_test.go guards this with fully
// populated round trips.

type taskRecord struct {
	CreatedAt            time.Time    `json:"created_at"`
	UpdatedAt            time.Time    `json:"updated_at"`
	FieldCompletedAt     *time.Time   `json:"field_completed_at"`
	SubmittedAt          *time.Time   `json:"submitted_at"`
	CompletedAt          *time.Time   `json:"completed_at"`
	TenantID             *string      `json:"tenant_id"` // null = legacy tenant
	AssignedTechnicianID *string      `json:"assigned_technician_id"`
	ReportDueDate        *domain.Date `json:"report_due_date"`
	FieldDate            *domain.Date `json:"field_date"`
	FieldStart           *domain.Date `json:"field_start"`
	FieldEnd             *domain.Date `json:"field_end"`
	ResubmissionDueDate  *domain.Date `json:"resubmission_due_date"`
	ID                   string       `json:"id"`
	ProjectID            string       `json:"project_id"`
	Kind                 string       `json:"task_kind"`
	Status               string       `json:"status"`
	Title                string       `json:"title"`
	LocationNotes        string       `json:"location_notes"`
	RejectionRemarks     string       `json:"rejection_remarks"`
	CreatedBy            string       `json:"created_by"`
	Version              int64        `json:"version"`
	FieldCompleted       bool         `json:"field_completed"`
	ReportSubmitted      bool         `json:"report_submitted"`
}

func toTaskRecord(t *domain.Task) *taskRecord {
	c := t.Clone()
	return &taskRecord{
		ID:                   c.ID,
		TenantID:             tenantToNullable(c.TenantID),
		ProjectID:            c.ProjectID,
		Kind:                 string(c.Kind),
		Status:               string(c.Status),
		Title:                c.Title,
		AssignedTechnicianID: c.AssignedTechnicianID,
		ReportDueDate:        c.ReportDueDate,
		FieldDate:            c.Field.Date,
		FieldStart:           c.Field.Start,
		FieldEnd:             c.Field.End,
		LocationNotes:        c.LocationNotes,
		FieldCompleted:       c.FieldCompleted,
		FieldCompletedAt:     c.FieldCompletedAt,
		ReportSubmitted:      c.ReportSubmitted,
		SubmittedAt:          c.SubmittedAt,
		CompletedAt:          c.CompletedAt,
		RejectionRemarks:     c.RejectionRemarks,
		ResubmissionDueDate:  c.ResubmissionDueDate,
		CreatedBy:            c.CreatedBy,
		CreatedAt:            c.CreatedAt,
		UpdatedAt:            c.UpdatedAt,
		Version:              c.Version,
	}
}

func (r *taskRecord) toDomain() *domain.Task {
	t := &domain.Task{
		ID:                   r.ID,
		TenantID:             tenantFromNullable(r.TenantID),
		ProjectID:            r.ProjectID,
		Kind:                 domain.TaskKind(r.Kind),
		Status:               domain.Status(r.Status),
		Title:                r.Title,
		AssignedTechnicianID: r.AssignedTechnicianID,
		ReportDueDate:        r.ReportDueDate,
		Field: domain.FieldSchedule{
			Date:  r.FieldDate,
			Start: r.FieldStart,
			End:   r.FieldEnd,
		},
		LocationNotes:       r.LocationNotes,
		FieldCompleted:      r.FieldCompleted,
		FieldCompletedAt:    r.FieldCompletedAt,
		ReportSubmitted:     r.ReportSubmitted,
		SubmittedAt:         r.SubmittedAt,
		CompletedAt:         r.CompletedAt,
		RejectionRemarks:    r.RejectionRemarks,
		ResubmissionDueDate: r.ResubmissionDueDate,
		CreatedBy:           r.CreatedBy,
		CreatedAt:           r.CreatedAt,
		UpdatedAt:           r.UpdatedAt,
		Version:             r.Version,
	}
	return t.Clone()
}

type historyRecord struct {
	CreatedAt time.Time `json:"created_at"`
	TenantID  *string   `json:"tenant_id"`
	ID        string    `json:"id"`
	TaskID    string    `json:"task_id"`
	ActorID   string    `json:"actor_id"`
	ActorName string    `json:"actor_name"`
	ActorRole string    `json:"actor_role"`
	Action    string    `json:"action_type"`
	Note      string    `json:"note"`
}

func toHistoryRecord(e *domain.HistoryEntry) *historyRecord {
	return &historyRecord{
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

func (r *historyRecord) toDomain() domain.HistoryEntry {
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

type projectRecord struct {
	CreatedAt time.Time `json:"created_at"`
	TenantID  *string   `json:"tenant_id"`
	ID        string    `json:"id"`
	Number    string    `json:"project_number"`
	Name      string    `json:"name"`
	CreatedBy string    `json:"created_by"`
}

func toProjectRecord(p *domain.Project) *projectRecord {
	return &projectRecord{
		ID:        p.ID,
		TenantID:  tenantToNullable(p.TenantID),
		Number:    p.Number,
		Name:      p.Name,
		CreatedBy: p.CreatedBy,
		CreatedAt: p.CreatedAt,
	}
}

func (r *projectRecord) toDomain() *domain.Project {
	return &domain.Project{
		ID:        r.ID,
		TenantID:  tenantFromNullable(r.TenantID),
		Number:    r.Number,
		Name:      r.Name,
		CreatedBy: r.CreatedBy,
		CreatedAt: r.CreatedAt,
	}
}

type userRecord struct {
	TenantID    *string `json:"tenant_id"`
	ID          string  `json:"id"`
	Email       string  `json:"email"`
	DisplayName string  `json:"display_name"`
	Role        string  `json:"role"`
}

func toUserRecord(u *domain.User) *userRecord {
	return &userRecord{
		ID:          u.ID,
		TenantID:    tenantToNullable(u.TenantID),
		Email:       u.Email,
		DisplayName: u.DisplayName,
		Role:        string(u.Role),
	}
}

func (r *userRecord) toDomain() *domain.User {
	return &domain.User{
		ID:          r.ID,
		TenantID:    tenantFromNullable(r.TenantID),
		Email:       r.Email,
		DisplayName: r.DisplayName,
		Role:        domain.Role(r.Role),
	}
}

type notificationRecord struct {
	CreatedAt   time.Time `json:"created_at"`
	TenantID    *string   `json:"tenant_id"`
	ID          string    `json:"id"`
	RecipientID string    `json:"recipient_id"`
	TaskID      string    `json:"task_id"`
	ProjectID   string    `json:"project_id"`
	Message     string    `json:"message"`
	IsRead      bool      `json:"is_read"`
}

func toNotificationRecord(n *domain.Notification) *notificationRecord {
	return &notificationRecord{
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

func (r *notificationRecord) toDomain() *domain.Notification {
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

type workPackageRecord struct {
	CreatedAt            time.Time    `json:"created_at"`
	TenantID             *string      `json:"tenant_id"`
	AssignedTechnicianID *string      `json:"assigned_technician_id"`
	ReportDueDate        *domain.Date `json:"report_due_date"`
	MigratedTaskID       *string      `json:"migrated_task_id"`
	ID                   string       `json:"id"`
	ProjectID            string       `json:"project_id"`
	Kind                 string       `json:"task_kind"`
	Title                string       `json:"title"`
}

func toWorkPackageRecord(wp *domain.WorkPackage) *workPackageRecord {
	return &workPackageRecord{
		ID:                   wp.ID,
		TenantID:             tenantToNullable(wp.TenantID),
		ProjectID:            wp.ProjectID,
		Kind:                 string(wp.Kind),
		Title:                wp.Title,
		AssignedTechnicianID: copyString(wp.AssignedTechnicianID),
		ReportDueDate:        copyDate(wp.ReportDueDate),
		MigratedTaskID:       copyString(wp.MigratedTaskID),
		CreatedAt:            wp.CreatedAt,
	}
}

func (r *workPackageRecord) toDomain() *domain.WorkPackage {
	return &domain.WorkPackage{
		ID:                   r.ID,
		TenantID:             tenantFromNullable(r.TenantID),
		ProjectID:            r.ProjectID,
		Kind:                 domain.TaskKind(r.Kind),
		Title:                r.Title,
		AssignedTechnicianID: copyString(r.AssignedTechnicianID),
		ReportDueDate:        copyDate(r.ReportDueDate),
		MigratedTaskID:       copyString(r.MigratedTaskID),
		CreatedAt:            r.CreatedAt,
	}
}

type reportRecord struct {
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
	TenantID  *string         `json:"tenant_id"`
	Payload   json.RawMessage `json:"payload"`
	ID        string          `json:"id"`
	TaskID    string          `json:"task_id"`
	UpdatedBy string          `json:"updated_by"`
}

func toReportRecord[P domain.ReportData](r *domain.Report[P]) (*reportRecord, error) {
	payload, err := json.Marshal(r.Data)
	if err != nil {
		return nil, err
	}
	return &reportRecord{
		ID:        r.ID,
		TaskID:    r.TaskID,
		TenantID:  tenantToNullable(r.TenantID),
		Payload:   payload,
		UpdatedBy: r.UpdatedBy,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}, nil
}

func fromReportRecord[P domain.ReportData](r *reportRecord) (*domain.Report[P], error) {
	var data P
	if err := json.Unmarshal(r.Payload, &data); err != nil {
		return nil, err
	}
	return &domain.Report[P]{
		ID:        r.ID,
		TaskID:    r.TaskID,
		TenantID:  tenantFromNullable(r.TenantID),
		Data:      data,
		UpdatedBy: r.UpdatedBy,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}, nil
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

func copyString(s *string) *string {
	if s == nil {
		return nil
	}
	c := *s
	return &c
}

func copyDate(d *domain.Date) *domain.Date {
	if d == nil {
		return nil
	}
	c := *d
	return &c
}
