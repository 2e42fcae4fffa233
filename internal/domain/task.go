package domain

import "time"

// TaskKind is the type of field test a task represents.
type TaskKind string

// Task kinds.
const (
	KindCompressiveStrength TaskKind = "COMPRESSIVE_STRENGTH"
	KindDensityMeasurement  TaskKind = "DENSITY_MEASUREMENT"
	KindProctor             TaskKind = "PROCTOR"
	KindRebar               TaskKind = "REBAR"
	KindCylinderPickup      TaskKind = "CYLINDER_PICKUP"
)

// AllTaskKinds returns all valid task kinds.
func AllTaskKinds() []TaskKind {
	return []TaskKind{
		KindCompressiveStrength,
		KindDensityMeasurement,
		KindProctor,
		KindRebar,
		KindCylinderPickup,
	}
}

// IsValid returns true if the kind is a known value.
func (k TaskKind) IsValid() bool {
	switch k {
	case KindCompressiveStrength, KindDensityMeasurement, KindProctor, KindRebar, KindCylinderPickup:
		return true
	default:
		return false
	}
}

// Display returns a human-readable name for the kind.
func (k TaskKind) Display() string {
	switch k {
	case KindCompressiveStrength:
		return "Compressive Strength"
	case KindDensityMeasurement:
		return "Density Measurement"
	case KindProctor:
		return "Proctor"
	case KindRebar:
		return "Rebar Inspection"
	case KindCylinderPickup:
		return "Cylinder Pickup"
	default:
		return string(k)
	}
}

// FieldSchedule is the field-work date axis: either a single date or an inclusive range.
type FieldSchedule struct {
	Date  *Date `json:"date,omitempty"`
	Start *Date `json:"start,omitempty"`
	End   *Date `json:"end,omitempty"`
}

// IsEmpty reports whether no field date is scheduled.
func (f FieldSchedule) IsEmpty() bool {
	return f.Date == nil && f.Start == nil && f.End == nil
}

// IsRange reports whether the schedule is a date range.
func (f FieldSchedule) IsRange() bool {
	return f.Start != nil && f.End != nil
}

// Validate checks that the schedule is a single date or a well-ordered range, never both.
func (f FieldSchedule) Validate() error {
	if f.IsEmpty() {
		return nil
	}
	if f.Date != nil {
		if f.Start != nil || f.End != nil {
			return ErrInvalidFieldSchedule
		}
		return nil
	}
	if f.Start == nil || f.End == nil || f.End.Before(*f.Start) {
		return ErrInvalidFieldSchedule
	}
	return nil
}

// First returns the earliest field date, if any.
func (f FieldSchedule) First() (Date, bool) {
	if f.Date != nil {
		return *f.Date, true
	}
	if f.Start != nil {
		return *f.Start, true
	}
	return Date{}, false
}

// String formats the schedule for notes and listings.
func (f FieldSchedule) String() string {
	switch {
	case f.Date != nil:
		return f.Date.String()
	case f.IsRange():
		return f.Start.String() + ".." + f.End.String()
	default:
		return "none"
	}
}

// Equal reports whether two schedules name the same dates.
func (f FieldSchedule) Equal(other FieldSchedule) bool {
	return datePtrEqual(f.Date, other.Date) && datePtrEqual(f.Start, other.Start) && datePtrEqual(f.End, other.End)
}

// Task is a unit of field-testing work belonging to one project and tenant.
// The task row holds only the current state; history entries explain how it got there.
type Task struct {
	CreatedAt            time.Time     `json:"createdAt"`
	UpdatedAt            time.Time     `json:"updatedAt"`
	FieldCompletedAt     *time.Time    `json:"fieldCompletedAt,omitempty"`
	SubmittedAt          *time.Time    `json:"submittedAt,omitempty"`
	CompletedAt          *time.Time    `json:"completedAt,omitempty"`
	AssignedTechnicianID *string       `json:"assignedTechnicianId,omitempty"`
	ReportDueDate        *Date         `json:"reportDueDate,omitempty"`
	ResubmissionDueDate  *Date         `json:"resubmissionDueDate,omitempty"`
	Field                FieldSchedule `json:"field"`
	ID                   string        `json:"id"`
	TenantID             TenantID      `json:"tenantId"`
	ProjectID            string        `json:"projectId"`
	Kind                 TaskKind      `json:"kind"`
	Status               Status        `json:"status"`
	Title                string        `json:"title"`
	LocationNotes        string        `json:"locationNotes,omitempty"`
	RejectionRemarks     string        `json:"rejectionRemarks,omitempty"`
	CreatedBy            string        `json:"createdBy"`
	Version              int64         `json:"version"`
	FieldCompleted       bool          `json:"fieldCompleted"`
	ReportSubmitted      bool          `json:"reportSubmitted"`
}

// IsAssignedTo returns true if the given user is the assigned technician.
func (t *Task) IsAssignedTo(userID string) bool {
	return t.AssignedTechnicianID != nil && *t.AssignedTechnicianID == userID
}

// IsAssigned returns true if a technician is bound to the task.
func (t *Task) IsAssigned() bool {
	return t.AssignedTechnicianID != nil && *t.AssignedTechnicianID != ""
}

// EarliestDate returns the earliest of report due date and first field date.
func (t *Task) EarliestDate() (Date, bool) {
	first, ok := t.Field.First()
	if t.ReportDueDate == nil {
		return first, ok
	}
	if !ok || t.ReportDueDate.Before(first) {
		return *t.ReportDueDate, true
	}
	return first, true
}

// Clone returns a deep copy of the task.
func (t *Task) Clone() *Task {
	if t == nil {
		return nil
	}
	c := *t
	c.FieldCompletedAt = cloneTime(t.FieldCompletedAt)
	c.SubmittedAt = cloneTime(t.SubmittedAt)
	c.CompletedAt = cloneTime(t.CompletedAt)
	c.AssignedTechnicianID = cloneString(t.AssignedTechnicianID)
	c.ReportDueDate = cloneDate(t.ReportDueDate)
	c.ResubmissionDueDate = cloneDate(t.ResubmissionDueDate)
	c.Field = FieldSchedule{
		Date:  cloneDate(t.Field.Date),
		Start: cloneDate(t.Field.Start),
		End:   cloneDate(t.Field.End),
	}
	return &c
}

// TaskFilter specifies criteria for listing tasks.
// Tenant is always applied; the zero value selects legacy tasks.
type TaskFilter struct {
	AssignedTo *string // nil = any technician
	ProjectID  string  // empty = any project
	Statuses   []Status
	TenantID   TenantID
}

// Project groups tasks for one job site.
type Project struct {
	CreatedAt time.Time `json:"createdAt"`
	ID        string    `json:"id"`
	TenantID  TenantID  `json:"tenantId"`
	Number    string    `json:"number"`
	Name      string    `json:"name"`
	CreatedBy string    `json:"createdBy"`
}

// WorkPackage is the deprecated predecessor of Task, kept readable for migration.
type WorkPackage struct {
	CreatedAt            time.Time `json:"createdAt"`
	AssignedTechnicianID *string   `json:"assignedTechnicianId,omitempty"`
	ReportDueDate        *Date     `json:"reportDueDate,omitempty"`
	MigratedTaskID       *string   `json:"migratedTaskId,omitempty"`
	ID                   string    `json:"id"`
	TenantID             TenantID  `json:"tenantId"`
	ProjectID            string    `json:"projectId"`
	Kind                 TaskKind  `json:"kind"`
	Title                string    `json:"title"`
}

func datePtrEqual(a, b *Date) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Compare(*b) == 0
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	c := *t
	return &c
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	c := *s
	return &c
}

func cloneDate(d *Date) *Date {
	if d == nil {
		return nil
	}
	c := *d
	return &c
}
