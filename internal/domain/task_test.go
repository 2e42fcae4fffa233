package domain

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFieldSchedule_Validate(t *testing.T) {
	d := DatePtr(MustParseDate("2025-03-10"))
	end := DatePtr(MustParseDate("2025-03-15"))

	tests := []struct {
		name    string
		sched   FieldSchedule
		wantErr bool
	}{
		{"empty", FieldSchedule{}, false},
		{"single date", FieldSchedule{Date: d}, false},
		{"range", FieldSchedule{Start: d, End: end}, false},
		{"one-day range", FieldSchedule{Start: d, End: d}, false},
		{"inverted range", FieldSchedule{Start: end, End: d}, true},
		{"open range", FieldSchedule{Start: d}, true},
		{"date and range", FieldSchedule{Date: d, Start: d, End: end}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.sched.Validate()
			if tt.wantErr {
				assert.True(t, errors.Is(err, ErrValidation))
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestTask_EarliestDate(t *testing.T) {
	task := &Task{
		ReportDueDate: DatePtr(MustParseDate("2025-03-20")),
		Field: FieldSchedule{
			Start: DatePtr(MustParseDate("2025-03-10")),
			End:   DatePtr(MustParseDate("2025-03-15")),
		},
	}
	got, ok := task.EarliestDate()
	assert.True(t, ok)
	assert.Equal(t, "2025-03-10", got.String())

	task.Field = FieldSchedule{}
	got, ok = task.EarliestDate()
	assert.True(t, ok)
	assert.Equal(t, "2025-03-20", got.String())

	_, ok = (&Task{}).EarliestDate()
	assert.False(t, ok)
}

func TestTask_CloneIsDeep(t *testing.T) {
	tech := "tech-1"
	task := &Task{
		ID:                   "t1",
		AssignedTechnicianID: &tech,
		ReportDueDate:        DatePtr(MustParseDate("2025-03-20")),
	}
	c := task.Clone()
	*c.AssignedTechnicianID = "tech-2"
	*c.ReportDueDate = MustParseDate("2025-04-01")

	assert.Equal(t, "tech-1", *task.AssignedTechnicianID)
	assert.Equal(t, "2025-03-20", task.ReportDueDate.String())
}

func TestUser_Label(t *testing.T) {
	assert.Equal(t, "Ana", (&User{DisplayName: "Ana", Email: "ana@example.com"}).Label())
	assert.Equal(t, "ana@example.com", (&User{Email: "ana@example.com"}).Label())
	assert.Equal(t, UnassignedLabel, (&User{}).Label())
	var nilUser *User
	assert.Equal(t, UnassignedLabel, nilUser.Label())
}

func TestReportKindFor(t *testing.T) {
	for _, rk := range AllReportKinds() {
		got, ok := ReportKindFor(rk.TaskKind())
		assert.True(t, ok)
		assert.Equal(t, rk, got)
	}
	_, ok := ReportKindFor(KindCylinderPickup)
	assert.False(t, ok)
}

func TestErrorClasses(t *testing.T) {
	assert.True(t, errors.Is(ErrTaskNotFound, ErrNotFound))
	assert.True(t, errors.Is(ErrTaskApproved, ErrForbidden))
	assert.True(t, errors.Is(ErrRemarksRequired, ErrValidation))
	assert.True(t, errors.Is(ErrVersionMismatch, ErrConflict))
	assert.False(t, errors.Is(ErrTaskNotFound, ErrForbidden))
}
