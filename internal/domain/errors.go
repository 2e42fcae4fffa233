package domain

import "errors"

// Error classes. Every domain error unwraps to exactly one of these.
var (
	ErrNotFound          = errors.New("not found")
	ErrForbidden         = errors.New("forbidden")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrValidation        = errors.New("validation error")
	ErrConflict          = errors.New("conflict")
)

// classError is a specific error that belongs to an error class.
type classError struct {
	class error
	msg   string
}

func (e *classError) Error() string { return e.msg }

func (e *classError) Unwrap() error { return e.class }

func newClassError(class error, msg string) error {
	return &classError{class: class, msg: msg}
}

// Domain errors.
var (
	ErrTaskNotFound         = newClassError(ErrNotFound, "task not found")
	ErrProjectNotFound      = newClassError(ErrNotFound, "project not found")
	ErrUserNotFound         = newClassError(ErrNotFound, "user not found")
	ErrReportNotFound       = newClassError(ErrNotFound, "report not found")
	ErrWorkPackageNotFound  = newClassError(ErrNotFound, "work package not found")
	ErrNotificationNotFound = newClassError(ErrNotFound, "notification not found")
	ErrNoTaskLog            = newClassError(ErrNotFound, "no log entries for task")

	ErrAdminOnly        = newClassError(ErrForbidden, "operation requires the admin role")
	ErrNotAssigned      = newClassError(ErrForbidden, "task is not assigned to you")
	ErrTechnicianStatus = newClassError(ErrForbidden, "technicians may only move tasks to IN_PROGRESS_TECH or READY_FOR_REVIEW")
	ErrTaskApproved     = newClassError(ErrForbidden, "task is approved and read-only; reopen it first")
	ErrTaskUnderReview  = newClassError(ErrForbidden, "task is under review and read-only for technicians")

	ErrRemarksRequired        = newClassError(ErrValidation, "rejection remarks are required")
	ErrResubmissionDue        = newClassError(ErrValidation, "resubmission due date is required")
	ErrReasonRequired         = newClassError(ErrValidation, "reason is required")
	ErrNoFieldsToUpdate       = newClassError(ErrValidation, "no fields to update")
	ErrEmptyTitle             = newClassError(ErrValidation, "title cannot be empty")
	ErrInvalidStatus          = newClassError(ErrValidation, "invalid status")
	ErrInvalidKind            = newClassError(ErrValidation, "invalid task kind")
	ErrInvalidRole            = newClassError(ErrValidation, "invalid role")
	ErrInvalidFieldSchedule   = newClassError(ErrValidation, "field schedule must be a single date or a range with start <= end")
	ErrReportKindMismatch     = newClassError(ErrValidation, "report kind does not match task kind")
	ErrNotTechnician          = newClassError(ErrValidation, "assignee must be a technician in the same tenant")
	ErrDuplicateProjectNumber = newClassError(ErrValidation, "project number already exists")
	ErrEmptyProjectNumber     = newClassError(ErrValidation, "project number cannot be empty")
	ErrEmptyEmail             = newClassError(ErrValidation, "email cannot be empty")

	ErrVersionMismatch        = newClassError(ErrConflict, "task was modified concurrently")
	ErrReportTenantMismatch   = newClassError(ErrConflict, "existing report row belongs to a different tenant")
	ErrNotInitialized         = errors.New("store not initialized (run 'fieldops init' first)")
	ErrAlreadyInitialized     = errors.New("store already initialized")
	ErrUnsupportedStoreDriver = errors.New("unsupported store driver")
	ErrConfigExists           = errors.New("config file already exists")
	ErrConfigNil              = errors.New("config is nil")
)
