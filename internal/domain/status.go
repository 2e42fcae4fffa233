package domain

// Status represents the lifecycle state of a task.
type Status string

const (
	StatusAssigned         Status = "ASSIGNED"           // Technician bound, work not started
	StatusInProgressTech   Status = "IN_PROGRESS_TECH"   // Technician working
	StatusReadyForReview   Status = "READY_FOR_REVIEW"   // Report submitted, awaiting admin review
	StatusApproved         Status = "APPROVED"           // Terminal; read-only until reopened
	StatusRejectedNeedsFix Status = "REJECTED_NEEDS_FIX" // Sent back to the technician with remarks
)

// AllStatuses returns all valid status values.
func AllStatuses() []Status {
	return []Status{
		StatusAssigned,
		StatusInProgressTech,
		StatusReadyForReview,
		StatusApproved,
		StatusRejectedNeedsFix,
	}
}

// IsValid returns true if the status is a known valid value.
func (s Status) IsValid() bool {
	switch s {
	case StatusAssigned, StatusInProgressTech, StatusReadyForReview, StatusApproved, StatusRejectedNeedsFix:
		return true
	default:
		return false
	}
}

// IsTerminal returns true if the status is a terminal state.
func (s Status) IsTerminal() bool {
	return s == StatusApproved
}

// Display returns a human-readable representation of the status.
func (s Status) Display() string {
	switch s {
	case StatusAssigned:
		return "Assigned"
	case StatusInProgressTech:
		return "In Progress"
	case StatusReadyForReview:
		return "Ready for Review"
	case StatusApproved:
		return "Approved"
	case StatusRejectedNeedsFix:
		return "Needs Fix"
	default:
		return string(s)
	}
}

// TechnicianRequestable returns true if a technician may ask for this status at all.
func (s Status) TechnicianRequestable() bool {
	return s == StatusInProgressTech || s == StatusReadyForReview
}

// Effect is a side effect attached to an allowed transition.
type Effect int

// Transition effects.
const (
	EffectNone     Effect = iota // history entry only
	EffectSubmit                 // stamp submission, notify tenant admins
	EffectApprove                // stamp completion
	EffectReject                 // require remarks and resubmission date, notify technician
	EffectResubmit               // technician picks a rejected task back up
)

// Transition is one row of the status whitelist.
type Transition struct {
	From    Status
	To      Status
	Roles   []Role
	Action  HistoryAction
	Effect  Effect
	Summary string
}

// AllowedFor returns true if the role may perform the transition.
func (t Transition) AllowedFor(role Role) bool {
	for _, r := range t.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// transitions is the closed whitelist of status changes reachable through SetStatus.
// Flow: ASSIGNED → IN_PROGRESS_TECH → READY_FOR_REVIEW → APPROVED
//
//	↑                  ↓
//	└── REJECTED_NEEDS_FIX
var transitions = []Transition{
	{
		From: StatusAssigned, To: StatusInProgressTech,
		Roles:  []Role{RoleTechnician, RoleAdmin},
		Action: HistoryStatusChanged, Effect: EffectNone,
		Summary: "work started",
	},
	{
		From: StatusInProgressTech, To: StatusReadyForReview,
		Roles:  []Role{RoleTechnician, RoleAdmin},
		Action: HistorySubmitted, Effect: EffectSubmit,
		Summary: "report submitted for review",
	},
	{
		From: StatusReadyForReview, To: StatusApproved,
		Roles:  []Role{RoleAdmin},
		Action: HistoryApproved, Effect: EffectApprove,
		Summary: "report approved",
	},
	{
		From: StatusReadyForReview, To: StatusRejectedNeedsFix,
		Roles:  []Role{RoleAdmin},
		Action: HistoryRejected, Effect: EffectReject,
	},
	{
		From: StatusRejectedNeedsFix, To: StatusInProgressTech,
		Roles:  []Role{RoleTechnician, RoleAdmin},
		Action: HistoryStatusChanged, Effect: EffectResubmit,
		Summary: "rework started after rejection",
	},
}

// LookupTransition returns the whitelist row for from → to, if any.
func LookupTransition(from, to Status) (Transition, bool) {
	for _, t := range transitions {
		if t.From == from && t.To == to {
			return t, true
		}
	}
	return Transition{}, false
}

// Transitions returns a copy of the whitelist.
func Transitions() []Transition {
	out := make([]Transition, len(transitions))
	copy(out, transitions)
	return out
}

// CanTransitionTo returns true if the status can transition to the target status for some role.
func (s Status) CanTransitionTo(target Status) bool {
	_, ok := LookupTransition(s, target)
	return ok
}
