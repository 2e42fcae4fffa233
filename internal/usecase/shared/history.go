package shared

import (
	"strings"

	"github.com/fieldlab/fieldops/internal/domain"
	"github.com/google/uuid"
)

// NewID returns a new time-ordered identifier.
func NewID() string {
	return uuid.Must(uuid.NewV7()).String()
}

// NewHistoryEntry builds a history entry for an action taken by actor on task.
func NewHistoryEntry(clock domain.Clock, task *domain.Task, actor domain.Actor, action domain.HistoryAction, note string) *domain.HistoryEntry {
	return &domain.HistoryEntry{
		ID:        NewID(),
		TaskID:    task.ID,
		TenantID:  task.TenantID,
		ActorID:   actor.UserID,
		ActorName: actor.Name,
		ActorRole: actor.Role,
		Action:    action,
		Note:      note,
		CreatedAt: clock.Now(),
	}
}

// ChangeNotes collects field-level deltas of one logical action.
type ChangeNotes []string

// Add records a change description.
func (c *ChangeNotes) Add(note string) {
	*c = append(*c, note)
}

// Changed records "<field> changed from <old> to <new>".
func (c *ChangeNotes) Changed(field, from, to string) {
	if from == "" {
		from = "none"
	}
	if to == "" {
		to = "none"
	}
	c.Add(field + " changed from " + from + " to " + to)
}

// Empty reports whether nothing changed.
func (c ChangeNotes) Empty() bool {
	return len(c) == 0
}

// String joins the changes into a single history note.
func (c ChangeNotes) String() string {
	return strings.Join(c, "; ")
}

// DateString formats an optional date for history notes.
func DateString(d *domain.Date) string {
	if d == nil {
		return ""
	}
	return d.String()
}
