package domain

import "time"

// HistoryAction is the kind of a history entry.
type HistoryAction string

// History actions.
const (
	HistorySubmitted     HistoryAction = "SUBMITTED"
	HistoryApproved      HistoryAction = "APPROVED"
	HistoryRejected      HistoryAction = "REJECTED"
	HistoryReassigned    HistoryAction = "REASSIGNED"
	HistoryStatusChanged HistoryAction = "STATUS_CHANGED"
)

// IsValid returns true if the action is a known value.
func (a HistoryAction) IsValid() bool {
	switch a {
	case HistorySubmitted, HistoryApproved, HistoryRejected, HistoryReassigned, HistoryStatusChanged:
		return true
	default:
		return false
	}
}

// Fixed history notes.
const (
	NoteTaskCreated    = "task created"
	NoteFieldCompleted = "field work marked complete"
)

// HistoryEntry is an immutable audit record of one state-changing action on a task.
type HistoryEntry struct {
	CreatedAt time.Time     `json:"createdAt"`
	ID        string        `json:"id"`
	TaskID    string        `json:"taskId"`
	TenantID  TenantID      `json:"tenantId"`
	ActorID   string        `json:"actorId"`
	ActorName string        `json:"actorName"`
	ActorRole Role          `json:"actorRole"`
	Action    HistoryAction `json:"action"`
	Note      string        `json:"note,omitempty"`
}

// Notification is an inbox message created as a side effect of a task transition.
type Notification struct {
	CreatedAt   time.Time `json:"createdAt"`
	ID          string    `json:"id"`
	TenantID    TenantID  `json:"tenantId"`
	RecipientID string    `json:"recipientId"`
	TaskID      string    `json:"taskId"`
	ProjectID   string    `json:"projectId"`
	Message     string    `json:"message"`
	IsRead      bool      `json:"isRead"`
}
