package usecase

import (
	"context"
	"fmt"

	"github.com/fieldlab/fieldops/internal/domain"
)

// ListNotificationsInput contains the parameters for reading an inbox.
type ListNotificationsInput struct {
	Actor      domain.Actor
	UnreadOnly bool
}

// ListNotificationsOutput contains the actor's notifications, newest first.
type ListNotificationsOutput struct {
	Notifications []*domain.Notification
}

// ListNotifications reads the acting user's inbox.
type ListNotifications struct {
	notifications domain.NotificationRepository
}

// NewListNotifications creates a new ListNotifications use case.
func NewListNotifications(notifications domain.NotificationRepository) *ListNotifications {
	return &ListNotifications{notifications: notifications}
}

// Execute lists the actor's notifications within the actor's tenant.
func (uc *ListNotifications) Execute(ctx context.Context, in ListNotificationsInput) (*ListNotificationsOutput, error) {
	all, err := uc.notifications.ListForRecipient(ctx, in.Actor.UserID, in.UnreadOnly)
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	out := make([]*domain.Notification, 0, len(all))
	for _, n := range all {
		if n.TenantID == in.Actor.TenantID {
			out = append(out, n)
		}
	}
	return &ListNotificationsOutput{Notifications: out}, nil
}

// MarkNotificationReadInput contains the parameters for marking a notification read.
type MarkNotificationReadInput struct {
	Actor          domain.Actor
	NotificationID string
}

// MarkNotificationRead flags one of the actor's notifications as read.
type MarkNotificationRead struct {
	notifications domain.NotificationRepository
}

// NewMarkNotificationRead creates a new MarkNotificationRead use case.
func NewMarkNotificationRead(notifications domain.NotificationRepository) *MarkNotificationRead {
	return &MarkNotificationRead{notifications: notifications}
}

// Execute marks the notification read. Other users' notifications are not found.
func (uc *MarkNotificationRead) Execute(ctx context.Context, in MarkNotificationReadInput) error {
	n, err := uc.notifications.Get(ctx, in.NotificationID)
	if err != nil {
		return fmt.Errorf("get notification: %w", err)
	}
	if n == nil || n.RecipientID != in.Actor.UserID || n.TenantID != in.Actor.TenantID {
		return domain.ErrNotificationNotFound
	}
	if n.IsRead {
		return nil
	}
	if err := uc.notifications.MarkRead(ctx, n.ID); err != nil {
		return fmt.Errorf("mark notification read: %w", err)
	}
	return nil
}
