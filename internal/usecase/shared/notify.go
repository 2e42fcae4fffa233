package shared

import (
	"context"
	"fmt"
	"sync"

	"github.com/fieldlab/fieldops/internal/domain"
)

// Dispatcher delivers notifications created by task transitions.
// Delivery is best-effort: failures are logged per recipient and never
// returned to the operation that triggered them.
type Dispatcher struct {
	notifications domain.NotificationRepository
	users         domain.UserRepository
	clock         domain.Clock
	logger        domain.Logger
	wg            sync.WaitGroup
	async         bool
}

// NewDispatcher creates a new Dispatcher. With async set, delivery runs on a
// background goroutine; call Wait before shutdown to drain it.
func NewDispatcher(
	notifications domain.NotificationRepository,
	users domain.UserRepository,
	clock domain.Clock,
	logger domain.Logger,
	async bool,
) *Dispatcher {
	if logger == nil {
		logger = domain.NopLogger{}
	}
	return &Dispatcher{
		notifications: notifications,
		users:         users,
		clock:         clock,
		logger:        logger,
		async:         async,
	}
}

// NotifyAdmins sends message to every admin in the task's tenant.
func (d *Dispatcher) NotifyAdmins(ctx context.Context, task *domain.Task, message string) {
	if d == nil {
		return
	}
	admins, err := d.users.ListByRole(ctx, task.TenantID, domain.RoleAdmin)
	if err != nil {
		d.logger.Error(task.ID, "notify", fmt.Sprintf("list admins of tenant %s: %v", task.TenantID, err))
		return
	}
	batch := make([]domain.Notification, 0, len(admins))
	for _, admin := range admins {
		// The repository already scopes by tenant; keep the invariant local too.
		if admin.TenantID != task.TenantID {
			continue
		}
		batch = append(batch, d.build(task, admin.ID, message))
	}
	d.dispatch(ctx, task.ID, batch)
}

// NotifyUser sends message to a single recipient about task.
func (d *Dispatcher) NotifyUser(ctx context.Context, task *domain.Task, recipientID, message string) {
	if d == nil || recipientID == "" {
		return
	}
	d.dispatch(ctx, task.ID, []domain.Notification{d.build(task, recipientID, message)})
}

// Wait blocks until background deliveries finish.
func (d *Dispatcher) Wait() {
	if d == nil {
		return
	}
	d.wg.Wait()
}

func (d *Dispatcher) build(task *domain.Task, recipientID, message string) domain.Notification {
	return domain.Notification{
		ID:          NewID(),
		TenantID:    task.TenantID,
		RecipientID: recipientID,
		TaskID:      task.ID,
		ProjectID:   task.ProjectID,
		Message:     message,
		CreatedAt:   d.clock.Now(),
	}
}

func (d *Dispatcher) dispatch(ctx context.Context, taskID string, batch []domain.Notification) {
	if len(batch) == 0 {
		return
	}
	if !d.async {
		d.deliver(ctx, taskID, batch)
		return
	}
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		d.deliver(context.WithoutCancel(ctx), taskID, batch)
	}()
}

// deliver stores notifications one recipient at a time so a partial failure
// is visible in the log recipient by recipient.
func (d *Dispatcher) deliver(ctx context.Context, taskID string, batch []domain.Notification) {
	failed := 0
	for i := range batch {
		n := batch[i]
		if err := d.notifications.Create(ctx, &n); err != nil {
			failed++
			d.logger.Error(taskID, "notify", fmt.Sprintf("deliver to %s: %v", n.RecipientID, err))
			continue
		}
		d.logger.Debug(taskID, "notify", "delivered to "+n.RecipientID)
	}
	if failed > 0 {
		d.logger.Warn(taskID, "notify", fmt.Sprintf("%d of %d notifications failed", failed, len(batch)))
	}
}

// SubmittedMessage is sent to admins when a technician submits a report.
func SubmittedMessage(technician string, kind domain.TaskKind, projectNumber string) string {
	return fmt.Sprintf("%s submitted the %s report for project %s", technician, kind.Display(), projectNumber)
}

// RejectedMessage is sent to the technician when a report is rejected.
func RejectedMessage(kind domain.TaskKind, projectNumber, remarks string, due domain.Date) string {
	return fmt.Sprintf("Your %s report for project %s needs changes: %s (resubmit by %s)", kind.Display(), projectNumber, remarks, due)
}

// AssignedMessage is sent to a technician newly bound to a task.
func AssignedMessage(kind domain.TaskKind, projectNumber, title string) string {
	return fmt.Sprintf("You have been assigned the %s task %q for project %s", kind.Display(), title, projectNumber)
}
