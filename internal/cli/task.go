package cli

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/fieldlab/fieldops/internal/app"
	"github.com/fieldlab/fieldops/internal/domain"
	"github.com/fieldlab/fieldops/internal/usecase"
)

// newTaskCommand creates the task command and its subcommands.
func newTaskCommand(c *app.Container) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "task",
		Short: "Manage field-testing tasks",
		Long: `Manage field-testing tasks.

Status workflow:
  ASSIGNED -> IN_PROGRESS_TECH -> READY_FOR_REVIEW -> APPROVED
                                                   -> REJECTED_NEEDS_FIX -> IN_PROGRESS_TECH

Technicians start work and submit reports; admins approve or reject.
Approved tasks are read-only until an admin reopens them.`,
	}

	cmd.AddCommand(
		newTaskNewCommand(c),
		newTaskListCommand(c),
		newTaskShowCommand(c),
		newTaskEditCommand(c),
		newTaskStatusCommand(c),
		newTaskAssignCommand(c),
		newTaskFieldCompleteCommand(c),
		newTaskReopenCommand(c),
		newTaskHistoryCommand(c),
		newTaskLogsCommand(c),
	)
	return cmd
}

// fieldFlags binds the field schedule flags shared by new and edit.
type fieldFlags struct {
	Date  string
	Start string
	End   string
}

func (f *fieldFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.Date, "field-date", "", "Single field date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&f.Start, "field-start", "", "Field range start (YYYY-MM-DD)")
	cmd.Flags().StringVar(&f.End, "field-end", "", "Field range end (YYYY-MM-DD)")
	cmd.MarkFlagsMutuallyExclusive("field-date", "field-start")
	cmd.MarkFlagsMutuallyExclusive("field-date", "field-end")
	cmd.MarkFlagsRequiredTogether("field-start", "field-end")
}

func (f *fieldFlags) changed(cmd *cobra.Command) bool {
	return cmd.Flags().Changed("field-date") || cmd.Flags().Changed("field-start") || cmd.Flags().Changed("field-end")
}

func (f *fieldFlags) schedule() (domain.FieldSchedule, error) {
	var fs domain.FieldSchedule
	var err error
	if fs.Date, err = parseOptionalDate(f.Date); err != nil {
		return fs, err
	}
	if fs.Start, err = parseOptionalDate(f.Start); err != nil {
		return fs, err
	}
	if fs.End, err = parseOptionalDate(f.End); err != nil {
		return fs, err
	}
	return fs, nil
}

// parseOptionalDate parses a date flag; empty means unset.
func parseOptionalDate(s string) (*domain.Date, error) {
	if s == "" {
		return nil, nil
	}
	d, err := domain.ParseDate(s)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// parseStatus accepts READY_FOR_REVIEW, ready_for_review or ready-for-review.
func parseStatus(s string) (domain.Status, error) {
	st := domain.Status(strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(s), "-", "_")))
	if !st.IsValid() {
		return "", fmt.Errorf("%w: %q", domain.ErrInvalidStatus, s)
	}
	return st, nil
}

// parseKind accepts task kinds in any case, with dashes or underscores.
func parseKind(s string) (domain.TaskKind, error) {
	k := domain.TaskKind(strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(s), "-", "_")))
	if !k.IsValid() {
		return "", fmt.Errorf("%w: %q", domain.ErrInvalidKind, s)
	}
	return k, nil
}

// newTaskNewCommand creates the task new subcommand.
func newTaskNewCommand(c *app.Container) *cobra.Command {
	var opts struct {
		Field      fieldFlags
		Project    string
		Title      string
		Kind       string
		Technician string
		Due        string
		Notes      string
	}

	cmd := &cobra.Command{
		Use:   "new",
		Short: "Create a task (admin only)",
		Long: `Create a field-testing task in one of your projects.

The task starts as ASSIGNED. Its kind cannot change later.
Kinds: compressive_strength, density_measurement, proctor, rebar, cylinder_pickup

Examples:
  # Single field date
  fieldops task new --as <admin-id> --project <project-id> --kind proctor \
    --title "Borrow pit sample" --field-date 2025-03-14 --due 2025-03-21

  # Field range, assigned to a technician
  fieldops task new --as <admin-id> --project <project-id> --kind density_measurement \
    --title "Subgrade densities" --field-start 2025-03-14 --field-end 2025-03-18 \
    --tech <technician-id>`,
		Args: cobra.NoArgs,
	}
	as := addActorFlag(cmd)
	cmd.RunE = func(cmd *cobra.Command, _ []string) error {
		actor, err := resolveActor(cmd, c, *as)
		if err != nil {
			return err
		}
		kind, err := parseKind(opts.Kind)
		if err != nil {
			return err
		}
		due, err := parseOptionalDate(opts.Due)
		if err != nil {
			return err
		}
		field, err := opts.Field.schedule()
		if err != nil {
			return err
		}

		out, err := c.NewTaskUseCase().Execute(cmd.Context(), usecase.NewTaskInput{
			Actor:         actor,
			ProjectID:     opts.Project,
			Title:         opts.Title,
			Kind:          kind,
			TechnicianID:  opts.Technician,
			ReportDueDate: due,
			Field:         field,
			LocationNotes: opts.Notes,
		})
		if err != nil {
			return err
		}

		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Created task %s\n", out.Task.ID)
		return nil
	}

	cmd.Flags().StringVar(&opts.Project, "project", "", "Project ID (required)")
	cmd.Flags().StringVar(&opts.Title, "title", "", "Task title (required)")
	cmd.Flags().StringVar(&opts.Kind, "kind", "", "Task kind (required)")
	cmd.Flags().StringVar(&opts.Technician, "tech", "", "Assigned technician ID")
	cmd.Flags().StringVar(&opts.Due, "due", "", "Report due date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&opts.Notes, "notes", "", "Location notes")
	opts.Field.register(cmd)
	_ = cmd.MarkFlagRequired("project")
	_ = cmd.MarkFlagRequired("title")
	_ = cmd.MarkFlagRequired("kind")

	return cmd
}

// newTaskListCommand creates the task list subcommand.
func newTaskListCommand(c *app.Container) *cobra.Command {
	var opts struct {
		Project  string
		Statuses []string
	}

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List tasks",
		Long: `List tasks of your tenant. Technicians see only their own tasks.

Examples:
  fieldops task list --as <user-id>
  fieldops task list --as <admin-id> --status ready_for_review --project <project-id>`,
		Args: cobra.NoArgs,
	}
	as := addActorFlag(cmd)
	cmd.RunE = func(cmd *cobra.Command, _ []string) error {
		actor, err := resolveActor(cmd, c, *as)
		if err != nil {
			return err
		}
		input := usecase.ListTasksInput{Actor: actor, ProjectID: opts.Project}
		for _, s := range opts.Statuses {
			st, err := parseStatus(s)
			if err != nil {
				return err
			}
			input.Statuses = append(input.Statuses, st)
		}

		out, err := c.ListTasksUseCase().Execute(cmd.Context(), input)
		if err != nil {
			return err
		}
		printTaskList(cmd.OutOrStdout(), out.Tasks)
		return nil
	}

	cmd.Flags().StringVar(&opts.Project, "project", "", "Filter by project ID")
	cmd.Flags().StringArrayVar(&opts.Statuses, "status", nil, "Filter by status (can specify multiple)")
	return cmd
}

// printTaskList prints tasks in TSV format.
func printTaskList(w io.Writer, tasks []*domain.Task) {
	tw := tabwriter.NewWriter(w, 0, 0, 3, ' ', 0)
	defer func() { _ = tw.Flush() }()

	_, _ = fmt.Fprintln(tw, "ID\tSTATUS\tKIND\tDUE\tFIELD\tTITLE")
	for _, task := range tasks {
		due := "-"
		if task.ReportDueDate != nil {
			due = task.ReportDueDate.String()
		}
		field := "-"
		if !task.Field.IsEmpty() {
			field = task.Field.String()
		}
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
			task.ID,
			task.Status,
			task.Kind,
			due,
			field,
			task.Title,
		)
	}
}

// newTaskShowCommand creates the task show subcommand.
func newTaskShowCommand(c *app.Container) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show task details",
		Args:  cobra.ExactArgs(1),
	}
	as := addActorFlag(cmd)
	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		actor, err := resolveActor(cmd, c, *as)
		if err != nil {
			return err
		}
		out, err := c.ShowTaskUseCase().Execute(cmd.Context(), usecase.ShowTaskInput{Actor: actor, TaskID: args[0]})
		if err != nil {
			return err
		}
		printTaskDetails(cmd.OutOrStdout(), out)
		return nil
	}
	return cmd
}

// printTaskDetails prints one task.
func printTaskDetails(w io.Writer, out *usecase.ShowTaskOutput) {
	task := out.Task
	_, _ = fmt.Fprintf(w, "%s %s\n", headingStyle.Render("Task "+task.ID), task.Title)
	_, _ = fmt.Fprintf(w, "Status: %s\n", renderStatus(task.Status))
	_, _ = fmt.Fprintf(w, "Kind: %s\n", task.Kind.Display())
	if out.Project != nil {
		_, _ = fmt.Fprintf(w, "Project: %s %s\n", out.Project.Number, out.Project.Name)
	} else {
		_, _ = fmt.Fprintf(w, "Project: %s\n", task.ProjectID)
	}
	_, _ = fmt.Fprintf(w, "Technician: %s\n", out.Technician.Label())
	_, _ = fmt.Fprintf(w, "Field: %s\n", task.Field.String())
	if task.ReportDueDate != nil {
		_, _ = fmt.Fprintf(w, "Report due: %s\n", task.ReportDueDate)
	}
	_, _ = fmt.Fprintf(w, "Field work complete: %t\n", task.FieldCompleted)
	_, _ = fmt.Fprintf(w, "Report submitted: %t\n", task.ReportSubmitted)
	if task.Status == domain.StatusRejectedNeedsFix {
		_, _ = fmt.Fprintf(w, "Remarks: %s\n", task.RejectionRemarks)
		if task.ResubmissionDueDate != nil {
			_, _ = fmt.Fprintf(w, "Resubmit by: %s\n", task.ResubmissionDueDate)
		}
	}
	if task.LocationNotes != "" {
		_, _ = fmt.Fprintf(w, "Location: %s\n", task.LocationNotes)
	}
	_, _ = fmt.Fprintf(w, "Version: %d\n", task.Version)
	_, _ = fmt.Fprintln(w, mutedStyle.Render("Updated: "+task.UpdatedAt.Format("2006-01-02 15:04")))
}

// newTaskEditCommand creates the task edit subcommand.
func newTaskEditCommand(c *app.Container) *cobra.Command {
	var opts struct {
		Field      fieldFlags
		Title      string
		Due        string
		Notes      string
		ClearField bool
		ClearDue   bool
		Version    int64
	}

	cmd := &cobra.Command{
		Use:   "edit <id>",
		Short: "Edit task fields",
		Long: `Edit the title, report due date, field schedule or location notes of a task.
Technicians may change only the location notes of their own tasks.
All changes of one call are recorded as a single history entry.

Examples:
  fieldops task edit <id> --as <admin-id> --due 2025-03-28
  fieldops task edit <id> --as <admin-id> --field-start 2025-03-14 --field-end 2025-03-15
  fieldops task edit <id> --as <tech-id> --notes "Gate code 4411"`,
		Args: cobra.ExactArgs(1),
	}
	as := addActorFlag(cmd)
	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		actor, err := resolveActor(cmd, c, *as)
		if err != nil {
			return err
		}

		var patch usecase.TaskPatch
		if cmd.Flags().Changed("title") {
			patch.Title = &opts.Title
		}
		if cmd.Flags().Changed("notes") {
			patch.LocationNotes = &opts.Notes
		}
		if cmd.Flags().Changed("due") {
			if patch.ReportDueDate, err = parseOptionalDate(opts.Due); err != nil {
				return err
			}
		}
		patch.ClearReportDueDate = opts.ClearDue
		switch {
		case opts.ClearField:
			patch.Field = &domain.FieldSchedule{}
		case opts.Field.changed(cmd):
			fs, err := opts.Field.schedule()
			if err != nil {
				return err
			}
			patch.Field = &fs
		}

		out, err := c.EditTaskUseCase().Execute(cmd.Context(), usecase.EditTaskInput{
			Actor:           actor,
			TaskID:          args[0],
			Patch:           patch,
			ExpectedVersion: opts.Version,
		})
		if err != nil {
			return err
		}
		if out.Entry == nil {
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "No changes to task %s\n", out.Task.ID)
			return nil
		}
		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Updated task %s: %s\n", out.Task.ID, out.Entry.Note)
		return nil
	}

	cmd.Flags().StringVar(&opts.Title, "title", "", "New title")
	cmd.Flags().StringVar(&opts.Due, "due", "", "New report due date (YYYY-MM-DD)")
	cmd.Flags().BoolVar(&opts.ClearDue, "clear-due", false, "Remove the report due date")
	cmd.Flags().StringVar(&opts.Notes, "notes", "", "New location notes")
	cmd.Flags().BoolVar(&opts.ClearField, "clear-field", false, "Remove the field schedule")
	cmd.Flags().Int64Var(&opts.Version, "expect-version", 0, "Fail if the task changed since this version")
	opts.Field.register(cmd)
	cmd.MarkFlagsMutuallyExclusive("due", "clear-due")
	cmd.MarkFlagsMutuallyExclusive("clear-field", "field-date")
	cmd.MarkFlagsMutuallyExclusive("clear-field", "field-start")

	return cmd
}

// newTaskStatusCommand creates the task status subcommand.
func newTaskStatusCommand(c *app.Container) *cobra.Command {
	var opts struct {
		Remarks    string
		ResubmitBy string
		Version    int64
	}

	cmd := &cobra.Command{
		Use:   "status <id> <status>",
		Short: "Move a task to a new status",
		Long: `Move a task along the review workflow.

Technicians (on their own tasks):
  in_progress_tech   start work, or pick a rejected task back up
  ready_for_review   submit the report for review

Admins:
  approved              approve a submitted task
  rejected_needs_fix    send it back (requires --remarks and --resubmit-by)

Examples:
  fieldops task status <id> ready_for_review --as <tech-id>
  fieldops task status <id> rejected_needs_fix --as <admin-id> \
    --remarks "Cylinder 3 load missing" --resubmit-by 2025-03-20`,
		Args: cobra.ExactArgs(2),
	}
	as := addActorFlag(cmd)
	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		actor, err := resolveActor(cmd, c, *as)
		if err != nil {
			return err
		}
		status, err := parseStatus(args[1])
		if err != nil {
			return err
		}
		resubmit, err := parseOptionalDate(opts.ResubmitBy)
		if err != nil {
			return err
		}

		out, err := c.SetStatusUseCase().Execute(cmd.Context(), usecase.SetStatusInput{
			Actor:               actor,
			TaskID:              args[0],
			Status:              status,
			Remarks:             opts.Remarks,
			ResubmissionDueDate: resubmit,
			ExpectedVersion:     opts.Version,
		})
		if err != nil {
			return err
		}
		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Task %s is now %s\n", out.Task.ID, renderStatus(out.Task.Status))
		return nil
	}

	cmd.Flags().StringVar(&opts.Remarks, "remarks", "", "Rejection remarks")
	cmd.Flags().StringVar(&opts.ResubmitBy, "resubmit-by", "", "Resubmission due date (YYYY-MM-DD)")
	cmd.Flags().Int64Var(&opts.Version, "expect-version", 0, "Fail if the task changed since this version")
	return cmd
}

// newTaskAssignCommand creates the task assign subcommand.
func newTaskAssignCommand(c *app.Container) *cobra.Command {
	var opts struct {
		Unassign bool
		Version  int64
	}

	cmd := &cobra.Command{
		Use:   "assign <id> [technician-id]",
		Short: "Reassign a task (admin only)",
		Long: `Assign a task to a technician of the same tenant, or clear the assignment.

Examples:
  fieldops task assign <id> <technician-id> --as <admin-id>
  fieldops task assign <id> --unassign --as <admin-id>`,
		Args: cobra.RangeArgs(1, 2),
	}
	as := addActorFlag(cmd)
	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		if len(args) == 1 && !opts.Unassign {
			return fmt.Errorf("%w: technician ID or --unassign is required", domain.ErrValidation)
		}
		if len(args) == 2 && opts.Unassign {
			return fmt.Errorf("%w: cannot combine a technician ID with --unassign", domain.ErrValidation)
		}
		actor, err := resolveActor(cmd, c, *as)
		if err != nil {
			return err
		}
		techID := ""
		if len(args) == 2 {
			techID = args[1]
		}

		out, err := c.ReassignTaskUseCase().Execute(cmd.Context(), usecase.ReassignTaskInput{
			Actor:           actor,
			TaskID:          args[0],
			TechnicianID:    techID,
			ExpectedVersion: opts.Version,
		})
		if err != nil {
			return err
		}
		w := cmd.OutOrStdout()
		if !out.Changed {
			_, _ = fmt.Fprintf(w, "Task %s already has that assignment\n", out.Task.ID)
			return nil
		}
		_, _ = fmt.Fprintf(w, "Task %s: %s\n", out.Task.ID, out.Entry.Note)
		return nil
	}

	cmd.Flags().BoolVar(&opts.Unassign, "unassign", false, "Remove the assigned technician")
	cmd.Flags().Int64Var(&opts.Version, "expect-version", 0, "Fail if the task changed since this version")
	return cmd
}

// newTaskFieldCompleteCommand creates the task field-complete subcommand.
func newTaskFieldCompleteCommand(c *app.Container) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "field-complete <id>",
		Short: "Mark the field work of a task complete",
		Long: `Mark the field work of a task complete. Calling it again has no effect.
The task status does not change.`,
		Args: cobra.ExactArgs(1),
	}
	as := addActorFlag(cmd)
	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		actor, err := resolveActor(cmd, c, *as)
		if err != nil {
			return err
		}
		out, err := c.MarkFieldCompleteUseCase().Execute(cmd.Context(), usecase.MarkFieldCompleteInput{
			Actor:  actor,
			TaskID: args[0],
		})
		if err != nil {
			return err
		}
		if !out.Changed {
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Field work of task %s was already complete\n", out.Task.ID)
			return nil
		}
		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Marked field work of task %s complete\n", out.Task.ID)
		return nil
	}
	return cmd
}

// newTaskReopenCommand creates the task reopen subcommand.
func newTaskReopenCommand(c *app.Container) *cobra.Command {
	var opts struct {
		Reason  string
		Version int64
	}

	cmd := &cobra.Command{
		Use:   "reopen <id>",
		Short: "Withdraw an approval (admin only)",
		Long: `Move an approved task back to READY_FOR_REVIEW so it can be corrected.

Examples:
  fieldops task reopen <id> --as <admin-id> --reason "Wrong mix design on report"`,
		Args: cobra.ExactArgs(1),
	}
	as := addActorFlag(cmd)
	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		actor, err := resolveActor(cmd, c, *as)
		if err != nil {
			return err
		}
		out, err := c.ReopenTaskUseCase().Execute(cmd.Context(), usecase.ReopenTaskInput{
			Actor:           actor,
			TaskID:          args[0],
			Reason:          opts.Reason,
			ExpectedVersion: opts.Version,
		})
		if err != nil {
			return err
		}
		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Task %s is now %s\n", out.Task.ID, renderStatus(out.Task.Status))
		return nil
	}

	cmd.Flags().StringVar(&opts.Reason, "reason", "", "Why the approval is withdrawn (required)")
	cmd.Flags().Int64Var(&opts.Version, "expect-version", 0, "Fail if the task changed since this version")
	_ = cmd.MarkFlagRequired("reason")
	return cmd
}

// newTaskHistoryCommand creates the task history subcommand.
func newTaskHistoryCommand(c *app.Container) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history <id>",
		Short: "Show the history of a task, newest first",
		Args:  cobra.ExactArgs(1),
	}
	as := addActorFlag(cmd)
	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		actor, err := resolveActor(cmd, c, *as)
		if err != nil {
			return err
		}
		out, err := c.GetHistoryUseCase().Execute(cmd.Context(), usecase.GetHistoryInput{Actor: actor, TaskID: args[0]})
		if err != nil {
			return err
		}

		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 3, ' ', 0)
		defer func() { _ = tw.Flush() }()
		_, _ = fmt.Fprintln(tw, "TIME\tACTION\tACTOR\tNOTE")
		for _, e := range out.Entries {
			_, _ = fmt.Fprintf(tw, "%s\t%s\t%s (%s)\t%s\n",
				e.CreatedAt.In(c.Location).Format("2006-01-02 15:04"),
				e.Action,
				e.ActorName,
				e.ActorRole,
				e.Note,
			)
		}
		return nil
	}
	return cmd
}

// newTaskLogsCommand creates the task logs subcommand.
func newTaskLogsCommand(c *app.Container) *cobra.Command {
	var lines int

	cmd := &cobra.Command{
		Use:   "logs <id>",
		Short: "Show the operational log of a task (admin)",
		Long: `Show the operational log of a task.

The log holds what the history does not: notification delivery
failures, warnings and debug output. Admin only.`,
		Args: cobra.ExactArgs(1),
	}
	as := addActorFlag(cmd)
	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		actor, err := resolveActor(cmd, c, *as)
		if err != nil {
			return err
		}
		out, err := c.ShowLogsUseCase().Execute(cmd.Context(), usecase.ShowLogsInput{
			Actor:  actor,
			TaskID: args[0],
			Lines:  lines,
		})
		if err != nil {
			return err
		}
		_, _ = fmt.Fprintln(cmd.OutOrStdout(), out.Content)
		return nil
	}
	cmd.Flags().IntVarP(&lines, "lines", "n", 0, "Show only the last N lines")
	return cmd
}
