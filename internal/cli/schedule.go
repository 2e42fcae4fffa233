package cli

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/fieldlab/fieldops/internal/app"
	"github.com/fieldlab/fieldops/internal/domain"
	"github.com/fieldlab/fieldops/internal/usecase"
)

// newScheduleCommand creates the schedule command.
func newScheduleCommand(c *app.Container) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "schedule",
		Short: "Date-based task views",
		Long: `Show tasks by report due date and field date.

Dates are calendar dates in the configured reference timezone
([schedule] timezone). Tasks ready for review are listed first.`,
	}
	cmd.AddCommand(
		newScheduleViewCommand(c, usecase.ScheduleToday, "Tasks due or in the field today"),
		newScheduleViewCommand(c, usecase.ScheduleUpcoming, "Tasks due or in the field in the upcoming window"),
		newScheduleViewCommand(c, usecase.ScheduleOverdue, "Open tasks past their report due date"),
	)
	return cmd
}

// newScheduleViewCommand creates one schedule view subcommand.
func newScheduleViewCommand(c *app.Container, view usecase.ScheduleView, short string) *cobra.Command {
	var asOf string

	cmd := &cobra.Command{
		Use:   string(view),
		Short: short,
		Args:  cobra.NoArgs,
	}
	as := addActorFlag(cmd)
	cmd.RunE = func(cmd *cobra.Command, _ []string) error {
		actor, err := resolveActor(cmd, c, *as)
		if err != nil {
			return err
		}
		date, err := parseOptionalDate(asOf)
		if err != nil {
			return err
		}
		out, err := c.ScheduleUseCase().Execute(cmd.Context(), usecase.ScheduleInput{
			Actor: actor,
			View:  view,
			AsOf:  date,
		})
		if err != nil {
			return err
		}
		printSchedule(cmd.OutOrStdout(), view, out)
		return nil
	}
	cmd.Flags().StringVar(&asOf, "as-of", "", "Treat this date as today (YYYY-MM-DD)")
	return cmd
}

// printSchedule prints a heading with the queried window, then the tasks.
func printSchedule(w io.Writer, view usecase.ScheduleView, out *usecase.ScheduleOutput) {
	var heading string
	switch view {
	case usecase.ScheduleToday:
		heading = "Today " + out.Today.String()
	case usecase.ScheduleUpcoming:
		heading = fmt.Sprintf("Upcoming %s..%s", out.From, out.To)
	default:
		heading = "Overdue as of " + out.Today.String()
	}
	_, _ = fmt.Fprintln(w, headingStyle.Render(heading))
	if len(out.Tasks) == 0 {
		_, _ = fmt.Fprintln(w, mutedStyle.Render("No tasks"))
		return
	}

	tw := tabwriter.NewWriter(w, 0, 0, 3, ' ', 0)
	defer func() { _ = tw.Flush() }()
	_, _ = fmt.Fprintln(tw, "ID\tSTATUS\tDUE\tFIELD\tTITLE")
	for _, task := range out.Tasks {
		due := "-"
		if task.ReportDueDate != nil {
			due = task.ReportDueDate.String()
		}
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", task.ID, task.Status, due, task.Field.String(), task.Title)
	}
}

// newNotifyCommand creates the notify command.
func newNotifyCommand(c *app.Container) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "notify",
		Short: "Your notification inbox",
	}
	cmd.AddCommand(newNotifyListCommand(c))
	cmd.AddCommand(newNotifyReadCommand(c))
	return cmd
}

// newNotifyListCommand creates the notify list subcommand.
func newNotifyListCommand(c *app.Container) *cobra.Command {
	var unread bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List your notifications, newest first",
		Args:  cobra.NoArgs,
	}
	as := addActorFlag(cmd)
	cmd.RunE = func(cmd *cobra.Command, _ []string) error {
		actor, err := resolveActor(cmd, c, *as)
		if err != nil {
			return err
		}
		out, err := c.ListNotificationsUseCase().Execute(cmd.Context(), usecase.ListNotificationsInput{
			Actor:      actor,
			UnreadOnly: unread,
		})
		if err != nil {
			return err
		}
		printNotifications(cmd.OutOrStdout(), out.Notifications, c)
		return nil
	}
	cmd.Flags().BoolVar(&unread, "unread", false, "Show only unread notifications")
	return cmd
}

func printNotifications(w io.Writer, notifications []*domain.Notification, c *app.Container) {
	tw := tabwriter.NewWriter(w, 0, 0, 3, ' ', 0)
	defer func() { _ = tw.Flush() }()
	_, _ = fmt.Fprintln(tw, "ID\tTIME\tREAD\tTASK\tMESSAGE")
	for _, n := range notifications {
		read := "-"
		if n.IsRead {
			read = "yes"
		}
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
			n.ID,
			n.CreatedAt.In(c.Location).Format("2006-01-02 15:04"),
			read,
			n.TaskID,
			n.Message,
		)
	}
}

// newNotifyReadCommand creates the notify read subcommand.
func newNotifyReadCommand(c *app.Container) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "read <notification-id>",
		Short: "Mark a notification read",
		Args:  cobra.ExactArgs(1),
	}
	as := addActorFlag(cmd)
	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		actor, err := resolveActor(cmd, c, *as)
		if err != nil {
			return err
		}
		if err := c.MarkNotificationReadUseCase().Execute(cmd.Context(), usecase.MarkNotificationReadInput{
			Actor:          actor,
			NotificationID: args[0],
		}); err != nil {
			return err
		}
		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Marked %s read\n", args[0])
		return nil
	}
	return cmd
}
