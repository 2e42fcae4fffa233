package cli

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/fieldlab/fieldops/internal/app"
	"github.com/fieldlab/fieldops/internal/domain"
	"github.com/fieldlab/fieldops/internal/usecase"
)

// newUserCommand creates the user command.
func newUserCommand(c *app.Container) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage users of your tenant",
	}
	cmd.AddCommand(newUserAddCommand(c))
	return cmd
}

// newUserAddCommand creates the user add subcommand.
func newUserAddCommand(c *app.Container) *cobra.Command {
	var opts struct {
		Email string
		Name  string
		Role  string
	}

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a user to your tenant (admin only)",
		Long: `Add an admin or technician to the acting admin's tenant.

Examples:
  fieldops user add --as <admin-id> --email tom@lab.example --name "Tom Tech" --role technician`,
		Args: cobra.NoArgs,
	}
	as := addActorFlag(cmd)
	cmd.RunE = func(cmd *cobra.Command, _ []string) error {
		actor, err := resolveActor(cmd, c, *as)
		if err != nil {
			return err
		}
		out, err := c.CreateUserUseCase().Execute(cmd.Context(), usecase.CreateUserInput{
			Actor:       actor,
			Email:       opts.Email,
			DisplayName: opts.Name,
			Role:        domain.Role(strings.ToUpper(opts.Role)),
		})
		if err != nil {
			return err
		}
		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Created user %s (%s, %s)\n", out.User.ID, out.User.Label(), out.User.Role)
		return nil
	}

	cmd.Flags().StringVar(&opts.Email, "email", "", "Login email (required)")
	cmd.Flags().StringVar(&opts.Name, "name", "", "Display name")
	cmd.Flags().StringVar(&opts.Role, "role", "technician", "Role: admin or technician")
	_ = cmd.MarkFlagRequired("email")

	return cmd
}

// newProjectCommand creates the project command.
func newProjectCommand(c *app.Container) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "project",
		Short: "Manage projects of your tenant",
	}
	cmd.AddCommand(newProjectAddCommand(c))
	cmd.AddCommand(newProjectListCommand(c))
	return cmd
}

// newProjectAddCommand creates the project add subcommand.
func newProjectAddCommand(c *app.Container) *cobra.Command {
	var opts struct {
		Number string
		Name   string
	}

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Create a project (admin only)",
		Long: `Create a project. Project numbers are unique within a tenant and cannot be changed.

Examples:
  fieldops project add --as <admin-id> --number P-1001 --name "Hwy 9 Bridge"`,
		Args: cobra.NoArgs,
	}
	as := addActorFlag(cmd)
	cmd.RunE = func(cmd *cobra.Command, _ []string) error {
		actor, err := resolveActor(cmd, c, *as)
		if err != nil {
			return err
		}
		out, err := c.CreateProjectUseCase().Execute(cmd.Context(), usecase.CreateProjectInput{
			Actor:  actor,
			Number: opts.Number,
			Name:   opts.Name,
		})
		if err != nil {
			return err
		}
		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Created project %s (%s)\n", out.Project.Number, out.Project.ID)
		return nil
	}

	cmd.Flags().StringVar(&opts.Number, "number", "", "Project number (required)")
	cmd.Flags().StringVar(&opts.Name, "name", "", "Project name")
	_ = cmd.MarkFlagRequired("number")

	return cmd
}

// newProjectListCommand creates the project list subcommand.
func newProjectListCommand(c *app.Container) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List projects of your tenant",
		Args:  cobra.NoArgs,
	}
	as := addActorFlag(cmd)
	cmd.RunE = func(cmd *cobra.Command, _ []string) error {
		actor, err := resolveActor(cmd, c, *as)
		if err != nil {
			return err
		}
		out, err := c.ListProjectsUseCase().Execute(cmd.Context(), usecase.ListProjectsInput{Actor: actor})
		if err != nil {
			return err
		}

		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 3, ' ', 0)
		defer func() { _ = tw.Flush() }()
		_, _ = fmt.Fprintln(tw, "NUMBER\tID\tNAME")
		for _, p := range out.Projects {
			_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\n", p.Number, p.ID, p.Name)
		}
		return nil
	}
	return cmd
}

// newMigrateCommand creates the migrate command.
func newMigrateCommand(c *app.Container) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Migrate legacy data",
	}
	cmd.AddCommand(newMigrateWorkPackagesCommand(c))
	return cmd
}

// newMigrateWorkPackagesCommand creates the migrate work-packages subcommand.
func newMigrateWorkPackagesCommand(c *app.Container) *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "work-packages",
		Short: "Convert legacy work packages into tasks (admin only)",
		Long: `Convert the tenant's unmigrated work packages into tasks.

Each new task inherits the tenant resolved from its work package and gets
one history entry. Work packages already migrated are skipped.

Examples:
  # Preview what would be migrated
  fieldops migrate work-packages --as <admin-id> --dry-run`,
		Args: cobra.NoArgs,
	}
	as := addActorFlag(cmd)
	cmd.RunE = func(cmd *cobra.Command, _ []string) error {
		actor, err := resolveActor(cmd, c, *as)
		if err != nil {
			return err
		}
		out, err := c.MigrateWorkPackagesUseCase().Execute(cmd.Context(), usecase.MigrateWorkPackagesInput{
			Actor:  actor,
			DryRun: dryRun,
		})
		if err != nil {
			return err
		}

		w := cmd.OutOrStdout()
		verb := "Migrated"
		if dryRun {
			verb = "Would migrate"
		}
		for _, m := range out.Migrated {
			if dryRun {
				_, _ = fmt.Fprintf(w, "%s work package %s\n", verb, m.WorkPackageID)
				continue
			}
			_, _ = fmt.Fprintf(w, "%s work package %s -> task %s\n", verb, m.WorkPackageID, m.TaskID)
		}
		for _, inv := range out.Invalid {
			_, _ = fmt.Fprintf(w, "! %s: %s\n", inv.WorkPackageID, inv.Reason)
		}
		_, _ = fmt.Fprintf(w, "%s %d work package(s), skipped %d already migrated\n", verb, len(out.Migrated), out.Skipped)
		if len(out.Invalid) > 0 {
			_, _ = fmt.Fprintf(w, "%d work package(s) left unmigrated, fix their data and rerun\n", len(out.Invalid))
		}
		return nil
	}
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Report what would be migrated without writing")
	return cmd
}

// newAuditCommand creates the audit command.
func newAuditCommand(c *app.Container) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "audit",
		Short: "Check data consistency",
	}
	cmd.AddCommand(newAuditHistoryCommand(c))
	return cmd
}

// newAuditHistoryCommand creates the audit history subcommand.
func newAuditHistoryCommand(c *app.Container) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Check that every task's history explains its status (admin only)",
		Args:  cobra.NoArgs,
	}
	as := addActorFlag(cmd)
	cmd.RunE = func(cmd *cobra.Command, _ []string) error {
		actor, err := resolveActor(cmd, c, *as)
		if err != nil {
			return err
		}
		out, err := c.AuditHistoryUseCase().Execute(cmd.Context(), usecase.AuditHistoryInput{Actor: actor})
		if err != nil {
			return err
		}

		w := cmd.OutOrStdout()
		for _, f := range out.Findings {
			_, _ = fmt.Fprintf(w, "%s %s: %s\n", warningStyle.Render("!"), f.TaskID, f.Problem)
		}
		_, _ = fmt.Fprintf(w, "Checked %d task(s), %d finding(s)\n", out.Checked, len(out.Findings))
		return nil
	}
	return cmd
}
