// Package cli provides the command-line interface for fieldops.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/fieldlab/fieldops/internal/app"
	"github.com/fieldlab/fieldops/internal/domain"
)

// Command group IDs.
const (
	groupSetup = "setup"
	groupWork  = "work"
	groupAdmin = "admin"
)

// EnvUser supplies the default value of --as.
const EnvUser = "FIELDOPS_USER"

// NewRootCommand creates the root command for fieldops.
// It receives the container for dependency injection and version for display.
func NewRootCommand(c *app.Container, version string) *cobra.Command {
	root := &cobra.Command{
		Use:   "fieldops",
		Short: "Field-testing operations tracker",
		Long: `fieldops tracks field-testing tasks for construction materials labs.

Tasks move through a review workflow (assigned, in progress, ready for
review, approved, rejected). Every state change is recorded in an
append-only history, and reviewers are notified when reports are submitted.

Every command acts on behalf of a user given with --as <user-id>
(or the FIELDOPS_USER environment variable).`,
		Version: version,
		// SilenceUsage prevents usage from being printed on errors
		SilenceUsage: true,
		// SilenceErrors prevents Cobra from printing errors (we handle it in main)
		SilenceErrors: true,
	}

	root.AddGroup(
		&cobra.Group{ID: groupSetup, Title: "Setup Commands:"},
		&cobra.Group{ID: groupWork, Title: "Field Work:"},
		&cobra.Group{ID: groupAdmin, Title: "Administration:"},
	)

	// Setup commands
	initCmd := newInitCommand(c)
	initCmd.GroupID = groupSetup

	configCmd := newConfigCommand(c)
	configCmd.GroupID = groupSetup

	// Field work commands
	taskCmd := newTaskCommand(c)
	taskCmd.GroupID = groupWork

	reportCmd := newReportCommand(c)
	reportCmd.GroupID = groupWork

	scheduleCmd := newScheduleCommand(c)
	scheduleCmd.GroupID = groupWork

	notifyCmd := newNotifyCommand(c)
	notifyCmd.GroupID = groupWork

	// Administration commands
	userCmd := newUserCommand(c)
	userCmd.GroupID = groupAdmin

	projectCmd := newProjectCommand(c)
	projectCmd.GroupID = groupAdmin

	migrateCmd := newMigrateCommand(c)
	migrateCmd.GroupID = groupAdmin

	auditCmd := newAuditCommand(c)
	auditCmd.GroupID = groupAdmin

	root.AddCommand(
		initCmd,
		configCmd,
		taskCmd,
		reportCmd,
		scheduleCmd,
		notifyCmd,
		userCmd,
		projectCmd,
		migrateCmd,
		auditCmd,
	)

	return root
}

// addActorFlag registers --as on cmd and returns the bound value.
func addActorFlag(cmd *cobra.Command) *string {
	var as string
	cmd.Flags().StringVar(&as, "as", os.Getenv(EnvUser), "Acting user ID (default $"+EnvUser+")")
	return &as
}

// resolveActor loads the acting user named by --as.
func resolveActor(cmd *cobra.Command, c *app.Container, userID string) (domain.Actor, error) {
	actor, err := c.Actor(cmd.Context(), userID)
	if err != nil {
		return domain.Actor{}, fmt.Errorf("resolve acting user: %w", err)
	}
	return actor, nil
}
