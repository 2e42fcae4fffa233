package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/fieldlab/fieldops/internal/app"
	"github.com/fieldlab/fieldops/internal/domain"
	"github.com/fieldlab/fieldops/internal/usecase"
)

// newInitCommand creates the init command.
func newInitCommand(c *app.Container) *cobra.Command {
	var opts struct {
		Email  string
		Name   string
		Tenant string
	}

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize the data directory and the first admin",
		Long: `Initialize fieldops.

This command creates the data directory (.fieldops/ or $FIELDOPS_HOME) with:
- fieldops.toml: configuration (kept if it already exists)
- logs/: directory for log files
and prepares the configured store, then creates the first admin of the
tenant. Running init again is safe: the existing admin is reported.

Examples:
  # Bootstrap the legacy (single-tenant) workspace
  fieldops init --email ada@lab.example --name "Ada Admin"

  # Bootstrap a named tenant
  fieldops init --tenant acme --email ops@acme.example`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			w := cmd.OutOrStdout()

			out, err := c.InitStoreUseCase().Execute(cmd.Context(), usecase.InitStoreInput{
				DataDir:    c.Config.DataDir,
				TenantID:   domain.TenantID(opts.Tenant),
				AdminEmail: opts.Email,
				AdminName:  opts.Name,
			})
			if err != nil {
				return err
			}

			cfgOut, err := c.InitConfigUseCase().Execute(cmd.Context(), usecase.InitConfigInput{Config: c.AppConfig})
			switch {
			case errors.Is(err, domain.ErrConfigExists):
			case err != nil:
				return fmt.Errorf("write config: %w", err)
			default:
				_, _ = fmt.Fprintf(w, "Created config %s\n", cfgOut.Path)
			}

			if out.AlreadyInitialized {
				_, _ = fmt.Fprintf(w, "Already initialized (tenant %s, admin %s %s)\n", domain.TenantID(opts.Tenant), out.Admin.ID, out.Admin.Label())
				return nil
			}
			_, _ = fmt.Fprintf(w, "Initialized fieldops in %s\n", c.Config.DataDir)
			_, _ = fmt.Fprintf(w, "Admin: %s (%s)\n", out.Admin.ID, out.Admin.Email)
			return nil
		},
	}

	cmd.Flags().StringVar(&opts.Email, "email", "", "First admin email (required)")
	cmd.Flags().StringVar(&opts.Name, "name", "", "First admin display name")
	cmd.Flags().StringVar(&opts.Tenant, "tenant", "", "Tenant ID (default: legacy tenant)")
	_ = cmd.MarkFlagRequired("email")

	return cmd
}
