package cli

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/fieldlab/fieldops/internal/app"
	"github.com/fieldlab/fieldops/internal/domain"
	"github.com/fieldlab/fieldops/internal/usecase"
)

// newReportCommand creates the report command.
func newReportCommand(c *app.Container) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Read and write task reports",
		Long: `Read and write the report of a task.

Each task kind has its own report form:
  COMPRESSIVE_STRENGTH  -> compressive_strength
  DENSITY_MEASUREMENT   -> density
  PROCTOR               -> proctor
  REBAR                 -> rebar
CYLINDER_PICKUP tasks carry no report.

Reports are exchanged as YAML.`,
	}
	cmd.AddCommand(newReportShowCommand(c))
	cmd.AddCommand(newReportSaveCommand(c))
	return cmd
}

// newReportShowCommand creates the report show subcommand.
func newReportShowCommand(c *app.Container) *cobra.Command {
	var kind string

	cmd := &cobra.Command{
		Use:   "show <task-id>",
		Short: "Print a task's report as YAML",
		Args:  cobra.ExactArgs(1),
	}
	as := addActorFlag(cmd)
	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		actor, err := resolveActor(cmd, c, *as)
		if err != nil {
			return err
		}
		rk, err := reportKindFor(cmd.Context(), c, actor, args[0], kind)
		if err != nil {
			return err
		}

		svcs := c.ReportServices()
		w := cmd.OutOrStdout()
		switch rk {
		case domain.ReportCompressiveStrength:
			return showReport(cmd.Context(), w, svcs.CompressiveStrength, args[0], actor)
		case domain.ReportDensity:
			return showReport(cmd.Context(), w, svcs.Density, args[0], actor)
		case domain.ReportProctor:
			return showReport(cmd.Context(), w, svcs.Proctor, args[0], actor)
		case domain.ReportRebar:
			return showReport(cmd.Context(), w, svcs.Rebar, args[0], actor)
		default:
			return fmt.Errorf("%w: %q", domain.ErrInvalidKind, rk)
		}
	}
	cmd.Flags().StringVar(&kind, "kind", "", "Report kind (default: derived from the task)")
	return cmd
}

// newReportSaveCommand creates the report save subcommand.
func newReportSaveCommand(c *app.Container) *cobra.Command {
	var opts struct {
		File string
		Kind string
	}

	cmd := &cobra.Command{
		Use:   "save <task-id>",
		Short: "Create or replace a task's report from YAML",
		Long: `Create or replace a task's report from a YAML file.
Unknown keys are rejected.

Examples:
  fieldops report save <task-id> --as <tech-id> --file proctor.yaml
  cat density.yaml | fieldops report save <task-id> --as <tech-id> --file -

Proctor example:
  method: standard
  soilDescription: Brown sandy clay
  sampleLocation: Borrow pit B
  maxDryDensityPcf: 112.4
  optimumMoisturePct: 14.2
  points:
    - moisturePct: 10.1
      dryDensityPcf: 106.0`,
		Args: cobra.ExactArgs(1),
	}
	as := addActorFlag(cmd)
	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		actor, err := resolveActor(cmd, c, *as)
		if err != nil {
			return err
		}
		raw, err := readPayload(cmd, opts.File)
		if err != nil {
			return err
		}
		rk, err := reportKindFor(cmd.Context(), c, actor, args[0], opts.Kind)
		if err != nil {
			return err
		}

		svcs := c.ReportServices()
		w := cmd.OutOrStdout()
		switch rk {
		case domain.ReportCompressiveStrength:
			return saveReport(cmd.Context(), w, svcs.CompressiveStrength, args[0], actor, raw)
		case domain.ReportDensity:
			return saveReport(cmd.Context(), w, svcs.Density, args[0], actor, raw)
		case domain.ReportProctor:
			return saveReport(cmd.Context(), w, svcs.Proctor, args[0], actor, raw)
		case domain.ReportRebar:
			return saveReport(cmd.Context(), w, svcs.Rebar, args[0], actor, raw)
		default:
			return fmt.Errorf("%w: %q", domain.ErrInvalidKind, rk)
		}
	}

	cmd.Flags().StringVarP(&opts.File, "file", "f", "", "YAML payload file, or - for stdin (required)")
	cmd.Flags().StringVar(&opts.Kind, "kind", "", "Report kind (default: derived from the task)")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

// reportKindFor returns the explicit kind, or the kind matching the task.
func reportKindFor(ctx context.Context, c *app.Container, actor domain.Actor, taskID, explicit string) (domain.ReportKind, error) {
	if explicit != "" {
		rk := domain.ReportKind(explicit)
		if !rk.IsValid() {
			return "", fmt.Errorf("%w: unknown report kind %q", domain.ErrInvalidKind, explicit)
		}
		return rk, nil
	}
	out, err := c.ShowTaskUseCase().Execute(ctx, usecase.ShowTaskInput{Actor: actor, TaskID: taskID})
	if err != nil {
		return "", err
	}
	rk, ok := domain.ReportKindFor(out.Task.Kind)
	if !ok {
		return "", fmt.Errorf("%w: %s tasks carry no report", domain.ErrReportKindMismatch, out.Task.Kind)
	}
	return rk, nil
}

// readPayload reads the --file argument, with - meaning stdin.
func readPayload(cmd *cobra.Command, path string) ([]byte, error) {
	if path == "-" {
		raw, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return nil, fmt.Errorf("read stdin: %w", err)
		}
		return raw, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}
	return raw, nil
}

// reportView is the YAML shape of a stored report.
type reportView[P domain.ReportData] struct {
	UpdatedAt time.Time         `yaml:"updatedAt"`
	Data      P                 `yaml:"data"`
	TaskID    string            `yaml:"taskId"`
	Kind      domain.ReportKind `yaml:"kind"`
	UpdatedBy string            `yaml:"updatedBy"`
}

func showReport[P domain.ReportData](ctx context.Context, w io.Writer, svc *usecase.ReportService[P], taskID string, actor domain.Actor) error {
	report, err := svc.Get(ctx, taskID, actor)
	if err != nil {
		return err
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(reportView[P]{
		TaskID:    report.TaskID,
		Kind:      svc.Kind(),
		UpdatedBy: report.UpdatedBy,
		UpdatedAt: report.UpdatedAt,
		Data:      report.Data,
	}); err != nil {
		return fmt.Errorf("encode report: %w", err)
	}
	return enc.Close()
}

func saveReport[P domain.ReportData](ctx context.Context, w io.Writer, svc *usecase.ReportService[P], taskID string, actor domain.Actor, raw []byte) error {
	data, err := decodePayload[P](raw)
	if err != nil {
		return err
	}
	report, err := svc.Save(ctx, taskID, actor, data)
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintf(w, "Saved %s report for task %s\n", svc.Kind(), report.TaskID)
	return nil
}

// decodePayload decodes a YAML report payload, rejecting unknown keys.
func decodePayload[P domain.ReportData](raw []byte) (P, error) {
	var data P
	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)
	if err := dec.Decode(&data); err != nil {
		if err == io.EOF {
			return data, fmt.Errorf("%w: empty report payload", domain.ErrValidation)
		}
		return data, fmt.Errorf("%w: decode %s payload: %v", domain.ErrValidation, data.ReportKind(), err)
	}
	return data, nil
}
