package cli

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/solenne/chartest/internal/loader"
	"github.com/solenne/chartest/internal/trace"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
	DB string // trace database path; empty disables recording
}

// RunReport is the JSON payload of the run command.
type RunReport struct {
	Name   string              `json:"name"`
	Pass   bool                `json:"pass"`
	Steps  int                 `json:"steps"`
	RunID  string              `json:"run_id,omitempty"`
	Trace  []trace.RelayRecord `json:"trace"`
	Errors []string            `json:"errors,omitempty"`
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "run <scenario.yaml>",
		Short: "Run a single scenario",
		Long: `Run one scenario file: drive the subject chart with the scenario events
while the tester charts observe every step.

Exit codes:
  0 - Scenario passed
  1 - An assertion failed or a tester never reached a final configuration
  2 - Command error (missing files, malformed documents)

Examples:
  chartest run scenarios/elevator_7th_floor.yaml
  chartest run scenarios/elevator_7th_floor.yaml --db traces.db
  chartest run scenarios/elevator_7th_floor.yaml -v`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScenarioCommand(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.DB, "db", "", "record the relay trace to this SQLite database")

	return cmd
}

func runScenarioCommand(opts *RunOptions, path string, cmd *cobra.Command) error {
	w := cmd.OutOrStdout()

	scenario, err := loader.LoadScenario(path)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load scenario", err)
	}

	runOpts := loader.RunOptions{}
	if opts.Verbose {
		runOpts.Logger = slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: slog.LevelDebug}))
	}

	var runID string
	if opts.DB != "" {
		store, err := trace.Open(opts.DB)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to open trace database", err)
		}
		defer store.Close()

		// The subject chart's name is not known until the run loads it, so
		// the run row records the chart path.
		recorder, err := trace.NewRecorder(store, scenario.Name, scenario.Subject)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to begin trace run", err)
		}
		runOpts.Recorder = recorder
		runID = recorder.RunID()
	}

	result, err := loader.Run(scenario, runOpts)
	if err != nil {
		return WrapExitError(ExitCommandError, "scenario execution failed", err)
	}

	report := RunReport{
		Name:   scenario.Name,
		Pass:   result.Pass,
		Steps:  result.Steps,
		RunID:  runID,
		Trace:  result.Trace,
		Errors: result.Errors,
	}

	if opts.Format == "json" {
		f := &OutputFormatter{Format: "json", Writer: w}
		if err := f.Success(report); err != nil {
			return err
		}
	} else {
		printRunText(opts, report, cmd)
	}

	if !result.Pass {
		return NewExitError(ExitFailure, fmt.Sprintf("scenario %q failed", scenario.Name))
	}
	return nil
}

func printRunText(opts *RunOptions, report RunReport, cmd *cobra.Command) {
	w := cmd.OutOrStdout()

	if opts.Verbose {
		for _, rec := range report.Trace {
			line := fmt.Sprintf("[%d] %s", rec.Seq, rec.Synthetic)
			if len(rec.Entered) > 0 {
				line += fmt.Sprintf(" entered=[%s]", strings.Join(rec.Entered, ", "))
			}
			if len(rec.Exited) > 0 {
				line += fmt.Sprintf(" exited=[%s]", strings.Join(rec.Exited, ", "))
			}
			if rec.Consumed != "" {
				line += fmt.Sprintf(" consumed=%s", rec.Consumed)
			}
			fmt.Fprintln(w, line)
		}
	}

	if report.Pass {
		fmt.Fprintf(w, "✓ %s (%d steps)\n", report.Name, report.Steps)
		if report.RunID != "" {
			fmt.Fprintf(w, "  trace recorded as run %s\n", report.RunID)
		}
		return
	}

	fmt.Fprintf(w, "✗ %s\n", report.Name)
	for _, e := range report.Errors {
		for _, line := range strings.Split(e, "\n") {
			fmt.Fprintf(w, "  %s\n", line)
		}
	}
}
