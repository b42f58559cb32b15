package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/solenne/chartest/internal/trace"
)

// TraceOptions holds flags for the trace command.
type TraceOptions struct {
	*RootOptions
	Database string
	RunID    string
}

// RunInfo describes one recorded run in trace listings.
type RunInfo struct {
	ID        string `json:"id"`
	Scenario  string `json:"scenario"`
	Subject   string `json:"subject"`
	StartedAt string `json:"started_at"`
}

// TraceStats holds summary statistics for a recorded run.
type TraceStats struct {
	TotalRelays int `json:"total_relays"`
	Steps       int `json:"steps"`
}

// TraceReport holds the rendered timeline of one recorded run.
type TraceReport struct {
	Run      RunInfo             `json:"run"`
	Timeline []trace.RelayRecord `json:"timeline"`
	Stats    TraceStats          `json:"stats"`
}

// NewTraceCommand creates the trace command.
func NewTraceCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TraceOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "trace",
		Short: "Inspect recorded relay traces",
		Long: `Inspect the relay traces recorded by "chartest run --db".

Without --run, lists every recorded run, oldest first. With --run, renders
the timeline of that run: one line per relayed synthetic event with the
states entered and exited and the event consumed.

Exit codes:
  0 - Listing or timeline rendered
  2 - Command error (missing database, unknown run)

Examples:
  chartest trace --db traces.db
  chartest trace --db traces.db --run 0192d3f0-1bce-7f4e-b2d8-6a1c40e3a111
  chartest trace --db traces.db --run 0192d3f0-... --format json`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTrace(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to the trace SQLite database (required)")
	_ = cmd.MarkFlagRequired("db")
	cmd.Flags().StringVar(&opts.RunID, "run", "", "run identifier to render; omit to list runs")

	return cmd
}

func runTrace(opts *TraceOptions, cmd *cobra.Command) error {
	store, err := trace.Open(opts.Database)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open trace database", err)
	}
	defer store.Close()

	runs, err := store.ListRuns()
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to list runs", err)
	}

	if opts.RunID == "" {
		return outputRunListing(cmd, opts, runs)
	}

	run, ok := findRun(runs, opts.RunID)
	if !ok {
		return NewExitError(ExitCommandError, fmt.Sprintf("run not found: %s", opts.RunID))
	}

	timeline, err := store.ReadRun(opts.RunID)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read run", err)
	}

	report := TraceReport{
		Run:      run,
		Timeline: timeline,
		Stats: TraceStats{
			TotalRelays: len(timeline),
			Steps:       countSteps(timeline),
		},
	}

	if opts.Format == "json" {
		return outputTraceJSON(cmd, report)
	}
	outputTraceText(cmd, report)
	return nil
}

func findRun(runs []trace.RunSummary, id string) (RunInfo, bool) {
	for _, r := range runs {
		if r.ID == id {
			return RunInfo{ID: r.ID, Scenario: r.Scenario, Subject: r.Subject, StartedAt: r.StartedAt}, true
		}
	}
	return RunInfo{}, false
}

func countSteps(timeline []trace.RelayRecord) int {
	n := 0
	for _, rec := range timeline {
		if rec.Synthetic == "step" {
			n++
		}
	}
	return n
}

// outputRunListing renders the run listing in the configured format.
func outputRunListing(cmd *cobra.Command, opts *TraceOptions, runs []trace.RunSummary) error {
	w := cmd.OutOrStdout()

	infos := make([]RunInfo, 0, len(runs))
	for _, r := range runs {
		infos = append(infos, RunInfo{ID: r.ID, Scenario: r.Scenario, Subject: r.Subject, StartedAt: r.StartedAt})
	}

	if opts.Format == "json" {
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")
		return encoder.Encode(CLIResponse{Status: "ok", Data: map[string]any{"runs": infos}})
	}

	if len(infos) == 0 {
		fmt.Fprintln(w, "No runs recorded.")
		return nil
	}
	fmt.Fprintf(w, "Recorded runs: %d\n", len(infos))
	for _, info := range infos {
		fmt.Fprintf(w, "  %s  %s  %q (subject: %s)\n", info.ID, info.StartedAt, info.Scenario, info.Subject)
	}
	return nil
}

// outputTraceJSON outputs the trace report as JSON.
func outputTraceJSON(cmd *cobra.Command, report TraceReport) error {
	encoder := json.NewEncoder(cmd.OutOrStdout())
	encoder.SetIndent("", "  ")
	return encoder.Encode(CLIResponse{Status: "ok", Data: report})
}

// outputTraceText outputs the trace report as text.
func outputTraceText(cmd *cobra.Command, report TraceReport) {
	w := cmd.OutOrStdout()

	fmt.Fprintf(w, "Trace for run: %s\n", report.Run.ID)
	fmt.Fprintf(w, "Scenario: %q (subject: %s)\n", report.Run.Scenario, report.Run.Subject)
	fmt.Fprintf(w, "Started: %s\n", report.Run.StartedAt)
	fmt.Fprintln(w)

	fmt.Fprintln(w, "=== Timeline ===")
	if len(report.Timeline) == 0 {
		fmt.Fprintln(w, "  (no relays)")
	} else {
		for _, rec := range report.Timeline {
			fmt.Fprintf(w, "  %s\n", formatRelayLine(rec))
		}
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "=== Stats ===")
	fmt.Fprintf(w, "  Total Relays: %d\n", report.Stats.TotalRelays)
	fmt.Fprintf(w, "  Steps:        %d\n", report.Stats.Steps)
}

// formatRelayLine renders one relay record for text output.
func formatRelayLine(rec trace.RelayRecord) string {
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
	line += fmt.Sprintf(" configuration=[%s]", strings.Join(rec.Configuration, ", "))
	return line
}
