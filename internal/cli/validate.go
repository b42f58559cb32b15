package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/solenne/chartest/internal/loader"
)

// ValidateResult is the JSON payload of the validate command.
type ValidateResult struct {
	Chart  string   `json:"chart"`
	States []string `json:"states"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <chart.yaml>",
		Short: "Validate a statechart document",
		Long: `Parse a statechart YAML document and check its referential integrity:
state names are unique, initial pointers and transition targets resolve.

Exit codes:
  0 - Chart is valid
  2 - Chart is missing or malformed`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			f := &OutputFormatter{Format: rootOpts.Format, Writer: cmd.OutOrStdout(), Verbose: rootOpts.Verbose}

			chart, err := loader.LoadChart(args[0])
			if err != nil {
				if ferr := f.Error("E_INVALID_CHART", err.Error(), nil); ferr != nil {
					return ferr
				}
				return NewExitError(ExitCommandError, err.Error())
			}

			if rootOpts.Format == "json" {
				return f.Success(ValidateResult{Chart: chart.Name, States: chart.StateNames()})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✓ %s (%d states)\n", chart.Name, len(chart.StateNames()))
			return nil
		},
	}
	return cmd
}
