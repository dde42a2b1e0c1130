// Package cli provides the command-line interface for paidlog.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ccollicutt/paidlog/internal/cli/commands"
	"github.com/ccollicutt/paidlog/internal/logging"
	"github.com/ccollicutt/paidlog/pkg/config"
)

// Execute runs the root command and returns the exit code.
func Execute() int {
	// Packages that fall back to slog.Default get the redacting logger too.
	logging.Init(os.Stderr, false)

	if err := config.LoadDotEnv(); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
	}

	rootCmd := NewRootCommand()
	if err := rootCmd.Execute(); err != nil {
		// SilenceErrors prevents Cobra from printing this itself.
		_, _ = fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 2 // Configuration or runtime error
	}
	return 0
}

// NewRootCommand creates the root cobra command.
func NewRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "paidlog",
		Short: "Checkout conversion statistics from access logs",
		Long: `paidlog is a batch log analysis tool that measures checkout conversion.

It reads access-log lines, finds successful visits to the two checkout
flows, and cross-references their transaction identifiers against a set
of identifiers known to be paid:
  - hobbit    visits to .../payment/<id>
  - columbus  visits to .../order/profiles/<id>/payments/new

For each flow it reports visits, payments, the share of all payments,
the conversion rate, and (when the identifier source carries them) the
PayPal / credit card / Sofort breakdown.

Settings may come from a YAML run configuration (--config, or
$XDG_CONFIG_HOME/paidlog/config.yaml), PAIDLOG_* environment variables,
and a .env file in the working directory.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(commands.NewAnalyzeCommand())
	rootCmd.AddCommand(commands.NewDiagnoseCommand())
	rootCmd.AddCommand(commands.NewValidateCommand())
	rootCmd.AddCommand(commands.NewVersionCommand())

	return rootCmd
}
