package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ccollicutt/paidlog/internal/logging"
	"github.com/ccollicutt/paidlog/pkg/config"
	"github.com/ccollicutt/paidlog/pkg/idstore"
	"github.com/ccollicutt/paidlog/pkg/parser"
)

// NewValidateCommand creates the validate command.
func NewValidateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <config-file>",
		Short: "Validate a run configuration file",
		Long: `Validate a paidlog run configuration without running analysis.

Checks:
  - YAML syntax
  - An identifier source is set
  - Identifier format, output format, and webhook settings
  - Log source file existence (warning only)`,
		Args: cobra.ExactArgs(1),
		RunE: runValidate,
	}
}

func runValidate(cmd *cobra.Command, args []string) error {
	configPath := args[0]
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	w := cmd.OutOrStdout()

	_, _ = fmt.Fprintf(w, "Validating %s...\n", configPath)

	cfg, err := config.Load(ctx, configPath)
	if err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	format := idstore.Format(cfg.IDFormat)
	if format == idstore.FormatAuto {
		format = idstore.DetectFormat(cfg.IDSource)
	}
	source, _ := logging.RedactURL(cfg.IDSource)

	_, _ = fmt.Fprintf(w, "\nConfiguration valid!\n")
	_, _ = fmt.Fprintf(w, "  Identifier source: %s (%s)\n", source, format)
	_, _ = fmt.Fprintf(w, "  Payment methods:   %s\n", enabledLabel(cfg.TrackPaymentMethods))
	_, _ = fmt.Fprintf(w, "  Output:            %s\n", cfg.Output)
	_, _ = fmt.Fprintf(w, "  Webhooks:          %d\n", len(cfg.Webhooks))

	if len(cfg.LogSources) == 0 {
		_, _ = fmt.Fprintf(w, "\nLog sources: none configured, standard input will be read\n")
		return nil
	}

	files, err := resolveLogFiles(cfg.LogSources)
	if err != nil {
		_, _ = fmt.Fprintf(w, "\nWarning: Error expanding log source patterns: %v\n", err)
		return nil
	}

	existing := existingFiles(files)
	if len(existing) == 0 {
		_, _ = fmt.Fprintf(w, "\nWarning: No files match log source patterns\n")
		return nil
	}

	_, _ = fmt.Fprintf(w, "\nLog files matched: %d\n", len(existing))
	for _, f := range existing {
		_, _ = fmt.Fprintf(w, "  - %s\n", f)
	}
	if missing := len(files) - len(existing); missing > 0 {
		_, _ = fmt.Fprintf(w, "\nWarning: %d log source(s) match no file\n", missing)
	}

	return nil
}

func enabledLabel(enabled bool) string {
	if enabled {
		return "tracked"
	}
	return "ignored"
}

// existingFiles filters paths returned by parser.ExpandGlobs down to regular
// files that exist.
func existingFiles(paths []string) []string {
	var out []string
	for _, p := range paths {
		if p == parser.StdinName {
			continue
		}
		if fileExists(p) {
			out = append(out, p)
		}
	}
	return out
}
