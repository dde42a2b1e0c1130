package commands

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/ccollicutt/paidlog/internal/logging"
	"github.com/ccollicutt/paidlog/pkg/analyzer"
	"github.com/ccollicutt/paidlog/pkg/config"
	"github.com/ccollicutt/paidlog/pkg/idstore"
	"github.com/ccollicutt/paidlog/pkg/output"
	"github.com/ccollicutt/paidlog/pkg/parser"
	"github.com/ccollicutt/paidlog/pkg/webhook"
)

// AnalyzeOptions holds command-line options for the analyze command.
type AnalyzeOptions struct {
	ConfigPath    string
	Output        string
	HumanReadable bool
	Header        bool
	Format        string
	NoMethods     bool
	Query         string
	Verbose       bool

	// Webhook options
	WebhookURL     string
	WebhookToken   string
	WebhookTrigger string
}

// NewAnalyzeCommand creates the analyze command.
func NewAnalyzeCommand() *cobra.Command {
	opts := &AnalyzeOptions{}

	cmd := &cobra.Command{
		Use:   "analyze <ids-source> [log-file ...]",
		Short: "Compute checkout conversion statistics from access logs",
		Long: `Correlate access log lines with a set of paid transaction identifiers
and report visits, payments, and payment methods for the hobbit and
columbus checkout flows.

The identifier source is a plain file (one identifier per line), a CSV
export (payment method in the second column, identifier in the third),
a SQLite database, or a postgres:// connection string. Log files may be
glob patterns. With no log files, lines are read from standard input.

Example:
  paidlog analyze paid.csv access.log
  zcat access.log.gz | paidlog analyze -H paid.csv
  paidlog analyze --no-methods ids.txt '/var/log/shop/*.log'
  paidlog analyze -o markdown postgres://reader@db/shop access.log

Exit codes:
  0 - Report written
  2 - Configuration or runtime error`,
		Args: cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAnalyze(cmd, args, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.ConfigPath, "config", "c", "", "Run configuration file (default: $XDG_CONFIG_HOME/paidlog/config.yaml if present)")
	cmd.Flags().StringVarP(&opts.Output, "output", "o", config.DefaultOutput, "Output format (csv|text|json|markdown)")
	cmd.Flags().BoolVarP(&opts.HumanReadable, "human-readable", "H", false, "Human-readable output (same as --output text)")
	cmd.Flags().BoolVar(&opts.Header, "header", false, "Print a header row before CSV output")
	cmd.Flags().StringVar(&opts.Format, "format", string(idstore.FormatAuto), "Identifier source format (auto|plain|csv|sqlite|postgres)")
	cmd.Flags().BoolVar(&opts.NoMethods, "no-methods", false, "Ignore payment-method data in the identifier source")
	cmd.Flags().StringVar(&opts.Query, "query", "", "SQL query for database identifier sources")
	cmd.Flags().BoolVarP(&opts.Verbose, "verbose", "v", false, "Show pipeline statistics and progress on stderr")

	// Webhook flags
	cmd.Flags().StringVar(&opts.WebhookURL, "webhook-url", "", "Webhook endpoint URL")
	cmd.Flags().StringVar(&opts.WebhookToken, "webhook-token", "", "Bearer token for webhook auth")
	cmd.Flags().StringVar(&opts.WebhookTrigger, "webhook-trigger", string(config.WebhookTriggerAlways), "When to fire webhook (always|on_conversions|never)")

	return cmd
}

func runAnalyze(cmd *cobra.Command, args []string, opts *AnalyzeOptions) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	logger := logging.New(cmd.ErrOrStderr(), opts.Verbose)

	cfg, path, err := config.Resolve(ctx, opts.ConfigPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if path != "" {
		logger.Info("using run configuration", "path", path)
	}

	if err := applyAnalyzeFlags(cmd, cfg, args, opts); err != nil {
		return err
	}
	if err := config.Validate(cfg); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	store, err := idstore.Load(ctx, cfg.IDSource,
		idstore.WithFormat(idstore.Format(cfg.IDFormat)),
		idstore.WithQuery(cfg.IDQuery),
		idstore.WithPaymentMethods(cfg.TrackPaymentMethods),
		idstore.WithLogger(logger),
	)
	if err != nil {
		return fmt.Errorf("loading paid identifiers: %w", err)
	}
	logger.Info("paid identifiers loaded", "count", store.Size(), "kind", store.Kind())

	files, err := resolveLogFiles(cfg.LogSources)
	if err != nil {
		return fmt.Errorf("expanding log sources: %w", err)
	}

	source := parser.Open(files, cmd.InOrStdin())
	defer source.Close()

	a := analyzer.NewAnalyzer(store, analyzer.WithLogger(logger))
	result, err := a.Analyze(ctx, source)
	if err != nil {
		return fmt.Errorf("analysis failed: %w", err)
	}

	idSource, _ := logging.RedactURL(cfg.IDSource)
	report := output.NewReport(result, idSource)

	formatter, err := output.NewFormatter(cfg.Output, output.FormatOptions{
		Verbose: opts.Verbose,
		Header:  cfg.CSVHeader,
	})
	if err != nil {
		return err
	}

	if err := formatter.Format(ctx, report, cmd.OutOrStdout()); err != nil {
		return fmt.Errorf("formatting output: %w", err)
	}

	// Webhook failures are logged and never change the exit code.
	sendWebhooks(ctx, logger, cfg.Webhooks, report)

	return nil
}

// applyAnalyzeFlags layers positional arguments and explicitly set flags over
// the resolved configuration.
func applyAnalyzeFlags(cmd *cobra.Command, cfg *config.Config, args []string, opts *AnalyzeOptions) error {
	flags := cmd.Flags()

	if len(args) > 0 {
		cfg.IDSource = args[0]
	}
	if len(args) > 1 {
		cfg.LogSources = args[1:]
	}

	if flags.Changed("output") {
		cfg.Output = opts.Output
	}
	if opts.HumanReadable {
		if flags.Changed("output") && opts.Output != output.FormatText {
			return fmt.Errorf("--human-readable conflicts with --output %s", opts.Output)
		}
		cfg.Output = output.FormatText
	}
	if flags.Changed("header") {
		cfg.CSVHeader = opts.Header
	}
	if flags.Changed("format") {
		cfg.IDFormat = opts.Format
	}
	if flags.Changed("query") {
		cfg.IDQuery = opts.Query
	}
	if opts.NoMethods {
		cfg.TrackPaymentMethods = false
	}

	cfg.Webhooks = collectWebhooks(cfg, opts)
	return nil
}

// resolveLogFiles expands configured log sources. No sources, or a single
// "-", selects standard input and yields no files.
func resolveLogFiles(sources []string) ([]string, error) {
	if readsStdin(sources) {
		return nil, nil
	}
	return parser.ExpandGlobs(sources)
}

// sendWebhooks sends the report to every webhook whose trigger matches.
// Errors are logged but don't fail the analysis.
func sendWebhooks(ctx context.Context, logger *slog.Logger, webhooks []config.WebhookConfig, report *output.Report) {
	if len(webhooks) == 0 {
		return
	}

	client := webhook.NewClient()

	for _, wh := range webhooks {
		if !wh.Trigger.ShouldFire(report.HasConversions()) {
			continue
		}

		resp := client.Send(ctx, report, webhook.SendOptions{
			URL:     wh.URL,
			Token:   wh.Token,
			Timeout: wh.Timeout,
		})

		name := wh.Name
		if name == "" {
			name = wh.URL
		}

		if resp.Success() {
			logger.Info("webhook sent", "webhook", name, "status", resp.StatusCode, "duration", resp.Duration)
		} else {
			logger.Warn("webhook failed", "webhook", name, "error", resp.Error)
		}
	}
}

// collectWebhooks merges config file webhooks with the CLI webhook.
func collectWebhooks(cfg *config.Config, opts *AnalyzeOptions) []config.WebhookConfig {
	webhooks := make([]config.WebhookConfig, 0, len(cfg.Webhooks)+1)
	webhooks = append(webhooks, cfg.Webhooks...)

	if opts.WebhookURL != "" {
		trigger := config.WebhookTrigger(opts.WebhookTrigger)
		if trigger == "" {
			trigger = config.WebhookTriggerAlways
		}

		webhooks = append(webhooks, config.WebhookConfig{
			Name:    "cli",
			URL:     opts.WebhookURL,
			Token:   opts.WebhookToken,
			Trigger: trigger,
			Timeout: config.DefaultWebhookTimeout,
		})
	}

	return webhooks
}
