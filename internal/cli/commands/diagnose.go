package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/ccollicutt/paidlog/internal/logging"
	"github.com/ccollicutt/paidlog/pkg/classifier"
	"github.com/ccollicutt/paidlog/pkg/config"
	"github.com/ccollicutt/paidlog/pkg/idstore"
	"github.com/ccollicutt/paidlog/pkg/parser"
)

// DefaultSampleSize is the number of log lines diagnose inspects by default.
const DefaultSampleSize = 1000

// DiagnoseOptions holds options for the diagnose command
type DiagnoseOptions struct {
	ConfigPath string
	IDSource   string
	SampleSize int
	Verbose    bool
}

// DiagnosticResult represents the result of a single diagnostic check
type DiagnosticResult struct {
	Check    string
	Status   string // "ok", "warning", "error"
	Message  string
	Details  []string
	Suggests []string
}

// NewDiagnoseCommand creates the diagnose command
func NewDiagnoseCommand() *cobra.Command {
	opts := &DiagnoseOptions{}

	cmd := &cobra.Command{
		Use:   "diagnose [log-file ...]",
		Short: "Diagnose why log lines are or are not counted",
		Long: `Diagnose why log lines are or are not counted.

Samples log lines and reports how many were rejected at each classifier
stage, in pipeline order:
  status   - the line does not record a 200 response
  path     - the line has no checkout path marker
  url      - the request URL is not a hobbit or columbus checkout URL
  address  - the line has no client address
and how many were extracted. With --ids the identifier source is loaded
and matched against the extracted identifiers.

Example:
  paidlog diagnose access.log
  paidlog diagnose --ids paid.csv -n 5000 access.log
  tail -n 200 access.log | paidlog diagnose -v`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDiagnose(cmd, args, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.ConfigPath, "config", "c", "", "Run configuration file")
	cmd.Flags().StringVar(&opts.IDSource, "ids", "", "Identifier source to load and match against the sample")
	cmd.Flags().IntVarP(&opts.SampleSize, "sample", "n", DefaultSampleSize, "Number of log lines to inspect (0 for all)")
	cmd.Flags().BoolVarP(&opts.Verbose, "verbose", "v", false, "Show detailed diagnostic output")

	return cmd
}

func runDiagnose(cmd *cobra.Command, args []string, opts *DiagnoseOptions) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	w := cmd.OutOrStdout()
	results := []DiagnosticResult{}

	cfg, result := checkRunConfig(ctx, opts.ConfigPath)
	results = append(results, result)
	if result.Status == "error" {
		printDiagnostics(w, results, opts)
		return nil
	}

	sources := cfg.LogSources
	if len(args) > 0 {
		sources = args
	}
	idSource := cfg.IDSource
	if opts.IDSource != "" {
		idSource = opts.IDSource
	}

	logResults, files := checkLogSources(sources)
	results = append(results, logResults...)

	var sample *classificationSample
	if len(files) > 0 || readsStdin(sources) {
		var sampleResult DiagnosticResult
		sample, sampleResult = checkClassification(ctx, files, cmd.InOrStdin(), opts)
		results = append(results, sampleResult)
	}

	if idSource != "" {
		results = append(results, checkIdentifiers(ctx, cfg, idSource, sample, opts))
	}

	results = append(results, checkWebhooks(cfg, opts)...)

	printDiagnostics(w, results, opts)
	return nil
}

func checkRunConfig(ctx context.Context, path string) (*config.Config, DiagnosticResult) {
	result := DiagnosticResult{
		Check: "Run Configuration",
	}

	cfg, used, err := config.Resolve(ctx, path)
	if err != nil {
		result.Status = "error"
		result.Message = fmt.Sprintf("Failed to load config: %v", err)
		if strings.Contains(err.Error(), "yaml") {
			result.Suggests = []string{
				"Check YAML syntax - ensure proper indentation (use spaces, not tabs)",
			}
		}
		return nil, result
	}

	result.Status = "ok"
	if used == "" {
		result.Message = "No config file, using defaults"
	} else {
		result.Message = fmt.Sprintf("Loaded %s", used)
	}
	return cfg, result
}

// checkLogSources reports on each configured log source and returns the
// files that exist. No sources means standard input.
func checkLogSources(sources []string) ([]DiagnosticResult, []string) {
	if readsStdin(sources) {
		return []DiagnosticResult{{
			Check:   "Log Sources",
			Status:  "ok",
			Message: "Reading standard input",
		}}, nil
	}

	results := []DiagnosticResult{}
	var files []string

	for _, source := range sources {
		result := DiagnosticResult{
			Check: fmt.Sprintf("Log Source: %s", source),
		}

		if strings.ContainsAny(source, "*?[") {
			matches, err := filepath.Glob(source)
			switch {
			case err != nil:
				result.Status = "error"
				result.Message = fmt.Sprintf("Invalid glob pattern: %v", err)
			case len(matches) == 0:
				result.Status = "warning"
				result.Message = "Glob pattern matches no files"
				result.Suggests = []string{
					"Check if the log files exist at this path",
					"Verify the glob pattern syntax",
				}
			default:
				result.Status = "ok"
				result.Message = fmt.Sprintf("Matches %d file(s)", len(matches))
				result.Details = append(result.Details, matches...)
				files = append(files, matches...)
			}
			results = append(results, result)
			continue
		}

		info, err := os.Stat(source)
		switch {
		case os.IsNotExist(err):
			result.Status = "error"
			result.Message = "File does not exist"
			result.Suggests = []string{"Check if the log file path is correct"}
		case err != nil:
			result.Status = "error"
			result.Message = fmt.Sprintf("Cannot access file: %v", err)
			result.Suggests = []string{"Check file permissions"}
		case info.IsDir():
			result.Status = "error"
			result.Message = "Path is a directory, not a file"
			result.Suggests = []string{
				"Use a glob pattern to match files in directory",
				"Example: /var/log/shop/*.log",
			}
		case info.Size() == 0:
			result.Status = "warning"
			result.Message = "File is empty (0 bytes)"
		default:
			result.Status = "ok"
			result.Message = fmt.Sprintf("File exists (%d bytes)", info.Size())
			files = append(files, source)
		}
		results = append(results, result)
	}

	if len(files) == 0 {
		results = append(results, DiagnosticResult{
			Check:   "Log Files Summary",
			Status:  "error",
			Message: "No accessible log files found",
			Suggests: []string{
				"Ensure at least one log file exists and is readable",
			},
		})
	}

	return results, files
}

// classificationSample holds the outcome of inspecting sampled log lines.
type classificationSample struct {
	Lines     int
	ByReason  map[classifier.Reason]int
	ByFlow    map[classifier.Flow]int
	Examples  map[classifier.Reason]string
	Extracted []classifier.Extraction
}

func sampleLines(ctx context.Context, files []string, stdin io.Reader, limit int) (*classificationSample, error) {
	source := parser.Open(files, stdin)
	defer source.Close()

	sample := &classificationSample{
		ByReason: make(map[classifier.Reason]int),
		ByFlow:   make(map[classifier.Flow]int),
		Examples: make(map[classifier.Reason]string),
	}

	for limit <= 0 || sample.Lines < limit {
		line, err := source.Next(ctx)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return sample, err
		}

		sample.Lines++
		ext, reason := classifier.Inspect(line.Content)
		sample.ByReason[reason]++
		if _, ok := sample.Examples[reason]; !ok {
			sample.Examples[reason] = line.Content
		}
		if reason == classifier.ReasonExtracted {
			sample.ByFlow[ext.Flow]++
			sample.Extracted = append(sample.Extracted, ext)
		}
	}

	return sample, nil
}

func checkClassification(ctx context.Context, files []string, stdin io.Reader, opts *DiagnoseOptions) (*classificationSample, DiagnosticResult) {
	result := DiagnosticResult{
		Check: "Line Classification",
	}

	sample, err := sampleLines(ctx, files, stdin, opts.SampleSize)
	if err != nil {
		result.Status = "error"
		result.Message = fmt.Sprintf("Cannot read log lines: %v", err)
		return sample, result
	}

	if sample.Lines == 0 {
		result.Status = "warning"
		result.Message = "No log lines to inspect"
		return sample, result
	}

	extracted := sample.ByReason[classifier.ReasonExtracted]
	result.Message = fmt.Sprintf("%d of %d sampled line(s) extracted", extracted, sample.Lines)

	for _, reason := range classifier.Reasons {
		if reason == classifier.ReasonExtracted {
			continue
		}
		result.Details = append(result.Details, fmt.Sprintf("Rejected (%s): %d", reason, sample.ByReason[reason]))
	}
	for _, flow := range classifier.Flows {
		result.Details = append(result.Details, fmt.Sprintf("Extracted (%s): %d", flow, sample.ByFlow[flow]))
	}

	if extracted > 0 {
		result.Status = "ok"
		if opts.Verbose {
			result.Details = append(result.Details, "Sample extracted line:", truncate(sample.Examples[classifier.ReasonExtracted], 120))
		}
		return sample, result
	}

	result.Status = "warning"
	result.Suggests = classificationHints(sample)
	return sample, result
}

// classificationHints explains the furthest stage reached by any sampled line.
func classificationHints(sample *classificationSample) []string {
	switch {
	case sample.ByReason[classifier.ReasonMissingClient] > 0:
		return []string{
			`Checkout lines were found but none carry a remoteIp":"<ipv4>" field`,
			"Example: " + truncate(sample.Examples[classifier.ReasonMissingClient], 120),
		}
	case sample.ByReason[classifier.ReasonURLMismatch] > 0:
		return []string{
			`Lines mention a checkout path but no requestUrl matches payment/<id> or order/profiles/<id>/payments/new`,
			"Identifiers must be 36 hexadecimal or '-' characters",
			"Example: " + truncate(sample.Examples[classifier.ReasonURLMismatch], 120),
		}
	case sample.ByReason[classifier.ReasonPath] > 0:
		return []string{"Successful requests were found but none for a checkout page"}
	default:
		return []string{
			`No line contains the ":200," status marker`,
			"The input may not be structured access-log records",
		}
	}
}

func checkIdentifiers(ctx context.Context, cfg *config.Config, source string, sample *classificationSample, opts *DiagnoseOptions) DiagnosticResult {
	display, _ := logging.RedactURL(source)
	result := DiagnosticResult{
		Check: fmt.Sprintf("Identifier Source: %s", display),
	}

	format, err := idstore.ParseFormat(cfg.IDFormat)
	if err != nil {
		result.Status = "error"
		result.Message = err.Error()
		return result
	}

	store, err := idstore.Load(ctx, source,
		idstore.WithFormat(format),
		idstore.WithQuery(cfg.IDQuery),
		idstore.WithPaymentMethods(cfg.TrackPaymentMethods),
		idstore.WithLogger(logging.New(io.Discard, false)),
	)
	if err != nil {
		result.Status = "error"
		result.Message = fmt.Sprintf("Cannot load identifiers: %v", err)
		result.Suggests = []string{"Use --format to force the identifier source format"}
		return result
	}

	result.Details = []string{
		fmt.Sprintf("Identifiers: %d", store.Size()),
		fmt.Sprintf("Store kind: %s", store.Kind()),
	}

	if store.Size() == 0 {
		result.Status = "warning"
		result.Message = "Identifier source is empty"
		return result
	}

	matched := 0
	if sample != nil {
		for _, ext := range sample.Extracted {
			if _, ok := store.Consume(ext.ID); ok {
				matched++
			}
		}
	}
	result.Details = append(result.Details, fmt.Sprintf("Sampled identifiers found in source: %d", matched))

	if sample != nil && len(sample.Extracted) > 0 && matched == 0 {
		result.Status = "warning"
		result.Message = "None of the sampled identifiers are paid"
		result.Suggests = []string{
			"Check that the identifier source covers the same period as the logs",
			"Check that identifier case matches the log URLs",
		}
		return result
	}

	result.Status = "ok"
	result.Message = fmt.Sprintf("Loaded %d identifier(s)", store.Size())
	return result
}

func printDiagnostics(w io.Writer, results []DiagnosticResult, opts *DiagnoseOptions) {
	_, _ = fmt.Fprintln(w, "=== paidlog Diagnostics ===")
	_, _ = fmt.Fprintln(w)

	okCount := 0
	warnCount := 0
	errCount := 0

	for _, r := range results {
		var icon string
		switch r.Status {
		case "ok":
			icon = "PASS"
			okCount++
		case "warning":
			icon = "WARN"
			warnCount++
		case "error":
			icon = "FAIL"
			errCount++
		}

		_, _ = fmt.Fprintf(w, "[%s] %s\n", icon, r.Check)
		_, _ = fmt.Fprintf(w, "    %s\n", r.Message)

		if opts.Verbose || r.Status != "ok" || r.Check == "Line Classification" {
			for _, d := range r.Details {
				_, _ = fmt.Fprintf(w, "      - %s\n", d)
			}
		}

		for _, s := range r.Suggests {
			_, _ = fmt.Fprintf(w, "      Hint: %s\n", s)
		}

		_, _ = fmt.Fprintln(w)
	}

	_, _ = fmt.Fprintln(w, "---")
	_, _ = fmt.Fprintf(w, "Summary: %d passed, %d warnings, %d errors\n", okCount, warnCount, errCount)

	switch {
	case errCount > 0:
		_, _ = fmt.Fprintln(w, "\nFix the errors above before running analysis.")
	case warnCount > 0:
		_, _ = fmt.Fprintln(w, "\nAnalysis will run but may count nothing.")
	default:
		_, _ = fmt.Fprintln(w, "\nLooks good!")
	}
}

func checkWebhooks(cfg *config.Config, opts *DiagnoseOptions) []DiagnosticResult {
	results := []DiagnosticResult{}

	if len(cfg.Webhooks) == 0 {
		if opts.Verbose {
			results = append(results, DiagnosticResult{
				Check:   "Webhooks",
				Status:  "ok",
				Message: "No webhooks configured (optional)",
			})
		}
		return results
	}

	for _, wh := range cfg.Webhooks {
		name := wh.Name
		if name == "" {
			name = wh.URL
		}

		result := DiagnosticResult{
			Check: fmt.Sprintf("Webhook: %s", name),
		}

		issues := []string{}
		warnings := []string{}

		if wh.URL == "" {
			issues = append(issues, "Missing url")
		} else {
			u, err := url.Parse(wh.URL)
			if err != nil {
				issues = append(issues, fmt.Sprintf("Invalid URL: %v", err))
			} else if u.Scheme != "http" && u.Scheme != "https" {
				issues = append(issues, fmt.Sprintf("URL scheme must be http or https, got %q", u.Scheme))
			} else if u.Host == "" {
				issues = append(issues, "URL must have a host")
			}
		}

		switch wh.Trigger {
		case "", config.WebhookTriggerAlways, config.WebhookTriggerOnConversions, config.WebhookTriggerNever:
		default:
			issues = append(issues, fmt.Sprintf("Invalid trigger %q (use always, on_conversions, or never)", wh.Trigger))
		}

		if strings.HasPrefix(wh.Token, "$") && os.Getenv(strings.Trim(wh.Token, "${}")) == "" {
			warnings = append(warnings, fmt.Sprintf("Token refers to an unset env var: %s", wh.Token))
		}

		switch {
		case len(issues) > 0:
			result.Status = "error"
			result.Message = fmt.Sprintf("%d configuration issue(s)", len(issues))
			result.Details = issues
		case len(warnings) > 0:
			result.Status = "warning"
			result.Message = fmt.Sprintf("%d warning(s)", len(warnings))
			result.Details = warnings
		default:
			trigger := wh.Trigger
			if trigger == "" {
				trigger = config.WebhookTriggerAlways
			}
			result.Status = "ok"
			result.Message = fmt.Sprintf("Trigger: %s", trigger)
			if opts.Verbose {
				result.Details = []string{fmt.Sprintf("URL: %s", wh.URL)}
				if wh.Token != "" {
					result.Details = append(result.Details, "Token: configured")
				}
			}
		}

		results = append(results, result)

		if opts.Verbose && len(issues) == 0 {
			conn := checkWebhookConnectivity(wh)
			conn.Check = fmt.Sprintf("Webhook Connectivity: %s", name)
			results = append(results, conn)
		}
	}

	return results
}

func checkWebhookConnectivity(wh config.WebhookConfig) DiagnosticResult {
	result := DiagnosticResult{}

	client := &http.Client{
		Timeout: 5 * time.Second,
	}

	req, err := http.NewRequest(http.MethodHead, wh.URL, nil)
	if err != nil {
		result.Status = "warning"
		result.Message = fmt.Sprintf("Cannot create request: %v", err)
		return result
	}

	resp, err := client.Do(req)
	if err != nil {
		result.Status = "warning"
		result.Message = fmt.Sprintf("Cannot connect: %v", err)
		result.Suggests = []string{
			"Check if the webhook URL is correct",
			"Verify network connectivity",
		}
		return result
	}
	defer resp.Body.Close()

	// Any response means the server is reachable.
	if resp.StatusCode >= 200 && resp.StatusCode < 400 {
		result.Status = "ok"
		result.Message = fmt.Sprintf("Reachable (status %d)", resp.StatusCode)
	} else {
		result.Status = "warning"
		result.Message = fmt.Sprintf("Reachable but returned status %d", resp.StatusCode)
		result.Suggests = []string{
			"The endpoint may only accept POST (the report is sent with POST)",
		}
	}

	return result
}

func readsStdin(sources []string) bool {
	return len(sources) == 0 || (len(sources) == 1 && sources[0] == parser.StdinName)
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}
