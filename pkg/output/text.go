package output

import (
	"context"
	"io"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/ccollicutt/paidlog/pkg/classifier"
)

// TextFormatter formats reports as human-readable text.
type TextFormatter struct {
	opts    FormatOptions
	printer *message.Printer
}

// NewTextFormatter creates a new text formatter with the given options.
func NewTextFormatter(opts FormatOptions) *TextFormatter {
	return &TextFormatter{
		opts:    opts,
		printer: message.NewPrinter(language.English),
	}
}

// Name returns the format name.
func (f *TextFormatter) Name() string {
	return FormatText
}

// Format renders the report as text.
func (f *TextFormatter) Format(ctx context.Context, report *Report, w io.Writer) error {
	p := f.printer

	for _, fr := range report.Flows {
		label := string(fr.Flow) + ":"
		if _, err := p.Fprintf(w, "%-9s %3d calls lead to %3d payments, that's %.2f%% of payments and a conversion rate of %.2f%%\n",
			label, fr.Visits, fr.Paid, fr.PaymentShare, fr.ConversionRate); err != nil {
			return err
		}
	}

	if _, err := p.Fprintf(w, "%d of %d total payments\n", report.Summary.ObservedPaid, report.Summary.TotalPaid); err != nil {
		return err
	}

	for _, fr := range report.Flows {
		if _, err := p.Fprintf(w, "%-8s pp / cc / sofort: %3d / %3d / %3d\n",
			titleFlow(fr.Flow), fr.PayPal, fr.CreditCard, fr.Sofort); err != nil {
			return err
		}
	}

	if f.opts.Verbose {
		return f.formatStats(report, w)
	}
	return nil
}

func (f *TextFormatter) formatStats(report *Report, w io.Writer) error {
	p := f.printer
	stats := report.Stats

	if _, err := p.Fprintln(w, "---"); err != nil {
		return err
	}

	type statLine struct {
		format string
		value  any
	}
	lines := []statLine{
		{"Lines read:       %d\n", stats.LinesRead},
		{"Lines extracted:  %d\n", stats.Extracted},
		{"Duplicate visits: %d\n", stats.DuplicateVisits},
	}
	for _, reason := range classifier.Reasons {
		if reason == classifier.ReasonExtracted {
			continue
		}
		lines = append(lines, statLine{"Rejected (" + string(reason) + "): %d\n", stats.Rejected[reason]})
	}
	if stats.TruncatedLines > 0 {
		lines = append(lines, statLine{"Truncated lines: %d\n", stats.TruncatedLines})
	}
	if stats.UnknownMethods > 0 {
		lines = append(lines, statLine{"Unknown payment methods: %d\n", stats.UnknownMethods})
	}
	lines = append(lines,
		statLine{"Unobserved payments: %d\n", report.Summary.RemainingPaid},
		statLine{"Duration: %s\n", report.Metadata.Duration.Round(time.Millisecond)},
	)

	for _, l := range lines {
		if _, err := p.Fprintf(w, l.format, l.value); err != nil {
			return err
		}
	}
	return nil
}

func titleFlow(flow classifier.Flow) string {
	return cases.Title(language.English).String(string(flow))
}
