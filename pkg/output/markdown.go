package output

import (
	"context"
	"fmt"
	"io"
	"strconv"

	"github.com/nao1215/markdown"
	"github.com/nao1215/markdown/mermaid/piechart"

	"github.com/ccollicutt/paidlog/pkg/classifier"
)

// MarkdownFormatter formats reports as GitHub-flavored Markdown with a
// mermaid chart of payments per flow.
type MarkdownFormatter struct {
	opts FormatOptions
}

// NewMarkdownFormatter creates a new Markdown formatter with the given options.
func NewMarkdownFormatter(opts FormatOptions) *MarkdownFormatter {
	return &MarkdownFormatter{opts: opts}
}

// Name returns the format name.
func (f *MarkdownFormatter) Name() string {
	return FormatMarkdown
}

// Format renders the report as Markdown.
func (f *MarkdownFormatter) Format(ctx context.Context, report *Report, w io.Writer) error {
	md := markdown.NewMarkdown(w)

	md.H1("Checkout Conversion Report")
	md.PlainText("")

	f.writeFlows(md, report)
	f.writeMethods(md, report)
	f.writeChart(md, report)
	f.writeAlert(md, report)

	if f.opts.Verbose {
		f.writeStats(md, report)
	}

	return md.Build()
}

func (f *MarkdownFormatter) writeFlows(md *markdown.Markdown, report *Report) {
	md.H2("Flows")
	md.PlainText("")

	rows := make([][]string, 0, len(report.Flows))
	for _, fr := range report.Flows {
		rows = append(rows, []string{
			string(fr.Flow),
			strconv.Itoa(fr.Visits),
			strconv.Itoa(fr.Paid),
			formatPercent(fr.PaymentShare),
			formatPercent(fr.ConversionRate),
		})
	}

	md.Table(markdown.TableSet{
		Header: []string{"Flow", "Visits", "Paid", "Share of payments", "Conversion rate"},
		Rows:   rows,
	})
	md.PlainText("")
	md.PlainTextf("**%d** of **%d** total payments observed.", report.Summary.ObservedPaid, report.Summary.TotalPaid)
	md.PlainText("")
}

func (f *MarkdownFormatter) writeMethods(md *markdown.Markdown, report *Report) {
	md.H2("Payment Methods")
	md.PlainText("")

	if !report.Summary.HasMethods {
		md.PlainText("No payment-method data was loaded.")
		md.PlainText("")
		return
	}

	rows := make([][]string, 0, len(report.Flows))
	for _, fr := range report.Flows {
		rows = append(rows, []string{
			string(fr.Flow),
			strconv.Itoa(fr.PayPal),
			strconv.Itoa(fr.CreditCard),
			strconv.Itoa(fr.Sofort),
		})
	}

	md.Table(markdown.TableSet{
		Header: []string{"Flow", "PayPal", "Credit card", "Sofort"},
		Rows:   rows,
	})
	md.PlainText("")
}

func (f *MarkdownFormatter) writeChart(md *markdown.Markdown, report *Report) {
	if !report.HasConversions() {
		return
	}

	chart := piechart.NewPieChart(
		io.Discard,
		piechart.WithTitle("Payments by Flow"),
		piechart.WithShowData(true),
	)
	for _, fr := range report.Flows {
		if fr.Paid > 0 {
			chart.LabelAndIntValue(string(fr.Flow), uint64(fr.Paid))
		}
	}

	md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart.String())
	md.PlainText("")
}

func (f *MarkdownFormatter) writeAlert(md *markdown.Markdown, report *Report) {
	switch {
	case report.Summary.TotalPaid == 0:
		md.Warningf("The identifier source contained no paid transactions.")
	case !report.HasConversions():
		md.Note("None of the paid transactions were observed in the logs.")
	case report.Summary.RemainingPaid > 0:
		md.Importantf("%d paid transaction(s) never appeared in the logs.", report.Summary.RemainingPaid)
	default:
		md.Tip("Every paid transaction was observed in the logs.")
	}
	md.PlainText("")
}

func (f *MarkdownFormatter) writeStats(md *markdown.Markdown, report *Report) {
	stats := report.Stats

	md.H2("Pipeline")
	md.PlainText("")

	rows := [][]string{
		{"Lines read", strconv.Itoa(stats.LinesRead)},
		{"Lines extracted", strconv.Itoa(stats.Extracted)},
		{"Duplicate visits", strconv.Itoa(stats.DuplicateVisits)},
	}
	for _, reason := range classifier.Reasons {
		if reason == classifier.ReasonExtracted {
			continue
		}
		rows = append(rows, []string{"Rejected: " + string(reason), strconv.Itoa(stats.Rejected[reason])})
	}
	rows = append(rows,
		[]string{"Truncated lines", strconv.Itoa(stats.TruncatedLines)},
		[]string{"Unknown payment methods", strconv.Itoa(stats.UnknownMethods)},
	)

	md.Table(markdown.TableSet{
		Header: []string{"Metric", "Value"},
		Rows:   rows,
	})
	md.PlainText("")

	if len(report.Metadata.Sources) > 0 {
		md.PlainText("Sources:")
		md.BulletList(report.Metadata.Sources...)
		md.PlainText("")
	}
}

func formatPercent(v float64) string {
	return fmt.Sprintf("%.2f%%", v)
}
