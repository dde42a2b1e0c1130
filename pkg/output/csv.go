package output

import (
	"context"
	"encoding/csv"
	"io"
	"strconv"
)

// CSVFormatter renders the counts as a single comma-separated line:
// visits, paid, paypal, credit_card, sofort for hobbit, then for columbus.
type CSVFormatter struct {
	opts FormatOptions
}

// NewCSVFormatter creates a new CSV formatter with the given options.
func NewCSVFormatter(opts FormatOptions) *CSVFormatter {
	return &CSVFormatter{opts: opts}
}

// Name returns the format name.
func (f *CSVFormatter) Name() string {
	return FormatCSV
}

// Format renders the report as CSV.
func (f *CSVFormatter) Format(ctx context.Context, report *Report, w io.Writer) error {
	writer := csv.NewWriter(w)

	if f.opts.Header {
		var header []string
		for _, fr := range report.Flows {
			name := string(fr.Flow)
			header = append(header,
				name+"_visits",
				name+"_paid",
				name+"_paypal",
				name+"_credit_card",
				name+"_sofort")
		}
		if err := writer.Write(header); err != nil {
			return err
		}
	}

	var row []string
	for _, fr := range report.Flows {
		row = append(row,
			strconv.Itoa(fr.Visits),
			strconv.Itoa(fr.Paid),
			strconv.Itoa(fr.PayPal),
			strconv.Itoa(fr.CreditCard),
			strconv.Itoa(fr.Sofort))
	}
	if err := writer.Write(row); err != nil {
		return err
	}

	writer.Flush()
	return writer.Error()
}
