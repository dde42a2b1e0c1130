// Package output renders conversion counts for humans and machines.
package output

import (
	"time"

	"github.com/ccollicutt/paidlog/pkg/analyzer"
	"github.com/ccollicutt/paidlog/pkg/classifier"
	"github.com/ccollicutt/paidlog/pkg/idstore"
)

// Report is the complete analysis output.
type Report struct {
	// Summary provides totals across flows.
	Summary Summary `json:"summary"`

	// Flows holds per-flow counts in report order (hobbit, columbus).
	Flows []FlowReport `json:"flows"`

	// Stats describes how input lines were handled.
	Stats analyzer.Stats `json:"stats"`

	// Metadata provides context about the analysis.
	Metadata Metadata `json:"metadata"`
}

// Summary provides totals across flows.
type Summary struct {
	// TotalPaid is the number of known paid identifiers.
	TotalPaid int `json:"total_paid"`

	// ObservedPaid is the number of paid identifiers seen in the logs.
	ObservedPaid int `json:"observed_paid"`

	// RemainingPaid is the number of paid identifiers never seen in the logs.
	RemainingPaid int `json:"remaining_paid"`

	// HasMethods reports whether payment-method data was available.
	HasMethods bool `json:"has_methods"`
}

// FlowReport holds counts and derived rates for one checkout flow.
type FlowReport struct {
	Flow           classifier.Flow `json:"flow"`
	Visits         int             `json:"visits"`
	Paid           int             `json:"paid"`
	PaymentShare   float64         `json:"payment_share"`
	ConversionRate float64         `json:"conversion_rate"`
	PayPal         int             `json:"paypal"`
	CreditCard     int             `json:"credit_card"`
	Sofort         int             `json:"sofort"`
}

// Metadata provides context about the analysis run.
type Metadata struct {
	// IDSource is the identifier source, with any credentials removed.
	IDSource string `json:"id_source"`

	// StoreKind tells whether payment-method data was loaded.
	StoreKind idstore.Kind `json:"store_kind"`

	// Sources lists the log sources that were read.
	Sources []string `json:"sources"`

	// AnalyzedAt is when the analysis completed.
	AnalyzedAt time.Time `json:"analyzed_at"`

	// Duration is how long the analysis took.
	Duration time.Duration `json:"duration"`
}

// NewReport creates a Report from analysis results.
func NewReport(result *analyzer.Result, idSource string) *Report {
	counts := result.Counts

	report := &Report{
		Summary: Summary{
			TotalPaid:     counts.TotalPaid,
			ObservedPaid:  counts.ObservedPaid(),
			RemainingPaid: result.Metadata.RemainingPaid,
			HasMethods:    result.Metadata.StoreKind == idstore.KindWithMethods,
		},
		Flows: make([]FlowReport, 0, len(classifier.Flows)),
		Stats: result.Stats,
		Metadata: Metadata{
			IDSource:   idSource,
			StoreKind:  result.Metadata.StoreKind,
			Sources:    result.Metadata.Sources,
			AnalyzedAt: result.Metadata.EndTime,
			Duration:   result.Metadata.EndTime.Sub(result.Metadata.StartTime),
		},
	}

	for _, flow := range classifier.Flows {
		fc := counts.Flow(flow)
		report.Flows = append(report.Flows, FlowReport{
			Flow:           flow,
			Visits:         fc.Visits,
			Paid:           fc.Paid,
			PaymentShare:   counts.PaymentShare(flow),
			ConversionRate: fc.ConversionRate(),
			PayPal:         fc.Methods.PayPal,
			CreditCard:     fc.Methods.CreditCard,
			Sofort:         fc.Methods.Sofort,
		})
	}

	return report
}

// HasConversions returns true if any paid visit was observed.
func (r *Report) HasConversions() bool {
	return r.Summary.ObservedPaid > 0
}
