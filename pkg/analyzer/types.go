// Package analyzer cross-references checkout traffic from access logs against
// the set of paid transactions and aggregates conversion counts.
package analyzer

import (
	"time"

	"github.com/ccollicutt/paidlog/pkg/classifier"
	"github.com/ccollicutt/paidlog/pkg/idstore"
)

// MethodCounts splits paid visits by payment method.
// PayPal includes both paypal and paypal_vault.
type MethodCounts struct {
	PayPal     int `json:"paypal"`
	CreditCard int `json:"credit_card"`
	Sofort     int `json:"sofort"`
}

// Total returns the number of paid visits attributed to a known method.
func (m MethodCounts) Total() int {
	return m.PayPal + m.CreditCard + m.Sofort
}

// FlowCounts holds the counts for one checkout flow.
type FlowCounts struct {
	// Visits is the number of distinct (address, id) pairs seen in this flow.
	Visits int `json:"visits"`

	// Paid is the number of visits whose id was in the identifier store.
	Paid int `json:"paid"`

	// Methods splits Paid by payment method. Paid visits with an unknown
	// method are counted in Paid only.
	Methods MethodCounts `json:"methods"`
}

// ConversionRate returns Paid as a percentage of Visits, or 0 without visits.
func (f FlowCounts) ConversionRate() float64 {
	return percent(f.Paid, f.Visits)
}

// Counts is the aggregate result of one run.
type Counts struct {
	Hobbit   FlowCounts `json:"hobbit"`
	Columbus FlowCounts `json:"columbus"`

	// TotalPaid is the number of identifiers loaded, observed or not.
	TotalPaid int `json:"total_paid"`
}

// Flow returns the counts for the given flow.
func (c *Counts) Flow(flow classifier.Flow) *FlowCounts {
	if flow == classifier.FlowColumbus {
		return &c.Columbus
	}
	return &c.Hobbit
}

// ObservedPaid returns the number of paid visits across both flows.
func (c Counts) ObservedPaid() int {
	return c.Hobbit.Paid + c.Columbus.Paid
}

// PaymentShare returns the flow's share of all observed payments as a percentage.
func (c Counts) PaymentShare(flow classifier.Flow) float64 {
	return percent(c.Flow(flow).Paid, c.ObservedPaid())
}

func percent(part, whole int) float64 {
	if whole == 0 {
		return 0
	}
	return float64(part) * 100 / float64(whole)
}

// Stats describes how the input lines were handled.
type Stats struct {
	// LinesRead is the total number of log lines read.
	LinesRead int `json:"lines_read"`

	// Rejected counts lines dropped by each classifier stage.
	Rejected map[classifier.Reason]int `json:"rejected"`

	// Extracted is the number of lines that yielded a flow, id, and address.
	Extracted int `json:"extracted"`

	// DuplicateVisits is the number of extracted lines for an already counted pair.
	DuplicateVisits int `json:"duplicate_visits"`

	// UnknownMethods is the number of paid visits with an unrecognized method label.
	UnknownMethods int `json:"unknown_methods"`

	// TruncatedLines is the number of lines cut to parser.MaxLineSize.
	TruncatedLines int `json:"truncated_lines"`
}

// Result is the complete output of an analysis run.
type Result struct {
	Counts   Counts
	Stats    Stats
	Metadata Metadata
}

// Metadata provides context about the analysis run.
type Metadata struct {
	// StoreKind tells whether payment-method data was available.
	StoreKind idstore.Kind

	// RemainingPaid is the number of paid identifiers never seen in the logs.
	RemainingPaid int

	// Sources lists the log sources that were read.
	Sources []string

	// StartTime is when analysis began.
	StartTime time.Time

	// EndTime is when analysis completed.
	EndTime time.Time
}
