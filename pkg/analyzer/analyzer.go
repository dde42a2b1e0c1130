package analyzer

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/ccollicutt/paidlog/pkg/classifier"
	"github.com/ccollicutt/paidlog/pkg/dedup"
	"github.com/ccollicutt/paidlog/pkg/idstore"
	"github.com/ccollicutt/paidlog/pkg/parser"
)

// Analyzer runs the single-pass pipeline: classify each line, drop repeated
// visits, and count visits and payments per flow.
// It owns the identifier store for the duration of the run and is not safe
// for concurrent use.
type Analyzer struct {
	store  *idstore.Store
	seen   *dedup.Deduplicator
	counts Counts
	stats  Stats
	logger *slog.Logger
}

// AnalyzerOption configures analyzer behavior.
type AnalyzerOption func(*Analyzer)

// WithLogger sets the logger used for per-record warnings.
func WithLogger(l *slog.Logger) AnalyzerOption {
	return func(a *Analyzer) {
		if l != nil {
			a.logger = l
		}
	}
}

// NewAnalyzer creates an analyzer that consumes identifiers from store.
func NewAnalyzer(store *idstore.Store, opts ...AnalyzerOption) *Analyzer {
	a := &Analyzer{
		store:  store,
		seen:   dedup.New(),
		counts: Counts{TotalPaid: store.Size()},
		stats:  Stats{Rejected: make(map[classifier.Reason]int)},
		logger: slog.Default(),
	}

	for _, opt := range opts {
		opt(a)
	}

	return a
}

// Process runs one raw log line through the pipeline.
func (a *Analyzer) Process(line string) {
	a.stats.LinesRead++

	ext, reason := classifier.Inspect(line)
	if reason != classifier.ReasonExtracted {
		a.stats.Rejected[reason]++
		return
	}
	a.stats.Extracted++

	if !a.seen.Observe(ext.Addr, ext.ID) {
		a.stats.DuplicateVisits++
		return
	}

	a.Record(ext.Flow, ext.ID)
}

// Record counts a first-seen visit and, if id is a known payment, consumes it
// from the store and counts the payment.
func (a *Analyzer) Record(flow classifier.Flow, id string) {
	fc := a.counts.Flow(flow)
	fc.Visits++

	method, ok := a.store.Consume(id)
	if !ok {
		return
	}
	fc.Paid++

	switch method {
	case idstore.MethodPayPal, idstore.MethodPayPalVault:
		fc.Methods.PayPal++
	case idstore.MethodCreditCard:
		fc.Methods.CreditCard++
	case idstore.MethodSofort:
		fc.Methods.Sofort++
	case idstore.MethodUnknown:
	default:
		a.stats.UnknownMethods++
		a.logger.Warn("unrecognized payment method",
			"label", string(method),
			"flow", string(flow),
			"id", id)
	}
}

// Counts returns a snapshot of the current counts.
func (a *Analyzer) Counts() Counts {
	return a.counts
}

// Stats returns a snapshot of the current line statistics.
func (a *Analyzer) Stats() Stats {
	s := a.stats
	s.Rejected = make(map[classifier.Reason]int, len(a.stats.Rejected))
	for k, v := range a.stats.Rejected {
		s.Rejected[k] = v
	}
	return s
}

// Analyze reads every line of source and returns the final result.
// A read error aborts the run and no partial result is returned. Oversized
// lines are not read errors: they arrive truncated and are counted.
func (a *Analyzer) Analyze(ctx context.Context, source parser.LineSource) (*Result, error) {
	result := &Result{
		Metadata: Metadata{
			StoreKind: a.store.Kind(),
			StartTime: time.Now(),
		},
	}

	sourcesMap := make(map[string]bool)

	for {
		line, err := source.Next(ctx)
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading log source: %w", err)
		}

		if !sourcesMap[line.Source] {
			sourcesMap[line.Source] = true
			result.Metadata.Sources = append(result.Metadata.Sources, line.Source)
		}

		if line.Truncated {
			a.stats.TruncatedLines++
			a.logger.Warn("log line too long, only its beginning is classified",
				"source", line.Source,
				"line", line.LineNum,
				"limit", parser.MaxLineSize)
		}

		a.Process(line.Content)
	}

	result.Counts = a.Counts()
	result.Stats = a.Stats()
	result.Metadata.RemainingPaid = a.store.Remaining()
	result.Metadata.EndTime = time.Now()

	a.logger.Info("analysis complete",
		"lines", result.Stats.LinesRead,
		"extracted", result.Stats.Extracted,
		"duplicates", result.Stats.DuplicateVisits,
		"paid", result.Counts.ObservedPaid(),
		"total_paid", result.Counts.TotalPaid)

	return result, nil
}
