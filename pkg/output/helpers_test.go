package output

import (
	"time"

	"github.com/ccollicutt/paidlog/pkg/analyzer"
	"github.com/ccollicutt/paidlog/pkg/classifier"
	"github.com/ccollicutt/paidlog/pkg/idstore"
)

func createTestResult() *analyzer.Result {
	start := time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC)
	return &analyzer.Result{
		Counts: analyzer.Counts{
			Hobbit: analyzer.FlowCounts{
				Visits:  4,
				Paid:    1,
				Methods: analyzer.MethodCounts{PayPal: 1},
			},
			Columbus: analyzer.FlowCounts{
				Visits:  6,
				Paid:    3,
				Methods: analyzer.MethodCounts{CreditCard: 2, Sofort: 1},
			},
			TotalPaid: 10,
		},
		Stats: analyzer.Stats{
			LinesRead:       120,
			Extracted:       12,
			DuplicateVisits: 2,
			Rejected: map[classifier.Reason]int{
				classifier.ReasonStatus: 100,
				classifier.ReasonPath:   8,
			},
		},
		Metadata: analyzer.Metadata{
			StoreKind:     idstore.KindWithMethods,
			RemainingPaid: 6,
			Sources:       []string{"access.log"},
			StartTime:     start,
			EndTime:       start.Add(1500 * time.Millisecond),
		},
	}
}

func createTestReport() *Report {
	return NewReport(createTestResult(), "paid.csv")
}
