package output

import (
	"testing"
	"time"

	"github.com/ccollicutt/paidlog/pkg/analyzer"
	"github.com/ccollicutt/paidlog/pkg/classifier"
)

func TestNewReport(t *testing.T) {
	report := createTestReport()

	if len(report.Flows) != 2 {
		t.Fatalf("Flows = %d, want 2", len(report.Flows))
	}
	if report.Flows[0].Flow != classifier.FlowHobbit || report.Flows[1].Flow != classifier.FlowColumbus {
		t.Errorf("flow order = %s, %s; want hobbit, columbus", report.Flows[0].Flow, report.Flows[1].Flow)
	}

	h := report.Flows[0]
	if h.PaymentShare != 25 {
		t.Errorf("hobbit share = %v, want 25", h.PaymentShare)
	}
	if h.ConversionRate != 25 {
		t.Errorf("hobbit conversion = %v, want 25", h.ConversionRate)
	}

	if report.Summary.ObservedPaid != 4 {
		t.Errorf("ObservedPaid = %d, want 4", report.Summary.ObservedPaid)
	}
	if report.Summary.RemainingPaid != 6 {
		t.Errorf("RemainingPaid = %d, want 6", report.Summary.RemainingPaid)
	}
	if !report.Summary.HasMethods {
		t.Error("HasMethods = false, want true")
	}
	if report.Metadata.Duration != 1500*time.Millisecond {
		t.Errorf("Duration = %v, want 1.5s", report.Metadata.Duration)
	}
	if !report.HasConversions() {
		t.Error("HasConversions() = false, want true")
	}
}

func TestNewReport_Empty(t *testing.T) {
	report := NewReport(&analyzer.Result{}, "ids.txt")

	if report.HasConversions() {
		t.Error("HasConversions() = true for empty result")
	}
	for _, fr := range report.Flows {
		if fr.ConversionRate != 0 || fr.PaymentShare != 0 {
			t.Errorf("%s rates = %v/%v, want 0/0", fr.Flow, fr.ConversionRate, fr.PaymentShare)
		}
	}
}

func TestNewFormatter(t *testing.T) {
	for _, name := range Formats {
		t.Run(name, func(t *testing.T) {
			f, err := NewFormatter(name, FormatOptions{})
			if err != nil {
				t.Fatalf("NewFormatter(%q) error = %v", name, err)
			}
			if f.Name() != name {
				t.Errorf("Name() = %q, want %q", f.Name(), name)
			}
		})
	}

	if _, err := NewFormatter("xml", FormatOptions{}); err == nil {
		t.Error("NewFormatter(xml) expected error")
	}
}
