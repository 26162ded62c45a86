package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestObserveSubmission(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewCheckoutMetrics(reg)

	m.ObserveSubmission("succeeded", 120*time.Millisecond)
	m.ObserveSubmission("succeeded", 80*time.Millisecond)
	m.ObserveSubmission("payment_method_burned", 50*time.Millisecond)

	if got := testutil.ToFloat64(m.submissions.WithLabelValues("succeeded")); got != 2 {
		t.Fatalf("expected 2 succeeded submissions, got %v", got)
	}
	if got := testutil.ToFloat64(m.submissions.WithLabelValues("payment_method_burned")); got != 1 {
		t.Fatalf("expected 1 burned submission, got %v", got)
	}
}

func TestObserveSubmissionNilSafe(t *testing.T) {
	var m *CheckoutMetrics
	m.ObserveSubmission("succeeded", time.Second)

	empty := NewCheckoutMetrics(nil)
	empty.ObserveSubmission("", time.Second)
}
