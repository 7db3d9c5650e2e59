package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestCollectorsRegistered(t *testing.T) {
	for name, c := range map[string]prometheus.Collector{
		"submissions":       SubmissionsTotal,
		"validation errors": ValidationErrorsTotal,
		"in flight":         SubmissionsInFlight,
		"outbox":            OutboxJobsTotal,
		"sessions":          ActiveSessions,
	} {
		if err := prometheus.Register(c); err == nil {
			t.Errorf("%s collector was not registered by init", name)
		}
	}
}

func TestSubmissionsTotal_Labels(t *testing.T) {
	c := SubmissionsTotal.WithLabelValues(OutcomeFailed)
	before := testutil.ToFloat64(c)
	c.Inc()
	if got := testutil.ToFloat64(c); got != before+1 {
		t.Fatalf("counter = %v, want %v", got, before+1)
	}
}
