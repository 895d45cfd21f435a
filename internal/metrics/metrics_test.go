package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecordDBQuery(t *testing.T) {
	before := testutil.ToFloat64(DBQueryErrors.WithLabelValues("select", "metrics_test"))

	RecordDBQuery("select", "metrics_test", 5*time.Millisecond, nil)
	if got := testutil.ToFloat64(DBQueryErrors.WithLabelValues("select", "metrics_test")); got != before {
		t.Errorf("errors = %v after success, want %v", got, before)
	}

	RecordDBQuery("select", "metrics_test", time.Millisecond, errors.New("boom"))
	if got := testutil.ToFloat64(DBQueryErrors.WithLabelValues("select", "metrics_test")); got != before+1 {
		t.Errorf("errors = %v after failure, want %v", got, before+1)
	}
}

func TestRecordAPIRequest(t *testing.T) {
	c := APIRequestsTotal.WithLabelValues("GET", "/metrics-test", "200")
	before := testutil.ToFloat64(c)
	RecordAPIRequest("GET", "/metrics-test", "200", 10*time.Millisecond)
	RecordAPIRequest("GET", "/metrics-test", "200", 10*time.Millisecond)
	if got := testutil.ToFloat64(c); got != before+2 {
		t.Errorf("requests = %v, want %v", got, before+2)
	}
}
