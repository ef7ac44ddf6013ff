package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

func counterValue(t *testing.T, name string, labels map[string]string) float64 {
	t.Helper()
	families, err := prometheus.DefaultGatherer.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	for _, f := range families {
		if f.GetName() != name {
			continue
		}
		for _, m := range f.GetMetric() {
			match := true
			for _, lp := range m.GetLabel() {
				if want, ok := labels[lp.GetName()]; ok && want != lp.GetValue() {
					match = false
				}
			}
			if match {
				return m.GetCounter().GetValue()
			}
		}
	}
	return 0
}

func TestRecordRequest(t *testing.T) {
	labels := map[string]string{"route": "/test", "method": "GET", "code": "200"}
	before := counterValue(t, "quill_http_requests_total", labels)
	RecordRequest("/test", "GET", 200, 5*time.Millisecond)
	RecordRequest("/test", "GET", 200, 5*time.Millisecond)
	if got := counterValue(t, "quill_http_requests_total", labels); got != before+2 {
		t.Errorf("expected %v requests, got %v", before+2, got)
	}
}

func TestRecordComment(t *testing.T) {
	labels := map[string]string{"outcome": "accepted"}
	before := counterValue(t, "quill_comments_total", labels)
	RecordComment("accepted")
	if got := counterValue(t, "quill_comments_total", labels); got != before+1 {
		t.Errorf("expected %v comments, got %v", before+1, got)
	}
}

func TestRecordImport(t *testing.T) {
	before := counterValue(t, "quill_imported_posts_total", nil)
	RecordImport(3, 1)
	if got := counterValue(t, "quill_imported_posts_total", nil); got != before+3 {
		t.Errorf("expected %v imported, got %v", before+3, got)
	}
}
