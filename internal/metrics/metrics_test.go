package metrics

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

func TestCollectorRecordsOutcomes(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordAdmission(OutcomeAllowedMetered)
	c.RecordAdmission(OutcomeQuotaExhausted)
	c.RecordRelay("openai", true)
	c.RecordRelay("openai", false)
	c.RecordRelayLatency(120 * time.Millisecond)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/metrics", nil)
	Handler(reg).ServeHTTP(rec, req)

	body := rec.Body.String()
	for _, want := range []string{
		`lina_admissions_total{outcome="allowed_metered"} 1`,
		`lina_admissions_total{outcome="quota_exhausted"} 1`,
		`lina_relay_results_total{provider="openai",result="success"} 1`,
		`lina_relay_results_total{provider="openai",result="failure"} 1`,
	} {
		if !strings.Contains(body, want) {
			t.Fatalf("exposition missing %q\n%s", want, body)
		}
	}
}
