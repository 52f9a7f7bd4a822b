package metrics

import (
	"net/http/httptest"
	"strings"
	"testing"
)

func TestRecordCompile_IncrementsByResultLabel(t *testing.T) {
	m := New()
	m.RecordCompile("ok")
	m.RecordCompile("ok")
	m.RecordCompile("error")

	body := scrape(t, m)
	if !strings.Contains(body, `toycc_compiles_total{result="ok"} 2`) {
		t.Fatalf("expected ok=2 in scrape, got:\n%s", body)
	}
	if !strings.Contains(body, `toycc_compiles_total{result="error"} 1`) {
		t.Fatalf("expected error=1 in scrape, got:\n%s", body)
	}
}

func TestAddFunctionsCompiled_Accumulates(t *testing.T) {
	m := New()
	m.AddFunctionsCompiled(3)
	m.AddFunctionsCompiled(2)

	body := scrape(t, m)
	if !strings.Contains(body, "toycc_functions_compiled_total 5") {
		t.Fatalf("expected functions_compiled_total=5 in scrape, got:\n%s", body)
	}
}

func TestObserveStageDuration_LabelsByStage(t *testing.T) {
	m := New()
	m.ObserveStageDuration("lex", 0.001)
	m.ObserveStageDuration("emit", 0.01)

	body := scrape(t, m)
	if !strings.Contains(body, `stage="lex"`) || !strings.Contains(body, `stage="emit"`) {
		t.Fatalf("expected both stage labels in scrape, got:\n%s", body)
	}
}

func scrape(t *testing.T, m *Metrics) string {
	t.Helper()
	req := httptest.NewRequest("GET", "/metrics", nil)
	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, req)
	if rec.Code != 200 {
		t.Fatalf("expected 200 from metrics handler, got %d", rec.Code)
	}
	return rec.Body.String()
}
