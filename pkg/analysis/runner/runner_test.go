package runner

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"datascope-hq/datascope/pkg/analysis"
	"datascope-hq/datascope/pkg/anomaly"
	"datascope-hq/datascope/pkg/dataset"
	"datascope-hq/datascope/pkg/policy"
)

func newTestRunner(t *testing.T) *Runner {
	t.Helper()
	r, err := New(policy.NewBuiltinRegistry(), nil)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return r
}

func ingested(t *testing.T, csv string) *dataset.Session {
	t.Helper()
	s, err := dataset.OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory() error = %v", err)
	}
	t.Cleanup(func() { s.Close() })
	if _, err := dataset.IngestCSV(context.Background(), s, strings.NewReader(csv)); err != nil {
		t.Fatalf("IngestCSV() error = %v", err)
	}
	return s
}

// concentratedOrdersCSV builds 60 orders totalling 10360 where one customer
// contributes 8000 (share 0.772).
func concentratedOrdersCSV() string {
	var b strings.Builder
	b.WriteString("order_id,customer_id,product,amount\n")
	for i := 0; i < 59; i++ {
		fmt.Fprintf(&b, "o%02d,c%02d,widget,40\n", i, i%20)
	}
	b.WriteString("o59,c99,gadget,8000\n")
	return b.String()
}

func TestRun_OrdersConcentrationCritical(t *testing.T) {
	session := ingested(t, concentratedOrdersCSV())
	r := newTestRunner(t)

	result, err := r.Run(context.Background(), session, Options{Policy: "orders_v1"})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if len(result.AnomaliesNormalized) != 1 {
		t.Fatalf("anomalies = %+v, want exactly one", result.AnomaliesNormalized)
	}
	a := result.AnomaliesNormalized[0]
	if a.Metric != "top_customer_revenue_share" || a.Severity != anomaly.SeverityCritical {
		t.Errorf("anomaly = %s/%s, want top_customer_revenue_share/critical", a.Metric, a.Severity)
	}
	if a.Unit != "share" || a.Policy != "orders_v1" {
		t.Errorf("anomaly unit/policy = %s/%s, want share/orders_v1", a.Unit, a.Policy)
	}

	if len(result.Metrics) == 0 {
		t.Fatal("metrics empty, want overall.row_count first")
	}
	if result.Metrics[0].Section != "overall" || result.Metrics[0].Key != "row_count" {
		t.Errorf("first metric = %+v, want overall.row_count", result.Metrics[0])
	}
	if result.Metrics[0].Value != "60" {
		t.Errorf("row_count = %q, want 60", result.Metrics[0].Value)
	}

	if len(result.Log.Queries) == 0 {
		t.Error("run context has no recorded queries")
	}
	if !result.Log.Frozen() {
		t.Error("run context not frozen after run")
	}

	wantStages := []analysis.State{
		analysis.StateResolved, analysis.StateRolesValidated,
		analysis.StateQueryExecuted, analysis.StateMetricsCollected,
		analysis.StateRulesEvaluated, analysis.StateInterpreted,
		analysis.StateNormalized, analysis.StateValidated, analysis.StateSucceeded,
	}
	if len(result.Log.Stages) != len(wantStages) {
		t.Fatalf("stages = %d, want %d", len(result.Log.Stages), len(wantStages))
	}
	for i, want := range wantStages {
		if result.Log.Stages[i].State != want {
			t.Errorf("stage[%d] = %q, want %q", i, result.Log.Stages[i].State, want)
		}
	}
}

func TestRun_Deterministic(t *testing.T) {
	r := newTestRunner(t)

	stripIdentity := func(res *analysis.Result) ([]byte, error) {
		res.RunID = ""
		res.Log = nil
		return json.Marshal(res)
	}

	first, err := r.Run(context.Background(), ingested(t, concentratedOrdersCSV()),
		Options{Policy: "orders_v1"})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	second, err := r.Run(context.Background(), ingested(t, concentratedOrdersCSV()),
		Options{Policy: "orders_v1"})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	a, err := stripIdentity(first)
	if err != nil {
		t.Fatalf("marshal error = %v", err)
	}
	b, err := stripIdentity(second)
	if err != nil {
		t.Fatalf("marshal error = %v", err)
	}
	if string(a) != string(b) {
		t.Error("identical datasets produced different results outside run identity")
	}
}

func TestRun_BaselineNeverEmitsAnomalies(t *testing.T) {
	csv := "year,region,cost\n" +
		"2024,West,10\n2024,East,12\n2025,West,14\n2025,East,9\n2026,West,20\n"
	session := ingested(t, csv)
	r := newTestRunner(t)

	result, err := r.Run(context.Background(), session, Options{})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if result.Policy != "generic_tabular" {
		t.Fatalf("policy = %q, want generic_tabular via auto-selection", result.Policy)
	}
	if result.Log.Selection == nil || result.Log.Selection.Selected != "generic_tabular" {
		t.Errorf("selection log = %+v, want generic_tabular", result.Log.Selection)
	}

	if result.AnomaliesNormalized == nil {
		t.Fatal("anomalies slice is nil, want empty non-nil")
	}
	if len(result.AnomaliesNormalized) != 0 {
		t.Errorf("anomalies = %+v, want none from baseline", result.AnomaliesNormalized)
	}
	payload, err := json.Marshal(result.AnomaliesNormalized)
	if err != nil {
		t.Fatalf("marshal error = %v", err)
	}
	if string(payload) != "[]" {
		t.Errorf("anomalies JSON = %s, want []", payload)
	}

	var timeSummary bool
	for _, m := range result.Metrics {
		if m.Section == "time_summary" {
			timeSummary = true
		}
	}
	if !timeSummary {
		t.Error("metrics missing time_summary section from grouped emission")
	}
}

func TestRun_CoverageGuardSuppresses(t *testing.T) {
	csv := "order_id,customer_id,product,amount\n" +
		"o1,c1,w,8000\no2,c2,w,40\no3,c3,w,40\no4,c4,w,40\n"
	session := ingested(t, csv)
	r := newTestRunner(t)

	result, err := r.Run(context.Background(), session, Options{Policy: "orders_v1"})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if len(result.AnomaliesNormalized) != 0 {
		t.Errorf("anomalies = %+v, want guard suppression on 4 orders", result.AnomaliesNormalized)
	}

	var guarded bool
	for _, w := range result.Log.Warnings {
		if strings.Contains(w, "coverage guard") {
			guarded = true
		}
	}
	if !guarded {
		t.Errorf("warnings = %v, want coverage-guard entry", result.Log.Warnings)
	}
	for _, c := range result.Interpretation.Caveats {
		if strings.Contains(c, "coverage guard") {
			return
		}
	}
	t.Errorf("caveats = %v, want coverage-guard surfaced", result.Interpretation.Caveats)
}

func TestRun_MissingRequiredRoleFails(t *testing.T) {
	csv := "customer_id,product\nc1,w\n"
	session := ingested(t, csv)
	r := newTestRunner(t)

	result, err := r.Run(context.Background(), session, Options{Policy: "orders_v1"})
	if result != nil {
		t.Fatalf("result = %+v, want nil on failure (all-or-nothing)", result)
	}
	var missing *policy.MissingRoleError
	if !errors.As(err, &missing) {
		t.Fatalf("error = %v, want MissingRoleError", err)
	}
	if missing.Role != "amount" {
		t.Errorf("missing role = %q, want amount", missing.Role)
	}
}

func TestRun_DeadlineExceededFailsTagged(t *testing.T) {
	session := ingested(t, concentratedOrdersCSV())
	r := newTestRunner(t)

	// A deadline this short expires before the first store access, so the
	// failure comes from a stage outside query execution.
	result, err := r.Run(context.Background(), session, Options{
		Policy:  "orders_v1",
		Timeout: time.Nanosecond,
	})
	if result != nil {
		t.Fatalf("result = %+v, want nil on failure (all-or-nothing)", result)
	}
	var timedOut *TimeoutError
	if !errors.As(err, &timedOut) {
		t.Fatalf("error = %v (%T), want TimeoutError", err, err)
	}
	if timedOut.Timeout != time.Nanosecond {
		t.Errorf("timeout = %s, want 1ns", timedOut.Timeout)
	}
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("error = %v, want to unwrap to context.DeadlineExceeded", err)
	}
}

func TestExecute_QueryErrorTagged(t *testing.T) {
	session := ingested(t, "a,b\n1,2\n")
	r := newTestRunner(t)

	schema, err := session.Schema(context.Background())
	if err != nil {
		t.Fatalf("Schema() error = %v", err)
	}
	rc := &analysis.RunContext{RunID: "run-broken"}
	plan := policy.Plan{Queries: []policy.QuerySpec{
		{Section: "broken", SQL: "SELECT value FROM no_such_table;"},
	}}

	metrics, err := r.execute(context.Background(), session, schema, plan, rc, 0)
	if metrics != nil {
		t.Fatalf("metrics = %+v, want nil on query failure", metrics)
	}
	var queryErr *QueryError
	if !errors.As(err, &queryErr) {
		t.Fatalf("error = %v (%T), want QueryError", err, err)
	}
	if queryErr.Section != "broken" {
		t.Errorf("section = %q, want broken", queryErr.Section)
	}
	if queryErr.Query != "SELECT value FROM no_such_table;" {
		t.Errorf("query = %q, want the failing text verbatim", queryErr.Query)
	}
}

func TestRun_UnknownPolicyFails(t *testing.T) {
	session := ingested(t, "a,b\n1,2\n")
	r := newTestRunner(t)

	_, err := r.Run(context.Background(), session, Options{Policy: "orders_v9"})
	var notFound *policy.NotFoundError
	if !errors.As(err, &notFound) {
		t.Fatalf("error = %v, want NotFoundError", err)
	}
}

// multiAnomalySalesCSV yields a critical profit margin (3%) and a warning
// revenue concentration (35%).
func multiAnomalySalesCSV() string {
	return "sub_category,sales,profit\n" +
		"A,7000,100\nB,2600,100\nC,2600,100\nD,2600,100\nE,2600,100\nF,2600,100\n"
}

func TestRun_AnomalyOrderContract(t *testing.T) {
	session := ingested(t, multiAnomalySalesCSV())
	r := newTestRunner(t)

	result, err := r.Run(context.Background(), session, Options{Policy: "sales_v1"})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	got := result.AnomaliesNormalized
	if len(got) < 2 {
		t.Fatalf("anomalies = %+v, want at least two", got)
	}

	for i := 1; i < len(got); i++ {
		prev, cur := got[i-1], got[i]
		if prev.Severity.Rank() < cur.Severity.Rank() {
			t.Errorf("anomaly %d outranks %d: severity order violated", i, i-1)
		}
		if prev.Severity.Rank() == cur.Severity.Rank() && prev.Metric > cur.Metric {
			t.Errorf("metric tie-break violated at %d: %q > %q", i, prev.Metric, cur.Metric)
		}
	}
	if got[0].Metric != "profit_margin" || got[0].Severity != anomaly.SeverityCritical {
		t.Errorf("first anomaly = %s/%s, want profit_margin/critical", got[0].Metric, got[0].Severity)
	}
}

func TestRun_RunIDOverride(t *testing.T) {
	session := ingested(t, "a,b\n1,2\n")
	r := newTestRunner(t)

	result, err := r.Run(context.Background(), session, Options{RunID: "run-123"})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if result.RunID != "run-123" || result.Log.RunID != "run-123" {
		t.Errorf("run id = %q/%q, want run-123", result.RunID, result.Log.RunID)
	}
}
