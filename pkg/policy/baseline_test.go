package policy

import (
	"strings"
	"testing"

	"datascope-hq/datascope/pkg/analysis"
)

func TestGenericTabular_PlanWithTimeAndCategory(t *testing.T) {
	p := NewGenericTabularPolicy()
	schema := ordersSchema("order_date", "category", "region", "sales", "profit", "returned")

	plan, err := p.GenerateQuery(schema, nil)
	if err != nil {
		t.Fatalf("GenerateQuery() error = %v", err)
	}

	sections := make(map[string]QuerySpec)
	for _, q := range plan.Queries {
		sections[q.Section] = q
	}
	for _, want := range []string{"time", "time_x_category", "time_x_region", "anomaly_negative_profit"} {
		if _, ok := sections[want]; !ok {
			t.Errorf("plan missing section %q", want)
		}
	}

	timeSpec := sections["time"]
	if len(timeSpec.GroupLabels) != 1 || timeSpec.GroupLabels[0] != "year" {
		t.Errorf("time group labels = %v, want [year]", timeSpec.GroupLabels)
	}
	joined := strings.Join(timeSpec.MeasureNames, ",")
	for _, m := range []string{"n", "sum_sales", "sum_profit", "avg_sales", "rate_returned", "profit_margin"} {
		if !strings.Contains(joined, m) {
			t.Errorf("time measures = %v, missing %q", timeSpec.MeasureNames, m)
		}
	}

	topN := sections["time_x_category"]
	if !strings.Contains(topN.SQL, "ROW_NUMBER() OVER (PARTITION BY g0") {
		t.Errorf("time_x_category SQL = %q, want windowed top-N", topN.SQL)
	}
}

func TestGenericTabular_PlanWithoutTime(t *testing.T) {
	p := NewGenericTabularPolicy()
	schema := ordersSchema("segment", "amount")

	plan, err := p.GenerateQuery(schema, nil)
	if err != nil {
		t.Fatalf("GenerateQuery() error = %v", err)
	}
	if len(plan.Queries) != 1 || plan.Queries[0].Section != "categorical" {
		t.Fatalf("plan = %+v, want single categorical breakdown", plan.Queries)
	}
	if !strings.Contains(strings.Join(plan.Warnings, " "), "no time-like column") {
		t.Errorf("warnings = %v, want missing-time note", plan.Warnings)
	}
}

func TestGenericTabular_PlanOpaqueSchema(t *testing.T) {
	p := NewGenericTabularPolicy()
	schema := ordersSchema("colA", "colB")

	plan, err := p.GenerateQuery(schema, nil)
	if err != nil {
		t.Fatalf("GenerateQuery() error = %v", err)
	}
	if len(plan.Queries) != 0 {
		t.Errorf("plan queries = %+v, want none for opaque schema", plan.Queries)
	}
	if len(plan.Warnings) == 0 {
		t.Error("warnings empty, want role-inference notes")
	}
}

func TestGenericTabular_NeverEmitsAnomalies(t *testing.T) {
	p := NewGenericTabularPolicy()

	if err := p.CheckRoles(ordersSchema("anything"), nil); err != nil {
		t.Errorf("CheckRoles() error = %v, want nil (baseline always eligible)", err)
	}
	if rules := p.ThresholdRules(); len(rules) != 0 {
		t.Errorf("ThresholdRules() = %v, want empty", rules)
	}
	got := p.EvaluateRules([]analysis.MetricRow{
		{Section: "time_summary", Key: "year=2026:sum_sales", Value: "-10"},
	}, &analysis.RunContext{})
	if len(got) != 0 {
		t.Errorf("EvaluateRules() = %+v, want no candidates ever", got)
	}
}
