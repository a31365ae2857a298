package policy

import (
	"errors"
	"math"
	"strings"
	"testing"

	"datascope-hq/datascope/pkg/analysis"
	"datascope-hq/datascope/pkg/anomaly"
)

func TestSalesPolicy_ResolveRoles(t *testing.T) {
	p := NewSalesPolicy()
	schema := ordersSchema("Sub_Category", "Sales", "Order_Date", "Region", "Quantity", "Profit")

	got := p.ResolveRoles(schema, nil)
	want := map[string]string{
		"product": "Sub_Category",
		"amount":  "Sales",
		"date":    "Order_Date",
		"region":  "Region",
		"units":   "Quantity",
		"profit":  "Profit",
	}
	for role, col := range want {
		if got[role] != col {
			t.Errorf("role %s = %q, want %q", role, got[role], col)
		}
	}
}

func TestSalesPolicy_CheckRolesMissing(t *testing.T) {
	p := NewSalesPolicy()
	schema := ordersSchema("region", "date")

	err := p.CheckRoles(schema, nil)
	var missing *MissingRoleError
	if !errors.As(err, &missing) {
		t.Fatalf("CheckRoles() error = %v, want MissingRoleError", err)
	}
	if missing.Role != "product" {
		t.Errorf("missing role = %q, want product (first required)", missing.Role)
	}
}

func TestSalesPolicy_GenerateQueryOptionalSections(t *testing.T) {
	p := NewSalesPolicy()
	full := ordersSchema("sub_category", "sales", "order_date", "region", "quantity", "profit")

	plan, err := p.GenerateQuery(full, nil)
	if err != nil {
		t.Fatalf("GenerateQuery() error = %v", err)
	}
	sections := make(map[string]bool)
	for _, q := range plan.Queries {
		sections[q.Section] = true
	}
	for _, want := range []string{
		"sales.total_sales", "sales.total_profit", "sales.total_units",
		"sales.avg_unit_revenue", "sales.top_products_by_sales_top10",
		"sales.top_products_by_units_top10", "sales.sales_by_month",
		"sales.top_products_by_sales_by_month_top5", "sales.sales_by_region",
	} {
		if !sections[want] {
			t.Errorf("plan missing section %q", want)
		}
	}

	minimal := ordersSchema("sub_category", "sales")
	plan, err = p.GenerateQuery(minimal, nil)
	if err != nil {
		t.Fatalf("GenerateQuery(minimal) error = %v", err)
	}
	if len(plan.Queries) != 2 {
		t.Errorf("minimal plan queries = %d, want 2 (totals + top products)", len(plan.Queries))
	}
	if len(plan.Warnings) < 2 {
		t.Errorf("minimal plan warnings = %v, want profit and date notes", plan.Warnings)
	}
}

func salesMetricRows() []analysis.MetricRow {
	return []analysis.MetricRow{
		{Section: "overall", Key: "row_count", Value: "120"},
		{Section: "sales.total_sales", Key: "row0:value", Value: "20000"},
		{Section: "sales.total_profit", Key: "row0:value", Value: "600"},
		{Section: "sales.total_units", Key: "row0:value", Value: "1000"},
		{Section: "sales.avg_unit_revenue", Key: "row0:value", Value: "20"},
		{Section: "sales.top_products_by_sales_top10", Key: "row0:product", Value: "Chairs"},
		{Section: "sales.top_products_by_sales_top10", Key: "row0:sales", Value: "7000"},
		{Section: "sales.top_products_by_units_top10", Key: "row0:product", Value: "Binders"},
		{Section: "sales.top_products_by_units_top10", Key: "row0:units", Value: "400"},
	}
}

func TestSalesPolicy_EvaluateRules(t *testing.T) {
	p := NewSalesPolicy()
	rc := &analysis.RunContext{}

	got := p.EvaluateRules(salesMetricRows(), rc)

	byMetric := make(map[string]anomaly.Candidate)
	for _, c := range got {
		byMetric[c.Metric] = c
	}

	conc, ok := byMetric["revenue_concentration_share"]
	if !ok {
		t.Fatalf("candidates = %+v, want revenue_concentration_share", got)
	}
	if conc.Severity != anomaly.SeverityWarning || math.Abs(conc.Value-0.35) > 1e-9 {
		t.Errorf("concentration = %s/%v, want warning/0.35", conc.Severity, conc.Value)
	}

	margin, ok := byMetric["profit_margin"]
	if !ok {
		t.Fatalf("candidates = %+v, want profit_margin", got)
	}
	if margin.Severity != anomaly.SeverityCritical || margin.Direction != anomaly.DirectionLow {
		t.Errorf("margin = %s/%s, want critical/low for 3%% margin", margin.Severity, margin.Direction)
	}

	if _, ok := byMetric["unit_concentration_share"]; ok {
		t.Error("unit concentration 0.4 flagged, want below 0.70 warning threshold")
	}
	if _, ok := byMetric["avg_unit_revenue"]; ok {
		t.Error("avg unit revenue 20 flagged, want inside bounds")
	}
}

func TestSalesPolicy_EvaluateRules_TrendDecline(t *testing.T) {
	p := NewSalesPolicy()
	rows := append(salesMetricRows(),
		analysis.MetricRow{Section: "sales.sales_by_month", Key: "row0:month", Value: "2026-05"},
		analysis.MetricRow{Section: "sales.sales_by_month", Key: "row0:sales", Value: "1000"},
		analysis.MetricRow{Section: "sales.sales_by_month", Key: "row1:month", Value: "2026-06"},
		analysis.MetricRow{Section: "sales.sales_by_month", Key: "row1:sales", Value: "850"},
	)

	got := p.EvaluateRules(rows, &analysis.RunContext{})
	var trend *anomaly.Candidate
	for i := range got {
		if got[i].Metric == "sales_trend_change" {
			trend = &got[i]
		}
	}
	if trend == nil {
		t.Fatalf("candidates = %+v, want sales_trend_change", got)
	}
	if trend.Severity != anomaly.SeverityWarning || trend.Direction != anomaly.DirectionLow {
		t.Errorf("trend = %s/%s, want warning/low for -15%%", trend.Severity, trend.Direction)
	}
	if math.Abs(trend.Value-(-0.15)) > 1e-9 {
		t.Errorf("value = %v, want -0.15", trend.Value)
	}
}

func TestSalesPolicy_EvaluateRules_GuardSuppresses(t *testing.T) {
	p := NewSalesPolicy()
	rows := salesMetricRows()
	rows[0].Value = "3" // overall.row_count below the guard

	rc := &analysis.RunContext{}
	got := p.EvaluateRules(rows, rc)
	if len(got) != 0 {
		t.Fatalf("candidates = %+v, want all suppressed", got)
	}
	if len(rc.Warnings) == 0 {
		t.Fatal("warnings empty, want coverage-guard entries")
	}
	for _, w := range rc.Warnings {
		if !strings.Contains(w, "sales_v1") {
			t.Errorf("warning = %q, want policy name", w)
		}
	}
}
