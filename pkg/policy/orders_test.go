package policy

import (
	"errors"
	"math"
	"strings"
	"testing"

	"datascope-hq/datascope/pkg/analysis"
	"datascope-hq/datascope/pkg/anomaly"
	"datascope-hq/datascope/pkg/dataset"
)

func ordersSchema(columns ...string) dataset.Schema {
	return dataset.Schema{Table: dataset.TableName, Columns: columns}
}

func TestOrdersPolicy_ResolveRoles(t *testing.T) {
	p := NewOrdersPolicy()
	schema := ordersSchema("order_id", "Customer_ID", "product", "amount", "order_date")

	got := p.ResolveRoles(schema, nil)
	if got["customer"] != "Customer_ID" {
		t.Errorf("customer = %q, want Customer_ID (schema spelling)", got["customer"])
	}
	if got["amount"] != "amount" || got["product"] != "product" {
		t.Errorf("resolved = %v, want amount and product", got)
	}
	if got["date"] != "order_date" || got["order_id"] != "order_id" {
		t.Errorf("optional roles = %v, want order_date and order_id", got)
	}
}

func TestOrdersPolicy_HintsWinOverSynonyms(t *testing.T) {
	p := NewOrdersPolicy()
	schema := ordersSchema("buyer", "customer_id", "product", "amount")

	got := p.ResolveRoles(schema, dataset.Roles{"customer": {"buyer"}})
	if got["customer"] != "buyer" {
		t.Errorf("customer = %q, want hint column buyer", got["customer"])
	}
}

func TestOrdersPolicy_CheckRolesMissing(t *testing.T) {
	p := NewOrdersPolicy()
	schema := ordersSchema("customer_id", "product")

	err := p.CheckRoles(schema, nil)
	var missing *MissingRoleError
	if !errors.As(err, &missing) {
		t.Fatalf("CheckRoles() error = %v, want MissingRoleError", err)
	}
	if missing.Role != "amount" || missing.Policy != "orders_v1" {
		t.Errorf("missing = %+v, want role amount on orders_v1", missing)
	}
}

func TestOrdersPolicy_GenerateQueryDeterministic(t *testing.T) {
	p := NewOrdersPolicy()
	schema := ordersSchema("order_id", "customer_id", "product", "amount", "order_date")

	first, err := p.GenerateQuery(schema, nil)
	if err != nil {
		t.Fatalf("GenerateQuery() error = %v", err)
	}
	second, err := p.GenerateQuery(schema, nil)
	if err != nil {
		t.Fatalf("GenerateQuery() error = %v", err)
	}
	if first.QueryText() != second.QueryText() {
		t.Error("query text differs between identical generations")
	}

	sections := make(map[string]bool)
	for _, q := range first.Queries {
		sections[q.Section] = true
	}
	for _, want := range []string{
		"orders.total_orders", "orders.total_revenue", "orders.avg_order_value",
		"orders.top_customers_by_revenue_top10", "orders.top_products_by_revenue_top10",
		"orders.revenue_by_month", "orders.orders_by_month",
	} {
		if !sections[want] {
			t.Errorf("plan missing section %q", want)
		}
	}
	if !strings.Contains(first.Queries[0].SQL, "COUNT(DISTINCT") {
		t.Errorf("total orders SQL = %q, want distinct order ids", first.Queries[0].SQL)
	}
}

func TestOrdersPolicy_GenerateQueryWithoutDate(t *testing.T) {
	p := NewOrdersPolicy()
	schema := ordersSchema("customer_id", "product", "amount")

	plan, err := p.GenerateQuery(schema, nil)
	if err != nil {
		t.Fatalf("GenerateQuery() error = %v", err)
	}
	for _, q := range plan.Queries {
		if strings.Contains(q.Section, "by_month") {
			t.Errorf("plan contains monthly section %q without a date role", q.Section)
		}
	}
	if len(plan.Warnings) == 0 {
		t.Error("plan warnings empty, want skipped-trend note")
	}
}

func ordersMetricRows(totalOrders, totalRevenue, aov, topRevenue string) []analysis.MetricRow {
	return []analysis.MetricRow{
		{Section: "orders.total_orders", Key: "row0:value", Value: totalOrders},
		{Section: "orders.total_revenue", Key: "row0:value", Value: totalRevenue},
		{Section: "orders.avg_order_value", Key: "row0:value", Value: aov},
		{Section: "orders.top_customers_by_revenue_top10", Key: "row0:customer", Value: "c9"},
		{Section: "orders.top_customers_by_revenue_top10", Key: "row0:revenue", Value: topRevenue},
	}
}

func TestOrdersPolicy_EvaluateRules_ConcentrationCritical(t *testing.T) {
	p := NewOrdersPolicy()
	rc := &analysis.RunContext{}

	got := p.EvaluateRules(ordersMetricRows("60", "10000", "166.67", "8000"), rc)
	if len(got) != 1 {
		t.Fatalf("candidates = %+v, want exactly one", got)
	}
	c := got[0]
	if c.Metric != "top_customer_revenue_share" {
		t.Errorf("metric = %q, want top_customer_revenue_share", c.Metric)
	}
	if c.Severity != anomaly.SeverityCritical || c.Direction != anomaly.DirectionHigh {
		t.Errorf("got %s/%s, want critical/high", c.Severity, c.Direction)
	}
	if math.Abs(c.Value-0.8) > 1e-9 {
		t.Errorf("value = %v, want 0.8", c.Value)
	}
}

func TestOrdersPolicy_EvaluateRules_GuardSuppresses(t *testing.T) {
	p := NewOrdersPolicy()
	rc := &analysis.RunContext{}

	got := p.EvaluateRules(ordersMetricRows("4", "10000", "2500", "8000"), rc)
	if len(got) != 0 {
		t.Fatalf("candidates = %+v, want suppression below %d orders", got, ordersMinSamples)
	}
	if len(rc.Warnings) == 0 {
		t.Fatal("warnings empty, want coverage-guard entries")
	}
	for _, w := range rc.Warnings {
		if !strings.Contains(w, "coverage guard") {
			t.Errorf("warning = %q, want coverage-guard prefix", w)
		}
	}
}

func TestOrdersPolicy_EvaluateRules_MonthlyDrop(t *testing.T) {
	p := NewOrdersPolicy()
	rows := append(ordersMetricRows("60", "10000", "166.67", "100"),
		analysis.MetricRow{Section: "orders.orders_by_month", Key: "row0:month", Value: "2026-01"},
		analysis.MetricRow{Section: "orders.orders_by_month", Key: "row0:orders", Value: "40"},
		analysis.MetricRow{Section: "orders.orders_by_month", Key: "row1:month", Value: "2026-02"},
		analysis.MetricRow{Section: "orders.orders_by_month", Key: "row1:orders", Value: "16"},
	)

	got := p.EvaluateRules(rows, &analysis.RunContext{})
	var drop *anomaly.Candidate
	for i := range got {
		if got[i].Metric == "orders_drop_pct" {
			drop = &got[i]
		}
	}
	if drop == nil {
		t.Fatalf("candidates = %+v, want orders_drop_pct", got)
	}
	if drop.Severity != anomaly.SeverityCritical {
		t.Errorf("severity = %q, want critical for 60%% drop", drop.Severity)
	}
	if math.Abs(drop.Value-0.6) > 1e-9 {
		t.Errorf("value = %v, want 0.6", drop.Value)
	}
}
