package policy

import (
	"fmt"

	"datascope-hq/datascope/pkg/analysis"
	"datascope-hq/datascope/pkg/anomaly"
	"datascope-hq/datascope/pkg/dataset"
)

// ordersMinSamples is the coverage guard for every orders_v1 rule: with
// fewer orders than this, concentration and trend metrics are too noisy to
// flag.
const ordersMinSamples = 10

var ordersSynonyms = map[string][]string{
	"date":     {"order_date", "date", "created_at", "timestamp", "ts", "datetime"},
	"order_id": {"order_id", "id", "order_number", "order_no"},
	"customer": {"customer_id", "customer", "user_id", "buyer_id", "client_id"},
	"product":  {"product_id", "product", "sku", "item_id", "item", "product_sku"},
	"amount":   {"amount", "total", "revenue", "price", "order_total", "sales"},
}

var ordersRoleOrder = []string{"customer", "product", "amount", "date", "order_id"}

// OrdersPolicy (orders_v1) analyzes transactional order data: totals, average
// order value, customer and product revenue concentration, and monthly trends
// when a date column resolves.
type OrdersPolicy struct {
	rules []ThresholdRule
}

// NewOrdersPolicy returns the orders_v1 policy.
func NewOrdersPolicy() *OrdersPolicy {
	return &OrdersPolicy{
		rules: []ThresholdRule{
			{
				Metric: "top_customer_revenue_share",
				EvidenceKeys: []string{
					"orders.top_customers_by_revenue_top10.revenue",
					"orders.total_revenue.value",
				},
				MinSamples: ordersMinSamples,
				Clauses: []RuleClause{
					{Comparator: ComparatorGTE, Threshold: 0.40, Severity: anomaly.SeverityCritical, Direction: anomaly.DirectionHigh},
					{Comparator: ComparatorGTE, Threshold: 0.25, Severity: anomaly.SeverityWarning, Direction: anomaly.DirectionHigh},
				},
			},
			{
				Metric:       "avg_order_value",
				EvidenceKeys: []string{"orders.avg_order_value.value"},
				MinSamples:   ordersMinSamples,
				Clauses: []RuleClause{
					{Comparator: ComparatorGTE, Threshold: 1000, Severity: anomaly.SeverityCritical, Direction: anomaly.DirectionHigh},
					{Comparator: ComparatorGTE, Threshold: 500, Severity: anomaly.SeverityWarning, Direction: anomaly.DirectionHigh},
					{Comparator: ComparatorLTE, Threshold: 10, Severity: anomaly.SeverityCritical, Direction: anomaly.DirectionLow},
					{Comparator: ComparatorLTE, Threshold: 20, Severity: anomaly.SeverityWarning, Direction: anomaly.DirectionLow},
				},
			},
			{
				Metric:       "orders_drop_pct",
				EvidenceKeys: []string{"orders.orders_by_month.orders"},
				MinSamples:   ordersMinSamples,
				Clauses: []RuleClause{
					{Comparator: ComparatorGTE, Threshold: 0.50, Severity: anomaly.SeverityCritical, Direction: anomaly.DirectionHigh},
					{Comparator: ComparatorGTE, Threshold: 0.30, Severity: anomaly.SeverityWarning, Direction: anomaly.DirectionHigh},
				},
			},
		},
	}
}

func (p *OrdersPolicy) Name() string    { return "orders_v1" }
func (p *OrdersPolicy) Version() string { return "1.0.0" }

func (p *OrdersPolicy) Description() string {
	return "Analyzes transactional order data: totals, average order value, customer/product revenue concentration, and monthly trends."
}

func (p *OrdersPolicy) RequiredRoles() []string { return []string{"customer", "product", "amount"} }
func (p *OrdersPolicy) OptionalRoles() []string { return []string{"date", "order_id"} }

func (p *OrdersPolicy) ResolveRoles(schema dataset.Schema, hints dataset.Roles) map[string]string {
	return resolveRoles(schema, hints, ordersSynonyms, ordersRoleOrder)
}

func (p *OrdersPolicy) CheckRoles(schema dataset.Schema, hints dataset.Roles) error {
	return checkRequired(p.Name(), p.RequiredRoles(), p.ResolveRoles(schema, hints), schema)
}

func (p *OrdersPolicy) GenerateQuery(schema dataset.Schema, hints dataset.Roles) (Plan, error) {
	resolved := p.ResolveRoles(schema, hints)
	if err := checkRequired(p.Name(), p.RequiredRoles(), resolved, schema); err != nil {
		return Plan{}, err
	}

	table := dataset.QuoteIdent(schema.Table)
	customer := dataset.QuoteIdent(resolved["customer"])
	product := dataset.QuoteIdent(resolved["product"])
	amount := dataset.QuoteIdent(resolved["amount"])

	// Distinct order ids when available, plain row count otherwise.
	totalOrders := "COUNT(*)"
	if col, ok := resolved["order_id"]; ok {
		totalOrders = fmt.Sprintf("COUNT(DISTINCT %s)", dataset.QuoteIdent(col))
	}
	totalRevenue := fmt.Sprintf("COALESCE(SUM(CAST(%s AS REAL)), 0.0)", amount)
	avgOrderValue := fmt.Sprintf("CASE WHEN %s = 0 THEN 0.0 ELSE (%s * 1.0) / (%s * 1.0) END",
		totalOrders, totalRevenue, totalOrders)

	var plan Plan
	plan.Queries = append(plan.Queries,
		QuerySpec{
			Section: "orders.total_orders",
			SQL:     fmt.Sprintf("SELECT %s AS value FROM %s;", totalOrders, table),
		},
		QuerySpec{
			Section: "orders.total_revenue",
			SQL:     fmt.Sprintf("SELECT %s AS value FROM %s;", totalRevenue, table),
		},
		QuerySpec{
			Section: "orders.avg_order_value",
			SQL:     fmt.Sprintf("SELECT %s AS value FROM %s;", avgOrderValue, table),
		},
		QuerySpec{
			Section: "orders.top_customers_by_revenue_top10",
			SQL: fmt.Sprintf("SELECT %s AS customer, %s AS revenue FROM %s GROUP BY %s ORDER BY revenue DESC LIMIT 10;",
				customer, totalRevenue, table, customer),
		},
		QuerySpec{
			Section: "orders.top_products_by_revenue_top10",
			SQL: fmt.Sprintf("SELECT %s AS product, %s AS revenue FROM %s GROUP BY %s ORDER BY revenue DESC LIMIT 10;",
				product, totalRevenue, table, product),
		},
	)

	dateCol, hasDate := resolved["date"]
	if !hasDate {
		plan.Warnings = append(plan.Warnings,
			"orders_v1: no date column resolved; monthly trend metrics skipped")
		return plan, nil
	}

	month := fmt.Sprintf("strftime('%%Y-%%m', %s)", dataset.QuoteIdent(dateCol))
	plan.Queries = append(plan.Queries,
		QuerySpec{
			Section: "orders.revenue_by_month",
			SQL: fmt.Sprintf("SELECT %s AS month, %s AS revenue FROM %s GROUP BY month ORDER BY month;",
				month, totalRevenue, table),
		},
		QuerySpec{
			Section: "orders.orders_by_month",
			SQL: fmt.Sprintf("SELECT %s AS month, %s AS orders FROM %s GROUP BY month ORDER BY month;",
				month, totalOrders, table),
		},
		QuerySpec{
			Section: "orders.top_customers_by_revenue_by_month_top5",
			SQL:     topPerMonthSQL(month, customer, "customer", totalRevenue, "revenue", table),
		},
		QuerySpec{
			Section: "orders.top_products_by_revenue_by_month_top5",
			SQL:     topPerMonthSQL(month, product, "product", totalRevenue, "revenue", table),
		},
	)
	return plan, nil
}

// topPerMonthSQL builds the windowed top-5-per-month query shared by the
// customer and product breakdowns.
func topPerMonthSQL(monthExpr, dimCol, dimAlias, measureExpr, measureAlias, table string) string {
	return fmt.Sprintf(
		"WITH agg AS (SELECT %s AS month, %s AS %s, %s AS %s FROM %s GROUP BY month, %s), "+
			"ranked AS (SELECT month, %s, %s, ROW_NUMBER() OVER (PARTITION BY month ORDER BY %s DESC) AS rn FROM agg) "+
			"SELECT month, %s, %s FROM ranked WHERE rn <= 5 ORDER BY month, %s DESC;",
		monthExpr, dimCol, dimAlias, measureExpr, measureAlias, table, dimAlias,
		dimAlias, measureAlias, measureAlias,
		dimAlias, measureAlias, measureAlias)
}

func (p *OrdersPolicy) MetricSpecs() []MetricSpec {
	return []MetricSpec{
		{Metric: "top_customer_revenue_share", Unit: "share"},
		{Metric: "avg_order_value", Unit: "currency"},
		{Metric: "orders_drop_pct", Unit: "pct_change"},
	}
}

func (p *OrdersPolicy) ThresholdRules() []ThresholdRule { return p.rules }

func (p *OrdersPolicy) EvaluateRules(rows []analysis.MetricRow, rc *analysis.RunContext) []anomaly.Candidate {
	sections := analysis.ParseSections(rows)

	totalOrders, _ := sections.Number("orders.total_orders", "value")
	totalRevenue, _ := sections.Number("orders.total_revenue", "value")

	var observations []Observation

	if topRevenue, ok := sections.Number("orders.top_customers_by_revenue_top10", "revenue"); ok && totalRevenue > 0 {
		observations = append(observations, Observation{
			Metric:     "top_customer_revenue_share",
			Value:      topRevenue / totalRevenue,
			SampleSize: totalOrders,
		})
	}

	if aov, ok := sections.Number("orders.avg_order_value", "value"); ok {
		observations = append(observations, Observation{
			Metric:     "avg_order_value",
			Value:      aov,
			SampleSize: totalOrders,
		})
	}

	if drop, ok := lastMonthDrop(sections["orders.orders_by_month"], "orders"); ok {
		observations = append(observations, Observation{
			Metric:     "orders_drop_pct",
			Value:      drop,
			SampleSize: totalOrders,
		})
	}

	return EvaluateThresholdRules(p.Name(), p.rules, observations, rc)
}

// lastMonthDrop computes the fractional decline from the second-to-last to
// the last monthly bucket. It reports false with fewer than two buckets or a
// non-positive baseline; an increase yields a negative drop, which no clause
// matches.
func lastMonthDrop(monthRows []map[string]string, column string) (float64, bool) {
	if len(monthRows) < 2 {
		return 0, false
	}
	prev, okPrev := analysis.ToNumber(monthRows[len(monthRows)-2][column])
	last, okLast := analysis.ToNumber(monthRows[len(monthRows)-1][column])
	if !okPrev || !okLast || prev <= 0 {
		return 0, false
	}
	return (prev - last) / prev, true
}
