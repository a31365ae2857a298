package interpret

import (
	"fmt"

	"datascope-hq/datascope/pkg/analysis"
	"datascope-hq/datascope/pkg/anomaly"
)

// OrdersInterpreter narrates orders_v1 metrics: totals, order economics,
// concentration, and the monthly revenue trend when present.
type OrdersInterpreter struct{}

func (i *OrdersInterpreter) PolicyName() string { return "orders_v1" }

func (i *OrdersInterpreter) Interpret(rows []analysis.MetricRow, rc *analysis.RunContext) analysis.Interpretation {
	sections := analysis.ParseSections(rows)
	out := analysis.Interpretation{
		Findings: []analysis.Finding{},
		Caveats:  caveatsFrom(rc),
	}
	add := func(title, text string, evidence ...string) {
		out.Findings = append(out.Findings, analysis.Finding{
			Severity:     anomaly.SeverityInfo,
			Title:        title,
			Text:         text,
			EvidenceKeys: evidence,
		})
	}

	if v, ok := sections.Number("orders.total_orders", "value"); ok {
		add("Total orders", fmt.Sprintf("Total orders: %d.", int64(v)),
			"orders.total_orders.value")
	}
	totalRevenue, hasRevenue := sections.Number("orders.total_revenue", "value")
	if hasRevenue {
		add("Total revenue", fmt.Sprintf("Total revenue: %.2f.", totalRevenue),
			"orders.total_revenue.value")
	}
	if v, ok := sections.Number("orders.avg_order_value", "value"); ok {
		add("Average order value", fmt.Sprintf("Average order value: %.2f.", v),
			"orders.avg_order_value.value")
	}

	if top := sections.FirstRow("orders.top_customers_by_revenue_top10"); top != nil {
		customer := top["customer"]
		revenue, okRev := analysis.ToNumber(top["revenue"])
		switch {
		case customer != "" && okRev && hasRevenue && totalRevenue > 0:
			add("Top customer concentration",
				fmt.Sprintf("Top customer %s accounts for %.1f%% of revenue.", customer, 100*revenue/totalRevenue),
				"orders.top_customers_by_revenue_top10.revenue",
				"orders.total_revenue.value")
		case customer != "":
			add("Top customer", fmt.Sprintf("Top customer: %s.", customer),
				"orders.top_customers_by_revenue_top10.customer")
		}
	}

	if top := sections.FirstRow("orders.top_products_by_revenue_top10"); top != nil {
		product := top["product"]
		revenue, okRev := analysis.ToNumber(top["revenue"])
		switch {
		case product != "" && okRev && hasRevenue && totalRevenue > 0:
			add("Top product concentration",
				fmt.Sprintf("Top product %s is %.1f%% of revenue.", product, 100*revenue/totalRevenue),
				"orders.top_products_by_revenue_top10.revenue",
				"orders.total_revenue.value")
		case product != "":
			add("Top product", fmt.Sprintf("Top product: %s.", product),
				"orders.top_products_by_revenue_top10.product")
		}
	}

	if change, ok := firstToLastChange(sections["orders.revenue_by_month"], "revenue"); ok {
		add("Revenue trend",
			fmt.Sprintf("Revenue change from first to last month: %.1f%%.", 100*change),
			"orders.revenue_by_month.revenue")
	}

	return out
}

// firstToLastChange computes the fractional change between the first and
// last rows of a monthly series. False with fewer than two rows or a zero
// baseline.
func firstToLastChange(monthRows []map[string]string, column string) (float64, bool) {
	if len(monthRows) < 2 {
		return 0, false
	}
	first, okFirst := analysis.ToNumber(monthRows[0][column])
	last, okLast := analysis.ToNumber(monthRows[len(monthRows)-1][column])
	if !okFirst || !okLast || first == 0 {
		return 0, false
	}
	return (last - first) / first, true
}
