package interpret

import (
	"fmt"

	"datascope-hq/datascope/pkg/analysis"
	"datascope-hq/datascope/pkg/anomaly"
)

// SalesInterpreter narrates sales_v1 metrics: totals, margin, product and
// regional concentration, and the monthly sales trend.
type SalesInterpreter struct{}

func (i *SalesInterpreter) PolicyName() string { return "sales_v1" }

func (i *SalesInterpreter) Interpret(rows []analysis.MetricRow, rc *analysis.RunContext) analysis.Interpretation {
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

	totalSales, hasSales := sections.Number("sales.total_sales", "value")
	if hasSales {
		add("Total sales", fmt.Sprintf("Total sales: %.2f.", totalSales),
			"sales.total_sales.value")
	}

	if profit, ok := sections.Number("sales.total_profit", "value"); ok && hasSales && totalSales > 0 {
		add("Profit margin",
			fmt.Sprintf("Overall profit margin: %.1f%%.", 100*profit/totalSales),
			"sales.total_profit.value",
			"sales.total_sales.value")
	}

	if units, ok := sections.Number("sales.total_units", "value"); ok {
		add("Total units", fmt.Sprintf("Total units sold: %d.", int64(units)),
			"sales.total_units.value")
	}
	if aur, ok := sections.Number("sales.avg_unit_revenue", "value"); ok {
		add("Unit economics", fmt.Sprintf("Average revenue per unit: %.2f.", aur),
			"sales.avg_unit_revenue.value")
	}

	if top := sections.FirstRow("sales.top_products_by_sales_top10"); top != nil {
		product := top["product"]
		sales, okSales := analysis.ToNumber(top["sales"])
		switch {
		case product != "" && okSales && hasSales && totalSales > 0:
			add("Top product concentration",
				fmt.Sprintf("Top product %s is %.1f%% of sales.", product, 100*sales/totalSales),
				"sales.top_products_by_sales_top10.sales",
				"sales.total_sales.value")
		case product != "":
			add("Top product", fmt.Sprintf("Top product: %s.", product),
				"sales.top_products_by_sales_top10.product")
		}
	}

	if top := sections.FirstRow("sales.sales_by_region"); top != nil {
		if region := top["region"]; region != "" {
			add("Leading region", fmt.Sprintf("Highest-selling region: %s.", region),
				"sales.sales_by_region.region")
		}
	}

	if change, ok := firstToLastChange(sections["sales.sales_by_month"], "sales"); ok {
		add("Sales trend",
			fmt.Sprintf("Sales change from first to last month: %.1f%%.", 100*change),
			"sales.sales_by_month.sales")
	}

	return out
}
