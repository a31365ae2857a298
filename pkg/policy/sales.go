package policy

import (
	"fmt"

	"datascope-hq/datascope/pkg/analysis"
	"datascope-hq/datascope/pkg/anomaly"
	"datascope-hq/datascope/pkg/dataset"
)

// salesMinSamples is the coverage guard for every sales_v1 rule. Sales
// summaries are pre-aggregated, so the guard is lower than for raw orders.
const salesMinSamples = 5

var salesSynonyms = map[string][]string{
	"product": {"sub_category", "subcategory", "category", "product", "item", "sku"},
	"amount":  {"sales", "revenue", "amount", "total"},
	"date":    {"order_date", "date", "created_at", "timestamp"},
	"region":  {"region", "province", "state", "market"},
	"units":   {"units", "quantity", "qty"},
	"profit":  {"profit", "margin"},
}

var salesRoleOrder = []string{"product", "amount", "date", "region", "units", "profit"}

// SalesPolicy (sales_v1) analyzes retail sales summaries: revenue and unit
// concentration, profit margin, unit economics, and monthly trend when the
// optional roles resolve.
type SalesPolicy struct {
	rules []ThresholdRule
}

// NewSalesPolicy returns the sales_v1 policy.
func NewSalesPolicy() *SalesPolicy {
	return &SalesPolicy{
		rules: []ThresholdRule{
			{
				Metric: "revenue_concentration_share",
				EvidenceKeys: []string{
					"sales.top_products_by_sales_top10.sales",
					"sales.total_sales.value",
				},
				MinSamples: salesMinSamples,
				Clauses: []RuleClause{
					{Comparator: ComparatorGTE, Threshold: 0.50, Severity: anomaly.SeverityCritical, Direction: anomaly.DirectionHigh},
					{Comparator: ComparatorGTE, Threshold: 0.30, Severity: anomaly.SeverityWarning, Direction: anomaly.DirectionHigh},
				},
			},
			{
				Metric: "unit_concentration_share",
				EvidenceKeys: []string{
					"sales.top_products_by_units_top10.units",
					"sales.total_units.value",
				},
				MinSamples: salesMinSamples,
				Clauses: []RuleClause{
					{Comparator: ComparatorGTE, Threshold: 0.90, Severity: anomaly.SeverityCritical, Direction: anomaly.DirectionHigh},
					{Comparator: ComparatorGTE, Threshold: 0.70, Severity: anomaly.SeverityWarning, Direction: anomaly.DirectionHigh},
				},
			},
			{
				Metric: "profit_margin",
				EvidenceKeys: []string{
					"sales.total_profit.value",
					"sales.total_sales.value",
				},
				MinSamples: salesMinSamples,
				Clauses: []RuleClause{
					{Comparator: ComparatorLTE, Threshold: 0.05, Severity: anomaly.SeverityCritical, Direction: anomaly.DirectionLow},
					{Comparator: ComparatorLTE, Threshold: 0.10, Severity: anomaly.SeverityWarning, Direction: anomaly.DirectionLow},
				},
			},
			{
				Metric:       "sales_trend_change",
				EvidenceKeys: []string{"sales.sales_by_month.sales"},
				MinSamples:   salesMinSamples,
				Clauses: []RuleClause{
					{Comparator: ComparatorLTE, Threshold: -0.25, Severity: anomaly.SeverityCritical, Direction: anomaly.DirectionLow},
					{Comparator: ComparatorLTE, Threshold: -0.10, Severity: anomaly.SeverityWarning, Direction: anomaly.DirectionLow},
				},
			},
			{
				Metric:       "avg_unit_revenue",
				EvidenceKeys: []string{"sales.avg_unit_revenue.value"},
				MinSamples:   salesMinSamples,
				Clauses: []RuleClause{
					{Comparator: ComparatorGTE, Threshold: 50000, Severity: anomaly.SeverityCritical, Direction: anomaly.DirectionHigh},
					{Comparator: ComparatorGTE, Threshold: 10000, Severity: anomaly.SeverityWarning, Direction: anomaly.DirectionHigh},
					{Comparator: ComparatorLTE, Threshold: 0.1, Severity: anomaly.SeverityCritical, Direction: anomaly.DirectionLow},
					{Comparator: ComparatorLTE, Threshold: 1.0, Severity: anomaly.SeverityWarning, Direction: anomaly.DirectionLow},
				},
			},
		},
	}
}

func (p *SalesPolicy) Name() string    { return "sales_v1" }
func (p *SalesPolicy) Version() string { return "1.0.0" }

func (p *SalesPolicy) Description() string {
	return "Analyzes retail sales summaries: revenue/unit concentration, profit margin, unit economics, and monthly sales trend."
}

func (p *SalesPolicy) RequiredRoles() []string { return []string{"product", "amount"} }
func (p *SalesPolicy) OptionalRoles() []string {
	return []string{"date", "region", "units", "profit"}
}

func (p *SalesPolicy) ResolveRoles(schema dataset.Schema, hints dataset.Roles) map[string]string {
	return resolveRoles(schema, hints, salesSynonyms, salesRoleOrder)
}

func (p *SalesPolicy) CheckRoles(schema dataset.Schema, hints dataset.Roles) error {
	return checkRequired(p.Name(), p.RequiredRoles(), p.ResolveRoles(schema, hints), schema)
}

func (p *SalesPolicy) GenerateQuery(schema dataset.Schema, hints dataset.Roles) (Plan, error) {
	resolved := p.ResolveRoles(schema, hints)
	if err := checkRequired(p.Name(), p.RequiredRoles(), resolved, schema); err != nil {
		return Plan{}, err
	}

	table := dataset.QuoteIdent(schema.Table)
	product := dataset.QuoteIdent(resolved["product"])
	amount := dataset.QuoteIdent(resolved["amount"])
	sumSales := fmt.Sprintf("COALESCE(SUM(CAST(%s AS REAL)), 0.0)", amount)

	var plan Plan
	plan.Queries = append(plan.Queries, QuerySpec{
		Section: "sales.total_sales",
		SQL:     fmt.Sprintf("SELECT %s AS value FROM %s;", sumSales, table),
	})

	if col, ok := resolved["profit"]; ok {
		profit := dataset.QuoteIdent(col)
		plan.Queries = append(plan.Queries, QuerySpec{
			Section: "sales.total_profit",
			SQL:     fmt.Sprintf("SELECT COALESCE(SUM(CAST(%s AS REAL)), 0.0) AS value FROM %s;", profit, table),
		})
	} else {
		plan.Warnings = append(plan.Warnings,
			"sales_v1: no profit column resolved; profit margin skipped")
	}

	unitsCol, hasUnits := resolved["units"]
	if hasUnits {
		units := dataset.QuoteIdent(unitsCol)
		sumUnits := fmt.Sprintf("COALESCE(SUM(CAST(%s AS REAL)), 0.0)", units)
		plan.Queries = append(plan.Queries,
			QuerySpec{
				Section: "sales.total_units",
				SQL:     fmt.Sprintf("SELECT %s AS value FROM %s;", sumUnits, table),
			},
			QuerySpec{
				Section: "sales.avg_unit_revenue",
				SQL: fmt.Sprintf("SELECT CASE WHEN %s = 0 THEN NULL ELSE %s * 1.0 / %s END AS value FROM %s;",
					sumUnits, sumSales, sumUnits, table),
			},
		)
	}

	plan.Queries = append(plan.Queries, QuerySpec{
		Section: "sales.top_products_by_sales_top10",
		SQL: fmt.Sprintf("SELECT %s AS product, %s AS sales FROM %s GROUP BY %s ORDER BY sales DESC LIMIT 10;",
			product, sumSales, table, product),
	})

	if hasUnits {
		units := dataset.QuoteIdent(unitsCol)
		plan.Queries = append(plan.Queries, QuerySpec{
			Section: "sales.top_products_by_units_top10",
			SQL: fmt.Sprintf("SELECT %s AS product, COALESCE(SUM(CAST(%s AS REAL)), 0.0) AS units FROM %s GROUP BY %s ORDER BY units DESC LIMIT 10;",
				product, units, table, product),
		})
	}

	if col, ok := resolved["date"]; ok {
		month := fmt.Sprintf("strftime('%%Y-%%m', %s)", dataset.QuoteIdent(col))
		plan.Queries = append(plan.Queries,
			QuerySpec{
				Section: "sales.sales_by_month",
				SQL: fmt.Sprintf("SELECT %s AS month, %s AS sales FROM %s GROUP BY month ORDER BY month;",
					month, sumSales, table),
			},
			QuerySpec{
				Section: "sales.top_products_by_sales_by_month_top5",
				SQL:     topPerMonthSQL(month, product, "product", sumSales, "sales", table),
			},
		)
	} else {
		plan.Warnings = append(plan.Warnings,
			"sales_v1: no date column resolved; monthly trend metrics skipped")
	}

	if col, ok := resolved["region"]; ok {
		region := dataset.QuoteIdent(col)
		plan.Queries = append(plan.Queries, QuerySpec{
			Section: "sales.sales_by_region",
			SQL: fmt.Sprintf("SELECT %s AS region, %s AS sales FROM %s GROUP BY %s ORDER BY sales DESC;",
				region, sumSales, table, region),
		})
	}

	return plan, nil
}

func (p *SalesPolicy) MetricSpecs() []MetricSpec {
	return []MetricSpec{
		{Metric: "revenue_concentration_share", Unit: "share"},
		{Metric: "unit_concentration_share", Unit: "share"},
		{Metric: "profit_margin", Unit: "ratio"},
		{Metric: "sales_trend_change", Unit: "pct_change"},
		{Metric: "avg_unit_revenue", Unit: "currency"},
	}
}

func (p *SalesPolicy) ThresholdRules() []ThresholdRule { return p.rules }

func (p *SalesPolicy) EvaluateRules(rows []analysis.MetricRow, rc *analysis.RunContext) []anomaly.Candidate {
	sections := analysis.ParseSections(rows)

	// Sales datasets are pre-aggregated, so the coverage guard runs on the
	// raw row count rather than an order count.
	rowCount, _ := sections.Number("overall", "row_count")
	totalSales, _ := sections.Number("sales.total_sales", "value")

	var observations []Observation

	if topSales, ok := sections.Number("sales.top_products_by_sales_top10", "sales"); ok && totalSales > 0 {
		observations = append(observations, Observation{
			Metric:     "revenue_concentration_share",
			Value:      topSales / totalSales,
			SampleSize: rowCount,
		})
	}

	totalUnits, okUnits := sections.Number("sales.total_units", "value")
	if topUnits, ok := sections.Number("sales.top_products_by_units_top10", "units"); ok && okUnits && totalUnits > 0 {
		observations = append(observations, Observation{
			Metric:     "unit_concentration_share",
			Value:      topUnits / totalUnits,
			SampleSize: rowCount,
		})
	}

	if totalProfit, ok := sections.Number("sales.total_profit", "value"); ok && totalSales > 0 {
		observations = append(observations, Observation{
			Metric:     "profit_margin",
			Value:      totalProfit / totalSales,
			SampleSize: rowCount,
		})
	}

	if change, ok := lastMonthChange(sections["sales.sales_by_month"], "sales"); ok {
		observations = append(observations, Observation{
			Metric:     "sales_trend_change",
			Value:      change,
			SampleSize: rowCount,
		})
	}

	if aur, ok := sections.Number("sales.avg_unit_revenue", "value"); ok {
		observations = append(observations, Observation{
			Metric:     "avg_unit_revenue",
			Value:      aur,
			SampleSize: rowCount,
		})
	}

	return EvaluateThresholdRules(p.Name(), p.rules, observations, rc)
}

// lastMonthChange computes the fractional change from the second-to-last to
// the last monthly bucket: negative means decline. False with fewer than two
// buckets or a non-positive baseline.
func lastMonthChange(monthRows []map[string]string, column string) (float64, bool) {
	if len(monthRows) < 2 {
		return 0, false
	}
	prev, okPrev := analysis.ToNumber(monthRows[len(monthRows)-2][column])
	last, okLast := analysis.ToNumber(monthRows[len(monthRows)-1][column])
	if !okPrev || !okLast || prev <= 0 {
		return 0, false
	}
	return (last - prev) / prev, true
}
