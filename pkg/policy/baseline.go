package policy

import (
	"fmt"
	"strings"

	"datascope-hq/datascope/pkg/analysis"
	"datascope-hq/datascope/pkg/anomaly"
	"datascope-hq/datascope/pkg/dataset"
)

const (
	baselineTopNPerTime = 10
	baselineGroupLimit  = 250
)

// columnRoles is the baseline policy's reading of a schema: which columns
// act as time, categoricals, numerics, and booleans. Inference is name-based
// and deterministic.
type columnRoles struct {
	timeLabel string
	timeSQL   string

	categoricals []string
	numerics     []string
	booleans     []string
}

// measure is one aggregate the baseline computes: SELECT sql AS name.
type measure struct {
	name string
	sql  string
}

// GenericTabularPolicy (generic_tabular) is the domain-agnostic fallback: it
// infers column roles by name, plans grouped aggregates over time and
// categorical dimensions, and declares no threshold rules. It always
// resolves, always runs, and never emits anomalies.
type GenericTabularPolicy struct{}

// NewGenericTabularPolicy returns the generic_tabular policy.
func NewGenericTabularPolicy() *GenericTabularPolicy {
	return &GenericTabularPolicy{}
}

func (p *GenericTabularPolicy) Name() string    { return "generic_tabular" }
func (p *GenericTabularPolicy) Version() string { return "1.0.0" }

func (p *GenericTabularPolicy) Description() string {
	return "Domain-agnostic fallback: grouped aggregates over inferred time and categorical dimensions. Emits no anomalies."
}

func (p *GenericTabularPolicy) RequiredRoles() []string { return nil }
func (p *GenericTabularPolicy) OptionalRoles() []string { return nil }

// ResolveRoles reports the inferred dimensions for introspection. The
// baseline has no role contract, so nothing here is required.
func (p *GenericTabularPolicy) ResolveRoles(schema dataset.Schema, _ dataset.Roles) map[string]string {
	roles, _ := inferColumnRoles(schema.Columns)
	resolved := make(map[string]string)
	if roles.timeSQL != "" {
		resolved["time"] = roles.timeLabel
	}
	if len(roles.categoricals) > 0 {
		resolved["category"] = roles.categoricals[0]
	}
	if len(roles.numerics) > 0 {
		resolved["measure"] = roles.numerics[0]
	}
	return resolved
}

// CheckRoles always succeeds: the baseline runs on any schema.
func (p *GenericTabularPolicy) CheckRoles(dataset.Schema, dataset.Roles) error { return nil }

func (p *GenericTabularPolicy) GenerateQuery(schema dataset.Schema, _ dataset.Roles) (Plan, error) {
	roles, warnings := inferColumnRoles(schema.Columns)
	measures := baseMeasures(roles)

	var plan Plan
	plan.Warnings = warnings

	if roles.timeSQL != "" {
		plan.Queries = append(plan.Queries, groupedSpec(
			"time", []string{roles.timeLabel}, []string{roles.timeSQL},
			measures, roles.timeSQL, 0, baselineGroupLimit))

		if cat := findColumn(roles.categoricals, "category"); cat != "" {
			plan.Queries = append(plan.Queries, groupedSpec(
				"time_x_category",
				[]string{roles.timeLabel, "category"},
				[]string{roles.timeSQL, dataset.QuoteIdent(cat)},
				measures, "", baselineTopNPerTime, baselineGroupLimit))
		}
		if region := findColumn(roles.categoricals, "region"); region != "" {
			plan.Queries = append(plan.Queries, groupedSpec(
				"time_x_region",
				[]string{roles.timeLabel, "region"},
				[]string{roles.timeSQL, dataset.QuoteIdent(region)},
				measures, "", baselineTopNPerTime, baselineGroupLimit))
		}
		if profit := findColumn(roles.numerics, "profit"); profit != "" {
			if group := firstGroupColumn(roles); group != "" {
				spec := negativeProfitSpec(roles, profit, group)
				plan.Queries = append(plan.Queries, spec)
			}
		}
		return plan, nil
	}

	if len(roles.categoricals) == 0 {
		plan.Warnings = append(plan.Warnings,
			"generic_tabular: no time dimension and no categoricals; only overall counts will be produced")
		return plan, nil
	}

	plan.Queries = append(plan.Queries, groupedSpec(
		"categorical", []string{"group"},
		[]string{dataset.QuoteIdent(roles.categoricals[0])},
		measures, rankMetricSQL(measures)+" DESC", 0, baselineGroupLimit))
	return plan, nil
}

// MetricSpecs is empty: the baseline never emits anomalies.
func (p *GenericTabularPolicy) MetricSpecs() []MetricSpec { return nil }

// ThresholdRules is empty by contract; the baseline's anomaly sequence is
// always the empty sequence.
func (p *GenericTabularPolicy) ThresholdRules() []ThresholdRule { return nil }

func (p *GenericTabularPolicy) EvaluateRules([]analysis.MetricRow, *analysis.RunContext) []anomaly.Candidate {
	return nil
}

// inferColumnRoles classifies columns by common names. Warnings note which
// dimensions were not found; they are advisory, never fatal.
func inferColumnRoles(columns []string) (columnRoles, []string) {
	lower := make(map[string]string, len(columns))
	for _, c := range columns {
		lc := strings.ToLower(strings.TrimSpace(c))
		if _, seen := lower[lc]; !seen {
			lower[lc] = c
		}
	}
	get := func(name string) string { return lower[name] }

	var roles columnRoles
	switch {
	case get("year") != "":
		roles.timeLabel = "year"
		roles.timeSQL = dataset.QuoteIdent(get("year"))
	case get("order_date") != "":
		roles.timeLabel = "year"
		roles.timeSQL = fmt.Sprintf("substr(%s, 1, 4)", dataset.QuoteIdent(get("order_date")))
	case get("date") != "":
		roles.timeLabel = "year"
		roles.timeSQL = fmt.Sprintf("substr(%s, 1, 4)", dataset.QuoteIdent(get("date")))
	}

	for _, n := range []string{"category", "region", "segment", "sub_category", "city", "state", "country"} {
		if c := get(n); c != "" {
			roles.categoricals = append(roles.categoricals, c)
		}
	}
	for _, n := range []string{"sales", "revenue", "amount", "cost", "profit", "units", "qty", "quantity", "discount"} {
		if c := get(n); c != "" {
			roles.numerics = append(roles.numerics, c)
		}
	}
	for _, n := range []string{"returned", "is_returned", "flag", "is_active"} {
		if c := get(n); c != "" {
			roles.booleans = append(roles.booleans, c)
		}
	}

	var warnings []string
	if roles.timeSQL == "" {
		warnings = append(warnings, "generic_tabular: no time-like column detected (year/order_date/date)")
	}
	if len(roles.categoricals) == 0 {
		warnings = append(warnings, "generic_tabular: no known categorical columns found")
	}
	if len(roles.numerics) == 0 {
		warnings = append(warnings, "generic_tabular: no known numeric columns found")
	}
	return roles, warnings
}

// baseMeasures selects the aggregate set: row count, sums for every known
// numeric, averages for the first three, rates for booleans, and a derived
// profit margin when both sides exist.
func baseMeasures(roles columnRoles) []measure {
	out := []measure{{name: "n", sql: "COUNT(*)"}}

	for _, c := range roles.numerics {
		out = append(out, measure{
			name: "sum_" + strings.ToLower(c),
			sql:  fmt.Sprintf("SUM(%s)", dataset.QuoteIdent(c)),
		})
	}
	for i, c := range roles.numerics {
		if i >= 3 {
			break
		}
		out = append(out, measure{
			name: "avg_" + strings.ToLower(c),
			sql:  fmt.Sprintf("AVG(%s)", dataset.QuoteIdent(c)),
		})
	}
	for _, b := range roles.booleans {
		out = append(out, measure{
			name: "rate_" + strings.ToLower(b),
			sql:  fmt.Sprintf("AVG(%s)", dataset.QuoteIdent(b)),
		})
	}

	profit := findColumn(roles.numerics, "profit")
	sales := firstNumeric(roles, "sales", "revenue", "amount")
	if profit != "" && sales != "" {
		out = append(out, measure{name: "profit_margin", sql: profitMarginSQL(profit, sales)})
	}
	return out
}

func profitMarginSQL(profit, sales string) string {
	return fmt.Sprintf("CASE WHEN SUM(%s) = 0 THEN NULL ELSE (SUM(%s) * 1.0 / SUM(%s)) END",
		dataset.QuoteIdent(sales), dataset.QuoteIdent(profit), dataset.QuoteIdent(sales))
}

// groupedSpec renders one grouped query. Group expressions are aliased
// g0..gN so the windowed variant can partition on g0; the runner relies on
// positional layout (groups first, then measures).
func groupedSpec(section string, labels, exprs []string, measures []measure, orderBy string, topNPerTime, limit int) QuerySpec {
	selectList := make([]string, 0, len(exprs)+len(measures))
	for i, e := range exprs {
		selectList = append(selectList, fmt.Sprintf("%s AS g%d", e, i))
	}
	names := make([]string, 0, len(measures))
	for _, m := range measures {
		selectList = append(selectList, fmt.Sprintf("%s AS %s", m.sql, m.name))
		names = append(names, m.name)
	}

	var sql string
	if topNPerTime > 0 {
		rank := rankMetricSQL(measures)
		sql = fmt.Sprintf(
			"WITH grouped AS (SELECT %s FROM %s GROUP BY %s), "+
				"ranked AS (SELECT *, ROW_NUMBER() OVER (PARTITION BY g0 ORDER BY %s DESC) AS rn FROM grouped) "+
				"SELECT * FROM ranked WHERE rn <= %d ORDER BY g0, %s DESC;",
			strings.Join(selectList, ", "), dataset.TableName, strings.Join(exprs, ", "),
			rank, topNPerTime, rank)
	} else {
		order := orderBy
		if order == "" {
			order = "1"
		}
		sql = fmt.Sprintf("SELECT %s FROM %s GROUP BY %s ORDER BY %s LIMIT %d;",
			strings.Join(selectList, ", "), dataset.TableName, strings.Join(exprs, ", "),
			order, limit)
	}

	return QuerySpec{
		Section:      section,
		SQL:          sql,
		GroupLabels:  labels,
		MeasureNames: names,
	}
}

// negativeProfitSpec flags groups with the lowest total profit: a bounded,
// deterministic breakdown rather than a severity-assigned anomaly.
func negativeProfitSpec(roles columnRoles, profit, group string) QuerySpec {
	measures := []measure{
		{name: "n", sql: "COUNT(*)"},
		{name: "sum_profit", sql: fmt.Sprintf("SUM(%s)", dataset.QuoteIdent(profit))},
	}
	if sales := firstNumeric(roles, "sales", "revenue", "amount"); sales != "" {
		measures = append(measures, measure{
			name: "sum_sales",
			sql:  fmt.Sprintf("SUM(%s)", dataset.QuoteIdent(sales)),
		})
		measures = append(measures, measure{name: "profit_margin", sql: profitMarginSQL(profit, sales)})
	}

	return groupedSpec("anomaly_negative_profit", []string{"group"},
		[]string{dataset.QuoteIdent(group)}, measures,
		fmt.Sprintf("SUM(%s) ASC", dataset.QuoteIdent(profit)), 0, 20)
}

// rankMetricSQL picks the deterministic ranking aggregate for top-N tables:
// a revenue-like sum, else total profit, else the row count.
func rankMetricSQL(measures []measure) string {
	for _, m := range measures {
		if m.name == "sum_sales" || m.name == "sum_revenue" || m.name == "sum_amount" {
			return m.sql
		}
	}
	for _, m := range measures {
		if m.name == "sum_profit" {
			return m.sql
		}
	}
	for _, m := range measures {
		if m.name == "n" {
			return m.sql
		}
	}
	return measures[0].sql
}

// firstGroupColumn prefers region, then category, then any categorical.
func firstGroupColumn(roles columnRoles) string {
	if c := findColumn(roles.categoricals, "region"); c != "" {
		return c
	}
	if c := findColumn(roles.categoricals, "category"); c != "" {
		return c
	}
	if len(roles.categoricals) > 0 {
		return roles.categoricals[0]
	}
	return ""
}

func firstNumeric(roles columnRoles, wanted ...string) string {
	for _, w := range wanted {
		if c := findColumn(roles.numerics, w); c != "" {
			return c
		}
	}
	return ""
}

func findColumn(cols []string, wanted string) string {
	for _, c := range cols {
		if strings.EqualFold(c, wanted) {
			return c
		}
	}
	return ""
}
