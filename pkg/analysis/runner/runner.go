package runner

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"datascope-hq/datascope/pkg/analysis"
	"datascope-hq/datascope/pkg/analysis/interpret"
	"datascope-hq/datascope/pkg/anomaly"
	"datascope-hq/datascope/pkg/dataset"
	"datascope-hq/datascope/pkg/policy"
)

// maxEmitRows bounds how many result rows of a single query become metric
// rows, keeping the metrics sequence deterministic in size.
const maxEmitRows = 1000

// Options configure one run.
type Options struct {
	// Policy is the exact policy name to run. Empty selects automatically.
	Policy string

	// Hints are caller-supplied role -> candidate-column mappings.
	Hints dataset.Roles

	// Timeout bounds query execution. Zero means no deadline.
	Timeout time.Duration

	// RunID overrides the generated run identifier. Used by callers that
	// pre-allocate artifact directories.
	RunID string
}

// Runner executes analysis runs against a dataset session.
type Runner struct {
	registry  *policy.Registry
	validator *anomaly.ContractValidator
	logger    *slog.Logger
}

// New creates a runner over a policy registry. The logger may be nil, in
// which case the default logger is used.
func New(registry *policy.Registry, logger *slog.Logger) (*Runner, error) {
	validator, err := anomaly.NewContractValidator()
	if err != nil {
		return nil, fmt.Errorf("building contract validator: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{registry: registry, validator: validator, logger: logger}, nil
}

// Run executes one analysis run. On any failure the run context records the
// failed state and no Result is returned.
func (r *Runner) Run(ctx context.Context, session *dataset.Session, opts Options) (*analysis.Result, error) {
	runID := opts.RunID
	if runID == "" {
		runID = uuid.NewString()
	}
	rc := &analysis.RunContext{RunID: runID, StartedAt: time.Now().UTC()}
	log := r.logger.With("run_id", runID)

	fail := func(err error) (*analysis.Result, error) {
		// An expired deadline can surface from any store-touching stage, not
		// just query execution. Tag it uniformly so callers can errors.As.
		var timedOut *TimeoutError
		if errors.Is(err, context.DeadlineExceeded) && !errors.As(err, &timedOut) {
			err = &TimeoutError{Timeout: opts.Timeout, Cause: err}
		}
		rc.AddStage(analysis.StateFailed, time.Now().UTC())
		rc.Freeze()
		log.Error("analysis run failed", "error", err)
		return nil, err
	}

	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}

	schema, err := session.Schema(ctx)
	if err != nil {
		return fail(fmt.Errorf("reading dataset schema: %w", err))
	}

	// Resolve the policy, automatically when none was named.
	name := opts.Policy
	if name == "" {
		selected, selection := policy.AutoSelect(r.registry, schema, opts.Hints)
		name = selected
		rc.Selection = selection
		log.Debug("policy selected automatically", "policy", name)
	}
	pol, err := r.registry.Resolve(name)
	if err != nil {
		return fail(err)
	}
	rc.PolicyName = pol.Name()
	rc.PolicyVersion = pol.Version()
	rc.AddStage(analysis.StateResolved, time.Now().UTC())

	if err := pol.CheckRoles(schema, opts.Hints); err != nil {
		return fail(err)
	}
	rc.ResolvedRoles = pol.ResolveRoles(schema, opts.Hints)
	rc.AddStage(analysis.StateRolesValidated, time.Now().UTC())

	plan, err := pol.GenerateQuery(schema, opts.Hints)
	if err != nil {
		return fail(err)
	}
	for _, w := range plan.Warnings {
		rc.AddWarning(w)
	}

	metrics, err := r.execute(ctx, session, schema, plan, rc, opts.Timeout)
	if err != nil {
		return fail(err)
	}
	rc.AddStage(analysis.StateQueryExecuted, time.Now().UTC())
	rc.AddStage(analysis.StateMetricsCollected, time.Now().UTC())
	log.Debug("metrics collected", "policy", pol.Name(), "metric_rows", len(metrics))

	candidates := pol.EvaluateRules(metrics, rc)
	rc.AddStage(analysis.StateRulesEvaluated, time.Now().UTC())
	rc.Freeze()

	interpretation := interpret.ForPolicy(pol.Name()).Interpret(metrics, rc)
	rc.AddStage(analysis.StateInterpreted, time.Now().UTC())

	normalizer := anomaly.NewNormalizer(pol.Name(), policy.Units(pol.MetricSpecs()))
	normalized := normalizer.Normalize(candidates)
	rc.AddStage(analysis.StateNormalized, time.Now().UTC())

	if err := r.validate(normalized); err != nil {
		return fail(err)
	}
	rc.AddStage(analysis.StateValidated, time.Now().UTC())

	result := &analysis.Result{
		RunID:               runID,
		Policy:              pol.Name(),
		PolicyVersion:       pol.Version(),
		Metrics:             metrics,
		Log:                 rc,
		Interpretation:      interpretation,
		AnomaliesNormalized: normalized,
	}
	rc.AddStage(analysis.StateSucceeded, time.Now().UTC())
	log.Info("analysis run succeeded",
		"policy", pol.Name(),
		"metric_rows", len(metrics),
		"anomalies", len(normalized),
		"max_severity", string(anomaly.MaxSeverity(normalized)))
	return result, nil
}

// execute runs the overall count plus every planned query and converts the
// result sets into metric rows. overall.row_count is always the first metric
// row of a run.
func (r *Runner) execute(ctx context.Context, session *dataset.Session, schema dataset.Schema, plan policy.Plan, rc *analysis.RunContext, timeout time.Duration) ([]analysis.MetricRow, error) {
	metrics := make([]analysis.MetricRow, 0, 64)

	countSQL := fmt.Sprintf("SELECT COUNT(*) AS value FROM %s;", dataset.QuoteIdent(schema.Table))
	rc.AddQuery(countSQL)
	_, countRows, err := session.Query(ctx, countSQL)
	if err != nil {
		return nil, r.wrapQueryError("overall", countSQL, err, timeout)
	}
	rowCount := "0"
	if len(countRows) > 0 && len(countRows[0]) > 0 {
		rowCount = countRows[0][0]
	}
	metrics = append(metrics,
		analysis.MetricRow{Section: "overall", Key: "row_count", Value: rowCount},
		analysis.MetricRow{Section: "overall", Key: "column_count", Value: strconv.Itoa(len(schema.Columns))},
	)

	for _, spec := range plan.Queries {
		rc.AddQuery(spec.SQL)
		cols, rows, err := session.Query(ctx, spec.SQL)
		if err != nil {
			return nil, r.wrapQueryError(spec.Section, spec.SQL, err, timeout)
		}
		if len(spec.GroupLabels) > 0 {
			metrics = emitGrouped(metrics, spec, rows)
		} else {
			metrics = emitPositional(metrics, spec.Section, cols, rows)
		}
	}
	return metrics, nil
}

func (r *Runner) wrapQueryError(section, query string, err error, timeout time.Duration) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return &TimeoutError{Section: section, Timeout: timeout, Cause: err}
	}
	return &QueryError{Section: section, Query: query, Cause: err}
}

// validate enforces the anomaly contract both on the typed sequence and on
// the serialized envelope.
func (r *Runner) validate(normalized []anomaly.Normalized) error {
	if err := r.validator.ValidateAnomalies(normalized); err != nil {
		return err
	}
	payload, err := json.Marshal(map[string]any{"anomalies_normalized": normalized})
	if err != nil {
		return fmt.Errorf("encoding anomaly envelope: %w", err)
	}
	return r.validator.Validate(payload)
}

// emitPositional converts a plain result set into "row<N>:<column>" keys.
func emitPositional(metrics []analysis.MetricRow, section string, cols []string, rows [][]string) []analysis.MetricRow {
	for idx, row := range rows {
		if idx >= maxEmitRows {
			break
		}
		for colIdx, col := range cols {
			if colIdx >= len(row) {
				break
			}
			metrics = append(metrics, analysis.MetricRow{
				Section: section,
				Key:     fmt.Sprintf("row%d:%s", idx, col),
				Value:   row[colIdx],
			})
		}
	}
	return metrics
}

// emitGrouped converts a grouped result set into "label=value|...:measure"
// keys on the "<section>_summary" section, preceded by a group_by header row
// on the base section. The result layout is positional: group columns first,
// then measures, extra columns (such as window ranks) ignored.
func emitGrouped(metrics []analysis.MetricRow, spec policy.QuerySpec, rows [][]string) []analysis.MetricRow {
	metrics = append(metrics, analysis.MetricRow{
		Section: spec.Section,
		Key:     "group_by",
		Value:   strings.Join(spec.GroupLabels, ","),
	})

	nGroups := len(spec.GroupLabels)
	for idx, row := range rows {
		if idx >= maxEmitRows {
			break
		}
		if len(row) < nGroups+len(spec.MeasureNames) {
			continue
		}

		parts := make([]string, nGroups)
		for i := 0; i < nGroups; i++ {
			parts[i] = spec.GroupLabels[i] + "=" + row[i]
		}
		groupKey := strings.Join(parts, "|")

		for j, measureName := range spec.MeasureNames {
			metrics = append(metrics, analysis.MetricRow{
				Section: spec.Section + "_summary",
				Key:     groupKey + ":" + measureName,
				Value:   row[nGroups+j],
			})
		}
	}
	return metrics
}
