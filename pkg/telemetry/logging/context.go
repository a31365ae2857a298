package logging

import "context"

// Context keys for common log fields.
type contextKey string

const (
	// RunIDKey is the context key for analysis run identifiers.
	RunIDKey contextKey = "run_id"

	// DatasetKey is the context key for dataset names.
	DatasetKey contextKey = "dataset"

	// PolicyKey is the context key for policy names.
	PolicyKey contextKey = "policy"
)

// WithRunID adds a run identifier to the context.
func WithRunID(ctx context.Context, runID string) context.Context {
	return context.WithValue(ctx, RunIDKey, runID)
}

// GetRunID retrieves the run identifier from the context.
func GetRunID(ctx context.Context) string {
	if runID, ok := ctx.Value(RunIDKey).(string); ok {
		return runID
	}
	return ""
}

// WithDataset adds a dataset name to the context.
func WithDataset(ctx context.Context, dataset string) context.Context {
	return context.WithValue(ctx, DatasetKey, dataset)
}

// GetDataset retrieves the dataset name from the context.
func GetDataset(ctx context.Context) string {
	if dataset, ok := ctx.Value(DatasetKey).(string); ok {
		return dataset
	}
	return ""
}

// WithPolicy adds a policy name to the context.
func WithPolicy(ctx context.Context, policy string) context.Context {
	return context.WithValue(ctx, PolicyKey, policy)
}

// GetPolicy retrieves the policy name from the context.
func GetPolicy(ctx context.Context) string {
	if policy, ok := ctx.Value(PolicyKey).(string); ok {
		return policy
	}
	return ""
}

// ContextAttrs collects the known context fields as alternating key/value
// pairs suitable for slog calls. Absent fields are omitted.
func ContextAttrs(ctx context.Context) []any {
	var attrs []any
	if runID := GetRunID(ctx); runID != "" {
		attrs = append(attrs, "run_id", runID)
	}
	if dataset := GetDataset(ctx); dataset != "" {
		attrs = append(attrs, "dataset", dataset)
	}
	if policy := GetPolicy(ctx); policy != "" {
		attrs = append(attrs, "policy", policy)
	}
	return attrs
}
