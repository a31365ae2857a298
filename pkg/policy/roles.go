package policy

import "datascope-hq/datascope/pkg/dataset"

// resolveRoles maps logical roles onto schema columns. Caller hints are
// tried before the policy's synonym table, and the explicit role order keeps
// resolution deterministic. Unresolvable roles are simply absent.
func resolveRoles(schema dataset.Schema, hints dataset.Roles, synonyms map[string][]string, order []string) map[string]string {
	resolved := make(map[string]string)
	for _, role := range order {
		if col, ok := firstColumn(schema, hints[role]); ok {
			resolved[role] = col
			continue
		}
		if col, ok := firstColumn(schema, synonyms[role]); ok {
			resolved[role] = col
		}
	}
	return resolved
}

// firstColumn returns the first candidate that names a schema column,
// matching case-insensitively but returning the schema's own spelling.
func firstColumn(schema dataset.Schema, candidates []string) (string, bool) {
	for _, cand := range candidates {
		if col, ok := schema.HasColumn(cand); ok {
			return col, true
		}
	}
	return "", false
}

// checkRequired returns a MissingRoleError for the first required role that
// did not resolve.
func checkRequired(policyName string, required []string, resolved map[string]string, schema dataset.Schema) error {
	for _, role := range required {
		if _, ok := resolved[role]; !ok {
			return &MissingRoleError{Policy: policyName, Role: role, Columns: schema.Columns}
		}
	}
	return nil
}
