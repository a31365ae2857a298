package policy

import (
	"sort"

	"datascope-hq/datascope/pkg/analysis"
	"datascope-hq/datascope/pkg/dataset"
)

// FallbackPolicyName is selected when no domain policy is eligible. The
// baseline declares no roles, so it is always eligible at score zero.
const FallbackPolicyName = "generic_tabular"

// AutoSelect scores every registered policy against the schema and returns
// the winner's name plus the full scoring log.
//
// A policy is eligible when all its required roles resolve. Score is
// 3 x resolved-required + resolved-optional, so a domain policy that fits
// always beats the baseline. Candidates are scored in sorted-name order and
// ties keep the earlier name, making selection deterministic.
func AutoSelect(reg *Registry, schema dataset.Schema, hints dataset.Roles) (string, *analysis.SelectionLog) {
	log := &analysis.SelectionLog{Selected: FallbackPolicyName}

	bestScore := 0
	for _, p := range reg.List() {
		resolved := p.ResolveRoles(schema, hints)

		var missing []string
		for _, role := range p.RequiredRoles() {
			if _, ok := resolved[role]; !ok {
				missing = append(missing, role)
			}
		}
		sort.Strings(missing)

		score := 0
		for _, role := range p.RequiredRoles() {
			if _, ok := resolved[role]; ok {
				score += 3
			}
		}
		for _, role := range p.OptionalRoles() {
			if _, ok := resolved[role]; ok {
				score++
			}
		}

		eligible := len(missing) == 0
		log.Candidates = append(log.Candidates, analysis.SelectionCandidate{
			Name:          p.Name(),
			ResolvedRoles: resolved,
			MissingRoles:  missing,
			Eligible:      eligible,
			Score:         score,
		})

		if eligible && score > bestScore {
			bestScore = score
			log.Selected = p.Name()
		}
	}
	return log.Selected, log
}
