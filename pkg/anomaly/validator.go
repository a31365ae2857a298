package anomaly

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// ContractViolationError reports an output payload that does not satisfy the
// fixed anomaly contract. It is fatal: a violating payload must never reach
// an artifact-producing collaborator.
type ContractViolationError struct {
	// Fields lists the missing or mistyped fields, in stable order.
	Fields []string

	// Cause is the underlying schema error, if the violation was detected
	// by the JSON Schema check.
	Cause error
}

// Error implements the error interface.
func (e *ContractViolationError) Error() string {
	if len(e.Fields) > 0 {
		return fmt.Sprintf("contract violation: missing or mistyped fields: %s", strings.Join(e.Fields, ", "))
	}
	if e.Cause != nil {
		return fmt.Sprintf("contract violation: %v", e.Cause)
	}
	return "contract violation"
}

// Unwrap implements the errors.Unwrap interface for error chain support.
func (e *ContractViolationError) Unwrap() error {
	return e.Cause
}

// ContractValidator checks that the engine's output always satisfies the
// fixed output shape: every normalized anomaly carries all ten required
// fields with the correct value kinds, and the result envelope carries the
// anomaly sequence key unconditionally.
//
// Validation runs twice per payload: typed checks over the decoded values
// and a JSON Schema check over the serialized form. Compiling the schema is
// done once at construction; a validator is safe for concurrent use.
type ContractValidator struct {
	schema *jsonschema.Schema
}

// NewContractValidator compiles the embedded envelope schema.
func NewContractValidator() (*ContractValidator, error) {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("envelope.schema.json", strings.NewReader(envelopeSchema)); err != nil {
		return nil, fmt.Errorf("add envelope schema: %w", err)
	}
	schema, err := compiler.Compile("envelope.schema.json")
	if err != nil {
		return nil, fmt.Errorf("compile envelope schema: %w", err)
	}
	return &ContractValidator{schema: schema}, nil
}

// Validate checks a serialized result envelope. The payload must be a JSON
// object whose "anomalies_normalized" key holds the normalized sequence.
func (v *ContractValidator) Validate(payload []byte) error {
	var decoded map[string]any
	if err := json.Unmarshal(payload, &decoded); err != nil {
		return &ContractViolationError{Cause: err}
	}

	if _, ok := decoded["anomalies_normalized"]; !ok {
		return &ContractViolationError{Fields: []string{"anomalies_normalized"}}
	}

	if err := v.schema.Validate(decoded); err != nil {
		return &ContractViolationError{Cause: err}
	}
	return nil
}

// ValidateAnomalies runs the typed field checks over a normalized sequence.
// A nil sequence is a violation: the contract requires the sequence to be
// present (possibly empty) in every successful run.
func (v *ContractValidator) ValidateAnomalies(anomalies []Normalized) error {
	if anomalies == nil {
		return &ContractViolationError{Fields: []string{"anomalies_normalized"}}
	}

	bad := make(map[string]struct{})
	for i, a := range anomalies {
		prefix := fmt.Sprintf("anomalies_normalized[%d].", i)
		if a.ID == "" {
			bad[prefix+"id"] = struct{}{}
		}
		if a.Policy == "" {
			bad[prefix+"policy"] = struct{}{}
		}
		if a.Metric == "" {
			bad[prefix+"metric"] = struct{}{}
		}
		if !a.Severity.Valid() {
			bad[prefix+"severity"] = struct{}{}
		}
		if !a.Direction.Valid() {
			bad[prefix+"direction"] = struct{}{}
		}
		if a.EvidenceKeys == nil {
			bad[prefix+"evidence_keys"] = struct{}{}
		}
		if a.Summary == "" {
			bad[prefix+"summary"] = struct{}{}
		}
	}

	if len(bad) > 0 {
		fields := make([]string, 0, len(bad))
		for f := range bad {
			fields = append(fields, f)
		}
		sort.Strings(fields)
		return &ContractViolationError{Fields: fields}
	}
	return nil
}
