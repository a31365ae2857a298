package policy

import (
	"fmt"
	"strings"
)

// NotFoundError indicates a policy name that is not registered.
type NotFoundError struct {
	Name      string
	Available []string
}

func (e *NotFoundError) Error() string {
	if len(e.Available) == 0 {
		return fmt.Sprintf("policy %q not found", e.Name)
	}
	return fmt.Sprintf("policy %q not found (available: %s)", e.Name, strings.Join(e.Available, ", "))
}

// DuplicateNameError indicates an attempt to register a policy under a name
// that is already taken. Registered policies are immutable; re-registration
// is always an error.
type DuplicateNameError struct {
	Name string
}

func (e *DuplicateNameError) Error() string {
	return fmt.Sprintf("policy %q is already registered", e.Name)
}

// MissingRoleError indicates that a required data role could not be resolved
// against the dataset schema, either by hints or by synonym matching.
type MissingRoleError struct {
	Policy  string
	Role    string
	Columns []string
}

func (e *MissingRoleError) Error() string {
	return fmt.Sprintf("policy %q: required role %q not resolvable from columns [%s]",
		e.Policy, e.Role, strings.Join(e.Columns, ", "))
}
