package policy

import (
	"regexp"
	"sort"
	"sync"
)

var versionSuffix = regexp.MustCompile(`_v\d+$`)

// BaseName strips a trailing version suffix ("_v<digits>") from a policy
// name, yielding the family name. It is a display and introspection helper
// only; resolution always uses the exact registered name.
func BaseName(name string) string {
	return versionSuffix.ReplaceAllString(name, "")
}

// Registry holds registered policies by exact name. Registration happens
// once at process initialization; lookups are read-only and safe for
// concurrent use.
type Registry struct {
	mu       sync.RWMutex
	policies map[string]Policy
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{policies: make(map[string]Policy)}
}

// NewBuiltinRegistry returns a registry preloaded with the built-in policy
// families: generic_tabular, orders_v1, and sales_v1.
func NewBuiltinRegistry() *Registry {
	r := NewRegistry()
	// Built-in names cannot collide; errors here would be programming bugs.
	_ = r.Register(NewGenericTabularPolicy())
	_ = r.Register(NewOrdersPolicy())
	_ = r.Register(NewSalesPolicy())
	return r
}

// Register adds a policy under its exact name. Registering a name twice
// fails with a DuplicateNameError; registered policies are never replaced or
// mutated.
func (r *Registry) Register(p Policy) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	name := p.Name()
	if _, exists := r.policies[name]; exists {
		return &DuplicateNameError{Name: name}
	}
	r.policies[name] = p
	return nil
}

// Resolve returns the policy registered under the exact name, or a
// NotFoundError listing the available names.
func (r *Registry) Resolve(name string) (Policy, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.policies[name]
	if !ok {
		return nil, &NotFoundError{Name: name, Available: r.namesLocked()}
	}
	return p, nil
}

// List returns all registered policies sorted by name.
func (r *Registry) List() []Policy {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Policy, 0, len(r.policies))
	for _, name := range r.namesLocked() {
		out = append(out, r.policies[name])
	}
	return out
}

// Names returns the sorted registered policy names.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.namesLocked()
}

func (r *Registry) namesLocked() []string {
	names := make([]string, 0, len(r.policies))
	for name := range r.policies {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
