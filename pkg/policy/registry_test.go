package policy

import (
	"errors"
	"reflect"
	"testing"
)

func TestRegistry_RegisterDuplicate(t *testing.T) {
	reg := NewRegistry()
	if err := reg.Register(NewOrdersPolicy()); err != nil {
		t.Fatalf("first Register() error = %v", err)
	}

	err := reg.Register(NewOrdersPolicy())
	var dup *DuplicateNameError
	if !errors.As(err, &dup) {
		t.Fatalf("second Register() error = %v, want DuplicateNameError", err)
	}
	if dup.Name != "orders_v1" {
		t.Errorf("duplicate name = %q, want orders_v1", dup.Name)
	}
}

func TestRegistry_ResolveUnknown(t *testing.T) {
	reg := NewBuiltinRegistry()

	_, err := reg.Resolve("orders_v9")
	var nf *NotFoundError
	if !errors.As(err, &nf) {
		t.Fatalf("Resolve() error = %v, want NotFoundError", err)
	}
	want := []string{"generic_tabular", "orders_v1", "sales_v1"}
	if !reflect.DeepEqual(nf.Available, want) {
		t.Errorf("available = %v, want %v", nf.Available, want)
	}
}

func TestRegistry_ListSorted(t *testing.T) {
	reg := NewBuiltinRegistry()

	var names []string
	for _, p := range reg.List() {
		names = append(names, p.Name())
	}
	want := []string{"generic_tabular", "orders_v1", "sales_v1"}
	if !reflect.DeepEqual(names, want) {
		t.Errorf("List() names = %v, want %v", names, want)
	}
}

func TestBaseName(t *testing.T) {
	tests := []struct {
		name string
		want string
	}{
		{"orders_v1", "orders"},
		{"sales_v12", "sales"},
		{"generic_tabular", "generic_tabular"},
		{"v1", "v1"},
		{"orders_v1_v2", "orders_v1"},
	}

	for _, tt := range tests {
		if got := BaseName(tt.name); got != tt.want {
			t.Errorf("BaseName(%q) = %q, want %q", tt.name, got, tt.want)
		}
	}
}
