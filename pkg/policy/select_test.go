package policy

import (
	"testing"

	"datascope-hq/datascope/pkg/dataset"
)

func TestAutoSelect_OrdersShapedSchema(t *testing.T) {
	reg := NewBuiltinRegistry()
	schema := ordersSchema("order_id", "customer_id", "product", "amount", "order_date")

	selected, log := AutoSelect(reg, schema, nil)
	if selected != "orders_v1" {
		t.Fatalf("selected = %q, want orders_v1", selected)
	}
	if log.Selected != selected {
		t.Errorf("log.Selected = %q, want %q", log.Selected, selected)
	}
	if len(log.Candidates) != 3 {
		t.Fatalf("candidates = %d, want 3", len(log.Candidates))
	}

	for _, c := range log.Candidates {
		if c.Name == "orders_v1" {
			// 3 required x3 + 2 optional.
			if c.Score != 11 {
				t.Errorf("orders_v1 score = %d, want 11", c.Score)
			}
			if !c.Eligible {
				t.Error("orders_v1 not eligible, want eligible")
			}
		}
	}
}

func TestAutoSelect_SalesShapedSchema(t *testing.T) {
	reg := NewBuiltinRegistry()
	schema := ordersSchema("sub_category", "region", "order_date", "quantity", "profit", "sales")

	selected, _ := AutoSelect(reg, schema, nil)
	if selected != "sales_v1" {
		t.Errorf("selected = %q, want sales_v1", selected)
	}
}

func TestAutoSelect_FallsBackToBaseline(t *testing.T) {
	reg := NewBuiltinRegistry()
	schema := ordersSchema("colA", "colB", "colC")

	selected, log := AutoSelect(reg, schema, nil)
	if selected != FallbackPolicyName {
		t.Errorf("selected = %q, want %q", selected, FallbackPolicyName)
	}
	for _, c := range log.Candidates {
		if c.Name == "orders_v1" && c.Eligible {
			t.Error("orders_v1 eligible on opaque schema, want ineligible")
		}
		if c.Name == "orders_v1" && len(c.MissingRoles) != 3 {
			t.Errorf("orders_v1 missing = %v, want all three required roles", c.MissingRoles)
		}
	}
}

func TestAutoSelect_HintsChangeOutcome(t *testing.T) {
	reg := NewBuiltinRegistry()
	schema := ordersSchema("buyer", "item_name", "order_total")

	hints := dataset.Roles{
		"customer": {"buyer"},
		"product":  {"item_name"},
	}
	selected, _ := AutoSelect(reg, schema, hints)
	if selected != "orders_v1" {
		t.Errorf("selected = %q, want orders_v1 once hints resolve required roles", selected)
	}
}
