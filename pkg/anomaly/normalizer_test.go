package anomaly

import (
	"encoding/json"
	"reflect"
	"testing"
)

func testCandidates() []Candidate {
	return []Candidate{
		{
			Metric:       "orders_drop_pct",
			Direction:    DirectionHigh,
			Severity:     SeverityWarning,
			Value:        0.35,
			Threshold:    Threshold{Warning: 0.30, Critical: 0.50},
			EvidenceKeys: []string{"orders.orders_by_month.orders"},
		},
		{
			Metric:       "top_customer_revenue_share",
			Direction:    DirectionHigh,
			Severity:     SeverityCritical,
			Value:        0.82,
			Threshold:    Threshold{Warning: 0.25, Critical: 0.40},
			EvidenceKeys: []string{"orders.top_customers_by_revenue_top10.revenue", "orders.total_revenue.value"},
		},
		{
			Metric:       "avg_order_value",
			Direction:    DirectionLow,
			Severity:     SeverityWarning,
			Value:        12.5,
			Threshold:    Threshold{Warning: 20.0, Critical: 10.0},
			EvidenceKeys: []string{"orders.avg_order_value.value"},
		},
	}
}

func testUnits() map[string]string {
	return map[string]string{
		"top_customer_revenue_share": "share",
		"avg_order_value":            "currency",
		"orders_drop_pct":            "pct_change",
	}
}

func TestNormalizer_Normalize_SortContract(t *testing.T) {
	n := NewNormalizer("orders_v1", testUnits())
	got := n.Normalize(testCandidates())

	if len(got) != 3 {
		t.Fatalf("len(anomalies) = %d, want 3", len(got))
	}

	// For all adjacent pairs: severity rank >= next; if equal, metric <=;
	// if equal, id <=.
	for i := 0; i < len(got)-1; i++ {
		a, b := got[i], got[i+1]
		if a.Severity.Rank() < b.Severity.Rank() {
			t.Errorf("pair %d: severity rank %d < %d", i, a.Severity.Rank(), b.Severity.Rank())
		}
		if a.Severity.Rank() == b.Severity.Rank() && a.Metric > b.Metric {
			t.Errorf("pair %d: metric %q > %q", i, a.Metric, b.Metric)
		}
		if a.Severity.Rank() == b.Severity.Rank() && a.Metric == b.Metric && a.ID > b.ID {
			t.Errorf("pair %d: id %q > %q", i, a.ID, b.ID)
		}
	}

	// Critical anomaly must come first regardless of input order.
	if got[0].Metric != "top_customer_revenue_share" {
		t.Errorf("first metric = %q, want top_customer_revenue_share", got[0].Metric)
	}
	if got[0].Severity != SeverityCritical {
		t.Errorf("first severity = %q, want critical", got[0].Severity)
	}
}

func TestNormalizer_Normalize_Deterministic(t *testing.T) {
	n := NewNormalizer("orders_v1", testUnits())

	first := n.Normalize(testCandidates())
	second := NewNormalizer("orders_v1", testUnits()).Normalize(testCandidates())

	if !reflect.DeepEqual(first, second) {
		t.Fatalf("repeated normalization differs:\nfirst  = %+v\nsecond = %+v", first, second)
	}

	for i := range first {
		if first[i].ID != second[i].ID {
			t.Errorf("anomaly %d: id %q != %q", i, first[i].ID, second[i].ID)
		}
		if len(first[i].ID) != idLength {
			t.Errorf("anomaly %d: id length = %d, want %d", i, len(first[i].ID), idLength)
		}
	}
}

func TestNormalizer_Normalize_IDsUnique(t *testing.T) {
	n := NewNormalizer("orders_v1", testUnits())
	got := n.Normalize(testCandidates())

	seen := make(map[string]bool)
	for _, a := range got {
		if seen[a.ID] {
			t.Errorf("duplicate id %q", a.ID)
		}
		seen[a.ID] = true
	}
}

func TestNormalizer_Normalize_UnitAndSummary(t *testing.T) {
	n := NewNormalizer("orders_v1", testUnits())
	got := n.Normalize(testCandidates()[1:2])

	if len(got) != 1 {
		t.Fatalf("len(anomalies) = %d, want 1", len(got))
	}
	a := got[0]
	if a.Unit != "share" {
		t.Errorf("unit = %q, want %q", a.Unit, "share")
	}
	if a.Policy != "orders_v1" {
		t.Errorf("policy = %q, want orders_v1", a.Policy)
	}
	if a.Summary == "" {
		t.Error("summary is empty")
	}
}

func TestNormalizer_Normalize_EmptyInput(t *testing.T) {
	n := NewNormalizer("generic_tabular", nil)
	got := n.Normalize(nil)

	if got == nil {
		t.Fatal("Normalize(nil) returned nil, want empty non-nil sequence")
	}
	if len(got) != 0 {
		t.Errorf("len(anomalies) = %d, want 0", len(got))
	}

	data, err := json.Marshal(got)
	if err != nil {
		t.Fatalf("marshal error = %v", err)
	}
	if string(data) != "[]" {
		t.Errorf("marshaled empty sequence = %s, want []", data)
	}
}

func TestNormalized_RoundTrip(t *testing.T) {
	n := NewNormalizer("orders_v1", testUnits())
	original := n.Normalize(testCandidates())

	data, err := json.Marshal(original)
	if err != nil {
		t.Fatalf("marshal error = %v", err)
	}

	var decoded []Normalized
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshal error = %v", err)
	}

	if !reflect.DeepEqual(original, decoded) {
		t.Errorf("round trip mismatch:\noriginal = %+v\ndecoded  = %+v", original, decoded)
	}
}

func TestMaxSeverity(t *testing.T) {
	tests := []struct {
		name      string
		anomalies []Normalized
		want      Severity
	}{
		{"empty", nil, SeverityInfo},
		{"warning only", []Normalized{{Severity: SeverityWarning}}, SeverityWarning},
		{"mixed", []Normalized{{Severity: SeverityWarning}, {Severity: SeverityCritical}}, SeverityCritical},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := MaxSeverity(tt.anomalies); got != tt.want {
				t.Errorf("MaxSeverity() = %q, want %q", got, tt.want)
			}
		})
	}
}
