package wirecase

import (
	"reflect"
	"testing"
	"time"
)

func TestToAppCase(t *testing.T) {
	tests := []struct {
		name     string
		in       interface{}
		expected interface{}
	}{
		{
			"Flat Keys",
			map[string]interface{}{"school_id": "s1", "roll_number": "12"},
			map[string]interface{}{"schoolId": "s1", "rollNumber": "12"},
		},
		{
			"Nested Maps And Slices",
			map[string]interface{}{
				"fee_structure": []interface{}{
					map[string]interface{}{"fee_head_id": "f1", "amount": 500.0},
				},
			},
			map[string]interface{}{
				"feeStructure": []interface{}{
					map[string]interface{}{"feeHeadId": "f1", "amount": 500.0},
				},
			},
		},
		{
			"Scalar Passthrough",
			42,
			42,
		},
		{
			"Nil Passthrough",
			nil,
			nil,
		},
		{
			"Keys Without Underscores Untouched",
			map[string]interface{}{"name": "Ali", "id": "x"},
			map[string]interface{}{"name": "Ali", "id": "x"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ToAppCase(tt.in)
			if !reflect.DeepEqual(got, tt.expected) {
				t.Errorf("ToAppCase(%v) = %v, want %v", tt.in, got, tt.expected)
			}
		})
	}
}

func TestToWireCase(t *testing.T) {
	in := map[string]interface{}{
		"openingBalance": 1000.0,
		"feeItems": []interface{}{
			map[string]interface{}{"description": "Tuition", "amount": 5000.0},
		},
	}
	want := map[string]interface{}{
		"opening_balance": 1000.0,
		"fee_items": []interface{}{
			map[string]interface{}{"description": "Tuition", "amount": 5000.0},
		},
	}
	if got := ToWireCase(in); !reflect.DeepEqual(got, want) {
		t.Errorf("ToWireCase = %v, want %v", got, want)
	}
}

func TestRoundTrip(t *testing.T) {
	wire := map[string]interface{}{
		"challan_number":   "CHN-202601-0042",
		"previous_balance": 1000.0,
		"fee_items": []interface{}{
			map[string]interface{}{"description": "Tuition", "amount": 4000.0},
		},
	}
	back := ToWireCase(ToAppCase(wire))
	if !reflect.DeepEqual(back, wire) {
		t.Errorf("round trip mismatch: got %v, want %v", back, wire)
	}
}

func TestNonPlainValuesNotRecursedInto(t *testing.T) {
	now := time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC)
	in := map[string]interface{}{"due_date": now, "blob": []byte("raw_bytes")}
	got := ToAppCase(in).(map[string]interface{})

	if !got["dueDate"].(time.Time).Equal(now) {
		t.Errorf("time value was altered: %v", got["dueDate"])
	}
	if string(got["blob"].([]byte)) != "raw_bytes" {
		t.Errorf("byte slice was altered: %v", got["blob"])
	}
}

func TestMalformedKeysPassThrough(t *testing.T) {
	in := map[string]interface{}{"__weird__key_": "v", "": "empty"}
	got := ToAppCase(in).(map[string]interface{})
	if len(got) != 2 {
		t.Fatalf("expected 2 keys, got %d", len(got))
	}
	if got[""] != "empty" {
		t.Errorf("empty key did not pass through")
	}
}
