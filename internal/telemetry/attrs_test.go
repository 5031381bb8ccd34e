package telemetry

import (
	"reflect"
	"testing"
)

func TestNormalizeAttrsShapes(t *testing.T) {
	want := map[string]any{
		"test.id":     "t1",
		"tests.steps": int64(3),
	}

	id := "t1"
	steps := int64(3)

	tests := []struct {
		name    string
		payload any
	}{
		{
			name: "flat map",
			payload: map[string]any{
				"test.id":     "t1",
				"tests.steps": 3,
			},
		},
		{
			name: "tagged entries",
			payload: []any{
				map[string]any{"key": "test.id", "value": map[string]any{"stringValue": "t1"}},
				map[string]any{"key": "tests.steps", "value": map[string]any{"intValue": "3"}},
			},
		},
		{
			name: "typed key values",
			payload: []KeyValue{
				{Key: "test.id", Value: Value{StringValue: &id}},
				{Key: "tests.steps", Value: Value{IntValue: &steps}},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NormalizeAttrs(tt.payload)
			if !reflect.DeepEqual(got, want) {
				t.Errorf("NormalizeAttrs() = %#v, want %#v", got, want)
			}
		})
	}
}

func TestNormalizeAttrsIdempotent(t *testing.T) {
	payload := []any{
		map[string]any{"key": "llm.token_count.total", "value": map[string]any{"intValue": "120"}},
		map[string]any{"key": "gen_ai.usage.cost.total", "value": map[string]any{"doubleValue": 0.002}},
		map[string]any{"key": "cached", "value": map[string]any{"boolValue": true}},
	}

	once := NormalizeAttrs(payload)
	twice := NormalizeAttrs(once)
	if !reflect.DeepEqual(once, twice) {
		t.Errorf("second pass changed result: %#v vs %#v", once, twice)
	}
	if got := twice["llm.token_count.total"]; got != int64(120) {
		t.Errorf("token count = %#v, want int64(120)", got)
	}
}

func TestDecodeAttrsDropped(t *testing.T) {
	payload := []any{
		map[string]any{"key": "ok", "value": map[string]any{"stringValue": "fine"}},
		"not an entry",
		map[string]any{"value": map[string]any{"stringValue": "missing key"}},
	}

	res := DecodeAttrs(payload)
	if len(res.Dropped) != 2 {
		t.Fatalf("dropped %d entries, want 2: %v", len(res.Dropped), res.Dropped)
	}
	if res.Attrs["ok"] != "fine" {
		t.Errorf("decodable entry lost: %#v", res.Attrs)
	}
}

func TestDecodeAttrsEmptyPayloads(t *testing.T) {
	for _, payload := range []any{nil, map[string]any{}, []any{}} {
		res := DecodeAttrs(payload)
		if len(res.Attrs) != 0 {
			t.Errorf("payload %#v produced attrs %#v", payload, res.Attrs)
		}
	}
}

func TestTaggedValuePriority(t *testing.T) {
	s := "first"
	i := int64(7)
	v := Value{StringValue: &s, IntValue: &i}
	if got := taggedValue(v); got != "first" {
		t.Errorf("taggedValue = %#v, want string tag to win", got)
	}
}

func TestAttrIntCoercion(t *testing.T) {
	attrs := map[string]any{
		"as_string": "42",
		"as_float":  42.9,
		"as_int":    int64(42),
		"garbage":   "not a number",
	}

	tests := []struct {
		key  string
		want int64
	}{
		{"as_string", 42},
		{"as_float", 42},
		{"as_int", 42},
		{"garbage", -1},
		{"absent", -1},
	}

	for _, tt := range tests {
		if got := attrInt(attrs, tt.key, -1); got != tt.want {
			t.Errorf("attrInt(%q) = %d, want %d", tt.key, got, tt.want)
		}
	}
}
