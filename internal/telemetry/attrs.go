// Package telemetry implements the in-memory trace and metrics pipeline:
// span recording, trace grouping, metric aggregation, and GPU time-series
// collection for a single evaluation run.
package telemetry

import (
	"fmt"
	"strconv"
)

// KeyValue is one attribute entry in the tagged-object payload shape.
type KeyValue struct {
	Key   string
	Value Value
}

// Value is a tagged union carrying exactly one of the four scalar kinds.
// Tags are checked in string, int, double, bool order.
type Value struct {
	StringValue *string
	IntValue    *int64
	DoubleValue *float64
	BoolValue   *bool
}

// DecodeResult holds the normalized attributes plus the keys that could
// not be decoded. Dropped keys are reported, never fatal.
type DecodeResult struct {
	Attrs   map[string]any
	Dropped []string
}

// NormalizeAttrs converts any supported attribute payload into a flat
// map of string keys to canonical scalars (string, int64, float64, bool).
// Unsupported payloads yield an empty map. Normalization is idempotent.
func NormalizeAttrs(payload any) map[string]any {
	return DecodeAttrs(payload).Attrs
}

// DecodeAttrs normalizes an attribute payload and reports per-field
// decode failures. Three payload shapes are supported: a flat mapping,
// an array of {key, value} entries with stringValue/intValue/doubleValue/
// boolValue tags, and an array of typed KeyValue objects.
func DecodeAttrs(payload any) DecodeResult {
	res := DecodeResult{Attrs: make(map[string]any)}
	if payload == nil {
		return res
	}

	switch p := payload.(type) {
	case map[string]any:
		for k, v := range p {
			res.Attrs[k] = canonicalScalar(v)
		}
	case map[string]string:
		for k, v := range p {
			res.Attrs[k] = v
		}
	case []KeyValue:
		for _, kv := range p {
			res.Attrs[kv.Key] = taggedValue(kv.Value)
		}
	case []any:
		for _, entry := range p {
			m, ok := entry.(map[string]any)
			if !ok {
				res.Dropped = append(res.Dropped, fmt.Sprintf("%v", entry))
				continue
			}
			key, ok := m["key"].(string)
			if !ok {
				res.Dropped = append(res.Dropped, fmt.Sprintf("%v", m))
				continue
			}
			res.Attrs[key] = entryValue(m["value"])
		}
	case []map[string]any:
		for _, m := range p {
			key, ok := m["key"].(string)
			if !ok {
				res.Dropped = append(res.Dropped, fmt.Sprintf("%v", m))
				continue
			}
			res.Attrs[key] = entryValue(m["value"])
		}
	default:
		res.Dropped = append(res.Dropped, fmt.Sprintf("unsupported payload %T", payload))
	}

	return res
}

// entryValue decodes the value side of a {key, value} entry. Nested
// dicts carry xValue tags; typed objects carry pointer fields; anything
// else is stringified.
func entryValue(v any) any {
	switch val := v.(type) {
	case map[string]any:
		if s, ok := val["stringValue"]; ok {
			return fmt.Sprintf("%v", s)
		}
		if i, ok := val["intValue"]; ok {
			return asInt64(i)
		}
		if d, ok := val["doubleValue"]; ok {
			return asFloat64(d)
		}
		if b, ok := val["boolValue"]; ok {
			return asBool(b)
		}
		return fmt.Sprintf("%v", val)
	case Value:
		return taggedValue(val)
	case *Value:
		if val == nil {
			return ""
		}
		return taggedValue(*val)
	default:
		return canonicalScalar(v)
	}
}

// taggedValue resolves a typed Value union in tag priority order.
func taggedValue(v Value) any {
	switch {
	case v.StringValue != nil:
		return *v.StringValue
	case v.IntValue != nil:
		return *v.IntValue
	case v.DoubleValue != nil:
		return *v.DoubleValue
	case v.BoolValue != nil:
		return *v.BoolValue
	default:
		return ""
	}
}

// canonicalScalar maps arbitrary scalars onto the canonical set:
// string, int64, float64, bool. Everything else is stringified.
func canonicalScalar(v any) any {
	switch s := v.(type) {
	case string:
		return s
	case bool:
		return s
	case int:
		return int64(s)
	case int32:
		return int64(s)
	case int64:
		return s
	case float32:
		return float64(s)
	case float64:
		return s
	case nil:
		return ""
	default:
		return fmt.Sprintf("%v", s)
	}
}

// asInt64 parses ints that may arrive as native numbers or as strings
// (the OTLP JSON encoding writes int64 values as strings).
func asInt64(v any) int64 {
	switch n := v.(type) {
	case int64:
		return n
	case int:
		return int64(n)
	case float64:
		return int64(n)
	case string:
		i, err := strconv.ParseInt(n, 10, 64)
		if err != nil {
			return 0
		}
		return i
	default:
		return 0
	}
}

func asFloat64(v any) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case float32:
		return float64(n)
	case int64:
		return float64(n)
	case int:
		return float64(n)
	case string:
		f, err := strconv.ParseFloat(n, 64)
		if err != nil {
			return 0
		}
		return f
	default:
		return 0
	}
}

func asBool(v any) bool {
	switch b := v.(type) {
	case bool:
		return b
	case string:
		parsed, err := strconv.ParseBool(b)
		if err != nil {
			return false
		}
		return parsed
	default:
		return false
	}
}

// attrInt reads an attribute as an integer, tolerating string and float
// encodings. Absent or unparseable values yield the fallback.
func attrInt(attrs map[string]any, key string, fallback int64) int64 {
	v, ok := attrs[key]
	if !ok {
		return fallback
	}
	switch n := v.(type) {
	case int64:
		return n
	case int:
		return int64(n)
	case float64:
		return int64(n)
	case string:
		i, err := strconv.ParseInt(n, 10, 64)
		if err != nil {
			return fallback
		}
		return i
	default:
		return fallback
	}
}

// attrFloat reads an attribute as a float, tolerating string and int
// encodings. Absent or unparseable values yield the fallback.
func attrFloat(attrs map[string]any, key string, fallback float64) float64 {
	v, ok := attrs[key]
	if !ok {
		return fallback
	}
	switch n := v.(type) {
	case float64:
		return n
	case int64:
		return float64(n)
	case int:
		return float64(n)
	case string:
		f, err := strconv.ParseFloat(n, 64)
		if err != nil {
			return fallback
		}
		return f
	default:
		return fallback
	}
}
