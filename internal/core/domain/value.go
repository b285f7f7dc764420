// Package domain defines the core domain models for TableSync.
package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
)

// Kind identifies the node type of a Value tree.
//
// @design DS-0201
type Kind uint8

const (
	// KindNull is the JSON null scalar.
	KindNull Kind = iota

	// KindBool is a boolean scalar.
	KindBool

	// KindNumber is a float64 scalar.
	KindNumber

	// KindString is a string scalar.
	KindString

	// KindArray is an ordered list of child values.
	KindArray

	// KindObject is a string-keyed record of child values.
	KindObject

	// KindAbsent is the absent-sentinel. It never appears inside snapshot
	// content; it marks a missing side in a delta change (e.g. a participant
	// joining or leaving between two snapshots).
	KindAbsent
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBool:
		return "bool"
	case KindNumber:
		return "number"
	case KindString:
		return "string"
	case KindArray:
		return "array"
	case KindObject:
		return "object"
	case KindAbsent:
		return "absent"
	default:
		return "unknown"
	}
}

// Value is a schema-free tagged tree node. Session and participant state are
// represented as Value trees so diff/apply logic stays representation-driven;
// game-specific fields are opaque leaves to the engine.
//
// Values are immutable by convention: every operation that "modifies" a tree
// builds a new one and shares untouched subtrees, which is what makes the
// pointer-identity shortcut in the delta engine sound.
//
// @req RQ-0201
// @design DS-0201
type Value struct {
	kind   Kind
	b      bool
	num    float64
	str    string
	elems  []*Value
	fields map[string]*Value
}

var (
	nullValue   = &Value{kind: KindNull}
	absentValue = &Value{kind: KindAbsent}
	trueValue   = &Value{kind: KindBool, b: true}
	falseValue  = &Value{kind: KindBool}
)

// Null returns the shared null value.
func Null() *Value { return nullValue }

// Absent returns the shared absent-sentinel value.
func Absent() *Value { return absentValue }

// Bool returns a boolean value.
func Bool(b bool) *Value {
	if b {
		return trueValue
	}
	return falseValue
}

// Number returns a numeric value.
func Number(f float64) *Value { return &Value{kind: KindNumber, num: f} }

// String returns a string value.
func String(s string) *Value { return &Value{kind: KindString, str: s} }

// Array returns an array value over the given elements.
// The element slice is owned by the returned value.
func Array(elems ...*Value) *Value { return &Value{kind: KindArray, elems: elems} }

// Object returns an object value over the given fields.
// The field map is owned by the returned value and must not be mutated after.
func Object(fields map[string]*Value) *Value {
	if fields == nil {
		fields = map[string]*Value{}
	}
	return &Value{kind: KindObject, fields: fields}
}

// Kind returns the node kind.
func (v *Value) Kind() Kind { return v.kind }

// IsAbsent reports whether this is the absent-sentinel.
func (v *Value) IsAbsent() bool { return v.kind == KindAbsent }

// AsBool returns the boolean scalar (false for other kinds).
func (v *Value) AsBool() bool { return v.kind == KindBool && v.b }

// AsNumber returns the numeric scalar (0 for other kinds).
func (v *Value) AsNumber() float64 {
	if v.kind != KindNumber {
		return 0
	}
	return v.num
}

// AsString returns the string scalar ("" for other kinds).
func (v *Value) AsString() string {
	if v.kind != KindString {
		return ""
	}
	return v.str
}

// Len returns the element count for arrays and the field count for objects.
func (v *Value) Len() int {
	switch v.kind {
	case KindArray:
		return len(v.elems)
	case KindObject:
		return len(v.fields)
	default:
		return 0
	}
}

// Index returns the i-th array element, or nil if out of range.
func (v *Value) Index(i int) *Value {
	if v.kind != KindArray || i < 0 || i >= len(v.elems) {
		return nil
	}
	return v.elems[i]
}

// Field returns the named object field.
func (v *Value) Field(name string) (*Value, bool) {
	if v.kind != KindObject {
		return nil, false
	}
	f, ok := v.fields[name]
	return f, ok
}

// Keys returns the object field names in sorted order.
func (v *Value) Keys() []string {
	if v.kind != KindObject {
		return nil
	}
	keys := make([]string, 0, len(v.fields))
	for k := range v.fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// FromAny converts a decoded JSON-like Go value into a Value tree.
// Supported inputs: nil, bool, all integer and float types, json.Number,
// string, []any, map[string]any, and *Value (passed through as-is).
func FromAny(in any) (*Value, error) {
	switch x := in.(type) {
	case nil:
		return nullValue, nil
	case *Value:
		if x == nil {
			return nullValue, nil
		}
		return x, nil
	case bool:
		return Bool(x), nil
	case float64:
		return Number(x), nil
	case float32:
		return Number(float64(x)), nil
	case int:
		return Number(float64(x)), nil
	case int32:
		return Number(float64(x)), nil
	case int64:
		return Number(float64(x)), nil
	case uint:
		return Number(float64(x)), nil
	case uint32:
		return Number(float64(x)), nil
	case uint64:
		return Number(float64(x)), nil
	case json.Number:
		f, err := x.Float64()
		if err != nil {
			return nil, ErrInvalidArgument.WithDetails(fmt.Sprintf("number %q: %v", x, err))
		}
		return Number(f), nil
	case string:
		return String(x), nil
	case []any:
		elems := make([]*Value, len(x))
		for i, e := range x {
			v, err := FromAny(e)
			if err != nil {
				return nil, err
			}
			elems[i] = v
		}
		return &Value{kind: KindArray, elems: elems}, nil
	case map[string]any:
		fields := make(map[string]*Value, len(x))
		for k, e := range x {
			v, err := FromAny(e)
			if err != nil {
				return nil, err
			}
			fields[k] = v
		}
		return &Value{kind: KindObject, fields: fields}, nil
	default:
		return nil, ErrInvalidArgument.WithDetails(fmt.Sprintf("unsupported value type %T", in))
	}
}

// Interface converts the tree back into plain Go values
// (nil, bool, float64, string, []any, map[string]any).
// The absent-sentinel converts to nil.
func (v *Value) Interface() any {
	switch v.kind {
	case KindBool:
		return v.b
	case KindNumber:
		return v.num
	case KindString:
		return v.str
	case KindArray:
		out := make([]any, len(v.elems))
		for i, e := range v.elems {
			out[i] = e.Interface()
		}
		return out
	case KindObject:
		out := make(map[string]any, len(v.fields))
		for k, e := range v.fields {
			out[k] = e.Interface()
		}
		return out
	default:
		return nil
	}
}

// valuePair keys the visited set for cycle-safe structural comparison.
type valuePair struct{ a, b *Value }

// Equal reports structural equality of two trees. Pointer-identical subtrees
// short-circuit, and a visited set keeps self-referential structures from
// recursing forever.
//
// @design DS-0201
func (v *Value) Equal(o *Value) bool {
	return valueEqual(v, o, nil)
}

func valueEqual(a, b *Value, seen map[valuePair]bool) bool {
	if a == b {
		return true
	}
	if a == nil || b == nil {
		return false
	}
	if a.kind != b.kind {
		return false
	}
	switch a.kind {
	case KindNull, KindAbsent:
		return true
	case KindBool:
		return a.b == b.b
	case KindNumber:
		return a.num == b.num
	case KindString:
		return a.str == b.str
	}

	// Containers: guard against cycles before descending.
	pair := valuePair{a, b}
	if seen[pair] {
		return true
	}
	if seen == nil {
		seen = make(map[valuePair]bool)
	}
	seen[pair] = true

	switch a.kind {
	case KindArray:
		if len(a.elems) != len(b.elems) {
			return false
		}
		for i := range a.elems {
			if !valueEqual(a.elems[i], b.elems[i], seen) {
				return false
			}
		}
		return true
	case KindObject:
		if len(a.fields) != len(b.fields) {
			return false
		}
		for k, av := range a.fields {
			bv, ok := b.fields[k]
			if !ok || !valueEqual(av, bv, seen) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

// Clone returns a deep copy of the tree. Scalar nodes are shared (they are
// immutable); shared and cyclic container references are preserved.
func (v *Value) Clone() *Value {
	return cloneValue(v, make(map[*Value]*Value))
}

func cloneValue(v *Value, memo map[*Value]*Value) *Value {
	if v == nil {
		return nil
	}
	switch v.kind {
	case KindArray, KindObject:
	default:
		return v
	}
	if c, ok := memo[v]; ok {
		return c
	}
	out := &Value{kind: v.kind}
	memo[v] = out
	if v.kind == KindArray {
		out.elems = make([]*Value, len(v.elems))
		for i, e := range v.elems {
			out.elems[i] = cloneValue(e, memo)
		}
	} else {
		out.fields = make(map[string]*Value, len(v.fields))
		for k, e := range v.fields {
			out.fields[k] = cloneValue(e, memo)
		}
	}
	return out
}

// Canonical returns the canonical content encoding of the tree: JSON-shaped,
// object keys in sorted order, floats in shortest round-trip form. Two trees
// with equal content always produce identical canonical bytes, which is what
// the snapshot content hash is computed over.
//
// @req RQ-0202
func (v *Value) Canonical() []byte {
	return v.appendCanonical(nil, make(map[*Value]bool))
}

func (v *Value) appendCanonical(dst []byte, stack map[*Value]bool) []byte {
	if v == nil {
		return append(dst, "null"...)
	}
	switch v.kind {
	case KindNull:
		return append(dst, "null"...)
	case KindAbsent:
		return append(dst, `"__absent__"`...)
	case KindBool:
		return strconv.AppendBool(dst, v.b)
	case KindNumber:
		return strconv.AppendFloat(dst, v.num, 'g', -1, 64)
	case KindString:
		return strconv.AppendQuote(dst, v.str)
	}

	if stack[v] {
		// Self-referential container: emit a marker instead of recursing.
		return append(dst, `"__cycle__"`...)
	}
	stack[v] = true
	defer delete(stack, v)

	if v.kind == KindArray {
		dst = append(dst, '[')
		for i, e := range v.elems {
			if i > 0 {
				dst = append(dst, ',')
			}
			dst = e.appendCanonical(dst, stack)
		}
		return append(dst, ']')
	}

	dst = append(dst, '{')
	for i, k := range v.Keys() {
		if i > 0 {
			dst = append(dst, ',')
		}
		dst = strconv.AppendQuote(dst, k)
		dst = append(dst, ':')
		dst = v.fields[k].appendCanonical(dst, stack)
	}
	return append(dst, '}')
}

// absentMarkerJSON is the wire form of the absent-sentinel inside deltas.
var absentMarkerJSON = []byte(`{"__absent__":true}`)

// MarshalJSON implements json.Marshaler with sorted object keys.
func (v *Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case KindNull:
		return []byte("null"), nil
	case KindAbsent:
		return absentMarkerJSON, nil
	case KindBool:
		return strconv.AppendBool(nil, v.b), nil
	case KindNumber:
		return json.Marshal(v.num)
	case KindString:
		return json.Marshal(v.str)
	case KindArray:
		var buf bytes.Buffer
		buf.WriteByte('[')
		for i, e := range v.elems {
			if i > 0 {
				buf.WriteByte(',')
			}
			b, err := json.Marshal(e)
			if err != nil {
				return nil, err
			}
			buf.Write(b)
		}
		buf.WriteByte(']')
		return buf.Bytes(), nil
	case KindObject:
		var buf bytes.Buffer
		buf.WriteByte('{')
		for i, k := range v.Keys() {
			if i > 0 {
				buf.WriteByte(',')
			}
			kb, _ := json.Marshal(k)
			buf.Write(kb)
			buf.WriteByte(':')
			b, err := json.Marshal(v.fields[k])
			if err != nil {
				return nil, err
			}
			buf.Write(b)
		}
		buf.WriteByte('}')
		return buf.Bytes(), nil
	default:
		return nil, ErrInvalidArgument.WithDetails("unknown value kind")
	}
}

// UnmarshalJSON implements json.Unmarshaler. The absent-sentinel round-trips
// through its {"__absent__":true} marker form.
func (v *Value) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var raw any
	if err := dec.Decode(&raw); err != nil {
		return err
	}
	parsed, err := fromJSONAny(raw)
	if err != nil {
		return err
	}
	*v = *parsed
	return nil
}

func fromJSONAny(in any) (*Value, error) {
	if m, ok := in.(map[string]any); ok {
		if len(m) == 1 {
			if marker, ok := m["__absent__"].(bool); ok && marker {
				return absentValue, nil
			}
		}
		fields := make(map[string]*Value, len(m))
		for k, e := range m {
			c, err := fromJSONAny(e)
			if err != nil {
				return nil, err
			}
			fields[k] = c
		}
		return &Value{kind: KindObject, fields: fields}, nil
	}
	if a, ok := in.([]any); ok {
		elems := make([]*Value, len(a))
		for i, e := range a {
			c, err := fromJSONAny(e)
			if err != nil {
				return nil, err
			}
			elems[i] = c
		}
		return &Value{kind: KindArray, elems: elems}, nil
	}
	return FromAny(in)
}
